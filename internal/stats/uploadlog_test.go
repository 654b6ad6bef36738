package stats

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUploadLogAppendAndRead(t *testing.T) {
	dir := t.TempDir()
	l := NewUploadLog(dir, 1000, true)

	require.NoError(t, l.Append("cam1", "1724900000.123", "cam1_1724900000_123.jpg", true))
	require.NoError(t, l.Append("cam2", "", "cam2_20260829_120000_000001.jpg", false))

	entries, err := l.Entries()
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "cam1", entries[0].DeviceID)
	assert.Equal(t, "1724900000.123", entries[0].Timestamp)
	assert.True(t, entries[0].Success)
	assert.NotEmpty(t, entries[0].UploadTime)

	assert.Equal(t, "cam2", entries[1].DeviceID)
	assert.False(t, entries[1].Success)
}

func TestUploadLogBounded(t *testing.T) {
	dir := t.TempDir()
	l := NewUploadLog(dir, 5, true)

	for i := 0; i < 8; i++ {
		require.NoError(t, l.Append("cam1", "", fmt.Sprintf("frame%d.jpg", i), true))
	}

	entries, err := l.Entries()
	require.NoError(t, err)
	require.Len(t, entries, 5, "log trimmed to the most recent entries")
	assert.Equal(t, "frame3.jpg", entries[0].Filename)
	assert.Equal(t, "frame7.jpg", entries[4].Filename)
}

func TestUploadLogDisabled(t *testing.T) {
	dir := t.TempDir()
	l := NewUploadLog(dir, 1000, false)

	require.NoError(t, l.Append("cam1", "", "a.jpg", true))

	_, err := os.Stat(filepath.Join(dir, LogFileName))
	assert.True(t, os.IsNotExist(err), "disabled log must not create a file")
}

func TestUploadLogCorruptFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, LogFileName), []byte("not json"), 0644))

	l := NewUploadLog(dir, 1000, true)
	_, err := l.Entries()
	assert.Error(t, err)
}
