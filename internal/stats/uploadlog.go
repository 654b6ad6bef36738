package stats

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// LogFileName is the device log file created inside the upload directory.
const LogFileName = "device_log.json"

// Entry is one upload record in the device log.
type Entry struct {
	DeviceID   string `json:"device_id"`
	Timestamp  string `json:"timestamp"`
	Filename   string `json:"filename"`
	Success    bool   `json:"success"`
	UploadTime string `json:"upload_time"`
}

// UploadLog is an append-only, bounded JSON log of upload attempts. The file
// holds a single JSON array trimmed to the most recent cap entries.
type UploadLog struct {
	mu      sync.Mutex
	path    string
	cap     int
	enabled bool

	now func() time.Time
}

// NewUploadLog creates an upload log stored in dir. When enabled is false,
// Append is a no-op.
func NewUploadLog(dir string, cap int, enabled bool) *UploadLog {
	return &UploadLog{
		path:    filepath.Join(dir, LogFileName),
		cap:     cap,
		enabled: enabled,
		now:     time.Now,
	}
}

// Append records one upload attempt. The file is rewritten with the trimmed
// entry list; a missing file starts an empty log.
func (l *UploadLog) Append(deviceID, timestamp, filename string, success bool) error {
	if !l.enabled {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	entries, err := l.readLocked()
	if err != nil {
		return err
	}

	entries = append(entries, Entry{
		DeviceID:   deviceID,
		Timestamp:  timestamp,
		Filename:   filename,
		Success:    success,
		UploadTime: l.now().Format(time.RFC3339),
	})
	if len(entries) > l.cap {
		entries = entries[len(entries)-l.cap:]
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal device log: %w", err)
	}
	if err := os.WriteFile(l.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write device log: %w", err)
	}
	return nil
}

// Entries returns the current log contents.
func (l *UploadLog) Entries() ([]Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.readLocked()
}

func (l *UploadLog) readLocked() ([]Entry, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read device log: %w", err)
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse device log: %w", err)
	}
	return entries, nil
}
