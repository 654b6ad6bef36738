package api

import (
	"github.com/cam-cloud/ccs/internal/stats"
	"github.com/cam-cloud/ccs/internal/storage"
)

// StatsPort defines the minimal interface the API needs from the stats tracker.
type StatsPort interface {
	Record(deviceID string, success bool)
	Get(deviceID string) (stats.DeviceStats, bool)
	Snapshot() map[string]stats.DeviceStats
	DeviceCount() int
}

// UploadLogPort defines the minimal interface the API needs from the upload log.
type UploadLogPort interface {
	Append(deviceID, timestamp, filename string, success bool) error
}

// StoragePort defines the minimal interface the API needs from the image store.
type StoragePort interface {
	SaveImage(deviceID, timestamp string, data []byte) (string, error)
	ImagePath(filename string) (string, error)
	ListImages() ([]storage.ImageInfo, error)
	Totals() (int, int64, error)
	Dir() string
}

// Compile-time assertions for port conformance
var _ StatsPort = (*stats.Tracker)(nil)
var _ UploadLogPort = (*stats.UploadLog)(nil)
var _ StoragePort = (*storage.Store)(nil)
