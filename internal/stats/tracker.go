package stats

import (
	"sync"
	"time"
)

// DeviceStats holds the upload counters for one device.
type DeviceStats struct {
	Total      int    `json:"total"`
	Success    int    `json:"success"`
	Fail       int    `json:"fail"`
	LastUpload string `json:"last_upload,omitempty"`
}

// Tracker keeps per-device upload statistics in memory. State is rebuilt from
// scratch on restart; durability lives in the upload log and the files
// themselves.
type Tracker struct {
	mu      sync.RWMutex
	devices map[string]DeviceStats

	now func() time.Time
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{
		devices: make(map[string]DeviceStats),
		now:     time.Now,
	}
}

// Record counts one upload attempt for deviceID. A successful upload also
// refreshes the device's last-upload timestamp.
func (t *Tracker) Record(deviceID string, success bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	stats := t.devices[deviceID]
	stats.Total++
	if success {
		stats.Success++
		stats.LastUpload = t.now().Format(time.RFC3339)
	} else {
		stats.Fail++
	}
	t.devices[deviceID] = stats
}

// Get returns the stats for deviceID and whether the device has been seen.
func (t *Tracker) Get(deviceID string) (DeviceStats, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	stats, ok := t.devices[deviceID]
	return stats, ok
}

// Snapshot returns a copy of all device stats.
func (t *Tracker) Snapshot() map[string]DeviceStats {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make(map[string]DeviceStats, len(t.devices))
	for id, stats := range t.devices {
		out[id] = stats
	}
	return out
}

// DeviceCount returns the number of devices seen so far.
func (t *Tracker) DeviceCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.devices)
}
