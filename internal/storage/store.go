package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Sentinel errors callers branch on.
var (
	ErrNotFound    = errors.New("image not found")
	ErrInvalidName = errors.New("invalid filename")
)

// ImageInfo describes one stored image.
type ImageInfo struct {
	Filename string
	Size     int64
	ModTime  time.Time
}

// Store writes and serves uploaded images under a single directory.
type Store struct {
	dir string

	now func() time.Time
}

// NewStore creates the upload directory if needed and returns a store for it.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &Store{dir: dir, now: time.Now}, nil
}

// Dir returns the absolute upload directory path.
func (s *Store) Dir() string {
	abs, err := filepath.Abs(s.dir)
	if err != nil {
		return s.dir
	}
	return abs
}

// SaveImage writes data as a new JPEG file named after the device and the
// client timestamp (or the current time when absent) and returns the filename.
func (s *Store) SaveImage(deviceID, timestamp string, data []byte) (string, error) {
	filename := s.filename(deviceID, timestamp)
	if filename != filepath.Base(filename) {
		return "", ErrInvalidName
	}

	if err := os.WriteFile(filepath.Join(s.dir, filename), data, 0644); err != nil {
		return "", fmt.Errorf("failed to write image: %w", err)
	}
	return filename, nil
}

// filename derives a flat .jpg name. Client timestamps keep their ordering
// but lose characters that collide with extension dots and path syntax.
func (s *Store) filename(deviceID, timestamp string) string {
	device := sanitize(deviceID)
	if device == "" {
		device = "unknown"
	}
	if timestamp != "" {
		safe := strings.NewReplacer(".", "_", ":", "-", "/", "-", "\\", "-").Replace(timestamp)
		return fmt.Sprintf("%s_%s.jpg", device, safe)
	}
	t := s.now()
	return fmt.Sprintf("%s_%s_%06d.jpg", device, t.Format("20060102_150405"), t.Nanosecond()/1000)
}

// sanitize strips path syntax from a device identifier before it becomes part
// of a filename.
func sanitize(id string) string {
	return strings.NewReplacer("/", "-", "\\", "-", "..", "-", " ", "_").Replace(id)
}

// ImagePath resolves filename to a path inside the upload directory. Names
// carrying path syntax are rejected before touching the filesystem.
func (s *Store) ImagePath(filename string) (string, error) {
	if filename == "" || strings.Contains(filename, "..") ||
		strings.ContainsAny(filename, `/\`) {
		return "", ErrInvalidName
	}

	path := filepath.Join(s.dir, filename)
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("failed to stat image: %w", err)
	}
	return path, nil
}

// ListImages returns all stored images sorted by modification time, newest
// first.
func (s *Store) ListImages() ([]ImageInfo, error) {
	matches, err := filepath.Glob(filepath.Join(s.dir, "*.jpg"))
	if err != nil {
		return nil, fmt.Errorf("failed to list images: %w", err)
	}

	images := make([]ImageInfo, 0, len(matches))
	for _, path := range matches {
		info, err := os.Stat(path)
		if err != nil {
			// File removed between glob and stat.
			continue
		}
		images = append(images, ImageInfo{
			Filename: filepath.Base(path),
			Size:     info.Size(),
			ModTime:  info.ModTime(),
		})
	}

	sort.Slice(images, func(i, j int) bool {
		return images[i].ModTime.After(images[j].ModTime)
	})
	return images, nil
}

// Totals returns the stored image count and their combined size in bytes.
func (s *Store) Totals() (int, int64, error) {
	images, err := s.ListImages()
	if err != nil {
		return 0, 0, err
	}

	var bytes int64
	for _, img := range images {
		bytes += img.Size
	}
	return len(images), bytes, nil
}
