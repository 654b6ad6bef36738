package api

import (
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/cam-cloud/ccs/internal/relay"
	"github.com/cam-cloud/ccs/internal/storage"
)

// RegisterRoutes registers all endpoints.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/upload", s.withCORS(s.handleUpload))
	mux.HandleFunc("/api/status", s.withCORS(s.handleStatus))
	mux.HandleFunc("/api/devices", s.withCORS(s.handleDevices))
	mux.HandleFunc("/api/device/", s.withCORS(s.handleDeviceByID))
	mux.HandleFunc("/api/images", s.withCORS(s.handleImages))
	mux.HandleFunc("/api/image/", s.withCORS(s.handleImageByName))
	mux.HandleFunc("/api/health", s.withCORS(s.handleHealth))
	mux.HandleFunc("/api/streams", s.withCORS(s.handleStreams))
	mux.HandleFunc("/ws/stream/", s.handleStream)
	mux.HandleFunc("/stream/", s.handleViewer)
}

// withCORS allows browser viewers served from any origin to hit the API.
func (s *Server) withCORS(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-API-Key, X-Device-ID, X-Timestamp")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next(w, r)
	}
}

// handleUpload handles POST /api/upload
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteMethodNotAllowed(w, http.MethodPost)
		return
	}

	if !s.keychecker.Authorize(r) {
		WriteError(w, http.StatusUnauthorized, "Invalid API key")
		return
	}

	deviceID := r.Header.Get("X-Device-ID")
	if deviceID == "" {
		deviceID = "unknown"
	}
	timestamp := r.Header.Get("X-Timestamp")
	s.log.Infof("upload from device %s, timestamp %q", deviceID, timestamp)

	maxSize := s.cfg.Upload.MaxFileSize
	data, err := io.ReadAll(io.LimitReader(r.Body, maxSize+1))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "Failed to read request body")
		return
	}

	if len(data) == 0 {
		WriteError(w, http.StatusBadRequest, "No image data received")
		return
	}

	if int64(len(data)) > maxSize {
		WriteError(w, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("File too large. Max: %d bytes", maxSize))
		return
	}

	if !relay.ValidFrame(data) {
		s.stats.Record(deviceID, false)
		if err := s.uploadLog.Append(deviceID, timestamp, "", false); err != nil {
			s.log.Warnf("device log append failed: %v", err)
		}
		WriteError(w, http.StatusBadRequest, "Invalid JPEG format")
		return
	}

	filename, err := s.storage.SaveImage(deviceID, timestamp, data)
	if err != nil {
		s.log.Errorf("failed to save image from %s: %v", deviceID, err)
		WriteError(w, http.StatusInternalServerError, "Failed to save image")
		return
	}
	s.log.Infof("image saved: %s (%d bytes)", filename, len(data))

	s.stats.Record(deviceID, true)
	if err := s.uploadLog.Append(deviceID, timestamp, filename, true); err != nil {
		s.log.Warnf("device log append failed: %v", err)
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success":     true,
		"filename":    filename,
		"size":        len(data),
		"device_id":   deviceID,
		"timestamp":   timestamp,
		"upload_time": time.Now().Format(time.RFC3339),
	})
}

// handleStatus handles GET /api/status
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteMethodNotAllowed(w, http.MethodGet)
		return
	}

	count, bytes, err := s.storage.Totals()
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Failed to read upload directory")
		return
	}

	sizeMB := math.Round(float64(bytes)/(1024*1024)*100) / 100
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success":       true,
		"server_status": "running",
		"total_images":  count,
		"total_size_mb": sizeMB,
		"device_count":  s.stats.DeviceCount(),
		"devices":       s.stats.Snapshot(),
		"upload_dir":    s.storage.Dir(),
	})
}

// handleDevices handles GET /api/devices
func (s *Server) handleDevices(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteMethodNotAllowed(w, http.MethodGet)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"devices": s.stats.Snapshot(),
	})
}

// handleDeviceByID handles GET /api/device/{id}
func (s *Server) handleDeviceByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteMethodNotAllowed(w, http.MethodGet)
		return
	}

	deviceID := strings.TrimPrefix(r.URL.Path, "/api/device/")
	if deviceID == "" || strings.Contains(deviceID, "/") {
		WriteError(w, http.StatusBadRequest, "Device ID is required")
		return
	}

	deviceStats, ok := s.stats.Get(deviceID)
	if !ok {
		WriteError(w, http.StatusNotFound, "Device not found")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"device_id": deviceID,
		"stats":     deviceStats,
	})
}

// handleImages handles GET /api/images?page=&per_page=
func (s *Server) handleImages(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteMethodNotAllowed(w, http.MethodGet)
		return
	}

	page := queryInt(r, "page", 1)
	perPage := queryInt(r, "per_page", 20)
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 20
	}

	images, err := s.storage.ListImages()
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Failed to list images")
		return
	}

	start := (page - 1) * perPage
	end := start + perPage
	if start > len(images) {
		start = len(images)
	}
	if end > len(images) {
		end = len(images)
	}

	pageInfos := make([]map[string]interface{}, 0, end-start)
	for _, img := range images[start:end] {
		pageInfos = append(pageInfos, map[string]interface{}{
			"filename":    img.Filename,
			"size":        img.Size,
			"upload_time": img.ModTime.Format(time.RFC3339),
			"url":         "/api/image/" + img.Filename,
		})
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"total":    len(images),
		"page":     page,
		"per_page": perPage,
		"images":   pageInfos,
	})
}

// handleImageByName handles GET /api/image/{filename}
func (s *Server) handleImageByName(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteMethodNotAllowed(w, http.MethodGet)
		return
	}

	filename := strings.TrimPrefix(r.URL.Path, "/api/image/")
	path, err := s.storage.ImagePath(filename)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrInvalidName):
			WriteError(w, http.StatusBadRequest, "Invalid filename")
		case errors.Is(err, storage.ErrNotFound):
			WriteError(w, http.StatusNotFound, "Image not found")
		default:
			WriteError(w, http.StatusInternalServerError, "Failed to read image")
		}
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	http.ServeFile(w, r, path)
}

// handleHealth handles GET /api/health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteMethodNotAllowed(w, http.MethodGet)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// handleStreams handles GET /api/streams
func (s *Server) handleStreams(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteMethodNotAllowed(w, http.MethodGet)
		return
	}

	devices := s.registry.ListActiveDevices()
	activeDevices := make([]string, 0, len(devices))
	clientCounts := make(map[string]int, len(devices))
	for id, state := range devices {
		if state.HasProducer {
			activeDevices = append(activeDevices, id)
		}
		if state.ConsumerCount > 0 {
			clientCounts[id] = state.ConsumerCount
		}
	}
	sort.Strings(activeDevices)

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success":        true,
		"active_devices": activeDevices,
		"client_counts":  clientCounts,
	})
}

// queryInt parses an integer query parameter with a fallback.
func queryInt(r *http.Request, name string, fallback int) int {
	v := r.URL.Query().Get(name)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
