package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pion/logging"

	"github.com/cam-cloud/ccs/internal/auth"
	"github.com/cam-cloud/ccs/internal/config"
	"github.com/cam-cloud/ccs/internal/registry"
	"github.com/cam-cloud/ccs/internal/relay"
)

// Server represents the HTTP API server.
type Server struct {
	httpServer *http.Server

	cfg         *config.Config
	keychecker  *auth.Keychecker
	registry    *registry.Registry
	broadcaster *relay.Broadcaster
	stats       StatsPort
	uploadLog   UploadLogPort
	storage     StoragePort

	upgrader      websocket.Upgrader
	loggerFactory logging.LoggerFactory
	log           logging.LeveledLogger
	startTime     time.Time
}

// NewServer creates a new API server.
func NewServer(cfg *config.Config, reg *registry.Registry, bc *relay.Broadcaster,
	statsPort StatsPort, uploadLog UploadLogPort, store StoragePort,
	loggerFactory logging.LoggerFactory) *Server {
	return &Server{
		cfg:         cfg,
		keychecker:  auth.NewKeychecker(cfg.Auth.APIKey),
		registry:    reg,
		broadcaster: bc,
		stats:       statsPort,
		uploadLog:   uploadLog,
		storage:     store,
		upgrader: websocket.Upgrader{
			// Viewers connect from arbitrary origins.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		loggerFactory: loggerFactory,
		log:           loggerFactory.NewLogger("api"),
		startTime:     time.Now(),
	}
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start(addr string) error {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)

	s.httpServer = &http.Server{
		Addr:        addr,
		Handler:     mux,
		ReadTimeout: s.cfg.ReadTimeout(),
		IdleTimeout: s.cfg.IdleTimeout(),
		// No WriteTimeout: stream connections are hijacked and manage their
		// own deadlines; a server-wide write deadline would sever them.
	}

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	return nil
}

// Stop gracefully stops the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shutdown HTTP server: %w", err)
	}
	return nil
}
