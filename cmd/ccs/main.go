// Package main implements the Camera Cloud Server entry point.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pion/logging"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/cam-cloud/ccs/internal/api"
	"github.com/cam-cloud/ccs/internal/config"
	"github.com/cam-cloud/ccs/internal/registry"
	"github.com/cam-cloud/ccs/internal/relay"
	"github.com/cam-cloud/ccs/internal/stats"
	"github.com/cam-cloud/ccs/internal/storage"
)

const Version = "1.0.0"

func main() {
	log.Printf("Starting Camera Cloud Server v%s", Version)

	// Step 1: Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	log.Println("Configuration loaded successfully")

	// Step 2: Set up logging
	loggerFactory := newLoggerFactory(cfg)
	mainLog := loggerFactory.NewLogger("main")

	// Step 3: Initialize image store
	store, err := storage.NewStore(cfg.Upload.Dir)
	if err != nil {
		log.Fatalf("Failed to initialize image store: %v", err)
	}
	mainLog.Infof("image store ready at %s", store.Dir())

	// Step 4: Initialize device statistics and upload log
	tracker := stats.NewTracker()
	uploadLog := stats.NewUploadLog(cfg.Upload.Dir, cfg.Upload.DeviceLogCap, cfg.Upload.EnableDeviceLog)

	// Step 5: Initialize connection registry and broadcaster
	reg := registry.New()
	broadcaster := relay.NewBroadcaster(reg, loggerFactory)
	mainLog.Infof("stream relay initialized (send timeout %s)", cfg.SendTimeout())

	// Step 6: Create API server with all components
	server := api.NewServer(cfg, reg, broadcaster, tracker, uploadLog, store, loggerFactory)

	// Step 7: Start HTTP server
	addr := cfg.Addr()
	mainLog.Infof("listening on %s", addr)
	mainLog.Infof("upload endpoint: POST http://%s/api/upload", addr)
	mainLog.Infof("stream endpoint: ws://%s/ws/stream/{deviceId}", addr)
	mainLog.Infof("viewer page:     http://%s/stream/{deviceId}", addr)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.Start(addr); err != nil {
			serverErr <- fmt.Errorf("HTTP server failed: %w", err)
		}
	}()

	// Set up graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-shutdown:
		mainLog.Infof("received signal %v, shutting down", sig)
	case err := <-serverErr:
		mainLog.Errorf("server error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Stop(ctx); err != nil {
		mainLog.Errorf("error stopping HTTP server: %v", err)
	} else {
		mainLog.Infof("HTTP server stopped gracefully")
	}

	mainLog.Infof("shutdown complete")
}

// newLoggerFactory builds the leveled logger factory, routing output through
// a rotating file writer when one is configured.
func newLoggerFactory(cfg *config.Config) *logging.DefaultLoggerFactory {
	factory := logging.NewDefaultLoggerFactory()
	factory.DefaultLogLevel = parseLogLevel(cfg.Log.Level)
	if cfg.Log.File != "" {
		factory.Writer = &lumberjack.Logger{
			Filename:   cfg.Log.File,
			MaxSize:    cfg.Log.MaxSizeMB,
			MaxBackups: cfg.Log.MaxBackups,
			MaxAge:     cfg.Log.MaxAgeDays,
		}
	}
	return factory
}

func parseLogLevel(level string) logging.LogLevel {
	switch level {
	case "disabled":
		return logging.LogLevelDisabled
	case "error":
		return logging.LogLevelError
	case "warn":
		return logging.LogLevelWarn
	case "debug":
		return logging.LogLevelDebug
	case "trace":
		return logging.LogLevelTrace
	default:
		return logging.LogLevelInfo
	}
}
