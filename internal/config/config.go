package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v2"
)

// Config represents the complete configuration for the Camera Cloud Server.
type Config struct {
	Server ServerConfig `yaml:"server"`
	Auth   AuthConfig   `yaml:"auth"`
	Upload UploadConfig `yaml:"upload"`
	Stream StreamConfig `yaml:"stream"`
	Log    LogConfig    `yaml:"log"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	ReadTimeoutSec int    `yaml:"readTimeoutSec"`
	IdleTimeoutSec int    `yaml:"idleTimeoutSec"`
}

// AuthConfig holds the shared-secret credential settings.
type AuthConfig struct {
	APIKey string `yaml:"apiKey"`
}

// UploadConfig holds still-image ingestion settings.
type UploadConfig struct {
	Dir             string `yaml:"dir"`
	MaxFileSize     int64  `yaml:"maxFileSize"`
	EnableDeviceLog bool   `yaml:"enableDeviceLog"`
	DeviceLogCap    int    `yaml:"deviceLogCap"`
}

// StreamConfig holds live stream relay settings.
type StreamConfig struct {
	SendTimeoutSec int   `yaml:"sendTimeoutSec"` // bounds one consumer's stall per broadcast pass
	ReadLimit      int64 `yaml:"readLimit"`      // max inbound WebSocket message size in bytes
}

// LogConfig holds logging output settings. When File is set, output is
// rotated with lumberjack using the size/backup/age limits below.
type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"maxSizeMb"`
	MaxBackups int    `yaml:"maxBackups"`
	MaxAgeDays int    `yaml:"maxAgeDays"`
}

// Addr returns the listen address in host:port form.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// ReadTimeout returns the HTTP read timeout as a duration.
func (c *Config) ReadTimeout() time.Duration {
	return time.Duration(c.Server.ReadTimeoutSec) * time.Second
}

// IdleTimeout returns the HTTP idle timeout as a duration.
func (c *Config) IdleTimeout() time.Duration {
	return time.Duration(c.Server.IdleTimeoutSec) * time.Second
}

// SendTimeout returns the per-consumer broadcast send timeout as a duration.
func (c *Config) SendTimeout() time.Duration {
	return time.Duration(c.Stream.SendTimeoutSec) * time.Second
}

// Load loads configuration from file and environment variables.
func Load() (*Config, error) {
	cfg := Default()

	// Load from default config file if present
	if err := loadFromFile(cfg, "config/default.yaml"); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load config/default.yaml: %w", err)
	}

	// Load from config file if CCS_CONFIG is set
	if path := os.Getenv("CCS_CONFIG"); path != "" {
		if err := loadFromFile(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
		}
	}

	// Override with environment variables
	applyEnvOverrides(cfg)

	// Validate configuration
	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:           "0.0.0.0",
			Port:           8000,
			ReadTimeoutSec: 30,
			IdleTimeoutSec: 120,
		},
		Auth: AuthConfig{
			APIKey: "your-api-key",
		},
		Upload: UploadConfig{
			Dir:             "uploads",
			MaxFileSize:     10 * 1024 * 1024,
			EnableDeviceLog: true,
			DeviceLogCap:    1000,
		},
		Stream: StreamConfig{
			SendTimeoutSec: 5,
			ReadLimit:      10 * 1024 * 1024,
		},
		Log: LogConfig{
			Level:      "info",
			File:       "",
			MaxSizeMB:  100,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}

// loadFromFile loads configuration from a YAML file.
func loadFromFile(cfg *Config, filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return err
	}

	return yaml.Unmarshal(data, cfg)
}

// applyEnvOverrides applies CCS_* environment variable overrides.
func applyEnvOverrides(cfg *Config) {
	if host := os.Getenv("CCS_HOST"); host != "" {
		cfg.Server.Host = host
	}

	if port := os.Getenv("CCS_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Server.Port = p
		}
	}

	if key := os.Getenv("CCS_API_KEY"); key != "" {
		cfg.Auth.APIKey = key
	}

	if dir := os.Getenv("CCS_UPLOAD_DIR"); dir != "" {
		cfg.Upload.Dir = dir
	}

	if size := os.Getenv("CCS_MAX_FILE_SIZE"); size != "" {
		if n, err := strconv.ParseInt(size, 10, 64); err == nil {
			cfg.Upload.MaxFileSize = n
		}
	}

	if enable := os.Getenv("CCS_ENABLE_DEVICE_LOG"); enable != "" {
		if b, err := strconv.ParseBool(enable); err == nil {
			cfg.Upload.EnableDeviceLog = b
		}
	}

	if timeout := os.Getenv("CCS_STREAM_SEND_TIMEOUT"); timeout != "" {
		if sec, err := strconv.Atoi(timeout); err == nil {
			cfg.Stream.SendTimeoutSec = sec
		}
	}

	if file := os.Getenv("CCS_LOG_FILE"); file != "" {
		cfg.Log.File = file
	}

	if level := os.Getenv("CCS_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
}

// Validate validates the configuration.
func Validate(cfg *Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("invalid port %d, must be in range [1, 65535]", cfg.Server.Port)
	}

	if cfg.Auth.APIKey == "" {
		return fmt.Errorf("apiKey must not be empty")
	}

	if cfg.Upload.Dir == "" {
		return fmt.Errorf("upload dir must not be empty")
	}

	if cfg.Upload.MaxFileSize <= 0 {
		return fmt.Errorf("maxFileSize %d must be positive", cfg.Upload.MaxFileSize)
	}

	if cfg.Upload.DeviceLogCap <= 0 {
		return fmt.Errorf("deviceLogCap %d must be positive", cfg.Upload.DeviceLogCap)
	}

	if cfg.Stream.SendTimeoutSec <= 0 || cfg.Stream.SendTimeoutSec > 60 {
		return fmt.Errorf("stream send timeout %d seconds is outside reasonable range [1, 60]", cfg.Stream.SendTimeoutSec)
	}

	if cfg.Stream.ReadLimit <= 0 {
		return fmt.Errorf("stream readLimit %d must be positive", cfg.Stream.ReadLimit)
	}

	validLevels := []string{"trace", "debug", "info", "warn", "error", "disabled"}
	if !contains(validLevels, cfg.Log.Level) {
		return fmt.Errorf("invalid log level %s, must be one of: %v", cfg.Log.Level, validLevels)
	}

	return nil
}

// contains checks if a string slice contains a specific string.
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
