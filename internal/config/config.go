package config

import "context"

// Package config provides configuration management for statuswatch.
//
// Configuration Sources (priority order, high to low):
//   1. CLI flags (highest priority)
//   2. Environment variables (STATUSWATCH_* prefix)
//   3. YAML config files (default: statuswatch.yaml in the working directory)
//   4. Built-in defaults (lowest priority)

// Config struct contains all configuration fields
type Config struct {
	// Status API configuration
	API struct {
		URL               string
		TimeoutSeconds    int
		MaxRetries        int
		RetryDelaySeconds int
	}

	// Cache configuration
	Cache struct {
		Enabled            bool
		TTLSeconds         int
		MaxSizeMB          int
		CompressionEnabled bool
	}

	// Analytics configuration
	Analytics struct {
		Enabled          bool
		LearningWindow   int
		AnomalyThreshold float64
		MinConfidence    float64
		RetentionDays    int
	}

	// Database configuration
	Database struct {
		Path string
	}

	// Notifications configuration
	Notifications struct {
		Enabled     bool
		MinSeverity string
		// CooldownSeconds suppresses repeat alerts of the same type.
		CooldownSeconds int

		Email struct {
			Enabled    bool
			SMTPServer string
			SMTPPort   int
			UseTLS     bool
			Username   string
			Password   string
			From       string
			Recipients []string
		}

		Webhooks []string
		// WebhookTimeoutSeconds bounds each webhook POST.
		WebhookTimeoutSeconds int
	}

	// Web server configuration (status API + WebSocket + /metrics)
	Web struct {
		Enabled         bool
		Port            int
		RefreshSeconds  int
		AllowedOrigins  []string
		ExporterEnabled bool
	}

	// Worker pool configuration
	Workers struct {
		MaxConcurrent int
	}

	// Logging configuration
	Logging struct {
		Level      string
		Format     string
		File       string
		MaxSizeMB  int
		MaxBackups int
		MaxAgeDays int
	}
}

// Manager defines the interface for configuration access.
type Manager interface {
	// Load loads configuration from all sources.
	Load(ctx context.Context) error

	// Get returns the current configuration.
	Get(ctx context.Context) *Config

	// Validate validates configuration is correct and complete.
	Validate(ctx context.Context) error

	// Watch watches for configuration changes and reloads (if supported).
	Watch(ctx context.Context) <-chan Config

	// Reload reloads configuration from sources.
	Reload(ctx context.Context) error
}

// NewManager creates a new configuration manager.
func NewManager(configPath string) (Manager, error) {
	mgr := &viperManager{
		configPath: configPath,
		config:     DefaultConfig(),
		watchChan:  make(chan Config, 1),
	}
	return mgr, nil
}

// NewManagerWithDefaults creates a config manager with the default config path.
func NewManagerWithDefaults() (Manager, error) {
	return NewManager("statuswatch.yaml")
}
