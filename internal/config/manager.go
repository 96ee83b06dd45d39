package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// viperManager implements Manager using Viper.
type viperManager struct {
	configPath string
	config     *Config
	viper      *viper.Viper
	watchChan  chan Config
}

// Load loads configuration from all sources.
func (m *viperManager) Load(ctx context.Context) error {
	m.viper = viper.New()

	m.viper.SetConfigFile(m.configPath)
	m.viper.SetConfigType("yaml")

	m.viper.SetEnvPrefix("STATUSWATCH")
	m.viper.AutomaticEnv()
	m.viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	m.setDefaults()

	// Config file is optional; defaults + env vars are enough to run.
	if err := m.viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// no file, use defaults
		} else if os.IsNotExist(err) {
			// no file, use defaults
		} else {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	if err := m.unmarshalConfig(); err != nil {
		return fmt.Errorf("error unmarshaling config: %w", err)
	}

	m.applyEnvOverrides()

	return nil
}

// Get returns the current configuration.
func (m *viperManager) Get(ctx context.Context) *Config {
	return m.config
}

// Validate validates configuration is correct and complete.
func (m *viperManager) Validate(ctx context.Context) error {
	errs := m.config.Validate()
	if len(errs) > 0 {
		var errMsgs []string
		for _, err := range errs {
			errMsgs = append(errMsgs, err.Error())
		}
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errMsgs, "\n  - "))
	}
	return nil
}

// Watch watches for configuration changes and reloads.
func (m *viperManager) Watch(ctx context.Context) <-chan Config {
	m.viper.WatchConfig()
	m.viper.OnConfigChange(func(e fsnotify.Event) {
		if err := m.unmarshalConfig(); err != nil {
			return
		}
		select {
		case m.watchChan <- *m.config:
		default:
			// Channel full, skip this update
		}
	})

	return m.watchChan
}

// Reload reloads configuration from sources.
func (m *viperManager) Reload(ctx context.Context) error {
	if err := m.viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	if err := m.unmarshalConfig(); err != nil {
		return fmt.Errorf("error unmarshaling config: %w", err)
	}

	m.applyEnvOverrides()

	return nil
}

// setDefaults sets default values in viper.
func (m *viperManager) setDefaults() {
	defaults := DefaultConfig()

	// API defaults
	m.viper.SetDefault("api.url", defaults.API.URL)
	m.viper.SetDefault("api.timeout_seconds", defaults.API.TimeoutSeconds)
	m.viper.SetDefault("api.max_retries", defaults.API.MaxRetries)
	m.viper.SetDefault("api.retry_delay_seconds", defaults.API.RetryDelaySeconds)

	// Cache defaults
	m.viper.SetDefault("cache.enabled", defaults.Cache.Enabled)
	m.viper.SetDefault("cache.ttl_seconds", defaults.Cache.TTLSeconds)
	m.viper.SetDefault("cache.max_size_mb", defaults.Cache.MaxSizeMB)
	m.viper.SetDefault("cache.compression_enabled", defaults.Cache.CompressionEnabled)

	// Analytics defaults
	m.viper.SetDefault("analytics.enabled", defaults.Analytics.Enabled)
	m.viper.SetDefault("analytics.learning_window", defaults.Analytics.LearningWindow)
	m.viper.SetDefault("analytics.anomaly_threshold", defaults.Analytics.AnomalyThreshold)
	m.viper.SetDefault("analytics.min_confidence", defaults.Analytics.MinConfidence)
	m.viper.SetDefault("analytics.retention_days", defaults.Analytics.RetentionDays)

	// Database defaults
	m.viper.SetDefault("database.path", defaults.Database.Path)

	// Notification defaults
	m.viper.SetDefault("notifications.enabled", defaults.Notifications.Enabled)
	m.viper.SetDefault("notifications.min_severity", defaults.Notifications.MinSeverity)
	m.viper.SetDefault("notifications.cooldown_seconds", defaults.Notifications.CooldownSeconds)
	m.viper.SetDefault("notifications.email.enabled", defaults.Notifications.Email.Enabled)
	m.viper.SetDefault("notifications.email.smtp_server", defaults.Notifications.Email.SMTPServer)
	m.viper.SetDefault("notifications.email.smtp_port", defaults.Notifications.Email.SMTPPort)
	m.viper.SetDefault("notifications.email.use_tls", defaults.Notifications.Email.UseTLS)
	m.viper.SetDefault("notifications.email.from", defaults.Notifications.Email.From)
	m.viper.SetDefault("notifications.webhooks", defaults.Notifications.Webhooks)
	m.viper.SetDefault("notifications.webhook_timeout_seconds", defaults.Notifications.WebhookTimeoutSeconds)

	// Web defaults
	m.viper.SetDefault("web.enabled", defaults.Web.Enabled)
	m.viper.SetDefault("web.port", defaults.Web.Port)
	m.viper.SetDefault("web.refresh_seconds", defaults.Web.RefreshSeconds)
	m.viper.SetDefault("web.allowed_origins", defaults.Web.AllowedOrigins)
	m.viper.SetDefault("web.exporter_enabled", defaults.Web.ExporterEnabled)

	// Worker defaults
	m.viper.SetDefault("workers.max_concurrent", defaults.Workers.MaxConcurrent)

	// Logging defaults
	m.viper.SetDefault("logging.level", defaults.Logging.Level)
	m.viper.SetDefault("logging.format", defaults.Logging.Format)
	m.viper.SetDefault("logging.file", defaults.Logging.File)
	m.viper.SetDefault("logging.max_size_mb", defaults.Logging.MaxSizeMB)
	m.viper.SetDefault("logging.max_backups", defaults.Logging.MaxBackups)
	m.viper.SetDefault("logging.max_age_days", defaults.Logging.MaxAgeDays)
}

// unmarshalConfig unmarshals viper config into Config struct.
func (m *viperManager) unmarshalConfig() error {
	cfg := &Config{}

	// API
	cfg.API.URL = m.viper.GetString("api.url")
	cfg.API.TimeoutSeconds = m.viper.GetInt("api.timeout_seconds")
	cfg.API.MaxRetries = m.viper.GetInt("api.max_retries")
	cfg.API.RetryDelaySeconds = m.viper.GetInt("api.retry_delay_seconds")

	// Cache
	cfg.Cache.Enabled = m.viper.GetBool("cache.enabled")
	cfg.Cache.TTLSeconds = m.viper.GetInt("cache.ttl_seconds")
	cfg.Cache.MaxSizeMB = m.viper.GetInt("cache.max_size_mb")
	cfg.Cache.CompressionEnabled = m.viper.GetBool("cache.compression_enabled")

	// Analytics
	cfg.Analytics.Enabled = m.viper.GetBool("analytics.enabled")
	cfg.Analytics.LearningWindow = m.viper.GetInt("analytics.learning_window")
	cfg.Analytics.AnomalyThreshold = m.viper.GetFloat64("analytics.anomaly_threshold")
	cfg.Analytics.MinConfidence = m.viper.GetFloat64("analytics.min_confidence")
	cfg.Analytics.RetentionDays = m.viper.GetInt("analytics.retention_days")

	// Database
	cfg.Database.Path = m.viper.GetString("database.path")

	// Notifications
	cfg.Notifications.Enabled = m.viper.GetBool("notifications.enabled")
	cfg.Notifications.MinSeverity = m.viper.GetString("notifications.min_severity")
	cfg.Notifications.CooldownSeconds = m.viper.GetInt("notifications.cooldown_seconds")
	cfg.Notifications.Email.Enabled = m.viper.GetBool("notifications.email.enabled")
	cfg.Notifications.Email.SMTPServer = m.viper.GetString("notifications.email.smtp_server")
	cfg.Notifications.Email.SMTPPort = m.viper.GetInt("notifications.email.smtp_port")
	cfg.Notifications.Email.UseTLS = m.viper.GetBool("notifications.email.use_tls")
	cfg.Notifications.Email.Username = m.viper.GetString("notifications.email.username")
	cfg.Notifications.Email.Password = m.viper.GetString("notifications.email.password")
	cfg.Notifications.Email.From = m.viper.GetString("notifications.email.from")
	cfg.Notifications.Email.Recipients = m.viper.GetStringSlice("notifications.email.recipients")
	cfg.Notifications.Webhooks = m.viper.GetStringSlice("notifications.webhooks")
	cfg.Notifications.WebhookTimeoutSeconds = m.viper.GetInt("notifications.webhook_timeout_seconds")

	// Web
	cfg.Web.Enabled = m.viper.GetBool("web.enabled")
	cfg.Web.Port = m.viper.GetInt("web.port")
	cfg.Web.RefreshSeconds = m.viper.GetInt("web.refresh_seconds")
	cfg.Web.AllowedOrigins = m.viper.GetStringSlice("web.allowed_origins")
	cfg.Web.ExporterEnabled = m.viper.GetBool("web.exporter_enabled")

	// Workers
	cfg.Workers.MaxConcurrent = m.viper.GetInt("workers.max_concurrent")

	// Logging
	cfg.Logging.Level = m.viper.GetString("logging.level")
	cfg.Logging.Format = m.viper.GetString("logging.format")
	cfg.Logging.File = m.viper.GetString("logging.file")
	cfg.Logging.MaxSizeMB = m.viper.GetInt("logging.max_size_mb")
	cfg.Logging.MaxBackups = m.viper.GetInt("logging.max_backups")
	cfg.Logging.MaxAgeDays = m.viper.GetInt("logging.max_age_days")

	m.config = cfg
	return nil
}

// applyEnvOverrides applies environment variable overrides for sensitive data.
func (m *viperManager) applyEnvOverrides() {
	// SMTP credentials are usually passed via environment, not the YAML file.
	if user := os.Getenv("STATUSWATCH_SMTP_USERNAME"); user != "" {
		m.config.Notifications.Email.Username = user
	}
	if pass := os.Getenv("STATUSWATCH_SMTP_PASSWORD"); pass != "" {
		m.config.Notifications.Email.Password = pass
	}

	// Status page URL override for pointing at a different vendor page.
	if url := os.Getenv("STATUSWATCH_API_URL"); url != "" {
		m.config.API.URL = url
	}

	if dbPath := os.Getenv("STATUSWATCH_DATABASE_PATH"); dbPath != "" {
		m.config.Database.Path = dbPath
	}
}
