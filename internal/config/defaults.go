package config

// DefaultConfig returns a configuration with all default values.
func DefaultConfig() *Config {
	cfg := &Config{}

	// API defaults
	cfg.API.URL = "https://status.redhat.com/api/v2/summary.json"
	cfg.API.TimeoutSeconds = 30
	cfg.API.MaxRetries = 3
	cfg.API.RetryDelaySeconds = 1

	// Cache defaults
	cfg.Cache.Enabled = true
	cfg.Cache.TTLSeconds = 300
	cfg.Cache.MaxSizeMB = 100
	cfg.Cache.CompressionEnabled = true

	// Analytics defaults
	cfg.Analytics.Enabled = true
	cfg.Analytics.LearningWindow = 50
	cfg.Analytics.AnomalyThreshold = 2.0
	cfg.Analytics.MinConfidence = 0.7
	cfg.Analytics.RetentionDays = 30

	// Database defaults
	cfg.Database.Path = "statuswatch.db"

	// Notification defaults
	cfg.Notifications.Enabled = false
	cfg.Notifications.MinSeverity = "warning"
	cfg.Notifications.CooldownSeconds = 300
	cfg.Notifications.Email.Enabled = false
	cfg.Notifications.Email.SMTPServer = "localhost"
	cfg.Notifications.Email.SMTPPort = 587
	cfg.Notifications.Email.UseTLS = true
	cfg.Notifications.Email.From = "statuswatch@localhost"
	cfg.Notifications.Webhooks = nil
	cfg.Notifications.WebhookTimeoutSeconds = 10

	// Web defaults
	cfg.Web.Enabled = false
	cfg.Web.Port = 8080
	cfg.Web.RefreshSeconds = 30
	cfg.Web.AllowedOrigins = []string{"http://localhost:8080"}
	cfg.Web.ExporterEnabled = true

	// Worker defaults
	cfg.Workers.MaxConcurrent = 10

	// Logging defaults
	cfg.Logging.Level = "info"
	cfg.Logging.Format = "json"
	cfg.Logging.File = ""
	cfg.Logging.MaxSizeMB = 100
	cfg.Logging.MaxBackups = 10
	cfg.Logging.MaxAgeDays = 30

	return cfg
}
