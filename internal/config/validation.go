package config

import (
	"fmt"
	"net/url"
	"strings"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed for %s: %s", e.Field, e.Message)
}

// Validate validates the configuration and returns validation errors.
func (c *Config) Validate() []error {
	var errs []error

	// Validate API configuration
	if c.API.URL == "" {
		errs = append(errs, &ValidationError{
			Field:   "api.url",
			Message: "status page URL is required",
		})
	} else if u, err := url.Parse(c.API.URL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, &ValidationError{
			Field:   "api.url",
			Message: fmt.Sprintf("invalid URL: %s", c.API.URL),
		})
	}

	if c.API.TimeoutSeconds < 1 {
		errs = append(errs, &ValidationError{
			Field:   "api.timeout_seconds",
			Message: fmt.Sprintf("timeout must be at least 1 second, got %d", c.API.TimeoutSeconds),
		})
	}

	if c.API.MaxRetries < 0 {
		errs = append(errs, &ValidationError{
			Field:   "api.max_retries",
			Message: fmt.Sprintf("max_retries cannot be negative, got %d", c.API.MaxRetries),
		})
	}

	// Validate cache configuration
	if c.Cache.TTLSeconds < 0 {
		errs = append(errs, &ValidationError{
			Field:   "cache.ttl_seconds",
			Message: fmt.Sprintf("ttl_seconds cannot be negative, got %d", c.Cache.TTLSeconds),
		})
	}

	if c.Cache.MaxSizeMB < 1 {
		errs = append(errs, &ValidationError{
			Field:   "cache.max_size_mb",
			Message: fmt.Sprintf("max_size_mb must be at least 1, got %d", c.Cache.MaxSizeMB),
		})
	}

	// Validate analytics configuration
	if c.Analytics.LearningWindow < 2 {
		errs = append(errs, &ValidationError{
			Field:   "analytics.learning_window",
			Message: fmt.Sprintf("learning_window must be at least 2, got %d", c.Analytics.LearningWindow),
		})
	}

	if c.Analytics.AnomalyThreshold <= 0 {
		errs = append(errs, &ValidationError{
			Field:   "analytics.anomaly_threshold",
			Message: fmt.Sprintf("anomaly_threshold must be positive, got %g", c.Analytics.AnomalyThreshold),
		})
	}

	if c.Analytics.MinConfidence < 0 || c.Analytics.MinConfidence > 1 {
		errs = append(errs, &ValidationError{
			Field:   "analytics.min_confidence",
			Message: fmt.Sprintf("min_confidence must be between 0 and 1, got %g", c.Analytics.MinConfidence),
		})
	}

	if c.Analytics.RetentionDays < 1 {
		errs = append(errs, &ValidationError{
			Field:   "analytics.retention_days",
			Message: fmt.Sprintf("retention days must be at least 1, got %d", c.Analytics.RetentionDays),
		})
	}

	// Validate database configuration
	if c.Database.Path == "" {
		errs = append(errs, &ValidationError{
			Field:   "database.path",
			Message: "database path is required",
		})
	}

	// Validate notification configuration
	validSeverities := map[string]bool{
		"info":     true,
		"warning":  true,
		"critical": true,
	}
	if !validSeverities[strings.ToLower(c.Notifications.MinSeverity)] {
		errs = append(errs, &ValidationError{
			Field:   "notifications.min_severity",
			Message: fmt.Sprintf("invalid severity '%s', must be one of: info, warning, critical", c.Notifications.MinSeverity),
		})
	}

	if c.Notifications.Email.Enabled {
		if c.Notifications.Email.SMTPServer == "" {
			errs = append(errs, &ValidationError{
				Field:   "notifications.email.smtp_server",
				Message: "smtp_server is required when email is enabled",
			})
		}
		if c.Notifications.Email.SMTPPort < 1 || c.Notifications.Email.SMTPPort > 65535 {
			errs = append(errs, &ValidationError{
				Field:   "notifications.email.smtp_port",
				Message: fmt.Sprintf("port must be between 1 and 65535, got %d", c.Notifications.Email.SMTPPort),
			})
		}
		if len(c.Notifications.Email.Recipients) == 0 {
			errs = append(errs, &ValidationError{
				Field:   "notifications.email.recipients",
				Message: "at least one recipient is required when email is enabled",
			})
		}
	}

	for i, hook := range c.Notifications.Webhooks {
		if u, err := url.Parse(hook); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, &ValidationError{
				Field:   fmt.Sprintf("notifications.webhooks[%d]", i),
				Message: fmt.Sprintf("invalid webhook URL: %s", hook),
			})
		}
	}

	// Validate web configuration
	if c.Web.Port < 1 || c.Web.Port > 65535 {
		errs = append(errs, &ValidationError{
			Field:   "web.port",
			Message: fmt.Sprintf("port must be between 1 and 65535, got %d", c.Web.Port),
		})
	}

	if c.Web.RefreshSeconds < 1 {
		errs = append(errs, &ValidationError{
			Field:   "web.refresh_seconds",
			Message: fmt.Sprintf("refresh_seconds must be at least 1, got %d", c.Web.RefreshSeconds),
		})
	}

	// Validate worker configuration
	if c.Workers.MaxConcurrent < 1 {
		errs = append(errs, &ValidationError{
			Field:   "workers.max_concurrent",
			Message: fmt.Sprintf("max_concurrent must be at least 1, got %d", c.Workers.MaxConcurrent),
		})
	}

	// Validate logging configuration
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, &ValidationError{
			Field:   "logging.level",
			Message: fmt.Sprintf("invalid log level '%s', must be one of: debug, info, warn, error", c.Logging.Level),
		})
	}

	validLogFormats := map[string]bool{
		"json": true,
		"text": true,
	}
	if !validLogFormats[strings.ToLower(c.Logging.Format)] {
		errs = append(errs, &ValidationError{
			Field:   "logging.format",
			Message: fmt.Sprintf("invalid log format '%s', must be one of: json, text", c.Logging.Format),
		})
	}

	return errs
}
