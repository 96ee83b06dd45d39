package store

import (
	"context"
	"time"
)

// Store is the main persistence interface for status history and analytics.
type Store interface {
	SampleStore
	StatusCheckStore
	AnomalyStore
	ForecastStore

	// CleanupOldData deletes rows older than the cutoff from every table
	// and returns the total number of rows removed.
	CleanupOldData(ctx context.Context, cutoff time.Time) (int64, error)

	// Vacuum reclaims free pages after large deletes.
	Vacuum(ctx context.Context) error

	// TableCounts returns row counts per table for the db stats command.
	TableCounts(ctx context.Context) (map[string]int64, error)

	// Close releases database resources.
	Close() error

	// Ping verifies the connection is alive.
	Ping(ctx context.Context) error
}

// ─── Metric samples ──────────────────────────────────────────────────────────

// MetricSample is one observed value of a named metric for a service.
type MetricSample struct {
	ID        int64     `json:"id"`
	Service   string    `json:"service"`
	Metric    string    `json:"metric"`
	Value     float64   `json:"value"`
	Timestamp time.Time `json:"timestamp"`
}

// SampleStore persists per-service metric history for the analytics engine.
type SampleStore interface {
	// AppendSample writes a single metric observation.
	AppendSample(ctx context.Context, s *MetricSample) error

	// History returns samples for a service metric since the given time,
	// ordered oldest first.
	History(ctx context.Context, service, metric string, since time.Time) ([]*MetricSample, error)

	// Services returns the distinct service names with recorded samples.
	Services(ctx context.Context) ([]string, error)
}

// ─── Status checks ───────────────────────────────────────────────────────────

// StatusCheckRecord is a persisted snapshot of one status page poll.
type StatusCheckRecord struct {
	ID              int64     `json:"id"`
	OverallStatus   string    `json:"overall_status"`
	Indicator       string    `json:"indicator"`
	Availability    float64   `json:"availability"`
	TotalServices   int       `json:"total_services"`
	Operational     int       `json:"operational"`
	ResponseTimeMS  float64   `json:"response_time_ms"`
	FromCache       bool      `json:"from_cache"`
	CheckedAt       time.Time `json:"checked_at"`
}

// StatusCheckStore persists poll results for trend reporting.
type StatusCheckStore interface {
	// AppendStatusCheck stores a poll result.
	AppendStatusCheck(ctx context.Context, rec *StatusCheckRecord) error

	// RecentStatusChecks returns checks newest first.
	RecentStatusChecks(ctx context.Context, limit int) ([]*StatusCheckRecord, error)

	// AvailabilityTrend returns (checked_at, availability) pairs within the
	// window, oldest first.
	AvailabilityTrend(ctx context.Context, from, to time.Time) ([]*StatusCheckRecord, error)
}

// ─── Anomalies ───────────────────────────────────────────────────────────────

// AnomalyRecord is a persisted anomaly detected by the analytics engine.
type AnomalyRecord struct {
	ID          int64     `json:"id"`
	Service     string    `json:"service"`
	Metric      string    `json:"metric"`
	Value       float64   `json:"value"`
	Expected    float64   `json:"expected"`
	ZScore      float64   `json:"z_score"`
	Severity    string    `json:"severity"`
	Confidence  float64   `json:"confidence"`
	Description string    `json:"description"`
	DetectedAt  time.Time `json:"detected_at"`
}

// AnomalyQuery filters anomaly queries.
type AnomalyQuery struct {
	Service  string
	Metric   string
	Severity string
	From     time.Time
	To       time.Time
	Limit    int
	Offset   int
}

// AnomalyStore persists anomaly history.
type AnomalyStore interface {
	// AppendAnomaly stores a detected anomaly.
	AppendAnomaly(ctx context.Context, rec *AnomalyRecord) error

	// QueryAnomalies retrieves anomalies with optional filters.
	QueryAnomalies(ctx context.Context, q AnomalyQuery) ([]*AnomalyRecord, error)

	// AnomalySummary returns count grouped by severity for a time window.
	AnomalySummary(ctx context.Context, from, to time.Time) (map[string]int, error)
}

// ─── Forecasts ───────────────────────────────────────────────────────────────

// ForecastRecord is a persisted trend forecast.
type ForecastRecord struct {
	ID             int64     `json:"id"`
	Service        string    `json:"service"`
	Metric         string    `json:"metric"`
	HorizonSeconds int64     `json:"horizon_seconds"`
	Predicted      float64   `json:"predicted"`
	Slope          float64   `json:"slope"`
	Intercept      float64   `json:"intercept"`
	RSquared       float64   `json:"r_squared"`
	Confidence     float64   `json:"confidence"`
	Unreliable     bool      `json:"unreliable"`
	CreatedAt      time.Time `json:"created_at"`
}

// ForecastStore persists forecasts so reports can show prediction drift.
type ForecastStore interface {
	// AppendForecast stores a forecast result.
	AppendForecast(ctx context.Context, rec *ForecastRecord) error

	// RecentForecasts returns forecasts for a service, newest first.
	RecentForecasts(ctx context.Context, service string, limit int) ([]*ForecastRecord, error)
}
