package analytics

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/statuswatch/statuswatch/internal/analytics/anomaly"
	"github.com/statuswatch/statuswatch/internal/analytics/forecast"
	"github.com/statuswatch/statuswatch/internal/analytics/grading"
	"github.com/statuswatch/statuswatch/internal/statusapi"
	"github.com/statuswatch/statuswatch/internal/store"
)

// Package analytics ties the detectors together: it ingests health
// snapshots into the store, runs anomaly detection and trend forecasting
// over the recorded history, and grades overall health.

// Well-known metric names recorded per service.
const (
	MetricHealth       = "health_score"
	MetricAvailability = "availability"

	// ServiceOverall keys page-wide metrics in the sample store.
	ServiceOverall = "_overall"
)

// Options configures the engine.
type Options struct {
	LearningWindow   int
	AnomalyThreshold float64
	MinConfidence    float64
	AnomalyPenalty   float64

	// Lookback bounds how much history feeds baselines and forecasts.
	Lookback time.Duration

	// MaxConcurrent bounds the per-service fanout in AnalyzeAll.
	MaxConcurrent int
}

// HealthReport is the graded state of the status page over a window.
type HealthReport struct {
	grading.Report

	Window      time.Duration  `json:"window"`
	Checks      int            `json:"checks"`
	BySeverity  map[string]int `json:"anomalies_by_severity"`
	GeneratedAt time.Time      `json:"generated_at"`
}

// Engine is the analytics facade over the store.
type Engine interface {
	// Ingest persists one health snapshot: a status check row, a page-wide
	// availability sample, and a health-score sample per service.
	Ingest(ctx context.Context, health *statusapi.HealthMetrics, indicator string, info *statusapi.FetchInfo) (*store.StatusCheckRecord, error)

	// AnalyzeService checks the newest sample of one service metric against
	// its baseline, persisting the anomaly when one is found.
	AnalyzeService(ctx context.Context, service, metric string) (anomaly.Result, error)

	// AnalyzeAll runs AnalyzeService for every known service concurrently
	// and returns the results that produced a verdict.
	AnalyzeAll(ctx context.Context) ([]anomaly.Result, error)

	// ForecastService fits a trend to a service metric and extrapolates
	// horizon into the future, persisting the forecast.
	ForecastService(ctx context.Context, service, metric string, horizon time.Duration) (forecast.Result, error)

	// Report grades availability over the window against anomaly pressure.
	Report(ctx context.Context, window time.Duration) (*HealthReport, error)

	// Detector exposes the underlying detector for baseline inspection.
	Detector() anomaly.Detector
}

// NewEngine creates an Engine over the given store.
func NewEngine(st store.Store, opts Options, logger *zap.Logger) (Engine, error) {
	if opts.Lookback <= 0 {
		opts.Lookback = 30 * 24 * time.Hour
	}
	if opts.MaxConcurrent < 1 {
		opts.MaxConcurrent = 10
	}
	if opts.AnomalyPenalty <= 0 {
		opts.AnomalyPenalty = grading.DefaultAnomalyPenalty
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	grader, err := grading.NewGrader(grading.DefaultBands(), opts.AnomalyPenalty)
	if err != nil {
		return nil, err
	}

	return &engineImpl{
		store:      st,
		opts:       opts,
		detector:   anomaly.NewDetector(opts.LearningWindow, opts.AnomalyThreshold),
		forecaster: forecast.NewForecaster(opts.MinConfidence),
		grader:     grader,
		logger:     logger,
		now:        time.Now,
	}, nil
}
