package analytics

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/statuswatch/statuswatch/internal/analytics/anomaly"
	"github.com/statuswatch/statuswatch/internal/analytics/forecast"
	"github.com/statuswatch/statuswatch/internal/analytics/grading"
	"github.com/statuswatch/statuswatch/internal/metrics"
	"github.com/statuswatch/statuswatch/internal/statusapi"
	"github.com/statuswatch/statuswatch/internal/store"
	"github.com/statuswatch/statuswatch/internal/worker"
)

type engineImpl struct {
	store      store.Store
	opts       Options
	detector   anomaly.Detector
	forecaster forecast.Forecaster
	grader     grading.Grader
	logger     *zap.Logger
	now        func() time.Time
}

// ─── Ingestion ───────────────────────────────────────────────────────────────

func (e *engineImpl) Ingest(ctx context.Context, health *statusapi.HealthMetrics, indicator string, info *statusapi.FetchInfo) (*store.StatusCheckRecord, error) {
	now := e.now().UTC()

	rec := &store.StatusCheckRecord{
		OverallStatus: overallStatus(indicator),
		Indicator:     indicator,
		Availability:  health.Availability,
		TotalServices: health.Total,
		Operational:   health.Operational,
		CheckedAt:     now,
	}
	if info != nil {
		rec.ResponseTimeMS = float64(info.ResponseTime.Milliseconds())
		rec.FromCache = info.FromCache
	}
	if err := e.store.AppendStatusCheck(ctx, rec); err != nil {
		return nil, fmt.Errorf("persist status check: %w", err)
	}

	if err := e.store.AppendSample(ctx, &store.MetricSample{
		Service:   ServiceOverall,
		Metric:    MetricAvailability,
		Value:     health.Availability,
		Timestamp: now,
	}); err != nil {
		return nil, fmt.Errorf("persist availability sample: %w", err)
	}

	for _, service := range sortedServices(health.ComponentScore) {
		score := health.ComponentScore[service]
		if err := e.store.AppendSample(ctx, &store.MetricSample{
			Service:   service,
			Metric:    MetricHealth,
			Value:     score,
			Timestamp: now,
		}); err != nil {
			return nil, fmt.Errorf("persist sample for %s: %w", service, err)
		}
		metrics.ServiceStatus.WithLabelValues(service).Set(score)
	}

	metrics.ChecksTotal.WithLabelValues("success").Inc()
	metrics.GlobalAvailability.Set(health.Availability)
	metrics.ServicesOperational.Set(float64(health.Operational))
	metrics.ServicesWithIssues.Set(float64(len(health.WithIssues)))
	metrics.OpenIncidents.Set(float64(health.OpenIncidents))
	if info != nil && !info.FromCache {
		metrics.APIResponseTime.Observe(info.ResponseTime.Seconds())
	}

	e.logger.Info("status snapshot ingested",
		zap.String("indicator", indicator),
		zap.Float64("availability", health.Availability),
		zap.Int("services", health.Total),
	)
	return rec, nil
}

// overallStatus folds the page indicator into a coarse status word.
func overallStatus(indicator string) string {
	switch indicator {
	case "none", "":
		return "operational"
	case "minor":
		return "degraded"
	default:
		return "outage"
	}
}

// ─── Anomaly detection ───────────────────────────────────────────────────────

func (e *engineImpl) AnalyzeService(ctx context.Context, service, metric string) (anomaly.Result, error) {
	since := e.now().Add(-e.opts.Lookback)
	history, err := e.store.History(ctx, service, metric, since)
	if err != nil {
		return anomaly.Result{}, fmt.Errorf("load history for %s/%s: %w", service, metric, err)
	}
	if len(history) == 0 {
		return anomaly.Result{
			Service: service,
			Metric:  metric,
			Status:  anomaly.StatusInsufficientData,
		}, nil
	}

	// The newest observation is checked against the baseline of everything
	// before it.
	values := make([]float64, len(history)-1)
	for i, s := range history[:len(history)-1] {
		values[i] = s.Value
	}
	e.detector.UpdateBaseline(service, metric, values)

	latest := history[len(history)-1]
	result := e.detector.Check(service, metric, latest.Value)
	if !result.Anomalous {
		return result, nil
	}

	rec := &store.AnomalyRecord{
		Service:    service,
		Metric:     metric,
		Value:      result.Value,
		Expected:   result.Expected,
		ZScore:     result.ZScore,
		Severity:   result.Severity,
		Confidence: result.Confidence,
		Description: fmt.Sprintf("%s %s at %.2f, expected around %.2f (z=%.2f)",
			service, metric, result.Value, result.Expected, result.ZScore),
		DetectedAt: latest.Timestamp,
	}
	if err := e.store.AppendAnomaly(ctx, rec); err != nil {
		return result, fmt.Errorf("persist anomaly for %s/%s: %w", service, metric, err)
	}
	metrics.AnomaliesDetected.WithLabelValues(service, result.Severity).Inc()

	e.logger.Warn("anomaly detected",
		zap.String("service", service),
		zap.String("metric", metric),
		zap.Float64("value", result.Value),
		zap.Float64("z_score", result.ZScore),
		zap.String("severity", result.Severity),
	)
	return result, nil
}

func (e *engineImpl) AnalyzeAll(ctx context.Context) ([]anomaly.Result, error) {
	services, err := e.store.Services(ctx)
	if err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}

	results := make([]anomaly.Result, len(services))
	pool := worker.NewPool(e.opts.MaxConcurrent)
	for i, service := range services {
		i, service := i, service
		metric := MetricHealth
		if service == ServiceOverall {
			metric = MetricAvailability
		}
		if err := pool.Submit(ctx, func(ctx context.Context) error {
			res, err := e.AnalyzeService(ctx, service, metric)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		}); err != nil {
			break
		}
	}
	if errs := pool.Wait(); len(errs) > 0 {
		return nil, errs[0]
	}

	verdicts := results[:0]
	for _, r := range results {
		if r.Status != anomaly.StatusInsufficientData {
			verdicts = append(verdicts, r)
		}
	}
	return verdicts, nil
}

// ─── Forecasting ─────────────────────────────────────────────────────────────

func (e *engineImpl) ForecastService(ctx context.Context, service, metric string, horizon time.Duration) (forecast.Result, error) {
	since := e.now().Add(-e.opts.Lookback)
	history, err := e.store.History(ctx, service, metric, since)
	if err != nil {
		return forecast.Result{}, fmt.Errorf("load history for %s/%s: %w", service, metric, err)
	}

	samples := make([]forecast.Sample, len(history))
	for i, s := range history {
		samples[i] = forecast.Sample{Timestamp: s.Timestamp, Value: s.Value}
	}
	result := e.forecaster.Forecast(samples, horizon)
	if result.Status != forecast.StatusOK {
		return result, nil
	}

	rec := &store.ForecastRecord{
		Service:        service,
		Metric:         metric,
		HorizonSeconds: int64(horizon.Seconds()),
		Predicted:      result.Predicted,
		Slope:          result.Slope,
		Intercept:      result.Intercept,
		RSquared:       result.RSquared,
		Confidence:     result.Confidence,
		Unreliable:     result.Unreliable,
		CreatedAt:      e.now().UTC(),
	}
	if err := e.store.AppendForecast(ctx, rec); err != nil {
		return result, fmt.Errorf("persist forecast for %s/%s: %w", service, metric, err)
	}
	metrics.ForecastsComputed.WithLabelValues(strconv.FormatBool(!result.Unreliable)).Inc()
	return result, nil
}

// ─── Grading ─────────────────────────────────────────────────────────────────

func (e *engineImpl) Report(ctx context.Context, window time.Duration) (*HealthReport, error) {
	now := e.now().UTC()
	from := now.Add(-window)

	checks, err := e.store.AvailabilityTrend(ctx, from, now)
	if err != nil {
		return nil, fmt.Errorf("load availability trend: %w", err)
	}

	availability := 100.0
	if len(checks) > 0 {
		sum := 0.0
		for _, c := range checks {
			sum += c.Availability
		}
		availability = sum / float64(len(checks))
	}

	bySeverity, err := e.store.AnomalySummary(ctx, from, now)
	if err != nil {
		return nil, fmt.Errorf("load anomaly summary: %w", err)
	}
	active := 0
	for _, n := range bySeverity {
		active += n
	}

	report := &HealthReport{
		Report:      e.grader.Grade(availability, active),
		Window:      window,
		Checks:      len(checks),
		BySeverity:  bySeverity,
		GeneratedAt: now,
	}
	metrics.HealthScore.Set(report.Score)
	return report, nil
}

func (e *engineImpl) Detector() anomaly.Detector { return e.detector }

// sortedServices keeps sample insertion order deterministic.
func sortedServices(scores map[string]float64) []string {
	names := make([]string, 0, len(scores))
	for name := range scores {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
