package store

import (
	"context"
	"testing"
	"time"
)

func newTestStore(t *testing.T) Store {
	t.Helper()
	s, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// ─── Metric samples ──────────────────────────────────────────────────────────

func TestSampleHistoryOrdering(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	// Insert out of order; History must return oldest first.
	for _, offset := range []int{3, 0, 2, 1} {
		sample := &MetricSample{
			Service:   "openshift-console",
			Metric:    "availability",
			Value:     99.0 + float64(offset),
			Timestamp: base.Add(time.Duration(offset) * time.Minute),
		}
		if err := s.AppendSample(ctx, sample); err != nil {
			t.Fatalf("AppendSample: %v", err)
		}
	}

	got, err := s.History(ctx, "openshift-console", "availability", base)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("expected 4 samples, got %d", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i].Timestamp.Before(got[i-1].Timestamp) {
			t.Errorf("history not ascending at index %d", i)
		}
	}
	if got[0].Value != 99.0 {
		t.Errorf("expected oldest sample value 99.0, got %g", got[0].Value)
	}
}

func TestSampleHistorySinceFilter(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 10; i++ {
		sample := &MetricSample{
			Service:   "api",
			Metric:    "response_time",
			Value:     float64(i),
			Timestamp: base.Add(time.Duration(i) * time.Hour),
		}
		if err := s.AppendSample(ctx, sample); err != nil {
			t.Fatalf("AppendSample: %v", err)
		}
	}

	got, err := s.History(ctx, "api", "response_time", base.Add(5*time.Hour))
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(got) != 5 {
		t.Errorf("expected 5 samples since cutoff, got %d", len(got))
	}
}

func TestServices(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	now := time.Now().UTC()
	for _, svc := range []string{"b-service", "a-service", "b-service"} {
		if err := s.AppendSample(ctx, &MetricSample{Service: svc, Metric: "availability", Value: 100, Timestamp: now}); err != nil {
			t.Fatalf("AppendSample: %v", err)
		}
	}

	names, err := s.Services(ctx)
	if err != nil {
		t.Fatalf("Services: %v", err)
	}
	if len(names) != 2 || names[0] != "a-service" || names[1] != "b-service" {
		t.Errorf("expected [a-service b-service], got %v", names)
	}
}

// ─── Status checks ───────────────────────────────────────────────────────────

func TestStatusCheckRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rec := &StatusCheckRecord{
		OverallStatus:  "All Systems Operational",
		Indicator:      "none",
		Availability:   99.5,
		TotalServices:  42,
		Operational:    41,
		ResponseTimeMS: 120.5,
		FromCache:      true,
		CheckedAt:      time.Now().UTC().Round(time.Second),
	}
	if err := s.AppendStatusCheck(ctx, rec); err != nil {
		t.Fatalf("AppendStatusCheck: %v", err)
	}
	if rec.ID == 0 {
		t.Error("expected assigned ID")
	}

	got, err := s.RecentStatusChecks(ctx, 10)
	if err != nil {
		t.Fatalf("RecentStatusChecks: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 check, got %d", len(got))
	}
	if got[0].Availability != 99.5 {
		t.Errorf("expected availability 99.5, got %g", got[0].Availability)
	}
	if !got[0].FromCache {
		t.Error("expected from_cache to round-trip")
	}
}

func TestAvailabilityTrendWindow(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 6; i++ {
		rec := &StatusCheckRecord{
			OverallStatus: "operational",
			Availability:  95 + float64(i),
			CheckedAt:     base.Add(time.Duration(i) * time.Hour),
		}
		if err := s.AppendStatusCheck(ctx, rec); err != nil {
			t.Fatalf("AppendStatusCheck: %v", err)
		}
	}

	got, err := s.AvailabilityTrend(ctx, base.Add(time.Hour), base.Add(4*time.Hour))
	if err != nil {
		t.Fatalf("AvailabilityTrend: %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("expected 4 points in window, got %d", len(got))
	}
	if got[0].Availability != 96 {
		t.Errorf("expected first windowed point 96, got %g", got[0].Availability)
	}
}

// ─── Anomalies ───────────────────────────────────────────────────────────────

func TestAnomalyQueryFilters(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	now := time.Now().UTC()
	records := []*AnomalyRecord{
		{Service: "console", Metric: "availability", Severity: "critical", ZScore: 4.2, DetectedAt: now},
		{Service: "console", Metric: "response_time", Severity: "low", ZScore: 2.1, DetectedAt: now},
		{Service: "registry", Metric: "availability", Severity: "critical", ZScore: 3.8, DetectedAt: now},
	}
	for _, rec := range records {
		if err := s.AppendAnomaly(ctx, rec); err != nil {
			t.Fatalf("AppendAnomaly: %v", err)
		}
	}

	got, err := s.QueryAnomalies(ctx, AnomalyQuery{Service: "console"})
	if err != nil {
		t.Fatalf("QueryAnomalies: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("expected 2 console anomalies, got %d", len(got))
	}

	got, err = s.QueryAnomalies(ctx, AnomalyQuery{Severity: "critical"})
	if err != nil {
		t.Fatalf("QueryAnomalies: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("expected 2 critical anomalies, got %d", len(got))
	}

	summary, err := s.AnomalySummary(ctx, now.Add(-time.Hour), now.Add(time.Hour))
	if err != nil {
		t.Fatalf("AnomalySummary: %v", err)
	}
	if summary["critical"] != 2 || summary["low"] != 1 {
		t.Errorf("unexpected summary: %v", summary)
	}
}

// ─── Forecasts ───────────────────────────────────────────────────────────────

func TestForecastRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rec := &ForecastRecord{
		Service:        "console",
		Metric:         "availability",
		HorizonSeconds: 3600,
		Predicted:      98.2,
		Slope:          -0.01,
		Intercept:      99.0,
		RSquared:       0.91,
		Confidence:     0.85,
		Unreliable:     false,
		CreatedAt:      time.Now().UTC().Round(time.Second),
	}
	if err := s.AppendForecast(ctx, rec); err != nil {
		t.Fatalf("AppendForecast: %v", err)
	}

	got, err := s.RecentForecasts(ctx, "console", 5)
	if err != nil {
		t.Fatalf("RecentForecasts: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 forecast, got %d", len(got))
	}
	if got[0].RSquared != 0.91 || got[0].Unreliable {
		t.Errorf("forecast fields did not round-trip: %+v", got[0])
	}
}

// ─── Maintenance ─────────────────────────────────────────────────────────────

func TestCleanupOldData(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	old := time.Now().UTC().Add(-48 * time.Hour)
	recent := time.Now().UTC()

	_ = s.AppendSample(ctx, &MetricSample{Service: "a", Metric: "m", Value: 1, Timestamp: old})
	_ = s.AppendSample(ctx, &MetricSample{Service: "a", Metric: "m", Value: 2, Timestamp: recent})
	_ = s.AppendStatusCheck(ctx, &StatusCheckRecord{OverallStatus: "ok", CheckedAt: old})
	_ = s.AppendAnomaly(ctx, &AnomalyRecord{Service: "a", DetectedAt: old})

	removed, err := s.CleanupOldData(ctx, time.Now().UTC().Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("CleanupOldData: %v", err)
	}
	if removed != 3 {
		t.Errorf("expected 3 rows removed, got %d", removed)
	}

	counts, err := s.TableCounts(ctx)
	if err != nil {
		t.Fatalf("TableCounts: %v", err)
	}
	if counts["service_metrics"] != 1 {
		t.Errorf("expected 1 surviving sample, got %d", counts["service_metrics"])
	}
	if counts["status_checks"] != 0 || counts["anomalies"] != 0 {
		t.Errorf("expected old rows removed, got %v", counts)
	}

	if err := s.Vacuum(ctx); err != nil {
		t.Fatalf("Vacuum: %v", err)
	}
}
