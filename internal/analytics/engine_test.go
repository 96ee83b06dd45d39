package analytics

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/statuswatch/statuswatch/internal/analytics/anomaly"
	"github.com/statuswatch/statuswatch/internal/analytics/forecast"
	"github.com/statuswatch/statuswatch/internal/statusapi"
	"github.com/statuswatch/statuswatch/internal/store"
)

var testBase = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestEngine(t *testing.T, opts Options) (*engineImpl, store.Store) {
	t.Helper()
	st, err := store.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	eng, err := NewEngine(st, opts, nil)
	require.NoError(t, err)

	impl := eng.(*engineImpl)
	impl.now = func() time.Time { return testBase.Add(time.Hour) }
	return impl, st
}

func seedSamples(t *testing.T, st store.Store, service, metric string, values []float64) {
	t.Helper()
	ctx := context.Background()
	for i, v := range values {
		require.NoError(t, st.AppendSample(ctx, &store.MetricSample{
			Service:   service,
			Metric:    metric,
			Value:     v,
			Timestamp: testBase.Add(time.Duration(i) * time.Minute),
		}))
	}
}

func TestIngestPersistsSnapshot(t *testing.T) {
	eng, st := newTestEngine(t, Options{})
	ctx := context.Background()

	health := &statusapi.HealthMetrics{
		Availability: 50,
		Total:        2,
		Operational:  1,
		ComponentScore: map[string]float64{
			"Console":  100,
			"Registry": 50,
		},
		WithIssues:    []statusapi.ComponentHealth{{Name: "Registry", Status: statusapi.StatusPartialOutage}},
		OpenIncidents: 1,
	}
	info := &statusapi.FetchInfo{ResponseTime: 120 * time.Millisecond}

	rec, err := eng.Ingest(ctx, health, "minor", info)
	require.NoError(t, err)
	assert.Equal(t, "degraded", rec.OverallStatus)
	assert.Equal(t, 50.0, rec.Availability)
	assert.Equal(t, 120.0, rec.ResponseTimeMS)

	checks, err := st.RecentStatusChecks(ctx, 10)
	require.NoError(t, err)
	require.Len(t, checks, 1)
	assert.Equal(t, "minor", checks[0].Indicator)

	history, err := st.History(ctx, "Registry", MetricHealth, testBase)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, 50.0, history[0].Value)

	overall, err := st.History(ctx, ServiceOverall, MetricAvailability, testBase)
	require.NoError(t, err)
	require.Len(t, overall, 1)
	assert.Equal(t, 50.0, overall[0].Value)
}

func TestAnalyzeServiceDetectsDrop(t *testing.T) {
	eng, st := newTestEngine(t, Options{LearningWindow: 4, AnomalyThreshold: 2.0})
	ctx := context.Background()

	// A stable alternating series, then a sharp drop.
	seedSamples(t, st, "Registry", MetricHealth, []float64{99, 101, 99, 101, 99, 101, 99, 101, 90})

	res, err := eng.AnalyzeService(ctx, "Registry", MetricHealth)
	require.NoError(t, err)
	assert.Equal(t, anomaly.StatusOK, res.Status)
	assert.True(t, res.Anomalous)
	assert.Equal(t, "critical", res.Severity)
	assert.InDelta(t, -10.0, res.ZScore, 1e-9)
	assert.Greater(t, res.Confidence, 0.5)

	recs, err := st.QueryAnomalies(ctx, store.AnomalyQuery{Service: "Registry"})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, 90.0, recs[0].Value)
	assert.Equal(t, "critical", recs[0].Severity)
}

func TestAnalyzeServiceNormalValue(t *testing.T) {
	eng, st := newTestEngine(t, Options{LearningWindow: 4, AnomalyThreshold: 2.0})
	ctx := context.Background()

	seedSamples(t, st, "Console", MetricHealth, []float64{99, 101, 99, 101, 99, 101, 99, 101, 100})

	res, err := eng.AnalyzeService(ctx, "Console", MetricHealth)
	require.NoError(t, err)
	assert.False(t, res.Anomalous)

	recs, err := st.QueryAnomalies(ctx, store.AnomalyQuery{Service: "Console"})
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestAnalyzeServiceInsufficientHistory(t *testing.T) {
	eng, st := newTestEngine(t, Options{LearningWindow: 4, AnomalyThreshold: 2.0})
	ctx := context.Background()

	seedSamples(t, st, "Console", MetricHealth, []float64{100, 100})

	res, err := eng.AnalyzeService(ctx, "Console", MetricHealth)
	require.NoError(t, err)
	assert.Equal(t, anomaly.StatusInsufficientData, res.Status)
	assert.False(t, res.Anomalous)
}

func TestAnalyzeAllCoversEveryService(t *testing.T) {
	eng, st := newTestEngine(t, Options{LearningWindow: 4, AnomalyThreshold: 2.0, MaxConcurrent: 2})
	ctx := context.Background()

	seedSamples(t, st, "Console", MetricHealth, []float64{99, 101, 99, 101, 99, 101, 99, 101, 100})
	seedSamples(t, st, "Registry", MetricHealth, []float64{99, 101, 99, 101, 99, 101, 99, 101, 90})

	results, err := eng.AnalyzeAll(ctx)
	require.NoError(t, err)
	require.Len(t, results, 2)

	byService := make(map[string]anomaly.Result)
	for _, r := range results {
		byService[r.Service] = r
	}
	assert.False(t, byService["Console"].Anomalous)
	assert.True(t, byService["Registry"].Anomalous)
}

func TestForecastServicePersists(t *testing.T) {
	eng, st := newTestEngine(t, Options{MinConfidence: 0.7})
	ctx := context.Background()

	// Health declining one point per minute.
	values := make([]float64, 30)
	for i := range values {
		values[i] = 100 - float64(i)
	}
	seedSamples(t, st, "Registry", MetricHealth, values)

	res, err := eng.ForecastService(ctx, "Registry", MetricHealth, 10*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, forecast.StatusOK, res.Status)
	assert.Less(t, res.Slope, 0.0)
	assert.Equal(t, "decreasing", res.Direction)
	assert.InDelta(t, 61.0, res.Predicted, 1e-6) // 100 - 29 - 10

	recs, err := st.RecentForecasts(ctx, "Registry", 5)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, int64(600), recs[0].HorizonSeconds)
	assert.InDelta(t, res.Predicted, recs[0].Predicted, 1e-6)
}

func TestForecastServiceInsufficientHistory(t *testing.T) {
	eng, st := newTestEngine(t, Options{})
	ctx := context.Background()

	seedSamples(t, st, "Registry", MetricHealth, []float64{100})

	res, err := eng.ForecastService(ctx, "Registry", MetricHealth, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, forecast.StatusInsufficientData, res.Status)

	recs, err := st.RecentForecasts(ctx, "Registry", 5)
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestReportGradesWindow(t *testing.T) {
	eng, st := newTestEngine(t, Options{AnomalyPenalty: 2.0})
	ctx := context.Background()

	for i, avail := range []float64{100, 98} {
		require.NoError(t, st.AppendStatusCheck(ctx, &store.StatusCheckRecord{
			OverallStatus: "operational",
			Indicator:     "none",
			Availability:  avail,
			TotalServices: 4,
			Operational:   4,
			CheckedAt:     testBase.Add(time.Duration(i) * time.Minute),
		}))
	}

	rep, err := eng.Report(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 2, rep.Checks)
	assert.Equal(t, 99.0, rep.Availability)
	assert.Equal(t, "A", rep.Grade)

	// One critical anomaly knocks the score below the A floor.
	require.NoError(t, st.AppendAnomaly(ctx, &store.AnomalyRecord{
		Service:    "Registry",
		Metric:     MetricHealth,
		Value:      40,
		Expected:   99,
		ZScore:     -8,
		Severity:   "critical",
		Confidence: 0.9,
		DetectedAt: testBase.Add(30 * time.Minute),
	}))

	rep, err = eng.Report(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, rep.ActiveAnomalies)
	assert.Equal(t, 97.0, rep.Score)
	assert.Equal(t, "B+", rep.Grade)
	assert.Equal(t, 1, rep.BySeverity["critical"])
}
