package anomaly

import "time"

// Package anomaly implements Z-score anomaly detection over per-service
// metric baselines.
//
// A baseline is the mean and population standard deviation of the most
// recent learning-window samples for one service metric. A new observation
// is anomalous when its absolute Z-score exceeds the configured threshold.
// Below the learning window no verdict is produced, only a tagged
// insufficient-data result.

// Status tags a detection result.
type Status string

const (
	// StatusOK means a verdict was computed from a full baseline.
	StatusOK Status = "ok"

	// StatusInsufficientData means the baseline has fewer samples than the
	// learning window; no verdict is possible.
	StatusInsufficientData Status = "insufficient_data"

	// StatusZeroVariance means the baseline is a constant series, so the
	// Z-score is undefined and the verdict comes from direct comparison.
	StatusZeroVariance Status = "zero_variance"
)

// Baseline describes the learned distribution for a service metric.
type Baseline struct {
	Service   string    `json:"service"`
	Metric    string    `json:"metric"`
	Mean      float64   `json:"mean"`
	StdDev    float64   `json:"std_dev"` // population standard deviation
	Samples   int       `json:"samples"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Result is the outcome of checking one observation against its baseline.
type Result struct {
	Service    string  `json:"service"`
	Metric     string  `json:"metric"`
	Value      float64 `json:"value"`
	Status     Status  `json:"status"`
	Anomalous  bool    `json:"anomalous"`
	ZScore     float64 `json:"z_score"`
	Expected   float64 `json:"expected"`
	Confidence float64 `json:"confidence"` // 0..1
	Severity   string  `json:"severity"`
	Samples    int     `json:"samples"`
}

// Detector checks observations against rolling baselines.
type Detector interface {
	// UpdateBaseline recomputes the baseline for a service metric from its
	// history, oldest first. Only the most recent learning-window values
	// contribute to the statistics.
	UpdateBaseline(service, metric string, values []float64)

	// Baseline returns the current baseline, if one has been computed.
	Baseline(service, metric string) (Baseline, bool)

	// Check evaluates a single observation. It never panics and never
	// returns NaN or Inf in any field.
	Check(service, metric string, value float64) Result

	// LearningWindow returns the configured window size.
	LearningWindow() int
}

// NewDetector creates a detector with the given learning window and
// Z-score threshold.
func NewDetector(window int, threshold float64) Detector {
	if window < 2 {
		window = 50
	}
	if threshold <= 0 {
		threshold = 2.0
	}
	return &detectorImpl{
		window:    window,
		threshold: threshold,
		baselines: make(map[string]*Baseline),
	}
}
