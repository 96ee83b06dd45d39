package forecast

import "time"

// Package forecast implements ordinary-least-squares trend forecasting over
// timestamped metric samples.
//
// The regression runs over (seconds since first sample, value) pairs, so the
// slope is a rate per second and is insensitive to absolute wall-clock
// epochs. Duplicate timestamps collapse to their last value before fitting;
// fewer than two distinct timestamps cannot define a line and yield a tagged
// insufficient-data result instead of a division by zero.

// Status tags a forecast result.
type Status string

const (
	// StatusOK means a trend line was fitted.
	StatusOK Status = "ok"

	// StatusInsufficientData means fewer than two distinct timestamps were
	// available.
	StatusInsufficientData Status = "insufficient_data"
)

// Sample is one timestamped observation.
type Sample struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

// Result is a fitted trend with its extrapolation.
type Result struct {
	Status     Status        `json:"status"`
	Slope      float64       `json:"slope"`     // units per second
	Intercept  float64       `json:"intercept"` // value at the first sample
	RSquared   float64       `json:"r_squared"`
	Predicted  float64       `json:"predicted"` // value at horizon past the last sample
	Confidence float64       `json:"confidence"` // 0..1
	Unreliable bool          `json:"unreliable"` // confidence below the configured floor
	Horizon    time.Duration `json:"horizon"`
	Direction  string        `json:"direction"` // increasing | decreasing | flat
	DataPoints int           `json:"data_points"`
}

// Forecaster fits trend lines to sample series.
type Forecaster interface {
	// Forecast fits a line to the samples and extrapolates horizon past the
	// most recent one. Samples may arrive unsorted and with duplicate
	// timestamps. Never panics; all returned floats are finite.
	Forecast(samples []Sample, horizon time.Duration) Result

	// MinConfidence returns the reliability floor.
	MinConfidence() float64
}

// NewForecaster creates a Forecaster that flags results whose confidence
// falls below minConfidence as unreliable. Low-confidence forecasts are
// still returned in full; callers decide what to do with them.
func NewForecaster(minConfidence float64) Forecaster {
	if minConfidence < 0 || minConfidence > 1 {
		minConfidence = 0.7
	}
	return &forecasterImpl{minConfidence: minConfidence}
}
