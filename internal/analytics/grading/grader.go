package grading

import "fmt"

// Package grading maps availability and anomaly pressure to a letter grade.
//
// The effective score is availability minus a fixed penalty per active
// anomaly, clamped to [0, 100], then looked up in an ordered band table.
// Because the lookup walks bands from best to worst and picks the first
// floor the score reaches, a higher score can never earn a worse grade.

// Band is a grade with its minimum effective score.
type Band struct {
	Grade string
	Min   float64
}

// DefaultBands mirrors the conventional status-page grading scale.
func DefaultBands() []Band {
	return []Band{
		{Grade: "A+", Min: 99.9},
		{Grade: "A", Min: 99.0},
		{Grade: "B+", Min: 97.0},
		{Grade: "B", Min: 95.0},
		{Grade: "C", Min: 90.0},
		{Grade: "D", Min: 80.0},
		{Grade: "F", Min: 0.0},
	}
}

// DefaultAnomalyPenalty is the score cost of each active anomaly.
const DefaultAnomalyPenalty = 2.0

// Report is the graded health summary.
type Report struct {
	Grade           string  `json:"grade"`
	Score           float64 `json:"score"`
	Availability    float64 `json:"availability"`
	ActiveAnomalies int     `json:"active_anomalies"`
	AnomalyPenalty  float64 `json:"anomaly_penalty"`
}

// Grader assigns letter grades.
type Grader interface {
	// Grade computes the effective score and its letter grade.
	// Availability outside [0, 100] is clamped, never rejected.
	Grade(availability float64, activeAnomalies int) Report
}

// NewGrader creates a Grader over the given bands. Bands must be sorted
// best first with strictly descending floors, and the last floor must be 0
// so every score lands somewhere.
func NewGrader(bands []Band, anomalyPenalty float64) (Grader, error) {
	if len(bands) == 0 {
		return nil, fmt.Errorf("grading: at least one band is required")
	}
	for i := 1; i < len(bands); i++ {
		if bands[i].Min >= bands[i-1].Min {
			return nil, fmt.Errorf("grading: band floors must be strictly descending, %q (%.2f) after %q (%.2f)",
				bands[i].Grade, bands[i].Min, bands[i-1].Grade, bands[i-1].Min)
		}
	}
	if bands[len(bands)-1].Min != 0 {
		return nil, fmt.Errorf("grading: last band floor must be 0, got %.2f", bands[len(bands)-1].Min)
	}
	if anomalyPenalty < 0 {
		return nil, fmt.Errorf("grading: anomaly penalty cannot be negative, got %.2f", anomalyPenalty)
	}
	return &graderImpl{bands: bands, penalty: anomalyPenalty}, nil
}
