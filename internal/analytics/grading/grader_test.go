package grading

import "testing"

func newTestGrader(t *testing.T) Grader {
	t.Helper()
	g, err := NewGrader(DefaultBands(), DefaultAnomalyPenalty)
	if err != nil {
		t.Fatalf("NewGrader: %v", err)
	}
	return g
}

func TestGradeBands(t *testing.T) {
	g := newTestGrader(t)

	tests := []struct {
		availability float64
		anomalies    int
		want         string
	}{
		{100, 0, "A+"},
		{99.9, 0, "A+"},
		{99.5, 0, "A"},
		{99.0, 0, "A"},
		{98.0, 0, "B+"},
		{96.0, 0, "B"},
		{92.0, 0, "C"},
		{85.0, 0, "D"},
		{50.0, 0, "F"},
		{0, 0, "F"},
		// Anomalies drag the grade down: 100 - 2*3 = 94.
		{100, 3, "C"},
		// Penalty can floor the score at zero.
		{10, 20, "F"},
	}
	for _, tt := range tests {
		got := g.Grade(tt.availability, tt.anomalies)
		if got.Grade != tt.want {
			t.Errorf("Grade(%g, %d) = %s, want %s (score %g)",
				tt.availability, tt.anomalies, got.Grade, tt.want, got.Score)
		}
	}
}

func TestGradeMonotonicity(t *testing.T) {
	g := newTestGrader(t)

	// Grades may only improve as availability rises.
	rank := map[string]int{"F": 0, "D": 1, "C": 2, "B": 3, "B+": 4, "A": 5, "A+": 6}
	prev := -1
	for avail := 0.0; avail <= 100.0; avail += 0.1 {
		r := rank[g.Grade(avail, 0).Grade]
		if r < prev {
			t.Fatalf("grade got worse as availability rose past %.1f", avail)
		}
		prev = r
	}

	// Grades may only get worse as anomaly count rises.
	prev = rank["A+"] + 1
	for anomalies := 0; anomalies <= 60; anomalies++ {
		r := rank[g.Grade(100, anomalies).Grade]
		if r > prev {
			t.Fatalf("grade improved as anomaly count rose to %d", anomalies)
		}
		prev = r
	}
}

func TestGradeClampsInput(t *testing.T) {
	g := newTestGrader(t)

	if got := g.Grade(150, 0); got.Availability != 100 || got.Grade != "A+" {
		t.Errorf("availability above 100 must clamp: %+v", got)
	}
	if got := g.Grade(-5, 0); got.Availability != 0 || got.Grade != "F" {
		t.Errorf("negative availability must clamp: %+v", got)
	}
	if got := g.Grade(100, -3); got.ActiveAnomalies != 0 || got.Grade != "A+" {
		t.Errorf("negative anomaly count must clamp: %+v", got)
	}
}

func TestNewGraderValidation(t *testing.T) {
	if _, err := NewGrader(nil, 1); err == nil {
		t.Error("expected error for empty bands")
	}

	// Non-descending floors.
	bad := []Band{{Grade: "A", Min: 90}, {Grade: "B", Min: 95}, {Grade: "F", Min: 0}}
	if _, err := NewGrader(bad, 1); err == nil {
		t.Error("expected error for non-descending bands")
	}

	// Missing zero floor.
	noFloor := []Band{{Grade: "A", Min: 90}, {Grade: "F", Min: 10}}
	if _, err := NewGrader(noFloor, 1); err == nil {
		t.Error("expected error when last band floor is not 0")
	}

	if _, err := NewGrader(DefaultBands(), -1); err == nil {
		t.Error("expected error for negative penalty")
	}
}
