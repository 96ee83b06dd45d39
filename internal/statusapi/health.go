package statusapi

import "time"

// Component statuses as published by Statuspage-style APIs.
const (
	StatusOperational      = "operational"
	StatusDegraded         = "degraded_performance"
	StatusPartialOutage    = "partial_outage"
	StatusMajorOutage      = "major_outage"
	StatusUnderMaintenance = "under_maintenance"
)

// baseHealthScores maps a component status to its health contribution.
var baseHealthScores = map[string]float64{
	StatusOperational:      100,
	StatusDegraded:         75,
	StatusPartialOutage:    50,
	StatusMajorOutage:      25,
	StatusUnderMaintenance: 90,
}

// ComponentHealth is the derived health of one component.
type ComponentHealth struct {
	Name        string    `json:"name"`
	Status      string    `json:"status"`
	HealthScore float64   `json:"health_score"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// HealthMetrics summarizes a full summary into the numbers the analytics
// engine and exporter consume.
type HealthMetrics struct {
	Availability   float64            `json:"availability"` // percent of components operational
	Total          int                `json:"total"`
	Operational    int                `json:"operational"`
	ByStatus       map[string]int     `json:"by_status"`
	WithIssues     []ComponentHealth  `json:"with_issues"`
	OpenIncidents  int                `json:"open_incidents"`
	ComponentScore map[string]float64 `json:"component_score"`
}

// ExtractHealth derives health metrics from a summary at the given time.
// Component groups are containers, not services, and are skipped.
func ExtractHealth(s *Summary, now time.Time) *HealthMetrics {
	m := &HealthMetrics{
		ByStatus:       make(map[string]int),
		ComponentScore: make(map[string]float64),
	}

	for _, comp := range s.Components {
		if comp.Group {
			continue
		}
		m.Total++
		m.ByStatus[comp.Status]++

		score := HealthScore(comp, now)
		m.ComponentScore[comp.Name] = score

		if comp.Status == StatusOperational {
			m.Operational++
		} else {
			m.WithIssues = append(m.WithIssues, ComponentHealth{
				Name:        comp.Name,
				Status:      comp.Status,
				HealthScore: score,
				UpdatedAt:   comp.UpdatedAt,
			})
		}
	}

	if m.Total > 0 {
		m.Availability = float64(m.Operational) / float64(m.Total) * 100
	}

	for _, inc := range s.Incidents {
		if inc.Status != "resolved" {
			m.OpenIncidents++
		}
	}
	return m
}

// HealthScore maps a component to a 0-100 score: the base score for its
// status, decayed by 0.5 per day the component has gone without an update
// past the first, capped at 10 points.
func HealthScore(comp Component, now time.Time) float64 {
	score, ok := baseHealthScores[comp.Status]
	if !ok {
		score = 0
	}

	if !comp.UpdatedAt.IsZero() {
		staleDays := now.Sub(comp.UpdatedAt).Hours()/24 - 1
		if staleDays > 0 {
			decay := staleDays * 0.5
			if decay > 10 {
				decay = 10
			}
			score -= decay
		}
	}

	if score < 0 {
		score = 0
	}
	return score
}
