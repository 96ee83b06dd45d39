package grading

// graderImpl is the concrete Grader.
type graderImpl struct {
	bands   []Band
	penalty float64
}

// Grade computes the effective score and its letter grade.
func (g *graderImpl) Grade(availability float64, activeAnomalies int) Report {
	if availability < 0 {
		availability = 0
	} else if availability > 100 {
		availability = 100
	}
	if activeAnomalies < 0 {
		activeAnomalies = 0
	}

	score := availability - g.penalty*float64(activeAnomalies)
	if score < 0 {
		score = 0
	}

	grade := g.bands[len(g.bands)-1].Grade
	for _, b := range g.bands {
		if score >= b.Min {
			grade = b.Grade
			break
		}
	}

	return Report{
		Grade:           grade,
		Score:           score,
		Availability:    availability,
		ActiveAnomalies: activeAnomalies,
		AnomalyPenalty:  g.penalty,
	}
}
