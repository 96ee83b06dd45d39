package statusapi

import "time"

// Summary is the decoded body of a status page summary endpoint.
type Summary struct {
	Page                  Page          `json:"page"`
	Status                PageStatus    `json:"status"`
	Components            []Component   `json:"components"`
	Incidents             []Incident    `json:"incidents"`
	ScheduledMaintenances []Maintenance `json:"scheduled_maintenances"`
}

// Page identifies the status page itself.
type Page struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	URL       string    `json:"url"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PageStatus is the page-wide rollup.
type PageStatus struct {
	Indicator   string `json:"indicator"` // none | minor | major | critical
	Description string `json:"description"`
}

// Component is a single monitored service on the page.
type Component struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Status      string    `json:"status"` // operational | degraded_performance | partial_outage | major_outage | under_maintenance
	Description string    `json:"description"`
	GroupID     string    `json:"group_id"`
	Group       bool      `json:"group"`
	Position    int       `json:"position"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Incident is an open or recently resolved incident.
type Incident struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Status     string    `json:"status"` // investigating | identified | monitoring | resolved
	Impact     string    `json:"impact"` // none | minor | major | critical
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	ResolvedAt time.Time `json:"resolved_at"`
	Shortlink  string    `json:"shortlink"`
}

// Maintenance is a scheduled maintenance window.
type Maintenance struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Status       string    `json:"status"`
	ScheduledFor time.Time `json:"scheduled_for"`
	ScheduledTil time.Time `json:"scheduled_until"`
}
