package notify

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Package notify dispatches alerts for detected anomalies and status
// changes through the configured channels.

// Alert severities, ordered least to most urgent.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityCritical = "critical"
)

// severityRank orders severities for threshold comparison.
var severityRank = map[string]int{
	SeverityInfo:     0,
	SeverityWarning:  1,
	SeverityCritical: 2,
}

// Alert is a single notification payload.
type Alert struct {
	ID        string            `json:"id"`
	Severity  string            `json:"severity"`
	Title     string            `json:"title"`
	Message   string            `json:"message"`
	Service   string            `json:"service,omitempty"`
	Metric    string            `json:"metric,omitempty"`
	Details   map[string]string `json:"details,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// NewAlert creates an alert with a fresh ID and timestamp.
func NewAlert(severity, title, message string) *Alert {
	return &Alert{
		ID:        uuid.New().String(),
		Severity:  severity,
		Title:     title,
		Message:   message,
		CreatedAt: time.Now().UTC(),
	}
}

// WithService attaches the originating service and metric.
func (a *Alert) WithService(service, metric string) *Alert {
	a.Service = service
	a.Metric = metric
	return a
}

// WithDetail attaches a key/value detail.
func (a *Alert) WithDetail(key, value string) *Alert {
	if a.Details == nil {
		a.Details = make(map[string]string)
	}
	a.Details[key] = value
	return a
}

// Channel delivers alerts to one destination.
type Channel interface {
	// Name identifies the channel in logs and metrics.
	Name() string

	// Send delivers the alert.
	Send(ctx context.Context, alert *Alert) error
}
