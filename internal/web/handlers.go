package web

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/statuswatch/statuswatch/internal/analytics"
	"github.com/statuswatch/statuswatch/internal/analytics/anomaly"
	"github.com/statuswatch/statuswatch/internal/statusapi"
	"github.com/statuswatch/statuswatch/internal/store"
)

// StatusSnapshot is the payload served by /api/status and pushed over /ws.
type StatusSnapshot struct {
	Page          string                      `json:"page"`
	Indicator     string                      `json:"indicator"`
	Description   string                      `json:"description"`
	Availability  float64                     `json:"availability"`
	Total         int                         `json:"total_services"`
	Operational   int                         `json:"operational"`
	WithIssues    []statusapi.ComponentHealth `json:"with_issues"`
	OpenIncidents int                         `json:"open_incidents"`
	Anomalies     []anomaly.Result            `json:"anomalies,omitempty"`
	CheckedAt     time.Time                   `json:"checked_at"`
}

func newStatusSnapshot(summary *statusapi.Summary, health *statusapi.HealthMetrics, now time.Time) *StatusSnapshot {
	return &StatusSnapshot{
		Page:          summary.Page.Name,
		Indicator:     summary.Status.Indicator,
		Description:   summary.Status.Description,
		Availability:  health.Availability,
		Total:         health.Total,
		Operational:   health.Operational,
		WithIssues:    health.WithIssues,
		OpenIncidents: health.OpenIncidents,
		CheckedAt:     now,
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	summary, _, err := s.client.FetchSummary(r.Context(), true)
	if err != nil {
		s.writeError(w, http.StatusBadGateway, err)
		return
	}
	now := time.Now().UTC()
	health := statusapi.ExtractHealth(summary, now)
	s.writeJSON(w, http.StatusOK, newStatusSnapshot(summary, health, now))
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	window := 24 * time.Hour
	if v := r.URL.Query().Get("window"); v != "" {
		parsed, err := time.ParseDuration(v)
		if err != nil || parsed <= 0 {
			s.writeErrorMessage(w, http.StatusBadRequest, "window must be a positive duration")
			return
		}
		window = parsed
	}

	report, err := s.engine.Report(r.Context(), window)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleAnomalies(w http.ResponseWriter, r *http.Request) {
	q := store.AnomalyQuery{
		Service:  r.URL.Query().Get("service"),
		Severity: r.URL.Query().Get("severity"),
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 1 {
			s.writeErrorMessage(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		q.Limit = limit
	}

	recs, err := s.store.QueryAnomalies(r.Context(), q)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"anomalies": recs,
		"count":     len(recs),
	})
}

func (s *Server) handleForecasts(w http.ResponseWriter, r *http.Request) {
	service := mux.Vars(r)["service"]
	recs, err := s.store.RecentForecasts(r.Context(), service, 20)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"service":   service,
		"forecasts": recs,
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	service := mux.Vars(r)["service"]
	metric := r.URL.Query().Get("metric")
	if metric == "" {
		metric = analytics.MetricHealth
	}

	since := time.Now().Add(-24 * time.Hour)
	if v := r.URL.Query().Get("since"); v != "" {
		parsed, err := time.Parse(time.RFC3339, v)
		if err != nil {
			s.writeErrorMessage(w, http.StatusBadRequest, "since must be RFC3339")
			return
		}
		since = parsed
	}

	samples, err := s.store.History(r.Context(), service, metric, since)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"service": service,
		"metric":  metric,
		"samples": samples,
	})
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		s.writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("response encoding failed", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.writeErrorMessage(w, status, err.Error())
}

func (s *Server) writeErrorMessage(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}
