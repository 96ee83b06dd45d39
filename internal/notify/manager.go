package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/statuswatch/statuswatch/internal/metrics"
)

// Manager fans alerts out to channels, filtering by severity and
// suppressing repeats inside the cooldown window.
type Manager interface {
	// Dispatch sends the alert to every channel if it passes the
	// severity filter and cooldown. It reports whether it was sent.
	Dispatch(ctx context.Context, alert *Alert) (bool, error)

	// Channels returns the configured channel names.
	Channels() []string
}

// ManagerOptions configures a Manager.
type ManagerOptions struct {
	MinSeverity string
	Cooldown    time.Duration
	// Now is swapped in tests.
	Now func() time.Time
}

type manager struct {
	opts     ManagerOptions
	channels []Channel
	logger   *zap.Logger

	mu       sync.Mutex
	lastSent map[string]time.Time
}

// NewManager creates a Manager over the given channels.
func NewManager(opts ManagerOptions, channels []Channel, logger *zap.Logger) Manager {
	if opts.MinSeverity == "" {
		opts.MinSeverity = SeverityWarning
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &manager{
		opts:     opts,
		channels: channels,
		logger:   logger,
		lastSent: make(map[string]time.Time),
	}
}

func (m *manager) Channels() []string {
	names := make([]string, 0, len(m.channels))
	for _, ch := range m.channels {
		names = append(names, ch.Name())
	}
	return names
}

func (m *manager) Dispatch(ctx context.Context, alert *Alert) (bool, error) {
	if severityRank[alert.Severity] < severityRank[m.opts.MinSeverity] {
		m.logger.Debug("alert below severity threshold",
			zap.String("severity", alert.Severity),
			zap.String("title", alert.Title),
		)
		return false, nil
	}

	if !m.passCooldown(alert) {
		m.logger.Debug("alert suppressed by cooldown",
			zap.String("title", alert.Title),
			zap.String("service", alert.Service),
		)
		return false, nil
	}

	var firstErr error
	for _, ch := range m.channels {
		if err := ch.Send(ctx, alert); err != nil {
			metrics.NotificationsSent.WithLabelValues(ch.Name(), "error").Inc()
			m.logger.Error("notification failed",
				zap.String("channel", ch.Name()),
				zap.String("alert_id", alert.ID),
				zap.Error(err),
			)
			if firstErr == nil {
				firstErr = fmt.Errorf("channel %s: %w", ch.Name(), err)
			}
			continue
		}
		metrics.NotificationsSent.WithLabelValues(ch.Name(), "success").Inc()
		m.logger.Info("notification sent",
			zap.String("channel", ch.Name()),
			zap.String("severity", alert.Severity),
			zap.String("title", alert.Title),
		)
	}
	return true, firstErr
}

// passCooldown records the alert key and reports whether enough time has
// passed since the last alert with the same key.
func (m *manager) passCooldown(alert *Alert) bool {
	if m.opts.Cooldown <= 0 {
		return true
	}
	key := alert.Service + ":" + alert.Metric + ":" + alert.Title
	now := m.opts.Now()

	m.mu.Lock()
	defer m.mu.Unlock()
	if last, ok := m.lastSent[key]; ok && now.Sub(last) < m.opts.Cooldown {
		return false
	}
	m.lastSent[key] = now
	return true
}
