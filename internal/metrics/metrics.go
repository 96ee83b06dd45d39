package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Exporter metrics for status monitoring
var (
	// Global status metrics
	GlobalAvailability = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "statuswatch_global_availability_percent",
			Help: "Percentage of services currently operational",
		},
	)

	ServicesOperational = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "statuswatch_services_operational",
			Help: "Number of services currently operational",
		},
	)

	ServicesWithIssues = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "statuswatch_services_with_issues",
			Help: "Number of services currently reporting issues",
		},
	)

	ServiceStatus = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "statuswatch_service_status",
			Help: "Per-service health score (100=operational, 0=down)",
		},
		[]string{"service"},
	)

	OpenIncidents = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "statuswatch_open_incidents",
			Help: "Number of unresolved incidents on the status page",
		},
	)

	// Poll metrics
	ChecksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "statuswatch_checks_total",
			Help: "Total number of status page polls",
		},
		[]string{"result"}, // result: success/error
	)

	APIResponseTime = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "statuswatch_api_response_seconds",
			Help:    "Status API round-trip time in seconds",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10), // 50ms to ~25s
		},
	)

	// Cache metrics
	CacheHitRatio = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "statuswatch_cache_hit_ratio",
			Help: "Cache hit ratio since process start (0-1)",
		},
	)

	CacheSizeBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "statuswatch_cache_size_bytes",
			Help: "Total bytes currently stored in the response cache",
		},
	)

	CacheEvictions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "statuswatch_cache_evictions",
			Help: "Cache entries evicted for capacity since process start",
		},
	)

	// Analytics metrics
	AnomaliesDetected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "statuswatch_anomalies_total",
			Help: "Total number of anomalies detected",
		},
		[]string{"service", "severity"},
	)

	ForecastsComputed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "statuswatch_forecasts_total",
			Help: "Total number of forecasts computed",
		},
		[]string{"reliable"}, // reliable: true/false
	)

	HealthScore = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "statuswatch_health_score",
			Help: "Effective health score after anomaly penalty (0-100)",
		},
	)

	// Notification metrics
	NotificationsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "statuswatch_notifications_sent_total",
			Help: "Total number of notifications dispatched",
		},
		[]string{"channel", "status"}, // status: success/error
	)

	// WebSocket metrics
	WebSocketConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "statuswatch_websocket_connections",
			Help: "Current number of active WebSocket connections",
		},
	)
)
