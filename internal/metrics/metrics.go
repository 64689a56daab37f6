package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// HTTP метрики
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "http_request_duration_seconds",
			Help: "Duration of HTTP requests in seconds",
		},
		[]string{"method", "path"},
	)
	HTTPRequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Current number of HTTP requests in flight",
		},
	)

	// Webhook ingestion
	WebhookEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_events_total",
			Help: "Webhook calls by outcome (stored, forbidden, bad_request, unavailable, storage_error)",
		},
		[]string{"outcome"},
	)

	// Storage
	StorageConnected = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "storage_connected",
			Help: "1 when the event store is connected, 0 otherwise",
		},
	)
	StorageConnectAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storage_connect_attempts_total",
			Help: "Attempts to connect to the event store and ensure its schema",
		},
		[]string{"status"},
	)
	StorageInsertDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name: "storage_insert_duration_seconds",
			Help: "Duration of event inserts in seconds",
		},
	)

	// Relay
	RelayForwardsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_forwards_total",
			Help: "Total number of relay forward attempts",
		},
		[]string{"status"},
	)
	RelayForwardDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name: "relay_forward_duration_seconds",
			Help: "Duration of relay forward attempts in seconds",
		},
	)
)

func InitMetrics() {
	prometheus.MustRegister(HTTPRequestsTotal)
	prometheus.MustRegister(HTTPRequestDuration)
	prometheus.MustRegister(HTTPRequestsInFlight)

	prometheus.MustRegister(WebhookEventsTotal)

	prometheus.MustRegister(StorageConnected)
	prometheus.MustRegister(StorageConnectAttemptsTotal)
	prometheus.MustRegister(StorageInsertDuration)

	prometheus.MustRegister(RelayForwardsTotal)
	prometheus.MustRegister(RelayForwardDuration)
}
