package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// RPC metrics
	RPCRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "breeze_rpc_requests_total",
			Help: "Total number of RPC requests by method and status code",
		},
		[]string{"method", "code"},
	)

	RPCRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "breeze_rpc_request_duration_seconds",
			Help:    "RPC request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	// Balancer metrics
	ChannelConnections = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "breeze_channel_connections",
			Help: "Number of live connections per downstream service",
		},
		[]string{"service"},
	)

	ChannelBusyLevel = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "breeze_channel_busy_level",
			Help: "Sum of in-flight requests across connections per downstream service",
		},
		[]string{"service"},
	)

	// Discovery metrics
	DiscoveryEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "breeze_discovery_events_total",
			Help: "Total number of discovery events by kind (put, delete, restart)",
		},
		[]string{"event"},
	)

	// Broker metrics
	MessagesPublishedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "breeze_messages_published_total",
			Help: "Total number of envelopes published by exchange",
		},
		[]string{"exchange"},
	)

	MessagesConsumedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "breeze_messages_consumed_total",
			Help: "Total number of deliveries by queue and outcome (ack, requeue)",
		},
		[]string{"queue", "outcome"},
	)

	// Storage metrics
	MessagesStoredTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "breeze_messages_stored_total",
			Help: "Total number of messages persisted by payload type",
		},
		[]string{"type"},
	)

	MessageHandleDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "breeze_message_handle_duration_seconds",
			Help:    "Time spent persisting one consumed envelope",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"type"},
	)

	CompensationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "breeze_compensations_total",
			Help: "Total number of multi-store compensations by operation and outcome (ok, failed)",
		},
		[]string{"operation", "outcome"},
	)
)

func init() {
	// Register all metrics
	prometheus.MustRegister(RPCRequestsTotal)
	prometheus.MustRegister(RPCRequestDuration)
	prometheus.MustRegister(ChannelConnections)
	prometheus.MustRegister(ChannelBusyLevel)
	prometheus.MustRegister(DiscoveryEventsTotal)
	prometheus.MustRegister(MessagesPublishedTotal)
	prometheus.MustRegister(MessagesConsumedTotal)
	prometheus.MustRegister(MessagesStoredTotal)
	prometheus.MustRegister(MessageHandleDuration)
	prometheus.MustRegister(CompensationsTotal)
}

// RecordRPC updates the request counter and duration histogram for one call.
func RecordRPC(method, code string, elapsed time.Duration) {
	RPCRequestsTotal.WithLabelValues(method, code).Inc()
	RPCRequestDuration.WithLabelValues(method).Observe(elapsed.Seconds())
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}
