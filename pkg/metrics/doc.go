/*
Package metrics provides Prometheus metrics collection and exposition for Breeze.

The metrics package defines and registers all Breeze metrics using the Prometheus
client library, providing observability into RPC traffic, connection-pool load,
service discovery churn, broker throughput, and message persistence. Metrics are
exposed via HTTP endpoint for scraping by Prometheus servers.

# Architecture

	┌──────────────────── METRICS SYSTEM ──────────────────────┐
	│                                                            │
	│  ┌────────────────────────────────────────────┐          │
	│  │          Prometheus Registry                │          │
	│  │  - Global DefaultRegistry                   │          │
	│  │  - MustRegister at package init             │          │
	│  │  - Automatic Go runtime metrics             │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │           Metric Categories                 │          │
	│  │                                              │          │
	│  │  RPC: Request count, duration               │          │
	│  │  Balancer: Connections, busy level          │          │
	│  │  Discovery: Put/delete/restart events       │          │
	│  │  Broker: Published, consumed envelopes      │          │
	│  │  Storage: Stored messages, compensations    │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │          HTTP Metrics Endpoint              │          │
	│  │  - Path: /metrics                           │          │
	│  │  - Format: Prometheus text exposition       │          │
	│  │  - Handler: promhttp.Handler()              │          │
	│  └────────────────────────────────────────────┘           │
	└────────────────────────────────────────────────────────┘

# Metrics Catalog

RPC Metrics:

breeze_rpc_requests_total{method, code}:
  - Type: Counter
  - Description: Total RPC requests by full method name and gRPC status code
  - Example: breeze_rpc_requests_total{method="/breeze.UserService/UserLogin",code="OK"} 42

breeze_rpc_request_duration_seconds{method}:
  - Type: Histogram
  - Description: RPC request duration in seconds
  - Buckets: Default Prometheus buckets

Balancer Metrics:

breeze_channel_connections{service}:
  - Type: Gauge
  - Description: Live connections per downstream service channel
  - Example: breeze_channel_connections{service="file_service"} 3

breeze_channel_busy_level{service}:
  - Type: Gauge
  - Description: Sum of in-flight requests across a channel's connections

Discovery Metrics:

breeze_discovery_events_total{event}:
  - Type: Counter
  - Description: Discovery events by kind (put, delete, restart)
  - Example: breeze_discovery_events_total{event="put"} 12

Broker Metrics:

breeze_messages_published_total{exchange}:
  - Type: Counter
  - Description: Envelopes published per exchange

breeze_messages_consumed_total{queue, outcome}:
  - Type: Counter
  - Description: Deliveries per queue by outcome (ack, requeue)

Storage Metrics:

breeze_messages_stored_total{type}:
  - Type: Counter
  - Description: Messages persisted by payload type (string, image, file, speech)

breeze_message_handle_duration_seconds{type}:
  - Type: Histogram
  - Description: Time spent persisting one consumed envelope

breeze_compensations_total{operation, outcome}:
  - Type: Counter
  - Description: Multi-store compensations by operation and outcome (ok, failed)

# Usage

Recording RPC observations is normally done by the server interceptor, but any
component can update the metrics directly:

	import "github.com/breezechat/breeze/pkg/metrics"

	// Counters
	metrics.MessagesPublishedTotal.WithLabelValues("breeze-exchange").Inc()

	// Gauges
	metrics.ChannelConnections.WithLabelValues("user_service").Set(3)

	// Histograms via Timer helper
	timer := metrics.NewTimer()
	// ... perform operation ...
	timer.ObserveDurationVec(metrics.MessageHandleDuration, "string")

Exposing the endpoint:

	http.Handle("/metrics", metrics.Handler())
	http.ListenAndServe(":9090", nil)

# Integration Points

This package integrates with:

  - pkg/rpc: Server interceptor records request counts and latency
  - pkg/balancer: Collector samples per-service pool state
  - pkg/coord: Discovery increments event counters
  - pkg/mq: Publisher and consumer throughput
  - pkg/msgstore: Persistence outcomes and compensation results
  - Prometheus: Scrapes /metrics endpoint

# Design Patterns

Package Init Registration:
  - All metrics registered in init() function
  - MustRegister panics on duplicate registration
  - Ensures metrics available before main()

Label Discipline:
  - Use WithLabelValues for cardinality-bounded labels
  - Method names, service keys, and payload types are bounded sets
  - Never label by user id, session id, or message id

Collector Pattern:
  - Pool gauges are sampled, not pushed
  - Collector polls the balancer manager every 15 seconds
  - Start launches the sampling goroutine, Stop terminates it

# See Also

  - Prometheus client library: https://github.com/prometheus/client_golang
  - Histogram best practices: https://prometheus.io/docs/practices/histograms/
*/
package metrics
