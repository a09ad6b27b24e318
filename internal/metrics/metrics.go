// Package metrics defines the Prometheus instrumentation for the monitor.
//
// All collectors are registered on the default registry via promauto and
// exposed by the ops server's /metrics endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Stream metrics

	// StreamMessagesReceived counts parsed inbound messages by type tag.
	StreamMessagesReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "queuepulse",
			Subsystem: "stream",
			Name:      "messages_received_total",
			Help:      "Total inbound event messages successfully parsed",
		},
		[]string{"type"},
	)

	// StreamParseErrors counts dropped unparseable frames.
	StreamParseErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "queuepulse",
			Subsystem: "stream",
			Name:      "parse_errors_total",
			Help:      "Total inbound frames dropped due to JSON parse failure",
		},
	)

	// StreamReconnectAttempts counts reconnection attempts.
	StreamReconnectAttempts = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "queuepulse",
			Subsystem: "stream",
			Name:      "reconnect_attempts_total",
			Help:      "Total WebSocket reconnection attempts",
		},
	)

	// StreamDroppedSends counts sends skipped because the socket was not open.
	StreamDroppedSends = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "queuepulse",
			Subsystem: "stream",
			Name:      "dropped_sends_total",
			Help:      "Total outbound payloads dropped while disconnected",
		},
	)

	// StreamConnectionState reports the current connection state (one-hot).
	StreamConnectionState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "queuepulse",
			Subsystem: "stream",
			Name:      "connection_state",
			Help:      "Current connection state (1 for the active state, 0 otherwise)",
		},
		[]string{"state"},
	)

	// Cache metrics

	// CacheInvalidations counts prefix invalidations driven by the event feed.
	CacheInvalidations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "queuepulse",
			Subsystem: "cache",
			Name:      "invalidations_total",
			Help:      "Total cache prefix invalidations by key prefix",
		},
		[]string{"prefix"},
	)

	// Archive metrics

	// ArchiveRowsWritten counts event rows persisted to the archive.
	ArchiveRowsWritten = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "queuepulse",
			Subsystem: "archive",
			Name:      "rows_written_total",
			Help:      "Total event rows written to the archive",
		},
	)

	// ArchiveFlushes counts archive batch flushes by result.
	ArchiveFlushes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "queuepulse",
			Subsystem: "archive",
			Name:      "flushes_total",
			Help:      "Total archive batch flushes",
		},
		[]string{"result"}, // result: ok, error
	)

	// API metrics

	// APIRequests counts backend REST requests by endpoint and result.
	APIRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "queuepulse",
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "Total backend REST API requests",
		},
		[]string{"endpoint", "result"}, // result: ok, error
	)

	// APIRequestDuration tracks backend REST request latency.
	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "queuepulse",
			Subsystem: "api",
			Name:      "request_duration_seconds",
			Help:      "Backend REST API request latency",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)
)

// SetConnectionState updates the one-hot connection state gauge.
func SetConnectionState(state string) {
	for _, s := range []string{"disconnected", "connecting", "connected", "reconnecting"} {
		v := 0.0
		if s == state {
			v = 1.0
		}
		StreamConnectionState.WithLabelValues(s).Set(v)
	}
}
