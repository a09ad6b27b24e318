// Package ops serves the monitor's operational HTTP endpoints: health,
// readiness, Prometheus metrics, and a stats snapshot.
package ops
