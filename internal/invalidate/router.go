package invalidate

import (
	"log/slog"
	"sync"

	"github.com/queuepulse/queuepulse/internal/event"
	"github.com/queuepulse/queuepulse/internal/metrics"
)

// Cache key prefixes targeted by the routing table.
const (
	KeyTasks     = "tasks"
	KeyWorkers   = "workers"
	KeyQueues    = "queues"
	KeyDashboard = "dashboard"
	KeyMetrics   = "metrics"
)

// routes maps event categories to the key prefixes they stale.
var routes = map[event.Category][]string{
	event.CategoryTask:    {KeyTasks, KeyDashboard},
	event.CategoryWorker:  {KeyWorkers, KeyDashboard},
	event.CategoryQueue:   {KeyQueues, KeyDashboard},
	event.CategoryMetrics: {KeyMetrics},
}

// Invalidator is the cache operation the router depends on. Invalidation
// must be idempotent and safe for interleaved callers.
type Invalidator interface {
	InvalidatePrefix(prefix string) int
}

// Stats contains routing counters.
type Stats struct {
	Routed  int64 `json:"routed"`  // messages that matched the table
	Skipped int64 `json:"skipped"` // messages with an unrecognized type
}

// Router applies the invalidation table to a cache sink.
type Router struct {
	sink   Invalidator
	logger *slog.Logger

	mu      sync.Mutex
	routed  int64
	skipped int64
}

// NewRouter creates a Router targeting the given sink.
func NewRouter(sink Invalidator, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		sink:   sink,
		logger: logger,
	}
}

// Route invalidates the key prefixes mapped to msg's type and returns the
// prefixes touched. Unrecognized types touch nothing; the caller forwards
// the message downstream either way.
func (r *Router) Route(msg event.Message) []string {
	prefixes, ok := routes[msg.Type.Category()]
	if !ok {
		r.mu.Lock()
		r.skipped++
		r.mu.Unlock()
		r.logger.Debug("no invalidation route", "type", msg.Type)
		return nil
	}

	for _, prefix := range prefixes {
		r.sink.InvalidatePrefix(prefix)
		metrics.CacheInvalidations.WithLabelValues(prefix).Inc()
	}

	r.mu.Lock()
	r.routed++
	r.mu.Unlock()

	return prefixes
}

// Stats returns current counters.
func (r *Router) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Stats{Routed: r.routed, Skipped: r.skipped}
}
