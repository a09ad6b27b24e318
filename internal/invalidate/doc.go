// Package invalidate routes inbound events to cache-invalidation keys.
//
// The routing table is fixed: task lifecycle events stale the tasks and
// dashboard prefixes, worker lifecycle events the workers and dashboard
// prefixes, queue updates the queues and dashboard prefixes, and metrics
// updates the metrics prefix. Unrecognized event types invalidate nothing
// but are still forwarded to downstream consumers.
package invalidate
