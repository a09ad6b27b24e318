// Package refresh periodically re-warms the query cache.
//
// Event-driven invalidation keeps the cache fresh while the stream is
// healthy; the refresher is the safety net that repopulates it on a
// schedule, so a long reconnect never leaves the dashboard serving
// nothing but misses.
package refresh
