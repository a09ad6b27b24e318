// Package cache implements the prefix-invalidated query cache that backs
// the monitoring views.
//
// Entries are keyed by slash-separated paths ("tasks", "tasks/<id>").
// Invalidation marks every entry under a prefix stale; the next read falls
// through to the loader. Fetch dedupes concurrent loads of the same key via
// singleflight.
package cache
