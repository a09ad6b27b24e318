package cache

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Stats contains cache counters.
type Stats struct {
	Entries       int   `json:"entries"`
	Hits          int64 `json:"hits"`
	Misses        int64 `json:"misses"`
	Invalidations int64 `json:"invalidations"`
}

// entry is a single cached value.
type entry struct {
	value     any
	expiresAt time.Time
	stale     bool
}

// Cache is a TTL cache with prefix invalidation.
//
// InvalidatePrefix is idempotent and safe to call from any goroutine,
// including interleaved with reads and loads.
type Cache struct {
	logger *slog.Logger
	now    func() time.Time

	group singleflight.Group

	mu      sync.RWMutex
	entries map[string]*entry

	hits          int64
	misses        int64
	invalidations int64
}

// New creates an empty cache.
func New(logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{
		logger:  logger,
		now:     time.Now,
		entries: make(map[string]*entry),
	}
}

// Key joins path segments into a cache key.
func Key(segments ...string) string {
	return strings.Join(segments, "/")
}

// Get returns the cached value for key. Stale or expired entries miss.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok || e.stale || c.now().After(e.expiresAt) {
		c.misses++
		return nil, false
	}
	c.hits++
	return e.value, true
}

// Set stores a value under key with the given TTL.
func (c *Cache) Set(key string, value any, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = &entry{
		value:     value,
		expiresAt: c.now().Add(ttl),
	}
}

// InvalidatePrefix marks every entry at or under prefix as stale and
// returns the number of entries touched. An entry matches when its key
// equals the prefix or starts with prefix + "/".
func (c *Cache) InvalidatePrefix(prefix string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	touched := 0
	for key, e := range c.entries {
		if e.stale {
			continue
		}
		if key == prefix || strings.HasPrefix(key, prefix+"/") {
			e.stale = true
			touched++
		}
	}
	if touched > 0 {
		c.invalidations += int64(touched)
		c.logger.Debug("cache invalidated", "prefix", prefix, "entries", touched)
	}
	return touched
}

// Fetch returns the cached value for key, loading it with fn on a miss.
// Concurrent fetches of the same key share a single load.
func (c *Cache) Fetch(ctx context.Context, key string, ttl time.Duration, fn func(context.Context) (any, error)) (any, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		// Another caller may have finished the load while we queued.
		if v, ok := c.Get(key); ok {
			return v, nil
		}

		v, err := fn(ctx)
		if err != nil {
			return nil, err
		}
		c.Set(key, v, ttl)
		return v, nil
	})
	return v, err
}

// Stats returns current counters.
func (c *Cache) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return Stats{
		Entries:       len(c.entries),
		Hits:          c.hits,
		Misses:        c.misses,
		Invalidations: c.invalidations,
	}
}
