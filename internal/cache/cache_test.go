package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestCache_GetSet(t *testing.T) {
	c := New(nil)

	if _, ok := c.Get("tasks"); ok {
		t.Error("expected miss on empty cache")
	}

	c.Set("tasks", []string{"a", "b"}, time.Minute)

	v, ok := c.Get("tasks")
	if !ok {
		t.Fatal("expected hit after Set")
	}
	tasks := v.([]string)
	if len(tasks) != 2 || tasks[0] != "a" {
		t.Errorf("Get = %v, want [a b]", tasks)
	}
}

func TestCache_TTLExpiry(t *testing.T) {
	c := New(nil)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	current := base
	c.now = func() time.Time { return current }

	c.Set("metrics", 42, 30*time.Second)

	if _, ok := c.Get("metrics"); !ok {
		t.Error("expected hit before expiry")
	}

	current = base.Add(31 * time.Second)
	if _, ok := c.Get("metrics"); ok {
		t.Error("expected miss after expiry")
	}
}

func TestCache_InvalidatePrefix(t *testing.T) {
	c := New(nil)
	c.Set("tasks", 1, time.Minute)
	c.Set("tasks/123", 2, time.Minute)
	c.Set("tasks/456", 3, time.Minute)
	c.Set("taskserver", 4, time.Minute) // shares a string prefix, not a path prefix
	c.Set("workers", 5, time.Minute)

	touched := c.InvalidatePrefix("tasks")
	if touched != 3 {
		t.Errorf("InvalidatePrefix touched %d entries, want 3", touched)
	}

	for _, key := range []string{"tasks", "tasks/123", "tasks/456"} {
		if _, ok := c.Get(key); ok {
			t.Errorf("expected %q to be stale", key)
		}
	}
	if _, ok := c.Get("taskserver"); !ok {
		t.Error("taskserver should not match the tasks prefix")
	}
	if _, ok := c.Get("workers"); !ok {
		t.Error("workers should be unaffected")
	}

	// Idempotent: a second invalidation touches nothing new.
	if touched := c.InvalidatePrefix("tasks"); touched != 0 {
		t.Errorf("second InvalidatePrefix touched %d entries, want 0", touched)
	}
}

func TestCache_Fetch(t *testing.T) {
	t.Run("loads on miss, caches on hit", func(t *testing.T) {
		c := New(nil)
		calls := 0
		load := func(ctx context.Context) (any, error) {
			calls++
			return "loaded", nil
		}

		v, err := c.Fetch(context.Background(), "dashboard", time.Minute, load)
		if err != nil {
			t.Fatalf("Fetch failed: %v", err)
		}
		if v != "loaded" {
			t.Errorf("Fetch = %v, want loaded", v)
		}

		if _, err := c.Fetch(context.Background(), "dashboard", time.Minute, load); err != nil {
			t.Fatalf("second Fetch failed: %v", err)
		}
		if calls != 1 {
			t.Errorf("loader called %d times, want 1", calls)
		}
	})

	t.Run("loader error not cached", func(t *testing.T) {
		c := New(nil)
		wantErr := errors.New("backend down")
		fails := true

		load := func(ctx context.Context) (any, error) {
			if fails {
				return nil, wantErr
			}
			return "ok", nil
		}

		if _, err := c.Fetch(context.Background(), "queues", time.Minute, load); !errors.Is(err, wantErr) {
			t.Fatalf("Fetch error = %v, want %v", err, wantErr)
		}

		fails = false
		v, err := c.Fetch(context.Background(), "queues", time.Minute, load)
		if err != nil {
			t.Fatalf("Fetch after recovery failed: %v", err)
		}
		if v != "ok" {
			t.Errorf("Fetch = %v, want ok", v)
		}
	})

	t.Run("concurrent fetches share one load", func(t *testing.T) {
		c := New(nil)
		var calls atomic.Int64
		gate := make(chan struct{})

		load := func(ctx context.Context) (any, error) {
			calls.Add(1)
			<-gate
			return "shared", nil
		}

		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				v, err := c.Fetch(context.Background(), "tasks", time.Minute, load)
				if err != nil {
					t.Errorf("Fetch failed: %v", err)
					return
				}
				if v != "shared" {
					t.Errorf("Fetch = %v, want shared", v)
				}
			}()
		}

		// Let the goroutines pile up on the in-flight load.
		time.Sleep(50 * time.Millisecond)
		close(gate)
		wg.Wait()

		if n := calls.Load(); n != 1 {
			t.Errorf("loader called %d times, want 1", n)
		}
	})
}

func TestCache_Stats(t *testing.T) {
	c := New(nil)
	c.Set("tasks", 1, time.Minute)
	c.Get("tasks")  // hit
	c.Get("absent") // miss
	c.InvalidatePrefix("tasks")

	stats := c.Stats()
	if stats.Entries != 1 {
		t.Errorf("Entries = %d, want 1", stats.Entries)
	}
	if stats.Hits != 1 {
		t.Errorf("Hits = %d, want 1", stats.Hits)
	}
	if stats.Misses != 1 {
		t.Errorf("Misses = %d, want 1", stats.Misses)
	}
	if stats.Invalidations != 1 {
		t.Errorf("Invalidations = %d, want 1", stats.Invalidations)
	}
}
