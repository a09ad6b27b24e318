package refresh

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRefresherWarmsOnStart(t *testing.T) {
	var calls atomic.Int32

	warmers := []Warmer{
		{Name: "tasks", Warm: func(ctx context.Context) error {
			calls.Add(1)
			return nil
		}},
		{Name: "workers", Warm: func(ctx context.Context) error {
			calls.Add(1)
			return nil
		}},
	}

	r := New(Config{Interval: time.Hour, Concurrency: 2}, warmers, testLogger())
	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer r.Stop(context.Background())

	deadline := time.After(2 * time.Second)
	for r.Runs() == 0 {
		select {
		case <-deadline:
			t.Fatal("no warm pass completed")
		case <-time.After(10 * time.Millisecond):
		}
	}

	if got := calls.Load(); got != 2 {
		t.Errorf("warmers called %d times, want 2", got)
	}
}

func TestRefresherRunsOnInterval(t *testing.T) {
	var calls atomic.Int32

	warmers := []Warmer{
		{Name: "stats", Warm: func(ctx context.Context) error {
			calls.Add(1)
			return nil
		}},
	}

	r := New(Config{Interval: 20 * time.Millisecond, Concurrency: 1}, warmers, testLogger())
	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer r.Stop(context.Background())

	deadline := time.After(2 * time.Second)
	for r.Runs() < 3 {
		select {
		case <-deadline:
			t.Fatalf("only %d passes completed", r.Runs())
		case <-time.After(10 * time.Millisecond):
		}
	}

	if calls.Load() < 3 {
		t.Errorf("warmer called %d times, want >= 3", calls.Load())
	}
}

func TestRefresherCountsErrors(t *testing.T) {
	warmers := []Warmer{
		{Name: "broken", Warm: func(ctx context.Context) error {
			return errors.New("backend down")
		}},
	}

	r := New(Config{Interval: time.Hour, Concurrency: 1}, warmers, testLogger())
	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer r.Stop(context.Background())

	deadline := time.After(2 * time.Second)
	for r.Errors() == 0 {
		select {
		case <-deadline:
			t.Fatal("no warmer error recorded")
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestRefresherStop(t *testing.T) {
	r := New(Config{Interval: time.Hour, Concurrency: 1}, nil, testLogger())
	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := r.Stop(ctx); err != nil {
		t.Errorf("Stop: %v", err)
	}
}
