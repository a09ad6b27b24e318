package refresh

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Warmer is one named cache-warming operation, typically a query.Service
// read that populates its key on a miss.
type Warmer struct {
	Name string
	Warm func(ctx context.Context) error
}

// Config holds refresher configuration.
type Config struct {
	Interval    time.Duration // Re-warm interval (default: 5m)
	Concurrency int           // Max concurrent warmers (default: 4)
	Timeout     time.Duration // Per-warmer timeout (default: 10s)
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Interval:    5 * time.Minute,
		Concurrency: 4,
		Timeout:     10 * time.Second,
	}
}

// Refresher runs the registered warmers on a schedule.
type Refresher struct {
	cfg     Config
	warmers []Warmer
	logger  *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	runs   atomic.Int64
	errors atomic.Int64
}

// New creates a new Refresher.
func New(cfg Config, warmers []Warmer, logger *slog.Logger) *Refresher {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = DefaultConfig().Concurrency
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}
	return &Refresher{
		cfg:     cfg,
		warmers: warmers,
		logger:  logger,
	}
}

// Start begins the refresh loop.
func (r *Refresher) Start(ctx context.Context) error {
	r.ctx, r.cancel = context.WithCancel(ctx)

	r.wg.Add(1)
	go r.run()

	r.logger.Info("cache refresher started",
		"interval", r.cfg.Interval,
		"concurrency", r.cfg.Concurrency,
		"warmers", len(r.warmers),
	)

	return nil
}

// Stop gracefully shuts down the refresher.
func (r *Refresher) Stop(ctx context.Context) error {
	if r.cancel != nil {
		r.cancel()
	}

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.logger.Info("cache refresher stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Runs returns how many full warm passes have completed.
func (r *Refresher) Runs() int64 { return r.runs.Load() }

// Errors returns how many individual warmers have failed.
func (r *Refresher) Errors() int64 { return r.errors.Load() }

// run is the main refresh loop.
func (r *Refresher) run() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	// Warm immediately on start.
	r.warmAll()

	for {
		select {
		case <-r.ctx.Done():
			return
		case <-ticker.C:
			r.warmAll()
		}
	}
}

// warmAll runs every warmer with bounded concurrency.
func (r *Refresher) warmAll() {
	start := time.Now()

	sem := make(chan struct{}, r.cfg.Concurrency)
	var wg sync.WaitGroup

	for _, w := range r.warmers {
		wg.Add(1)
		go func(w Warmer) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-r.ctx.Done():
				return
			}

			ctx, cancel := context.WithTimeout(r.ctx, r.cfg.Timeout)
			defer cancel()

			if err := w.Warm(ctx); err != nil {
				r.errors.Add(1)
				r.logger.Warn("cache warm failed",
					"warmer", w.Name,
					"error", err,
				)
			}
		}(w)
	}

	wg.Wait()
	r.runs.Add(1)

	r.logger.Debug("cache warm pass complete",
		"warmers", len(r.warmers),
		"duration", time.Since(start),
	)
}
