package query

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/queuepulse/queuepulse/internal/api"
	"github.com/queuepulse/queuepulse/internal/cache"
	"github.com/queuepulse/queuepulse/internal/invalidate"
	"github.com/queuepulse/queuepulse/internal/model"
)

// Backend is the subset of the REST client the service reads through.
type Backend interface {
	ListTasks(ctx context.Context, opts api.ListTasksOptions) (*api.TasksResponse, error)
	GetTask(ctx context.Context, id uuid.UUID) (*model.Task, error)
	ListWorkers(ctx context.Context) ([]model.Worker, error)
	ListQueues(ctx context.Context) ([]model.QueueInfo, error)
	GetDashboardStats(ctx context.Context) (*model.DashboardStats, error)
	GetMetrics(ctx context.Context, window string) ([]model.MetricsSnapshot, error)
}

// DefaultTTL bounds staleness when no invalidation event arrives, e.g.
// while the stream is reconnecting.
const DefaultTTL = 30 * time.Second

// Service serves dashboard reads from the cache, falling back to the
// backend on a miss.
type Service struct {
	backend Backend
	cache   *cache.Cache
	ttl     time.Duration
}

// NewService creates a cached read service.
func NewService(backend Backend, c *cache.Cache, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Service{
		backend: backend,
		cache:   c,
		ttl:     ttl,
	}
}

// Tasks returns a page of tasks for the given filter.
func (s *Service) Tasks(ctx context.Context, opts api.ListTasksOptions) (*api.TasksResponse, error) {
	key := cache.Key(invalidate.KeyTasks, "list",
		opts.Queue, string(opts.Status),
		strconv.Itoa(opts.Limit), strconv.Itoa(opts.Offset),
	)

	v, err := s.cache.Fetch(ctx, key, s.ttl, func(ctx context.Context) (any, error) {
		return s.backend.ListTasks(ctx, opts)
	})
	if err != nil {
		return nil, err
	}
	return v.(*api.TasksResponse), nil
}

// Task returns a single task by ID.
func (s *Service) Task(ctx context.Context, id uuid.UUID) (*model.Task, error) {
	key := cache.Key(invalidate.KeyTasks, "id", id.String())

	v, err := s.cache.Fetch(ctx, key, s.ttl, func(ctx context.Context) (any, error) {
		return s.backend.GetTask(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	return v.(*model.Task), nil
}

// Workers returns all registered workers.
func (s *Service) Workers(ctx context.Context) ([]model.Worker, error) {
	key := cache.Key(invalidate.KeyWorkers, "list")

	v, err := s.cache.Fetch(ctx, key, s.ttl, func(ctx context.Context) (any, error) {
		return s.backend.ListWorkers(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.([]model.Worker), nil
}

// Queues returns counters for all queues.
func (s *Service) Queues(ctx context.Context) ([]model.QueueInfo, error) {
	key := cache.Key(invalidate.KeyQueues, "list")

	v, err := s.cache.Fetch(ctx, key, s.ttl, func(ctx context.Context) (any, error) {
		return s.backend.ListQueues(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.([]model.QueueInfo), nil
}

// Dashboard returns the overview numbers.
func (s *Service) Dashboard(ctx context.Context) (*model.DashboardStats, error) {
	key := cache.Key(invalidate.KeyDashboard, "stats")

	v, err := s.cache.Fetch(ctx, key, s.ttl, func(ctx context.Context) (any, error) {
		return s.backend.GetDashboardStats(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.(*model.DashboardStats), nil
}

// Metrics returns recent time-series samples for the given window.
func (s *Service) Metrics(ctx context.Context, window string) ([]model.MetricsSnapshot, error) {
	key := cache.Key(invalidate.KeyMetrics, "window", window)

	v, err := s.cache.Fetch(ctx, key, s.ttl, func(ctx context.Context) (any, error) {
		return s.backend.GetMetrics(ctx, window)
	})
	if err != nil {
		return nil, err
	}
	return v.([]model.MetricsSnapshot), nil
}
