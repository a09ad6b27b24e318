package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/google/uuid"

	"github.com/queuepulse/queuepulse/internal/model"
)

// ListTasks fetches a page of tasks.
func (c *Client) ListTasks(ctx context.Context, opts ListTasksOptions) (*TasksResponse, error) {
	query := url.Values{}

	if opts.Queue != "" {
		query.Set("queue", opts.Queue)
	}
	if opts.Status != "" {
		query.Set("status", string(opts.Status))
	}
	if opts.Limit > 0 {
		query.Set("limit", strconv.Itoa(opts.Limit))
	}
	if opts.Offset > 0 {
		query.Set("offset", strconv.Itoa(opts.Offset))
	}

	var resp TasksResponse
	if err := c.get(ctx, "/api/tasks", query, &resp); err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}

	return &resp, nil
}

// GetTask fetches a single task by ID.
func (c *Client) GetTask(ctx context.Context, id uuid.UUID) (*model.Task, error) {
	var resp SingleTaskResponse
	if err := c.get(ctx, "/api/tasks/"+id.String(), nil, &resp); err != nil {
		return nil, fmt.Errorf("get task %s: %w", id, err)
	}
	return &resp.Task, nil
}

// ListWorkers fetches all registered workers.
func (c *Client) ListWorkers(ctx context.Context) ([]model.Worker, error) {
	var resp WorkersResponse
	if err := c.get(ctx, "/api/workers", nil, &resp); err != nil {
		return nil, fmt.Errorf("list workers: %w", err)
	}
	return resp.Workers, nil
}

// ListQueues fetches depth and throughput counters for all queues.
func (c *Client) ListQueues(ctx context.Context) ([]model.QueueInfo, error) {
	var resp QueuesResponse
	if err := c.get(ctx, "/api/queues", nil, &resp); err != nil {
		return nil, fmt.Errorf("list queues: %w", err)
	}
	return resp.Queues, nil
}

// GetDashboardStats fetches the dashboard overview numbers.
func (c *Client) GetDashboardStats(ctx context.Context) (*model.DashboardStats, error) {
	var resp StatsResponse
	if err := c.get(ctx, "/api/stats", nil, &resp); err != nil {
		return nil, fmt.Errorf("get dashboard stats: %w", err)
	}
	return &resp.Stats, nil
}

// GetMetrics fetches recent time-series samples for charting. window is a
// server-interpreted duration string such as "1h"; empty uses the server
// default.
func (c *Client) GetMetrics(ctx context.Context, window string) ([]model.MetricsSnapshot, error) {
	query := url.Values{}
	if window != "" {
		query.Set("window", window)
	}

	var resp MetricsResponse
	if err := c.get(ctx, "/api/metrics", query, &resp); err != nil {
		return nil, fmt.Errorf("get metrics: %w", err)
	}
	return resp.Metrics, nil
}
