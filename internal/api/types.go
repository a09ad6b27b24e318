package api

import "github.com/queuepulse/queuepulse/internal/model"

// ListTasksOptions filters the task listing endpoint.
type ListTasksOptions struct {
	Queue  string
	Status model.TaskStatus
	Limit  int
	Offset int
}

// TasksResponse is the /api/tasks response envelope.
type TasksResponse struct {
	Tasks []model.Task `json:"tasks"`
	Total int          `json:"total"`
}

// SingleTaskResponse is the /api/tasks/{id} response envelope.
type SingleTaskResponse struct {
	Task model.Task `json:"task"`
}

// WorkersResponse is the /api/workers response envelope.
type WorkersResponse struct {
	Workers []model.Worker `json:"workers"`
}

// QueuesResponse is the /api/queues response envelope.
type QueuesResponse struct {
	Queues []model.QueueInfo `json:"queues"`
}

// StatsResponse is the /api/stats response envelope.
type StatsResponse struct {
	Stats model.DashboardStats `json:"stats"`
}

// MetricsResponse is the /api/metrics response envelope.
type MetricsResponse struct {
	Metrics []model.MetricsSnapshot `json:"metrics"`
}
