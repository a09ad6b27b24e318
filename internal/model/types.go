package model

import (
	"time"

	"github.com/google/uuid"
)

// TaskStatus is the lifecycle state of a task.
type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "pending"
	TaskStatusRunning   TaskStatus = "running"
	TaskStatusCompleted TaskStatus = "completed"
	TaskStatusFailed    TaskStatus = "failed"
	TaskStatusCancelled TaskStatus = "cancelled"
)

// Terminal returns true if the status is a final state.
func (s TaskStatus) Terminal() bool {
	switch s {
	case TaskStatusCompleted, TaskStatusFailed, TaskStatusCancelled:
		return true
	}
	return false
}

// WorkerStatus is the lifecycle state of a worker process.
type WorkerStatus string

const (
	WorkerStatusIdle    WorkerStatus = "idle"
	WorkerStatusBusy    WorkerStatus = "busy"
	WorkerStatusStopped WorkerStatus = "stopped"
)

// Task is a unit of work tracked by the queue backend.
type Task struct {
	ID         uuid.UUID  `json:"id"`
	Name       string     `json:"name"`
	Queue      string     `json:"queue"`
	Status     TaskStatus `json:"status"`
	Attempts   int        `json:"attempts"`
	MaxRetries int        `json:"max_retries"`
	LastError  string     `json:"last_error,omitempty"`
	EnqueuedAt time.Time  `json:"enqueued_at"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// Worker is a queue consumer process.
type Worker struct {
	ID            uuid.UUID    `json:"id"`
	Hostname      string       `json:"hostname"`
	Status        WorkerStatus `json:"status"`
	Queues        []string     `json:"queues"`
	ActiveTasks   int          `json:"active_tasks"`
	Concurrency   int          `json:"concurrency"`
	StartedAt     time.Time    `json:"started_at"`
	LastHeartbeat time.Time    `json:"last_heartbeat"`
}

// QueueInfo holds depth and throughput counters for a single queue.
type QueueInfo struct {
	Name      string `json:"name"`
	Paused    bool   `json:"paused"`
	Pending   int64  `json:"pending"`
	Running   int64  `json:"running"`
	Completed int64  `json:"completed"`
	Failed    int64  `json:"failed"`
	Retried   int64  `json:"retried"`
}

// DashboardStats aggregates the overview numbers shown on the dashboard.
type DashboardStats struct {
	TasksPending   int64 `json:"tasks_pending"`
	TasksRunning   int64 `json:"tasks_running"`
	TasksCompleted int64 `json:"tasks_completed"`
	TasksFailed    int64 `json:"tasks_failed"`
	WorkersOnline  int   `json:"workers_online"`
	QueueCount     int   `json:"queue_count"`
}

// MetricsSnapshot is a single time-series sample for charting.
type MetricsSnapshot struct {
	Timestamp      time.Time `json:"timestamp"`
	EnqueueRate    float64   `json:"enqueue_rate"`
	CompletionRate float64   `json:"completion_rate"`
	FailureRate    float64   `json:"failure_rate"`
	AvgDurationMS  float64   `json:"avg_duration_ms"`
	QueueDepth     int64     `json:"queue_depth"`
}
