package api

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/queuepulse/queuepulse/internal/model"
)

func testClient(srv *httptest.Server, opts ...ClientOption) *Client {
	base := []ClientOption{
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithRetries(3, 10*time.Millisecond),
	}
	return NewClient(srv.URL, "test-token", append(base, opts...)...)
}

func TestListTasks(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tasks" {
			t.Errorf("path = %q, want /api/tasks", r.URL.Path)
		}
		if got := r.URL.Query().Get("queue"); got != "emails" {
			t.Errorf("queue param = %q, want emails", got)
		}
		if got := r.URL.Query().Get("status"); got != "failed" {
			t.Errorf("status param = %q, want failed", got)
		}
		if got := r.URL.Query().Get("limit"); got != "50" {
			t.Errorf("limit param = %q, want 50", got)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("Authorization = %q", got)
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"tasks": [
				{"id":"7f9c24e5-2e47-4e9a-a7b8-0a1c3d5e7f90","name":"send_email","queue":"emails","status":"failed","attempts":3}
			],
			"total": 1
		}`))
	}))
	defer srv.Close()

	client := testClient(srv)

	resp, err := client.ListTasks(context.Background(), ListTasksOptions{
		Queue:  "emails",
		Status: model.TaskStatusFailed,
		Limit:  50,
	})
	if err != nil {
		t.Fatalf("ListTasks: %v", err)
	}

	if resp.Total != 1 || len(resp.Tasks) != 1 {
		t.Fatalf("got %d tasks (total %d), want 1", len(resp.Tasks), resp.Total)
	}
	if resp.Tasks[0].Name != "send_email" {
		t.Errorf("task name = %q", resp.Tasks[0].Name)
	}
	if resp.Tasks[0].Status != model.TaskStatusFailed {
		t.Errorf("task status = %q", resp.Tasks[0].Status)
	}
}

func TestGetTask(t *testing.T) {
	id := uuid.MustParse("7f9c24e5-2e47-4e9a-a7b8-0a1c3d5e7f90")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if want := "/api/tasks/" + id.String(); r.URL.Path != want {
			t.Errorf("path = %q, want %q", r.URL.Path, want)
		}
		w.Write([]byte(`{"task":{"id":"7f9c24e5-2e47-4e9a-a7b8-0a1c3d5e7f90","name":"resize_image","queue":"media","status":"running"}}`))
	}))
	defer srv.Close()

	task, err := testClient(srv).GetTask(context.Background(), id)
	if err != nil {
		t.Fatalf("GetTask: %v", err)
	}
	if task.ID != id {
		t.Errorf("task ID = %s, want %s", task.ID, id)
	}
	if task.Status != model.TaskStatusRunning {
		t.Errorf("task status = %q", task.Status)
	}
}

func TestListWorkers(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"workers":[
			{"id":"05f2f0da-98ad-4d52-9f1e-6e7bb699dc5b","hostname":"worker-1","status":"busy","queues":["emails","media"],"active_tasks":4,"concurrency":8}
		]}`))
	}))
	defer srv.Close()

	workers, err := testClient(srv).ListWorkers(context.Background())
	if err != nil {
		t.Fatalf("ListWorkers: %v", err)
	}
	if len(workers) != 1 {
		t.Fatalf("got %d workers, want 1", len(workers))
	}
	if workers[0].Status != model.WorkerStatusBusy {
		t.Errorf("worker status = %q", workers[0].Status)
	}
	if len(workers[0].Queues) != 2 {
		t.Errorf("worker queues = %v", workers[0].Queues)
	}
}

func TestGetDashboardStats(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/stats" {
			t.Errorf("path = %q, want /api/stats", r.URL.Path)
		}
		w.Write([]byte(`{"stats":{"tasks_pending":12,"tasks_running":3,"workers_online":2,"queue_count":4}}`))
	}))
	defer srv.Close()

	stats, err := testClient(srv).GetDashboardStats(context.Background())
	if err != nil {
		t.Fatalf("GetDashboardStats: %v", err)
	}
	if stats.TasksPending != 12 || stats.WorkersOnline != 2 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestRetryOnServerError(t *testing.T) {
	var calls atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"queues":[]}`))
	}))
	defer srv.Close()

	if _, err := testClient(srv).ListQueues(context.Background()); err != nil {
		t.Fatalf("ListQueues: %v", err)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("server called %d times, want 3", got)
	}
}

func TestNoRetryOnClientError(t *testing.T) {
	var calls atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := testClient(srv).GetTask(context.Background(), uuid.New())
	if err == nil {
		t.Fatal("GetTask returned nil error for 404")
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error type %T, want *APIError", err)
	}
	if apiErr.StatusCode != http.StatusNotFound {
		t.Errorf("StatusCode = %d, want 404", apiErr.StatusCode)
	}
	if apiErr.IsRetryable() {
		t.Error("404 reported retryable")
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("server called %d times, want 1", got)
	}
}

func TestRetriesExhausted(t *testing.T) {
	var calls atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := testClient(srv, WithRetries(2, time.Millisecond)).ListWorkers(context.Background())
	if err == nil {
		t.Fatal("ListWorkers returned nil error after exhausting retries")
	}
	// Initial attempt plus two retries.
	if got := calls.Load(); got != 3 {
		t.Errorf("server called %d times, want 3", got)
	}
}

func TestRetryRespectsContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := testClient(srv, WithRetries(5, time.Hour))
	_, err := client.ListQueues(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}
