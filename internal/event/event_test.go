package event

import (
	"testing"
	"time"
)

func TestParse(t *testing.T) {
	t.Run("valid envelope", func(t *testing.T) {
		raw := []byte(`{"type":"task_completed","data":{"task":{"name":"send-email"}},"timestamp":"2026-03-01T12:00:00Z"}`)

		msg, err := Parse(raw)
		if err != nil {
			t.Fatalf("Parse failed: %v", err)
		}
		if msg.Type != TypeTaskCompleted {
			t.Errorf("Type = %q, want %q", msg.Type, TypeTaskCompleted)
		}
		if msg.Timestamp != "2026-03-01T12:00:00Z" {
			t.Errorf("Timestamp = %q, want 2026-03-01T12:00:00Z", msg.Timestamp)
		}

		ts, err := msg.Time()
		if err != nil {
			t.Fatalf("Time failed: %v", err)
		}
		want := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
		if !ts.Equal(want) {
			t.Errorf("Time = %v, want %v", ts, want)
		}
	})

	t.Run("malformed JSON", func(t *testing.T) {
		if _, err := Parse([]byte(`{"type":"task_com`)); err == nil {
			t.Error("expected error for truncated JSON")
		}
	})

	t.Run("unknown type preserved", func(t *testing.T) {
		msg, err := Parse([]byte(`{"type":"schema_migrated","data":{},"timestamp":"2026-03-01T12:00:00Z"}`))
		if err != nil {
			t.Fatalf("Parse failed: %v", err)
		}
		if msg.Type != Type("schema_migrated") {
			t.Errorf("Type = %q, want schema_migrated", msg.Type)
		}
		if msg.Type.Category() != CategoryUnknown {
			t.Errorf("Category = %q, want %q", msg.Type.Category(), CategoryUnknown)
		}
	})
}

func TestTypeCategory(t *testing.T) {
	tests := []struct {
		typ  Type
		want Category
	}{
		{TypeTaskEnqueued, CategoryTask},
		{TypeTaskStarted, CategoryTask},
		{TypeTaskCompleted, CategoryTask},
		{TypeTaskFailed, CategoryTask},
		{TypeTaskUpdated, CategoryTask},
		{TypeWorkerStarted, CategoryWorker},
		{TypeWorkerUpdated, CategoryWorker},
		{TypeWorkerStopped, CategoryWorker},
		{TypeQueueUpdated, CategoryQueue},
		{TypeMetricsUpdated, CategoryMetrics},
		{Type("future_event"), CategoryUnknown},
		{Type(""), CategoryUnknown},
	}

	for _, tt := range tests {
		if got := tt.typ.Category(); got != tt.want {
			t.Errorf("Category(%q) = %q, want %q", tt.typ, got, tt.want)
		}
	}
}

func TestDecodePayloads(t *testing.T) {
	t.Run("task payload", func(t *testing.T) {
		msg, err := Parse([]byte(`{
			"type": "task_failed",
			"data": {"task": {"name": "resize-image", "queue": "media", "status": "failed", "attempts": 3}, "queue": "media"},
			"timestamp": "2026-03-01T12:00:00Z"
		}`))
		if err != nil {
			t.Fatalf("Parse failed: %v", err)
		}

		p, err := msg.DecodeTask()
		if err != nil {
			t.Fatalf("DecodeTask failed: %v", err)
		}
		if p.Task.Name != "resize-image" {
			t.Errorf("Task.Name = %q, want resize-image", p.Task.Name)
		}
		if p.Task.Attempts != 3 {
			t.Errorf("Task.Attempts = %d, want 3", p.Task.Attempts)
		}
		if p.Queue != "media" {
			t.Errorf("Queue = %q, want media", p.Queue)
		}
	})

	t.Run("worker payload", func(t *testing.T) {
		msg, err := Parse([]byte(`{
			"type": "worker_updated",
			"data": {"worker": {"hostname": "worker-03", "status": "busy", "active_tasks": 4}},
			"timestamp": "2026-03-01T12:00:00Z"
		}`))
		if err != nil {
			t.Fatalf("Parse failed: %v", err)
		}

		p, err := msg.DecodeWorker()
		if err != nil {
			t.Fatalf("DecodeWorker failed: %v", err)
		}
		if p.Worker.Hostname != "worker-03" {
			t.Errorf("Worker.Hostname = %q, want worker-03", p.Worker.Hostname)
		}
		if p.Worker.ActiveTasks != 4 {
			t.Errorf("Worker.ActiveTasks = %d, want 4", p.Worker.ActiveTasks)
		}
	})

	t.Run("mismatched payload returns error", func(t *testing.T) {
		msg := Message{Type: TypeQueueUpdated, Data: []byte(`"not an object"`)}
		if _, err := msg.DecodeQueue(); err == nil {
			t.Error("expected error for non-object payload")
		}
	})
}
