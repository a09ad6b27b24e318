package event

import (
	"encoding/json"
	"fmt"
	"time"
)

// Type is the wire tag identifying an event's kind.
type Type string

// Task lifecycle events.
const (
	TypeTaskEnqueued  Type = "task_enqueued"
	TypeTaskStarted   Type = "task_started"
	TypeTaskCompleted Type = "task_completed"
	TypeTaskFailed    Type = "task_failed"
	TypeTaskUpdated   Type = "task_updated"
)

// Worker lifecycle events.
const (
	TypeWorkerStarted Type = "worker_started"
	TypeWorkerUpdated Type = "worker_updated"
	TypeWorkerStopped Type = "worker_stopped"
)

// Queue and metrics events.
const (
	TypeQueueUpdated   Type = "queue_updated"
	TypeMetricsUpdated Type = "metrics_updated"
)

// Category groups event types by the dashboard resource they affect.
type Category string

const (
	CategoryTask    Category = "task"
	CategoryWorker  Category = "worker"
	CategoryQueue   Category = "queue"
	CategoryMetrics Category = "metrics"
	CategoryUnknown Category = "unknown"
)

// Category classifies the type tag. Unrecognized tags map to
// CategoryUnknown; the message is still delivered, it just carries no
// invalidation meaning.
func (t Type) Category() Category {
	switch t {
	case TypeTaskEnqueued, TypeTaskStarted, TypeTaskCompleted, TypeTaskFailed, TypeTaskUpdated:
		return CategoryTask
	case TypeWorkerStarted, TypeWorkerUpdated, TypeWorkerStopped:
		return CategoryWorker
	case TypeQueueUpdated:
		return CategoryQueue
	case TypeMetricsUpdated:
		return CategoryMetrics
	}
	return CategoryUnknown
}

// Message is the JSON envelope for a single pushed event.
//
// Data is kept raw: the payload shape depends on Type and is only decoded
// when a consumer asks for it. Timestamp is the server's ISO-8601 string,
// preserved verbatim (a malformed timestamp is not a reason to drop a frame).
type Message struct {
	Type      Type            `json:"type"`
	Data      json.RawMessage `json:"data"`
	Timestamp string          `json:"timestamp"`
}

// Time parses the server timestamp.
func (m Message) Time() (time.Time, error) {
	return time.Parse(time.RFC3339, m.Timestamp)
}

// Parse decodes a raw frame into a Message. The payload is not validated
// beyond JSON parseability of the envelope.
func Parse(data []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return Message{}, fmt.Errorf("parse event envelope: %w", err)
	}
	return msg, nil
}
