package event

import (
	"encoding/json"
	"fmt"

	"github.com/queuepulse/queuepulse/internal/model"
)

// TaskEvent is the payload for task lifecycle events.
type TaskEvent struct {
	Task  model.Task `json:"task"`
	Queue string     `json:"queue"`
}

// WorkerEvent is the payload for worker lifecycle events.
type WorkerEvent struct {
	Worker model.Worker `json:"worker"`
}

// QueueEvent is the payload for queue_updated events.
type QueueEvent struct {
	Queue model.QueueInfo `json:"queue"`
}

// MetricsEvent is the payload for metrics_updated events.
type MetricsEvent struct {
	Metrics model.MetricsSnapshot `json:"metrics"`
}

// DecodeTask decodes the payload of a task lifecycle message.
func (m Message) DecodeTask() (TaskEvent, error) {
	var p TaskEvent
	if err := json.Unmarshal(m.Data, &p); err != nil {
		return TaskEvent{}, fmt.Errorf("decode %s payload: %w", m.Type, err)
	}
	return p, nil
}

// DecodeWorker decodes the payload of a worker lifecycle message.
func (m Message) DecodeWorker() (WorkerEvent, error) {
	var p WorkerEvent
	if err := json.Unmarshal(m.Data, &p); err != nil {
		return WorkerEvent{}, fmt.Errorf("decode %s payload: %w", m.Type, err)
	}
	return p, nil
}

// DecodeQueue decodes the payload of a queue_updated message.
func (m Message) DecodeQueue() (QueueEvent, error) {
	var p QueueEvent
	if err := json.Unmarshal(m.Data, &p); err != nil {
		return QueueEvent{}, fmt.Errorf("decode %s payload: %w", m.Type, err)
	}
	return p, nil
}

// DecodeMetrics decodes the payload of a metrics_updated message.
func (m Message) DecodeMetrics() (MetricsEvent, error) {
	var p MetricsEvent
	if err := json.Unmarshal(m.Data, &p); err != nil {
		return MetricsEvent{}, fmt.Errorf("decode %s payload: %w", m.Type, err)
	}
	return p, nil
}
