package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/tofscope/tofscope/internal/domain"
)

const (
	// TypeEventProcess runs one recorded event through an accumulator
	TypeEventProcess = "event:process"
	// TypeRunArchive uploads the momentum log for a run
	TypeRunArchive = "run:archive"
	// TypeLogSnapshot uploads a periodic snapshot of the momentum log
	TypeLogSnapshot = "log:snapshot"
)

// Queue names
const (
	QueueCritical = "critical"
	QueueDefault  = "default"
	QueueLow      = "low"
)

// EventProcessPayload is the payload for event processing tasks
type EventProcessPayload struct {
	RunID uuid.UUID         `json:"run_id"`
	Event domain.EventInput `json:"event"`
}

// NewEventProcessTask creates an event processing task
func NewEventProcessTask(payload *EventProcessPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event payload: %w", err)
	}
	return asynq.NewTask(TypeEventProcess, data, asynq.MaxRetry(3), asynq.Timeout(time.Minute)), nil
}

// RunArchivePayload is the payload for run archive tasks
type RunArchivePayload struct {
	RunID uuid.UUID `json:"run_id"`
}

// NewRunArchiveTask creates a run archive task
func NewRunArchiveTask(payload *RunArchivePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal archive payload: %w", err)
	}
	return asynq.NewTask(TypeRunArchive, data, asynq.MaxRetry(5), asynq.Timeout(10*time.Minute)), nil
}

// NewLogSnapshotTask creates a log snapshot task
func NewLogSnapshotTask() *asynq.Task {
	return asynq.NewTask(TypeLogSnapshot, []byte(`{}`), asynq.MaxRetry(1), asynq.Timeout(10*time.Minute))
}

// Enqueuer is the part of asynq.Client used to queue tasks
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}
