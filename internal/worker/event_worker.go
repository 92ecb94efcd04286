package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/tofscope/tofscope/internal/domain"
	"github.com/tofscope/tofscope/internal/pkg/metrics"
	"github.com/tofscope/tofscope/internal/validator"
)

// EventProcessor processes one recorded event
type EventProcessor interface {
	Process(ctx context.Context, runID uuid.UUID, in domain.EventInput) (*domain.EventSummary, error)
}

// EventWorker handles event processing tasks. Each task gets a fresh
// accumulator from the processor.
type EventWorker struct {
	events EventProcessor
	logger *zap.Logger
}

// NewEventWorker creates a new event worker
func NewEventWorker(logger *zap.Logger, events EventProcessor) *EventWorker {
	return &EventWorker{
		events: events,
		logger: logger.Named("event_worker"),
	}
}

// ProcessTask processes an event task. Malformed payloads are not retried.
func (w *EventWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload EventProcessPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		metrics.RecordTask(t.Type(), "invalid")
		return fmt.Errorf("failed to unmarshal event payload: %v: %w", err, asynq.SkipRetry)
	}
	if payload.RunID == uuid.Nil {
		metrics.RecordTask(t.Type(), "invalid")
		return fmt.Errorf("event payload has no run id: %w", asynq.SkipRetry)
	}
	if err := validator.Validate(payload.Event); err != nil {
		metrics.RecordTask(t.Type(), "invalid")
		return fmt.Errorf("invalid event %d: %v: %w", payload.Event.EventNumber, err, asynq.SkipRetry)
	}

	summary, err := w.events.Process(ctx, payload.RunID, payload.Event)
	if err != nil {
		metrics.RecordTask(t.Type(), "failed")
		return fmt.Errorf("failed to process event %d: %w", payload.Event.EventNumber, err)
	}

	metrics.RecordTask(t.Type(), "ok")
	w.logger.Debug("event processed",
		zap.String("run_id", payload.RunID.String()),
		zap.Int64("event", payload.Event.EventNumber),
		zap.String("momentum_status", string(summary.MomentumStatus)),
	)
	return nil
}

// IsPermanent reports whether a task error will not be retried
func IsPermanent(err error) bool {
	return errors.Is(err, asynq.SkipRetry)
}
