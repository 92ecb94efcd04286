package worker

import (
	"context"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/tofscope/tofscope/internal/domain"
)

// EnqueueEvents queues one processing task per event and returns the task IDs.
// Events of a run share a queue so their momentum lines stay close together.
func EnqueueEvents(ctx context.Context, client Enqueuer, runID uuid.UUID, events []domain.EventInput) ([]string, error) {
	ids := make([]string, 0, len(events))
	for _, ev := range events {
		task, err := NewEventProcessTask(&EventProcessPayload{RunID: runID, Event: ev})
		if err != nil {
			return ids, err
		}
		info, err := client.EnqueueContext(ctx, task, asynq.Queue(QueueDefault))
		if err != nil {
			return ids, err
		}
		ids = append(ids, info.ID)
	}
	return ids, nil
}

// EnqueueRunArchive queues a momentum log upload for a run
func EnqueueRunArchive(ctx context.Context, client Enqueuer, runID uuid.UUID) (string, error) {
	task, err := NewRunArchiveTask(&RunArchivePayload{RunID: runID})
	if err != nil {
		return "", err
	}
	info, err := client.EnqueueContext(ctx, task, asynq.Queue(QueueLow))
	if err != nil {
		return "", err
	}
	return info.ID, nil
}
