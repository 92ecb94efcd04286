package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/tofscope/tofscope/internal/pkg/metrics"
)

// LogArchiver uploads the momentum log
type LogArchiver interface {
	Archive(ctx context.Context, runID uuid.UUID) (string, error)
	Snapshot(ctx context.Context) (string, error)
}

// ArchiveWorker handles momentum log uploads
type ArchiveWorker struct {
	archiver LogArchiver
	logger   *zap.Logger
}

// NewArchiveWorker creates a new archive worker
func NewArchiveWorker(logger *zap.Logger, archiver LogArchiver) *ArchiveWorker {
	return &ArchiveWorker{
		archiver: archiver,
		logger:   logger.Named("archive_worker"),
	}
}

// ProcessTask processes a run archive task
func (w *ArchiveWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload RunArchivePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		metrics.RecordTask(t.Type(), "invalid")
		return fmt.Errorf("failed to unmarshal archive payload: %v: %w", err, asynq.SkipRetry)
	}

	object, err := w.archiver.Archive(ctx, payload.RunID)
	if err != nil {
		metrics.RecordTask(t.Type(), "failed")
		return err
	}

	metrics.RecordTask(t.Type(), "ok")
	w.logger.Info("run archived",
		zap.String("run_id", payload.RunID.String()),
		zap.String("object", object),
	)
	return nil
}

// ProcessSnapshotTask processes a periodic log snapshot task
func (w *ArchiveWorker) ProcessSnapshotTask(ctx context.Context, t *asynq.Task) error {
	object, err := w.archiver.Snapshot(ctx)
	if err != nil {
		metrics.RecordTask(t.Type(), "failed")
		return err
	}
	metrics.RecordTask(t.Type(), "ok")
	w.logger.Info("momentum log snapshot stored", zap.String("object", object))
	return nil
}
