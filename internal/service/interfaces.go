package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/tofscope/tofscope/internal/domain"
)

// MomentumWriter appends defined momentum values to the durable log.
// Implementations must serialise concurrent callers.
type MomentumWriter interface {
	Append(ctx context.Context, momentum float64) error
}

// EventRepository defines the interface for event summary persistence.
// All methods must be safe for concurrent use.
type EventRepository interface {
	// Create persists one event summary.
	Create(ctx context.Context, e *domain.EventSummary) error
	// CreateBatch persists multiple summaries in a single operation.
	CreateBatch(ctx context.Context, events []*domain.EventSummary) error
	// ListByRun returns the summaries of a run ordered by event number.
	ListByRun(ctx context.Context, runID uuid.UUID, limit, offset int) ([]domain.EventSummary, error)
	// MomentumStats aggregates the stored momentum estimates of a run.
	MomentumStats(ctx context.Context, runID uuid.UUID) (*domain.MomentumStats, error)
}

// RunRepository defines the interface for run persistence
type RunRepository interface {
	Create(ctx context.Context, run *domain.Run) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Run, error)
	List(ctx context.Context, limit, offset int) ([]domain.Run, error)
	// Finish stores final statistics; it returns a conflict error when the run is no longer running.
	Finish(ctx context.Context, id uuid.UUID, status domain.RunStatus, stats domain.RunStats, message string) (*domain.Run, error)
}

// DetectorRepository stores the detector snapshot of each run
type DetectorRepository interface {
	Save(ctx context.Context, snap *domain.DetectorSnapshot) error
	GetByRunID(ctx context.Context, runID uuid.UUID) (*domain.DetectorSnapshot, error)
}

// RunCounters keeps live run statistics shared across processes
type RunCounters interface {
	Add(ctx context.Context, runID uuid.UUID, summary *domain.EventSummary) error
	Get(ctx context.Context, runID uuid.UUID) (domain.RunStats, error)
	Delete(ctx context.Context, runID uuid.UUID) error
}
