// Package memory keeps runs in process memory. It backs the server and the
// CLI when PostgreSQL is disabled.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tofscope/tofscope/internal/domain"
	apperrors "github.com/tofscope/tofscope/internal/pkg/errors"
)

// RunRepository is a goroutine-safe in-memory run store
type RunRepository struct {
	mu   sync.RWMutex
	runs map[uuid.UUID]domain.Run
}

// NewRunRepository creates an empty run store
func NewRunRepository() *RunRepository {
	return &RunRepository{runs: make(map[uuid.UUID]domain.Run)}
}

// Create stores a new run
func (r *RunRepository) Create(ctx context.Context, run *domain.Run) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.runs[run.ID]; ok {
		return apperrors.Conflict("run already exists")
	}
	r.runs[run.ID] = *run
	return nil
}

// GetByID returns a copy of the run
func (r *RunRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Run, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	run, ok := r.runs[id]
	if !ok {
		return nil, apperrors.NotFound("run")
	}
	return &run, nil
}

// List returns runs newest first
func (r *RunRepository) List(ctx context.Context, limit, offset int) ([]domain.Run, error) {
	if limit <= 0 {
		limit = 50
	}

	r.mu.RLock()
	runs := make([]domain.Run, 0, len(r.runs))
	for _, run := range r.runs {
		runs = append(runs, run)
	}
	r.mu.RUnlock()

	sort.Slice(runs, func(i, j int) bool {
		if !runs[i].StartedAt.Equal(runs[j].StartedAt) {
			return runs[i].StartedAt.After(runs[j].StartedAt)
		}
		return runs[i].ID.String() > runs[j].ID.String()
	})

	if offset >= len(runs) {
		return []domain.Run{}, nil
	}
	runs = runs[offset:]
	if len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

// Finish moves a running run to its final status
func (r *RunRepository) Finish(ctx context.Context, id uuid.UUID, status domain.RunStatus, stats domain.RunStats, message string) (*domain.Run, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	run, ok := r.runs[id]
	if !ok {
		return nil, apperrors.NotFound("run")
	}
	if run.Status != domain.RunStatusRunning {
		return nil, apperrors.Conflict(fmt.Sprintf("run is already %s", run.Status))
	}

	now := time.Now().UTC()
	stats.Finalize()
	run.Status = status
	run.Stats = stats
	run.Message = message
	run.CompletedAt = &now
	r.runs[id] = run

	return &run, nil
}
