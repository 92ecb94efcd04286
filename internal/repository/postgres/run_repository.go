package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/tofscope/tofscope/internal/domain"
	"github.com/tofscope/tofscope/internal/pkg/database"
	apperrors "github.com/tofscope/tofscope/internal/pkg/errors"
)

// RunRepository handles run data operations in PostgreSQL
type RunRepository struct {
	db *database.PostgresDB
}

// NewRunRepository creates a new run repository
func NewRunRepository(db *database.PostgresDB) *RunRepository {
	return &RunRepository{db: db}
}

const runColumns = `id, name, status, events, energy_sum, energy_sum_squares,
	momentum_count, mean_momentum, undefined_momentum, message, started_at, completed_at`

// Create creates a new run
func (r *RunRepository) Create(ctx context.Context, run *domain.Run) error {
	query := `
		INSERT INTO runs (` + runColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.db.Pool.Exec(ctx, query,
		run.ID,
		run.Name,
		string(run.Status),
		run.Stats.Events,
		run.Stats.EnergySum,
		run.Stats.EnergySumSquares,
		run.Stats.MomentumCount,
		run.Stats.MeanMomentum,
		run.Stats.UndefinedMomentum,
		run.Message,
		run.StartedAt,
		run.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create run: %w", err)
	}

	return nil
}

// GetByID retrieves a run by ID
func (r *RunRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs WHERE id = $1`

	run, err := scanRun(r.db.Pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("run")
		}
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	return run, nil
}

// List returns the most recent runs
func (r *RunRepository) List(ctx context.Context, limit, offset int) ([]domain.Run, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT ` + runColumns + ` FROM runs ORDER BY started_at DESC, id DESC LIMIT $1 OFFSET $2`

	rows, err := r.db.Pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []domain.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, *run)
	}

	return runs, rows.Err()
}

// Finish stores the final statistics of a running run and moves it to status.
// A run that already left the running state is a conflict.
func (r *RunRepository) Finish(ctx context.Context, id uuid.UUID, status domain.RunStatus, stats domain.RunStats, message string) (*domain.Run, error) {
	query := `
		UPDATE runs
		SET status = $2, events = $3, energy_sum = $4, energy_sum_squares = $5,
			momentum_count = $6, mean_momentum = $7, undefined_momentum = $8,
			message = $9, completed_at = $10
		WHERE id = $1 AND status = 'running'
		RETURNING ` + runColumns

	run, err := scanRun(r.db.Pool.QueryRow(ctx, query,
		id,
		string(status),
		stats.Events,
		stats.EnergySum,
		stats.EnergySumSquares,
		stats.MomentumCount,
		stats.MeanMomentum,
		stats.UndefinedMomentum,
		message,
		time.Now().UTC(),
	))
	if err == nil {
		return run, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to finish run: %w", err)
	}

	// either missing or already finished
	existing, getErr := r.GetByID(ctx, id)
	if getErr != nil {
		return nil, getErr
	}
	return nil, apperrors.Conflict(fmt.Sprintf("run is already %s", existing.Status))
}

// Delete deletes a run and its detector snapshot
func (r *RunRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM runs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("run")
	}
	return nil
}

func scanRun(row pgx.Row) (*domain.Run, error) {
	var run domain.Run
	var status string
	err := row.Scan(
		&run.ID,
		&run.Name,
		&status,
		&run.Stats.Events,
		&run.Stats.EnergySum,
		&run.Stats.EnergySumSquares,
		&run.Stats.MomentumCount,
		&run.Stats.MeanMomentum,
		&run.Stats.UndefinedMomentum,
		&run.Message,
		&run.StartedAt,
		&run.CompletedAt,
	)
	if err != nil {
		return nil, err
	}

	run.Status = domain.RunStatus(status)
	run.Stats.Finalize()
	return &run, nil
}
