package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tofscope/tofscope/internal/domain"
	"github.com/tofscope/tofscope/internal/pkg/database"
)

// EventRepository handles event summary storage in ClickHouse
type EventRepository struct {
	db     *database.ClickHouseDB
	logger *zap.Logger
}

// NewEventRepository creates a new event repository
func NewEventRepository(db *database.ClickHouseDB, logger *zap.Logger) *EventRepository {
	return &EventRepository{db: db, logger: logger}
}

const insertEventSummaries = `
	INSERT INTO event_summaries (
		id, run_id, event_number, energy, hit_count, momentum_status,
		momentum, reason, distance, time_of_flight, velocity, created_at
	)`

// Create inserts one event summary
func (r *EventRepository) Create(ctx context.Context, e *domain.EventSummary) error {
	query := insertEventSummaries + ` VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	return r.db.Exec(ctx, query,
		e.ID,
		e.RunID,
		e.EventNumber,
		e.Energy,
		e.HitCount,
		string(e.MomentumStatus),
		e.Momentum,
		string(e.Reason),
		e.Distance,
		e.TimeOfFlight,
		e.Velocity,
		e.CreatedAt,
	)
}

// CreateBatch inserts multiple event summaries
func (r *EventRepository) CreateBatch(ctx context.Context, events []*domain.EventSummary) error {
	if len(events) == 0 {
		return nil
	}

	batch, err := r.db.PrepareBatch(ctx, insertEventSummaries)
	if err != nil {
		return fmt.Errorf("failed to prepare batch: %w", err)
	}

	for _, e := range events {
		if err := batch.Append(
			e.ID,
			e.RunID,
			e.EventNumber,
			e.Energy,
			e.HitCount,
			string(e.MomentumStatus),
			e.Momentum,
			string(e.Reason),
			e.Distance,
			e.TimeOfFlight,
			e.Velocity,
			e.CreatedAt,
		); err != nil {
			return fmt.Errorf("failed to append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("failed to send batch: %w", err)
	}

	r.logger.Debug("inserted event summaries", zap.Int("count", len(events)))
	return nil
}

// eventRow mirrors the event_summaries columns with driver-native types
type eventRow struct {
	ID             uuid.UUID `ch:"id"`
	RunID          uuid.UUID `ch:"run_id"`
	EventNumber    int64     `ch:"event_number"`
	Energy         float64   `ch:"energy"`
	HitCount       uint32    `ch:"hit_count"`
	MomentumStatus string    `ch:"momentum_status"`
	Momentum       float64   `ch:"momentum"`
	Reason         string    `ch:"reason"`
	Distance       float64   `ch:"distance"`
	TimeOfFlight   float64   `ch:"time_of_flight"`
	Velocity       float64   `ch:"velocity"`
	CreatedAt      time.Time `ch:"created_at"`
}

func (row eventRow) toDomain() domain.EventSummary {
	return domain.EventSummary{
		ID:             row.ID,
		RunID:          row.RunID,
		EventNumber:    row.EventNumber,
		Energy:         row.Energy,
		HitCount:       row.HitCount,
		MomentumStatus: domain.MomentumStatus(row.MomentumStatus),
		Momentum:       row.Momentum,
		Reason:         domain.UndefinedReason(row.Reason),
		Distance:       row.Distance,
		TimeOfFlight:   row.TimeOfFlight,
		Velocity:       row.Velocity,
		CreatedAt:      row.CreatedAt,
	}
}

// ListByRun returns the event summaries of a run ordered by event number
func (r *EventRepository) ListByRun(ctx context.Context, runID uuid.UUID, limit, offset int) ([]domain.EventSummary, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT
			id, run_id, event_number, energy, hit_count, momentum_status,
			momentum, reason, distance, time_of_flight, velocity, created_at
		FROM event_summaries
		WHERE run_id = ?
		ORDER BY event_number ASC
		LIMIT ? OFFSET ?
	`

	var rows []eventRow
	if err := r.db.Select(ctx, &rows, query, runID, limit, offset); err != nil {
		return nil, fmt.Errorf("failed to list event summaries: %w", err)
	}

	events := make([]domain.EventSummary, 0, len(rows))
	for _, row := range rows {
		events = append(events, row.toDomain())
	}
	return events, nil
}

// MomentumStats aggregates the stored momentum estimates of a run
func (r *EventRepository) MomentumStats(ctx context.Context, runID uuid.UUID) (*domain.MomentumStats, error) {
	query := `
		SELECT
			count() AS events,
			countIf(momentum_status = 'ok') AS defined,
			countIf(momentum_status != 'ok') AS undefined,
			ifNotFinite(avgIf(momentum, momentum_status = 'ok'), 0) AS mean,
			minIf(momentum, momentum_status = 'ok') AS min,
			maxIf(momentum, momentum_status = 'ok') AS max
		FROM event_summaries
		WHERE run_id = ?
	`

	var stats domain.MomentumStats
	row := r.db.QueryRow(ctx, query, runID)
	if err := row.Scan(
		&stats.Events,
		&stats.Defined,
		&stats.Undefined,
		&stats.Mean,
		&stats.Min,
		&stats.Max,
	); err != nil {
		return nil, fmt.Errorf("failed to aggregate momentum: %w", err)
	}

	return &stats, nil
}

// DeleteByRun removes every event summary of a run
func (r *EventRepository) DeleteByRun(ctx context.Context, runID uuid.UUID) error {
	return r.db.Exec(ctx, `ALTER TABLE event_summaries DELETE WHERE run_id = ?`, runID)
}
