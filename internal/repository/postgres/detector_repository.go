package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/tofscope/tofscope/internal/domain"
	apperrors "github.com/tofscope/tofscope/internal/pkg/errors"
)

// DetectorRepository stores the detector snapshot of each run
type DetectorRepository struct {
	db *sqlx.DB
}

// NewDetectorRepository creates a new detector repository
func NewDetectorRepository(db *sqlx.DB) *DetectorRepository {
	return &DetectorRepository{db: db}
}

// Save inserts or replaces the snapshot of a run
func (r *DetectorRepository) Save(ctx context.Context, snap *domain.DetectorSnapshot) error {
	query := `
		INSERT INTO detector_snapshots (
			run_id, layer_count, layer_material, layer_z, materials, params, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (run_id) DO UPDATE SET
			layer_count = EXCLUDED.layer_count,
			layer_material = EXCLUDED.layer_material,
			layer_z = EXCLUDED.layer_z,
			materials = EXCLUDED.materials,
			params = EXCLUDED.params`

	_, err := r.db.ExecContext(ctx, query,
		snap.RunID,
		snap.LayerCount,
		snap.LayerMaterial,
		pq.Array(snap.LayerZ),
		pq.Array(snap.Materials),
		[]byte(snap.Params),
		snap.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save detector snapshot: %w", err)
	}
	return nil
}

// GetByRunID retrieves the snapshot of a run
func (r *DetectorRepository) GetByRunID(ctx context.Context, runID uuid.UUID) (*domain.DetectorSnapshot, error) {
	var snap domain.DetectorSnapshot
	var layerZ pq.Float64Array
	var materials pq.StringArray
	var params []byte

	query := `
		SELECT run_id, layer_count, layer_material, layer_z, materials, params, created_at
		FROM detector_snapshots
		WHERE run_id = $1`

	err := r.db.QueryRowxContext(ctx, query, runID).Scan(
		&snap.RunID, &snap.LayerCount, &snap.LayerMaterial,
		&layerZ, &materials, &params, &snap.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("detector snapshot")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get detector snapshot: %w", err)
	}

	snap.LayerZ = layerZ
	snap.Materials = materials
	snap.Params = params
	return &snap, nil
}

// ListByMaterial returns the run IDs whose tracker layers use the given material
func (r *DetectorRepository) ListByMaterial(ctx context.Context, material string) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	query := `SELECT run_id FROM detector_snapshots WHERE $1 = ANY(materials) ORDER BY created_at DESC`
	if err := r.db.SelectContext(ctx, &ids, query, material); err != nil {
		return nil, fmt.Errorf("failed to list detector snapshots: %w", err)
	}
	return ids, nil
}
