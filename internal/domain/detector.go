package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// DetectorSnapshot records the geometry a run was simulated with
type DetectorSnapshot struct {
	RunID         uuid.UUID       `json:"runId" db:"run_id"`
	LayerCount    int             `json:"layerCount" db:"layer_count"`
	LayerMaterial string          `json:"layerMaterial" db:"layer_material"`
	LayerZ        []float64       `json:"layerZ" db:"layer_z"`
	Materials     []string        `json:"materials" db:"materials"`
	Params        json.RawMessage `json:"params" db:"params"`
	CreatedAt     time.Time       `json:"createdAt" db:"created_at"`
}
