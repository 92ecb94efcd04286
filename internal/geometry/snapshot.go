package geometry

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tofscope/tofscope/internal/domain"
)

// Snapshot captures the built detector for persistence alongside a run
func (d *Detector) Snapshot(runID uuid.UUID) (*domain.DetectorSnapshot, error) {
	params, err := json.Marshal(d.Params)
	if err != nil {
		return nil, fmt.Errorf("failed to encode detector params: %w", err)
	}

	seen := make(map[string]bool)
	var materials []string
	layerZ := make([]float64, 0, len(d.Layers))

	for _, p := range d.Placements {
		name := p.Logical.Material.Name
		if !seen[name] {
			seen[name] = true
			materials = append(materials, name)
		}
	}
	for _, l := range d.Layers {
		layerZ = append(layerZ, l.GlobalPosition().Z)
	}

	return &domain.DetectorSnapshot{
		RunID:         runID,
		LayerCount:    len(d.Layers),
		LayerMaterial: d.Params.LayerMaterial,
		LayerZ:        layerZ,
		Materials:     materials,
		Params:        params,
		CreatedAt:     time.Now().UTC(),
	}, nil
}
