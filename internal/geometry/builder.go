// Package geometry builds the tracker geometry: a world box, a vacuum
// envelope and a stack of thin sensitive layers along z.
//
// Building validates every placement when overlap checking is enabled: a
// daughter must lie inside its mother and must not intersect a sibling that
// was placed before it.
package geometry

import (
	"fmt"
	"math"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/tofscope/tofscope/internal/domain"
	apperrors "github.com/tofscope/tofscope/internal/pkg/errors"
)

// tolerance absorbs rounding when faces touch
const tolerance = 1e-9

// Builder constructs a Detector from parameters
type Builder struct {
	params DetectorParams
	logger *zap.Logger

	placements []*domain.Placement
	daughters  map[*domain.Placement][]*domain.Placement
}

// NewBuilder creates a new builder
func NewBuilder(params DetectorParams, logger *zap.Logger) *Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{
		params: params,
		logger: logger,
	}
}

// Build validates the parameters and constructs the detector
func (b *Builder) Build() (*Detector, error) {
	p := b.params
	if err := p.Validate(); err != nil {
		return nil, err
	}

	b.placements = nil
	b.daughters = make(map[*domain.Placement][]*domain.Placement)

	worldMat, _ := LookupMaterial(p.WorldMaterial)
	envMat, _ := LookupMaterial(p.EnvelopeMaterial)
	layerMat, _ := LookupMaterial(p.LayerMaterial)

	worldLV := &domain.LogicalVolume{
		Name: WorldName,
		Solid: domain.Box{
			Name:  WorldName,
			HalfX: 0.5 * p.WorldFactor * p.EnvelopeXY,
			HalfY: 0.5 * p.WorldFactor * p.EnvelopeXY,
			HalfZ: 0.5 * p.WorldFactor * p.EnvelopeZ,
		},
		Material: worldMat,
	}
	world, err := b.place(WorldName, worldLV, r3.Vec{}, nil, 0)
	if err != nil {
		return nil, err
	}

	envLV := &domain.LogicalVolume{
		Name: EnvelopeName,
		Solid: domain.Box{
			Name:  EnvelopeName,
			HalfX: 0.5 * p.EnvelopeXY,
			HalfY: 0.5 * p.EnvelopeXY,
			HalfZ: 0.5 * p.EnvelopeZ,
		},
		Material: envMat,
	}
	envelope, err := b.place(EnvelopeName, envLV, r3.Vec{}, world, 0)
	if err != nil {
		return nil, err
	}

	// all layers share one logical volume; copy number tells them apart
	layerLV := &domain.LogicalVolume{
		Name: SensitiveVolumeName,
		Solid: domain.Box{
			Name:  SensitiveVolumeName,
			HalfX: 0.5 * p.LayerSizeX,
			HalfY: 0.5 * p.LayerSizeY,
			HalfZ: 0.5 * p.LayerThickness,
		},
		Material:  layerMat,
		Sensitive: true,
	}

	layers := make([]*domain.Placement, 0, p.LayerCount)
	for i := 0; i < p.LayerCount; i++ {
		layer, err := b.place(SensitiveVolumeName, layerLV, r3.Vec{Z: p.LayerZ(i)}, envelope, i)
		if err != nil {
			return nil, err
		}
		layers = append(layers, layer)
	}

	b.logger.Info("detector built",
		zap.Int("layers", len(layers)),
		zap.Float64("envelope_z", p.EnvelopeZ),
		zap.Float64("layer_spacing", p.LayerSpacing),
		zap.String("layer_material", layerMat.Name),
		zap.Bool("overlaps_checked", p.CheckOverlaps),
	)

	return &Detector{
		Params:     p,
		World:      world,
		Envelope:   envelope,
		Layers:     layers,
		Placements: b.placements,
	}, nil
}

func (b *Builder) place(name string, lv *domain.LogicalVolume, pos r3.Vec, mother *domain.Placement, copyNo int) (*domain.Placement, error) {
	pl := &domain.Placement{
		Name:     name,
		Logical:  lv,
		Position: pos,
		Mother:   mother,
		CopyNo:   copyNo,
	}

	if b.params.CheckOverlaps && mother != nil {
		if err := b.checkOverlaps(pl); err != nil {
			return nil, err
		}
	}

	b.placements = append(b.placements, pl)
	if mother != nil {
		b.daughters[mother] = append(b.daughters[mother], pl)
	}
	return pl, nil
}

func (b *Builder) checkOverlaps(pl *domain.Placement) error {
	mother := pl.Mother
	d := pl.Logical.Solid
	m := mother.Logical.Solid

	if !insideMother(pl.Position, d, m) {
		return apperrors.Configuration("placement extends outside its mother volume").
			WithDetail("volume", volumeID(pl)).
			WithDetail("mother", volumeID(mother))
	}

	for _, sibling := range b.daughters[mother] {
		if intersects(pl.Position, d, sibling.Position, sibling.Logical.Solid) {
			return apperrors.Configuration("placement overlaps a sibling volume").
				WithDetail("volume", volumeID(pl)).
				WithDetail("sibling", volumeID(sibling))
		}
	}
	return nil
}

// insideMother checks a daughter centered at pos (mother frame) against the mother's half lengths
func insideMother(pos r3.Vec, d, m domain.Box) bool {
	return math.Abs(pos.X)+d.HalfX <= m.HalfX+tolerance &&
		math.Abs(pos.Y)+d.HalfY <= m.HalfY+tolerance &&
		math.Abs(pos.Z)+d.HalfZ <= m.HalfZ+tolerance
}

// intersects reports whether two boxes share volume; touching faces do not count
func intersects(pa r3.Vec, a domain.Box, pb r3.Vec, b domain.Box) bool {
	return math.Abs(pa.X-pb.X) < a.HalfX+b.HalfX-tolerance &&
		math.Abs(pa.Y-pb.Y) < a.HalfY+b.HalfY-tolerance &&
		math.Abs(pa.Z-pb.Z) < a.HalfZ+b.HalfZ-tolerance
}

func volumeID(p *domain.Placement) string {
	return fmt.Sprintf("%s#%d", p.Name, p.CopyNo)
}
