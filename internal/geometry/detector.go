package geometry

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/tofscope/tofscope/internal/domain"
)

// Volume names used by the builder
const (
	WorldName           = "World"
	EnvelopeName        = "Envelope"
	SensitiveVolumeName = "TrackerLayer"
)

// Detector is a built tracker geometry
type Detector struct {
	Params     DetectorParams
	World      *domain.Placement
	Envelope   *domain.Placement
	Layers     []*domain.Placement
	Placements []*domain.Placement
}

// Layer returns the tracker layer with the given copy number
func (d *Detector) Layer(copyNo int) (*domain.Placement, bool) {
	if copyNo < 0 || copyNo >= len(d.Layers) {
		return nil, false
	}
	return d.Layers[copyNo], true
}

// LayerAt returns the copy number of the tracker layer containing the
// world point pos, or domain.UnknownLayer when pos is outside every layer.
func (d *Detector) LayerAt(pos r3.Vec) int {
	for _, l := range d.Layers {
		if contains(l, pos) {
			return l.CopyNo
		}
	}
	return domain.UnknownLayer
}

// Contains reports whether the world point pos lies inside the world volume
func (d *Detector) Contains(pos r3.Vec) bool {
	return contains(d.World, pos)
}

func contains(p *domain.Placement, pos r3.Vec) bool {
	c := p.GlobalPosition()
	s := p.Logical.Solid
	return math.Abs(pos.X-c.X) <= s.HalfX &&
		math.Abs(pos.Y-c.Y) <= s.HalfY &&
		math.Abs(pos.Z-c.Z) <= s.HalfZ
}

// VolumeSummary is the exported form of one placement
type VolumeSummary struct {
	Name      string     `yaml:"name" json:"name"`
	CopyNo    int        `yaml:"copy_no" json:"copyNo"`
	Mother    string     `yaml:"mother,omitempty" json:"mother,omitempty"`
	Material  string     `yaml:"material" json:"material"`
	Density   float64    `yaml:"density" json:"density"`
	Sensitive bool       `yaml:"sensitive" json:"sensitive"`
	Size      [3]float64 `yaml:"size,flow" json:"size"`
	Center    [3]float64 `yaml:"center,flow" json:"center"`
}

// Summary is the exported form of a detector
type Summary struct {
	Params  DetectorParams  `yaml:"params" json:"params"`
	Volumes []VolumeSummary `yaml:"volumes" json:"volumes"`
}

// Summary exports the detector with full sizes and world-frame centers
func (d *Detector) Summary() Summary {
	out := Summary{
		Params:  d.Params,
		Volumes: make([]VolumeSummary, 0, len(d.Placements)),
	}
	for _, p := range d.Placements {
		s := p.Logical.Solid
		c := p.GlobalPosition()
		v := VolumeSummary{
			Name:      p.Name,
			CopyNo:    p.CopyNo,
			Material:  p.Logical.Material.Name,
			Density:   p.Logical.Material.Density,
			Sensitive: p.Logical.Sensitive,
			Size:      [3]float64{2 * s.HalfX, 2 * s.HalfY, 2 * s.HalfZ},
			Center:    [3]float64{c.X, c.Y, c.Z},
		}
		if p.Mother != nil {
			v.Mother = p.Mother.Name
		}
		out.Volumes = append(out.Volumes, v)
	}
	return out
}
