package domain

import (
	"gonum.org/v1/gonum/spatial/r3"
)

// MaterialState is the physical state of a material
type MaterialState string

const (
	MaterialStateSolid  MaterialState = "solid"
	MaterialStateGas    MaterialState = "gas"
	MaterialStateLiquid MaterialState = "liquid"
)

// Material is an entry of the material database
type Material struct {
	Name    string        `json:"name" yaml:"name"`
	Density float64       `json:"density" yaml:"density"` // g/cm3
	State   MaterialState `json:"state" yaml:"state"`
}

// Box is an axis-aligned box solid given by its half lengths in mm
type Box struct {
	Name  string  `json:"name" yaml:"name"`
	HalfX float64 `json:"halfX" yaml:"half_x"`
	HalfY float64 `json:"halfY" yaml:"half_y"`
	HalfZ float64 `json:"halfZ" yaml:"half_z"`
}

// LogicalVolume binds a solid to a material
type LogicalVolume struct {
	Name      string   `json:"name" yaml:"name"`
	Solid     Box      `json:"solid" yaml:"solid"`
	Material  Material `json:"material" yaml:"material"`
	Sensitive bool     `json:"sensitive" yaml:"sensitive"`
}

// Placement positions a logical volume inside its mother.
// Position is relative to the mother's center; there are no rotations.
type Placement struct {
	Name     string         `json:"name" yaml:"name"`
	Logical  *LogicalVolume `json:"logical" yaml:"logical"`
	Position r3.Vec         `json:"position" yaml:"-"`
	Mother   *Placement     `json:"-" yaml:"-"`
	CopyNo   int            `json:"copyNo" yaml:"copy_no"`
}

// Depth returns the nesting depth of the placement (world is 0)
func (p *Placement) Depth() int {
	d := 0
	for m := p.Mother; m != nil; m = m.Mother {
		d++
	}
	return d
}

// GlobalPosition returns the placement center in world coordinates
func (p *Placement) GlobalPosition() r3.Vec {
	pos := p.Position
	for m := p.Mother; m != nil; m = m.Mother {
		pos = r3.Add(pos, m.Position)
	}
	return pos
}
