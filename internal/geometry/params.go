package geometry

import (
	"fmt"

	apperrors "github.com/tofscope/tofscope/internal/pkg/errors"
)

// DetectorParams describes the tracker to build. Lengths are in mm.
type DetectorParams struct {
	EnvelopeXY       float64 `mapstructure:"envelope_xy" yaml:"envelope_xy" json:"envelopeXY"`
	EnvelopeZ        float64 `mapstructure:"envelope_z" yaml:"envelope_z" json:"envelopeZ"`
	WorldFactor      float64 `mapstructure:"world_factor" yaml:"world_factor" json:"worldFactor"`
	WorldMaterial    string  `mapstructure:"world_material" yaml:"world_material" json:"worldMaterial"`
	EnvelopeMaterial string  `mapstructure:"envelope_material" yaml:"envelope_material" json:"envelopeMaterial"`
	LayerCount       int     `mapstructure:"layer_count" yaml:"layer_count" json:"layerCount"`
	LayerSizeX       float64 `mapstructure:"layer_size_x" yaml:"layer_size_x" json:"layerSizeX"`
	LayerSizeY       float64 `mapstructure:"layer_size_y" yaml:"layer_size_y" json:"layerSizeY"`
	LayerThickness   float64 `mapstructure:"layer_thickness" yaml:"layer_thickness" json:"layerThickness"`
	LayerSpacing     float64 `mapstructure:"layer_spacing" yaml:"layer_spacing" json:"layerSpacing"`
	LayerMaterial    string  `mapstructure:"layer_material" yaml:"layer_material" json:"layerMaterial"`
	CheckOverlaps    bool    `mapstructure:"check_overlaps" yaml:"check_overlaps" json:"checkOverlaps"`
}

// DefaultDetectorParams returns the reference tracker: seven 100 x 200 x 0.1 mm
// silicon layers spaced 300 mm apart in a 200 x 200 x 2200 mm vacuum envelope.
func DefaultDetectorParams() DetectorParams {
	return DetectorParams{
		EnvelopeXY:       200,
		EnvelopeZ:        2200,
		WorldFactor:      1.2,
		WorldMaterial:    "G4_Galactic",
		EnvelopeMaterial: "G4_Galactic",
		LayerCount:       7,
		LayerSizeX:       100,
		LayerSizeY:       200,
		LayerThickness:   0.1,
		LayerSpacing:     300,
		LayerMaterial:    "G4_Si",
		CheckOverlaps:    true,
	}
}

// Validate checks the parameters without building anything
func (p DetectorParams) Validate() error {
	positive := []struct {
		name  string
		value float64
	}{
		{"envelope_xy", p.EnvelopeXY},
		{"envelope_z", p.EnvelopeZ},
		{"layer_size_x", p.LayerSizeX},
		{"layer_size_y", p.LayerSizeY},
		{"layer_thickness", p.LayerThickness},
	}
	for _, f := range positive {
		if !(f.value > 0) {
			return apperrors.Configuration(fmt.Sprintf("%s must be positive", f.name)).
				WithDetail("value", fmt.Sprint(f.value))
		}
	}

	if p.LayerCount < 1 {
		return apperrors.Configuration("layer_count must be at least 1").
			WithDetail("value", fmt.Sprint(p.LayerCount))
	}
	if p.LayerCount > 1 && !(p.LayerSpacing > 0) {
		return apperrors.Configuration("layer_spacing must be positive").
			WithDetail("value", fmt.Sprint(p.LayerSpacing))
	}
	if !(p.WorldFactor > 1) {
		return apperrors.Configuration("world_factor must be greater than 1").
			WithDetail("value", fmt.Sprint(p.WorldFactor))
	}

	for _, name := range []string{p.WorldMaterial, p.EnvelopeMaterial, p.LayerMaterial} {
		if _, err := LookupMaterial(name); err != nil {
			return err
		}
	}
	return nil
}

// LayerZ returns the z center of layer i, relative to the envelope center
func (p DetectorParams) LayerZ(i int) float64 {
	return (float64(i) - 0.5*float64(p.LayerCount-1)) * p.LayerSpacing
}
