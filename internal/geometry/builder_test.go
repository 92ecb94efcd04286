package geometry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/tofscope/tofscope/internal/domain"
	apperrors "github.com/tofscope/tofscope/internal/pkg/errors"
)

func TestBuilder_DefaultDetector(t *testing.T) {
	det, err := NewBuilder(DefaultDetectorParams(), zap.NewNop()).Build()
	require.NoError(t, err)

	// world, envelope and seven layers
	require.Len(t, det.Placements, 9)
	require.Len(t, det.Layers, 7)

	world := det.World.Logical.Solid
	assert.InDelta(t, 120.0, world.HalfX, 1e-9)
	assert.InDelta(t, 120.0, world.HalfY, 1e-9)
	assert.InDelta(t, 1320.0, world.HalfZ, 1e-9)
	assert.Equal(t, "G4_Galactic", det.World.Logical.Material.Name)
	assert.Nil(t, det.World.Mother)

	env := det.Envelope
	assert.Equal(t, det.World, env.Mother)
	assert.Equal(t, 100.0, env.Logical.Solid.HalfX)
	assert.Equal(t, 1100.0, env.Logical.Solid.HalfZ)
	assert.False(t, env.Logical.Sensitive)

	expectedZ := []float64{-900, -600, -300, 0, 300, 600, 900}
	for i, layer := range det.Layers {
		assert.Equal(t, SensitiveVolumeName, layer.Name)
		assert.Equal(t, i, layer.CopyNo)
		assert.Equal(t, env, layer.Mother)
		assert.Equal(t, 2, layer.Depth())
		assert.True(t, layer.Logical.Sensitive)
		assert.Equal(t, "G4_Si", layer.Logical.Material.Name)
		assert.InDelta(t, expectedZ[i], layer.GlobalPosition().Z, 1e-9)
		assert.InDelta(t, 0.05, layer.Logical.Solid.HalfZ, 1e-12)
		assert.Equal(t, 50.0, layer.Logical.Solid.HalfX)
		assert.Equal(t, 100.0, layer.Logical.Solid.HalfY)
	}
}

func TestBuilder_SingleLayerCentered(t *testing.T) {
	params := DefaultDetectorParams()
	params.LayerCount = 1
	params.LayerSpacing = 0

	det, err := NewBuilder(params, nil).Build()
	require.NoError(t, err)
	require.Len(t, det.Layers, 1)
	assert.Equal(t, 0.0, det.Layers[0].Position.Z)
}

func TestBuilder_InvalidParams(t *testing.T) {
	tests := []struct {
		name   string
		modify func(p *DetectorParams)
	}{
		{name: "zero layers", modify: func(p *DetectorParams) { p.LayerCount = 0 }},
		{name: "negative envelope", modify: func(p *DetectorParams) { p.EnvelopeXY = -1 }},
		{name: "zero envelope z", modify: func(p *DetectorParams) { p.EnvelopeZ = 0 }},
		{name: "zero thickness", modify: func(p *DetectorParams) { p.LayerThickness = 0 }},
		{name: "world factor one", modify: func(p *DetectorParams) { p.WorldFactor = 1 }},
		{name: "zero spacing", modify: func(p *DetectorParams) { p.LayerSpacing = 0 }},
		{name: "unknown layer material", modify: func(p *DetectorParams) { p.LayerMaterial = "G4_Unobtainium" }},
		{name: "unknown world material", modify: func(p *DetectorParams) { p.WorldMaterial = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := DefaultDetectorParams()
			tt.modify(&params)

			det, err := NewBuilder(params, zap.NewNop()).Build()
			assert.Nil(t, det)
			require.Error(t, err)
			assert.True(t, apperrors.IsConfiguration(err))
		})
	}
}

func TestBuilder_OverlapChecks(t *testing.T) {
	tests := []struct {
		name   string
		modify func(p *DetectorParams)
		detail string
	}{
		{
			name:   "layers overlap each other",
			modify: func(p *DetectorParams) { p.LayerThickness = 400 },
			detail: "sibling",
		},
		{
			name:   "stack longer than envelope",
			modify: func(p *DetectorParams) { p.LayerSpacing = 500 },
			detail: "mother",
		},
		{
			name:   "layer wider than envelope",
			modify: func(p *DetectorParams) { p.LayerSizeY = 250 },
			detail: "mother",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := DefaultDetectorParams()
			tt.modify(&params)

			_, err := NewBuilder(params, zap.NewNop()).Build()
			require.Error(t, err)
			assert.True(t, apperrors.IsConfiguration(err))

			appErr := apperrors.GetAppError(err)
			require.NotNil(t, appErr)
			assert.Contains(t, appErr.Details, tt.detail)
		})
	}
}

func TestBuilder_OverlapCheckDisabled(t *testing.T) {
	params := DefaultDetectorParams()
	params.LayerSpacing = 500
	params.CheckOverlaps = false

	det, err := NewBuilder(params, zap.NewNop()).Build()
	require.NoError(t, err)
	assert.Len(t, det.Layers, 7)
}

func TestBuilder_TouchingFacesAllowed(t *testing.T) {
	params := DefaultDetectorParams()
	params.LayerCount = 2
	params.LayerSpacing = 10
	params.LayerThickness = 10

	_, err := NewBuilder(params, zap.NewNop()).Build()
	assert.NoError(t, err)
}

func TestDetectorParams_LayerZ(t *testing.T) {
	p := DefaultDetectorParams()
	assert.Equal(t, -900.0, p.LayerZ(0))
	assert.Equal(t, 0.0, p.LayerZ(3))
	assert.Equal(t, 900.0, p.LayerZ(6))

	p.LayerCount = 4
	assert.Equal(t, -450.0, p.LayerZ(0))
	assert.Equal(t, 450.0, p.LayerZ(3))
}

func TestDetector_LayerAt(t *testing.T) {
	det, err := NewBuilder(DefaultDetectorParams(), zap.NewNop()).Build()
	require.NoError(t, err)

	tests := []struct {
		name string
		pos  r3.Vec
		want int
	}{
		{name: "center of first layer", pos: r3.Vec{Z: -900}, want: 0},
		{name: "inside middle layer", pos: r3.Vec{X: 10, Y: -40, Z: 0.02}, want: 3},
		{name: "edge of last layer", pos: r3.Vec{X: 50, Y: 100, Z: 900.04}, want: 6},
		{name: "between layers", pos: r3.Vec{Z: 150}, want: domain.UnknownLayer},
		{name: "outside layer in x", pos: r3.Vec{X: 60, Z: 0}, want: domain.UnknownLayer},
		{name: "negative corner of first layer", pos: r3.Vec{X: -50, Y: -100, Z: -900.04}, want: 0},
		{name: "outside layer in negative x", pos: r3.Vec{X: -60, Z: 0}, want: domain.UnknownLayer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, det.LayerAt(tt.pos))
		})
	}

	assert.True(t, det.Contains(r3.Vec{Z: 1300}))
	assert.False(t, det.Contains(r3.Vec{Z: 1400}))

	layer, ok := det.Layer(2)
	require.True(t, ok)
	assert.Equal(t, 2, layer.CopyNo)

	_, ok = det.Layer(7)
	assert.False(t, ok)
}

func TestLookupMaterial(t *testing.T) {
	for _, name := range MaterialNames() {
		m, err := LookupMaterial(name)
		require.NoError(t, err)
		assert.Equal(t, name, m.Name)
		assert.Greater(t, m.Density, 0.0)
	}

	_, err := LookupMaterial("G4_KRYPTONITE")
	assert.True(t, apperrors.IsConfiguration(err))
	assert.Len(t, MaterialNames(), 9)
}
