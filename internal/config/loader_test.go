package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tofscope/tofscope/internal/geometry"
	apperrors "github.com/tofscope/tofscope/internal/pkg/errors"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Addr())
	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, geometry.DefaultDetectorParams(), cfg.Detector)
	assert.Equal(t, 299.0, cfg.Physics.SpeedOfLight)
	assert.Equal(t, 938.0, cfg.Physics.RestMassMeV)
	assert.Equal(t, "momentum.txt", cfg.Output.MomentumLog)
	assert.Equal(t, 4, cfg.Worker.EventWorkers)
	assert.False(t, cfg.Postgres.Enabled)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("TOFSCOPE_DETECTOR_LAYER_COUNT", "3")
	t.Setenv("TOFSCOPE_PHYSICS_SPEED_OF_LIGHT", "299.792458")
	t.Setenv("TOFSCOPE_OUTPUT_MOMENTUM_LOG", "/tmp/run/momentum.txt")
	t.Setenv("TOFSCOPE_SERVER_ENV", "production")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Detector.LayerCount)
	assert.Equal(t, 299.792458, cfg.Physics.SpeedOfLight)
	assert.Equal(t, "/tmp/run/momentum.txt", cfg.Output.MomentumLog)
	assert.True(t, cfg.IsProduction())
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tofscope.yaml")
	doc := `
detector:
  layer_count: 5
  layer_material: G4_Pb
physics:
  rest_mass_mev: 105.66
output:
  momentum_log: out/momentum.txt
  archive_every: 5m
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Detector.LayerCount)
	assert.Equal(t, "G4_Pb", cfg.Detector.LayerMaterial)
	assert.Equal(t, 300.0, cfg.Detector.LayerSpacing)
	assert.Equal(t, 105.66, cfg.Physics.RestMassMeV)
	assert.Equal(t, 105.66, cfg.Physics.Constants().RestMass)
	assert.Equal(t, "out/momentum.txt", cfg.Output.MomentumLog)
	assert.Equal(t, "5m0s", cfg.Output.ArchiveEvery.String())
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoad_InvalidDetector(t *testing.T) {
	t.Setenv("TOFSCOPE_DETECTOR_LAYER_COUNT", "0")

	_, err := Load()
	require.Error(t, err)
	assert.True(t, apperrors.IsConfiguration(err))
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Detector: geometry.DefaultDetectorParams(),
			Physics:  PhysicsConfig{SpeedOfLight: 299, RestMassMeV: 938},
			Output:   OutputConfig{MomentumLog: "momentum.txt"},
			Worker:   WorkerConfig{EventWorkers: 1},
		}
	}

	tests := []struct {
		name    string
		modify  func(c *Config)
		wantErr bool
	}{
		{name: "valid", modify: func(c *Config) {}},
		{name: "zero speed of light", modify: func(c *Config) { c.Physics.SpeedOfLight = 0 }, wantErr: true},
		{name: "negative mass", modify: func(c *Config) { c.Physics.RestMassMeV = -1 }, wantErr: true},
		{name: "no momentum log", modify: func(c *Config) { c.Output.MomentumLog = "" }, wantErr: true},
		{name: "no workers", modify: func(c *Config) { c.Worker.EventWorkers = 0 }, wantErr: true},
		{name: "minio without bucket", modify: func(c *Config) { c.MinIO.Enabled = true }, wantErr: true},
		{name: "negative ingest rate limit", modify: func(c *Config) { c.Server.IngestRateLimit = -1 }, wantErr: true},
		{name: "unknown material", modify: func(c *Config) { c.Detector.LayerMaterial = "G4_Xx" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.modify(cfg)
			err := validate(cfg)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
