package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tofscope/tofscope/internal/config"
	"github.com/tofscope/tofscope/internal/domain"
	"github.com/tofscope/tofscope/internal/geometry"
	"github.com/tofscope/tofscope/internal/physics"
	"github.com/tofscope/tofscope/internal/sink"
	"github.com/tofscope/tofscope/internal/testutil"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Detector: geometry.DefaultDetectorParams(),
		Physics: config.PhysicsConfig{
			SpeedOfLight: physics.SpeedOfLight,
			RestMassMeV:  physics.ProtonMass,
		},
		Output: config.OutputConfig{
			MomentumLog: filepath.Join(t.TempDir(), "out", "momentum.txt"),
		},
	}
}

func TestNew_WithoutStores(t *testing.T) {
	cfg := testConfig(t)

	a, err := New(context.Background(), cfg, zap.NewNop(), "test")
	require.NoError(t, err)

	assert.Nil(t, a.DB.Postgres)
	assert.Nil(t, a.DB.ClickHouse)
	assert.Nil(t, a.DB.Redis)
	assert.Nil(t, a.Archive)
	assert.Len(t, a.Detector.Layers, cfg.Detector.LayerCount)

	ctx := context.Background()
	r, err := a.Runs.Create(ctx, &domain.RunInput{Name: "local"})
	require.NoError(t, err)

	_, err = a.Events.Process(ctx, r.ID, testutil.TwoHitEvent(1))
	require.NoError(t, err)

	done, err := a.Runs.Complete(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), done.Stats.MomentumCount)

	require.NoError(t, a.Close())

	f, err := os.Open(cfg.Output.MomentumLog)
	require.NoError(t, err)
	defer f.Close()
	values, err := sink.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, []float64{testutil.TwoHitMomentum}, values)
}

func TestNew_InvalidDetector(t *testing.T) {
	cfg := testConfig(t)
	cfg.Detector.LayerCount = 0

	_, err := New(context.Background(), cfg, zap.NewNop(), "test")
	assert.Error(t, err)
}
