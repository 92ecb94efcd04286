package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tofscope/tofscope/internal/domain"
	"github.com/tofscope/tofscope/internal/geometry"
	apperrors "github.com/tofscope/tofscope/internal/pkg/errors"
	"github.com/tofscope/tofscope/internal/repository/memory"
	"github.com/tofscope/tofscope/internal/run"
	"github.com/tofscope/tofscope/internal/testutil"
)

type stubArchiver struct {
	object string
	err    error
	calls  []uuid.UUID
}

func (a *stubArchiver) Archive(ctx context.Context, runID uuid.UUID) (string, error) {
	a.calls = append(a.calls, runID)
	return a.object, a.err
}

func TestRunService_Create(t *testing.T) {
	det, err := geometry.NewBuilder(geometry.DefaultDetectorParams(), zap.NewNop()).Build()
	require.NoError(t, err)

	runs := memory.NewRunRepository()
	detectors := new(testutil.MockDetectorRepository)
	reg := run.NewRegistry()

	svc := NewRunService(zap.NewNop(), runs, reg, RunServiceConfig{
		Detectors: detectors,
		Detector:  det,
	})

	detectors.On("Save", mock.Anything, mock.MatchedBy(func(s *domain.DetectorSnapshot) bool {
		return s.LayerCount == 7 && s.LayerMaterial == "G4_Si"
	})).Return(nil).Once()

	r, err := svc.Create(context.Background(), &domain.RunInput{Name: "calibration"})
	require.NoError(t, err)

	assert.Equal(t, "calibration", r.Name)
	assert.Equal(t, domain.RunStatusRunning, r.Status)
	_, ok := reg.Lookup(r.ID)
	assert.True(t, ok, "aggregator must exist for a new run")
	detectors.AssertExpectations(t)

	_, err = svc.Create(context.Background(), &domain.RunInput{})
	assert.True(t, apperrors.IsValidation(err))
}

func TestRunService_GetUsesLiveStats(t *testing.T) {
	runs := memory.NewRunRepository()
	reg := run.NewRegistry()
	svc := NewRunService(zap.NewNop(), runs, reg, RunServiceConfig{})

	r, err := svc.Create(context.Background(), &domain.RunInput{Name: "live"})
	require.NoError(t, err)

	reg.Get(r.ID).Add(domain.EventResult{Energy: 3})

	got, err := svc.Get(context.Background(), r.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Stats.Events)
	assert.InDelta(t, 3.0, got.Stats.MeanEnergy, 1e-12)
}

func TestRunService_GetPrefersCounters(t *testing.T) {
	runs := memory.NewRunRepository()
	counters := new(testutil.MockRunCounters)
	reg := run.NewRegistry()
	svc := NewRunService(zap.NewNop(), runs, reg, RunServiceConfig{Counters: counters})

	r, err := svc.Create(context.Background(), &domain.RunInput{Name: "shared"})
	require.NoError(t, err)

	counters.On("Get", mock.Anything, r.ID).Return(domain.RunStats{Events: 42}, nil).Once()
	counters.On("Get", mock.Anything, r.ID).Return(domain.RunStats{}, errors.New("redis down")).Once()

	got, err := svc.Get(context.Background(), r.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(42), got.Stats.Events)

	reg.Get(r.ID).Add(domain.EventResult{Energy: 1})
	got, err = svc.Get(context.Background(), r.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Stats.Events)
}

func TestRunService_Complete(t *testing.T) {
	runs := memory.NewRunRepository()
	counters := new(testutil.MockRunCounters)
	reg := run.NewRegistry()
	svc := NewRunService(zap.NewNop(), runs, reg, RunServiceConfig{Counters: counters})
	ctx := context.Background()

	r, err := svc.Create(ctx, &domain.RunInput{Name: "complete"})
	require.NoError(t, err)

	stats := domain.RunStats{Events: 3, EnergySum: 12, EnergySumSquares: 56}
	counters.On("Get", mock.Anything, mock.Anything).Return(stats, nil)
	counters.On("Delete", mock.Anything, r.ID).Return(nil).Once()

	done, err := svc.Complete(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RunStatusCompleted, done.Status)
	assert.InDelta(t, 4.0, done.Stats.MeanEnergy, 1e-12)
	assert.InDelta(t, 1.632993161855452, done.Stats.RMSEnergy, 1e-9)

	_, ok := reg.Lookup(r.ID)
	assert.False(t, ok, "aggregator must be released")
	counters.AssertExpectations(t)

	_, err = svc.Complete(ctx, r.ID)
	assert.True(t, apperrors.IsConflict(err))

	_, err = svc.Fail(ctx, uuid.New(), "lost")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestRunService_Fail(t *testing.T) {
	runs := new(testutil.MockRunRepository)
	reg := run.NewRegistry()
	svc := NewRunService(zap.NewNop(), runs, reg, RunServiceConfig{})
	id := uuid.New()

	failed := testutil.NewTestRun()
	failed.ID = id
	failed.Status = domain.RunStatusFailed
	runs.On("Finish", mock.Anything, id, domain.RunStatusFailed, domain.RunStats{}, "host crashed").
		Return(failed, nil).Once()

	got, err := svc.Fail(context.Background(), id, "host crashed")
	require.NoError(t, err)
	assert.Equal(t, domain.RunStatusFailed, got.Status)
	runs.AssertExpectations(t)
}

func TestRunService_OptionalStores(t *testing.T) {
	svc := NewRunService(zap.NewNop(), memory.NewRunRepository(), run.NewRegistry(), RunServiceConfig{})
	ctx := context.Background()
	id := uuid.New()

	_, err := svc.Events(ctx, id, 10, 0)
	assert.Equal(t, 503, apperrors.GetStatusCode(err))

	_, err = svc.MomentumStats(ctx, id)
	assert.Equal(t, 503, apperrors.GetStatusCode(err))

	_, err = svc.Detector(ctx, id)
	assert.Equal(t, 503, apperrors.GetStatusCode(err))

	_, err = svc.Archive(ctx, id)
	assert.Equal(t, 503, apperrors.GetStatusCode(err))
}

func TestRunService_Archive(t *testing.T) {
	archiver := &stubArchiver{object: "runs/x/momentum.txt"}
	svc := NewRunService(zap.NewNop(), memory.NewRunRepository(), run.NewRegistry(), RunServiceConfig{
		Archiver: archiver,
	})
	ctx := context.Background()

	r, err := svc.Create(ctx, &domain.RunInput{Name: "archive"})
	require.NoError(t, err)

	object, err := svc.Archive(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, "runs/x/momentum.txt", object)
	assert.Equal(t, []uuid.UUID{r.ID}, archiver.calls)

	_, err = svc.Archive(ctx, uuid.New())
	assert.True(t, apperrors.IsNotFound(err))
}

func TestRunService_Events(t *testing.T) {
	events := new(testutil.MockEventRepository)
	svc := NewRunService(zap.NewNop(), memory.NewRunRepository(), run.NewRegistry(), RunServiceConfig{
		Events: events,
	})
	ctx := context.Background()

	r, err := svc.Create(ctx, &domain.RunInput{Name: "events"})
	require.NoError(t, err)

	stored := []domain.EventSummary{*domain.NewEventSummary(r.ID, 1, domain.EventResult{Energy: 1})}
	events.On("ListByRun", mock.Anything, r.ID, 10, 0).Return(stored, nil).Once()

	got, err := svc.Events(ctx, r.ID, 10, 0)
	require.NoError(t, err)
	assert.Len(t, got, 1)
	events.AssertExpectations(t)
}

func TestRunService_RequireRunning(t *testing.T) {
	runs := memory.NewRunRepository()
	svc := NewRunService(zap.NewNop(), runs, run.NewRegistry(), RunServiceConfig{})
	ctx := context.Background()

	r, err := svc.Create(ctx, &domain.RunInput{Name: "guard"})
	require.NoError(t, err)
	assert.NoError(t, svc.RequireRunning(ctx, r.ID))

	_, err = svc.Fail(ctx, r.ID, "aborted")
	require.NoError(t, err)
	assert.True(t, apperrors.IsConflict(svc.RequireRunning(ctx, r.ID)))
	assert.True(t, apperrors.IsNotFound(svc.RequireRunning(ctx, uuid.New())))
}
