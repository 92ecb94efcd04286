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
	"github.com/tofscope/tofscope/internal/physics"
	apperrors "github.com/tofscope/tofscope/internal/pkg/errors"
	"github.com/tofscope/tofscope/internal/run"
	"github.com/tofscope/tofscope/internal/testutil"
)

func newTestEventService(opts ...EventServiceOption) (*EventService, *testutil.MomentumRecorder, *run.Registry) {
	rec := &testutil.MomentumRecorder{}
	reg := run.NewRegistry()
	svc := NewEventService(zap.NewNop(), physics.DefaultConstants(), rec, reg, opts...)
	return svc, rec, reg
}

func TestEventService_Process(t *testing.T) {
	tests := []struct {
		name       string
		input      domain.EventInput
		wantStatus domain.MomentumStatus
		wantReason domain.UndefinedReason
		wantEnergy float64
		wantLog    []float64
	}{
		{
			name:       "two hits",
			input:      testutil.TwoHitEvent(1),
			wantStatus: domain.MomentumStatusOK,
			wantEnergy: 2.5,
			wantLog:    []float64{testutil.TwoHitMomentum},
		},
		{
			name:       "single hit",
			input:      testutil.SingleHitEvent(2),
			wantStatus: domain.MomentumStatusUndefined,
			wantReason: domain.ReasonZeroTimeOfFlight,
		},
		{
			name:       "no hits",
			input:      testutil.EmptyEvent(3),
			wantStatus: domain.MomentumStatusUndefined,
			wantReason: domain.ReasonNoHits,
			wantEnergy: 15,
		},
		{
			name: "superluminal",
			input: domain.EventInput{
				EventNumber: 4,
				Hits:        []domain.HitInput{testutil.Hit(0, 0, 0, 0), testutil.Hit(0, 0, 600, 1)},
			},
			wantStatus: domain.MomentumStatusUndefined,
			wantReason: domain.ReasonSuperluminal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, rec, reg := newTestEventService()
			runID := uuid.New()

			summary, err := svc.Process(context.Background(), runID, tt.input)
			require.NoError(t, err)

			assert.Equal(t, runID, summary.RunID)
			assert.Equal(t, tt.input.EventNumber, summary.EventNumber)
			assert.Equal(t, tt.wantStatus, summary.MomentumStatus)
			assert.Equal(t, tt.wantReason, summary.Reason)
			assert.InDelta(t, tt.wantEnergy, summary.Energy, 1e-12)

			if tt.wantLog == nil {
				assert.Empty(t, rec.Values())
			} else {
				require.Len(t, rec.Values(), len(tt.wantLog))
				assert.InDelta(t, tt.wantLog[0], rec.Values()[0], 1e-9)
			}

			agg, ok := reg.Lookup(runID)
			require.True(t, ok)
			assert.Equal(t, int64(1), agg.Stats().Events)
		})
	}
}

func TestEventService_Process_SinkError(t *testing.T) {
	svc, rec, _ := newTestEventService()
	rec.Err = errors.New("disk full")

	_, err := svc.Process(context.Background(), uuid.New(), testutil.TwoHitEvent(1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestEventService_Process_PersistsSummary(t *testing.T) {
	events := new(testutil.MockEventRepository)
	counters := new(testutil.MockRunCounters)
	runID := uuid.New()

	events.On("Create", mock.Anything, mock.MatchedBy(func(e *domain.EventSummary) bool {
		return e.RunID == runID && e.EventNumber == 7
	})).Return(nil).Once()
	counters.On("Add", mock.Anything, runID, mock.AnythingOfType("*domain.EventSummary")).Return(nil).Once()

	svc, _, _ := newTestEventService(WithEventRepository(events), WithRunCounters(counters))

	_, err := svc.Process(context.Background(), runID, testutil.TwoHitEvent(7))
	require.NoError(t, err)

	events.AssertExpectations(t)
	counters.AssertExpectations(t)
}

func TestEventService_Process_RepositoryError(t *testing.T) {
	events := new(testutil.MockEventRepository)
	events.On("Create", mock.Anything, mock.Anything).Return(errors.New("connection refused"))

	svc, _, _ := newTestEventService(WithEventRepository(events))

	_, err := svc.Process(context.Background(), uuid.New(), testutil.TwoHitEvent(1))
	assert.Error(t, err)
}

func TestEventService_Process_RetryAfterRepositoryError(t *testing.T) {
	events := new(testutil.MockEventRepository)
	events.On("Create", mock.Anything, mock.Anything).Return(errors.New("connection refused")).Once()
	events.On("Create", mock.Anything, mock.Anything).Return(nil).Once()

	svc, rec, reg := newTestEventService(WithEventRepository(events))
	runID := uuid.New()
	ctx := context.Background()

	_, err := svc.Process(ctx, runID, testutil.TwoHitEvent(3))
	require.Error(t, err)
	assert.Empty(t, rec.Values())
	_, ok := reg.Lookup(runID)
	assert.False(t, ok)

	_, err = svc.Process(ctx, runID, testutil.TwoHitEvent(3))
	require.NoError(t, err)

	assert.Equal(t, []float64{testutil.TwoHitMomentum}, rec.Values())
	agg, ok := reg.Lookup(runID)
	require.True(t, ok)
	stats := agg.Stats()
	assert.Equal(t, int64(1), stats.Events)
	assert.Equal(t, int64(1), stats.MomentumCount)
	events.AssertExpectations(t)
}

func TestEventService_Process_SinkErrorSkipsStats(t *testing.T) {
	svc, rec, reg := newTestEventService()
	rec.Err = errors.New("disk full")
	runID := uuid.New()

	_, err := svc.Process(context.Background(), runID, testutil.TwoHitEvent(1))
	require.Error(t, err)
	_, ok := reg.Lookup(runID)
	assert.False(t, ok)
}

func TestEventService_Process_CounterErrorIsNotFatal(t *testing.T) {
	counters := new(testutil.MockRunCounters)
	counters.On("Add", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("redis down"))

	svc, rec, _ := newTestEventService(WithRunCounters(counters))

	summary, err := svc.Process(context.Background(), uuid.New(), testutil.TwoHitEvent(1))
	require.NoError(t, err)
	assert.Equal(t, domain.MomentumStatusOK, summary.MomentumStatus)
	assert.Len(t, rec.Values(), 1)
}

func TestEventService_TagLayers(t *testing.T) {
	det, err := geometry.NewBuilder(geometry.DefaultDetectorParams(), zap.NewNop()).Build()
	require.NoError(t, err)

	svc, _, _ := newTestEventService(WithDetector(det))

	explicit := 5
	in := domain.EventInput{
		Hits: []domain.HitInput{
			testutil.Hit(0, 0, 0, 0),
			testutil.Hit(0, 0, 10, 1),
			{X: 0, Y: 0, Z: 300, T: 2, Layer: &explicit},
		},
	}

	out := svc.tagLayers(in)
	require.NotNil(t, out.Hits[0].Layer)
	assert.Equal(t, 3, *out.Hits[0].Layer)
	assert.Nil(t, out.Hits[1].Layer)
	assert.Equal(t, 5, *out.Hits[2].Layer)

	assert.Nil(t, in.Hits[0].Layer, "input must not be modified")
}

func TestMomentumError(t *testing.T) {
	runID := uuid.New()

	ok := domain.NewEventSummary(runID, 1, domain.EventResult{
		Momentum: domain.MomentumEstimate{Status: domain.MomentumStatusOK, Value: 10},
	})
	assert.NoError(t, MomentumError(ok))

	empty := domain.NewEventSummary(runID, 2, domain.EventResult{
		Momentum: domain.Undefined(domain.ReasonNoHits),
	})
	assert.True(t, apperrors.IsEmptyEvent(MomentumError(empty)))

	zero := domain.NewEventSummary(runID, 3, domain.EventResult{
		Momentum: domain.Undefined(domain.ReasonZeroTimeOfFlight),
	})
	err := MomentumError(zero)
	assert.True(t, apperrors.IsUndefinedMomentum(err))
	assert.Equal(t, 422, apperrors.GetStatusCode(err))
}
