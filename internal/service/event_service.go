package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tofscope/tofscope/internal/domain"
	"github.com/tofscope/tofscope/internal/event"
	"github.com/tofscope/tofscope/internal/geometry"
	"github.com/tofscope/tofscope/internal/physics"
	apperrors "github.com/tofscope/tofscope/internal/pkg/errors"
	"github.com/tofscope/tofscope/internal/pkg/metrics"
	"github.com/tofscope/tofscope/internal/run"
)

// EventService turns recorded events into momentum log lines, run statistics
// and persisted summaries.
type EventService struct {
	constants   physics.Constants
	sink        MomentumWriter
	aggregators *run.Registry
	detector    *geometry.Detector
	events      EventRepository
	counters    RunCounters
	source      string
	logger      *zap.Logger
}

// EventServiceOption configures optional dependencies of the EventService
type EventServiceOption func(*EventService)

// WithDetector tags hits without a layer using the detector geometry
func WithDetector(d *geometry.Detector) EventServiceOption {
	return func(s *EventService) { s.detector = d }
}

// WithEventRepository persists a summary of every processed event
func WithEventRepository(repo EventRepository) EventServiceOption {
	return func(s *EventService) { s.events = repo }
}

// WithRunCounters updates live run counters for every processed event
func WithRunCounters(c RunCounters) EventServiceOption {
	return func(s *EventService) { s.counters = c }
}

// WithSource sets the metrics label identifying where events come from
func WithSource(source string) EventServiceOption {
	return func(s *EventService) { s.source = source }
}

// NewEventService creates a new EventService.
// The sink and the aggregator registry are required.
func NewEventService(
	logger *zap.Logger,
	constants physics.Constants,
	sink MomentumWriter,
	aggregators *run.Registry,
	opts ...EventServiceOption,
) *EventService {
	s := &EventService{
		constants:   constants,
		sink:        sink,
		aggregators: aggregators,
		source:      "api",
		logger:      logger.Named("events"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewAccumulator returns an accumulator configured like the service's own
func (s *EventService) NewAccumulator() *event.Accumulator {
	return event.NewAccumulator(s.logger, s.constants)
}

// Process runs one recorded event through a fresh accumulator
func (s *EventService) Process(ctx context.Context, runID uuid.UUID, in domain.EventInput) (*domain.EventSummary, error) {
	return s.ProcessWith(ctx, s.NewAccumulator(), runID, in)
}

// ProcessWith runs one recorded event through the given accumulator. The
// accumulator must not be used by another goroutine at the same time.
func (s *EventService) ProcessWith(ctx context.Context, acc *event.Accumulator, runID uuid.UUID, in domain.EventInput) (*domain.EventSummary, error) {
	start := time.Now()

	if s.detector != nil {
		in = s.tagLayers(in)
	}
	res := acc.Replay(in)

	summary := domain.NewEventSummary(runID, in.EventNumber, res)

	// run statistics only count events whose summary and log line were written
	if s.events != nil {
		if err := s.events.Create(ctx, summary); err != nil {
			return nil, fmt.Errorf("failed to store summary of event %d: %w", in.EventNumber, err)
		}
	}

	if res.Momentum.OK() {
		if err := s.sink.Append(ctx, res.Momentum.Value); err != nil {
			return nil, fmt.Errorf("failed to append momentum of event %d: %w", in.EventNumber, err)
		}
	}

	s.aggregators.Get(runID).Add(res)

	if s.counters != nil {
		if err := s.counters.Add(ctx, runID, summary); err != nil {
			s.logger.Warn("failed to update live run counters",
				zap.String("run_id", runID.String()),
				zap.Int64("event", in.EventNumber),
				zap.Error(err),
			)
		}
	}

	metrics.RecordEvent(s.source, res, time.Since(start))
	return summary, nil
}

func (s *EventService) tagLayers(in domain.EventInput) domain.EventInput {
	tagged := false
	hits := make([]domain.HitInput, len(in.Hits))
	for i, h := range in.Hits {
		hits[i] = h
		if h.Layer != nil {
			continue
		}
		rec := h.ToRecord()
		if layer := s.detector.LayerAt(rec.Position); layer != domain.UnknownLayer {
			hits[i].Layer = &layer
			tagged = true
		}
	}
	if tagged {
		in.Hits = hits
	}
	return in
}

// MomentumError classifies an event whose momentum could not be estimated.
// It returns nil when the estimate is defined.
func MomentumError(summary *domain.EventSummary) error {
	if summary.MomentumStatus == domain.MomentumStatusOK {
		return nil
	}
	if summary.Reason == domain.ReasonNoHits {
		return apperrors.EmptyEvent(summary.EventNumber)
	}
	return apperrors.UndefinedMomentum(string(summary.Reason))
}
