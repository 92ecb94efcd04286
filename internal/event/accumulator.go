// Package event holds the per-event bookkeeping driven by the host
// simulation's lifecycle notifications.
//
// An Accumulator is owned by a single worker and is not safe for concurrent
// use. The host calls BeginEvent once, then RecordHit and AccumulateEnergy
// any number of times, then EndEvent once.
package event

import (
	"go.uber.org/zap"

	"github.com/tofscope/tofscope/internal/domain"
	"github.com/tofscope/tofscope/internal/physics"
)

// Accumulator collects hits and energy deposits for one event at a time
type Accumulator struct {
	logger    *zap.Logger
	constants physics.Constants
	hits      []domain.HitRecord
	energy    float64
}

// NewAccumulator creates an accumulator using the given estimator constants
func NewAccumulator(logger *zap.Logger, constants physics.Constants) *Accumulator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Accumulator{
		logger:    logger,
		constants: constants,
	}
}

// BeginEvent discards everything collected so far and starts a new event
func (a *Accumulator) BeginEvent() {
	a.hits = a.hits[:0]
	a.energy = 0
}

// RecordHit appends a hit in detection order
func (a *Accumulator) RecordHit(hit domain.HitRecord) {
	a.hits = append(a.hits, hit)
}

// AccumulateEnergy adds a local energy deposit to the event total
func (a *Accumulator) AccumulateEnergy(delta float64) {
	a.energy += delta
}

// Hits returns a copy of the hits recorded in the current event
func (a *Accumulator) Hits() []domain.HitRecord {
	out := make([]domain.HitRecord, len(a.hits))
	copy(out, a.hits)
	return out
}

// Energy returns the energy accumulated in the current event
func (a *Accumulator) Energy() float64 {
	return a.energy
}

// EndEvent reports the accumulated energy and the time-of-flight momentum
// estimate built from the first and last recorded hits.
func (a *Accumulator) EndEvent() domain.EventResult {
	res := domain.EventResult{
		Energy:   a.energy,
		HitCount: len(a.hits),
	}

	if len(a.hits) == 0 {
		a.logger.Warn("no tracker hits recorded, skipping momentum estimate",
			zap.Float64("energy", a.energy),
		)
		res.Momentum = domain.Undefined(domain.ReasonNoHits)
		return res
	}

	first := a.hits[0]
	last := a.hits[len(a.hits)-1]
	res.Momentum = physics.EstimateMomentum(first, last, a.constants)

	if !res.Momentum.OK() {
		a.logger.Warn("momentum estimate undefined",
			zap.String("reason", string(res.Momentum.Reason)),
			zap.Int("hits", len(a.hits)),
			zap.Float64("distance", res.Momentum.Distance),
			zap.Float64("time_of_flight", res.Momentum.TimeOfFlight),
		)
		return res
	}

	a.logger.Debug("momentum estimated",
		zap.Float64("momentum", res.Momentum.Value),
		zap.Float64("velocity", res.Momentum.Velocity),
		zap.Int("hits", len(a.hits)),
	)
	return res
}

// Replay drives the accumulator through a recorded event: BeginEvent,
// every deposit and hit in order, then EndEvent.
func (a *Accumulator) Replay(in domain.EventInput) domain.EventResult {
	a.BeginEvent()
	for _, d := range in.Deposits {
		a.AccumulateEnergy(d)
	}
	for _, h := range in.Hits {
		a.RecordHit(h.ToRecord())
	}
	return a.EndEvent()
}
