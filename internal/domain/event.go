package domain

import (
	"time"

	"github.com/google/uuid"

	"github.com/tofscope/tofscope/internal/pkg/id"
)

// EventResult is what the accumulator reports at the end of an event
type EventResult struct {
	Energy   float64          `json:"energy"`
	Momentum MomentumEstimate `json:"momentum"`
	HitCount int              `json:"hitCount"`
}

// EventSummary is the persisted record of one processed event
type EventSummary struct {
	ID             uuid.UUID       `json:"id" ch:"id"`
	RunID          uuid.UUID       `json:"runId" ch:"run_id"`
	EventNumber    int64           `json:"eventNumber" ch:"event_number"`
	Energy         float64         `json:"energy" ch:"energy"`
	HitCount       uint32          `json:"hitCount" ch:"hit_count"`
	MomentumStatus MomentumStatus  `json:"momentumStatus" ch:"momentum_status"`
	Momentum       float64         `json:"momentum" ch:"momentum"`
	Reason         UndefinedReason `json:"reason,omitempty" ch:"reason"`
	Distance       float64         `json:"distance" ch:"distance"`
	TimeOfFlight   float64         `json:"timeOfFlight" ch:"time_of_flight"`
	Velocity       float64         `json:"velocity" ch:"velocity"`
	CreatedAt      time.Time       `json:"createdAt" ch:"created_at"`
}

// NewEventSummary builds the persisted form of an event result
func NewEventSummary(runID uuid.UUID, eventNumber int64, res EventResult) *EventSummary {
	return &EventSummary{
		ID:             id.New(),
		RunID:          runID,
		EventNumber:    eventNumber,
		Energy:         res.Energy,
		HitCount:       uint32(res.HitCount),
		MomentumStatus: res.Momentum.Status,
		Momentum:       res.Momentum.Value,
		Reason:         res.Momentum.Reason,
		Distance:       res.Momentum.Distance,
		TimeOfFlight:   res.Momentum.TimeOfFlight,
		Velocity:       res.Momentum.Velocity,
		CreatedAt:      time.Now().UTC(),
	}
}

// MomentumStats aggregates stored momentum estimates of a run
type MomentumStats struct {
	Events    uint64  `json:"events" ch:"events"`
	Defined   uint64  `json:"defined" ch:"defined"`
	Undefined uint64  `json:"undefined" ch:"undefined"`
	Mean      float64 `json:"mean" ch:"mean"`
	Min       float64 `json:"min" ch:"min"`
	Max       float64 `json:"max" ch:"max"`
}
