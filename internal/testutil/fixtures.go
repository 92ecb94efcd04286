package testutil

import (
	"time"

	"github.com/google/uuid"

	"github.com/tofscope/tofscope/internal/domain"
)

// TwoHitMomentum is the momentum of TwoHitEvent with the reference constants
const TwoHitMomentum = 31.38879742948722

// NewTestRun creates a running run with default values.
func NewTestRun() *domain.Run {
	return &domain.Run{
		ID:        uuid.New(),
		Name:      "test-run",
		Status:    domain.RunStatusRunning,
		StartedAt: time.Now().UTC(),
	}
}

// Hit creates a hit input without a layer tag.
func Hit(x, y, z, t float64) domain.HitInput {
	return domain.HitInput{X: x, Y: y, Z: z, T: t}
}

// SingleHitEvent has one hit and no deposits.
func SingleHitEvent(n int64) domain.EventInput {
	return domain.EventInput{
		EventNumber: n,
		Hits:        []domain.HitInput{Hit(0, 0, 0, 0)},
	}
}

// TwoHitEvent has hits 10 mm and 1 ns apart and a 2.5 MeV deposit.
func TwoHitEvent(n int64) domain.EventInput {
	return domain.EventInput{
		EventNumber: n,
		Hits: []domain.HitInput{
			Hit(0, 0, 0, 0),
			Hit(0, 0, 10, 1),
		},
		Deposits: []float64{2.5},
	}
}

// EmptyEvent has deposits that sum to 15 MeV and no hits.
func EmptyEvent(n int64) domain.EventInput {
	return domain.EventInput{
		EventNumber: n,
		Deposits:    []float64{5, 10},
	}
}
