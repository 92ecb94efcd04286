package physics

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/tofscope/tofscope/internal/domain"
)

const (
	// SpeedOfLight is the approximate speed of light in mm/ns
	SpeedOfLight = 299.0
	// ProtonMass is the rest mass of the reference particle in MeV
	ProtonMass = 938.0
)

// Constants holds the unit-system constants used by the estimator
type Constants struct {
	SpeedOfLight float64
	RestMass     float64
}

// DefaultConstants returns the reference constants
func DefaultConstants() Constants {
	return Constants{
		SpeedOfLight: SpeedOfLight,
		RestMass:     ProtonMass,
	}
}

// Distance returns the straight-line distance between two hits
func Distance(first, last domain.HitRecord) float64 {
	return r3.Norm(r3.Sub(last.Position, first.Position))
}

// EstimateMomentum computes p = gamma * m / c^2 * v * c from the time of flight
// between the first and the last hit of an event. Intermediate hits play no role.
func EstimateMomentum(first, last domain.HitRecord, k Constants) domain.MomentumEstimate {
	distance := Distance(first, last)
	dt := last.Time - first.Time

	est := domain.MomentumEstimate{
		Distance:     distance,
		TimeOfFlight: dt,
	}

	switch {
	case dt == 0:
		return undefined(est, domain.ReasonZeroTimeOfFlight)
	case dt < 0:
		return undefined(est, domain.ReasonNegativeTimeOfFlight)
	}

	v := distance / dt
	est.Velocity = v

	beta := v / k.SpeedOfLight
	radicand := 1 - beta*beta
	if radicand <= 0 {
		return undefined(est, domain.ReasonSuperluminal)
	}

	gamma := 1 / math.Sqrt(radicand)
	p := gamma * k.RestMass / (k.SpeedOfLight * k.SpeedOfLight) * v * k.SpeedOfLight
	if math.IsNaN(p) || math.IsInf(p, 0) {
		return undefined(est, domain.ReasonSuperluminal)
	}

	est.Status = domain.MomentumStatusOK
	est.Gamma = gamma
	est.Value = p
	return est
}

func undefined(est domain.MomentumEstimate, reason domain.UndefinedReason) domain.MomentumEstimate {
	est.Status = domain.MomentumStatusUndefined
	est.Reason = reason
	return est
}
