package domain

// MomentumStatus tags whether a momentum estimate is usable
type MomentumStatus string

const (
	MomentumStatusOK        MomentumStatus = "ok"
	MomentumStatusUndefined MomentumStatus = "undefined"
)

// IsValid checks if the momentum status is valid
func (s MomentumStatus) IsValid() bool {
	switch s {
	case MomentumStatusOK, MomentumStatusUndefined:
		return true
	}
	return false
}

// UndefinedReason explains why no momentum could be estimated
type UndefinedReason string

const (
	ReasonNone                 UndefinedReason = ""
	ReasonNoHits               UndefinedReason = "no_hits"
	ReasonZeroTimeOfFlight     UndefinedReason = "zero_time_of_flight"
	ReasonNegativeTimeOfFlight UndefinedReason = "negative_time_of_flight"
	ReasonSuperluminal         UndefinedReason = "superluminal"
)

// MomentumEstimate is the time-of-flight momentum of one event.
// Value is only meaningful when Status is MomentumStatusOK.
type MomentumEstimate struct {
	Status       MomentumStatus  `json:"status"`
	Value        float64         `json:"value"`
	Reason       UndefinedReason `json:"reason,omitempty"`
	Distance     float64         `json:"distance"`
	TimeOfFlight float64         `json:"timeOfFlight"`
	Velocity     float64         `json:"velocity"`
	Gamma        float64         `json:"gamma"`
}

// OK reports whether the estimate carries a usable value
func (m MomentumEstimate) OK() bool {
	return m.Status == MomentumStatusOK
}

// Undefined builds an undefined estimate for the given reason
func Undefined(reason UndefinedReason) MomentumEstimate {
	return MomentumEstimate{
		Status: MomentumStatusUndefined,
		Reason: reason,
	}
}
