package domain

import (
	"gonum.org/v1/gonum/spatial/r3"
)

// UnknownLayer marks a hit whose tracker layer copy number was not reported
const UnknownLayer = -1

// HitRecord is one crossing of a sensitive tracker layer.
// Positions are in mm, times in ns, deposits in MeV.
type HitRecord struct {
	Position      r3.Vec
	Time          float64
	Layer         int
	EnergyDeposit float64
}

// NewHitRecord creates a hit at (x, y, z) and time t with no layer tag
func NewHitRecord(x, y, z, t float64) HitRecord {
	return HitRecord{
		Position: r3.Vec{X: x, Y: y, Z: z},
		Time:     t,
		Layer:    UnknownLayer,
	}
}

// HitInput is the wire form of a hit
type HitInput struct {
	X             float64 `json:"x" validate:"finite"`
	Y             float64 `json:"y" validate:"finite"`
	Z             float64 `json:"z" validate:"finite"`
	T             float64 `json:"t" validate:"finite"`
	Layer         *int    `json:"layer,omitempty" validate:"omitempty,min=0"`
	EnergyDeposit float64 `json:"edep,omitempty" validate:"finite,min=0"`
}

// ToRecord converts the wire form into a HitRecord
func (h HitInput) ToRecord() HitRecord {
	rec := NewHitRecord(h.X, h.Y, h.Z, h.T)
	if h.Layer != nil {
		rec.Layer = *h.Layer
	}
	rec.EnergyDeposit = h.EnergyDeposit
	return rec
}

// EventInput is a complete recording of the host notifications for one event.
// Hits are in detection order; Deposits are the per-step energy deposits.
type EventInput struct {
	EventNumber int64      `json:"eventNumber" validate:"min=0"`
	Hits        []HitInput `json:"hits" validate:"max=100000,dive"`
	Deposits    []float64  `json:"deposits,omitempty" validate:"max=1000000,dive,finite"`
}
