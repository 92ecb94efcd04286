package domain

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// RunStatus represents the lifecycle state of a run
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// IsValid checks if the run status is valid
func (s RunStatus) IsValid() bool {
	switch s {
	case RunStatusRunning, RunStatusCompleted, RunStatusFailed:
		return true
	}
	return false
}

// Run is a sequence of events simulated with one detector configuration
type Run struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	Name        string     `json:"name" db:"name"`
	Status      RunStatus  `json:"status" db:"status"`
	Stats       RunStats   `json:"stats"`
	Message     string     `json:"message,omitempty" db:"message"`
	StartedAt   time.Time  `json:"startedAt" db:"started_at"`
	CompletedAt *time.Time `json:"completedAt,omitempty" db:"completed_at"`
}

// RunStats is the per-run energy and momentum bookkeeping
type RunStats struct {
	Events            int64   `json:"events"`
	EnergySum         float64 `json:"energySum"`
	EnergySumSquares  float64 `json:"energySumSquares"`
	MeanEnergy        float64 `json:"meanEnergy"`
	RMSEnergy         float64 `json:"rmsEnergy"`
	MomentumCount     int64   `json:"momentumCount"`
	MeanMomentum      float64 `json:"meanMomentum"`
	UndefinedMomentum int64   `json:"undefinedMomentum"`
}

// Finalize derives mean and rms energy from the event count and the energy sums
func (s *RunStats) Finalize() {
	s.MeanEnergy = 0
	s.RMSEnergy = 0
	if s.Events <= 0 {
		return
	}
	n := float64(s.Events)
	s.MeanEnergy = s.EnergySum / n
	if variance := s.EnergySumSquares/n - s.MeanEnergy*s.MeanEnergy; variance > 0 {
		s.RMSEnergy = math.Sqrt(variance)
	}
}

// RunInput represents input for creating a run
type RunInput struct {
	Name string `json:"name" validate:"required,max=200"`
}
