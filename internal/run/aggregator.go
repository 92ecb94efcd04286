// Package run accumulates per-run statistics from the results of closed events.
package run

import (
	"sync"

	"github.com/tofscope/tofscope/internal/domain"
)

// Aggregator sums event results of one run. It is safe for concurrent use
// by every worker of the run.
type Aggregator struct {
	mu sync.Mutex

	events            int64
	energySum         float64
	energySumSquares  float64
	momentumCount     int64
	momentumSum       float64
	undefinedMomentum int64
}

// NewAggregator creates an empty aggregator
func NewAggregator() *Aggregator {
	return &Aggregator{}
}

// Add folds one event result into the run
func (a *Aggregator) Add(res domain.EventResult) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.events++
	a.energySum += res.Energy
	a.energySumSquares += res.Energy * res.Energy

	if res.Momentum.OK() {
		a.momentumCount++
		a.momentumSum += res.Momentum.Value
		return
	}
	a.undefinedMomentum++
}

// Merge folds the statistics of another run into this one
func (a *Aggregator) Merge(s domain.RunStats) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.events += s.Events
	a.energySum += s.EnergySum
	a.energySumSquares += s.EnergySumSquares
	a.momentumCount += s.MomentumCount
	a.momentumSum += s.MeanMomentum * float64(s.MomentumCount)
	a.undefinedMomentum += s.UndefinedMomentum
}

// Reset clears all accumulated values
func (a *Aggregator) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.events = 0
	a.energySum = 0
	a.energySumSquares = 0
	a.momentumCount = 0
	a.momentumSum = 0
	a.undefinedMomentum = 0
}

// Stats returns a snapshot with mean and rms energy
func (a *Aggregator) Stats() domain.RunStats {
	a.mu.Lock()
	defer a.mu.Unlock()

	stats := domain.RunStats{
		Events:            a.events,
		EnergySum:         a.energySum,
		EnergySumSquares:  a.energySumSquares,
		MomentumCount:     a.momentumCount,
		UndefinedMomentum: a.undefinedMomentum,
	}

	stats.Finalize()
	if a.momentumCount > 0 {
		stats.MeanMomentum = a.momentumSum / float64(a.momentumCount)
	}
	return stats
}
