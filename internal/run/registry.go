package run

import (
	"sync"

	"github.com/google/uuid"
)

// Registry holds the aggregator of every open run in this process
type Registry struct {
	mu   sync.RWMutex
	runs map[uuid.UUID]*Aggregator
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{runs: make(map[uuid.UUID]*Aggregator)}
}

// Get returns the aggregator of a run, creating it on first use
func (r *Registry) Get(runID uuid.UUID) *Aggregator {
	r.mu.RLock()
	agg, ok := r.runs[runID]
	r.mu.RUnlock()
	if ok {
		return agg
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if agg, ok := r.runs[runID]; ok {
		return agg
	}
	agg = NewAggregator()
	r.runs[runID] = agg
	return agg
}

// Lookup returns the aggregator of a run without creating it
func (r *Registry) Lookup(runID uuid.UUID) (*Aggregator, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	agg, ok := r.runs[runID]
	return agg, ok
}

// Remove forgets a run and returns its aggregator, if any
func (r *Registry) Remove(runID uuid.UUID) (*Aggregator, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	agg, ok := r.runs[runID]
	delete(r.runs, runID)
	return agg, ok
}

// Len returns the number of open runs
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.runs)
}
