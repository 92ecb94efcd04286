// Package circuitbreaker guards calls to external stores so that an
// unreachable backend fails fast instead of stalling event processing.
package circuitbreaker

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/tofscope/tofscope/internal/pkg/logger"
	"github.com/tofscope/tofscope/internal/pkg/metrics"
)

// ErrOpen is returned while the breaker rejects calls
var ErrOpen = errors.New("circuit breaker is open")

// State represents the circuit breaker state
type State int

const (
	StateClosed State = iota
	StateOpen
	// StateHalfOpen lets a single trial call through
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// Settings tune when a breaker opens and how long it stays open
type Settings struct {
	MaxFailures int
	Cooldown    time.Duration
}

// DefaultSettings opens after 5 consecutive failures for 30 seconds
func DefaultSettings() Settings {
	return Settings{MaxFailures: 5, Cooldown: 30 * time.Second}
}

// Stats is the health view of one breaker
type Stats struct {
	State    string     `json:"state"`
	Failures int        `json:"failures"`
	OpenedAt *time.Time `json:"openedAt,omitempty"`
}

// Breaker counts consecutive failures of one backend
type Breaker struct {
	name     string
	settings Settings
	now      func() time.Time

	mu       sync.Mutex
	state    State
	failures int
	openedAt time.Time
	trial    bool
}

// New creates a closed breaker
func New(name string, settings Settings) *Breaker {
	def := DefaultSettings()
	if settings.MaxFailures <= 0 {
		settings.MaxFailures = def.MaxFailures
	}
	if settings.Cooldown <= 0 {
		settings.Cooldown = def.Cooldown
	}
	return &Breaker{name: name, settings: settings, now: time.Now}
}

// Do runs fn unless the breaker is open. Context cancellation is not
// counted as a backend failure.
func Do[T any](b *Breaker, ctx context.Context, fn func() (T, error)) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	if err := b.allow(); err != nil {
		return zero, err
	}

	result, err := fn()
	switch {
	case err == nil:
		b.record(true)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		b.release()
	default:
		b.record(false)
	}
	return result, err
}

// State returns the current state
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Stats returns the health view of the breaker
func (b *Breaker) Stats() Stats {
	b.mu.Lock()
	defer b.mu.Unlock()
	s := Stats{State: b.state.String(), Failures: b.failures}
	if b.state != StateClosed {
		at := b.openedAt
		s.OpenedAt = &at
	}
	return s
}

func (b *Breaker) allow() error {
	b.mu.Lock()
	from := b.state
	switch b.state {
	case StateOpen:
		if b.now().Sub(b.openedAt) < b.settings.Cooldown {
			b.mu.Unlock()
			return ErrOpen
		}
		b.state = StateHalfOpen
		b.trial = true
	case StateHalfOpen:
		if b.trial {
			b.mu.Unlock()
			return ErrOpen
		}
		b.trial = true
	}
	to := b.state
	b.mu.Unlock()

	b.notify(from, to)
	return nil
}

// release gives the trial slot back without judging the backend
func (b *Breaker) release() {
	b.mu.Lock()
	b.trial = false
	b.mu.Unlock()
}

func (b *Breaker) record(ok bool) {
	b.mu.Lock()
	from := b.state
	b.trial = false
	if ok {
		b.failures = 0
		b.state = StateClosed
	} else {
		b.failures++
		if b.state == StateHalfOpen || b.failures >= b.settings.MaxFailures {
			b.state = StateOpen
			b.openedAt = b.now()
		}
	}
	to := b.state
	b.mu.Unlock()

	b.notify(from, to)
}

func (b *Breaker) notify(from, to State) {
	if from == to {
		return
	}
	metrics.RecordBreakerState(b.name, to.String(), int(to))
	logger.Log.Warn("circuit breaker state changed",
		zap.String("breaker", b.name),
		zap.String("from", from.String()),
		zap.String("to", to.String()),
	)
}

// Registry holds named breakers
type Registry struct {
	mu       sync.Mutex
	breakers map[string]*Breaker
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{breakers: make(map[string]*Breaker)}
}

// Get returns the breaker with the given name, creating it with the default
// settings on first use
func (r *Registry) Get(name string) *Breaker {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.breakers[name]
	if !ok {
		b = New(name, DefaultSettings())
		r.breakers[name] = b
	}
	return b
}

// Stats returns the health view of every breaker
func (r *Registry) Stats() map[string]Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]Stats, len(r.breakers))
	for name, b := range r.breakers {
		out[name] = b.Stats()
	}
	return out
}

var global = NewRegistry()

// For returns a breaker from the process-wide registry
func For(name string) *Breaker {
	return global.Get(name)
}

// GlobalStats returns the stats of the process-wide registry
func GlobalStats() map[string]Stats {
	return global.Stats()
}
