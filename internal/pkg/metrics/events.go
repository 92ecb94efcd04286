package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/tofscope/tofscope/internal/domain"
)

var (
	eventsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tofscope_events_processed_total",
			Help: "Total number of events closed by an accumulator",
		},
		[]string{"source"},
	)

	momentumUndefined = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tofscope_momentum_undefined_total",
			Help: "Total number of events whose momentum could not be estimated",
		},
		[]string{"reason"},
	)

	eventEnergy = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tofscope_event_energy_mev",
			Help:    "Energy deposited per event in MeV",
			Buckets: prometheus.ExponentialBuckets(0.01, 4, 10),
		},
	)

	eventMomentum = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tofscope_event_momentum_mev",
			Help:    "Estimated event momentum in MeV/c",
			Buckets: prometheus.ExponentialBuckets(1, 3, 10),
		},
	)

	eventHits = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tofscope_event_hits",
			Help:    "Tracker hits recorded per event",
			Buckets: []float64{0, 1, 2, 3, 4, 5, 6, 7, 10, 20},
		},
	)

	eventDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tofscope_event_processing_seconds",
			Help:    "Time spent processing one event",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1},
		},
		[]string{"source"},
	)

	sinkWriteDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tofscope_sink_write_seconds",
			Help:    "Momentum log write and flush latency",
			Buckets: []float64{.00001, .00005, .0001, .0005, .001, .005, .01, .05},
		},
	)

	sinkErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tofscope_sink_errors_total",
			Help: "Total number of failed momentum log writes",
		},
	)

	tasksProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tofscope_tasks_processed_total",
			Help: "Total number of worker tasks processed",
		},
		[]string{"type", "status"},
	)

	breakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "tofscope_circuit_breaker_state",
			Help: "Circuit breaker state (0 closed, 1 open, 2 half-open)",
		},
		[]string{"name"},
	)

	breakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tofscope_circuit_breaker_transitions_total",
			Help: "Total number of circuit breaker state changes",
		},
		[]string{"name", "to"},
	)
)

// RecordEvent records the outcome of one closed event
func RecordEvent(source string, res domain.EventResult, duration time.Duration) {
	eventsProcessed.WithLabelValues(source).Inc()
	eventDuration.WithLabelValues(source).Observe(duration.Seconds())
	eventEnergy.Observe(res.Energy)
	eventHits.Observe(float64(res.HitCount))

	if res.Momentum.OK() {
		eventMomentum.Observe(res.Momentum.Value)
		return
	}
	momentumUndefined.WithLabelValues(string(res.Momentum.Reason)).Inc()
}

// RecordSinkWrite records a momentum log write
func RecordSinkWrite(duration time.Duration) {
	sinkWriteDuration.Observe(duration.Seconds())
}

// RecordSinkError records a failed momentum log write
func RecordSinkError() {
	sinkErrors.Inc()
}

// RecordTask records a processed worker task
func RecordTask(taskType, status string) {
	tasksProcessed.WithLabelValues(taskType, status).Inc()
}

// RecordBreakerState records a circuit breaker state change
func RecordBreakerState(name, to string, state int) {
	breakerState.WithLabelValues(name).Set(float64(state))
	breakerTransitions.WithLabelValues(name, to).Inc()
}
