package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/tofscope/tofscope/internal/domain"
	"github.com/tofscope/tofscope/internal/sink"
)

// EventSource yields recorded events until it returns io.EOF
type EventSource interface {
	Next(ctx context.Context) (domain.EventInput, error)
}

// RunReport summarises a Runner pass
type RunReport struct {
	RunID     uuid.UUID `json:"runId"`
	Events    int64     `json:"events"`
	Defined   int64     `json:"defined"`
	Undefined int64     `json:"undefined"`
	Failed    int64     `json:"failed"`
}

// Runner feeds events from a source to a pool of workers. Each worker owns
// one accumulator for the whole pass.
type Runner struct {
	events *EventService
	logger *zap.Logger
}

// NewRunner creates a new Runner
func NewRunner(events *EventService, logger *zap.Logger) *Runner {
	return &Runner{
		events: events,
		logger: logger.Named("runner"),
	}
}

// Run processes every event of src with the given number of workers.
// A failing event is logged and counted; a closed momentum log, a source
// error or a cancelled context stops the pass.
func (r *Runner) Run(ctx context.Context, runID uuid.UUID, src EventSource, workers int) (*RunReport, error) {
	if workers < 1 {
		workers = 1
	}

	var events, defined, undefined, failed atomic.Int64
	inputs := make(chan domain.EventInput, workers*2)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(inputs)
		for {
			in, err := src.Next(gctx)
			if errors.Is(err, io.EOF) {
				return nil
			}
			if err != nil {
				return fmt.Errorf("failed to read event: %w", err)
			}
			select {
			case inputs <- in:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
	})

	for w := 0; w < workers; w++ {
		worker := w
		g.Go(func() error {
			acc := r.events.NewAccumulator()
			for in := range inputs {
				summary, err := r.events.ProcessWith(gctx, acc, runID, in)
				if err != nil {
					if errors.Is(err, sink.ErrClosed) || gctx.Err() != nil {
						return err
					}
					failed.Add(1)
					r.logger.Error("failed to process event",
						zap.Int("worker", worker),
						zap.Int64("event", in.EventNumber),
						zap.Error(err),
					)
					continue
				}
				events.Add(1)
				if summary.MomentumStatus == domain.MomentumStatusOK {
					defined.Add(1)
				} else {
					undefined.Add(1)
				}
			}
			return nil
		})
	}

	err := g.Wait()
	report := &RunReport{
		RunID:     runID,
		Events:    events.Load(),
		Defined:   defined.Load(),
		Undefined: undefined.Load(),
		Failed:    failed.Load(),
	}

	r.logger.Info("run pass finished",
		zap.String("run_id", runID.String()),
		zap.Int("workers", workers),
		zap.Int64("events", report.Events),
		zap.Int64("undefined", report.Undefined),
		zap.Int64("failed", report.Failed),
	)

	return report, err
}

// SliceSource serves events from memory
type SliceSource struct {
	events []domain.EventInput
	next   int
}

// NewSliceSource creates a source over the given events
func NewSliceSource(events []domain.EventInput) *SliceSource {
	return &SliceSource{events: events}
}

// Next returns the next event or io.EOF
func (s *SliceSource) Next(ctx context.Context) (domain.EventInput, error) {
	if err := ctx.Err(); err != nil {
		return domain.EventInput{}, err
	}
	if s.next >= len(s.events) {
		return domain.EventInput{}, io.EOF
	}
	in := s.events[s.next]
	s.next++
	return in, nil
}
