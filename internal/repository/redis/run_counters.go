// Package redis keeps live per-run counters in Redis so that every API and
// worker process sees the same progress while a run is being filled.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/tofscope/tofscope/internal/domain"
	"github.com/tofscope/tofscope/internal/pkg/database"
)

const (
	fieldEvents            = "events"
	fieldEnergySum         = "energy_sum"
	fieldEnergySumSquares  = "energy_sum_squares"
	fieldMomentumCount     = "momentum_count"
	fieldMomentumSum       = "momentum_sum"
	fieldUndefinedMomentum = "undefined_momentum"
)

// DefaultCounterTTL bounds how long counters of an abandoned run survive
const DefaultCounterTTL = 7 * 24 * time.Hour

// RunCounters stores live run statistics in a Redis hash per run
type RunCounters struct {
	db     *database.RedisDB
	ttl    time.Duration
	logger *zap.Logger
}

// NewRunCounters creates new run counters
func NewRunCounters(db *database.RedisDB, ttl time.Duration, logger *zap.Logger) *RunCounters {
	if ttl <= 0 {
		ttl = DefaultCounterTTL
	}
	return &RunCounters{db: db, ttl: ttl, logger: logger}
}

// CountersKey returns the hash key of a run
func CountersKey(runID uuid.UUID) string {
	return "tofscope:run:" + runID.String() + ":counters"
}

// EventsChannel returns the pub/sub channel carrying the closed events of a run
func EventsChannel(runID uuid.UUID) string {
	return "tofscope:run:" + runID.String() + ":events"
}

// Add folds one event result into the counters of a run and publishes its summary
func (c *RunCounters) Add(ctx context.Context, runID uuid.UUID, summary *domain.EventSummary) error {
	key := CountersKey(runID)

	pipe := c.db.Pipeline()
	pipe.HIncrBy(ctx, key, fieldEvents, 1)
	pipe.HIncrByFloat(ctx, key, fieldEnergySum, summary.Energy)
	pipe.HIncrByFloat(ctx, key, fieldEnergySumSquares, summary.Energy*summary.Energy)
	if summary.MomentumStatus == domain.MomentumStatusOK {
		pipe.HIncrBy(ctx, key, fieldMomentumCount, 1)
		pipe.HIncrByFloat(ctx, key, fieldMomentumSum, summary.Momentum)
	} else {
		pipe.HIncrBy(ctx, key, fieldUndefinedMomentum, 1)
	}
	pipe.Expire(ctx, key, c.ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to update run counters: %w", err)
	}

	payload, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to encode event summary: %w", err)
	}
	if err := c.db.Publish(ctx, EventsChannel(runID), payload); err != nil {
		// subscribers are optional; counters are already updated
		c.logger.Warn("failed to publish event summary",
			zap.String("run_id", runID.String()),
			zap.Error(err),
		)
	}
	return nil
}

// Get returns the live statistics of a run; a run without counters yields zero stats
func (c *RunCounters) Get(ctx context.Context, runID uuid.UUID) (domain.RunStats, error) {
	values, err := c.db.HGetAll(ctx, CountersKey(runID))
	if err != nil && err != goredis.Nil {
		return domain.RunStats{}, fmt.Errorf("failed to read run counters: %w", err)
	}
	return parseCounters(values)
}

// Delete removes the counters of a run
func (c *RunCounters) Delete(ctx context.Context, runID uuid.UUID) error {
	return c.db.Del(ctx, CountersKey(runID))
}

func parseCounters(values map[string]string) (domain.RunStats, error) {
	var stats domain.RunStats
	var momentumSum float64

	ints := map[string]*int64{
		fieldEvents:            &stats.Events,
		fieldMomentumCount:     &stats.MomentumCount,
		fieldUndefinedMomentum: &stats.UndefinedMomentum,
	}
	floats := map[string]*float64{
		fieldEnergySum:        &stats.EnergySum,
		fieldEnergySumSquares: &stats.EnergySumSquares,
		fieldMomentumSum:      &momentumSum,
	}

	for field, raw := range values {
		if dst, ok := ints[field]; ok {
			v, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				return domain.RunStats{}, fmt.Errorf("invalid counter %s=%q: %w", field, raw, err)
			}
			*dst = v
			continue
		}
		if dst, ok := floats[field]; ok {
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return domain.RunStats{}, fmt.Errorf("invalid counter %s=%q: %w", field, raw, err)
			}
			*dst = v
		}
	}

	if stats.MomentumCount > 0 {
		stats.MeanMomentum = momentumSum / float64(stats.MomentumCount)
	}
	stats.Finalize()
	return stats, nil
}
