package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tofscope/tofscope/internal/domain"
	"github.com/tofscope/tofscope/internal/geometry"
	apperrors "github.com/tofscope/tofscope/internal/pkg/errors"
	"github.com/tofscope/tofscope/internal/pkg/id"
	"github.com/tofscope/tofscope/internal/run"
)

// RunService manages the lifecycle of runs
type RunService struct {
	runs        RunRepository
	detectors   DetectorRepository
	counters    RunCounters
	events      EventRepository
	aggregators *run.Registry
	detector    *geometry.Detector
	archiver    Archiver
	logger      *zap.Logger
}

// Archiver uploads the momentum log of a finished run
type Archiver interface {
	Archive(ctx context.Context, runID uuid.UUID) (string, error)
}

// RunServiceConfig carries the optional dependencies of a RunService
type RunServiceConfig struct {
	Detectors DetectorRepository
	Counters  RunCounters
	Events    EventRepository
	Detector  *geometry.Detector
	Archiver  Archiver
}

// NewRunService creates a new RunService
func NewRunService(logger *zap.Logger, runs RunRepository, aggregators *run.Registry, cfg RunServiceConfig) *RunService {
	return &RunService{
		runs:        runs,
		detectors:   cfg.Detectors,
		counters:    cfg.Counters,
		events:      cfg.Events,
		aggregators: aggregators,
		detector:    cfg.Detector,
		archiver:    cfg.Archiver,
		logger:      logger.Named("runs"),
	}
}

// Create opens a new run and records the detector it uses
func (s *RunService) Create(ctx context.Context, input *domain.RunInput) (*domain.Run, error) {
	if input.Name == "" {
		return nil, apperrors.Validation("run name is required")
	}

	r := &domain.Run{
		ID:        id.New(),
		Name:      input.Name,
		Status:    domain.RunStatusRunning,
		StartedAt: time.Now().UTC(),
	}

	if err := s.runs.Create(ctx, r); err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}
	s.aggregators.Get(r.ID)

	if s.detectors != nil && s.detector != nil {
		snap, err := s.detector.Snapshot(r.ID)
		if err != nil {
			return nil, err
		}
		if err := s.detectors.Save(ctx, snap); err != nil {
			return nil, fmt.Errorf("failed to save detector snapshot: %w", err)
		}
	}

	s.logger.Info("run created",
		zap.String("run_id", r.ID.String()),
		zap.String("name", r.Name),
	)
	return r, nil
}

// Get returns a run. Running runs carry live statistics.
func (s *RunService) Get(ctx context.Context, id uuid.UUID) (*domain.Run, error) {
	r, err := s.runs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.Status == domain.RunStatusRunning {
		r.Stats = s.liveStats(ctx, id)
	}
	return r, nil
}

// RequireRunning returns a conflict error unless the run exists and is running
func (s *RunService) RequireRunning(ctx context.Context, id uuid.UUID) error {
	r, err := s.runs.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if r.Status != domain.RunStatusRunning {
		return apperrors.Conflict(fmt.Sprintf("run is %s", r.Status))
	}
	return nil
}

// List returns recent runs
func (s *RunService) List(ctx context.Context, limit, offset int) ([]domain.Run, error) {
	return s.runs.List(ctx, limit, offset)
}

// Events returns the stored event summaries of a run
func (s *RunService) Events(ctx context.Context, id uuid.UUID, limit, offset int) ([]domain.EventSummary, error) {
	if s.events == nil {
		return nil, apperrors.Unavailable("event storage is not configured")
	}
	if _, err := s.runs.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return s.events.ListByRun(ctx, id, limit, offset)
}

// MomentumStats aggregates the stored momentum estimates of a run
func (s *RunService) MomentumStats(ctx context.Context, id uuid.UUID) (*domain.MomentumStats, error) {
	if s.events == nil {
		return nil, apperrors.Unavailable("event storage is not configured")
	}
	return s.events.MomentumStats(ctx, id)
}

// Detector returns the detector snapshot recorded for a run
func (s *RunService) Detector(ctx context.Context, id uuid.UUID) (*domain.DetectorSnapshot, error) {
	if s.detectors == nil {
		return nil, apperrors.Unavailable("detector storage is not configured")
	}
	return s.detectors.GetByRunID(ctx, id)
}

// Complete closes a run with its final statistics
func (s *RunService) Complete(ctx context.Context, id uuid.UUID) (*domain.Run, error) {
	return s.finish(ctx, id, domain.RunStatusCompleted, "")
}

// Fail closes a run as failed
func (s *RunService) Fail(ctx context.Context, id uuid.UUID, message string) (*domain.Run, error) {
	return s.finish(ctx, id, domain.RunStatusFailed, message)
}

// Archive uploads the momentum log for a run
func (s *RunService) Archive(ctx context.Context, id uuid.UUID) (string, error) {
	if s.archiver == nil {
		return "", apperrors.Unavailable("archive storage is not configured")
	}
	if _, err := s.runs.GetByID(ctx, id); err != nil {
		return "", err
	}
	return s.archiver.Archive(ctx, id)
}

func (s *RunService) finish(ctx context.Context, id uuid.UUID, status domain.RunStatus, message string) (*domain.Run, error) {
	stats := s.liveStats(ctx, id)

	r, err := s.runs.Finish(ctx, id, status, stats, message)
	if err != nil {
		return nil, err
	}

	s.aggregators.Remove(id)
	if s.counters != nil {
		if err := s.counters.Delete(ctx, id); err != nil {
			s.logger.Warn("failed to delete live run counters",
				zap.String("run_id", id.String()),
				zap.Error(err),
			)
		}
	}

	s.logger.Info("run finished",
		zap.String("run_id", id.String()),
		zap.String("status", string(status)),
		zap.Int64("events", r.Stats.Events),
		zap.Float64("mean_energy", r.Stats.MeanEnergy),
		zap.Float64("rms_energy", r.Stats.RMSEnergy),
	)
	return r, nil
}

// liveStats prefers the shared counters, which see events processed by
// every process, and falls back to the in-process aggregator.
func (s *RunService) liveStats(ctx context.Context, id uuid.UUID) domain.RunStats {
	if s.counters != nil {
		stats, err := s.counters.Get(ctx, id)
		if err == nil {
			return stats
		}
		s.logger.Warn("failed to read live run counters, using local aggregator",
			zap.String("run_id", id.String()),
			zap.Error(err),
		)
	}
	if agg, ok := s.aggregators.Lookup(id); ok {
		return agg.Stats()
	}
	return domain.RunStats{}
}
