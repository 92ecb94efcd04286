// Package app assembles the detector, the momentum log, the stores and the
// services shared by the server, the worker and the CLI.
package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/tofscope/tofscope/internal/config"
	"github.com/tofscope/tofscope/internal/geometry"
	chrepo "github.com/tofscope/tofscope/internal/repository/clickhouse"
	"github.com/tofscope/tofscope/internal/repository/memory"
	pgrepo "github.com/tofscope/tofscope/internal/repository/postgres"
	redisrepo "github.com/tofscope/tofscope/internal/repository/redis"
	"github.com/tofscope/tofscope/internal/run"
	"github.com/tofscope/tofscope/internal/service"
	"github.com/tofscope/tofscope/internal/sink"
)

// App holds the assembled components
type App struct {
	Config   *config.Config
	Logger   *zap.Logger
	DB       *Databases
	Detector *geometry.Detector
	Log      *sink.MomentumLog

	Aggregators *run.Registry
	Events      *service.EventService
	Runs        *service.RunService
	// Archive is nil when object storage is disabled
	Archive *service.ArchiveService
}

// New builds the detector, opens the momentum log, connects the enabled
// stores and wires the services. source labels the event metrics.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger, source string) (*App, error) {
	detector, err := geometry.NewBuilder(cfg.Detector, logger).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build detector: %w", err)
	}

	dbs, err := initDatabases(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	momentumLog, err := sink.Open(cfg.Output.MomentumLog, logger, sink.Options{
		QueueSize: cfg.Output.QueueSize,
		Fsync:     cfg.Output.Fsync,
	})
	if err != nil {
		dbs.Close()
		return nil, fmt.Errorf("failed to open momentum log: %w", err)
	}

	a := &App{
		Config:      cfg,
		Logger:      logger,
		DB:          dbs,
		Detector:    detector,
		Log:         momentumLog,
		Aggregators: run.NewRegistry(),
	}
	a.initServices(source)

	return a, nil
}

func (a *App) initServices(source string) {
	opts := []service.EventServiceOption{
		service.WithDetector(a.Detector),
		service.WithSource(source),
	}
	var runCfg service.RunServiceConfig
	runCfg.Detector = a.Detector

	if a.DB.ClickHouse != nil {
		repo := chrepo.NewEventRepository(a.DB.ClickHouse, a.Logger)
		opts = append(opts, service.WithEventRepository(repo))
		runCfg.Events = repo
	}
	if a.DB.Redis != nil {
		counters := redisrepo.NewRunCounters(a.DB.Redis, redisrepo.DefaultCounterTTL, a.Logger)
		opts = append(opts, service.WithRunCounters(counters))
		runCfg.Counters = counters
	}
	if a.DB.SQLX != nil {
		runCfg.Detectors = pgrepo.NewDetectorRepository(a.DB.SQLX)
	}
	if a.DB.Minio != nil {
		a.Archive = service.NewArchiveService(a.Logger, a.DB.Minio, a.Config.MinIO.Bucket, a.Config.Output.MomentumLog)
		runCfg.Archiver = a.Archive
	}

	var runs service.RunRepository = memory.NewRunRepository()
	if a.DB.Postgres != nil {
		runs = pgrepo.NewRunRepository(a.DB.Postgres)
	}

	a.Events = service.NewEventService(a.Logger, a.Config.Physics.Constants(), a.Log, a.Aggregators, opts...)
	a.Runs = service.NewRunService(a.Logger, runs, a.Aggregators, runCfg)
}

// Close drains the momentum log and closes the store connections
func (a *App) Close() error {
	err := a.Log.Close()
	a.DB.Close()
	if err != nil {
		return fmt.Errorf("failed to close momentum log: %w", err)
	}
	return nil
}
