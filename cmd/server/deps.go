package main

import (
	"context"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/tofscope/tofscope/internal/app"
	"github.com/tofscope/tofscope/internal/config"
	"github.com/tofscope/tofscope/internal/handler"
	"github.com/tofscope/tofscope/internal/middleware"
	"github.com/tofscope/tofscope/internal/worker"
)

// Handlers holds all HTTP handlers
type Handlers struct {
	Health   *handler.HealthHandler
	Runs     *handler.RunsHandler
	Events   *handler.EventsHandler
	Geometry *handler.GeometryHandler
}

// Dependencies holds all application dependencies
type Dependencies struct {
	Config *config.Config
	Logger *zap.Logger
	App    *app.App

	// AsynqClient is nil without Redis
	AsynqClient *asynq.Client
	// RateLimit is nil when ingestion is not rate limited
	RateLimit *middleware.RateLimitMiddleware

	Handlers *Handlers
}

// initDependencies initializes all application dependencies
func initDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	a, err := app.New(ctx, cfg, logger, "api")
	if err != nil {
		return nil, err
	}

	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
		App:    a,
	}

	var enqueuer worker.Enqueuer
	if a.DB.Redis != nil {
		deps.AsynqClient = asynq.NewClient(worker.RedisOpt(cfg))
		enqueuer = deps.AsynqClient

		if cfg.Server.IngestRateLimit > 0 {
			deps.RateLimit = middleware.NewRateLimitMiddleware(a.DB.Redis.Client, logger, middleware.RateLimitConfig{
				Max:          cfg.Server.IngestRateLimit,
				Window:       time.Minute,
				KeyGenerator: middleware.RunKey,
			})
		}
	}

	deps.Handlers = &Handlers{
		Health:   handler.NewHealthHandler(appVersion, healthChecks(a)),
		Runs:     handler.NewRunsHandler(a.Runs, enqueuer, logger),
		Events:   handler.NewEventsHandler(a.Events, a.Runs, logger, handler.EventsHandlerConfig{Enqueuer: enqueuer, Workers: cfg.Worker.EventWorkers}),
		Geometry: handler.NewGeometryHandler(a.Detector),
	}

	return deps, nil
}

// healthChecks lists the connected stores
func healthChecks(a *app.App) map[string]handler.Pinger {
	checks := make(map[string]handler.Pinger)
	if a.DB.Postgres != nil {
		checks["postgres"] = a.DB.Postgres
	}
	if a.DB.ClickHouse != nil {
		checks["clickhouse"] = a.DB.ClickHouse
	}
	if a.DB.Redis != nil {
		checks["redis"] = a.DB.Redis
	}
	if a.DB.Minio != nil {
		minioClient := a.DB.Minio
		bucket := a.Config.MinIO.Bucket
		checks["minio"] = handler.PingFunc(func(ctx context.Context) error {
			_, err := minioClient.BucketExists(ctx, bucket)
			return err
		})
	}
	return checks
}

// Close releases all dependencies. The momentum log is drained last so that
// in-flight requests can still append.
func (d *Dependencies) Close() {
	if d.AsynqClient != nil {
		_ = d.AsynqClient.Close()
	}
	if err := d.App.Close(); err != nil {
		d.Logger.Error("failed to close dependencies", zap.Error(err))
	}
}
