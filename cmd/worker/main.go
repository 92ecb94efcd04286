package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/tofscope/tofscope/internal/app"
	"github.com/tofscope/tofscope/internal/config"
	"github.com/tofscope/tofscope/internal/middleware"
	"github.com/tofscope/tofscope/internal/pkg/logger"
	"github.com/tofscope/tofscope/internal/worker"
)

const appVersion = "0.1.0"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	if err := logger.Init(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format}); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	log := logger.Log

	log.Info("starting worker service")

	sentryEnabled, err := middleware.InitSentry(middleware.SentryConfig{
		DSN:              cfg.Sentry.DSN,
		Environment:      sentryEnvironment(cfg),
		Release:          "tofscope-worker@" + appVersion,
		TracesSampleRate: cfg.Sentry.TracesSampleRate,
	})
	if err != nil {
		log.Error("failed to initialize Sentry", zap.Error(err))
	}
	if sentryEnabled {
		defer middleware.FlushSentry(5 * time.Second)
	}

	// Tasks travel through Redis, so the worker needs it even when the
	// counters are not used.
	cfg.Redis.Enabled = true

	// Initialize dependencies
	a, err := app.New(context.Background(), cfg, log, "worker")
	if err != nil {
		log.Fatal("failed to initialize dependencies", zap.Error(err))
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.Error("failed to close dependencies", zap.Error(err))
		}
	}()

	deps := &worker.Dependencies{
		Events:        a.Events,
		SentryEnabled: sentryEnabled,
	}
	if a.Archive != nil {
		deps.Archiver = a.Archive
	}

	// Create worker server
	workerServer, err := worker.NewServer(log, cfg, deps)
	if err != nil {
		log.Fatal("failed to create worker server", zap.Error(err))
	}

	// Start worker in a goroutine
	errCh := make(chan error, 1)
	go func() {
		errCh <- workerServer.Start()
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		log.Info("shutting down worker...")
		workerServer.Stop()
	case err := <-errCh:
		if err != nil {
			log.Error("worker server error", zap.Error(err))
		}
	}

	log.Info("worker stopped")
}

func sentryEnvironment(cfg *config.Config) string {
	if cfg.Sentry.Environment != "" {
		return cfg.Sentry.Environment
	}
	return cfg.Server.Env
}
