package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/tofscope/tofscope/internal/config"
	"github.com/tofscope/tofscope/internal/middleware"
	"github.com/tofscope/tofscope/internal/pkg/logger"
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

	// Initialize Sentry if a DSN is configured
	sentryConfig := middleware.SentryConfig{
		DSN:              cfg.Sentry.DSN,
		Environment:      cfg.Sentry.Environment,
		Release:          "tofscope@" + appVersion,
		TracesSampleRate: cfg.Sentry.TracesSampleRate,
	}
	if sentryConfig.Environment == "" {
		sentryConfig.Environment = cfg.Server.Env
	}
	sentryEnabled, err := middleware.InitSentry(sentryConfig)
	if err != nil {
		log.Error("failed to initialize Sentry", zap.Error(err))
	}
	if sentryEnabled {
		log.Info("Sentry initialized", zap.String("environment", sentryConfig.Environment))
		defer middleware.FlushSentry(5 * time.Second)
	}

	// Initialize dependencies
	deps, err := initDependencies(context.Background(), cfg, log)
	if err != nil {
		log.Fatal("failed to initialize dependencies", zap.Error(err))
	}
	defer deps.Close()

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:               "tofscope",
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          30 * time.Second,
		IdleTimeout:           120 * time.Second,
		BodyLimit:             64 * 1024 * 1024,
		DisableStartupMessage: cfg.IsProduction(),
		ErrorHandler:          middleware.ErrorHandler(log, sentryEnabled),
	})

	// Apply global middleware
	app.Use(middleware.RequestID())
	app.Use(middleware.RecoverWithSentry(log, sentryEnabled))

	loggerConfig := middleware.DefaultLoggerConfig(log)
	loggerConfig.Skip = middleware.CombinedSkipper(middleware.HealthSkipper, middleware.MetricsSkipper)
	app.Use(middleware.NewLoggerMiddleware(loggerConfig).Handler())

	app.Use(middleware.NewCORSMiddleware(middleware.DefaultCORSConfig()).Handler())
	app.Use(middleware.NewMetricsMiddleware(middleware.DefaultMetricsConfig()).Handler())

	// Register routes
	registerRoutes(app, deps)

	// Start server
	go func() {
		addr := cfg.Server.Addr()
		log.Info("starting server",
			zap.String("addr", addr),
			zap.String("momentum_log", cfg.Output.MomentumLog),
		)
		if err := app.Listen(addr); err != nil {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Error("server shutdown error", zap.Error(err))
	}

	log.Info("server stopped")
}
