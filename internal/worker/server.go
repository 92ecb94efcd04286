package worker

import (
	"context"
	"fmt"

	"github.com/getsentry/sentry-go"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/tofscope/tofscope/internal/config"
)

// Server is the worker server
type Server struct {
	logger    *zap.Logger
	config    *config.Config
	server    *asynq.Server
	mux       *asynq.ServeMux
	scheduler *asynq.Scheduler
}

// Dependencies holds the services used by task handlers.
// Archiver may be nil when object storage is disabled.
type Dependencies struct {
	Events        EventProcessor
	Archiver      LogArchiver
	SentryEnabled bool
}

// RedisOpt builds the asynq connection options from config
func RedisOpt(cfg *config.Config) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}
}

// NewServer creates a new worker server
func NewServer(logger *zap.Logger, cfg *config.Config, deps *Dependencies) (*Server, error) {
	if deps.Events == nil {
		return nil, fmt.Errorf("worker requires an event processor")
	}
	redisOpt := RedisOpt(cfg)

	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: cfg.Worker.Concurrency,
			Queues: map[string]int{
				QueueCritical: 6,
				QueueDefault:  3,
				QueueLow:      1,
			},
			ErrorHandler: errorHandler(logger, deps.SentryEnabled),
			Logger:       &asynqLogger{logger: logger},
		},
	)

	s := &Server{
		logger: logger,
		config: cfg,
		server: server,
		mux:    NewMux(logger, deps),
	}

	if deps.Archiver != nil && cfg.Output.ArchiveEvery > 0 {
		s.scheduler = asynq.NewScheduler(redisOpt, nil)
	}

	return s, nil
}

// NewMux registers the task handlers
func NewMux(logger *zap.Logger, deps *Dependencies) *asynq.ServeMux {
	mux := asynq.NewServeMux()

	eventWorker := NewEventWorker(logger, deps.Events)
	mux.HandleFunc(TypeEventProcess, eventWorker.ProcessTask)

	if deps.Archiver != nil {
		archiveWorker := NewArchiveWorker(logger, deps.Archiver)
		mux.HandleFunc(TypeRunArchive, archiveWorker.ProcessTask)
		mux.HandleFunc(TypeLogSnapshot, archiveWorker.ProcessSnapshotTask)
	} else {
		logger.Warn("object storage disabled, archive tasks will not be handled")
	}

	return mux
}

// Start runs the worker server until Stop is called
func (s *Server) Start() error {
	if s.scheduler != nil {
		if err := s.registerScheduledTasks(); err != nil {
			return fmt.Errorf("failed to register scheduled tasks: %w", err)
		}
		go func() {
			if err := s.scheduler.Run(); err != nil {
				s.logger.Error("scheduler stopped", zap.Error(err))
			}
		}()
	}

	s.logger.Info("starting worker server",
		zap.Int("concurrency", s.config.Worker.Concurrency),
	)

	return s.server.Run(s.mux)
}

// Stop stops the worker server
func (s *Server) Stop() {
	s.server.Shutdown()
	if s.scheduler != nil {
		s.scheduler.Shutdown()
	}
}

func (s *Server) registerScheduledTasks() error {
	spec := fmt.Sprintf("@every %s", s.config.Output.ArchiveEvery)
	_, err := s.scheduler.Register(spec, NewLogSnapshotTask(), asynq.Queue(QueueLow))
	if err != nil {
		return fmt.Errorf("failed to register log snapshot task: %w", err)
	}
	return nil
}

func errorHandler(logger *zap.Logger, sentryEnabled bool) asynq.ErrorHandler {
	return asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
		retried, _ := asynq.GetRetryCount(ctx)
		maxRetry, _ := asynq.GetMaxRetry(ctx)

		logger.Error("task processing failed",
			zap.String("type", task.Type()),
			zap.Int("retried", retried),
			zap.Int("max_retry", maxRetry),
			zap.Bool("permanent", IsPermanent(err)),
			zap.Error(err),
		)

		// only report tasks that will not be retried again
		if !sentryEnabled || (retried < maxRetry && !IsPermanent(err)) {
			return
		}
		hub := sentry.CurrentHub().Clone()
		hub.Scope().SetTag("task_type", task.Type())
		if id, ok := asynq.GetTaskID(ctx); ok {
			hub.Scope().SetTag("task_id", id)
		}
		hub.CaptureException(err)
	})
}

// asynqLogger adapts zap.Logger to asynq.Logger
type asynqLogger struct {
	logger *zap.Logger
}

func (l *asynqLogger) Debug(args ...interface{}) {
	l.logger.Debug(fmt.Sprint(args...))
}

func (l *asynqLogger) Info(args ...interface{}) {
	l.logger.Info(fmt.Sprint(args...))
}

func (l *asynqLogger) Warn(args ...interface{}) {
	l.logger.Warn(fmt.Sprint(args...))
}

func (l *asynqLogger) Error(args ...interface{}) {
	l.logger.Error(fmt.Sprint(args...))
}

func (l *asynqLogger) Fatal(args ...interface{}) {
	l.logger.Fatal(fmt.Sprint(args...))
}
