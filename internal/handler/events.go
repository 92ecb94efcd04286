package handler

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/tofscope/tofscope/internal/domain"
	"github.com/tofscope/tofscope/internal/dto"
	apperrors "github.com/tofscope/tofscope/internal/pkg/errors"
	"github.com/tofscope/tofscope/internal/service"
	"github.com/tofscope/tofscope/internal/worker"
)

// EventsHandler handles event ingestion for a run
type EventsHandler struct {
	events   *service.EventService
	runner   *service.Runner
	runs     *service.RunService
	enqueuer worker.Enqueuer
	workers  int
	logger   *zap.Logger
}

// EventsHandlerConfig holds the optional parts of an EventsHandler
type EventsHandlerConfig struct {
	// Enqueuer enables the async endpoint
	Enqueuer worker.Enqueuer
	// Workers is the pool size of the batch endpoint
	Workers int
}

// NewEventsHandler creates a new events handler
func NewEventsHandler(
	events *service.EventService,
	runs *service.RunService,
	logger *zap.Logger,
	cfg EventsHandlerConfig,
) *EventsHandler {
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	return &EventsHandler{
		events:   events,
		runner:   service.NewRunner(events, logger),
		runs:     runs,
		enqueuer: cfg.Enqueuer,
		workers:  workers,
		logger:   logger,
	}
}

// ProcessEvent handles POST /api/v1/runs/:id/events.
// With ?strict=true an event without a defined momentum is rejected with 422
// after it has been accounted.
func (h *EventsHandler) ProcessEvent(c *fiber.Ctx) error {
	id, err := runID(c)
	if err != nil {
		return err
	}

	var in domain.EventInput
	if err := dto.ParseAndValidate(c, &in); err != nil {
		return err
	}

	if err := h.runs.RequireRunning(c.UserContext(), id); err != nil {
		return err
	}

	summary, err := h.events.Process(c.UserContext(), id, in)
	if err != nil {
		return err
	}

	if c.QueryBool("strict") {
		if err := service.MomentumError(summary); err != nil {
			return err
		}
	}

	return c.Status(fiber.StatusCreated).JSON(dto.EventResponse{Summary: summary})
}

// ProcessBatch handles POST /api/v1/runs/:id/events/batch
func (h *EventsHandler) ProcessBatch(c *fiber.Ctx) error {
	id, err := runID(c)
	if err != nil {
		return err
	}

	var req dto.EventBatchRequest
	if err := dto.ParseAndValidate(c, &req); err != nil {
		return err
	}

	if err := h.runs.RequireRunning(c.UserContext(), id); err != nil {
		return err
	}

	report, err := h.runner.Run(c.UserContext(), id, service.NewSliceSource(req.Events), h.workers)
	if err != nil {
		h.logger.Error("batch replay failed", zap.String("run_id", id.String()), zap.Error(err))
		return apperrors.Internal("batch replay failed").WithError(err)
	}

	return c.JSON(dto.ReplayResponse{Report: report})
}

// EnqueueEvents handles POST /api/v1/runs/:id/events/async
func (h *EventsHandler) EnqueueEvents(c *fiber.Ctx) error {
	if h.enqueuer == nil {
		return apperrors.Unavailable("task queue is not configured")
	}

	id, err := runID(c)
	if err != nil {
		return err
	}

	var req dto.EventBatchRequest
	if err := dto.ParseAndValidate(c, &req); err != nil {
		return err
	}

	if err := h.runs.RequireRunning(c.UserContext(), id); err != nil {
		return err
	}

	ids, err := worker.EnqueueEvents(c.UserContext(), h.enqueuer, id, req.Events)
	if err != nil {
		return apperrors.Internal("failed to enqueue events").WithError(err)
	}

	return c.Status(fiber.StatusAccepted).JSON(dto.EnqueueResponse{TaskIDs: ids})
}

// RegisterRoutes registers event routes. Middleware in mw wraps every
// ingestion endpoint.
func (h *EventsHandler) RegisterRoutes(r fiber.Router, mw ...fiber.Handler) {
	g := r.Group("/runs/:id/events", mw...)
	g.Post("/", h.ProcessEvent)
	g.Post("/batch", h.ProcessBatch)
	g.Post("/async", h.EnqueueEvents)
}
