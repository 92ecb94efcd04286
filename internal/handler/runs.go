package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tofscope/tofscope/internal/dto"
	"github.com/tofscope/tofscope/internal/pkg/pagination"
	"github.com/tofscope/tofscope/internal/service"
	"github.com/tofscope/tofscope/internal/worker"
)

// RunsHandler handles run endpoints
type RunsHandler struct {
	runs     *service.RunService
	enqueuer worker.Enqueuer
	logger   *zap.Logger
}

// NewRunsHandler creates a new runs handler. The enqueuer may be nil, in
// which case archives run synchronously.
func NewRunsHandler(runs *service.RunService, enqueuer worker.Enqueuer, logger *zap.Logger) *RunsHandler {
	return &RunsHandler{
		runs:     runs,
		enqueuer: enqueuer,
		logger:   logger,
	}
}

// CreateRun handles POST /api/v1/runs
func (h *RunsHandler) CreateRun(c *fiber.Ctx) error {
	var req dto.CreateRunRequest
	if err := dto.ParseAndValidate(c, &req); err != nil {
		return err
	}

	run, err := h.runs.Create(c.UserContext(), req.ToInput())
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(run)
}

// ListRuns handles GET /api/v1/runs
func (h *RunsHandler) ListRuns(c *fiber.Ctx) error {
	p, err := ParsePagination(c, 500)
	if err != nil {
		return err
	}

	runs, err := h.runs.List(c.UserContext(), p.Limit, p.Offset)
	if err != nil {
		return err
	}

	return c.JSON(pagination.NewPage(runs, p))
}

// GetRun handles GET /api/v1/runs/:id
func (h *RunsHandler) GetRun(c *fiber.Ctx) error {
	id, err := runID(c)
	if err != nil {
		return err
	}

	run, err := h.runs.Get(c.UserContext(), id)
	if err != nil {
		return err
	}

	return c.JSON(run)
}

// CompleteRun handles POST /api/v1/runs/:id/complete.
// With ?archive=true the momentum log is archived afterwards.
func (h *RunsHandler) CompleteRun(c *fiber.Ctx) error {
	id, err := runID(c)
	if err != nil {
		return err
	}

	run, err := h.runs.Complete(c.UserContext(), id)
	if err != nil {
		return err
	}

	if c.QueryBool("archive") {
		h.archive(c, run.ID)
	}

	return c.JSON(run)
}

// archive queues the momentum log upload, or runs it inline without a
// queue. Failures are logged; the run stays completed.
func (h *RunsHandler) archive(c *fiber.Ctx, id uuid.UUID) {
	if h.enqueuer != nil {
		taskID, err := worker.EnqueueRunArchive(c.UserContext(), h.enqueuer, id)
		if err != nil {
			h.logger.Warn("failed to enqueue archive", zap.String("run_id", id.String()), zap.Error(err))
			return
		}
		c.Set("X-Archive-Task", taskID)
		return
	}

	object, err := h.runs.Archive(c.UserContext(), id)
	if err != nil {
		h.logger.Warn("failed to archive completed run", zap.String("run_id", id.String()), zap.Error(err))
		return
	}
	c.Set("X-Archive-Object", object)
}

// FailRun handles POST /api/v1/runs/:id/fail
func (h *RunsHandler) FailRun(c *fiber.Ctx) error {
	id, err := runID(c)
	if err != nil {
		return err
	}

	var req dto.FailRunRequest
	if err := dto.ParseAndValidate(c, &req); err != nil {
		return err
	}

	run, err := h.runs.Fail(c.UserContext(), id, req.Message)
	if err != nil {
		return err
	}

	return c.JSON(run)
}

// ArchiveRun handles POST /api/v1/runs/:id/archive
func (h *RunsHandler) ArchiveRun(c *fiber.Ctx) error {
	id, err := runID(c)
	if err != nil {
		return err
	}

	object, err := h.runs.Archive(c.UserContext(), id)
	if err != nil {
		return err
	}

	return c.JSON(dto.ArchiveResponse{Object: object})
}

// ListEvents handles GET /api/v1/runs/:id/events
func (h *RunsHandler) ListEvents(c *fiber.Ctx) error {
	id, err := runID(c)
	if err != nil {
		return err
	}
	p, err := ParsePagination(c, 1000)
	if err != nil {
		return err
	}

	events, err := h.runs.Events(c.UserContext(), id, p.Limit, p.Offset)
	if err != nil {
		return err
	}

	return c.JSON(pagination.NewPage(events, p))
}

// MomentumStats handles GET /api/v1/runs/:id/momentum
func (h *RunsHandler) MomentumStats(c *fiber.Ctx) error {
	id, err := runID(c)
	if err != nil {
		return err
	}

	stats, err := h.runs.MomentumStats(c.UserContext(), id)
	if err != nil {
		return err
	}

	return c.JSON(stats)
}

// GetDetector handles GET /api/v1/runs/:id/detector
func (h *RunsHandler) GetDetector(c *fiber.Ctx) error {
	id, err := runID(c)
	if err != nil {
		return err
	}

	snap, err := h.runs.Detector(c.UserContext(), id)
	if err != nil {
		return err
	}

	return c.JSON(snap)
}

// RegisterRoutes registers run routes
func (h *RunsHandler) RegisterRoutes(r fiber.Router) {
	r.Post("/runs", h.CreateRun)
	r.Get("/runs", h.ListRuns)
	r.Get("/runs/:id", h.GetRun)
	r.Post("/runs/:id/complete", h.CompleteRun)
	r.Post("/runs/:id/fail", h.FailRun)
	r.Post("/runs/:id/archive", h.ArchiveRun)
	r.Get("/runs/:id/events", h.ListEvents)
	r.Get("/runs/:id/momentum", h.MomentumStats)
	r.Get("/runs/:id/detector", h.GetDetector)
}
