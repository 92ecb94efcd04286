package handler

import (
	"bytes"

	"github.com/gofiber/fiber/v2"

	"github.com/tofscope/tofscope/internal/geometry"
	apperrors "github.com/tofscope/tofscope/internal/pkg/errors"
)

// GeometryHandler serves the detector the server was started with
type GeometryHandler struct {
	detector *geometry.Detector
}

// NewGeometryHandler creates a new geometry handler
func NewGeometryHandler(detector *geometry.Detector) *GeometryHandler {
	return &GeometryHandler{detector: detector}
}

// GetGeometry handles GET /api/v1/geometry. ?format=yaml selects yaml output.
func (h *GeometryHandler) GetGeometry(c *fiber.Ctx) error {
	format := c.Query("format", geometry.FormatJSON)
	if format == geometry.FormatJSON {
		return c.JSON(h.detector.Summary())
	}
	if format != geometry.FormatYAML && format != "yml" {
		return apperrors.BadRequest("unsupported format").WithDetail("format", format)
	}

	var buf bytes.Buffer
	if err := geometry.WriteSummary(&buf, h.detector, format); err != nil {
		return apperrors.Internal("failed to encode geometry").WithError(err)
	}
	c.Set(fiber.HeaderContentType, "application/yaml")
	return c.Send(buf.Bytes())
}

// RegisterRoutes registers geometry routes
func (h *GeometryHandler) RegisterRoutes(r fiber.Router) {
	r.Get("/geometry", h.GetGeometry)
}
