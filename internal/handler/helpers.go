package handler

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	apperrors "github.com/tofscope/tofscope/internal/pkg/errors"
	"github.com/tofscope/tofscope/internal/pkg/pagination"
)

// ParsePagination extracts limit and offset query parameters. A cursor
// query parameter, as returned in nextCursor, takes precedence over offset.
// maxLimit specifies the maximum allowed limit (0 for no maximum).
func ParsePagination(c *fiber.Ctx, maxLimit int) (pagination.Params, error) {
	offset := parseQueryInt(c, "offset", 0)

	cursor, err := pagination.DecodeCursor(c.Query("cursor"))
	if err != nil {
		return pagination.Params{}, apperrors.BadRequest("invalid cursor")
	}
	if cursor != nil {
		offset = cursor.Offset
	}

	return pagination.Normalize(parseQueryInt(c, "limit", pagination.DefaultLimit), offset, maxLimit), nil
}

func parseQueryInt(c *fiber.Ctx, key string, defaultValue int) int {
	val := c.Query(key)
	if val == "" {
		return defaultValue
	}
	intVal, err := strconv.Atoi(val)
	if err != nil {
		return defaultValue
	}
	return intVal
}

// runID parses the :id route parameter
func runID(c *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, apperrors.BadRequest("invalid run ID")
	}
	return id, nil
}
