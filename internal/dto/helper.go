package dto

import (
	"github.com/gofiber/fiber/v2"

	apperrors "github.com/tofscope/tofscope/internal/pkg/errors"
	"github.com/tofscope/tofscope/internal/validator"
)

// ParseAndValidate parses the request body into v and validates it. Failures
// are returned as application errors for the error handler to render.
func ParseAndValidate(c *fiber.Ctx, v any) error {
	if err := c.BodyParser(v); err != nil {
		return apperrors.BadRequest("invalid request body").WithError(err)
	}

	if err := validator.Validate(v); err != nil {
		return validator.ToAppError(err)
	}

	return nil
}
