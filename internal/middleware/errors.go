package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	apperrors "github.com/tofscope/tofscope/internal/pkg/errors"
)

// ErrorBody is the JSON error envelope
type ErrorBody struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// ErrorResponse wraps ErrorBody
type ErrorResponse struct {
	Error     ErrorBody `json:"error"`
	RequestID string    `json:"requestId,omitempty"`
}

// ErrorHandler maps application and fiber errors to JSON responses. Server
// errors are logged and, when enabled, reported to Sentry; their messages
// are not exposed to clients.
func ErrorHandler(logger *zap.Logger, sentryEnabled bool) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		body := ErrorBody{
			Code:    apperrors.CodeInternal,
			Message: "Internal Server Error",
		}
		status := fiber.StatusInternalServerError

		var fe *fiber.Error
		if appErr := apperrors.GetAppError(err); appErr != nil {
			status = appErr.StatusCode
			body.Code = appErr.Code
			body.Details = appErr.Details
			if status < 500 {
				body.Message = appErr.Message
			}
		} else if errors.As(err, &fe) {
			status = fe.Code
			body.Code = fiberCode(fe.Code)
			body.Message = fe.Message
		}

		if status >= 500 {
			logger.Error("request error",
				zap.Int("status", status),
				zap.Error(err),
				zap.String("path", c.Path()),
				zap.String("method", c.Method()),
				zap.String("request_id", GetRequestID(c)),
			)
			if sentryEnabled {
				CaptureError(c, err)
			}
		}

		return c.Status(status).JSON(ErrorResponse{
			Error:     body,
			RequestID: GetRequestID(c),
		})
	}
}

func fiberCode(status int) string {
	switch status {
	case fiber.StatusNotFound:
		return apperrors.CodeNotFound
	case fiber.StatusBadRequest, fiber.StatusMethodNotAllowed, fiber.StatusRequestEntityTooLarge:
		return apperrors.CodeBadRequest
	case fiber.StatusServiceUnavailable:
		return apperrors.CodeUnavailable
	case fiber.StatusTooManyRequests:
		return "RATE_LIMITED"
	}
	if status >= 500 {
		return apperrors.CodeInternal
	}
	return apperrors.CodeBadRequest
}
