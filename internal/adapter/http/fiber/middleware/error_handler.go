package middleware

import (
	"errors"
	"io/fs"

	"github.com/gofiber/fiber/v2"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/urjalabs/solatlas/internal/domain"
)

// ErrorHandler renders every error escaping a handler as `{"error": ...}`.
// Domain errors carry their own status: an out-of-coverage point is a 422,
// a missing file or zone is a 404, an open breaker is a 503.
func ErrorHandler(log *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError

		var fiberErr *fiber.Error
		var coverageErr *domain.OutOfCoverageError

		switch {
		case errors.As(err, &fiberErr):
			code = fiberErr.Code
		case errors.As(err, &coverageErr):
			code = fiber.StatusUnprocessableEntity
		case errors.Is(err, fs.ErrNotExist):
			code = fiber.StatusNotFound
		case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
			code = fiber.StatusServiceUnavailable
		}

		if code == fiber.StatusInternalServerError {
			log.Error("Internal Server Error", zap.Error(err), zap.String("path", c.Path()))
		}

		return c.Status(code).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
}
