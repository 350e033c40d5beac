package serverutils

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"ng12-assistant-be/internal/apperr"
)

type APIResponse[T any] struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    T      `json:"data,omitempty"`
}

func SuccessResponse[T any](message string, data T) APIResponse[T] {
	return APIResponse[T]{
		Success: true,
		Message: message,
		Data:    data,
	}
}

// ErrorHandlerMiddleware converts errors bubbled out of controllers into
// JSON error responses. Domain sentinels map to specific status codes,
// everything else is a 500.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		status := fiber.StatusInternalServerError
		switch {
		case errors.Is(err, apperr.ErrNotFound):
			status = fiber.StatusNotFound
		case errors.Is(err, apperr.ErrMalformedOutput):
			status = fiber.StatusBadGateway
		case errors.Is(err, apperr.ErrCollaboratorUnavailable):
			status = fiber.StatusServiceUnavailable
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			status = fiberErr.Code
		}

		var validationErr *ValidationError
		if errors.As(err, &validationErr) {
			return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"message": "Validation failed",
				"errors":  validationErr.Fields,
			})
		}

		return ctx.Status(status).JSON(fiber.Map{
			"success": false,
			"message": err.Error(),
		})
	}
}
