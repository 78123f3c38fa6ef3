package api

import (
	"errors"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"modengine/internal/apperr"
)

// jsonSuccess returns a 200 response with data wrapped in the standard envelope.
func jsonSuccess(c fiber.Ctx, data any) error {
	return c.JSON(fiber.Map{
		"status": "ok",
		"data":   data,
	})
}

// jsonCreated is jsonSuccess with a 201 status.
func jsonCreated(c fiber.Ctx, data any) error {
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"status": "ok",
		"data":   data,
	})
}

// jsonError returns an error response with the given HTTP status code.
func jsonError(c fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"status": "error",
		"error":  message,
	})
}

// handleError maps service errors onto HTTP responses. Unknown errors are
// logged and reported as 500 without detail.
func handleError(c fiber.Ctx, logger *zap.Logger, err error) error {
	var (
		validation *apperr.ValidationError
		transition *apperr.InvalidTransitionError
	)
	switch {
	case errors.As(err, &validation):
		body := fiber.Map{"status": "error", "error": validation.Error()}
		if validation.Field != "" {
			body["field"] = validation.Field
		}
		return c.Status(fiber.StatusBadRequest).JSON(body)
	case errors.As(err, &transition):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"status":         "error",
			"error":          transition.Error(),
			"current_status": transition.Status,
			"resolved_by":    transition.ReviewedBy,
			"resolved_at":    transition.ReviewedAt,
		})
	case errors.Is(err, apperr.ErrNotFound):
		return jsonError(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, apperr.ErrConflict):
		return jsonError(c, fiber.StatusConflict, err.Error())
	case errors.Is(err, apperr.ErrValidation):
		return jsonError(c, fiber.StatusBadRequest, err.Error())
	}

	logger.Error("request failed",
		zap.String("method", c.Method()),
		zap.String("path", c.Path()),
		zap.Error(err),
	)
	return jsonError(c, fiber.StatusInternalServerError, "internal error")
}
