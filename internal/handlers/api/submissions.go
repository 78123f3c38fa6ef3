package api

import (
	"encoding/json"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"modengine/internal/models"
	"modengine/internal/moderation"
)

// SubmissionHandler receives content from the host application.
type SubmissionHandler struct {
	service *moderation.Service
	logger  *zap.Logger
}

// NewSubmissionHandler creates a new submission handler.
func NewSubmissionHandler(service *moderation.Service, logger *zap.Logger) *SubmissionHandler {
	return &SubmissionHandler{service: service, logger: logger}
}

// Submit scans a message or review. Flagged content answers 201 with the new
// flag; clean content answers 200.
func (h *SubmissionHandler) Submit(c fiber.Ctx) error {
	var sub models.Submission
	if err := json.Unmarshal(c.Body(), &sub); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid request body")
	}

	flag, err := h.service.SubmitForModeration(c.Context(), sub.Content())
	if err != nil {
		return handleError(c, h.logger, err)
	}

	if flag == nil {
		return jsonSuccess(c, fiber.Map{"flagged": false})
	}
	return jsonCreated(c, fiber.Map{
		"flagged": true,
		"flag":    flag,
	})
}
