package api

import (
	"encoding/json"
	"strconv"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"modengine/internal/middleware"
	"modengine/internal/models"
	"modengine/internal/moderation"
)

// FlagHandler exposes the review queue to administrators.
type FlagHandler struct {
	ledger *moderation.Ledger
	logger *zap.Logger
}

// NewFlagHandler creates a new flag handler.
func NewFlagHandler(ledger *moderation.Ledger, logger *zap.Logger) *FlagHandler {
	return &FlagHandler{ledger: ledger, logger: logger}
}

// List returns flags filtered by status, content_type and search, newest first.
func (h *FlagHandler) List(c fiber.Ctx) error {
	filter := models.FlagFilter{
		Status:      models.FlagStatus(c.Query("status")),
		ContentType: models.ContentType(c.Query("content_type")),
		Search:      c.Query("search"),
	}

	var err error
	if filter.Limit, err = queryInt(c, "limit"); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "limit must be an integer")
	}
	if filter.Offset, err = queryInt(c, "offset"); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "offset must be an integer")
	}

	flags, err := h.ledger.ListFlags(c.Context(), filter)
	if err != nil {
		return handleError(c, h.logger, err)
	}
	return jsonSuccess(c, flags)
}

// Get returns a single flag.
func (h *FlagHandler) Get(c fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid flag id")
	}

	flag, err := h.ledger.GetFlag(c.Context(), id)
	if err != nil {
		return handleError(c, h.logger, err)
	}
	return jsonSuccess(c, flag)
}

// Review resolves a pending flag with the acting admin's decision.
func (h *FlagHandler) Review(c fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid flag id")
	}

	var in moderation.ReviewInput
	if err := json.Unmarshal(c.Body(), &in); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid request body")
	}
	in.AdminID = middleware.AdminID(c)

	flag, err := h.ledger.Review(c.Context(), id, in)
	if err != nil {
		return handleError(c, h.logger, err)
	}
	return jsonSuccess(c, flag)
}

// Dismiss quick-dismisses a pending flag.
func (h *FlagHandler) Dismiss(c fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid flag id")
	}

	flag, err := h.ledger.QuickDismiss(c.Context(), id, middleware.AdminID(c))
	if err != nil {
		return handleError(c, h.logger, err)
	}
	return jsonSuccess(c, flag)
}

// queryInt parses an optional integer query parameter; absent means 0.
func queryInt(c fiber.Ctx, key string) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}
