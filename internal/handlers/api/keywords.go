package api

import (
	"encoding/json"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"modengine/internal/models"
	"modengine/internal/moderation"
)

// KeywordHandler manages keyword rules.
type KeywordHandler struct {
	registry *moderation.Registry
	logger   *zap.Logger
}

// NewKeywordHandler creates a new keyword handler.
func NewKeywordHandler(registry *moderation.Registry, logger *zap.Logger) *KeywordHandler {
	return &KeywordHandler{registry: registry, logger: logger}
}

// List returns every rule in creation order, or only active ones with ?active=true.
func (h *KeywordHandler) List(c fiber.Ctx) error {
	var (
		rules []models.KeywordRule
		err   error
	)
	if fiber.Query[bool](c, "active") {
		rules, err = h.registry.ListActive(c.Context())
	} else {
		rules, err = h.registry.ListRules(c.Context())
	}
	if err != nil {
		return handleError(c, h.logger, err)
	}
	return jsonSuccess(c, rules)
}

// Get returns one rule.
func (h *KeywordHandler) Get(c fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid keyword id")
	}

	rule, err := h.registry.GetRule(c.Context(), id)
	if err != nil {
		return handleError(c, h.logger, err)
	}
	return jsonSuccess(c, rule)
}

// Create adds a new active rule.
func (h *KeywordHandler) Create(c fiber.Ctx) error {
	var in models.NewKeywordRule
	if err := json.Unmarshal(c.Body(), &in); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid request body")
	}

	rule, err := h.registry.AddRule(c.Context(), in)
	if err != nil {
		return handleError(c, h.logger, err)
	}

	h.logger.Info("keyword rule created",
		zap.String("rule_id", rule.ID.String()),
		zap.String("category", string(rule.Category)),
	)
	return jsonCreated(c, rule)
}

// Update applies a partial edit.
func (h *KeywordHandler) Update(c fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid keyword id")
	}

	var patch models.KeywordRulePatch
	if err := json.Unmarshal(c.Body(), &patch); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid request body")
	}

	rule, err := h.registry.UpdateRule(c.Context(), id, patch)
	if err != nil {
		return handleError(c, h.logger, err)
	}
	return jsonSuccess(c, rule)
}

// Toggle flips a rule between active and inactive.
func (h *KeywordHandler) Toggle(c fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid keyword id")
	}

	rule, err := h.registry.ToggleActive(c.Context(), id)
	if err != nil {
		return handleError(c, h.logger, err)
	}
	return jsonSuccess(c, rule)
}

// Delete removes a rule. Existing flags keep their matched keywords.
func (h *KeywordHandler) Delete(c fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid keyword id")
	}

	if err := h.registry.DeleteRule(c.Context(), id); err != nil {
		return handleError(c, h.logger, err)
	}
	return jsonSuccess(c, fiber.Map{"message": "keyword rule deleted"})
}
