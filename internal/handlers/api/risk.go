package api

import (
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"modengine/internal/models"
	"modengine/internal/risk"
)

// RiskHandler serves company risk assessments.
type RiskHandler struct {
	service *risk.Service
	logger  *zap.Logger
}

// NewRiskHandler creates a new risk handler.
func NewRiskHandler(service *risk.Service, logger *zap.Logger) *RiskHandler {
	return &RiskHandler{service: service, logger: logger}
}

// List assesses every company. Supports ?level=, ?min_score= and ?sort=asc|desc.
func (h *RiskHandler) List(c fiber.Ctx) error {
	q := risk.Query{Level: models.RiskLevel(strings.ToLower(c.Query("level")))}

	minScore, err := queryInt(c, "min_score")
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "min_score must be an integer")
	}
	q.MinScore = minScore

	switch strings.ToLower(c.Query("sort")) {
	case "", "desc":
	case "asc":
		q.SortAsc = true
	default:
		return jsonError(c, fiber.StatusBadRequest, "sort must be asc or desc")
	}

	assessments, err := h.service.List(c.Context(), q)
	if err != nil {
		return handleError(c, h.logger, err)
	}
	return jsonSuccess(c, fiber.Map{
		"policy_version": h.service.Policy().Version,
		"companies":      assessments,
	})
}

// Get assesses one company.
func (h *RiskHandler) Get(c fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid company id")
	}

	assessment, err := h.service.Assess(c.Context(), id)
	if err != nil {
		return handleError(c, h.logger, err)
	}
	return jsonSuccess(c, assessment)
}

// History returns stored snapshots, newest first. ?limit= caps the result.
func (h *RiskHandler) History(c fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid company id")
	}

	limit, err := queryInt(c, "limit")
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "limit must be an integer")
	}

	snapshots, err := h.service.History(c.Context(), id, limit)
	if err != nil {
		return handleError(c, h.logger, err)
	}
	return jsonSuccess(c, snapshots)
}

// CheckHighRisk runs the escalation check and returns companies newly at high risk.
func (h *RiskHandler) CheckHighRisk(c fiber.Ctx) error {
	newlyHigh, err := h.service.CheckHighRisk(c.Context())
	if err != nil {
		return handleError(c, h.logger, err)
	}
	return jsonSuccess(c, fiber.Map{
		"newly_high_risk": newlyHigh,
		"count":           len(newlyHigh),
	})
}
