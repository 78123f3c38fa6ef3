package api

import (
	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"modengine/internal/stats"
)

// StatsHandler serves the moderation dashboard summary.
type StatsHandler struct {
	aggregator *stats.Aggregator
	logger     *zap.Logger
}

// NewStatsHandler creates a new stats handler.
func NewStatsHandler(aggregator *stats.Aggregator, logger *zap.Logger) *StatsHandler {
	return &StatsHandler{aggregator: aggregator, logger: logger}
}

// Summary returns flag counts and risk level counts.
func (h *StatsHandler) Summary(c fiber.Ctx) error {
	summary, err := h.aggregator.Summarize(c.Context())
	if err != nil {
		return handleError(c, h.logger, err)
	}
	return jsonSuccess(c, summary)
}
