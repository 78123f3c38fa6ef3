package server

import (
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"modengine/internal/handlers/api"
	"modengine/internal/middleware"
	"modengine/internal/moderation"
	"modengine/internal/risk"
	"modengine/internal/stats"
)

// Services are the domain services the routes expose.
type Services struct {
	Moderation *moderation.Service
	Registry   *moderation.Registry
	Ledger     *moderation.Ledger
	Risk       *risk.Service
	Stats      *stats.Aggregator
	AdminAuth  *middleware.AdminAuth
	Health     map[string]api.Pinger
}

// RegisterRoutes registers all application routes.
func (s *Server) RegisterRoutes(svc Services) {
	submissionHandler := api.NewSubmissionHandler(svc.Moderation, s.Logger)
	flagHandler := api.NewFlagHandler(svc.Ledger, s.Logger)
	keywordHandler := api.NewKeywordHandler(svc.Registry, s.Logger)
	riskHandler := api.NewRiskHandler(svc.Risk, s.Logger)
	statsHandler := api.NewStatsHandler(svc.Stats, s.Logger)
	healthHandler := api.NewHealthHandler(svc.Health)

	s.App.Get("/healthz", healthHandler.Check)
	s.App.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	v1 := s.App.Group("/api/v1")

	// Ingestion from the host application
	v1.Post("/moderation/submissions", middleware.RequireAPIKey(s.Cfg.IngestAPIKey), submissionHandler.Submit)

	// Registered after ingestion, so the admin middleware never runs for submissions.
	admin := v1.Group("", svc.AdminAuth.RequireAdmin)

	// Review queue
	admin.Get("/flags", flagHandler.List)
	admin.Get("/flags/:id", flagHandler.Get)
	admin.Post("/flags/:id/review", flagHandler.Review)
	admin.Post("/flags/:id/dismiss", flagHandler.Dismiss)

	// Keyword rules
	admin.Get("/keywords", keywordHandler.List)
	admin.Post("/keywords", keywordHandler.Create)
	admin.Get("/keywords/:id", keywordHandler.Get)
	admin.Patch("/keywords/:id", keywordHandler.Update)
	admin.Post("/keywords/:id/toggle", keywordHandler.Toggle)
	admin.Delete("/keywords/:id", keywordHandler.Delete)

	// Company risk
	admin.Get("/risk/companies", riskHandler.List)
	admin.Get("/risk/companies/:id", riskHandler.Get)
	admin.Get("/risk/companies/:id/history", riskHandler.History)
	admin.Post("/risk/check-high-risk", riskHandler.CheckHighRisk)

	admin.Get("/stats", statsHandler.Summary)
}
