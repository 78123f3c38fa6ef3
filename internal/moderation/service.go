// Package moderation scans user content against keyword rules and carries the
// resulting flags through admin review.
package moderation

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"modengine/internal/apperr"
	"modengine/internal/metrics"
	"modengine/internal/models"
)

// Service is the entry point for content created by the host application.
type Service struct {
	registry *Registry
	ledger   *Ledger
	logger   *zap.Logger
}

// NewService wires a Service.
func NewService(registry *Registry, ledger *Ledger, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{registry: registry, ledger: ledger, logger: logger}
}

// SubmitForModeration scans content and records a pending flag when it matches
// an active rule. It returns nil, nil for clean content.
func (s *Service) SubmitForModeration(ctx context.Context, content models.Content) (*models.ContentFlag, error) {
	if content == nil {
		return nil, apperr.Validation("content", "content payload must match content_type")
	}
	if !content.Type().Valid() {
		return nil, apperr.Validation("content_type", "content type must be message or review")
	}
	if strings.TrimSpace(content.ContentID()) == "" {
		return nil, apperr.Validation("id", "content id is required")
	}

	rules, err := s.registry.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("load rules: %w", err)
	}

	candidate := Scan(rules, content.Text(), content.Type(), content.ContentID(), content.AuthorID())
	if candidate == nil {
		metrics.RecordScan(string(content.Type()), metrics.OutcomeClean)
		return nil, nil
	}
	metrics.RecordScan(string(content.Type()), metrics.OutcomeFlagged)

	return s.ledger.CreateFlag(ctx, *candidate)
}
