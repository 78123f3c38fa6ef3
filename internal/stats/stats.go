// Package stats summarizes the flag ledger and current risk levels for dashboards.
package stats

import (
	"context"
	"fmt"
	"time"

	"modengine/internal/models"
	"modengine/internal/store"
)

// RiskAssessor assesses every known company.
type RiskAssessor interface {
	AssessCompanies(ctx context.Context) ([]models.CompanyRiskAssessment, error)
}

// Aggregator builds ModerationStatistics.
type Aggregator struct {
	flags store.FlagStore
	risk  RiskAssessor
	now   func() time.Time
}

// NewAggregator creates an Aggregator.
func NewAggregator(flags store.FlagStore, risk RiskAssessor) *Aggregator {
	return &Aggregator{flags: flags, risk: risk, now: time.Now}
}

// Summarize counts flags by status and content type and companies by risk
// level. Every total is the sum of its buckets.
func (a *Aggregator) Summarize(ctx context.Context) (*models.ModerationStatistics, error) {
	counts, err := a.flags.CountFlags(ctx)
	if err != nil {
		return nil, fmt.Errorf("count flags: %w", err)
	}

	out := &models.ModerationStatistics{
		ByContentType: make(map[models.ContentType]int),
		ComputedAt:    a.now().UTC(),
	}
	for _, c := range counts {
		out.Flags.Add(c.Status, c.Count)
		out.ByContentType[c.ContentType] += c.Count
	}

	assessments, err := a.risk.AssessCompanies(ctx)
	if err != nil {
		return nil, fmt.Errorf("assess companies: %w", err)
	}
	for _, as := range assessments {
		out.Risk.Add(as.RiskLevel)
	}

	return out, nil
}
