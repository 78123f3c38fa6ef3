// Package risk scores marketplace companies from profile, flag and payment
// signals and raises alerts when a company becomes high risk.
package risk

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"modengine/internal/apperr"
	"modengine/internal/metrics"
	"modengine/internal/models"
	"modengine/internal/store"
)

// DefaultConcurrency bounds AssessAll when no limit is configured.
const DefaultConcurrency = 8

// DefaultHistoryLimit bounds History when the caller passes no limit.
const DefaultHistoryLimit = 30

// Store is the persistence the risk service needs.
type Store interface {
	store.CompanyStore
	store.RiskLevelStore
	store.SnapshotStore
}

// Alerter is told about companies that newly reached the high level.
type Alerter interface {
	NotifyHighRisk(ctx context.Context, assessments []models.CompanyRiskAssessment) error
}

// Config tunes a Service.
type Config struct {
	Policy        Policy
	Concurrency   int
	SaveSnapshots bool
	Alerter       Alerter
}

// Service computes assessments on demand.
type Service struct {
	store  Store
	cfg    Config
	logger *zap.Logger
	now    func() time.Time
}

// NewService creates a Service. A zero Policy falls back to DefaultPolicy.
func NewService(st Store, cfg Config, logger *zap.Logger) *Service {
	if cfg.Policy.Version == "" {
		cfg.Policy = DefaultPolicy()
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: st, cfg: cfg, logger: logger, now: time.Now}
}

// Policy returns the active policy.
func (s *Service) Policy() Policy {
	return s.cfg.Policy
}

// Assess computes the current assessment of one company.
func (s *Service) Assess(ctx context.Context, companyID uuid.UUID) (*models.CompanyRiskAssessment, error) {
	now := s.now()
	signals, err := s.store.GetRiskSignals(ctx, companyID, now.Add(-models.FlagLookbackWindow))
	if errors.Is(err, store.ErrCompanyNotFound) {
		return nil, apperr.NotFound("company", companyID.String())
	}
	if err != nil {
		return nil, fmt.Errorf("risk signals for %s: %w", companyID, err)
	}

	a := Compute(companyID, *signals, s.cfg.Policy, now)

	if s.cfg.SaveSnapshots {
		if err := s.store.SaveSnapshot(ctx, &a); err != nil {
			s.logger.Warn("failed to save risk snapshot",
				zap.String("company_id", companyID.String()),
				zap.Error(err),
			)
		}
	}
	return &a, nil
}

// AssessAll assesses the given companies with bounded concurrency. Results
// follow the order of ids. If ctx is cancelled no further companies are
// started; the assessments already computed are returned with the error.
func (s *Service) AssessAll(ctx context.Context, ids []uuid.UUID) ([]models.CompanyRiskAssessment, error) {
	results := make([]*models.CompanyRiskAssessment, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Concurrency)

	for i, id := range ids {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			a, err := s.Assess(gctx, id)
			if err != nil {
				return err
			}
			results[i] = a
			return nil
		})
	}

	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}

	out := make([]models.CompanyRiskAssessment, 0, len(ids))
	for _, a := range results {
		if a != nil {
			out = append(out, *a)
		}
	}
	return out, err
}

// AssessCompanies assesses every known company.
func (s *Service) AssessCompanies(ctx context.Context) ([]models.CompanyRiskAssessment, error) {
	ids, err := s.store.ListCompanyIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list companies: %w", err)
	}
	return s.AssessAll(ctx, ids)
}

// Query narrows and orders an assessment listing.
type Query struct {
	Level    models.RiskLevel
	MinScore int
	// SortAsc orders by ascending score; the default is highest first.
	SortAsc bool
}

// List assesses every company and applies q.
func (s *Service) List(ctx context.Context, q Query) ([]models.CompanyRiskAssessment, error) {
	if q.Level != "" && !q.Level.Valid() {
		return nil, apperr.Validation("level", "level must be one of low, medium, high")
	}
	all, err := s.AssessCompanies(ctx)
	if err != nil {
		return nil, err
	}
	return Filter(all, q), nil
}

// Filter applies q to assessments. Ties keep their original order.
func Filter(assessments []models.CompanyRiskAssessment, q Query) []models.CompanyRiskAssessment {
	out := make([]models.CompanyRiskAssessment, 0, len(assessments))
	for _, a := range assessments {
		if q.Level != "" && a.RiskLevel != q.Level {
			continue
		}
		if a.RiskScore < q.MinScore {
			continue
		}
		out = append(out, a)
	}
	slices.SortStableFunc(out, func(a, b models.CompanyRiskAssessment) int {
		if q.SortAsc {
			return cmp.Compare(a.RiskScore, b.RiskScore)
		}
		return cmp.Compare(b.RiskScore, a.RiskScore)
	})
	return out
}

// CheckHighRisk assesses every company, records each company's level and
// returns the companies whose level became high since the previous check.
// A company that stays high is not returned again; one that drops below high
// and climbs back is.
func (s *Service) CheckHighRisk(ctx context.Context) ([]models.CompanyRiskAssessment, error) {
	all, err := s.AssessCompanies(ctx)
	if err != nil {
		return nil, err
	}

	newlyHigh := []models.CompanyRiskAssessment{}
	for _, a := range all {
		changed, err := s.store.RecordLevel(ctx, a.CompanyID, a.RiskLevel, a.RiskScore)
		if err != nil {
			return nil, fmt.Errorf("record risk level for %s: %w", a.CompanyID, err)
		}
		if changed && a.RiskLevel == models.RiskHigh {
			newlyHigh = append(newlyHigh, a)
		}
	}

	s.logger.Info("high risk check complete",
		zap.Int("assessed", len(all)),
		zap.Int("newly_high", len(newlyHigh)),
	)

	if len(newlyHigh) == 0 {
		return newlyHigh, nil
	}
	metrics.RecordHighRiskAlerts(len(newlyHigh))

	if s.cfg.Alerter != nil {
		if err := s.cfg.Alerter.NotifyHighRisk(ctx, newlyHigh); err != nil {
			s.logger.Error("failed to send high risk alert",
				zap.Int("companies", len(newlyHigh)),
				zap.Error(err),
			)
		}
	}
	return newlyHigh, nil
}

// History returns stored snapshots for a company, newest first.
func (s *Service) History(ctx context.Context, companyID uuid.UUID, limit int) ([]models.CompanyRiskAssessment, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	snapshots, err := s.store.ListSnapshots(ctx, companyID, limit)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	return snapshots, nil
}
