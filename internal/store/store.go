// Package store declares the persistence contracts of the moderation engine.
// internal/db implements them on Postgres; internal/store/memory implements them in process.
package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"modengine/internal/models"
)

// RuleStore persists keyword rules. Keywords are unique among active rules;
// writes that would break this return ErrDuplicateKeyword.
type RuleStore interface {
	CreateRule(ctx context.Context, rule *models.KeywordRule) error
	GetRule(ctx context.Context, id uuid.UUID) (*models.KeywordRule, error)
	UpdateRule(ctx context.Context, rule *models.KeywordRule) error
	// ToggleRule flips is_active in one statement.
	ToggleRule(ctx context.Context, id uuid.UUID) (*models.KeywordRule, error)
	DeleteRule(ctx context.Context, id uuid.UUID) error
	// ListRules returns rules in creation order.
	ListRules(ctx context.Context, activeOnly bool) ([]models.KeywordRule, error)
}

// FlagStore persists content flags.
type FlagStore interface {
	CreateFlag(ctx context.Context, flag *models.ContentFlag) error
	GetFlag(ctx context.Context, id uuid.UUID) (*models.ContentFlag, error)
	ListFlags(ctx context.Context, filter models.FlagFilter) ([]models.ContentFlag, error)
	// ResolveFlag atomically moves a pending flag to res.Status. It returns
	// ErrFlagNotPending if the flag has already left pending and ErrFlagNotFound
	// if it does not exist.
	ResolveFlag(ctx context.Context, id uuid.UUID, res models.FlagResolution) (*models.ContentFlag, error)
	// CountFlags groups flags by status and content type.
	CountFlags(ctx context.Context) ([]models.FlagCount, error)
}

// CompanyStore reads the company, payment and flag data that feed risk indicators.
type CompanyStore interface {
	ListCompanyIDs(ctx context.Context) ([]uuid.UUID, error)
	// GetRiskSignals returns ErrCompanyNotFound for unknown companies. Flags
	// created before since are ignored.
	GetRiskSignals(ctx context.Context, companyID uuid.UUID, since time.Time) (*models.RiskSignals, error)
}

// RiskLevelStore remembers the last risk level seen per company so high-risk
// alerts fire once per escalation.
type RiskLevelStore interface {
	// RecordLevel stores level for the company and reports whether it differs
	// from the previously stored level (true when nothing was stored).
	RecordLevel(ctx context.Context, companyID uuid.UUID, level models.RiskLevel, score int) (bool, error)
}

// SnapshotStore keeps historical assessments keyed by (company_id, computed_at).
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, a *models.CompanyRiskAssessment) error
	ListSnapshots(ctx context.Context, companyID uuid.UUID, limit int) ([]models.CompanyRiskAssessment, error)
}

// Store is everything the engine persists.
type Store interface {
	RuleStore
	FlagStore
	CompanyStore
	RiskLevelStore
	SnapshotStore
}
