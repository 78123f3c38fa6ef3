package moderation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"modengine/internal/apperr"
	"modengine/internal/metrics"
	"modengine/internal/models"
	"modengine/internal/store"
	"modengine/internal/validation"
)

// QuickDismissNote is stored as the admin note on quick dismissals.
const QuickDismissNote = "Quick dismissed by admin"

// ReviewInput is an administrator's decision on a pending flag.
type ReviewInput struct {
	Decision          models.FlagStatus `json:"decision"`
	AdminID           string            `json:"-"`
	Notes             *string           `json:"notes"`
	ActionDescription *string           `json:"action_description"`
}

// Ledger stores flags and enforces the review workflow.
type Ledger struct {
	flags  store.FlagStore
	logger *zap.Logger
	now    func() time.Time
}

// NewLedger creates a Ledger.
func NewLedger(flags store.FlagStore, logger *zap.Logger) *Ledger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ledger{flags: flags, logger: logger, now: time.Now}
}

// CreateFlag persists a candidate as a pending flag.
func (l *Ledger) CreateFlag(ctx context.Context, c models.FlagCandidate) (*models.ContentFlag, error) {
	if !c.ContentType.Valid() {
		return nil, apperr.Validation("content_type", "content type must be message or review")
	}
	if len(c.MatchedKeywords) == 0 {
		return nil, apperr.Validation("matched_keywords", "a flag needs at least one matched keyword")
	}

	flag := &models.ContentFlag{
		ContentType:     c.ContentType,
		ContentID:       c.ContentID,
		UserID:          c.UserID,
		FlagReason:      c.FlagReason,
		MatchedKeywords: c.MatchedKeywords,
		Severity:        validation.ClampSeverity(c.Severity),
		Status:          models.FlagPending,
	}
	if err := l.flags.CreateFlag(ctx, flag); err != nil {
		return nil, fmt.Errorf("create flag: %w", err)
	}

	l.logger.Info("content flagged",
		zap.String("flag_id", flag.ID.String()),
		zap.String("content_type", string(flag.ContentType)),
		zap.String("content_id", flag.ContentID),
		zap.Strings("matched_keywords", flag.MatchedKeywords),
		zap.Int("severity", flag.Severity),
	)
	return flag, nil
}

// Review moves a pending flag to the decided terminal status. Only one review
// of a flag can succeed; later attempts get an InvalidTransitionError naming
// who resolved it and when.
func (l *Ledger) Review(ctx context.Context, id uuid.UUID, in ReviewInput) (*models.ContentFlag, error) {
	if !in.Decision.IsTerminal() {
		return nil, apperr.Validation("decision", "decision must be one of reviewed, dismissed, action_taken")
	}
	adminID := strings.TrimSpace(in.AdminID)
	if adminID == "" {
		return nil, apperr.Validation("admin_id", "admin id is required")
	}
	if ok, msg := validation.ValidateNotes(in.Notes); !ok {
		return nil, apperr.Validation("notes", msg)
	}
	if ok, msg := validation.ValidateNotes(in.ActionDescription); !ok {
		return nil, apperr.Validation("action_description", msg)
	}

	res := models.FlagResolution{
		Status:     in.Decision,
		ReviewedBy: adminID,
		ReviewedAt: l.now().UTC(),
		AdminNotes: in.Notes,
	}
	if in.Decision == models.FlagActionTaken {
		res.ActionTaken = in.ActionDescription
	}

	flag, err := l.flags.ResolveFlag(ctx, id, res)
	switch {
	case errors.Is(err, store.ErrFlagNotFound):
		return nil, apperr.NotFound("flag", id.String())
	case errors.Is(err, store.ErrFlagNotPending):
		return nil, l.transitionError(ctx, id)
	case err != nil:
		return nil, fmt.Errorf("resolve flag: %w", err)
	}

	metrics.RecordReview(string(flag.Status))
	l.logger.Info("flag reviewed",
		zap.String("flag_id", id.String()),
		zap.String("status", string(flag.Status)),
		zap.String("admin_id", adminID),
	)
	return flag, nil
}

// QuickDismiss dismisses a pending flag with the standard note.
func (l *Ledger) QuickDismiss(ctx context.Context, id uuid.UUID, adminID string) (*models.ContentFlag, error) {
	note := QuickDismissNote
	return l.Review(ctx, id, ReviewInput{
		Decision: models.FlagDismissed,
		AdminID:  adminID,
		Notes:    &note,
	})
}

// GetFlag returns a flag by id.
func (l *Ledger) GetFlag(ctx context.Context, id uuid.UUID) (*models.ContentFlag, error) {
	flag, err := l.flags.GetFlag(ctx, id)
	if errors.Is(err, store.ErrFlagNotFound) {
		return nil, apperr.NotFound("flag", id.String())
	}
	if err != nil {
		return nil, fmt.Errorf("get flag: %w", err)
	}
	return flag, nil
}

// ListFlags returns flags matching filter, newest first.
func (l *Ledger) ListFlags(ctx context.Context, filter models.FlagFilter) ([]models.ContentFlag, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, apperr.Validation("status", "unknown flag status")
	}
	if filter.ContentType != "" && !filter.ContentType.Valid() {
		return nil, apperr.Validation("content_type", "content type must be message or review")
	}

	flags, err := l.flags.ListFlags(ctx, filter.Normalize())
	if err != nil {
		return nil, fmt.Errorf("list flags: %w", err)
	}
	return flags, nil
}

func (l *Ledger) transitionError(ctx context.Context, id uuid.UUID) error {
	current, err := l.flags.GetFlag(ctx, id)
	if err != nil {
		return &apperr.InvalidTransitionError{FlagID: id.String(), Status: "resolved"}
	}
	return &apperr.InvalidTransitionError{
		FlagID:     id.String(),
		Status:     string(current.Status),
		ReviewedBy: current.ReviewedBy,
		ReviewedAt: current.ReviewedAt,
	}
}
