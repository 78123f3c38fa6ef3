package moderation

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"modengine/internal/apperr"
	"modengine/internal/models"
	"modengine/internal/store"
	"modengine/internal/validation"
)

// RuleCache holds a snapshot of the active rule set. A miss returns ok=false.
type RuleCache interface {
	GetActive(ctx context.Context) (rules []models.KeywordRule, ok bool, err error)
	SetActive(ctx context.Context, rules []models.KeywordRule) error
	Invalidate(ctx context.Context) error
}

// Registry manages keyword rules.
type Registry struct {
	rules  store.RuleStore
	cache  RuleCache
	logger *zap.Logger
}

// NewRegistry creates a Registry. cache may be nil.
func NewRegistry(rules store.RuleStore, cache RuleCache, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{rules: rules, cache: cache, logger: logger}
}

// AddRule validates and stores a new active rule.
func (r *Registry) AddRule(ctx context.Context, in models.NewKeywordRule) (*models.KeywordRule, error) {
	rule := &models.KeywordRule{
		Keyword:     validation.NormalizeKeyword(in.Keyword),
		Category:    in.Category,
		Severity:    in.Severity,
		IsActive:    true,
		Description: in.Description,
	}
	if err := validateRule(rule); err != nil {
		return nil, err
	}

	if err := r.rules.CreateRule(ctx, rule); err != nil {
		return nil, ruleError(err, rule.ID, rule.Keyword)
	}
	r.invalidate(ctx)

	r.logger.Info("keyword rule added",
		zap.String("rule_id", rule.ID.String()),
		zap.String("keyword", rule.Keyword),
		zap.String("category", string(rule.Category)),
		zap.Int("severity", rule.Severity),
	)
	return rule, nil
}

// UpdateRule applies patch to an existing rule.
func (r *Registry) UpdateRule(ctx context.Context, id uuid.UUID, patch models.KeywordRulePatch) (*models.KeywordRule, error) {
	if patch.IsEmpty() {
		return nil, apperr.Validation("", "no fields to update")
	}

	rule, err := r.rules.GetRule(ctx, id)
	if err != nil {
		return nil, ruleError(err, id, "")
	}

	if patch.Keyword != nil {
		rule.Keyword = validation.NormalizeKeyword(*patch.Keyword)
	}
	if patch.Category != nil {
		rule.Category = *patch.Category
	}
	if patch.Severity != nil {
		rule.Severity = *patch.Severity
	}
	if patch.Description != nil {
		rule.Description = patch.Description
	}
	if err := validateRule(rule); err != nil {
		return nil, err
	}

	if err := r.rules.UpdateRule(ctx, rule); err != nil {
		return nil, ruleError(err, id, rule.Keyword)
	}
	r.invalidate(ctx)

	r.logger.Info("keyword rule updated", zap.String("rule_id", id.String()))
	return rule, nil
}

// ToggleActive flips a rule between active and inactive.
func (r *Registry) ToggleActive(ctx context.Context, id uuid.UUID) (*models.KeywordRule, error) {
	rule, err := r.rules.ToggleRule(ctx, id)
	if err != nil {
		return nil, ruleError(err, id, "")
	}
	r.invalidate(ctx)

	r.logger.Info("keyword rule toggled",
		zap.String("rule_id", id.String()),
		zap.Bool("is_active", rule.IsActive),
	)
	return rule, nil
}

// DeleteRule removes a rule. Existing flags keep their keyword strings.
func (r *Registry) DeleteRule(ctx context.Context, id uuid.UUID) error {
	if err := r.rules.DeleteRule(ctx, id); err != nil {
		return ruleError(err, id, "")
	}
	r.invalidate(ctx)

	r.logger.Info("keyword rule deleted", zap.String("rule_id", id.String()))
	return nil
}

// GetRule returns a single rule.
func (r *Registry) GetRule(ctx context.Context, id uuid.UUID) (*models.KeywordRule, error) {
	rule, err := r.rules.GetRule(ctx, id)
	if err != nil {
		return nil, ruleError(err, id, "")
	}
	return rule, nil
}

// ListRules returns every rule, active or not, in creation order.
func (r *Registry) ListRules(ctx context.Context) ([]models.KeywordRule, error) {
	rules, err := r.rules.ListRules(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("list rules: %w", err)
	}
	return rules, nil
}

// ListActive returns the active rules in creation order. This is the rule set
// the scanner consults. Cache failures fall back to the store.
func (r *Registry) ListActive(ctx context.Context) ([]models.KeywordRule, error) {
	if r.cache != nil {
		rules, ok, err := r.cache.GetActive(ctx)
		if err != nil {
			r.logger.Warn("active rule cache read failed", zap.Error(err))
		} else if ok {
			return rules, nil
		}
	}

	rules, err := r.rules.ListRules(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("list active rules: %w", err)
	}

	if r.cache != nil {
		if err := r.cache.SetActive(ctx, rules); err != nil {
			r.logger.Warn("active rule cache write failed", zap.Error(err))
		}
	}
	return rules, nil
}

// Seed inserts rules from configuration, skipping keywords that already exist,
// active or not, so a rule an administrator switched off stays off across
// restarts. Out-of-range severities are clamped rather than rejected.
func (r *Registry) Seed(ctx context.Context, rules []models.NewKeywordRule) (int, error) {
	existing, err := r.rules.ListRules(ctx, false)
	if err != nil {
		return 0, fmt.Errorf("list rules: %w", err)
	}
	known := make(map[string]bool, len(existing))
	for _, rule := range existing {
		known[rule.Keyword] = true
	}

	added := 0
	for _, in := range rules {
		keyword := validation.NormalizeKeyword(in.Keyword)
		if known[keyword] {
			continue
		}
		in.Severity = validation.ClampSeverity(in.Severity)
		if _, err := r.AddRule(ctx, in); err != nil {
			return added, fmt.Errorf("seed keyword %q: %w", in.Keyword, err)
		}
		known[keyword] = true
		added++
	}
	return added, nil
}

func (r *Registry) invalidate(ctx context.Context) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Invalidate(ctx); err != nil {
		r.logger.Warn("active rule cache invalidation failed", zap.Error(err))
	}
}

func validateRule(rule *models.KeywordRule) error {
	if ok, msg := validation.ValidateKeyword(rule.Keyword); !ok {
		return apperr.Validation("keyword", msg)
	}
	if ok, msg := validation.ValidateCategory(rule.Category); !ok {
		return apperr.Validation("category", msg)
	}
	if ok, msg := validation.ValidateSeverity(rule.Severity); !ok {
		return apperr.Validation("severity", msg)
	}
	if ok, msg := validation.ValidateNotes(rule.Description); !ok {
		return apperr.Validation("description", msg)
	}
	return nil
}

func ruleError(err error, id uuid.UUID, keyword string) error {
	switch {
	case errors.Is(err, store.ErrRuleNotFound):
		return apperr.NotFound("keyword rule", id.String())
	case errors.Is(err, store.ErrDuplicateKeyword):
		if keyword == "" {
			return apperr.Conflict("keyword rule", store.ErrDuplicateKeyword.Error())
		}
		return apperr.Conflict("keyword rule", fmt.Sprintf("an active rule for %q already exists", keyword))
	}
	return fmt.Errorf("keyword rule: %w", err)
}
