package db

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"modengine/internal/models"
	"modengine/internal/store"
)

const ruleColumns = `id, keyword, category, severity, is_active, description, created_at, updated_at`

func scanRule(row pgx.Row) (*models.KeywordRule, error) {
	var r models.KeywordRule
	err := row.Scan(&r.ID, &r.Keyword, &r.Category, &r.Severity, &r.IsActive, &r.Description, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrRuleNotFound
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// CreateRule inserts a new keyword rule.
func (d *DB) CreateRule(ctx context.Context, rule *models.KeywordRule) error {
	query := `
		INSERT INTO keyword_rules (keyword, category, severity, is_active, description)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`
	err := d.Pool.QueryRow(ctx, query,
		rule.Keyword,
		rule.Category,
		rule.Severity,
		rule.IsActive,
		rule.Description,
	).Scan(&rule.ID, &rule.CreatedAt, &rule.UpdatedAt)

	if isUniqueViolation(err) {
		return store.ErrDuplicateKeyword
	}
	return err
}

// GetRule retrieves a rule by ID.
func (d *DB) GetRule(ctx context.Context, id uuid.UUID) (*models.KeywordRule, error) {
	return scanRule(d.Pool.QueryRow(ctx, `SELECT `+ruleColumns+` FROM keyword_rules WHERE id = $1`, id))
}

// UpdateRule writes the mutable fields of a rule.
func (d *DB) UpdateRule(ctx context.Context, rule *models.KeywordRule) error {
	query := `
		UPDATE keyword_rules
		SET keyword = $2, category = $3, severity = $4, is_active = $5, description = $6, updated_at = NOW()
		WHERE id = $1
		RETURNING created_at, updated_at
	`
	err := d.Pool.QueryRow(ctx, query,
		rule.ID,
		rule.Keyword,
		rule.Category,
		rule.Severity,
		rule.IsActive,
		rule.Description,
	).Scan(&rule.CreatedAt, &rule.UpdatedAt)

	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return store.ErrRuleNotFound
	case isUniqueViolation(err):
		return store.ErrDuplicateKeyword
	}
	return err
}

// ToggleRule flips is_active in a single statement.
func (d *DB) ToggleRule(ctx context.Context, id uuid.UUID) (*models.KeywordRule, error) {
	query := `
		UPDATE keyword_rules
		SET is_active = NOT is_active, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + ruleColumns

	rule, err := scanRule(d.Pool.QueryRow(ctx, query, id))
	if isUniqueViolation(err) {
		return nil, store.ErrDuplicateKeyword
	}
	return rule, err
}

// DeleteRule removes a rule. Flags store keyword strings, so nothing cascades.
func (d *DB) DeleteRule(ctx context.Context, id uuid.UUID) error {
	result, err := d.Pool.Exec(ctx, `DELETE FROM keyword_rules WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return store.ErrRuleNotFound
	}
	return nil
}

// ListRules returns rules in creation order.
func (d *DB) ListRules(ctx context.Context, activeOnly bool) ([]models.KeywordRule, error) {
	query := `SELECT ` + ruleColumns + ` FROM keyword_rules`
	if activeOnly {
		query += ` WHERE is_active`
	}
	query += ` ORDER BY created_at, id`

	rows, err := d.Pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rules := []models.KeywordRule{}
	for rows.Next() {
		r, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		rules = append(rules, *r)
	}
	return rules, rows.Err()
}
