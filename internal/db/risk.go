package db

import (
	"context"

	"github.com/google/uuid"

	"modengine/internal/models"
)

// RecordLevel upserts the company's level. changed_at only moves when the
// level differs, so it equals checked_at exactly when the row was inserted or
// its level changed in this statement.
func (d *DB) RecordLevel(ctx context.Context, companyID uuid.UUID, level models.RiskLevel, score int) (bool, error) {
	query := `
		INSERT INTO company_risk_levels (company_id, risk_level, risk_score, changed_at, checked_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		ON CONFLICT (company_id) DO UPDATE SET
			risk_score = EXCLUDED.risk_score,
			checked_at = NOW(),
			changed_at = CASE
				WHEN company_risk_levels.risk_level = EXCLUDED.risk_level THEN company_risk_levels.changed_at
				ELSE NOW()
			END,
			risk_level = EXCLUDED.risk_level
		RETURNING changed_at = checked_at
	`
	var changed bool
	err := d.Pool.QueryRow(ctx, query, companyID, level, score).Scan(&changed)
	return changed, err
}

// SaveSnapshot stores an assessment for trend reporting.
func (d *DB) SaveSnapshot(ctx context.Context, a *models.CompanyRiskAssessment) error {
	_, err := d.Pool.Exec(ctx, `
		INSERT INTO company_risk_snapshots (company_id, computed_at, risk_score, risk_level, risk_indicators, policy_version)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (company_id, computed_at) DO NOTHING
	`, a.CompanyID, a.ComputedAt, a.RiskScore, a.RiskLevel, a.RiskIndicators, a.PolicyVersion)
	return err
}

// ListSnapshots returns the newest snapshots first.
func (d *DB) ListSnapshots(ctx context.Context, companyID uuid.UUID, limit int) ([]models.CompanyRiskAssessment, error) {
	rows, err := d.Pool.Query(ctx, `
		SELECT company_id, risk_score, risk_level, risk_indicators, policy_version, computed_at
		FROM company_risk_snapshots
		WHERE company_id = $1
		ORDER BY computed_at DESC
		LIMIT $2
	`, companyID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	snapshots := []models.CompanyRiskAssessment{}
	for rows.Next() {
		var a models.CompanyRiskAssessment
		if err := rows.Scan(&a.CompanyID, &a.RiskScore, &a.RiskLevel, &a.RiskIndicators, &a.PolicyVersion, &a.ComputedAt); err != nil {
			return nil, err
		}
		snapshots = append(snapshots, a)
	}
	return snapshots, rows.Err()
}
