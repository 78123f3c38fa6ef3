package db

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"modengine/internal/models"
	"modengine/internal/store"
)

// ListCompanyIDs returns every company id.
func (d *DB) ListCompanyIDs(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := d.Pool.Query(ctx, `SELECT id FROM companies ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := []uuid.UUID{}
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// GetRiskSignals gathers indicator inputs for a company in one round trip.
// Flags count when authored by one of the company's users since the given
// time and not dismissed.
func (d *DB) GetRiskSignals(ctx context.Context, companyID uuid.UUID, since time.Time) (*models.RiskSignals, error) {
	query := `
		SELECT c.id,
			GREATEST(0, FLOOR(EXTRACT(EPOCH FROM (NOW() - c.created_at)) / 86400))::int,
			c.verification_status = 'pending',
			c.profile_completeness::float8,
			c.data_mismatch,
			(SELECT COUNT(*)::int FROM company_payments p
				WHERE p.company_id = c.id AND p.status = 'disputed'),
			f.flag_count,
			f.avg_severity
		FROM companies c
		CROSS JOIN LATERAL (
			SELECT COUNT(*)::int AS flag_count, COALESCE(AVG(cf.severity), 0)::float8 AS avg_severity
			FROM content_flags cf
			JOIN company_users cu ON cu.user_id = cf.user_id
			WHERE cu.company_id = c.id
				AND cf.status <> 'dismissed'
				AND cf.created_at >= $2
		) f
		WHERE c.id = $1
	`
	var s models.RiskSignals
	err := d.Pool.QueryRow(ctx, query, companyID, since).Scan(
		&s.CompanyID,
		&s.AccountAgeDays,
		&s.PendingVerification,
		&s.ProfileCompleteness,
		&s.DataMismatch,
		&s.DisputedPaymentsCount,
		&s.FlagCountLast90Days,
		&s.AvgFlagSeverity,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrCompanyNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}
