package db

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"modengine/internal/models"
	"modengine/internal/store"
)

const flagColumns = `id, content_type, content_id, user_id, flag_reason, matched_keywords, severity, status,
	reviewed_by, reviewed_at, admin_notes, action_taken, created_at`

func scanFlag(row pgx.Row) (*models.ContentFlag, error) {
	var f models.ContentFlag
	err := row.Scan(
		&f.ID, &f.ContentType, &f.ContentID, &f.UserID, &f.FlagReason, &f.MatchedKeywords, &f.Severity, &f.Status,
		&f.ReviewedBy, &f.ReviewedAt, &f.AdminNotes, &f.ActionTaken, &f.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrFlagNotFound
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// CreateFlag inserts a new pending flag.
func (d *DB) CreateFlag(ctx context.Context, flag *models.ContentFlag) error {
	if flag.Status == "" {
		flag.Status = models.FlagPending
	}
	query := `
		INSERT INTO content_flags (content_type, content_id, user_id, flag_reason, matched_keywords, severity, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`
	return d.Pool.QueryRow(ctx, query,
		flag.ContentType,
		flag.ContentID,
		flag.UserID,
		flag.FlagReason,
		flag.MatchedKeywords,
		flag.Severity,
		flag.Status,
	).Scan(&flag.ID, &flag.CreatedAt)
}

// GetFlag retrieves a flag by ID.
func (d *DB) GetFlag(ctx context.Context, id uuid.UUID) (*models.ContentFlag, error) {
	return scanFlag(d.Pool.QueryRow(ctx, `SELECT `+flagColumns+` FROM content_flags WHERE id = $1`, id))
}

// ListFlags returns matching flags, newest first.
func (d *DB) ListFlags(ctx context.Context, filter models.FlagFilter) ([]models.ContentFlag, error) {
	filter = filter.Normalize()

	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Status != "" {
		where = append(where, "status = "+arg(filter.Status))
	}
	if filter.ContentType != "" {
		where = append(where, "content_type = "+arg(filter.ContentType))
	}
	if term := strings.TrimSpace(filter.Search); term != "" {
		p := arg("%" + escapeLike(term) + "%")
		where = append(where, fmt.Sprintf(
			"(flag_reason ILIKE %[1]s OR content_id ILIKE %[1]s OR EXISTS (SELECT 1 FROM unnest(matched_keywords) k WHERE k ILIKE %[1]s))", p))
	}

	query := `SELECT ` + flagColumns + ` FROM content_flags`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at DESC, id LIMIT ` + arg(filter.Limit) + ` OFFSET ` + arg(filter.Offset)

	rows, err := d.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	flags := []models.ContentFlag{}
	for rows.Next() {
		f, err := scanFlag(rows)
		if err != nil {
			return nil, err
		}
		flags = append(flags, *f)
	}
	return flags, rows.Err()
}

// ResolveFlag moves a pending flag to a terminal status. The status check and
// the update are one statement, so concurrent reviewers cannot both succeed.
func (d *DB) ResolveFlag(ctx context.Context, id uuid.UUID, res models.FlagResolution) (*models.ContentFlag, error) {
	query := `
		UPDATE content_flags
		SET status = $2,
			reviewed_by = $3,
			reviewed_at = $4,
			admin_notes = COALESCE($5, admin_notes),
			action_taken = COALESCE($6, action_taken)
		WHERE id = $1 AND status = 'pending'
		RETURNING ` + flagColumns

	flag, err := scanFlag(d.Pool.QueryRow(ctx, query,
		id,
		res.Status,
		res.ReviewedBy,
		res.ReviewedAt,
		res.AdminNotes,
		res.ActionTaken,
	))
	if !errors.Is(err, store.ErrFlagNotFound) {
		return flag, err
	}

	// No row updated: either the flag does not exist or it already left pending.
	var exists bool
	if err := d.Pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM content_flags WHERE id = $1)`, id).Scan(&exists); err != nil {
		return nil, err
	}
	if exists {
		return nil, store.ErrFlagNotPending
	}
	return nil, store.ErrFlagNotFound
}

// CountFlags groups flags by status and content type.
func (d *DB) CountFlags(ctx context.Context) ([]models.FlagCount, error) {
	rows, err := d.Pool.Query(ctx, `
		SELECT status, content_type, COUNT(*)
		FROM content_flags
		GROUP BY status, content_type
		ORDER BY status, content_type
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := []models.FlagCount{}
	for rows.Next() {
		var c models.FlagCount
		if err := rows.Scan(&c.Status, &c.ContentType, &c.Count); err != nil {
			return nil, err
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
