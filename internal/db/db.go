package db

import (
	"context"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"

	"modengine/internal/store"
	"modengine/migrations"
)

// DB wraps a pgxpool connection pool.
type DB struct {
	Pool *pgxpool.Pool
}

var _ store.Store = (*DB)(nil)

// New creates a new database connection pool.
func New(ctx context.Context, connString string) (*DB, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{Pool: pool}, nil
}

// RunMigrations runs all embedded SQL migrations.
func (d *DB) RunMigrations(connString string) error {
	sourceDriver, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", sourceDriver, connString)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("migration failed: %w", err)
	}

	return nil
}

// Ping checks the database connection.
func (d *DB) Ping(ctx context.Context) error {
	return d.Pool.Ping(ctx)
}

// Close closes the connection pool.
func (d *DB) Close() {
	d.Pool.Close()
}

// SeedDevCompanies inserts sample companies for development. Skips companies
// that already exist.
func (d *DB) SeedDevCompanies(ctx context.Context) error {
	companies := []struct {
		id           string
		name         string
		verification string
		completeness float64
		mismatch     bool
		ageDays      int
		users        []string
		disputes     int
	}{
		{"00000000-0000-4000-8000-000000000001", "Acme Supplies", "verified", 0.95, false, 720, []string{"acme-owner"}, 0},
		{"00000000-0000-4000-8000-000000000002", "Quickbuck Trading", "pending", 0.30, true, 6, []string{"qb-owner", "qb-sales"}, 2},
		{"00000000-0000-4000-8000-000000000003", "Northwind Goods", "verified", 0.55, false, 45, []string{"nw-owner"}, 1},
	}

	for _, c := range companies {
		_, err := d.Pool.Exec(ctx, `
			INSERT INTO companies (id, name, verification_status, profile_completeness, data_mismatch, created_at)
			VALUES ($1, $2, $3, $4, $5, NOW() - make_interval(days => $6))
			ON CONFLICT (id) DO NOTHING
		`, c.id, c.name, c.verification, c.completeness, c.mismatch, c.ageDays)
		if err != nil {
			return fmt.Errorf("failed to seed company %s: %w", c.name, err)
		}

		for _, u := range c.users {
			if _, err := d.Pool.Exec(ctx, `
				INSERT INTO company_users (company_id, user_id) VALUES ($1, $2)
				ON CONFLICT DO NOTHING
			`, c.id, u); err != nil {
				return fmt.Errorf("failed to seed user %s: %w", u, err)
			}
		}

		var existing int
		if err := d.Pool.QueryRow(ctx, `
			SELECT COUNT(*) FROM company_payments WHERE company_id = $1 AND status = 'disputed'
		`, c.id).Scan(&existing); err != nil {
			return err
		}
		for i := existing; i < c.disputes; i++ {
			if _, err := d.Pool.Exec(ctx, `
				INSERT INTO company_payments (company_id, amount_cents, status) VALUES ($1, $2, 'disputed')
			`, c.id, 4999); err != nil {
				return fmt.Errorf("failed to seed payment for %s: %w", c.name, err)
			}
		}
	}

	return nil
}
