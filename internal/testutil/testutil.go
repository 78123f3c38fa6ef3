// Package testutil provides test utilities and helpers.
package testutil

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"modengine/internal/db"
)

// TestDB connects to TEST_DATABASE_URL, runs migrations and empties every
// table. The test is skipped when the variable is unset.
func TestDB(t *testing.T) (*db.DB, func()) {
	t.Helper()

	connString := os.Getenv("TEST_DATABASE_URL")
	if connString == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping integration test")
	}

	ctx := context.Background()
	database, err := db.New(ctx, connString)
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}

	if err := database.RunMigrations(connString); err != nil {
		database.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	cleanupTestData(ctx, database.Pool)

	cleanup := func() {
		cleanupTestData(ctx, database.Pool)
		database.Close()
	}

	return database, cleanup
}

// cleanupTestData removes all test data from the database.
func cleanupTestData(ctx context.Context, pool *pgxpool.Pool) {
	// Delete in order to respect foreign keys
	pool.Exec(ctx, "DELETE FROM company_risk_snapshots")
	pool.Exec(ctx, "DELETE FROM company_risk_levels")
	pool.Exec(ctx, "DELETE FROM company_payments")
	pool.Exec(ctx, "DELETE FROM company_users")
	pool.Exec(ctx, "DELETE FROM companies")
	pool.Exec(ctx, "DELETE FROM content_flags")
	pool.Exec(ctx, "DELETE FROM keyword_rules")
}

// TestCompany describes a company row for CreateTestCompany.
type TestCompany struct {
	Name                string
	AgeDays             int
	Verification        string // pending, verified or rejected
	ProfileCompleteness float64
	DataMismatch        bool
}

// CreateTestCompany inserts a company and returns its ID.
func CreateTestCompany(t *testing.T, database *db.DB, c TestCompany) uuid.UUID {
	t.Helper()
	ctx := context.Background()

	if c.Verification == "" {
		c.Verification = "verified"
	}
	if c.Name == "" {
		c.Name = "Test Company"
	}

	var id uuid.UUID
	err := database.Pool.QueryRow(ctx, `
		INSERT INTO companies (name, verification_status, profile_completeness, data_mismatch, created_at)
		VALUES ($1, $2, $3, $4, NOW() - make_interval(days => $5))
		RETURNING id
	`, c.Name, c.Verification, c.ProfileCompleteness, c.DataMismatch, c.AgeDays).Scan(&id)
	if err != nil {
		t.Fatalf("failed to create test company: %v", err)
	}

	return id
}

// AddCompanyUser links a content author to a company.
func AddCompanyUser(t *testing.T, database *db.DB, companyID uuid.UUID, userID string) {
	t.Helper()

	_, err := database.Pool.Exec(context.Background(), `
		INSERT INTO company_users (company_id, user_id) VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`, companyID, userID)
	if err != nil {
		t.Fatalf("failed to add company user: %v", err)
	}
}

// CreateTestPayment records a payment with the given status.
func CreateTestPayment(t *testing.T, database *db.DB, companyID uuid.UUID, status string) {
	t.Helper()

	_, err := database.Pool.Exec(context.Background(), `
		INSERT INTO company_payments (company_id, amount_cents, status) VALUES ($1, $2, $3)
	`, companyID, 1500, status)
	if err != nil {
		t.Fatalf("failed to create test payment: %v", err)
	}
}
