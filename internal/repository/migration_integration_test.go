//go:build integration

package repository

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pictora/pictora/internal/testutil"
)

// ============================================================================
// Migration Integration Tests
// ============================================================================

func TestIntegrationMigration_ApplyAllTables(t *testing.T) {
	ctx, pool := newMigrationTestEnv(t)

	tables := []string{"accounts", "users", "posts", "saves", "activity_events"}

	for _, table := range tables {
		t.Run(table, func(t *testing.T) {
			exists, err := tableExists(ctx, pool, table)
			if err != nil {
				t.Fatalf("tableExists failed: %v", err)
			}
			if !exists {
				t.Errorf("Table %q should exist after migrations", table)
			}
		})
	}
}

func TestIntegrationMigration_PostsTableSchema(t *testing.T) {
	ctx, pool := newMigrationTestEnv(t)

	expectedColumns := []string{
		"id",
		"creator_id",
		"caption",
		"image_url",
		"image_id",
		"location",
		"tags",
		"likes",
		"created_at",
		"updated_at",
	}

	for _, col := range expectedColumns {
		t.Run(col, func(t *testing.T) {
			exists, err := columnExists(ctx, pool, "posts", col)
			if err != nil {
				t.Fatalf("columnExists failed: %v", err)
			}
			if !exists {
				t.Errorf("Column %q should exist in posts table", col)
			}
		})
	}
}

func TestIntegrationMigration_UsersTableSchema(t *testing.T) {
	ctx, pool := newMigrationTestEnv(t)

	expectedColumns := []string{
		"id",
		"account_id",
		"name",
		"username",
		"email",
		"image_url",
		"image_id",
		"bio",
		"created_at",
		"updated_at",
	}

	for _, col := range expectedColumns {
		t.Run(col, func(t *testing.T) {
			exists, err := columnExists(ctx, pool, "users", col)
			if err != nil {
				t.Fatalf("columnExists failed: %v", err)
			}
			if !exists {
				t.Errorf("Column %q should exist in users table", col)
			}
		})
	}
}

func TestIntegrationMigration_Constraints(t *testing.T) {
	ctx, pool := newMigrationTestEnv(t)

	// users.account_id must reference an account
	_, err := pool.Exec(ctx, `
		INSERT INTO users (id, account_id, name, email)
		VALUES ('u1', 'missing-account', 'Ann', 'ann@example.com')
	`)
	if err == nil {
		t.Error("Expected foreign key violation for unknown account_id")
	}

	// account emails are unique regardless of case
	_, err = pool.Exec(ctx, `
		INSERT INTO accounts (id, email, name, password_hash)
		VALUES ('a1', 'Ann@Example.com', 'Ann', 'x'), ('a2', 'ann@example.com', 'Ann', 'x')
	`)
	if err == nil {
		t.Error("Expected unique violation for case-insensitive duplicate email")
	}
}

func TestIntegrationMigration_EmbeddedMigrator(t *testing.T) {
	ctx, pool := newMigrationTestEnv(t)
	dbURL := testutil.RequireEnv(t, "DATABASE_URL")

	// ResetSchema bypasses golang-migrate; start from an empty database so Up runs every step.
	for _, table := range []string{"activity_events", "saves", "posts", "users", "accounts", "schema_migrations"} {
		if _, err := pool.Exec(ctx, "DROP TABLE IF EXISTS "+table); err != nil {
			t.Fatalf("drop %s: %v", table, err)
		}
	}

	if err := Migrate(dbURL); err != nil {
		t.Fatalf("Migrate failed: %v", err)
	}

	version, dirty, err := MigrationVersion(dbURL)
	if err != nil {
		t.Fatalf("MigrationVersion failed: %v", err)
	}
	if version != 5 || dirty {
		t.Errorf("MigrationVersion = (%d, %v), want (5, false)", version, dirty)
	}

	// Running again is a no-op.
	if err := Migrate(dbURL); err != nil {
		t.Fatalf("second Migrate failed: %v", err)
	}

	if err := MigrateDown(dbURL); err != nil {
		t.Fatalf("MigrateDown failed: %v", err)
	}
	exists, err := tableExists(ctx, pool, "posts")
	if err != nil {
		t.Fatalf("tableExists failed: %v", err)
	}
	if exists {
		t.Error("posts table should be gone after MigrateDown")
	}

	if err := testutil.ResetSchema(ctx, pool); err != nil {
		t.Fatalf("reset schema: %v", err)
	}
}

func tableExists(ctx context.Context, pool *pgxpool.Pool, tableName string) (bool, error) {
	var exists bool
	err := pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT FROM information_schema.tables 
			WHERE table_schema = 'public' 
			AND table_name = $1
		)
	`, tableName).Scan(&exists)
	return exists, err
}

func columnExists(ctx context.Context, pool *pgxpool.Pool, tableName, columnName string) (bool, error) {
	var exists bool
	err := pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT FROM information_schema.columns 
			WHERE table_schema = 'public' 
			AND table_name = $1 
			AND column_name = $2
		)
	`, tableName, columnName).Scan(&exists)
	return exists, err
}

// ============================================================================
// Test Environment Setup
// ============================================================================

func newMigrationTestEnv(t *testing.T) (context.Context, *pgxpool.Pool) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration tests in short mode")
	}

	ctx := context.Background()
	dbURL := testutil.RequireEnv(t, "DATABASE_URL")

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(pool.Close)

	unlock, err := testutil.AcquireDBLock(ctx, pool)
	if err != nil {
		t.Fatalf("acquire db lock: %v", err)
	}
	t.Cleanup(func() {
		_ = unlock()
	})

	if err := testutil.ResetSchema(ctx, pool); err != nil {
		t.Fatalf("reset schema: %v", err)
	}

	return ctx, pool
}
