package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// NewTestDB creates a new in-memory SQLite database for testing
func NewTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := New(":memory:")
	require.NoError(t, err, "failed to create test database")

	err = db.RunMigrations()
	require.NoError(t, err, "failed to run migrations")

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

// TestMigrations verifies that migrations run successfully
func TestMigrations(t *testing.T) {
	db := NewTestDB(t)

	var count int
	err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", "visits").Scan(&count)
	require.NoError(t, err)
	require.Equal(t, 1, count, "visits table not found")
}

// TestMigrationsIdempotent verifies a file database can be reopened
func TestMigrationsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "annotator.db")
	ctx := context.Background()

	db, err := New(path)
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())
	_, err = db.ExecContext(ctx,
		`INSERT INTO visits (visitor_id, ip, user_agent, country, visit_date, visited_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		"v1", "127.0.0.1", "ua", "Unknown", "2024-01-01", "2024-01-01T00:00:00.000000000Z")
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = New(path)
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, db.RunMigrations())

	var count int
	require.NoError(t, db.QueryRowContext(ctx, "SELECT COUNT(*) FROM visits").Scan(&count))
	require.Equal(t, 1, count)
}
