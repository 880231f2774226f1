// Package testutil provides shared test scaffolding: a migrated throwaway
// database and user fixtures.
package testutil

import (
	"database/sql"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"focustimer/backend/internal/db"
)

// NewTestDB opens a fresh SQLite database in a temp dir with all
// migrations applied.
func NewTestDB(t *testing.T) *sql.DB {
	t.Helper()

	database, err := db.OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = database.Close()
	})

	_, currentFile, _, _ := runtime.Caller(0)
	migrationsDir := filepath.Join(filepath.Dir(currentFile), "..", "..", "migrations")
	require.NoError(t, db.RunMigrations(database, migrationsDir))

	return database
}

// CreateUser inserts a registered user row and returns its id.
func CreateUser(t *testing.T, database *sql.DB, email string) string {
	t.Helper()
	return insertUser(t, database, email, false)
}

// CreateAnonymousUser inserts an anonymous user row and returns its id.
func CreateAnonymousUser(t *testing.T, database *sql.DB) string {
	t.Helper()
	return insertUser(t, database, "", true)
}

func insertUser(t *testing.T, database *sql.DB, email string, anonymous bool) string {
	t.Helper()

	id := uuid.NewString()
	now := time.Now().UTC().Format(time.RFC3339Nano)

	var emailValue interface{}
	if email != "" {
		emailValue = email
	}
	anonValue := 0
	if anonymous {
		anonValue = 1
	}

	_, err := database.Exec(
		`INSERT INTO users (id, email, password_hash, is_anonymous, created_at, updated_at)
		 VALUES (?, ?, '', ?, ?, ?)`,
		id, emailValue, anonValue, now, now,
	)
	require.NoError(t, err)
	return id
}
