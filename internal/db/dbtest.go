package db

import (
	"os"
	"testing"

	"github.com/jmoiron/sqlx"
)

// InitTestDB connects to TEST_DATABASE_URL and applies the migrations. Tests
// calling it are skipped when the variable is unset.
func InitTestDB(t *testing.T, migrationsPath string) (*sqlx.DB, Store) {
	t.Helper()

	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL environment variable is not set")
	}

	conn, err := sqlx.Connect("postgres", dbURL)
	if err != nil {
		t.Fatalf("connect test database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	if err := RunMigrations(conn, migrationsPath); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}
	return conn, NewStore(conn)
}
