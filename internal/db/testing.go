package db

import (
	"testing"

	"github.com/jmoiron/sqlx"
)

// MustOpenTest opens an in-memory sqlite database with all migrations
// applied. Each call returns an isolated database.
func MustOpenTest(t *testing.T) *sqlx.DB {
	t.Helper()

	database, err := sqlx.Connect("sqlite", ":memory:?_pragma=foreign_keys(1)")
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	// A second connection would see a different in-memory database
	database.SetMaxOpenConns(1)

	if err := RunMigrations(database.DB, "sqlite"); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}

	t.Cleanup(func() {
		_ = database.Close()
	})
	return database
}
