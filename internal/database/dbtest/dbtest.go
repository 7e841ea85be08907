// Package dbtest opens migrated in-memory SQLite databases for tests.
package dbtest

import (
	"context"
	"database/sql"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/spf-coach/studycoach/internal/database"
)

var seq atomic.Int64

// New returns an empty, migrated database private to the calling test.
func New(t testing.TB) *sql.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:studycoach_test_%d?mode=memory&cache=shared&_pragma=foreign_keys(1)", seq.Add(1))

	db, err := database.Connect(context.Background(), database.DriverSQLite, dsn)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := database.Migrate(db, database.DriverSQLite); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// Seeded returns a migrated database loaded with the embedded item bank.
func Seeded(t testing.TB) *sql.DB {
	t.Helper()
	db := New(t)
	if _, err := database.Seed(context.Background(), db); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return db
}
