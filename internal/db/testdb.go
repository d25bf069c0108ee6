package db

import (
	"database/sql"
	"testing"
)

// NewTestDB opens a private in-memory database with every migration applied.
// It is closed when the test ends.
func NewTestDB(tb testing.TB) *sql.DB {
	tb.Helper()

	db, err := Open(":memory:")
	if err != nil {
		tb.Fatalf("opening in-memory database: %v", err)
	}
	tb.Cleanup(func() { db.Close() })

	if err := Migrate(db); err != nil {
		tb.Fatalf("migrating in-memory database: %v", err)
	}
	return db
}
