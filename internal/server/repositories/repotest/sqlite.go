// Package repotest opens migrated SQLite databases for tests.
package repotest

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/dmitrijs2005/shopauth/internal/dbx"
	"github.com/dmitrijs2005/shopauth/internal/server/migrations"
	"github.com/pressly/goose/v3"
)

// OpenSQLite returns a fresh in-memory database with every migration
// applied. The database is closed when the test finishes.
func OpenSQLite(t testing.TB) *sql.DB {
	t.Helper()

	db := open(t, ":memory:")
	migrate(t, db)
	return db
}

// SQLiteFile creates a migrated database file under t.TempDir and returns
// its DSN. Each Open on the DSN gets its own pool, so tests can race
// writers that do not share a connection.
func SQLiteFile(t testing.TB) string {
	t.Helper()

	dsn := "file:" + filepath.Join(t.TempDir(), "shopauth.db") + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	migrate(t, open(t, dsn))
	return dsn
}

// Open opens a pool on dsn that is closed when the test finishes.
func Open(t testing.TB, dsn string) *sql.DB {
	t.Helper()
	return open(t, dsn)
}

func open(t testing.TB, dsn string) *sql.DB {
	t.Helper()

	db, err := dbx.Open(dbx.DialectSQLite, dsn)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func migrate(t testing.TB, db *sql.DB) {
	t.Helper()

	goose.SetBaseFS(migrations.Migrations)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect(dbx.DialectSQLite.GooseDialect()); err != nil {
		t.Fatalf("goose dialect: %v", err)
	}
	if err := goose.UpContext(context.Background(), db, string(dbx.DialectSQLite)); err != nil {
		t.Fatalf("migrate sqlite: %v", err)
	}
}
