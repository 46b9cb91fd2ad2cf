package repomanager

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/shopauth/internal/dbx"
	"github.com/dmitrijs2005/shopauth/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/shopauth/internal/server/repositories/products"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return db, mock
}

func TestNew(t *testing.T) {
	m, err := New(StrategyParameterized, dbx.DialectPostgres)
	require.NoError(t, err)
	assert.Equal(t, StrategyParameterized, m.Strategy())
	assert.Equal(t, dbx.DialectPostgres, m.Dialect())

	m, err = New(StrategyInterpolated, dbx.DialectSQLite)
	require.NoError(t, err)
	assert.Equal(t, StrategyInterpolated, m.Strategy())
	assert.Equal(t, dbx.DialectSQLite, m.Dialect())

	_, err = New("prepared", dbx.DialectSQLite)
	assert.Error(t, err)
}

func TestFactories_ReturnConcreteRepos(t *testing.T) {
	db, _ := newDB(t)
	defer db.Close()

	p := NewParameterized(dbx.DialectPostgres)
	assert.IsType(t, &accounts.SQLRepository{}, p.Accounts(db))
	assert.IsType(t, &products.SQLRepository{}, p.Products(db))
	assert.NotNil(t, p.LoginAttempts(db))
	assert.NotNil(t, p.ResetRequests(db))

	i := NewInterpolated(dbx.DialectPostgres)
	assert.IsType(t, &accounts.InsecureRepository{}, i.Accounts(db))
	assert.IsType(t, &products.InsecureRepository{}, i.Products(db))
	assert.NotNil(t, i.LoginAttempts(db))
	assert.NotNil(t, i.ResetRequests(db))
}

func TestRunMigrations_UsesDialectDirectory(t *testing.T) {
	db, _ := newDB(t)
	defer db.Close()

	var dirs []string
	orig := gooseUpContext
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		dirs = append(dirs, dir)
		return nil
	}
	defer func() { gooseUpContext = orig }()

	require.NoError(t, NewParameterized(dbx.DialectPostgres).RunMigrations(context.Background(), db))
	require.NoError(t, NewInterpolated(dbx.DialectSQLite).RunMigrations(context.Background(), db))
	assert.Equal(t, []string{"postgres", "sqlite"}, dirs)
}

func TestRunMigrations_Error(t *testing.T) {
	db, _ := newDB(t)
	defer db.Close()

	orig := gooseUpContext
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		return errors.New("boom")
	}
	defer func() { gooseUpContext = orig }()

	err := NewParameterized(dbx.DialectPostgres).RunMigrations(context.Background(), db)
	if err == nil || err.Error() != "boom" {
		t.Fatalf("expected boom, got %v", err)
	}
}

func TestRunMigrations_SQLite(t *testing.T) {
	db, err := dbx.Open(dbx.DialectSQLite, ":memory:")
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, NewParameterized(dbx.DialectSQLite).RunMigrations(context.Background(), db))

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM accounts`).Scan(&n))
	assert.Zero(t, n)
}
