package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/shopauth/internal/dbx"
	"github.com/dmitrijs2005/shopauth/internal/server/migrations"
	"github.com/dmitrijs2005/shopauth/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/shopauth/internal/server/repositories/loginattempts"
	"github.com/dmitrijs2005/shopauth/internal/server/repositories/products"
	"github.com/dmitrijs2005/shopauth/internal/server/repositories/resetrequests"
	"github.com/pressly/goose/v3"
)

// Parameterized vends repositories that bind every value as a parameter.
type Parameterized struct {
	dialect dbx.Dialect
}

func NewParameterized(dialect dbx.Dialect) *Parameterized {
	return &Parameterized{dialect: dialect}
}

func (m *Parameterized) Strategy() string { return StrategyParameterized }

func (m *Parameterized) Dialect() dbx.Dialect { return m.dialect }

func (m *Parameterized) Accounts(db dbx.DBTX) accounts.Repository {
	return accounts.NewSQLRepository(db, m.dialect)
}

func (m *Parameterized) LoginAttempts(db dbx.DBTX) loginattempts.Repository {
	return loginattempts.NewSQLRepository(db, m.dialect)
}

func (m *Parameterized) ResetRequests(db dbx.DBTX) resetrequests.Repository {
	return resetrequests.NewSQLRepository(db, m.dialect)
}

func (m *Parameterized) Products(db dbx.DBTX) products.Repository {
	return products.NewSQLRepository(db, m.dialect)
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations applies the embedded migrations of the manager's dialect.
func (m *Parameterized) RunMigrations(ctx context.Context, db *sql.DB) error {
	return runMigrations(ctx, db, m.dialect)
}

func runMigrations(ctx context.Context, db *sql.DB, dialect dbx.Dialect) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect(dialect.GooseDialect()); err != nil {
		return err
	}
	if err := gooseUpContext(ctx, db, string(dialect)); err != nil {
		return err
	}
	return nil
}
