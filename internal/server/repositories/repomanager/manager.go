// Package repomanager selects the query execution strategy. A
// RepositoryManager vends repositories bound to a DBTX (a pool or a
// transaction) and owns the schema migration hook for its dialect.
package repomanager

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/shopauth/internal/dbx"
	"github.com/dmitrijs2005/shopauth/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/shopauth/internal/server/repositories/loginattempts"
	"github.com/dmitrijs2005/shopauth/internal/server/repositories/products"
	"github.com/dmitrijs2005/shopauth/internal/server/repositories/resetrequests"
)

const (
	StrategyParameterized = "parameterized"
	StrategyInterpolated  = "interpolated"
)

type RepositoryManager interface {
	Strategy() string
	Dialect() dbx.Dialect
	RunMigrations(context.Context, *sql.DB) error
	Accounts(db dbx.DBTX) accounts.Repository
	LoginAttempts(db dbx.DBTX) loginattempts.Repository
	ResetRequests(db dbx.DBTX) resetrequests.Repository
	Products(db dbx.DBTX) products.Repository
}

// New returns the manager for the named strategy.
func New(strategy string, dialect dbx.Dialect) (RepositoryManager, error) {
	switch strategy {
	case StrategyParameterized:
		return NewParameterized(dialect), nil
	case StrategyInterpolated:
		return NewInterpolated(dialect), nil
	}
	return nil, fmt.Errorf("unknown query strategy %q", strategy)
}
