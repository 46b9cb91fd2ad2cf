package repomanager

import (
	"github.com/dmitrijs2005/shopauth/internal/dbx"
	"github.com/dmitrijs2005/shopauth/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/shopauth/internal/server/repositories/products"
)

// Interpolated is the insecure strategy: the account and product lookups
// build SQL by string formatting. The ledger and reset stores stay
// parameterized since they never take free text from the caller directly.
type Interpolated struct {
	*Parameterized
}

func NewInterpolated(dialect dbx.Dialect) *Interpolated {
	return &Interpolated{Parameterized: NewParameterized(dialect)}
}

func (m *Interpolated) Strategy() string { return StrategyInterpolated }

func (m *Interpolated) Accounts(db dbx.DBTX) accounts.Repository {
	return accounts.NewInsecureRepository(db, m.dialect)
}

func (m *Interpolated) Products(db dbx.DBTX) products.Repository {
	return products.NewInsecureRepository(db, m.dialect)
}
