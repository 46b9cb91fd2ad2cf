package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a catalog row. The catalog is owned by the storefront; the
// service only keeps a lookup over it for injection regression checks.
type Product struct {
	ID        int64
	Title     string
	Price     decimal.Decimal
	CreatedAt time.Time
}
