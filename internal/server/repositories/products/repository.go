// Package products is the catalog lookup used by the storefront. Product ids
// arrive as raw strings from the outer layer, which makes GetByID the second
// injection surface besides the account email.
package products

import (
	"context"

	"github.com/dmitrijs2005/shopauth/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, product *models.Product) (*models.Product, error)
	GetByID(ctx context.Context, id string) (*models.Product, error)
}
