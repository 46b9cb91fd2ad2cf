package products

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/shopauth/internal/dbx"
	"github.com/dmitrijs2005/shopauth/internal/server/models"
)

// InsecureRepository splices the product id into the SQL text unquoted, so
// `0 OR 1=1` returns the first catalog row. Used only by the insecure
// profile as a negative fixture.
type InsecureRepository struct {
	*SQLRepository
}

func NewInsecureRepository(db dbx.DBTX, dialect dbx.Dialect) *InsecureRepository {
	return &InsecureRepository{SQLRepository: NewSQLRepository(db, dialect)}
}

func (r *InsecureRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	query := fmt.Sprintf(
		`SELECT id, title, price, created_at FROM products
		 WHERE id = %s`, id)

	return scanProduct(r.db.QueryRowContext(ctx, query))
}
