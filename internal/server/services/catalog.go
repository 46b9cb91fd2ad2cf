package services

import (
	"context"
	"database/sql"
	"strings"

	"github.com/dmitrijs2005/shopauth/internal/clock"
	"github.com/dmitrijs2005/shopauth/internal/common"
	"github.com/dmitrijs2005/shopauth/internal/server/models"
	"github.com/shopspring/decimal"
)

// CatalogService is the thin product lookup the storefront calls. It shares
// the profile's query strategy, so the product id is the second place where
// the insecure profile is injectable.
type CatalogService struct {
	db      *sql.DB
	profile *Profile
	clock   clock.Clock
}

func NewCatalogService(db *sql.DB, p *Profile, c clock.Clock) *CatalogService {
	return &CatalogService{db: db, profile: p, clock: c}
}

func (s *CatalogService) AddProduct(ctx context.Context, actor *models.Account, title string, price decimal.Decimal) (*models.Product, error) {
	repos := s.profile.Repositories
	if _, err := requireAdmin(ctx, repos.Accounts(s.db), actor); err != nil {
		return nil, err
	}

	if strings.TrimSpace(title) == "" || price.IsNegative() {
		return nil, common.ErrInvalidProduct
	}

	return repos.Products(s.db).Create(ctx, &models.Product{
		Title:     title,
		Price:     price.Round(2),
		CreatedAt: s.clock.Now(),
	})
}

func (s *CatalogService) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	return s.profile.Repositories.Products(s.db).GetByID(ctx, id)
}
