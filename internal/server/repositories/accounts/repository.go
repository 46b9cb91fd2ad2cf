// Package accounts is the credential store. Email uniqueness is enforced by
// the database constraint and surfaced as common.ErrDuplicateEmail.
package accounts

import (
	"context"

	"github.com/dmitrijs2005/shopauth/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, account *models.Account) (*models.Account, error)
	GetByEmail(ctx context.Context, email string) (*models.Account, error)
	GetByID(ctx context.Context, id int64) (*models.Account, error)
	UpdatePasswordHash(ctx context.Context, id int64, passwordHash string) error
	SetAdmin(ctx context.Context, id int64, isAdmin bool) error
	CountAdmins(ctx context.Context) (int, error)
}
