// Package resetrequests stores issued password reset tokens by their hash.
package resetrequests

import (
	"context"
	"time"

	"github.com/dmitrijs2005/shopauth/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, req *models.PasswordResetRequest) (*models.PasswordResetRequest, error)
	GetByTokenHash(ctx context.Context, tokenHash string) (*models.PasswordResetRequest, error)
	// Consume marks an unconsumed request as used. It returns
	// common.ErrorNotFound when the request is missing or already consumed.
	Consume(ctx context.Context, id int64, at time.Time) error
}
