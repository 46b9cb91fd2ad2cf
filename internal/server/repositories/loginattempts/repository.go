// Package loginattempts is the append-only authentication ledger. Rows are
// only ever inserted by the authenticator and removed by an explicit purge.
package loginattempts

import (
	"context"
	"time"

	"github.com/dmitrijs2005/shopauth/internal/server/models"
)

type Repository interface {
	Record(ctx context.Context, attempt *models.LoginAttempt) (*models.LoginAttempt, error)
	// CountRecentFailures counts non-granted attempts for the account
	// created strictly after since.
	CountRecentFailures(ctx context.Context, accountID int64, since time.Time) (int, error)
	// CountRecentFailuresByEmail does the same for attempts that did not
	// resolve to an account.
	CountRecentFailuresByEmail(ctx context.Context, email string, since time.Time) (int, error)
	ListByAccount(ctx context.Context, accountID int64, limit int) ([]*models.LoginAttempt, error)
	ListBefore(ctx context.Context, before time.Time) ([]*models.LoginAttempt, error)
	// DeleteByIDs removes exactly the given rows, so a purge never drops a
	// row it did not archive.
	DeleteByIDs(ctx context.Context, ids []int64) (int64, error)
}
