package accounts

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/shopauth/internal/dbx"
	"github.com/dmitrijs2005/shopauth/internal/server/models"
)

// InterpolatedTimeLayout is the literal timestamp form spliced into
// interpolated statements. Both PostgreSQL and modernc sqlite parse it.
const InterpolatedTimeLayout = "2006-01-02 15:04:05.999999999-07:00"

// InsecureRepository is the deliberately vulnerable credential store used by
// the insecure profile. Create and GetByEmail splice the caller's strings
// straight into the SQL text, so an email such as `x' OR '1'='1` rewrites
// the WHERE clause. It exists only as a negative fixture and must never be
// selected by the secure profile.
type InsecureRepository struct {
	*SQLRepository
}

func NewInsecureRepository(db dbx.DBTX, dialect dbx.Dialect) *InsecureRepository {
	return &InsecureRepository{SQLRepository: NewSQLRepository(db, dialect)}
}

func (r *InsecureRepository) Create(ctx context.Context, account *models.Account) (*models.Account, error) {
	query := fmt.Sprintf(
		`INSERT INTO accounts (email, password_hash, is_admin, created_at)
		 VALUES ('%s', '%s', %t, '%s')
		 RETURNING id`,
		account.Email, account.PasswordHash, account.IsAdmin,
		account.CreatedAt.UTC().Format(InterpolatedTimeLayout))

	if err := r.db.QueryRowContext(ctx, query).Scan(&account.ID); err != nil {
		return nil, createError(err)
	}

	return account, nil
}

func (r *InsecureRepository) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	query := fmt.Sprintf(
		`SELECT id, email, password_hash, is_admin, created_at FROM accounts
		 WHERE email = '%s'`, email)

	return scanAccount(r.db.QueryRowContext(ctx, query))
}
