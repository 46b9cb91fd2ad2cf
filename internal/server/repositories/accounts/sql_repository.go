package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/shopauth/internal/common"
	"github.com/dmitrijs2005/shopauth/internal/dbx"
	"github.com/dmitrijs2005/shopauth/internal/server/models"
)

// SQLRepository binds every value as a query parameter.
type SQLRepository struct {
	db      dbx.DBTX
	dialect dbx.Dialect
}

func NewSQLRepository(db dbx.DBTX, dialect dbx.Dialect) *SQLRepository {
	return &SQLRepository{db: db, dialect: dialect}
}

func (r *SQLRepository) Create(ctx context.Context, account *models.Account) (*models.Account, error) {
	query :=
		`INSERT INTO accounts (email, password_hash, is_admin, created_at)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id
		 `

	err := r.db.QueryRowContext(ctx, r.dialect.Rebind(query),
		account.Email, account.PasswordHash, account.IsAdmin, account.CreatedAt.UTC()).Scan(&account.ID)

	if err != nil {
		return nil, createError(err)
	}

	return account, nil
}

func (r *SQLRepository) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	query :=
		`SELECT id, email, password_hash, is_admin, created_at FROM accounts
		 WHERE email = $1
		 `

	return scanAccount(r.db.QueryRowContext(ctx, r.dialect.Rebind(query), email))
}

func (r *SQLRepository) GetByID(ctx context.Context, id int64) (*models.Account, error) {
	query :=
		`SELECT id, email, password_hash, is_admin, created_at FROM accounts
		 WHERE id = $1
		 `

	return scanAccount(r.db.QueryRowContext(ctx, r.dialect.Rebind(query), id))
}

func (r *SQLRepository) UpdatePasswordHash(ctx context.Context, id int64, passwordHash string) error {
	query :=
		`UPDATE accounts SET password_hash = $2
		 WHERE id = $1
		 `

	res, err := r.db.ExecContext(ctx, r.dialect.Rebind(query), id, passwordHash)
	return affectedOne(res, err)
}

func (r *SQLRepository) SetAdmin(ctx context.Context, id int64, isAdmin bool) error {
	query :=
		`UPDATE accounts SET is_admin = $2
		 WHERE id = $1
		 `

	res, err := r.db.ExecContext(ctx, r.dialect.Rebind(query), id, isAdmin)
	return affectedOne(res, err)
}

func (r *SQLRepository) CountAdmins(ctx context.Context) (int, error) {
	query :=
		`SELECT COUNT(*) FROM accounts
		 WHERE is_admin = $1
		 `

	var n int
	if err := r.db.QueryRowContext(ctx, r.dialect.Rebind(query), true).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}

	return n, nil
}

func scanAccount(row *sql.Row) (*models.Account, error) {
	account := &models.Account{}
	err := row.Scan(&account.ID, &account.Email, &account.PasswordHash, &account.IsAdmin, &account.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return account, nil
}

func createError(err error) error {
	if dbx.IsUniqueViolation(err) {
		return common.ErrDuplicateEmail
	}
	return fmt.Errorf("db error: %w", err)
}

func affectedOne(res sql.Result, err error) error {
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
