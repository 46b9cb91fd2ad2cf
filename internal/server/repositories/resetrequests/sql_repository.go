package resetrequests

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/shopauth/internal/common"
	"github.com/dmitrijs2005/shopauth/internal/dbx"
	"github.com/dmitrijs2005/shopauth/internal/server/models"
)

type SQLRepository struct {
	db      dbx.DBTX
	dialect dbx.Dialect
}

func NewSQLRepository(db dbx.DBTX, dialect dbx.Dialect) *SQLRepository {
	return &SQLRepository{db: db, dialect: dialect}
}

func (r *SQLRepository) Create(ctx context.Context, req *models.PasswordResetRequest) (*models.PasswordResetRequest, error) {
	query :=
		`INSERT INTO password_reset_requests (account_id, token_hash, token_expires_at, created_at)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id
		 `

	err := r.db.QueryRowContext(ctx, r.dialect.Rebind(query),
		req.AccountID, req.TokenHash, req.TokenExpiresAt.UTC(), req.CreatedAt.UTC()).Scan(&req.ID)

	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return req, nil
}

func (r *SQLRepository) GetByTokenHash(ctx context.Context, tokenHash string) (*models.PasswordResetRequest, error) {
	query :=
		`SELECT id, account_id, token_hash, token_expires_at, consumed_at, created_at
		 FROM password_reset_requests
		 WHERE token_hash = $1
		 `

	req := &models.PasswordResetRequest{}
	var consumedAt sql.NullTime
	err := r.db.QueryRowContext(ctx, r.dialect.Rebind(query), tokenHash).
		Scan(&req.ID, &req.AccountID, &req.TokenHash, &req.TokenExpiresAt, &consumedAt, &req.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	if consumedAt.Valid {
		req.ConsumedAt = &consumedAt.Time
	}

	return req, nil
}

func (r *SQLRepository) Consume(ctx context.Context, id int64, at time.Time) error {
	query :=
		`UPDATE password_reset_requests SET consumed_at = $2
		 WHERE id = $1 AND consumed_at IS NULL
		 `

	res, err := r.db.ExecContext(ctx, r.dialect.Rebind(query), id, at.UTC())
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
