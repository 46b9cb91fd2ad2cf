package loginattempts

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

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

func (r *SQLRepository) Record(ctx context.Context, attempt *models.LoginAttempt) (*models.LoginAttempt, error) {
	if !attempt.ResultCode.Valid() {
		return nil, fmt.Errorf("unknown result code %q", attempt.ResultCode)
	}

	query :=
		`INSERT INTO login_attempts (account_id, email, result_code, created_at)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id
		 `

	var accountID sql.NullInt64
	if attempt.AccountID != nil {
		accountID = sql.NullInt64{Int64: *attempt.AccountID, Valid: true}
	}

	err := r.db.QueryRowContext(ctx, r.dialect.Rebind(query),
		accountID, attempt.Email, string(attempt.ResultCode), attempt.CreatedAt.UTC()).Scan(&attempt.ID)

	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return attempt, nil
}

func (r *SQLRepository) CountRecentFailures(ctx context.Context, accountID int64, since time.Time) (int, error) {
	query :=
		`SELECT COUNT(*) FROM login_attempts
		 WHERE account_id = $1 AND created_at > $2 AND result_code NOT IN ($3, $4)
		 `

	return r.count(ctx, query, accountID, since)
}

func (r *SQLRepository) CountRecentFailuresByEmail(ctx context.Context, email string, since time.Time) (int, error) {
	query :=
		`SELECT COUNT(*) FROM login_attempts
		 WHERE account_id IS NULL AND email = $1 AND created_at > $2 AND result_code NOT IN ($3, $4)
		 `

	return r.count(ctx, query, email, since)
}

func (r *SQLRepository) count(ctx context.Context, query string, key any, since time.Time) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, r.dialect.Rebind(query), key, since.UTC(),
		string(models.AccessGrantedPassword), string(models.AccessGrantedToken)).Scan(&n)

	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}

	return n, nil
}

func (r *SQLRepository) ListByAccount(ctx context.Context, accountID int64, limit int) ([]*models.LoginAttempt, error) {
	query :=
		`SELECT id, account_id, email, result_code, created_at FROM login_attempts
		 WHERE account_id = $1
		 ORDER BY created_at DESC, id DESC
		 LIMIT $2
		 `

	return r.list(ctx, query, accountID, limit)
}

func (r *SQLRepository) ListBefore(ctx context.Context, before time.Time) ([]*models.LoginAttempt, error) {
	query :=
		`SELECT id, account_id, email, result_code, created_at FROM login_attempts
		 WHERE created_at < $1
		 ORDER BY id
		 `

	return r.list(ctx, query, before.UTC())
}

func (r *SQLRepository) list(ctx context.Context, query string, args ...any) ([]*models.LoginAttempt, error) {
	rows, err := r.db.QueryContext(ctx, r.dialect.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.LoginAttempt
	for rows.Next() {
		var (
			a         models.LoginAttempt
			accountID sql.NullInt64
			code      string
		)
		if err := rows.Scan(&a.ID, &accountID, &a.Email, &code, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		if accountID.Valid {
			id := accountID.Int64
			a.AccountID = &id
		}
		a.ResultCode = models.ResultCode(code)
		result = append(result, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

// deleteBatch bounds the number of bind parameters per statement.
const deleteBatch = 500

func (r *SQLRepository) DeleteByIDs(ctx context.Context, ids []int64) (int64, error) {
	var total int64

	for start := 0; start < len(ids); start += deleteBatch {
		batch := ids[start:min(start+deleteBatch, len(ids))]

		placeholders := make([]string, len(batch))
		args := make([]any, len(batch))
		for i, id := range batch {
			placeholders[i] = "$" + strconv.Itoa(i+1)
			args[i] = id
		}

		query :=
			`DELETE FROM login_attempts
			 WHERE id IN (` + strings.Join(placeholders, ", ") + `)
			 `

		res, err := r.db.ExecContext(ctx, r.dialect.Rebind(query), args...)
		if err != nil {
			return total, fmt.Errorf("db error: %w", err)
		}

		n, err := res.RowsAffected()
		if err != nil {
			return total, fmt.Errorf("db error: %w", err)
		}
		total += n
	}

	return total, nil
}
