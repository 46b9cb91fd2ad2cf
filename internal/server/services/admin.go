package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/shopauth/internal/common"
	"github.com/dmitrijs2005/shopauth/internal/dbx"
	"github.com/dmitrijs2005/shopauth/internal/server/lockout"
	"github.com/dmitrijs2005/shopauth/internal/server/models"
	"github.com/dmitrijs2005/shopauth/internal/server/repositories/accounts"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

// requireAdmin re-reads the actor so that a revoked role or a stale session
// claim is not trusted.
func requireAdmin(ctx context.Context, repo accounts.Repository, actor *models.Account) (*models.Account, error) {
	if actor == nil {
		return nil, common.ErrForbidden
	}
	current, err := repo.GetByID(ctx, actor.ID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrForbidden
		}
		return nil, fmt.Errorf("error loading actor: %w", err)
	}
	if !current.IsAdmin {
		return nil, common.ErrForbidden
	}
	return current, nil
}

// PromoteToAdmin grants the admin role to the account with email.
func (s *AuthService) PromoteToAdmin(ctx context.Context, actor *models.Account, email string) (*models.Account, error) {
	repo := s.profile.Repositories.Accounts(s.db)

	if _, err := requireAdmin(ctx, repo, actor); err != nil {
		return nil, err
	}

	target, err := repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if err := repo.SetAdmin(ctx, target.ID, true); err != nil {
		return nil, fmt.Errorf("error promoting account: %w", err)
	}
	target.IsAdmin = true

	s.log.Info(ctx, "account promoted", "actor_id", actor.ID, "account_id", target.ID)
	return target, nil
}

// BootstrapAdmin promotes email only while no admin exists. It lets an
// operator seed the first admin without an acting account.
func (s *AuthService) BootstrapAdmin(ctx context.Context, email string) (*models.Account, error) {
	var target *models.Account

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.profile.Repositories.Accounts(tx)

		n, err := repo.CountAdmins(ctx)
		if err != nil {
			return err
		}
		if n > 0 {
			return common.ErrForbidden
		}

		target, err = repo.GetByEmail(ctx, email)
		if err != nil {
			return err
		}
		target.IsAdmin = true
		return repo.SetAdmin(ctx, target.ID, true)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info(ctx, "first admin bootstrapped", "account_id", target.ID)
	return target, nil
}

type PurgeResult struct {
	Deleted  int64
	Location string
	Cutoff   time.Time
}

// PurgeLoginAttempts deletes ledger rows created before the cutoff, after
// handing them to the archiver. A failed export leaves the ledger intact.
// The cutoff is clamped so rows still inside the lockout window survive, and
// only the rows that were archived are deleted.
func (s *AuthService) PurgeLoginAttempts(ctx context.Context, actor *models.Account, before time.Time) (*PurgeResult, error) {
	repos := s.profile.Repositories

	if _, err := requireAdmin(ctx, repos.Accounts(s.db), actor); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	res := &PurgeResult{Cutoff: purgeCutoff(before, now, s.profile.Lockout)}

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		ledger := repos.LoginAttempts(tx)

		rows, err := ledger.ListBefore(ctx, res.Cutoff)
		if err != nil {
			return err
		}
		if res.Location, err = s.archiver.Archive(ctx, rows, now); err != nil {
			return fmt.Errorf("error archiving login attempts: %w", err)
		}

		ids := make([]int64, 0, len(rows))
		for _, r := range rows {
			ids = append(ids, r.ID)
		}
		res.Deleted, err = ledger.DeleteByIDs(ctx, ids)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Info(ctx, "login attempts purged", "actor_id", actor.ID, "deleted", res.Deleted, "cutoff", res.Cutoff, "archive", res.Location)
	return res, nil
}

func purgeCutoff(before, now time.Time, l lockout.Policy) time.Time {
	limit := now
	if l.Enabled {
		limit = l.Since(now)
	}
	if before.After(limit) {
		return limit
	}
	return before
}

// LoginHistory lists the newest ledger rows of an account. Accounts may
// read their own history; anyone else must be an admin.
func (s *AuthService) LoginHistory(ctx context.Context, actor *models.Account, accountID int64, limit int) ([]*models.LoginAttempt, error) {
	repos := s.profile.Repositories

	if actor == nil {
		return nil, common.ErrForbidden
	}
	if actor.ID != accountID {
		if _, err := requireAdmin(ctx, repos.Accounts(s.db), actor); err != nil {
			return nil, err
		}
	}

	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	return repos.LoginAttempts(s.db).ListByAccount(ctx, accountID, limit)
}
