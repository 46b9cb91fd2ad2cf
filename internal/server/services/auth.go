// Package services holds the authentication core: account creation, the
// login state machine, password resets and the admin operations. Every
// operation runs against the repositories of the configured Profile.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/shopauth/internal/clock"
	"github.com/dmitrijs2005/shopauth/internal/common"
	"github.com/dmitrijs2005/shopauth/internal/logging"
	"github.com/dmitrijs2005/shopauth/internal/server/archive"
	"github.com/dmitrijs2005/shopauth/internal/server/mailer"
	"github.com/dmitrijs2005/shopauth/internal/server/models"
	"github.com/dmitrijs2005/shopauth/internal/server/throttle"
)

const defaultResetTokenTTL = 30 * time.Minute

type AuthService struct {
	db       *sql.DB
	profile  *Profile
	clock    clock.Clock
	mail     mailer.Sender
	mailFrom string
	limiter  throttle.Limiter
	archiver archive.Archiver
	log      logging.Logger
	resetTTL time.Duration
}

type Option func(*AuthService)

func WithClock(c clock.Clock) Option { return func(s *AuthService) { s.clock = c } }

func WithMailer(m mailer.Sender, from string) Option {
	return func(s *AuthService) { s.mail, s.mailFrom = m, from }
}

func WithLimiter(l throttle.Limiter) Option { return func(s *AuthService) { s.limiter = l } }

func WithArchiver(a archive.Archiver) Option { return func(s *AuthService) { s.archiver = a } }

func WithLogger(l logging.Logger) Option { return func(s *AuthService) { s.log = l } }

func WithResetTokenTTL(d time.Duration) Option { return func(s *AuthService) { s.resetTTL = d } }

func NewAuthService(db *sql.DB, p *Profile, opts ...Option) *AuthService {
	s := &AuthService{
		db:       db,
		profile:  p,
		clock:    clock.System{},
		limiter:  throttle.Unlimited{},
		archiver: archive.Discard{},
		log:      logging.Nop{},
		resetTTL: defaultResetTokenTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.mail == nil {
		s.mail = mailer.NewLogSender(s.log)
	}
	s.log = s.log.With("profile", p.Name)
	return s
}

func (s *AuthService) Profile() *Profile { return s.profile }

// CreateAccount checks the password policy, hashes and inserts. A weak
// password fails before anything else happens; a taken email is reported by
// the store's unique constraint as common.ErrDuplicateEmail.
func (s *AuthService) CreateAccount(ctx context.Context, email, password string) (*models.Account, error) {
	if err := s.profile.Policy.Check(password); err != nil {
		return nil, err
	}

	ok, err := s.limiter.Allow(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("signup throttle: %w", err)
	}
	if !ok {
		s.log.Warn(ctx, "account creation throttled")
		return nil, common.ErrRateLimited
	}

	digest, err := s.profile.Hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	account := &models.Account{
		Email:        email,
		PasswordHash: digest,
		CreatedAt:    s.clock.Now(),
	}

	account, err = s.profile.Repositories.Accounts(s.db).Create(ctx, account)
	if err != nil {
		if errors.Is(err, common.ErrDuplicateEmail) {
			return nil, common.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("error creating account: %w", err)
	}

	s.log.Info(ctx, "account created", "account_id", account.ID)
	return account, nil
}

// Authenticate returns the account for a correct email and password, and
// nil otherwise. Unknown email, wrong password and a locked account all
// look the same to the caller; only the ledger tells them apart. An error
// is returned only when storage fails, including the ledger write, so a
// login is never granted without its audit row.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (*models.Account, error) {
	now := s.clock.Now()
	repos := s.profile.Repositories
	ledger := repos.LoginAttempts(s.db)

	account, err := repos.Accounts(s.db).GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, common.ErrorNotFound) {
		return nil, fmt.Errorf("error looking up account: %w", err)
	}

	var accountID *int64
	if account != nil {
		accountID = &account.ID
	}

	locked, err := s.locked(ctx, ledger, accountID, email, now)
	if err != nil {
		return nil, err
	}

	var code models.ResultCode
	switch {
	case locked:
		code = models.AccessDeniedAccountLocked
	case account == nil:
		code = models.AccessDeniedPassword
	default:
		ok, err := s.profile.Hasher.Verify(account.PasswordHash, password)
		if err != nil {
			s.log.Warn(ctx, "stored digest unreadable", "account_id", account.ID, "error", err)
		}
		code = models.AccessDeniedPassword
		if ok {
			code = models.AccessGrantedPassword
		}
	}

	_, err = ledger.Record(ctx, &models.LoginAttempt{
		AccountID:  accountID,
		Email:      email,
		ResultCode: code,
		CreatedAt:  now,
	})
	if err != nil {
		s.log.Error(ctx, "login attempt not recorded", "error", err)
		return nil, fmt.Errorf("error recording login attempt: %w", err)
	}

	s.log.Info(ctx, "login attempt", "account_id", accountID, "result", code)

	if !code.Granted() {
		return nil, nil
	}
	return account, nil
}

// locked counts recent failures for the account, or for the bare email when
// it resolved to no account.
func (s *AuthService) locked(ctx context.Context, ledger loginAttemptCounter, accountID *int64, email string, now time.Time) (bool, error) {
	policy := s.profile.Lockout
	if !policy.Enabled {
		return false, nil
	}

	since := policy.Since(now)

	var (
		n   int
		err error
	)
	if accountID != nil {
		n, err = ledger.CountRecentFailures(ctx, *accountID, since)
	} else {
		n, err = ledger.CountRecentFailuresByEmail(ctx, email, since)
	}
	if err != nil {
		return false, fmt.Errorf("error counting recent failures: %w", err)
	}

	return policy.IsLocked(n), nil
}

type loginAttemptCounter interface {
	CountRecentFailures(ctx context.Context, accountID int64, since time.Time) (int, error)
	CountRecentFailuresByEmail(ctx context.Context, email string, since time.Time) (int, error)
}
