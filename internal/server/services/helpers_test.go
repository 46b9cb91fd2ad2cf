package services

import (
	"context"
	"database/sql"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/shopauth/internal/clock"
	"github.com/dmitrijs2005/shopauth/internal/dbx"
	"github.com/dmitrijs2005/shopauth/internal/server/hashing"
	"github.com/dmitrijs2005/shopauth/internal/server/lockout"
	"github.com/dmitrijs2005/shopauth/internal/server/mailer"
	"github.com/dmitrijs2005/shopauth/internal/server/models"
	"github.com/dmitrijs2005/shopauth/internal/server/password"
	"github.com/dmitrijs2005/shopauth/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/shopauth/internal/server/repositories/loginattempts"
	"github.com/dmitrijs2005/shopauth/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/shopauth/internal/server/repositories/repotest"
	"github.com/stretchr/testify/require"
)

const goodPassword = "Abcde12345!"

var t0 = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

type captureSender struct {
	mu   sync.Mutex
	msgs []mailer.Message
}

func (c *captureSender) Send(_ context.Context, m mailer.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msgs = append(c.msgs, m)
	return nil
}

func (c *captureSender) sent() []mailer.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]mailer.Message(nil), c.msgs...)
}

var tokenRe = regexp.MustCompile(`[0-9a-f]{64}`)

func (c *captureSender) lastToken(t *testing.T) string {
	t.Helper()
	msgs := c.sent()
	require.NotEmpty(t, msgs)
	tok := tokenRe.FindString(msgs[len(msgs)-1].Body)
	require.NotEmpty(t, tok)
	return tok
}

// countingHasher records how often Verify runs.
type countingHasher struct {
	hashing.Hasher
	verifies int
}

func (h *countingHasher) Verify(digest, plaintext string) (bool, error) {
	h.verifies++
	return h.Hasher.Verify(digest, plaintext)
}

func cheapHasher(t *testing.T) *countingHasher {
	t.Helper()
	h, err := hashing.NewArgon2(hashing.Argon2Params{Memory: 8 * 1024, Time: 1, Threads: 1, SaltLength: 16, KeyLength: 32})
	require.NoError(t, err)
	return &countingHasher{Hasher: h}
}

type fixture struct {
	svc    *AuthService
	db     *sql.DB
	clock  *clock.Manual
	mail   *captureSender
	hasher *countingHasher
}

func newFixture(t *testing.T, p *Profile, opts ...Option) *fixture {
	t.Helper()
	f := &fixture{
		db:    repotest.OpenSQLite(t),
		clock: clock.NewManual(t0),
		mail:  &captureSender{},
	}
	opts = append([]Option{WithClock(f.clock), WithMailer(f.mail, "shop@example.com")}, opts...)
	f.svc = NewAuthService(f.db, p, opts...)
	return f
}

func newSecureFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	h := cheapHasher(t)
	f := newFixture(t, SecureProfile(dbx.DialectSQLite, h, lockout.DefaultPolicy(), password.DefaultPolicy()), opts...)
	f.hasher = h
	return f
}

func newInsecureFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixture(t, InsecureProfile(dbx.DialectSQLite))
}

// ledger returns every login attempt in insertion order.
func (f *fixture) ledger(t *testing.T) []*models.LoginAttempt {
	t.Helper()
	rows, err := loginattempts.NewSQLRepository(f.db, dbx.DialectSQLite).ListBefore(context.Background(), t0.Add(24*time.Hour*365))
	require.NoError(t, err)
	return rows
}

func (f *fixture) accountCount(t *testing.T) int {
	t.Helper()
	var n int
	require.NoError(t, f.db.QueryRow(`SELECT COUNT(*) FROM accounts`).Scan(&n))
	return n
}

func (f *fixture) mustCreate(t *testing.T, email, pw string) *models.Account {
	t.Helper()
	a, err := f.svc.CreateAccount(context.Background(), email, pw)
	require.NoError(t, err)
	return a
}

// stubRepos overrides selected repositories of a real manager.
type stubRepos struct {
	repomanager.RepositoryManager
	accounts accounts.Repository
	ledger   loginattempts.Repository
}

func (m *stubRepos) Accounts(db dbx.DBTX) accounts.Repository {
	if m.accounts != nil {
		return m.accounts
	}
	return m.RepositoryManager.Accounts(db)
}

func (m *stubRepos) LoginAttempts(db dbx.DBTX) loginattempts.Repository {
	if m.ledger != nil {
		return m.ledger
	}
	return m.RepositoryManager.LoginAttempts(db)
}

type failingLedger struct {
	loginattempts.Repository
	recordErr error
	countErr  error
}

func (l *failingLedger) Record(ctx context.Context, a *models.LoginAttempt) (*models.LoginAttempt, error) {
	if l.recordErr != nil {
		return nil, l.recordErr
	}
	return l.Repository.Record(ctx, a)
}

func (l *failingLedger) CountRecentFailures(ctx context.Context, id int64, since time.Time) (int, error) {
	if l.countErr != nil {
		return 0, l.countErr
	}
	return l.Repository.CountRecentFailures(ctx, id, since)
}

type failingAccounts struct {
	accounts.Repository
	getErr error
}

func (a *failingAccounts) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	return nil, a.getErr
}

type stubLimiter struct {
	allow bool
	calls int
}

func (l *stubLimiter) Allow(context.Context, string) (bool, error) {
	l.calls++
	return l.allow, nil
}
