package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/shopauth/internal/common"
	"github.com/dmitrijs2005/shopauth/internal/dbx"
	"github.com/dmitrijs2005/shopauth/internal/server/lockout"
	"github.com/dmitrijs2005/shopauth/internal/server/models"
	"github.com/dmitrijs2005/shopauth/internal/server/repositories/loginattempts"
	"github.com/dmitrijs2005/shopauth/internal/server/repositories/repomanager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingArchiver struct {
	got []*models.LoginAttempt
	err error
}

func (a *recordingArchiver) Archive(_ context.Context, rows []*models.LoginAttempt, _ time.Time) (string, error) {
	if a.err != nil {
		return "", a.err
	}
	a.got = rows
	return "s3://bucket/key.jsonl", nil
}

func TestBootstrapAdmin(t *testing.T) {
	f := newSecureFixture(t)
	ctx := context.Background()
	f.mustCreate(t, "root@example.com", goodPassword)
	f.mustCreate(t, "other@example.com", goodPassword)

	admin, err := f.svc.BootstrapAdmin(ctx, "root@example.com")
	require.NoError(t, err)
	assert.True(t, admin.IsAdmin)

	_, err = f.svc.BootstrapAdmin(ctx, "other@example.com")
	assert.ErrorIs(t, err, common.ErrForbidden, "only the first admin can be bootstrapped")

	_, err = newSecureFixture(t).svc.BootstrapAdmin(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestPromoteToAdmin(t *testing.T) {
	f := newSecureFixture(t)
	ctx := context.Background()
	root := f.mustCreate(t, "root@example.com", goodPassword)
	user := f.mustCreate(t, "user@example.com", goodPassword)

	_, err := f.svc.PromoteToAdmin(ctx, user, "root@example.com")
	assert.ErrorIs(t, err, common.ErrForbidden)

	_, err = f.svc.PromoteToAdmin(ctx, nil, "user@example.com")
	assert.ErrorIs(t, err, common.ErrForbidden)

	_, err = f.svc.BootstrapAdmin(ctx, "root@example.com")
	require.NoError(t, err)

	// a forged flag on the caller's copy is not trusted
	forged := *user
	forged.IsAdmin = true
	_, err = f.svc.PromoteToAdmin(ctx, &forged, "root@example.com")
	assert.ErrorIs(t, err, common.ErrForbidden)

	promoted, err := f.svc.PromoteToAdmin(ctx, root, "user@example.com")
	require.NoError(t, err)
	assert.True(t, promoted.IsAdmin)

	_, err = f.svc.PromoteToAdmin(ctx, root, "ghost@example.com")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestPurgeLoginAttempts(t *testing.T) {
	arch := &recordingArchiver{}
	f := newSecureFixture(t, WithArchiver(arch))
	ctx := context.Background()

	root := f.mustCreate(t, "root@example.com", goodPassword)
	_, err := f.svc.BootstrapAdmin(ctx, "root@example.com")
	require.NoError(t, err)

	_, err = f.svc.Authenticate(ctx, "root@example.com", "wrong")
	require.NoError(t, err)
	f.clock.Advance(time.Hour)
	cutoff := f.clock.Now()
	f.clock.Advance(time.Hour)
	_, err = f.svc.Authenticate(ctx, "root@example.com", goodPassword)
	require.NoError(t, err)

	user := f.mustCreate(t, "user@example.com", goodPassword)
	_, err = f.svc.PurgeLoginAttempts(ctx, user, cutoff)
	assert.ErrorIs(t, err, common.ErrForbidden)

	res, err := f.svc.PurgeLoginAttempts(ctx, root, cutoff)
	require.NoError(t, err)
	assert.EqualValues(t, 1, res.Deleted)
	assert.Equal(t, "s3://bucket/key.jsonl", res.Location)
	require.Len(t, arch.got, 1)
	assert.Equal(t, models.AccessDeniedPassword, arch.got[0].ResultCode)

	rows := f.ledger(t)
	require.Len(t, rows, 1)
	assert.Equal(t, models.AccessGrantedPassword, rows[0].ResultCode)
}

func TestPurgeLoginAttempts_ArchiveFailureKeepsLedger(t *testing.T) {
	f := newSecureFixture(t, WithArchiver(&recordingArchiver{err: errors.New("bucket gone")}))
	ctx := context.Background()

	root := f.mustCreate(t, "root@example.com", goodPassword)
	_, err := f.svc.BootstrapAdmin(ctx, "root@example.com")
	require.NoError(t, err)
	_, err = f.svc.Authenticate(ctx, "root@example.com", "wrong")
	require.NoError(t, err)
	f.clock.Advance(time.Hour)

	_, err = f.svc.PurgeLoginAttempts(ctx, root, f.clock.Now())
	assert.ErrorContains(t, err, "bucket gone")
	assert.Len(t, f.ledger(t), 1)
}

func TestPurgeLoginAttempts_KeepsLockoutWindow(t *testing.T) {
	arch := &recordingArchiver{}
	f := newSecureFixture(t, WithArchiver(arch))
	ctx := context.Background()

	root := f.mustCreate(t, "root@example.com", goodPassword)
	_, err := f.svc.BootstrapAdmin(ctx, "root@example.com")
	require.NoError(t, err)
	f.mustCreate(t, "a@example.com", goodPassword)

	for i := 0; i < 3; i++ {
		_, err := f.svc.Authenticate(ctx, "a@example.com", "wrong")
		require.NoError(t, err)
	}

	res, err := f.svc.PurgeLoginAttempts(ctx, root, f.clock.Now().Add(24*time.Hour))
	require.NoError(t, err)
	assert.Zero(t, res.Deleted)
	assert.True(t, res.Cutoff.Equal(f.clock.Now().Add(-5*time.Minute)))

	got, err := f.svc.Authenticate(ctx, "a@example.com", goodPassword)
	require.NoError(t, err)
	assert.Nil(t, got, "failures inside the window still lock the account")
}

// lateWriterLedger inserts an old row after the listing, as a concurrent
// transaction committing between the two statements would.
type lateWriterLedger struct {
	loginattempts.Repository
	late *models.LoginAttempt
}

func (l *lateWriterLedger) ListBefore(ctx context.Context, before time.Time) ([]*models.LoginAttempt, error) {
	rows, err := l.Repository.ListBefore(ctx, before)
	if err != nil {
		return nil, err
	}
	l.late, err = l.Repository.Record(ctx, &models.LoginAttempt{
		Email:      "late@example.com",
		ResultCode: models.AccessDeniedPassword,
		CreatedAt:  before.Add(-time.Hour),
	})
	return rows, err
}

type lateWriterRepos struct {
	repomanager.RepositoryManager
	ledger *lateWriterLedger
}

func (m *lateWriterRepos) LoginAttempts(db dbx.DBTX) loginattempts.Repository {
	m.ledger = &lateWriterLedger{Repository: m.RepositoryManager.LoginAttempts(db)}
	return m.ledger
}

func TestPurgeLoginAttempts_DeletesOnlyArchivedRows(t *testing.T) {
	arch := &recordingArchiver{}
	f := newSecureFixture(t, WithArchiver(arch))
	ctx := context.Background()

	root := f.mustCreate(t, "root@example.com", goodPassword)
	_, err := f.svc.BootstrapAdmin(ctx, "root@example.com")
	require.NoError(t, err)
	_, err = f.svc.Authenticate(ctx, "root@example.com", "wrong")
	require.NoError(t, err)
	f.clock.Advance(time.Hour)

	p := f.svc.Profile()
	repos := &lateWriterRepos{RepositoryManager: p.Repositories}
	p.Repositories = repos

	res, err := f.svc.PurgeLoginAttempts(ctx, root, f.clock.Now().Add(-10*time.Minute))
	require.NoError(t, err)
	assert.EqualValues(t, 1, res.Deleted)
	require.Len(t, arch.got, 1)

	rows := f.ledger(t)
	require.Len(t, rows, 1)
	assert.Equal(t, repos.ledger.late.ID, rows[0].ID, "the unarchived row survives")
}

func TestPurgeCutoff(t *testing.T) {
	now := t0
	on := lockout.DefaultPolicy()

	assert.Equal(t, now.Add(-time.Hour), purgeCutoff(now.Add(-time.Hour), now, on))
	assert.Equal(t, now.Add(-5*time.Minute), purgeCutoff(now.Add(time.Hour), now, on))
	assert.Equal(t, now, purgeCutoff(now.Add(time.Hour), now, lockout.Policy{}))
}

func TestLoginHistory(t *testing.T) {
	f := newSecureFixture(t)
	ctx := context.Background()

	root := f.mustCreate(t, "root@example.com", goodPassword)
	user := f.mustCreate(t, "user@example.com", goodPassword)
	other := f.mustCreate(t, "other@example.com", goodPassword)
	_, err := f.svc.BootstrapAdmin(ctx, "root@example.com")
	require.NoError(t, err)

	for _, pw := range []string{"wrong", goodPassword} {
		_, err := f.svc.Authenticate(ctx, "user@example.com", pw)
		require.NoError(t, err)
		f.clock.Advance(time.Second)
	}

	own, err := f.svc.LoginHistory(ctx, user, user.ID, 0)
	require.NoError(t, err)
	require.Len(t, own, 2)
	assert.Equal(t, models.AccessGrantedPassword, own[0].ResultCode, "newest first")

	limited, err := f.svc.LoginHistory(ctx, root, user.ID, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	_, err = f.svc.LoginHistory(ctx, other, user.ID, 10)
	assert.ErrorIs(t, err, common.ErrForbidden)

	_, err = f.svc.LoginHistory(ctx, nil, user.ID, 10)
	assert.ErrorIs(t, err, common.ErrForbidden)
}
