package loginattempts

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/shopauth/internal/dbx"
	"github.com/dmitrijs2005/shopauth/internal/server/models"
)

var t0 = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newRepoWithMock(t *testing.T) (*SQLRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewSQLRepository(db, dbx.DialectPostgres), mock, db
}

func int64p(v int64) *int64 { return &v }

const (
	recordQuery  = `(?s)^INSERT\s+INTO\s+login_attempts\s*\(account_id,\s*email,\s*result_code,\s*created_at\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4\)\s*RETURNING\s+id\s*$`
	countQuery   = `(?s)^SELECT\s+COUNT\(\*\)\s+FROM\s+login_attempts\s+WHERE\s+account_id\s*=\s*\$1\s+AND\s+created_at\s*>\s*\$2\s+AND\s+result_code\s+NOT\s+IN\s*\(\$3,\s*\$4\)\s*$`
	byEmailQuery = `(?s)^SELECT\s+COUNT\(\*\)\s+FROM\s+login_attempts\s+WHERE\s+account_id\s+IS\s+NULL\s+AND\s+email\s*=\s*\$1\s+AND\s+created_at\s*>\s*\$2\s+AND\s+result_code\s+NOT\s+IN\s*\(\$3,\s*\$4\)\s*$`
	listQuery    = `(?s)^SELECT\s+id,\s*account_id,\s*email,\s*result_code,\s*created_at\s+FROM\s+login_attempts\s+WHERE\s+account_id\s*=\s*\$1\s+ORDER\s+BY\s+created_at\s+DESC,\s*id\s+DESC\s+LIMIT\s+\$2\s*$`
	deleteQuery  = `(?s)^DELETE\s+FROM\s+login_attempts\s+WHERE\s+id\s+IN\s*\(\$1,\s*\$2,\s*\$3\)\s*$`
)

func TestRecord_WithAccount(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(recordQuery).
		WithArgs(sql.NullInt64{Int64: 7, Valid: true}, "a@example.com", "ACCESS_DENIED_PASSWORD", t0).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))

	got, err := repo.Record(context.Background(), &models.LoginAttempt{
		AccountID: int64p(7), Email: "a@example.com", ResultCode: models.AccessDeniedPassword, CreatedAt: t0,
	})
	if err != nil {
		t.Fatalf("Record error: %v", err)
	}
	if got.ID != 1 {
		t.Fatalf("unexpected id: %d", got.ID)
	}
}

func TestRecord_UnknownEmailStoresNull(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(recordQuery).
		WithArgs(sql.NullInt64{}, "ghost@example.com", "ACCESS_DENIED_PASSWORD", t0).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(2)))

	_, err := repo.Record(context.Background(), &models.LoginAttempt{
		Email: "ghost@example.com", ResultCode: models.AccessDeniedPassword, CreatedAt: t0,
	})
	if err != nil {
		t.Fatalf("Record error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestRecord_RejectsUnknownCode(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	_, err := repo.Record(context.Background(), &models.LoginAttempt{Email: "a@example.com", ResultCode: "MAYBE"})
	if err == nil {
		t.Fatal("expected error for unknown result code")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("no query expected: %v", err)
	}
}

func TestRecord_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(recordQuery).WillReturnError(errors.New("disk full"))

	_, err := repo.Record(context.Background(), &models.LoginAttempt{Email: "a@example.com", ResultCode: models.AccessGrantedPassword, CreatedAt: t0})
	if err == nil || !regexp.MustCompile(`db error: .*disk full`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestCountRecentFailures(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	since := t0.Add(-5 * time.Minute)
	mock.ExpectQuery(countQuery).
		WithArgs(int64(7), since, "ACCESS_GRANTED_PASSWORD", "ACCESS_GRANTED_TOKEN").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(3)))

	n, err := repo.CountRecentFailures(context.Background(), 7, since)
	if err != nil {
		t.Fatalf("CountRecentFailures error: %v", err)
	}
	if n != 3 {
		t.Fatalf("want 3, got %d", n)
	}
}

func TestCountRecentFailuresByEmail_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(byEmailQuery).
		WithArgs("ghost@example.com", t0, "ACCESS_GRANTED_PASSWORD", "ACCESS_GRANTED_TOKEN").
		WillReturnError(errors.New("db err"))

	_, err := repo.CountRecentFailuresByEmail(context.Background(), "ghost@example.com", t0)
	if err == nil || !regexp.MustCompile(`db error: .*db err`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestListByAccount(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"id", "account_id", "email", "result_code", "created_at"}).
		AddRow(int64(2), int64(7), "a@example.com", "ACCESS_GRANTED_PASSWORD", t0.Add(time.Minute)).
		AddRow(int64(1), int64(7), "a@example.com", "ACCESS_DENIED_PASSWORD", t0)
	mock.ExpectQuery(listQuery).
		WithArgs(int64(7), 10).
		WillReturnRows(rows)

	got, err := repo.ListByAccount(context.Background(), 7, 10)
	if err != nil {
		t.Fatalf("ListByAccount error: %v", err)
	}
	if len(got) != 2 || got[0].ResultCode != models.AccessGrantedPassword || *got[1].AccountID != 7 {
		t.Fatalf("unexpected rows: %+v", got)
	}
}

func TestListByAccount_ScanError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"id", "account_id", "email", "result_code", "created_at"}).
		AddRow("not-a-number", int64(7), "a@example.com", "ACCESS_GRANTED_PASSWORD", t0)
	mock.ExpectQuery(listQuery).WillReturnRows(rows)

	_, err := repo.ListByAccount(context.Background(), 7, 10)
	if err == nil || !regexp.MustCompile(`db error`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped scan error, got %v", err)
	}
}

func TestDeleteByIDs(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(deleteQuery).
		WithArgs(int64(3), int64(5), int64(9)).
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := repo.DeleteByIDs(context.Background(), []int64{3, 5, 9})
	if err != nil {
		t.Fatalf("DeleteByIDs error: %v", err)
	}
	if n != 3 {
		t.Fatalf("want 3, got %d", n)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestDeleteByIDs_Empty(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	n, err := repo.DeleteByIDs(context.Background(), nil)
	if err != nil || n != 0 {
		t.Fatalf("want 0 and no error, got %d, %v", n, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("no statement expected: %v", err)
	}
}

func TestDeleteByIDs_Error(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`DELETE`).WillReturnError(errors.New("boom"))

	_, err := repo.DeleteByIDs(context.Background(), []int64{1})
	if err == nil || !regexp.MustCompile(`db error`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
}
