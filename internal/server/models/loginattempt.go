package models

import "time"

// ResultCode is the outcome of one authentication attempt.
type ResultCode string

const (
	AccessGrantedPassword     ResultCode = "ACCESS_GRANTED_PASSWORD"
	AccessGrantedToken        ResultCode = "ACCESS_GRANTED_TOKEN"
	AccessDeniedPassword      ResultCode = "ACCESS_DENIED_PASSWORD"
	AccessDeniedAccountLocked ResultCode = "ACCESS_DENIED_ACCOUNT_LOCKED"
)

// GrantedResultCodes lists the codes that do not count as failures.
var GrantedResultCodes = []ResultCode{AccessGrantedPassword, AccessGrantedToken}

// Granted reports whether the code represents a successful attempt.
func (c ResultCode) Granted() bool {
	for _, g := range GrantedResultCodes {
		if c == g {
			return true
		}
	}
	return false
}

// Valid reports whether c is one of the known result codes.
func (c ResultCode) Valid() bool {
	switch c {
	case AccessGrantedPassword, AccessGrantedToken, AccessDeniedPassword, AccessDeniedAccountLocked:
		return true
	}
	return false
}

// LoginAttempt is one append-only ledger row. AccountID is nil when the
// submitted email did not resolve to an account; Email always holds the
// address that was tried.
type LoginAttempt struct {
	ID         int64
	AccountID  *int64
	Email      string
	ResultCode ResultCode
	CreatedAt  time.Time
}
