// Package common defines sentinel errors and small helpers shared by the
// storage, service and transport layers. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors.
	ErrorInternal = errors.New("internal error")
	ErrForbidden  = errors.New("forbidden")

	// Account creation errors. Both are recoverable: the caller re-prompts.
	ErrWeakPassword   = errors.New("password does not satisfy the password policy")
	ErrDuplicateEmail = errors.New("email already registered")
	ErrRateLimited    = errors.New("too many attempts, try again later")

	// Password reset errors.
	ErrInvalidResetToken = errors.New("invalid or expired reset token")

	// Catalog errors.
	ErrInvalidProduct = errors.New("product needs a title and a non-negative price")

	// Session token errors.
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)
