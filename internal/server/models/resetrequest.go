package models

import "time"

// PasswordResetRequest is a one-time token issued to an account's email.
// Only the SHA-256 of the token is stored; the raw token leaves the service
// once, inside the reset message. The request is usable while ConsumedAt is
// nil and TokenExpiresAt is in the future.
type PasswordResetRequest struct {
	ID             int64
	AccountID      int64
	TokenHash      string
	TokenExpiresAt time.Time
	ConsumedAt     *time.Time
	CreatedAt      time.Time
}

// Usable reports whether the request can still complete a reset at now.
func (r *PasswordResetRequest) Usable(now time.Time) bool {
	return r.ConsumedAt == nil && now.Before(r.TokenExpiresAt)
}
