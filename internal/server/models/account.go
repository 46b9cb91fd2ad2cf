// Package models defines the records persisted by the service.
package models

import "time"

// Account is a registered user. Email is the sole authentication key and is
// unique across the store. PasswordHash holds a self-describing digest in the
// secure profile and the plaintext in the insecure one.
type Account struct {
	ID           int64
	Email        string
	PasswordHash string
	IsAdmin      bool
	CreatedAt    time.Time
}
