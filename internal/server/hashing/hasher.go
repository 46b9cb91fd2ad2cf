// Package hashing turns plaintext passwords into self-describing digests and
// verifies them. With hashing disabled the plaintext is stored as is; that
// mode only exists for the insecure profile.
package hashing

import (
	"fmt"
)

const (
	AlgorithmArgon2id = "argon2id"
	AlgorithmBcrypt   = "bcrypt"
)

type Hasher interface {
	Hash(plaintext string) (string, error)
	// Verify reports whether plaintext matches digest. An error means the
	// digest could not be parsed.
	Verify(digest, plaintext string) (bool, error)
}

type Config struct {
	Enabled    bool         `json:"enabled"`
	Algorithm  string       `json:"algorithm"`
	Argon2     Argon2Params `json:"argon2"`
	BcryptCost int          `json:"bcrypt_cost"`
}

func DefaultConfig() Config {
	return Config{
		Enabled:    true,
		Algorithm:  AlgorithmArgon2id,
		Argon2:     DefaultArgon2Params(),
		BcryptCost: DefaultBcryptCost,
	}
}

// New builds the hasher selected by cfg.
func New(cfg Config) (Hasher, error) {
	if !cfg.Enabled {
		return Plaintext{}, nil
	}
	switch cfg.Algorithm {
	case AlgorithmArgon2id, "":
		return NewArgon2(cfg.Argon2)
	case AlgorithmBcrypt:
		return NewBcrypt(cfg.BcryptCost)
	}
	return nil, fmt.Errorf("unknown hashing algorithm %q", cfg.Algorithm)
}
