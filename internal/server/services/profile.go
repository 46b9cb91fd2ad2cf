package services

import (
	"fmt"

	"github.com/dmitrijs2005/shopauth/internal/dbx"
	"github.com/dmitrijs2005/shopauth/internal/server/config"
	"github.com/dmitrijs2005/shopauth/internal/server/hashing"
	"github.com/dmitrijs2005/shopauth/internal/server/lockout"
	"github.com/dmitrijs2005/shopauth/internal/server/password"
	"github.com/dmitrijs2005/shopauth/internal/server/repositories/repomanager"
)

// Profile is the capability bundle the AuthService runs with. Secure and
// insecure behaviour differ only in the values held here.
type Profile struct {
	Name         string
	Hasher       hashing.Hasher
	Repositories repomanager.RepositoryManager
	Lockout      lockout.Policy
	Policy       password.Policy
}

// SecureProfile binds parameters, hashes with h and enforces both policies
// as given.
func SecureProfile(dialect dbx.Dialect, h hashing.Hasher, l lockout.Policy, p password.Policy) *Profile {
	return &Profile{
		Name:         config.ProfileSecure,
		Hasher:       h,
		Repositories: repomanager.NewParameterized(dialect),
		Lockout:      l,
		Policy:       p,
	}
}

// InsecureProfile is the deliberately weakened bundle: plaintext storage,
// interpolated SQL, no lockout and no password policy.
func InsecureProfile(dialect dbx.Dialect) *Profile {
	return &Profile{
		Name:         config.ProfileInsecure,
		Hasher:       hashing.Plaintext{},
		Repositories: repomanager.NewInterpolated(dialect),
		Lockout:      lockout.Policy{Enabled: false},
		Policy:       password.Policy{Enabled: false},
	}
}

// NewProfile builds the profile named by cfg.Profile.
func NewProfile(cfg *config.Config) (*Profile, error) {
	dialect, err := dbx.DialectForDriver(cfg.DatabaseDriver)
	if err != nil {
		return nil, err
	}

	switch cfg.Profile {
	case config.ProfileSecure:
		h, err := hashing.New(cfg.Hashing)
		if err != nil {
			return nil, err
		}
		return SecureProfile(dialect, h, cfg.Lockout, cfg.Policy), nil
	case config.ProfileInsecure:
		return InsecureProfile(dialect), nil
	}
	return nil, fmt.Errorf("unknown profile %q", cfg.Profile)
}
