// Package password holds the password strength policy applied before an
// account is created or a password is reset.
package password

import (
	"fmt"
	"unicode"

	"github.com/dmitrijs2005/shopauth/internal/common"
)

// Policy is a set of minimum counts. A disabled policy accepts anything,
// including the empty string.
type Policy struct {
	Enabled      bool `json:"enabled"`
	MinLength    int  `json:"min_length"`
	MinUppercase int  `json:"min_uppercase"`
	MinDigits    int  `json:"min_digits"`
	MinSpecial   int  `json:"min_special"`
}

func DefaultPolicy() Policy {
	return Policy{
		Enabled:      true,
		MinLength:    10,
		MinUppercase: 1,
		MinDigits:    1,
		MinSpecial:   1,
	}
}

type counts struct {
	length, upper, digits, special int
}

func count(password string) counts {
	var c counts
	for _, r := range password {
		c.length++
		switch {
		case unicode.IsUpper(r):
			c.upper++
		case unicode.IsDigit(r):
			c.digits++
		case unicode.IsPunct(r) || unicode.IsSymbol(r) || unicode.IsSpace(r):
			c.special++
		}
	}
	return c
}

// IsAcceptable reports whether password meets every threshold. Length is
// counted in runes.
func (p Policy) IsAcceptable(password string) bool {
	return p.Check(password) == nil
}

// Check returns nil or an error wrapping common.ErrWeakPassword that names
// the first unmet rule.
func (p Policy) Check(password string) error {
	if !p.Enabled {
		return nil
	}

	c := count(password)
	switch {
	case c.length < p.MinLength:
		return fmt.Errorf("%w: needs at least %d characters", common.ErrWeakPassword, p.MinLength)
	case c.upper < p.MinUppercase:
		return fmt.Errorf("%w: needs at least %d uppercase letters", common.ErrWeakPassword, p.MinUppercase)
	case c.digits < p.MinDigits:
		return fmt.Errorf("%w: needs at least %d digits", common.ErrWeakPassword, p.MinDigits)
	case c.special < p.MinSpecial:
		return fmt.Errorf("%w: needs at least %d special characters", common.ErrWeakPassword, p.MinSpecial)
	}
	return nil
}

// Validate rejects negative thresholds.
func (p Policy) Validate() error {
	if p.MinLength < 0 || p.MinUppercase < 0 || p.MinDigits < 0 || p.MinSpecial < 0 {
		return fmt.Errorf("password policy thresholds must not be negative: %+v", p)
	}
	return nil
}
