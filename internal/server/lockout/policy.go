// Package lockout decides whether an account is temporarily locked from the
// number of failed attempts in a trailing window.
package lockout

import (
	"errors"
	"time"

	"github.com/dmitrijs2005/shopauth/internal/timex"
)

type Policy struct {
	Enabled bool `json:"enabled"`
	// Threshold is the number of failures inside Window at which further
	// attempts are refused.
	Threshold int            `json:"threshold"`
	Window    timex.Duration `json:"window"`
}

func DefaultPolicy() Policy {
	return Policy{
		Enabled:   true,
		Threshold: 3,
		Window:    timex.Duration{Duration: 5 * time.Minute},
	}
}

// IsLocked reports whether recentFailures reaches the threshold. A disabled
// policy never locks.
func (p Policy) IsLocked(recentFailures int) bool {
	return p.Enabled && recentFailures >= p.Threshold
}

// Since is the exclusive lower bound of the window ending at now.
func (p Policy) Since(now time.Time) time.Time {
	return now.Add(-p.Window.Duration)
}

func (p Policy) Validate() error {
	if !p.Enabled {
		return nil
	}
	if p.Threshold < 1 {
		return errors.New("lockout threshold must be >= 1")
	}
	if p.Window.Duration <= 0 {
		return errors.New("lockout window must be positive")
	}
	return nil
}
