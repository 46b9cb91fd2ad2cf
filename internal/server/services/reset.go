package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/shopauth/internal/common"
	"github.com/dmitrijs2005/shopauth/internal/dbx"
	"github.com/dmitrijs2005/shopauth/internal/server/mailer"
	"github.com/dmitrijs2005/shopauth/internal/server/models"
)

const resetTokenBytes = 32

// ResetRequestedMessage is what callers show after RequestPasswordReset,
// whether or not the email exists.
const ResetRequestedMessage = "If an account exists for this email, reset instructions have been sent."

// HashResetToken is the form a reset token is stored and looked up in.
func HashResetToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// RequestPasswordReset issues a one-time token to the account's email. For
// an unknown email nothing is stored or sent, and the result is the same.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	now := s.clock.Now()
	repos := s.profile.Repositories

	account, err := repos.Accounts(s.db).GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.log.Debug(ctx, "password reset for unknown email")
			return nil
		}
		return fmt.Errorf("error looking up account: %w", err)
	}

	token, err := common.MakeRandHexString(resetTokenBytes)
	if err != nil {
		return fmt.Errorf("error generating reset token: %w", err)
	}

	req := &models.PasswordResetRequest{
		AccountID:      account.ID,
		TokenHash:      HashResetToken(token),
		TokenExpiresAt: now.Add(s.resetTTL),
		CreatedAt:      now,
	}
	if _, err := repos.ResetRequests(s.db).Create(ctx, req); err != nil {
		return fmt.Errorf("error storing reset request: %w", err)
	}

	msg := mailer.Message{
		To:      account.Email,
		From:    s.mailFrom,
		Subject: "Password reset",
		Body: fmt.Sprintf("Use this token to reset your password:\n\n%s\n\nIt expires at %s.\n",
			token, req.TokenExpiresAt.Format(time.RFC1123)),
	}
	if err := s.mail.Send(ctx, msg); err != nil {
		s.log.Warn(ctx, "reset mail not handed over", "account_id", account.ID, "error", err)
	}

	s.log.Info(ctx, "password reset requested", "account_id", account.ID, "request_id", req.ID)
	return nil
}

// CompletePasswordReset sets a new password using an emailed token. Any
// problem with the token yields common.ErrInvalidResetToken. The token is
// consumed and the password replaced in one transaction.
func (s *AuthService) CompletePasswordReset(ctx context.Context, token, newPassword string) error {
	if err := s.profile.Policy.Check(newPassword); err != nil {
		return err
	}

	now := s.clock.Now()
	repos := s.profile.Repositories

	req, err := repos.ResetRequests(s.db).GetByTokenHash(ctx, HashResetToken(token))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrInvalidResetToken
		}
		return fmt.Errorf("error looking up reset token: %w", err)
	}
	if !req.Usable(now) {
		return common.ErrInvalidResetToken
	}

	digest, err := s.profile.Hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := repos.ResetRequests(tx).Consume(ctx, req.ID, now); err != nil {
			return err
		}
		return repos.Accounts(tx).UpdatePasswordHash(ctx, req.AccountID, digest)
	})
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrInvalidResetToken
		}
		return fmt.Errorf("error completing password reset: %w", err)
	}

	s.log.Info(ctx, "password reset completed", "account_id", req.AccountID)
	return nil
}
