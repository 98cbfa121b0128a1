package credentials

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/procureflow/platform/repositories"
	"github.com/procureflow/platform/services"
	"github.com/procureflow/platform/services/token"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// ClaimsSource resolves current identity claims after a successful check
type ClaimsSource interface {
	CurrentClaims(ctx context.Context, identityID uuid.UUID) (*token.Snapshot, error)
}

// Verifier checks local username/password pairs against stored hashes.
// Every failure surfaces as InvalidCredentials: the caller must never learn
// which half of the check failed.
type Verifier struct {
	accounts repositories.LoginAccountRepository
	source   ClaimsSource
	logger   *zap.Logger
}

// NewVerifier creates a credential verifier
func NewVerifier(accounts repositories.LoginAccountRepository, source ClaimsSource, logger *zap.Logger) *Verifier {
	return &Verifier{
		accounts: accounts,
		source:   source,
		logger:   logger,
	}
}

// Verify checks the password for a LOCAL login account and returns the
// identity's current claims on success.
func (v *Verifier) Verify(ctx context.Context, username, password string) (*token.Snapshot, error) {
	account, err := v.accounts.GetLocalByIdentifier(ctx, username)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			v.logger.Error("login account lookup failed", zap.Error(err))
		}
		return nil, services.ErrInvalidCredentials
	}

	if account.PasswordHash == nil || *account.PasswordHash == "" {
		return nil, services.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(*account.PasswordHash), []byte(password)); err != nil {
		if recErr := v.accounts.RecordFailure(ctx, account.ID); recErr != nil {
			v.logger.Warn("failed to record login failure", zap.Error(recErr))
		}
		return nil, services.ErrInvalidCredentials
	}

	snap, err := v.source.CurrentClaims(ctx, account.IdentityID)
	if err != nil {
		v.logger.Error("claims resolution failed after password check", zap.Error(err))
		return nil, services.ErrInvalidCredentials
	}

	if err := v.accounts.RecordLogin(ctx, account.ID); err != nil {
		// Last-login bookkeeping never blocks a valid login
		v.logger.Warn("failed to record login", zap.Error(err))
	}

	return snap, nil
}

// HashPassword hashes a plaintext password for storage
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
