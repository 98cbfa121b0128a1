package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/procureflow/platform/models"
	"github.com/procureflow/platform/repositories"
	"go.uber.org/zap"
)

// LoginAccountRepository implements the repositories.LoginAccountRepository interface
type LoginAccountRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewLoginAccountRepository creates a new login account repository
func NewLoginAccountRepository(db *DB, logger *zap.Logger) repositories.LoginAccountRepository {
	return &LoginAccountRepository{
		db:     db,
		logger: logger,
	}
}

const loginAccountColumns = `id, identity_id, auth_method, identifier, password_hash,
		provider, provider_user_id, failed_attempts, last_login_at, created_at, updated_at`

// Create creates a new login account
func (r *LoginAccountRepository) Create(ctx context.Context, account *models.LoginAccount) error {
	query := `
		INSERT INTO login_accounts (id, identity_id, auth_method, identifier, password_hash,
			provider, provider_user_id, failed_attempts, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	executor := GetExecutor(ctx, r.db)
	_, err := executor.ExecContext(ctx, query,
		account.ID,
		account.IdentityID,
		account.AuthMethod,
		account.Identifier,
		account.PasswordHash,
		account.Provider,
		account.ProviderUserID,
		account.FailedAttempts,
		account.CreatedAt,
		account.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create login account: %w", err)
	}

	r.logger.Debug("login account created",
		zap.String("id", account.ID.String()),
		zap.String("auth_method", string(account.AuthMethod)))
	return nil
}

// GetLocalByIdentifier retrieves the LOCAL account for a username
func (r *LoginAccountRepository) GetLocalByIdentifier(ctx context.Context, identifier string) (*models.LoginAccount, error) {
	query := `
		SELECT ` + loginAccountColumns + `
		FROM login_accounts
		WHERE auth_method = 'LOCAL' AND identifier = $1
	`

	executor := GetExecutor(ctx, r.db)
	return scanLoginAccount(executor.QueryRowContext(ctx, query, identifier))
}

// GetSSOByIdentity retrieves the SSO account bound to (provider, identity)
func (r *LoginAccountRepository) GetSSOByIdentity(ctx context.Context, identityID uuid.UUID, provider string) (*models.LoginAccount, error) {
	query := `
		SELECT ` + loginAccountColumns + `
		FROM login_accounts
		WHERE auth_method = 'SSO' AND identity_id = $1 AND provider = $2
	`

	executor := GetExecutor(ctx, r.db)
	return scanLoginAccount(executor.QueryRowContext(ctx, query, identityID, provider))
}

// RecordLogin updates the last-login timestamp and resets the failure counter
func (r *LoginAccountRepository) RecordLogin(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE login_accounts
		SET last_login_at = $2, failed_attempts = 0, updated_at = $2
		WHERE id = $1
	`

	executor := GetExecutor(ctx, r.db)
	if _, err := executor.ExecContext(ctx, query, id, time.Now()); err != nil {
		return fmt.Errorf("failed to record login: %w", err)
	}
	return nil
}

// RecordFailure increments the failed-attempt counter
func (r *LoginAccountRepository) RecordFailure(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE login_accounts
		SET failed_attempts = failed_attempts + 1, updated_at = $2
		WHERE id = $1
	`

	executor := GetExecutor(ctx, r.db)
	if _, err := executor.ExecContext(ctx, query, id, time.Now()); err != nil {
		return fmt.Errorf("failed to record login failure: %w", err)
	}
	return nil
}

// WithTx returns a new repository instance bound to the transaction
func (r *LoginAccountRepository) WithTx(tx repositories.Transaction) repositories.LoginAccountRepository {
	return r
}

func scanLoginAccount(row *sql.Row) (*models.LoginAccount, error) {
	account := &models.LoginAccount{}
	err := row.Scan(
		&account.ID,
		&account.IdentityID,
		&account.AuthMethod,
		&account.Identifier,
		&account.PasswordHash,
		&account.Provider,
		&account.ProviderUserID,
		&account.FailedAttempts,
		&account.LastLoginAt,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("failed to scan login account: %w", err)
	}
	return account, nil
}
