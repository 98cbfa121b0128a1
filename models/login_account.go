package models

import (
	"time"

	"github.com/google/uuid"
)

// AuthMethod distinguishes local-password logins from federated SSO logins
type AuthMethod string

const (
	AuthMethodLocal AuthMethod = "LOCAL"
	AuthMethodSSO   AuthMethod = "SSO"
)

// LoginAccount binds one authentication method to an Identity.
// Invariant: at most one LOCAL account and at most one (provider, identity)
// SSO account per Identity, enforced by unique indexes at write time.
type LoginAccount struct {
	ID         uuid.UUID  `json:"id" db:"id"`
	IdentityID uuid.UUID  `json:"identity_id" db:"identity_id"`
	AuthMethod AuthMethod `json:"auth_method" db:"auth_method"`

	// Identifier is the username for LOCAL accounts or the federated email
	// for SSO accounts.
	Identifier string `json:"identifier" db:"identifier"`

	// PasswordHash is set only for LOCAL accounts (bcrypt).
	PasswordHash *string `json:"-" db:"password_hash"`

	// Provider and ProviderUserID are set only for SSO accounts.
	Provider       *string `json:"provider,omitempty" db:"provider"`
	ProviderUserID *string `json:"provider_user_id,omitempty" db:"provider_user_id"`

	FailedAttempts int        `json:"failed_attempts" db:"failed_attempts"`
	LastLoginAt    *time.Time `json:"last_login_at,omitempty" db:"last_login_at"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at" db:"updated_at"`
}

// TableName returns the table name for the LoginAccount model
func (LoginAccount) TableName() string {
	return "login_accounts"
}

// NewLocalAccount creates a LOCAL login account with a password hash
func NewLocalAccount(identityID uuid.UUID, username, passwordHash string) *LoginAccount {
	now := time.Now()
	return &LoginAccount{
		ID:           uuid.New(),
		IdentityID:   identityID,
		AuthMethod:   AuthMethodLocal,
		Identifier:   username,
		PasswordHash: &passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// NewSSOAccount creates an SSO login account bound to an external provider
func NewSSOAccount(identityID uuid.UUID, email, provider, providerUserID string) *LoginAccount {
	now := time.Now()
	return &LoginAccount{
		ID:             uuid.New(),
		IdentityID:     identityID,
		AuthMethod:     AuthMethodSSO,
		Identifier:     email,
		Provider:       &provider,
		ProviderUserID: &providerUserID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}
