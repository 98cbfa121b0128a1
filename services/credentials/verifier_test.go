package credentials

import (
	"context"
	"database/sql"
	"testing"

	"github.com/google/uuid"
	"github.com/procureflow/platform/models"
	"github.com/procureflow/platform/repositories"
	"github.com/procureflow/platform/services"
	"github.com/procureflow/platform/services/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockLoginAccountRepository is a mock implementation of LoginAccountRepository
type MockLoginAccountRepository struct {
	mock.Mock
}

func (m *MockLoginAccountRepository) Create(ctx context.Context, account *models.LoginAccount) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *MockLoginAccountRepository) GetLocalByIdentifier(ctx context.Context, identifier string) (*models.LoginAccount, error) {
	args := m.Called(ctx, identifier)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.LoginAccount), args.Error(1)
}

func (m *MockLoginAccountRepository) GetSSOByIdentity(ctx context.Context, identityID uuid.UUID, provider string) (*models.LoginAccount, error) {
	args := m.Called(ctx, identityID, provider)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.LoginAccount), args.Error(1)
}

func (m *MockLoginAccountRepository) RecordLogin(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockLoginAccountRepository) RecordFailure(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockLoginAccountRepository) WithTx(tx repositories.Transaction) repositories.LoginAccountRepository {
	return m
}

// MockClaimsSource is a mock implementation of ClaimsSource
type MockClaimsSource struct {
	mock.Mock
}

func (m *MockClaimsSource) CurrentClaims(ctx context.Context, identityID uuid.UUID) (*token.Snapshot, error) {
	args := m.Called(ctx, identityID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*token.Snapshot), args.Error(1)
}

func localAccount(t *testing.T, username, password string) *models.LoginAccount {
	t.Helper()
	hash, err := HashPassword(password)
	require.NoError(t, err)
	return models.NewLocalAccount(uuid.New(), username, hash)
}

func TestVerify(t *testing.T) {
	logger := zap.NewNop()
	ctx := context.Background()

	t.Run("correct password returns current claims", func(t *testing.T) {
		accounts := new(MockLoginAccountRepository)
		source := new(MockClaimsSource)
		verifier := NewVerifier(accounts, source, logger)

		account := localAccount(t, "buyer", "s3cret-passw0rd")
		snap := &token.Snapshot{
			IdentityID: account.IdentityID,
			Username:   "buyer@acme.example",
			Role:       "requester",
			TenantID:   uuid.New(),
		}

		accounts.On("GetLocalByIdentifier", mock.Anything, "buyer").Return(account, nil)
		source.On("CurrentClaims", mock.Anything, account.IdentityID).Return(snap, nil)
		accounts.On("RecordLogin", mock.Anything, account.ID).Return(nil)

		got, err := verifier.Verify(ctx, "buyer", "s3cret-passw0rd")
		require.NoError(t, err)
		assert.Equal(t, snap, got)
		accounts.AssertExpectations(t)
	})

	t.Run("wrong password fails and records the attempt", func(t *testing.T) {
		accounts := new(MockLoginAccountRepository)
		source := new(MockClaimsSource)
		verifier := NewVerifier(accounts, source, logger)

		account := localAccount(t, "buyer", "s3cret-passw0rd")
		accounts.On("GetLocalByIdentifier", mock.Anything, "buyer").Return(account, nil)
		accounts.On("RecordFailure", mock.Anything, account.ID).Return(nil)

		_, err := verifier.Verify(ctx, "buyer", "wrong-password")
		assert.ErrorIs(t, err, services.ErrInvalidCredentials)
		accounts.AssertCalled(t, "RecordFailure", mock.Anything, account.ID)
		source.AssertNotCalled(t, "CurrentClaims", mock.Anything, mock.Anything)
	})

	t.Run("unknown username fails identically to wrong password", func(t *testing.T) {
		accounts := new(MockLoginAccountRepository)
		verifier := NewVerifier(accounts, new(MockClaimsSource), logger)

		accounts.On("GetLocalByIdentifier", mock.Anything, "ghost").Return(nil, sql.ErrNoRows)

		_, err := verifier.Verify(ctx, "ghost", "whatever")
		assert.ErrorIs(t, err, services.ErrInvalidCredentials)
	})

	t.Run("store failure surfaces as invalid credentials, not internal error", func(t *testing.T) {
		accounts := new(MockLoginAccountRepository)
		verifier := NewVerifier(accounts, new(MockClaimsSource), logger)

		accounts.On("GetLocalByIdentifier", mock.Anything, "buyer").Return(nil, assert.AnError)

		_, err := verifier.Verify(ctx, "buyer", "s3cret-passw0rd")
		assert.ErrorIs(t, err, services.ErrInvalidCredentials)
	})

	t.Run("account without a password hash cannot log in locally", func(t *testing.T) {
		accounts := new(MockLoginAccountRepository)
		verifier := NewVerifier(accounts, new(MockClaimsSource), logger)

		account := models.NewSSOAccount(uuid.New(), "buyer@acme.example", "idp", "ext-1")
		accounts.On("GetLocalByIdentifier", mock.Anything, "buyer").Return(account, nil)

		_, err := verifier.Verify(ctx, "buyer", "anything")
		assert.ErrorIs(t, err, services.ErrInvalidCredentials)
	})

	t.Run("claims resolution failure still reads as invalid credentials", func(t *testing.T) {
		accounts := new(MockLoginAccountRepository)
		source := new(MockClaimsSource)
		verifier := NewVerifier(accounts, source, logger)

		account := localAccount(t, "buyer", "s3cret-passw0rd")
		accounts.On("GetLocalByIdentifier", mock.Anything, "buyer").Return(account, nil)
		source.On("CurrentClaims", mock.Anything, account.IdentityID).Return(nil, services.ErrIdentityNotFound)

		_, err := verifier.Verify(ctx, "buyer", "s3cret-passw0rd")
		assert.ErrorIs(t, err, services.ErrInvalidCredentials)
	})

	t.Run("last-login bookkeeping failure never blocks a valid login", func(t *testing.T) {
		accounts := new(MockLoginAccountRepository)
		source := new(MockClaimsSource)
		verifier := NewVerifier(accounts, source, logger)

		account := localAccount(t, "buyer", "s3cret-passw0rd")
		snap := &token.Snapshot{IdentityID: account.IdentityID}

		accounts.On("GetLocalByIdentifier", mock.Anything, "buyer").Return(account, nil)
		source.On("CurrentClaims", mock.Anything, account.IdentityID).Return(snap, nil)
		accounts.On("RecordLogin", mock.Anything, account.ID).Return(assert.AnError)

		got, err := verifier.Verify(ctx, "buyer", "s3cret-passw0rd")
		require.NoError(t, err)
		assert.Equal(t, snap, got)
	})
}

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("s3cret-passw0rd")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret-passw0rd", hash)

	// Two hashes of the same password differ (per-hash salt)
	other, err := HashPassword("s3cret-passw0rd")
	require.NoError(t, err)
	assert.NotEqual(t, hash, other)
}
