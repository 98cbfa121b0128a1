package session

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/procureflow/platform/config"
	"github.com/procureflow/platform/models"
	"github.com/procureflow/platform/services"
	"github.com/procureflow/platform/services/provision"
	"github.com/procureflow/platform/services/token"
	"github.com/procureflow/platform/sso"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockCredentialVerifier is a mock implementation of CredentialVerifier
type MockCredentialVerifier struct {
	mock.Mock
}

func (m *MockCredentialVerifier) Verify(ctx context.Context, username, password string) (*token.Snapshot, error) {
	args := m.Called(ctx, username, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*token.Snapshot), args.Error(1)
}

// MockTenantResolver is a mock implementation of TenantResolver
type MockTenantResolver struct {
	mock.Mock
}

func (m *MockTenantResolver) ResolveByEmail(ctx context.Context, email string) (*models.Tenant, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Tenant), args.Error(1)
}

// MockProvisioner is a mock implementation of Provisioner
type MockProvisioner struct {
	mock.Mock
}

func (m *MockProvisioner) Provision(ctx context.Context, profile *sso.ExternalProfile, tenantID uuid.UUID) (*provision.Result, error) {
	args := m.Called(ctx, profile, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provision.Result), args.Error(1)
}

// MockRevocationStore is a mock implementation of RevocationStore
type MockRevocationStore struct {
	mock.Mock
}

func (m *MockRevocationStore) Revoke(ctx context.Context, rawToken string) error {
	args := m.Called(ctx, rawToken)
	return args.Error(0)
}

func (m *MockRevocationStore) IsRevoked(ctx context.Context, rawToken string) bool {
	args := m.Called(ctx, rawToken)
	return args.Bool(0)
}

// MockClaimsSource is a mock implementation of token.ClaimsSource
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

// MockAuditEmitter is a mock implementation of AuditEmitter
type MockAuditEmitter struct {
	mock.Mock
}

func (m *MockAuditEmitter) Emit(log *models.AuditLog) {
	m.Called(log)
}

type facadeFixture struct {
	verifier *MockCredentialVerifier
	tenants  *MockTenantResolver
	prov     *MockProvisioner
	revoker  *MockRevocationStore
	source   *MockClaimsSource
	audit    *MockAuditEmitter
	issuer   *token.Issuer
	facade   *Facade
}

func newFacadeFixture() *facadeFixture {
	f := &facadeFixture{
		verifier: new(MockCredentialVerifier),
		tenants:  new(MockTenantResolver),
		prov:     new(MockProvisioner),
		revoker:  new(MockRevocationStore),
		source:   new(MockClaimsSource),
		audit:    new(MockAuditEmitter),
	}
	logger := zap.NewNop()
	f.issuer = token.NewIssuer(config.JWTConfig{
		AccessSecret:  "facade-access-secret",
		RefreshSecret: "facade-refresh-secret",
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    7 * 24 * time.Hour,
		Issuer:        "procureflow-test",
	}, f.source, f.revoker, logger)
	f.facade = New(f.verifier, f.issuer, f.revoker, f.tenants, f.prov, f.source, f.audit, logger)
	return f
}

func snapshot() *token.Snapshot {
	return &token.Snapshot{
		IdentityID: uuid.New(),
		Username:   "buyer@acme.example",
		Role:       "requester",
		TenantID:   uuid.New(),
	}
}

func TestLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("successful login mints one pair and audits", func(t *testing.T) {
		f := newFacadeFixture()
		snap := snapshot()

		f.verifier.On("Verify", mock.Anything, "buyer", "s3cret").Return(snap, nil)
		f.audit.On("Emit", mock.MatchedBy(func(log *models.AuditLog) bool {
			return log.Action == models.AuditActionLoginSuccess && log.TenantID == snap.TenantID
		})).Return()

		result, err := f.facade.Login(ctx, "buyer", "s3cret")
		require.NoError(t, err)

		claims, err := f.issuer.VerifyAccess(result.Pair.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, snap.Username, claims.Username)

		refresh, err := f.issuer.VerifyRefresh(result.Pair.RefreshToken)
		require.NoError(t, err)
		assert.Equal(t, token.KindRefresh, refresh.Kind)
		f.audit.AssertExpectations(t)
	})

	t.Run("rejected credentials pass the error through unchanged", func(t *testing.T) {
		f := newFacadeFixture()
		f.verifier.On("Verify", mock.Anything, "buyer", "wrong").Return(nil, services.ErrInvalidCredentials)

		_, err := f.facade.Login(ctx, "buyer", "wrong")
		assert.ErrorIs(t, err, services.ErrInvalidCredentials)
		f.audit.AssertNotCalled(t, "Emit", mock.Anything)
	})
}

func TestStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("valid unrevoked token returns claims", func(t *testing.T) {
		f := newFacadeFixture()
		snap := snapshot()
		pair, err := f.issuer.IssuePair(snap)
		require.NoError(t, err)

		f.revoker.On("IsRevoked", mock.Anything, pair.AccessToken).Return(false)

		claims, err := f.facade.Status(ctx, pair.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, snap.IdentityID.String(), claims.Subject)
	})

	t.Run("revoked token is rejected even though the signature is valid", func(t *testing.T) {
		f := newFacadeFixture()
		pair, err := f.issuer.IssuePair(snapshot())
		require.NoError(t, err)

		f.revoker.On("IsRevoked", mock.Anything, pair.AccessToken).Return(true)

		_, err = f.facade.Status(ctx, pair.AccessToken)
		assert.ErrorIs(t, err, services.ErrTokenRevoked)
	})

	t.Run("garbage token never reaches the revocation store", func(t *testing.T) {
		f := newFacadeFixture()
		_, err := f.facade.Status(ctx, "garbage")
		assert.ErrorIs(t, err, services.ErrUnauthorized)
		f.revoker.AssertNotCalled(t, "IsRevoked", mock.Anything, mock.Anything)
	})

	t.Run("refresh token is not accepted as access token", func(t *testing.T) {
		f := newFacadeFixture()
		pair, err := f.issuer.IssuePair(snapshot())
		require.NoError(t, err)

		_, err = f.facade.Status(ctx, pair.RefreshToken)
		assert.ErrorIs(t, err, services.ErrUnauthorized)
	})
}

func TestLogoutFlow(t *testing.T) {
	ctx := context.Background()

	t.Run("logout revokes and the token is dead for status checks", func(t *testing.T) {
		f := newFacadeFixture()
		snap := snapshot()
		pair, err := f.issuer.IssuePair(snap)
		require.NoError(t, err)

		f.revoker.On("Revoke", mock.Anything, pair.AccessToken).Return(nil)
		f.audit.On("Emit", mock.MatchedBy(func(log *models.AuditLog) bool {
			return log.Action == models.AuditActionLogout
		})).Return()

		f.facade.Logout(ctx, pair.AccessToken)
		f.revoker.AssertExpectations(t)
		f.audit.AssertExpectations(t)
	})

	t.Run("revocation failure is swallowed", func(t *testing.T) {
		f := newFacadeFixture()
		pair, err := f.issuer.IssuePair(snapshot())
		require.NoError(t, err)

		f.revoker.On("Revoke", mock.Anything, pair.AccessToken).Return(assert.AnError)

		// Does not panic or propagate; the client session ends regardless
		f.facade.Logout(ctx, pair.AccessToken)
		f.audit.AssertNotCalled(t, "Emit", mock.Anything)
	})

	t.Run("empty token is a no-op", func(t *testing.T) {
		f := newFacadeFixture()
		f.facade.Logout(ctx, "")
		f.revoker.AssertNotCalled(t, "Revoke", mock.Anything, mock.Anything)
	})
}

func TestRefreshFlow(t *testing.T) {
	ctx := context.Background()

	t.Run("rotation re-resolves claims and retires the old token", func(t *testing.T) {
		f := newFacadeFixture()
		snap := snapshot()
		pair, err := f.issuer.IssuePair(snap)
		require.NoError(t, err)

		promoted := *snap
		promoted.Role = "approver"
		f.source.On("CurrentClaims", mock.Anything, snap.IdentityID).Return(&promoted, nil)
		f.revoker.On("IsRevoked", mock.Anything, pair.RefreshToken).Return(false)
		f.revoker.On("Revoke", mock.Anything, pair.RefreshToken).Return(nil)

		rotated, err := f.facade.Refresh(ctx, pair.RefreshToken)
		require.NoError(t, err)

		claims, err := f.issuer.VerifyAccess(rotated.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, "approver", claims.Role)
		f.revoker.AssertExpectations(t)
	})

	t.Run("rotated-out refresh token cannot mint again", func(t *testing.T) {
		f := newFacadeFixture()
		pair, err := f.issuer.IssuePair(snapshot())
		require.NoError(t, err)

		f.revoker.On("IsRevoked", mock.Anything, pair.RefreshToken).Return(true)

		_, err = f.facade.Refresh(ctx, pair.RefreshToken)
		assert.ErrorIs(t, err, services.ErrTokenRevoked)
		f.source.AssertNotCalled(t, "CurrentClaims", mock.Anything, mock.Anything)
	})

	t.Run("access token cannot be used for refresh", func(t *testing.T) {
		f := newFacadeFixture()
		pair, err := f.issuer.IssuePair(snapshot())
		require.NoError(t, err)

		_, err = f.facade.Refresh(ctx, pair.AccessToken)
		assert.ErrorIs(t, err, services.ErrInvalidRefreshToken)
	})
}

func TestSSOCallback(t *testing.T) {
	ctx := context.Background()

	profile := &sso.ExternalProfile{
		Provider: "https://login.idp.example",
		Subject:  "ext-1",
		Email:    "buyer@acme.example",
	}

	t.Run("resolves tenant, provisions, and mints from live claims", func(t *testing.T) {
		f := newFacadeFixture()

		tenant := models.NewTenant("Acme Industrial", "acme")
		ident := models.NewIdentity(tenant.ID, profile.Email, "Maria", "Santos")
		snap := &token.Snapshot{
			IdentityID: ident.ID,
			Username:   profile.Email,
			Role:       "requester",
			TenantID:   tenant.ID,
		}

		f.tenants.On("ResolveByEmail", mock.Anything, profile.Email).Return(tenant, nil)
		f.prov.On("Provision", mock.Anything, profile, tenant.ID).
			Return(&provision.Result{Identity: ident, Created: true}, nil)
		f.source.On("CurrentClaims", mock.Anything, ident.ID).Return(snap, nil)
		f.audit.On("Emit", mock.Anything).Return()

		result, err := f.facade.SSOCallback(ctx, profile)
		require.NoError(t, err)

		claims, err := f.issuer.VerifyAccess(result.Pair.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, tenant.ID.String(), claims.TenantID)
	})

	t.Run("blocked tenant stops the flow before provisioning", func(t *testing.T) {
		f := newFacadeFixture()

		f.tenants.On("ResolveByEmail", mock.Anything, profile.Email).Return(nil, services.ErrSsoDisabled)

		_, err := f.facade.SSOCallback(ctx, profile)
		assert.ErrorIs(t, err, services.ErrSsoDisabled)
		f.prov.AssertNotCalled(t, "Provision", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("provisioning warnings are carried to the caller", func(t *testing.T) {
		f := newFacadeFixture()

		tenant := models.NewTenant("Acme Industrial", "acme")
		ident := models.NewIdentity(tenant.ID, profile.Email, "Maria", "Santos")
		snap := &token.Snapshot{IdentityID: ident.ID, TenantID: tenant.ID}

		f.tenants.On("ResolveByEmail", mock.Anything, profile.Email).Return(tenant, nil)
		f.prov.On("Provision", mock.Anything, profile, tenant.ID).
			Return(&provision.Result{Identity: ident, Created: true, Warnings: []string{"default role not assigned"}}, nil)
		f.source.On("CurrentClaims", mock.Anything, ident.ID).Return(snap, nil)
		f.audit.On("Emit", mock.Anything).Return()

		result, err := f.facade.SSOCallback(ctx, profile)
		require.NoError(t, err)
		assert.Contains(t, result.Warnings, "default role not assigned")
	})

	t.Run("claims failure after provisioning is a provisioning failure", func(t *testing.T) {
		f := newFacadeFixture()

		tenant := models.NewTenant("Acme Industrial", "acme")
		ident := models.NewIdentity(tenant.ID, profile.Email, "Maria", "Santos")

		f.tenants.On("ResolveByEmail", mock.Anything, profile.Email).Return(tenant, nil)
		f.prov.On("Provision", mock.Anything, profile, tenant.ID).
			Return(&provision.Result{Identity: ident, Created: true}, nil)
		f.source.On("CurrentClaims", mock.Anything, ident.ID).Return(nil, assert.AnError)

		_, err := f.facade.SSOCallback(ctx, profile)
		assert.ErrorIs(t, err, services.ErrProvisioningFailure)
	})
}
