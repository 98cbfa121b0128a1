package session

import (
	"context"

	"github.com/google/uuid"
	"github.com/procureflow/platform/models"
	"github.com/procureflow/platform/services"
	"github.com/procureflow/platform/services/provision"
	"github.com/procureflow/platform/services/token"
	"github.com/procureflow/platform/sso"
	"go.uber.org/zap"
)

// CredentialVerifier checks local username/password logins
type CredentialVerifier interface {
	Verify(ctx context.Context, username, password string) (*token.Snapshot, error)
}

// TenantResolver maps federated emails to tenants
type TenantResolver interface {
	ResolveByEmail(ctx context.Context, email string) (*models.Tenant, error)
}

// Provisioner creates or refreshes identities from external profiles
type Provisioner interface {
	Provision(ctx context.Context, profile *sso.ExternalProfile, tenantID uuid.UUID) (*provision.Result, error)
}

// RevocationStore blacklists tokens and answers the hot-path check
type RevocationStore interface {
	Revoke(ctx context.Context, rawToken string) error
	IsRevoked(ctx context.Context, rawToken string) bool
}

// AuditEmitter records session lifecycle events
type AuditEmitter interface {
	Emit(log *models.AuditLog)
}

// Facade orchestrates the three entry flows (local login, token refresh,
// SSO callback) plus logout and auth-status checks. All collaborators are
// fixed at construction.
type Facade struct {
	verifier  CredentialVerifier
	issuer    *token.Issuer
	revoker   RevocationStore
	tenants   TenantResolver
	provision Provisioner
	source    token.ClaimsSource
	audit     AuditEmitter
	logger    *zap.Logger
}

// New creates a session facade
func New(
	verifier CredentialVerifier,
	issuer *token.Issuer,
	revoker RevocationStore,
	tenants TenantResolver,
	provisioner Provisioner,
	source token.ClaimsSource,
	audit AuditEmitter,
	logger *zap.Logger,
) *Facade {
	return &Facade{
		verifier:  verifier,
		issuer:    issuer,
		revoker:   revoker,
		tenants:   tenants,
		provision: provisioner,
		source:    source,
		audit:     audit,
		logger:    logger,
	}
}

// LoginResult carries the minted token pair and the authenticated identity
type LoginResult struct {
	Pair     *token.Pair
	Identity *token.Snapshot
	Warnings []string
}

// Login authenticates a local username/password pair and mints exactly one
// access/refresh token pair.
func (f *Facade) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	snap, err := f.verifier.Verify(ctx, username, password)
	if err != nil {
		f.logger.Info("login rejected", zap.String("username", username))
		return nil, err
	}

	pair, err := f.issuer.IssuePair(snap)
	if err != nil {
		f.logger.Error("token minting failed", zap.Error(err))
		return nil, services.ErrInternal.Wrap(err)
	}

	f.audit.Emit(models.NewAuditLog(snap.TenantID, models.AuditActionLoginSuccess, "session").
		WithActor(snap.IdentityID))

	return &LoginResult{Pair: pair, Identity: snap}, nil
}

// Refresh rotates a refresh token into a fresh pair. Claims are re-resolved
// from the store inside the issuer; the old refresh token is retired.
func (f *Facade) Refresh(ctx context.Context, rawRefresh string) (*token.Pair, error) {
	pair, err := f.issuer.Refresh(ctx, rawRefresh)
	if err != nil {
		return nil, err
	}
	return pair, nil
}

// SSOCallback completes a federated login: tenant resolution, JIT
// provisioning, then minting. Tenant lookup failures surface as Unauthorized
// so callers cannot distinguish unknown domains from blocked ones.
func (f *Facade) SSOCallback(ctx context.Context, profile *sso.ExternalProfile) (*LoginResult, error) {
	tenant, err := f.tenants.ResolveByEmail(ctx, profile.Email)
	if err != nil {
		return nil, err
	}

	result, err := f.provision.Provision(ctx, profile, tenant.ID)
	if err != nil {
		return nil, err
	}

	snap, err := f.source.CurrentClaims(ctx, result.Identity.ID)
	if err != nil {
		f.logger.Error("claims resolution failed after provisioning",
			zap.String("identity_id", result.Identity.ID.String()),
			zap.Error(err))
		return nil, services.ErrProvisioningFailure.Wrap(err)
	}

	pair, err := f.issuer.IssuePair(snap)
	if err != nil {
		return nil, services.ErrInternal.Wrap(err)
	}

	f.audit.Emit(models.NewAuditLog(tenant.ID, models.AuditActionLoginSuccess, "session").
		WithActor(snap.IdentityID).
		WithDetails(map[string]interface{}{"sso": true, "provisioned": result.Created}))

	return &LoginResult{Pair: pair, Identity: snap, Warnings: result.Warnings}, nil
}

// Logout blacklists the presented access token. It is best-effort: the
// caller is always told the session ended, even when revocation failed,
// because the client's local session ends regardless.
func (f *Facade) Logout(ctx context.Context, rawAccess string) {
	if rawAccess == "" {
		return
	}
	if err := f.revoker.Revoke(ctx, rawAccess); err != nil {
		f.logger.Warn("best-effort revocation failed", zap.Error(err))
		return
	}

	if claims, err := f.issuer.VerifyAccess(rawAccess); err == nil {
		if tenantID, terr := claims.TenantUUID(); terr == nil {
			log := models.NewAuditLog(tenantID, models.AuditActionLogout, "session")
			if actorID, serr := claims.SubjectID(); serr == nil {
				log = log.WithActor(actorID)
			}
			f.audit.Emit(log)
		}
	}
}

// Status validates an access token for the auth-status check and for every
// authenticated request: signature, expiry, then the revocation lookup.
// The revocation check is awaited synchronously and fails closed.
func (f *Facade) Status(ctx context.Context, rawAccess string) (*token.Claims, error) {
	claims, err := f.issuer.VerifyAccess(rawAccess)
	if err != nil {
		return nil, services.ErrUnauthorized.Wrap(err)
	}

	if f.revoker.IsRevoked(ctx, rawAccess) {
		return nil, services.ErrTokenRevoked
	}

	return claims, nil
}
