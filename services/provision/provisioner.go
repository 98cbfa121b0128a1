package provision

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/procureflow/platform/models"
	"github.com/procureflow/platform/repositories"
	"github.com/procureflow/platform/services"
	"github.com/procureflow/platform/sso"
	"go.uber.org/zap"
)

// AuditEmitter records account lifecycle events; failures never roll back a
// provisioning.
type AuditEmitter interface {
	Emit(log *models.AuditLog)
}

// Result reports a provisioning outcome. Warnings carry secondary-effect
// failures (role assignment, audit emission) that were logged and swallowed;
// the caller decides whether to surface them.
type Result struct {
	Identity *models.Identity
	Created  bool
	Warnings []string
}

// Provisioner creates or refreshes local accounts from verified external
// identity profiles.
type Provisioner struct {
	identities repositories.IdentityRepository
	accounts   repositories.LoginAccountRepository
	roles      repositories.RoleRepository
	tx         repositories.TransactionManager
	audit      AuditEmitter
	logger     *zap.Logger
}

// NewProvisioner creates a JIT provisioner
func NewProvisioner(
	identities repositories.IdentityRepository,
	accounts repositories.LoginAccountRepository,
	roles repositories.RoleRepository,
	tx repositories.TransactionManager,
	audit AuditEmitter,
	logger *zap.Logger,
) *Provisioner {
	return &Provisioner{
		identities: identities,
		accounts:   accounts,
		roles:      roles,
		tx:         tx,
		audit:      audit,
		logger:     logger,
	}
}

// Provision looks up an existing identity by (tenant, email) and refreshes
// its profile, or creates a new PENDING_SETUP identity with the tenant's
// default role. Lookup-before-create keeps retries from duplicating
// accounts.
func (p *Provisioner) Provision(ctx context.Context, profile *sso.ExternalProfile, tenantID uuid.UUID) (*Result, error) {
	existing, err := p.identities.GetByTenantAndEmail(ctx, tenantID, profile.Email)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, services.ErrProvisioningFailure.Wrap(err)
	}

	if existing != nil {
		return p.sync(ctx, existing, profile)
	}
	return p.create(ctx, profile, tenantID)
}

// sync refreshes name and job title from non-empty profile fields only.
// Privilege-relevant fields (department, manager, approval limit) are never
// touched by login-time sync.
func (p *Provisioner) sync(ctx context.Context, identity *models.Identity, profile *sso.ExternalProfile) (*Result, error) {
	changed := false

	first, last := extractNames(profile)
	if first != "" && first != identity.FirstName {
		identity.FirstName = first
		changed = true
	}
	if last != "" && last != identity.LastName {
		identity.LastName = last
		changed = true
	}
	if profile.JobTitle.Set && profile.JobTitle.Value != "" && profile.JobTitle.Value != identity.JobTitle {
		identity.JobTitle = profile.JobTitle.Value
		changed = true
	}

	if changed {
		identity.UpdatedAt = time.Now()
		if err := p.identities.UpdateProfile(ctx, identity); err != nil {
			return nil, services.ErrProvisioningFailure.Wrap(err)
		}
	}

	result := &Result{Identity: identity, Created: false}
	p.recordSSOLogin(ctx, identity, profile, result)
	return result, nil
}

// create builds a new identity, its SSO login account, and the default role
// assignment. The identity and account inserts commit or roll back together:
// a failure between them must not leave an identity nobody can log into.
// Role and audit failures are warnings, not rollbacks: a half-provisioned
// account with only the default role missing is better than no account at
// all.
func (p *Provisioner) create(ctx context.Context, profile *sso.ExternalProfile, tenantID uuid.UUID) (*Result, error) {
	first, last := extractNames(profile)

	identity := models.NewIdentity(tenantID, profile.Email, first, last)
	if profile.JobTitle.Set {
		identity.JobTitle = profile.JobTitle.Value
	}
	account := models.NewSSOAccount(identity.ID, profile.Email, profile.Provider, profile.Subject)

	err := p.tx.InTransaction(ctx, func(ctx context.Context, _ repositories.Transaction) error {
		if err := p.identities.Create(ctx, identity); err != nil {
			return err
		}
		return p.accounts.Create(ctx, account)
	})
	if err != nil {
		return nil, services.ErrProvisioningFailure.Wrap(err)
	}

	result := &Result{Identity: identity, Created: true}

	if err := p.assignDefaultRole(ctx, identity); err != nil {
		p.logger.Error("default role assignment failed",
			zap.String("identity_id", identity.ID.String()),
			zap.String("tenant_id", tenantID.String()),
			zap.Error(err))
		result.Warnings = append(result.Warnings, "default role not assigned")
	}

	p.audit.Emit(models.NewAuditLog(tenantID, models.AuditActionAccountCreated, "identity").
		WithActor(identity.ID).
		WithResource(identity.ID).
		WithDetails(map[string]string{"provider": profile.Provider, "email": profile.Email}))

	p.logger.Info("identity provisioned",
		zap.String("identity_id", identity.ID.String()),
		zap.String("tenant_id", tenantID.String()),
		zap.String("provider", profile.Provider))

	return result, nil
}

func (p *Provisioner) assignDefaultRole(ctx context.Context, identity *models.Identity) error {
	role, err := p.roles.GetDefaultRole(ctx, identity.TenantID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("no default role configured for tenant %s", identity.TenantID)
		}
		return err
	}
	return p.roles.Assign(ctx, models.NewRoleAssignment(identity.ID, role.ID))
}

// recordSSOLogin updates last-login on the SSO account, creating the account
// row if this identity predates SSO linkage. Failures are warnings only.
func (p *Provisioner) recordSSOLogin(ctx context.Context, identity *models.Identity, profile *sso.ExternalProfile, result *Result) {
	account, err := p.accounts.GetSSOByIdentity(ctx, identity.ID, profile.Provider)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			account = models.NewSSOAccount(identity.ID, profile.Email, profile.Provider, profile.Subject)
			if err := p.accounts.Create(ctx, account); err != nil {
				p.logger.Warn("failed to link SSO account", zap.Error(err))
				result.Warnings = append(result.Warnings, "sso account not linked")
			}
			return
		}
		p.logger.Warn("failed to load SSO account", zap.Error(err))
		result.Warnings = append(result.Warnings, "sso login not recorded")
		return
	}

	if err := p.accounts.RecordLogin(ctx, account.ID); err != nil {
		p.logger.Warn("failed to record SSO login", zap.Error(err))
		result.Warnings = append(result.Warnings, "sso login not recorded")
	}
}
