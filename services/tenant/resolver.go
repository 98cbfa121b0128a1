package tenant

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/procureflow/platform/models"
	"github.com/procureflow/platform/repositories"
	"github.com/procureflow/platform/services"
	"go.uber.org/zap"
)

// Resolver maps an external identity's email domain to an active,
// SSO-enabled tenant.
type Resolver struct {
	tenants repositories.TenantRepository
	logger  *zap.Logger
}

// NewResolver creates a tenant resolver
func NewResolver(tenants repositories.TenantRepository, logger *zap.Logger) *Resolver {
	return &Resolver{
		tenants: tenants,
		logger:  logger,
	}
}

// ResolveByEmail extracts the domain from an email address and resolves the
// owning tenant, validating tenant state. State checks short-circuit in
// order: deleted, inactive, subscription, SSO flag, trial expiry.
func (r *Resolver) ResolveByEmail(ctx context.Context, email string) (*models.Tenant, error) {
	domain, err := ExtractDomain(email)
	if err != nil {
		return nil, err
	}

	tenant, err := r.tenants.GetByEmailDomain(ctx, domain)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, services.ErrTenantNotFound.WithDetail("domain", domain)
		}
		return nil, fmt.Errorf("failed to resolve tenant for domain %s: %w", domain, err)
	}

	if err := validateState(tenant); err != nil {
		r.logger.Warn("tenant blocked for SSO login",
			zap.String("tenant_id", tenant.ID.String()),
			zap.String("domain", domain),
			zap.Error(err))
		return nil, err
	}

	return tenant, nil
}

// RegisterDomain registers an email domain for a tenant, enforcing global
// domain uniqueness across tenants.
func (r *Resolver) RegisterDomain(ctx context.Context, tenantID uuid.UUID, domain string, primary bool) (*models.TenantEmailDomain, error) {
	normalized, err := normalizeDomain(domain)
	if err != nil {
		return nil, err
	}

	record := models.NewTenantEmailDomain(tenantID, normalized, primary)
	if err := r.tenants.RegisterDomain(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

// RemoveDomain removes a domain mapping from a tenant
func (r *Resolver) RemoveDomain(ctx context.Context, tenantID uuid.UUID, domain string) error {
	normalized, err := normalizeDomain(domain)
	if err != nil {
		return err
	}

	if err := r.tenants.RemoveDomain(ctx, tenantID, normalized); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return services.ErrTenantNotFound.WithDetail("domain", normalized)
		}
		return err
	}
	return nil
}

// validateState checks the tenant in the required order, short-circuiting on
// the first violation.
func validateState(t *models.Tenant) error {
	switch {
	case t.IsDeleted():
		return services.ErrTenantDeleted
	case t.Status != models.TenantStatusActive:
		return services.ErrTenantInactive
	case t.Subscription != models.SubscriptionActive && t.Subscription != models.SubscriptionTrial:
		return services.ErrSubscriptionInactive
	case !t.SSOEnabled:
		return services.ErrSsoDisabled
	case t.TrialExpired():
		return services.ErrTrialExpired
	default:
		return nil
	}
}

// ExtractDomain validates an email address and returns its lowercased domain
func ExtractDomain(email string) (string, error) {
	at := strings.LastIndex(email, "@")
	if at <= 0 || at == len(email)-1 {
		return "", services.ErrInvalidDomain.WithDetail("email", email)
	}
	return normalizeDomain(email[at+1:])
}

func normalizeDomain(domain string) (string, error) {
	domain = strings.ToLower(strings.TrimSpace(domain))
	if domain == "" || strings.ContainsAny(domain, "@ \t") || !strings.Contains(domain, ".") ||
		strings.HasPrefix(domain, ".") || strings.HasSuffix(domain, ".") {
		return "", services.ErrInvalidDomain.WithDetail("domain", domain)
	}
	return domain, nil
}
