package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/procureflow/platform/models"
	"github.com/procureflow/platform/repositories"
	"github.com/procureflow/platform/services"
	"go.uber.org/zap"
)

// TenantRepository implements the repositories.TenantRepository interface
type TenantRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewTenantRepository creates a new tenant repository
func NewTenantRepository(db *DB, logger *zap.Logger) repositories.TenantRepository {
	return &TenantRepository{
		db:     db,
		logger: logger,
	}
}

const tenantColumns = `id, name, slug, status, subscription, sso_enabled,
		trial_ends_at, deleted_at, created_at, updated_at`

// GetByID retrieves a tenant by ID
func (r *TenantRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	query := `
		SELECT ` + tenantColumns + `
		FROM tenants
		WHERE id = $1
	`

	executor := GetExecutor(ctx, r.db)
	return scanTenant(executor.QueryRowContext(ctx, query, id))
}

// GetByEmailDomain retrieves the tenant owning the given email domain
func (r *TenantRepository) GetByEmailDomain(ctx context.Context, domain string) (*models.Tenant, error) {
	query := `
		SELECT t.id, t.name, t.slug, t.status, t.subscription, t.sso_enabled,
			t.trial_ends_at, t.deleted_at, t.created_at, t.updated_at
		FROM tenants t
		JOIN tenant_email_domains d ON d.tenant_id = t.id
		WHERE d.domain = $1
	`

	executor := GetExecutor(ctx, r.db)
	return scanTenant(executor.QueryRowContext(ctx, query, domain))
}

// RegisterDomain adds a domain mapping. Global uniqueness is enforced both by
// the pre-check and by the unique index on tenant_email_domains.domain.
func (r *TenantRepository) RegisterDomain(ctx context.Context, domain *models.TenantEmailDomain) error {
	exists, err := r.DomainExists(ctx, domain.Domain)
	if err != nil {
		return err
	}
	if exists {
		return services.ErrDomainTaken.WithDetail("domain", domain.Domain)
	}

	query := `
		INSERT INTO tenant_email_domains (id, tenant_id, domain, is_primary, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	executor := GetExecutor(ctx, r.db)
	_, err = executor.ExecContext(ctx, query,
		domain.ID,
		domain.TenantID,
		domain.Domain,
		domain.Primary,
		domain.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to register domain: %w", err)
	}

	r.logger.Debug("email domain registered",
		zap.String("domain", domain.Domain),
		zap.String("tenant_id", domain.TenantID.String()))
	return nil
}

// RemoveDomain removes a domain mapping for a tenant
func (r *TenantRepository) RemoveDomain(ctx context.Context, tenantID uuid.UUID, domain string) error {
	query := `
		DELETE FROM tenant_email_domains
		WHERE tenant_id = $1 AND domain = $2
	`

	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, query, tenantID, domain)
	if err != nil {
		return fmt.Errorf("failed to remove domain: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}

	return nil
}

// DomainExists reports whether a domain is registered to any tenant
func (r *TenantRepository) DomainExists(ctx context.Context, domain string) (bool, error) {
	query := `
		SELECT EXISTS(SELECT 1 FROM tenant_email_domains WHERE domain = $1)
	`

	executor := GetExecutor(ctx, r.db)
	var exists bool
	if err := executor.QueryRowContext(ctx, query, domain).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check domain existence: %w", err)
	}
	return exists, nil
}

// WithTx returns a new repository instance bound to the transaction
func (r *TenantRepository) WithTx(tx repositories.Transaction) repositories.TenantRepository {
	return r
}

func scanTenant(row *sql.Row) (*models.Tenant, error) {
	tenant := &models.Tenant{}
	err := row.Scan(
		&tenant.ID,
		&tenant.Name,
		&tenant.Slug,
		&tenant.Status,
		&tenant.Subscription,
		&tenant.SSOEnabled,
		&tenant.TrialEndsAt,
		&tenant.DeletedAt,
		&tenant.CreatedAt,
		&tenant.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("failed to scan tenant: %w", err)
	}
	return tenant, nil
}
