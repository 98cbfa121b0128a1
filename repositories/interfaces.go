package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/procureflow/platform/models"
)

// TransactionManager manages database transactions
type TransactionManager interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) (Transaction, error)

	// InTransaction executes a function within a transaction
	// Automatically commits if function succeeds, rolls back on error
	InTransaction(ctx context.Context, fn func(ctx context.Context, tx Transaction) error) error
}

// Transaction represents a database transaction
type Transaction interface {
	// Commit commits the transaction
	Commit() error

	// Rollback rolls back the transaction
	Rollback() error

	// Context returns the transaction context
	Context() context.Context
}

// IdentityRepository handles identity data operations
type IdentityRepository interface {
	// Create creates a new identity
	Create(ctx context.Context, identity *models.Identity) error

	// GetByID retrieves an identity by ID
	GetByID(ctx context.Context, id uuid.UUID) (*models.Identity, error)

	// GetByTenantAndEmail retrieves a non-deleted identity by (tenant, email)
	GetByTenantAndEmail(ctx context.Context, tenantID uuid.UUID, email string) (*models.Identity, error)

	// UpdateProfile persists the profile-sync fields (first/last name,
	// job title). Privilege-relevant fields are deliberately not covered.
	UpdateProfile(ctx context.Context, identity *models.Identity) error

	// WithTx returns a new repository instance bound to the transaction
	WithTx(tx Transaction) IdentityRepository
}

// LoginAccountRepository handles login account data operations
type LoginAccountRepository interface {
	// Create creates a new login account
	Create(ctx context.Context, account *models.LoginAccount) error

	// GetLocalByIdentifier retrieves the LOCAL account for a username
	GetLocalByIdentifier(ctx context.Context, identifier string) (*models.LoginAccount, error)

	// GetSSOByIdentity retrieves the SSO account bound to (provider, identity)
	GetSSOByIdentity(ctx context.Context, identityID uuid.UUID, provider string) (*models.LoginAccount, error)

	// RecordLogin updates the last-login timestamp and resets failure count
	RecordLogin(ctx context.Context, id uuid.UUID) error

	// RecordFailure increments the failed-attempt counter
	RecordFailure(ctx context.Context, id uuid.UUID) error

	// WithTx returns a new repository instance bound to the transaction
	WithTx(tx Transaction) LoginAccountRepository
}

// TenantRepository handles tenant and email domain data operations
type TenantRepository interface {
	// GetByID retrieves a tenant by ID
	GetByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error)

	// GetByEmailDomain retrieves the tenant owning the given email domain
	GetByEmailDomain(ctx context.Context, domain string) (*models.Tenant, error)

	// RegisterDomain adds a domain mapping; fails if the domain is already
	// registered to any tenant (global uniqueness)
	RegisterDomain(ctx context.Context, domain *models.TenantEmailDomain) error

	// RemoveDomain removes a domain mapping for a tenant
	RemoveDomain(ctx context.Context, tenantID uuid.UUID, domain string) error

	// DomainExists reports whether a domain is registered to any tenant
	DomainExists(ctx context.Context, domain string) (bool, error)

	// WithTx returns a new repository instance bound to the transaction
	WithTx(tx Transaction) TenantRepository
}

// RoleRepository handles role and role assignment data operations
type RoleRepository interface {
	// GetDefaultRole resolves the default role for a tenant: the
	// tenant-specific default wins over the system-wide default.
	GetDefaultRole(ctx context.Context, tenantID uuid.UUID) (*models.Role, error)

	// Assign links a role to an identity
	Assign(ctx context.Context, assignment *models.RoleAssignment) error

	// GetByIdentity retrieves all roles held by an identity
	GetByIdentity(ctx context.Context, identityID uuid.UUID) ([]*models.Role, error)

	// WithTx returns a new repository instance bound to the transaction
	WithTx(tx Transaction) RoleRepository
}

// AuditRepository handles audit log data operations
type AuditRepository interface {
	// Insert inserts a new audit log entry
	Insert(ctx context.Context, log *models.AuditLog) error

	// GetByTenantID retrieves audit logs for a tenant with pagination
	GetByTenantID(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.AuditLog, error)
}

// Repositories bundles all repository implementations
type Repositories struct {
	Identities    IdentityRepository
	LoginAccounts LoginAccountRepository
	Tenants       TenantRepository
	Roles         RoleRepository
	AuditLogs     AuditRepository
}
