package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/procureflow/platform/models"
	"github.com/procureflow/platform/repositories"
	"go.uber.org/zap"
)

// IdentityRepository implements the repositories.IdentityRepository interface
type IdentityRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewIdentityRepository creates a new identity repository
func NewIdentityRepository(db *DB, logger *zap.Logger) repositories.IdentityRepository {
	return &IdentityRepository{
		db:     db,
		logger: logger,
	}
}

const identityColumns = `id, tenant_id, email, first_name, last_name, job_title, status,
		department, manager_id, approval_limit, deleted_at, created_at, updated_at`

// Create creates a new identity
func (r *IdentityRepository) Create(ctx context.Context, identity *models.Identity) error {
	query := `
		INSERT INTO identities (id, tenant_id, email, first_name, last_name, job_title, status,
			department, manager_id, approval_limit, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	executor := GetExecutor(ctx, r.db)
	_, err := executor.ExecContext(ctx, query,
		identity.ID,
		identity.TenantID,
		identity.Email,
		identity.FirstName,
		identity.LastName,
		identity.JobTitle,
		identity.Status,
		identity.Department,
		identity.ManagerID,
		identity.ApprovalLimit,
		identity.CreatedAt,
		identity.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create identity: %w", err)
	}

	r.logger.Debug("identity created",
		zap.String("id", identity.ID.String()),
		zap.String("tenant_id", identity.TenantID.String()))
	return nil
}

// GetByID retrieves an identity by ID
func (r *IdentityRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Identity, error) {
	query := `
		SELECT ` + identityColumns + `
		FROM identities
		WHERE id = $1
	`

	executor := GetExecutor(ctx, r.db)
	return scanIdentity(executor.QueryRowContext(ctx, query, id))
}

// GetByTenantAndEmail retrieves a non-deleted identity by (tenant, email)
func (r *IdentityRepository) GetByTenantAndEmail(ctx context.Context, tenantID uuid.UUID, email string) (*models.Identity, error) {
	query := `
		SELECT ` + identityColumns + `
		FROM identities
		WHERE tenant_id = $1 AND email = $2 AND deleted_at IS NULL
	`

	executor := GetExecutor(ctx, r.db)
	return scanIdentity(executor.QueryRowContext(ctx, query, tenantID, email))
}

// UpdateProfile persists the profile-sync fields only. Department, manager
// and approval limit are excluded so login-time sync can never touch them.
func (r *IdentityRepository) UpdateProfile(ctx context.Context, identity *models.Identity) error {
	query := `
		UPDATE identities
		SET first_name = $2, last_name = $3, job_title = $4, updated_at = $5
		WHERE id = $1 AND deleted_at IS NULL
	`

	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, query,
		identity.ID,
		identity.FirstName,
		identity.LastName,
		identity.JobTitle,
		identity.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update identity profile: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("identity not found: %s", identity.ID)
	}

	return nil
}

// WithTx returns a new repository instance bound to the transaction
func (r *IdentityRepository) WithTx(tx repositories.Transaction) repositories.IdentityRepository {
	return r
}

func scanIdentity(row *sql.Row) (*models.Identity, error) {
	identity := &models.Identity{}
	err := row.Scan(
		&identity.ID,
		&identity.TenantID,
		&identity.Email,
		&identity.FirstName,
		&identity.LastName,
		&identity.JobTitle,
		&identity.Status,
		&identity.Department,
		&identity.ManagerID,
		&identity.ApprovalLimit,
		&identity.DeletedAt,
		&identity.CreatedAt,
		&identity.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("failed to scan identity: %w", err)
	}
	return identity, nil
}
