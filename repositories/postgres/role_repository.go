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

// RoleRepository implements the repositories.RoleRepository interface
type RoleRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewRoleRepository creates a new role repository
func NewRoleRepository(db *DB, logger *zap.Logger) repositories.RoleRepository {
	return &RoleRepository{
		db:     db,
		logger: logger,
	}
}

// GetDefaultRole resolves the default role for a tenant. A tenant-specific
// default row wins over the system-wide (tenant_id IS NULL) default.
func (r *RoleRepository) GetDefaultRole(ctx context.Context, tenantID uuid.UUID) (*models.Role, error) {
	query := `
		SELECT id, tenant_id, name, is_default, created_at, updated_at
		FROM roles
		WHERE is_default = true AND (tenant_id = $1 OR tenant_id IS NULL)
		ORDER BY tenant_id NULLS LAST
		LIMIT 1
	`

	executor := GetExecutor(ctx, r.db)
	role := &models.Role{}
	err := executor.QueryRowContext(ctx, query, tenantID).Scan(
		&role.ID,
		&role.TenantID,
		&role.Name,
		&role.IsDefault,
		&role.CreatedAt,
		&role.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("failed to get default role: %w", err)
	}
	return role, nil
}

// Assign links a role to an identity
func (r *RoleRepository) Assign(ctx context.Context, assignment *models.RoleAssignment) error {
	query := `
		INSERT INTO role_assignments (id, identity_id, role_id, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (identity_id, role_id) DO NOTHING
	`

	executor := GetExecutor(ctx, r.db)
	_, err := executor.ExecContext(ctx, query,
		assignment.ID,
		assignment.IdentityID,
		assignment.RoleID,
		assignment.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to assign role: %w", err)
	}

	r.logger.Debug("role assigned",
		zap.String("identity_id", assignment.IdentityID.String()),
		zap.String("role_id", assignment.RoleID.String()))
	return nil
}

// GetByIdentity retrieves all roles held by an identity
func (r *RoleRepository) GetByIdentity(ctx context.Context, identityID uuid.UUID) ([]*models.Role, error) {
	query := `
		SELECT r.id, r.tenant_id, r.name, r.is_default, r.created_at, r.updated_at
		FROM roles r
		JOIN role_assignments ra ON ra.role_id = r.id
		WHERE ra.identity_id = $1
		ORDER BY r.name
	`

	executor := GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, query, identityID)
	if err != nil {
		return nil, fmt.Errorf("failed to get roles: %w", err)
	}
	defer rows.Close()

	var roles []*models.Role
	for rows.Next() {
		role := &models.Role{}
		if err := rows.Scan(
			&role.ID,
			&role.TenantID,
			&role.Name,
			&role.IsDefault,
			&role.CreatedAt,
			&role.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan role: %w", err)
		}
		roles = append(roles, role)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate roles: %w", err)
	}

	return roles, nil
}

// WithTx returns a new repository instance bound to the transaction
func (r *RoleRepository) WithTx(tx repositories.Transaction) repositories.RoleRepository {
	return r
}
