package models

import (
	"time"

	"github.com/google/uuid"
)

// Role represents a named permission bundle, either tenant-scoped or a
// system-wide default (TenantID nil).
type Role struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	TenantID  *uuid.UUID `json:"tenant_id,omitempty" db:"tenant_id"`
	Name      string     `json:"name" db:"name"`
	IsDefault bool       `json:"is_default" db:"is_default"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
}

// TableName returns the table name for the Role model
func (Role) TableName() string {
	return "roles"
}

// IsSystemWide returns true if the role is not scoped to a single tenant
func (r *Role) IsSystemWide() bool {
	return r.TenantID == nil
}

// RoleAssignment links an Identity to a Role
type RoleAssignment struct {
	ID         uuid.UUID `json:"id" db:"id"`
	IdentityID uuid.UUID `json:"identity_id" db:"identity_id"`
	RoleID     uuid.UUID `json:"role_id" db:"role_id"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// TableName returns the table name for the RoleAssignment model
func (RoleAssignment) TableName() string {
	return "role_assignments"
}

// NewRoleAssignment creates a new role assignment
func NewRoleAssignment(identityID, roleID uuid.UUID) *RoleAssignment {
	return &RoleAssignment{
		ID:         uuid.New(),
		IdentityID: identityID,
		RoleID:     roleID,
		CreatedAt:  time.Now(),
	}
}
