package models

import (
	"time"

	"github.com/google/uuid"
)

// IdentityStatus represents the lifecycle state of an identity
type IdentityStatus string

const (
	StatusPendingSetup IdentityStatus = "PENDING_SETUP"
	StatusActive       IdentityStatus = "ACTIVE"
	StatusSuspended    IdentityStatus = "SUSPENDED"
)

// Identity represents a person able to authenticate, scoped to a tenant.
// Identities are never hard-deleted; DeletedAt marks soft deletion.
type Identity struct {
	ID        uuid.UUID      `json:"id" db:"id"`
	TenantID  uuid.UUID      `json:"tenant_id" db:"tenant_id"`
	Email     string         `json:"email" db:"email"`
	FirstName string         `json:"first_name" db:"first_name"`
	LastName  string         `json:"last_name" db:"last_name"`
	JobTitle  string         `json:"job_title" db:"job_title"`
	Status    IdentityStatus `json:"status" db:"status"`

	// Privilege-relevant fields: assigned by administrators, never written
	// by login-time profile sync.
	Department    *string    `json:"department,omitempty" db:"department"`
	ManagerID     *uuid.UUID `json:"manager_id,omitempty" db:"manager_id"`
	ApprovalLimit *float64   `json:"approval_limit,omitempty" db:"approval_limit"`

	DeletedAt *time.Time `json:"deleted_at,omitempty" db:"deleted_at"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
}

// TableName returns the table name for the Identity model
func (Identity) TableName() string {
	return "identities"
}

// NewIdentity creates a new Identity instance in PENDING_SETUP state
func NewIdentity(tenantID uuid.UUID, email, firstName, lastName string) *Identity {
	now := time.Now()
	return &Identity{
		ID:        uuid.New(),
		TenantID:  tenantID,
		Email:     email,
		FirstName: firstName,
		LastName:  lastName,
		Status:    StatusPendingSetup,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// IsDeleted returns true if the identity has been soft-deleted
func (i *Identity) IsDeleted() bool {
	return i.DeletedAt != nil
}

// DisplayName returns the full name for presentation
func (i *Identity) DisplayName() string {
	switch {
	case i.FirstName != "" && i.LastName != "":
		return i.FirstName + " " + i.LastName
	case i.FirstName != "":
		return i.FirstName
	default:
		return i.LastName
	}
}
