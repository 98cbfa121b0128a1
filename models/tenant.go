package models

import (
	"time"

	"github.com/google/uuid"
)

// TenantStatus represents the activation state of a tenant
type TenantStatus string

const (
	TenantStatusActive    TenantStatus = "ACTIVE"
	TenantStatusInactive  TenantStatus = "INACTIVE"
	TenantStatusSuspended TenantStatus = "SUSPENDED"
)

// SubscriptionStatus represents the billing state of a tenant
type SubscriptionStatus string

const (
	SubscriptionActive   SubscriptionStatus = "ACTIVE"
	SubscriptionTrial    SubscriptionStatus = "TRIAL"
	SubscriptionExpired  SubscriptionStatus = "EXPIRED"
	SubscriptionCanceled SubscriptionStatus = "CANCELED"
)

// Tenant represents an isolated customer organization in the multi-tenant system
type Tenant struct {
	ID           uuid.UUID          `json:"id" db:"id"`
	Name         string             `json:"name" db:"name"`
	Slug         string             `json:"slug" db:"slug"` // URL-friendly identifier
	Status       TenantStatus       `json:"status" db:"status"`
	Subscription SubscriptionStatus `json:"subscription" db:"subscription"`
	SSOEnabled   bool               `json:"sso_enabled" db:"sso_enabled"`
	TrialEndsAt  *time.Time         `json:"trial_ends_at,omitempty" db:"trial_ends_at"`
	DeletedAt    *time.Time         `json:"deleted_at,omitempty" db:"deleted_at"`
	CreatedAt    time.Time          `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at" db:"updated_at"`
}

// TableName returns the table name for the Tenant model
func (Tenant) TableName() string {
	return "tenants"
}

// NewTenant creates a new Tenant instance
func NewTenant(name, slug string) *Tenant {
	now := time.Now()
	return &Tenant{
		ID:           uuid.New(),
		Name:         name,
		Slug:         slug,
		Status:       TenantStatusActive,
		Subscription: SubscriptionTrial,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// IsDeleted returns true if the tenant has been soft-deleted
func (t *Tenant) IsDeleted() bool {
	return t.DeletedAt != nil
}

// TrialExpired returns true if the tenant is on a trial that has lapsed
func (t *Tenant) TrialExpired() bool {
	return t.Subscription == SubscriptionTrial &&
		t.TrialEndsAt != nil && t.TrialEndsAt.Before(time.Now())
}

// TenantEmailDomain maps an email domain to its owning tenant.
// A domain belongs to exactly one tenant; uniqueness is global.
type TenantEmailDomain struct {
	ID        uuid.UUID `json:"id" db:"id"`
	TenantID  uuid.UUID `json:"tenant_id" db:"tenant_id"`
	Domain    string    `json:"domain" db:"domain"`
	Primary   bool      `json:"primary" db:"is_primary"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// TableName returns the table name for the TenantEmailDomain model
func (TenantEmailDomain) TableName() string {
	return "tenant_email_domains"
}

// NewTenantEmailDomain creates a new domain mapping for a tenant
func NewTenantEmailDomain(tenantID uuid.UUID, domain string, primary bool) *TenantEmailDomain {
	return &TenantEmailDomain{
		ID:        uuid.New(),
		TenantID:  tenantID,
		Domain:    domain,
		Primary:   primary,
		CreatedAt: time.Now(),
	}
}
