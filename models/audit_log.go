package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// AuditAction represents the type of action being audited
type AuditAction string

const (
	AuditActionLoginSuccess     AuditAction = "login_success"
	AuditActionLoginFailure     AuditAction = "login_failure"
	AuditActionTokenRefreshed   AuditAction = "token_refreshed"
	AuditActionTokenRevoked     AuditAction = "token_revoked"
	AuditActionLogout           AuditAction = "logout"
	AuditActionAccountCreated   AuditAction = "account_created"
	AuditActionAccountUpdated   AuditAction = "account_updated"
	AuditActionDomainRegistered AuditAction = "domain_registered"
	AuditActionDomainRemoved    AuditAction = "domain_removed"
)

// AuditSeverity classifies audit entries for retention and alerting
type AuditSeverity string

const (
	SeverityInfo     AuditSeverity = "info"
	SeverityWarning  AuditSeverity = "warning"
	SeverityCritical AuditSeverity = "critical"
)

// AuditLog represents an audit trail entry
type AuditLog struct {
	ID           uuid.UUID       `json:"id" db:"id"`
	TenantID     uuid.UUID       `json:"tenant_id" db:"tenant_id"`
	ActorID      *uuid.UUID      `json:"actor_id,omitempty" db:"actor_id"`
	Action       AuditAction     `json:"action" db:"action"`
	ResourceType string          `json:"resource_type" db:"resource_type"` // identity, tenant, token, etc.
	ResourceID   *uuid.UUID      `json:"resource_id,omitempty" db:"resource_id"`
	Severity     AuditSeverity   `json:"severity" db:"severity"`
	Details      json.RawMessage `json:"details,omitempty" db:"details"` // JSONB for flexible metadata
	IPAddress    string          `json:"ip_address" db:"ip_address"`
	UserAgent    string          `json:"user_agent" db:"user_agent"`
	RequestID    string          `json:"request_id" db:"request_id"`
	Timestamp    time.Time       `json:"timestamp" db:"timestamp"`
}

// TableName returns the table name for the AuditLog model
func (AuditLog) TableName() string {
	return "audit_logs"
}

// NewAuditLog creates a new AuditLog instance
func NewAuditLog(tenantID uuid.UUID, action AuditAction, resourceType string) *AuditLog {
	return &AuditLog{
		ID:           uuid.New(),
		TenantID:     tenantID,
		Action:       action,
		ResourceType: resourceType,
		Severity:     SeverityInfo,
		Timestamp:    time.Now(),
	}
}

// WithActor sets the acting identity
func (a *AuditLog) WithActor(actorID uuid.UUID) *AuditLog {
	a.ActorID = &actorID
	return a
}

// WithResource sets the resource ID
func (a *AuditLog) WithResource(resourceID uuid.UUID) *AuditLog {
	a.ResourceID = &resourceID
	return a
}

// WithSeverity overrides the default info severity
func (a *AuditLog) WithSeverity(severity AuditSeverity) *AuditLog {
	a.Severity = severity
	return a
}

// WithDetails attaches structured metadata
func (a *AuditLog) WithDetails(details interface{}) *AuditLog {
	if raw, err := json.Marshal(details); err == nil {
		a.Details = raw
	}
	return a
}
