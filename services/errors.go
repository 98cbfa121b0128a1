package services

import (
	"errors"
	"fmt"
)

// ErrorType represents the type/category of error
type ErrorType string

const (
	ErrorTypeNotFound     ErrorType = "not_found"
	ErrorTypeValidation   ErrorType = "validation"
	ErrorTypeUnauthorized ErrorType = "unauthorized"
	ErrorTypeForbidden    ErrorType = "forbidden"
	ErrorTypeTenantState  ErrorType = "tenant_state"
	ErrorTypeConflict     ErrorType = "conflict"
	ErrorTypeInternal     ErrorType = "internal"
)

// DomainError represents a structured error with additional context
type DomainError struct {
	Type    ErrorType
	Message string
	Err     error
	Details map[string]interface{}
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is. Two domain errors match when they share a type
// and message, so sentinel comparisons survive wrapping via Wrap.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Type == t.Type && e.Message == t.Message
}

// WithDetail returns a copy of the error with the detail attached. Copying
// keeps the package-level sentinels immutable.
func (e *DomainError) WithDetail(key string, value interface{}) *DomainError {
	details := make(map[string]interface{}, len(e.Details)+1)
	for k, v := range e.Details {
		details[k] = v
	}
	details[key] = value
	return &DomainError{
		Type:    e.Type,
		Message: e.Message,
		Err:     e.Err,
		Details: details,
	}
}

// Wrap returns a copy of the sentinel carrying an underlying cause.
// The copy still matches the sentinel under errors.Is.
func (e *DomainError) Wrap(err error) *DomainError {
	return &DomainError{
		Type:    e.Type,
		Message: e.Message,
		Err:     err,
	}
}

// NewDomainError creates a new domain error
func NewDomainError(errType ErrorType, message string, err error) *DomainError {
	return &DomainError{
		Type:    errType,
		Message: message,
		Err:     err,
		Details: make(map[string]interface{}),
	}
}

// Domain error variables

var (
	// Credential and token errors. All surface to clients as a generic
	// Unauthorized; internal distinctions stay in logs.
	ErrInvalidCredentials  = NewDomainError(ErrorTypeUnauthorized, "invalid credentials", nil)
	ErrInvalidRefreshToken = NewDomainError(ErrorTypeUnauthorized, "invalid refresh token", nil)
	ErrTokenRevoked        = NewDomainError(ErrorTypeUnauthorized, "token revoked", nil)
	ErrMalformedToken      = NewDomainError(ErrorTypeValidation, "malformed token", nil)
	ErrUnauthorized        = NewDomainError(ErrorTypeUnauthorized, "unauthorized", nil)

	// Tenant resolution errors
	ErrTenantNotFound       = NewDomainError(ErrorTypeNotFound, "tenant not found", nil)
	ErrTenantDeleted        = NewDomainError(ErrorTypeTenantState, "tenant deleted", nil)
	ErrTenantInactive       = NewDomainError(ErrorTypeTenantState, "tenant inactive", nil)
	ErrSubscriptionInactive = NewDomainError(ErrorTypeTenantState, "subscription inactive", nil)
	ErrSsoDisabled          = NewDomainError(ErrorTypeTenantState, "sso disabled for tenant", nil)
	ErrTrialExpired         = NewDomainError(ErrorTypeTenantState, "trial expired", nil)
	ErrInvalidDomain        = NewDomainError(ErrorTypeValidation, "invalid email domain", nil)
	ErrDomainTaken          = NewDomainError(ErrorTypeConflict, "domain already registered", nil)

	// Provisioning errors
	ErrProvisioningFailure = NewDomainError(ErrorTypeInternal, "account provisioning failed", nil)
	ErrIdentityNotFound    = NewDomainError(ErrorTypeNotFound, "identity not found", nil)
	ErrRoleNotFound        = NewDomainError(ErrorTypeNotFound, "role not found", nil)

	// Generic errors
	ErrInvalidInput  = NewDomainError(ErrorTypeValidation, "invalid input", nil)
	ErrInternal      = NewDomainError(ErrorTypeInternal, "internal server error", nil)
	ErrDatabaseError = NewDomainError(ErrorTypeInternal, "database error", nil)
)

// Error type checking helper functions

// IsNotFoundError checks if an error is a not found error
func IsNotFoundError(err error) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type == ErrorTypeNotFound
	}
	return false
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type == ErrorTypeValidation
	}
	return false
}

// IsUnauthorizedError checks if an error is an unauthorized error
func IsUnauthorizedError(err error) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type == ErrorTypeUnauthorized
	}
	return false
}

// IsTenantStateError checks if an error reflects a blocked tenant state
func IsTenantStateError(err error) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type == ErrorTypeTenantState
	}
	return false
}

// IsConflictError checks if an error is a conflict error
func IsConflictError(err error) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type == ErrorTypeConflict
	}
	return false
}

// IsInternalError checks if an error is an internal error
func IsInternalError(err error) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type == ErrorTypeInternal
	}
	return false
}

// GetErrorType returns the ErrorType of a domain error, or empty string if not a domain error
func GetErrorType(err error) ErrorType {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type
	}
	return ""
}
