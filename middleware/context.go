package middleware

import (
	"context"

	"github.com/google/uuid"
	"github.com/procureflow/platform/services/token"
)

// Context key type to avoid collisions
type contextKey string

const (
	// RequestIDKey is the context key for request ID
	RequestIDKey contextKey = "request_id"

	// ClaimsKey is the context key for token claims
	ClaimsKey contextKey = "claims"

	// TenantIDKey is the context key for tenant ID
	TenantIDKey contextKey = "tenant_id"

	// IdentityIDKey is the context key for the authenticated identity ID
	IdentityIDKey contextKey = "identity_id"
)

// GetRequestIDFromContext retrieves the request ID from context
func GetRequestIDFromContext(ctx context.Context) string {
	if val := ctx.Value(RequestIDKey); val != nil {
		if requestID, ok := val.(string); ok {
			return requestID
		}
	}
	return ""
}

// WithRequestID adds a request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// GetClaimsFromContext retrieves token claims from context
func GetClaimsFromContext(ctx context.Context) *token.Claims {
	if val := ctx.Value(ClaimsKey); val != nil {
		if claims, ok := val.(*token.Claims); ok {
			return claims
		}
	}
	return nil
}

// WithClaims adds token claims to the context
func WithClaims(ctx context.Context, claims *token.Claims) context.Context {
	return context.WithValue(ctx, ClaimsKey, claims)
}

// GetTenantIDFromContext retrieves the tenant ID from context
func GetTenantIDFromContext(ctx context.Context) uuid.UUID {
	if val := ctx.Value(TenantIDKey); val != nil {
		if tenantID, ok := val.(uuid.UUID); ok {
			return tenantID
		}
	}
	return uuid.Nil
}

// WithTenantID adds a tenant ID to the context
func WithTenantID(ctx context.Context, tenantID uuid.UUID) context.Context {
	return context.WithValue(ctx, TenantIDKey, tenantID)
}

// GetIdentityIDFromContext retrieves the identity ID from context
func GetIdentityIDFromContext(ctx context.Context) uuid.UUID {
	if val := ctx.Value(IdentityIDKey); val != nil {
		if identityID, ok := val.(uuid.UUID); ok {
			return identityID
		}
	}
	return uuid.Nil
}

// WithIdentityID adds an identity ID to the context
func WithIdentityID(ctx context.Context, identityID uuid.UUID) context.Context {
	return context.WithValue(ctx, IdentityIDKey, identityID)
}
