package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/procureflow/platform/auth"
	"github.com/procureflow/platform/services/token"
	"github.com/procureflow/platform/utils"
	"go.uber.org/zap"
)

// TokenAuthenticator validates an access token: signature, expiry, and the
// revocation check, which must complete before the request proceeds.
type TokenAuthenticator interface {
	Status(ctx context.Context, rawAccess string) (*token.Claims, error)
}

// AuthMiddleware provides authentication middleware functionality
type AuthMiddleware struct {
	authenticator TokenAuthenticator
	logger        *zap.Logger
}

// NewAuthMiddleware creates a new AuthMiddleware
func NewAuthMiddleware(authenticator TokenAuthenticator, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		authenticator: authenticator,
		logger:        logger,
	}
}

// RequireAuth is a middleware that requires a valid, unrevoked access token
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		requestID := GetRequestIDFromContext(ctx)

		raw := ExtractToken(r)
		if raw == "" {
			m.logger.Warn("missing token",
				zap.String("request_id", requestID))
			_ = utils.WriteUnauthorized(w, "Missing or invalid authorization")
			return
		}

		claims, err := m.authenticator.Status(ctx, raw)
		if err != nil {
			m.logger.Warn("token rejected",
				zap.String("request_id", requestID),
				zap.Error(err))
			_ = utils.WriteUnauthorized(w, "Invalid or expired token")
			return
		}

		ctx = WithClaims(ctx, claims)

		m.logger.Debug("authentication successful",
			zap.String("request_id", requestID),
			zap.String("sub", claims.Subject))

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ExtractTenant is a middleware that extracts tenant and identity IDs from
// claims. This should be called after RequireAuth.
func (m *AuthMiddleware) ExtractTenant(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		requestID := GetRequestIDFromContext(ctx)

		claims := GetClaimsFromContext(ctx)
		if claims == nil {
			m.logger.Error("claims not found in context",
				zap.String("request_id", requestID))
			_ = utils.WriteUnauthorized(w, "Authentication required")
			return
		}

		tenantID, err := claims.TenantUUID()
		if err != nil {
			m.logger.Error("invalid tenant_id in claims",
				zap.String("request_id", requestID),
				zap.String("tenant_id", claims.TenantID),
				zap.Error(err))
			_ = utils.WriteForbidden(w, "Invalid tenant")
			return
		}

		identityID, err := claims.SubjectID()
		if err != nil {
			m.logger.Error("invalid subject in claims",
				zap.String("request_id", requestID),
				zap.Error(err))
			_ = utils.WriteForbidden(w, "Invalid subject")
			return
		}

		ctx = WithTenantID(ctx, tenantID)
		ctx = WithIdentityID(ctx, identityID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole is a middleware that requires a specific role claim
func (m *AuthMiddleware) RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := GetClaimsFromContext(r.Context())
			if claims == nil || claims.Role != role {
				_ = utils.WriteForbidden(w, "Insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ExtractToken pulls the access token from the Authorization header
// ("Bearer TOKEN") or, failing that, the access_token cookie or its legacy
// alias.
func ExtractToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}

	if c, err := r.Cookie(auth.AccessCookieName); err == nil && c.Value != "" {
		return c.Value
	}
	if c, err := r.Cookie(auth.LegacyCookieName); err == nil && c.Value != "" {
		return c.Value
	}
	return ""
}
