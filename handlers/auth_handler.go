package handlers

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/procureflow/platform/app"
	"github.com/procureflow/platform/auth"
	"github.com/procureflow/platform/middleware"
	"github.com/procureflow/platform/utils"
	"go.uber.org/zap"
)

// LoginRequest is the local-login request body
type LoginRequest struct {
	Username   string `json:"username" validate:"required"`
	Password   string `json:"password" validate:"required"`
	RememberMe bool   `json:"rememberMe"`
}

// LoginResponse carries the access token for non-cookie clients
type LoginResponse struct {
	AccessToken string `json:"accessToken"`
	TokenType   string `json:"tokenType"`
	Username    string `json:"username"`
	Role        string `json:"role"`
	TenantID    string `json:"tenantId"`
}

// LoginHandler handles local username/password login
func LoginHandler(deps *app.Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			_ = utils.WriteBadRequest(w, "Invalid request body", nil)
			return
		}
		if err := utils.ValidateStruct(&req); err != nil {
			HandleValidationError(w, err, deps.Logger)
			return
		}

		result, err := deps.Session.Login(r.Context(), req.Username, req.Password)
		if err != nil {
			HandleServiceError(w, err, deps.Logger)
			return
		}

		deps.Cookies.SetAccess(w, result.Pair.AccessToken)
		if req.RememberMe {
			deps.Cookies.SetRefresh(w, result.Pair.RefreshToken)
		}
		setCSRFCookie(w, deps)

		_ = utils.WriteOK(w, LoginResponse{
			AccessToken: result.Pair.AccessToken,
			TokenType:   "Bearer",
			Username:    result.Identity.Username,
			Role:        result.Identity.Role,
			TenantID:    result.Identity.TenantID.String(),
		})
	}
}

// RefreshRequest is the body fallback when no refresh cookie is present
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// RefreshHandler rotates a refresh token into a fresh access/refresh pair.
// The cookie is preferred; the body is a fallback for non-cookie clients.
func RefreshHandler(deps *app.Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := ""
		if c, err := r.Cookie(auth.RefreshCookieName); err == nil && c.Value != "" {
			raw = c.Value
		} else {
			var req RefreshRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err == nil {
				raw = req.RefreshToken
			}
		}
		if raw == "" {
			_ = utils.WriteUnauthorized(w, "Authentication failed")
			return
		}

		pair, err := deps.Session.Refresh(r.Context(), raw)
		if err != nil {
			HandleServiceError(w, err, deps.Logger)
			return
		}

		deps.Cookies.SetAccess(w, pair.AccessToken)
		deps.Cookies.SetRefresh(w, pair.RefreshToken)

		_ = utils.WriteOK(w, map[string]string{
			"accessToken":  pair.AccessToken,
			"refreshToken": pair.RefreshToken,
			"tokenType":    "Bearer",
		})
	}
}

// LogoutHandler revokes the current access token and clears session cookies.
// It always reports success: revocation is best-effort, but the client's
// local session ends either way.
func LogoutHandler(deps *app.Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := middleware.ExtractToken(r)
		deps.Session.Logout(r.Context(), raw)
		deps.Cookies.ClearAll(w)
		_ = utils.WriteOK(w, map[string]string{"message": "logged out"})
	}
}

// StatusHandler reports whether the presented access token is still valid
// and unrevoked.
func StatusHandler(deps *app.Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := middleware.ExtractToken(r)
		if raw == "" {
			_ = utils.WriteOK(w, map[string]interface{}{"authenticated": false})
			return
		}

		claims, err := deps.Session.Status(r.Context(), raw)
		if err != nil {
			_ = utils.WriteOK(w, map[string]interface{}{"authenticated": false})
			return
		}

		_ = utils.WriteOK(w, map[string]interface{}{
			"authenticated": true,
			"username":      claims.Username,
			"role":          claims.Role,
			"tenantId":      claims.TenantID,
			"expiresAt":     claims.ExpiresAt.Time,
		})
	}
}

func setCSRFCookie(w http.ResponseWriter, deps *app.Dependencies) {
	value, err := randomToken()
	if err != nil {
		deps.Logger.Warn("failed to generate csrf token", zap.Error(err))
		return
	}
	deps.Cookies.SetCSRF(w, value)
}

func randomToken() (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
