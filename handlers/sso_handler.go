package handlers

import (
	"net/http"
	"net/url"
	"time"

	"github.com/procureflow/platform/app"
	"github.com/procureflow/platform/services"
	"github.com/procureflow/platform/utils"
	"go.uber.org/zap"
)

const stateCookieName = "sso_state"

// SSOLoginHandler starts the federated login flow: it mints a one-time state
// value, stores it in a short-lived cookie, and redirects the browser to the
// identity provider.
func SSOLoginHandler(deps *app.Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if deps.SSO == nil {
			_ = utils.WriteNotFound(w, "SSO is not configured")
			return
		}

		state, err := randomToken()
		if err != nil {
			deps.Logger.Error("failed to generate state", zap.Error(err))
			_ = utils.WriteInternalServerError(w, "Unable to start SSO login")
			return
		}

		http.SetCookie(w, &http.Cookie{
			Name:     stateCookieName,
			Value:    state,
			Path:     "/api/auth/sso",
			MaxAge:   int((5 * time.Minute).Seconds()),
			HttpOnly: true,
			Secure:   deps.Config.Cookie.Secure,
			SameSite: http.SameSiteLaxMode,
		})

		http.Redirect(w, r, deps.SSO.AuthCodeURL(state), http.StatusFound)
	}
}

// SSOCallbackHandler completes the federated login. Failures never render a
// bare error page: the browser is redirected back to the front end with an
// error code it can present.
func SSOCallbackHandler(deps *app.Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if deps.SSO == nil {
			_ = utils.WriteNotFound(w, "SSO is not configured")
			return
		}

		if errCode := r.URL.Query().Get("error"); errCode != "" {
			deps.Logger.Warn("identity provider returned an error",
				zap.String("error", errCode),
				zap.String("description", r.URL.Query().Get("error_description")))
			redirectWithError(w, r, deps, "provider_error", "The identity provider rejected the login")
			return
		}

		stateCookie, err := r.Cookie(stateCookieName)
		if err != nil || stateCookie.Value == "" || stateCookie.Value != r.URL.Query().Get("state") {
			deps.Logger.Warn("state mismatch on SSO callback")
			redirectWithError(w, r, deps, "invalid_state", "Login session expired, please try again")
			return
		}
		clearStateCookie(w, deps)

		code := r.URL.Query().Get("code")
		if code == "" {
			redirectWithError(w, r, deps, "missing_code", "No authorization code received")
			return
		}

		profile, err := deps.SSO.Exchange(r.Context(), code)
		if err != nil {
			deps.Logger.Warn("code exchange failed", zap.Error(err))
			redirectWithError(w, r, deps, "exchange_failed", "Could not verify the login with the identity provider")
			return
		}

		result, err := deps.Session.SSOCallback(r.Context(), profile)
		if err != nil {
			deps.Logger.Warn("sso login rejected",
				zap.String("email", profile.Email),
				zap.Error(err))
			redirectWithError(w, r, deps, ssoErrorCode(err), "Sign-in is not available for this account")
			return
		}

		deps.Cookies.SetAccess(w, result.Pair.AccessToken)
		deps.Cookies.SetRefresh(w, result.Pair.RefreshToken)
		setCSRFCookie(w, deps)

		for _, warning := range result.Warnings {
			deps.Logger.Warn("sso login completed with warning",
				zap.String("email", profile.Email),
				zap.String("warning", warning))
		}

		http.Redirect(w, r, deps.Config.SSO.FrontEndURL+"?sso=success", http.StatusFound)
	}
}

// ssoErrorCode maps a domain error to the opaque code surfaced to the front
// end. Tenant-state detail stays server-side.
func ssoErrorCode(err error) string {
	switch {
	case services.IsTenantStateError(err):
		return "tenant_unavailable"
	case services.IsNotFoundError(err):
		return "tenant_unavailable"
	case services.IsUnauthorizedError(err):
		return "unauthorized"
	default:
		return "sso_failed"
	}
}

func redirectWithError(w http.ResponseWriter, r *http.Request, deps *app.Dependencies, code, message string) {
	q := url.Values{}
	q.Set("error", code)
	q.Set("message", message)
	http.Redirect(w, r, deps.Config.SSO.FrontEndURL+"?"+q.Encode(), http.StatusFound)
}

func clearStateCookie(w http.ResponseWriter, deps *app.Dependencies) {
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    "",
		Path:     "/api/auth/sso",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   deps.Config.Cookie.Secure,
	})
}
