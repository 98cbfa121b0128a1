package auth

import (
	"net/http"
	"time"

	"github.com/procureflow/platform/config"
)

// Cookie names. access_token/token (legacy alias) carry the same value; the
// set is a compatibility surface and must not change.
const (
	AccessCookieName  = "access_token"
	LegacyCookieName  = "token"
	RefreshCookieName = "refresh_token"
	CSRFCookieName    = "csrf_token"

	// RefreshCookiePath restricts the refresh cookie to the auth endpoints
	RefreshCookiePath = "/api/auth"
)

// legacyPaths are every path a session cookie has ever been set under.
// Clearing sweeps all of them so cookies written by old policy versions
// remain removable.
var legacyPaths = []string{"/", "/api", "/api/auth", ""}

// Class identifies a cookie policy class
type Class string

const (
	ClassAccess  Class = "access"
	ClassRefresh Class = "refresh"
	ClassCSRF    Class = "csrf"
)

// Policy is the transport attribute set for one cookie class
type Policy struct {
	HTTPOnly bool
	Secure   bool
	SameSite http.SameSite
	Path     string
	Domain   string
	MaxAge   time.Duration
}

// PolicyEngine derives cookie transport attributes per token class
type PolicyEngine struct {
	domain     string
	secure     bool
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewPolicyEngine creates a policy engine from configuration
func NewPolicyEngine(cfg config.CookieConfig, accessTTL, refreshTTL time.Duration) *PolicyEngine {
	return &PolicyEngine{
		domain:     cfg.Domain,
		secure:     cfg.Secure,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// PolicyFor returns the transport policy for a cookie class.
// Access cookies are site-wide; refresh cookies are path-restricted to the
// auth endpoints to shrink exposure; CSRF cookies must be script-readable.
func (e *PolicyEngine) PolicyFor(class Class) Policy {
	switch class {
	case ClassRefresh:
		return Policy{
			HTTPOnly: true,
			Secure:   e.secure,
			SameSite: http.SameSiteStrictMode,
			Path:     RefreshCookiePath,
			Domain:   e.domain,
			MaxAge:   e.refreshTTL,
		}
	case ClassCSRF:
		return Policy{
			HTTPOnly: false, // scripts must read it to attach it to requests
			Secure:   e.secure,
			SameSite: http.SameSiteStrictMode,
			Path:     "/",
			Domain:   e.domain,
			MaxAge:   e.accessTTL,
		}
	default:
		return Policy{
			HTTPOnly: true,
			Secure:   e.secure,
			SameSite: http.SameSiteLaxMode,
			Path:     "/",
			Domain:   e.domain,
			MaxAge:   e.accessTTL,
		}
	}
}

// SetAccess writes the access-token cookie and its legacy alias
func (e *PolicyEngine) SetAccess(w http.ResponseWriter, value string) {
	policy := e.PolicyFor(ClassAccess)
	e.write(w, AccessCookieName, value, policy)
	e.write(w, LegacyCookieName, value, policy)
}

// SetRefresh writes the refresh-token cookie
func (e *PolicyEngine) SetRefresh(w http.ResponseWriter, value string) {
	e.write(w, RefreshCookieName, value, e.PolicyFor(ClassRefresh))
}

// SetCSRF writes the script-readable CSRF cookie
func (e *PolicyEngine) SetCSRF(w http.ResponseWriter, value string) {
	e.write(w, CSRFCookieName, value, e.PolicyFor(ClassCSRF))
}

// ClearAll expires every session-related cookie name under every path it
// has historically been set on
func (e *PolicyEngine) ClearAll(w http.ResponseWriter) {
	names := []string{AccessCookieName, LegacyCookieName, RefreshCookieName, CSRFCookieName}
	for _, name := range names {
		for _, path := range legacyPaths {
			http.SetCookie(w, &http.Cookie{
				Name:     name,
				Value:    "",
				Path:     path,
				Domain:   e.domain,
				MaxAge:   -1,
				HttpOnly: name != CSRFCookieName,
				Secure:   e.secure,
			})
		}
	}
}

func (e *PolicyEngine) write(w http.ResponseWriter, name, value string, policy Policy) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     policy.Path,
		Domain:   policy.Domain,
		MaxAge:   int(policy.MaxAge.Seconds()),
		HttpOnly: policy.HTTPOnly,
		Secure:   policy.Secure,
		SameSite: policy.SameSite,
	})
}
