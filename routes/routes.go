package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/procureflow/platform/app"
	"github.com/procureflow/platform/handlers"
)

// SetupRoutes configures all application routes and middleware
func SetupRoutes(deps *app.Dependencies) http.Handler {
	r := chi.NewRouter()

	// Core middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// CORS middleware. Credentials must be allowed: the session rides on
	// cookies.
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{deps.Config.SSO.FrontEndURL, "http://localhost:*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check endpoints
	r.Get("/healthz", handlers.HealthHandler(deps))
	r.Get("/readyz", handlers.ReadinessHandler(deps))

	// Session endpoints. The refresh cookie is path-scoped to /api/auth, so
	// every endpoint that reads it must live under this subtree.
	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/login", handlers.LoginHandler(deps))
		r.Post("/refresh", handlers.RefreshHandler(deps))
		r.Post("/logout", handlers.LogoutHandler(deps))
		r.Get("/status", handlers.StatusHandler(deps))

		r.Route("/sso", func(r chi.Router) {
			r.Get("/login", handlers.SSOLoginHandler(deps))
			r.Get("/callback", handlers.SSOCallbackHandler(deps))
		})
	})

	// Authenticated API surface
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(deps.AuthMiddleware.RequireAuth)
		r.Use(deps.AuthMiddleware.ExtractTenant)

		r.Get("/me", handlers.CurrentIdentityHandler(deps))

		r.Route("/audit", func(r chi.Router) {
			r.Use(deps.AuthMiddleware.RequireRole("admin"))
			r.Get("/logs", handlers.ListAuditLogsHandler(deps))
		})
	})

	// 404 handler
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"endpoint not found"}`))
	})

	return r
}
