package handlers

import (
	"net/http"
	"time"

	"github.com/procureflow/platform/app"
	"github.com/procureflow/platform/utils"
	"go.uber.org/zap"
)

// HealthHandler reports process liveness
func HealthHandler(deps *app.Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_ = utils.WriteOK(w, map[string]interface{}{
			"status":  "healthy",
			"service": "auth-platform",
			"time":    time.Now().UTC(),
		})
	}
}

// ReadinessHandler reports whether the service can actually serve traffic:
// the database and the revocation store must both answer.
func ReadinessHandler(deps *app.Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := map[string]string{
			"database": "ok",
			"redis":    "ok",
		}
		healthy := true

		if err := deps.DB.HealthCheck(r.Context()); err != nil {
			deps.Logger.Error("database readiness check failed", zap.Error(err))
			checks["database"] = "unavailable"
			healthy = false
		}

		if err := deps.Redis.Ping(r.Context()).Err(); err != nil {
			deps.Logger.Error("redis readiness check failed", zap.Error(err))
			checks["redis"] = "unavailable"
			healthy = false
		}

		status := http.StatusOK
		state := "ready"
		if !healthy {
			status = http.StatusServiceUnavailable
			state = "not_ready"
		}

		_ = utils.WriteJSON(w, status, map[string]interface{}{
			"status": state,
			"checks": checks,
		})
	}
}
