package handlers

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"

	"github.com/procureflow/platform/app"
	"github.com/procureflow/platform/middleware"
	"github.com/procureflow/platform/utils"
	"go.uber.org/zap"
)

// CurrentIdentityHandler returns the authenticated identity's profile
func CurrentIdentityHandler(deps *app.Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identityID := middleware.GetIdentityIDFromContext(r.Context())

		ident, err := deps.Repos.Identities.GetByID(r.Context(), identityID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				_ = utils.WriteNotFound(w, "Identity not found")
				return
			}
			deps.Logger.Error("failed to load identity",
				zap.String("identity_id", identityID.String()),
				zap.Error(err))
			_ = utils.WriteInternalServerError(w, "")
			return
		}
		if ident.IsDeleted() {
			_ = utils.WriteNotFound(w, "Identity not found")
			return
		}

		roles, err := deps.Repos.Roles.GetByIdentity(r.Context(), identityID)
		if err != nil {
			deps.Logger.Error("failed to load roles", zap.Error(err))
			_ = utils.WriteInternalServerError(w, "")
			return
		}
		roleNames := make([]string, 0, len(roles))
		for _, role := range roles {
			roleNames = append(roleNames, role.Name)
		}

		_ = utils.WriteOK(w, map[string]interface{}{
			"id":        ident.ID,
			"email":     ident.Email,
			"firstName": ident.FirstName,
			"lastName":  ident.LastName,
			"jobTitle":  ident.JobTitle,
			"status":    ident.Status,
			"tenantId":  ident.TenantID,
			"roles":     roleNames,
		})
	}
}

// ListAuditLogsHandler returns the tenant's audit trail, newest first
func ListAuditLogsHandler(deps *app.Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID := middleware.GetTenantIDFromContext(r.Context())

		limit := queryInt(r, "limit", 50)
		if limit > 500 {
			limit = 500
		}
		offset := queryInt(r, "offset", 0)

		logs, err := deps.Repos.AuditLogs.GetByTenantID(r.Context(), tenantID, limit, offset)
		if err != nil {
			deps.Logger.Error("failed to list audit logs",
				zap.String("tenant_id", tenantID.String()),
				zap.Error(err))
			_ = utils.WriteInternalServerError(w, "")
			return
		}

		_ = utils.WriteOK(w, map[string]interface{}{
			"logs":   logs,
			"limit":  limit,
			"offset": offset,
		})
	}
}

func queryInt(r *http.Request, key string, def int) int {
	if value := r.URL.Query().Get(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil && i >= 0 {
			return i
		}
	}
	return def
}
