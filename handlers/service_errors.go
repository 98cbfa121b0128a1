package handlers

import (
	"net/http"

	"github.com/procureflow/platform/services"
	"github.com/procureflow/platform/utils"
	"go.uber.org/zap"
)

// HandleServiceError maps domain errors to HTTP responses. Credential,
// token, and tenant-state errors all collapse to a generic message: the
// client never learns which internal check failed.
func HandleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	if err == nil {
		return
	}

	switch {
	case services.IsUnauthorizedError(err):
		logger.Debug("unauthorized", zap.Error(err))
		_ = utils.WriteUnauthorized(w, "Authentication failed")

	case services.IsTenantStateError(err):
		// Tenant-state details stay server-side
		logger.Warn("tenant state blocked authentication", zap.Error(err))
		_ = utils.WriteUnauthorized(w, "Authentication failed")

	case services.IsNotFoundError(err):
		// Domain lookup failure must not be distinguishable from
		// "exists but unauthorized"
		logger.Debug("not found during authentication", zap.Error(err))
		_ = utils.WriteUnauthorized(w, "Authentication failed")

	case services.IsValidationError(err):
		_ = utils.WriteBadRequest(w, "Invalid request", nil)

	case services.IsConflictError(err):
		_ = utils.WriteConflict(w, err.Error(), nil)

	case services.IsInternalError(err):
		logger.Error("internal server error", zap.Error(err))
		_ = utils.WriteInternalServerError(w, "An internal error occurred")

	default:
		logger.Error("unhandled error type",
			zap.Error(err),
			zap.String("error_type", string(services.GetErrorType(err))))
		_ = utils.WriteInternalServerError(w, "An unexpected error occurred")
	}
}

// HandleValidationError handles validation errors from request parsing
func HandleValidationError(w http.ResponseWriter, err error, logger *zap.Logger) {
	if utils.IsValidationError(err) {
		fields := utils.GetValidationFields(err)
		details := make(map[string]interface{})
		for k, v := range fields {
			details[k] = v
		}
		if werr := utils.WriteBadRequest(w, "Validation failed", details); werr != nil {
			logger.Error("failed to write validation error response", zap.Error(werr))
		}
		return
	}

	if werr := utils.WriteBadRequest(w, err.Error(), nil); werr != nil {
		logger.Error("failed to write validation error response", zap.Error(werr))
	}
}
