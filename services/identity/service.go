package identity

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/procureflow/platform/repositories"
	"github.com/procureflow/platform/services"
	"github.com/procureflow/platform/services/token"
	"go.uber.org/zap"
)

// Service resolves the current claim state of an identity from the data
// store. It backs both login and token refresh, which must always mint from
// live data rather than from a previously issued token.
type Service struct {
	identities repositories.IdentityRepository
	roles      repositories.RoleRepository
	logger     *zap.Logger
}

// NewService creates an identity service
func NewService(identities repositories.IdentityRepository, roles repositories.RoleRepository, logger *zap.Logger) *Service {
	return &Service{
		identities: identities,
		roles:      roles,
		logger:     logger,
	}
}

// CurrentClaims implements token.ClaimsSource
func (s *Service) CurrentClaims(ctx context.Context, identityID uuid.UUID) (*token.Snapshot, error) {
	ident, err := s.identities.GetByID(ctx, identityID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, services.ErrIdentityNotFound
		}
		return nil, fmt.Errorf("failed to load identity: %w", err)
	}
	if ident.IsDeleted() {
		return nil, services.ErrIdentityNotFound
	}

	roleName := ""
	roles, err := s.roles.GetByIdentity(ctx, identityID)
	if err != nil {
		return nil, fmt.Errorf("failed to load roles: %w", err)
	}
	if len(roles) > 0 {
		roleName = roles[0].Name
	}

	return &token.Snapshot{
		IdentityID: ident.ID,
		Username:   ident.Email,
		Role:       roleName,
		TenantID:   ident.TenantID,
	}, nil
}
