package token

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/procureflow/platform/config"
	"github.com/procureflow/platform/services"
	"go.uber.org/zap"
)

// Snapshot is the current identity state minted into a token pair
type Snapshot struct {
	IdentityID uuid.UUID
	Username   string
	Role       string
	TenantID   uuid.UUID
}

// ClaimsSource resolves the current identity state from the data store.
// Refresh always mints from this, never from the presented token, so a
// role or tenant change cannot be kept alive by replaying old tokens.
type ClaimsSource interface {
	CurrentClaims(ctx context.Context, identityID uuid.UUID) (*Snapshot, error)
}

// Revoker blacklists a token until its natural expiry and answers whether
// one is already blacklisted
type Revoker interface {
	Revoke(ctx context.Context, rawToken string) error
	IsRevoked(ctx context.Context, rawToken string) bool
}

// Issuer mints and verifies signed access and refresh tokens.
// The two kinds are signed with different secrets so a leaked refresh
// secret cannot forge access tokens.
type Issuer struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	issuer        string
	source        ClaimsSource
	revoker       Revoker
	logger        *zap.Logger
	now           func() time.Time
}

// NewIssuer creates a token issuer. revoker may be nil; when set, the prior
// refresh token is blacklisted on every successful rotation.
func NewIssuer(cfg config.JWTConfig, source ClaimsSource, revoker Revoker, logger *zap.Logger) *Issuer {
	return &Issuer{
		accessSecret:  []byte(cfg.AccessSecret),
		refreshSecret: []byte(cfg.RefreshSecret),
		accessTTL:     cfg.AccessTTL,
		refreshTTL:    cfg.RefreshTTL,
		issuer:        cfg.Issuer,
		source:        source,
		revoker:       revoker,
		logger:        logger,
		now:           time.Now,
	}
}

// Issue mints a single signed token of the given kind and TTL
func (i *Issuer) Issue(snap *Snapshot, kind Kind, ttl time.Duration) (string, error) {
	now := i.now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   snap.IdentityID.String(),
			Issuer:    i.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Username: snap.Username,
		Role:     snap.Role,
		TenantID: snap.TenantID.String(),
		Kind:     kind,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secretFor(kind))
	if err != nil {
		return "", fmt.Errorf("failed to sign %s token: %w", kind, err)
	}
	return signed, nil
}

// IssuePair mints one access/refresh pair for the given identity state
func (i *Issuer) IssuePair(snap *Snapshot) (*Pair, error) {
	access, err := i.Issue(snap, KindAccess, i.accessTTL)
	if err != nil {
		return nil, err
	}
	refresh, err := i.Issue(snap, KindRefresh, i.refreshTTL)
	if err != nil {
		return nil, err
	}
	return &Pair{AccessToken: access, RefreshToken: refresh}, nil
}

// VerifyAccess verifies signature, expiry and kind of an access token
func (i *Issuer) VerifyAccess(raw string) (*Claims, error) {
	return i.verify(raw, KindAccess)
}

// VerifyRefresh verifies signature, expiry and kind of a refresh token
func (i *Issuer) VerifyRefresh(raw string) (*Claims, error) {
	return i.verify(raw, KindRefresh)
}

func (i *Issuer) verify(raw string, kind Kind) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return i.secretFor(kind), nil
	}, jwt.WithTimeFunc(i.now))
	if err != nil {
		return nil, err
	}
	if claims.Kind != kind {
		return nil, fmt.Errorf("token kind mismatch: expected %s, got %s", kind, claims.Kind)
	}
	return claims, nil
}

// Refresh rotates a refresh token into a fresh access/refresh pair.
// The presented token only proves who is asking; the minted claims are
// re-resolved from the data store. The old refresh token is blacklisted
// so a rotation also retires its predecessor, and a blacklisted token is
// rejected here before anything is minted (the check fails closed).
func (i *Issuer) Refresh(ctx context.Context, rawRefresh string) (*Pair, error) {
	claims, err := i.VerifyRefresh(rawRefresh)
	if err != nil {
		return nil, services.ErrInvalidRefreshToken.Wrap(err)
	}

	if i.revoker != nil && i.revoker.IsRevoked(ctx, rawRefresh) {
		return nil, services.ErrTokenRevoked
	}

	identityID, err := claims.SubjectID()
	if err != nil {
		return nil, services.ErrInvalidRefreshToken.Wrap(err)
	}

	snap, err := i.source.CurrentClaims(ctx, identityID)
	if err != nil {
		if errors.Is(err, services.ErrIdentityNotFound) {
			return nil, services.ErrInvalidRefreshToken.Wrap(err)
		}
		return nil, err
	}

	pair, err := i.IssuePair(snap)
	if err != nil {
		return nil, err
	}

	if i.revoker != nil {
		if err := i.revoker.Revoke(ctx, rawRefresh); err != nil {
			// Rotation already succeeded; the old token still dies at its
			// natural expiry.
			i.logger.Warn("failed to revoke rotated refresh token",
				zap.String("identity_id", identityID.String()),
				zap.Error(err))
		}
	}

	return pair, nil
}

// AccessTTL returns the configured access token lifetime
func (i *Issuer) AccessTTL() time.Duration {
	return i.accessTTL
}

// RefreshTTL returns the configured refresh token lifetime
func (i *Issuer) RefreshTTL() time.Duration {
	return i.refreshTTL
}

// WithClock overrides the issuer clock, for tests
func (i *Issuer) WithClock(now func() time.Time) *Issuer {
	i.now = now
	return i
}

func (i *Issuer) secretFor(kind Kind) []byte {
	if kind == KindRefresh {
		return i.refreshSecret
	}
	return i.accessSecret
}
