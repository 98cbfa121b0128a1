package revocation

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/procureflow/platform/services"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const keyPrefix = "revoked:"

// KV is the TTL key-value surface the store needs from Redis.
// *redis.Client satisfies it; tests substitute a fake.
type KV interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Exists(ctx context.Context, keys ...string) *redis.IntCmd
}

// Store blacklists tokens until their natural expiry. Entries are keyed by a
// SHA-256 hash of the raw token with TTL equal to the token's remaining
// lifetime, so the store never grows unbounded.
type Store struct {
	kv     KV
	logger *zap.Logger
	now    func() time.Time
}

// NewStore creates a revocation store backed by the given key-value client
func NewStore(kv KV, logger *zap.Logger) *Store {
	return &Store{
		kv:     kv,
		logger: logger,
		now:    time.Now,
	}
}

// Revoke blacklists a token. The token is decoded without signature
// verification: logout must work even on an expired or soon-to-expire token.
// Fails with MalformedToken when no expiry claim is present.
func (s *Store) Revoke(ctx context.Context, rawToken string) error {
	expiry, err := tokenExpiry(rawToken)
	if err != nil {
		return services.ErrMalformedToken.Wrap(err)
	}

	ttl := expiry.Sub(s.now())
	if ttl <= 0 {
		// Already expired: nothing to blacklist, signature checks reject it.
		return nil
	}

	key := revocationKey(rawToken)
	if err := s.kv.Set(ctx, key, 1, ttl).Err(); err != nil {
		s.logger.Error("failed to write revocation entry", zap.Error(err))
		return services.ErrInternal.Wrap(err)
	}

	s.logger.Debug("token revoked", zap.Duration("ttl", ttl))
	return nil
}

// IsRevoked reports whether a token has been blacklisted.
// Failure policy is fail-closed: if the store is unreachable or errors, the
// token is treated as revoked. An unrevocable-but-trusted token is the worse
// failure mode.
func (s *Store) IsRevoked(ctx context.Context, rawToken string) bool {
	key := revocationKey(rawToken)
	n, err := s.kv.Exists(ctx, key).Result()
	if err != nil {
		s.logger.Error("revocation store unavailable, failing closed", zap.Error(err))
		return true
	}
	return n > 0
}

// WithClock overrides the store clock, for tests
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

// revocationKey derives the storage key from the raw token string
func revocationKey(rawToken string) string {
	sum := sha256.Sum256([]byte(rawToken))
	return keyPrefix + hex.EncodeToString(sum[:])
}

// tokenExpiry reads the exp claim without verifying the signature
func tokenExpiry(rawToken string) (*time.Time, error) {
	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(rawToken, claims); err != nil {
		return nil, err
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil, jwt.ErrTokenRequiredClaimMissing
	}
	return &exp.Time, nil
}
