package revocation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/procureflow/platform/services"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeKV is an in-memory KV that records writes and can be forced to fail
type fakeKV struct {
	entries map[string]time.Duration
	failing bool
}

func newFakeKV() *fakeKV {
	return &fakeKV{entries: make(map[string]time.Duration)}
}

func (f *fakeKV) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	cmd := redis.NewStatusCmd(ctx)
	if f.failing {
		cmd.SetErr(errors.New("connection refused"))
		return cmd
	}
	f.entries[key] = expiration
	cmd.SetVal("OK")
	return cmd
}

func (f *fakeKV) Exists(ctx context.Context, keys ...string) *redis.IntCmd {
	cmd := redis.NewIntCmd(ctx)
	if f.failing {
		cmd.SetErr(errors.New("connection refused"))
		return cmd
	}
	var n int64
	for _, key := range keys {
		if _, ok := f.entries[key]; ok {
			n++
		}
	}
	cmd.SetVal(n)
	return cmd
}

// signedToken mints an HS256 token expiring at the given time
func signedToken(t *testing.T, expiry time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "someone",
		ExpiresAt: jwt.NewNumericDate(expiry),
	})
	raw, err := token.SignedString([]byte("irrelevant-secret"))
	require.NoError(t, err)
	return raw
}

func TestRevoke(t *testing.T) {
	logger := zap.NewNop()
	ctx := context.Background()
	// JWT NumericDate claims are encoded with second precision, so keep the
	// reference clock at whole seconds to make TTL arithmetic exact.
	base := time.Now().Truncate(time.Second)

	t.Run("entry TTL matches remaining token lifetime", func(t *testing.T) {
		kv := newFakeKV()
		store := NewStore(kv, logger).WithClock(func() time.Time { return base })

		raw := signedToken(t, base.Add(10*time.Minute))
		require.NoError(t, store.Revoke(ctx, raw))

		require.Len(t, kv.entries, 1)
		for _, ttl := range kv.entries {
			assert.Equal(t, 10*time.Minute, ttl)
		}
		assert.True(t, store.IsRevoked(ctx, raw))
	})

	t.Run("already-expired token writes nothing", func(t *testing.T) {
		kv := newFakeKV()
		store := NewStore(kv, logger).WithClock(func() time.Time { return base })

		raw := signedToken(t, base.Add(-1*time.Minute))
		require.NoError(t, store.Revoke(ctx, raw))
		assert.Empty(t, kv.entries)
	})

	t.Run("garbage token is malformed", func(t *testing.T) {
		store := NewStore(newFakeKV(), logger)
		err := store.Revoke(ctx, "not-a-jwt")
		assert.ErrorIs(t, err, services.ErrMalformedToken)
	})

	t.Run("token without expiry claim is malformed", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
			Subject: "someone",
		})
		raw, err := token.SignedString([]byte("irrelevant-secret"))
		require.NoError(t, err)

		store := NewStore(newFakeKV(), logger)
		assert.ErrorIs(t, store.Revoke(ctx, raw), services.ErrMalformedToken)
	})

	t.Run("store write failure surfaces as internal error", func(t *testing.T) {
		kv := newFakeKV()
		kv.failing = true
		store := NewStore(kv, logger).WithClock(func() time.Time { return base })

		raw := signedToken(t, base.Add(10*time.Minute))
		assert.ErrorIs(t, store.Revoke(ctx, raw), services.ErrInternal)
	})
}

func TestIsRevoked(t *testing.T) {
	logger := zap.NewNop()
	ctx := context.Background()

	t.Run("unrevoked token is allowed", func(t *testing.T) {
		store := NewStore(newFakeKV(), logger)
		raw := signedToken(t, time.Now().Add(time.Hour))
		assert.False(t, store.IsRevoked(ctx, raw))
	})

	t.Run("store failure fails closed", func(t *testing.T) {
		kv := newFakeKV()
		kv.failing = true
		store := NewStore(kv, logger)

		raw := signedToken(t, time.Now().Add(time.Hour))
		assert.True(t, store.IsRevoked(ctx, raw))
	})

	t.Run("different tokens do not collide", func(t *testing.T) {
		kv := newFakeKV()
		base := time.Now()
		store := NewStore(kv, logger).WithClock(func() time.Time { return base })

		first := signedToken(t, base.Add(time.Hour))
		second := signedToken(t, base.Add(2*time.Hour))
		require.NoError(t, store.Revoke(ctx, first))

		assert.True(t, store.IsRevoked(ctx, first))
		assert.False(t, store.IsRevoked(ctx, second))
	})
}
