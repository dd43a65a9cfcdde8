package revokedredis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/jrsteele09/event-auth-server/token"
	"github.com/jrsteele09/event-auth-server/token/revokedredis"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*miniredis.Miniredis, *revokedredis.Cache) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache, err := revokedredis.New(context.Background(), client, revokedredis.WithPrefix("test:"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = cache.Close() })
	return mr, cache
}

func TestRevokeSetsKeyWithTTL(t *testing.T) {
	ctx := context.Background()
	mr, cache := setup(t)

	require.NoError(t, cache.Revoke(ctx, "tok", time.Now().Add(time.Minute)))

	revoked, err := cache.IsRevoked(ctx, "tok")
	require.NoError(t, err)
	require.True(t, revoked)

	key := "test:" + token.Fingerprint("tok")
	require.True(t, mr.Exists(key))
	ttl := mr.TTL(key)
	require.Greater(t, ttl, time.Duration(0))
	require.LessOrEqual(t, ttl, time.Minute)

	mr.FastForward(2 * time.Minute)
	revoked, err = cache.IsRevoked(ctx, "tok")
	require.NoError(t, err)
	require.False(t, revoked)
}

func TestRevokeExpiredTokenIsNoop(t *testing.T) {
	ctx := context.Background()
	mr, cache := setup(t)

	require.NoError(t, cache.Revoke(ctx, "tok", time.Now().Add(-time.Second)))
	require.Empty(t, mr.Keys())
}

func TestUnknownTokenIsNotRevoked(t *testing.T) {
	_, cache := setup(t)
	revoked, err := cache.IsRevoked(context.Background(), "nope")
	require.NoError(t, err)
	require.False(t, revoked)
}

func TestNewFailsWhenRedisUnreachable(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	addr := mr.Addr()
	mr.Close()

	client := redis.NewClient(&redis.Options{Addr: addr, MaxRetries: -1, DialTimeout: 100 * time.Millisecond})
	defer client.Close()
	_, err = revokedredis.New(context.Background(), client)
	require.Error(t, err)
}
