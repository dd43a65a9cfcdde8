// Package revokedredis keeps the revoked access token list in Redis so that every
// server instance sees a logout. Keys expire with the token they describe.
package revokedredis

import (
	"context"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/jrsteele09/event-auth-server/token"
	"github.com/pkg/errors"
)

const DefaultPrefix = "revoked:access:"

type Cache struct {
	client  *redis.Client
	prefix  string
	nowFunc func() time.Time
}

var _ token.RevokedTokenCache = (*Cache)(nil)

type Option func(*Cache)

func WithPrefix(prefix string) Option {
	return func(c *Cache) {
		c.prefix = prefix
	}
}

func WithNowFunc(now func() time.Time) Option {
	return func(c *Cache) {
		c.nowFunc = now
	}
}

// New pings client before returning the cache
func New(ctx context.Context, client *redis.Client, opts ...Option) (*Cache, error) {
	if client == nil {
		return nil, errors.New("[revokedredis New] client is required")
	}
	c := &Cache{client: client, prefix: DefaultPrefix, nowFunc: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, errors.Wrap(err, "[revokedredis New] ping")
	}
	return c, nil
}

func (c *Cache) key(tok string) string {
	return c.prefix + token.Fingerprint(tok)
}

func (c *Cache) Revoke(ctx context.Context, tok string, expiresAt time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ttl := expiresAt.Sub(c.nowFunc())
	if ttl <= 0 {
		return nil
	}
	value := strconv.FormatInt(expiresAt.Unix(), 10)
	if err := c.client.Set(ctx, c.key(tok), value, ttl).Err(); err != nil {
		return errors.Wrap(err, "Cache.Revoke")
	}
	return nil
}

func (c *Cache) IsRevoked(ctx context.Context, tok string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	n, err := c.client.Exists(ctx, c.key(tok)).Result()
	if err != nil {
		return false, errors.Wrap(err, "Cache.IsRevoked")
	}
	return n > 0, nil
}

func (c *Cache) Close() error {
	return c.client.Close()
}
