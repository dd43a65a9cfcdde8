package token

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// RevokedTokenCache records access tokens that were logged out before they expired.
// Entries only need to live until the token's own expiry.
type RevokedTokenCache interface {
	Revoke(ctx context.Context, token string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, token string) (bool, error)
}

// Fingerprint is the key a revoked token is stored under
func Fingerprint(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// InMemoryRevokedTokenCache is a simple in-memory implementation
type InMemoryRevokedTokenCache struct {
	revoked map[string]time.Time
	mu      sync.RWMutex
	nowFunc func() time.Time
}

var _ RevokedTokenCache = (*InMemoryRevokedTokenCache)(nil)

func NewInMemoryRevokedTokenCache(nowFunc func() time.Time) *InMemoryRevokedTokenCache {
	if nowFunc == nil {
		nowFunc = time.Now
	}
	return &InMemoryRevokedTokenCache{
		revoked: make(map[string]time.Time),
		nowFunc: nowFunc,
	}
}

func (c *InMemoryRevokedTokenCache) Revoke(_ context.Context, token string, expiresAt time.Time) error {
	if !expiresAt.After(c.nowFunc()) {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.revoked[Fingerprint(token)] = expiresAt
	return nil
}

func (c *InMemoryRevokedTokenCache) IsRevoked(_ context.Context, token string) (bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	exp, exists := c.revoked[Fingerprint(token)]
	return exists && c.nowFunc().Before(exp), nil
}

// Len returns the number of entries, expired or not
func (c *InMemoryRevokedTokenCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.revoked)
}

// Cleanup removes expired entries
func (c *InMemoryRevokedTokenCache) Cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.nowFunc()
	for key, exp := range c.revoked {
		if !now.Before(exp) {
			delete(c.revoked, key)
		}
	}
}

// Run calls Cleanup every interval until ctx is done
func (c *InMemoryRevokedTokenCache) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			before := c.Len()
			c.Cleanup()
			log.Debug().Int("removed", before-c.Len()).Msg("revoked token cache cleanup")
		}
	}
}
