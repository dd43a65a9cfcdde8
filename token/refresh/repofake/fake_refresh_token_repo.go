package refreshrepofake

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/event-auth-server/internal/errors"
	"github.com/jrsteele09/event-auth-server/token/refresh"
	"github.com/jrsteele09/event-auth-server/users"
)

var _ refresh.Repo = (*FakeRefreshTokenRepo)(nil)

type partitionKey struct {
	role  users.RoleType
	token string
}

type FakeRefreshTokenRepo struct {
	tokens map[partitionKey]refresh.StoredRefreshToken
	lock   sync.RWMutex
}

func NewFakeRefreshTokenRepo() *FakeRefreshTokenRepo {
	return &FakeRefreshTokenRepo{
		tokens: make(map[partitionKey]refresh.StoredRefreshToken),
	}
}

func (tr *FakeRefreshTokenRepo) Create(_ context.Context, refreshToken *refresh.StoredRefreshToken) error {
	tr.lock.Lock()
	defer tr.lock.Unlock()

	key := partitionKey{role: refreshToken.Role, token: refreshToken.Token}
	if _, ok := tr.tokens[key]; ok {
		return &errors.DuplicateError{Field: "token"}
	}
	if refreshToken.ID == "" {
		refreshToken.ID = uuid.New().String()
	}
	tr.tokens[key] = *refreshToken
	return nil
}

func (tr *FakeRefreshTokenRepo) Get(_ context.Context, role users.RoleType, token string) (*refresh.StoredRefreshToken, error) {
	tr.lock.RLock()
	defer tr.lock.RUnlock()

	rt, ok := tr.tokens[partitionKey{role: role, token: token}]
	if !ok {
		return nil, errors.ErrNotFound
	}
	return &rt, nil
}

func (tr *FakeRefreshTokenRepo) Rotate(_ context.Context, role users.RoleType, current string, next *refresh.StoredRefreshToken) error {
	tr.lock.Lock()
	defer tr.lock.Unlock()

	key := partitionKey{role: role, token: current}
	rt, ok := tr.tokens[key]
	if !ok {
		return errors.ErrNotFound
	}
	nextKey := partitionKey{role: role, token: next.Token}
	if _, ok := tr.tokens[nextKey]; ok {
		return &errors.DuplicateError{Field: "token"}
	}

	delete(tr.tokens, key)
	rt.Token = next.Token
	rt.ExpiresAt = next.ExpiresAt
	rt.UserAgent = next.UserAgent
	rt.IPAddress = next.IPAddress
	tr.tokens[nextKey] = rt
	return nil
}

func (tr *FakeRefreshTokenRepo) Delete(_ context.Context, role users.RoleType, token string) error {
	tr.lock.Lock()
	defer tr.lock.Unlock()

	delete(tr.tokens, partitionKey{role: role, token: token})
	return nil
}

func (tr *FakeRefreshTokenRepo) DeleteExpired(_ context.Context, before time.Time) (int64, error) {
	tr.lock.Lock()
	defer tr.lock.Unlock()

	var removed int64
	for key, rt := range tr.tokens {
		if !rt.ExpiresAt.After(before) {
			delete(tr.tokens, key)
			removed++
		}
	}
	return removed, nil
}

// Len returns the number of stored records across all partitions
func (tr *FakeRefreshTokenRepo) Len() int {
	tr.lock.RLock()
	defer tr.lock.RUnlock()
	return len(tr.tokens)
}
