package refresh

import (
	"context"
	"time"

	"github.com/jrsteele09/event-auth-server/internal/errors"
	"github.com/jrsteele09/event-auth-server/token"
	"github.com/jrsteele09/event-auth-server/users"
	pkgerrors "github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// ClientInfo describes where a token was requested from
type ClientInfo struct {
	UserAgent string
	IPAddress string
}

// Manager handles refresh token persistence, lookup and rotation
type Manager struct {
	repo    Repo
	nowFunc func() time.Time
}

// NewManager creates a new refresh token manager
func NewManager(repo Repo, nowFunc func() time.Time) *Manager {
	if nowFunc == nil {
		nowFunc = time.Now
	}
	return &Manager{
		repo:    repo,
		nowFunc: nowFunc,
	}
}

// Store records a newly issued refresh token for subject
func (m *Manager) Store(ctx context.Context, subject token.Subject, refreshToken string, expiresAt time.Time, client ClientInfo) error {
	if err := m.repo.Create(ctx, &StoredRefreshToken{
		UserID:    subject.ID,
		Role:      subject.Role,
		Token:     refreshToken,
		UserAgent: client.UserAgent,
		IPAddress: client.IPAddress,
		CreatedAt: m.nowFunc(),
		ExpiresAt: expiresAt,
	}); err != nil {
		return pkgerrors.Wrap(err, "Manager.Store")
	}
	return nil
}

// Lookup returns the record for refreshToken if it is stored in subject's partition,
// belongs to subject and has not expired. Anything else is errors.ErrNotFound.
func (m *Manager) Lookup(ctx context.Context, subject token.Subject, refreshToken string) (*StoredRefreshToken, error) {
	rt, err := m.repo.Get(ctx, subject.Role, refreshToken)
	if err != nil {
		return nil, err
	}
	if rt.UserID != subject.ID || m.IsExpired(rt) {
		return nil, errors.ErrNotFound
	}
	return rt, nil
}

// Rotate replaces current with next in subject's partition
func (m *Manager) Rotate(ctx context.Context, subject token.Subject, current, next string, expiresAt time.Time, client ClientInfo) error {
	return m.repo.Rotate(ctx, subject.Role, current, &StoredRefreshToken{
		UserID:    subject.ID,
		Role:      subject.Role,
		Token:     next,
		UserAgent: client.UserAgent,
		IPAddress: client.IPAddress,
		ExpiresAt: expiresAt,
	})
}

// Revoke removes refreshToken from role's partition
func (m *Manager) Revoke(ctx context.Context, role users.RoleType, refreshToken string) error {
	return m.repo.Delete(ctx, role, refreshToken)
}

// IsExpired checks if a refresh token record has expired
func (m *Manager) IsExpired(rt *StoredRefreshToken) bool {
	return !m.nowFunc().Before(rt.ExpiresAt)
}

// Sweep deletes every expired record
func (m *Manager) Sweep(ctx context.Context) (int64, error) {
	return m.repo.DeleteExpired(ctx, m.nowFunc())
}

// Run sweeps expired records every interval until ctx is done
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := m.Sweep(ctx)
			if err != nil {
				log.Err(err).Msg("refresh token sweep failed")
				continue
			}
			log.Debug().Int64("removed", removed).Msg("refresh token sweep")
		}
	}
}
