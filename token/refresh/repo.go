package refresh

import (
	"context"
	"time"

	"github.com/jrsteele09/event-auth-server/users"
)

// StoredRefreshToken is the server-side record of an issued refresh token.
// A record is created at login, rotated in place on refresh and removed at logout.
type StoredRefreshToken struct {
	ID        string
	UserID    string
	Role      users.RoleType // partition the record lives in
	Token     string         // the signed refresh token handed to the client
	UserAgent string
	IPAddress string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Repo stores refresh token records partitioned by role. Every lookup is scoped to a
// role so an admin token can never be found through the user partition and vice versa.
type Repo interface {
	Create(ctx context.Context, refreshToken *StoredRefreshToken) error
	// Get returns errors.ErrNotFound when token is not present in role's partition
	Get(ctx context.Context, role users.RoleType, token string) (*StoredRefreshToken, error)
	// Rotate swaps current for next.Token (with next's expiry and client details) only if
	// current is still stored. It returns errors.ErrNotFound when it is not.
	Rotate(ctx context.Context, role users.RoleType, current string, next *StoredRefreshToken) error
	// Delete removes token from role's partition. Deleting a missing token is not an error.
	Delete(ctx context.Context, role users.RoleType, token string) error
	// DeleteExpired removes every record that expired at or before the given time
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}
