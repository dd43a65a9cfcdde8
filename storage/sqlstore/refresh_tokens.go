package sqlstore

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/event-auth-server/internal/errors"
	"github.com/jrsteele09/event-auth-server/token/refresh"
	"github.com/jrsteele09/event-auth-server/users"
	pkgerrors "github.com/pkg/errors"
)

type RefreshTokenRepo struct {
	db      DBTX
	dialect Dialect
}

var _ refresh.Repo = (*RefreshTokenRepo)(nil)

func NewRefreshTokenRepo(db DBTX, dialect Dialect) *RefreshTokenRepo {
	return &RefreshTokenRepo{db: db, dialect: dialect}
}

func (r *RefreshTokenRepo) duplicate(err error) error {
	if field, ok := r.dialect.UniqueViolation(err); ok {
		if field == "" {
			field = "id"
		}
		return &errors.DuplicateError{Field: field}
	}
	return nil
}

func (r *RefreshTokenRepo) Create(ctx context.Context, rt *refresh.StoredRefreshToken) error {
	if rt.ID == "" {
		rt.ID = uuid.New().String()
	}
	if rt.CreatedAt.IsZero() {
		rt.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO refresh_tokens (id, user_id, role, token, user_agent, ip_address, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.ExecContext(ctx, r.dialect.Rebind(query),
		rt.ID, rt.UserID, string(rt.Role), rt.Token, rt.UserAgent, rt.IPAddress,
		toMillis(rt.CreatedAt), toMillis(rt.ExpiresAt),
	)
	if err != nil {
		if dup := r.duplicate(err); dup != nil {
			return dup
		}
		return pkgerrors.Wrap(err, "RefreshTokenRepo.Create")
	}
	return nil
}

func (r *RefreshTokenRepo) Get(ctx context.Context, role users.RoleType, token string) (*refresh.StoredRefreshToken, error) {
	query := `
		SELECT id, user_id, role, token, user_agent, ip_address, created_at, expires_at
		FROM refresh_tokens
		WHERE role = $1 AND token = $2
	`
	var (
		rt                   refresh.StoredRefreshToken
		storedRole           string
		createdAt, expiresAt int64
	)
	err := r.db.QueryRowContext(ctx, r.dialect.Rebind(query), string(role), token).Scan(
		&rt.ID, &rt.UserID, &storedRole, &rt.Token, &rt.UserAgent, &rt.IPAddress, &createdAt, &expiresAt,
	)
	if err != nil {
		if pkgerrors.Is(err, sql.ErrNoRows) {
			return nil, errors.ErrNotFound
		}
		return nil, pkgerrors.Wrap(err, "RefreshTokenRepo.Get")
	}
	rt.Role = users.RoleType(storedRole)
	rt.CreatedAt = fromMillis(createdAt)
	rt.ExpiresAt = fromMillis(expiresAt)
	return &rt, nil
}

// Rotate is a single conditional update keyed on the current token value, so
// concurrent rotations of the same token have exactly one winner.
func (r *RefreshTokenRepo) Rotate(ctx context.Context, role users.RoleType, current string, next *refresh.StoredRefreshToken) error {
	query := `
		UPDATE refresh_tokens
		SET token = $1, expires_at = $2, user_agent = $3, ip_address = $4
		WHERE role = $5 AND token = $6
	`
	res, err := r.db.ExecContext(ctx, r.dialect.Rebind(query),
		next.Token, toMillis(next.ExpiresAt), next.UserAgent, next.IPAddress, string(role), current,
	)
	if err != nil {
		if dup := r.duplicate(err); dup != nil {
			return dup
		}
		return pkgerrors.Wrap(err, "RefreshTokenRepo.Rotate")
	}
	return requireRow(res, "RefreshTokenRepo.Rotate")
}

func (r *RefreshTokenRepo) Delete(ctx context.Context, role users.RoleType, token string) error {
	query := `
		DELETE FROM refresh_tokens
		WHERE role = $1 AND token = $2
	`
	if _, err := r.db.ExecContext(ctx, r.dialect.Rebind(query), string(role), token); err != nil {
		return pkgerrors.Wrap(err, "RefreshTokenRepo.Delete")
	}
	return nil
}

func (r *RefreshTokenRepo) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	query := `
		DELETE FROM refresh_tokens
		WHERE expires_at <= $1
	`
	res, err := r.db.ExecContext(ctx, r.dialect.Rebind(query), toMillis(before))
	if err != nil {
		return 0, pkgerrors.Wrap(err, "RefreshTokenRepo.DeleteExpired")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, pkgerrors.Wrap(err, "RefreshTokenRepo.DeleteExpired rows affected")
	}
	return n, nil
}
