package sqlstore_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	apperrors "github.com/jrsteele09/event-auth-server/internal/errors"
	"github.com/jrsteele09/event-auth-server/storage/sqlstore"
	"github.com/jrsteele09/event-auth-server/token/refresh"
	"github.com/jrsteele09/event-auth-server/users"
	"github.com/stretchr/testify/require"
)

var errUnique = errors.New("unique violation on accounts_email_key")

// fakeDialect treats errUnique as a collision on email
type fakeDialect struct{}

func (fakeDialect) Rebind(query string) string { return query }

func (fakeDialect) UniqueViolation(err error) (string, bool) {
	if errors.Is(err, errUnique) {
		return sqlstore.FieldFromConstraint(err.Error()), true
	}
	return "", false
}

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

var accountCols = []string{"id", "email", "phone", "password_hash", "address", "education_level", "role", "status", "otp", "otp_expiry", "created_at"}

func TestUserCreate(t *testing.T) {
	db, mock := newMock(t)
	repo := sqlstore.NewUserRepo(db, fakeDialect{})

	q := `(?s)^\s*INSERT\s+INTO\s+accounts\b.*VALUES\s*\(\$1,.*\$11\)\s*$`
	mock.ExpectExec(q).
		WithArgs(sqlmock.AnyArg(), "a@example.com", "0811", "hash", "addr", "Lainnya", "user", "unverified", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	u := &users.User{Email: "a@example.com", Phone: "0811", PasswordHash: "hash", Address: "addr",
		EducationLevel: users.EducationOther, Role: users.RoleUser, Status: users.StatusUnverified}
	require.NoError(t, repo.Create(context.Background(), u))
	require.NotEmpty(t, u.ID)
	require.False(t, u.CreatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserCreateDuplicate(t *testing.T) {
	db, mock := newMock(t)
	repo := sqlstore.NewUserRepo(db, fakeDialect{})

	mock.ExpectExec(`INSERT\s+INTO\s+accounts`).WillReturnError(errUnique)

	err := repo.Create(context.Background(), &users.User{Email: "a@example.com"})
	var dup *apperrors.DuplicateError
	require.ErrorAs(t, err, &dup)
	require.Equal(t, "email", dup.Field)
}

func TestUserCreateDBError(t *testing.T) {
	db, mock := newMock(t)
	repo := sqlstore.NewUserRepo(db, fakeDialect{})

	mock.ExpectExec(`INSERT\s+INTO\s+accounts`).WillReturnError(errors.New("db down"))

	err := repo.Create(context.Background(), &users.User{Email: "a@example.com"})
	require.ErrorContains(t, err, "db down")
	require.False(t, apperrors.Is(err, apperrors.ErrDuplicate))
}

func TestUserGetByEmail(t *testing.T) {
	db, mock := newMock(t)
	repo := sqlstore.NewUserRepo(db, fakeDialect{})

	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	expiry := created.Add(15 * time.Minute)
	rows := sqlmock.NewRows(accountCols).
		AddRow("u1", "a@example.com", "0811", "hash", "addr", "SMA/SMK", "user", "unverified", "123456", expiry.UnixMilli(), created.UnixMilli())

	mock.ExpectQuery(`(?s)SELECT\s+id,.*FROM\s+accounts\s+WHERE\s+email\s*=\s*\$1`).
		WithArgs("a@example.com").
		WillReturnRows(rows)

	u, err := repo.GetByEmail(context.Background(), "a@example.com")
	require.NoError(t, err)
	require.Equal(t, "u1", u.ID)
	require.Equal(t, users.EducationSenior, u.EducationLevel)
	require.Equal(t, "123456", *u.OTP)
	require.True(t, expiry.Equal(*u.OTPExpiry))
	require.True(t, created.Equal(u.CreatedAt))
}

func TestUserGetNullOTP(t *testing.T) {
	db, mock := newMock(t)
	repo := sqlstore.NewUserRepo(db, fakeDialect{})

	rows := sqlmock.NewRows(accountCols).
		AddRow("u1", "a@example.com", "0811", "hash", "addr", "Lainnya", "admin", "active", nil, nil, int64(0))
	mock.ExpectQuery(`WHERE\s+phone\s*=\s*\$1`).WithArgs("0811").WillReturnRows(rows)

	u, err := repo.GetByPhone(context.Background(), "0811")
	require.NoError(t, err)
	require.Equal(t, users.RoleAdmin, u.Role)
	require.False(t, u.HasPendingOTP())
}

func TestUserGetNotFound(t *testing.T) {
	db, mock := newMock(t)
	repo := sqlstore.NewUserRepo(db, fakeDialect{})

	mock.ExpectQuery(`WHERE\s+id\s*=\s*\$1`).WithArgs("missing").WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "missing")
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestUserActivate(t *testing.T) {
	db, mock := newMock(t)
	repo := sqlstore.NewUserRepo(db, fakeDialect{})

	q := `(?s)UPDATE\s+accounts\s+SET\s+status\s*=\s*\$1,\s*otp\s*=\s*NULL,\s*otp_expiry\s*=\s*NULL\s+WHERE\s+id\s*=\s*\$2\s+AND\s+status\s*=\s*\$3\s+AND\s+otp\s*=\s*\$4`
	mock.ExpectExec(q).WithArgs("active", "u1", "unverified", "123456").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q).WithArgs("active", "u1", "unverified", "123456").WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.Activate(context.Background(), "u1", "123456"))
	require.ErrorIs(t, repo.Activate(context.Background(), "u1", "123456"), apperrors.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserSetOTP(t *testing.T) {
	db, mock := newMock(t)
	repo := sqlstore.NewUserRepo(db, fakeDialect{})
	expiry := time.Date(2026, 1, 1, 0, 15, 0, 0, time.UTC)

	mock.ExpectExec(`(?s)UPDATE\s+accounts\s+SET\s+otp\s*=\s*\$1,\s*otp_expiry\s*=\s*\$2`).
		WithArgs("654321", expiry.UnixMilli(), "u1", "unverified").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.SetOTP(context.Background(), "u1", "654321", expiry))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRefreshGet(t *testing.T) {
	db, mock := newMock(t)
	repo := sqlstore.NewRefreshTokenRepo(db, fakeDialect{})
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows([]string{"id", "user_id", "role", "token", "user_agent", "ip_address", "created_at", "expires_at"}).
		AddRow("r1", "u1", "admin", "tok", "ua", "10.0.0.1", now.UnixMilli(), now.Add(time.Hour).UnixMilli())
	mock.ExpectQuery(`(?s)FROM\s+refresh_tokens\s+WHERE\s+role\s*=\s*\$1\s+AND\s+token\s*=\s*\$2`).
		WithArgs("admin", "tok").
		WillReturnRows(rows)

	rt, err := repo.Get(context.Background(), users.RoleAdmin, "tok")
	require.NoError(t, err)
	require.Equal(t, "u1", rt.UserID)
	require.Equal(t, users.RoleAdmin, rt.Role)
	require.True(t, now.Add(time.Hour).Equal(rt.ExpiresAt))
}

func TestRefreshRotateCompareAndSwap(t *testing.T) {
	db, mock := newMock(t)
	repo := sqlstore.NewRefreshTokenRepo(db, fakeDialect{})
	exp := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)

	q := `(?s)UPDATE\s+refresh_tokens\s+SET\s+token\s*=\s*\$1.*WHERE\s+role\s*=\s*\$5\s+AND\s+token\s*=\s*\$6`
	mock.ExpectExec(q).WithArgs("new", exp.UnixMilli(), "ua", "ip", "user", "old").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q).WithArgs("newer", exp.UnixMilli(), "ua", "ip", "user", "old").WillReturnResult(sqlmock.NewResult(0, 0))

	next := &refresh.StoredRefreshToken{Token: "new", ExpiresAt: exp, UserAgent: "ua", IPAddress: "ip"}
	require.NoError(t, repo.Rotate(context.Background(), users.RoleUser, "old", next))

	next = &refresh.StoredRefreshToken{Token: "newer", ExpiresAt: exp, UserAgent: "ua", IPAddress: "ip"}
	require.ErrorIs(t, repo.Rotate(context.Background(), users.RoleUser, "old", next), apperrors.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRefreshDeleteAndSweep(t *testing.T) {
	db, mock := newMock(t)
	repo := sqlstore.NewRefreshTokenRepo(db, fakeDialect{})
	before := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)

	mock.ExpectExec(`(?s)DELETE\s+FROM\s+refresh_tokens\s+WHERE\s+role\s*=\s*\$1\s+AND\s+token\s*=\s*\$2`).
		WithArgs("user", "tok").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`(?s)DELETE\s+FROM\s+refresh_tokens\s+WHERE\s+expires_at\s*<=\s*\$1`).
		WithArgs(before.UnixMilli()).
		WillReturnResult(sqlmock.NewResult(0, 3))

	require.NoError(t, repo.Delete(context.Background(), users.RoleUser, "tok"))
	n, err := repo.DeleteExpired(context.Background(), before)
	require.NoError(t, err)
	require.Equal(t, int64(3), n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFieldFromConstraint(t *testing.T) {
	require.Equal(t, "email", sqlstore.FieldFromConstraint("accounts_email_key"))
	require.Equal(t, "phone", sqlstore.FieldFromConstraint("PHONE"))
	require.Equal(t, "token", sqlstore.FieldFromConstraint("role token"))
	require.Equal(t, "", sqlstore.FieldFromConstraint("id"))
}

