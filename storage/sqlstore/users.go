package sqlstore

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/event-auth-server/internal/errors"
	"github.com/jrsteele09/event-auth-server/users"
	pkgerrors "github.com/pkg/errors"
)

const accountColumns = `id, email, phone, password_hash, address, education_level, role, status, otp, otp_expiry, created_at`

type UserRepo struct {
	db      DBTX
	dialect Dialect
}

var _ users.UserRepo = (*UserRepo)(nil)

func NewUserRepo(db DBTX, dialect Dialect) *UserRepo {
	return &UserRepo{db: db, dialect: dialect}
}

func (r *UserRepo) Create(ctx context.Context, user *users.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}

	otp, otpExpiry := nullableOTP(user)

	query := `
		INSERT INTO accounts (` + accountColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := r.db.ExecContext(ctx, r.dialect.Rebind(query),
		user.ID, user.Email, user.Phone, user.PasswordHash, user.Address,
		string(user.EducationLevel), string(user.Role), string(user.Status),
		otp, otpExpiry, toMillis(user.CreatedAt),
	)
	if err != nil {
		if field, ok := r.dialect.UniqueViolation(err); ok {
			if field == "" {
				field = "id"
			}
			return &errors.DuplicateError{Field: field}
		}
		return pkgerrors.Wrap(err, "UserRepo.Create")
	}
	return nil
}

func (r *UserRepo) GetByID(ctx context.Context, id string) (*users.User, error) {
	return r.getBy(ctx, "id", id)
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*users.User, error) {
	return r.getBy(ctx, "email", email)
}

func (r *UserRepo) GetByPhone(ctx context.Context, phone string) (*users.User, error) {
	return r.getBy(ctx, "phone", phone)
}

// getBy is only called with fixed column names
func (r *UserRepo) getBy(ctx context.Context, column, value string) (*users.User, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE ` + column + ` = $1
	`
	var (
		u                       users.User
		education, role, status string
		otp                     sql.NullString
		otpExpiry               sql.NullInt64
		createdAt               int64
	)
	err := r.db.QueryRowContext(ctx, r.dialect.Rebind(query), value).Scan(
		&u.ID, &u.Email, &u.Phone, &u.PasswordHash, &u.Address,
		&education, &role, &status, &otp, &otpExpiry, &createdAt,
	)
	if err != nil {
		if pkgerrors.Is(err, sql.ErrNoRows) {
			return nil, errors.ErrNotFound
		}
		return nil, pkgerrors.Wrapf(err, "UserRepo.getBy %s", column)
	}

	u.EducationLevel = users.EducationLevel(education)
	u.Role = users.RoleType(role)
	u.Status = users.Status(status)
	u.CreatedAt = fromMillis(createdAt)
	if otp.Valid && otpExpiry.Valid {
		code, expiry := otp.String, fromMillis(otpExpiry.Int64)
		u.OTP, u.OTPExpiry = &code, &expiry
	}
	return &u, nil
}

func (r *UserRepo) SetOTP(ctx context.Context, id, code string, expiresAt time.Time) error {
	query := `
		UPDATE accounts
		SET otp = $1, otp_expiry = $2
		WHERE id = $3 AND status = $4
	`
	res, err := r.db.ExecContext(ctx, r.dialect.Rebind(query), code, toMillis(expiresAt), id, string(users.StatusUnverified))
	if err != nil {
		return pkgerrors.Wrap(err, "UserRepo.SetOTP")
	}
	return requireRow(res, "UserRepo.SetOTP")
}

func (r *UserRepo) Activate(ctx context.Context, id, code string) error {
	query := `
		UPDATE accounts
		SET status = $1, otp = NULL, otp_expiry = NULL
		WHERE id = $2 AND status = $3 AND otp = $4
	`
	res, err := r.db.ExecContext(ctx, r.dialect.Rebind(query), string(users.StatusActive), id, string(users.StatusUnverified), code)
	if err != nil {
		return pkgerrors.Wrap(err, "UserRepo.Activate")
	}
	return requireRow(res, "UserRepo.Activate")
}

func requireRow(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return pkgerrors.Wrap(err, op+" rows affected")
	}
	if n == 0 {
		return errors.ErrNotFound
	}
	return nil
}

// nullableOTP maps a pending code onto its two nullable columns
func nullableOTP(user *users.User) (sql.NullString, sql.NullInt64) {
	if user.OTP == nil || user.OTPExpiry == nil {
		return sql.NullString{}, sql.NullInt64{}
	}
	return sql.NullString{String: *user.OTP, Valid: true}, sql.NullInt64{Int64: toMillis(*user.OTPExpiry), Valid: true}
}
