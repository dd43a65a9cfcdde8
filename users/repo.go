package users

import (
	"context"
	"time"
)

// UserRepo is the credential store. Lookups of a missing account return
// errors.ErrNotFound; writes colliding on email or phone return a
// *errors.DuplicateError naming the field.
type UserRepo interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByPhone(ctx context.Context, phone string) (*User, error)
	// SetOTP replaces the pending code and expiry of an unverified account
	SetOTP(ctx context.Context, id, code string, expiresAt time.Time) error
	// Activate marks an unverified account active and clears its pending code in one write,
	// provided code is still the pending one. It returns errors.ErrNotFound when no
	// unverified account with that id holds that code.
	Activate(ctx context.Context, id, code string) error
}
