package fakeuserrepo

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/event-auth-server/internal/errors"
	"github.com/jrsteele09/event-auth-server/users"
)

var _ users.UserRepo = (*FakeUserRepo)(nil)

// FakeUserRepo keeps accounts in memory. Stored records are copied on the way
// in and out so callers never share state with the repo.
type FakeUserRepo struct {
	users    map[string]*users.User
	emailIds map[string]string // email to user id
	phoneIds map[string]string // phone to user id
	lock     sync.RWMutex
}

func NewFakeUserRepo() *FakeUserRepo {
	return &FakeUserRepo{
		users:    make(map[string]*users.User),
		emailIds: make(map[string]string),
		phoneIds: make(map[string]string),
	}
}

func (ur *FakeUserRepo) Create(_ context.Context, user *users.User) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	if _, ok := ur.emailIds[user.Email]; ok {
		return &errors.DuplicateError{Field: "email"}
	}
	if _, ok := ur.phoneIds[user.Phone]; ok {
		return &errors.DuplicateError{Field: "phone"}
	}

	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if _, ok := ur.users[user.ID]; ok {
		return &errors.DuplicateError{Field: "id"}
	}
	ur.users[user.ID] = copyUser(user)
	ur.emailIds[user.Email] = user.ID
	ur.phoneIds[user.Phone] = user.ID
	return nil
}

func (ur *FakeUserRepo) GetByID(_ context.Context, id string) (*users.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	u, ok := ur.users[id]
	if !ok {
		return nil, errors.ErrNotFound
	}
	return copyUser(u), nil
}

func (ur *FakeUserRepo) GetByEmail(ctx context.Context, email string) (*users.User, error) {
	ur.lock.RLock()
	id, ok := ur.emailIds[email]
	ur.lock.RUnlock()
	if !ok {
		return nil, errors.ErrNotFound
	}
	return ur.GetByID(ctx, id)
}

func (ur *FakeUserRepo) GetByPhone(ctx context.Context, phone string) (*users.User, error) {
	ur.lock.RLock()
	id, ok := ur.phoneIds[phone]
	ur.lock.RUnlock()
	if !ok {
		return nil, errors.ErrNotFound
	}
	return ur.GetByID(ctx, id)
}

func (ur *FakeUserRepo) SetOTP(_ context.Context, id, code string, expiresAt time.Time) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	u, ok := ur.users[id]
	if !ok || u.Status != users.StatusUnverified {
		return errors.ErrNotFound
	}
	u.OTP = &code
	u.OTPExpiry = &expiresAt
	return nil
}

func (ur *FakeUserRepo) Activate(_ context.Context, id, code string) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	u, ok := ur.users[id]
	if !ok || u.Status != users.StatusUnverified || u.OTP == nil || *u.OTP != code {
		return errors.ErrNotFound
	}
	u.Status = users.StatusActive
	u.OTP = nil
	u.OTPExpiry = nil
	return nil
}

func copyUser(u *users.User) *users.User {
	c := *u
	if u.OTP != nil {
		code := *u.OTP
		c.OTP = &code
	}
	if u.OTPExpiry != nil {
		exp := *u.OTPExpiry
		c.OTPExpiry = &exp
	}
	return &c
}
