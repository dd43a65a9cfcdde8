package otp

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"io"
	"math/big"
	"strconv"
	"time"

	"github.com/pkg/errors"
)

const (
	minCode = 100000
	maxCode = 999999

	DefaultLifetime    = 15 * time.Minute
	DefaultSendTimeout = 10 * time.Second
)

// Sender delivers a one-time code to an email address
type Sender interface {
	SendOTP(ctx context.Context, to, code string, lifetime time.Duration) error
}

// Code is a freshly issued one-time code and the instant it stops being accepted
type Code struct {
	Value     string
	ExpiresAt time.Time
}

type Issuer struct {
	sender      Sender
	lifetime    time.Duration
	sendTimeout time.Duration
	nowFunc     func() time.Time
	random      io.Reader
}

type IssuerOption func(*Issuer)

func WithLifetime(lifetime time.Duration) IssuerOption {
	return func(i *Issuer) {
		i.lifetime = lifetime
	}
}

func WithSendTimeout(timeout time.Duration) IssuerOption {
	return func(i *Issuer) {
		i.sendTimeout = timeout
	}
}

func WithNowFunc(now func() time.Time) IssuerOption {
	return func(i *Issuer) {
		i.nowFunc = now
	}
}

// WithRandom replaces the entropy source, crypto/rand by default
func WithRandom(r io.Reader) IssuerOption {
	return func(i *Issuer) {
		i.random = r
	}
}

func NewIssuer(sender Sender, opts ...IssuerOption) *Issuer {
	i := &Issuer{
		sender:      sender,
		lifetime:    DefaultLifetime,
		sendTimeout: DefaultSendTimeout,
		nowFunc:     time.Now,
		random:      rand.Reader,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

func (i *Issuer) Lifetime() time.Duration {
	return i.lifetime
}

// Issue draws a six digit code uniformly from [100000, 999999]
func (i *Issuer) Issue() (Code, error) {
	n, err := rand.Int(i.random, big.NewInt(maxCode-minCode+1))
	if err != nil {
		return Code{}, errors.Wrap(err, "Issuer.Issue")
	}
	return Code{
		Value:     strconv.FormatInt(n.Int64()+minCode, 10),
		ExpiresAt: i.nowFunc().Add(i.lifetime),
	}, nil
}

// Deliver sends code to the address, giving up after the send timeout even if the
// sender ignores cancellation.
func (i *Issuer) Deliver(ctx context.Context, to string, code Code) error {
	ctx, cancel := context.WithTimeout(ctx, i.sendTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- i.sender.SendOTP(ctx, to, code.Value, i.lifetime)
	}()

	select {
	case err := <-done:
		if err != nil {
			return errors.Wrap(err, "Issuer.Deliver")
		}
		return nil
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), "Issuer.Deliver")
	}
}

// Matches reports whether presented is exactly the stored code
func Matches(stored, presented string) bool {
	return subtle.ConstantTimeCompare([]byte(stored), []byte(presented)) == 1
}

// Expired reports whether a code with the given expiry is no longer valid at now
func Expired(expiresAt, now time.Time) bool {
	return now.After(expiresAt)
}
