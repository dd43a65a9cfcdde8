package config

import (
	"time"

	"github.com/pkg/errors"
)

type TokenConfig interface {
	GetAccessTokenSecret() string
	GetRefreshTokenSecret() string
	GetAccessTokenExpiry() time.Duration
	GetRefreshTokenExpiry() time.Duration
	GetIssuer() string
	GetOTPLifetime() time.Duration
	GetTokenSweepInterval() time.Duration
}

type Tokens struct {
	AccessSecret  string        `env:"JWT_ACCESS_SECRET"`
	RefreshSecret string        `env:"JWT_REFRESH_SECRET"`
	AccessExpiry  time.Duration `env:"JWT_ACCESS_EXPIRES" envDefault:"15m"`
	RefreshExpiry time.Duration `env:"JWT_REFRESH_EXPIRES" envDefault:"168h"`
	Issuer        string        `env:"JWT_ISSUER" envDefault:"event-auth"`
	OTPLifetime   time.Duration `env:"OTP_LIFETIME" envDefault:"15m"`
	SweepInterval time.Duration `env:"TOKEN_SWEEP_INTERVAL" envDefault:"1h"`
}

var _ TokenConfig = Tokens{}

func (t Tokens) validate() error {
	if t.AccessSecret == "" || t.RefreshSecret == "" {
		return errors.New("[config] JWT_ACCESS_SECRET and JWT_REFRESH_SECRET are required")
	}
	if t.AccessSecret == t.RefreshSecret {
		return errors.New("[config] JWT_ACCESS_SECRET and JWT_REFRESH_SECRET must differ")
	}
	if t.AccessExpiry <= 0 || t.RefreshExpiry <= 0 || t.OTPLifetime <= 0 {
		return errors.New("[config] token and OTP lifetimes must be positive")
	}
	if t.SweepInterval <= 0 {
		return errors.New("[config] TOKEN_SWEEP_INTERVAL must be positive")
	}
	return nil
}

func (t Tokens) GetAccessTokenSecret() string {
	return t.AccessSecret
}

func (t Tokens) GetRefreshTokenSecret() string {
	return t.RefreshSecret
}

func (t Tokens) GetAccessTokenExpiry() time.Duration {
	return t.AccessExpiry
}

func (t Tokens) GetRefreshTokenExpiry() time.Duration {
	return t.RefreshExpiry
}

func (t Tokens) GetIssuer() string {
	return t.Issuer
}

func (t Tokens) GetOTPLifetime() time.Duration {
	return t.OTPLifetime
}

func (t Tokens) GetTokenSweepInterval() time.Duration {
	return t.SweepInterval
}
