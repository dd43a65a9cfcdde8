package config_test

import (
	"net/netip"
	"testing"
	"time"

	"github.com/jrsteele09/event-auth-server/internal/config"
	"github.com/stretchr/testify/require"
)

func baseEnvironment() map[string]string {
	return map[string]string{
		"JWT_ACCESS_SECRET":  "access-secret",
		"JWT_REFRESH_SECRET": "refresh-secret",
	}
}

func TestDefaults(t *testing.T) {
	c, err := config.FromEnvironment(baseEnvironment())
	require.NoError(t, err)

	require.Equal(t, ":8080", c.GetPort())
	require.Equal(t, "DEV", c.GetEnv())
	require.False(t, c.IsProduction())
	require.Equal(t, 15*time.Minute, c.GetAccessTokenExpiry())
	require.Equal(t, 7*24*time.Hour, c.GetRefreshTokenExpiry())
	require.Equal(t, 15*time.Minute, c.GetOTPLifetime())
	require.Equal(t, config.DriverMemory, c.GetStorageDriver())
	require.Equal(t, config.MailDriverLog, c.GetMailDriver())
	require.Equal(t, 10*time.Second, c.GetMailTimeout())
	require.Empty(t, c.GetAllowedOrigins())
}

func TestOverrides(t *testing.T) {
	environment := baseEnvironment()
	environment["PORT"] = ":9000"
	environment["ENV"] = "production"
	environment["CORS_ORIGINS"] = "https://a.example.com, https://b.example.com"
	environment["JWT_ACCESS_EXPIRES"] = "5m"
	environment["OTP_LIFETIME"] = "2m"
	environment["SMTP_ACCOUNT"] = "noreply@example.com"
	environment["RATE_LIMIT_ENABLED"] = "true"

	c, err := config.FromEnvironment(environment)
	require.NoError(t, err)

	require.Equal(t, ":9000", c.GetPort())
	require.True(t, c.IsProduction())
	require.True(t, c.GetAllowedOrigins().IsAllowedOrigin("https://b.example.com"))
	require.False(t, c.GetAllowedOrigins().IsAllowedOrigin("https://c.example.com"))
	require.Equal(t, "https://a.example.com, https://b.example.com", c.GetAllowedOrigins().String())
	require.Equal(t, 5*time.Minute, c.GetAccessTokenExpiry())
	require.Equal(t, 2*time.Minute, c.GetOTPLifetime())
	require.Equal(t, "noreply@example.com", c.GetMailFrom())
	require.True(t, c.GetEnableRateLimiting())
}

func TestSecretsValidation(t *testing.T) {
	_, err := config.FromEnvironment(map[string]string{})
	require.Error(t, err)

	_, err = config.FromEnvironment(map[string]string{
		"JWT_ACCESS_SECRET":  "same",
		"JWT_REFRESH_SECRET": "same",
	})
	require.Error(t, err)
}

func TestIntervalAndRateValidation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "zero sweep interval", env: map[string]string{"TOKEN_SWEEP_INTERVAL": "0s"}},
		{name: "negative sweep interval", env: map[string]string{"TOKEN_SWEEP_INTERVAL": "-1m"}},
		{name: "zero rate", env: map[string]string{"RATE_LIMIT_ENABLED": "true", "RATE_LIMIT_RPS": "0"}},
		{name: "negative burst", env: map[string]string{"RATE_LIMIT_ENABLED": "true", "RATE_LIMIT_BURST": "-1"}},
		{name: "bad proxy", env: map[string]string{"TRUSTED_PROXIES": "10.0.0.0/8, not-an-ip"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			environment := baseEnvironment()
			for k, v := range tt.env {
				environment[k] = v
			}
			_, err := config.FromEnvironment(environment)
			require.Error(t, err)
		})
	}

	// A zero rate is irrelevant while the limiter is off
	environment := baseEnvironment()
	environment["RATE_LIMIT_RPS"] = "0"
	_, err := config.FromEnvironment(environment)
	require.NoError(t, err)
}

func TestTrustedProxies(t *testing.T) {
	c, err := config.FromEnvironment(baseEnvironment())
	require.NoError(t, err)
	require.Empty(t, c.GetTrustedProxies())

	environment := baseEnvironment()
	environment["TRUSTED_PROXIES"] = "10.1.2.3/16, 192.0.2.10,2001:db8::/32"
	c, err = config.FromEnvironment(environment)
	require.NoError(t, err)

	proxies := c.GetTrustedProxies()
	require.Len(t, proxies, 3)
	require.Equal(t, "10.1.0.0/16", proxies[0].String())
	require.Equal(t, "192.0.2.10/32", proxies[1].String())
	require.True(t, proxies[2].Contains(netip.MustParseAddr("2001:db8::1")))
}
