package config

import (
	"net/netip"
	"strings"

	"github.com/pkg/errors"
)

type SecurityConfig interface {
	GetEnableRateLimiting() bool
	GetRateLimit() float64
	GetRateLimitBurst() int
	GetCookieSecure() bool
	GetTrustedProxies() []netip.Prefix
	GetAdminEmail() string
	GetAdminPassword() string
}

type Security struct {
	RateLimiting   bool     `env:"RATE_LIMIT_ENABLED" envDefault:"false"`
	RateLimit      float64  `env:"RATE_LIMIT_RPS" envDefault:"5"`
	RateLimitBurst int      `env:"RATE_LIMIT_BURST" envDefault:"10"`
	CookieSecure   bool     `env:"COOKIE_SECURE" envDefault:"false"`
	TrustedProxies []string `env:"TRUSTED_PROXIES" envSeparator:","`
	AdminEmail     string   `env:"ADMIN_EMAIL"`
	AdminPassword  string   `env:"ADMIN_PASSWORD"`

	proxies []netip.Prefix
}

var _ SecurityConfig = Security{}

func (s *Security) validate() error {
	if s.RateLimiting && (s.RateLimit <= 0 || s.RateLimitBurst <= 0) {
		return errors.New("[config] RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive when rate limiting is enabled")
	}

	s.proxies = nil
	for _, entry := range s.TrustedProxies {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		prefix, err := parseProxy(entry)
		if err != nil {
			return errors.Wrapf(err, "[config] TRUSTED_PROXIES entry %q", entry)
		}
		s.proxies = append(s.proxies, prefix)
	}
	return nil
}

// parseProxy accepts either a CIDR range or a single address
func parseProxy(entry string) (netip.Prefix, error) {
	if strings.Contains(entry, "/") {
		prefix, err := netip.ParsePrefix(entry)
		return prefix.Masked(), err
	}
	addr, err := netip.ParseAddr(entry)
	if err != nil {
		return netip.Prefix{}, err
	}
	addr = addr.Unmap()
	return netip.PrefixFrom(addr, addr.BitLen()), nil
}

func (s Security) GetEnableRateLimiting() bool {
	return s.RateLimiting
}

// GetRateLimit is the sustained number of requests per second allowed per client address
func (s Security) GetRateLimit() float64 {
	return s.RateLimit
}

func (s Security) GetRateLimitBurst() int {
	return s.RateLimitBurst
}

func (s Security) GetCookieSecure() bool {
	return s.CookieSecure
}

// GetTrustedProxies lists the peers whose X-Forwarded-For header is believed.
// Empty means client addresses always come from the connection.
func (s Security) GetTrustedProxies() []netip.Prefix {
	return s.proxies
}

func (s Security) GetAdminEmail() string {
	return s.AdminEmail
}

func (s Security) GetAdminPassword() string {
	return s.AdminPassword
}
