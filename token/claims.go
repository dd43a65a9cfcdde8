package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/event-auth-server/users"
)

// Use distinguishes access tokens from refresh tokens
type Use string

const (
	UseAccess  Use = "access"
	UseRefresh Use = "refresh"
)

// Subject identifies who a token was issued to
type Subject struct {
	ID   string
	Role users.RoleType
}

// Claims is the payload of both access and refresh tokens
type Claims struct {
	UserID string         `json:"id"`
	Role   users.RoleType `json:"role"`
	Use    Use            `json:"token_use"`
	jwt.RegisteredClaims
}

func (c *Claims) Subject() Subject {
	return Subject{ID: c.UserID, Role: c.Role}
}

// Expiry returns the exp claim, or the zero time when absent
func (c *Claims) Expiry() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}
