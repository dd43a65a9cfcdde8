package server

import (
	"context"
	"net/http"

	"github.com/jrsteele09/event-auth-server/token"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// ContextKeyClaims stores the verified token claims
	ContextKeyClaims ContextKey = "claims"
	// ContextKeyAccessToken stores the raw bearer token
	ContextKeyAccessToken ContextKey = "access_token"
	// ContextKeyRefreshToken stores the raw refresh cookie value
	ContextKeyRefreshToken ContextKey = "refresh_token"
)

// ClaimsFromContext returns the claims attached by RequireAuth or RequireRefreshToken
func ClaimsFromContext(ctx context.Context) (*token.Claims, bool) {
	claims, ok := ctx.Value(ContextKeyClaims).(*token.Claims)
	return claims, ok
}

func rawTokenFromContext(ctx context.Context, key ContextKey) string {
	raw, _ := ctx.Value(key).(string)
	return raw
}

// RequireAuth is middleware that validates a Bearer access token
func (s *Server) RequireAuth() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r)
			if !ok {
				writeMessage(w, http.StatusUnauthorized, "missing or malformed Authorization header")
				return
			}

			claims, err := s.auth.AuthenticateAccessToken(r.Context(), raw)
			if err != nil {
				writeError(w, r, err)
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyClaims, claims)
			ctx = context.WithValue(ctx, ContextKeyAccessToken, raw)
			next(w, r.WithContext(ctx))
		}
	}
}

// RequireRefreshToken is middleware that validates the refresh token cookie
func (s *Server) RequireRefreshToken() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(refreshCookieName)
			if err != nil || cookie.Value == "" {
				writeMessage(w, http.StatusUnauthorized, "refresh token cookie is missing")
				return
			}

			claims, err := s.auth.AuthenticateRefreshToken(cookie.Value)
			if err != nil {
				writeError(w, r, err)
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyClaims, claims)
			ctx = context.WithValue(ctx, ContextKeyRefreshToken, cookie.Value)
			next(w, r.WithContext(ctx))
		}
	}
}
