package server

import (
	"net/http"
	"time"

	"github.com/jrsteele09/event-auth-server/auth"
	"github.com/jrsteele09/event-auth-server/users"
)

type registerResponse struct {
	Message string      `json:"message"`
	User    *users.User `json:"user"`
	Warning string      `json:"warning,omitempty"`
}

type sessionUser struct {
	ID   string         `json:"id"`
	Role users.RoleType `json:"role"`
}

type tokenResponse struct {
	Message     string      `json:"message"`
	AccessToken string      `json:"access_token"`
	TokenType   string      `json:"token_type"`
	ExpiresIn   int64       `json:"expires_in"` // seconds
	User        sessionUser `json:"user"`
}

type userResponse struct {
	Message string      `json:"message"`
	User    *users.User `json:"user"`
}

type statusResponse struct {
	Status      string    `json:"status"`
	Message     string    `json:"message"`
	Environment string    `json:"environment"`
	Timestamp   time.Time `json:"timestamp"`
}

// RegisterHandler opens an unverified account and emails its OTP
func (s *Server) RegisterHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var params auth.RegisterParameters
		if !decodeJSON(w, r, &params) {
			return
		}

		result, err := s.auth.Register(r.Context(), params)
		if err != nil {
			writeError(w, r, err)
			return
		}

		writeJSON(w, http.StatusCreated, registerResponse{
			Message: "Registration successful, check your email for the OTP",
			User:    result.User,
			Warning: result.Warning,
		})
	}
}

func (s *Server) VerifyOTPHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var params auth.VerifyOTPParameters
		if !decodeJSON(w, r, &params) {
			return
		}

		user, err := s.auth.VerifyOTP(r.Context(), params)
		if err != nil {
			writeError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, userResponse{Message: "Account verified, you can now log in", User: user})
	}
}

func (s *Server) ResendOTPHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var params auth.ResendOTPParameters
		if !decodeJSON(w, r, &params) {
			return
		}

		if err := s.auth.ResendOTP(r.Context(), params); err != nil {
			writeError(w, r, err)
			return
		}

		writeMessage(w, http.StatusOK, "A new OTP has been sent to your email")
	}
}

// LoginHandler returns the access token in the body and the refresh token as a cookie
func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var params auth.LoginParameters
		if !decodeJSON(w, r, &params) {
			return
		}

		session, err := s.auth.Login(r.Context(), params, s.clientInfo(r))
		if err != nil {
			writeError(w, r, err)
			return
		}

		s.writeSession(w, "Login successful", session)
	}
}

func (s *Server) RefreshTokenHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		if !ok {
			writeMessage(w, http.StatusUnauthorized, "refresh token cookie is missing")
			return
		}

		presented := rawTokenFromContext(r.Context(), ContextKeyRefreshToken)
		session, err := s.auth.RefreshToken(r.Context(), claims.Subject(), presented, s.clientInfo(r))
		if err != nil {
			writeError(w, r, err)
			return
		}

		s.writeSession(w, "Token refreshed", session)
	}
}

// LogoutHandler always succeeds once the bearer token is accepted
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		if !ok {
			writeMessage(w, http.StatusUnauthorized, "missing or malformed Authorization header")
			return
		}

		var refreshToken string
		if cookie, err := r.Cookie(refreshCookieName); err == nil {
			refreshToken = cookie.Value
		}

		s.auth.Logout(r.Context(), claims, rawTokenFromContext(r.Context(), ContextKeyAccessToken), refreshToken)
		s.ClearRefreshCookie(w)
		writeMessage(w, http.StatusOK, "Logout successful")
	}
}

func (s *Server) StatusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, statusResponse{
			Status:      "OK",
			Message:     s.config.GetAppName() + " is running",
			Environment: s.env,
			Timestamp:   s.nowTime().UTC(),
		})
	}
}

// PreflightHandler answers OPTIONS requests that the CORS middleware let through
func (s *Server) PreflightHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) writeSession(w http.ResponseWriter, message string, session *auth.Session) {
	s.SetRefreshCookie(w, session.Tokens.RefreshToken, session.Tokens.RefreshExpiresAt)
	writeJSON(w, http.StatusOK, tokenResponse{
		Message:     message,
		AccessToken: session.Tokens.AccessToken,
		TokenType:   "Bearer",
		ExpiresIn:   int64(session.Tokens.AccessExpiresAt.Sub(s.nowTime()).Seconds()),
		User:        sessionUser{ID: session.Subject.ID, Role: session.Subject.Role},
	})
}
