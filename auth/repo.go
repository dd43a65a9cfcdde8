package auth

import (
	"github.com/jrsteele09/event-auth-server/token/refresh"
	"github.com/jrsteele09/event-auth-server/users"
)

// Repos holds all repository dependencies for the AuthService
type Repos struct {
	Users         users.UserRepo // Credential store
	RefreshTokens refresh.Repo   // Refresh token store, partitioned by role
}
