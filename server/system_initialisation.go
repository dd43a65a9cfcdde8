package server

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jrsteele09/event-auth-server/internal/errors"
	"github.com/jrsteele09/event-auth-server/users"
	"github.com/rs/zerolog/log"
)

// InitialiseSystem seeds the admin account named by ADMIN_EMAIL when it does not exist yet.
// Without ADMIN_EMAIL there is nothing to do.
func (s *Server) InitialiseSystem(ctx context.Context) error {
	adminEmail := strings.ToLower(strings.TrimSpace(s.config.GetAdminEmail()))
	if adminEmail == "" {
		return nil
	}

	generatedPassword, err := s.createAdmin(ctx, adminEmail, s.config.GetAdminPassword())
	if err != nil {
		return fmt.Errorf("[Server InitialiseSystem] failed to bootstrap admin: %w", err)
	}

	if generatedPassword != "" {
		log.Info().Msg("👤 Admin Credentials:")
		log.Info().Msgf("   Email:       %s", adminEmail)
		log.Info().Msgf("   Password:    %s     (⚠️ shown once, store it now)", generatedPassword)
	}
	return nil
}

// createAdmin creates an active admin account if none exists with that email.
// The password is only returned when it was generated here.
func (s *Server) createAdmin(ctx context.Context, adminEmail, defaultPassword string) (generatedPassword string, err error) {
	existingUser, err := s.repos.Users.GetByEmail(ctx, adminEmail)
	if err == nil {
		if existingUser.Role != users.RoleAdmin {
			log.Warn().Str("email", adminEmail).Msg("ADMIN_EMAIL belongs to a non admin account, not seeding")
		}
		return "", nil
	}
	if !errors.Is(err, errors.ErrNotFound) {
		return "", fmt.Errorf("[server createAdmin] failed to look up admin: %w", err)
	}

	password := defaultPassword
	if password == "" {
		// Generate a secure random password
		passwordBytes := make([]byte, 16)
		if _, err := rand.Read(passwordBytes); err != nil {
			return "", fmt.Errorf("[server createAdmin] failed to generate password: %w", err)
		}
		password = base64.URLEncoding.EncodeToString(passwordBytes)
		generatedPassword = password
	}

	passwordHash, err := users.HashPassword(password)
	if err != nil {
		return "", fmt.Errorf("[server createAdmin] failed to hash password: %w", err)
	}

	id := uuid.New().String()
	admin := &users.User{
		ID:             id,
		Email:          adminEmail,
		Phone:          "admin:" + id, // admins never log in by phone
		PasswordHash:   passwordHash,
		EducationLevel: users.EducationOther,
		Role:           users.RoleAdmin,
		Status:         users.StatusActive,
		CreatedAt:      s.nowTime(),
	}

	if err := s.repos.Users.Create(ctx, admin); err != nil {
		if errors.Is(err, errors.ErrDuplicate) {
			// Seeded concurrently by another instance
			return "", nil
		}
		return "", fmt.Errorf("[server createAdmin] failed to create admin: %w", err)
	}

	log.Info().Str("id", id).Str("email", adminEmail).Msg("admin account seeded")
	return generatedPassword, nil
}
