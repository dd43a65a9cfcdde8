package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/event-auth-server/internal/errors"
	"github.com/jrsteele09/event-auth-server/otp"
	"github.com/jrsteele09/event-auth-server/token"
	"github.com/jrsteele09/event-auth-server/token/refresh"
	"github.com/jrsteele09/event-auth-server/users"
	pkgerrors "github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const emailWarning = "account created but the OTP email could not be sent, request a new code with /resend-otp"

// AuthService runs the account lifecycle: register, verify, login, refresh and logout.
// It holds no per request state; everything durable lives in the repos.
type AuthService struct {
	repos     Repos
	tokens    *token.Manager
	refresh   *refresh.Manager
	otps      *otp.Issuer
	revoked   token.RevokedTokenCache
	validator *Validator
	nowTime   func() time.Time
}

// AuthServiceOption defines a function type to modify the AuthService instance.
type AuthServiceOption func(*AuthService)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) AuthServiceOption {
	return func(as *AuthService) {
		as.nowTime = nowFunc
	}
}

// NewAuthService initializes a new AuthService with required dependencies.
func NewAuthService(
	repos Repos,
	tokens *token.Manager,
	otps *otp.Issuer,
	revoked token.RevokedTokenCache,
	options ...AuthServiceOption,
) (*AuthService, error) {
	if repos.Users == nil {
		return nil, pkgerrors.New("[NewAuthService] Users repo is required")
	}
	if repos.RefreshTokens == nil {
		return nil, pkgerrors.New("[NewAuthService] RefreshTokens repo is required")
	}
	if tokens == nil {
		return nil, pkgerrors.New("[NewAuthService] token manager is required")
	}
	if otps == nil {
		return nil, pkgerrors.New("[NewAuthService] OTP issuer is required")
	}
	if revoked == nil {
		return nil, pkgerrors.New("[NewAuthService] revoked token cache is required")
	}

	as := &AuthService{
		repos:     repos,
		tokens:    tokens,
		otps:      otps,
		revoked:   revoked,
		validator: NewValidator(),
		nowTime:   time.Now,
	}

	for _, opt := range options {
		opt(as)
	}

	as.refresh = refresh.NewManager(repos.RefreshTokens, as.nowTime)
	return as, nil
}

// RefreshTokens returns the refresh token manager, used for the background sweep
func (as *AuthService) RefreshTokens() *refresh.Manager {
	return as.refresh
}

// Register creates an unverified account and emails it an OTP. A failed email does
// not undo the registration; the result carries a warning instead.
func (as *AuthService) Register(ctx context.Context, params RegisterParameters) (*RegisterResult, error) {
	params.normalise()
	if err := as.validator.Validate(&params); err != nil {
		return nil, err
	}

	if err := as.checkAvailable(ctx, params.Email, params.Phone); err != nil {
		return nil, err
	}

	passwordHash, err := users.HashPassword(params.Password)
	if err != nil {
		return nil, internalError(pkgerrors.Wrap(err, "[AuthService.Register] HashPassword"))
	}

	code, err := as.otps.Issue()
	if err != nil {
		return nil, internalError(pkgerrors.Wrap(err, "[AuthService.Register] Issue"))
	}

	user := &users.User{
		ID:             uuid.New().String(),
		Email:          params.Email,
		Phone:          params.Phone,
		PasswordHash:   passwordHash,
		Address:        params.Address,
		EducationLevel: params.EducationLevel,
		Role:           users.RoleUser,
		Status:         users.StatusUnverified,
		OTP:            &code.Value,
		OTPExpiry:      &code.ExpiresAt,
		CreatedAt:      as.nowTime(),
	}

	if err := as.repos.Users.Create(ctx, user); err != nil {
		var dup *errors.DuplicateError
		if errors.As(err, &dup) {
			return nil, errors.Conflict(msgAlreadyRegistered, fieldName(dup.Field))
		}
		log.Err(err).Str("email", user.Email).Msg("creating account failed")
		return nil, internalError(pkgerrors.Wrap(err, "[AuthService.Register] Create"))
	}

	result := &RegisterResult{User: publicUser(user), EmailDelivered: true}
	if err := as.otps.Deliver(ctx, user.Email, code); err != nil {
		log.Warn().Err(err).Str("id", user.ID).Str("email", user.Email).Msg("OTP email not delivered after registration")
		result.EmailDelivered = false
		result.Warning = emailWarning
	}

	log.Info().Str("id", user.ID).Str("email", user.Email).Msg("account registered")
	return result, nil
}

// checkAvailable reports every one of email and phone that is already taken
func (as *AuthService) checkAvailable(ctx context.Context, email, phone string) error {
	var taken []string

	if _, err := as.repos.Users.GetByEmail(ctx, email); err == nil {
		taken = append(taken, apiField["email"])
	} else if !errors.Is(err, errors.ErrNotFound) {
		return internalError(pkgerrors.Wrap(err, "[AuthService.Register] GetByEmail"))
	}

	if _, err := as.repos.Users.GetByPhone(ctx, phone); err == nil {
		taken = append(taken, apiField["phone"])
	} else if !errors.Is(err, errors.ErrNotFound) {
		return internalError(pkgerrors.Wrap(err, "[AuthService.Register] GetByPhone"))
	}

	if len(taken) > 0 {
		return errors.Conflict(msgAlreadyRegistered, taken...)
	}
	return nil
}

// VerifyOTP activates the account when the presented code matches and has not expired
func (as *AuthService) VerifyOTP(ctx context.Context, params VerifyOTPParameters) (*users.User, error) {
	params.Email = normaliseEmail(params.Email)
	if err := as.validator.Validate(&params); err != nil {
		return nil, err
	}

	user, err := as.getByEmail(ctx, params.Email, "VerifyOTP")
	if err != nil {
		return nil, err
	}

	if user.IsActive() {
		return nil, ErrAccountActive
	}
	if !user.HasPendingOTP() {
		return nil, ErrNoPendingOTP
	}
	if otp.Expired(*user.OTPExpiry, as.nowTime()) {
		return nil, ErrOTPExpired
	}
	if !otp.Matches(*user.OTP, params.OTP) {
		return nil, ErrOTPMismatch
	}

	if err := as.repos.Users.Activate(ctx, user.ID, *user.OTP); err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			return nil, as.activationLost(ctx, user.ID)
		}
		log.Err(err).Str("id", user.ID).Msg("activating account failed")
		return nil, internalError(pkgerrors.Wrap(err, "[AuthService.VerifyOTP] Activate"))
	}

	user.Status = users.StatusActive
	user.OTP = nil
	user.OTPExpiry = nil
	log.Info().Str("id", user.ID).Str("email", user.Email).Msg("account verified")
	return publicUser(user), nil
}

// activationLost classifies a conditional activation that matched no row: either another
// request activated the account first or a resend replaced the code that was checked
func (as *AuthService) activationLost(ctx context.Context, id string) error {
	current, err := as.repos.Users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			return ErrAccountNotFound
		}
		log.Err(err).Str("id", id).Msg("re-reading account failed")
		return internalError(pkgerrors.Wrap(err, "[AuthService.VerifyOTP] GetByID"))
	}
	if current.IsActive() {
		return ErrAccountActive
	}
	return ErrOTPMismatch
}

// ResendOTP replaces the pending code of an unverified account and emails it.
// Unlike Register, a failed email is reported to the caller.
func (as *AuthService) ResendOTP(ctx context.Context, params ResendOTPParameters) error {
	params.Email = normaliseEmail(params.Email)
	if err := as.validator.Validate(&params); err != nil {
		return err
	}

	user, err := as.getByEmail(ctx, params.Email, "ResendOTP")
	if err != nil {
		return err
	}
	if user.IsActive() {
		return ErrAccountActive
	}

	code, err := as.otps.Issue()
	if err != nil {
		return internalError(pkgerrors.Wrap(err, "[AuthService.ResendOTP] Issue"))
	}

	if err := as.repos.Users.SetOTP(ctx, user.ID, code.Value, code.ExpiresAt); err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			return ErrAccountActive
		}
		log.Err(err).Str("id", user.ID).Msg("storing OTP failed")
		return internalError(pkgerrors.Wrap(err, "[AuthService.ResendOTP] SetOTP"))
	}

	if err := as.otps.Deliver(ctx, user.Email, code); err != nil {
		log.Err(err).Str("id", user.ID).Str("email", user.Email).Msg("OTP email not delivered")
		return errors.E(errors.KindServiceUnavailable, msgOTPNotSent, err)
	}

	log.Info().Str("id", user.ID).Str("email", user.Email).Msg("OTP resent")
	return nil
}

// Login checks the credentials of an active account and opens a session
func (as *AuthService) Login(ctx context.Context, params LoginParameters, client refresh.ClientInfo) (*Session, error) {
	params.Email = normaliseEmail(params.Email)
	if err := as.validator.Validate(&params); err != nil {
		return nil, err
	}

	user, err := as.getByEmail(ctx, params.Email, "Login")
	if err != nil {
		return nil, err
	}

	if !user.IsActive() {
		return nil, ErrAccountInactive
	}
	if !user.CheckPassword(params.Password) {
		return nil, ErrWrongPassword
	}

	subject := token.Subject{ID: user.ID, Role: user.Role}
	pair, err := as.tokens.IssuePair(subject)
	if err != nil {
		log.Err(err).Str("id", user.ID).Msg("issuing tokens failed")
		return nil, internalError(pkgerrors.Wrap(err, "[AuthService.Login] IssuePair"))
	}

	if err := as.refresh.Store(ctx, subject, pair.RefreshToken, pair.RefreshExpiresAt, client); err != nil {
		log.Err(err).Str("id", user.ID).Msg("storing refresh token failed")
		return nil, internalError(pkgerrors.Wrap(err, "[AuthService.Login] Store"))
	}

	log.Info().Str("id", user.ID).Str("role", string(user.Role)).Msg("logged in")
	return &Session{Subject: subject, Tokens: pair}, nil
}

// RefreshToken exchanges a stored refresh token for a new pair. The presented token
// must already have passed AuthenticateRefreshToken. The stored record is rotated so
// the presented token cannot be used again.
func (as *AuthService) RefreshToken(ctx context.Context, subject token.Subject, presented string, client refresh.ClientInfo) (*Session, error) {
	if _, err := as.refresh.Lookup(ctx, subject, presented); err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			return nil, ErrRefreshRejected
		}
		log.Err(err).Str("id", subject.ID).Msg("looking up refresh token failed")
		return nil, internalError(pkgerrors.Wrap(err, "[AuthService.RefreshToken] Lookup"))
	}

	pair, err := as.tokens.IssuePair(subject)
	if err != nil {
		log.Err(err).Str("id", subject.ID).Msg("issuing tokens failed")
		return nil, internalError(pkgerrors.Wrap(err, "[AuthService.RefreshToken] IssuePair"))
	}

	if err := as.refresh.Rotate(ctx, subject, presented, pair.RefreshToken, pair.RefreshExpiresAt, client); err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			// Lost the race against a concurrent refresh of the same token
			return nil, ErrRefreshRejected
		}
		log.Err(err).Str("id", subject.ID).Msg("rotating refresh token failed")
		return nil, internalError(pkgerrors.Wrap(err, "[AuthService.RefreshToken] Rotate"))
	}

	log.Debug().Str("id", subject.ID).Msg("refresh token rotated")
	return &Session{Subject: subject, Tokens: pair}, nil
}

// Logout revokes the access token and forgets the refresh token. Both steps are
// idempotent and failures are only logged, so logout always succeeds.
func (as *AuthService) Logout(ctx context.Context, claims *token.Claims, accessToken, refreshToken string) {
	subject := claims.Subject()

	if err := as.revoked.Revoke(ctx, accessToken, claims.Expiry()); err != nil {
		log.Err(err).Str("id", subject.ID).Msg("revoking access token failed")
	}

	if refreshToken != "" {
		if err := as.refresh.Revoke(ctx, subject.Role, refreshToken); err != nil {
			log.Err(err).Str("id", subject.ID).Msg("deleting refresh token failed")
		}
	}

	log.Info().Str("id", subject.ID).Str("role", string(subject.Role)).Msg("logged out")
}

// AuthenticateAccessToken verifies a bearer token and checks it has not been revoked
func (as *AuthService) AuthenticateAccessToken(ctx context.Context, raw string) (*token.Claims, error) {
	revoked, err := as.revoked.IsRevoked(ctx, raw)
	if err != nil {
		log.Err(err).Msg("checking revocation list failed")
		return nil, internalError(pkgerrors.Wrap(err, "[AuthService.AuthenticateAccessToken] IsRevoked"))
	}
	if revoked {
		return nil, ErrAccessRevoked
	}

	claims, err := as.tokens.VerifyAccess(raw)
	if err != nil {
		return nil, ErrAccessInvalid
	}
	return claims, nil
}

// AuthenticateRefreshToken verifies the signature and expiry of a refresh token
func (as *AuthService) AuthenticateRefreshToken(raw string) (*token.Claims, error) {
	claims, err := as.tokens.VerifyRefresh(raw)
	if err != nil {
		if errors.Is(err, errors.ErrTokenExpired) {
			return nil, ErrRefreshExpired
		}
		return nil, ErrRefreshInvalid
	}
	return claims, nil
}

func (as *AuthService) getByEmail(ctx context.Context, email, op string) (*users.User, error) {
	user, err := as.repos.Users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		log.Err(err).Str("email", email).Msg("loading account failed")
		return nil, internalError(pkgerrors.Wrapf(err, "[AuthService.%s] GetByEmail", op))
	}
	return user, nil
}

func fieldName(storeField string) string {
	if name, ok := apiField[storeField]; ok {
		return name
	}
	return storeField
}

// publicUser strips the secrets from u
func publicUser(u *users.User) *users.User {
	clone := *u
	clone.PasswordHash = ""
	clone.OTP = nil
	clone.OTPExpiry = nil
	return &clone
}
