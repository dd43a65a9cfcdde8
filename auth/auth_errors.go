package auth

import (
	"github.com/jrsteele09/event-auth-server/internal/errors"
)

// Public messages reported to callers
const (
	msgAlreadyRegistered  = "account already registered"
	msgAccountNotFound    = "account not found"
	msgAccountNotActive   = "account is not active, verify the OTP sent to your email first"
	msgAccountActive      = "account is already active"
	msgWrongPassword      = "incorrect password"
	msgNoPendingOTP       = "no OTP is pending for this account"
	msgOTPExpired         = "OTP has expired, request a new one"
	msgOTPMismatch        = "incorrect OTP"
	msgOTPNotSent         = "failed to send OTP email"
	msgRefreshNotAccepted = "refresh token is not recognised"
	msgAccessRevoked      = "access token has been revoked"
	msgAccessInvalid      = "access token is invalid or expired"
	msgRefreshExpired     = "refresh token has expired"
	msgRefreshInvalid     = "refresh token is invalid"
	msgInternal           = "internal server error"
)

// apiField maps store column names onto request field names
var apiField = map[string]string{
	"email": "email",
	"phone": "phone_number",
}

var (
	ErrAccountNotFound = errors.New(errors.KindNotFound, msgAccountNotFound)
	ErrAccountInactive = errors.New(errors.KindForbidden, msgAccountNotActive)
	ErrAccountActive   = errors.Conflict(msgAccountActive)
	ErrWrongPassword   = errors.New(errors.KindBadCredentials, msgWrongPassword)
	ErrNoPendingOTP    = errors.New(errors.KindBadState, msgNoPendingOTP)
	ErrOTPExpired      = errors.New(errors.KindExpired, msgOTPExpired)
	ErrOTPMismatch     = errors.New(errors.KindBadCredentials, msgOTPMismatch)
	ErrRefreshRejected = errors.New(errors.KindForbidden, msgRefreshNotAccepted)
	ErrAccessRevoked   = errors.New(errors.KindForbidden, msgAccessRevoked)
	ErrAccessInvalid   = errors.New(errors.KindForbidden, msgAccessInvalid)
	ErrRefreshExpired  = errors.New(errors.KindForbidden, msgRefreshExpired)
	ErrRefreshInvalid  = errors.New(errors.KindForbidden, msgRefreshInvalid)
)

func internalError(cause error) *errors.Error {
	return errors.E(errors.KindInternal, msgInternal, cause)
}
