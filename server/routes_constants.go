package server

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	// Account lifecycle
	RouteRegister  = "/register"
	RouteVerifyOTP = "/verify-otp"
	RouteResendOTP = "/resend-otp"

	// Sessions
	RouteLogin        = "/login"
	RouteRefreshToken = "/refresh-token"
	RouteLogout       = "/logout"

	// Health
	RouteStatus = "/status"
)

// refreshCookieName is the cookie carrying the refresh token
const refreshCookieName = "refreshToken"
