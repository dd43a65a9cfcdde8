package auth

import (
	"strings"

	"github.com/jrsteele09/event-auth-server/token"
	"github.com/jrsteele09/event-auth-server/users"
)

// RegisterParameters is the data needed to open a new account
type RegisterParameters struct {
	Email          string               `json:"email" validate:"required,email,max=254"`
	Phone          string               `json:"phone_number" validate:"required,phone"`
	Password       string               `json:"password" validate:"required,password"`
	Address        string               `json:"address" validate:"required,max=500"`
	EducationLevel users.EducationLevel `json:"education_level" validate:"omitempty,education"`
}

// normalise trims the free text fields and lowercases the email.
// An empty education level becomes the catch-all level.
func (p *RegisterParameters) normalise() {
	p.Email = normaliseEmail(p.Email)
	p.Phone = strings.TrimSpace(p.Phone)
	p.Address = strings.TrimSpace(p.Address)
	p.EducationLevel = users.EducationLevel(strings.TrimSpace(string(p.EducationLevel)))
	if p.EducationLevel == "" {
		p.EducationLevel = users.EducationOther
	}
}

type LoginParameters struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type VerifyOTPParameters struct {
	Email string `json:"email" validate:"required,email"`
	OTP   string `json:"otp" validate:"required,numeric,len=6"`
}

type ResendOTPParameters struct {
	Email string `json:"email" validate:"required,email"`
}

// RegisterResult describes the created account. EmailDelivered is false when the
// OTP email could not be sent; Warning then tells the caller to request a resend.
type RegisterResult struct {
	User           *users.User
	EmailDelivered bool
	Warning        string
}

// Session is the outcome of a login or refresh
type Session struct {
	Subject token.Subject
	Tokens  *token.Pair
}

func normaliseEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
