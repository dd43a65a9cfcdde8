package users

import (
	"fmt"
	"time"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

// RoleType selects which token partition an account's sessions live in
type RoleType string

const (
	RoleUser  RoleType = "user"
	RoleAdmin RoleType = "admin"
)

func (r RoleType) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

type Status string

const (
	StatusUnverified Status = "unverified"
	StatusActive     Status = "active"
)

type EducationLevel string

const (
	EducationElementary EducationLevel = "SD/MI"
	EducationJunior     EducationLevel = "SMP/MTS"
	EducationSenior     EducationLevel = "SMA/SMK"
	EducationDiploma    EducationLevel = "Diploma"
	EducationBachelor   EducationLevel = "Sarjana"
	EducationOther      EducationLevel = "Lainnya"
)

var educationLevels = []EducationLevel{
	EducationElementary,
	EducationJunior,
	EducationSenior,
	EducationDiploma,
	EducationBachelor,
	EducationOther,
}

// EducationLevels returns the accepted education levels in display order
func EducationLevels() []EducationLevel {
	return append([]EducationLevel(nil), educationLevels...)
}

func (e EducationLevel) Valid() bool {
	for _, l := range educationLevels {
		if e == l {
			return true
		}
	}
	return false
}

type User struct {
	ID             string         `json:"id,omitempty"`              // Unique identifier for the account
	Email          string         `json:"email,omitempty"`           // Unique email address
	Phone          string         `json:"phone_number,omitempty"`    // Unique phone number
	PasswordHash   string         `json:"-"`                         // bcrypt hash - never serialize
	Address        string         `json:"address,omitempty"`         // Free text postal address
	EducationLevel EducationLevel `json:"education_level,omitempty"` // Last completed education
	Role           RoleType       `json:"role,omitempty"`
	Status         Status         `json:"status,omitempty"`
	OTP            *string        `json:"-"` // Pending one-time code, nil once verified
	OTPExpiry      *time.Time     `json:"-"` // Set together with OTP
	CreatedAt      time.Time      `json:"created_at,omitempty"`
}

func (u *User) IsActive() bool {
	return u.Status == StatusActive
}

// HasPendingOTP reports whether a code and its expiry are both present
func (u *User) HasPendingOTP() bool {
	return u.OTP != nil && u.OTPExpiry != nil
}

// ValidatePasswordStrength checks if password meets security requirements:
// - At least 8 characters long
// - Contains uppercase and lowercase letters
// - Contains at least one number
// - Contains at least one character that is not a letter or digit
func ValidatePasswordStrength(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters long")
	}

	var (
		hasUpper   bool
		hasLower   bool
		hasNumber  bool
		hasSpecial bool
	)

	for _, char := range password {
		switch {
		case unicode.IsUpper(char):
			hasUpper = true
		case unicode.IsLower(char):
			hasLower = true
		case unicode.IsDigit(char):
			hasNumber = true
		default:
			hasSpecial = true
		}
	}

	if !hasUpper {
		return fmt.Errorf("password must contain at least one uppercase letter")
	}
	if !hasLower {
		return fmt.Errorf("password must contain at least one lowercase letter")
	}
	if !hasNumber {
		return fmt.Errorf("password must contain at least one number")
	}
	if !hasSpecial {
		return fmt.Errorf("password must contain at least one special character")
	}

	return nil
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// CheckPassword checks a password against the account's stored hash
func (u *User) CheckPassword(password string) bool {
	return CheckPasswordHash(password, u.PasswordHash)
}
