package auth

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/jrsteele09/event-auth-server/internal/errors"
	"github.com/jrsteele09/event-auth-server/users"
)

var phonePattern = regexp.MustCompile(`^\+?[0-9]{8,15}$`)

// Validator checks request parameters and reports every failing field
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a Validator with the password, phone and education rules registered
func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report json names so messages match the request body
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = v.RegisterValidation("password", func(fl validator.FieldLevel) bool {
		return users.ValidatePasswordStrength(fl.Field().String()) == nil
	})
	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("education", func(fl validator.FieldLevel) bool {
		return users.EducationLevel(fl.Field().String()).Valid()
	})

	return &Validator{validate: v}
}

// Validate returns a validation error listing one message per failing field, or nil
func (v *Validator) Validate(parameters any) error {
	err := v.validate.Struct(parameters)
	if err == nil {
		return nil
	}

	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return internalError(err)
	}

	messages := make([]string, 0, len(fieldErrors))
	for _, fe := range fieldErrors {
		messages = append(messages, fieldMessage(fe))
	}
	return &errors.Error{
		Kind:    errors.KindValidation,
		Message: "validation failed",
		Fields:  messages,
	}
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	case "phone":
		return fmt.Sprintf("%s must be 8 to 15 digits, optionally starting with +", field)
	case "password":
		if err := users.ValidatePasswordStrength(fmt.Sprint(fe.Value())); err != nil {
			return err.Error()
		}
	case "education":
		levels := make([]string, 0)
		for _, l := range users.EducationLevels() {
			levels = append(levels, string(l))
		}
		return fmt.Sprintf("%s must be one of: %s", field, strings.Join(levels, ", "))
	case "numeric":
		return fmt.Sprintf("%s must contain only digits", field)
	case "len":
		return fmt.Sprintf("%s must be %s characters long", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters long", field, fe.Param())
	}
	return fmt.Sprintf("%s is invalid", field)
}
