package validation

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var (
	// EmailRegex is a simple email validation regex
	EmailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

	// PhoneRegex accepts E.164 style numbers, e.g. +998901234567
	PhoneRegex = regexp.MustCompile(`^\+[0-9]{9,15}$`)

	// TimeRegex accepts 24h HH:MM
	TimeRegex = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

	loginRegex = regexp.MustCompile(`^[a-zA-Z0-9_.-]+$`)

	// PasswordMinLength is the minimum password length
	PasswordMinLength = 8
)

// DateLayout is the wire format of calendar dates
const DateLayout = "2006-01-02"

// Validator wraps the go-playground validator
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a new validator instance with the custom tags
// phone, hhmm, yyyymmdd, password and login registered
func NewValidator() *Validator {
	v := validator.New()

	// Report JSON field names instead of Go field names
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			name = strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		}
		if name == "" {
			return fld.Name
		}
		return name
	})

	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return ValidatePhone(fl.Field().String())
	})
	_ = v.RegisterValidation("hhmm", func(fl validator.FieldLevel) bool {
		return TimeRegex.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("yyyymmdd", func(fl validator.FieldLevel) bool {
		_, err := ParseDate(fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("password", func(fl validator.FieldLevel) bool {
		ok, _ := ValidatePassword(fl.Field().String())
		return ok
	})
	_ = v.RegisterValidation("login", func(fl validator.FieldLevel) bool {
		ok, _ := ValidateLogin(fl.Field().String())
		return ok
	})

	return &Validator{
		validate: v,
	}
}

// ValidateStruct validates a struct using struct tags
func (v *Validator) ValidateStruct(s interface{}) error {
	return v.validate.Struct(s)
}

// FormatValidationErrors converts validation errors to a user-friendly format
func FormatValidationErrors(err error) map[string]string {
	errors := make(map[string]string)

	if validationErrs, ok := err.(validator.ValidationErrors); ok {
		for _, e := range validationErrs {
			field := e.Field()
			switch e.Tag() {
			case "required", "required_without":
				errors[field] = fmt.Sprintf("%s is required", field)
			case "email":
				errors[field] = "Invalid email format"
			case "phone":
				errors[field] = "Phone must look like +998901234567"
			case "hhmm":
				errors[field] = fmt.Sprintf("%s must be a time in HH:MM format", field)
			case "yyyymmdd":
				errors[field] = fmt.Sprintf("%s must be a date in YYYY-MM-DD format", field)
			case "password":
				errors[field] = fmt.Sprintf("Password must be at least %d characters and contain a letter and a number", PasswordMinLength)
			case "login":
				errors[field] = "Login can only contain letters, numbers, dots, underscores and hyphens"
			case "oneof":
				errors[field] = fmt.Sprintf("%s must be one of: %s", field, e.Param())
			case "min":
				errors[field] = fmt.Sprintf("%s must be at least %s", field, e.Param())
			case "max":
				errors[field] = fmt.Sprintf("%s must be at most %s", field, e.Param())
			case "gte":
				errors[field] = fmt.Sprintf("%s must be greater than or equal to %s", field, e.Param())
			case "lte":
				errors[field] = fmt.Sprintf("%s must be less than or equal to %s", field, e.Param())
			case "gt":
				errors[field] = fmt.Sprintf("%s must be greater than %s", field, e.Param())
			case "nefield":
				errors[field] = fmt.Sprintf("%s must differ from %s", field, e.Param())
			default:
				errors[field] = fmt.Sprintf("%s is invalid", field)
			}
		}
	}

	return errors
}

// ValidateEmail checks if an email is valid
func ValidateEmail(email string) bool {
	if len(email) < 3 || len(email) > 254 {
		return false
	}
	return EmailRegex.MatchString(email)
}

// ValidatePhone checks if a phone number is in +<digits> form
func ValidatePhone(phone string) bool {
	return PhoneRegex.MatchString(phone)
}

// ParseDate parses a YYYY-MM-DD date as midnight UTC
func ParseDate(value string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, value, time.UTC)
}

// ValidatePassword checks if a password meets minimum requirements
func ValidatePassword(password string) (bool, []string) {
	errors := []string{}

	if len(password) < PasswordMinLength {
		errors = append(errors, fmt.Sprintf("Password must be at least %d characters", PasswordMinLength))
	}

	hasLetter := false
	hasNumber := false
	for _, char := range password {
		switch {
		case (char >= 'a' && char <= 'z') || (char >= 'A' && char <= 'Z'):
			hasLetter = true
		case char >= '0' && char <= '9':
			hasNumber = true
		}
	}
	if !hasLetter {
		errors = append(errors, "Password must contain at least one letter")
	}
	if !hasNumber {
		errors = append(errors, "Password must contain at least one number")
	}

	return len(errors) == 0, errors
}

// ValidateLogin checks if a login is valid
func ValidateLogin(login string) (bool, string) {
	if len(login) < 3 {
		return false, "Login must be at least 3 characters"
	}
	if len(login) > 50 {
		return false, "Login must be at most 50 characters"
	}
	if !loginRegex.MatchString(login) {
		return false, "Login can only contain letters, numbers, dots, underscores, and hyphens"
	}
	return true, ""
}

// SanitizeString removes potentially dangerous characters
func SanitizeString(s string) string {
	// Remove null bytes
	s = strings.ReplaceAll(s, "\x00", "")
	// Trim whitespace
	s = strings.TrimSpace(s)
	return s
}
