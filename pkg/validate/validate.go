// Package validate holds the field checks used by request Validate methods.
// Every failure is an apperr.Validation error.
package validate

import (
	"net/url"
	"regexp"
	"strings"
	"unicode"

	"github.com/diagnosis/cinelist/pkg/apperr"
)

var (
	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	phoneRegex = regexp.MustCompile(`^\d{10}$`)
	otpRegex   = regexp.MustCompile(`^\d{6}$`)
)

const MinPasswordLength = 8

func Required(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return apperr.Ef(apperr.Validation, "%s is required", field)
	}
	return nil
}

func MaxLen(field, value string, max int) error {
	if len([]rune(value)) > max {
		return apperr.Ef(apperr.Validation, "%s must be at most %d characters", field, max)
	}
	return nil
}

func Email(value string) error {
	if err := Required("email", value); err != nil {
		return err
	}
	if !emailRegex.MatchString(value) {
		return apperr.E(apperr.Validation, "invalid email format")
	}
	return nil
}

// Phone requires exactly ten digits.
func Phone(value string) error {
	if err := Required("phone", value); err != nil {
		return err
	}
	if !phoneRegex.MatchString(value) {
		return apperr.E(apperr.Validation, "phone must be exactly 10 digits")
	}
	return nil
}

func OTP(value string) error {
	if err := Required("otp", value); err != nil {
		return err
	}
	if !otpRegex.MatchString(value) {
		return apperr.E(apperr.Validation, "otp must be 6 digits")
	}
	return nil
}

// Password enforces length plus upper, lower, digit and symbol classes.
func Password(value string) error {
	if err := Required("password", value); err != nil {
		return err
	}
	if len(value) < MinPasswordLength {
		return apperr.Ef(apperr.Validation, "password must be at least %d characters", MinPasswordLength)
	}

	var upper, lower, digit, symbol bool
	for _, r := range value {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			symbol = true
		}
	}

	switch {
	case !upper:
		return apperr.E(apperr.Validation, "password must contain an upper-case letter")
	case !lower:
		return apperr.E(apperr.Validation, "password must contain a lower-case letter")
	case !digit:
		return apperr.E(apperr.Validation, "password must contain a digit")
	case !symbol:
		return apperr.E(apperr.Validation, "password must contain a symbol")
	}
	return nil
}

func OneOf(field, value string, allowed ...string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return apperr.Ef(apperr.Validation, "%s must be one of %s", field, strings.Join(allowed, ", "))
}

func IntRange(field string, value, min, max int) error {
	if value < min || value > max {
		return apperr.Ef(apperr.Validation, "%s must be between %d and %d", field, min, max)
	}
	return nil
}

func FloatRange(field string, value, min, max float64) error {
	if value < min || value > max {
		return apperr.Ef(apperr.Validation, "%s must be between %g and %g", field, min, max)
	}
	return nil
}

func URL(field, value string) error {
	if err := Required(field, value); err != nil {
		return err
	}
	u, err := url.ParseRequestURI(value)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return apperr.Ef(apperr.Validation, "%s must be a valid URL", field)
	}
	return nil
}

// First returns the first non-nil error.
func First(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
