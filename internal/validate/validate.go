// Package validate holds the client-side form checks that run before any
// network call.
package validate

import (
	"errors"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	ErrInvalidPostcode  = errors.New("please enter a valid UK postcode")
	ErrInvalidEmail     = errors.New("please enter a valid email address")
	ErrWeakPassword     = errors.New("password must be at least 8 characters with an uppercase letter and a special character")
	ErrPasswordMismatch = errors.New("passwords do not match")
	ErrMissingCode      = errors.New("reset code is required")
)

var (
	ukPostcode = regexp.MustCompile(`(?i)^[A-Z]{1,2}\d{1,2}[A-Z]?\s?\d[A-Z]{2}$`)
	email      = regexp.MustCompile(`^(([^<>()\[\]\\.,;:\s@"]+(\.[^<>()\[\]\\.,;:\s@"]+)*)|(".+"))@((\[[0-9]{1,3}\.[0-9]{1,3}\.[0-9]{1,3}\.[0-9]{1,3}\])|(([a-zA-Z\-0-9]+\.)+[a-zA-Z]{2,}))$`)
	upper      = regexp.MustCompile(`[A-Z]`)
	special    = regexp.MustCompile(`[!@#$%^&*(),.?":{}|<>]`)
)

// IsValidPostcode reports whether s looks like a UK postcode.
// Surrounding whitespace is ignored; inner whitespace does not count towards the 5..8 length.
func IsValidPostcode(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	n := utf8.RuneCountInString(StripSpaces(s))
	if n < 5 || n > 8 {
		return false
	}
	return ukPostcode.MatchString(s)
}

// NormalizePostcode is the persisted form: whitespace removed, lower-cased.
func NormalizePostcode(s string) string { return strings.ToLower(StripSpaces(s)) }

// StripSpaces removes every whitespace rune.
func StripSpaces(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

func Postcode(s string) error {
	if !IsValidPostcode(s) {
		return ErrInvalidPostcode
	}
	return nil
}

func IsValidEmail(s string) bool { return email.MatchString(strings.ToLower(s)) }

func Email(s string) error {
	if !IsValidEmail(s) {
		return ErrInvalidEmail
	}
	return nil
}

func IsStrongPassword(p string) bool {
	return utf8.RuneCountInString(p) >= 8 && upper.MatchString(p) && special.MatchString(p)
}

// PasswordReset checks a reset form: code present, strong password, matching confirmation.
func PasswordReset(code, password, confirm string) error {
	if strings.TrimSpace(code) == "" {
		return ErrMissingCode
	}
	if !IsStrongPassword(password) {
		return ErrWeakPassword
	}
	if confirm == "" || password != confirm {
		return ErrPasswordMismatch
	}
	return nil
}
