// Package validation provides utility functions for validating login inputs.
package validation

import (
	"fmt"
	"net/mail"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxAuthCodeLength bounds the authorization code accepted by POST /login.
const MaxAuthCodeLength = 2048

// Error represents a validation error.
type Error struct {
	Field   string
	Message string
}

// Error returns a formatted string representation of the validation error.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewError creates a new validation error.
func NewError(field, message string) *Error {
	return &Error{Field: field, Message: message}
}

// Email validates an email address format.
func Email(email string) error {
	if email == "" {
		return NewError("email", "email is required")
	}

	// Use net/mail for RFC 5322 compliance
	addr, err := mail.ParseAddress(email)
	if err != nil {
		return NewError("email", "invalid email format")
	}

	if addr.Address != email {
		return NewError("email", "invalid email format")
	}

	// Check length (RFC 5321)
	if len(email) > 254 {
		return NewError("email", "email too long (max 254 characters)")
	}

	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return NewError("email", "invalid email format")
	}

	localPart, domain := parts[0], parts[1]

	if len(localPart) > 64 {
		return NewError("email", "email local part too long (max 64 characters)")
	}

	if !strings.Contains(domain, ".") {
		return NewError("email", "invalid domain")
	}

	return nil
}

// AuthCode validates an OAuth authorization code as received from the browser.
func AuthCode(code string) error {
	if err := RequiredString("code", code); err != nil {
		return err
	}
	if err := StringLength("code", code, 0, MaxAuthCodeLength); err != nil {
		return err
	}
	if strings.IndexFunc(code, unicode.IsSpace) >= 0 {
		return NewError("code", "must not contain whitespace")
	}
	return nil
}

// StringLength validates string length constraints.
func StringLength(fieldName, value string, minLength, maxLength int) error {
	length := utf8.RuneCountInString(value)

	if minLength > 0 && length < minLength {
		return NewError(fieldName, fmt.Sprintf("must be at least %d characters", minLength))
	}

	if maxLength > 0 && length > maxLength {
		return NewError(fieldName, fmt.Sprintf("must be at most %d characters", maxLength))
	}

	return nil
}

// RequiredString validates that a string is not empty.
func RequiredString(fieldName, value string) error {
	if strings.TrimSpace(value) == "" {
		return NewError(fieldName, "must not be empty")
	}
	return nil
}
