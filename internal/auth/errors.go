package auth

import (
	"errors"
	"fmt"
	"strings"

	"github.com/vssamaj/server/internal/repo"
)

var (
	// ErrDuplicateIdentity is returned when a unique field collides with an existing identity.
	ErrDuplicateIdentity = errors.New("identity already exists")
	// ErrNotFound is returned when the target identity does not exist.
	ErrNotFound = errors.New("identity not found")
	// ErrInvalidCredentials covers both unknown identifiers and wrong passwords.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrNotVerified is returned when the identity has not completed OTP verification.
	ErrNotVerified = errors.New("account not verified")
	// ErrAlreadyVerified is returned when an OTP is requested for a verified identity.
	ErrAlreadyVerified = errors.New("account already verified")
	// ErrAccountBlocked is returned for blocked identities.
	ErrAccountBlocked = errors.New("account blocked")
	// ErrInvalidOrExpiredOTP is returned for a missing, wrong, or expired code.
	ErrInvalidOrExpiredOTP = errors.New("invalid or expired otp")
	// ErrMissingToken is returned when no bearer token was presented.
	ErrMissingToken = errors.New("missing token")
	// ErrInvalidToken collapses every token failure (structure, signature, expiry, subject).
	ErrInvalidToken = errors.New("invalid token")
	// ErrForbidden is returned when the identity lacks the required role.
	ErrForbidden = errors.New("forbidden")
	// ErrProtectedRole is returned when an admin identity is the target of block, delete or edit.
	ErrProtectedRole = errors.New("admin identities cannot be modified")
	// ErrMissingSecret is returned when the token codec is built without a signing secret.
	ErrMissingSecret = errors.New("token signing secret is not configured")
	// ErrUpstream wraps store and email delivery failures.
	ErrUpstream = errors.New("upstream failure")
	// ErrStorageDisabled is returned when no image store is configured.
	ErrStorageDisabled = errors.New("image storage is not configured")
)

// FieldError describes one invalid input field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError reports malformed input with field-level detail
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

func (e *ValidationError) errOrNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

func upstream(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrUpstream, err)
}

// storeErr maps a repository error onto the auth taxonomy
func storeErr(op string, err error) error {
	switch {
	case errors.Is(err, repo.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, repo.ErrDuplicate):
		return ErrDuplicateIdentity
	}
	return upstream(op, err)
}
