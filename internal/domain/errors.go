package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors used across all layers.
var (
	// Remote store failures.
	ErrRemoteUnavailable = errors.New("remote unavailable")
	ErrRateLimited       = errors.New("rate limited")

	// Caller errors, never retried.
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrValidation    = errors.New("validation error")
	ErrConflict      = errors.New("conflict")

	// Access denial family. Never retried, always surfaced.
	ErrTokenNotFound         = errors.New("token not found")
	ErrAccessDisabled        = errors.New("access disabled")
	ErrPasswordRequired      = errors.New("password required")
	ErrPasswordMismatch      = errors.New("password mismatch")
	ErrCredentialMismatch    = errors.New("credential mismatch")
	ErrInvitationNotAccepted = errors.New("invitation not accepted")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrForbidden             = errors.New("forbidden")
)

// IsAccessDenied reports whether err belongs to the access denial family.
func IsAccessDenied(err error) bool {
	for _, target := range []error{
		ErrTokenNotFound, ErrAccessDisabled, ErrPasswordRequired,
		ErrPasswordMismatch, ErrCredentialMismatch, ErrInvitationNotAccepted,
		ErrUnauthorized, ErrForbidden,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// IsRetryable reports whether err may be retried by the caller.
// Only rate limiting qualifies for the single delayed retry; everything
// else is either permanent or a caller error.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrRateLimited)
}

// FieldError describes a validation error for a specific field.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError contains a list of field-level validation errors.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("validation: %s: %s", e.Errors[0].Field, e.Errors[0].Message)
	}
	return fmt.Sprintf("validation: %d errors", len(e.Errors))
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError creates a ValidationError for a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Errors: []FieldError{{Field: field, Message: message}},
	}
}
