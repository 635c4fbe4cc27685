package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestIsAccessDenied(t *testing.T) {
	t.Parallel()

	denied := []error{
		ErrTokenNotFound, ErrAccessDisabled, ErrPasswordRequired,
		ErrPasswordMismatch, ErrCredentialMismatch, ErrInvitationNotAccepted,
	}
	for _, err := range denied {
		if !IsAccessDenied(fmt.Errorf("resolve: %w", err)) {
			t.Errorf("IsAccessDenied(%v) = false", err)
		}
	}

	if IsAccessDenied(ErrRateLimited) {
		t.Error("rate limited counted as access denial")
	}
}

func TestIsRetryable(t *testing.T) {
	t.Parallel()

	if !IsRetryable(fmt.Errorf("list tasks: %w", ErrRateLimited)) {
		t.Error("wrapped rate limit not retryable")
	}
	for _, err := range []error{ErrRemoteUnavailable, ErrNotFound, ErrValidation, ErrAccessDisabled} {
		if IsRetryable(err) {
			t.Errorf("IsRetryable(%v) = true", err)
		}
	}
}

func TestValidationError_Unwrap(t *testing.T) {
	t.Parallel()

	err := NewValidationError("title", "must not be empty")
	if !errors.Is(err, ErrValidation) {
		t.Error("ValidationError does not unwrap to ErrValidation")
	}
	if err.Error() != "validation: title: must not be empty" {
		t.Errorf("Error(): %q", err.Error())
	}
}
