package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestValidationError(t *testing.T) {
	err := NewValidationError("qty", "must be a positive integer")
	if !IsValidation(err) {
		t.Error("expected IsValidation to be true")
	}

	wrapped := fmt.Errorf("place order: %w", err)
	if !IsValidation(wrapped) {
		t.Error("expected IsValidation to survive wrapping")
	}
}

func TestIsValidation_FalseForSentinels(t *testing.T) {
	if IsValidation(ErrOrderNotFound) {
		t.Error("sentinel errors are not validation failures")
	}
	if IsValidation(nil) {
		t.Error("nil is not a validation failure")
	}
}

func TestSettlementError_Unwrap(t *testing.T) {
	cause := errors.New("disk full")
	err := &SettlementError{Op: "credit", Err: cause}

	if !errors.Is(err, cause) {
		t.Error("expected errors.Is to reach the cause")
	}
	if err.Error() != "settlement failed [credit]: disk full" {
		t.Errorf("unexpected message: %s", err.Error())
	}
}

func TestConflictVsNotFound(t *testing.T) {
	// Cancel failures must stay distinguishable for callers.
	if errors.Is(ErrOrderNotCancelable, ErrOrderNotFound) {
		t.Error("conflict and not-found must be distinct errors")
	}
}
