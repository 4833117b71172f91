package domain

import "errors"

var (
	// ErrInstrumentNotFound is returned when a ticker does not exist.
	ErrInstrumentNotFound = errors.New("instrument not found")

	// ErrInstrumentDelisted is returned when an order targets a delisted instrument.
	ErrInstrumentDelisted = errors.New("instrument delisted")

	// ErrOrderNotFound is returned when an order id does not exist or belongs
	// to another user. Callers cannot distinguish the two on purpose.
	ErrOrderNotFound = errors.New("order not found")

	// ErrOrderNotCancelable is returned when cancelling an order that is
	// already FILLED or CANCELED. Distinct from ErrOrderNotFound so callers
	// can report a precise conflict.
	ErrOrderNotCancelable = errors.New("order not cancelable")

	// ErrUserNotFound is returned for unknown user ids.
	ErrUserNotFound = errors.New("user not found")

	// ErrUsernameTaken is returned when registering a duplicate username.
	ErrUsernameTaken = errors.New("username taken")

	// ErrUnauthorized is returned for missing or invalid API tokens.
	ErrUnauthorized = errors.New("unauthorized")
)

// ValidationError reports a rejected request field. Validation failures are
// raised before any state is touched.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid " + e.Field + ": " + e.Reason
}

// NewValidationError creates a new field validation error.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// IsValidation checks whether err is a validation failure.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// SettlementError wraps a storage failure inside a match-and-settle unit.
// The whole unit is rolled back; the caller may safely retry the submit.
type SettlementError struct {
	Op  string // "credit", "debit", "trade", "order"
	Err error
}

func (e *SettlementError) Error() string {
	return "settlement failed [" + e.Op + "]: " + e.Err.Error()
}

func (e *SettlementError) Unwrap() error {
	return e.Err
}
