package ledger

import (
	"errors"
	"fmt"

	"github.com/clubware/ledger/id"
)

// Sentinel errors for common failure scenarios.
var (
	// General errors
	ErrNotFound      = errors.New("ledger: not found")
	ErrAlreadyExists = errors.New("ledger: already exists")
	ErrInvalidInput  = errors.New("ledger: invalid input")

	// Member errors
	ErrMemberNotFound = errors.New("ledger: member not found")
	ErrMemberInactive = errors.New("ledger: member is inactive")

	// Payment errors
	ErrPaymentNotFound = errors.New("ledger: payment not found")
	ErrNoReceipts      = errors.New("ledger: no receipts issued for year")

	// Fee errors
	ErrFeeNotFound      = errors.New("ledger: fee not found")
	ErrCategoryNotFound = errors.New("ledger: category not found")

	// Store errors
	ErrStoreNotReady       = errors.New("ledger: store not ready")
	ErrStoreClosed         = errors.New("ledger: store is closed")
	ErrTransactionConflict = errors.New("ledger: transaction conflict")
	ErrMigrationFailed     = errors.New("ledger: migration failed")
)

// ValidationError represents a validation failure with details.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("ledger: validation failed for %s: %s", e.Field, e.Message)
}

// BatchItemError records the failure of a single item within a bulk
// operation, preserving which item failed and why.
type BatchItemError struct {
	Index    int
	MemberID id.MemberID
	Err      error
}

func (e BatchItemError) Error() string {
	return fmt.Sprintf("ledger: batch item %d (member %s): %v", e.Index, e.MemberID, e.Err)
}

// Unwrap returns the underlying error so errors.Is works through batch items.
func (e BatchItemError) Unwrap() error {
	return e.Err
}

// MultiError represents multiple errors that occurred.
type MultiError struct {
	Errors []error
}

func (e MultiError) Error() string {
	if len(e.Errors) == 0 {
		return "ledger: no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("ledger: %d errors occurred", len(e.Errors))
}

// Add adds an error to the multi-error.
func (e *MultiError) Add(err error) {
	if err != nil {
		e.Errors = append(e.Errors, err)
	}
}

// HasErrors returns true if there are any errors.
func (e MultiError) HasErrors() bool {
	return len(e.Errors) > 0
}

// First returns the first error or nil.
func (e MultiError) First() error {
	if len(e.Errors) > 0 {
		return e.Errors[0]
	}
	return nil
}

// IsNotFound returns true if the error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrMemberNotFound) ||
		errors.Is(err, ErrPaymentNotFound) ||
		errors.Is(err, ErrFeeNotFound) ||
		errors.Is(err, ErrCategoryNotFound)
}

// IsValidation returns true if the error is a validation failure.
func IsValidation(err error) bool {
	var ve ValidationError
	return errors.As(err, &ve) || errors.Is(err, ErrInvalidInput)
}

// IsRetryable returns true if the error is temporary and the operation can be retried.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrStoreNotReady) ||
		errors.Is(err, ErrTransactionConflict)
}
