package core

import (
	"errors"
	"fmt"
)

// ValidationError is a user-facing rejection: the operation is aborted
// before any persistence call and nothing changes.
type ValidationError struct {
	Title   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// PersistenceError reports that the persistence layer refused or failed an
// operation. Op is "add" or "delete".
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s expense: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

var (
	ErrMissingFields   = &ValidationError{Title: "Input Error", Message: "Amount and Description cannot be empty"}
	ErrNoSelection     = &ValidationError{Title: "Input Error", Message: "Please select a row to delete."}
	ErrInvalidDate     = &ValidationError{Title: "Input Error", Message: "Date must be in YYYY-MM-DD format"}
	ErrUnknownCategory = &ValidationError{Title: "Input Error", Message: "Unknown category"}
	ErrInvalidID       = &ValidationError{Title: "Input Error", Message: "Selected row has no valid expense id"}

	// ErrNotFound is returned by persistence implementations for unknown ids.
	ErrNotFound = errors.New("expense not found")
)

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// IsPersistence reports whether err is (or wraps) a PersistenceError.
func IsPersistence(err error) bool {
	var p *PersistenceError
	return errors.As(err, &p)
}
