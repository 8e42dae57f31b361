package models

import (
	"errors"
	"fmt"
)

// ValidationError reports a request payload that cannot be coerced into a
// user record. It maps to a client error at the transport boundary.
type ValidationError struct {
	Err error
}

// NewValidationError wraps err as a *ValidationError.
func NewValidationError(err error) *ValidationError {
	return &ValidationError{Err: err}
}

func (e *ValidationError) Error() string {
	return "validation failed: " + e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// StoreError reports a failed storage operation. It maps to a server error
// at the transport boundary.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// IsValidationError reports whether err or any error it wraps is a *ValidationError.
func IsValidationError(err error) bool {
	var validationErr *ValidationError
	return errors.As(err, &validationErr)
}
