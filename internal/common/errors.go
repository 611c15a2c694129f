package common

import (
	"errors"
	"fmt"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Common application errors
var (
	// ErrNotFound is returned when a lookup by key finds nothing.
	ErrNotFound = errors.New("resource not found")
	// ErrPersistence indicates the backing storage could not be read or written.
	ErrPersistence = errors.New("persistence error")
	// ErrInvalidReference indicates an attach call named a document id that is
	// not present in the catalog.
	ErrInvalidReference = errors.New("invalid document reference")
	// ErrInvalidInput indicates a caller-supplied value failed validation.
	ErrInvalidInput = errors.New("invalid input")
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}
