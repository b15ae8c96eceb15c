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

// Common application errors. Capability absence is deliberately not in this
// list: a missing bus is mock mode, not a failure.
var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrPrecondition       = errors.New("precondition violation")
	ErrExtractionFailed   = errors.New("extraction failed")
	ErrValidationFailed   = errors.New("validation failed")
	ErrSubscriptionFailed = errors.New("subscription failed")
	ErrPublishRejected    = errors.New("publish rejected")
	ErrDatabase           = errors.New("database error")
	ErrInternal           = errors.New("internal error")
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}
