package errors

import (
	"errors"
	"fmt"
)

// ErrorType categorizes errors for handling decisions
type ErrorType string

const (
	TypeInvalidInput      ErrorType = "invalid_input"
	TypeWindowClosed      ErrorType = "window_closed"
	TypeAlreadyMatched    ErrorType = "already_matched"
	TypeIllegalTransition ErrorType = "illegal_transition"
	TypeNotFound          ErrorType = "not_found"
	TypeUnauthorized      ErrorType = "unauthorized"
	TypeUnavailable       ErrorType = "unavailable"
	TypeInternal          ErrorType = "internal"
)

// AppError is the main error type with context for API responses and logs
type AppError struct {
	Type       ErrorType
	Code       string
	Message    string
	Details    map[string]interface{}
	Cause      error
	Retryable  bool
	StatusCode int
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithCause attaches an underlying cause
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetails attaches structured details
func (e *AppError) WithDetails(details map[string]interface{}) *AppError {
	e.Details = details
	return e
}

// NewInvalidInputError creates an error for rejected caller input
func NewInvalidInputError(code, message string) *AppError {
	return &AppError{
		Type:       TypeInvalidInput,
		Code:       code,
		Message:    message,
		StatusCode: 400,
	}
}

// NewWindowClosedError creates an error for operations against a closed
// bidding window
func NewWindowClosedError(message string) *AppError {
	return &AppError{
		Type:       TypeWindowClosed,
		Code:       "WINDOW_CLOSED",
		Message:    message,
		StatusCode: 422,
	}
}

// NewAlreadyMatchedError creates an error for a losing selection attempt
func NewAlreadyMatchedError(message string) *AppError {
	return &AppError{
		Type:       TypeAlreadyMatched,
		Code:       "ALREADY_MATCHED",
		Message:    message,
		StatusCode: 409,
	}
}

// NewIllegalTransitionError creates an error for a forbidden lifecycle move
func NewIllegalTransitionError(from, to string) *AppError {
	return &AppError{
		Type:       TypeIllegalTransition,
		Code:       "ILLEGAL_TRANSITION",
		Message:    fmt.Sprintf("cannot transition ride from %s to %s", from, to),
		Details:    map[string]interface{}{"from": from, "to": to},
		StatusCode: 422,
	}
}

// NewNotFoundError creates an error for missing resources
func NewNotFoundError(message string) *AppError {
	return &AppError{
		Type:       TypeNotFound,
		Code:       "NOT_FOUND",
		Message:    message,
		StatusCode: 404,
	}
}

// NewUnauthorizedError creates an error for actors acting outside their role
func NewUnauthorizedError(message string) *AppError {
	return &AppError{
		Type:       TypeUnauthorized,
		Code:       "UNAUTHORIZED",
		Message:    message,
		StatusCode: 403,
	}
}

// NewUnavailableError creates a retryable error for infrastructure failures
func NewUnavailableError(message string) *AppError {
	return &AppError{
		Type:       TypeUnavailable,
		Code:       "UNAVAILABLE",
		Message:    message,
		Retryable:  true,
		StatusCode: 503,
	}
}

// NewInternalError creates an error for unexpected failures
func NewInternalError(message string) *AppError {
	return &AppError{
		Type:       TypeInternal,
		Code:       "INTERNAL_ERROR",
		Message:    message,
		StatusCode: 500,
	}
}

// Common sentinel errors
var (
	ErrRideNotFound   = NewNotFoundError("ride not found")
	ErrBidNotFound    = NewNotFoundError("bid not found")
	ErrDriverNotFound = NewNotFoundError("driver not found")
)

// IsType checks whether err is an AppError of the given type
func IsType(err error, t ErrorType) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == t
	}
	return false
}

// IsRetryable reports whether the operation may be retried
func IsRetryable(err error) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Retryable
	}
	return false
}

// GetStatusCode extracts the HTTP status code, defaulting to 500
func GetStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.StatusCode != 0 {
		return appErr.StatusCode
	}
	return 500
}
