package schema

import (
	"errors"
	"fmt"
)

// Error codes for structured error reporting.
const (
	ErrCodeMalformedRemapper = "MALFORMED_REMAPPER"
	ErrCodeUnknownOperator   = "UNKNOWN_OPERATOR"
	ErrCodeValidation        = "VALIDATION_ERROR"
	ErrCodeMaxDepth          = "MAX_DEPTH"
	ErrCodeEvent             = "EVENT_ERROR"
	ErrCodeDocument          = "DOCUMENT_ERROR"
	ErrCodeExpression        = "EXPRESSION_ERROR"
	ErrCodeExecution         = "EXECUTION_ERROR"
	ErrCodeCancelled         = "CANCELLED"
)

// Error is the structured error type returned by remapper evaluation and
// the surfaces around it.
type Error struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
	Path    string         `json:"path,omitempty"`
	Cause   error          `json:"-"`
}

func (e *Error) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Path, e.Message)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a new Error.
func NewError(code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// NewErrorf creates a new Error with a formatted message.
func NewErrorf(code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WithPath attaches the document location the error refers to.
func (e *Error) WithPath(path string) *Error {
	e.Path = path
	return e
}

// WithCause attaches an underlying cause.
func (e *Error) WithCause(err error) *Error {
	e.Cause = err
	return e
}

// WithDetails attaches key-value details.
func (e *Error) WithDetails(details map[string]any) *Error {
	e.Details = details
	return e
}

// IsCode reports whether err, or any error it wraps, is an *Error with the given code.
func IsCode(err error, code string) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Code == code
}
