package core

import (
	"errors"
	"fmt"
)

// ErrorCategory classifies errors for handling decisions.
type ErrorCategory string

const (
	ErrCatValidation ErrorCategory = "validation" // Invalid user input
	ErrCatTransport  ErrorCategory = "transport"  // Network failure or non-2xx reply
	ErrCatProtocol   ErrorCategory = "protocol"   // Reply did not match the expected shape
	ErrCatTimeout    ErrorCategory = "timeout"    // Polling exhausted or deadline hit
	ErrCatBackend    ErrorCategory = "backend"    // Backend reported an error status
	ErrCatConfig     ErrorCategory = "config"     // Startup configuration problem
	ErrCatState      ErrorCategory = "state"      // Operation not allowed in current state
	ErrCatInternal   ErrorCategory = "internal"   // Unexpected internal error
)

// DomainError represents a structured error from the domain layer.
type DomainError struct {
	Category  ErrorCategory
	Code      string
	Message   string
	Retryable bool
	Cause     error
	Details   map[string]interface{}
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %s (%v)", e.Category, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Category, e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is matches on category and code.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Category == t.Category && e.Code == t.Code
}

// WithCause wraps an underlying error.
func (e *DomainError) WithCause(cause error) *DomainError {
	e.Cause = cause
	return e
}

// WithDetail adds contextual information.
func (e *DomainError) WithDetail(key string, value interface{}) *DomainError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// ErrValidation creates a validation error.
func ErrValidation(code, message string) *DomainError {
	return &DomainError{Category: ErrCatValidation, Code: code, Message: message}
}

// ErrTransport creates a transport error. Transport failures are retryable
// from the caller's point of view, although a chat turn never retries them.
func ErrTransport(message string) *DomainError {
	return &DomainError{Category: ErrCatTransport, Code: CodeTransport, Message: message, Retryable: true}
}

// ErrProtocol creates a protocol error.
func ErrProtocol(code, message string) *DomainError {
	return &DomainError{Category: ErrCatProtocol, Code: code, Message: message}
}

// ErrTimeout creates a timeout error.
func ErrTimeout(message string) *DomainError {
	return &DomainError{Category: ErrCatTimeout, Code: "TIMEOUT", Message: message}
}

// ErrBackend creates an error carrying a backend-reported failure message.
func ErrBackend(message string) *DomainError {
	return &DomainError{Category: ErrCatBackend, Code: CodeBackendError, Message: message}
}

// ErrConfig creates a configuration error.
func ErrConfig(code, message string) *DomainError {
	return &DomainError{Category: ErrCatConfig, Code: code, Message: message}
}

// ErrState creates a state error.
func ErrState(code, message string) *DomainError {
	return &DomainError{Category: ErrCatState, Code: code, Message: message}
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	var domErr *DomainError
	if errors.As(err, &domErr) {
		return domErr.Retryable
	}
	return false
}

// GetCategory extracts the error category.
func GetCategory(err error) ErrorCategory {
	var domErr *DomainError
	if errors.As(err, &domErr) {
		return domErr.Category
	}
	return ErrCatInternal
}

// IsCategory checks if an error belongs to a category.
func IsCategory(err error, cat ErrorCategory) bool {
	return GetCategory(err) == cat
}

// Predefined error codes
const (
	CodeEmptyQuestion     = "EMPTY_QUESTION"
	CodeCommentTooLong    = "COMMENT_TOO_LONG"
	CodeInvalidTransition = "INVALID_TRANSITION"
	CodeInvalidConfig     = "INVALID_CONFIG"
	CodeMissingLocale     = "MISSING_LOCALE"
	CodeMissingString     = "MISSING_STRING"

	CodeTransport      = "TRANSPORT_FAILED"
	CodeBadStatus      = "BAD_STATUS"
	CodeBadPayload     = "BAD_PAYLOAD"
	CodeSchemaMismatch = "SCHEMA_MISMATCH"
	CodeUnknownReply   = "UNKNOWN_REPLY"
	CodeBackendError   = "BACKEND_ERROR"
	CodePollExhausted  = "POLL_EXHAUSTED"
)
