package errors

import (
	"errors"
	"fmt"
)

// Common application errors
var (
	ErrEmptyHeader        = errors.New("source exposes no columns")
	ErrProfilingCancelled = errors.New("profiling cancelled")
	ErrColumnNotFound     = errors.New("column not found in profile")
	ErrMetricNotSupported = errors.New("metric not supported")
	ErrInvalidExpectation = errors.New("invalid expectation definition")
	ErrSnapshotNotFound   = errors.New("snapshot not found")
)

// ErrorType represents different categories of errors
type ErrorType string

const (
	ErrorTypeSchema    ErrorType = "schema"
	ErrorTypeTypeMatch ErrorType = "type_mismatch"
	ErrorTypeParse     ErrorType = "parse"
	ErrorTypeConfig    ErrorType = "config"
	ErrorTypeStorage   ErrorType = "storage"
	ErrorTypeCancelled ErrorType = "cancelled"
	ErrorTypeInternal  ErrorType = "internal"
)

// Error codes attached to AppError and echoed into validation results
const (
	CodeSchemaError  = "SCHEMA_ERROR"
	CodeTypeMismatch = "TYPE_MISMATCH"
	CodeParseError   = "PARSE_ERROR"
	CodeConfigError  = "CONFIG_ERROR"
	CodeGuardFalse   = "GUARD_FALSE"
	CodeCancelled    = "CANCELLED"
	CodeStorageError = "STORAGE_ERROR"
	CodeInternal     = "INTERNAL_ERROR"
)

// AppError is an application error with a category, a stable code and
// optional context for structured reporting.
type AppError struct {
	Type    ErrorType              `json:"type"`
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Cause   error                  `json:"-"`
	Context map[string]interface{} `json:"context,omitempty"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is matches AppErrors by type and code
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Type == t.Type && e.Code == t.Code
}

// WithContext attaches a context value to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewAppError creates a new application error
func NewAppError(errType ErrorType, code, message string) *AppError {
	return &AppError{Type: errType, Code: code, Message: message}
}

// WrapError wraps an existing error with application context
func WrapError(err error, errType ErrorType, code, message string) *AppError {
	return &AppError{Type: errType, Code: code, Message: message, Cause: err}
}

// NewSchemaError creates an error for a rule referencing a column the
// profile does not contain. It wraps ErrColumnNotFound so callers can
// match with errors.Is.
func NewSchemaError(message string) *AppError {
	return WrapError(ErrColumnNotFound, ErrorTypeSchema, CodeSchemaError, message)
}

// NewTypeMismatchError creates an error for a metric structurally
// incompatible with a column's inferred type. It wraps
// ErrMetricNotSupported so callers can match with errors.Is.
func NewTypeMismatchError(message string) *AppError {
	return WrapError(ErrMetricNotSupported, ErrorTypeTypeMatch, CodeTypeMismatch, message)
}

// NewParseError creates a row/value decode error. Parse errors are
// tallied during profiling, never fatal.
func NewParseError(message string) *AppError {
	return NewAppError(ErrorTypeParse, CodeParseError, message)
}

// NewConfigError creates an error for a malformed rule or expectation
// definition. Config errors fail fast before any evaluation begins.
// It wraps ErrInvalidExpectation so callers can match with errors.Is.
func NewConfigError(message string) *AppError {
	return WrapError(ErrInvalidExpectation, ErrorTypeConfig, CodeConfigError, message)
}

// NewStorageError creates a snapshot-store error
func NewStorageError(message string, cause error) *AppError {
	return WrapError(cause, ErrorTypeStorage, CodeStorageError, message)
}

// NewCancelledError creates a distinguishable cancellation outcome
func NewCancelledError(message string, cause error) *AppError {
	return WrapError(cause, ErrorTypeCancelled, CodeCancelled, message)
}

// NewInternalError creates an internal error
func NewInternalError(message string) *AppError {
	return NewAppError(ErrorTypeInternal, CodeInternal, message)
}

// IsConfigError reports whether err is a CONFIG_ERROR
func IsConfigError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Type == ErrorTypeConfig
}

// IsCancelled reports whether err is a cancellation outcome
func IsCancelled(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Type == ErrorTypeCancelled
}
