// Package errors provides the unified error handling system shared by all
// layers of the BioRemPP backend. A single error type with a classification
// tag replaces per-layer error hierarchies so that handlers, decorators and
// the cache manager can all reason about failures the same way.
package errors

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrorType defines the category of error for proper handling and response.
type ErrorType string

const (
	// Configuration and input errors
	ErrorTypeValidation    ErrorType = "VALIDATION"
	ErrorTypeConfiguration ErrorType = "CONFIGURATION"

	// Data-layer errors
	ErrorTypeData     ErrorType = "DATA"
	ErrorTypeNotFound ErrorType = "NOT_FOUND"
	ErrorTypeParse    ErrorType = "PARSE"

	// Infrastructure errors
	ErrorTypeInternal    ErrorType = "INTERNAL"
	ErrorTypeTimeout     ErrorType = "TIMEOUT"
	ErrorTypeUnavailable ErrorType = "UNAVAILABLE"
)

// ErrorSeverity defines the severity level for logging and monitoring.
type ErrorSeverity string

const (
	SeverityLow      ErrorSeverity = "LOW"
	SeverityMedium   ErrorSeverity = "MEDIUM"
	SeverityHigh     ErrorSeverity = "HIGH"
	SeverityCritical ErrorSeverity = "CRITICAL"
)

// AppError is the single error type used across the application.
type AppError struct {
	Type    ErrorType `json:"type"`
	Code    string    `json:"code"`
	Message string    `json:"message"`
	Details string    `json:"details,omitempty"`

	// Context
	Operation string `json:"operation,omitempty"`
	Resource  string `json:"resource,omitempty"`
	RequestID string `json:"requestId,omitempty"`

	// Metadata
	Severity   ErrorSeverity `json:"severity"`
	Retryable  bool          `json:"retryable"`
	RetryAfter time.Duration `json:"retryAfter,omitempty"`
	Cause      error         `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%s:%s] %s: %s", e.Type, e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Type, e.Code, e.Message)
}

// Unwrap allows errors.Is and errors.As to work with the underlying cause.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// String provides a detailed representation for logging.
func (e *AppError) String() string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Error: %s\n", e.Error()))
	if e.Operation != "" {
		b.WriteString(fmt.Sprintf("Operation: %s\n", e.Operation))
	}
	if e.Resource != "" {
		b.WriteString(fmt.Sprintf("Resource: %s\n", e.Resource))
	}
	b.WriteString(fmt.Sprintf("Severity: %s\n", e.Severity))
	b.WriteString(fmt.Sprintf("Retryable: %t\n", e.Retryable))
	if e.Cause != nil {
		b.WriteString(fmt.Sprintf("Cause: %v\n", e.Cause))
	}
	return b.String()
}

// ErrorBuilder provides a fluent interface for constructing AppError instances.
type ErrorBuilder struct {
	err *AppError
}

// NewError creates a new error builder with the specified type and message.
func NewError(errType ErrorType, code, message string) *ErrorBuilder {
	return &ErrorBuilder{
		err: &AppError{
			Type:     errType,
			Code:     code,
			Message:  message,
			Severity: SeverityMedium,
		},
	}
}

// WithDetails adds additional details to the error.
func (b *ErrorBuilder) WithDetails(details string) *ErrorBuilder {
	b.err.Details = details
	return b
}

// WithOperation specifies the operation that failed.
func (b *ErrorBuilder) WithOperation(operation string) *ErrorBuilder {
	b.err.Operation = operation
	return b
}

// WithResource specifies the resource being operated on.
func (b *ErrorBuilder) WithResource(resource string) *ErrorBuilder {
	b.err.Resource = resource
	return b
}

// WithRequestID adds request tracing information.
func (b *ErrorBuilder) WithRequestID(requestID string) *ErrorBuilder {
	b.err.RequestID = requestID
	return b
}

// WithSeverity sets the error severity.
func (b *ErrorBuilder) WithSeverity(severity ErrorSeverity) *ErrorBuilder {
	b.err.Severity = severity
	return b
}

// WithRetryable marks the error as retryable.
func (b *ErrorBuilder) WithRetryable(retryable bool) *ErrorBuilder {
	b.err.Retryable = retryable
	return b
}

// WithCause adds the underlying cause error.
func (b *ErrorBuilder) WithCause(cause error) *ErrorBuilder {
	b.err.Cause = cause
	return b
}

// WithRetryAfter sets how long to wait before retrying.
func (b *ErrorBuilder) WithRetryAfter(d time.Duration) *ErrorBuilder {
	b.err.RetryAfter = d
	b.err.Retryable = true
	return b
}

// Build returns the constructed AppError.
func (b *ErrorBuilder) Build() *AppError {
	return b.err
}

// Convenience constructors.

// Validation creates a validation error.
func Validation(code, message string) *ErrorBuilder {
	return NewError(ErrorTypeValidation, code, message).
		WithSeverity(SeverityLow).
		WithRetryable(false)
}

// Configuration creates a configuration error. These are fatal at startup.
func Configuration(code, message string) *ErrorBuilder {
	return NewError(ErrorTypeConfiguration, code, message).
		WithSeverity(SeverityCritical).
		WithRetryable(false)
}

// Data creates a data error (missing or malformed columns during aggregation).
func Data(code, message string) *ErrorBuilder {
	return NewError(ErrorTypeData, code, message).
		WithSeverity(SeverityMedium).
		WithRetryable(false)
}

// NotFound creates a not found error.
func NotFound(code, message string) *ErrorBuilder {
	return NewError(ErrorTypeNotFound, code, message).
		WithSeverity(SeverityLow).
		WithRetryable(false)
}

// Parse creates a parse error for malformed source data.
func Parse(code, message string) *ErrorBuilder {
	return NewError(ErrorTypeParse, code, message).
		WithSeverity(SeverityMedium).
		WithRetryable(false)
}

// Internal creates an internal error.
func Internal(code, message string) *ErrorBuilder {
	return NewError(ErrorTypeInternal, code, message).
		WithSeverity(SeverityHigh).
		WithRetryable(false)
}

// Timeout creates a timeout error.
func Timeout(code, message string) *ErrorBuilder {
	return NewError(ErrorTypeTimeout, code, message).
		WithSeverity(SeverityMedium).
		WithRetryable(true)
}

// Unavailable creates an error for a temporarily unavailable dependency.
func Unavailable(code, message string) *ErrorBuilder {
	return NewError(ErrorTypeUnavailable, code, message).
		WithSeverity(SeverityMedium).
		WithRetryable(true)
}

// IsType checks if an error is of a specific type.
func IsType(err error, errType ErrorType) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == errType
	}
	return false
}

// IsValidation checks if an error is a validation error.
func IsValidation(err error) bool { return IsType(err, ErrorTypeValidation) }

// IsConfiguration checks if an error is a configuration error.
func IsConfiguration(err error) bool { return IsType(err, ErrorTypeConfiguration) }

// IsData checks if an error is a data error.
func IsData(err error) bool { return IsType(err, ErrorTypeData) }

// IsNotFound checks if an error is a not found error.
func IsNotFound(err error) bool { return IsType(err, ErrorTypeNotFound) }

// IsParse checks if an error is a parse error.
func IsParse(err error) bool { return IsType(err, ErrorTypeParse) }

// IsInternal checks if an error is an internal error.
func IsInternal(err error) bool { return IsType(err, ErrorTypeInternal) }

// IsTimeout checks if an error is a timeout error.
func IsTimeout(err error) bool { return IsType(err, ErrorTypeTimeout) }

// IsUnavailable checks if an error is an unavailable error.
func IsUnavailable(err error) bool { return IsType(err, ErrorTypeUnavailable) }

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Retryable
	}
	return false
}

// GetSeverity returns the severity of an error.
func GetSeverity(err error) ErrorSeverity {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Severity
	}
	return SeverityMedium
}

// Wrap wraps an existing error with additional context while preserving the
// original classification.
func Wrap(err error, operation, message string) *AppError {
	if err == nil {
		return nil
	}

	var existing *AppError
	if errors.As(err, &existing) {
		return &AppError{
			Type:      existing.Type,
			Code:      existing.Code,
			Message:   message,
			Details:   existing.Message,
			Operation: operation,
			Resource:  existing.Resource,
			RequestID: existing.RequestID,
			Severity:  existing.Severity,
			Retryable: existing.Retryable,
			Cause:     err,
		}
	}

	return &AppError{
		Type:      ErrorTypeInternal,
		Code:      "WRAP_ERROR",
		Message:   message,
		Details:   err.Error(),
		Operation: operation,
		Severity:  SeverityMedium,
		Retryable: false,
		Cause:     err,
	}
}
