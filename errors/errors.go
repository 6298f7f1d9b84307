package errors

import (
	"fmt"
	"net/http"
)

// AppError is the application error type. Handlers map it onto an HTTP
// response via HTTPStatus and ToResponse; everything below the
// transport treats it as a plain error.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is safe to show to API clients.
	Message string `json:"message"`
	// Retryable tells clients whether retrying the operation can help.
	Retryable bool `json:"retryable"`
	// HTTPStatus is the status code the transport should answer with.
	HTTPStatus int `json:"-"`
	// Details carries structured context (field names, shapes, paths).
	Details map[string]any `json:"details,omitempty"`
	// Cause is the wrapped underlying error, if any.
	Cause error `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error { return e.Cause }

// WithCause attaches the underlying error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetail adds one detail entry and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New builds an AppError; retryability follows from the code.
func New(code ErrorCode, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Retryable:  IsRetryableCode(code),
	}
}

// --- Engine error constructors ---

// ModelFormat reports a malformed or inconsistent model artifact.
// Fatal for the recording that referenced it.
func ModelFormat(reason string) *AppError {
	return New(ErrCodeModelFormat, "Invalid model: "+reason, http.StatusUnprocessableEntity)
}

// ModelFormatf is ModelFormat with a formatted reason.
func ModelFormatf(format string, args ...any) *AppError {
	return ModelFormat(fmt.Sprintf(format, args...))
}

// InputShape reports a feature or labeling shape that does not match
// the loaded model. Fatal for the affected recording.
func InputShape(field string, want, got int) *AppError {
	msg := fmt.Sprintf("Input shape mismatch: %s is %d, model expects %d", field, got, want)
	return New(ErrCodeInputShape, msg, http.StatusUnprocessableEntity).
		WithDetail("field", field).
		WithDetail("want", want).
		WithDetail("got", got)
}

// --- Request error constructors ---

// InvalidInput rejects a request value, naming the offending field
// when known.
func InvalidInput(field, reason string) *AppError {
	e := New(ErrCodeInvalidInput, "Invalid input: "+reason, http.StatusBadRequest)
	e.Details = make(map[string]any)
	if field != "" {
		e.Details["field"] = field
	}
	return e
}

// Validation rejects a request with a message produced by the
// validation layer.
func Validation(message string) *AppError {
	return New(ErrCodeInvalidInput, message, http.StatusBadRequest)
}

// MissingField rejects a request missing a required field.
func MissingField(field string) *AppError {
	return New(ErrCodeMissingField, "Missing required field: "+field, http.StatusBadRequest).
		WithDetail("field", field)
}

// InvalidFormat rejects a field whose value has the wrong shape.
func InvalidFormat(field, expectedFormat string) *AppError {
	msg := fmt.Sprintf("Invalid format for %s. Expected: %s", field, expectedFormat)
	return New(ErrCodeInvalidFormat, msg, http.StatusBadRequest).
		WithDetail("field", field).
		WithDetail("expected_format", expectedFormat)
}

// NotFound reports a missing resource (a job, a run, a model artifact).
func NotFound(resource, id string) *AppError {
	e := New(ErrCodeNotFound, fmt.Sprintf("The requested %s was not found.", resource), http.StatusNotFound).
		WithDetail("resource", resource)
	if id != "" {
		e.WithDetail("id", id)
	}
	return e
}

// RateLimited reports that the client exceeded the request budget.
func RateLimited() *AppError {
	return New(ErrCodeRateLimited,
		"Too many requests. Please wait a moment and try again.",
		http.StatusTooManyRequests)
}

// --- Dependency/internal error constructors ---

// Storage reports a failed artifact store operation.
func Storage(op, path string, cause error) *AppError {
	return New(ErrCodeStorage, fmt.Sprintf("Artifact store %s failed for %s.", op, path), http.StatusBadGateway).
		WithDetail("op", op).
		WithDetail("path", path).
		WithCause(cause)
}

// ServiceUnavailable reports a dependency that is temporarily down.
func ServiceUnavailable(service string) *AppError {
	return New(ErrCodeServiceUnavailable,
		fmt.Sprintf("The %s is temporarily unavailable. Please try again.", service),
		http.StatusServiceUnavailable).
		WithDetail("service", service)
}

// Timeout reports an operation that exceeded its deadline.
func Timeout(operation string) *AppError {
	return New(ErrCodeTimeout, "The operation took too long. Please try again.", http.StatusGatewayTimeout).
		WithDetail("operation", operation)
}

// Internal wraps an unexpected error without leaking its text to
// clients.
func Internal(cause error) *AppError {
	return New(ErrCodeInternal, "An unexpected error occurred.", http.StatusInternalServerError).
		WithCause(cause)
}
