package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Engine errors (fatal for the affected recording, never retried)
const (
	// ErrCodeModelFormat indicates a malformed or inconsistent UBM/extractor.
	ErrCodeModelFormat ErrorCode = "MODEL_FORMAT"
	// ErrCodeInputShape indicates a feature/labeling shape mismatch against the model.
	ErrCodeInputShape ErrorCode = "INPUT_SHAPE"
	// ErrCodeNumericDegeneracy tags the recovered all-underflow condition in
	// logs and metrics. It is never returned as an error.
	ErrCodeNumericDegeneracy ErrorCode = "NUMERIC_DEGENERACY"
)

// Request errors
const (
	// ErrCodeInvalidInput indicates the input is invalid.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	// ErrCodeMissingField indicates a required field is missing.
	ErrCodeMissingField ErrorCode = "MISSING_FIELD"
	// ErrCodeInvalidFormat indicates a field has an invalid format.
	ErrCodeInvalidFormat ErrorCode = "INVALID_FORMAT"
	// ErrCodeNotFound indicates the requested resource was not found.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
	// ErrCodeRateLimited indicates the client is rate limited.
	ErrCodeRateLimited ErrorCode = "RATE_LIMITED"
)

// Dependency/internal errors
const (
	// ErrCodeStorage indicates an artifact store operation failed.
	ErrCodeStorage ErrorCode = "STORAGE_ERROR"
	// ErrCodeServiceUnavailable indicates the service is temporarily unavailable.
	ErrCodeServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
	// ErrCodeTimeout indicates the operation timed out.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
	// ErrCodeInternal indicates an internal error.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

var retryableCodes = map[ErrorCode]bool{
	ErrCodeStorage:            true,
	ErrCodeServiceUnavailable: true,
	ErrCodeTimeout:            true,
	ErrCodeRateLimited:        true,
}

// IsRetryableCode returns true if the error code indicates a retryable error.
// Engine errors are never retryable: numeric instability is handled by the
// deterministic fallback, not by recomputation.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
