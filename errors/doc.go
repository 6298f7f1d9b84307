// Package errors provides unified error handling for the resegmentation
// engine and its service surface. It implements structured error types with
// machine-readable codes, HTTP status mapping, and retryable detection
// following RFC 7807.
//
// The engine's fatal per-recording failures carry the MODEL_FORMAT and
// INPUT_SHAPE codes. NUMERIC_DEGENERACY is a warning code used in logs and
// metrics only — runs recover from it through a deterministic fallback and
// never fail on it.
package errors
