package logger

import (
	"time"
)

// Field keys shared across the service, so log queries can rely on one
// spelling per concept.
const (
	FieldComponent = "component"
	FieldTraceID   = "trace_id"
	FieldSpanID    = "span_id"
	FieldRequestID = "request_id"
	FieldOperation = "operation"
	FieldStatus    = "status"
	FieldError     = "error"
	FieldDuration  = "duration_ms"
	FieldPhase     = "phase"
)

// Resegmentation field keys. Engine log lines carry these so one
// recording's output can be filtered out of a batch run.
const (
	FieldRun       = "run_id"
	FieldRecording = "recording_id"
	FieldJob       = "job_id"
	FieldIteration = "iteration"
	FieldSpeakers  = "speakers"
	FieldFrames    = "frames"
	FieldElbo      = "elbo"
)

// Fields builds a field map from alternating key-value pairs. Non-string
// keys and a trailing dangling key are dropped.
//
//	logger.Info("done", logger.Fields("op", "save", "id", 42))
func Fields(kvs ...interface{}) map[string]interface{} {
	m := make(map[string]interface{}, len(kvs)/2)
	for i := 0; i+1 < len(kvs); i += 2 {
		if key, ok := kvs[i].(string); ok {
			m[key] = kvs[i+1]
		}
	}
	return m
}

// ErrorFields tags a failed operation.
func ErrorFields(op string, err error) map[string]interface{} {
	return Fields(FieldOperation, op, FieldError, err.Error())
}

// DurationFields tags a timed operation.
func DurationFields(op string, d time.Duration) map[string]interface{} {
	return Fields(FieldOperation, op, FieldDuration, d.Milliseconds())
}

// MergeWithError adds the error field to an existing map, allocating
// one when fields is nil.
func MergeWithError(fields map[string]interface{}, err error) map[string]interface{} {
	return setField(fields, FieldError, err.Error())
}

// MergeWithDuration adds the duration field to an existing map.
func MergeWithDuration(fields map[string]interface{}, d time.Duration) map[string]interface{} {
	return setField(fields, FieldDuration, d.Milliseconds())
}

func setField(fields map[string]interface{}, key string, value interface{}) map[string]interface{} {
	if fields == nil {
		fields = make(map[string]interface{}, 1)
	}
	fields[key] = value
	return fields
}
