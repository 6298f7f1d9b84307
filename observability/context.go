package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// OperationContext ties one API operation's span and request metrics
// together so a handler opens and closes them as a pair.
type OperationContext struct {
	Operation   string // e.g. "POST /v1/resegment"
	RequestID   string
	RecordingID string
	StartTime   time.Time
	Metrics     *Metrics
}

// NewOperationContext starts the clock on an operation. A nil metrics
// handle disables metric recording but not tracing.
func NewOperationContext(operation, requestID, recordingID string, metrics *Metrics) *OperationContext {
	return &OperationContext{
		Operation:   operation,
		RequestID:   requestID,
		RecordingID: recordingID,
		StartTime:   time.Now(),
		Metrics:     metrics,
	}
}

type operationContextKey struct{}

// WithOperationContext stores the operation context for downstream code.
func WithOperationContext(ctx context.Context, oc *OperationContext) context.Context {
	return context.WithValue(ctx, operationContextKey{}, oc)
}

// OperationContextFromContext returns the stored operation context, or nil.
func OperationContextFromContext(ctx context.Context) *OperationContext {
	oc, _ := ctx.Value(operationContextKey{}).(*OperationContext)
	return oc
}

// Start opens the operation's span, marks the request active, and
// stashes the operation context so downstream code can tag its own
// spans and logs with the request.
func (oc *OperationContext) Start(ctx context.Context, spanName string) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{
		attribute.String(AttrOperationName, oc.Operation),
		attribute.String(AttrRequestID, oc.RequestID),
	}
	if oc.RecordingID != "" {
		attrs = append(attrs, attribute.String(AttrRecordingID, oc.RecordingID))
	}
	ctx, span := StartSpan(ctx, spanName, trace.WithAttributes(attrs...))

	if oc.Metrics != nil {
		oc.Metrics.RecordRequestStart(ctx)
	}
	return WithOperationContext(ctx, oc), span
}

// End closes the span and records the completed request.
func (oc *OperationContext) End(ctx context.Context, span trace.Span, status string, err error) {
	duration := time.Since(oc.StartTime)

	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.String(AttrErrorMessage, err.Error()))
	}
	span.SetAttributes(
		attribute.String(AttrStatus, status),
		attribute.Int64(AttrDurationMs, duration.Milliseconds()),
	)
	span.End()

	if oc.Metrics != nil {
		oc.Metrics.RecordRequestEnd(ctx, oc.Operation, status, duration)
	}
}

// Duration is the elapsed time since the operation started.
func (oc *OperationContext) Duration() time.Duration {
	return time.Since(oc.StartTime)
}
