// Package observability wires OpenTelemetry tracing and metrics into
// the resegmentation service. Both providers export over OTLP HTTP and
// are installed globally at startup:
//
//	tp, err := observability.InitTracer(ctx, observability.DefaultTracerConfig("vbdiar"))
//	defer tp.Shutdown(ctx)
//
//	mc := observability.DefaultMeterConfig("vbdiar")
//	mp, err := observability.InitMeter(ctx, &mc)
//	defer mp.Shutdown(ctx)
//
// HTTP handlers track one operation as a span/metric pair through an
// OperationContext:
//
//	oc := observability.NewOperationContext("POST /v1/resegment", requestID, recordingID, metrics)
//	ctx, span := oc.Start(ctx, observability.SpanHTTPRequest)
//	// ... run the operation ...
//	oc.End(ctx, span, "ok", nil)
//
// The engine side records per-recording outcomes (duration, iterations,
// degenerate ticks) and job counters through Metrics directly.
package observability
