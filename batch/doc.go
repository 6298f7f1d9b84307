// Package batch fans recordings out over a bounded worker pool and
// collects per-recording resegmentation outcomes.
//
// Each task owns its features, labeling, and engine state; the only
// shared resource is the read-only model pair. A recording that fails
// never affects its siblings: every task produces an independent
// Outcome carrying either segments and diagnostics or an error, and
// outcomes come back in input order regardless of completion order.
//
// Progress (task started, per-iteration objective, task finished) is
// published to an optional EventSink; the HTTP service adapts the sink
// onto its SSE hub and the CLI onto debug logging.
package batch
