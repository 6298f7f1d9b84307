package batch

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/skillsenselab/vbdiar/errors"
	"github.com/skillsenselab/vbdiar/frames"
	"github.com/skillsenselab/vbdiar/logger"
	"github.com/skillsenselab/vbdiar/model"
	"github.com/skillsenselab/vbdiar/observability"
	"github.com/skillsenselab/vbdiar/pipeline"
	"github.com/skillsenselab/vbdiar/segments"
	"github.com/skillsenselab/vbdiar/vb"
)

// Task is one recording to resegment. Config, when set, overrides the
// runner's engine configuration for this task only.
type Task struct {
	RecordingID string
	Features    *frames.Features
	Turns       []segments.Segment
	Config      *vb.Config
}

// Outcome is the independent result of one task: either Segments and
// Diagnostics or Err, never both.
type Outcome struct {
	RecordingID string             `json:"recording_id"`
	Segments    []segments.Segment `json:"segments,omitempty"`
	Diagnostics *vb.Diagnostics    `json:"diagnostics,omitempty"`
	Err         error              `json:"-"`
}

// Runner resegments batches of recordings over a worker pool. A Runner
// is immutable after construction and safe for concurrent Run calls.
type Runner struct {
	pair    *model.Pair
	cfg     vb.Config
	workers int
	log     *logger.Logger
	sink    EventSink
	metrics *observability.Metrics
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithWorkers sets the worker pool size. Values below 1 are ignored.
func WithWorkers(n int) RunnerOption {
	return func(r *Runner) {
		if n > 0 {
			r.workers = n
		}
	}
}

// WithLogger sets the runner logger.
func WithLogger(l *logger.Logger) RunnerOption {
	return func(r *Runner) { r.log = l }
}

// WithSink registers a progress event sink.
func WithSink(sink EventSink) RunnerOption {
	return func(r *Runner) { r.sink = sink }
}

// WithMetrics registers metric instruments for recording outcomes.
func WithMetrics(m *observability.Metrics) RunnerOption {
	return func(r *Runner) { r.metrics = m }
}

// NewRunner validates the default engine configuration and builds a
// runner around a loaded model pair.
func NewRunner(pair *model.Pair, cfg vb.Config, opts ...RunnerOption) (*Runner, error) {
	if pair == nil {
		return nil, errors.InvalidInput("model", "runner requires a loaded model pair")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	r := &Runner{pair: pair, cfg: cfg, workers: 4}
	for _, opt := range opts {
		opt(r)
	}
	if r.log == nil {
		r.log = logger.Get("batch")
	}
	return r, nil
}

type indexedTask struct {
	index int
	task  Task
}

type indexedOutcome struct {
	index   int
	outcome Outcome
}

// Run resegments all tasks and returns one outcome per task in input
// order. Per-recording failures are captured in their outcome and do
// not abort siblings; the returned error is non-nil only when the
// context ends the run early. runID tags progress events and logs; an
// empty runID draws a fresh UUID.
func (r *Runner) Run(ctx context.Context, runID string, tasks []Task) ([]Outcome, error) {
	if runID == "" {
		runID = uuid.NewString()
	}
	log := r.log.WithRun(runID)
	log.Info("batch run starting", logger.Fields(
		"recordings", len(tasks),
		"workers", r.workers,
	))

	tracer := observability.Tracer("github.com/skillsenselab/vbdiar/batch")
	ctx, span := tracer.Start(ctx, observability.SpanBatchRun, trace.WithAttributes(
		attribute.String(observability.AttrRunID, runID),
		attribute.Int("recordings", len(tasks)),
	))
	defer span.End()
	if oc := observability.OperationContextFromContext(ctx); oc != nil && oc.RequestID != "" {
		observability.SetSpanAttribute(ctx, observability.AttrRequestID, oc.RequestID)
	}

	indices := make([]int, len(tasks))
	for i := range indices {
		indices[i] = i
	}
	staged := pipeline.Map(pipeline.FromSlice(indices),
		func(_ context.Context, i int) (indexedTask, error) {
			return indexedTask{index: i, task: tasks[i]}, nil
		})
	processed := pipeline.Parallel(staged, r.workers,
		func(ctx context.Context, it indexedTask) (indexedOutcome, error) {
			return indexedOutcome{
				index:   it.index,
				outcome: r.process(ctx, runID, log, it.task),
			}, nil
		})
	failed := 0
	counted := pipeline.Tap(processed,
		func(_ context.Context, io indexedOutcome) error {
			if io.outcome.Err != nil {
				failed++
			}
			return nil
		})

	collected, err := pipeline.Collect(ctx, counted)
	outcomes := make([]Outcome, len(tasks))
	for i, task := range tasks {
		outcomes[i] = Outcome{RecordingID: task.RecordingID, Err: ctx.Err()}
	}
	for _, io := range collected {
		outcomes[io.index] = io.outcome
	}
	if err != nil {
		observability.SetSpanError(ctx, err)
		log.Warn("batch run aborted", logger.ErrorFields("run", err))
		return outcomes, err
	}
	log.Info("batch run finished", logger.Fields(
		"recordings", len(tasks),
		"failed", failed,
	))
	return outcomes, nil
}

// process runs one task in isolation and never lets its failure escape
// as an error; outcomes stay independent per recording.
func (r *Runner) process(ctx context.Context, runID string, runLog *logger.Logger, task Task) Outcome {
	log := runLog.WithRecording(task.RecordingID)
	start := time.Now()
	r.publish(Event{
		RunID:       runID,
		RecordingID: task.RecordingID,
		Kind:        EventTaskStarted,
		Time:        start,
	})

	tracer := observability.Tracer("github.com/skillsenselab/vbdiar/batch")
	ctx, span := tracer.Start(ctx, observability.SpanResegment, trace.WithAttributes(
		attribute.String(observability.AttrRunID, runID),
		attribute.String(observability.AttrRecordingID, task.RecordingID),
	))
	defer span.End()

	segs, diag, err := r.resegment(ctx, runID, log, task)
	outcome := Outcome{RecordingID: task.RecordingID, Segments: segs, Diagnostics: diag, Err: err}

	status, reason := "ok", ""
	if err != nil {
		status = "failed"
		observability.SetSpanError(ctx, err)
		log.Error("recording failed", logger.MergeWithError(logger.Fields(
			"duration", time.Since(start).String(),
		), err))
	} else {
		reason = string(diag.Reason)
		observability.SetSpanAttribute(ctx, observability.AttrStatus, string(diag.Reason))
		observability.SetSpanAttribute(ctx, "iterations", diag.Iterations)
		log.Info("recording resegmented", logger.Fields(
			"segments", len(segs),
			"iterations", diag.Iterations,
			"reason", string(diag.Reason),
			"active_speakers", diag.ActiveSpeakers,
			"duration", time.Since(start).String(),
		))
	}
	if r.metrics != nil {
		iters := 0
		if diag != nil {
			iters = diag.Iterations
			r.metrics.RecordDegenerateTicks(ctx, diag.DegenerateTicks)
		}
		r.metrics.RecordRecording(ctx, status, reason, time.Since(start), iters)
	}

	errText := ""
	if err != nil {
		errText = err.Error()
	}
	r.publish(Event{
		RunID:       runID,
		RecordingID: task.RecordingID,
		Kind:        EventTaskFinished,
		Time:        time.Now(),
		Status:      status,
		Error:       errText,
	})
	return outcome
}

func (r *Runner) resegment(ctx context.Context, runID string, log *logger.Logger, task Task) ([]segments.Segment, *vb.Diagnostics, error) {
	cfg := r.cfg
	if task.Config != nil {
		cfg = *task.Config
	}
	if task.Features == nil {
		return nil, nil, errors.InvalidInput("features", "task has no feature sequence")
	}

	rast, err := frames.Rasterize(task.Turns, task.Features.Len(), task.Features.FrameShift())
	if err != nil {
		return nil, nil, err
	}
	if rast.Clamped > 0 {
		log.Warn("initial turns extend past the recording", logger.Fields(
			"clamped", rast.Clamped,
		))
	}

	engine, err := vb.New(cfg, r.pair,
		vb.WithLogger(log),
		vb.WithProgress(func(ev vb.IterationEvent) {
			iter := ev
			r.publish(Event{
				RunID:       runID,
				RecordingID: task.RecordingID,
				Kind:        EventIteration,
				Time:        time.Now(),
				Iteration:   &iter,
			})
		}),
	)
	if err != nil {
		return nil, nil, err
	}

	res, err := engine.Resegment(ctx, task.Features, rast.Labels)
	if err != nil {
		return nil, nil, err
	}

	var names []string
	if cfg.Initialize {
		names = rast.Speakers
	}
	exporter := segments.Exporter{
		FrameShift: task.Features.FrameShift(),
		Downsample: cfg.Downsample,
		Names:      names,
	}
	segs, err := exporter.FromTicks(res.TickLabels, res.Mask, task.Features.Len())
	if err != nil {
		return nil, nil, err
	}
	return segs, &res.Diagnostics, nil
}

func (r *Runner) publish(ev Event) {
	if r.sink != nil {
		r.sink.Publish(ev)
	}
}
