package service

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/skillsenselab/vbdiar/batch"
	"github.com/skillsenselab/vbdiar/errors"
	"github.com/skillsenselab/vbdiar/frames"
	"github.com/skillsenselab/vbdiar/logger"
	"github.com/skillsenselab/vbdiar/model"
	"github.com/skillsenselab/vbdiar/observability"
	"github.com/skillsenselab/vbdiar/segments"
	"github.com/skillsenselab/vbdiar/sse"
	"github.com/skillsenselab/vbdiar/storage"
	"github.com/skillsenselab/vbdiar/util"
	"github.com/skillsenselab/vbdiar/vb"
)

// Service implements the resegmentation API on top of a loaded model
// pair. Synchronous requests run inline; jobs run on the shared batch
// runner in background goroutines that survive until Close.
type Service struct {
	log       *logger.Logger
	engineCfg vb.Config
	runner    *batch.Runner
	jobs      *jobStore
	hub       *sse.Hub
	artifacts storage.ByteClient
	metrics   *observability.Metrics

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Option configures a Service.
type Option func(*options)

type options struct {
	log       *logger.Logger
	hub       *sse.Hub
	artifacts storage.ByteClient
	metrics   *observability.Metrics
	workers   int
	retained  int
}

// WithLogger sets the service logger.
func WithLogger(l *logger.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithHub connects job progress events to an SSE hub.
func WithHub(hub *sse.Hub) Option {
	return func(o *options) { o.hub = hub }
}

// WithArtifacts sets the storage client used to resolve features and
// labelings referenced by path. Without one, path-based requests fail.
func WithArtifacts(c storage.ByteClient) Option {
	return func(o *options) { o.artifacts = c }
}

// WithMetrics registers metric instruments.
func WithMetrics(m *observability.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithWorkers sets the job worker pool size.
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

// WithJobRetention caps how many finished jobs stay queryable.
func WithJobRetention(n int) Option {
	return func(o *options) { o.retained = n }
}

// New builds a Service around a loaded model pair and a validated
// default engine configuration.
func New(pair *model.Pair, engineCfg vb.Config, opts ...Option) (*Service, error) {
	o := &options{workers: 4, retained: 100}
	for _, opt := range opts {
		opt(o)
	}
	if o.log == nil {
		o.log = logger.GetGlobalLogger()
	}
	log := o.log.WithComponent("service")

	runnerOpts := []batch.RunnerOption{
		batch.WithWorkers(o.workers),
		batch.WithLogger(o.log),
	}
	if o.hub != nil {
		runnerOpts = append(runnerOpts, batch.WithSink(newHubSink(o.hub, o.log)))
	}
	if o.metrics != nil {
		runnerOpts = append(runnerOpts, batch.WithMetrics(o.metrics))
	}
	runner, err := batch.NewRunner(pair, engineCfg, runnerOpts...)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Service{
		log:       log,
		engineCfg: engineCfg,
		runner:    runner,
		jobs:      newJobStore(o.retained),
		hub:       o.hub,
		artifacts: o.artifacts,
		metrics:   o.metrics,
		ctx:       ctx,
		cancel:    cancel,
	}, nil
}

// Close cancels running jobs and waits for them to settle.
func (s *Service) Close() {
	s.cancel()
	s.wg.Wait()
}

// Resegment handles one synchronous recording.
func (s *Service) Resegment(ctx context.Context, req *ResegmentRequest) (*ResegmentResponse, error) {
	if appErr := req.Validate(); appErr != nil {
		return nil, appErr
	}
	cfg, err := req.Engine.Apply(s.engineCfg)
	if err != nil {
		return nil, err
	}

	feats, err := s.requestFeatures(ctx, req)
	if err != nil {
		return nil, err
	}
	turns, err := s.requestTurns(req)
	if err != nil {
		return nil, err
	}

	outcomes, err := s.runner.Run(ctx, "", []batch.Task{{
		RecordingID: req.RecordingID,
		Features:    feats,
		Turns:       turns,
		Config:      &cfg,
	}})
	if err != nil {
		return nil, err
	}
	out := outcomes[0]
	if out.Err != nil {
		return nil, out.Err
	}
	return &ResegmentResponse{
		RecordingID: req.RecordingID,
		Segments:    out.Segments,
		Diagnostics: out.Diagnostics,
	}, nil
}

// CreateJob accepts an asynchronous batch and starts it in the
// background. The returned job is pending; poll GetJob or subscribe to
// the SSE stream for progress.
func (s *Service) CreateJob(req *JobRequest) (*Job, error) {
	if appErr := req.Validate(); appErr != nil {
		return nil, appErr
	}
	cfg, err := req.Engine.Apply(s.engineCfg)
	if err != nil {
		return nil, err
	}

	job := s.jobs.Create(len(req.Recordings))
	if s.metrics != nil {
		s.metrics.RecordJobStart(s.ctx)
	}
	s.log.Info("job accepted", logger.Fields(
		"job_id", job.ID,
		"recordings", len(req.Recordings),
	))

	recordings := append([]JobRecording(nil), req.Recordings...)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.runJob(job.ID, recordings, cfg)
	}()
	return job, nil
}

// GetJob returns a snapshot of a job's status and outcomes.
func (s *Service) GetJob(id string) (Job, error) {
	return s.jobs.Get(id)
}

// JobExists reports whether a job is known to the store.
func (s *Service) JobExists(id string) bool {
	_, err := s.jobs.Get(id)
	return err == nil
}

// runJob loads every recording's artifacts, runs the loadable ones on
// the batch runner under the job's ID, and records outcomes in input
// order. Artifact failures are per-recording outcomes, not job
// failures.
func (s *Service) runJob(jobID string, recordings []JobRecording, cfg vb.Config) {
	s.jobs.MarkRunning(jobID)
	log := s.log.WithJob(jobID)

	outcomes := make([]RecordingOutcome, len(recordings))
	tasks := make([]batch.Task, 0, len(recordings))
	taskIdx := make([]int, 0, len(recordings))
	for i, rec := range recordings {
		feats, turns, err := s.loadRecording(s.ctx, rec)
		if err != nil {
			log.Warn("recording artifacts not loadable", logger.MergeWithError(logger.Fields(
				"recording_id", rec.RecordingID,
			), err))
			outcomes[i] = RecordingOutcome{RecordingID: rec.RecordingID, Error: err.Error()}
			continue
		}
		tasks = append(tasks, batch.Task{
			RecordingID: rec.RecordingID,
			Features:    feats,
			Turns:       turns,
			Config:      &cfg,
		})
		taskIdx = append(taskIdx, i)
	}

	results, runErr := s.runner.Run(s.ctx, jobID, tasks)
	for k, out := range results {
		ro := RecordingOutcome{
			RecordingID: out.RecordingID,
			Segments:    out.Segments,
			Diagnostics: out.Diagnostics,
		}
		if out.Err != nil {
			ro.Error = out.Err.Error()
		}
		outcomes[taskIdx[k]] = ro
	}

	s.jobs.Finish(jobID, outcomes, runErr)
	if s.metrics != nil {
		status := "completed"
		if runErr != nil {
			status = "failed"
		}
		s.metrics.RecordJobEnd(s.ctx, status)
	}
}

// requestFeatures resolves the request's feature matrix, inline or by
// artifact path.
func (s *Service) requestFeatures(ctx context.Context, req *ResegmentRequest) (*frames.Features, error) {
	if req.Features != nil {
		return frames.NewFeatures(req.Features.Data, req.Features.Dim, req.Features.FrameShift)
	}
	return s.loadFeatures(ctx, req.FeaturesPath)
}

// requestTurns resolves the request's reference labeling, inline or as
// RTTM text.
func (s *Service) requestTurns(req *ResegmentRequest) ([]segments.Segment, error) {
	if len(req.Segments) > 0 {
		return req.Segments, nil
	}
	byRecording, err := segments.ParseRTTM(bytes.NewReader([]byte(req.RTTM)))
	if err != nil {
		return nil, err
	}
	return selectTurns(byRecording, req.RecordingID)
}

func (s *Service) loadRecording(ctx context.Context, rec JobRecording) (*frames.Features, []segments.Segment, error) {
	feats, err := s.loadFeatures(ctx, rec.FeaturesPath)
	if err != nil {
		return nil, nil, err
	}
	data, err := s.download(ctx, rec.LabelsPath)
	if err != nil {
		return nil, nil, err
	}
	byRecording, err := segments.ParseRTTM(bytes.NewReader(data))
	if err != nil {
		return nil, nil, err
	}
	turns, err := selectTurns(byRecording, rec.RecordingID)
	if err != nil {
		return nil, nil, err
	}
	return feats, turns, nil
}

func (s *Service) loadFeatures(ctx context.Context, path string) (*frames.Features, error) {
	data, err := s.download(ctx, path)
	if err != nil {
		return nil, err
	}
	return frames.ReadFeatures(bytes.NewReader(data))
}

func (s *Service) download(ctx context.Context, path string) ([]byte, error) {
	if s.artifacts == nil {
		return nil, errors.InvalidInput("path", "artifact storage is not configured")
	}
	return s.artifacts.Download(ctx, path)
}

// selectTurns picks a recording's turns out of a parsed RTTM document.
// A document holding exactly one recording matches any requested ID.
func selectTurns(byRecording map[string][]segments.Segment, recordingID string) ([]segments.Segment, error) {
	if turns, ok := byRecording[recordingID]; ok {
		return turns, nil
	}
	if len(byRecording) == 1 {
		for _, turns := range byRecording {
			return turns, nil
		}
	}
	labeled := util.Keys(byRecording)
	sort.Strings(labeled)
	return nil, errors.InvalidInput("labels", fmt.Sprintf(
		"labeling holds no turns for recording %s (labeled: %s)",
		recordingID, strings.Join(labeled, ", ")))
}
