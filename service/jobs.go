package service

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/skillsenselab/vbdiar/errors"
	"github.com/skillsenselab/vbdiar/segments"
	"github.com/skillsenselab/vbdiar/vb"
)

// JobStatus is the lifecycle state of an asynchronous job.
type JobStatus string

const (
	// JobPending means the job is accepted but no recording has started.
	JobPending JobStatus = "pending"
	// JobRunning means at least one recording is being processed.
	JobRunning JobStatus = "running"
	// JobCompleted means every recording has an outcome (some may have failed).
	JobCompleted JobStatus = "completed"
	// JobFailed means the run itself aborted (cancellation, artifact loading).
	JobFailed JobStatus = "failed"
)

// RecordingOutcome is the per-recording result exposed by the job API.
type RecordingOutcome struct {
	RecordingID string             `json:"recording_id"`
	Segments    []segments.Segment `json:"segments,omitempty"`
	Diagnostics *vb.Diagnostics    `json:"diagnostics,omitempty"`
	Error       string             `json:"error,omitempty"`
}

// Job is one asynchronous batch run. Jobs are ephemeral run artifacts;
// they live only in memory and are evicted once the store fills up.
type Job struct {
	ID         string             `json:"id"`
	Status     JobStatus          `json:"status"`
	CreatedAt  time.Time          `json:"created_at"`
	StartedAt  *time.Time         `json:"started_at,omitempty"`
	FinishedAt *time.Time         `json:"finished_at,omitempty"`
	Recordings int                `json:"recordings"`
	Outcomes   []RecordingOutcome `json:"outcomes,omitempty"`
	Error      string             `json:"error,omitempty"`
}

// jobStore holds jobs behind a mutex with bounded retention of
// finished jobs, oldest evicted first.
type jobStore struct {
	mu          sync.Mutex
	jobs        map[string]*Job
	order       []string // creation order, for eviction
	maxRetained int
}

func newJobStore(maxRetained int) *jobStore {
	if maxRetained < 1 {
		maxRetained = 1
	}
	return &jobStore{
		jobs:        make(map[string]*Job),
		maxRetained: maxRetained,
	}
}

// Create registers a new pending job and returns it.
func (s *jobStore) Create(recordings int) *Job {
	job := &Job{
		ID:         uuid.NewString(),
		Status:     JobPending,
		CreatedAt:  time.Now(),
		Recordings: recordings,
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
	s.order = append(s.order, job.ID)
	s.evictLocked()
	return job
}

// Get returns a snapshot of the job, or a not-found error.
func (s *jobStore) Get(id string) (Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return Job{}, errors.NotFound("job", id)
	}
	snap := *job
	snap.Outcomes = append([]RecordingOutcome(nil), job.Outcomes...)
	return snap, nil
}

// MarkRunning transitions the job to running.
func (s *jobStore) MarkRunning(id string) {
	now := time.Now()
	s.update(id, func(j *Job) {
		j.Status = JobRunning
		j.StartedAt = &now
	})
}

// Finish records the final outcomes. A run-level error marks the job
// failed; otherwise per-recording failures stay inside their outcome.
func (s *jobStore) Finish(id string, outcomes []RecordingOutcome, runErr error) {
	now := time.Now()
	s.update(id, func(j *Job) {
		j.Outcomes = outcomes
		j.FinishedAt = &now
		if runErr != nil {
			j.Status = JobFailed
			j.Error = runErr.Error()
			return
		}
		j.Status = JobCompleted
	})
}

func (s *jobStore) update(id string, fn func(*Job)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if job, ok := s.jobs[id]; ok {
		fn(job)
	}
}

// evictLocked drops the oldest finished jobs while over capacity.
// Pending and running jobs are never evicted.
func (s *jobStore) evictLocked() {
	if len(s.jobs) <= s.maxRetained {
		return
	}
	kept := s.order[:0]
	for _, id := range s.order {
		job, ok := s.jobs[id]
		if !ok {
			continue
		}
		done := job.Status == JobCompleted || job.Status == JobFailed
		if len(s.jobs) > s.maxRetained && done {
			delete(s.jobs, id)
			continue
		}
		kept = append(kept, id)
	}
	s.order = kept
}
