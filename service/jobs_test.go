package service

import (
	"fmt"
	"testing"

	"github.com/skillsenselab/vbdiar/errors"
)

// --- job store tests ---

func TestJobStoreCreateAndGet(t *testing.T) {
	store := newJobStore(10)

	job := store.Create(3)
	if job.ID == "" {
		t.Fatal("expected a job ID")
	}
	if job.Status != JobPending {
		t.Errorf("expected pending, got %s", job.Status)
	}
	if job.Recordings != 3 {
		t.Errorf("expected 3 recordings, got %d", job.Recordings)
	}

	got, err := store.Get(job.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.ID != job.ID || got.Status != JobPending {
		t.Errorf("unexpected snapshot %+v", got)
	}
}

func TestJobStoreGetReturnsSnapshot(t *testing.T) {
	store := newJobStore(10)
	job := store.Create(1)
	store.Finish(job.ID, []RecordingOutcome{{RecordingID: "rec-1"}}, nil)

	snap, err := store.Get(job.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	snap.Outcomes[0].RecordingID = "mutated"

	again, _ := store.Get(job.ID)
	if again.Outcomes[0].RecordingID != "rec-1" {
		t.Error("snapshot mutation leaked into the store")
	}
}

func TestJobStoreGetUnknown(t *testing.T) {
	store := newJobStore(10)

	_, err := store.Get("nope")
	appErr, ok := errors.AsAppError(err)
	if !ok || appErr.Code != errors.ErrCodeNotFound {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestJobStoreTransitions(t *testing.T) {
	store := newJobStore(10)
	job := store.Create(1)

	store.MarkRunning(job.ID)
	got, _ := store.Get(job.ID)
	if got.Status != JobRunning {
		t.Errorf("expected running, got %s", got.Status)
	}
	if got.StartedAt == nil {
		t.Error("expected StartedAt to be set")
	}

	store.Finish(job.ID, []RecordingOutcome{{RecordingID: "rec-1"}}, nil)
	got, _ = store.Get(job.ID)
	if got.Status != JobCompleted {
		t.Errorf("expected completed, got %s", got.Status)
	}
	if got.FinishedAt == nil {
		t.Error("expected FinishedAt to be set")
	}
}

func TestJobStoreFinishWithRunError(t *testing.T) {
	store := newJobStore(10)
	job := store.Create(1)
	store.MarkRunning(job.ID)
	store.Finish(job.ID, nil, fmt.Errorf("run aborted"))

	got, _ := store.Get(job.ID)
	if got.Status != JobFailed {
		t.Errorf("expected failed, got %s", got.Status)
	}
	if got.Error != "run aborted" {
		t.Errorf("unexpected error %q", got.Error)
	}
}

func TestJobStoreEvictsOldestFinished(t *testing.T) {
	store := newJobStore(2)

	a := store.Create(1)
	b := store.Create(1)
	store.Finish(a.ID, nil, nil)
	store.Finish(b.ID, nil, nil)

	c := store.Create(1)
	if _, err := store.Get(a.ID); err == nil {
		t.Error("expected oldest finished job to be evicted")
	}
	if _, err := store.Get(b.ID); err != nil {
		t.Errorf("second job should survive: %v", err)
	}
	if _, err := store.Get(c.ID); err != nil {
		t.Errorf("new job should survive: %v", err)
	}
}

func TestJobStoreNeverEvictsActive(t *testing.T) {
	store := newJobStore(1)

	active := store.Create(1)
	store.MarkRunning(active.ID)

	// Over capacity, but the only evictable jobs are finished ones.
	done := store.Create(1)
	store.Finish(done.ID, nil, nil)
	store.Create(1)

	if _, err := store.Get(active.ID); err != nil {
		t.Errorf("running job must never be evicted: %v", err)
	}
	if _, err := store.Get(done.ID); err == nil {
		t.Error("expected the finished job to be evicted instead")
	}
}
