package batch

import (
	"time"

	"github.com/skillsenselab/vbdiar/vb"
)

// EventKind distinguishes the progress event types of a run.
type EventKind string

const (
	// EventTaskStarted is published when a worker picks up a recording.
	EventTaskStarted EventKind = "task-started"
	// EventIteration is published after every completed VB iteration.
	EventIteration EventKind = "iteration"
	// EventTaskFinished is published when a recording's outcome is final.
	EventTaskFinished EventKind = "task-finished"
)

// Event is one progress notification from a running batch.
type Event struct {
	RunID       string             `json:"run_id"`
	RecordingID string             `json:"recording_id"`
	Kind        EventKind          `json:"kind"`
	Time        time.Time          `json:"time"`
	Iteration   *vb.IterationEvent `json:"iteration,omitempty"`
	Status      string             `json:"status,omitempty"`
	Error       string             `json:"error,omitempty"`
}

// EventSink receives progress events. Publish is called from worker
// goroutines and must be safe for concurrent use; it must not block.
type EventSink interface {
	Publish(Event)
}

// SinkFunc adapts a function to the EventSink interface.
type SinkFunc func(Event)

// Publish calls f.
func (f SinkFunc) Publish(ev Event) { f(ev) }
