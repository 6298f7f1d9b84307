package testutil

import (
	"context"

	"github.com/skillsenselab/vbdiar/component"
)

// TestComponent is a component that also supports the state control
// tests need: wiping back to the initial state between cases, and
// snapshot/restore around a destructive case.
type TestComponent interface {
	component.Component

	// Reset returns the component to its just-started state.
	Reset(ctx context.Context) error

	// Snapshot captures the current state for a later Restore.
	Snapshot(ctx context.Context) (interface{}, error)

	// Restore replaces the state with one captured by Snapshot.
	Restore(ctx context.Context, snapshot interface{}) error
}
