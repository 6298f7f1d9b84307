package bootstrap

import (
	"context"
	"fmt"
)

// Hook is a startup or shutdown callback. The serve command uses hooks
// to assemble the service once components are up and to flush
// telemetry on the way down.
type Hook func(ctx context.Context) error

// OnStart hooks run after every component has started, before the app
// is considered ready.
func (a *App[C]) OnStart(hooks ...Hook) {
	a.onStart = append(a.onStart, hooks...)
}

// OnReady hooks run last in startup, when the app is about to accept
// traffic.
func (a *App[C]) OnReady(hooks ...Hook) {
	a.onReady = append(a.onReady, hooks...)
}

// OnStop hooks run first in shutdown, before components stop, in
// registration order.
func (a *App[C]) OnStop(hooks ...Hook) {
	a.onStop = append(a.onStop, hooks...)
}

func runHooks(ctx context.Context, hooks []Hook) error {
	for i, h := range hooks {
		if err := h(ctx); err != nil {
			return fmt.Errorf("hook %d failed: %w", i, err)
		}
	}
	return nil
}
