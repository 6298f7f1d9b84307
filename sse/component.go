package sse

import (
	"context"
	"fmt"
	"sync"

	"github.com/skillsenselab/vbdiar/component"
)

// Component runs the hub's event loop under the application's
// component lifecycle. Jobs publish progress through the hub, so it
// starts before the HTTP server and stops after it.
type Component struct {
	hub     *Hub
	path    string
	mu      sync.Mutex
	running bool
	wg      sync.WaitGroup
}

var (
	_ component.Component   = (*Component)(nil)
	_ component.Describable = (*Component)(nil)
)

// NewComponent builds a component around a fresh Hub. path is the
// route the stream is mounted on, reported in the startup summary.
func NewComponent(path string) *Component {
	return &Component{hub: NewHub(), path: path}
}

// Hub exposes the hub for broadcasting and for the stream handler.
func (c *Component) Hub() *Hub { return c.hub }

func (c *Component) Name() string { return "sse" }

// Start launches the hub loop in a background goroutine.
func (c *Component) Start(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return nil
	}
	c.running = true
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.hub.Run()
	}()
	return nil
}

// Stop closes every client stream and waits for the loop to drain.
func (c *Component) Stop(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running {
		return nil
	}
	c.hub.Stop()
	c.wg.Wait()
	c.running = false
	return nil
}

// Health reports degraded until Start has run, since events published
// before then are dropped.
func (c *Component) Health(_ context.Context) component.Health {
	c.mu.Lock()
	running := c.running
	c.mu.Unlock()

	if !running {
		return component.Health{
			Name:    c.Name(),
			Status:  component.StatusDegraded,
			Message: "event loop not running",
		}
	}
	return component.Health{
		Name:    c.Name(),
		Status:  component.StatusHealthy,
		Message: fmt.Sprintf("%d clients connected", c.hub.GetClientCount()),
	}
}

// Describe reports the stream route for the startup summary.
func (c *Component) Describe() component.Description {
	return component.Description{
		Name:    "SSE Hub",
		Type:    "sse",
		Details: fmt.Sprintf("Path: %s", c.path),
	}
}
