package component

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/skillsenselab/vbdiar/logger"
)

// stopTimeout bounds how long one component may take to stop.
const stopTimeout = 10 * time.Second

type registration struct {
	component Component
	started   bool
}

// Registry owns the registered components. StartAll runs them in
// registration order; StopAll in reverse, so register dependencies
// first (storage before the service that loads models through it).
type Registry struct {
	mu     sync.RWMutex
	order  []*registration
	byName map[string]*registration
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]*registration)}
}

// Register adds a component. Names must be unique.
func (r *Registry) Register(c Component) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := c.Name()
	if _, dup := r.byName[name]; dup {
		return fmt.Errorf("component %s already registered", name)
	}

	reg := &registration{component: c}
	r.order = append(r.order, reg)
	r.byName[name] = reg

	logger.Debug("component registered", logger.Fields("component", name))
	return nil
}

// StartAll starts every component in registration order and stops at
// the first failure.
func (r *Registry) StartAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	logger.Info("starting components", logger.Fields("count", len(r.order)))

	for _, reg := range r.order {
		name := reg.component.Name()
		logger.Debug("starting component", logger.Fields("component", name))

		if err := reg.component.Start(ctx); err != nil {
			logger.Error("component start failed", logger.Fields(
				"component", name,
				"error", err.Error(),
			))
			return fmt.Errorf("failed to start %s: %w", name, err)
		}
		reg.started = true
	}

	logger.Info("all components started")
	return nil
}

// StopAll stops started components in reverse registration order. Every
// component gets its chance to stop; failures are collected into one
// error.
func (r *Registry) StopAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	logger.Info("stopping components")

	var errs []error
	for i := len(r.order) - 1; i >= 0; i-- {
		reg := r.order[i]
		if !reg.started {
			continue
		}
		name := reg.component.Name()

		stopCtx, cancel := context.WithTimeout(ctx, stopTimeout)
		err := reg.component.Stop(stopCtx)
		cancel()
		reg.started = false

		if err != nil {
			errs = append(errs, fmt.Errorf("failed to stop %s: %w", name, err))
			logger.Error("component stop failed", logger.Fields(
				"component", name,
				"error", err.Error(),
			))
			continue
		}
		logger.Info("component stopped", logger.Fields("component", name))
	}

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %v", errs)
	}
	logger.Info("all components stopped")
	return nil
}

// HealthAll collects every component's health in registration order.
func (r *Registry) HealthAll(ctx context.Context) []Health {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Health, 0, len(r.order))
	for _, reg := range r.order {
		out = append(out, reg.component.Health(ctx))
	}
	return out
}

// Get looks a component up by name, nil when absent.
func (r *Registry) Get(name string) Component {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if reg, ok := r.byName[name]; ok {
		return reg.component
	}
	return nil
}

// All returns the components in registration order.
func (r *Registry) All() []Component {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Component, 0, len(r.order))
	for _, reg := range r.order {
		out = append(out, reg.component)
	}
	return out
}
