package storage

import (
	"context"
	"fmt"

	"github.com/skillsenselab/vbdiar/component"
	"github.com/skillsenselab/vbdiar/logger"
)

// Component owns the artifact store's lifecycle. The backend is
// constructed in Start so a bad bucket or base path fails startup
// instead of the first request.
type Component struct {
	store       Storage
	cfg         Config
	providerCfg any
	log         *logger.Logger
}

var (
	_ component.Component   = (*Component)(nil)
	_ component.Describable = (*Component)(nil)
)

// NewComponent prepares a storage component; nothing is opened until
// Start.
func NewComponent(cfg Config, providerCfg any, log *logger.Logger) *Component {
	return &Component{
		cfg:         cfg,
		providerCfg: providerCfg,
		log:         log.WithComponent("storage"),
	}
}

// Storage exposes the backend, nil until Start succeeds or when the
// component is disabled.
func (c *Component) Storage() Storage {
	return c.store
}

func (c *Component) Name() string { return "storage" }

func (c *Component) Start(_ context.Context) error {
	if !c.cfg.Enabled {
		c.log.Info("artifact store disabled")
		return nil
	}

	s, err := New(c.cfg, c.providerCfg, c.log)
	if err != nil {
		return fmt.Errorf("storage start: %w", err)
	}
	c.store = s
	return nil
}

func (c *Component) Stop(_ context.Context) error {
	c.store = nil
	return nil
}

// Health probes the backend by resolving a URL, which exercises the
// client without a network round trip on the local backend.
func (c *Component) Health(ctx context.Context) component.Health {
	if !c.cfg.Enabled {
		return component.Health{
			Name:    c.Name(),
			Status:  component.StatusHealthy,
			Message: "disabled",
		}
	}
	if c.store == nil {
		return component.Health{
			Name:    c.Name(),
			Status:  component.StatusUnhealthy,
			Message: "artifact store not initialized",
		}
	}
	if _, err := c.store.URL(ctx, ".health"); err != nil {
		return component.Health{
			Name:    c.Name(),
			Status:  component.StatusUnhealthy,
			Message: fmt.Sprintf("health probe failed: %v", err),
		}
	}
	return component.Health{Name: c.Name(), Status: component.StatusHealthy}
}

// BucketDescriber is implemented by provider configs that carry a
// bucket name, so the startup summary can show it.
type BucketDescriber interface {
	GetBucket() string
}

// Describe reports the provider, and the bucket when there is one, for
// the startup summary.
func (c *Component) Describe() component.Description {
	details := fmt.Sprintf("provider=%s", c.cfg.Provider)
	if bp, ok := c.providerCfg.(BucketDescriber); ok {
		if b := bp.GetBucket(); b != "" {
			details += fmt.Sprintf(" bucket=%s", b)
		}
	}
	return component.Description{
		Name:    "Artifact Store",
		Type:    "storage",
		Details: details,
	}
}
