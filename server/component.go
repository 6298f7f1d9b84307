package server

import (
	"context"
	"fmt"
	"sort"

	"github.com/skillsenselab/vbdiar/component"
)

const componentName = "http-server"

// Component adapts the Server to the application's component lifecycle
// so the registry starts it after storage and the SSE hub and stops it
// first on shutdown.
type Component struct {
	srv *Server
}

var (
	_ component.Component     = (*Component)(nil)
	_ component.Describable   = (*Component)(nil)
	_ component.RouteProvider = (*Component)(nil)
)

// NewComponent wraps a configured Server.
func NewComponent(srv *Server) *Component {
	return &Component{srv: srv}
}

func (c *Component) Name() string { return componentName }

func (c *Component) Start(ctx context.Context) error {
	return c.srv.Start(ctx)
}

func (c *Component) Stop(ctx context.Context) error {
	return c.srv.Stop(ctx)
}

func (c *Component) Health(ctx context.Context) component.Health {
	return component.Health{
		Name:    componentName,
		Status:  component.StatusHealthy,
		Message: fmt.Sprintf("listening on %s", c.srv.Addr()),
	}
}

// Describe reports the listen address for the startup summary.
func (c *Component) Describe() component.Description {
	return component.Description{
		Name:    "HTTP Server",
		Type:    "server",
		Details: c.srv.Addr(),
		Port:    c.srv.config.Port,
	}
}

// Routes lists the engine's routes for the startup summary: API routes
// first, system routes after, each group sorted by path then method.
func (c *Component) Routes() []component.Route {
	ginRoutes := c.srv.engine.Routes()

	routes := make([]component.Route, 0, len(ginRoutes))
	for _, r := range ginRoutes {
		name := formatHandlerName(r.Handler)
		if systemPaths[r.Path] {
			name += " ⚙️"
		}
		routes = append(routes, component.Route{
			Method:  r.Method,
			Path:    r.Path,
			Handler: name,
		})
	}

	sort.Slice(routes, func(i, j int) bool {
		iSys, jSys := systemPaths[routes[i].Path], systemPaths[routes[j].Path]
		if iSys != jSys {
			return !iSys
		}
		if routes[i].Path != routes[j].Path {
			return routes[i].Path < routes[j].Path
		}
		return methodOrder(routes[i].Method) < methodOrder(routes[j].Method)
	})
	return routes
}
