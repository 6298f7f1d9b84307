package bootstrap

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/skillsenselab/vbdiar/component"
	"github.com/skillsenselab/vbdiar/logger"
)

// ComponentStatus is one component's outcome of the startup sequence.
type ComponentStatus struct {
	Name    string
	Status  string
	Healthy bool
}

// InfrastructureInfo describes a piece of wired infrastructure (the
// HTTP server, the artifact store, the SSE hub).
type InfrastructureInfo struct {
	Name    string
	Type    string
	Status  string
	Details string
	Port    int
	Healthy bool
}

// RouteInfo is a registered HTTP route.
type RouteInfo struct {
	Method  string
	Path    string
	Handler string
}

// Summary accumulates what startup brought up and renders it as a tree
// once the app is ready. It is write-only during startup; rendering
// happens exactly once, from Start.
type Summary struct {
	serviceName     string
	version         string
	startupDuration time.Duration
	components      []ComponentStatus
	infrastructure  []InfrastructureInfo
	routes          []RouteInfo
}

// NewSummary starts an empty summary for the named service.
func NewSummary(serviceName, version string) *Summary {
	return &Summary{serviceName: serviceName, version: version}
}

// SetStartupDuration records how long the startup sequence took.
func (s *Summary) SetStartupDuration(d time.Duration) {
	s.startupDuration = d
}

// TrackComponent records a component's startup outcome.
func (s *Summary) TrackComponent(name, status string, healthy bool) {
	s.components = append(s.components, ComponentStatus{Name: name, Status: status, Healthy: healthy})
}

// TrackInfrastructure records an infrastructure component with its
// wiring details.
func (s *Summary) TrackInfrastructure(name, componentType, status, details string, port int, healthy bool) {
	s.infrastructure = append(s.infrastructure, InfrastructureInfo{
		Name:    name,
		Type:    componentType,
		Status:  status,
		Details: details,
		Port:    port,
		Healthy: healthy,
	})
}

// TrackRoute records an HTTP route.
func (s *Summary) TrackRoute(method, path, handler string) {
	s.routes = append(s.routes, RouteInfo{Method: method, Path: path, Handler: handler})
}

// collectFromRegistry fills the infrastructure and route sections from
// components implementing the optional Describable and RouteProvider
// interfaces, so wiring a new component needs no Track* calls.
func (s *Summary) collectFromRegistry(registry *component.Registry) {
	for _, c := range registry.All() {
		if d, ok := c.(component.Describable); ok {
			desc := d.Describe()
			name := desc.Name
			if name == "" {
				name = c.Name()
			}
			healthy := c.Health(context.Background()).Status == component.StatusHealthy
			s.TrackInfrastructure(name, desc.Type, "active", desc.Details, desc.Port, healthy)
		}
		if rp, ok := c.(component.RouteProvider); ok {
			for _, r := range rp.Routes() {
				s.TrackRoute(r.Method, r.Path, r.Handler)
			}
		}
	}
}

// DisplaySummary collects live state from the registry and prints the
// startup tree to stdout.
func (s *Summary) DisplaySummary(registry *component.Registry, log *logger.Logger) {
	if registry != nil {
		s.collectFromRegistry(registry)
	}

	var reports []component.Health
	if registry != nil {
		reports = registry.HealthAll(context.Background())
	}
	fmt.Print(s.render(reports))
}

// treeBranch returns the box-drawing prefix for entry i of n.
func treeBranch(i, n int) string {
	if i == n-1 {
		return "└──"
	}
	return "├──"
}

func (s *Summary) render(health []component.Health) string {
	var b strings.Builder

	fmt.Fprintf(&b, "\n🚀 %s v%s started in %.2fs\n\n",
		s.serviceName, s.version, s.startupDuration.Seconds())

	s.renderInfrastructure(&b)
	s.renderComponents(&b)

	if len(s.infrastructure) == 0 && len(s.components) == 0 {
		b.WriteString("   └── No components registered\n")
	}

	s.renderRoutes(&b)
	s.renderHealth(&b, health)

	b.WriteString("\n")
	return b.String()
}

func (s *Summary) renderInfrastructure(b *strings.Builder) {
	if len(s.infrastructure) == 0 {
		return
	}
	b.WriteString("📊 Infrastructure\n")
	for i, inf := range s.infrastructure {
		// The infrastructure tree closes only when no component
		// section follows it.
		branch := "├──"
		if i == len(s.infrastructure)-1 && len(s.components) == 0 {
			branch = "└──"
		}
		details := inf.Details
		if inf.Port > 0 {
			details = fmt.Sprintf("%s (:%d)", details, inf.Port)
		}
		fmt.Fprintf(b, "   %s %s %s: %s\n", branch, statusIcon(inf.Status, inf.Healthy), inf.Name, details)
	}
	b.WriteString("\n")
}

func (s *Summary) renderComponents(b *strings.Builder) {
	if len(s.components) == 0 {
		return
	}
	b.WriteString("📦 Components\n")
	healthy := 0
	for i, c := range s.components {
		fmt.Fprintf(b, "   %s %s %s (%s)\n",
			treeBranch(i, len(s.components)), statusIcon(c.Status, c.Healthy), c.Name, c.Status)
		if c.Healthy {
			healthy++
		}
	}
	b.WriteString("\n")

	if healthy == len(s.components) {
		fmt.Fprintf(b, "✅ All components healthy (%d/%d)\n", healthy, len(s.components))
	} else {
		fmt.Fprintf(b, "⚠️  Some components have issues (%d/%d healthy)\n", healthy, len(s.components))
	}
}

func (s *Summary) renderRoutes(b *strings.Builder) {
	if len(s.routes) == 0 {
		return
	}
	fmt.Fprintf(b, "\n🌐 Routes (%d)\n", len(s.routes))
	for i, r := range s.routes {
		fmt.Fprintf(b, "   %s %-7s %s → %s\n", treeBranch(i, len(s.routes)), r.Method, r.Path, r.Handler)
	}
}

func (s *Summary) renderHealth(b *strings.Builder, reports []component.Health) {
	if len(reports) == 0 {
		return
	}
	b.WriteString("\n🏥 Health Check\n")
	for i, h := range reports {
		line := fmt.Sprintf("%s: %s", h.Name, strings.ToLower(string(h.Status)))
		if h.Message != "" {
			line += " — " + h.Message
		}
		fmt.Fprintf(b, "   %s %s %s\n", treeBranch(i, len(reports)), healthIcon(h.Status), line)
	}
}

func statusIcon(status string, healthy bool) string {
	switch {
	case !healthy, status == "error", status == "failed":
		return "❌"
	case status == "inactive", status == "disabled":
		return "⏸️"
	case status == "active", status == "initialized", status == "connected", status == "healthy":
		return "✅"
	default:
		return "⚠️"
	}
}

func healthIcon(status component.HealthStatus) string {
	switch status {
	case component.StatusHealthy:
		return "✅"
	case component.StatusDegraded:
		return "⚠️"
	case component.StatusUnhealthy:
		return "❌"
	default:
		return "❓"
	}
}
