package component

import "context"

// HealthStatus classifies a component's health.
type HealthStatus string

const (
	StatusHealthy   HealthStatus = "healthy"
	StatusUnhealthy HealthStatus = "unhealthy"
	StatusDegraded  HealthStatus = "degraded"
)

// Health is one component's health report.
type Health struct {
	Name    string       `json:"name"`
	Status  HealthStatus `json:"status"`
	Message string       `json:"message,omitempty"`
}

// Component is a piece of infrastructure whose lifecycle the
// application owns: the artifact store, the SSE hub, the HTTP server.
// The registry starts them in registration order and stops them in
// reverse.
type Component interface {
	// Name identifies the component in the registry; it must be unique.
	Name() string

	// Start brings the component up. It must be safe to call Stop after
	// a failed Start.
	Start(ctx context.Context) error

	// Stop shuts the component down and releases its resources.
	Stop(ctx context.Context) error

	// Health reports the component's current state.
	Health(ctx context.Context) Health
}

// Description is what a component reports about itself for the startup
// summary.
type Description struct {
	// Name is a display name; when empty the component's Name() is shown.
	Name string
	// Type buckets the component: "server", "storage", "sse".
	Type string
	// Details is a one-liner, e.g. "0.0.0.0:8080" or "provider=s3 bucket=models".
	Details string
	// Port is the primary listening port, 0 when not applicable.
	Port int
}

// Describable marks components that self-report into the startup
// summary's infrastructure section.
type Describable interface {
	Describe() Description
}

// Route is one HTTP route for the startup summary.
type Route struct {
	Method  string
	Path    string
	Handler string
}

// RouteProvider marks server components that list their registered
// routes for the startup summary.
type RouteProvider interface {
	Routes() []Route
}
