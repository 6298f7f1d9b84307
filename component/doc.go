// Package component defines the lifecycle contract for the service's
// infrastructure: the artifact store, the SSE hub, and the HTTP server
// all implement Component and register with a Registry, which starts
// them in dependency order and stops them in reverse on shutdown.
//
// Components may additionally implement Describable and RouteProvider
// to self-report into the bootstrap startup summary.
package component
