// Package server hosts the resegmentation API. A Gin engine carries
// the routed handlers; it hangs off a root ServeMux wrapped in h2c so
// HTTP/2 cleartext clients can multiplex SSE job streams next to API
// calls on one port.
//
// Middleware is split in two layers. Panic recovery, request IDs and
// rate limiting run inside the engine; CORS, the body-size cap and
// request logging wrap the root handler so they see every request,
// streamed or not.
//
// RegisterDefaultEndpoints mounts the operational surface: /health,
// /info, /version and /metrics.
package server
