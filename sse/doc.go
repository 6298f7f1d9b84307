// Package sse provides Server-Sent Events (SSE) infrastructure for
// streaming job progress to clients.
//
// It includes client connection management, event broadcasting to
// multiple subscribers, and a hub for managing event channels. Clients
// subscribe under job-scoped IDs ("job:<jobID>:<connID>") so a running
// batch can broadcast to every watcher of its job with a single
// pattern.
//
// # Architecture
//
//   - Hub: Central event router managing client subscriptions
//   - Broadcaster: Sends events to all connected clients
//   - ServeSSE: HTTP handler loop for an SSE endpoint
//
// # Usage
//
//	hub := sse.NewHub()
//	go hub.Run()
//	router.GET("/v1/jobs/:id/events", func(c *gin.Context) {
//	    sse.ServeSSE(hub, c.Writer, c.Request, clientID, sse.WithJobID(jobID))
//	})
package sse
