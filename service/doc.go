// Package service exposes the resegmentation engine over HTTP.
//
// It registers four API routes on a server.Server:
//
//	POST /v1/resegment      — synchronous single-recording resegmentation
//	POST /v1/jobs           — asynchronous batch job, returns a job ID
//	GET  /v1/jobs/:id       — job status and per-recording outcomes
//	GET  /v1/jobs/:id/events — SSE stream of job progress events
//
// Requests carry features and reference labelings either inline or as
// artifact paths resolved through the storage backend. Jobs run on the
// batch runner; their progress events are adapted onto the SSE hub so
// clients subscribed to "job:<id>:*" see them live. Jobs are ephemeral
// run artifacts held in a bounded in-memory store.
package service
