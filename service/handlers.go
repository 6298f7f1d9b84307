package service

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/skillsenselab/vbdiar/errors"
	"github.com/skillsenselab/vbdiar/observability"
	"github.com/skillsenselab/vbdiar/server"
	"github.com/skillsenselab/vbdiar/sse"
)

// RegisterRoutes mounts the resegmentation API under /v1 on the
// server's Gin engine.
func (s *Service) RegisterRoutes(srv *server.Server) {
	v1 := srv.GinEngine().Group("/v1")
	v1.POST("/resegment", s.handleResegment)
	v1.POST("/jobs", s.handleCreateJob)
	v1.GET("/jobs/:id", s.handleGetJob)
	v1.GET("/jobs/:id/events", s.handleJobEvents)
}

// handleResegment runs one recording synchronously.
func (s *Service) handleResegment(c *gin.Context) {
	var req ResegmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		server.RespondWithError(c, errors.InvalidFormat("body", "JSON").WithCause(err))
		return
	}
	oc := observability.NewOperationContext("POST /v1/resegment",
		c.GetString("request_id"), req.RecordingID, s.metrics)
	ctx, span := oc.Start(c.Request.Context(), observability.SpanHTTPRequest)
	resp, err := s.Resegment(ctx, &req)
	if err != nil {
		oc.End(ctx, span, "error", err)
		server.RespondWithError(c, err)
		return
	}
	oc.End(ctx, span, "ok", nil)
	server.RespondOK(c, resp)
}

// handleCreateJob accepts a batch job and returns 202 with its ID.
func (s *Service) handleCreateJob(c *gin.Context) {
	var req JobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		server.RespondWithError(c, errors.InvalidFormat("body", "JSON").WithCause(err))
		return
	}
	oc := observability.NewOperationContext("POST /v1/jobs",
		c.GetString("request_id"), "", s.metrics)
	ctx, span := oc.Start(c.Request.Context(), observability.SpanHTTPRequest)
	job, err := s.CreateJob(&req)
	if err != nil {
		oc.End(ctx, span, "error", err)
		server.RespondWithError(c, err)
		return
	}
	oc.End(ctx, span, "accepted", nil)
	server.RespondAccepted(c, job)
}

// handleGetJob reports a job's status and outcomes.
func (s *Service) handleGetJob(c *gin.Context) {
	job, err := s.GetJob(c.Param("id"))
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, job)
}

// handleJobEvents streams a job's progress events over SSE. Each
// connection gets a unique client ID under the job's broadcast
// pattern.
func (s *Service) handleJobEvents(c *gin.Context) {
	jobID := c.Param("id")
	if !s.JobExists(jobID) {
		server.RespondWithError(c, errors.NotFound("job", jobID))
		return
	}
	if s.hub == nil {
		server.RespondWithError(c, errors.ServiceUnavailable("event stream"))
		return
	}
	clientID := fmt.Sprintf("job:%s:%s", jobID, uuid.NewString())
	sse.ServeSSE(s.hub, c.Writer, c.Request, clientID, sse.WithJobID(jobID))
}
