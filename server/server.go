package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/skillsenselab/vbdiar/logger"
	"github.com/skillsenselab/vbdiar/server/endpoint"
	"github.com/skillsenselab/vbdiar/server/middleware"
)

// Server hosts the resegmentation API on a Gin engine. The engine
// hangs off a root ServeMux wrapped in h2c, so HTTP/2 cleartext
// clients can multiplex long-lived SSE streams next to API calls on
// the one port.
type Server struct {
	httpServer *http.Server
	engine     *gin.Engine
	mux        *http.ServeMux
	h2s        *http2.Server
	config     Config
	log        *logger.Logger
}

// New builds a Server from an already-defaulted config. No middleware
// is installed yet; call ApplyMiddleware before registering routes.
func New(cfg Config, log *logger.Logger) *Server {
	// Gin's debug noise follows the global log level.
	if zerolog.GlobalLevel() <= zerolog.DebugLevel {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	mux := http.NewServeMux()
	mux.Handle("/", engine)

	h2s := &http2.Server{
		MaxConcurrentStreams: 250,
		IdleTimeout:          120 * time.Second,
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      h2c.NewHandler(mux, h2s),
		ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.IdleTimeout) * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		engine:     engine,
		mux:        mux,
		h2s:        h2s,
		config:     cfg,
		log:        log.WithComponent("server"),
	}
}

// GinEngine exposes the engine for route registration.
func (s *Server) GinEngine() *gin.Engine {
	return s.engine
}

// Handler returns the root h2c handler, which tests serve through
// httptest.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start binds the listen address and serves in a goroutine. It returns
// once the listener is bound, so a nil error means the port is taken.
func (s *Server) Start(ctx context.Context) error {
	s.log.Info("starting http server", logger.Fields("addr", s.httpServer.Addr))

	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("server failed to bind %s: %w", s.httpServer.Addr, err)
	}

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.log.Error("http server error", logger.Fields("error", err.Error()))
		}
	}()

	s.log.Info("http server listening", logger.Fields("addr", s.httpServer.Addr))
	return nil
}

// Stop drains in-flight requests with a 5 second deadline.
func (s *Server) Stop(ctx context.Context) error {
	s.log.Info("shutting down http server")

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.log.Error("http server shutdown error", logger.Fields("error", err.Error()))
		return fmt.Errorf("server shutdown error: %w", err)
	}

	s.log.Info("http server shut down")
	return nil
}

// Addr reports the configured listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// ApplyMiddleware installs the standard stack. Recovery, request IDs
// and rate limiting run inside the Gin engine; CORS, the body-size cap
// and request logging wrap the root mux so they also cover anything
// mounted outside the engine.
func (s *Server) ApplyMiddleware() {
	s.engine.Use(middleware.Recovery())
	s.engine.Use(middleware.RequestID())
	if s.config.RateLimitPerMinute > 0 {
		s.engine.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerMinute: s.config.RateLimitPerMinute,
		}))
	}

	outer := []middleware.Middleware{
		middleware.RequestLogger(s.log),
		middleware.CORS(&s.config.CORS),
	}
	if s.config.MaxBodySize != "" {
		outer = append(outer, middleware.BodySizeLimit(s.config.MaxBodySize))
	}
	s.httpServer.Handler = h2c.NewHandler(middleware.Chain(outer...)(s.mux), s.h2s)
}

// RegisterDefaultEndpoints mounts the operational endpoints: /health,
// /info, /version, and /metrics.
func (s *Server) RegisterDefaultEndpoints(serviceName string, checker endpoint.HealthChecker) {
	s.engine.GET("/health", endpoint.Health(serviceName, checker))
	s.engine.GET("/info", endpoint.Info(serviceName))
	s.engine.GET("/version", endpoint.Version())
	s.engine.GET("/metrics", endpoint.Metrics())
}

// ApplyDefaults is ApplyMiddleware plus RegisterDefaultEndpoints.
func (s *Server) ApplyDefaults(serviceName string, checker endpoint.HealthChecker) {
	s.ApplyMiddleware()
	s.RegisterDefaultEndpoints(serviceName, checker)
}
