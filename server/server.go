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

	"github.com/kbukum/shadowkit/logger"
	"github.com/kbukum/shadowkit/server/endpoint"
	"github.com/kbukum/shadowkit/server/middleware"
)

// Server is the HTTP server: a Gin engine behind the middleware chain,
// served over HTTP/1.1 and h2c on one port.
type Server struct {
	httpServer *http.Server
	engine     *gin.Engine
	handler    http.Handler
	config     Config
	log        *logger.Logger
	listener   net.Listener
}

// New creates a Server with the standard middleware applied. Register
// routes on Engine before Start.
func New(cfg Config, log *logger.Logger) *Server {
	cfg.ApplyDefaults()
	if zerolog.GlobalLevel() <= zerolog.DebugLevel {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	log = log.WithComponent("server")

	engine := gin.New()
	engine.HandleMethodNotAllowed = true

	chain := middleware.Chain(
		middleware.Recovery(log),
		middleware.RequestID(),
		middleware.BodySizeLimit(cfg.MaxBodyBytes),
		middleware.RequestLogger(log),
	)
	h2s := &http2.Server{
		MaxConcurrentStreams: 250,
		IdleTimeout:          120 * time.Second,
	}
	handler := h2c.NewHandler(chain(engine), h2s)

	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
			Handler:      handler,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  cfg.IdleTimeout,
		},
		engine:  engine,
		handler: handler,
		config:  cfg,
		log:     log,
	}
}

// Engine returns the Gin engine for route registration.
func (s *Server) Engine() *gin.Engine { return s.engine }

// Handler returns the full handler including middleware. Tests serve it
// with httptest.
func (s *Server) Handler() http.Handler { return s.handler }

// RegisterSystemEndpoints registers /health and /version. health is
// usually the component registry's HealthAll.
func (s *Server) RegisterSystemEndpoints(service string, health endpoint.HealthFunc) {
	s.engine.GET("/health", endpoint.Health(service, health))
	s.engine.GET("/version", endpoint.Version())
}

// Start binds the port and serves in a goroutine. It returns once the
// listener is bound.
func (s *Server) Start(ctx context.Context) error {
	var lc net.ListenConfig
	listener, err := lc.Listen(ctx, "tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("server failed to bind %s: %w", s.httpServer.Addr, err)
	}
	s.listener = listener

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			s.log.Error("server error", logger.ErrorFields("serve", err))
		}
	}()

	s.log.Info("HTTP server started", logger.Fields("addr", listener.Addr().String()))
	return nil
}

// Stop gracefully shuts down the server, waiting at most 5 seconds.
func (s *Server) Stop(ctx context.Context) error {
	s.log.Info("shutting down HTTP server")

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.log.Error("server shutdown error", logger.ErrorFields("shutdown", err))
		return fmt.Errorf("server shutdown error: %w", err)
	}
	return nil
}

// Addr returns the bound address once started, else the configured one.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.httpServer.Addr
}
