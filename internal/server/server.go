// Package server wires the credential gate into the HTTP API.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/authify/authgate/core"
	authgin "github.com/authify/authgate/framework/gin"
	"github.com/authify/authgate/internal/config"
)

// Deps are the collaborators the server needs.
type Deps struct {
	// Core runs the credential check for the protected group. Required.
	Core *core.Core

	Logger logrus.FieldLogger

	// Gatherer backs /metrics. Nil hides the endpoint.
	Gatherer prometheus.Gatherer
}

// Server is the HTTP API. Routes under /api/v1 require a valid credential;
// everything else is public.
type Server struct {
	engine    *gin.Engine
	protected *gin.RouterGroup
	handler   http.Handler
	http      *http.Server
	logger    logrus.FieldLogger
	shutdown  time.Duration
}

// New builds the router for cfg.
func New(cfg *config.Config, deps Deps) (*Server, error) {
	if deps.Core == nil {
		return nil, errors.New("core is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(RequestID())
	engine.Use(requestLogger(logger))

	engine.GET("/", bannerHandler)
	engine.GET("/health", healthHandler)
	if cfg.Observability.MetricsEnabled && deps.Gatherer != nil {
		engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	protected := engine.Group("/api/v1", authgin.New(deps.Core))
	protected.GET("/auth/me", meHandler)

	handler := cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", requestIDHeader},
		ExposedHeaders:   []string{requestIDHeader},
		AllowCredentials: true,
		MaxAge:           300,
	})(engine)

	s := &Server{
		engine:    engine,
		protected: protected,
		handler:   handler,
		logger:    logger,
		shutdown:  cfg.Server.ShutdownTimeout,
	}
	s.http = &http.Server{
		Addr:              cfg.Server.Address(),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s, nil
}

// Protected returns the authenticated route group so callers can register
// their own endpoints behind the gate.
func (s *Server) Protected() *gin.RouterGroup {
	return s.protected
}

// Handler returns the complete handler, CORS included.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run serves until ctx is done, then shuts down gracefully within the
// configured timeout.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.WithField("addr", s.http.Addr).Info("HTTP server starting")
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdown)
	defer cancel()
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

func requestLogger(logger logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		entry := logger.WithFields(logrus.Fields{
			"request_id": c.GetString(requestIDKey),
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"duration":   time.Since(start),
		})
		if c.Writer.Status() >= http.StatusInternalServerError {
			entry.Warn("request failed")
			return
		}
		entry.Debug("request served")
	}
}
