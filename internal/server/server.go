// Package server provides the HTTP server for the leadsync API.
package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/agentstation/leadsync"
	"github.com/agentstation/leadsync/cmd/application"
	"github.com/agentstation/leadsync/internal/server/cache"
	"github.com/agentstation/leadsync/internal/server/middleware"
	"github.com/agentstation/leadsync/pkg/constants"
)

// Server holds the HTTP server state and dependencies.
type Server struct {
	client    leadsync.Client
	cache     *cache.Cache
	limiter   *middleware.RateLimiter
	logger    *zerolog.Logger
	config    Config
	startTime time.Time
}

// New creates a new server instance. The server builds its own leadsync
// client so list schemas are cached across requests.
func New(app application.Application, cfg Config) (*Server, error) {
	logger := app.Logger()

	if cfg.SchemaTTL <= 0 {
		cfg.SchemaTTL = constants.SchemaCacheTTL
	}
	if cfg.PathPrefix == "" {
		cfg.PathPrefix = "/api/v1"
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = constants.ShutdownTimeout
	}

	schemaCache := cache.New(cfg.SchemaTTL, constants.CacheCleanupInterval)
	client, err := app.LeadsyncWithOptions(leadsync.WithSchemaCache(schemaCache))
	if err != nil {
		return nil, fmt.Errorf("creating leadsync client: %w", err)
	}

	logger.Debug().
		Str("list_id", client.ListID()).
		Dur("schema_ttl", cfg.SchemaTTL).
		Msg("Server instance created")

	return &Server{
		client:    client,
		cache:     schemaCache,
		logger:    logger,
		config:    cfg,
		startTime: time.Now(),
	}, nil
}

// Handler returns the configured http.Handler with middleware chain applied.
func (s *Server) Handler() http.Handler {
	return s.setupRouter()
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return net.JoinHostPort(s.config.Host, fmt.Sprint(s.config.Port))
}

// Run serves until ctx is canceled, then drains in-flight requests for up
// to the shutdown timeout.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.Addr(),
		Handler:      s.Handler(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", srv.Addr).Msg("Server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- fmt.Errorf("server failed: %w", err)
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		s.Shutdown()
		return err
	case <-ctx.Done():
		s.logger.Info().Msg("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.config.ShutdownTimeout)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	s.Shutdown()
	if err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	s.logger.Info().Msg("Server stopped gracefully")
	return nil
}

// Shutdown releases background resources. It does not stop a running
// http.Server; Run does that.
func (s *Server) Shutdown() {
	if s.limiter != nil {
		s.limiter.Stop()
	}
	s.cache.Clear()
}

// Cache returns the server's schema cache.
func (s *Server) Cache() *cache.Cache {
	return s.cache
}

// StartTime returns the server start time for uptime calculations.
func (s *Server) StartTime() time.Time {
	return s.startTime
}
