package api

import (
	"context"
	"net/http"
	"time"

	"github.com/ignite/emailpro/internal/auth"
	"github.com/ignite/emailpro/internal/config"
)

// Server represents the API server
type Server struct {
	config      config.ServerConfig
	handler     http.Handler
	handlers    *Handlers
	server      *http.Server
	authManager *auth.Manager
}

// NewServer creates a new API server. authManager may be nil when auth is
// disabled (local development).
func NewServer(cfg config.ServerConfig, handlers *Handlers, authManager *auth.Manager) *Server {
	return &Server{
		config:      cfg,
		handler:     SetupRoutes(handlers, authManager),
		handlers:    handlers,
		authManager: authManager,
	}
}

// ListenAndServe starts the HTTP server
func (s *Server) ListenAndServe(addr string) error {
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Handler returns the HTTP handler for testing
func (s *Server) Handler() http.Handler {
	return s.handler
}
