package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/confkit/config-store/internal/application"
	"github.com/confkit/config-store/internal/infrastructure/config"
	"github.com/confkit/config-store/internal/infrastructure/database"
	"github.com/confkit/config-store/internal/infrastructure/logging"
)

// defaultShutdownTimeout bounds graceful shutdown when the configuration
// carries no value.
const defaultShutdownTimeout = 10 * time.Second

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config         config.ServerConfig
	Logger         *logging.Logger
	Pool           *database.Pool
	Applications   application.Repository
	Configurations application.ConfigurationRepository
	Version        string
}

// Server is the HTTP API server for the config store.
//
// It manages the HTTP listener, routes, and middleware. The server is
// created with New() and started with Start().
type Server struct {
	cfg            config.ServerConfig
	logger         *logging.Logger
	pool           *database.Pool
	applications   application.Repository
	configurations application.ConfigurationRepository
	version        string
	server         *http.Server
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
//
// Parameters:
//   - deps: Required dependencies (config, logger, pool, repositories)
//
// Returns:
//   - *Server: Configured server ready to start
//   - error: If required dependencies are missing
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Pool == nil {
		return nil, fmt.Errorf("database pool is required")
	}
	if deps.Applications == nil {
		return nil, fmt.Errorf("application repository is required")
	}
	if deps.Configurations == nil {
		return nil, fmt.Errorf("configuration repository is required")
	}

	return &Server{
		cfg:            deps.Config,
		logger:         deps.Logger,
		pool:           deps.Pool,
		applications:   deps.Applications,
		configurations: deps.Configurations,
		version:        deps.Version,
	}, nil
}

// Start begins listening for HTTP connections.
//
// It builds the router and launches the HTTP listener in a background
// goroutine. A listener failure (port in use, etc.) is logged from that
// goroutine; the server is stopped with Close().
func (s *Server) Start() error {
	router := s.buildRouter()

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           router,
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	go func() {
		s.logger.Info("API server listening", "address", s.server.Addr)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Close gracefully shuts down the API server.
//
// It waits up to the configured shutdown timeout for in-flight requests
// to complete, then forcefully closes remaining connections.
//
// Returns:
//   - error: If shutdown encounters an error
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	timeout := time.Duration(s.cfg.Timeouts.Shutdown) * time.Second
	if timeout <= 0 {
		timeout = defaultShutdownTimeout
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}
