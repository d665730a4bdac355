// Package server provides the HTTP server of the onboarding API.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"getgsa/onboarding/pkg/api/handlers"
	"getgsa/onboarding/pkg/api/middleware"
	"getgsa/onboarding/pkg/compliance/rules"
	"getgsa/onboarding/pkg/config"
	"getgsa/onboarding/pkg/security/auth"
	"getgsa/onboarding/pkg/store"
	"getgsa/onboarding/pkg/telemetry/health"
	"getgsa/onboarding/pkg/telemetry/metrics"
	"getgsa/onboarding/pkg/telemetry/tracing"
)

// ServiceName identifies the API in health responses.
const ServiceName = "getgsa-api"

// Options are the collaborators the server routes requests to.
type Options struct {
	Config   *config.Config
	Analyzer handlers.Analyzer
	Store    store.Store
	Registry *rules.Registry

	// Tokens validates bearer tokens. Required when auth is enabled.
	Tokens *auth.TokenManager

	// Metrics is optional; /metrics answers 404 without it.
	Metrics *metrics.Collector

	// Build information for /version.
	Version   string
	Commit    string
	BuildTime string

	Logger *slog.Logger
}

// Server is the HTTP server of the onboarding API.
type Server struct {
	config       *config.Config
	opts         Options
	handler      http.Handler
	logger       *slog.Logger
	httpServer   *http.Server
	listener     net.Listener
	shutdownChan chan struct{}
	shutdownOnce sync.Once
	mu           sync.RWMutex
	isRunning    bool
}

// NewServer validates opts and builds the route table.
func NewServer(opts Options) (*Server, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if opts.Analyzer == nil {
		return nil, fmt.Errorf("analyzer is required")
	}
	if opts.Store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if opts.Registry == nil {
		return nil, fmt.Errorf("rule registry is required")
	}
	if opts.Config.Security.Auth.Enabled && opts.Tokens == nil {
		return nil, fmt.Errorf("token manager is required when auth is enabled")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	s := &Server{
		config:       opts.Config,
		opts:         opts,
		logger:       opts.Logger.With("component", "server"),
		shutdownChan: make(chan struct{}),
	}
	s.handler = s.setupRoutes()
	return s, nil
}

// Start listens on the configured address and blocks until ctx is
// cancelled, a shutdown signal arrives or the server fails.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return fmt.Errorf("server is already running")
	}

	cfg := s.config.Server
	ln, err := net.Listen("tcp", cfg.ListenAddress)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("failed to listen on %s: %w", cfg.ListenAddress, err)
	}
	s.listener = ln
	s.httpServer = &http.Server{
		Handler:        s.handler,
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		IdleTimeout:    cfg.IdleTimeout,
		MaxHeaderBytes: cfg.MaxHeaderBytes,
	}
	s.isRunning = true
	s.mu.Unlock()

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("Starting API server",
			"address", ln.Addr().String(),
			"auth_enabled", s.config.Security.Auth.Enabled,
			"rate_limit_per_minute", s.config.Limits.RateLimitPerMinute,
		)
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case <-ctx.Done():
		s.logger.Info("Context cancelled, initiating shutdown")
		return s.Shutdown(context.Background())
	case sig := <-sigChan:
		s.logger.Info("Received shutdown signal", "signal", sig.String())
		return s.Shutdown(context.Background())
	case err := <-errChan:
		return err
	case <-s.shutdownChan:
		return s.Shutdown(context.Background())
	}
}

// Shutdown stops accepting connections and waits for in-flight requests,
// up to the configured shutdown timeout.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		close(s.shutdownChan)

		s.mu.Lock()
		if !s.isRunning {
			s.mu.Unlock()
			return
		}
		s.mu.Unlock()

		timeout := s.config.Server.ShutdownTimeout
		if timeout <= 0 {
			timeout = config.DefaultShutdownTimeout
		}
		s.logger.Info("Initiating graceful shutdown", "timeout", timeout.String())

		shutdownCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("Error during server shutdown", "error", err)
			shutdownErr = fmt.Errorf("server shutdown error: %w", err)
		}

		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()

		s.logger.Info("API server stopped")
	})

	return shutdownErr
}

// IsRunning reports whether the server is serving.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Addr returns the bound address, or nil before Start.
func (s *Server) Addr() net.Addr {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Handler returns the routed handler with the full middleware chain.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// publicPaths are served without a token and never rate limited.
func (s *Server) publicPaths() []string {
	paths := append([]string(nil), auth.DefaultPublicPaths...)
	if p := s.config.Telemetry.Metrics.Path; p != "" && p != "/metrics" {
		paths = append(paths, p)
	}
	return paths
}

// setupRoutes configures the routes and the middleware chain.
func (s *Server) setupRoutes() http.Handler {
	mux := http.NewServeMux()
	logger := s.opts.Logger

	checker := health.New(ServiceName, 5*time.Second)
	checker.RegisterCheck("storage", s.opts.Store.Ping)
	checker.RegisterCheck("rules", func(context.Context) error {
		if s.opts.Registry.Current() == nil {
			return fmt.Errorf("no rule pack loaded")
		}
		return nil
	})

	handle := func(pattern string, h http.Handler) {
		mux.Handle(pattern, middleware.Route(pattern, h))
	}

	handle("POST /api/v1/ingest", handlers.NewIngestHandler(s.opts.Analyzer, s.config.Limits, logger))
	handle("POST /api/v1/analyze", handlers.NewAnalyzeHandler(s.opts.Analyzer, logger))
	handle("GET /api/v1/analyze/{id}", handlers.NewResultHandler(s.opts.Analyzer, logger))
	handle("GET /api/v1/rules", handlers.NewRulesHandler(s.opts.Registry))
	handle("GET /health", checker.LivenessHandler())
	handle("GET /api/v1/healthz", checker.ReadinessHandler())
	handle("GET /version", health.VersionHandler(s.opts.Version, s.opts.Commit, s.opts.BuildTime,
		func() string { return s.opts.Registry.Current().Version }))

	if s.config.Telemetry.Metrics.Enabled && s.opts.Metrics != nil {
		path := s.config.Telemetry.Metrics.Path
		if path == "" {
			path = "/metrics"
		}
		handle("GET "+path, s.opts.Metrics.Handler())
	}

	var handler http.Handler = mux

	// Auth (innermost)
	if s.config.Security.Auth.Enabled {
		handler = auth.NewMiddleware(s.opts.Tokens, s.publicPaths()).Handle(handler)
	}

	// Rate limit
	if n := s.config.Limits.RateLimitPerMinute; n > 0 {
		handler = middleware.NewRateLimiter(n, s.publicPaths(), s.opts.Metrics).Middleware(handler)
	}

	handler = middleware.CORSMiddleware(s.config.Server.CORS)(handler)
	handler = tracing.HTTPMiddleware(handler)
	handler = middleware.RequestIDMiddleware(handler)
	handler = middleware.LoggingMiddleware(logger, s.opts.Metrics)(handler)

	// Recovery (outermost)
	handler = middleware.RecoveryMiddleware(handler)

	return handler
}
