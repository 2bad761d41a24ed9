package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"

	"mercator-hq/basicrules/pkg/config"
	"mercator-hq/basicrules/pkg/rules"
	"mercator-hq/basicrules/pkg/ruleset"
	"mercator-hq/basicrules/pkg/server/middleware"
	"mercator-hq/basicrules/pkg/telemetry/health"
)

// Evaluator is the engine surface used by the server. *ruleset.Engine
// implements it.
type Evaluator interface {
	Evaluate(ctx context.Context, data any) (*ruleset.Report, error)
	EvaluateRule(ctx context.Context, name string, data any) (ruleset.RuleResult, error)
	Debug(data any) ([]ruleset.RuleDebug, error)
	Ruleset() *ruleset.Ruleset
}

// Server is the HTTP evaluation service.
type Server struct {
	config   *config.ServerConfig
	engine   Evaluator
	registry *rules.Registry
	logger   *slog.Logger

	checker     *health.Checker
	version     health.VersionInfo
	metricsPath string
	metrics     http.Handler

	httpServer   *http.Server
	shutdownOnce sync.Once
	mu           sync.RWMutex
	isRunning    bool
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// WithRegistry sets the registry used to decode ad-hoc expressions.
func WithRegistry(registry *rules.Registry) Option {
	return func(s *Server) { s.registry = registry }
}

// WithHealth mounts /health, /ready and /version.
func WithHealth(checker *health.Checker, version health.VersionInfo) Option {
	return func(s *Server) {
		s.checker = checker
		s.version = version
	}
}

// WithMetricsHandler mounts a metrics handler at path.
func WithMetricsHandler(path string, handler http.Handler) Option {
	return func(s *Server) {
		s.metricsPath = path
		s.metrics = handler
	}
}

// NewServer creates an evaluation server for engine.
func NewServer(cfg *config.ServerConfig, engine Evaluator, opts ...Option) *Server {
	s := &Server{
		config:   cfg,
		engine:   engine,
		registry: rules.DefaultRegistry,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start listens on the configured address and serves until ctx is done,
// then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.ListenAddress)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.ListenAddress, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		ln.Close()
		return fmt.Errorf("server is already running")
	}
	s.isRunning = true
	s.httpServer = &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}
	s.mu.Unlock()

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("starting evaluation server", "address", ln.Addr().String())
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("context cancelled, initiating shutdown")
		return s.Shutdown(context.Background())
	case err := <-errChan:
		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()
		return err
	}
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.mu.Lock()
		if !s.isRunning {
			s.mu.Unlock()
			return
		}
		s.mu.Unlock()

		s.logger.Info("initiating graceful shutdown", "timeout", s.config.ShutdownTimeout.String())

		shutdownCtx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
		defer cancel()

		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("error during server shutdown", "error", err)
			shutdownErr = fmt.Errorf("server shutdown error: %w", err)
		}

		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()

		s.logger.Info("evaluation server stopped")
	})

	return shutdownErr
}

// IsRunning returns true if the server is running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Handler returns the routes wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /v1/evaluate", s.handleEvaluate)
	mux.HandleFunc("POST /v1/debug", s.handleDebug)
	mux.HandleFunc("GET /v1/rules", s.handleRules)
	mux.HandleFunc("POST /v1/expressions/evaluate", s.handleExpression)

	if s.checker != nil {
		health.Mount(mux, s.checker, s.version)
	}
	if s.metrics != nil {
		mux.Handle(s.metricsPath, s.metrics)
	}

	var handler http.Handler = mux
	handler = middleware.BodyLimitMiddleware(s.config.MaxBodyBytes)(handler)
	handler = middleware.TimeoutMiddleware(s.config.RequestTimeout)(handler)
	handler = middleware.RecoveryMiddleware(s.logger)(handler)
	// Logging sits outside recovery so recovered panics are logged as 500s.
	handler = middleware.LoggingMiddleware(s.logger)(handler)
	handler = middleware.TraceContextMiddleware(handler)
	handler = middleware.RequestIDMiddleware(handler)

	return handler
}
