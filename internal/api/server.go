// Package api serves the engine over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"github.com/dbsee/dbsee/internal/auth"
	"github.com/dbsee/dbsee/internal/config"
	"github.com/dbsee/dbsee/internal/engine"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"
)

// Server is the HTTP API server.
type Server struct {
	engine  *engine.Engine
	auth    *auth.Authenticator
	cfg     config.ServerConfig
	version string
	logger  *slog.Logger
}

// Config holds configuration for the API server.
type Config struct {
	Engine  *engine.Engine
	Server  config.ServerConfig
	Auth    config.AuthConfig
	Version string
	Logger  *slog.Logger
	// Verifier overrides the static token verifier built from Auth.Tokens.
	Verifier auth.Verifier
}

// NewServer creates a new API server instance.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Engine == nil {
		return nil, errors.New("engine is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	srvCfg := cfg.Server
	config.ApplyServerDefaults(&srvCfg)
	authCfg := cfg.Auth
	config.ApplyAuthDefaults(&authCfg)
	if err := authCfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid auth config: %w", err)
	}

	verifier := cfg.Verifier
	if verifier == nil {
		if len(authCfg.Tokens) == 0 {
			logger.Warn("no API tokens configured, every authenticated route will answer 401")
		}
		verifier = auth.NewStaticVerifier(authCfg.Tokens)
	}

	return &Server{
		engine:  cfg.Engine,
		auth:    auth.NewAuthenticator(verifier, auth.NewSessions(authCfg.SessionSecret, authCfg.SessionMaxAge)),
		cfg:     srvCfg,
		version: cfg.Version,
		logger:  logger,
	}, nil
}

// Handler returns the router with every route and middleware mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewMux()
	r.Use(
		requestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
		middleware.Compress(5),
	)
	s.routes(r)
	return r
}

// Serve starts the API server and blocks until the context is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.Addr(), err)
	}
	return s.ServeListener(ctx, ln)
}

// ServeListener serves on ln until ctx is cancelled, then shuts down
// gracefully within the configured timeout.
func (s *Server) ServeListener(ctx context.Context, ln net.Listener) error {
	s.logger.Info("starting API server", "addr", ln.Addr().String())

	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Handler: s.Handler(),
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: s.cfg.ReadHeaderTimeout,
	}

	eg.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown
	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()

		s.logger.Debug("shutting down API server...")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}
