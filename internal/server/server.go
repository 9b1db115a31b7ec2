// Package server exposes the voxmed application over HTTP: a JSON REST API
// for sessions, vocabulary, review, and templates, a WebSocket endpoint for
// live dictation events, and the usual operational endpoints (/healthz,
// /readyz, /metrics).
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/voxmed/voxmed/internal/app"
	"github.com/voxmed/voxmed/internal/config"
	"github.com/voxmed/voxmed/internal/health"
	"github.com/voxmed/voxmed/internal/observe"
)

// shutdownTimeout bounds graceful shutdown once the run context is cancelled.
const shutdownTimeout = 15 * time.Second

// Server serves the voxmed HTTP and WebSocket API.
type Server struct {
	cfg     config.ServerConfig
	app     *app.App
	metrics *observe.Metrics
	httpSrv *http.Server
}

// Option configures a [Server].
type Option func(*Server)

// WithMetrics overrides the metrics instance used by the HTTP middleware.
func WithMetrics(m *observe.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// New builds a Server around the given application. The provided checkers
// are wired into /readyz.
func New(cfg config.ServerConfig, application *app.App, checkers []health.Checker, opts ...Option) *Server {
	s := &Server{
		cfg:     cfg,
		app:     application,
		metrics: observe.DefaultMetrics(),
	}
	for _, opt := range opts {
		opt(s)
	}

	mux := http.NewServeMux()
	health.New(checkers...).Register(mux)
	mux.Handle("GET /metrics", promhttp.Handler())
	s.registerAPI(mux)
	mux.HandleFunc("GET /ws/sessions/{id}", s.handleDictation)

	s.httpSrv = &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           observe.Middleware(s.metrics)(mux),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// Handler returns the server's root handler, middleware included. It lets
// callers mount the API inside a larger mux or drive it in tests.
func (s *Server) Handler() http.Handler {
	return s.httpSrv.Handler
}

// Run starts the listener and blocks until ctx is cancelled or the listener
// fails. On cancellation the server is shut down gracefully.
func (s *Server) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("http server listening", "addr", s.cfg.ListenAddr, "tls", s.cfg.TLS != nil)
		var err error
		if s.cfg.TLS != nil {
			err = s.httpSrv.ListenAndServeTLS(s.cfg.TLS.CertFile, s.cfg.TLS.KeyFile)
		} else {
			err = s.httpSrv.ListenAndServe()
		}
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server: listen on %s: %w", s.cfg.ListenAddr, err)
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.httpSrv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server: shutdown: %w", err)
		}
		slog.Info("http server stopped")
		return nil
	})

	return g.Wait()
}
