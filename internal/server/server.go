package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/veridianlabs/lexrag/internal/observability"
)

// Server is the lexrag HTTP API server.
type Server struct {
	asker   Asker
	health  *Health
	metrics *observability.LexragMetrics
	audit   *observability.AuditLogger
	logger  *slog.Logger

	shutdownTimeout time.Duration
	httpServer      *http.Server
}

// Options configures the server.
type Options struct {
	Addr            string
	Version         string
	ShutdownTimeout time.Duration
	Metrics         *observability.LexragMetrics
	Audit           *observability.AuditLogger
	Logger          *slog.Logger
}

// New creates the API server. Defaults apply for every unset option.
func New(asker Asker, opts Options) (*Server, error) {
	if asker == nil {
		return nil, fmt.Errorf("query service is required")
	}
	if opts.Addr == "" {
		opts.Addr = ":8000"
	}
	if opts.ShutdownTimeout == 0 {
		opts.ShutdownTimeout = 10 * time.Second
	}
	if opts.Metrics == nil {
		opts.Metrics = observability.Metrics()
	}
	if opts.Audit == nil {
		audit, err := observability.NewAuditLogger(&observability.AuditConfig{Enabled: false})
		if err != nil {
			return nil, err
		}
		opts.Audit = audit
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	s := &Server{
		asker:           asker,
		health:          NewHealth(opts.Version),
		metrics:         opts.Metrics,
		audit:           opts.Audit,
		logger:          opts.Logger,
		shutdownTimeout: opts.ShutdownTimeout,
	}
	s.httpServer = &http.Server{
		Addr:              opts.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		// No WriteTimeout: streaming responses outlive any fixed budget.
	}
	return s, nil
}

// Handler returns the full route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/ask", s.handleAsk)
	mux.Handle("/metrics", s.metrics.Registry.Handler())
	s.health.Register(mux)
	return mux
}

// Health exposes the health tracker for check registration.
func (s *Server) Health() *Health {
	return s.health
}

// ListenAndServe serves until ctx is cancelled, then drains connections.
func (s *Server) ListenAndServe(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", s.httpServer.Addr)
		errCh <- s.httpServer.ListenAndServe()
	}()
	s.health.SetReady(true)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.health.SetReady(false)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down http server: %w", err)
	}
	return nil
}

// Shutdown drains the server outside of ListenAndServe.
func (s *Server) Shutdown(ctx context.Context) error {
	s.health.SetReady(false)
	return s.httpServer.Shutdown(ctx)
}
