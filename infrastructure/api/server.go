// Package api serves the REST API and the MCP HTTP transports.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// DefaultShutdownTimeout bounds how long Run waits for in-flight requests.
const DefaultShutdownTimeout = 10 * time.Second

// Server owns the listening socket for the classifier's HTTP surface. Its
// base router carries request ids, real client IPs and panic recovery; the
// per-route timeout lives on /api/v1 because the MCP transports stream.
type Server struct {
	addr            string
	router          chi.Router
	logger          *slog.Logger
	shutdownTimeout time.Duration
	readTimeout     time.Duration

	mu         sync.Mutex
	httpServer *http.Server
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithServerLogger sets the logger.
func WithServerLogger(l *slog.Logger) ServerOption {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithShutdownTimeout bounds the graceful shutdown performed by Run.
func WithShutdownTimeout(d time.Duration) ServerOption {
	return func(s *Server) {
		if d > 0 {
			s.shutdownTimeout = d
		}
	}
}

// WithReadTimeout bounds reading a full request, body included.
func WithReadTimeout(d time.Duration) ServerOption {
	return func(s *Server) {
		if d > 0 {
			s.readTimeout = d
		}
	}
}

// NewServer creates a Server that will listen on addr.
func NewServer(addr string, opts ...ServerOption) *Server {
	s := &Server{
		addr:            addr,
		logger:          slog.Default(),
		shutdownTimeout: DefaultShutdownTimeout,
		readTimeout:     30 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.router = chi.NewRouter()
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)

	return s
}

// Router returns the base router. Mount the APIServer routes on it.
func (s *Server) Router() chi.Router {
	return s.router
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.addr
}

// ListenAndServe listens on the configured address and serves until Shutdown.
func (s *Server) ListenAndServe() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.addr, err)
	}
	return s.Serve(ln)
}

// Serve serves on ln until Shutdown. A clean shutdown returns nil.
func (s *Server) Serve(ln net.Listener) error {
	s.logger.Info("listening", slog.String("addr", ln.Addr().String()))
	if err := s.http().Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

func (s *Server) http() *http.Server {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.httpServer == nil {
		s.httpServer = &http.Server{
			Handler:           s.router,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       s.readTimeout,
			// SSE sessions stay open for their lifetime.
			WriteTimeout: 0,
			IdleTimeout:  120 * time.Second,
		}
	}
	return s.httpServer
}

// Run serves on ln until ctx is done, then drains in-flight requests for up
// to the shutdown timeout. The drain gets its own context since ctx is
// already cancelled by then.
func (s *Server) Run(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() { errCh <- s.Serve(ln) }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server", slog.Duration("timeout", s.shutdownTimeout))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	if err := s.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}

// Shutdown stops accepting connections and waits for active requests until
// ctx expires. A Server that was shut down does not serve again.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http().Shutdown(ctx)
}
