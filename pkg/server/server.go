package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
)

const readHeaderTimeout = 10 * time.Second

type Server struct {
	log *slog.Logger
	cfg Config

	handler *Handler
}

func New(log *slog.Logger, cfg Config) (*Server, error) {
	if log == nil {
		return nil, errors.New("logger is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	h, err := NewHandler(log, cfg)
	if err != nil {
		return nil, err
	}

	return &Server{
		log:     log,
		cfg:     cfg,
		handler: h,
	}, nil
}

// Run serves the API on listener and, when metricsListener is not nil, the
// prometheus metrics on metricsListener. It returns once both have stopped,
// either because ctx was cancelled or because one of them failed.
func (s *Server) Run(ctx context.Context, listener, metricsListener net.Listener) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.log.Info("api server listening", "address", listener.Addr().String())
		return s.Serve(ctx, listener)
	})

	if metricsListener != nil {
		g.Go(func() error {
			s.log.Info("prometheus metrics server listening", "address", metricsListener.Addr().String())
			return s.ServeMetrics(ctx, metricsListener)
		})
	}

	return g.Wait()
}

// Serve serves the API until ctx is cancelled. Request contexts derive from
// ctx, so in-flight provider calls are aborted on shutdown.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	srv := &http.Server{
		Handler:           s.handler.Router(),
		ReadHeaderTimeout: readHeaderTimeout,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	return s.serve(ctx, srv, listener)
}

func (s *Server) ServeMetrics(ctx context.Context, listener net.Listener) error {
	mux := http.NewServeMux()
	mux.Handle(MetricsPath, promhttp.Handler())
	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: readHeaderTimeout,
	}
	return s.serve(ctx, srv, listener)
}

func (s *Server) serve(ctx context.Context, srv *http.Server, listener net.Listener) error {
	stop := make(chan struct{})
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		select {
		case <-ctx.Done():
			s.shutdown(srv)
		case <-stop:
		}
	}()

	err := srv.Serve(listener)
	close(stop)
	<-stopped

	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) shutdown(srv *http.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		s.log.Warn("server shutdown did not complete", "error", err)
	}
}
