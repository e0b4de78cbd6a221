package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/teemow/calagent/internal/instrumentation"
)

const (
	DefaultMetricsAddr         = "127.0.0.1:9090"
	DefaultMetricsReadTimeout  = 10 * time.Second
	DefaultMetricsWriteTimeout = 10 * time.Second
	DefaultMetricsIdleTimeout  = 60 * time.Second
	DefaultShutdownTimeout     = 5 * time.Second
)

// MetricsServerConfig holds configuration for the metrics server.
type MetricsServerConfig struct {
	// Addr to listen on; empty means DefaultMetricsAddr.
	Addr string

	InstrumentationProvider *instrumentation.Provider
	// ServerContext feeds the health endpoints; nil is allowed.
	ServerContext *ServerContext
	Logger        *slog.Logger
}

// MetricsServer serves /metrics and the health endpoints on its own
// listener.
type MetricsServer struct {
	httpServer *http.Server
	listener   net.Listener
	addr       string
	handler    http.Handler
	health     *HealthChecker
	logger     *slog.Logger
}

// NewMetricsServer validates config. The provider must be enabled and use
// the prometheus exporter.
func NewMetricsServer(config MetricsServerConfig) (*MetricsServer, error) {
	if config.Addr == "" {
		config.Addr = DefaultMetricsAddr
	}
	if config.InstrumentationProvider == nil {
		return nil, fmt.Errorf("instrumentation provider is required for metrics server")
	}
	if !config.InstrumentationProvider.Enabled() {
		return nil, fmt.Errorf("instrumentation provider is not enabled")
	}
	handler := config.InstrumentationProvider.MetricsHandler()
	if handler == nil {
		return nil, fmt.Errorf("metrics exporter is not prometheus")
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &MetricsServer{
		addr:    config.Addr,
		handler: handler,
		health:  NewHealthChecker(config.ServerContext),
		logger:  logger,
	}, nil
}

// Handler returns the mux served by Start.
func (s *MetricsServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", s.handler)
	s.health.RegisterHealthEndpoints(mux)
	return mux
}

// Listen binds the address so Addr reports the real port before Start.
func (s *MetricsServer) Listen() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	s.listener = ln
	s.addr = ln.Addr().String()
	return nil
}

// Start serves until Shutdown. It blocks; run it in a goroutine.
// A clean shutdown returns nil.
func (s *MetricsServer) Start() error {
	if s.listener == nil {
		if err := s.Listen(); err != nil {
			return err
		}
	}
	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: DefaultMetricsReadTimeout,
		WriteTimeout:      DefaultMetricsWriteTimeout,
		IdleTimeout:       DefaultMetricsIdleTimeout,
	}

	s.logger.Info("starting metrics server", "addr", s.addr)
	if err := s.httpServer.Serve(s.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the metrics server.
func (s *MetricsServer) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		s.logger.Info("shutting down metrics server")
		return s.httpServer.Shutdown(ctx)
	}
	if s.listener != nil {
		return s.listener.Close()
	}
	return nil
}

// Addr returns the listen address.
func (s *MetricsServer) Addr() string {
	return s.addr
}
