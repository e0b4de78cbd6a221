package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/teemow/calagent/internal/config"
	"github.com/teemow/calagent/internal/google"
	"github.com/teemow/calagent/internal/instrumentation"
	"github.com/teemow/calagent/internal/logging"
	"github.com/teemow/calagent/internal/server"
	"github.com/teemow/calagent/internal/tools/calendar_tools"
	"github.com/teemow/calagent/internal/tools/common"
	"github.com/teemow/calagent/internal/tools/contact_tools"
	"github.com/teemow/calagent/internal/tools/search_tools"
)

type appOptions struct {
	account     string
	metricsAddr string
	// logOutput receives all logs. The serve command must keep stdout
	// free for the MCP protocol.
	logOutput io.Writer
	tokenDir  string
}

// app holds everything a command needs to run tools.
type app struct {
	cfg      config.Config
	logger   *slog.Logger
	provider *instrumentation.Provider
	sc       *server.ServerContext
	registry *common.Registry
	metrics  *server.MetricsServer
}

func newApp(ctx context.Context, opts appOptions) (*app, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, err
	}

	level := cfg.LogLevel
	if debugMode {
		level = "debug"
	}
	if opts.logOutput == nil {
		opts.logOutput = os.Stderr
	}
	logger := logging.New(level, cfg.LogFormat, opts.logOutput)
	slog.SetDefault(logger)

	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version
	if opts.metricsAddr != "" {
		// Serving /metrics implies the prometheus reader.
		instrConfig.Enabled = true
		instrConfig.MetricsExporter = instrumentation.ExporterPrometheus
	}
	provider, err := instrumentation.NewProvider(ctx, instrConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create instrumentation provider: %w", err)
	}

	tokenDir := opts.tokenDir
	if tokenDir == "" {
		tokenDir = google.DefaultTokenDir()
	}
	sc, err := server.NewServerContext(ctx, server.Config{
		OAuth:           cfg.GoogleOAuth,
		Tokens:          cfg.TokenProvider(tokenDir),
		Account:         opts.account,
		ContactsFile:    cfg.ContactsFile,
		TavilyAPIKey:    cfg.TavilyAPIKey,
		Location:        time.Local,
		Instrumentation: provider,
		AuditLogger:     instrumentation.NewAuditLoggerWithConfig(logger, instrConfig.AuditLogging),
		Logger:          logger,
	})
	if err != nil {
		_ = provider.Shutdown(ctx)
		return nil, fmt.Errorf("failed to create server context: %w", err)
	}

	a := &app{
		cfg:      cfg,
		logger:   logger,
		provider: provider,
		sc:       sc,
	}
	if a.registry, err = registerAllTools(sc, logger); err != nil {
		_ = a.Close(ctx)
		return nil, err
	}

	if opts.metricsAddr != "" {
		if err := a.startMetrics(opts.metricsAddr); err != nil {
			_ = a.Close(ctx)
			return nil, err
		}
	}
	return a, nil
}

// registerAllTools builds the registry every command shares.
func registerAllTools(sc *server.ServerContext, logger *slog.Logger) (*common.Registry, error) {
	reg := common.NewRegistry(logger)
	if err := calendar_tools.RegisterCalendarTools(reg, sc); err != nil {
		return nil, fmt.Errorf("failed to register Calendar tools: %w", err)
	}
	if err := contact_tools.RegisterContactTools(reg, sc); err != nil {
		return nil, fmt.Errorf("failed to register Contact tools: %w", err)
	}
	if err := search_tools.RegisterSearchTools(reg, sc); err != nil {
		return nil, fmt.Errorf("failed to register Search tools: %w", err)
	}
	return reg, nil
}

func (a *app) startMetrics(addr string) error {
	srv, err := server.NewMetricsServer(server.MetricsServerConfig{
		Addr:                    addr,
		InstrumentationProvider: a.provider,
		ServerContext:           a.sc,
		Logger:                  a.logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create metrics server: %w", err)
	}
	if err := srv.Listen(); err != nil {
		return fmt.Errorf("failed to start metrics server: %w", err)
	}
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("metrics server stopped", logging.Err(err))
		}
	}()
	a.logger.Info("metrics server listening", slog.String("addr", srv.Addr()))
	a.metrics = srv
	return nil
}

// Close stops the metrics server, the server context and the telemetry
// pipeline, in that order.
func (a *app) Close(ctx context.Context) error {
	var errs []error
	if a.metrics != nil {
		if err := a.metrics.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to shutdown metrics server: %w", err))
		}
	}
	if err := a.sc.Shutdown(); err != nil {
		errs = append(errs, fmt.Errorf("failed to shutdown server context: %w", err))
	}
	if err := a.provider.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
