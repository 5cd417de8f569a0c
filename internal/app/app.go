// Package app initializes and holds long-lived application services, acting as
// a dependency injection container for the CLI.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/JakeFAU/progress-monitor/internal/api"
	"github.com/JakeFAU/progress-monitor/internal/config"
	"github.com/JakeFAU/progress-monitor/internal/hook"
	"github.com/JakeFAU/progress-monitor/internal/progress"
	"github.com/JakeFAU/progress-monitor/internal/progress/sinks"
	"github.com/JakeFAU/progress-monitor/internal/registry"
)

// DefaultMonitors are configured when the configuration defines none.
var DefaultMonitors = map[string]map[string]any{
	"demo": {
		"rule_factory":     "$by_rate",
		"rate":             0.1,
		"callback_factory": "$hub",
		"format_str":       "{$task} {$progressbar} {$iteration} {$time} {$exception}",
		"metrics":          true,
	},
}

const readHeaderTimeout = 5 * time.Second

// Options carries the process level wiring of an App.
type Options struct {
	Stdout io.Writer
	Stderr io.Writer
	// Listen overrides cfg.Server.Listen when set.
	Listen string
}

// App holds the shared, long-lived services: the logger, the monitor
// registry, the status board, the Prometheus registry, the shared output hub
// and the optional status server.
type App struct {
	cfg      config.Config
	logger   *zap.Logger
	metrics  *prometheus.Registry
	board    *sinks.Board
	hub      *progress.Hub
	registry *registry.Registry

	server   *http.Server
	listener net.Listener
	serveErr chan error
}

// NewApp builds every service from cfg. It fails fast when the monitor
// definitions or the status listener cannot be set up.
func NewApp(cfg config.Config, logger *zap.Logger, opts Options) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	if len(cfg.Monitors) == 0 {
		cfg.Monitors = DefaultMonitors
	}

	a := &App{
		cfg:     cfg,
		logger:  logger,
		metrics: prometheus.NewRegistry(),
		board:   sinks.NewBoard(nil),
	}
	metrics, err := hook.NewMetrics(a.metrics)
	if err != nil {
		return nil, fmt.Errorf("register progress metrics: %w", err)
	}
	a.hub = progress.NewHub(progress.Config{Logger: logger.Named("hub")}, sinks.Console(opts.Stdout))
	a.registry = registry.New(
		registry.WithLogger(logger),
		registry.WithStdout(opts.Stdout),
		registry.WithStderr(opts.Stderr),
		registry.WithBoard(a.board),
		registry.WithMetrics(metrics),
		registry.WithHub(a.hub),
	)
	if err := a.registry.Configure(cfg); err != nil {
		_ = a.hub.Close(context.Background())
		return nil, err
	}

	listen := cfg.Server.Listen
	if opts.Listen != "" {
		listen = opts.Listen
	}
	if listen != "" {
		if err := a.serve(listen); err != nil {
			_ = a.hub.Close(context.Background())
			return nil, err
		}
	}
	logger.Info("application services initialized",
		zap.Int("monitors", len(cfg.Monitors)),
		zap.String("listen", a.Addr()),
	)
	return a, nil
}

func (a *App) serve(listen string) error {
	ln, err := net.Listen("tcp", listen)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", listen, err)
	}
	handler := api.NewServer(api.NewProgressHandler(a.board, a.registry, a.logger), a.metrics, a.logger)
	a.listener = ln
	a.server = &http.Server{Handler: handler.Handler(), ReadHeaderTimeout: readHeaderTimeout}
	a.serveErr = make(chan error, 1)
	go func() {
		err := a.server.Serve(ln)
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		a.serveErr <- err
	}()
	return nil
}

// GetLogger returns the shared zap logger.
func (a *App) GetLogger() *zap.Logger {
	return a.logger
}

// GetRegistry returns the configured monitor registry.
func (a *App) GetRegistry() *registry.Registry {
	return a.registry
}

// GetBoard returns the board fed by "board" sinks.
func (a *App) GetBoard() *sinks.Board {
	return a.board
}

// GetMetrics returns the Prometheus registry served on /metrics.
func (a *App) GetMetrics() *prometheus.Registry {
	return a.metrics
}

// GetConfig returns the effective configuration.
func (a *App) GetConfig() config.Config {
	return a.cfg
}

// Addr returns the status server address, or "" when it is disabled.
func (a *App) Addr() string {
	if a.listener == nil {
		return ""
	}
	return a.listener.Addr().String()
}

// Close drains the shared output hub and stops the status server.
func (a *App) Close(ctx context.Context) error {
	a.logger.Debug("shutting down application services")
	var errs []error
	if err := a.hub.Close(ctx); err != nil {
		errs = append(errs, fmt.Errorf("close hub: %w", err))
	}
	if dropped := a.hub.Dropped(); dropped > 0 {
		a.logger.Warn("progress notifications were dropped", zap.Int64("dropped", dropped))
	}
	if a.server != nil {
		if err := a.server.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown status server: %w", err))
		}
		if err := <-a.serveErr; err != nil {
			errs = append(errs, fmt.Errorf("status server: %w", err))
		}
	}
	return errors.Join(errs...)
}
