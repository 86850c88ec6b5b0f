// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/doclife/internal/api"
	"github.com/starford/doclife/internal/docservice"
	"github.com/starford/doclife/internal/ephemeral"
	"github.com/starford/doclife/internal/folders"
	"github.com/starford/doclife/internal/mcpserver"
	"github.com/starford/doclife/internal/parser"
	"github.com/starford/doclife/internal/scanner"
	"github.com/starford/doclife/internal/sse"
	"github.com/starford/doclife/internal/storage"
	"github.com/starford/doclife/internal/telemetry"
	"github.com/starford/doclife/internal/vcs"
	"github.com/starford/doclife/internal/watcher"
)

// NewService wires storage, change detection, scanning and folder management
// into a document service.
func NewService(cfg *Config, logger *slog.Logger) (*docservice.Service, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	store, err := storage.NewFS(cfg.Docs.Root, cfg.Docs.Extensions...)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	changes := vcs.NewGitSource(cfg.RepoDir(), cfg.Git.Timeout).WithBase(cfg.Docs.Root)

	sc, err := scanner.New(store, changes, scanner.Options{
		Roots:          cfg.Docs.Roots,
		Ephemeral:      cfg.Docs.Ephemeral,
		ExcludeFiles:   cfg.Docs.ExcludeFiles,
		Extensions:     cfg.Docs.Extensions,
		Matching:       parser.Matching(cfg.Docs.StatusMatching),
		DefaultRange:   cfg.Git.DefaultRange,
		CodeExtensions: cfg.Git.CodeExtensions,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("init scanner: %w", err)
	}

	return docservice.NewService(sc, folders.NewManager(store), logger), nil
}

func (a *application) init() error {
	if a.config == nil {
		return fmt.Errorf("config is required")
	}
	if a.logger == nil {
		a.logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: a.config.App.LogLevel,
		}))
	}
	if a.version == "" {
		a.version = "dev"
	}
	return nil
}

// InitTelemetry installs the OpenTelemetry providers described by cfg.
// Exporters write to stderr.
func InitTelemetry(ctx context.Context, cfg *Config, version string) (telemetry.ShutdownFunc, error) {
	return telemetry.Init(ctx, telemetry.Options{
		Enabled:        cfg.Telemetry.Enabled,
		Writer:         os.Stderr,
		Interval:       cfg.Telemetry.Interval,
		ServiceVersion: version,
	})
}

func flushTelemetry(shutdown telemetry.ShutdownFunc, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := shutdown(ctx); err != nil {
		logger.Warn("telemetry shutdown failed", slog.String("error", err.Error()))
	}
}

// Run starts the HTTP server, the file watcher and the SSE broker, and
// blocks until ctx is cancelled or a shutdown signal arrives.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if err := app.init(); err != nil {
		return err
	}

	cfg := app.config
	logger := app.logger
	slog.SetDefault(logger)

	shutdownTelemetry, err := InitTelemetry(ctx, cfg, app.version)
	if err != nil {
		return err
	}
	defer flushTelemetry(shutdownTelemetry, logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("docs_root", cfg.Docs.Root),
		slog.Any("doc_roots", cfg.Docs.Roots),
		slog.String("status_matching", cfg.Docs.StatusMatching),
		slog.String("default_range", cfg.Git.DefaultRange),
		slog.String("auth_mode", cfg.Auth.Mode),
		slog.Bool("auto_apply", cfg.Watch.AutoApply),
		slog.Bool("telemetry", cfg.Telemetry.Enabled),
		slog.String("log_level", cfg.App.LogLevel.String()))

	svc, err := NewService(cfg, logger)
	if err != nil {
		return err
	}

	// SSE broker.
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()
	svc.OnTransition(broker.PublishTransition)

	apiRouter := api.NewRouter(svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if _, err := svc.ManagedDocuments(req.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Start file watcher; settled bursts refresh the report and optionally apply.
	filter := ephemeral.New(cfg.Docs.Ephemeral)
	watchCfg := watcher.Config{
		Root:     cfg.Docs.Root,
		Roots:    cfg.Docs.Roots,
		Debounce: cfg.Watch.Debounce,
		Managed:  svc.Scanner().Managed,
		SkipDir:  filter.MatchDir,
		OnChange: broker.PublishDocumentChanged,
		OnSettle: func(ctx context.Context) {
			settle(ctx, svc, broker, cfg.Watch.AutoApply, logger)
		},
		Logger: logger,
	}
	g.Go(func() error {
		if err := watchWithRetry(gCtx, watchCfg, logger); err != nil && !errors.Is(err, context.Canceled) {
			logger.Warn("watcher disabled", slog.String("error", err.Error()))
		}
		return nil
	})

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return context.Canceled
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// settle runs after the watcher has been quiet for the debounce interval.
func settle(ctx context.Context, svc *docservice.Service, broker *sse.Broker, autoApply bool, logger *slog.Logger) {
	if autoApply {
		res, err := svc.Apply(ctx, "", false)
		if err != nil {
			logger.Warn("auto-apply failed", slog.String("error", err.Error()))
		} else if res.Applied > 0 || res.Failed > 0 {
			logger.Info("auto-apply finished",
				slog.Int("applied", res.Applied),
				slog.Int("failed", res.Failed))
		}
	}

	rep, err := svc.Report(ctx, "")
	if err != nil {
		logger.Warn("report refresh failed", slog.String("error", err.Error()))
		return
	}
	broker.PublishReport(rep.Summary)
}

// RunMCP serves the MCP tools on stdin/stdout until the client disconnects.
func RunMCP(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.logger == nil && app.config != nil {
		// stdout carries the MCP protocol.
		app.logger = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
			Level: app.config.App.LogLevel,
		}))
	}
	if err := app.init(); err != nil {
		return err
	}

	shutdownTelemetry, err := InitTelemetry(ctx, app.config, app.version)
	if err != nil {
		return err
	}
	defer flushTelemetry(shutdownTelemetry, app.logger)

	svc, err := NewService(app.config, app.logger)
	if err != nil {
		return err
	}

	app.logger.Info("MCP server starting", slog.String("docs_root", app.config.Docs.Root))
	return mcpserver.New(svc, app.version).ServeStdio()
}

// watchWithRetry keeps restarting the watcher while no document root exists,
// so roots created after startup are picked up. Other errors stop it.
func watchWithRetry(ctx context.Context, cfg watcher.Config, logger *slog.Logger) error {
	bo := backoff.NewExponentialBackOff()
	bo.MaxInterval = 30 * time.Second
	bo.MaxElapsedTime = 0

	return backoff.Retry(func() error {
		err := watcher.Watch(ctx, cfg)
		if errors.Is(err, watcher.ErrNoRootExists) {
			logger.Debug("watcher waiting for document roots")
			return err
		}
		if err != nil {
			return backoff.Permanent(err)
		}
		return nil
	}, backoff.WithContext(bo, ctx))
}
