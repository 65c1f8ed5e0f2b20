// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/vaultport/internal/api"
	"github.com/starford/vaultport/internal/apperr"
	"github.com/starford/vaultport/internal/converter"
	"github.com/starford/vaultport/internal/index"
	"github.com/starford/vaultport/internal/linter"
	"github.com/starford/vaultport/internal/mcpserver"
	"github.com/starford/vaultport/internal/metrics"
	"github.com/starford/vaultport/internal/sse"
	"github.com/starford/vaultport/internal/storage"
	"github.com/starford/vaultport/internal/vaultservice"
	"github.com/starford/vaultport/internal/watch"
)

func newApplication(opts []Option) (*application, error) {
	app := &application{stdout: os.Stdout, version: "dev"}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if err := app.config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return app, nil
}

// newLogger builds the structured logger: JSON for the server, text for
// command-line runs.
func (a *application) newLogger(json bool, w io.Writer) *slog.Logger {
	if a.logger != nil {
		return a.logger
	}
	level := a.config.App.LogLevel
	if a.verbose {
		level = slog.LevelDebug
	}
	hopts := &slog.HandlerOptions{Level: level}
	if json {
		return slog.New(slog.NewJSONHandler(w, hopts))
	}
	return slog.New(slog.NewTextHandler(w, hopts))
}

// pipeline is an opened export tree, vault and optional catalog.
type pipeline struct {
	src     *storage.FS
	dst     *storage.FS
	catalog *index.DB
	linter  *linter.Linter
	conv    *converter.Converter
}

func (p *pipeline) Close() error {
	if p.catalog == nil {
		return nil
	}
	return p.catalog.Close()
}

// openPipeline checks the source root, creates the destination and wires
// the converter. Nothing is written when the source is missing.
func (a *application) openPipeline(logger *slog.Logger, withCatalog bool, extra ...converter.Option) (*pipeline, error) {
	cfg := a.config.Convert

	info, err := os.Stat(cfg.Source)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", apperr.ErrMissingInput, cfg.Source)
	}
	if err := os.MkdirAll(cfg.Dest, 0o755); err != nil {
		return nil, fmt.Errorf("create vault dir: %w: %w", apperr.ErrFilesystemWrite, err)
	}

	src, err := storage.NewFS(cfg.Source, storage.WithExcludes(cfg.Exclude...))
	if err != nil {
		return nil, fmt.Errorf("init source: %w", err)
	}
	dst, err := storage.NewFS(cfg.Dest)
	if err != nil {
		return nil, fmt.Errorf("init vault: %w", err)
	}

	p := &pipeline{src: src, dst: dst, linter: linter.New(a.config.Lint, logger)}
	opts := []converter.Option{
		converter.WithLogger(logger),
		converter.WithLinter(p.linter),
		converter.WithAttachmentsDir(cfg.AttachmentsDir),
		converter.WithAssetExtensions(cfg.AssetExtensions...),
	}
	if withCatalog {
		db, err := index.Open(a.config.SQLite.Path)
		if err != nil {
			return nil, fmt.Errorf("init catalog: %w", err)
		}
		p.catalog = db
		opts = append(opts, converter.WithCatalog(db), converter.WithSkipUnchanged(cfg.SkipUnchanged))
	}
	p.conv = converter.New(src, dst, append(opts, extra...)...)
	return p, nil
}

func logResult(logger *slog.Logger, res *converter.Result) {
	for _, f := range res.Failures {
		logger.Warn("failed", slog.String("kind", f.Kind), slog.String("source", f.Source), slog.String("error", f.Error))
	}
}

// Run converts the configured export tree into the vault once.
func Run(ctx context.Context, opts ...Option) (*converter.Result, error) {
	app, err := newApplication(opts)
	if err != nil {
		return nil, err
	}
	logger := app.newLogger(false, os.Stderr)

	p, err := app.openPipeline(logger, app.config.Convert.Catalog)
	if err != nil {
		return nil, err
	}
	defer p.Close()

	res, err := p.conv.Run(ctx)
	if err != nil {
		return res, err
	}
	logResult(logger, res)
	return res, nil
}

// Watch converts the export tree once and then keeps the vault in step
// with it until ctx is cancelled.
func Watch(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	logger := app.newLogger(false, os.Stderr)

	p, err := app.openPipeline(logger, app.config.Convert.Catalog)
	if err != nil {
		return err
	}
	defer p.Close()

	res, err := p.conv.Run(ctx)
	if err != nil {
		return err
	}
	logResult(logger, res)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return watch.New(p.conv, p.src, logger).Run(ctx)
}

// Serve runs the HTTP API over a continuously converted vault.
func Serve(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	// Initialize structured JSON logger.
	logger := app.newLogger(true, os.Stdout)
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("source", cfg.Convert.Source),
		slog.String("dest", cfg.Convert.Dest),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// SSE broker.
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	m := metrics.New()

	p, err := app.openPipeline(logger, true,
		converter.WithMetrics(m),
		converter.WithEvents(broker.PublishChange))
	if err != nil {
		return err
	}
	defer p.Close()

	// Initial conversion.
	if _, err := p.conv.Run(ctx); err != nil {
		logger.Warn("initial conversion failed", slog.String("error", err.Error()))
	}

	// Build API handler and router.
	svc := vaultservice.NewService(p.dst, p.catalog)
	h := api.NewHandler(svc, p.conv, p.linter)
	files := api.NewAttachmentHandler(p.dst, cfg.Convert.AttachmentsDir)
	apiRouter := api.NewRouter(h, files, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check and metrics endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", m.Handler())

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	// Keep the vault in step with the export tree.
	g.Go(func() error {
		return watch.New(p.conv, p.src, logger).Run(gCtx)
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

		// Returning an error cancels gCtx so the watcher stops too.
		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

var errShutdown = errors.New("shutdown")

// ServeMCP converts the export tree once and then serves the MCP tools on
// stdin/stdout. Logs go to stderr.
func ServeMCP(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	logger := app.newLogger(false, os.Stderr)

	p, err := app.openPipeline(logger, true)
	if err != nil {
		return err
	}
	defer p.Close()

	if _, err := p.conv.Run(ctx); err != nil {
		logger.Warn("initial conversion failed", slog.String("error", err.Error()))
	}

	svc := vaultservice.NewService(p.dst, p.catalog)
	return mcpserver.New(svc, p.conv, p.linter, app.version).ServeStdio()
}
