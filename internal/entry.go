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

	"github.com/starford/blockdoc/internal/api"
	"github.com/starford/blockdoc/internal/assets"
	"github.com/starford/blockdoc/internal/docservice"
	"github.com/starford/blockdoc/internal/index"
	"github.com/starford/blockdoc/internal/mcpserver"
	"github.com/starford/blockdoc/internal/sse"
	"github.com/starford/blockdoc/internal/storage"
)

// runtime holds the components shared by the HTTP and MCP entry points.
type runtime struct {
	logger *slog.Logger
	store  *storage.FS
	db     *index.DB
	files  *assets.Store
	svc    *docservice.Service
}

func newRuntime(cfg *Config, logOut io.Writer, notify docservice.Notifier) (*runtime, error) {
	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(logOut, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("storage_path", cfg.Storage.Path),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	if err := os.MkdirAll(cfg.Storage.Path, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}

	store, err := storage.NewFS(cfg.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, fmt.Errorf("init index: %w", err)
	}

	if err := index.Sync(db, store, logger); err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}

	svc := docservice.NewService(store, db, docservice.Options{
		SanitizeHTML: cfg.Editor.SanitizeHTML,
		MaxBlocks:    cfg.Editor.MaxBlocks,
		Notify:       notify,
		Logger:       logger,
	})

	return &runtime{
		logger: logger,
		store:  store,
		db:     db,
		files:  assets.NewStore(store.Root()),
		svc:    svc,
	}, nil
}

func (rt *runtime) Close() error {
	return rt.db.Close()
}

func applyOptions(opts []Option) (*Config, error) {
	app := &application{}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	return app.config, nil
}

// Run starts the HTTP server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	cfg, err := applyOptions(opts)
	if err != nil {
		return err
	}

	broker := sse.NewBroker(cfg.Editor.EventThrottle)
	defer broker.Close()

	rt, err := newRuntime(cfg, os.Stdout, broker.PublishDocumentEvent)
	if err != nil {
		return err
	}
	defer rt.Close()
	logger := rt.logger

	apiRouter := api.NewRouter(rt.svc, rt.files, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

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
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		if err := rt.db.Ping(); err != nil {
			http.Error(w, `{"status":"unavailable"}`, http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Image URLs are embedded in documents, so they are served without auth.
	r.Get(assets.URLPrefix+"{filename}", api.NewAttachmentHandler(rt.files).ServeFile)

	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// External edits to document files reach SSE clients and drop stale sessions.
	g.Go(func() error {
		err := index.Watch(gCtx, rt.db, rt.store, cfg.Storage.Path, logger, func(kind, path string) {
			rt.svc.Invalidate(path)
			broker.PublishDocumentEvent(kind, docservice.NameOf(path))
		})
		if err != nil {
			logger.Error("watcher stopped", slog.String("error", err.Error()))
		}
		return nil
	})

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

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// RunMCP serves the MCP tools over stdio. Logs go to stderr because stdout
// carries the protocol.
func RunMCP(_ context.Context, opts ...Option) error {
	cfg, err := applyOptions(opts)
	if err != nil {
		return err
	}

	rt, err := newRuntime(cfg, os.Stderr, nil)
	if err != nil {
		return err
	}
	defer rt.Close()

	rt.logger.Info("Serving MCP over stdio")
	if err := mcpserver.New(rt.svc, rt.files).ServeStdio(); err != nil {
		return fmt.Errorf("mcp server: %w", err)
	}
	return nil
}
