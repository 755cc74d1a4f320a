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

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/ansuz/internal/api"
	"github.com/starford/ansuz/internal/editor"
	"github.com/starford/ansuz/internal/index"
	"github.com/starford/ansuz/internal/mcpserver"
	"github.com/starford/ansuz/internal/noteservice"
	"github.com/starford/ansuz/internal/registry"
	"github.com/starford/ansuz/internal/rewrite"
	"github.com/starford/ansuz/internal/scheduler"
	"github.com/starford/ansuz/internal/sse"
	"github.com/starford/ansuz/internal/storage"
)

// Run starts the application with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("vault_path", cfg.Vault.Path),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.Duration("settle_delay", cfg.Linker.SettleDelay()),
		slog.Duration("edit_debounce", cfg.Linker.EditDebounce()),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// Ensure vault directory exists.
	if err := os.MkdirAll(cfg.Vault.Path, 0o755); err != nil {
		return fmt.Errorf("create vault dir: %w", err)
	}

	// Initialize storage.
	store, err := storage.NewFS(cfg.Vault.Path)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}

	// Initialize SQLite index.
	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return fmt.Errorf("init index: %w", err)
	}
	defer db.Close()

	// Run initial sync.
	if err := index.Sync(db, store, logger); err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}

	// Build the tag registry from the synced index.
	reg := registry.New(db, logger)
	if err := reg.Refresh(); err != nil {
		return fmt.Errorf("init registry: %w", err)
	}
	logger.Info("Tag registry built", slog.Int("tags", reg.Size()))

	// SSE broker.
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	// Rewrite engine over storage + index + registry.
	rewriter := rewrite.NewRewriter(store, db, reg, logger)
	rewriter.OnTagged = func(path string) {
		broker.PublishNoteEvent("tagged", path)
	}

	// MCP stdio mode serves tools and exits; no HTTP, no watcher.
	if app.mcpStdio {
		logger.Info("Serving MCP tools on stdio")
		return mcpserver.New(store, db, reg, rewriter).ServeStdio()
	}

	// Timer scheduler for the two deferred-rewrite policies.
	sched := scheduler.New(cfg.Linker.SettleDelay(), cfg.Linker.EditDebounce())
	defer sched.Close()

	// Live editing buffers: each change debounces a buffer rewrite pass.
	bufs := editor.NewBuffers()
	bufs.OnChange = func(id string) {
		sched.Debounce("session/"+id, func() {
			rewriteBuffer(bufs, reg, id, logger)
		})
	}
	bufs.OnClose = func(id string) {
		sched.Cancel("session/" + id)
	}

	// Build API service and router.
	svc := noteservice.NewService(store, db)
	apiRouter := api.NewRouter(svc, reg, rewriter, bufs, cfg.Auth.AuthEnabled(), cfg.Auth.Token, http.HandlerFunc(broker.ServeHTTP))

	// Build chi router.
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
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Start file watcher: index mutations refresh the registry and settle-
	// schedule document rewrites.
	g.Go(func() error {
		hooks := index.Hooks{
			OnChange: broker.PublishNoteEvent,
			OnTagsChanged: func() {
				if err := reg.Refresh(); err != nil {
					logger.Warn("registry refresh failed", slog.String("error", err.Error()))
					return
				}
				broker.PublishRegistryUpdated(reg.Size())
			},
			ScheduleRewrite: func(path string) {
				sched.Settle(path, func() {
					if _, err := rewriter.RewriteDocument(gCtx, path); err != nil {
						logger.Warn("scheduled rewrite failed",
							slog.String("path", path),
							slog.String("error", err.Error()))
					}
				})
			},
		}
		return index.Watch(gCtx, db, store, cfg.Vault.Path, logger, hooks)
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

// rewriteBuffer runs one rewrite pass over a live buffer. The buffer may have
// been closed between scheduling and firing; that is not an error.
func rewriteBuffer(bufs *editor.Buffers, reg *registry.Registry, id string, logger *slog.Logger) {
	content, err := bufs.Get(id)
	if err != nil {
		logger.Debug("buffer rewrite skipped", slog.String("session", id))
		return
	}
	out, changed := rewrite.Apply(content, reg.Tags())
	if !changed {
		return
	}
	// Compare-and-swap against the content this pass read; an edit that landed
	// mid-pass wins, and its own debounce rewrites the fresh content.
	if err := bufs.Replace(id, content, out); err != nil {
		logger.Debug("buffer changed before rewrite applied", slog.String("session", id))
		return
	}
	logger.Debug("buffer rewritten", slog.String("session", id))
}
