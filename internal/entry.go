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
	"github.com/rs/cors"
	"golang.org/x/sync/errgroup"

	"github.com/starford/wikigraph/internal/api"
	"github.com/starford/wikigraph/internal/linkservice"
	"github.com/starford/wikigraph/internal/mcpserver"
	"github.com/starford/wikigraph/internal/sse"
	"github.com/starford/wikigraph/internal/vault"
	"github.com/starford/wikigraph/internal/watch"
)

// Run starts the HTTP server, the vault watchers and the SSE broker, and
// blocks until ctx is cancelled, a shutdown signal arrives or a component fails.
func Run(ctx context.Context, opts ...Option) error {
	app := newApplication(opts)
	if app.config == nil {
		return fmt.Errorf("config is required")
	}
	cfg := app.config

	logger := NewLogger(os.Stdout, cfg.App.LogLevel)
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.Any("vault_roots", cfg.Vault.Roots),
		slog.String("ignore_file", cfg.Vault.IgnoreFile),
		slog.Bool("watch", cfg.Vault.Watch),
		slog.String("log_level", cfg.App.LogLevel.String()))

	svc := NewLinkService(cfg, logger)

	broker := sse.NewBroker(cfg.SSE.TreeThrottle, logger)
	defer broker.Close()

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           newHandler(cfg, svc, broker),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gCtx := errgroup.WithContext(ctx)

	if cfg.Vault.Watch {
		for _, root := range svc.Roots() {
			policy := loadPolicy(root, cfg.Vault.IgnoreFile, logger)
			g.Go(func() error {
				err := watch.Watch(gCtx, root, policy, logger, func(kind, vaultRoot, rel string) {
					broker.PublishNoteEvent(kind, vaultRoot, rel)
				})
				if err != nil {
					// A vault that cannot be watched still serves queries.
					logger.Error("watcher failed", slog.String("root", root), slog.String("error", err.Error()))
				}
				return nil
			})
		}
	}

	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

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
		cancel()
		// Ends open event streams so Shutdown does not wait on them.
		broker.Close()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
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

// RunMCP serves the link graph tools over MCP stdio until stdin closes.
func RunMCP(_ context.Context, opts ...Option) error {
	app := newApplication(opts)
	if app.config == nil {
		return fmt.Errorf("config is required")
	}
	cfg := app.config

	// stdout carries the protocol.
	logger := NewLogger(os.Stderr, cfg.App.LogLevel)
	slog.SetDefault(logger)

	svc := NewLinkService(cfg, logger)
	logger.Info("MCP server starting", slog.Any("vault_roots", svc.Roots()), slog.String("version", app.version))

	if err := mcpserver.New(svc, app.version).ServeStdio(); err != nil {
		return fmt.Errorf("mcp: serve: %w", err)
	}
	return nil
}

// NewLogger returns the JSON logger used by every entry point.
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

// NewLinkService builds the link service from cfg.
func NewLinkService(cfg *Config, logger *slog.Logger) *linkservice.Service {
	return linkservice.NewService(linkservice.Options{
		AllowedRoots: cfg.Vault.Roots,
		IgnoreFile:   cfg.Vault.IgnoreFile,
	}, logger)
}

func newHandler(cfg *Config, svc *linkservice.Service, broker *sse.Broker) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", healthOK)
	r.Get("/health/ready", healthOK)

	r.Mount("/api", api.NewRouter(svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker))

	// CORS wraps auth so pre-flight requests are answered without a token.
	return cors.New(cors.Options{
		AllowedOrigins:   cfg.App.CORS.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization", "Last-Event-ID"},
		AllowCredentials: true,
	}).Handler(r)
}

func healthOK(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

func loadPolicy(root, ignoreFile string, logger *slog.Logger) *vault.Policy {
	policy, err := vault.LoadPolicy(root, ignoreFile)
	if err != nil {
		logger.Warn("ignore file unreadable, using default policy",
			slog.String("root", root), slog.String("error", err.Error()))
		return vault.DefaultPolicy()
	}
	return policy
}
