// Package main is the entrypoint for the DataForge API server.
package main

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

	"github.com/dataforge-ai/dataforge/internal/api"
	"github.com/dataforge-ai/dataforge/internal/api/handler"
	mw "github.com/dataforge-ai/dataforge/internal/api/middleware"
	"github.com/dataforge-ai/dataforge/internal/api/response"
	"github.com/dataforge-ai/dataforge/internal/cache"
	"github.com/dataforge-ai/dataforge/internal/config"
	"github.com/dataforge-ai/dataforge/internal/credential"
	"github.com/dataforge-ai/dataforge/internal/openai"
	"github.com/dataforge-ai/dataforge/internal/session"
	"github.com/dataforge-ai/dataforge/internal/store"
	"github.com/dataforge-ai/dataforge/internal/tools"
)

const shutdownTimeout = 30 * time.Second

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load config — fail fast on invalid config
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	slog.Info("config loaded", "env", cfg.Server.Env, "openai_base_url", cfg.OpenAI.BaseURL)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Connect to database
	pool, err := store.Connect(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()
	slog.Info("database connected")

	// 3. Run migrations
	if err := store.RunMigrations(cfg.Database.URL, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	slog.Info("database migrations applied")

	// 4. Create Redis cache
	redisCache, err := cache.NewRedisCache(cfg.Redis.URL)
	if err != nil {
		return fmt.Errorf("create redis cache: %w", err)
	}
	defer redisCache.Close()

	if err := redisCache.Ping(ctx); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}
	slog.Info("redis connected")

	// 5. Create store and services
	pgStore := store.NewPostgresStore(pool)
	sessions := session.NewManager(pgStore, cfg.Auth)

	registry := credential.NewRegistry(pgStore, redisCache, slog.Default())
	go registry.Run(ctx, sessions.Subscribe())

	creds := credential.NewService(pgStore, registry)
	provider := openai.NewClient(cfg.OpenAI.BaseURL, cfg.OpenAI.Timeout)
	toolSvc := tools.NewService(registry, provider, slog.Default())

	// 6. Build router with dependencies
	deps := api.Dependencies{
		Auth:      mw.NewAuth(sessions),
		RateLimit: mw.NewRateLimit(redisCache, 60),

		HealthHandler: healthHandler(pgStore, redisCache),

		SignUpHandler:  handler.NewSignUpHandler(sessions),
		SignInHandler:  handler.NewSignInHandler(sessions),
		SignOutHandler: handler.NewSignOutHandler(sessions),

		CreateKeyHandler:   handler.NewCreateKeyHandler(creds),
		ListKeysHandler:    handler.NewListKeysHandler(creds),
		DeleteKeyHandler:   handler.NewDeleteKeyHandler(creds),
		ActivateKeyHandler: handler.NewActivateKeyHandler(creds),
		ValidateKeyHandler: handler.NewValidateKeyHandler(provider),

		GetModelHandler: handler.NewGetModelHandler(registry),
		SetModelHandler: handler.NewSetModelHandler(registry),

		GenerateHandler: handler.NewToolHandler(toolSvc, tools.KindSynthetic),
		MaskHandler:     handler.NewToolHandler(toolSvc, tools.KindMask),
		ParseHandler:    handler.NewToolHandler(toolSvc, tools.KindParse),
		ExtractHandler:  handler.NewToolHandler(toolSvc, tools.KindExtract),
		QueryHandler:    handler.NewToolHandler(toolSvc, tools.KindQuery),
		BalanceHandler:  handler.NewBalanceHandler(toolSvc),
		AugmentHandler:  handler.NewAugmentHandler(toolSvc),
	}

	router := api.NewRouter(deps)

	// 7. Start HTTP server
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in background
	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for shutdown signal or server error
	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		slog.Info("shutdown signal received, draining connections...")
	}

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped gracefully")
	return nil
}

// healthHandler checks database and cache connectivity.
func healthHandler(s store.Store, c cache.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := map[string]string{
			"database": "ok",
			"cache":    "ok",
		}

		if err := s.Ping(r.Context()); err != nil {
			checks["database"] = "degraded"
		}
		if err := c.Ping(r.Context()); err != nil {
			checks["cache"] = "degraded"
		}

		degraded := checks["database"] != "ok" || checks["cache"] != "ok"
		if degraded {
			response.Error(w, http.StatusServiceUnavailable, "DEGRADED",
				"One or more services degraded", checks)
			return
		}

		response.JSON(w, map[string]any{
			"status":   "ok",
			"services": checks,
		})
	}
}
