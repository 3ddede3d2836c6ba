// Copyright (c) 2026 Resona. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command api is the entry point for the Resona HTTP API server.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from environment variables.
//  3. Connect to PostgreSQL (pgxpool).
//  4. Connect to Redis.
//  5. Run database migrations (idempotent).
//  6. Wire the reconciliation engines and HTTP handlers.
//  7. Start HTTP server with graceful shutdown.
//
// No business logic lives here. All wiring is explicit constructor injection.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/taibuivan/resona/internal/api"
	"github.com/taibuivan/resona/internal/batch"
	"github.com/taibuivan/resona/internal/cache"
	"github.com/taibuivan/resona/internal/catalog"
	"github.com/taibuivan/resona/internal/importer"
	"github.com/taibuivan/resona/internal/merge"
	"github.com/taibuivan/resona/internal/metadata"
	"github.com/taibuivan/resona/internal/pathing"
	"github.com/taibuivan/resona/internal/platform/config"
	"github.com/taibuivan/resona/internal/platform/constants"
	"github.com/taibuivan/resona/internal/platform/migration"
	pgstore "github.com/taibuivan/resona/internal/platform/postgres"
	redisstore "github.com/taibuivan/resona/internal/platform/redis"
	"github.com/taibuivan/resona/internal/rank"
	"github.com/taibuivan/resona/internal/scanner"
)

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	// Initialize first so that subsequent startup errors are structured JSON.
	rawLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	// Add global context to all log entries.
	log := rawLog.With(slog.String("app", "resona"))
	slog.SetDefault(log)

	log.Info("[Resona] service_initializing")

	// ── 2. Configuration ──────────────────────────────────────────────────
	cfg, err := config.Load()
	must(log, err, "load configuration")

	if cfg.Debug {
		debugLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
		log = debugLog.With(slog.String("app", "resona"))
		slog.SetDefault(log)
		log.Debug("debug_logging_enabled")
	}

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
		slog.String("library_path", cfg.LibraryPath),
	)

	// Root context for startup. Use a 30s deadline so misconfiguration is
	// caught quickly rather than hanging indefinitely.
	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	// ── 3. PostgreSQL ─────────────────────────────────────────────────────
	pool, err := pgstore.NewPool(startupCtx, cfg.DatabaseURL, log)
	must(log, err, "connect to postgres")
	defer func() {
		log.Info("closing postgres pool")
		pool.Close()
	}()

	// ── 4. Redis ──────────────────────────────────────────────────────────
	rdb, err := redisstore.NewClient(startupCtx, cfg.RedisURL, log)
	must(log, err, "connect to redis")
	defer func() {
		log.Info("closing redis client")
		if cerr := rdb.Close(); cerr != nil {
			log.Error("redis close error", slog.Any("error", cerr))
		}
	}()

	// ── 5. Migrations ─────────────────────────────────────────────────────
	must(log, migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, log), "run migrations")

	// ── 6. Health handlers (wired with real dependency checkers) ──────────
	liveness, readiness := api.NewHealthHandlers(api.HealthDependencies{
		CheckDatabase: func() error {
			return pgstore.Ping(context.Background(), pool)
		},
		CheckCache: func() error {
			return redisstore.Ping(context.Background(), rdb)
		},
	}, log)

	// ── 7. Engine Wiring ──────────────────────────────────────────────────
	store := catalog.NewStore(pool)
	regions := cache.NewRegions(rdb, cfg.CacheTTL, log)
	lease := cache.NewLease(rdb, cfg.LockTTL, log)
	tagFiles := metadata.NewTagLib()
	paths := pathing.NewResolver(cfg.LibraryPath)

	ranker := rank.NewService(store, regions, log)
	scans := scanner.NewService(store, regions, lease, tagFiles, paths, ranker, cfg.ScanWorkers, log)
	merges := merge.NewService(store, regions, lease, paths, tagFiles, tagFiles, ranker, scans, log)
	imports := importer.NewService(store, regions, lease, ranker, log)
	library := batch.NewService(store, regions, scans, imports, cfg.LibraryPath, cfg.CollectionStaleAfter, log)

	// ── 8. HTTP Server ────────────────────────────────────────────────────
	handlers := api.Handlers{
		Liveness:  liveness,
		Readiness: readiness,
		Scan:      scanner.NewHandler(scans, store),
		Merge:     merge.NewHandler(merges),
		Import:    importer.NewHandler(imports, store, regions),
		Library:   batch.NewHandler(library),
	}

	server := api.NewServer(context.Background(), cfg, log, handlers)

	// ── 9. Graceful Shutdown ──────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Block until OS signal or server error.
	select {
	case sig := <-quit:
		log.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("server startup error", slog.Any("error", err))
	}

	// Give in-flight requests enough time to complete.
	shutdownTimeout := constants.ShutdownTimeout
	log.Info("shutting down server", slog.Duration("timeout", shutdownTimeout))

	if err := server.Shutdown(shutdownTimeout); err != nil {
		log.Error("shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	log.Info("server stopped cleanly")
}

// must logs a structured fatal error and terminates the process if err is non-nil.
//
// It is intentionally limited to startup wiring. After startup, all errors
// must be returned and handled explicitly (never panic).
func must(log *slog.Logger, err error, context string) {
	if err != nil {
		log.Error("startup failure",
			slog.String("context", context),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}
