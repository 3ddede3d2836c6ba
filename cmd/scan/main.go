// Copyright (c) 2026 Resona. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command scan drives library maintenance from the command line.
//
// Usage:
//
//	scan                  # scan every artist folder under LIBRARY_PATH
//	scan -dry-run         # report what a scan would change, write nothing
//	scan -collections     # re-import stale collections instead of scanning
//
// Configuration comes from the same environment variables as the API server.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/taibuivan/resona/internal/batch"
	"github.com/taibuivan/resona/internal/cache"
	"github.com/taibuivan/resona/internal/catalog"
	"github.com/taibuivan/resona/internal/importer"
	"github.com/taibuivan/resona/internal/metadata"
	"github.com/taibuivan/resona/internal/pathing"
	"github.com/taibuivan/resona/internal/platform/config"
	"github.com/taibuivan/resona/internal/platform/migration"
	pgstore "github.com/taibuivan/resona/internal/platform/postgres"
	redisstore "github.com/taibuivan/resona/internal/platform/redis"
	"github.com/taibuivan/resona/internal/rank"
	"github.com/taibuivan/resona/internal/scanner"
)

func main() {
	dryRun := flag.Bool("dry-run", false, "report changes without applying them")
	collections := flag.Bool("collections", false, "refresh stale collections instead of scanning folders")
	flag.Parse()

	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})).With(slog.String("app", "resona-scan"))
	slog.SetDefault(log)

	cfg, err := config.Load()
	must(log, err, "load configuration")

	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	pool, err := pgstore.NewPool(startupCtx, cfg.DatabaseURL, log)
	must(log, err, "connect to postgres")
	defer pool.Close()

	rdb, err := redisstore.NewClient(startupCtx, cfg.RedisURL, log)
	must(log, err, "connect to redis")
	defer rdb.Close()

	must(log, migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, log), "run migrations")

	store := catalog.NewStore(pool)
	regions := cache.NewRegions(rdb, cfg.CacheTTL, log)
	lease := cache.NewLease(rdb, cfg.LockTTL, log)
	paths := pathing.NewResolver(cfg.LibraryPath)

	ranker := rank.NewService(store, regions, log)
	scans := scanner.NewService(store, regions, lease, metadata.NewTagLib(), paths, ranker, cfg.ScanWorkers, log)
	imports := importer.NewService(store, regions, lease, ranker, log)
	library := batch.NewService(store, regions, scans, imports, cfg.LibraryPath, cfg.CollectionStaleAfter, log)

	ctx := context.Background()

	if *collections {
		result := library.RefreshStaleCollections(ctx)
		for _, message := range result.ErrorMessages() {
			log.Warn("refresh_error", slog.String("error", message))
		}
		if !result.IsSuccess {
			os.Exit(1)
		}
		return
	}

	result := library.RunLibraryScan(ctx, *dryRun)
	for _, message := range result.ErrorMessages() {
		log.Warn("scan_error", slog.String("error", message))
	}
	if !result.IsSuccess {
		os.Exit(1)
	}
}

// must logs a structured fatal error and terminates the process if err is non-nil.
func must(log *slog.Logger, err error, context string) {
	if err != nil {
		log.Error("startup failure",
			slog.String("context", context),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}
