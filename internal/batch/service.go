// Copyright (c) 2026 Resona. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package batch drives full-library maintenance runs.

Architecture:

  - Service.RunLibraryScan: Walks the top-level artist folders of the
    library root and feeds each one through the folder scanner.
  - Service.RefreshStaleCollections: Re-imports every unlocked collection
    whose last import is older than the configured staleness window.

Both drivers accumulate per-target failures into the result instead of
aborting the run; one unreadable folder never blocks the rest.
*/
package batch

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/taibuivan/resona/internal/cache"
	"github.com/taibuivan/resona/internal/catalog"
	"github.com/taibuivan/resona/internal/importer"
	"github.com/taibuivan/resona/internal/platform/apperr"
	"github.com/taibuivan/resona/internal/platform/opresult"
	"github.com/taibuivan/resona/internal/scanner"
)

// LibrarySummary is the payload of one full-library scan.
type LibrarySummary struct {
	// ArtistFolders is the number of top-level folders visited.
	ArtistFolders int `json:"artist_folders"`

	// FailedFolders counts folders whose scan did not complete.
	FailedFolders int `json:"failed_folders"`

	Scan scanner.Summary `json:"scan"`
}

// RefreshSummary is the payload of one stale-collection refresh run.
type RefreshSummary struct {
	Collections int `json:"collections"`
	Failed      int `json:"failed"`
}

// Service runs batch maintenance over the whole library.
type Service struct {
	store       catalog.Store
	cache       cache.Cache
	scans       *scanner.Service
	imports     *importer.Service
	libraryPath string
	staleAfter  time.Duration
	logger      *slog.Logger
}

func NewService(
	store catalog.Store,
	regionCache cache.Cache,
	scans *scanner.Service,
	imports *importer.Service,
	libraryPath string,
	staleAfter time.Duration,
	logger *slog.Logger,
) *Service {
	return &Service{
		store:       store,
		cache:       regionCache,
		scans:       scans,
		imports:     imports,
		libraryPath: libraryPath,
		staleAfter:  staleAfter,
		logger:      logger,
	}
}

// RunLibraryScan scans every top-level artist folder under the library root.
func (service *Service) RunLibraryScan(ctx context.Context, dryRun bool) opresult.Result[LibrarySummary] {
	started := time.Now()

	folders, err := listArtistFolders(service.libraryPath)
	if err != nil {
		return opresult.Fail[LibrarySummary](time.Since(started), err)
	}

	summary := LibrarySummary{}
	var errs []error
	for _, folder := range folders {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		summary.ArtistFolders++
		result := service.scans.ScanFolder(ctx, folder, dryRun)
		summary.Scan.Add(result.Data)
		errs = append(errs, result.Errors...)
		if !result.IsSuccess {
			summary.FailedFolders++
			service.logger.Warn("library_scan_folder_failed",
				slog.String("folder", folder),
			)
		}

		// A whole-library pass flushes the read cache after every folder so
		// readers never see rows a later folder is about to rewrite.
		if !dryRun {
			if err := service.cache.InvalidateAll(ctx); err != nil {
				service.logger.Warn("cache_invalidation_failed", slog.Any("error", err))
			}
		}
	}

	service.logger.Info("library_scan_finished",
		slog.Int("artist_folders", summary.ArtistFolders),
		slog.Int("failed_folders", summary.FailedFolders),
		slog.Int("new_tracks", summary.Scan.NewTracks),
		slog.Duration("elapsed", time.Since(started)),
	)
	return opresult.Ok(summary, time.Since(started), errs)
}

// RefreshStaleCollections re-imports every unlocked collection whose last
// import predates the staleness window.
func (service *Service) RefreshStaleCollections(ctx context.Context) opresult.Result[RefreshSummary] {
	started := time.Now()

	stale, err := service.store.Collections().ListStaleCollections(ctx, time.Now().Add(-service.staleAfter))
	if err != nil {
		return opresult.Fail[RefreshSummary](time.Since(started), err)
	}

	summary := RefreshSummary{}
	var errs []error
	for _, collection := range stale {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		summary.Collections++
		result := service.imports.ImportCollection(ctx, collection.ExternalID, false)
		errs = append(errs, result.Errors...)
		if !result.IsSuccess {
			summary.Failed++
			service.logger.Warn("collection_refresh_failed",
				slog.String("collection", collection.Name),
			)
		}
	}

	service.logger.Info("collection_refresh_finished",
		slog.Int("collections", summary.Collections),
		slog.Int("failed", summary.Failed),
		slog.Duration("elapsed", time.Since(started)),
	)
	return opresult.Ok(summary, time.Since(started), errs)
}

// listArtistFolders returns the sorted top-level directories of root.
func listArtistFolders(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, apperr.PartialIO(root, err)
	}

	var folders []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		folders = append(folders, filepath.Join(root, entry.Name()))
	}
	sort.Strings(folders)
	return folders, nil
}
