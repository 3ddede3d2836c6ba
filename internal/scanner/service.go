// Copyright (c) 2026 Resona. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package scanner reconciles the on-disk music library with the catalog.

Architecture:

  - Service: The folder scanner. One scan targets a single release folder
    (ScanRelease) or every folder of an artist (ScanArtistFolders, ScanFolder).
  - Per-file metadata extraction runs in parallel (bounded by the configured
    worker count); all catalog writes happen sequentially afterwards.
  - Scans are serialized per entity through advisory leases, tolerate partial
    file failures, and append one ScanHistory row per invocation.

A dry run walks the exact same pipeline but performs no catalog writes, no
file moves and no history append.
*/
package scanner

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"github.com/taibuivan/resona/internal/cache"
	"github.com/taibuivan/resona/internal/catalog"
	"github.com/taibuivan/resona/internal/metadata"
	"github.com/taibuivan/resona/internal/pathing"
	"github.com/taibuivan/resona/internal/platform/apperr"
	"github.com/taibuivan/resona/internal/platform/opresult"
	"github.com/taibuivan/resona/internal/rank"
	"github.com/taibuivan/resona/pkg/convert"
	"github.com/taibuivan/resona/pkg/uuidv7"
)

// Summary is the payload of one scan result.
type Summary struct {
	NewArtists    int `json:"new_artists"`
	NewReleases   int `json:"new_releases"`
	NewTracks     int `json:"new_tracks"`
	UpdatedTracks int `json:"updated_tracks"`
	MissingTracks int `json:"missing_tracks"`
	SkippedFiles  int `json:"skipped_files"`
}

// Add accumulates another summary into s.
func (s *Summary) Add(other Summary) {
	s.NewArtists += other.NewArtists
	s.NewReleases += other.NewReleases
	s.NewTracks += other.NewTracks
	s.UpdatedTracks += other.UpdatedTracks
	s.MissingTracks += other.MissingTracks
	s.SkippedFiles += other.SkippedFiles
}

// Service is the folder scanner.
type Service struct {
	store   catalog.Store
	cache   cache.Cache
	locks   cache.Locker
	meta    metadata.Reader
	paths   *pathing.Resolver
	ranker  *rank.Service
	workers int
	logger  *slog.Logger
}

// NewService creates the scanner. workers bounds parallel tag extraction
// within one folder.
func NewService(
	store catalog.Store,
	regionCache cache.Cache,
	locks cache.Locker,
	reader metadata.Reader,
	paths *pathing.Resolver,
	ranker *rank.Service,
	workers int,
	logger *slog.Logger,
) *Service {
	if workers < 1 {
		workers = 1
	}
	return &Service{
		store:   store,
		cache:   regionCache,
		locks:   locks,
		meta:    reader,
		paths:   paths,
		ranker:  ranker,
		workers: workers,
		logger:  logger,
	}
}

// ScanRelease reconciles one release's folder against its catalog rows.
func (service *Service) ScanRelease(ctx context.Context, releaseExternalID string, dryRun bool) opresult.Result[Summary] {
	started := time.Now()

	release, err := service.store.Releases().GetReleaseByExternalID(ctx, releaseExternalID)
	if err != nil {
		return opresult.Classify[Summary](time.Since(started), err)
	}
	artist, err := service.store.Artists().GetArtist(ctx, release.ArtistID)
	if err != nil {
		return opresult.Classify[Summary](time.Since(started), err)
	}

	unlock, err := service.locks.Acquire(ctx, "release:"+release.ExternalID)
	if err != nil {
		return opresult.Fail[Summary](time.Since(started), err)
	}
	defer unlock()

	summary, errs, scanErr := service.safeScan(ctx, artist, release, dryRun)
	if scanErr == nil && !dryRun {
		service.ranker.TouchRelease(ctx, release.ID)
		service.invalidate(ctx, artist, release)
	}
	service.record(ctx, &artist.ID, &release.ID, summary, time.Since(started), scanErr == nil, dryRun)

	if scanErr != nil {
		return opresult.Fail[Summary](time.Since(started), append(errs, scanErr)...)
	}
	service.logger.Info("release_scanned",
		slog.String("release_id", release.ExternalID),
		slog.Bool("dry_run", dryRun),
		slog.Int("new_tracks", summary.NewTracks),
		slog.Int("updated_tracks", summary.UpdatedTracks),
		slog.Int("missing_tracks", summary.MissingTracks),
	)
	return opresult.Ok(summary, time.Since(started), errs)
}

// ScanArtistFolders reconciles every release folder of one artist, picking up
// release folders that exist on disk but not yet in the catalog.
func (service *Service) ScanArtistFolders(ctx context.Context, artistExternalID string, dryRun bool) opresult.Result[Summary] {
	started := time.Now()

	artist, err := service.store.Artists().GetArtistByExternalID(ctx, artistExternalID)
	if err != nil {
		return opresult.Classify[Summary](time.Since(started), err)
	}

	unlock, err := service.locks.Acquire(ctx, "artist:"+artist.ExternalID)
	if err != nil {
		return opresult.Fail[Summary](time.Since(started), err)
	}
	defer unlock()

	summary, errs := service.scanArtistTree(ctx, artist, dryRun)
	if !dryRun {
		if err := service.ranker.UpdateArtistCounts(ctx, artist.ID); err != nil {
			errs = append(errs, err)
		}
	}
	service.record(ctx, &artist.ID, nil, summary, time.Since(started), true, dryRun)

	service.logger.Info("artist_scanned",
		slog.String("artist_id", artist.ExternalID),
		slog.Bool("dry_run", dryRun),
		slog.Int("new_releases", summary.NewReleases),
		slog.Int("new_tracks", summary.NewTracks),
	)
	return opresult.Ok(summary, time.Since(started), errs)
}

// ScanFolder reconciles one artist folder by path, creating the artist row
// when the folder is new to the catalog. The library batch scan feeds it one
// top-level folder at a time.
func (service *Service) ScanFolder(ctx context.Context, artistDir string, dryRun bool) opresult.Result[Summary] {
	started := time.Now()
	var summary Summary

	name := folderBase(artistDir)
	artist, err := service.store.Artists().FindArtistByName(ctx, name)
	switch {
	case apperr.IsNotFound(err):
		summary.NewArtists++
		if dryRun {
			return opresult.Ok(summary, time.Since(started), nil)
		}
		artist = &catalog.Artist{
			ExternalID: uuidv7.Must(),
			Name:       name,
			SortName:   name,
			Type:       catalog.ArtistTypePerson,
		}
		if err := service.store.Artists().CreateArtist(ctx, artist); err != nil {
			return opresult.Fail[Summary](time.Since(started), err)
		}
		service.logger.Info("artist_discovered", slog.String("name", name))
	case err != nil:
		return opresult.Classify[Summary](time.Since(started), err)
	}

	unlock, err := service.locks.Acquire(ctx, "artist:"+artist.ExternalID)
	if err != nil {
		return opresult.Fail[Summary](time.Since(started), err)
	}
	defer unlock()

	treeSummary, errs := service.scanArtistTree(ctx, artist, dryRun)
	summary.Add(treeSummary)
	if !dryRun {
		if err := service.ranker.UpdateArtistCounts(ctx, artist.ID); err != nil {
			errs = append(errs, err)
		}
	}
	service.record(ctx, &artist.ID, nil, summary, time.Since(started), true, dryRun)

	return opresult.Ok(summary, time.Since(started), errs)
}

// RescanArtist re-reconciles every folder of the artist without taking the
// artist lease. The merge engine calls it while already holding that lease.
func (service *Service) RescanArtist(ctx context.Context, artist *catalog.Artist) (Summary, []error) {
	summary, errs := service.scanArtistTree(ctx, artist, false)
	if err := service.ranker.UpdateArtistCounts(ctx, artist.ID); err != nil {
		errs = append(errs, err)
	}
	return summary, errs
}

// RescanRelease re-reconciles one release folder without taking its lease.
func (service *Service) RescanRelease(ctx context.Context, artist *catalog.Artist, release *catalog.Release) (Summary, []error, error) {
	summary, errs, err := service.safeScan(ctx, artist, release, false)
	if err == nil {
		service.ranker.TouchRelease(ctx, release.ID)
		service.invalidate(ctx, artist, release)
	}
	return summary, errs, err
}

// scanArtistTree scans every catalog release of the artist, then discovers
// on-disk release folders with no catalog row yet.
func (service *Service) scanArtistTree(ctx context.Context, artist *catalog.Artist, dryRun bool) (Summary, []error) {
	var summary Summary
	var errs []error

	releases, err := service.store.Releases().ListReleasesByArtist(ctx, artist.ID)
	if err != nil {
		return summary, []error{err}
	}

	for _, release := range releases {
		unlock, err := service.locks.Acquire(ctx, "release:"+release.ExternalID)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		releaseSummary, releaseErrs, scanErr := service.safeScan(ctx, artist, release, dryRun)
		unlock()

		summary.Add(releaseSummary)
		errs = append(errs, releaseErrs...)
		if scanErr != nil {
			errs = append(errs, scanErr)
			continue
		}
		if !dryRun {
			service.ranker.TouchRelease(ctx, release.ID)
			service.invalidate(ctx, artist, release)
		}
	}

	discoverySummary, discoveryErrs := service.discoverReleases(ctx, artist, releases, dryRun)
	summary.Add(discoverySummary)
	errs = append(errs, discoveryErrs...)

	return summary, errs
}

var releaseFolderPattern = regexp.MustCompile(`^(.*?)\s*\((\d{4})\)$`)

// discoverReleases creates catalog rows for release folders present on disk
// but unknown to the catalog, then scans them.
func (service *Service) discoverReleases(ctx context.Context, artist *catalog.Artist, known []*catalog.Release, dryRun bool) (Summary, []error) {
	var summary Summary
	var errs []error

	knownDirs := make(map[string]bool, len(known))
	for _, release := range known {
		knownDirs[service.paths.ReleaseDir(artist.SortName, release.SortTitle, release.Year())] = true
	}

	for _, dir := range listSubdirs(service.paths.ArtistDir(artist.SortName)) {
		if knownDirs[dir] {
			continue
		}

		title, year := parseReleaseFolder(folderBase(dir))
		release, err := service.store.Releases().FindReleaseByArtistAndTitle(ctx, artist.ID, title)
		switch {
		case apperr.IsNotFound(err):
			summary.NewReleases++
			if dryRun {
				continue
			}
			release = &catalog.Release{
				ExternalID:    uuidv7.Must(),
				ArtistID:      artist.ID,
				Title:         title,
				SortTitle:     title,
				Status:        catalog.StatusNew,
				LibraryStatus: catalog.StatusNew,
			}
			if year > 0 {
				date := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
				release.ReleaseDate = &date
			}
			if err := service.store.Releases().CreateRelease(ctx, release); err != nil {
				errs = append(errs, err)
				continue
			}
			service.logger.Info("release_discovered",
				slog.String("artist", artist.Name),
				slog.String("title", title),
			)
		case err != nil:
			errs = append(errs, err)
			continue
		}

		releaseSummary, releaseErrs, scanErr := service.safeScan(ctx, artist, release, dryRun)
		summary.Add(releaseSummary)
		errs = append(errs, releaseErrs...)
		if scanErr != nil {
			errs = append(errs, scanErr)
			continue
		}
		if !dryRun {
			service.ranker.TouchRelease(ctx, release.ID)
			service.invalidate(ctx, artist, release)
		}
	}

	return summary, errs
}

// safeScan runs the reconcile pipeline with panic containment: a panicking
// scan must surface as a failed result, never crash the process.
func (service *Service) safeScan(ctx context.Context, artist *catalog.Artist, release *catalog.Release, dryRun bool) (summary Summary, errs []error, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			service.logger.Error("scan_panic",
				slog.String("release_id", release.ExternalID),
				slog.Any("panic", rec),
			)
			err = apperr.Internal(fmt.Errorf("scan panicked: %v", rec))
		}
	}()
	return service.scanOne(ctx, artist, release, dryRun)
}

func (service *Service) invalidate(ctx context.Context, artist *catalog.Artist, release *catalog.Release) {
	if err := service.cache.Invalidate(ctx, cache.ReleaseRegion(release.ExternalID)); err != nil {
		service.logger.Warn("cache_invalidate_failed", slog.String("region", cache.ReleaseRegion(release.ExternalID)))
	}
	if err := service.cache.Invalidate(ctx, cache.ArtistRegion(artist.ExternalID)); err != nil {
		service.logger.Warn("cache_invalidate_failed", slog.String("region", cache.ArtistRegion(artist.ExternalID)))
	}
}

// record appends the scan audit row. Dry runs leave no trace.
func (service *Service) record(ctx context.Context, artistID, releaseID *int64, summary Summary, elapsed time.Duration, success, dryRun bool) {
	if dryRun {
		return
	}
	history := &catalog.ScanHistory{
		ArtistID:      artistID,
		ReleaseID:     releaseID,
		NewArtists:    summary.NewArtists,
		NewReleases:   summary.NewReleases,
		NewTracks:     summary.NewTracks,
		UpdatedTracks: summary.UpdatedTracks,
		ElapsedMS:     elapsed.Milliseconds(),
		IsSuccess:     success,
	}
	if err := service.store.History().CreateScanHistory(ctx, history); err != nil {
		service.logger.Error("scan_history_append_failed", slog.String("error", err.Error()))
	}
}

func parseReleaseFolder(name string) (title string, year int) {
	if match := releaseFolderPattern.FindStringSubmatch(name); match != nil {
		return match[1], convert.ToInt(match[2])
	}
	return name, 0
}
