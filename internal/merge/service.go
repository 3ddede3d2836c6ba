// Copyright (c) 2026 Resona. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package merge consolidates duplicate catalog entities.

Architecture:

  - Service: MergeArtists folds one artist into another (releases repointed,
    same-title duplicates folded release-into-release); MergeReleases folds
    one release into another, either appending the source discs as extra
    media or collapsing them disc-by-disc.
  - All row mutations of one merge run inside a single database transaction.
    Physical file moves and the destination rescan happen after commit, so a
    failed move can never leave half-merged rows behind.
  - Playlist entries that would dangle are repointed to the surviving track
    where one exists and dropped otherwise; affected playlist counters are
    recomputed.
*/
package merge

import (
	"context"
	"log/slog"
	"time"

	"github.com/taibuivan/resona/internal/cache"
	"github.com/taibuivan/resona/internal/catalog"
	"github.com/taibuivan/resona/internal/metadata"
	"github.com/taibuivan/resona/internal/pathing"
	"github.com/taibuivan/resona/internal/platform/apperr"
	"github.com/taibuivan/resona/internal/platform/opresult"
	"github.com/taibuivan/resona/internal/rank"
	"github.com/taibuivan/resona/internal/scanner"
)

// ArtistSummary is the payload of one artist merge.
type ArtistSummary struct {
	ReleasesMoved    int `json:"releases_moved"`
	ReleasesMerged   int `json:"releases_merged"`
	PlaylistsTouched int `json:"playlists_touched"`
}

// ReleaseSummary is the payload of one release merge.
type ReleaseSummary struct {
	MediaMoved       int `json:"media_moved"`
	TracksMoved      int `json:"tracks_moved"`
	TracksFolded     int `json:"tracks_folded"`
	FilesMoved       int `json:"files_moved"`
	PlaylistsTouched int `json:"playlists_touched"`
}

func (s *ReleaseSummary) add(other ReleaseSummary) {
	s.MediaMoved += other.MediaMoved
	s.TracksMoved += other.TracksMoved
	s.TracksFolded += other.TracksFolded
	s.FilesMoved += other.FilesMoved
	s.PlaylistsTouched += other.PlaylistsTouched
}

// Service is the merge engine.
type Service struct {
	store  catalog.Store
	cache  cache.Cache
	locks  cache.Locker
	paths  *pathing.Resolver
	meta   metadata.Reader
	tags   metadata.Writer
	ranker *rank.Service
	scans  *scanner.Service
	logger *slog.Logger
}

// NewService creates the merge engine.
func NewService(
	store catalog.Store,
	regionCache cache.Cache,
	locks cache.Locker,
	paths *pathing.Resolver,
	reader metadata.Reader,
	writer metadata.Writer,
	ranker *rank.Service,
	scans *scanner.Service,
	logger *slog.Logger,
) *Service {
	return &Service{
		store:  store,
		cache:  regionCache,
		locks:  locks,
		paths:  paths,
		meta:   reader,
		tags:   writer,
		ranker: ranker,
		scans:  scans,
		logger: logger,
	}
}

// MergeArtists folds the source artist into the destination. The source's
// releases move to the destination; a release whose title the destination
// already carries is folded into that release instead. The source row is
// deleted at the end.
func (service *Service) MergeArtists(ctx context.Context, sourceExternalID, destExternalID string) opresult.Result[ArtistSummary] {
	started := time.Now()

	if sourceExternalID == destExternalID {
		return opresult.Fail[ArtistSummary](time.Since(started),
			apperr.ValidationError("cannot merge an artist into itself"))
	}

	source, err := service.store.Artists().GetArtistByExternalID(ctx, sourceExternalID)
	if err != nil {
		return opresult.Classify[ArtistSummary](time.Since(started), err)
	}
	dest, err := service.store.Artists().GetArtistByExternalID(ctx, destExternalID)
	if err != nil {
		return opresult.Classify[ArtistSummary](time.Since(started), err)
	}

	release, err := service.acquirePair(ctx, "artist:"+source.ExternalID, "artist:"+dest.ExternalID)
	if err != nil {
		return opresult.Fail[ArtistSummary](time.Since(started), err)
	}
	defer release()

	var summary ArtistSummary
	var playlists []int64
	err = service.store.WithTx(ctx, func(txCtx context.Context) error {
		var txErr error
		playlists, txErr = service.mergeArtistRows(txCtx, source, dest, &summary)
		return txErr
	})
	if err != nil {
		return opresult.Classify[ArtistSummary](time.Since(started), err)
	}

	var errs []error
	errs = append(errs, service.recountPlaylists(ctx, playlists)...)
	summary.PlaylistsTouched = len(playlists)

	// Moved and folded files still live under the source artist's directory;
	// relocate every destination release onto its canonical layout, then
	// rescan to refresh counts and statuses.
	destReleases, err := service.store.Releases().ListReleasesByArtist(ctx, dest.ID)
	if err != nil {
		errs = append(errs, err)
	}
	for _, destRelease := range destReleases {
		_, fileErrs := service.relocateTracks(ctx, dest, destRelease)
		errs = append(errs, fileErrs...)
	}

	if err := service.consolidateArtistImage(ctx, source, dest); err != nil {
		errs = append(errs, err)
	}

	_, rescanErrs := service.scans.RescanArtist(ctx, dest)
	errs = append(errs, rescanErrs...)

	if err := service.ranker.UpdateArtistRank(ctx, dest.ID, false); err != nil {
		errs = append(errs, err)
	}

	service.invalidateArtists(ctx, source, dest)
	service.cleanupTree(service.paths.ArtistDir(source.SortName))

	service.logger.Info("artists_merged",
		slog.String("source", source.ExternalID),
		slog.String("dest", dest.ExternalID),
		slog.Int("releases_moved", summary.ReleasesMoved),
		slog.Int("releases_merged", summary.ReleasesMerged),
	)
	return opresult.Ok(summary, time.Since(started), errs)
}

// MergeReleases folds the source release into the destination. With
// addAsMedia the source's discs append after the destination's; otherwise
// discs collapse by number and same-number duplicate tracks fold into the
// surviving row. The source row is deleted at the end.
func (service *Service) MergeReleases(ctx context.Context, sourceExternalID, destExternalID string, addAsMedia bool) opresult.Result[ReleaseSummary] {
	started := time.Now()

	if sourceExternalID == destExternalID {
		return opresult.Fail[ReleaseSummary](time.Since(started),
			apperr.ValidationError("cannot merge a release into itself"))
	}

	source, err := service.store.Releases().GetReleaseByExternalID(ctx, sourceExternalID)
	if err != nil {
		return opresult.Classify[ReleaseSummary](time.Since(started), err)
	}
	dest, err := service.store.Releases().GetReleaseByExternalID(ctx, destExternalID)
	if err != nil {
		return opresult.Classify[ReleaseSummary](time.Since(started), err)
	}
	sourceArtist, err := service.store.Artists().GetArtist(ctx, source.ArtistID)
	if err != nil {
		return opresult.Classify[ReleaseSummary](time.Since(started), err)
	}
	destArtist, err := service.store.Artists().GetArtist(ctx, dest.ArtistID)
	if err != nil {
		return opresult.Classify[ReleaseSummary](time.Since(started), err)
	}

	release, err := service.acquirePair(ctx, "release:"+source.ExternalID, "release:"+dest.ExternalID)
	if err != nil {
		return opresult.Fail[ReleaseSummary](time.Since(started), err)
	}
	defer release()

	sourceDir := service.paths.ReleaseDir(sourceArtist.SortName, source.SortTitle, source.Year())

	var summary ReleaseSummary
	var playlists []int64
	err = service.store.WithTx(ctx, func(txCtx context.Context) error {
		var txErr error
		playlists, txErr = service.mergeReleaseRows(txCtx, source, dest, addAsMedia, &summary)
		return txErr
	})
	if err != nil {
		return opresult.Classify[ReleaseSummary](time.Since(started), err)
	}

	var errs []error
	errs = append(errs, service.recountPlaylists(ctx, playlists)...)
	summary.PlaylistsTouched = len(playlists)

	moved, fileErrs := service.relocateTracks(ctx, destArtist, dest)
	summary.FilesMoved = moved
	errs = append(errs, fileErrs...)

	destDir := service.paths.ReleaseDir(destArtist.SortName, dest.SortTitle, dest.Year())
	errs = append(errs, service.consolidateImages(sourceDir, destDir)...)
	service.cleanupDir(sourceDir)

	_, rescanErrs, rescanErr := service.scans.RescanRelease(ctx, destArtist, dest)
	errs = append(errs, rescanErrs...)
	if rescanErr != nil {
		errs = append(errs, rescanErr)
	}

	service.invalidateReleases(ctx, source, dest)

	service.logger.Info("releases_merged",
		slog.String("source", source.ExternalID),
		slog.String("dest", dest.ExternalID),
		slog.Bool("add_as_media", addAsMedia),
		slog.Int("tracks_moved", summary.TracksMoved),
		slog.Int("tracks_folded", summary.TracksFolded),
	)
	return opresult.Ok(summary, time.Since(started), errs)
}

// acquirePair takes both leases in lexical order so two concurrent merges of
// the same pair cannot deadlock.
func (service *Service) acquirePair(ctx context.Context, a, b string) (func(), error) {
	first, second := a, b
	if second < first {
		first, second = second, first
	}

	releaseFirst, err := service.locks.Acquire(ctx, first)
	if err != nil {
		return nil, err
	}
	releaseSecond, err := service.locks.Acquire(ctx, second)
	if err != nil {
		releaseFirst()
		return nil, err
	}
	return func() {
		releaseSecond()
		releaseFirst()
	}, nil
}

// recountPlaylists refreshes the counters of every playlist that lost or
// gained entries during the merge.
func (service *Service) recountPlaylists(ctx context.Context, playlistIDs []int64) []error {
	var errs []error
	for _, id := range playlistIDs {
		if err := service.ranker.UpdatePlaylistCounts(ctx, id); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

func (service *Service) invalidateArtists(ctx context.Context, source, dest *catalog.Artist) {
	for _, region := range []string{cache.ArtistRegion(source.ExternalID), cache.ArtistRegion(dest.ExternalID)} {
		if err := service.cache.Invalidate(ctx, region); err != nil {
			service.logger.Warn("cache_invalidate_failed", slog.String("region", region))
		}
	}
}

func (service *Service) invalidateReleases(ctx context.Context, source, dest *catalog.Release) {
	for _, region := range []string{cache.ReleaseRegion(source.ExternalID), cache.ReleaseRegion(dest.ExternalID)} {
		if err := service.cache.Invalidate(ctx, region); err != nil {
			service.logger.Warn("cache_invalidate_failed", slog.String("region", region))
		}
	}
}
