// Copyright (c) 2026 Resona. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package rank recomputes the derived counters and popularity ranks of the
catalog.

Every recompute is an idempotent pure function of current child rows: it
never reads its own previous output, so stale denormalized values heal on the
next pass. Rank maintenance is best-effort relative to the scan/merge/import
that triggers it — failures are logged and swallowed at the [Service.TouchRelease]
boundary.

# Formulas

Release rank = avg(all users' track ratings across the release)
             + release aggregate rating / track count (0 if unrated)
             + Σ over non-chart collections containing the release of
               (collection size × 0.01 − (position − 1) × 0.01)

Artist rank  = avg(all users' track ratings across tracks credited to the artist)
             + avg(all users' release ratings across the artist's releases)
             + Σ rank of the artist's releases
             + the artist's own aggregate rating
*/
package rank

import (
	"context"
	"log/slog"

	"github.com/taibuivan/resona/internal/cache"
	"github.com/taibuivan/resona/internal/catalog"
)

// collectionBoostStep is the per-unit weight of collection placements.
const collectionBoostStep = 0.01

// Service is the rank/statistics engine.
type Service struct {
	store  catalog.Store
	cache  cache.Cache
	logger *slog.Logger
}

// NewService creates the rank engine.
func NewService(store catalog.Store, regionCache cache.Cache, logger *slog.Logger) *Service {
	return &Service{store: store, cache: regionCache, logger: logger}
}

// TouchRelease refreshes counts and rank for a release after a mutation,
// cascading to its credited artists. Failures are logged, never propagated:
// the triggering scan or merge has already done its real work.
func (service *Service) TouchRelease(ctx context.Context, releaseID int64) {
	if err := service.UpdateReleaseCounts(ctx, releaseID); err != nil {
		service.logger.Error("rank_release_counts_failed", slog.Int64("release_id", releaseID), slog.String("error", err.Error()))
	}
	if err := service.UpdateReleaseRank(ctx, releaseID, true); err != nil {
		service.logger.Error("rank_release_rank_failed", slog.Int64("release_id", releaseID), slog.String("error", err.Error()))
	}
}

// UpdateReleaseCounts recomputes track/media counts, duration and play count
// from current child rows.
func (service *Service) UpdateReleaseCounts(ctx context.Context, releaseID int64) error {
	release, err := service.store.Releases().GetRelease(ctx, releaseID)
	if err != nil {
		return err
	}

	stats, err := service.store.Tracks().ReleaseTrackStats(ctx, releaseID)
	if err != nil {
		return err
	}

	media, err := service.store.Media().ListMediaByRelease(ctx, releaseID)
	if err != nil {
		return err
	}

	if err := service.store.Releases().SetReleaseCounts(ctx, releaseID,
		stats.TrackCount, len(media), stats.DurationMS, stats.PlayCount); err != nil {
		return err
	}

	return service.invalidateRelease(ctx, release)
}

// UpdateReleaseRank recomputes one release's rank. With cascadeToArtist set
// it then recomputes the rank of every artist credited on the release: the
// owning artist plus each distinct track-level artist.
func (service *Service) UpdateReleaseRank(ctx context.Context, releaseID int64, cascadeToArtist bool) error {
	release, err := service.store.Releases().GetRelease(ctx, releaseID)
	if err != nil {
		return err
	}

	trackAvg, err := service.store.Ratings().AvgTrackRatingByRelease(ctx, releaseID)
	if err != nil {
		return err
	}

	stats, err := service.store.Tracks().ReleaseTrackStats(ctx, releaseID)
	if err != nil {
		return err
	}

	ownRating := 0.0
	if release.Rating > 0 && stats.TrackCount > 0 {
		ownRating = float64(release.Rating) / float64(stats.TrackCount)
	}

	placements, err := service.store.Collections().PlacementsByRelease(ctx, releaseID)
	if err != nil {
		return err
	}

	boost := 0.0
	for _, p := range placements {
		if p.IsChart {
			continue
		}
		boost += float64(p.Size)*collectionBoostStep - float64(p.Position-1)*collectionBoostStep
	}

	newRank := trackAvg + ownRating + boost
	if err := service.store.Releases().SetReleaseRank(ctx, releaseID, newRank); err != nil {
		return err
	}

	service.logger.Debug("release_rank_updated",
		slog.Int64("release_id", releaseID),
		slog.Float64("rank", newRank),
	)

	if err := service.invalidateRelease(ctx, release); err != nil {
		return err
	}

	if !cascadeToArtist {
		return nil
	}

	artistIDs := []int64{release.ArtistID}
	trackArtists, err := service.store.Tracks().DistinctTrackArtistIDs(ctx, releaseID)
	if err != nil {
		return err
	}
	for _, id := range trackArtists {
		if id != release.ArtistID {
			artistIDs = append(artistIDs, id)
		}
	}

	for _, artistID := range artistIDs {
		// Non-cascading to avoid recursing back into releases.
		if err := service.UpdateArtistRank(ctx, artistID, false); err != nil {
			return err
		}
	}
	return nil
}

// UpdateArtistRank recomputes one artist's rank. With cascadeToReleases set
// it first refreshes every owned release's rank, non-cascading, so the sum
// term is current without infinite recursion.
func (service *Service) UpdateArtistRank(ctx context.Context, artistID int64, cascadeToReleases bool) error {
	artist, err := service.store.Artists().GetArtist(ctx, artistID)
	if err != nil {
		return err
	}

	if cascadeToReleases {
		releases, err := service.store.Releases().ListReleasesByArtist(ctx, artistID)
		if err != nil {
			return err
		}
		for _, release := range releases {
			if err := service.UpdateReleaseRank(ctx, release.ID, false); err != nil {
				return err
			}
		}
	}

	trackAvg, err := service.store.Ratings().AvgTrackRatingByArtist(ctx, artistID)
	if err != nil {
		return err
	}

	releaseAvg, err := service.store.Ratings().AvgReleaseRatingByArtist(ctx, artistID)
	if err != nil {
		return err
	}

	releaseRankSum, err := service.store.Releases().SumReleaseRankByArtist(ctx, artistID)
	if err != nil {
		return err
	}

	newRank := trackAvg + releaseAvg + releaseRankSum + float64(artist.Rating)
	if err := service.store.Artists().SetArtistRank(ctx, artistID, newRank); err != nil {
		return err
	}

	service.logger.Debug("artist_rank_updated",
		slog.Int64("artist_id", artistID),
		slog.Float64("rank", newRank),
	)

	return service.cache.Invalidate(ctx, cache.ArtistRegion(artist.ExternalID))
}

// UpdateArtistCounts recomputes the artist's release/track counters.
func (service *Service) UpdateArtistCounts(ctx context.Context, artistID int64) error {
	artist, err := service.store.Artists().GetArtist(ctx, artistID)
	if err != nil {
		return err
	}

	releaseCount, err := service.store.Releases().CountReleasesByArtist(ctx, artistID)
	if err != nil {
		return err
	}

	trackCount, err := service.store.Tracks().CountTracksByArtist(ctx, artistID)
	if err != nil {
		return err
	}

	if err := service.store.Artists().SetArtistCounts(ctx, artistID, releaseCount, trackCount); err != nil {
		return err
	}

	return service.cache.Invalidate(ctx, cache.ArtistRegion(artist.ExternalID))
}

// UpdatePlaylistCounts recomputes a playlist's entry count and duration.
func (service *Service) UpdatePlaylistCounts(ctx context.Context, playlistID int64) error {
	trackCount, durationMS, err := service.store.Playlists().PlaylistTrackStats(ctx, playlistID)
	if err != nil {
		return err
	}
	return service.store.Playlists().SetPlaylistCounts(ctx, playlistID, trackCount, durationMS)
}

func (service *Service) invalidateRelease(ctx context.Context, release *catalog.Release) error {
	return service.cache.Invalidate(ctx, cache.ReleaseRegion(release.ExternalID))
}
