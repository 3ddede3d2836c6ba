// Copyright (c) 2026 Resona. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package importer resolves a collection's raw list against the library.

Architecture:

  - Service: ImportCollection parses the collection's "position,artist,title"
    list and fuzzy-matches every tuple against the catalog. Matches become
    membership rows at the tuple's position; misses become missing rows that
    remember whether at least the artist exists.
  - Matching is scored (exact folded > exact alphanumeric > containment >
    edit distance) with a minimum threshold; a tie between two distinct
    entities is ambiguous and treated as a miss rather than guessed.
  - The row phase runs in one transaction. Rank boosts of touched releases
    and cache invalidation follow after commit.
*/
package importer

import (
	"context"
	"log/slog"
	"time"

	"github.com/taibuivan/resona/internal/cache"
	"github.com/taibuivan/resona/internal/catalog"
	"github.com/taibuivan/resona/internal/platform/opresult"
	"github.com/taibuivan/resona/internal/rank"
	"github.com/taibuivan/resona/pkg/slug"
)

// Summary is the payload of one collection import.
type Summary struct {
	Total           int   `json:"total"`
	Matched         int   `json:"matched"`
	MissingArtists  int   `json:"missing_artists"`
	MissingReleases int   `json:"missing_releases"`
	Removed         int64 `json:"removed"`
}

// Service is the collection importer.
type Service struct {
	store  catalog.Store
	cache  cache.Cache
	locks  cache.Locker
	ranker *rank.Service
	logger *slog.Logger
}

// NewService creates the importer.
func NewService(store catalog.Store, regionCache cache.Cache, locks cache.Locker, ranker *rank.Service, logger *slog.Logger) *Service {
	return &Service{store: store, cache: regionCache, locks: locks, ranker: ranker, logger: logger}
}

// ImportCollection re-resolves the collection's list against the library.
// With purgeFirst every existing membership row is dropped before matching;
// otherwise rows are upserted in place and rows whose release fell off the
// list are removed.
func (service *Service) ImportCollection(ctx context.Context, collectionExternalID string, purgeFirst bool) opresult.Result[Summary] {
	started := time.Now()

	collection, err := service.store.Collections().GetCollectionByExternalID(ctx, collectionExternalID)
	if err != nil {
		return opresult.Classify[Summary](time.Since(started), err)
	}

	unlock, err := service.locks.Acquire(ctx, "collection:"+collection.ExternalID)
	if err != nil {
		return opresult.Fail[Summary](time.Since(started), err)
	}
	defer unlock()

	tuples, err := parseListData(collection.ListData)
	if err != nil {
		return opresult.Classify[Summary](time.Since(started), err)
	}

	var summary Summary
	summary.Total = len(tuples)
	var touched []int64

	err = service.store.WithTx(ctx, func(txCtx context.Context) error {
		var txErr error
		touched, txErr = service.resolveRows(txCtx, collection, tuples, purgeFirst, &summary)
		return txErr
	})
	if err != nil {
		return opresult.Classify[Summary](time.Since(started), err)
	}

	var errs []error
	for _, releaseID := range touched {
		// Membership changed, so the placement boost term changed too.
		if err := service.ranker.UpdateReleaseRank(ctx, releaseID, true); err != nil {
			errs = append(errs, err)
		}
	}

	if err := service.cache.Invalidate(ctx, cache.CollectionRegion(collection.ExternalID)); err != nil {
		service.logger.Warn("cache_invalidate_failed",
			slog.String("region", cache.CollectionRegion(collection.ExternalID)))
	}

	service.logger.Info("collection_imported",
		slog.String("collection_id", collection.ExternalID),
		slog.Int("total", summary.Total),
		slog.Int("matched", summary.Matched),
		slog.Bool("purged", purgeFirst),
	)
	return opresult.Ok(summary, time.Since(started), errs)
}

// resolveRows is the transactional matching pass.
func (service *Service) resolveRows(ctx context.Context, collection *catalog.Collection, tuples []tuple, purgeFirst bool, summary *Summary) ([]int64, error) {
	if purgeFirst {
		if err := service.store.Collections().DeleteCollectionReleases(ctx, collection.ID); err != nil {
			return nil, err
		}
	}
	if err := service.store.Collections().ClearCollectionMissing(ctx, collection.ID); err != nil {
		return nil, err
	}

	existing, err := service.store.Collections().ListCollectionReleases(ctx, collection.ID)
	if err != nil {
		return nil, err
	}
	byRelease := make(map[int64]*catalog.CollectionRelease, len(existing))
	for _, row := range existing {
		byRelease[row.ReleaseID] = row
	}

	var touched []int64
	seen := map[int64]bool{}
	for _, entry := range tuples {
		artist, ambiguous, err := service.findArtist(ctx, entry.Artist)
		if err != nil {
			return nil, err
		}
		if artist == nil {
			summary.MissingArtists++
			// An ambiguous tie still counts as the artist half matching.
			if err := service.recordMissing(ctx, collection.ID, entry, ambiguous); err != nil {
				return nil, err
			}
			continue
		}

		releases, err := service.store.Releases().ListReleasesByArtist(ctx, artist.ID)
		if err != nil {
			return nil, err
		}
		release, _ := matchRelease(releases, entry.Release)
		if release == nil {
			summary.MissingReleases++
			if err := service.recordMissing(ctx, collection.ID, entry, true); err != nil {
				return nil, err
			}
			continue
		}

		if seen[release.ID] {
			continue // duplicate tuple for the same release; keep the first
		}
		seen[release.ID] = true
		touched = append(touched, release.ID)
		summary.Matched++

		if row, found := byRelease[release.ID]; found {
			if row.Position != entry.Position {
				if err := service.store.Collections().UpdateCollectionReleasePosition(ctx, row.ID, entry.Position); err != nil {
					return nil, err
				}
			}
			continue
		}
		if err := service.store.Collections().CreateCollectionRelease(ctx, &catalog.CollectionRelease{
			CollectionID: collection.ID,
			ReleaseID:    release.ID,
			Position:     entry.Position,
		}); err != nil {
			return nil, err
		}
	}

	removed, err := service.store.Collections().DeleteCollectionReleasesNotIn(ctx, collection.ID, touched)
	if err != nil {
		return nil, err
	}
	summary.Removed = removed

	now := time.Now()
	collection.CollectionCount = len(tuples)
	collection.FoundCount = summary.Matched
	collection.LastImportedAt = &now
	switch {
	case len(tuples) > 0 && summary.Matched == len(tuples):
		// A fully-resolved list is frozen against further automated edits.
		collection.Status = catalog.StatusComplete
		collection.IsLocked = true
	case summary.Matched > 0:
		collection.Status = catalog.StatusIncomplete
	default:
		collection.Status = catalog.StatusMissing
	}
	if err := service.store.Collections().UpdateCollection(ctx, collection); err != nil {
		return nil, err
	}
	return touched, nil
}

// fallbackPoolLimit bounds the candidate pool when the substring search
// comes back empty (typo'd names share no substring with their target).
const fallbackPoolLimit = 500

// findArtist fuzzy-matches one artist name against the candidate pool drawn
// from both normalized forms. A nil artist with ambiguous=true means two
// candidates tied; the name did hit the catalog but no single row won.
func (service *Service) findArtist(ctx context.Context, name string) (*catalog.Artist, bool, error) {
	candidates, err := service.store.Artists().SearchArtistsByNormalizedName(ctx, slug.Fold(name), slug.Alphanumeric(name))
	if err != nil {
		return nil, false, err
	}
	if len(candidates) == 0 {
		candidates, _, err = service.store.Artists().ListArtists(ctx, catalog.ArtistFilter{}, fallbackPoolLimit, 0)
		if err != nil {
			return nil, false, err
		}
	}
	artist, ambiguous := matchArtist(candidates, name)
	return artist, ambiguous, nil
}

func (service *Service) recordMissing(ctx context.Context, collectionID int64, entry tuple, artistFound bool) error {
	return service.store.Collections().CreateCollectionMissing(ctx, &catalog.CollectionMissing{
		CollectionID:  collectionID,
		Position:      entry.Position,
		ArtistName:    slug.Fold(entry.Artist),
		ReleaseTitle:  slug.Fold(entry.Release),
		IsArtistFound: artistFound,
	})
}
