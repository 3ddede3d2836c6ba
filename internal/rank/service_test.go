// Copyright (c) 2026 Resona. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package rank_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/resona/internal/cache"
	"github.com/taibuivan/resona/internal/cache/cachetest"
	"github.com/taibuivan/resona/internal/catalog"
	"github.com/taibuivan/resona/internal/catalog/catalogtest"
	"github.com/taibuivan/resona/internal/rank"
)

func newService(store *catalogtest.Store) (*rank.Service, *cachetest.Cache) {
	regionCache := cachetest.NewCache()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return rank.NewService(store, regionCache, logger), regionCache
}

// seedRelease creates artist -> release -> one media -> tracks with the given
// durations, returning the release.
func seedRelease(store *catalogtest.Store, trackDurations ...int64) (*catalog.Artist, *catalog.Release, []*catalog.Track) {
	artist := store.SeedArtist(&catalog.Artist{ExternalID: "a-1", Name: "Beatles", SortName: "Beatles"})
	release := store.SeedRelease(&catalog.Release{ExternalID: "r-1", ArtistID: artist.ID, Title: "Abbey Road", SortTitle: "Abbey Road", Status: catalog.StatusOk})
	media := store.SeedMedia(&catalog.Media{ReleaseID: release.ID, Number: 1})

	var tracks []*catalog.Track
	for i, duration := range trackDurations {
		hash := "h"
		tracks = append(tracks, store.SeedTrack(&catalog.Track{
			ExternalID: "t", MediaID: media.ID, Number: i + 1,
			Title: "Track", DurationMS: duration, Hash: &hash, Status: catalog.StatusOk,
		}))
	}
	return artist, release, tracks
}

/*
TestUpdateReleaseCounts recomputes duration/track/play counters from children.
*/
func TestUpdateReleaseCounts(t *testing.T) {
	store := catalogtest.NewStore()
	service, _ := newService(store)

	_, release, _ := seedRelease(store, 200_000, 180_000, 220_000)

	require.NoError(t, service.UpdateReleaseCounts(context.Background(), release.ID))

	updated, err := store.Releases().GetRelease(context.Background(), release.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, updated.TrackCount)
	assert.Equal(t, 1, updated.MediaCount)
	assert.Equal(t, int64(600_000), updated.DurationMS)
}

/*
TestUpdateReleaseRank_Purity verifies rank is deterministic given fixed
ratings (two runs, same value) and matches the formula.
*/
func TestUpdateReleaseRank_Purity(t *testing.T) {
	store := catalogtest.NewStore()
	service, _ := newService(store)

	_, release, tracks := seedRelease(store, 100, 100)
	store.SeedTrackRating("user-a", tracks[0].ID, 5)
	store.SeedTrackRating("user-b", tracks[1].ID, 3)

	ctx := context.Background()
	require.NoError(t, service.UpdateReleaseRank(ctx, release.ID, false))

	first, err := store.Releases().GetRelease(ctx, release.ID)
	require.NoError(t, err)

	require.NoError(t, service.UpdateReleaseRank(ctx, release.ID, false))
	second, err := store.Releases().GetRelease(ctx, release.ID)
	require.NoError(t, err)

	assert.Equal(t, first.Rank, second.Rank)
	// avg(5,3) = 4, no own rating, no placements.
	assert.InDelta(t, 4.0, first.Rank, 1e-9)
}

/*
TestUpdateReleaseRank_CollectionBoost verifies non-chart placements add
size*0.01 - (position-1)*0.01 while chart placements add nothing.
*/
func TestUpdateReleaseRank_CollectionBoost(t *testing.T) {
	store := catalogtest.NewStore()
	service, _ := newService(store)

	_, release, _ := seedRelease(store, 100)

	curated := store.SeedCollection(&catalog.Collection{
		ExternalID: "c-1", Name: "Best of 1969",
		Type: catalog.CollectionTypeCollection, CollectionCount: 50,
	})
	chart := store.SeedCollection(&catalog.Collection{
		ExternalID: "c-2", Name: "Billboard",
		Type: catalog.CollectionTypeChart, CollectionCount: 100,
	})

	ctx := context.Background()
	require.NoError(t, store.Collections().CreateCollectionRelease(ctx, &catalog.CollectionRelease{
		CollectionID: curated.ID, ReleaseID: release.ID, Position: 3,
	}))
	require.NoError(t, store.Collections().CreateCollectionRelease(ctx, &catalog.CollectionRelease{
		CollectionID: chart.ID, ReleaseID: release.ID, Position: 1,
	}))

	require.NoError(t, service.UpdateReleaseRank(ctx, release.ID, false))

	updated, err := store.Releases().GetRelease(ctx, release.ID)
	require.NoError(t, err)
	// 50*0.01 - 2*0.01 = 0.48; the chart contributes nothing.
	assert.InDelta(t, 0.48, updated.Rank, 1e-9)
}

/*
TestUpdateReleaseRank_OwnRatingPerTrack verifies the release's own aggregate
rating is divided by track count.
*/
func TestUpdateReleaseRank_OwnRatingPerTrack(t *testing.T) {
	store := catalogtest.NewStore()
	service, _ := newService(store)

	_, release, _ := seedRelease(store, 100, 100, 100, 100)
	release.Rating = 4
	require.NoError(t, store.Releases().UpdateRelease(context.Background(), release))

	require.NoError(t, service.UpdateReleaseRank(context.Background(), release.ID, false))

	updated, err := store.Releases().GetRelease(context.Background(), release.ID)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, updated.Rank, 1e-9) // 4 / 4 tracks
}

/*
TestUpdateReleaseRank_CascadesToTrackArtists verifies the cascade covers the
owning artist plus distinct track-level artists.
*/
func TestUpdateReleaseRank_CascadesToTrackArtists(t *testing.T) {
	store := catalogtest.NewStore()
	service, regionCache := newService(store)

	artist, release, tracks := seedRelease(store, 100, 100)
	guest := store.SeedArtist(&catalog.Artist{ExternalID: "a-guest", Name: "Billy Preston", SortName: "Preston, Billy"})

	tracks[0].ArtistID = &guest.ID
	require.NoError(t, store.Tracks().UpdateTrack(context.Background(), tracks[0]))
	store.SeedTrackRating("user-a", tracks[0].ID, 4)

	require.NoError(t, service.UpdateReleaseRank(context.Background(), release.ID, true))

	assert.True(t, regionCache.WasInvalidated(cache.ArtistRegion(artist.ExternalID)))
	assert.True(t, regionCache.WasInvalidated(cache.ArtistRegion(guest.ExternalID)))

	updatedGuest, err := store.Artists().GetArtist(context.Background(), guest.ID)
	require.NoError(t, err)
	assert.Greater(t, updatedGuest.Rank, 0.0)
}

/*
TestUpdateArtistRank verifies the artist formula: track avg + release avg +
release rank sum + own rating.
*/
func TestUpdateArtistRank(t *testing.T) {
	store := catalogtest.NewStore()
	service, _ := newService(store)

	artist, release, tracks := seedRelease(store, 100, 100)
	artist.Rating = 2
	require.NoError(t, store.Artists().UpdateArtist(context.Background(), artist))

	store.SeedTrackRating("user-a", tracks[0].ID, 4)     // track avg 4
	store.SeedReleaseRating("user-a", release.ID, 5)     // release avg 5
	ctx := context.Background()
	require.NoError(t, store.Releases().SetReleaseRank(ctx, release.ID, 1.5))

	require.NoError(t, service.UpdateArtistRank(ctx, artist.ID, false))

	updated, err := store.Artists().GetArtist(ctx, artist.ID)
	require.NoError(t, err)
	assert.InDelta(t, 4+5+1.5+2, updated.Rank, 1e-9)
}

/*
TestUpdateArtistCounts verifies counts are pure recomputations; running twice
changes nothing.
*/
func TestUpdateArtistCounts(t *testing.T) {
	store := catalogtest.NewStore()
	service, _ := newService(store)

	artist, _, _ := seedRelease(store, 100, 100, 100)

	ctx := context.Background()
	require.NoError(t, service.UpdateArtistCounts(ctx, artist.ID))
	require.NoError(t, service.UpdateArtistCounts(ctx, artist.ID))

	updated, err := store.Artists().GetArtist(ctx, artist.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, updated.ReleaseCount)
	assert.Equal(t, 3, updated.TrackCount)
}

/*
TestUpdatePlaylistCounts verifies playlist counters follow current entries.
*/
func TestUpdatePlaylistCounts(t *testing.T) {
	store := catalogtest.NewStore()
	service, _ := newService(store)

	_, _, tracks := seedRelease(store, 200_000, 100_000)
	playlist := store.SeedPlaylist(&catalog.Playlist{ExternalID: "p-1", Name: "Mix"})
	store.SeedPlaylistTrack(&catalog.PlaylistTrack{PlaylistID: playlist.ID, TrackID: tracks[0].ID, Position: 1})
	store.SeedPlaylistTrack(&catalog.PlaylistTrack{PlaylistID: playlist.ID, TrackID: tracks[1].ID, Position: 2})

	require.NoError(t, service.UpdatePlaylistCounts(context.Background(), playlist.ID))

	updated, err := store.Playlists().GetPlaylist(context.Background(), playlist.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, updated.TrackCount)
	assert.Equal(t, int64(300_000), updated.DurationMS)
}
