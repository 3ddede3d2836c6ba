// Copyright (c) 2026 Resona. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package merge_test

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/resona/internal/cache/cachetest"
	"github.com/taibuivan/resona/internal/catalog"
	"github.com/taibuivan/resona/internal/catalog/catalogtest"
	"github.com/taibuivan/resona/internal/merge"
	"github.com/taibuivan/resona/internal/metadata"
	"github.com/taibuivan/resona/internal/metadata/metadatatest"
	"github.com/taibuivan/resona/internal/pathing"
	"github.com/taibuivan/resona/internal/rank"
	"github.com/taibuivan/resona/internal/scanner"
	"github.com/taibuivan/resona/pkg/pointer"
	"github.com/taibuivan/resona/pkg/uuidv7"
)

type fixture struct {
	service *merge.Service
	scans   *scanner.Service
	store   *catalogtest.Store
	reader  *metadatatest.Reader
	paths   *pathing.Resolver
	root    string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	root := t.TempDir()
	store := catalogtest.NewStore()
	regionCache := cachetest.NewCache()
	locks := cachetest.NewLocker()
	reader := metadatatest.NewReader()
	paths := pathing.NewResolver(root)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ranker := rank.NewService(store, regionCache, logger)
	scans := scanner.NewService(store, regionCache, locks, reader, paths, ranker, 2, logger)
	service := merge.NewService(store, regionCache, locks, paths, reader, reader, ranker, scans, logger)

	return &fixture{service: service, scans: scans, store: store, reader: reader, paths: paths, root: root}
}

// seedScanned seeds one artist (find-or-create by name) with one release and
// scans its folder so rows, hashes and paths are all consistent.
func (f *fixture) seedScanned(t *testing.T, artistName, title string, year int, trackTitles ...string) (*catalog.Artist, *catalog.Release) {
	t.Helper()
	ctx := context.Background()

	artist, err := f.store.Artists().FindArtistByName(ctx, artistName)
	if err != nil {
		artist = f.store.SeedArtist(&catalog.Artist{
			ExternalID: uuidv7.Must(), Name: artistName, SortName: artistName,
		})
	}

	date := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	release := f.store.SeedRelease(&catalog.Release{
		ExternalID: uuidv7.Must(), ArtistID: artist.ID,
		Title: title, SortTitle: title, ReleaseDate: &date,
		Status: catalog.StatusNew, LibraryStatus: catalog.StatusNew,
	})

	for i, trackTitle := range trackTitles {
		path := f.paths.TrackPath(artistName, title, year, 1, i+1, trackTitle, ".mp3")
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte("audio-"+trackTitle), 0o644))
		f.reader.Set(path, &metadata.File{
			Title: trackTitle, Album: title, AlbumArtist: artistName,
			Artists: []string{artistName}, TrackNumber: i + 1,
			TotalTracks: len(trackTitles), DiscNumber: 1, Year: year,
			DurationMS: 180_000,
		})
	}

	result := f.scans.ScanRelease(ctx, release.ExternalID, false)
	require.True(t, result.IsSuccess, "seed scan errors: %v", result.ErrorMessages())
	return artist, release
}

// registerMoved pre-registers tags at the canonical path a file will occupy
// after the merge's relocation.
func (f *fixture) registerMoved(artistName, title string, year, disc, number int, trackTitle string, totalTracks int) string {
	path := f.paths.TrackPath(artistName, title, year, disc, number, trackTitle, ".mp3")
	f.reader.Set(path, &metadata.File{
		Title: trackTitle, Album: title, AlbumArtist: artistName,
		Artists: []string{artistName}, TrackNumber: number,
		TotalTracks: totalTracks, DiscNumber: 1, Year: year,
		DurationMS: 180_000,
	})
	return path
}

/*
TestMergeArtists_MovesReleases folds a duplicate artist into the canonical
one: releases repoint, files move under the surviving artist's folder, the
source row disappears, and no track is lost.
*/
func TestMergeArtists_MovesReleases(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	dest, _ := f.seedScanned(t, "The Beatles", "Abbey Road", 1969, "Come Together", "Something")
	source, _ := f.seedScanned(t, "Betles", "Let It Be", 1970, "Two of Us")
	f.store.SeedArtistRating("user-a", source.ID, 5)
	before := f.store.CountTracks()

	f.registerMoved("The Beatles", "Let It Be", 1970, 1, 1, "Two of Us", 1)

	result := f.service.MergeArtists(ctx, source.ExternalID, dest.ExternalID)
	require.True(t, result.IsSuccess, "errors: %v", result.ErrorMessages())
	assert.Equal(t, 1, result.Data.ReleasesMoved)
	assert.Zero(t, result.Data.ReleasesMerged)

	assert.False(t, f.store.HasArtist(source.ID))
	assert.Equal(t, before, f.store.CountTracks(), "merge must conserve tracks")

	releases, err := f.store.Releases().ListReleasesByArtist(ctx, dest.ID)
	require.NoError(t, err)
	assert.Len(t, releases, 2)

	// The moved release's file lives under the surviving artist now.
	movedDir := f.paths.ReleaseDir("The Beatles", "Let It Be", 1970)
	assert.DirExists(t, movedDir)
	assert.NoDirExists(t, f.paths.ArtistDir("Betles"))

	// Identity and ratings follow the survivor.
	merged, err := f.store.Artists().GetArtist(ctx, dest.ID)
	require.NoError(t, err)
	assert.Contains(t, merged.AlternateNames, "Betles")
	assert.Equal(t, []int64{dest.ID}, f.store.ArtistRatingTargets())
}

/*
TestMergeArtists_FoldsSameTitleRelease: when both artists carry the same
release title, the duplicate folds into the survivor as extra media instead
of producing two same-title rows.
*/
func TestMergeArtists_FoldsSameTitleRelease(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	dest, destRelease := f.seedScanned(t, "The Beatles", "Greatest Hits", 2000, "Hey Jude")
	source, _ := f.seedScanned(t, "Betles", "Greatest Hits", 2000, "Revolution")
	before := f.store.CountTracks()

	f.registerMoved("The Beatles", "Greatest Hits", 2000, 2, 1, "Revolution", 1)

	result := f.service.MergeArtists(ctx, source.ExternalID, dest.ExternalID)
	require.True(t, result.IsSuccess, "errors: %v", result.ErrorMessages())
	assert.Equal(t, 1, result.Data.ReleasesMerged)
	assert.Zero(t, result.Data.ReleasesMoved)

	assert.Equal(t, before, f.store.CountTracks())

	releases, err := f.store.Releases().ListReleasesByArtist(ctx, dest.ID)
	require.NoError(t, err)
	require.Len(t, releases, 1)

	merged, err := f.store.Releases().GetRelease(ctx, destRelease.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, merged.MediaCount)
	assert.Equal(t, 2, merged.TrackCount)
}

/*
TestMergeReleases_AddAsMedia appends the source's disc after the
destination's: media renumber, files relocate into the destination folder,
and the disc-number tag is rewritten to match.
*/
func TestMergeReleases_AddAsMedia(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, dest := f.seedScanned(t, "The Beatles", "Abbey Road", 1969, "Come Together", "Something")
	_, source := f.seedScanned(t, "The Beatles", "Abbey Road Sessions", 1970, "Outtake")
	before := f.store.CountTracks()

	movedPath := f.registerMoved("The Beatles", "Abbey Road", 1969, 2, 1, "Outtake", 1)

	result := f.service.MergeReleases(ctx, source.ExternalID, dest.ExternalID, true)
	require.True(t, result.IsSuccess, "errors: %v", result.ErrorMessages())
	assert.Equal(t, 1, result.Data.MediaMoved)
	assert.Equal(t, 1, result.Data.TracksMoved)
	assert.Equal(t, 1, result.Data.FilesMoved)

	assert.False(t, f.store.HasRelease(source.ID))
	assert.Equal(t, before, f.store.CountTracks(), "merge must conserve tracks")
	assert.FileExists(t, movedPath)

	merged, err := f.store.Releases().GetRelease(ctx, dest.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, merged.MediaCount)
	assert.Equal(t, 3, merged.TrackCount)

	// The moved file's disc tag was rewritten to its new slot.
	written, found := f.reader.Written[movedPath]
	require.True(t, found)
	assert.Equal(t, 2, written.DiscNumber)

	// Alternate titles remember the folded duplicate.
	assert.Contains(t, merged.AlternateTitles, "Abbey Road Sessions")
}

/*
TestMergeReleases_FoldDuplicates collapses discs by number: a same-number
duplicate track folds into the survivor, its playlist entries repoint, and
the playlist counters recompute.
*/
func TestMergeReleases_FoldDuplicates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, dest := f.seedScanned(t, "The Beatles", "Abbey Road", 1969, "Come Together")
	_, source := f.seedScanned(t, "The Beatles", "Abbey Road (Remaster)", 1969, "Come Together", "Something")

	sourceTracks, err := f.store.Tracks().ListTracksByRelease(ctx, source.ID)
	require.NoError(t, err)
	require.Len(t, sourceTracks, 2)
	var duplicate *catalog.Track
	for _, track := range sourceTracks {
		if track.Number == 1 {
			duplicate = track
		}
	}

	playlist := f.store.SeedPlaylist(&catalog.Playlist{ExternalID: uuidv7.Must(), Name: "Favourites"})
	f.store.SeedPlaylistTrack(&catalog.PlaylistTrack{PlaylistID: playlist.ID, TrackID: duplicate.ID, Position: 1})

	f.registerMoved("The Beatles", "Abbey Road", 1969, 1, 2, "Something", 2)

	result := f.service.MergeReleases(ctx, source.ExternalID, dest.ExternalID, false)
	require.True(t, result.IsSuccess, "errors: %v", result.ErrorMessages())
	assert.Equal(t, 1, result.Data.TracksFolded)
	assert.Equal(t, 1, result.Data.TracksMoved)
	assert.Equal(t, 1, result.Data.PlaylistsTouched)

	destTracks, err := f.store.Tracks().ListTracksByRelease(ctx, dest.ID)
	require.NoError(t, err)
	assert.Len(t, destTracks, 2)

	// The playlist entry survived on the surviving track.
	survivors := f.store.PlaylistTrackIDs(playlist.ID)
	require.Len(t, survivors, 1)
	assert.NotEqual(t, duplicate.ID, survivors[0])

	refreshed, err := f.store.Playlists().GetPlaylist(ctx, playlist.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, refreshed.TrackCount)
}

/*
TestMergeReleases_FoldCoalescesHistory: folding a same-number duplicate sums
play counts onto the survivor, keeps the newest playback time and fills an
empty ISRC from the folded row.
*/
func TestMergeReleases_FoldCoalescesHistory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, dest := f.seedScanned(t, "The Beatles", "Abbey Road", 1969, "Come Together")
	_, source := f.seedScanned(t, "The Beatles", "Abbey Road (Remaster)", 1969, "Come Together")

	destTracks, err := f.store.Tracks().ListTracksByRelease(ctx, dest.ID)
	require.NoError(t, err)
	require.Len(t, destTracks, 1)
	survivor := destTracks[0]
	survivor.PlayCount = 3
	require.NoError(t, f.store.Tracks().UpdateTrack(ctx, survivor))

	sourceTracks, err := f.store.Tracks().ListTracksByRelease(ctx, source.ID)
	require.NoError(t, err)
	require.Len(t, sourceTracks, 1)
	played := time.Date(2026, time.March, 5, 12, 0, 0, 0, time.UTC)
	duplicate := sourceTracks[0]
	duplicate.PlayCount = 5
	duplicate.LastPlayedAt = &played
	duplicate.ISRC = pointer.To("GBAYE0601690")
	require.NoError(t, f.store.Tracks().UpdateTrack(ctx, duplicate))

	result := f.service.MergeReleases(ctx, source.ExternalID, dest.ExternalID, false)
	require.True(t, result.IsSuccess, "errors: %v", result.ErrorMessages())
	assert.Equal(t, 1, result.Data.TracksFolded)

	merged, err := f.store.Tracks().GetTrack(ctx, survivor.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(8), merged.PlayCount)
	require.NotNil(t, merged.LastPlayedAt)
	assert.True(t, merged.LastPlayedAt.Equal(played))
	require.NotNil(t, merged.ISRC)
	assert.Equal(t, "GBAYE0601690", *merged.ISRC)
}

/*
TestMergeReleases_CoverQualityWins: when both folders carry a same-named
cover, the larger file keeps the name and the smaller one demotes to a
secondary slot.
*/
func TestMergeReleases_CoverQualityWins(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, dest := f.seedScanned(t, "The Beatles", "Abbey Road", 1969, "Come Together")
	_, source := f.seedScanned(t, "The Beatles", "Abbey Road Sessions", 1970, "Outtake")

	destDir := f.paths.ReleaseDir("The Beatles", "Abbey Road", 1969)
	sourceDir := f.paths.ReleaseDir("The Beatles", "Abbey Road Sessions", 1970)
	require.NoError(t, os.WriteFile(filepath.Join(destDir, pathing.CoverFileName), []byte("small"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(sourceDir, pathing.CoverFileName), []byte("much larger artwork"), 0o644))

	f.registerMoved("The Beatles", "Abbey Road", 1969, 2, 1, "Outtake", 1)

	result := f.service.MergeReleases(ctx, source.ExternalID, dest.ExternalID, true)
	require.True(t, result.IsSuccess, "errors: %v", result.ErrorMessages())

	cover, err := os.ReadFile(filepath.Join(destDir, pathing.CoverFileName))
	require.NoError(t, err)
	assert.Equal(t, "much larger artwork", string(cover))

	demoted, err := os.ReadFile(pathing.SecondaryImagePath(destDir, 1))
	require.NoError(t, err)
	assert.Equal(t, "small", string(demoted))
}

/*
TestMergeArtists_DemotesSourcePortrait: the source artist's portrait follows
the merge into the destination's folder, demoted to a secondary image when
the destination already has a primary of its own.
*/
func TestMergeArtists_DemotesSourcePortrait(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	dest, _ := f.seedScanned(t, "The Beatles", "Abbey Road", 1969, "Come Together")
	source, _ := f.seedScanned(t, "Betles", "Let It Be", 1970, "Two of Us")

	destDir := f.paths.ArtistDir("The Beatles")
	sourceDir := f.paths.ArtistDir("Betles")
	destPortrait := filepath.Join(destDir, pathing.CoverFileName)
	sourcePortrait := filepath.Join(sourceDir, pathing.CoverFileName)
	require.NoError(t, os.WriteFile(destPortrait, []byte("dest portrait"), 0o644))
	require.NoError(t, os.WriteFile(sourcePortrait, []byte("source portrait"), 0o644))

	dest.ImagePath = &destPortrait
	require.NoError(t, f.store.Artists().UpdateArtist(ctx, dest))
	source.ImagePath = &sourcePortrait
	require.NoError(t, f.store.Artists().UpdateArtist(ctx, source))

	f.registerMoved("The Beatles", "Let It Be", 1970, 1, 1, "Two of Us", 1)

	result := f.service.MergeArtists(ctx, source.ExternalID, dest.ExternalID)
	require.True(t, result.IsSuccess, "errors: %v", result.ErrorMessages())

	demoted, err := os.ReadFile(pathing.SecondaryImagePath(destDir, 1))
	require.NoError(t, err)
	assert.Equal(t, "source portrait", string(demoted))

	merged, err := f.store.Artists().GetArtist(ctx, dest.ID)
	require.NoError(t, err)
	require.NotNil(t, merged.ImagePath)
	assert.Equal(t, destPortrait, *merged.ImagePath)
	assert.NoFileExists(t, sourcePortrait)
}

/*
TestMergeArtists_PromotesSourcePortrait: a destination with no portrait
adopts the source's as its primary.
*/
func TestMergeArtists_PromotesSourcePortrait(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	dest, _ := f.seedScanned(t, "The Beatles", "Abbey Road", 1969, "Come Together")
	source, _ := f.seedScanned(t, "Betles", "Let It Be", 1970, "Two of Us")

	sourcePortrait := filepath.Join(f.paths.ArtistDir("Betles"), pathing.CoverFileName)
	require.NoError(t, os.WriteFile(sourcePortrait, []byte("source portrait"), 0o644))
	source.ImagePath = &sourcePortrait
	require.NoError(t, f.store.Artists().UpdateArtist(ctx, source))

	f.registerMoved("The Beatles", "Let It Be", 1970, 1, 1, "Two of Us", 1)

	result := f.service.MergeArtists(ctx, source.ExternalID, dest.ExternalID)
	require.True(t, result.IsSuccess, "errors: %v", result.ErrorMessages())

	merged, err := f.store.Artists().GetArtist(ctx, dest.ID)
	require.NoError(t, err)
	require.NotNil(t, merged.ImagePath)
	assert.FileExists(t, *merged.ImagePath)
	assert.Equal(t, filepath.Join(f.paths.ArtistDir("The Beatles"), pathing.CoverFileName), *merged.ImagePath)
}

/*
TestMergeArtists_Guards rejects self-merges and unknown ids.
*/
func TestMergeArtists_Guards(t *testing.T) {
	f := newFixture(t)
	artist, _ := f.seedScanned(t, "The Beatles", "Abbey Road", 1969, "Come Together")

	self := f.service.MergeArtists(context.Background(), artist.ExternalID, artist.ExternalID)
	assert.False(t, self.IsSuccess)
	assert.False(t, self.IsNotFound)

	missing := f.service.MergeArtists(context.Background(), uuidv7.Must(), artist.ExternalID)
	assert.False(t, missing.IsSuccess)
	assert.True(t, missing.IsNotFound)
}

/*
TestMergeReleases_Transactional: a failing row phase leaves both releases
untouched (all row work happens inside one transaction).
*/
func TestMergeReleases_Transactional(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, dest := f.seedScanned(t, "The Beatles", "Abbey Road", 1969, "Come Together")
	_, source := f.seedScanned(t, "The Beatles", "Abbey Road Sessions", 1970, "Outtake")

	// Both releases intact before; a not-found source aborts cleanly.
	result := f.service.MergeReleases(ctx, uuidv7.Must(), dest.ExternalID, true)
	assert.True(t, result.IsNotFound)
	assert.True(t, f.store.HasRelease(source.ID))
	assert.True(t, f.store.HasRelease(dest.ID))
}
