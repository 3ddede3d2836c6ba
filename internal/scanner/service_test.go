// Copyright (c) 2026 Resona. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package scanner_test

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
	"github.com/taibuivan/resona/internal/metadata"
	"github.com/taibuivan/resona/internal/metadata/metadatatest"
	"github.com/taibuivan/resona/internal/pathing"
	"github.com/taibuivan/resona/internal/rank"
	"github.com/taibuivan/resona/internal/scanner"
	"github.com/taibuivan/resona/pkg/uuidv7"
)

// tinyGIF is a minimal decodable 1x1 image for cover-art checks.
var tinyGIF = []byte{
	'G', 'I', 'F', '8', '9', 'a',
	1, 0, 1, 0, 0x80, 0, 0,
	0, 0, 0, 0xff, 0xff, 0xff,
}

type fixture struct {
	service *scanner.Service
	store   *catalogtest.Store
	cache   *cachetest.Cache
	locks   *cachetest.Locker
	reader  *metadatatest.Reader
	root    string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	root := t.TempDir()
	store := catalogtest.NewStore()
	regionCache := cachetest.NewCache()
	locks := cachetest.NewLocker()
	reader := metadatatest.NewReader()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ranker := rank.NewService(store, regionCache, logger)

	service := scanner.NewService(store, regionCache, locks, reader, pathing.NewResolver(root), ranker, 2, logger)
	return &fixture{service: service, store: store, cache: regionCache, locks: locks, reader: reader, root: root}
}

// seedRelease creates the "The Beatles" / "Abbey Road (1969)" catalog rows
// without any media or tracks, returning the release folder path.
func (f *fixture) seedRelease(t *testing.T) (*catalog.Artist, *catalog.Release, string) {
	t.Helper()
	artist := f.store.SeedArtist(&catalog.Artist{
		ExternalID: uuidv7.Must(), Name: "The Beatles", SortName: "The Beatles",
	})
	date := mustDate(1969)
	release := f.store.SeedRelease(&catalog.Release{
		ExternalID: uuidv7.Must(), ArtistID: artist.ID,
		Title: "Abbey Road", SortTitle: "Abbey Road",
		ReleaseDate: &date,
		Status:      catalog.StatusNew, LibraryStatus: catalog.StatusNew,
	})
	return artist, release, filepath.Join(f.root, "The Beatles", "Abbey Road (1969)")
}

func (f *fixture) writeAudio(t *testing.T, path string, tags *metadata.File) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("audio-bytes"), 0o644))
	f.reader.Set(path, tags)
}

func abbeyTags(title string, number, total int) *metadata.File {
	return &metadata.File{
		Title:       title,
		Album:       "Abbey Road",
		AlbumArtist: "The Beatles",
		Artists:     []string{"The Beatles"},
		TrackNumber: number,
		TotalTracks: total,
		DiscNumber:  1,
		Year:        1969,
		DurationMS:  180_000,
	}
}

func mustDate(year int) time.Time {
	return time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
}

/*
TestScanRelease_Discovery scans a fresh folder: tracks and media are created,
the release turns Complete, and one history row is appended.
*/
func TestScanRelease_Discovery(t *testing.T) {
	f := newFixture(t)
	_, release, folder := f.seedRelease(t)
	f.writeAudio(t, filepath.Join(folder, "01 - Come Together.mp3"), abbeyTags("Come Together", 1, 2))
	f.writeAudio(t, filepath.Join(folder, "02 - Something.mp3"), abbeyTags("Something", 2, 2))

	ctx := context.Background()
	result := f.service.ScanRelease(ctx, release.ExternalID, false)

	require.True(t, result.IsSuccess, "errors: %v", result.ErrorMessages())
	assert.Equal(t, 2, result.Data.NewTracks)
	assert.Empty(t, result.Errors)

	updated, err := f.store.Releases().GetRelease(ctx, release.ID)
	require.NoError(t, err)
	assert.Equal(t, catalog.StatusComplete, updated.Status)
	assert.Equal(t, catalog.StatusComplete, updated.LibraryStatus)
	assert.Equal(t, 2, updated.TrackCount)

	media, err := f.store.Media().ListMediaByRelease(ctx, release.ID)
	require.NoError(t, err)
	require.Len(t, media, 1)
	assert.Equal(t, catalog.StatusComplete, media[0].Status)
	assert.Equal(t, 2, media[0].TrackCount)

	tracks, err := f.store.Tracks().ListTracksByRelease(ctx, release.ID)
	require.NoError(t, err)
	require.Len(t, tracks, 2)
	for _, track := range tracks {
		assert.NotNil(t, track.Hash)
		assert.Equal(t, catalog.StatusOk, track.Status)
		assert.FileExists(t, track.FilePath)
	}

	history, total, err := f.store.History().ListScanHistory(ctx, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.True(t, history[0].IsSuccess)
	assert.Equal(t, 2, history[0].NewTracks)
}

/*
TestScanRelease_Idempotent verifies the second scan of an unchanged folder is
a no-op: no creates, no updates, same row count.
*/
func TestScanRelease_Idempotent(t *testing.T) {
	f := newFixture(t)
	_, release, folder := f.seedRelease(t)
	f.writeAudio(t, filepath.Join(folder, "01 - Come Together.mp3"), abbeyTags("Come Together", 1, 2))
	f.writeAudio(t, filepath.Join(folder, "02 - Something.mp3"), abbeyTags("Something", 2, 2))

	ctx := context.Background()
	require.True(t, f.service.ScanRelease(ctx, release.ExternalID, false).IsSuccess)

	second := f.service.ScanRelease(ctx, release.ExternalID, false)
	require.True(t, second.IsSuccess)
	assert.Zero(t, second.Data.NewTracks)
	assert.Zero(t, second.Data.UpdatedTracks)
	assert.Zero(t, second.Data.MissingTracks)
	assert.Equal(t, 2, f.store.CountTracks())
}

/*
TestScanRelease_GapIsIncomplete: on-disk numbers {1,2,4} fail the sequential
check, so the media and the release turn Incomplete.
*/
func TestScanRelease_GapIsIncomplete(t *testing.T) {
	f := newFixture(t)
	_, release, folder := f.seedRelease(t)
	f.writeAudio(t, filepath.Join(folder, "01 - One.mp3"), abbeyTags("One", 1, 0))
	f.writeAudio(t, filepath.Join(folder, "02 - Two.mp3"), abbeyTags("Two", 2, 0))
	f.writeAudio(t, filepath.Join(folder, "04 - Four.mp3"), abbeyTags("Four", 4, 0))

	ctx := context.Background()
	result := f.service.ScanRelease(ctx, release.ExternalID, false)
	require.True(t, result.IsSuccess)

	updated, err := f.store.Releases().GetRelease(ctx, release.ID)
	require.NoError(t, err)
	assert.Equal(t, catalog.StatusIncomplete, updated.Status)

	media, err := f.store.Media().ListMediaByRelease(ctx, release.ID)
	require.NoError(t, err)
	require.Len(t, media, 1)
	assert.Equal(t, catalog.StatusIncomplete, media[0].Status)
}

/*
TestScanRelease_HashChange: editing a tag changes the content hash, so the
rescan updates exactly that track.
*/
func TestScanRelease_HashChange(t *testing.T) {
	f := newFixture(t)
	_, release, folder := f.seedRelease(t)
	path := filepath.Join(folder, "01 - Come Together.mp3")
	f.writeAudio(t, path, abbeyTags("Come Togethr", 1, 1))

	ctx := context.Background()
	require.True(t, f.service.ScanRelease(ctx, release.ExternalID, false).IsSuccess)

	// Fix the typo in the tags; file untouched otherwise.
	f.reader.Set(path, abbeyTags("Come Together", 1, 1))

	second := f.service.ScanRelease(ctx, release.ExternalID, false)
	require.True(t, second.IsSuccess)
	assert.Zero(t, second.Data.NewTracks)
	assert.Equal(t, 1, second.Data.UpdatedTracks)

	tracks, err := f.store.Tracks().ListTracksByRelease(ctx, release.ID)
	require.NoError(t, err)
	require.Len(t, tracks, 1)
	assert.Equal(t, "Come Together", tracks[0].Title)
}

/*
TestScanRelease_MissingPass: a deleted file clears the track's hash and turns
it Missing; the release degrades from Complete.
*/
func TestScanRelease_MissingPass(t *testing.T) {
	f := newFixture(t)
	_, release, folder := f.seedRelease(t)
	f.writeAudio(t, filepath.Join(folder, "01 - Come Together.mp3"), abbeyTags("Come Together", 1, 2))
	gone := filepath.Join(folder, "02 - Something.mp3")
	f.writeAudio(t, gone, abbeyTags("Something", 2, 2))

	ctx := context.Background()
	require.True(t, f.service.ScanRelease(ctx, release.ExternalID, false).IsSuccess)
	require.NoError(t, os.Remove(gone))

	second := f.service.ScanRelease(ctx, release.ExternalID, false)
	require.True(t, second.IsSuccess)
	assert.Equal(t, 1, second.Data.MissingTracks)

	tracks, err := f.store.Tracks().ListTracksByRelease(ctx, release.ID)
	require.NoError(t, err)
	missing := 0
	for _, track := range tracks {
		if track.Status == catalog.StatusMissing {
			missing++
			assert.Nil(t, track.Hash)
		}
	}
	assert.Equal(t, 1, missing)

	updated, err := f.store.Releases().GetRelease(ctx, release.ID)
	require.NoError(t, err)
	assert.Equal(t, catalog.StatusIncomplete, updated.Status)
}

/*
TestScanRelease_RenameDrift: the catalog title changed but the disk still has
the old folder; the scan moves it into place and repoints stored paths.
*/
func TestScanRelease_RenameDrift(t *testing.T) {
	f := newFixture(t)
	_, release, oldFolder := f.seedRelease(t)
	oldPath := filepath.Join(oldFolder, "01 - Come Together.mp3")
	f.writeAudio(t, oldPath, abbeyTags("Come Together", 1, 1))

	ctx := context.Background()
	require.True(t, f.service.ScanRelease(ctx, release.ExternalID, false).IsSuccess)

	// Rename the release in the catalog only.
	stored, err := f.store.Releases().GetRelease(ctx, release.ID)
	require.NoError(t, err)
	stored.Title = "Abbey Road Anniversary"
	stored.SortTitle = "Abbey Road Anniversary"
	require.NoError(t, f.store.Releases().UpdateRelease(ctx, stored))

	newFolder := filepath.Join(f.root, "The Beatles", "Abbey Road Anniversary (1969)")
	newPath := filepath.Join(newFolder, "01 - Come Together.mp3")
	f.reader.Set(newPath, abbeyTags("Come Together", 1, 1))

	second := f.service.ScanRelease(ctx, release.ExternalID, false)
	require.True(t, second.IsSuccess, "errors: %v", second.ErrorMessages())

	assert.DirExists(t, newFolder)
	assert.NoDirExists(t, oldFolder)
	assert.Zero(t, second.Data.MissingTracks)

	tracks, err := f.store.Tracks().ListTracksByRelease(ctx, release.ID)
	require.NoError(t, err)
	require.Len(t, tracks, 1)
	assert.Equal(t, newPath, tracks[0].FilePath)
}

/*
TestScanRelease_DryRun walks the full pipeline without writing anything: no
rows, no history.
*/
func TestScanRelease_DryRun(t *testing.T) {
	f := newFixture(t)
	_, release, folder := f.seedRelease(t)
	f.writeAudio(t, filepath.Join(folder, "01 - Come Together.mp3"), abbeyTags("Come Together", 1, 1))

	ctx := context.Background()
	result := f.service.ScanRelease(ctx, release.ExternalID, true)

	require.True(t, result.IsSuccess)
	assert.Equal(t, 1, result.Data.NewTracks)
	assert.Zero(t, f.store.CountTracks())

	_, total, err := f.store.History().ListScanHistory(ctx, 10, 0)
	require.NoError(t, err)
	assert.Zero(t, total)
}

/*
TestScanRelease_TrackArtistCredit: a single distinct contributor becomes a
track-artist relation (creating the artist row on first sight); several
contributors collapse into the delimited part-titles string.
*/
func TestScanRelease_TrackArtistCredit(t *testing.T) {
	f := newFixture(t)
	_, release, folder := f.seedRelease(t)

	single := abbeyTags("Get Back", 1, 2)
	single.Artists = []string{"Billy Preston"}
	f.writeAudio(t, filepath.Join(folder, "01 - Get Back.mp3"), single)

	multiple := abbeyTags("Medley", 2, 2)
	multiple.Artists = []string{"Billy Preston", "George Martin"}
	f.writeAudio(t, filepath.Join(folder, "02 - Medley.mp3"), multiple)

	ctx := context.Background()
	result := f.service.ScanRelease(ctx, release.ExternalID, false)
	require.True(t, result.IsSuccess, "errors: %v", result.ErrorMessages())
	assert.Equal(t, 1, result.Data.NewArtists)

	preston, err := f.store.Artists().FindArtistByName(ctx, "Billy Preston")
	require.NoError(t, err)

	tracks, err := f.store.Tracks().ListTracksByRelease(ctx, release.ID)
	require.NoError(t, err)
	require.Len(t, tracks, 2)

	byNumber := map[int]*catalog.Track{}
	for _, track := range tracks {
		byNumber[track.Number] = track
	}
	require.NotNil(t, byNumber[1].ArtistID)
	assert.Equal(t, preston.ID, *byNumber[1].ArtistID)
	assert.Nil(t, byNumber[1].PartTitles)

	assert.Nil(t, byNumber[2].ArtistID)
	require.NotNil(t, byNumber[2].PartTitles)
	assert.Equal(t, "Billy Preston/George Martin", *byNumber[2].PartTitles)
}

/*
TestScanRelease_CoverArt: a corrupt cover.jpg is replaced from the first
embedded image found in the folder's tracks.
*/
func TestScanRelease_CoverArt(t *testing.T) {
	f := newFixture(t)
	_, release, folder := f.seedRelease(t)
	path := filepath.Join(folder, "01 - Come Together.mp3")
	f.writeAudio(t, path, abbeyTags("Come Together", 1, 1))
	f.reader.SetImage(path, tinyGIF)

	coverPath := filepath.Join(folder, pathing.CoverFileName)
	require.NoError(t, os.WriteFile(coverPath, []byte("not an image"), 0o644))

	ctx := context.Background()
	result := f.service.ScanRelease(ctx, release.ExternalID, false)
	require.True(t, result.IsSuccess, "errors: %v", result.ErrorMessages())

	data, err := os.ReadFile(coverPath)
	require.NoError(t, err)
	assert.Equal(t, tinyGIF, data)
}

/*
TestScanRelease_MalformedFileSkipped: a file with unreadable tags is skipped
and reported; the rest of the folder still lands.
*/
func TestScanRelease_MalformedFileSkipped(t *testing.T) {
	f := newFixture(t)
	_, release, folder := f.seedRelease(t)
	f.writeAudio(t, filepath.Join(folder, "01 - Come Together.mp3"), abbeyTags("Come Together", 1, 0))

	// On disk but never registered with the tag reader.
	broken := filepath.Join(folder, "02 - Broken.mp3")
	require.NoError(t, os.WriteFile(broken, []byte("garbage"), 0o644))

	ctx := context.Background()
	result := f.service.ScanRelease(ctx, release.ExternalID, false)

	require.True(t, result.IsSuccess)
	assert.Equal(t, 1, result.Data.NewTracks)
	assert.Equal(t, 1, result.Data.SkippedFiles)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0].Error(), "02 - Broken.mp3")
}

/*
TestScanRelease_NotFound reports an unknown release id without side effects.
*/
func TestScanRelease_NotFound(t *testing.T) {
	f := newFixture(t)

	result := f.service.ScanRelease(context.Background(), uuidv7.Must(), false)

	assert.False(t, result.IsSuccess)
	assert.True(t, result.IsNotFound)
}

/*
TestScanRelease_Locked fails fast when another operation holds the release
lease.
*/
func TestScanRelease_Locked(t *testing.T) {
	f := newFixture(t)
	_, release, _ := f.seedRelease(t)

	unlock, err := f.locks.Acquire(context.Background(), "release:"+release.ExternalID)
	require.NoError(t, err)
	defer unlock()

	result := f.service.ScanRelease(context.Background(), release.ExternalID, false)
	assert.False(t, result.IsSuccess)
	assert.False(t, result.IsNotFound)
}

/*
TestScanArtistFolders_DiscoversRelease picks up an on-disk release folder the
catalog has never seen, creating its rows and scanning it.
*/
func TestScanArtistFolders_DiscoversRelease(t *testing.T) {
	f := newFixture(t)
	artist := f.store.SeedArtist(&catalog.Artist{
		ExternalID: uuidv7.Must(), Name: "The Beatles", SortName: "The Beatles",
	})

	folder := filepath.Join(f.root, "The Beatles", "Let It Be (1970)")
	tags := abbeyTags("Two of Us", 1, 1)
	tags.Album = "Let It Be"
	tags.Year = 1970
	f.writeAudio(t, filepath.Join(folder, "01 - Two of Us.mp3"), tags)

	ctx := context.Background()
	result := f.service.ScanArtistFolders(ctx, artist.ExternalID, false)

	require.True(t, result.IsSuccess, "errors: %v", result.ErrorMessages())
	assert.Equal(t, 1, result.Data.NewReleases)
	assert.Equal(t, 1, result.Data.NewTracks)

	created, err := f.store.Releases().FindReleaseByArtistAndTitle(ctx, artist.ID, "Let It Be")
	require.NoError(t, err)
	assert.Equal(t, 1970, created.Year())
	assert.Equal(t, catalog.StatusComplete, created.Status)

	history, total, err := f.store.History().ListScanHistory(ctx, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, 1, history[0].NewReleases)
}

/*
TestScanFolder_NewArtist creates the artist row from a top-level folder the
catalog has never seen (the library batch-scan entry point).
*/
func TestScanFolder_NewArtist(t *testing.T) {
	f := newFixture(t)

	folder := filepath.Join(f.root, "Pink Floyd", "The Wall (1979)")
	tags := &metadata.File{
		Title: "In the Flesh?", Album: "The Wall",
		AlbumArtist: "Pink Floyd", Artists: []string{"Pink Floyd"},
		TrackNumber: 1, TotalTracks: 1, DiscNumber: 1, Year: 1979,
		DurationMS: 199_000,
	}
	f.writeAudio(t, filepath.Join(folder, "01 - In the Flesh.mp3"), tags)

	ctx := context.Background()
	result := f.service.ScanFolder(ctx, filepath.Join(f.root, "Pink Floyd"), false)

	require.True(t, result.IsSuccess, "errors: %v", result.ErrorMessages())
	assert.Equal(t, 1, result.Data.NewArtists)
	assert.Equal(t, 1, result.Data.NewReleases)
	assert.Equal(t, 1, result.Data.NewTracks)

	created, err := f.store.Artists().FindArtistByName(ctx, "Pink Floyd")
	require.NoError(t, err)
	assert.Equal(t, 1, created.TrackCount)
	assert.Equal(t, 1, created.ReleaseCount)
}
