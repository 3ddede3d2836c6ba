// Copyright (c) 2026 Resona. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package batch_test

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

	"github.com/taibuivan/resona/internal/batch"
	"github.com/taibuivan/resona/internal/cache/cachetest"
	"github.com/taibuivan/resona/internal/catalog"
	"github.com/taibuivan/resona/internal/catalog/catalogtest"
	"github.com/taibuivan/resona/internal/importer"
	"github.com/taibuivan/resona/internal/metadata"
	"github.com/taibuivan/resona/internal/metadata/metadatatest"
	"github.com/taibuivan/resona/internal/pathing"
	"github.com/taibuivan/resona/internal/rank"
	"github.com/taibuivan/resona/internal/scanner"
	"github.com/taibuivan/resona/pkg/uuidv7"
)

type fixture struct {
	service *batch.Service
	store   *catalogtest.Store
	cache   *cachetest.Cache
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
	scans := scanner.NewService(store, regionCache, locks, reader, pathing.NewResolver(root), ranker, 2, logger)
	imports := importer.NewService(store, regionCache, locks, ranker, logger)

	service := batch.NewService(store, regionCache, scans, imports, root, 24*time.Hour, logger)
	return &fixture{service: service, store: store, cache: regionCache, reader: reader, root: root}
}

// writeAudio places a fake audio file on disk and registers its tags.
func (f *fixture) writeAudio(t *testing.T, path string, title string, number int) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("audio-bytes"), 0o644))
	f.reader.Set(path, &metadata.File{
		Title: title, TrackNumber: number, TotalTracks: 1, DiscNumber: 1,
	})
}

/*
TestRunLibraryScan discovers two artist folders from an empty catalog.
*/
func TestRunLibraryScan(t *testing.T) {
	f := newFixture(t)
	f.writeAudio(t,
		filepath.Join(f.root, "The Beatles", "Abbey Road (1969)", "01 - Come Together.mp3"),
		"Come Together", 1)
	f.writeAudio(t,
		filepath.Join(f.root, "Pink Floyd", "The Wall (1979)", "01 - In the Flesh.mp3"),
		"In the Flesh?", 1)

	ctx := context.Background()
	result := f.service.RunLibraryScan(ctx, false)

	require.True(t, result.IsSuccess, "errors: %v", result.ErrorMessages())
	assert.Equal(t, 2, result.Data.ArtistFolders)
	assert.Zero(t, result.Data.FailedFolders)
	assert.Equal(t, 2, result.Data.Scan.NewArtists)
	assert.Equal(t, 2, result.Data.Scan.NewReleases)
	assert.Equal(t, 2, result.Data.Scan.NewTracks)
	assert.Equal(t, 2, f.cache.Flushes, "cache flushes once per folder")

	beatles, err := f.store.Artists().FindArtistByName(ctx, "The Beatles")
	require.NoError(t, err)
	assert.Equal(t, 1, beatles.ReleaseCount)
}

/*
TestRunLibraryScan_Idempotent: a second run over an unchanged tree creates
nothing.
*/
func TestRunLibraryScan_Idempotent(t *testing.T) {
	f := newFixture(t)
	f.writeAudio(t,
		filepath.Join(f.root, "The Beatles", "Abbey Road (1969)", "01 - Come Together.mp3"),
		"Come Together", 1)

	ctx := context.Background()
	require.True(t, f.service.RunLibraryScan(ctx, false).IsSuccess)

	second := f.service.RunLibraryScan(ctx, false)
	require.True(t, second.IsSuccess)
	assert.Equal(t, 1, second.Data.ArtistFolders)
	assert.Zero(t, second.Data.Scan.NewArtists)
	assert.Zero(t, second.Data.Scan.NewTracks)
	assert.Zero(t, second.Data.Scan.UpdatedTracks)
}

/*
TestRunLibraryScan_DryRun reports discovery counts without catalog writes.
*/
func TestRunLibraryScan_DryRun(t *testing.T) {
	f := newFixture(t)
	f.writeAudio(t,
		filepath.Join(f.root, "The Beatles", "Abbey Road (1969)", "01 - Come Together.mp3"),
		"Come Together", 1)

	ctx := context.Background()
	result := f.service.RunLibraryScan(ctx, true)

	require.True(t, result.IsSuccess)
	assert.Equal(t, 1, result.Data.Scan.NewArtists)
	_, err := f.store.Artists().FindArtistByName(ctx, "The Beatles")
	assert.Error(t, err)
	assert.Zero(t, f.cache.Flushes)
}

/*
TestRefreshStaleCollections re-imports only unlocked, stale collections.
*/
func TestRefreshStaleCollections(t *testing.T) {
	f := newFixture(t)
	artist := f.store.SeedArtist(&catalog.Artist{
		ExternalID: uuidv7.Must(), Name: "The Beatles", SortName: "The Beatles",
	})
	f.store.SeedRelease(&catalog.Release{
		ExternalID: uuidv7.Must(), ArtistID: artist.ID,
		Title: "Abbey Road", SortTitle: "Abbey Road",
		Status: catalog.StatusComplete, LibraryStatus: catalog.StatusComplete,
	})

	old := time.Now().Add(-48 * time.Hour)
	stale := f.store.SeedCollection(&catalog.Collection{
		ExternalID: uuidv7.Must(), Name: "Stale List",
		Type:     catalog.CollectionTypeCollection,
		ListData: "1,The Beatles,Abbey Road\n", Status: catalog.StatusMissing,
		LastImportedAt: &old,
	})
	fresh := time.Now()
	f.store.SeedCollection(&catalog.Collection{
		ExternalID: uuidv7.Must(), Name: "Fresh List",
		Type:     catalog.CollectionTypeCollection,
		ListData: "1,The Beatles,Abbey Road\n", Status: catalog.StatusComplete,
		LastImportedAt: &fresh,
	})
	f.store.SeedCollection(&catalog.Collection{
		ExternalID: uuidv7.Must(), Name: "Locked List",
		Type:     catalog.CollectionTypeCollection,
		ListData: "1,The Beatles,Abbey Road\n", Status: catalog.StatusComplete,
		IsLocked: true, LastImportedAt: &old,
	})

	ctx := context.Background()
	result := f.service.RefreshStaleCollections(ctx)

	require.True(t, result.IsSuccess, "errors: %v", result.ErrorMessages())
	assert.Equal(t, 1, result.Data.Collections)
	assert.Zero(t, result.Data.Failed)

	updated, err := f.store.Collections().GetCollection(ctx, stale.ID)
	require.NoError(t, err)
	assert.Equal(t, catalog.StatusComplete, updated.Status)
	assert.Equal(t, 1, updated.FoundCount)
}
