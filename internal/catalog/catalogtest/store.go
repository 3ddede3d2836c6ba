// Copyright (c) 2026 Resona. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package catalogtest provides an in-memory [catalog.Store] for engine tests.

Rows are deep-copied on every read and write, so tests observe the same
isolation a real database gives: mutating a returned entity has no effect
until it is written back.
*/
package catalogtest

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/taibuivan/resona/internal/catalog"
	"github.com/taibuivan/resona/internal/platform/dberr"
)

// Store is an in-memory catalog store. The zero value is not usable; call
// [NewStore].
type Store struct {
	mu     sync.Mutex
	nextID int64

	artists     map[int64]*catalog.Artist
	releases    map[int64]*catalog.Release
	media       map[int64]*catalog.Media
	tracks      map[int64]*catalog.Track
	collections map[int64]*catalog.Collection
	members     map[int64]*catalog.CollectionRelease
	missing     map[int64]*catalog.CollectionMissing
	playlists   map[int64]*catalog.Playlist
	entries     map[int64]*catalog.PlaylistTrack
	history     []*catalog.ScanHistory

	// Rating rows, keyed by surrogate id.
	artistRatings  map[int64]*RatingRow
	releaseRatings map[int64]*RatingRow
	trackRatings   map[int64]*RatingRow

	// TxCount counts committed WithTx invocations (outermost only).
	TxCount int
}

// RatingRow is one per-user rating of an artist, release or track.
type RatingRow struct {
	UserID   string
	TargetID int64
	Rating   int
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		artists:        map[int64]*catalog.Artist{},
		releases:       map[int64]*catalog.Release{},
		media:          map[int64]*catalog.Media{},
		tracks:         map[int64]*catalog.Track{},
		collections:    map[int64]*catalog.Collection{},
		members:        map[int64]*catalog.CollectionRelease{},
		missing:        map[int64]*catalog.CollectionMissing{},
		playlists:      map[int64]*catalog.Playlist{},
		entries:        map[int64]*catalog.PlaylistTrack{},
		artistRatings:  map[int64]*RatingRow{},
		releaseRatings: map[int64]*RatingRow{},
		trackRatings:   map[int64]*RatingRow{},
	}
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

// WithTx runs fn directly; the in-memory store has no transaction isolation.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	err := fn(ctx)
	if err == nil {
		s.mu.Lock()
		s.TxCount++
		s.mu.Unlock()
	}
	return err
}

func (s *Store) Artists() catalog.ArtistRepository         { return &artistRepo{s} }
func (s *Store) Releases() catalog.ReleaseRepository       { return &releaseRepo{s} }
func (s *Store) Media() catalog.MediaRepository            { return &mediaRepo{s} }
func (s *Store) Tracks() catalog.TrackRepository           { return &trackRepo{s} }
func (s *Store) Collections() catalog.CollectionRepository { return &collectionRepo{s} }
func (s *Store) Playlists() catalog.PlaylistRepository     { return &playlistRepo{s} }
func (s *Store) Ratings() catalog.RatingRepository         { return &ratingRepo{s} }
func (s *Store) History() catalog.HistoryRepository        { return &historyRepo{s} }

// # Seeding helpers

// SeedArtist inserts an artist and returns it.
func (s *Store) SeedArtist(a *catalog.Artist) *catalog.Artist {
	s.mu.Lock()
	defer s.mu.Unlock()
	a.ID = s.id()
	now := time.Now()
	a.CreatedAt, a.UpdatedAt = now, now
	s.artists[a.ID] = copyArtist(a)
	return a
}

// SeedRelease inserts a release and returns it.
func (s *Store) SeedRelease(r *catalog.Release) *catalog.Release {
	s.mu.Lock()
	defer s.mu.Unlock()
	r.ID = s.id()
	now := time.Now()
	r.CreatedAt, r.UpdatedAt = now, now
	s.releases[r.ID] = copyRelease(r)
	return r
}

// SeedMedia inserts a media row and returns it.
func (s *Store) SeedMedia(m *catalog.Media) *catalog.Media {
	s.mu.Lock()
	defer s.mu.Unlock()
	m.ID = s.id()
	s.media[m.ID] = copyMedia(m)
	return m
}

// SeedTrack inserts a track row and returns it.
func (s *Store) SeedTrack(t *catalog.Track) *catalog.Track {
	s.mu.Lock()
	defer s.mu.Unlock()
	t.ID = s.id()
	s.tracks[t.ID] = copyTrack(t)
	return t
}

// SeedCollection inserts a collection and returns it.
func (s *Store) SeedCollection(c *catalog.Collection) *catalog.Collection {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.ID = s.id()
	s.collections[c.ID] = copyCollection(c)
	return c
}

// SeedPlaylist inserts a playlist and returns it.
func (s *Store) SeedPlaylist(p *catalog.Playlist) *catalog.Playlist {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.ID = s.id()
	s.playlists[p.ID] = copyPlaylist(p)
	return p
}

// SeedPlaylistTrack inserts a playlist entry and returns it.
func (s *Store) SeedPlaylistTrack(pt *catalog.PlaylistTrack) *catalog.PlaylistTrack {
	s.mu.Lock()
	defer s.mu.Unlock()
	pt.ID = s.id()
	s.entries[pt.ID] = &catalog.PlaylistTrack{}
	*s.entries[pt.ID] = *pt
	return pt
}

// SeedTrackRating inserts a per-user track rating.
func (s *Store) SeedTrackRating(userID string, trackID int64, rating int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trackRatings[s.id()] = &RatingRow{UserID: userID, TargetID: trackID, Rating: rating}
}

// SeedReleaseRating inserts a per-user release rating.
func (s *Store) SeedReleaseRating(userID string, releaseID int64, rating int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.releaseRatings[s.id()] = &RatingRow{UserID: userID, TargetID: releaseID, Rating: rating}
}

// SeedArtistRating inserts a per-user artist rating.
func (s *Store) SeedArtistRating(userID string, artistID int64, rating int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.artistRatings[s.id()] = &RatingRow{UserID: userID, TargetID: artistID, Rating: rating}
}

// # Inspection helpers

// CountTracks returns the total number of track rows in the store.
func (s *Store) CountTracks() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tracks)
}

// CountArtists returns the total number of artist rows in the store.
func (s *Store) CountArtists() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.artists)
}

// HasArtist reports whether the artist row still exists.
func (s *Store) HasArtist(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, found := s.artists[id]
	return found
}

// HasRelease reports whether the release row still exists.
func (s *Store) HasRelease(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, found := s.releases[id]
	return found
}

// ArtistRatingTargets returns the distinct artist ids carrying rating rows.
func (s *Store) ArtistRatingTargets() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := map[int64]struct{}{}
	var ids []int64
	for _, row := range s.artistRatings {
		if _, found := seen[row.TargetID]; found {
			continue
		}
		seen[row.TargetID] = struct{}{}
		ids = append(ids, row.TargetID)
	}
	return ids
}

// PlaylistTrackIDs returns the track ids referenced by a playlist, in
// position order.
func (s *Store) PlaylistTrackIDs(playlistID int64) []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	var entries []*catalog.PlaylistTrack
	for _, pt := range s.entries {
		if pt.PlaylistID == playlistID {
			entries = append(entries, pt)
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Position < entries[j].Position })
	ids := make([]int64, len(entries))
	for i, pt := range entries {
		ids[i] = pt.TrackID
	}
	return ids
}

// # Deep copies

func copyArtist(a *catalog.Artist) *catalog.Artist {
	c := *a
	c.AlternateNames = append([]string(nil), a.AlternateNames...)
	c.Genres = append([]string(nil), a.Genres...)
	return &c
}

func copyRelease(r *catalog.Release) *catalog.Release {
	c := *r
	c.AlternateTitles = append([]string(nil), r.AlternateTitles...)
	return &c
}

func copyMedia(m *catalog.Media) *catalog.Media {
	c := *m
	return &c
}

func copyTrack(t *catalog.Track) *catalog.Track {
	c := *t
	return &c
}

func copyCollection(col *catalog.Collection) *catalog.Collection {
	c := *col
	return &c
}

func copyPlaylist(p *catalog.Playlist) *catalog.Playlist {
	c := *p
	return &c
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

var errNotFound = dberr.ErrNotFound
