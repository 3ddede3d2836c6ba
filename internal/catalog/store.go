// Copyright (c) 2026 Resona. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package catalog

import (
	"context"
	"time"
)

// ArtistRepository is the data-access contract for artists.
type ArtistRepository interface {
	GetArtist(ctx context.Context, id int64) (*Artist, error)
	GetArtistByExternalID(ctx context.Context, externalID string) (*Artist, error)

	// FindArtistByName matches on the case-folded display name; used by the
	// scanner to resolve track-artist credits before creating a new row.
	FindArtistByName(ctx context.Context, name string) (*Artist, error)

	// SearchArtistsByNormalizedName returns every artist whose name, sort
	// name or alternate-name list contains either normalized form as a
	// substring. Candidate pool for the fuzzy matcher.
	SearchArtistsByNormalizedName(ctx context.Context, folded, alphanumeric string) ([]*Artist, error)

	ListArtists(ctx context.Context, filter ArtistFilter, limit, offset int) ([]*Artist, int, error)
	CreateArtist(ctx context.Context, artist *Artist) error
	UpdateArtist(ctx context.Context, artist *Artist) error

	// DeleteArtist removes the artist row; owned releases, media and tracks
	// go with it (ON DELETE CASCADE).
	DeleteArtist(ctx context.Context, id int64) error

	SetArtistRank(ctx context.Context, id int64, rank float64) error
	SetArtistCounts(ctx context.Context, id int64, releaseCount, trackCount int) error
}

// ReleaseRepository is the data-access contract for releases.
type ReleaseRepository interface {
	GetRelease(ctx context.Context, id int64) (*Release, error)
	GetReleaseByExternalID(ctx context.Context, externalID string) (*Release, error)
	ListReleasesByArtist(ctx context.Context, artistID int64) ([]*Release, error)

	// FindReleaseByArtistAndTitle matches case-insensitively on title; used
	// by artist merge to detect same-title duplicates.
	FindReleaseByArtistAndTitle(ctx context.Context, artistID int64, title string) (*Release, error)

	CreateRelease(ctx context.Context, release *Release) error
	UpdateRelease(ctx context.Context, release *Release) error
	DeleteRelease(ctx context.Context, id int64) error

	// ReassignReleaseArtist moves ownership to another artist (artist merge).
	ReassignReleaseArtist(ctx context.Context, releaseID, artistID int64) error

	SetReleaseRank(ctx context.Context, id int64, rank float64) error
	SetReleaseCounts(ctx context.Context, id int64, trackCount, mediaCount int, durationMS, playCount int64) error

	// SumReleaseRankByArtist totals the rank of every release owned by the
	// artist (one term of the artist rank formula).
	SumReleaseRankByArtist(ctx context.Context, artistID int64) (float64, error)
	CountReleasesByArtist(ctx context.Context, artistID int64) (int, error)
}

// MediaRepository is the data-access contract for discs.
type MediaRepository interface {
	GetMedia(ctx context.Context, id int64) (*Media, error)
	ListMediaByRelease(ctx context.Context, releaseID int64) ([]*Media, error)
	CreateMedia(ctx context.Context, media *Media) error
	UpdateMedia(ctx context.Context, media *Media) error
	DeleteMedia(ctx context.Context, id int64) error
}

// TrackRepository is the data-access contract for tracks.
type TrackRepository interface {
	GetTrack(ctx context.Context, id int64) (*Track, error)
	ListTracksByMedia(ctx context.Context, mediaID int64) ([]*Track, error)
	ListTracksByRelease(ctx context.Context, releaseID int64) ([]*Track, error)
	CreateTrack(ctx context.Context, track *Track) error
	UpdateTrack(ctx context.Context, track *Track) error
	DeleteTrack(ctx context.Context, id int64) error

	// RepointTrackArtist moves every secondary track-artist credit from one
	// artist to another (artist merge).
	RepointTrackArtist(ctx context.Context, sourceArtistID, destArtistID int64) error

	// ReleaseTrackStats aggregates count/duration/play-count over every track
	// of the release.
	ReleaseTrackStats(ctx context.Context, releaseID int64) (TrackStats, error)

	// DistinctTrackArtistIDs lists every secondary artist credited on the
	// release's tracks (rank cascade targets).
	DistinctTrackArtistIDs(ctx context.Context, releaseID int64) ([]int64, error)

	CountTracksByArtist(ctx context.Context, artistID int64) (int, error)
}

// CollectionRepository is the data-access contract for collections and their
// membership/missing rows.
type CollectionRepository interface {
	GetCollection(ctx context.Context, id int64) (*Collection, error)
	GetCollectionByExternalID(ctx context.Context, externalID string) (*Collection, error)
	ListStaleCollections(ctx context.Context, olderThan time.Time) ([]*Collection, error)
	UpdateCollection(ctx context.Context, collection *Collection) error

	ListCollectionReleases(ctx context.Context, collectionID int64) ([]*CollectionRelease, error)
	CreateCollectionRelease(ctx context.Context, row *CollectionRelease) error
	UpdateCollectionReleasePosition(ctx context.Context, id int64, position int) error

	// DeleteCollectionReleases purges every membership row of the collection.
	DeleteCollectionReleases(ctx context.Context, collectionID int64) error

	// DeleteCollectionReleasesNotIn removes membership rows whose release was
	// not touched during an import pass. Returns the number removed.
	DeleteCollectionReleasesNotIn(ctx context.Context, collectionID int64, keepReleaseIDs []int64) (int64, error)

	// RepointCollectionReleases moves membership rows between releases
	// (release merge).
	RepointCollectionReleases(ctx context.Context, sourceReleaseID, destReleaseID int64) error

	// PlacementsByRelease lists every collection containing the release,
	// with list size and position (rank formula input).
	PlacementsByRelease(ctx context.Context, releaseID int64) ([]Placement, error)

	ClearCollectionMissing(ctx context.Context, collectionID int64) error
	CreateCollectionMissing(ctx context.Context, row *CollectionMissing) error
	ListCollectionMissing(ctx context.Context, collectionID int64) ([]*CollectionMissing, error)
}

// PlaylistRepository is the data-access contract for playlists.
type PlaylistRepository interface {
	GetPlaylist(ctx context.Context, id int64) (*Playlist, error)

	// RepointPlaylistTracks moves entries from one track to another (release
	// merge). Returns the ids of playlists that were touched.
	RepointPlaylistTracks(ctx context.Context, sourceTrackID, destTrackID int64) ([]int64, error)

	// DeletePlaylistTracksByTrack strips every entry referencing the track.
	// Returns the ids of playlists that lost entries.
	DeletePlaylistTracksByTrack(ctx context.Context, trackID int64) ([]int64, error)

	// DeletePlaylistTracksByArtist strips every entry whose track lives under
	// a release owned by the artist (delete cascade). Returns touched
	// playlist ids.
	DeletePlaylistTracksByArtist(ctx context.Context, artistID int64) ([]int64, error)

	// PlaylistTrackStats aggregates entry count and duration for a playlist.
	PlaylistTrackStats(ctx context.Context, playlistID int64) (int, int64, error)
	SetPlaylistCounts(ctx context.Context, playlistID int64, trackCount int, durationMS int64) error
}

// RatingRepository aggregates and repoints per-user rating rows.
type RatingRepository interface {
	// AvgTrackRatingByRelease averages all users' track ratings across the
	// release's tracks. Returns 0 when no ratings exist.
	AvgTrackRatingByRelease(ctx context.Context, releaseID int64) (float64, error)

	// AvgTrackRatingByArtist averages all users' track ratings across every
	// track credited to the artist (release ownership or track-level credit).
	AvgTrackRatingByArtist(ctx context.Context, artistID int64) (float64, error)

	// AvgReleaseRatingByArtist averages all users' release ratings across the
	// artist's releases.
	AvgReleaseRatingByArtist(ctx context.Context, artistID int64) (float64, error)

	RepointArtistRatings(ctx context.Context, sourceArtistID, destArtistID int64) error
	RepointReleaseRatings(ctx context.Context, sourceReleaseID, destReleaseID int64) error
	RepointTrackRatings(ctx context.Context, sourceTrackID, destTrackID int64) error
}

// HistoryRepository appends and lists scan audit records.
type HistoryRepository interface {
	CreateScanHistory(ctx context.Context, record *ScanHistory) error
	ListScanHistory(ctx context.Context, limit, offset int) ([]*ScanHistory, int, error)
}

// Store aggregates every repository plus transaction support.
//
// WithTx runs fn inside a single database transaction: every repository call
// made through the ctx passed to fn shares that transaction. Nested WithTx
// calls join the outer transaction.
type Store interface {
	Artists() ArtistRepository
	Releases() ReleaseRepository
	Media() MediaRepository
	Tracks() TrackRepository
	Collections() CollectionRepository
	Playlists() PlaylistRepository
	Ratings() RatingRepository
	History() HistoryRepository

	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}
