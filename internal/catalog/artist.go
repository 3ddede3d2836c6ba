// Copyright (c) 2026 Resona. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package catalog defines the persisted entities of the music library — Artist,
Release, Media, Track, Collection, ScanHistory, Playlist — together with the
repository interfaces the reconciliation engine consumes and their PostgreSQL
implementations.

# Identity

Every user-visible entity carries two identifiers: an internal BIGSERIAL
surrogate (ID) used for foreign keys and joins, and an immutable UUIDv7
ExternalID exposed to callers. Merges retire the source's external id; the
destination's survives.

# Derived fields

Counter and rank fields (TrackCount, Rank, ...) are denormalized caches. They
are recomputed from child rows by the rank engine and must never be maintained
incrementally.
*/
package catalog

import "time"

// ArtistType classifies an artist entry.
type ArtistType string

const (
	ArtistTypePerson ArtistType = "person"
	ArtistTypeGroup  ArtistType = "group"
)

// Artist is a music artist owning zero or more releases.
type Artist struct {
	ID         int64      `json:"-"`
	ExternalID string     `json:"id"`
	Name       string     `json:"name"`
	SortName   string     `json:"sort_name"`
	// AlternateNames collects aliases, misspellings and the names of merged-in
	// duplicates. Fuzzy matching searches it alongside Name and SortName.
	AlternateNames []string   `json:"alternate_names"`
	Genres         []string   `json:"genres"`
	Type           ArtistType `json:"type"`
	Biography      *string    `json:"biography"`
	ImagePath      *string    `json:"image_path"`

	// Rating is the artist's own aggregate rating (user-derived).
	Rating int `json:"rating"`
	// Rank is computed bottom-up by the rank engine; never directly editable.
	Rank float64 `json:"rank"`

	ReleaseCount int `json:"release_count"`
	TrackCount   int `json:"track_count"`

	// IsLocked guards the artist against automated mutation (scans still
	// update file state but metadata edits are refused).
	IsLocked bool `json:"is_locked"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ArtistFilter narrows artist list queries.
type ArtistFilter struct {
	// Query is matched as a substring against name, sortname and alternate names.
	Query string
}
