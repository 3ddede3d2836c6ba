// Copyright (c) 2026 Resona. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package catalog

import "time"

// CollectionType distinguishes rank-neutral charts from curated collections.
type CollectionType string

const (
	// CollectionTypeCollection is a curated list; membership boosts release rank.
	CollectionTypeCollection CollectionType = "collection"
	// CollectionTypeChart is a sales/airplay chart; membership carries no
	// rank boost.
	CollectionTypeChart CollectionType = "chart"
)

// Collection is an externally curated ordered list of (artist name, release
// title) pairs, reconciled against the catalog by the importer.
type Collection struct {
	ID         int64          `json:"-"`
	ExternalID string         `json:"id"`
	Name       string         `json:"name"`
	Type       CollectionType `json:"type"`

	// ListData is the raw CSV source: one "position,artist,title" line per entry.
	ListData string `json:"-"`

	// CollectionCount is the number of entries in the source list.
	CollectionCount int `json:"collection_count"`
	// FoundCount is how many entries matched a catalog release on last import.
	FoundCount int `json:"found_count"`

	Status   Status `json:"status"`
	IsLocked bool   `json:"is_locked"`

	LastImportedAt *time.Time `json:"last_imported_at"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// FoundPercent returns the matched fraction of the source list, 0..100.
func (c *Collection) FoundPercent() int {
	if c.CollectionCount == 0 {
		return 0
	}
	return c.FoundCount * 100 / c.CollectionCount
}

// CollectionRelease is a membership row: one matched position in the list.
type CollectionRelease struct {
	ID           int64 `json:"-"`
	CollectionID int64 `json:"-"`
	ReleaseID    int64 `json:"-"`

	// Position is the 1-based list position from the source.
	Position int `json:"position"`

	CreatedAt time.Time `json:"created_at"`
}

// CollectionMissing records a list entry the matcher could not resolve.
type CollectionMissing struct {
	ID           int64 `json:"-"`
	CollectionID int64 `json:"-"`

	Position int `json:"position"`

	// ArtistName and ReleaseTitle are stored in normalized (folded) form.
	ArtistName   string `json:"artist_name"`
	ReleaseTitle string `json:"release_title"`

	// IsArtistFound distinguishes "artist unknown" from "artist known but
	// release not in the library".
	IsArtistFound bool `json:"is_artist_found"`

	CreatedAt time.Time `json:"created_at"`
}

// Placement describes one collection containing a given release. The rank
// engine scores non-chart placements as Size*0.01 - (Position-1)*0.01.
type Placement struct {
	CollectionID int64
	IsChart      bool
	Size         int
	Position     int
}
