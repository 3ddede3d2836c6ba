// Copyright (c) 2026 Resona. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package catalog

import "time"

// Status is the shared lifecycle status for releases, media and tracks.
type Status string

const (
	StatusNew        Status = "New"
	StatusIncomplete Status = "Incomplete"
	StatusOk         Status = "Ok"
	StatusComplete   Status = "Complete"
	StatusMissing    Status = "Missing"
)

// Release is an album (or EP/single) owned by exactly one artist.
//
// Status and LibraryStatus are Complete iff every media's on-disk track
// numbers are gapless 1..N and N equals the metadata-reported total.
type Release struct {
	ID         int64  `json:"-"`
	ExternalID string `json:"id"`
	ArtistID   int64  `json:"-"`

	Title     string `json:"title"`
	SortTitle string `json:"sort_title"`
	// AlternateTitles collects alias titles and titles of merged-in duplicates.
	AlternateTitles []string   `json:"alternate_titles"`
	ReleaseDate     *time.Time `json:"release_date"`
	Profile         *string    `json:"profile"`

	TrackCount int   `json:"track_count"`
	MediaCount int   `json:"media_count"`
	DurationMS int64 `json:"duration_ms"`
	PlayCount  int64 `json:"play_count"`

	Status        Status `json:"status"`
	LibraryStatus Status `json:"library_status"`

	Rating int     `json:"rating"`
	Rank   float64 `json:"rank"`

	IsLocked bool `json:"is_locked"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Year returns the release year, or 0 when the release date is unknown.
func (r *Release) Year() int {
	if r.ReleaseDate == nil {
		return 0
	}
	return r.ReleaseDate.Year()
}

// Media is one disc of a release, ordered by Number, owning ordered tracks.
type Media struct {
	ID        int64 `json:"-"`
	ReleaseID int64 `json:"-"`

	// Number is the disc ordinal within the release, starting at 1.
	Number int `json:"number"`

	TrackCount int    `json:"track_count"`
	Status     Status `json:"status"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Track is one audio file row. Its identity within a release is
// (Media, Number). A nil Hash means the file is currently missing on disk.
type Track struct {
	ID         int64  `json:"-"`
	ExternalID string `json:"id"`
	MediaID    int64  `json:"-"`

	// ArtistID is the optional secondary "track artist", set when the audio
	// tags declare a single contributing artist distinct from the release's
	// artist. Multiple contributors land in PartTitles instead.
	ArtistID *int64 `json:"-"`

	Number int    `json:"number"`
	Title  string `json:"title"`

	// PartTitles holds multiple contributing artists as one delimited string
	// (constants.PartTitlesSeparator).
	PartTitles *string `json:"part_titles"`

	DurationMS int64   `json:"duration_ms"`
	FileSize   int64   `json:"file_size"`
	Hash       *string `json:"hash"`
	FilePath   string  `json:"file_path"`
	ISRC       *string `json:"isrc"`

	PlayCount    int64      `json:"play_count"`
	LastPlayedAt *time.Time `json:"last_played_at"`
	Rating       int        `json:"rating"`

	Status Status `json:"status"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsMissing reports whether the track's file is currently absent on disk.
func (t *Track) IsMissing() bool {
	return t.Hash == nil || *t.Hash == ""
}

// TrackStats aggregates child-track values for one release. It feeds the
// count recomputation in the rank engine.
type TrackStats struct {
	TrackCount int
	DurationMS int64
	PlayCount  int64
}
