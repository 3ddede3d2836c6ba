// Copyright (c) 2026 Resona. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package catalog

import "time"

// Playlist is a user-ordered list of tracks. The engine never creates
// playlists; it repoints or strips their entries during merges and deletes,
// and recomputes their counters afterwards.
type Playlist struct {
	ID         int64  `json:"-"`
	ExternalID string `json:"id"`
	Name       string `json:"name"`

	TrackCount int   `json:"track_count"`
	DurationMS int64 `json:"duration_ms"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PlaylistTrack is one playlist entry.
type PlaylistTrack struct {
	ID         int64 `json:"-"`
	PlaylistID int64 `json:"-"`
	TrackID    int64 `json:"-"`
	Position   int   `json:"position"`

	CreatedAt time.Time `json:"created_at"`
}
