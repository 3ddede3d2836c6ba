// Copyright (c) 2026 Resona. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package catalog

import "time"

// ScanHistory is an append-only audit record of one scan invocation.
type ScanHistory struct {
	ID int64 `json:"-"`

	// ArtistID/ReleaseID identify the scan target; nil for whole-library runs.
	ArtistID  *int64 `json:"-"`
	ReleaseID *int64 `json:"-"`

	NewArtists    int `json:"new_artists"`
	NewReleases   int `json:"new_releases"`
	NewTracks     int `json:"new_tracks"`
	UpdatedTracks int `json:"updated_tracks"`

	ElapsedMS int64 `json:"elapsed_ms"`
	IsSuccess bool  `json:"is_success"`

	CreatedAt time.Time `json:"created_at"`
}
