// Copyright (c) 2026 Resona. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package metadata reads and writes audio file tags.

The engine treats tag handling as an opaque collaborator: the scanner and the
merge engine consume the [Reader] and [Writer] interfaces, and the production
implementation ([TagLib]) wraps the go.senan.xyz/taglib bindings.
*/
package metadata

import (
	"strconv"
	"strings"
)

// File is the tag content of one audio file.
type File struct {
	Title string
	Album string

	// AlbumArtist is the release-level artist the file reports.
	AlbumArtist string

	// Artists are the contributing (track-level) artists, in tag order.
	// A single entry equal to AlbumArtist means no separate credit.
	Artists []string

	Genre string

	// TrackNumber is the 1-based track ordinal; 0 when the tag is absent.
	TrackNumber int
	// TotalTracks is the self-reported track total of the disc; 0 when absent.
	TotalTracks int
	// DiscNumber defaults to 1 when the tag is absent.
	DiscNumber int

	Year int
	ISRC string

	DurationMS int64
	Bitrate    int
}

// Digest returns a canonical string over the identity-bearing tag fields.
// The content hasher folds it into the track hash, so any tag edit changes
// the hash.
func (f *File) Digest() string {
	parts := []string{
		f.Title,
		f.Album,
		f.AlbumArtist,
		strings.Join(f.Artists, ";"),
		strconv.Itoa(f.TrackNumber),
		strconv.Itoa(f.TotalTracks),
		strconv.Itoa(f.DiscNumber),
		strconv.Itoa(f.Year),
		f.ISRC,
		f.Genre,
		strconv.FormatInt(f.DurationMS, 10),
	}
	return strings.Join(parts, "|")
}

// Contributors returns the track-level artists distinct from the album
// artist. One entry means a real secondary credit; several mean the scanner
// stores a delimited "part titles" string instead of a relation.
func (f *File) Contributors() []string {
	var distinct []string
	for _, a := range f.Artists {
		a = strings.TrimSpace(a)
		if a == "" || strings.EqualFold(a, f.AlbumArtist) {
			continue
		}
		distinct = append(distinct, a)
	}
	return distinct
}

// Reader extracts tags and embedded images from audio files.
type Reader interface {
	// Read parses the file's tags. Malformed or unreadable tags fail with an
	// error; the caller skips such files.
	Read(path string) (*File, error)

	// ReadImage returns the first embedded cover image, or nil when the file
	// carries none.
	ReadImage(path string) ([]byte, error)
}

// Writer persists tags back into audio files.
type Writer interface {
	Write(path string, file *File) error
}
