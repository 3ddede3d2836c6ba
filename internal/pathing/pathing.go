// Copyright (c) 2026 Resona. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package pathing maps catalog naming onto the canonical library folder layout.

Every function is a pure function of its inputs:

	<root>/<Artist sort name>/<Release sort title> (<year>)/<D.NN - Title>.<ext>

Renaming an artist or release therefore changes the resolved path, and the
scanner follows up with a physical move — a stale stored path is never the
source of truth.
*/
package pathing

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// CoverFileName is the canonical folder cover image name.
const CoverFileName = "cover.jpg"

var (
	invalidSegmentChars = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]`)
	multiSpace          = regexp.MustCompile(`\s+`)
)

// Resolver computes canonical paths under one library root.
type Resolver struct {
	Root string
}

// NewResolver creates a resolver rooted at the library path.
func NewResolver(root string) *Resolver {
	return &Resolver{Root: root}
}

// ArtistDir returns the artist's folder path.
func (r *Resolver) ArtistDir(artistSortName string) string {
	return filepath.Join(r.Root, SafeSegment(artistSortName))
}

// ReleaseDir returns the release's folder path. Year 0 omits the suffix.
func (r *Resolver) ReleaseDir(artistSortName, releaseSortTitle string, year int) string {
	segment := SafeSegment(releaseSortTitle)
	if year > 0 {
		segment = fmt.Sprintf("%s (%d)", segment, year)
	}
	return filepath.Join(r.ArtistDir(artistSortName), segment)
}

// TrackPath returns the full canonical path of one track file. The extension
// is carried over from the discovered file (".mp3", ".flac", ...).
func (r *Resolver) TrackPath(artistSortName, releaseSortTitle string, year, mediaNumber, trackNumber int, trackTitle, ext string) string {
	return filepath.Join(
		r.ReleaseDir(artistSortName, releaseSortTitle, year),
		TrackFileName(mediaNumber, trackNumber, trackTitle, ext),
	)
}

// CoverPath returns the release folder's cover image path.
func (r *Resolver) CoverPath(artistSortName, releaseSortTitle string, year int) string {
	return filepath.Join(r.ReleaseDir(artistSortName, releaseSortTitle, year), CoverFileName)
}

// SecondaryImagePath returns the nth secondary image path in a release folder.
func SecondaryImagePath(releaseDir string, n int) string {
	return filepath.Join(releaseDir, fmt.Sprintf("secondary-%02d.jpg", n))
}

// TrackFileName renders one track's canonical file name. Single-disc
// releases use "NN - Title", multi-disc "D.NN - Title".
func TrackFileName(mediaNumber, trackNumber int, trackTitle, ext string) string {
	title := SafeSegment(trackTitle)
	if title == "" {
		title = "Untitled"
	}
	if mediaNumber > 1 {
		return fmt.Sprintf("%d.%02d - %s%s", mediaNumber, trackNumber, title, ext)
	}
	return fmt.Sprintf("%02d - %s%s", trackNumber, title, ext)
}

// SafeSegment folds a display name into a filesystem-safe path segment:
// reserved characters become spaces, whitespace collapses, the result is
// trimmed of dots and spaces.
func SafeSegment(segment string) string {
	s := invalidSegmentChars.ReplaceAllString(segment, " ")
	s = multiSpace.ReplaceAllString(s, " ")
	s = strings.Trim(s, " .")
	if s == "" {
		return "_"
	}
	return s
}

// IsAudioFile reports whether the file extension is a supported audio format.
func IsAudioFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3", ".flac", ".ogg", ".opus", ".m4a", ".aac", ".wav", ".wma", ".ape":
		return true
	}
	return false
}

// IsImageFile reports whether the file extension is a supported image format.
func IsImageFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp":
		return true
	}
	return false
}
