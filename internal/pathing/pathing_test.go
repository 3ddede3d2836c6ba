// Copyright (c) 2026 Resona. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package pathing_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/resona/internal/pathing"
)

/*
TestResolver_TrackPath tests the full canonical track path assembly.
*/
func TestResolver_TrackPath(t *testing.T) {
	resolver := pathing.NewResolver("/music")

	tests := []struct {
		name     string
		artist   string
		release  string
		year     int
		media    int
		track    int
		title    string
		ext      string
		expected string
	}{
		{
			name:   "single_disc",
			artist: "Beatles, The", release: "Abbey Road", year: 1969,
			media: 1, track: 1, title: "Come Together", ext: ".mp3",
			expected: "/music/Beatles, The/Abbey Road (1969)/01 - Come Together.mp3",
		},
		{
			name:   "multi_disc_prefix",
			artist: "Pink Floyd", release: "The Wall", year: 1979,
			media: 2, track: 3, title: "Hey You", ext: ".flac",
			expected: "/music/Pink Floyd/The Wall (1979)/2.03 - Hey You.flac",
		},
		{
			name:   "no_year_omits_suffix",
			artist: "Unknown", release: "Demos", year: 0,
			media: 1, track: 12, title: "Sketch", ext: ".ogg",
			expected: "/music/Unknown/Demos/12 - Sketch.ogg",
		},
		{
			name:   "reserved_characters_folded",
			artist: "AC/DC", release: "Back in Black", year: 1980,
			media: 1, track: 1, title: "Hells Bells?", ext: ".mp3",
			expected: "/music/AC DC/Back in Black (1980)/01 - Hells Bells.mp3",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := resolver.TrackPath(tt.artist, tt.release, tt.year, tt.media, tt.track, tt.title, tt.ext)
			assert.Equal(t, filepath.FromSlash(tt.expected), got)
		})
	}
}

/*
TestResolver_PathPurity verifies paths are pure functions of their inputs.
*/
func TestResolver_PathPurity(t *testing.T) {
	resolver := pathing.NewResolver("/music")

	first := resolver.ReleaseDir("Beatles, The", "Abbey Road", 1969)
	second := resolver.ReleaseDir("Beatles, The", "Abbey Road", 1969)
	assert.Equal(t, first, second)

	// Any input change changes the output.
	assert.NotEqual(t, first, resolver.ReleaseDir("Beatles", "Abbey Road", 1969))
	assert.NotEqual(t, first, resolver.ReleaseDir("Beatles, The", "Abbey Road", 1970))
}

/*
TestSafeSegment tests filesystem-reserved character folding.
*/
func TestSafeSegment(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Abbey Road", "Abbey Road"},
		{"AC/DC", "AC DC"},
		{`What's "This"`, "What's This"},
		{"Trailing dots...", "Trailing dots"},
		{"  spaced   out  ", "spaced out"},
		{"***", "_"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, pathing.SafeSegment(tt.input))
		})
	}
}

/*
TestSecondaryImagePath tests the collision-avoiding numeric suffix scheme.
*/
func TestSecondaryImagePath(t *testing.T) {
	assert.Equal(t,
		filepath.FromSlash("/music/A/R/secondary-01.jpg"),
		pathing.SecondaryImagePath(filepath.FromSlash("/music/A/R"), 1),
	)
	assert.Equal(t,
		filepath.FromSlash("/music/A/R/secondary-12.jpg"),
		pathing.SecondaryImagePath(filepath.FromSlash("/music/A/R"), 12),
	)
}

/*
TestIsAudioFile tests audio extension recognition.
*/
func TestIsAudioFile(t *testing.T) {
	assert.True(t, pathing.IsAudioFile("01 - Track.mp3"))
	assert.True(t, pathing.IsAudioFile("track.FLAC"))
	assert.False(t, pathing.IsAudioFile("cover.jpg"))
	assert.False(t, pathing.IsAudioFile("notes.txt"))
}
