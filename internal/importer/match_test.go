// Copyright (c) 2026 Resona. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/resona/internal/catalog"
)

/*
TestSimilarity exercises the score ladder: exact folded, exact alphanumeric,
containment, edit distance.
*/
func TestSimilarity(t *testing.T) {
	tests := []struct {
		name    string
		a, b    string
		atLeast float64
		below   float64
	}{
		{name: "case_insensitive_exact", a: "The Beatles", b: "the BEATLES", atLeast: 1},
		{name: "accents_fold", a: "Beyoncé", b: "beyonce", atLeast: 1},
		{name: "punctuation_alphanumeric", a: "AC/DC", b: "ACDC", atLeast: 0.95},
		{name: "single_typo", a: "Pink Floid", b: "Pink Floyd", atLeast: MinScore},
		{name: "unrelated", a: "Diana", b: "Greatest Hits", below: MinScore},
		{name: "partial_containment_weak", a: "Beatles", b: "The Beatles Tribute Orchestra", below: MinScore},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			score := similarity(tc.a, tc.b)
			if tc.atLeast > 0 {
				assert.GreaterOrEqual(t, score, tc.atLeast)
			}
			if tc.below > 0 {
				assert.Less(t, score, tc.below)
			}
		})
	}
}

/*
TestLevenshtein checks the edit distance on classic cases.
*/
func TestLevenshtein(t *testing.T) {
	assert.Equal(t, 0, levenshtein("abbey", "abbey"))
	assert.Equal(t, 3, levenshtein("kitten", "sitting"))
	assert.Equal(t, 3, levenshtein("", "abc"))
	assert.Equal(t, 1, levenshtein("pink floid", "pink floyd"))
}

/*
TestMatchArtist_Ambiguous: two distinct artists at the same top score resolve
to no match rather than an arbitrary pick.
*/
func TestMatchArtist_Ambiguous(t *testing.T) {
	candidates := []*catalog.Artist{
		{ID: 1, Name: "Nirvana", SortName: "Nirvana"},
		{ID: 2, Name: "Nirvana", SortName: "Nirvana"},
	}

	best, ambiguous := matchArtist(candidates, "Nirvana")
	assert.Nil(t, best)
	assert.True(t, ambiguous)
}

/*
TestMatchArtist_Threshold: nothing above the minimum score means no match.
*/
func TestMatchArtist_Threshold(t *testing.T) {
	candidates := []*catalog.Artist{
		{ID: 1, Name: "The Beatles", SortName: "The Beatles"},
	}

	best, ambiguous := matchArtist(candidates, "Completely Unrelated")
	assert.Nil(t, best)
	assert.False(t, ambiguous)
}

/*
TestMatchArtist_AlternateNames: a folded alternate name counts as a full
match.
*/
func TestMatchArtist_AlternateNames(t *testing.T) {
	candidates := []*catalog.Artist{
		{ID: 1, Name: "Prince", SortName: "Prince", AlternateNames: []string{"The Artist Formerly Known As Prince"}},
	}

	best, _ := matchArtist(candidates, "the artist formerly known as prince")
	assert.NotNil(t, best)
}

/*
TestMatchRelease_PrefersExact: an exact title outranks a near-miss.
*/
func TestMatchRelease_PrefersExact(t *testing.T) {
	candidates := []*catalog.Release{
		{ID: 1, Title: "The Wall", SortTitle: "The Wall"},
		{ID: 2, Title: "The Walls", SortTitle: "The Walls"},
	}

	best, ambiguous := matchRelease(candidates, "The Wall")
	assert.False(t, ambiguous)
	if assert.NotNil(t, best) {
		assert.Equal(t, int64(1), best.ID)
	}
}
