// Copyright (c) 2026 Resona. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package importer

import (
	"strings"

	"github.com/taibuivan/resona/internal/catalog"
	"github.com/taibuivan/resona/pkg/slug"
)

// MinScore is the score below which a candidate is not considered a match.
const MinScore = 0.85

// scoreEpsilon bounds "same score": two distinct candidates inside it tie.
const scoreEpsilon = 1e-9

// matchArtist picks the best-scoring candidate for the name. A tie between
// two distinct artists is ambiguous and reported as no match.
func matchArtist(candidates []*catalog.Artist, name string) (best *catalog.Artist, ambiguous bool) {
	bestScore := 0.0
	for _, candidate := range candidates {
		score := bestFieldScore(name, append([]string{candidate.Name, candidate.SortName}, candidate.AlternateNames...))
		switch {
		case score < MinScore:
		case best == nil || score > bestScore+scoreEpsilon:
			best, bestScore, ambiguous = candidate, score, false
		case score > bestScore-scoreEpsilon && candidate.ID != best.ID:
			ambiguous = true
		}
	}
	if ambiguous {
		return nil, true
	}
	return best, false
}

// matchRelease picks the best-scoring release for the title, with the same
// tie handling as matchArtist.
func matchRelease(candidates []*catalog.Release, title string) (best *catalog.Release, ambiguous bool) {
	bestScore := 0.0
	for _, candidate := range candidates {
		score := bestFieldScore(title, append([]string{candidate.Title, candidate.SortTitle}, candidate.AlternateTitles...))
		switch {
		case score < MinScore:
		case best == nil || score > bestScore+scoreEpsilon:
			best, bestScore, ambiguous = candidate, score, false
		case score > bestScore-scoreEpsilon && candidate.ID != best.ID:
			ambiguous = true
		}
	}
	if ambiguous {
		return nil, true
	}
	return best, false
}

func bestFieldScore(query string, fields []string) float64 {
	best := 0.0
	for _, field := range fields {
		if score := similarity(query, field); score > best {
			best = score
		}
	}
	return best
}

// similarity scores two names in [0,1]: exact folded match 1.0, exact
// alphanumeric match 0.95, one containing the other scaled by the length
// ratio, otherwise Levenshtein similarity over the folded forms.
func similarity(a, b string) float64 {
	fa, fb := slug.Fold(a), slug.Fold(b)
	if fa == "" || fb == "" {
		return 0
	}
	if fa == fb {
		return 1
	}
	if aa, ab := slug.Alphanumeric(a), slug.Alphanumeric(b); aa != "" && aa == ab {
		return 0.95
	}

	shorter, longer := fa, fb
	if len(shorter) > len(longer) {
		shorter, longer = longer, shorter
	}
	if strings.Contains(longer, shorter) {
		return 0.6 + 0.3*float64(len(shorter))/float64(len(longer))
	}

	distance := levenshtein(fa, fb)
	return 1 - float64(distance)/float64(len([]rune(longer)))
}

// levenshtein is the classic two-row edit distance over runes.
func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	previous := make([]int, len(rb)+1)
	current := make([]int, len(rb)+1)
	for j := range previous {
		previous[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		current[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			current[j] = min(previous[j]+1, current[j-1]+1, previous[j-1]+cost)
		}
		previous, current = current, previous
	}
	return previous[len(rb)]
}
