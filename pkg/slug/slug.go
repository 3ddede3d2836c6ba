// Copyright (c) 2026 Resona. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package slug generates normalized ASCII forms of arbitrary Unicode strings.
//
// # Usage
//
// Resona matches artist and release names coming from three different worlds:
// audio tags, directory names, and externally curated lists. This package
// provides the canonical folded forms those comparisons run on, plus the
// classic URL-slug form used for compact identifiers in log output.
package slug

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	// nonAlphanumeric matches any sequence of non-alphanumeric, non-hyphen characters.
	nonAlphanumeric = regexp.MustCompile(`[^a-z0-9-]+`)
	// multiHyphen collapses multiple consecutive hyphens into one.
	multiHyphen = regexp.MustCompile(`-{2,}`)
	// multiSpace collapses runs of whitespace into a single space.
	multiSpace = regexp.MustCompile(`\s{2,}`)
)

// From converts an arbitrary Unicode string into a URL-safe ASCII slug.
//
// # Transformation Pipeline
//
// 1. Normalizes to NFD (decomposes accented chars: é → e + combining acute).
// 2. Removes combining marks (accents).
// 3. Converts to lowercase.
// 4. Replaces non-alphanumeric characters with hyphens.
// 5. Collapses multiple hyphens and trims leading/trailing hyphens.
func From(s string) string {
	result := strings.ToLower(stripAccents(s))

	result = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return '-'
	}, result)

	result = nonAlphanumeric.ReplaceAllString(result, "-")
	result = multiHyphen.ReplaceAllString(result, "-")
	result = strings.Trim(result, "-")

	return result
}

// Fold returns the general normalized form used for fuzzy name matching:
// accents stripped, lowercased, punctuation folded to spaces, whitespace
// collapsed and trimmed.
//
// "  The Beatles! " and "the beatles" fold to the same value.
func Fold(s string) string {
	result := strings.ToLower(stripAccents(s))

	result = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return ' '
	}, result)

	result = multiSpace.ReplaceAllString(result, " ")

	return strings.TrimSpace(result)
}

// Alphanumeric returns the strict normalized form used as a second matching
// key: accents stripped, lowercased, every non-alphanumeric rune removed.
//
// "AC/DC" and "ACDC" reduce to the same value.
func Alphanumeric(s string) string {
	result := strings.ToLower(stripAccents(s))

	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return -1
	}, result)
}

// stripAccents decomposes to NFD and removes Unicode combining marks.
func stripAccents(s string) string {
	t := transform.Chain(norm.NFD, transform.RemoveFunc(isMn))
	result, _, _ := transform.String(t, s)
	return result
}

// isMn reports whether r is a Unicode non-spacing mark (e.g., accents).
func isMn(r rune) bool {
	return unicode.Is(unicode.Mn, r)
}
