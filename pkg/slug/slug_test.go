// Copyright (c) 2026 Resona. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package slug_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/resona/pkg/slug"
)

/*
TestFrom tests URL-slug generation from artist and release names.
*/
func TestFrom(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"simple", "Abbey Road", "abbey-road"},
		{"accents", "Björk", "bjork"},
		{"punctuation", "AC/DC", "ac-dc"},
		{"collapse_hyphens", "The  Wall -- Remastered", "the-wall-remastered"},
		{"trim", "  OK Computer  ", "ok-computer"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, slug.From(tt.input))
		})
	}
}

/*
TestFold tests the general normalized matching form.
*/
func TestFold(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"case_whitespace", "  The Beatles! ", "the beatles"},
		{"accents", "Sigur Rós", "sigur ros"},
		{"punctuation_to_space", "What's Going On", "what s going on"},
		{"collapse_spaces", "Diana   Ross", "diana ross"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, slug.Fold(tt.input))
		})
	}
}

/*
TestAlphanumeric tests the strict alphanumeric-only matching form.
*/
func TestAlphanumeric(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"slashes", "AC/DC", "acdc"},
		{"spaces", "Pink Floyd", "pinkfloyd"},
		{"accents_and_dots", "R.E.M. é", "reme"},
		{"digits", "Blink-182", "blink182"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, slug.Alphanumeric(tt.input))
		})
	}
}
