// Copyright (c) 2026 Resona. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package hashing_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/resona/internal/hashing"
)

/*
TestTrackHash_Deterministic verifies identical inputs always hash identically.
*/
func TestTrackHash_Deterministic(t *testing.T) {
	modTime := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	h1 := hashing.TrackHash(42, modTime, "Abbey Road|1|Come Together")
	h2 := hashing.TrackHash(42, modTime, "Abbey Road|1|Come Together")

	assert.Equal(t, h1, h2)
	assert.Len(t, h1, 16)
}

/*
TestTrackHash_SensitiveToEveryInput verifies each input participates in the hash.
*/
func TestTrackHash_SensitiveToEveryInput(t *testing.T) {
	modTime := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	base := hashing.TrackHash(42, modTime, "digest")

	assert.NotEqual(t, base, hashing.TrackHash(43, modTime, "digest"), "artist id")
	assert.NotEqual(t, base, hashing.TrackHash(42, modTime.Add(time.Second), "digest"), "mtime")
	assert.NotEqual(t, base, hashing.TrackHash(42, modTime, "digest2"), "tag digest")
}

/*
TestTrackHash_TimezoneIndependent verifies the mtime is normalized to UTC.
*/
func TestTrackHash_TimezoneIndependent(t *testing.T) {
	utc := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	shifted := utc.In(time.FixedZone("JST", 9*3600))

	assert.Equal(t, hashing.TrackHash(1, utc, "d"), hashing.TrackHash(1, shifted, "d"))
}
