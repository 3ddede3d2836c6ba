// Copyright (c) 2026 Resona. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package hashing computes the deterministic content fingerprint of a track.
//
// The hash covers (artist surrogate id, file modification time, metadata
// digest): touching the file or editing any identity-bearing tag changes it,
// which is what drives the scanner's change detection.
package hashing

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/cespare/xxhash/v2"
)

// TrackHash returns the hex-encoded xxhash64 fingerprint of a track's
// current identity.
func TrackHash(artistID int64, modTime time.Time, tagDigest string) string {
	digest := xxhash.New()

	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(artistID))
	_, _ = digest.Write(buf[:])

	binary.BigEndian.PutUint64(buf[:], uint64(modTime.UTC().Unix()))
	_, _ = digest.Write(buf[:])

	_, _ = digest.WriteString(tagDigest)

	return fmt.Sprintf("%016x", digest.Sum64())
}
