// Copyright (c) 2026 Resona. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package catalog

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

// The single-line lookup queries splice a column-list constant between the
// SELECT keyword and the FROM clause. A missing space on either side turns
// the last column and FROM into one token, which postgres rejects.
func TestLookupQueryKeywordSpacing(t *testing.T) {
	queries := map[string]string{
		"get_artist":                    `SELECT` + artistColumns + ` FROM catalog.artist WHERE id = $1`,
		"get_artist_by_external_id":     `SELECT` + artistColumns + ` FROM catalog.artist WHERE externalid = $1`,
		"get_release":                   `SELECT` + releaseColumns + ` FROM catalog.release WHERE id = $1`,
		"get_release_by_external_id":    `SELECT` + releaseColumns + ` FROM catalog.release WHERE externalid = $1`,
		"get_collection":                `SELECT` + collectionColumns + ` FROM catalog.collection WHERE id = $1`,
		"get_collection_by_external_id": `SELECT` + collectionColumns + ` FROM catalog.collection WHERE externalid = $1`,
		"get_track":                     `SELECT` + trackColumns + ` FROM catalog.track WHERE id = $1`,
		"list_tracks_by_media":          `SELECT` + trackColumns + ` FROM catalog.track WHERE mediaid = $1 ORDER BY number ASC`,
	}

	fused := regexp.MustCompile(`[A-Za-z0-9_]FROM\b|\bSELECT[A-Za-z0-9_]`)
	for name, query := range queries {
		assert.NotRegexp(t, fused, query, "query %s fuses a column into a keyword", name)
	}
}
