// Copyright (c) 2026 Resona. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package importer

import (
	"encoding/csv"
	"strings"

	"github.com/taibuivan/resona/internal/platform/apperr"
	"github.com/taibuivan/resona/pkg/convert"
)

// tuple is one parsed collection entry.
type tuple struct {
	Position int
	Artist   string
	Release  string
}

// parseListData parses a collection's raw list into ordered tuples. Each
// record is "position,artist,title"; the position column may be omitted, in
// which case entries number sequentially. Blank lines are skipped.
func parseListData(listData string) ([]tuple, error) {
	reader := csv.NewReader(strings.NewReader(listData))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, apperr.Unprocessable("collection list is not valid CSV: " + err.Error())
	}

	var tuples []tuple
	for _, record := range records {
		for i := range record {
			record[i] = strings.TrimSpace(record[i])
		}

		var entry tuple
		switch len(record) {
		case 2:
			entry = tuple{Position: len(tuples) + 1, Artist: record[0], Release: record[1]}
		case 3:
			entry = tuple{Position: convert.ToIntD(record[0], len(tuples)+1), Artist: record[1], Release: record[2]}
		default:
			continue
		}
		if entry.Artist == "" || entry.Release == "" {
			continue
		}
		tuples = append(tuples, entry)
	}
	return tuples, nil
}
