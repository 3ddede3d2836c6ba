// Copyright (c) 2026 Resona. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package catalog

import (
	"context"

	"github.com/taibuivan/resona/internal/platform/dberr"
)

type pgHistory struct {
	*PG
}

func (repository *pgHistory) CreateScanHistory(ctx context.Context, record *ScanHistory) error {
	const query = `
		INSERT INTO catalog.scanhistory (
			artistid, releaseid, newartists, newreleases, newtracks,
			updatedtracks, elapsedms, issuccess, createdat
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
		RETURNING id, createdat`

	err := repository.conn(ctx).QueryRow(ctx, query,
		record.ArtistID, record.ReleaseID, record.NewArtists, record.NewReleases, record.NewTracks,
		record.UpdatedTracks, record.ElapsedMS, record.IsSuccess,
	).Scan(&record.ID, &record.CreatedAt)

	return dberr.Wrap(err, "create_scan_history")
}

func (repository *pgHistory) ListScanHistory(ctx context.Context, limit, offset int) ([]*ScanHistory, int, error) {
	const countQuery = `SELECT count(*) FROM catalog.scanhistory`
	const query = `
		SELECT id, artistid, releaseid, newartists, newreleases, newtracks,
		       updatedtracks, elapsedms, issuccess, createdat
		FROM catalog.scanhistory
		ORDER BY createdat DESC
		LIMIT $1 OFFSET $2`

	var total int
	if err := repository.conn(ctx).QueryRow(ctx, countQuery).Scan(&total); err != nil {
		return nil, 0, dberr.Wrap(err, "count_scan_history")
	}

	rows, err := repository.conn(ctx).Query(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, dberr.Wrap(err, "list_scan_history")
	}
	defer rows.Close()

	var records []*ScanHistory
	for rows.Next() {
		h := &ScanHistory{}
		if err := rows.Scan(
			&h.ID, &h.ArtistID, &h.ReleaseID, &h.NewArtists, &h.NewReleases, &h.NewTracks,
			&h.UpdatedTracks, &h.ElapsedMS, &h.IsSuccess, &h.CreatedAt,
		); err != nil {
			return nil, 0, dberr.Wrap(err, "scan_scan_history")
		}
		records = append(records, h)
	}
	return records, total, nil
}
