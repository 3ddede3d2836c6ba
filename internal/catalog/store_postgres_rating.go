// Copyright (c) 2026 Resona. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package catalog

import (
	"context"

	"github.com/taibuivan/resona/internal/platform/dberr"
)

// pgRatings aggregates the per-user rating tables. Rating rows are written by
// the (out-of-scope) user-facing API; the engine only averages and repoints
// them.
type pgRatings struct {
	*PG
}

func (repository *pgRatings) AvgTrackRatingByRelease(ctx context.Context, releaseID int64) (float64, error) {
	const query = `
		SELECT COALESCE(AVG(tr.rating), 0)
		FROM catalog.trackrating tr
		JOIN catalog.track t ON t.id = tr.trackid
		JOIN catalog.media m ON m.id = t.mediaid
		WHERE m.releaseid = $1`

	return repository.queryAvg(ctx, query, releaseID)
}

func (repository *pgRatings) AvgTrackRatingByArtist(ctx context.Context, artistID int64) (float64, error) {
	const query = `
		SELECT COALESCE(AVG(tr.rating), 0)
		FROM catalog.trackrating tr
		JOIN catalog.track t ON t.id = tr.trackid
		JOIN catalog.media m ON m.id = t.mediaid
		JOIN catalog.release r ON r.id = m.releaseid
		WHERE r.artistid = $1 OR t.artistid = $1`

	return repository.queryAvg(ctx, query, artistID)
}

func (repository *pgRatings) AvgReleaseRatingByArtist(ctx context.Context, artistID int64) (float64, error) {
	const query = `
		SELECT COALESCE(AVG(rr.rating), 0)
		FROM catalog.releaserating rr
		JOIN catalog.release r ON r.id = rr.releaseid
		WHERE r.artistid = $1`

	return repository.queryAvg(ctx, query, artistID)
}

func (repository *pgRatings) queryAvg(ctx context.Context, query string, arg any) (float64, error) {
	var avg float64
	if err := repository.conn(ctx).QueryRow(ctx, query, arg).Scan(&avg); err != nil {
		return 0, dberr.Wrap(err, "avg_rating")
	}
	return avg, nil
}

// # Merge repointing
//
// Each repoint first drops source rows whose user already rated the
// destination, then moves the remainder, so the per-user uniqueness
// constraint holds.

func (repository *pgRatings) RepointArtistRatings(ctx context.Context, sourceArtistID, destArtistID int64) error {
	const dedupe = `
		DELETE FROM catalog.artistrating ar
		WHERE ar.artistid = $1
		  AND EXISTS (
			SELECT 1 FROM catalog.artistrating d
			WHERE d.userid = ar.userid AND d.artistid = $2
		  )`
	const query = `UPDATE catalog.artistrating SET artistid = $2 WHERE artistid = $1`

	return repository.repoint(ctx, dedupe, query, sourceArtistID, destArtistID)
}

func (repository *pgRatings) RepointReleaseRatings(ctx context.Context, sourceReleaseID, destReleaseID int64) error {
	const dedupe = `
		DELETE FROM catalog.releaserating rr
		WHERE rr.releaseid = $1
		  AND EXISTS (
			SELECT 1 FROM catalog.releaserating d
			WHERE d.userid = rr.userid AND d.releaseid = $2
		  )`
	const query = `UPDATE catalog.releaserating SET releaseid = $2 WHERE releaseid = $1`

	return repository.repoint(ctx, dedupe, query, sourceReleaseID, destReleaseID)
}

func (repository *pgRatings) RepointTrackRatings(ctx context.Context, sourceTrackID, destTrackID int64) error {
	const dedupe = `
		DELETE FROM catalog.trackrating tr
		WHERE tr.trackid = $1
		  AND EXISTS (
			SELECT 1 FROM catalog.trackrating d
			WHERE d.userid = tr.userid AND d.trackid = $2
		  )`
	const query = `UPDATE catalog.trackrating SET trackid = $2 WHERE trackid = $1`

	return repository.repoint(ctx, dedupe, query, sourceTrackID, destTrackID)
}

func (repository *pgRatings) repoint(ctx context.Context, dedupe, query string, sourceID, destID int64) error {
	if _, err := repository.conn(ctx).Exec(ctx, dedupe, sourceID, destID); err != nil {
		return dberr.Wrap(err, "dedupe_ratings")
	}

	_, err := repository.conn(ctx).Exec(ctx, query, sourceID, destID)
	return dberr.Wrap(err, "repoint_ratings")
}
