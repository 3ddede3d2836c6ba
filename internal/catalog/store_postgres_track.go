// Copyright (c) 2026 Resona. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package catalog

import (
	"context"

	"github.com/taibuivan/resona/internal/platform/dberr"
)

// # Media

type pgMedia struct {
	*PG
}

const mediaColumns = `id, releaseid, number, trackcount, status, createdat, updatedat`

func (repository *pgMedia) scanMedia(row interface{ Scan(dest ...any) error }) (*Media, error) {
	m := &Media{}
	err := row.Scan(&m.ID, &m.ReleaseID, &m.Number, &m.TrackCount, &m.Status, &m.CreatedAt, &m.UpdatedAt)
	return m, err
}

func (repository *pgMedia) GetMedia(ctx context.Context, id int64) (*Media, error) {
	const query = `SELECT ` + mediaColumns + ` FROM catalog.media WHERE id = $1`

	m, err := repository.scanMedia(repository.conn(ctx).QueryRow(ctx, query, id))
	if err != nil {
		return nil, dberr.Wrap(err, "get_media")
	}
	return m, nil
}

func (repository *pgMedia) ListMediaByRelease(ctx context.Context, releaseID int64) ([]*Media, error) {
	const query = `SELECT ` + mediaColumns + ` FROM catalog.media WHERE releaseid = $1 ORDER BY number ASC`

	rows, err := repository.conn(ctx).Query(ctx, query, releaseID)
	if err != nil {
		return nil, dberr.Wrap(err, "list_media")
	}
	defer rows.Close()

	var media []*Media
	for rows.Next() {
		m, err := repository.scanMedia(rows)
		if err != nil {
			return nil, dberr.Wrap(err, "scan_media")
		}
		media = append(media, m)
	}
	return media, nil
}

func (repository *pgMedia) CreateMedia(ctx context.Context, media *Media) error {
	const query = `
		INSERT INTO catalog.media (releaseid, number, trackcount, status, createdat, updatedat)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		RETURNING id, createdat, updatedat`

	err := repository.conn(ctx).QueryRow(ctx, query,
		media.ReleaseID, media.Number, media.TrackCount, media.Status,
	).Scan(&media.ID, &media.CreatedAt, &media.UpdatedAt)

	return dberr.Wrap(err, "create_media")
}

func (repository *pgMedia) UpdateMedia(ctx context.Context, media *Media) error {
	const query = `
		UPDATE catalog.media
		SET releaseid = $2, number = $3, trackcount = $4, status = $5, updatedat = NOW()
		WHERE id = $1
		RETURNING updatedat`

	err := repository.conn(ctx).QueryRow(ctx, query,
		media.ID, media.ReleaseID, media.Number, media.TrackCount, media.Status,
	).Scan(&media.UpdatedAt)

	return dberr.Wrap(err, "update_media")
}

func (repository *pgMedia) DeleteMedia(ctx context.Context, id int64) error {
	const query = `DELETE FROM catalog.media WHERE id = $1`

	cmd, err := repository.conn(ctx).Exec(ctx, query, id)
	if err != nil {
		return dberr.Wrap(err, "delete_media")
	}
	if cmd.RowsAffected() == 0 {
		return dberr.ErrNotFound
	}
	return nil
}

// # Tracks

type pgTracks struct {
	*PG
}

const trackColumns = `
	id, externalid, mediaid, artistid, number, title, parttitles, durationms,
	filesize, hash, filepath, isrc, playcount, lastplayedat, rating, status,
	createdat, updatedat`

func (repository *pgTracks) scanTrack(row interface{ Scan(dest ...any) error }) (*Track, error) {
	t := &Track{}
	err := row.Scan(
		&t.ID, &t.ExternalID, &t.MediaID, &t.ArtistID, &t.Number, &t.Title, &t.PartTitles, &t.DurationMS,
		&t.FileSize, &t.Hash, &t.FilePath, &t.ISRC, &t.PlayCount, &t.LastPlayedAt, &t.Rating, &t.Status,
		&t.CreatedAt, &t.UpdatedAt,
	)
	return t, err
}

func (repository *pgTracks) GetTrack(ctx context.Context, id int64) (*Track, error) {
	const query = `SELECT` + trackColumns + ` FROM catalog.track WHERE id = $1`

	t, err := repository.scanTrack(repository.conn(ctx).QueryRow(ctx, query, id))
	if err != nil {
		return nil, dberr.Wrap(err, "get_track")
	}
	return t, nil
}

func (repository *pgTracks) ListTracksByMedia(ctx context.Context, mediaID int64) ([]*Track, error) {
	const query = `SELECT` + trackColumns + ` FROM catalog.track WHERE mediaid = $1 ORDER BY number ASC`

	return repository.queryTracks(ctx, query, mediaID)
}

func (repository *pgTracks) ListTracksByRelease(ctx context.Context, releaseID int64) ([]*Track, error) {
	const query = `
		SELECT t.id, t.externalid, t.mediaid, t.artistid, t.number, t.title, t.parttitles, t.durationms,
		       t.filesize, t.hash, t.filepath, t.isrc, t.playcount, t.lastplayedat, t.rating, t.status,
		       t.createdat, t.updatedat
		FROM catalog.track t
		JOIN catalog.media m ON m.id = t.mediaid
		WHERE m.releaseid = $1
		ORDER BY m.number ASC, t.number ASC`

	return repository.queryTracks(ctx, query, releaseID)
}

func (repository *pgTracks) queryTracks(ctx context.Context, query string, args ...any) ([]*Track, error) {
	rows, err := repository.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, dberr.Wrap(err, "list_tracks")
	}
	defer rows.Close()

	var tracks []*Track
	for rows.Next() {
		t, err := repository.scanTrack(rows)
		if err != nil {
			return nil, dberr.Wrap(err, "scan_track")
		}
		tracks = append(tracks, t)
	}
	return tracks, nil
}

func (repository *pgTracks) CreateTrack(ctx context.Context, track *Track) error {
	const query = `
		INSERT INTO catalog.track (
			externalid, mediaid, artistid, number, title, parttitles, durationms,
			filesize, hash, filepath, isrc, playcount, lastplayedat, rating, status,
			createdat, updatedat
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, NOW(), NOW())
		RETURNING id, createdat, updatedat`

	err := repository.conn(ctx).QueryRow(ctx, query,
		track.ExternalID, track.MediaID, track.ArtistID, track.Number, track.Title, track.PartTitles, track.DurationMS,
		track.FileSize, track.Hash, track.FilePath, track.ISRC, track.PlayCount, track.LastPlayedAt, track.Rating, track.Status,
	).Scan(&track.ID, &track.CreatedAt, &track.UpdatedAt)

	return dberr.Wrap(err, "create_track")
}

func (repository *pgTracks) UpdateTrack(ctx context.Context, track *Track) error {
	const query = `
		UPDATE catalog.track
		SET mediaid = $2, artistid = $3, number = $4, title = $5, parttitles = $6,
		    durationms = $7, filesize = $8, hash = $9, filepath = $10, isrc = $11,
		    playcount = $12, lastplayedat = $13, rating = $14, status = $15, updatedat = NOW()
		WHERE id = $1
		RETURNING updatedat`

	err := repository.conn(ctx).QueryRow(ctx, query,
		track.ID, track.MediaID, track.ArtistID, track.Number, track.Title, track.PartTitles,
		track.DurationMS, track.FileSize, track.Hash, track.FilePath, track.ISRC,
		track.PlayCount, track.LastPlayedAt, track.Rating, track.Status,
	).Scan(&track.UpdatedAt)

	return dberr.Wrap(err, "update_track")
}

func (repository *pgTracks) DeleteTrack(ctx context.Context, id int64) error {
	const query = `DELETE FROM catalog.track WHERE id = $1`

	cmd, err := repository.conn(ctx).Exec(ctx, query, id)
	if err != nil {
		return dberr.Wrap(err, "delete_track")
	}
	if cmd.RowsAffected() == 0 {
		return dberr.ErrNotFound
	}
	return nil
}

func (repository *pgTracks) RepointTrackArtist(ctx context.Context, sourceArtistID, destArtistID int64) error {
	const query = `UPDATE catalog.track SET artistid = $2, updatedat = NOW() WHERE artistid = $1`

	_, err := repository.conn(ctx).Exec(ctx, query, sourceArtistID, destArtistID)
	return dberr.Wrap(err, "repoint_track_artist")
}

func (repository *pgTracks) ReleaseTrackStats(ctx context.Context, releaseID int64) (TrackStats, error) {
	const query = `
		SELECT count(*), COALESCE(SUM(t.durationms), 0), COALESCE(SUM(t.playcount), 0)
		FROM catalog.track t
		JOIN catalog.media m ON m.id = t.mediaid
		WHERE m.releaseid = $1`

	var stats TrackStats
	err := repository.conn(ctx).QueryRow(ctx, query, releaseID).Scan(
		&stats.TrackCount, &stats.DurationMS, &stats.PlayCount,
	)
	if err != nil {
		return TrackStats{}, dberr.Wrap(err, "release_track_stats")
	}
	return stats, nil
}

func (repository *pgTracks) DistinctTrackArtistIDs(ctx context.Context, releaseID int64) ([]int64, error) {
	const query = `
		SELECT DISTINCT t.artistid
		FROM catalog.track t
		JOIN catalog.media m ON m.id = t.mediaid
		WHERE m.releaseid = $1 AND t.artistid IS NOT NULL`

	rows, err := repository.conn(ctx).Query(ctx, query, releaseID)
	if err != nil {
		return nil, dberr.Wrap(err, "distinct_track_artists")
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, dberr.Wrap(err, "scan_track_artist_id")
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (repository *pgTracks) CountTracksByArtist(ctx context.Context, artistID int64) (int, error) {
	// Tracks belong to an artist either through release ownership or through
	// a direct track-level credit.
	const query = `
		SELECT count(DISTINCT t.id)
		FROM catalog.track t
		JOIN catalog.media m ON m.id = t.mediaid
		JOIN catalog.release r ON r.id = m.releaseid
		WHERE r.artistid = $1 OR t.artistid = $1`

	var count int
	if err := repository.conn(ctx).QueryRow(ctx, query, artistID).Scan(&count); err != nil {
		return 0, dberr.Wrap(err, "count_tracks_by_artist")
	}
	return count, nil
}
