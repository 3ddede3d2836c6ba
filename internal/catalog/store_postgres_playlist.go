// Copyright (c) 2026 Resona. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package catalog

import (
	"context"

	"github.com/taibuivan/resona/internal/platform/dberr"
)

type pgPlaylists struct {
	*PG
}

func (repository *pgPlaylists) GetPlaylist(ctx context.Context, id int64) (*Playlist, error) {
	const query = `
		SELECT id, externalid, name, trackcount, durationms, createdat, updatedat
		FROM catalog.playlist
		WHERE id = $1`

	p := &Playlist{}
	err := repository.conn(ctx).QueryRow(ctx, query, id).Scan(
		&p.ID, &p.ExternalID, &p.Name, &p.TrackCount, &p.DurationMS, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, dberr.Wrap(err, "get_playlist")
	}
	return p, nil
}

func (repository *pgPlaylists) RepointPlaylistTracks(ctx context.Context, sourceTrackID, destTrackID int64) ([]int64, error) {
	const query = `
		UPDATE catalog.playlisttrack
		SET trackid = $2
		WHERE trackid = $1
		RETURNING playlistid`

	return repository.collectPlaylistIDs(ctx, query, sourceTrackID, destTrackID)
}

func (repository *pgPlaylists) DeletePlaylistTracksByTrack(ctx context.Context, trackID int64) ([]int64, error) {
	const query = `
		DELETE FROM catalog.playlisttrack
		WHERE trackid = $1
		RETURNING playlistid`

	return repository.collectPlaylistIDs(ctx, query, trackID)
}

func (repository *pgPlaylists) DeletePlaylistTracksByArtist(ctx context.Context, artistID int64) ([]int64, error) {
	const query = `
		DELETE FROM catalog.playlisttrack pt
		USING catalog.track t, catalog.media m, catalog.release r
		WHERE pt.trackid = t.id AND t.mediaid = m.id AND m.releaseid = r.id
		  AND (r.artistid = $1 OR t.artistid = $1)
		RETURNING pt.playlistid`

	return repository.collectPlaylistIDs(ctx, query, artistID)
}

func (repository *pgPlaylists) collectPlaylistIDs(ctx context.Context, query string, args ...any) ([]int64, error) {
	rows, err := repository.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, dberr.Wrap(err, "playlist_tracks_mutation")
	}
	defer rows.Close()

	seen := map[int64]struct{}{}
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, dberr.Wrap(err, "scan_playlist_id")
		}
		if _, found := seen[id]; found {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids, nil
}

func (repository *pgPlaylists) PlaylistTrackStats(ctx context.Context, playlistID int64) (int, int64, error) {
	const query = `
		SELECT count(*), COALESCE(SUM(t.durationms), 0)
		FROM catalog.playlisttrack pt
		JOIN catalog.track t ON t.id = pt.trackid
		WHERE pt.playlistid = $1`

	var count int
	var durationMS int64
	if err := repository.conn(ctx).QueryRow(ctx, query, playlistID).Scan(&count, &durationMS); err != nil {
		return 0, 0, dberr.Wrap(err, "playlist_track_stats")
	}
	return count, durationMS, nil
}

func (repository *pgPlaylists) SetPlaylistCounts(ctx context.Context, playlistID int64, trackCount int, durationMS int64) error {
	const query = `
		UPDATE catalog.playlist
		SET trackcount = $2, durationms = $3, updatedat = NOW()
		WHERE id = $1`

	_, err := repository.conn(ctx).Exec(ctx, query, playlistID, trackCount, durationMS)
	return dberr.Wrap(err, "set_playlist_counts")
}
