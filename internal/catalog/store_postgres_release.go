// Copyright (c) 2026 Resona. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package catalog

import (
	"context"

	"github.com/taibuivan/resona/internal/platform/dberr"
)

type pgReleases struct {
	*PG
}

const releaseColumns = `
	id, externalid, artistid, title, sorttitle, alternatetitles, releasedate,
	profile, trackcount, mediacount, durationms, playcount, status,
	librarystatus, rating, rank, islocked, createdat, updatedat`

func (repository *pgReleases) scanRelease(row interface{ Scan(dest ...any) error }) (*Release, error) {
	r := &Release{}
	err := row.Scan(
		&r.ID, &r.ExternalID, &r.ArtistID, &r.Title, &r.SortTitle, &r.AlternateTitles, &r.ReleaseDate,
		&r.Profile, &r.TrackCount, &r.MediaCount, &r.DurationMS, &r.PlayCount, &r.Status,
		&r.LibraryStatus, &r.Rating, &r.Rank, &r.IsLocked, &r.CreatedAt, &r.UpdatedAt,
	)
	return r, err
}

func (repository *pgReleases) GetRelease(ctx context.Context, id int64) (*Release, error) {
	const query = `SELECT` + releaseColumns + ` FROM catalog.release WHERE id = $1`

	r, err := repository.scanRelease(repository.conn(ctx).QueryRow(ctx, query, id))
	if err != nil {
		return nil, dberr.Wrap(err, "get_release")
	}
	return r, nil
}

func (repository *pgReleases) GetReleaseByExternalID(ctx context.Context, externalID string) (*Release, error) {
	const query = `SELECT` + releaseColumns + ` FROM catalog.release WHERE externalid = $1`

	r, err := repository.scanRelease(repository.conn(ctx).QueryRow(ctx, query, externalID))
	if err != nil {
		return nil, dberr.Wrap(err, "get_release_by_external_id")
	}
	return r, nil
}

func (repository *pgReleases) ListReleasesByArtist(ctx context.Context, artistID int64) ([]*Release, error) {
	const query = `SELECT` + releaseColumns + `
		FROM catalog.release
		WHERE artistid = $1
		ORDER BY sorttitle ASC`

	rows, err := repository.conn(ctx).Query(ctx, query, artistID)
	if err != nil {
		return nil, dberr.Wrap(err, "list_releases_by_artist")
	}
	defer rows.Close()

	var releases []*Release
	for rows.Next() {
		r, err := repository.scanRelease(rows)
		if err != nil {
			return nil, dberr.Wrap(err, "scan_release")
		}
		releases = append(releases, r)
	}
	return releases, nil
}

func (repository *pgReleases) FindReleaseByArtistAndTitle(ctx context.Context, artistID int64, title string) (*Release, error) {
	const query = `SELECT` + releaseColumns + `
		FROM catalog.release
		WHERE artistid = $1 AND lower(title) = lower($2)
		ORDER BY id
		LIMIT 1`

	r, err := repository.scanRelease(repository.conn(ctx).QueryRow(ctx, query, artistID, title))
	if err != nil {
		return nil, dberr.Wrap(err, "find_release_by_title")
	}
	return r, nil
}

func (repository *pgReleases) CreateRelease(ctx context.Context, release *Release) error {
	const query = `
		INSERT INTO catalog.release (
			externalid, artistid, title, sorttitle, alternatetitles, releasedate,
			profile, trackcount, mediacount, durationms, playcount, status,
			librarystatus, rating, rank, islocked, createdat, updatedat
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, NOW(), NOW())
		RETURNING id, createdat, updatedat`

	err := repository.conn(ctx).QueryRow(ctx, query,
		release.ExternalID, release.ArtistID, release.Title, release.SortTitle, release.AlternateTitles, release.ReleaseDate,
		release.Profile, release.TrackCount, release.MediaCount, release.DurationMS, release.PlayCount, release.Status,
		release.LibraryStatus, release.Rating, release.Rank, release.IsLocked,
	).Scan(&release.ID, &release.CreatedAt, &release.UpdatedAt)

	return dberr.Wrap(err, "create_release")
}

func (repository *pgReleases) UpdateRelease(ctx context.Context, release *Release) error {
	const query = `
		UPDATE catalog.release
		SET title = $2, sorttitle = $3, alternatetitles = $4, releasedate = $5,
		    profile = $6, status = $7, librarystatus = $8, rating = $9,
		    islocked = $10, updatedat = NOW()
		WHERE id = $1
		RETURNING updatedat`

	err := repository.conn(ctx).QueryRow(ctx, query,
		release.ID, release.Title, release.SortTitle, release.AlternateTitles, release.ReleaseDate,
		release.Profile, release.Status, release.LibraryStatus, release.Rating,
		release.IsLocked,
	).Scan(&release.UpdatedAt)

	return dberr.Wrap(err, "update_release")
}

func (repository *pgReleases) DeleteRelease(ctx context.Context, id int64) error {
	const query = `DELETE FROM catalog.release WHERE id = $1`

	cmd, err := repository.conn(ctx).Exec(ctx, query, id)
	if err != nil {
		return dberr.Wrap(err, "delete_release")
	}
	if cmd.RowsAffected() == 0 {
		return dberr.ErrNotFound
	}
	return nil
}

func (repository *pgReleases) ReassignReleaseArtist(ctx context.Context, releaseID, artistID int64) error {
	const query = `UPDATE catalog.release SET artistid = $2, updatedat = NOW() WHERE id = $1`

	cmd, err := repository.conn(ctx).Exec(ctx, query, releaseID, artistID)
	if err != nil {
		return dberr.Wrap(err, "reassign_release_artist")
	}
	if cmd.RowsAffected() == 0 {
		return dberr.ErrNotFound
	}
	return nil
}

func (repository *pgReleases) SetReleaseRank(ctx context.Context, id int64, rank float64) error {
	const query = `UPDATE catalog.release SET rank = $2, updatedat = NOW() WHERE id = $1`

	_, err := repository.conn(ctx).Exec(ctx, query, id, rank)
	return dberr.Wrap(err, "set_release_rank")
}

func (repository *pgReleases) SetReleaseCounts(ctx context.Context, id int64, trackCount, mediaCount int, durationMS, playCount int64) error {
	const query = `
		UPDATE catalog.release
		SET trackcount = $2, mediacount = $3, durationms = $4, playcount = $5, updatedat = NOW()
		WHERE id = $1`

	_, err := repository.conn(ctx).Exec(ctx, query, id, trackCount, mediaCount, durationMS, playCount)
	return dberr.Wrap(err, "set_release_counts")
}

func (repository *pgReleases) SumReleaseRankByArtist(ctx context.Context, artistID int64) (float64, error) {
	const query = `SELECT COALESCE(SUM(rank), 0) FROM catalog.release WHERE artistid = $1`

	var sum float64
	if err := repository.conn(ctx).QueryRow(ctx, query, artistID).Scan(&sum); err != nil {
		return 0, dberr.Wrap(err, "sum_release_rank")
	}
	return sum, nil
}

func (repository *pgReleases) CountReleasesByArtist(ctx context.Context, artistID int64) (int, error) {
	const query = `SELECT count(*) FROM catalog.release WHERE artistid = $1`

	var count int
	if err := repository.conn(ctx).QueryRow(ctx, query, artistID).Scan(&count); err != nil {
		return 0, dberr.Wrap(err, "count_releases_by_artist")
	}
	return count, nil
}
