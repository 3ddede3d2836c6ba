// Copyright (c) 2026 Resona. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package catalog

import (
	"context"
	"fmt"

	"github.com/taibuivan/resona/internal/platform/dberr"
)

type pgArtists struct {
	*PG
}

const artistColumns = `
	id, externalid, name, sortname, alternatenames, genres, type,
	biography, imagepath, rating, rank, releasecount, trackcount,
	islocked, createdat, updatedat`

func (repository *pgArtists) scanArtist(row interface{ Scan(dest ...any) error }) (*Artist, error) {
	a := &Artist{}
	err := row.Scan(
		&a.ID, &a.ExternalID, &a.Name, &a.SortName, &a.AlternateNames, &a.Genres, &a.Type,
		&a.Biography, &a.ImagePath, &a.Rating, &a.Rank, &a.ReleaseCount, &a.TrackCount,
		&a.IsLocked, &a.CreatedAt, &a.UpdatedAt,
	)
	return a, err
}

func (repository *pgArtists) GetArtist(ctx context.Context, id int64) (*Artist, error) {
	const query = `SELECT` + artistColumns + ` FROM catalog.artist WHERE id = $1`

	a, err := repository.scanArtist(repository.conn(ctx).QueryRow(ctx, query, id))
	if err != nil {
		return nil, dberr.Wrap(err, "get_artist")
	}
	return a, nil
}

func (repository *pgArtists) GetArtistByExternalID(ctx context.Context, externalID string) (*Artist, error) {
	const query = `SELECT` + artistColumns + ` FROM catalog.artist WHERE externalid = $1`

	a, err := repository.scanArtist(repository.conn(ctx).QueryRow(ctx, query, externalID))
	if err != nil {
		return nil, dberr.Wrap(err, "get_artist_by_external_id")
	}
	return a, nil
}

func (repository *pgArtists) FindArtistByName(ctx context.Context, name string) (*Artist, error) {
	const query = `SELECT` + artistColumns + `
		FROM catalog.artist
		WHERE lower(name) = lower($1) OR lower(sortname) = lower($1)
		ORDER BY id
		LIMIT 1`

	a, err := repository.scanArtist(repository.conn(ctx).QueryRow(ctx, query, name))
	if err != nil {
		return nil, dberr.Wrap(err, "find_artist_by_name")
	}
	return a, nil
}

func (repository *pgArtists) SearchArtistsByNormalizedName(ctx context.Context, folded, alphanumeric string) ([]*Artist, error) {
	// Substring containment over name, sortname and the alternate-name list,
	// for either normalized form. Enumeration order is stable (by id) so the
	// matcher's scoring is deterministic.
	const query = `SELECT` + artistColumns + `
		FROM catalog.artist
		WHERE lower(name) LIKE $1 OR lower(sortname) LIKE $1
		   OR lower(array_to_string(alternatenames, '|')) LIKE $1
		   OR lower(name) LIKE $2 OR lower(sortname) LIKE $2
		   OR lower(array_to_string(alternatenames, '|')) LIKE $2
		ORDER BY id`

	rows, err := repository.conn(ctx).Query(ctx, query, "%"+folded+"%", "%"+alphanumeric+"%")
	if err != nil {
		return nil, dberr.Wrap(err, "search_artists")
	}
	defer rows.Close()

	var artists []*Artist
	for rows.Next() {
		a, err := repository.scanArtist(rows)
		if err != nil {
			return nil, dberr.Wrap(err, "scan_artist")
		}
		artists = append(artists, a)
	}
	return artists, nil
}

func (repository *pgArtists) ListArtists(ctx context.Context, filter ArtistFilter, limit, offset int) ([]*Artist, int, error) {
	query := `SELECT` + artistColumns + ` FROM catalog.artist`
	countQuery := `SELECT count(*) FROM catalog.artist`

	args := []any{}
	countArgs := []any{}

	if filter.Query != "" {
		searchTerm := "%" + filter.Query + "%"
		clause := ` WHERE name ILIKE $1 OR sortname ILIKE $1 OR array_to_string(alternatenames, ' ') ILIKE $1`
		query += clause
		countQuery += clause
		args = append(args, searchTerm)
		countArgs = append(countArgs, searchTerm)
	}

	query += fmt.Sprintf(" ORDER BY sortname ASC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	var total int
	if err := repository.conn(ctx).QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, dberr.Wrap(err, "count_artists")
	}

	rows, err := repository.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, dberr.Wrap(err, "list_artists")
	}
	defer rows.Close()

	var artists []*Artist
	for rows.Next() {
		a, err := repository.scanArtist(rows)
		if err != nil {
			return nil, 0, dberr.Wrap(err, "scan_artist")
		}
		artists = append(artists, a)
	}
	return artists, total, nil
}

func (repository *pgArtists) CreateArtist(ctx context.Context, artist *Artist) error {
	const query = `
		INSERT INTO catalog.artist (
			externalid, name, sortname, alternatenames, genres, type,
			biography, imagepath, rating, rank, releasecount, trackcount,
			islocked, createdat, updatedat
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NOW(), NOW())
		RETURNING id, createdat, updatedat`

	err := repository.conn(ctx).QueryRow(ctx, query,
		artist.ExternalID, artist.Name, artist.SortName, artist.AlternateNames, artist.Genres, artist.Type,
		artist.Biography, artist.ImagePath, artist.Rating, artist.Rank, artist.ReleaseCount, artist.TrackCount,
		artist.IsLocked,
	).Scan(&artist.ID, &artist.CreatedAt, &artist.UpdatedAt)

	return dberr.Wrap(err, "create_artist")
}

func (repository *pgArtists) UpdateArtist(ctx context.Context, artist *Artist) error {
	const query = `
		UPDATE catalog.artist
		SET name = $2, sortname = $3, alternatenames = $4, genres = $5, type = $6,
		    biography = $7, imagepath = $8, rating = $9, islocked = $10, updatedat = NOW()
		WHERE id = $1
		RETURNING updatedat`

	err := repository.conn(ctx).QueryRow(ctx, query,
		artist.ID, artist.Name, artist.SortName, artist.AlternateNames, artist.Genres, artist.Type,
		artist.Biography, artist.ImagePath, artist.Rating, artist.IsLocked,
	).Scan(&artist.UpdatedAt)

	return dberr.Wrap(err, "update_artist")
}

func (repository *pgArtists) DeleteArtist(ctx context.Context, id int64) error {
	const query = `DELETE FROM catalog.artist WHERE id = $1`

	cmd, err := repository.conn(ctx).Exec(ctx, query, id)
	if err != nil {
		return dberr.Wrap(err, "delete_artist")
	}
	if cmd.RowsAffected() == 0 {
		return dberr.ErrNotFound
	}
	return nil
}

func (repository *pgArtists) SetArtistRank(ctx context.Context, id int64, rank float64) error {
	const query = `UPDATE catalog.artist SET rank = $2, updatedat = NOW() WHERE id = $1`

	_, err := repository.conn(ctx).Exec(ctx, query, id, rank)
	return dberr.Wrap(err, "set_artist_rank")
}

func (repository *pgArtists) SetArtistCounts(ctx context.Context, id int64, releaseCount, trackCount int) error {
	const query = `
		UPDATE catalog.artist
		SET releasecount = $2, trackcount = $3, updatedat = NOW()
		WHERE id = $1`

	_, err := repository.conn(ctx).Exec(ctx, query, id, releaseCount, trackCount)
	return dberr.Wrap(err, "set_artist_counts")
}
