// Copyright (c) 2026 Resona. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package catalog

import (
	"context"
	"time"

	"github.com/taibuivan/resona/internal/platform/dberr"
)

type pgCollections struct {
	*PG
}

const collectionColumns = `
	id, externalid, name, type, listdata, collectioncount, foundcount,
	status, islocked, lastimportedat, createdat, updatedat`

func (repository *pgCollections) scanCollection(row interface{ Scan(dest ...any) error }) (*Collection, error) {
	c := &Collection{}
	err := row.Scan(
		&c.ID, &c.ExternalID, &c.Name, &c.Type, &c.ListData, &c.CollectionCount, &c.FoundCount,
		&c.Status, &c.IsLocked, &c.LastImportedAt, &c.CreatedAt, &c.UpdatedAt,
	)
	return c, err
}

func (repository *pgCollections) GetCollection(ctx context.Context, id int64) (*Collection, error) {
	const query = `SELECT` + collectionColumns + ` FROM catalog.collection WHERE id = $1`

	c, err := repository.scanCollection(repository.conn(ctx).QueryRow(ctx, query, id))
	if err != nil {
		return nil, dberr.Wrap(err, "get_collection")
	}
	return c, nil
}

func (repository *pgCollections) GetCollectionByExternalID(ctx context.Context, externalID string) (*Collection, error) {
	const query = `SELECT` + collectionColumns + ` FROM catalog.collection WHERE externalid = $1`

	c, err := repository.scanCollection(repository.conn(ctx).QueryRow(ctx, query, externalID))
	if err != nil {
		return nil, dberr.Wrap(err, "get_collection_by_external_id")
	}
	return c, nil
}

func (repository *pgCollections) ListStaleCollections(ctx context.Context, olderThan time.Time) ([]*Collection, error) {
	const query = `SELECT` + collectionColumns + `
		FROM catalog.collection
		WHERE islocked = FALSE AND (lastimportedat IS NULL OR lastimportedat < $1)
		ORDER BY lastimportedat ASC NULLS FIRST`

	rows, err := repository.conn(ctx).Query(ctx, query, olderThan)
	if err != nil {
		return nil, dberr.Wrap(err, "list_stale_collections")
	}
	defer rows.Close()

	var collections []*Collection
	for rows.Next() {
		c, err := repository.scanCollection(rows)
		if err != nil {
			return nil, dberr.Wrap(err, "scan_collection")
		}
		collections = append(collections, c)
	}
	return collections, nil
}

func (repository *pgCollections) UpdateCollection(ctx context.Context, collection *Collection) error {
	const query = `
		UPDATE catalog.collection
		SET name = $2, type = $3, listdata = $4, collectioncount = $5, foundcount = $6,
		    status = $7, islocked = $8, lastimportedat = $9, updatedat = NOW()
		WHERE id = $1
		RETURNING updatedat`

	err := repository.conn(ctx).QueryRow(ctx, query,
		collection.ID, collection.Name, collection.Type, collection.ListData, collection.CollectionCount,
		collection.FoundCount, collection.Status, collection.IsLocked, collection.LastImportedAt,
	).Scan(&collection.UpdatedAt)

	return dberr.Wrap(err, "update_collection")
}

// # Membership rows

func (repository *pgCollections) ListCollectionReleases(ctx context.Context, collectionID int64) ([]*CollectionRelease, error) {
	const query = `
		SELECT id, collectionid, releaseid, position, createdat
		FROM catalog.collectionrelease
		WHERE collectionid = $1
		ORDER BY position ASC`

	rows, err := repository.conn(ctx).Query(ctx, query, collectionID)
	if err != nil {
		return nil, dberr.Wrap(err, "list_collection_releases")
	}
	defer rows.Close()

	var members []*CollectionRelease
	for rows.Next() {
		cr := &CollectionRelease{}
		if err := rows.Scan(&cr.ID, &cr.CollectionID, &cr.ReleaseID, &cr.Position, &cr.CreatedAt); err != nil {
			return nil, dberr.Wrap(err, "scan_collection_release")
		}
		members = append(members, cr)
	}
	return members, nil
}

func (repository *pgCollections) CreateCollectionRelease(ctx context.Context, row *CollectionRelease) error {
	const query = `
		INSERT INTO catalog.collectionrelease (collectionid, releaseid, position, createdat)
		VALUES ($1, $2, $3, NOW())
		RETURNING id, createdat`

	err := repository.conn(ctx).QueryRow(ctx, query,
		row.CollectionID, row.ReleaseID, row.Position,
	).Scan(&row.ID, &row.CreatedAt)

	return dberr.Wrap(err, "create_collection_release")
}

func (repository *pgCollections) UpdateCollectionReleasePosition(ctx context.Context, id int64, position int) error {
	const query = `UPDATE catalog.collectionrelease SET position = $2 WHERE id = $1`

	_, err := repository.conn(ctx).Exec(ctx, query, id, position)
	return dberr.Wrap(err, "update_collection_release_position")
}

func (repository *pgCollections) DeleteCollectionReleases(ctx context.Context, collectionID int64) error {
	const query = `DELETE FROM catalog.collectionrelease WHERE collectionid = $1`

	_, err := repository.conn(ctx).Exec(ctx, query, collectionID)
	return dberr.Wrap(err, "delete_collection_releases")
}

func (repository *pgCollections) DeleteCollectionReleasesNotIn(ctx context.Context, collectionID int64, keepReleaseIDs []int64) (int64, error) {
	const query = `
		DELETE FROM catalog.collectionrelease
		WHERE collectionid = $1 AND NOT (releaseid = ANY($2))`

	cmd, err := repository.conn(ctx).Exec(ctx, query, collectionID, keepReleaseIDs)
	if err != nil {
		return 0, dberr.Wrap(err, "delete_stale_collection_releases")
	}
	return cmd.RowsAffected(), nil
}

func (repository *pgCollections) RepointCollectionReleases(ctx context.Context, sourceReleaseID, destReleaseID int64) error {
	// A collection may already contain the destination; dropping the source
	// row in that case avoids a duplicate membership.
	const dedupe = `
		DELETE FROM catalog.collectionrelease cr
		WHERE cr.releaseid = $1
		  AND EXISTS (
			SELECT 1 FROM catalog.collectionrelease d
			WHERE d.collectionid = cr.collectionid AND d.releaseid = $2
		  )`

	if _, err := repository.conn(ctx).Exec(ctx, dedupe, sourceReleaseID, destReleaseID); err != nil {
		return dberr.Wrap(err, "dedupe_collection_releases")
	}

	const query = `UPDATE catalog.collectionrelease SET releaseid = $2 WHERE releaseid = $1`

	_, err := repository.conn(ctx).Exec(ctx, query, sourceReleaseID, destReleaseID)
	return dberr.Wrap(err, "repoint_collection_releases")
}

func (repository *pgCollections) PlacementsByRelease(ctx context.Context, releaseID int64) ([]Placement, error) {
	const query = `
		SELECT c.id, c.type = 'chart', c.collectioncount, cr.position
		FROM catalog.collectionrelease cr
		JOIN catalog.collection c ON c.id = cr.collectionid
		WHERE cr.releaseid = $1
		ORDER BY c.id`

	rows, err := repository.conn(ctx).Query(ctx, query, releaseID)
	if err != nil {
		return nil, dberr.Wrap(err, "placements_by_release")
	}
	defer rows.Close()

	var placements []Placement
	for rows.Next() {
		var p Placement
		if err := rows.Scan(&p.CollectionID, &p.IsChart, &p.Size, &p.Position); err != nil {
			return nil, dberr.Wrap(err, "scan_placement")
		}
		placements = append(placements, p)
	}
	return placements, nil
}

// # Missing rows

func (repository *pgCollections) ClearCollectionMissing(ctx context.Context, collectionID int64) error {
	const query = `DELETE FROM catalog.collectionmissing WHERE collectionid = $1`

	_, err := repository.conn(ctx).Exec(ctx, query, collectionID)
	return dberr.Wrap(err, "clear_collection_missing")
}

func (repository *pgCollections) CreateCollectionMissing(ctx context.Context, row *CollectionMissing) error {
	const query = `
		INSERT INTO catalog.collectionmissing (collectionid, position, artistname, releasetitle, isartistfound, createdat)
		VALUES ($1, $2, $3, $4, $5, NOW())
		RETURNING id, createdat`

	err := repository.conn(ctx).QueryRow(ctx, query,
		row.CollectionID, row.Position, row.ArtistName, row.ReleaseTitle, row.IsArtistFound,
	).Scan(&row.ID, &row.CreatedAt)

	return dberr.Wrap(err, "create_collection_missing")
}

func (repository *pgCollections) ListCollectionMissing(ctx context.Context, collectionID int64) ([]*CollectionMissing, error) {
	const query = `
		SELECT id, collectionid, position, artistname, releasetitle, isartistfound, createdat
		FROM catalog.collectionmissing
		WHERE collectionid = $1
		ORDER BY position ASC`

	rows, err := repository.conn(ctx).Query(ctx, query, collectionID)
	if err != nil {
		return nil, dberr.Wrap(err, "list_collection_missing")
	}
	defer rows.Close()

	var missing []*CollectionMissing
	for rows.Next() {
		cm := &CollectionMissing{}
		if err := rows.Scan(&cm.ID, &cm.CollectionID, &cm.Position, &cm.ArtistName, &cm.ReleaseTitle, &cm.IsArtistFound, &cm.CreatedAt); err != nil {
			return nil, dberr.Wrap(err, "scan_collection_missing")
		}
		missing = append(missing, cm)
	}
	return missing, nil
}
