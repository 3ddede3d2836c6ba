// Copyright (c) 2026 Resona. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// PostgreSQL implementation of the catalog [Store].
//
// # Architecture
//
// Repositories are strictly separated from domain logic: they implement the
// interfaces in store.go on top of [pgxpool.Pool] and map storage errors to
// domain errors via dberr.Wrap.
//
// # Transactions
//
// WithTx opens one pgx transaction and threads it through the context; every
// repository resolves its connection with conn(ctx), so calls made inside the
// callback automatically join the transaction. Nested WithTx calls reuse the
// outer transaction rather than opening a second one.

package catalog

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/resona/internal/platform/dberr"
)

// querier is the subset of pgx operations shared by *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// txContextKey carries the active transaction through the context.
type txContextKey struct{}

// PG implements [Store] on PostgreSQL.
type PG struct {
	pool *pgxpool.Pool
}

// NewStore creates the PostgreSQL-backed catalog store.
func NewStore(pool *pgxpool.Pool) *PG {
	return &PG{pool: pool}
}

// conn resolves the querier for the current context: the enclosing
// transaction when one is active, the pool otherwise.
func (store *PG) conn(ctx context.Context) querier {
	if tx, ok := ctx.Value(txContextKey{}).(pgx.Tx); ok {
		return tx
	}
	return store.pool
}

// WithTx runs fn inside a single database transaction.
func (store *PG) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {

	// Join the enclosing transaction when nested.
	if _, ok := ctx.Value(txContextKey{}).(pgx.Tx); ok {
		return fn(ctx)
	}

	tx, err := store.pool.Begin(ctx)
	if err != nil {
		return dberr.Wrap(err, "begin_tx")
	}

	if err := fn(context.WithValue(ctx, txContextKey{}, tx)); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return dberr.Wrap(err, "commit_tx")
	}
	return nil
}

// # Repository accessors

func (store *PG) Artists() ArtistRepository         { return &pgArtists{store} }
func (store *PG) Releases() ReleaseRepository       { return &pgReleases{store} }
func (store *PG) Media() MediaRepository            { return &pgMedia{store} }
func (store *PG) Tracks() TrackRepository           { return &pgTracks{store} }
func (store *PG) Collections() CollectionRepository { return &pgCollections{store} }
func (store *PG) Playlists() PlaylistRepository     { return &pgPlaylists{store} }
func (store *PG) Ratings() RatingRepository         { return &pgRatings{store} }
func (store *PG) History() HistoryRepository        { return &pgHistory{store} }
