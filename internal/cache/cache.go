// Copyright (c) 2026 Resona. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package cache provides the region-scoped read cache and the per-entity
advisory locks used by the reconciliation engine.

# Regions

A region is a named invalidation scope keyed to one entity's external id
(e.g. "artist:<uuid>"). Cached read-models are written under the region; a
mutation touching the entity invalidates the whole region at once. The cache
is a pure read-through memoization layer: write paths guarantee correct
persisted state before invalidating, and no correctness depends on a hit.

# Locks

Scan, merge and import serialize per entity through a Redis lease (SET NX
with TTL). A crashed holder's lease expires on its own.
*/
package cache

import "context"

// Cache is the region-scoped invalidating key/value store.
type Cache interface {
	// GetOrCompute returns the cached value for (region, key), computing and
	// caching it on a miss.
	GetOrCompute(ctx context.Context, region, key string, factory func(ctx context.Context) ([]byte, error)) ([]byte, error)

	// Invalidate discards every cached value in the region.
	Invalidate(ctx context.Context, region string) error

	// InvalidateAll discards every cached value in every region.
	InvalidateAll(ctx context.Context) error
}

// Locker hands out per-entity advisory leases.
type Locker interface {
	// Acquire takes the lease for the entity, returning a release function.
	// It fails with apperr.Locked when another operation holds the lease.
	Acquire(ctx context.Context, entity string) (func(), error)
}

// # Region names

// ArtistRegion is the invalidation scope of one artist.
func ArtistRegion(externalID string) string { return "artist:" + externalID }

// ReleaseRegion is the invalidation scope of one release.
func ReleaseRegion(externalID string) string { return "release:" + externalID }

// CollectionRegion is the invalidation scope of one collection.
func CollectionRegion(externalID string) string { return "collection:" + externalID }
