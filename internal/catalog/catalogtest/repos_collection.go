// Copyright (c) 2026 Resona. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package catalogtest

import (
	"context"
	"sort"
	"time"

	"github.com/taibuivan/resona/internal/catalog"
)

// # Collections

type collectionRepo struct{ s *Store }

func (r *collectionRepo) GetCollection(_ context.Context, id int64) (*catalog.Collection, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, found := r.s.collections[id]
	if !found {
		return nil, errNotFound
	}
	return copyCollection(c), nil
}

func (r *collectionRepo) GetCollectionByExternalID(_ context.Context, externalID string) (*catalog.Collection, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, c := range r.s.collections {
		if c.ExternalID == externalID {
			return copyCollection(c), nil
		}
	}
	return nil, errNotFound
}

func (r *collectionRepo) ListStaleCollections(_ context.Context, olderThan time.Time) ([]*catalog.Collection, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var result []*catalog.Collection
	for _, c := range r.s.collections {
		if c.IsLocked {
			continue
		}
		if c.LastImportedAt == nil || c.LastImportedAt.Before(olderThan) {
			result = append(result, copyCollection(c))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (r *collectionRepo) UpdateCollection(_ context.Context, collection *catalog.Collection) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, found := r.s.collections[collection.ID]
	if !found {
		return errNotFound
	}
	collection.CreatedAt = existing.CreatedAt
	collection.UpdatedAt = time.Now()
	r.s.collections[collection.ID] = copyCollection(collection)
	return nil
}

func (r *collectionRepo) ListCollectionReleases(_ context.Context, collectionID int64) ([]*catalog.CollectionRelease, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var result []*catalog.CollectionRelease
	for _, cr := range r.s.members {
		if cr.CollectionID == collectionID {
			c := *cr
			result = append(result, &c)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Position < result[j].Position })
	return result, nil
}

func (r *collectionRepo) CreateCollectionRelease(_ context.Context, row *catalog.CollectionRelease) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	row.ID = r.s.id()
	row.CreatedAt = time.Now()
	c := *row
	r.s.members[row.ID] = &c
	return nil
}

func (r *collectionRepo) UpdateCollectionReleasePosition(_ context.Context, id int64, position int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cr, found := r.s.members[id]
	if !found {
		return errNotFound
	}
	cr.Position = position
	return nil
}

func (r *collectionRepo) DeleteCollectionReleases(_ context.Context, collectionID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, cr := range r.s.members {
		if cr.CollectionID == collectionID {
			delete(r.s.members, id)
		}
	}
	return nil
}

func (r *collectionRepo) DeleteCollectionReleasesNotIn(_ context.Context, collectionID int64, keepReleaseIDs []int64) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	keep := map[int64]struct{}{}
	for _, id := range keepReleaseIDs {
		keep[id] = struct{}{}
	}
	var removed int64
	for id, cr := range r.s.members {
		if cr.CollectionID != collectionID {
			continue
		}
		if _, found := keep[cr.ReleaseID]; !found {
			delete(r.s.members, id)
			removed++
		}
	}
	return removed, nil
}

func (r *collectionRepo) RepointCollectionReleases(_ context.Context, sourceReleaseID, destReleaseID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	hasDest := map[int64]bool{}
	for _, cr := range r.s.members {
		if cr.ReleaseID == destReleaseID {
			hasDest[cr.CollectionID] = true
		}
	}
	for id, cr := range r.s.members {
		if cr.ReleaseID != sourceReleaseID {
			continue
		}
		if hasDest[cr.CollectionID] {
			delete(r.s.members, id)
			continue
		}
		cr.ReleaseID = destReleaseID
	}
	return nil
}

func (r *collectionRepo) PlacementsByRelease(_ context.Context, releaseID int64) ([]catalog.Placement, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var result []catalog.Placement
	for _, cr := range r.s.members {
		if cr.ReleaseID != releaseID {
			continue
		}
		c, found := r.s.collections[cr.CollectionID]
		if !found {
			continue
		}
		result = append(result, catalog.Placement{
			CollectionID: c.ID,
			IsChart:      c.Type == catalog.CollectionTypeChart,
			Size:         c.CollectionCount,
			Position:     cr.Position,
		})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CollectionID < result[j].CollectionID })
	return result, nil
}

func (r *collectionRepo) ClearCollectionMissing(_ context.Context, collectionID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, cm := range r.s.missing {
		if cm.CollectionID == collectionID {
			delete(r.s.missing, id)
		}
	}
	return nil
}

func (r *collectionRepo) CreateCollectionMissing(_ context.Context, row *catalog.CollectionMissing) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	row.ID = r.s.id()
	row.CreatedAt = time.Now()
	c := *row
	r.s.missing[row.ID] = &c
	return nil
}

func (r *collectionRepo) ListCollectionMissing(_ context.Context, collectionID int64) ([]*catalog.CollectionMissing, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var result []*catalog.CollectionMissing
	for _, cm := range r.s.missing {
		if cm.CollectionID == collectionID {
			c := *cm
			result = append(result, &c)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Position < result[j].Position })
	return result, nil
}

// # Playlists

type playlistRepo struct{ s *Store }

func (r *playlistRepo) GetPlaylist(_ context.Context, id int64) (*catalog.Playlist, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, found := r.s.playlists[id]
	if !found {
		return nil, errNotFound
	}
	return copyPlaylist(p), nil
}

func (r *playlistRepo) RepointPlaylistTracks(_ context.Context, sourceTrackID, destTrackID int64) ([]int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var touched []int64
	seen := map[int64]struct{}{}
	for _, pt := range r.s.entries {
		if pt.TrackID != sourceTrackID {
			continue
		}
		pt.TrackID = destTrackID
		if _, found := seen[pt.PlaylistID]; !found {
			seen[pt.PlaylistID] = struct{}{}
			touched = append(touched, pt.PlaylistID)
		}
	}
	return touched, nil
}

func (r *playlistRepo) DeletePlaylistTracksByTrack(_ context.Context, trackID int64) ([]int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var touched []int64
	seen := map[int64]struct{}{}
	for id, pt := range r.s.entries {
		if pt.TrackID != trackID {
			continue
		}
		delete(r.s.entries, id)
		if _, found := seen[pt.PlaylistID]; !found {
			seen[pt.PlaylistID] = struct{}{}
			touched = append(touched, pt.PlaylistID)
		}
	}
	return touched, nil
}

func (r *playlistRepo) DeletePlaylistTracksByArtist(_ context.Context, artistID int64) ([]int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	owned := map[int64]bool{}
	for _, t := range r.s.tracks {
		if t.ArtistID != nil && *t.ArtistID == artistID {
			owned[t.ID] = true
			continue
		}
		if m, found := r.s.media[t.MediaID]; found {
			if rel, found := r.s.releases[m.ReleaseID]; found && rel.ArtistID == artistID {
				owned[t.ID] = true
			}
		}
	}

	var touched []int64
	seen := map[int64]struct{}{}
	for id, pt := range r.s.entries {
		if !owned[pt.TrackID] {
			continue
		}
		delete(r.s.entries, id)
		if _, found := seen[pt.PlaylistID]; !found {
			seen[pt.PlaylistID] = struct{}{}
			touched = append(touched, pt.PlaylistID)
		}
	}
	return touched, nil
}

func (r *playlistRepo) PlaylistTrackStats(_ context.Context, playlistID int64) (int, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	count := 0
	var durationMS int64
	for _, pt := range r.s.entries {
		if pt.PlaylistID != playlistID {
			continue
		}
		count++
		if t, found := r.s.tracks[pt.TrackID]; found {
			durationMS += t.DurationMS
		}
	}
	return count, durationMS, nil
}

func (r *playlistRepo) SetPlaylistCounts(_ context.Context, playlistID int64, trackCount int, durationMS int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, found := r.s.playlists[playlistID]
	if !found {
		return errNotFound
	}
	p.TrackCount = trackCount
	p.DurationMS = durationMS
	return nil
}

// # Ratings

type ratingRepo struct{ s *Store }

func (r *ratingRepo) AvgTrackRatingByRelease(ctx context.Context, releaseID int64) (float64, error) {
	trackIDs := map[int64]struct{}{}
	tracks, err := (&trackRepo{r.s}).ListTracksByRelease(ctx, releaseID)
	if err != nil {
		return 0, err
	}
	for _, t := range tracks {
		trackIDs[t.ID] = struct{}{}
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return average(r.s.trackRatings, func(row *RatingRow) bool {
		_, found := trackIDs[row.TargetID]
		return found
	}), nil
}

func (r *ratingRepo) AvgTrackRatingByArtist(_ context.Context, artistID int64) (float64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	credited := map[int64]bool{}
	for _, t := range r.s.tracks {
		if t.ArtistID != nil && *t.ArtistID == artistID {
			credited[t.ID] = true
			continue
		}
		if m, found := r.s.media[t.MediaID]; found {
			if rel, found := r.s.releases[m.ReleaseID]; found && rel.ArtistID == artistID {
				credited[t.ID] = true
			}
		}
	}

	return average(r.s.trackRatings, func(row *RatingRow) bool {
		return credited[row.TargetID]
	}), nil
}

func (r *ratingRepo) AvgReleaseRatingByArtist(_ context.Context, artistID int64) (float64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	owned := map[int64]bool{}
	for _, rel := range r.s.releases {
		if rel.ArtistID == artistID {
			owned[rel.ID] = true
		}
	}

	return average(r.s.releaseRatings, func(row *RatingRow) bool {
		return owned[row.TargetID]
	}), nil
}

func (r *ratingRepo) RepointArtistRatings(_ context.Context, sourceArtistID, destArtistID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	repointRatings(r.s.artistRatings, sourceArtistID, destArtistID)
	return nil
}

func (r *ratingRepo) RepointReleaseRatings(_ context.Context, sourceReleaseID, destReleaseID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	repointRatings(r.s.releaseRatings, sourceReleaseID, destReleaseID)
	return nil
}

func (r *ratingRepo) RepointTrackRatings(_ context.Context, sourceTrackID, destTrackID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	repointRatings(r.s.trackRatings, sourceTrackID, destTrackID)
	return nil
}

func average(rows map[int64]*RatingRow, match func(*RatingRow) bool) float64 {
	sum, count := 0, 0
	for _, row := range rows {
		if match(row) {
			sum += row.Rating
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return float64(sum) / float64(count)
}

func repointRatings(rows map[int64]*RatingRow, sourceID, destID int64) {
	rated := map[string]bool{}
	for _, row := range rows {
		if row.TargetID == destID {
			rated[row.UserID] = true
		}
	}
	for id, row := range rows {
		if row.TargetID != sourceID {
			continue
		}
		if rated[row.UserID] {
			delete(rows, id)
			continue
		}
		row.TargetID = destID
	}
}

// # History

type historyRepo struct{ s *Store }

func (r *historyRepo) CreateScanHistory(_ context.Context, record *catalog.ScanHistory) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	record.ID = r.s.id()
	record.CreatedAt = time.Now()
	c := *record
	r.s.history = append(r.s.history, &c)
	return nil
}

func (r *historyRepo) ListScanHistory(_ context.Context, limit, offset int) ([]*catalog.ScanHistory, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	total := len(r.s.history)

	// Newest first.
	var all []*catalog.ScanHistory
	for i := len(r.s.history) - 1; i >= 0; i-- {
		c := *r.s.history[i]
		all = append(all, &c)
	}
	if offset >= len(all) {
		return nil, total, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, total, nil
}
