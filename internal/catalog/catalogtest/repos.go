// Copyright (c) 2026 Resona. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package catalogtest

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/taibuivan/resona/internal/catalog"
)

// # Artists

type artistRepo struct{ s *Store }

func (r *artistRepo) GetArtist(_ context.Context, id int64) (*catalog.Artist, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, found := r.s.artists[id]
	if !found {
		return nil, errNotFound
	}
	return copyArtist(a), nil
}

func (r *artistRepo) GetArtistByExternalID(_ context.Context, externalID string) (*catalog.Artist, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, a := range r.s.artists {
		if a.ExternalID == externalID {
			return copyArtist(a), nil
		}
	}
	return nil, errNotFound
}

func (r *artistRepo) FindArtistByName(_ context.Context, name string) (*catalog.Artist, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, a := range r.s.sortedArtists() {
		if strings.EqualFold(a.Name, name) || strings.EqualFold(a.SortName, name) {
			return copyArtist(a), nil
		}
	}
	return nil, errNotFound
}

func (r *artistRepo) SearchArtistsByNormalizedName(_ context.Context, folded, alphanumeric string) ([]*catalog.Artist, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	matches := func(a *catalog.Artist, needle string) bool {
		if needle == "" {
			return false
		}
		if containsFold(a.Name, needle) || containsFold(a.SortName, needle) {
			return true
		}
		for _, alt := range a.AlternateNames {
			if containsFold(alt, needle) {
				return true
			}
		}
		return false
	}

	var result []*catalog.Artist
	for _, a := range r.s.sortedArtists() {
		if matches(a, folded) || matches(a, alphanumeric) {
			result = append(result, copyArtist(a))
		}
	}
	return result, nil
}

func (r *artistRepo) ListArtists(_ context.Context, filter catalog.ArtistFilter, limit, offset int) ([]*catalog.Artist, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var all []*catalog.Artist
	for _, a := range r.s.sortedArtists() {
		if filter.Query != "" && !containsFold(a.Name, filter.Query) && !containsFold(a.SortName, filter.Query) {
			continue
		}
		all = append(all, copyArtist(a))
	}

	total := len(all)
	if offset >= len(all) {
		return nil, total, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, total, nil
}

func (r *artistRepo) CreateArtist(_ context.Context, artist *catalog.Artist) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	artist.ID = r.s.id()
	now := time.Now()
	artist.CreatedAt, artist.UpdatedAt = now, now
	r.s.artists[artist.ID] = copyArtist(artist)
	return nil
}

func (r *artistRepo) UpdateArtist(_ context.Context, artist *catalog.Artist) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, found := r.s.artists[artist.ID]
	if !found {
		return errNotFound
	}
	artist.CreatedAt = existing.CreatedAt
	artist.UpdatedAt = time.Now()
	// Rank and counts are owned by their dedicated setters.
	artist.Rank = existing.Rank
	artist.ReleaseCount = existing.ReleaseCount
	artist.TrackCount = existing.TrackCount
	r.s.artists[artist.ID] = copyArtist(artist)
	return nil
}

func (r *artistRepo) DeleteArtist(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, found := r.s.artists[id]; !found {
		return errNotFound
	}
	delete(r.s.artists, id)

	// ON DELETE CASCADE: releases, media, tracks.
	for rid, rel := range r.s.releases {
		if rel.ArtistID != id {
			continue
		}
		r.s.deleteReleaseCascade(rid)
	}
	return nil
}

func (r *artistRepo) SetArtistRank(_ context.Context, id int64, rank float64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, found := r.s.artists[id]
	if !found {
		return errNotFound
	}
	a.Rank = rank
	return nil
}

func (r *artistRepo) SetArtistCounts(_ context.Context, id int64, releaseCount, trackCount int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, found := r.s.artists[id]
	if !found {
		return errNotFound
	}
	a.ReleaseCount = releaseCount
	a.TrackCount = trackCount
	return nil
}

func (s *Store) sortedArtists() []*catalog.Artist {
	var all []*catalog.Artist
	for _, a := range s.artists {
		all = append(all, a)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return all
}

// deleteReleaseCascade removes a release with its media and tracks.
// Caller holds the lock.
func (s *Store) deleteReleaseCascade(releaseID int64) {
	for mid, m := range s.media {
		if m.ReleaseID != releaseID {
			continue
		}
		for tid, t := range s.tracks {
			if t.MediaID == mid {
				delete(s.tracks, tid)
			}
		}
		delete(s.media, mid)
	}
	for crid, cr := range s.members {
		if cr.ReleaseID == releaseID {
			delete(s.members, crid)
		}
	}
	delete(s.releases, releaseID)
}

// # Releases

type releaseRepo struct{ s *Store }

func (r *releaseRepo) GetRelease(_ context.Context, id int64) (*catalog.Release, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rel, found := r.s.releases[id]
	if !found {
		return nil, errNotFound
	}
	return copyRelease(rel), nil
}

func (r *releaseRepo) GetReleaseByExternalID(_ context.Context, externalID string) (*catalog.Release, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, rel := range r.s.releases {
		if rel.ExternalID == externalID {
			return copyRelease(rel), nil
		}
	}
	return nil, errNotFound
}

func (r *releaseRepo) ListReleasesByArtist(_ context.Context, artistID int64) ([]*catalog.Release, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var result []*catalog.Release
	for _, rel := range r.s.sortedReleases() {
		if rel.ArtistID == artistID {
			result = append(result, copyRelease(rel))
		}
	}
	return result, nil
}

func (r *releaseRepo) FindReleaseByArtistAndTitle(_ context.Context, artistID int64, title string) (*catalog.Release, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, rel := range r.s.sortedReleases() {
		if rel.ArtistID == artistID && strings.EqualFold(rel.Title, title) {
			return copyRelease(rel), nil
		}
	}
	return nil, errNotFound
}

func (r *releaseRepo) CreateRelease(_ context.Context, release *catalog.Release) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	release.ID = r.s.id()
	now := time.Now()
	release.CreatedAt, release.UpdatedAt = now, now
	r.s.releases[release.ID] = copyRelease(release)
	return nil
}

func (r *releaseRepo) UpdateRelease(_ context.Context, release *catalog.Release) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, found := r.s.releases[release.ID]
	if !found {
		return errNotFound
	}
	release.CreatedAt = existing.CreatedAt
	release.ArtistID = existing.ArtistID
	release.Rank = existing.Rank
	release.TrackCount = existing.TrackCount
	release.MediaCount = existing.MediaCount
	release.DurationMS = existing.DurationMS
	release.PlayCount = existing.PlayCount
	release.UpdatedAt = time.Now()
	r.s.releases[release.ID] = copyRelease(release)
	return nil
}

func (r *releaseRepo) DeleteRelease(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, found := r.s.releases[id]; !found {
		return errNotFound
	}
	r.s.deleteReleaseCascade(id)
	return nil
}

func (r *releaseRepo) ReassignReleaseArtist(_ context.Context, releaseID, artistID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rel, found := r.s.releases[releaseID]
	if !found {
		return errNotFound
	}
	rel.ArtistID = artistID
	rel.UpdatedAt = time.Now()
	return nil
}

func (r *releaseRepo) SetReleaseRank(_ context.Context, id int64, rank float64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rel, found := r.s.releases[id]
	if !found {
		return errNotFound
	}
	rel.Rank = rank
	return nil
}

func (r *releaseRepo) SetReleaseCounts(_ context.Context, id int64, trackCount, mediaCount int, durationMS, playCount int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rel, found := r.s.releases[id]
	if !found {
		return errNotFound
	}
	rel.TrackCount = trackCount
	rel.MediaCount = mediaCount
	rel.DurationMS = durationMS
	rel.PlayCount = playCount
	return nil
}

func (r *releaseRepo) SumReleaseRankByArtist(_ context.Context, artistID int64) (float64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var sum float64
	for _, rel := range r.s.releases {
		if rel.ArtistID == artistID {
			sum += rel.Rank
		}
	}
	return sum, nil
}

func (r *releaseRepo) CountReleasesByArtist(_ context.Context, artistID int64) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	count := 0
	for _, rel := range r.s.releases {
		if rel.ArtistID == artistID {
			count++
		}
	}
	return count, nil
}

func (s *Store) sortedReleases() []*catalog.Release {
	var all []*catalog.Release
	for _, rel := range s.releases {
		all = append(all, rel)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return all
}

// # Media

type mediaRepo struct{ s *Store }

func (r *mediaRepo) GetMedia(_ context.Context, id int64) (*catalog.Media, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, found := r.s.media[id]
	if !found {
		return nil, errNotFound
	}
	return copyMedia(m), nil
}

func (r *mediaRepo) ListMediaByRelease(_ context.Context, releaseID int64) ([]*catalog.Media, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var result []*catalog.Media
	for _, m := range r.s.media {
		if m.ReleaseID == releaseID {
			result = append(result, copyMedia(m))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Number < result[j].Number })
	return result, nil
}

func (r *mediaRepo) CreateMedia(_ context.Context, media *catalog.Media) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	media.ID = r.s.id()
	now := time.Now()
	media.CreatedAt, media.UpdatedAt = now, now
	r.s.media[media.ID] = copyMedia(media)
	return nil
}

func (r *mediaRepo) UpdateMedia(_ context.Context, media *catalog.Media) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, found := r.s.media[media.ID]; !found {
		return errNotFound
	}
	media.UpdatedAt = time.Now()
	r.s.media[media.ID] = copyMedia(media)
	return nil
}

func (r *mediaRepo) DeleteMedia(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, found := r.s.media[id]; !found {
		return errNotFound
	}
	for tid, t := range r.s.tracks {
		if t.MediaID == id {
			delete(r.s.tracks, tid)
		}
	}
	delete(r.s.media, id)
	return nil
}

// # Tracks

type trackRepo struct{ s *Store }

func (r *trackRepo) GetTrack(_ context.Context, id int64) (*catalog.Track, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, found := r.s.tracks[id]
	if !found {
		return nil, errNotFound
	}
	return copyTrack(t), nil
}

func (r *trackRepo) ListTracksByMedia(_ context.Context, mediaID int64) ([]*catalog.Track, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var result []*catalog.Track
	for _, t := range r.s.tracks {
		if t.MediaID == mediaID {
			result = append(result, copyTrack(t))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Number < result[j].Number })
	return result, nil
}

func (r *trackRepo) ListTracksByRelease(_ context.Context, releaseID int64) ([]*catalog.Track, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	mediaNumber := map[int64]int{}
	for _, m := range r.s.media {
		if m.ReleaseID == releaseID {
			mediaNumber[m.ID] = m.Number
		}
	}
	var result []*catalog.Track
	for _, t := range r.s.tracks {
		if _, found := mediaNumber[t.MediaID]; found {
			result = append(result, copyTrack(t))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if mediaNumber[result[i].MediaID] != mediaNumber[result[j].MediaID] {
			return mediaNumber[result[i].MediaID] < mediaNumber[result[j].MediaID]
		}
		return result[i].Number < result[j].Number
	})
	return result, nil
}

func (r *trackRepo) CreateTrack(_ context.Context, track *catalog.Track) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	track.ID = r.s.id()
	now := time.Now()
	track.CreatedAt, track.UpdatedAt = now, now
	r.s.tracks[track.ID] = copyTrack(track)
	return nil
}

func (r *trackRepo) UpdateTrack(_ context.Context, track *catalog.Track) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, found := r.s.tracks[track.ID]
	if !found {
		return errNotFound
	}
	track.CreatedAt = existing.CreatedAt
	track.UpdatedAt = time.Now()
	r.s.tracks[track.ID] = copyTrack(track)
	return nil
}

func (r *trackRepo) DeleteTrack(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, found := r.s.tracks[id]; !found {
		return errNotFound
	}
	delete(r.s.tracks, id)
	return nil
}

func (r *trackRepo) RepointTrackArtist(_ context.Context, sourceArtistID, destArtistID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, t := range r.s.tracks {
		if t.ArtistID != nil && *t.ArtistID == sourceArtistID {
			id := destArtistID
			t.ArtistID = &id
		}
	}
	return nil
}

func (r *trackRepo) ReleaseTrackStats(ctx context.Context, releaseID int64) (catalog.TrackStats, error) {
	tracks, err := r.ListTracksByRelease(ctx, releaseID)
	if err != nil {
		return catalog.TrackStats{}, err
	}
	stats := catalog.TrackStats{}
	for _, t := range tracks {
		stats.TrackCount++
		stats.DurationMS += t.DurationMS
		stats.PlayCount += t.PlayCount
	}
	return stats, nil
}

func (r *trackRepo) DistinctTrackArtistIDs(ctx context.Context, releaseID int64) ([]int64, error) {
	tracks, err := r.ListTracksByRelease(ctx, releaseID)
	if err != nil {
		return nil, err
	}
	seen := map[int64]struct{}{}
	var ids []int64
	for _, t := range tracks {
		if t.ArtistID == nil {
			continue
		}
		if _, found := seen[*t.ArtistID]; found {
			continue
		}
		seen[*t.ArtistID] = struct{}{}
		ids = append(ids, *t.ArtistID)
	}
	return ids, nil
}

func (r *trackRepo) CountTracksByArtist(_ context.Context, artistID int64) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	releaseByMedia := map[int64]int64{}
	for _, m := range r.s.media {
		releaseByMedia[m.ID] = m.ReleaseID
	}
	count := 0
	for _, t := range r.s.tracks {
		owned := false
		if rel, found := r.s.releases[releaseByMedia[t.MediaID]]; found && rel.ArtistID == artistID {
			owned = true
		}
		if owned || (t.ArtistID != nil && *t.ArtistID == artistID) {
			count++
		}
	}
	return count, nil
}
