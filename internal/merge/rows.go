// Copyright (c) 2026 Resona. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package merge

import (
	"context"
	"sort"
	"strings"

	"github.com/taibuivan/resona/internal/catalog"
	"github.com/taibuivan/resona/internal/platform/apperr"
	"github.com/taibuivan/resona/pkg/slice"
)

// mergeArtistRows is the transactional core of an artist merge. It returns
// the ids of playlists whose entries were touched.
func (service *Service) mergeArtistRows(ctx context.Context, source, dest *catalog.Artist, summary *ArtistSummary) ([]int64, error) {
	releases, err := service.store.Releases().ListReleasesByArtist(ctx, source.ID)
	if err != nil {
		return nil, err
	}

	var playlists []int64
	for _, release := range releases {
		existing, err := service.store.Releases().FindReleaseByArtistAndTitle(ctx, dest.ID, release.Title)
		switch {
		case apperr.IsNotFound(err):
			if err := service.store.Releases().ReassignReleaseArtist(ctx, release.ID, dest.ID); err != nil {
				return nil, err
			}
			summary.ReleasesMoved++
		case err != nil:
			return nil, err
		default:
			// The destination already carries this title: fold release into
			// release, appending the duplicate's discs as extra media.
			var releaseSummary ReleaseSummary
			touched, err := service.mergeReleaseRows(ctx, release, existing, true, &releaseSummary)
			if err != nil {
				return nil, err
			}
			playlists = append(playlists, touched...)
			summary.ReleasesMerged++
		}
	}

	if err := service.store.Tracks().RepointTrackArtist(ctx, source.ID, dest.ID); err != nil {
		return nil, err
	}
	if err := service.store.Ratings().RepointArtistRatings(ctx, source.ID, dest.ID); err != nil {
		return nil, err
	}

	names := slice.UnionFold(dest.AlternateNames,
		append([]string{source.Name, source.SortName}, source.AlternateNames...)...)
	dest.AlternateNames = slice.Filter(names, func(name string) bool {
		return !strings.EqualFold(name, dest.Name)
	})
	dest.Genres = slice.UnionFold(dest.Genres, source.Genres...)
	if dest.Biography == nil {
		dest.Biography = source.Biography
	}
	// The portrait moves on the file pass after the transaction.
	if err := service.store.Artists().UpdateArtist(ctx, dest); err != nil {
		return nil, err
	}

	// Anything still owned by the source goes with it; strip the playlist
	// entries first so their loss is accounted for.
	touched, err := service.store.Playlists().DeletePlaylistTracksByArtist(ctx, source.ID)
	if err != nil {
		return nil, err
	}
	playlists = append(playlists, touched...)

	if err := service.store.Artists().DeleteArtist(ctx, source.ID); err != nil {
		return nil, err
	}
	return dedupeIDs(playlists), nil
}

// mergeReleaseRows is the transactional core of a release merge. It returns
// the ids of playlists whose entries were touched.
func (service *Service) mergeReleaseRows(ctx context.Context, source, dest *catalog.Release, addAsMedia bool, summary *ReleaseSummary) ([]int64, error) {
	sourceMedia, err := service.store.Media().ListMediaByRelease(ctx, source.ID)
	if err != nil {
		return nil, err
	}
	destMedia, err := service.store.Media().ListMediaByRelease(ctx, dest.ID)
	if err != nil {
		return nil, err
	}
	sort.Slice(sourceMedia, func(i, j int) bool { return sourceMedia[i].Number < sourceMedia[j].Number })

	var playlists []int64
	if addAsMedia {
		next := 0
		for _, media := range destMedia {
			if media.Number > next {
				next = media.Number
			}
		}
		for _, media := range sourceMedia {
			tracks, err := service.store.Tracks().ListTracksByMedia(ctx, media.ID)
			if err != nil {
				return nil, err
			}
			next++
			media.ReleaseID = dest.ID
			media.Number = next
			if err := service.store.Media().UpdateMedia(ctx, media); err != nil {
				return nil, err
			}
			summary.MediaMoved++
			summary.TracksMoved += len(tracks)
		}
	} else {
		destByNumber := make(map[int]*catalog.Media, len(destMedia))
		for _, media := range destMedia {
			destByNumber[media.Number] = media
		}

		for _, media := range sourceMedia {
			target, found := destByNumber[media.Number]
			if !found {
				tracks, err := service.store.Tracks().ListTracksByMedia(ctx, media.ID)
				if err != nil {
					return nil, err
				}
				media.ReleaseID = dest.ID
				if err := service.store.Media().UpdateMedia(ctx, media); err != nil {
					return nil, err
				}
				destByNumber[media.Number] = media
				summary.MediaMoved++
				summary.TracksMoved += len(tracks)
				continue
			}

			touched, err := service.foldDisc(ctx, media, target, summary)
			if err != nil {
				return nil, err
			}
			playlists = append(playlists, touched...)
		}
	}

	if err := service.store.Collections().RepointCollectionReleases(ctx, source.ID, dest.ID); err != nil {
		return nil, err
	}
	if err := service.store.Ratings().RepointReleaseRatings(ctx, source.ID, dest.ID); err != nil {
		return nil, err
	}

	titles := slice.UnionFold(dest.AlternateTitles,
		append([]string{source.Title, source.SortTitle}, source.AlternateTitles...)...)
	dest.AlternateTitles = slice.Filter(titles, func(title string) bool {
		return !strings.EqualFold(title, dest.Title)
	})
	if dest.ReleaseDate == nil {
		dest.ReleaseDate = source.ReleaseDate
	}
	if dest.Profile == nil {
		dest.Profile = source.Profile
	}
	if err := service.store.Releases().UpdateRelease(ctx, dest); err != nil {
		return nil, err
	}

	if err := service.store.Releases().DeleteRelease(ctx, source.ID); err != nil {
		return nil, err
	}
	return dedupeIDs(playlists), nil
}

// foldDisc collapses one source disc into the destination disc carrying the
// same number. Tracks whose number is free move over; same-number duplicates
// fold into the surviving row, repointing ratings and playlist entries.
func (service *Service) foldDisc(ctx context.Context, source, dest *catalog.Media, summary *ReleaseSummary) ([]int64, error) {
	destTracks, err := service.store.Tracks().ListTracksByMedia(ctx, dest.ID)
	if err != nil {
		return nil, err
	}
	byNumber := make(map[int]*catalog.Track, len(destTracks))
	for _, track := range destTracks {
		byNumber[track.Number] = track
	}

	sourceTracks, err := service.store.Tracks().ListTracksByMedia(ctx, source.ID)
	if err != nil {
		return nil, err
	}

	var playlists []int64
	for _, track := range sourceTracks {
		survivor, exists := byNumber[track.Number]
		if !exists {
			track.MediaID = dest.ID
			if err := service.store.Tracks().UpdateTrack(ctx, track); err != nil {
				return nil, err
			}
			byNumber[track.Number] = track
			summary.TracksMoved++
			continue
		}

		if err := service.store.Ratings().RepointTrackRatings(ctx, track.ID, survivor.ID); err != nil {
			return nil, err
		}
		touched, err := service.store.Playlists().RepointPlaylistTracks(ctx, track.ID, survivor.ID)
		if err != nil {
			return nil, err
		}
		playlists = append(playlists, touched...)

		// The duplicate's listening history folds into the survivor:
		// identifiers fill empty slots, play counts add up and the most
		// recent playback wins.
		if survivor.ISRC == nil {
			survivor.ISRC = track.ISRC
		}
		survivor.PlayCount += track.PlayCount
		if track.LastPlayedAt != nil &&
			(survivor.LastPlayedAt == nil || track.LastPlayedAt.After(*survivor.LastPlayedAt)) {
			survivor.LastPlayedAt = track.LastPlayedAt
		}
		if err := service.store.Tracks().UpdateTrack(ctx, survivor); err != nil {
			return nil, err
		}

		if err := service.store.Tracks().DeleteTrack(ctx, track.ID); err != nil {
			return nil, err
		}
		summary.TracksFolded++
	}

	if err := service.store.Media().DeleteMedia(ctx, source.ID); err != nil {
		return nil, err
	}
	return playlists, nil
}

func dedupeIDs(ids []int64) []int64 {
	seen := make(map[int64]bool, len(ids))
	var out []int64
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
