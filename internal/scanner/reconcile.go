// Copyright (c) 2026 Resona. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package scanner

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/taibuivan/resona/internal/catalog"
	"github.com/taibuivan/resona/internal/hashing"
	"github.com/taibuivan/resona/internal/metadata"
	"github.com/taibuivan/resona/internal/pathing"
	"github.com/taibuivan/resona/internal/platform/apperr"
	"github.com/taibuivan/resona/internal/platform/constants"
	"github.com/taibuivan/resona/pkg/pointer"
	"github.com/taibuivan/resona/pkg/uuidv7"
)

// discovery is one audio file found on disk, with its extracted tags.
type discovery struct {
	path    string
	size    int64
	modTime time.Time
	tags    *metadata.File
}

// scanOne reconciles one release folder. The pipeline is:
//
//  1. Rename-drift recovery: the canonical folder is absent but the tracks'
//     stored paths point at an existing folder → move it into place.
//  2. Missing pass: tracks whose file is gone lose their hash and turn Missing.
//  3. Discovery pass: walk the folder, extract tags in parallel.
//  4. Reconcile pass: create/update track and media rows, hash-gated.
//  5. Status recompute: media sequential check, then the release status.
//  6. Cover-art pass.
//
// Returned errs are the non-fatal per-file failures; a non-nil error aborts
// the scan.
func (service *Service) scanOne(ctx context.Context, artist *catalog.Artist, release *catalog.Release, dryRun bool) (Summary, []error, error) {
	var summary Summary
	var errs []error

	tracks, err := service.store.Tracks().ListTracksByRelease(ctx, release.ID)
	if err != nil {
		return summary, errs, err
	}

	folder := service.paths.ReleaseDir(artist.SortName, release.SortTitle, release.Year())
	if !dirExists(folder) {
		if prior := priorFolder(tracks, folder); prior != "" {
			if dryRun {
				folder = prior
			} else if err := service.moveFolder(ctx, prior, folder, tracks); err != nil {
				errs = append(errs, apperr.PartialIO(folder, err))
				folder = prior
			}
		}
	}

	// Missing pass.
	for _, track := range tracks {
		if track.FilePath != "" && fileExists(track.FilePath) {
			continue
		}
		summary.MissingTracks++
		if dryRun || track.Status == catalog.StatusMissing {
			continue
		}
		track.Hash = nil
		track.Status = catalog.StatusMissing
		if err := service.store.Tracks().UpdateTrack(ctx, track); err != nil {
			errs = append(errs, err)
		}
	}

	files, readErrs := service.readFolder(ctx, folder)
	errs = append(errs, readErrs...)
	summary.SkippedFiles += len(readErrs)

	reconcileErrs, err := service.reconcile(ctx, artist, release, tracks, files, dryRun, &summary)
	errs = append(errs, reconcileErrs...)
	if err != nil {
		return summary, errs, err
	}

	if err := service.syncCoverArt(folder, files, dryRun); err != nil {
		errs = append(errs, err)
	}

	return summary, errs, nil
}

// readFolder walks the release folder and extracts tags from every audio
// file, fanning reads out over the worker pool. Unreadable files surface as
// accumulated errors, never abort the walk.
func (service *Service) readFolder(ctx context.Context, folder string) ([]*discovery, []error) {
	var paths []string
	walkErr := filepath.WalkDir(folder, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() || !pathing.IsAudioFile(path) {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if walkErr != nil {
		if os.IsNotExist(walkErr) {
			return nil, nil
		}
		return nil, []error{apperr.PartialIO(folder, walkErr)}
	}

	results := make([]*discovery, len(paths))
	var mu sync.Mutex
	var errs []error

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(service.workers)
	for i, path := range paths {
		group.Go(func() error {
			if groupCtx.Err() != nil {
				return groupCtx.Err()
			}

			info, err := os.Stat(path)
			if err != nil {
				mu.Lock()
				errs = append(errs, apperr.PartialIO(path, err))
				mu.Unlock()
				return nil
			}
			tags, err := service.meta.Read(path)
			if err != nil {
				mu.Lock()
				errs = append(errs, apperr.MetadataMalformed(path, err))
				mu.Unlock()
				return nil
			}
			results[i] = &discovery{path: path, size: info.Size(), modTime: info.ModTime(), tags: tags}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, append(errs, apperr.Internal(err))
	}

	files := make([]*discovery, 0, len(results))
	for _, result := range results {
		if result != nil {
			files = append(files, result)
		}
	}
	sort.Slice(files, func(i, j int) bool { return files[i].path < files[j].path })
	return files, errs
}

// reconcile applies the discovered files to the catalog: track create/update
// gated on the content hash, then the media sequential check and the release
// status recompute.
func (service *Service) reconcile(ctx context.Context, artist *catalog.Artist, release *catalog.Release, tracks []*catalog.Track, files []*discovery, dryRun bool, summary *Summary) ([]error, error) {
	var errs []error

	mediaList, err := service.store.Media().ListMediaByRelease(ctx, release.ID)
	if err != nil {
		return errs, err
	}
	mediaByNumber := make(map[int]*catalog.Media, len(mediaList))
	numberByMediaID := make(map[int64]int, len(mediaList))
	for _, media := range mediaList {
		mediaByNumber[media.Number] = media
		numberByMediaID[media.ID] = media.Number
	}

	type key struct{ disc, number int }
	byKey := make(map[key]*catalog.Track, len(tracks))
	for _, track := range tracks {
		byKey[key{numberByMediaID[track.MediaID], track.Number}] = track
	}

	totals := map[int]int{}   // disc → self-reported track total
	observed := map[int][]int{} // disc → track numbers present on disk

	for _, file := range files {
		disc := file.tags.DiscNumber
		if disc < 1 {
			disc = 1
		}
		number := file.tags.TrackNumber
		if number < 1 {
			summary.SkippedFiles++
			errs = append(errs, apperr.MetadataMalformed(file.path, fmt.Errorf("no track number")))
			continue
		}
		if file.tags.TotalTracks > totals[disc] {
			totals[disc] = file.tags.TotalTracks
		}
		observed[disc] = append(observed[disc], number)

		media, found := mediaByNumber[disc]
		if !found {
			media = &catalog.Media{ReleaseID: release.ID, Number: disc, Status: catalog.StatusNew}
			if !dryRun {
				if err := service.store.Media().CreateMedia(ctx, media); err != nil {
					errs = append(errs, err)
					continue
				}
			}
			mediaByNumber[disc] = media
		}

		hash := hashing.TrackHash(artist.ID, file.modTime, file.tags.Digest())
		track, exists := byKey[key{disc, number}]

		if exists && !track.IsMissing() && *track.Hash == hash && track.FilePath == file.path {
			continue // unchanged
		}

		if !exists {
			summary.NewTracks++
			if dryRun {
				continue
			}
			track = &catalog.Track{
				ExternalID: uuidv7.Must(),
				MediaID:    media.ID,
				Number:     number,
			}
			if err := service.applyTags(ctx, track, file, release.ArtistID, hash, dryRun, summary); err != nil {
				errs = append(errs, err)
				continue
			}
			if err := service.store.Tracks().CreateTrack(ctx, track); err != nil {
				errs = append(errs, err)
				continue
			}
			byKey[key{disc, number}] = track
			continue
		}

		summary.UpdatedTracks++
		if dryRun {
			continue
		}
		track.MediaID = media.ID
		if err := service.applyTags(ctx, track, file, release.ArtistID, hash, dryRun, summary); err != nil {
			errs = append(errs, err)
			continue
		}
		if err := service.store.Tracks().UpdateTrack(ctx, track); err != nil {
			errs = append(errs, err)
		}
	}

	releaseStatus := service.mediaPass(ctx, release, mediaByNumber, observed, totals, dryRun, &errs)

	if !dryRun && (release.Status != releaseStatus || release.LibraryStatus != releaseStatus) {
		release.Status = releaseStatus
		release.LibraryStatus = releaseStatus
		if err := service.store.Releases().UpdateRelease(ctx, release); err != nil {
			return errs, err
		}
	}

	return errs, nil
}

// mediaPass runs the sequential check per disc and derives the release
// status from the disc statuses.
func (service *Service) mediaPass(ctx context.Context, release *catalog.Release, mediaByNumber map[int]*catalog.Media, observed map[int][]int, totals map[int]int, dryRun bool, errs *[]error) catalog.Status {
	anyTrack := false
	allComplete := len(mediaByNumber) > 0
	anyGap := false

	for disc, media := range mediaByNumber {
		numbers := observed[disc]
		sort.Ints(numbers)

		status := discStatus(numbers, totals[disc])
		switch status {
		case catalog.StatusComplete:
		case catalog.StatusOk:
			allComplete = false
		default:
			allComplete = false
			anyGap = true
		}
		if len(numbers) > 0 {
			anyTrack = true
		}

		if dryRun || (media.Status == status && media.TrackCount == len(numbers)) {
			continue
		}
		media.TrackCount = len(numbers)
		media.Status = status
		if err := service.store.Media().UpdateMedia(ctx, media); err != nil {
			*errs = append(*errs, err)
		}
	}

	switch {
	case len(mediaByNumber) == 0:
		return catalog.StatusNew
	case !anyTrack:
		return catalog.StatusMissing
	case allComplete:
		return catalog.StatusComplete
	case anyGap:
		return catalog.StatusIncomplete
	default:
		return catalog.StatusOk
	}
}

// discStatus classifies one disc: Complete when the on-disk numbers are
// gapless 1..N and N matches the tags' self-reported total, Ok when gapless
// without a total, Incomplete on any gap, Missing when nothing is on disk.
func discStatus(sortedNumbers []int, total int) catalog.Status {
	if len(sortedNumbers) == 0 {
		return catalog.StatusMissing
	}
	for i, n := range sortedNumbers {
		if n != i+1 {
			return catalog.StatusIncomplete
		}
	}
	if total > 0 {
		if len(sortedNumbers) < total {
			return catalog.StatusIncomplete
		}
		return catalog.StatusComplete
	}
	return catalog.StatusOk
}

// applyTags copies the tag content onto the track row and resolves the
// contributing-artist credit.
func (service *Service) applyTags(ctx context.Context, track *catalog.Track, file *discovery, releaseArtistID int64, hash string, dryRun bool, summary *Summary) error {
	title := file.tags.Title
	if title == "" {
		title = fmt.Sprintf("Track %02d", track.Number)
	}
	track.Title = title
	track.DurationMS = file.tags.DurationMS
	track.FileSize = file.size
	track.FilePath = file.path
	track.Hash = &hash
	track.Status = catalog.StatusOk
	if file.tags.ISRC != "" {
		track.ISRC = pointer.To(file.tags.ISRC)
	}

	contributors := file.tags.Contributors()
	switch len(contributors) {
	case 0:
		track.ArtistID = nil
		track.PartTitles = nil
	case 1:
		track.PartTitles = nil
		credited, err := service.resolveArtist(ctx, contributors[0], dryRun, summary)
		if err != nil {
			return err
		}
		if credited != nil && credited.ID != releaseArtistID {
			track.ArtistID = &credited.ID
		} else {
			track.ArtistID = nil
		}
	default:
		track.ArtistID = nil
		track.PartTitles = pointer.To(strings.Join(contributors, constants.PartTitlesSeparator))
	}
	return nil
}

// resolveArtist finds the credited artist by name, creating the row on first
// sight. Dry runs count the would-be creation without persisting.
func (service *Service) resolveArtist(ctx context.Context, name string, dryRun bool, summary *Summary) (*catalog.Artist, error) {
	artist, err := service.store.Artists().FindArtistByName(ctx, name)
	if err == nil {
		return artist, nil
	}
	if !apperr.IsNotFound(err) {
		return nil, err
	}

	summary.NewArtists++
	if dryRun {
		return nil, nil
	}

	artist = &catalog.Artist{
		ExternalID: uuidv7.Must(),
		Name:       name,
		SortName:   name,
		Type:       catalog.ArtistTypePerson,
	}
	if err := service.store.Artists().CreateArtist(ctx, artist); err != nil {
		return nil, err
	}
	service.logger.Info("artist_discovered", slog.String("name", name))
	return artist, nil
}

// moveFolder performs the rename-drift recovery: the prior on-disk folder is
// renamed to the canonical path and every track row is repointed.
func (service *Service) moveFolder(ctx context.Context, oldDir, newDir string, tracks []*catalog.Track) error {
	if err := os.MkdirAll(filepath.Dir(newDir), 0o755); err != nil {
		return err
	}
	if err := os.Rename(oldDir, newDir); err != nil {
		return err
	}
	prefix := oldDir + string(filepath.Separator)
	for _, track := range tracks {
		if !strings.HasPrefix(track.FilePath, prefix) {
			continue
		}
		track.FilePath = filepath.Join(newDir, strings.TrimPrefix(track.FilePath, prefix))
		if err := service.store.Tracks().UpdateTrack(ctx, track); err != nil {
			return err
		}
	}
	service.logger.Info("release_folder_moved",
		slog.String("from", oldDir),
		slog.String("to", newDir),
	)
	return nil
}

// # Filesystem helpers

// priorFolder derives the folder the tracks' stored paths point at, when it
// still exists and differs from the canonical one.
func priorFolder(tracks []*catalog.Track, canonical string) string {
	for _, track := range tracks {
		if track.FilePath == "" {
			continue
		}
		dir := filepath.Dir(track.FilePath)
		if dir != canonical && dirExists(dir) {
			return dir
		}
	}
	return ""
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func listSubdirs(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var dirs []string
	for _, entry := range entries {
		if entry.IsDir() {
			dirs = append(dirs, filepath.Join(dir, entry.Name()))
		}
	}
	return dirs
}

func folderBase(dir string) string {
	return filepath.Base(filepath.Clean(dir))
}
