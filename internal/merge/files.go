// Copyright (c) 2026 Resona. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package merge

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/taibuivan/resona/internal/catalog"
	"github.com/taibuivan/resona/internal/pathing"
	"github.com/taibuivan/resona/internal/platform/apperr"
)

// relocateTracks moves every on-disk file of the release onto its canonical
// path after the rows were reparented. Failures are accumulated per file.
func (service *Service) relocateTracks(ctx context.Context, artist *catalog.Artist, release *catalog.Release) (int, []error) {
	media, err := service.store.Media().ListMediaByRelease(ctx, release.ID)
	if err != nil {
		return 0, []error{err}
	}
	numberByMediaID := make(map[int64]int, len(media))
	for _, m := range media {
		numberByMediaID[m.ID] = m.Number
	}

	tracks, err := service.store.Tracks().ListTracksByRelease(ctx, release.ID)
	if err != nil {
		return 0, []error{err}
	}

	moved := 0
	var errs []error
	for _, track := range tracks {
		if track.FilePath == "" || !fileExists(track.FilePath) {
			continue
		}
		canonical := service.paths.TrackPath(
			artist.SortName, release.SortTitle, release.Year(),
			numberByMediaID[track.MediaID], track.Number, track.Title,
			filepath.Ext(track.FilePath),
		)
		if canonical == track.FilePath {
			continue
		}
		if err := os.MkdirAll(filepath.Dir(canonical), 0o755); err != nil {
			errs = append(errs, apperr.PartialIO(canonical, err))
			continue
		}
		if err := os.Rename(track.FilePath, canonical); err != nil {
			errs = append(errs, apperr.PartialIO(track.FilePath, err))
			continue
		}
		track.FilePath = canonical
		if err := service.store.Tracks().UpdateTrack(ctx, track); err != nil {
			errs = append(errs, err)
			continue
		}
		if err := service.rewriteDiscTag(canonical, numberByMediaID[track.MediaID]); err != nil {
			errs = append(errs, err)
		}
		moved++
	}
	return moved, errs
}

// rewriteDiscTag syncs the file's disc-number tag with its new media slot,
// so the next scan keys the file correctly.
func (service *Service) rewriteDiscTag(path string, discNumber int) error {
	tags, err := service.meta.Read(path)
	if err != nil {
		return apperr.MetadataMalformed(path, err)
	}
	if tags.DiscNumber == discNumber {
		return nil
	}
	tags.DiscNumber = discNumber
	if err := service.tags.Write(path, tags); err != nil {
		return apperr.PartialIO(path, err)
	}
	return nil
}

// consolidateImages carries the source folder's images over. An image whose
// name is free in the destination keeps it; when both sides hold the same
// name the better-quality file wins it and the other moves to a free
// secondary slot.
func (service *Service) consolidateImages(sourceDir, destDir string) []error {
	entries, err := os.ReadDir(sourceDir)
	if err != nil {
		return nil // already gone
	}

	var errs []error
	next := 1
	freeSlot := func() string {
		for {
			slot := pathing.SecondaryImagePath(destDir, next)
			next++
			if !fileExists(slot) {
				return slot
			}
		}
	}
	for _, entry := range entries {
		if entry.IsDir() || !pathing.IsImageFile(entry.Name()) {
			continue
		}

		source := filepath.Join(sourceDir, entry.Name())
		target := filepath.Join(destDir, entry.Name())
		if fileExists(target) {
			if imageQuality(source) > imageQuality(target) {
				if err := os.Rename(target, freeSlot()); err != nil {
					errs = append(errs, apperr.PartialIO(target, err))
					continue
				}
			} else {
				target = freeSlot()
			}
		}
		if err := os.Rename(source, target); err != nil {
			errs = append(errs, apperr.PartialIO(source, err))
		}
	}
	return errs
}

// consolidateArtistImage moves the source artist's portrait into the
// destination's folder. It becomes the primary when the destination has
// none, otherwise it is demoted to a secondary image.
func (service *Service) consolidateArtistImage(ctx context.Context, source, dest *catalog.Artist) error {
	if source.ImagePath == nil || !fileExists(*source.ImagePath) {
		return nil
	}
	destDir := service.paths.ArtistDir(dest.SortName)
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return apperr.PartialIO(destDir, err)
	}

	target := filepath.Join(destDir, pathing.CoverFileName)
	promote := dest.ImagePath == nil
	if !promote {
		next := 1
		for {
			target = pathing.SecondaryImagePath(destDir, next)
			next++
			if !fileExists(target) {
				break
			}
		}
	}
	if err := os.Rename(*source.ImagePath, target); err != nil {
		return apperr.PartialIO(*source.ImagePath, err)
	}
	if promote {
		dest.ImagePath = &target
		return service.store.Artists().UpdateArtist(ctx, dest)
	}
	return nil
}

// imageQuality ranks an image by its byte size, which is enough to pick the
// higher-resolution of two rips of the same artwork.
func imageQuality(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return -1
	}
	return info.Size()
}

// cleanupDir removes the directory when the merge emptied it. A non-empty
// directory is left alone.
func (service *Service) cleanupDir(dir string) {
	if err := os.Remove(dir); err == nil {
		service.logger.Debug("merge_dir_removed", slog.String("dir", dir))
	}
}

// cleanupTree removes the directory's emptied subdirectories, then the
// directory itself. Anything still holding files survives.
func (service *Service) cleanupTree(dir string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	for _, entry := range entries {
		if entry.IsDir() {
			_ = os.Remove(filepath.Join(dir, entry.Name()))
		}
	}
	service.cleanupDir(dir)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
