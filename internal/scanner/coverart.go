// Copyright (c) 2026 Resona. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package scanner

import (
	"bytes"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"

	"github.com/taibuivan/resona/internal/pathing"
	"github.com/taibuivan/resona/internal/platform/apperr"
)

// syncCoverArt keeps the folder's cover.jpg in step with the audio files: a
// corrupt cover is removed, a missing one is restored from the first embedded
// image found in the folder's tracks.
func (service *Service) syncCoverArt(folder string, files []*discovery, dryRun bool) error {
	if len(files) == 0 {
		return nil
	}
	coverPath := filepath.Join(folder, pathing.CoverFileName)

	if data, err := os.ReadFile(coverPath); err == nil {
		if isValidImage(data) {
			return nil
		}
		if dryRun {
			return nil
		}
		if err := os.Remove(coverPath); err != nil {
			return apperr.PartialIO(coverPath, err)
		}
	}
	if dryRun {
		return nil
	}

	for _, file := range files {
		img, err := service.meta.ReadImage(file.path)
		if err != nil || !isValidImage(img) {
			continue
		}
		if err := os.WriteFile(coverPath, img, 0o644); err != nil {
			return apperr.PartialIO(coverPath, err)
		}
		return nil
	}
	return nil
}

// isValidImage reports whether data decodes as a known image format.
func isValidImage(data []byte) bool {
	if len(data) == 0 {
		return false
	}
	_, _, err := image.DecodeConfig(bytes.NewReader(data))
	return err == nil
}
