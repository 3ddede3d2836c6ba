// Copyright (c) 2026 Resona. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package metadata

import (
	"fmt"
	"strconv"
	"strings"

	"go.senan.xyz/taglib"

	"github.com/taibuivan/resona/pkg/convert"
)

// TagLib implements [Reader] and [Writer] on the go.senan.xyz/taglib
// bindings (TagLib compiled to WASM, no cgo).
type TagLib struct{}

// NewTagLib creates the production tag reader/writer.
func NewTagLib() *TagLib {
	return &TagLib{}
}

func (t *TagLib) Read(path string) (*File, error) {
	tags, err := taglib.ReadTags(path)
	if err != nil {
		return nil, fmt.Errorf("read tags %s: %w", path, err)
	}

	file := &File{
		Title:       firstTagValue(tags, taglib.Title, "TITLE"),
		Album:       firstTagValue(tags, taglib.Album, "ALBUM"),
		AlbumArtist: firstTagValue(tags, taglib.AlbumArtist, "ALBUMARTIST"),
		Artists:     tagValues(tags, taglib.Artist, "ARTIST"),
		Genre:       firstTagValue(tags, taglib.Genre, "GENRE"),
		ISRC:        firstTagValue(tags, "ISRC"),
	}

	trackTag := firstTagValue(tags, taglib.TrackNumber, "TRACKNUMBER", "TRCK")
	file.TrackNumber = convert.FractionalInt(trackTag)
	file.TotalTracks = convert.FractionalTotal(trackTag)
	if total := convert.ToInt(firstTagValue(tags, "TOTALTRACKS", "TRACKTOTAL")); total > 0 {
		file.TotalTracks = total
	}

	file.DiscNumber = convert.FractionalInt(firstTagValue(tags, taglib.DiscNumber, "DISCNUMBER", "TPOS"))
	if file.DiscNumber == 0 {
		file.DiscNumber = 1
	}

	file.Year = parseYear(firstTagValue(tags, taglib.Date, "DATE", "YEAR", "ORIGINALDATE"))

	if file.AlbumArtist == "" && len(file.Artists) > 0 {
		file.AlbumArtist = file.Artists[0]
	}

	// A file with no usable title and no track number cannot be reconciled.
	if file.Title == "" && file.TrackNumber == 0 {
		return nil, fmt.Errorf("no usable tags in %s", path)
	}

	properties, err := taglib.ReadProperties(path)
	if err == nil {
		file.DurationMS = properties.Length.Milliseconds()
		file.Bitrate = int(properties.Bitrate)
	}

	return file, nil
}

func (t *TagLib) ReadImage(path string) ([]byte, error) {
	data, err := taglib.ReadImage(path)
	if err != nil {
		return nil, fmt.Errorf("read image %s: %w", path, err)
	}
	return data, nil
}

func (t *TagLib) Write(path string, file *File) error {
	tags := map[string][]string{
		taglib.Title:       {file.Title},
		taglib.Album:       {file.Album},
		taglib.AlbumArtist: {file.AlbumArtist},
		taglib.Artist:      file.Artists,
		taglib.TrackNumber: {strconv.Itoa(file.TrackNumber)},
		taglib.DiscNumber:  {strconv.Itoa(file.DiscNumber)},
	}
	if file.Genre != "" {
		tags[taglib.Genre] = []string{file.Genre}
	}
	if file.Year > 0 {
		tags[taglib.Date] = []string{strconv.Itoa(file.Year)}
	}
	if file.ISRC != "" {
		tags["ISRC"] = []string{file.ISRC}
	}

	if err := taglib.WriteTags(path, tags, 0); err != nil {
		return fmt.Errorf("write tags %s: %w", path, err)
	}
	return nil
}

// firstTagValue returns the first non-empty value among the named tags.
func firstTagValue(tags map[string][]string, names ...string) string {
	for _, name := range names {
		for _, value := range tags[name] {
			if trimmed := strings.TrimSpace(value); trimmed != "" {
				return trimmed
			}
		}
	}
	return ""
}

// tagValues returns every non-empty value of the first named tag that has any.
func tagValues(tags map[string][]string, names ...string) []string {
	for _, name := range names {
		var values []string
		for _, value := range tags[name] {
			if trimmed := strings.TrimSpace(value); trimmed != "" {
				values = append(values, trimmed)
			}
		}
		if len(values) > 0 {
			return values
		}
	}
	return nil
}

// parseYear accepts "2006", "2006-01-02" and similar date tag shapes.
func parseYear(value string) int {
	if len(value) >= 4 {
		if year, err := strconv.Atoi(value[:4]); err == nil {
			return year
		}
	}
	return 0
}
