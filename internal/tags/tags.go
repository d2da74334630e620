// Package tags transfers text metadata from source FLAC files to their
// encoded M4A counterparts. TagLib handles the container-level mapping, so
// the work here is selecting which fields travel and normalizing track and
// disc numbering on the way.
package tags

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"go.senan.xyz/taglib"
)

// copiedFields is the set of source fields carried to the destination.
// Track and disc numbers are handled separately because they may arrive in
// "index/total" form.
var copiedFields = []string{
	taglib.Title,
	taglib.Artist,
	taglib.AlbumArtist,
	taglib.Album,
	taglib.Date,
	taglib.Genre,
	taglib.Comment,
	taglib.Composer,
	"LYRICS",
	"COPYRIGHT",
}

// Copier reads tags from a source file and writes the mapped subset to a
// destination file.
type Copier struct {
	logger *slog.Logger
}

func NewCopier(logger *slog.Logger) *Copier {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Copier{logger: logger}
}

// Copy transfers the text tags of source onto destination. Fields absent
// from the source are left untouched on the destination; malformed track or
// disc numbers are logged and dropped rather than failing the file.
func (c *Copier) Copy(source, destination string) error {
	src, err := taglib.ReadTags(source)
	if err != nil {
		return fmt.Errorf("read tags from %s: %w", source, err)
	}

	out := make(map[string][]string)
	for _, field := range copiedFields {
		if values := nonEmptyValues(src[field]); len(values) > 0 {
			out[field] = values
		}
	}

	c.applyNumbering(out, src, taglib.TrackNumber, "TRACKTOTAL")
	c.applyNumbering(out, src, taglib.DiscNumber, "DISCTOTAL")

	if len(out) == 0 {
		return nil
	}
	if err := taglib.WriteTags(destination, out, 0); err != nil {
		return fmt.Errorf("write tags to %s: %w", destination, err)
	}
	return nil
}

// applyNumbering normalizes a track or disc field. Values like "7/12" are
// split into the index field plus a companion total field.
func (c *Copier) applyNumbering(out map[string][]string, src map[string][]string, field, totalField string) {
	raw := firstValue(src[field])
	if raw == "" {
		return
	}
	index, total, err := splitIndexTotal(raw)
	if err != nil {
		c.logger.Warn("invalid numbering tag", "field", field, "value", raw)
		return
	}
	out[field] = []string{strconv.Itoa(index)}
	if total > 0 {
		out[totalField] = []string{strconv.Itoa(total)}
	} else if existing := firstValue(src[totalField]); existing != "" {
		out[totalField] = []string{existing}
	}
}

// splitIndexTotal parses "7" or "7/12" into index and total. A missing
// total yields zero.
func splitIndexTotal(value string) (index, total int, err error) {
	head, tail, hasTotal := strings.Cut(strings.TrimSpace(value), "/")
	index, err = strconv.Atoi(strings.TrimSpace(head))
	if err != nil {
		return 0, 0, fmt.Errorf("parse index %q: %w", value, err)
	}
	if hasTotal {
		total, err = strconv.Atoi(strings.TrimSpace(tail))
		if err != nil {
			return 0, 0, fmt.Errorf("parse total %q: %w", value, err)
		}
	}
	return index, total, nil
}

func nonEmptyValues(values []string) []string {
	kept := make([]string, 0, len(values))
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			kept = append(kept, trimmed)
		}
	}
	return kept
}

func firstValue(values []string) string {
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
