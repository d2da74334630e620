// Package scan discovers source audio files and maps them to destinations.
package scan

import (
	"context"
	"io/fs"
	"iter"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"repress/internal/logging"
)

// sourceExt is the recognized lossless source extension, matched
// case-insensitively.
const sourceExt = ".flac"

// Item is one source-to-destination mapping awaiting transcoding.
type Item struct {
	Source      string
	Destination string
}

// AlbumDir returns the album directory for the item, which is the parent of
// its source file.
func (i Item) AlbumDir() string {
	return filepath.Dir(i.Source)
}

// DestDir returns the directory the item's destination file lands in.
func (i Item) DestDir() string {
	return filepath.Dir(i.Destination)
}

// Scanner walks the input root and yields work items whose destinations are
// derived via MapPath.
type Scanner struct {
	inputRoot  string
	outputRoot string
	outputExt  string
	overwrite  bool
	logger     *slog.Logger

	skipped int
}

// NewScanner constructs a scanner. A nil logger falls back to no-op.
func NewScanner(inputRoot, outputRoot, outputExt string, overwrite bool, logger *slog.Logger) *Scanner {
	return &Scanner{
		inputRoot:  inputRoot,
		outputRoot: outputRoot,
		outputExt:  outputExt,
		overwrite:  overwrite,
		logger:     logging.NewComponentLogger(logger, "scanner"),
	}
}

// Scan yields work items in walk order. A missing or non-directory input
// root is reported and yields nothing; it is a configuration problem, not a
// crash. Existing destinations are skipped (and counted) unless overwrite is
// enabled. The sequence is single-pass; calling Scan again re-walks the
// filesystem and resets the skip count.
func (s *Scanner) Scan(ctx context.Context) iter.Seq[Item] {
	s.skipped = 0

	return func(yield func(Item) bool) {
		info, err := os.Stat(s.inputRoot)
		if err != nil {
			s.logger.Error("input directory does not exist", logging.String("path", s.inputRoot))
			return
		}
		if !info.IsDir() {
			s.logger.Error("input path is not a directory", logging.String("path", s.inputRoot))
			return
		}

		s.logger.Info("scanning for FLAC files", logging.String("path", s.inputRoot))

		_ = filepath.WalkDir(s.inputRoot, func(path string, entry fs.DirEntry, err error) error {
			if ctx.Err() != nil {
				return filepath.SkipAll
			}
			if err != nil {
				s.logger.Warn("walk error", logging.String("path", path), logging.Error(err))
				return nil
			}
			if entry.IsDir() || !strings.EqualFold(filepath.Ext(path), sourceExt) {
				return nil
			}

			dest, err := MapPath(path, s.inputRoot, s.outputRoot, s.outputExt)
			if err != nil {
				s.logger.Warn("skipping unmappable source", logging.String("path", path), logging.Error(err))
				return nil
			}

			if !s.overwrite {
				if _, err := os.Stat(dest); err == nil {
					s.logger.Debug("skipping existing file", logging.String(logging.FieldDest, dest))
					s.skipped++
					return nil
				}
			}

			if !yield(Item{Source: path, Destination: dest}) {
				return filepath.SkipAll
			}
			return nil
		})
	}
}

// Skipped returns the number of items dropped by the existing-destination
// filter during the most recent Scan.
func (s *Scanner) Skipped() int {
	return s.skipped
}
