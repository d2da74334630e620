// Package pipeline drives a batch run: discovery, then the albums one at a
// time. Files within an album fan out to the transcode worker pool; the
// album's artwork and loudness passes run once its last file is through the
// encoder, before the next album starts.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"repress/internal/journal"
	"repress/internal/logging"
	"repress/internal/loudness"
	"repress/internal/scan"
)

// Transcoder encodes one source file to its destination.
type Transcoder interface {
	Transcode(ctx context.Context, source, destination string) error
}

// TagCopier transfers text metadata from source to destination.
type TagCopier interface {
	Copy(source, destination string) error
}

// CoverPlacer puts an album cover file into the destination album
// directory, returning the placed path or "" when no cover exists.
type CoverPlacer interface {
	Place(sourceDir, destDir string, sourceFiles []string) (string, error)
}

// LoudnessTagger measures and tags an album's encoded files.
type LoudnessTagger interface {
	Enabled() bool
	ProcessAlbum(ctx context.Context, files []string) (loudness.Result, error)
}

// Recorder persists per-file outcomes. Satisfied by *journal.Store; nil
// disables journaling.
type Recorder interface {
	RecordItem(ctx context.Context, runID, source, dest string, status journal.ItemStatus, errMessage string) error
}

// Runner owns one batch run end to end.
type Runner struct {
	scanner    *scan.Scanner
	transcoder Transcoder
	tagCopier  TagCopier
	covers     CoverPlacer
	loudness   LoudnessTagger
	recorder   Recorder
	runID      string

	workers int
	dryRun  bool
	logger  *slog.Logger
}

// RunnerOptions bundles the Runner's collaborators and settings.
type RunnerOptions struct {
	Scanner    *scan.Scanner
	Transcoder Transcoder
	TagCopier  TagCopier
	Covers     CoverPlacer
	Loudness   LoudnessTagger
	Recorder   Recorder
	RunID      string
	Workers    int
	DryRun     bool
	Logger     *slog.Logger
}

// Summary is the result of a completed run. Albums counts albums processed
// to completion; an interrupted run reports only the albums it finished.
// Planned is populated only for dry runs, where it lists the work that would
// have been done and Albums is the planned album count.
type Summary struct {
	Snapshot
	Albums      int
	Interrupted bool
	Planned     []scan.Item
}

// Failed reports whether any file failed during the run.
func (s Summary) Failed() bool {
	return s.Snapshot.Failed > 0
}

func NewRunner(opts RunnerOptions) (*Runner, error) {
	if opts.Scanner == nil {
		return nil, errors.New("scanner required")
	}
	if opts.Transcoder == nil && !opts.DryRun {
		return nil, errors.New("transcoder required")
	}
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}
	return &Runner{
		scanner:    opts.Scanner,
		transcoder: opts.Transcoder,
		tagCopier:  opts.TagCopier,
		covers:     opts.Covers,
		loudness:   opts.Loudness,
		recorder:   opts.Recorder,
		runID:      opts.RunID,
		workers:    workers,
		dryRun:     opts.DryRun,
		logger:     logging.NewComponentLogger(opts.Logger, "pipeline"),
	}, nil
}

// Run discovers the work, executes it, and returns the summary. A canceled
// context stops dispatch; in-flight files finish and the summary is marked
// interrupted.
func (r *Runner) Run(ctx context.Context) Summary {
	stats := &Stats{}

	var items []scan.Item
	for item := range r.scanner.Scan(ctx) {
		items = append(items, item)
	}
	stats.AddDiscovered(len(items))
	stats.AddSkipped(r.scanner.Skipped())

	albums := groupByAlbum(items)
	r.logger.Info("discovery complete",
		logging.Int("files", len(items)),
		logging.Int("albums", len(albums)),
		logging.Int("skipped", r.scanner.Skipped()),
	)

	if r.dryRun {
		for _, item := range items {
			r.logger.Info("would transcode",
				logging.String(logging.FieldSource, item.Source),
				logging.String(logging.FieldDest, item.Destination),
			)
		}
		return Summary{Snapshot: stats.Snapshot(), Albums: len(albums), Planned: items}
	}

	completed := 0
	if len(items) > 0 {
		completed = r.processAlbums(ctx, albums, stats)
	}

	return Summary{
		Snapshot:    stats.Snapshot(),
		Albums:      completed,
		Interrupted: ctx.Err() != nil,
	}
}

// processAlbums walks the albums in discovery order, one at a time. Each
// album's files go through the worker pool and the album is finalized before
// the next one starts; no two albums are ever in flight together. Returns the
// number of albums taken to completion.
func (r *Runner) processAlbums(ctx context.Context, albums []*Album, stats *Stats) int {
	completed := 0
	for _, album := range albums {
		if ctx.Err() != nil {
			break
		}
		succeeded := r.processAlbumItems(ctx, album, stats)
		if ctx.Err() != nil {
			break
		}
		r.finalizeAlbum(ctx, album, succeeded, stats)
		completed++
	}
	return completed
}

// processAlbumItems fans one album's files out to the worker pool and waits
// for all of them, returning the files that transcoded successfully.
func (r *Runner) processAlbumItems(ctx context.Context, album *Album, stats *Stats) []scan.Item {
	work := make(chan scan.Item)

	var mu sync.Mutex
	var succeeded []scan.Item

	var wg sync.WaitGroup
	for range min(r.workers, len(album.Items)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range work {
				if r.processItem(ctx, item, stats) {
					mu.Lock()
					succeeded = append(succeeded, item)
					mu.Unlock()
				}
			}
		}()
	}

dispatch:
	for _, item := range album.Items {
		select {
		case work <- item:
		case <-ctx.Done():
			break dispatch
		}
	}
	close(work)
	wg.Wait()
	return succeeded
}

func (r *Runner) processItem(ctx context.Context, item scan.Item, stats *Stats) bool {
	err := ctx.Err()
	if err == nil {
		err = r.transcodeAndTag(ctx, item)
	}

	if err != nil {
		if ctx.Err() == nil {
			r.logger.Error("file failed",
				logging.String(logging.FieldSource, item.Source),
				logging.Error(err),
			)
			stats.IncFailed()
			r.recordItem(item, journal.ItemFailed, err.Error())
		}
		return false
	}

	r.logger.Info("transcoded",
		logging.String(logging.FieldSource, item.Source),
		logging.String(logging.FieldDest, item.Destination),
	)
	stats.IncTranscoded()
	r.recordItem(item, journal.ItemTranscoded, "")
	return true
}

func (r *Runner) transcodeAndTag(ctx context.Context, item scan.Item) error {
	if err := r.transcoder.Transcode(ctx, item.Source, item.Destination); err != nil {
		return err
	}
	if r.tagCopier != nil {
		if err := r.tagCopier.Copy(item.Source, item.Destination); err != nil {
			return err
		}
	}
	return nil
}

// finalizeAlbum runs the artwork and loudness passes over an album's
// successful files. An album with no successes is done; there is nothing to
// decorate. Cover and loudness problems are logged, not counted as file
// failures.
func (r *Runner) finalizeAlbum(ctx context.Context, album *Album, succeeded []scan.Item, stats *Stats) {
	if len(succeeded) == 0 {
		return
	}
	logger := r.logger.With(logging.String(logging.FieldAlbum, album.Dir))

	if r.covers != nil {
		placed, err := r.covers.Place(album.Dir, album.DestDir(), album.SourceFiles())
		switch {
		case err != nil:
			logger.Warn("cover placement failed", logging.Error(err))
		case placed != "":
			logger.Info("cover placed", logging.String("cover", placed))
			stats.IncCoversPlaced()
		}
	}

	if r.loudness != nil && r.loudness.Enabled() {
		files := make([]string, len(succeeded))
		for i, item := range succeeded {
			files[i] = item.Destination
		}
		result, err := r.loudness.ProcessAlbum(ctx, files)
		if err != nil {
			logger.Warn("loudness tagging failed", logging.Error(err))
		} else {
			stats.AddLoudnessTagged(result.TracksTagged)
			if result.Failures > 0 {
				logger.Warn("loudness tagging incomplete", logging.Int("failures", result.Failures))
			}
		}
	}

	logger.Info("album complete",
		logging.Int("files", len(succeeded)),
		logging.Int("failed", len(album.Items)-len(succeeded)),
	)
}

func (r *Runner) recordItem(item scan.Item, status journal.ItemStatus, errMessage string) {
	if r.recorder == nil {
		return
	}
	// Journal writes survive cancellation; use a background context so a
	// canceled run still records what finished.
	if err := r.recorder.RecordItem(context.Background(), r.runID, item.Source, item.Destination, status, errMessage); err != nil {
		r.logger.Warn("journal write failed", logging.Error(err))
	}
}
