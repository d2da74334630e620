package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"repress/internal/artwork"
	"repress/internal/config"
	"repress/internal/journal"
	"repress/internal/logging"
	"repress/internal/loudness"
	"repress/internal/pipeline"
	"repress/internal/preflight"
	"repress/internal/scan"
	"repress/internal/services/ffmpeg"
	"repress/internal/tags"
)

func newRunCommand(configFlag *string) *cobra.Command {
	var dryRun bool
	var workersFlag int

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Convert the FLAC library to AAC",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := config.Load(*configFlag)
			if err != nil {
				return err
			}
			if workersFlag > 0 {
				cfg.Processing.Workers = workersFlag
			}
			if dryRun {
				// A dry run writes only logs and the journal; leave the
				// output tree untouched.
				if err := os.MkdirAll(cfg.Paths.LogDir, 0o755); err != nil {
					return fmt.Errorf("create log directory: %w", err)
				}
			} else if err := cfg.EnsureDirectories(); err != nil {
				return err
			}

			logger, err := logging.New(logging.Options{
				Level:  cfg.Processing.LogLevel,
				Format: cfg.Processing.LogFormat,
				OutputPaths: []string{
					"stdout",
					filepath.Join(cfg.Paths.LogDir, "repress.log"),
				},
			})
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			// Preflight gates real runs only; a dry run never touches
			// ffmpeg or the output tree.
			var results []preflight.Result
			if !dryRun {
				results = preflight.RunAll(ctx, cfg)
				if !preflight.Ready(results) {
					fmt.Fprintln(cmd.OutOrStdout(), renderPreflight(results))
					return fmt.Errorf("preflight checks failed")
				}
			}

			lock := flock.New(filepath.Join(cfg.Paths.LogDir, "repress.lock"))
			locked, err := lock.TryLock()
			if err != nil {
				return fmt.Errorf("acquire run lock: %w", err)
			}
			if !locked {
				return fmt.Errorf("another run is already in progress (lock: %s)", lock.Path())
			}
			defer func() { _ = lock.Unlock() }()

			store, err := journal.Open(filepath.Join(cfg.Paths.LogDir, "history.db"))
			if err != nil {
				return err
			}
			defer store.Close()

			run, err := store.BeginRun(ctx, dryRun)
			if err != nil {
				return err
			}
			logger = logger.With(logging.String(logging.FieldRunID, run.ID))

			runner, err := buildRunner(cfg, logger, store, run.ID, dryRun, results)
			if err != nil {
				return err
			}

			summary := runner.Run(ctx)

			outcome := journal.OutcomeCompleted
			switch {
			case summary.Interrupted:
				outcome = journal.OutcomeInterrupted
			case summary.Failed():
				outcome = journal.OutcomeFailed
			}
			if err := store.FinishRun(cmd.Context(), run.ID, outcome, journal.Counts{
				Discovered: summary.Discovered,
				Transcoded: summary.Transcoded,
				Skipped:    summary.Skipped,
				Failed:     summary.Snapshot.Failed,
			}); err != nil {
				logger.Warn("journal finish failed", logging.Error(err))
			}

			fmt.Fprintln(cmd.OutOrStdout(), renderSummary(summary, dryRun))

			if summary.Interrupted {
				return errInterrupted
			}
			if summary.Failed() {
				return fmt.Errorf("%d file(s) failed", summary.Snapshot.Failed)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "List the work without transcoding")
	cmd.Flags().IntVarP(&workersFlag, "workers", "w", 0, "Override the configured worker count")
	return cmd
}

func buildRunner(cfg *config.Config, logger *slog.Logger, store *journal.Store, runID string, dryRun bool, results []preflight.Result) (*pipeline.Runner, error) {
	client, err := ffmpeg.New(cfg.Paths.FFmpegBin, cfg.Encoding.VBRQuality, cfg.Metadata.CopyArtwork)
	if err != nil {
		return nil, err
	}

	scanner := scan.NewScanner(
		cfg.Paths.InputDir,
		cfg.Paths.OutputDir,
		cfg.OutputExt(),
		cfg.Processing.OverwriteExisting,
		logger,
	)

	var covers pipeline.CoverPlacer
	if cfg.Metadata.CoverFile.Enabled {
		covers = artwork.NewPlacer(artwork.Options{
			SearchNames:  cfg.Metadata.CoverFile.SearchNames,
			FallbackName: cfg.Metadata.CoverFile.FallbackName,
			MaxSize:      cfg.Metadata.CoverFile.MaxSize,
			JPEGQuality:  cfg.Metadata.CoverFile.JPEGQuality,
			Overwrite:    cfg.Processing.OverwriteExisting,
		}, logger)
	}

	var tagger pipeline.LoudnessTagger
	if preflight.HasLoudnessSupport(results) {
		tagger = loudness.NewTagger(client, loudness.Options{
			ReplayGain:        cfg.Loudness.EnableReplayGain,
			SoundCheck:        cfg.Loudness.EnableITunesSoundCheck,
			ReferenceLoudness: cfg.Loudness.ReferenceLoudness,
		}, logger)
	} else if !dryRun && (cfg.Loudness.EnableReplayGain || cfg.Loudness.EnableITunesSoundCheck) {
		logger.Warn("ebur128 filter unavailable, loudness tagging disabled")
	}

	return pipeline.NewRunner(pipeline.RunnerOptions{
		Scanner:    scanner,
		Transcoder: client,
		TagCopier:  tags.NewCopier(logger),
		Covers:     covers,
		Loudness:   tagger,
		Recorder:   store,
		RunID:      runID,
		Workers:    cfg.Processing.Workers,
		DryRun:     dryRun,
		Logger:     logger,
	})
}

func renderPreflight(results []preflight.Result) string {
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		status := "FAIL"
		if r.Passed {
			status = "OK"
		}
		rows = append(rows, []string{r.Name, status, r.Detail})
	}
	return renderTable([]string{"Check", "Status", "Detail"}, rows, nil)
}

func renderSummary(summary pipeline.Summary, dryRun bool) string {
	rows := [][]string{
		{"Discovered", strconv.Itoa(summary.Discovered)},
		{"Albums", strconv.Itoa(summary.Albums)},
		{"Transcoded", strconv.Itoa(summary.Transcoded)},
		{"Skipped", strconv.Itoa(summary.Skipped)},
		{"Failed", strconv.Itoa(summary.Snapshot.Failed)},
		{"Covers placed", strconv.Itoa(summary.CoversPlaced)},
		{"Loudness tagged", strconv.Itoa(summary.LoudnessTagged)},
	}
	headers := []string{"Metric", "Count"}
	table := renderTable(headers, rows, []columnAlignment{alignLeft, alignRight})
	if dryRun {
		return "Dry run (no files written)\n" + renderPlan(summary.Planned) + "\n" + table
	}
	return table
}

func renderPlan(planned []scan.Item) string {
	if len(planned) == 0 {
		return "Nothing to do."
	}
	rows := make([][]string, 0, len(planned))
	for _, item := range planned {
		rows = append(rows, []string{item.Source, item.Destination})
	}
	return renderTable([]string{"Source", "Destination"}, rows, nil)
}
