// Package loudness measures encoded albums with EBU R128 and writes
// ReplayGain and iTunes SoundCheck tags onto the results. Tagging is best
// effort per file; a track that cannot be measured or written is logged and
// counted, not fatal for the album.
package loudness

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"go.senan.xyz/taglib"

	"repress/internal/services/ffmpeg"
	"repress/internal/soundcheck"
)

// Measurer runs an EBU R128 measurement over one or more audio files.
type Measurer interface {
	MeasureLoudness(ctx context.Context, paths []string) (ffmpeg.LoudnessSummary, error)
}

// Options selects which tag families are written and the loudness target
// gains are computed against.
type Options struct {
	ReplayGain        bool
	SoundCheck        bool
	ReferenceLoudness float64
}

// Result summarizes an album tagging pass.
type Result struct {
	TracksTagged int
	Failures     int
}

// Tagger measures and tags encoded album files.
type Tagger struct {
	measurer Measurer
	opts     Options
	logger   *slog.Logger

	writeTags func(path string, tags map[string][]string, opts taglib.WriteOption) error
}

func NewTagger(measurer Measurer, opts Options, logger *slog.Logger) *Tagger {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Tagger{
		measurer:  measurer,
		opts:      opts,
		logger:    logger,
		writeTags: taglib.WriteTags,
	}
}

// Enabled reports whether any loudness tagging is configured.
func (t *Tagger) Enabled() bool {
	return t.opts.ReplayGain || t.opts.SoundCheck
}

// ProcessAlbum measures files as one album plus individually, then writes
// the configured tags to each file. The files are the encoded outputs, so
// the measurements reflect what a player will actually decode. An error is
// returned only when the album-wide measurement fails; per-track problems
// are recorded in the result.
func (t *Tagger) ProcessAlbum(ctx context.Context, files []string) (Result, error) {
	var result Result
	if !t.Enabled() || len(files) == 0 {
		return result, nil
	}

	album, err := t.measurer.MeasureLoudness(ctx, files)
	if err != nil {
		return result, fmt.Errorf("measure album loudness: %w", err)
	}
	albumGain := t.opts.ReferenceLoudness - album.IntegratedLUFS
	albumPeak := linearPeak(album.TruePeakDB)

	for _, file := range files {
		track, err := t.measurer.MeasureLoudness(ctx, []string{file})
		if err != nil {
			t.logger.Warn("track loudness measurement failed", "file", file, "error", err)
			result.Failures++
			continue
		}
		trackGain := t.opts.ReferenceLoudness - track.IntegratedLUFS

		tags := t.buildTags(trackGain, linearPeak(track.TruePeakDB), albumGain, albumPeak)
		if err := t.writeTags(file, tags, 0); err != nil {
			t.logger.Warn("loudness tag write failed", "file", file, "error", err)
			result.Failures++
			continue
		}
		result.TracksTagged++
	}
	return result, nil
}

func (t *Tagger) buildTags(trackGain, trackPeak, albumGain, albumPeak float64) map[string][]string {
	tags := make(map[string][]string)
	if t.opts.ReplayGain {
		tags["REPLAYGAIN_TRACK_GAIN"] = []string{fmt.Sprintf("%.2f dB", trackGain)}
		tags["REPLAYGAIN_TRACK_PEAK"] = []string{fmt.Sprintf("%.6f", trackPeak)}
		tags["REPLAYGAIN_ALBUM_GAIN"] = []string{fmt.Sprintf("%.2f dB", albumGain)}
		tags["REPLAYGAIN_ALBUM_PEAK"] = []string{fmt.Sprintf("%.6f", albumPeak)}
	}
	if t.opts.SoundCheck {
		tags["ITUNNORM"] = []string{soundcheck.Encode(trackGain)}
	}
	return tags
}

// linearPeak converts a true peak in dBFS to the linear scale ReplayGain
// peak fields use.
func linearPeak(dBTP float64) float64 {
	return math.Pow(10, dBTP/20)
}
