package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
)

// LoudnessSummary holds the integrated loudness and true peak reported by
// the ebur128 filter over one or more inputs.
type LoudnessSummary struct {
	IntegratedLUFS float64
	TruePeakDB     float64
}

var (
	integratedRe = regexp.MustCompile(`I:\s+([-\d.]+)\s+LUFS`)
	peakRe       = regexp.MustCompile(`Peak:\s+([-\d.]+)\s+dBFS`)
)

// MeasureLoudness runs the ebur128 filter over the given files and parses
// the summary block from ffmpeg's output. Multiple files are concatenated
// into one stream so the result is the album-integrated measurement.
func (c *Client) MeasureLoudness(ctx context.Context, paths []string) (LoudnessSummary, error) {
	if len(paths) == 0 {
		return LoudnessSummary{}, errors.New("no files to measure")
	}

	args := []string{"-hide_banner"}
	for _, path := range paths {
		args = append(args, "-i", path)
	}
	const filter = "ebur128=framelog=quiet:peak=true"
	if len(paths) == 1 {
		args = append(args, "-af", filter)
	} else {
		args = append(args,
			"-filter_complex",
			fmt.Sprintf("concat=n=%d:v=0:a=1,%s", len(paths), filter),
		)
	}
	args = append(args, "-f", "null", "-")

	output, err := c.exec.Run(ctx, c.binary, args)
	if err != nil {
		return LoudnessSummary{}, fmt.Errorf("ffmpeg loudness measurement: %w: %s", err, tailLines(output, 3))
	}
	return parseLoudnessSummary(output)
}

func parseLoudnessSummary(output string) (LoudnessSummary, error) {
	var summary LoudnessSummary

	match := integratedRe.FindStringSubmatch(output)
	if len(match) < 2 {
		return summary, errors.New("ebur128 summary missing integrated loudness")
	}
	integrated, err := strconv.ParseFloat(match[1], 64)
	if err != nil {
		return summary, fmt.Errorf("parse integrated loudness %q: %w", match[1], err)
	}
	summary.IntegratedLUFS = integrated

	if match := peakRe.FindStringSubmatch(output); len(match) >= 2 {
		if peak, err := strconv.ParseFloat(match[1], 64); err == nil {
			summary.TruePeakDB = peak
		}
	}
	return summary, nil
}
