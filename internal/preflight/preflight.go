// Package preflight verifies the environment before a real run starts.
package preflight

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"repress/internal/config"
	"repress/internal/deps"
)

// Result reports the outcome of a single preflight check. Optional checks
// degrade a feature when they fail instead of blocking the run.
type Result struct {
	Name     string
	Passed   bool
	Optional bool
	Detail   string
}

// RunAll executes all preflight checks for the given config. The run must not
// start when any non-optional check fails.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryReadable("Input directory", cfg.Paths.InputDir),
		CheckDirectoryWritable("Output directory", cfg.Paths.OutputDir),
	}

	binaries := deps.CheckBinaries([]deps.Requirement{{
		Name:        "FFmpeg binary",
		Command:     cfg.Paths.FFmpegBin,
		Description: "Transcoder and loudness analyzer",
	}})
	for _, status := range binaries {
		results = append(results, fromStatus(status))
	}

	results = append(results, fromStatus(deps.CheckFFmpegEncoder(ctx, cfg.Paths.FFmpegBin, "libfdk_aac")))

	if cfg.Loudness.EnableReplayGain || cfg.Loudness.EnableITunesSoundCheck {
		results = append(results, fromStatus(deps.CheckFFmpegFilter(ctx, cfg.Paths.FFmpegBin, "ebur128")))
	}

	return results
}

// Ready reports whether every non-optional check passed.
func Ready(results []Result) bool {
	for _, r := range results {
		if !r.Optional && !r.Passed {
			return false
		}
	}
	return true
}

// HasLoudnessSupport reports whether the loudness analysis check ran and
// passed. It is the only optional check; failing it disables loudness
// tagging rather than the run.
func HasLoudnessSupport(results []Result) bool {
	for _, r := range results {
		if r.Optional {
			return r.Passed
		}
	}
	return false
}

func fromStatus(s deps.Status) Result {
	return Result{Name: s.Name, Passed: s.Available, Optional: s.Optional, Detail: statusDetail(s)}
}

// CheckDirectoryReadable verifies that the directory exists and is readable.
func CheckDirectoryReadable(name, path string) Result {
	return checkDirectory(name, path, unix.R_OK|unix.X_OK, "read ok")
}

// CheckDirectoryWritable verifies that the directory exists (or can be
// created) and is writable.
func CheckDirectoryWritable(name, path string) Result {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := os.MkdirAll(path, 0o755); err != nil {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: create: %v)", path, err)}
		}
	}
	return checkDirectory(name, path, unix.R_OK|unix.W_OK|unix.X_OK, "read/write ok")
}

func checkDirectory(name, path string, mode uint32, okDetail string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, mode); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%s)", path, okDetail)}
}

func statusDetail(s deps.Status) string {
	if s.Available {
		return s.Command
	}
	return s.Detail
}
