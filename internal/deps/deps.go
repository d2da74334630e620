// Package deps checks the external binaries repress shells out to.
package deps

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// Requirement defines an external dependency repress relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		if _, err := exec.LookPath(cmd); err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Available = true
		results = append(results, status)
	}
	return results
}

const codecProbeTimeout = 15 * time.Second

// CheckFFmpegEncoder reports whether the ffmpeg binary exposes the given
// encoder. A missing binary and a missing encoder both surface as unavailable
// with distinct detail text.
func CheckFFmpegEncoder(ctx context.Context, binary, encoder string) Status {
	status := Status{
		Name:        "FFmpeg " + encoder,
		Command:     strings.TrimSpace(binary),
		Description: "Required for AAC encoding",
	}
	if status.Command == "" {
		status.Detail = "command not configured"
		return status
	}
	if _, err := exec.LookPath(status.Command); err != nil {
		status.Detail = fmt.Sprintf("binary %q not found", status.Command)
		return status
	}

	probeCtx, cancel := context.WithTimeout(ctx, codecProbeTimeout)
	defer cancel()

	out, err := exec.CommandContext(probeCtx, status.Command, "-hide_banner", "-encoders").Output()
	if err != nil {
		status.Detail = fmt.Sprintf("query encoders: %v", err)
		return status
	}
	if !strings.Contains(string(out), encoder) {
		status.Detail = fmt.Sprintf("ffmpeg found but %s encoder is not available", encoder)
		return status
	}
	status.Available = true
	return status
}

// CheckFFmpegFilter reports whether the ffmpeg binary exposes the given audio
// filter. Used to decide at startup whether loudness analysis can run.
func CheckFFmpegFilter(ctx context.Context, binary, filter string) Status {
	status := Status{
		Name:        "FFmpeg " + filter,
		Command:     strings.TrimSpace(binary),
		Description: "Required for loudness analysis",
		Optional:    true,
	}
	if status.Command == "" {
		status.Detail = "command not configured"
		return status
	}
	if _, err := exec.LookPath(status.Command); err != nil {
		status.Detail = fmt.Sprintf("binary %q not found", status.Command)
		return status
	}

	probeCtx, cancel := context.WithTimeout(ctx, codecProbeTimeout)
	defer cancel()

	out, err := exec.CommandContext(probeCtx, status.Command, "-hide_banner", "-filters").Output()
	if err != nil {
		status.Detail = fmt.Sprintf("query filters: %v", err)
		return status
	}
	if !strings.Contains(string(out), filter) {
		status.Detail = fmt.Sprintf("ffmpeg found but the %s filter is not available", filter)
		return status
	}
	status.Available = true
	return status
}
