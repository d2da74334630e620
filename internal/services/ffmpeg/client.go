package ffmpeg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// Executor abstracts command execution for testability.
type Executor interface {
	Run(ctx context.Context, binary string, args []string) (output string, err error)
}

// Option configures the client.
type Option func(*Client)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(c *Client) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// Client wraps ffmpeg CLI interactions.
type Client struct {
	binary      string
	vbrQuality  int
	copyArtwork bool
	exec        Executor
}

// New constructs an ffmpeg client. When copyArtwork is set, embedded
// pictures in the source are carried into the destination container.
func New(binary string, vbrQuality int, copyArtwork bool, opts ...Option) (*Client, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("ffmpeg binary required")
	}
	if vbrQuality < 1 || vbrQuality > 5 {
		return nil, fmt.Errorf("vbr quality must be 1-5, got %d", vbrQuality)
	}
	client := &Client{
		binary:      binary,
		vbrQuality:  vbrQuality,
		copyArtwork: copyArtwork,
		exec:        commandExecutor{},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Transcode encodes source into an AAC stream at destination. The parent
// directory is created when absent and any pre-existing destination is
// overwritten; the skip decision was already made at discovery time.
func (c *Client) Transcode(ctx context.Context, source, destination string) error {
	if source == "" || destination == "" {
		return errors.New("source and destination required")
	}
	if err := os.MkdirAll(filepath.Dir(destination), 0o755); err != nil {
		return fmt.Errorf("create destination directory: %w", err)
	}

	args := []string{
		"-hide_banner",
		"-i", source,
		"-c:a", "libfdk_aac",
		"-profile:a", "aac_low",
		"-vbr", strconv.Itoa(c.vbrQuality),
	}
	if c.copyArtwork {
		// FLAC front covers surface as a video stream; carry the bytes over
		// and mark the stream as cover art in the MP4 container.
		args = append(args, "-c:v", "copy", "-disposition:v:0", "attached_pic")
	} else {
		args = append(args, "-vn")
	}
	args = append(args, "-y", destination)

	output, err := c.exec.Run(ctx, c.binary, args)
	if err != nil {
		return fmt.Errorf("ffmpeg encode %s: %w: %s", filepath.Base(source), err, tailLines(output, 5))
	}
	return nil
}

// tailLines returns the last n non-empty lines of subprocess output, which
// is where ffmpeg puts the actionable part of its error text.
func tailLines(output string, n int) string {
	lines := strings.Split(strings.TrimSpace(output), "\n")
	kept := make([]string, 0, n)
	for i := len(lines) - 1; i >= 0 && len(kept) < n; i-- {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			continue
		}
		kept = append([]string{line}, kept...)
	}
	return strings.Join(kept, " | ")
}

type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, binary string, args []string) (string, error) {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf
	err := cmd.Run()
	return buf.String(), err
}
