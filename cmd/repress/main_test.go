package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"repress/internal/pipeline"
)

func TestRenderTableShapes(t *testing.T) {
	out := renderTable(
		[]string{"Metric", "Count"},
		[][]string{{"Transcoded", "12"}, {"Failed", "1"}},
		[]columnAlignment{alignLeft, alignRight},
	)
	if !strings.Contains(out, "Transcoded") || !strings.Contains(out, "12") {
		t.Fatalf("table missing content:\n%s", out)
	}
	if renderTable(nil, nil, nil) != "" {
		t.Fatal("empty headers should render nothing")
	}

	// Short rows pad out to the header width instead of panicking.
	padded := renderTable([]string{"A", "B", "C"}, [][]string{{"only"}}, nil)
	if !strings.Contains(padded, "only") {
		t.Fatalf("padded table missing row:\n%s", padded)
	}
}

func TestRenderSummaryDryRun(t *testing.T) {
	summary := pipeline.Summary{
		Snapshot: pipeline.Snapshot{Discovered: 4, Skipped: 1},
		Albums:   2,
	}
	out := renderSummary(summary, true)
	if !strings.HasPrefix(out, "Dry run") {
		t.Fatalf("dry run banner missing:\n%s", out)
	}
	if !strings.Contains(out, "Discovered") {
		t.Fatalf("summary missing counters:\n%s", out)
	}
}

func TestShortID(t *testing.T) {
	if got := shortID("0123456789abcdef"); got != "01234567" {
		t.Fatalf("shortID = %q", got)
	}
	if got := shortID("abc"); got != "abc" {
		t.Fatalf("shortID = %q", got)
	}
}

func TestConfigInitCommand(t *testing.T) {
	target := filepath.Join(t.TempDir(), "conf", "config.toml")

	cmd := newRootCommand()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs([]string{"config", "init", "--path", target})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("config init: %v", err)
	}
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("sample config not written: %v", err)
	}

	// A second init without --overwrite refuses to clobber the file.
	cmd = newRootCommand()
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs([]string{"config", "init", "--path", target})
	if err := cmd.Execute(); err == nil {
		t.Fatal("expected error when config already exists")
	}
}

func TestConfigShowCommand(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.toml")

	cmd := newRootCommand()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs([]string{"config", "init", "--path", target})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("config init: %v", err)
	}

	cmd = newRootCommand()
	buf.Reset()
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs([]string{"config", "show", "--config", target})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("config show: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "[paths]") || !strings.Contains(out, "input_dir") {
		t.Fatalf("show output missing config body:\n%s", out)
	}
	if !strings.Contains(out, target) {
		t.Fatalf("show output missing resolved path:\n%s", out)
	}
}

func TestRunCommandDryRunSkipsEnvironmentChecks(t *testing.T) {
	base := t.TempDir()
	input := filepath.Join(base, "in")
	output := filepath.Join(base, "out")
	logDir := filepath.Join(base, "logs")

	album := filepath.Join(input, "Artist", "Album")
	if err := os.MkdirAll(album, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(album, "01.flac"), []byte("flac"), 0o644); err != nil {
		t.Fatal(err)
	}

	// ffmpeg does not exist; a dry run must still succeed because it never
	// consults the encoder.
	cfgPath := filepath.Join(base, "config.toml")
	cfgBody := fmt.Sprintf(`[paths]
input_dir = %q
output_dir = %q
ffmpeg_bin = "definitely-not-ffmpeg"
log_dir = %q
`, input, output, logDir)
	if err := os.WriteFile(cfgPath, []byte(cfgBody), 0o644); err != nil {
		t.Fatal(err)
	}

	cmd := newRootCommand()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs([]string{"run", "--dry-run", "--config", cfgPath})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("dry run: %v\n%s", err, buf.String())
	}
	out := buf.String()
	if !strings.Contains(out, "Dry run") {
		t.Fatalf("dry run banner missing:\n%s", out)
	}
	if !strings.Contains(out, "01.flac") {
		t.Fatalf("plan missing discovered file:\n%s", out)
	}
	if _, err := os.Stat(output); !os.IsNotExist(err) {
		t.Fatalf("dry run created the output directory (stat err = %v)", err)
	}
}

func TestRunCommandMissingConfigFile(t *testing.T) {
	cmd := newRootCommand()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs([]string{"run", "--config", filepath.Join(t.TempDir(), "nope.toml")})

	if err := cmd.Execute(); err == nil {
		t.Fatal("expected error for missing explicit config")
	}
}
