package scan_test

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"repress/internal/scan"
)

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("flac"), 0o644); err != nil {
		t.Fatal(err)
	}
}

func collect(t *testing.T, s *scan.Scanner) []scan.Item {
	t.Helper()
	var items []scan.Item
	for item := range s.Scan(t.Context()) {
		items = append(items, item)
	}
	return items
}

func TestMapPathRewritesUnderOutputRoot(t *testing.T) {
	dest, err := scan.MapPath(
		"/music/flac/Artist/Album/01 Track.flac",
		"/music/flac", "/music/aac", ".m4a",
	)
	if err != nil {
		t.Fatalf("MapPath returned error: %v", err)
	}
	want := "/music/aac/Artist/Album/01 Track.m4a"
	if dest != want {
		t.Fatalf("MapPath = %q, want %q", dest, want)
	}
}

func TestMapPathRejectsEscapes(t *testing.T) {
	cases := []string{
		"/music/other/track.flac",
		"/music/flacish/track.flac",
		"/music/track.flac",
	}
	for _, source := range cases {
		if _, err := scan.MapPath(source, "/music/flac", "/music/aac", ".m4a"); !errors.Is(err, scan.ErrOutsideRoot) {
			t.Fatalf("MapPath(%q) error = %v, want ErrOutsideRoot", source, err)
		}
	}
}

func TestScanFindsFilesAndMirrorsTree(t *testing.T) {
	inputDir := t.TempDir()
	outputDir := t.TempDir()
	touch(t, filepath.Join(inputDir, "Artist", "Album", "01.flac"))
	touch(t, filepath.Join(inputDir, "Artist", "Album", "02.FLAC"))
	touch(t, filepath.Join(inputDir, "Artist", "Album", "notes.txt"))

	s := scan.NewScanner(inputDir, outputDir, ".m4a", false, nil)
	items := collect(t, s)

	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d: %v", len(items), items)
	}
	wantDest := filepath.Join(outputDir, "Artist", "Album", "01.m4a")
	if items[0].Destination != wantDest {
		t.Fatalf("destination = %q, want %q", items[0].Destination, wantDest)
	}
	if got := items[0].AlbumDir(); got != filepath.Join(inputDir, "Artist", "Album") {
		t.Fatalf("album dir = %q", got)
	}
}

func TestScanSkipsExistingDestinations(t *testing.T) {
	inputDir := t.TempDir()
	outputDir := t.TempDir()
	touch(t, filepath.Join(inputDir, "a.flac"))
	touch(t, filepath.Join(inputDir, "b.flac"))
	touch(t, filepath.Join(outputDir, "a.m4a"))

	s := scan.NewScanner(inputDir, outputDir, ".m4a", false, nil)
	items := collect(t, s)

	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	if filepath.Base(items[0].Source) != "b.flac" {
		t.Fatalf("unexpected surviving item: %v", items[0])
	}
	if s.Skipped() != 1 {
		t.Fatalf("skipped = %d, want 1", s.Skipped())
	}

	// Overwrite mode yields everything and counts no skips.
	s = scan.NewScanner(inputDir, outputDir, ".m4a", true, nil)
	if items := collect(t, s); len(items) != 2 {
		t.Fatalf("overwrite scan expected 2 items, got %d", len(items))
	}
	if s.Skipped() != 0 {
		t.Fatalf("overwrite scan skipped = %d, want 0", s.Skipped())
	}
}

func TestScanMissingInputYieldsNothing(t *testing.T) {
	s := scan.NewScanner(filepath.Join(t.TempDir(), "missing"), t.TempDir(), ".m4a", false, nil)
	if items := collect(t, s); len(items) != 0 {
		t.Fatalf("expected no items for missing input root, got %d", len(items))
	}
}

func TestScanOrderIsDeterministic(t *testing.T) {
	inputDir := t.TempDir()
	outputDir := t.TempDir()
	for _, name := range []string{"c.flac", "a.flac", "b.flac"} {
		touch(t, filepath.Join(inputDir, name))
	}

	s := scan.NewScanner(inputDir, outputDir, ".m4a", false, nil)
	first := collect(t, s)
	second := collect(t, s)

	if !slices.Equal(first, second) {
		t.Fatalf("scan order not stable across runs: %v vs %v", first, second)
	}
	var names []string
	for _, item := range first {
		names = append(names, filepath.Base(item.Source))
	}
	if !slices.IsSorted(names) {
		t.Fatalf("expected lexical walk order, got %v", names)
	}
}
