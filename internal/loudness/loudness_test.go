package loudness

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"go.senan.xyz/taglib"

	"repress/internal/services/ffmpeg"
)

type stubMeasurer struct {
	perFile map[string]ffmpeg.LoudnessSummary
	album   ffmpeg.LoudnessSummary

	albumErr error
	failFile string
}

func (s *stubMeasurer) MeasureLoudness(_ context.Context, paths []string) (ffmpeg.LoudnessSummary, error) {
	if len(paths) > 1 {
		return s.album, s.albumErr
	}
	if paths[0] == s.failFile {
		return ffmpeg.LoudnessSummary{}, errors.New("decode error")
	}
	return s.perFile[paths[0]], nil
}

type tagWrite struct {
	path string
	tags map[string][]string
}

func newTestTagger(m Measurer, opts Options) (*Tagger, *[]tagWrite) {
	tagger := NewTagger(m, opts, nil)
	writes := &[]tagWrite{}
	tagger.writeTags = func(path string, tags map[string][]string, _ taglib.WriteOption) error {
		*writes = append(*writes, tagWrite{path: path, tags: tags})
		return nil
	}
	return tagger, writes
}

func TestProcessAlbumWritesReplayGain(t *testing.T) {
	measurer := &stubMeasurer{
		perFile: map[string]ffmpeg.LoudnessSummary{
			"/out/01.m4a": {IntegratedLUFS: -9.8, TruePeakDB: -0.2},
			"/out/02.m4a": {IntegratedLUFS: -12.4, TruePeakDB: -1.0},
		},
		album: ffmpeg.LoudnessSummary{IntegratedLUFS: -10.5, TruePeakDB: -0.2},
	}
	tagger, writes := newTestTagger(measurer, Options{
		ReplayGain:        true,
		ReferenceLoudness: -18.0,
	})

	result, err := tagger.ProcessAlbum(t.Context(), []string{"/out/01.m4a", "/out/02.m4a"})
	if err != nil {
		t.Fatalf("ProcessAlbum: %v", err)
	}
	if result.TracksTagged != 2 || result.Failures != 0 {
		t.Fatalf("result = %+v", result)
	}

	first := (*writes)[0]
	if first.path != "/out/01.m4a" {
		t.Fatalf("first write path = %q", first.path)
	}
	// Gain is reference minus integrated: -18.0 - (-9.8) = -8.2 dB.
	if got := first.tags["REPLAYGAIN_TRACK_GAIN"][0]; got != "-8.20 dB" {
		t.Errorf("track gain = %q", got)
	}
	if got := first.tags["REPLAYGAIN_ALBUM_GAIN"][0]; got != "-7.50 dB" {
		t.Errorf("album gain = %q", got)
	}
	// -0.2 dBTP in linear terms.
	wantPeak := math.Pow(10, -0.2/20)
	if got := first.tags["REPLAYGAIN_TRACK_PEAK"][0]; !strings.HasPrefix(got, "0.977") {
		t.Errorf("track peak = %q, want ~%.6f", got, wantPeak)
	}
	if _, ok := first.tags["ITUNNORM"]; ok {
		t.Error("SoundCheck tag written while disabled")
	}
}

func TestProcessAlbumWritesSoundCheck(t *testing.T) {
	measurer := &stubMeasurer{
		perFile: map[string]ffmpeg.LoudnessSummary{
			// Integrated matches the reference, so gain is 0 dB.
			"/out/01.m4a": {IntegratedLUFS: -18.0, TruePeakDB: -3.0},
		},
		album: ffmpeg.LoudnessSummary{IntegratedLUFS: -18.0, TruePeakDB: -3.0},
	}
	tagger, writes := newTestTagger(measurer, Options{
		SoundCheck:        true,
		ReferenceLoudness: -18.0,
	})

	result, err := tagger.ProcessAlbum(t.Context(), []string{"/out/01.m4a"})
	if err != nil {
		t.Fatal(err)
	}
	if result.TracksTagged != 1 {
		t.Fatalf("result = %+v", result)
	}

	tags := (*writes)[0].tags
	if got := tags["ITUNNORM"][0]; !strings.HasPrefix(got, "000003E8 ") {
		t.Errorf("iTunNORM = %q", got)
	}
	if _, ok := tags["REPLAYGAIN_TRACK_GAIN"]; ok {
		t.Error("ReplayGain tag written while disabled")
	}
}

func TestProcessAlbumTrackFailureIsNotFatal(t *testing.T) {
	measurer := &stubMeasurer{
		perFile: map[string]ffmpeg.LoudnessSummary{
			"/out/01.m4a": {IntegratedLUFS: -11.0},
		},
		album:    ffmpeg.LoudnessSummary{IntegratedLUFS: -11.0},
		failFile: "/out/02.m4a",
	}
	tagger, _ := newTestTagger(measurer, Options{ReplayGain: true, ReferenceLoudness: -18.0})

	result, err := tagger.ProcessAlbum(t.Context(), []string{"/out/01.m4a", "/out/02.m4a"})
	if err != nil {
		t.Fatal(err)
	}
	if result.TracksTagged != 1 || result.Failures != 1 {
		t.Fatalf("result = %+v", result)
	}
}

func TestProcessAlbumMeasurementFailure(t *testing.T) {
	measurer := &stubMeasurer{albumErr: errors.New("concat failed")}
	tagger, _ := newTestTagger(measurer, Options{ReplayGain: true, ReferenceLoudness: -18.0})

	if _, err := tagger.ProcessAlbum(t.Context(), []string{"/out/01.m4a", "/out/02.m4a"}); err == nil {
		t.Fatal("expected error when album measurement fails")
	}
}

func TestProcessAlbumDisabled(t *testing.T) {
	tagger, writes := newTestTagger(&stubMeasurer{}, Options{})
	result, err := tagger.ProcessAlbum(t.Context(), []string{"/out/01.m4a"})
	if err != nil {
		t.Fatal(err)
	}
	if result.TracksTagged != 0 || len(*writes) != 0 {
		t.Fatal("disabled tagger should do nothing")
	}
	if tagger.Enabled() {
		t.Fatal("Enabled() should be false with no tag families selected")
	}
}

func TestLinearPeak(t *testing.T) {
	if got := linearPeak(0); math.Abs(got-1.0) > 1e-9 {
		t.Errorf("linearPeak(0) = %v", got)
	}
	if got := linearPeak(-6.0); math.Abs(got-0.501187) > 1e-5 {
		t.Errorf("linearPeak(-6) = %v", got)
	}
}
