package config

import (
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default settings invalid: %v", err)
	}
}

func TestParseOverridesDefaults(t *testing.T) {
	s, err := Parse([]byte(`
display:
  width: 800
  height: 600
volume: 0.5
input:
  column1: A
analysis:
  sensitivity: 1.5
log_level: debug
`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if s.Display.Width != 800 || s.Display.Height != 600 {
		t.Fatalf("display = %+v", s.Display)
	}
	if s.Volume != 0.5 {
		t.Fatalf("volume = %v, want 0.5", s.Volume)
	}
	if s.Keys() != [4]string{"A", "F", "J", "K"} {
		t.Fatalf("keys = %v", s.Keys())
	}
	if s.Analysis.Sensitivity != 1.5 || s.Analysis.FrameSize != 1024 {
		t.Fatalf("analysis = %+v", s.Analysis)
	}
	if s.SlogLevel() != slog.LevelDebug {
		t.Fatalf("level = %v, want debug", s.SlogLevel())
	}
}

func TestParseRejectsInvalidSettings(t *testing.T) {
	cases := []struct {
		name string
		yaml string
		want string
	}{
		{"volume", "volume: 2", "volume"},
		{"duplicate key", "input: {column1: D, column2: d}", "bound to both"},
		{"missing key", "input: {column3: ''}", "column3"},
		{"log level", "log_level: loud", "log level"},
		{"travel", "timing: {travel_time_ms: 0}", "travel time"},
		{"syntax", "display: [", "parse settings"},
		{"pause on a column", "input: {pause: f}", "bound to both"},
		{"missing pause", "input: {pause: ''}", "pause"},
		{"reserved quit", "input: {column1: q}", "reserved"},
		{"reserved restart", "input: {column4: R}", "reserved"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.yaml))
			if err == nil {
				t.Fatalf("expected error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("error %q does not mention %q", err, tc.want)
			}
		})
	}
}

func TestZeroFPSIsUnpaced(t *testing.T) {
	s, err := Parse([]byte("fps: 0"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !s.Unpaced() {
		t.Fatalf("fps 0 should be unpaced")
	}
	if Default().Unpaced() {
		t.Fatalf("default settings should be paced")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	s := Default()
	s.Fullscreen = true
	s.Input.Column4 = "L"
	if err := s.Save(path); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got != s {
		t.Fatalf("loaded %+v, want %+v", got, s)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
