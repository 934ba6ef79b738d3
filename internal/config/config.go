package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Settings is the user settings file.
type Settings struct {
	Display    Display  `yaml:"display"`
	Fullscreen bool     `yaml:"fullscreen"`
	Volume     float64  `yaml:"volume"`
	// FPS caps the frame rate. 0 leaves frames unpaced: the window follows
	// the display refresh and the terminal loop runs as fast as it can.
	FPS        int      `yaml:"fps"`
	Input      Input    `yaml:"input"`
	Analysis   Analysis `yaml:"analysis"`
	Timing     Timing   `yaml:"timing"`
	LogLevel   string   `yaml:"log_level"`
}

type Display struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// Input binds one key name to each marker column and one to pause.
// Q and R are reserved for quit and restart in the pause menu.
type Input struct {
	Column1 string `yaml:"column1"`
	Column2 string `yaml:"column2"`
	Column3 string `yaml:"column3"`
	Column4 string `yaml:"column4"`
	Pause   string `yaml:"pause"`
}

type Analysis struct {
	FrameSize     int     `yaml:"frame_size"`
	SampleRate    int     `yaml:"sample_rate"`
	Sensitivity   float64 `yaml:"sensitivity"`
	HistoryFrames int     `yaml:"history_frames"`
}

type Timing struct {
	LeadInMs     int64 `yaml:"lead_in_ms"`
	SkewMs       int64 `yaml:"skew_ms"`
	TravelTimeMs int64 `yaml:"travel_time_ms"`
}

func Default() Settings {
	return Settings{
		Display:  Display{Width: 1280, Height: 720},
		Volume:   1,
		FPS:      60,
		Input:    Input{Column1: "D", Column2: "F", Column3: "J", Column4: "K", Pause: "Escape"},
		Analysis: Analysis{FrameSize: 1024, SampleRate: 44100, Sensitivity: 1.3, HistoryFrames: 43},
		Timing:   Timing{LeadInMs: 50, SkewMs: 50, TravelTimeMs: 1000},
		LogLevel: "info",
	}
}

// Load reads settings from path. Keys missing from the file keep their
// default values.
func Load(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, err
	}
	return Parse(data)
}

// Parse decodes YAML settings over the defaults and validates the result.
func Parse(data []byte) (Settings, error) {
	s := Default()
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Settings{}, fmt.Errorf("parse settings: %w", err)
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Save writes s to path as YAML.
func (s Settings) Save(path string) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func (s Settings) Validate() error {
	var errs []error
	if s.Display.Width <= 0 || s.Display.Height <= 0 {
		errs = append(errs, fmt.Errorf("display %dx%d must be positive", s.Display.Width, s.Display.Height))
	}
	if s.Volume < 0 || s.Volume > 1 {
		errs = append(errs, fmt.Errorf("volume %.2f outside [0, 1]", s.Volume))
	}
	if s.FPS < 0 {
		errs = append(errs, errors.New("fps must not be negative"))
	}
	if s.Timing.LeadInMs < 0 || s.Timing.SkewMs < 0 {
		errs = append(errs, errors.New("timing offsets must not be negative"))
	}
	if s.Timing.TravelTimeMs <= 0 {
		errs = append(errs, errors.New("travel time must be positive"))
	}
	seen := make(map[string]string)
	bind := func(name, k string) {
		if strings.TrimSpace(k) == "" {
			errs = append(errs, fmt.Errorf("no key bound to %s", name))
			return
		}
		key := strings.ToUpper(k)
		if _, ok := reservedKeys[key]; ok {
			errs = append(errs, fmt.Errorf("key %q for %s is reserved", k, name))
		}
		if other, ok := seen[key]; ok {
			errs = append(errs, fmt.Errorf("key %q bound to both %s and %s", k, other, name))
		}
		seen[key] = name
	}
	for i, k := range s.Keys() {
		bind(fmt.Sprintf("column%d", i+1), k)
	}
	bind("pause", s.Input.Pause)
	if _, err := parseLevel(s.LogLevel); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

var reservedKeys = map[string]struct{}{"Q": {}, "R": {}}

// Unpaced reports whether frames run without a rate cap.
func (s Settings) Unpaced() bool { return s.FPS <= 0 }

// Keys lists the column bindings in column order.
func (s Settings) Keys() [4]string {
	return [4]string{s.Input.Column1, s.Input.Column2, s.Input.Column3, s.Input.Column4}
}

// SlogLevel maps LogLevel onto slog. Unknown names fall back to info.
func (s Settings) SlogLevel() slog.Level {
	l, err := parseLevel(s.LogLevel)
	if err != nil {
		return slog.LevelInfo
	}
	return l
}

func parseLevel(name string) (slog.Level, error) {
	var l slog.Level
	if strings.TrimSpace(name) == "" {
		return slog.LevelInfo, nil
	}
	if err := l.UnmarshalText([]byte(name)); err != nil {
		return 0, fmt.Errorf("log level %q: %w", name, err)
	}
	return l, nil
}
