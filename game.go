package onbeat

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sync"
	"time"

	"github.com/cbegin/onbeat-go/internal/analysis"
	"github.com/cbegin/onbeat-go/internal/beat"
	"github.com/cbegin/onbeat-go/internal/board"
	"github.com/cbegin/onbeat-go/internal/config"
	"github.com/cbegin/onbeat-go/internal/event"
	"github.com/cbegin/onbeat-go/internal/scene"
	"github.com/cbegin/onbeat-go/internal/timer"
)

// RhythmSceneName is the registry key of the rhythm scene.
const RhythmSceneName = "Rhythm Scene"

var (
	ErrNoTrack      = errors.New("no track loaded")
	ErrSceneRunning = errors.New("a rhythm scene is already running")
)

// Playback plays the loaded track alongside the scene. The scene never
// controls playback timing; it only assumes both start together.
type Playback interface {
	Play()
	Pause()
	Resume()
	Stop() error
}

// volumeSetter is implemented by playbacks with a volume control.
type volumeSetter interface {
	SetVolume(float64)
}

// PlaybackFactory creates the playback for a freshly loaded track.
type PlaybackFactory func(*analysis.Track) (Playback, error)

type GameOption func(*gameConfig)

type gameConfig struct {
	clock    timer.Clock
	playback PlaybackFactory
	params   analysis.Params
	scene    scene.Options
	board    board.Config
	volume   float64
}

func defaultGameConfig() gameConfig {
	return gameConfig{
		params: analysis.DefaultParams(),
		scene:  scene.DefaultOptions(),
		board:  board.DefaultConfig(),
		volume: 1,
	}
}

// WithClock replaces the system clock, e.g. with a timer.ManualClock.
func WithClock(c timer.Clock) GameOption {
	return func(cfg *gameConfig) {
		cfg.clock = c
	}
}

// WithPlayback installs the audio backend. Without one the game runs silent.
func WithPlayback(f PlaybackFactory) GameOption {
	return func(cfg *gameConfig) {
		cfg.playback = f
	}
}

func WithAnalysisParams(p analysis.Params) GameOption {
	return func(cfg *gameConfig) {
		cfg.params = p
	}
}

// WithTiming sets the lead-in added to every blit interval and the skew of
// the on-time offset modulus, both in milliseconds.
func WithTiming(leadInMs, skewMs int64) GameOption {
	return func(cfg *gameConfig) {
		cfg.scene.LeadInMs = leadInMs
		cfg.scene.SkewMs = skewMs
	}
}

func WithBoard(c board.Config) GameOption {
	return func(cfg *gameConfig) {
		cfg.board = c
	}
}

// WithSettings applies a settings file: analysis, timing, volume and a board
// sized to the display.
func WithSettings(s config.Settings) GameOption {
	return func(cfg *gameConfig) {
		cfg.params = analysis.Params{
			FrameSize:     s.Analysis.FrameSize,
			SampleRate:    s.Analysis.SampleRate,
			Sensitivity:   s.Analysis.Sensitivity,
			HistoryFrames: s.Analysis.HistoryFrames,
		}
		cfg.scene.LeadInMs = s.Timing.LeadInMs
		cfg.scene.SkewMs = s.Timing.SkewMs
		h := float64(s.Display.Height)
		cfg.board = board.Config{
			ZoneY:      math.Round(h * 0.8),
			Height:     h,
			HitWindow:  math.Round(h / 15),
			TravelTime: time.Duration(s.Timing.TravelTimeMs) * time.Millisecond,
		}
		cfg.volume = s.Volume
	}
}

// Game wires analysis, the rhythm scene, the event queue and the board into
// a single frame-driven loop. Front ends call Frame once per rendered frame.
//
// Game is driven from one goroutine; the mutex only guards against a front
// end touching it from an input callback.
type Game struct {
	mu       sync.Mutex
	cfg      gameConfig
	scenes   *scene.Registry
	queue    *event.Queue
	board    *board.Board
	motion   *timer.Timer
	lastMove time.Duration

	track    *analysis.Track
	series   beat.Series
	loaded   bool
	rhythm   *scene.Rhythm
	playback Playback
	paused   bool
	// sceneDone is set once the rhythm scene finished; the round lasts
	// until its remaining markers are hit or fall off the board.
	sceneDone bool
}

func NewGame(opts ...GameOption) (*Game, error) {
	cfg := defaultGameConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := cfg.params.Validate(); err != nil {
		return nil, err
	}
	if cfg.volume < 0 {
		cfg.volume = 0
	}
	cfg.scene.Clock = cfg.clock
	return &Game{
		cfg:    cfg,
		scenes: scene.NewRegistry(),
		queue:  event.NewQueue(),
		board:  board.New(cfg.board),
		motion: timer.New(cfg.clock),
	}, nil
}

// LoadFile decodes and analyses a WAV file.
func (g *Game) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := g.LoadWAV(f); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

func (g *Game) LoadWAV(r io.Reader) error {
	t, err := analysis.Decode(r)
	if err != nil {
		return err
	}
	return g.LoadTrack(t)
}

// LoadTrack analyses t and keeps it for the next Start. Loading while a scene
// runs is refused.
func (g *Game) LoadTrack(t *analysis.Track) error {
	series, err := analysis.Analyze(t, g.cfg.params)
	if err != nil {
		return err
	}
	Logger().Debug("track decoded", "sample_rate", t.SampleRate, "duration", t.Duration())
	return g.load(t, series)
}

// LoadSeries loads an already analysed series. Nothing is played alongside it.
func (g *Game) LoadSeries(series beat.Series) error {
	if series.FrameDuration <= 0 {
		return errors.New("series frame duration must be positive")
	}
	return g.load(nil, series)
}

func (g *Game) load(t *analysis.Track, series beat.Series) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.rhythm != nil {
		return ErrSceneRunning
	}
	g.track = t
	g.series = series
	g.loaded = true

	th := beat.Thresholds(series)
	Logger().Info("series loaded",
		"duration", series.Duration(),
		"frames", series.Len(),
		"beats", series.BeatCount(),
		"threshold1", th[beat.Channel1],
		"threshold2", th[beat.Channel2])
	for c, v := range th {
		if math.IsInf(v, 1) {
			Logger().Warn("channel has no beats; every blit will be weak", "channel", c+1)
		}
	}
	return nil
}

// Series returns the analysed beat series of the loaded track.
func (g *Game) Series() beat.Series {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.series
}

// Start creates the rhythm scene for the loaded track, starts its timer and
// starts playback right after so both run in near lockstep.
func (g *Game) Start() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.loaded {
		return ErrNoTrack
	}
	if g.rhythm != nil {
		return ErrSceneRunning
	}

	var pb Playback
	if g.cfg.playback != nil && g.track != nil {
		p, err := g.cfg.playback(g.track)
		if err != nil {
			return fmt.Errorf("create playback: %w", err)
		}
		if vs, ok := p.(volumeSetter); ok {
			vs.SetVolume(g.cfg.volume)
		}
		pb = p
	}

	opts := g.cfg.scene
	opts.Logger = Logger()
	r := scene.NewRhythm(RhythmSceneName, g.series, g.queue, opts)
	g.rhythm = r
	g.scenes.Insert(r)
	g.board.Reset(r.Thresholds())
	g.paused = false
	g.sceneDone = false

	r.StartScene()
	g.motion.Start()
	g.lastMove = 0
	if pb != nil {
		pb.Play()
	}
	g.playback = pb
	return nil
}

// Frame runs one frame: markers move by the time since the last frame, every
// running scene ticks, and the events they posted are applied. The events are
// returned for the caller to react to.
//
// A finished scene leaves the registry at once, but the round, its marker
// motion and its playback go on until the board has no markers left.
func (g *Game) Frame() []event.Event {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.motion.Elapsed()
	if dt := now - g.lastMove; dt > 0 {
		g.board.Advance(float64(dt) / float64(time.Millisecond))
	}
	g.lastMove = now

	g.scenes.Frame()
	events := g.queue.Drain()
	for _, ev := range events {
		g.board.Apply(ev)
		if ev.Kind != event.KindSceneFinished {
			continue
		}
		g.scenes.Remove(ev.Scene)
		if g.rhythm != nil && g.rhythm.Name() == ev.Scene {
			g.sceneDone = true
		}
	}
	if g.sceneDone && g.board.Done() {
		if err := g.endRound(); err != nil {
			Logger().Warn("stop playback", "err", err)
		}
	}
	return events
}

// endRound tears the round down and stops its playback.
func (g *Game) endRound() error {
	if g.rhythm != nil {
		g.scenes.Remove(g.rhythm.Name())
	}
	g.rhythm = nil
	g.sceneDone = false
	g.motion.Stop()
	g.lastMove = 0
	g.paused = false
	pb := g.playback
	g.playback = nil
	if pb != nil {
		return pb.Stop()
	}
	return nil
}

// Pause freezes the scene timer, marker motion and playback.
func (g *Game) Pause() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.pauseLocked()
}

func (g *Game) pauseLocked() {
	if g.rhythm == nil || g.paused {
		return
	}
	g.paused = true
	g.rhythm.Pause()
	g.motion.Pause()
	if g.playback != nil {
		g.playback.Pause()
	}
}

func (g *Game) Resume() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.resumeLocked()
}

func (g *Game) resumeLocked() {
	if g.rhythm == nil || !g.paused {
		return
	}
	g.paused = false
	g.rhythm.Resume()
	g.motion.Unpause()
	if g.playback != nil {
		g.playback.Resume()
	}
}

// SetVolume sets the playback volume, 0 (mute) to 1, for this and later
// tracks.
func (g *Game) SetVolume(v float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cfg.volume = min(max(v, 0), 1)
	if vs, ok := g.playback.(volumeSetter); ok {
		vs.SetVolume(g.cfg.volume)
	}
}

// TogglePause flips between Pause and Resume and reports the new state.
func (g *Game) TogglePause() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.paused {
		g.resumeLocked()
	} else {
		g.pauseLocked()
	}
	return g.paused
}

func (g *Game) Paused() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.paused
}

// Running reports whether a round is in progress: the rhythm scene is still
// posting beats or its last markers are still on the board.
func (g *Game) Running() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rhythm != nil
}

// Progress returns the processed and total beat frames of the active scene.
func (g *Game) Progress() (int, int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.rhythm == nil {
		return 0, 0
	}
	return g.rhythm.Cursor(), g.rhythm.BeatCount()
}

// Hit judges a key press on col. Presses while paused are ignored.
func (g *Game) Hit(col beat.Column) board.Judgement {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.rhythm == nil || g.paused {
		return board.Miss
	}
	return g.board.Hit(col)
}

// Markers snapshots the board for drawing.
func (g *Game) Markers() []board.Marker {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.board.Markers()
}

func (g *Game) Stats() board.Stats {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.board.Stats()
}

// BoardConfig is the playfield geometry in use.
func (g *Game) BoardConfig() board.Config { return g.cfg.board }

// Stop ends the round early: the scene is dropped, playback stops and the
// remaining markers are cleared without being scored.
func (g *Game) Stop() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.rhythm == nil {
		return nil
	}
	g.queue.Drain()
	g.board.Clear()
	return g.endRound()
}
