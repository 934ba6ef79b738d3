package onbeat

import (
	"errors"
	"testing"
	"time"

	"github.com/cbegin/onbeat-go/internal/analysis"
	"github.com/cbegin/onbeat-go/internal/beat"
	"github.com/cbegin/onbeat-go/internal/board"
	"github.com/cbegin/onbeat-go/internal/event"
	"github.com/cbegin/onbeat-go/internal/timer"
)

type fakePlayback struct {
	played, paused, resumed, stopped int
	volume                           float64
}

func (p *fakePlayback) Play()               { p.played++ }
func (p *fakePlayback) Pause()              { p.paused++ }
func (p *fakePlayback) Resume()             { p.resumed++ }
func (p *fakePlayback) Stop() error         { p.stopped++; return nil }
func (p *fakePlayback) SetVolume(v float64) { p.volume = v }

// testSeries has a 450ms frame, so with the default lead-in a beat is due
// every 500ms. Frame 1 is silent on channel 1. Thresholds are 3 and 2.5.
func testSeries(t *testing.T) beat.Series {
	t.Helper()
	s, err := beat.NewSeries([]float64{2, 0, 3, 4}, []float64{2, 2, 5, 1}, 450*time.Millisecond)
	if err != nil {
		t.Fatalf("new series: %v", err)
	}
	return s
}

func newTestGame(t *testing.T, opts ...GameOption) (*Game, *timer.ManualClock) {
	t.Helper()
	clock := timer.NewManualClock(time.Unix(100, 0))
	g, err := NewGame(append([]GameOption{WithClock(clock)}, opts...)...)
	if err != nil {
		t.Fatalf("new game: %v", err)
	}
	return g, clock
}

func step(g *Game, clock *timer.ManualClock, d time.Duration) []event.Event {
	clock.Advance(d)
	return g.Frame()
}

func TestGameStartWithoutTrack(t *testing.T) {
	g, _ := newTestGame(t)
	if err := g.Start(); !errors.Is(err, ErrNoTrack) {
		t.Fatalf("start = %v, want ErrNoTrack", err)
	}
}

func TestGameRunsSeriesToFinish(t *testing.T) {
	g, clock := newTestGame(t)
	if err := g.LoadSeries(testSeries(t)); err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := g.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := g.Start(); !errors.Is(err, ErrSceneRunning) {
		t.Fatalf("second start = %v, want ErrSceneRunning", err)
	}

	var blits []int
	finished := 0
	for i := 0; i < 100 && g.Running(); i++ {
		for _, ev := range step(g, clock, 100*time.Millisecond) {
			switch ev.Kind {
			case event.KindNewBlit:
				blits = append(blits, ev.Blit.Beat)
			case event.KindSceneFinished:
				finished++
			}
		}
	}
	if g.Running() {
		t.Fatalf("scene still running")
	}
	if finished != 1 {
		t.Fatalf("scene finished %d times, want 1", finished)
	}
	want := []int{0, 2, 3}
	if len(blits) != len(want) {
		t.Fatalf("blits = %v, want %v", blits, want)
	}
	for i := range want {
		if blits[i] != want[i] {
			t.Fatalf("blits = %v, want %v", blits, want)
		}
	}
	// Nothing was pressed, so every marker fell off and counts as a miss.
	if st := g.Stats(); st.Misses != 2*len(want) || st.Hits != 0 {
		t.Fatalf("stats = %+v, want %d misses", st, 2*len(want))
	}
	if n := len(g.Markers()); n != 0 {
		t.Fatalf("markers after the round = %d, want 0", n)
	}
	if err := g.Start(); err != nil {
		t.Fatalf("restart after finish: %v", err)
	}
}

func TestGameLastBeatCanBeHitAfterSceneFinishes(t *testing.T) {
	pb := &fakePlayback{}
	g, clock := newTestGame(t, WithPlayback(func(*analysis.Track) (Playback, error) { return pb, nil }))
	if err := g.LoadTrack(ClickTrack(44100, time.Second, 120, 4)); err != nil {
		t.Fatalf("load track: %v", err)
	}
	// Replace the analysed series with two beats; the track only feeds playback.
	series, err := beat.NewSeries([]float64{2, 3}, []float64{2, 5}, 450*time.Millisecond)
	if err != nil {
		t.Fatalf("series: %v", err)
	}
	g.series = series
	if err := g.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}

	step(g, clock, 500*time.Millisecond)
	step(g, clock, 500*time.Millisecond) // beat 1 posted at y=252
	evs := step(g, clock, 16*time.Millisecond)
	if len(evs) != 1 || evs[0].Kind != event.KindSceneFinished {
		t.Fatalf("events = %+v, want SceneFinished", evs)
	}
	if !g.Running() || pb.stopped != 0 {
		t.Fatalf("round ended with markers still falling: running=%v stopped=%d", g.Running(), pb.stopped)
	}
	if n := len(g.Markers()); n != 4 {
		t.Fatalf("markers after scene finish = %d, want 4", n)
	}

	// Beat 1 reaches the zone 550ms after it was posted; beat 0 has fallen off.
	step(g, clock, 534*time.Millisecond)
	if got := g.Hit(beat.Column2); got != board.Perfect {
		t.Fatalf("hit on last beat = %v, want Perfect", got)
	}
	if got := g.Hit(beat.Column4); got != board.Perfect {
		t.Fatalf("hit on last beat = %v, want Perfect", got)
	}

	step(g, clock, 16*time.Millisecond)
	if g.Running() {
		t.Fatalf("round should end once the board is empty")
	}
	if pb.stopped != 1 {
		t.Fatalf("playback stopped %d times, want 1", pb.stopped)
	}
	st := g.Stats()
	if st.Hits != 2 || st.Misses != 2 || st.Score != 2*board.PointsPerfect {
		t.Fatalf("stats = %+v, want 2 hits and 2 misses", st)
	}
}

func TestGameTogglePauseFlipsOnce(t *testing.T) {
	pb := &fakePlayback{}
	g, _ := newTestGame(t, WithPlayback(func(*analysis.Track) (Playback, error) { return pb, nil }))
	if err := g.LoadTrack(ClickTrack(44100, time.Second, 120, 4)); err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := g.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}

	done := make(chan bool)
	for i := 0; i < 4; i++ {
		go func() { done <- g.TogglePause() }()
	}
	paused := 0
	for i := 0; i < 4; i++ {
		if <-done {
			paused++
		}
	}
	// Four atomic toggles alternate, so exactly two observe a paused game.
	if paused != 2 || g.Paused() {
		t.Fatalf("paused results = %d, final paused = %v; want 2, false", paused, g.Paused())
	}
	if pb.paused != 2 || pb.resumed != 2 {
		t.Fatalf("pause/resume = %d/%d, want 2/2", pb.paused, pb.resumed)
	}
}

func TestGameMarkersFallAndCanBeHit(t *testing.T) {
	g, clock := newTestGame(t)
	if err := g.LoadSeries(testSeries(t)); err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := g.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	for i := 0; i < 5; i++ {
		step(g, clock, 100*time.Millisecond)
	}
	m := g.Markers()
	if len(m) != 2 {
		t.Fatalf("markers = %+v, want two for beat 0", m)
	}
	// Both strengths sit under their channel thresholds.
	if m[0].Column != beat.Column1 || m[1].Column != beat.Column3 {
		t.Fatalf("columns = %v, %v; want Column1, Column3", m[0].Column, m[1].Column)
	}

	for i := 0; i < 5; i++ {
		step(g, clock, 100*time.Millisecond)
	}
	if got := g.Hit(beat.Column1); got != board.Perfect {
		t.Fatalf("hit = %v, want Perfect", got)
	}
	if got := g.Hit(beat.Column2); got != board.Miss {
		t.Fatalf("hit on empty column = %v, want Miss", got)
	}
	st := g.Stats()
	if st.Score != board.PointsPerfect || st.Hits != 1 || st.Misses != 1 || st.Combo != 0 {
		t.Fatalf("stats = %+v", st)
	}
}

func TestGamePauseFreezesScene(t *testing.T) {
	g, clock := newTestGame(t)
	if err := g.LoadSeries(testSeries(t)); err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := g.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	step(g, clock, 500*time.Millisecond)
	before := g.Markers()
	if len(before) == 0 {
		t.Fatalf("no markers after the first beat")
	}

	if !g.TogglePause() {
		t.Fatalf("toggle should pause")
	}
	if evs := step(g, clock, 3*time.Second); len(evs) != 0 {
		t.Fatalf("events while paused = %v", evs)
	}
	if got := g.Markers(); got[0].Y != before[0].Y {
		t.Fatalf("marker moved while paused: %v -> %v", before[0].Y, got[0].Y)
	}
	if g.Hit(beat.Column1) != board.Miss || g.Stats().Misses != 0 {
		t.Fatalf("presses while paused must be ignored")
	}

	if g.TogglePause() {
		t.Fatalf("toggle should resume")
	}
	step(g, clock, 100*time.Millisecond)
	if got := g.Markers(); got[0].Y <= before[0].Y {
		t.Fatalf("marker did not move after resume")
	}
	if cur, total := g.Progress(); cur != 1 || total != 4 {
		t.Fatalf("progress = %d/%d, want 1/4", cur, total)
	}
}

func TestGameDrivesPlayback(t *testing.T) {
	pb := &fakePlayback{}
	var got *analysis.Track
	g, clock := newTestGame(t, WithPlayback(func(tr *analysis.Track) (Playback, error) {
		got = tr
		return pb, nil
	}))
	track := ClickTrack(44100, 2*time.Second, 120, 4)
	if err := g.LoadTrack(track); err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := g.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	if got != track || pb.played != 1 || pb.volume != 1 {
		t.Fatalf("playback not started with the track: %+v", pb)
	}

	g.Pause()
	g.Pause()
	g.Resume()
	if pb.paused != 1 || pb.resumed != 1 {
		t.Fatalf("pause/resume = %d/%d, want 1/1", pb.paused, pb.resumed)
	}

	step(g, clock, time.Second)
	if err := g.Stop(); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if pb.stopped != 1 || g.Running() {
		t.Fatalf("stop did not end the scene: %+v running=%v", pb, g.Running())
	}
	if len(g.Markers()) != 0 {
		t.Fatalf("board not cleared on stop")
	}
}

func TestGamePlaybackStopsWhenSceneFinishes(t *testing.T) {
	pb := &fakePlayback{}
	g, clock := newTestGame(t, WithPlayback(func(*analysis.Track) (Playback, error) { return pb, nil }))
	if err := g.LoadTrack(ClickTrack(44100, time.Second, 120, 4)); err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := g.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	for i := 0; i < 2000 && g.Running(); i++ {
		step(g, clock, 16*time.Millisecond)
	}
	if g.Running() {
		t.Fatalf("scene never finished")
	}
	if pb.stopped != 1 {
		t.Fatalf("playback stopped %d times, want 1", pb.stopped)
	}
}

func TestNewGameRejectsBadParams(t *testing.T) {
	p := analysis.DefaultParams()
	p.FrameSize = 1000
	if _, err := NewGame(WithAnalysisParams(p)); err == nil {
		t.Fatalf("expected error for non power-of-two frame size")
	}
}

func TestGameSetVolumeReachesPlayback(t *testing.T) {
	pb := &fakePlayback{}
	g, _ := newTestGame(t, WithPlayback(func(*analysis.Track) (Playback, error) { return pb, nil }))
	g.SetVolume(0.4)
	if err := g.LoadTrack(ClickTrack(44100, time.Second, 120, 4)); err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := g.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	if pb.volume != 0.4 {
		t.Fatalf("volume at start = %v, want 0.4", pb.volume)
	}
	g.SetVolume(3)
	if pb.volume != 1 {
		t.Fatalf("volume = %v, want clamp to 1", pb.volume)
	}
}
