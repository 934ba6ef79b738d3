package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/gdamore/tcell/v2"

	"github.com/cbegin/onbeat-go"
	"github.com/cbegin/onbeat-go/internal/analysis"
	"github.com/cbegin/onbeat-go/internal/audio"
	"github.com/cbegin/onbeat-go/internal/beat"
	"github.com/cbegin/onbeat-go/internal/board"
	"github.com/cbegin/onbeat-go/internal/config"
	"github.com/cbegin/onbeat-go/internal/timer"
)

const (
	laneW          = 7
	judgementTicks = 30
)

var (
	columnStyles = [beat.NumColumns]tcell.Style{
		tcell.StyleDefault.Foreground(tcell.ColorLightSkyBlue),
		tcell.StyleDefault.Foreground(tcell.ColorDodgerBlue),
		tcell.StyleDefault.Foreground(tcell.ColorLightSalmon),
		tcell.StyleDefault.Foreground(tcell.ColorOrangeRed),
	}
	zoneStyle  = tcell.StyleDefault.Foreground(tcell.ColorGold)
	laneStyle  = tcell.StyleDefault.Foreground(tcell.ColorGray)
	textStyle  = tcell.StyleDefault.Foreground(tcell.ColorWhite)
	errorStyle = tcell.StyleDefault.Foreground(tcell.ColorRed)
)

type term struct {
	screen tcell.Screen
	engine *onbeat.Game
	pacer  *timer.Pacer
	keys   map[rune]beat.Column
	pause  pauseKey

	judgement      board.Judgement
	judgementUntil int
	frame          int
	status         string
	done           bool
}

// runeKeys maps single-character key names onto lowercase runes.
func runeKeys(s config.Settings) (map[rune]beat.Column, error) {
	keys := make(map[rune]beat.Column, beat.NumColumns)
	for i, name := range s.Keys() {
		if utf8.RuneCountInString(name) != 1 {
			return nil, fmt.Errorf("column %d key %q: terminal bindings must be a single character", i+1, name)
		}
		r, _ := utf8.DecodeRuneInString(strings.ToLower(name))
		keys[r] = beat.Column(i)
	}
	return keys, nil
}

// pauseKey is either a named special key or a single rune.
type pauseKey struct {
	name string
	key  tcell.Key
	r    rune
}

func parsePauseKey(name string) (pauseKey, error) {
	if strings.EqualFold(name, "Escape") || strings.EqualFold(name, "Esc") {
		return pauseKey{name: "Esc", key: tcell.KeyEscape}, nil
	}
	if utf8.RuneCountInString(name) != 1 {
		return pauseKey{}, fmt.Errorf("pause key %q: terminal bindings must be Escape or a single character", name)
	}
	r, _ := utf8.DecodeRuneInString(strings.ToLower(name))
	return pauseKey{name: string(r), key: tcell.KeyRune, r: r}, nil
}

func (p pauseKey) matches(ev *tcell.EventKey) bool {
	if p.key != tcell.KeyRune {
		return ev.Key() == p.key
	}
	return ev.Key() == tcell.KeyRune && unicode.ToLower(ev.Rune()) == p.r
}

func (t *term) handleEvent(ev tcell.Event) {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		switch {
		case ev.Key() == tcell.KeyCtrlC:
			t.done = true
		case t.pause.matches(ev):
			if t.engine.Running() {
				if t.engine.TogglePause() {
					t.status = fmt.Sprintf("Paused: %s resumes, r restarts, q quits", t.pause.name)
				} else {
					t.status = "Playing"
				}
			}
		case ev.Key() == tcell.KeyRune:
			t.handleRune(unicode.ToLower(ev.Rune()))
		}
	case *tcell.EventResize:
		t.screen.Sync()
	}
}

func (t *term) handleRune(r rune) {
	if t.engine.Paused() || !t.engine.Running() {
		switch r {
		case 'q':
			t.done = true
		case 'r':
			t.restart()
		}
		return
	}
	if col, ok := t.keys[r]; ok {
		t.judgement = t.engine.Hit(col)
		t.judgementUntil = t.frame + judgementTicks
	}
}

func (t *term) restart() {
	if err := t.engine.Stop(); err != nil {
		slog.Warn("stop playback", "err", err)
	}
	if err := t.engine.Start(); err != nil {
		t.status = err.Error()
		return
	}
	t.status = "Playing"
}

func (t *term) run() {
	events := make(chan tcell.Event, 100)
	go func() {
		for {
			ev := t.screen.PollEvent()
			if ev == nil {
				return
			}
			events <- ev
		}
	}()

	for !t.done {
		t.pacer.BeginFrame()
		t.frame++
	drain:
		for {
			select {
			case ev := <-events:
				t.handleEvent(ev)
			default:
				break drain
			}
		}
		wasRunning := t.engine.Running()
		t.engine.Frame()
		if wasRunning && !t.engine.Running() {
			st := t.engine.Stats()
			t.status = fmt.Sprintf("Finished: score %d, max combo %d. r restarts, q quits", st.Score, st.MaxCombo)
		}
		t.draw()
		t.pacer.Wait()
	}
}

func (t *term) draw() {
	t.screen.Clear()
	w, h := t.screen.Size()
	cfg := t.engine.BoardConfig()
	fieldH := h - 3
	if fieldH < 4 || cfg.Height <= 0 {
		t.text(0, 0, "terminal too small", errorStyle)
		t.screen.Show()
		return
	}
	scale := float64(fieldH) / cfg.Height
	x0 := max(0, (w-laneW*beat.NumColumns)/2)

	for c := 0; c < beat.NumColumns; c++ {
		lx := x0 + c*laneW
		for y := 0; y < fieldH; y++ {
			t.screen.SetContent(lx, y, '│', nil, laneStyle)
		}
	}
	zoneY := int(cfg.ZoneY * scale)
	for x := x0; x < x0+laneW*beat.NumColumns; x++ {
		t.screen.SetContent(x, zoneY, '═', nil, zoneStyle)
	}
	for _, m := range t.engine.Markers() {
		y := int(m.Y * scale)
		if y < 0 || y >= fieldH {
			continue
		}
		lx := x0 + int(m.Column)*laneW + 1
		for x := lx; x < lx+laneW-2; x++ {
			t.screen.SetContent(x, y, '█', nil, columnStyles[m.Column])
		}
	}

	st := t.engine.Stats()
	cur, total := t.engine.Progress()
	t.text(0, fieldH, fmt.Sprintf("Score %d  Combo %d  Hits %d  Miss %d  Beat %d/%d",
		st.Score, st.Combo, st.Hits, st.Misses, cur, total), textStyle)
	if t.frame < t.judgementUntil {
		t.text(x0, max(0, zoneY-2), t.judgement.String(), zoneStyle)
	}
	t.text(0, fieldH+1, t.status, textStyle)
	t.screen.Show()
}

func (t *term) text(x, y int, s string, style tcell.Style) {
	for _, r := range s {
		t.screen.SetContent(x, y, r, nil, style)
		x++
	}
}

func main() {
	var (
		configPath = flag.String("config", "", "path to a YAML settings file")
		wavPath    = flag.String("file", "", "WAV file to play")
		demo       = flag.Bool("demo", false, "play a generated click track instead of a file")
		bpm        = flag.Float64("bpm", 120, "tempo of the -demo click track")
		logPath    = flag.String("log", "", "write logs to this file")
	)
	flag.Parse()

	s := config.Default()
	if *configPath != "" {
		var err error
		if s, err = config.Load(*configPath); err != nil {
			log.Fatal(err)
		}
	}

	var logOut io.Writer = io.Discard
	if *logPath != "" {
		f, err := os.Create(*logPath)
		if err != nil {
			log.Fatal(err)
		}
		defer f.Close()
		logOut = f
	}
	logger := slog.New(slog.NewTextHandler(logOut, &slog.HandlerOptions{Level: s.SlogLevel()}))
	slog.SetDefault(logger)
	onbeat.SetLogger(logger)

	keys, err := runeKeys(s)
	if err != nil {
		log.Fatal(err)
	}
	pause, err := parsePauseKey(s.Input.Pause)
	if err != nil {
		log.Fatal(err)
	}
	engine, err := onbeat.NewGame(
		onbeat.WithSettings(s),
		onbeat.WithPlayback(func(t *analysis.Track) (onbeat.Playback, error) {
			return audio.NewSpeakerPlayer(t)
		}),
	)
	if err != nil {
		log.Fatal(err)
	}
	switch {
	case *demo:
		err = engine.LoadTrack(onbeat.ClickTrack(s.Analysis.SampleRate, 30*time.Second, *bpm, 4))
	case *wavPath != "":
		err = engine.LoadFile(*wavPath)
	default:
		err = errors.New("need -file or -demo")
	}
	if err != nil {
		log.Fatal(err)
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		log.Fatal(err)
	}
	if err := screen.Init(); err != nil {
		log.Fatal(err)
	}
	t := &term{
		screen: screen,
		engine: engine,
		pacer:  timer.NewPacer(nil, s.FPS, nil),
		keys:   keys,
		pause:  pause,
	}
	t.restart()
	t.run()

	_ = engine.Stop()
	screen.Fini()
}
