package main

import (
	"errors"
	"flag"
	"fmt"
	"image"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/cbegin/onbeat-go"
	"github.com/cbegin/onbeat-go/internal/analysis"
	"github.com/cbegin/onbeat-go/internal/audio"
	"github.com/cbegin/onbeat-go/internal/beat"
	"github.com/cbegin/onbeat-go/internal/board"
	"github.com/cbegin/onbeat-go/internal/config"
)

const (
	minWindowW = 980
	minWindowH = 600

	// ebiten's audio context runs at one rate; tracks are resampled to it.
	uiSampleRate = 44100

	judgementTicks = 30
)

type navEntry struct {
	name  string
	path  string
	isDir bool
}

type menuItem int

const (
	menuResume menuItem = iota
	menuRestart
	menuQuit
)

var menuLabels = []string{"Resume", "Restart", "Quit"}

type game struct {
	engine   *onbeat.Game
	settings config.Settings
	keys     [beat.NumColumns]ebiten.Key
	pauseKey ebiten.Key

	volume         float64
	draggingVolume bool

	status    string
	statusErr bool

	cwd       string
	nav       []navEntry
	navScroll int

	loadedPath string

	frameTick        int
	lastNavPath      string
	lastNavClickTick int

	menuSel        menuItem
	lastJudgement  board.Judgement
	judgementUntil int
	quit           bool

	textCache map[string]*ebiten.Image
	viewW     int
	viewH     int
}

func newGame(s config.Settings, initialPath string) (*game, error) {
	keys, pauseKey, err := bindKeys(s)
	if err != nil {
		return nil, err
	}
	engine, err := onbeat.NewGame(
		onbeat.WithSettings(s),
		onbeat.WithPlayback(func(t *analysis.Track) (onbeat.Playback, error) {
			rt, err := t.Resample(uiSampleRate)
			if err != nil {
				return nil, err
			}
			return audio.NewTrackPlayer(rt)
		}),
	)
	if err != nil {
		return nil, err
	}

	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	if initialPath != "" {
		cwd = filepath.Dir(initialPath)
	}

	g := &game{
		engine:    engine,
		settings:  s,
		keys:      keys,
		pauseKey:  pauseKey,
		volume:    s.Volume,
		status:    "Select a WAV file, double-click to play",
		cwd:       cwd,
		textCache: make(map[string]*ebiten.Image, 256),
		viewW:     s.Display.Width,
		viewH:     s.Display.Height,
	}
	if err := g.refreshNav(); err != nil {
		g.setError(err.Error())
	}
	if initialPath != "" {
		if err := g.loadFile(initialPath); err != nil {
			return nil, err
		}
		g.restart()
	}
	return g, nil
}

func bindKeys(s config.Settings) ([beat.NumColumns]ebiten.Key, ebiten.Key, error) {
	var keys [beat.NumColumns]ebiten.Key
	for i, name := range s.Keys() {
		if err := keys[i].UnmarshalText([]byte(name)); err != nil {
			return keys, 0, fmt.Errorf("column %d key %q: %w", i+1, name, err)
		}
	}
	var pause ebiten.Key
	if err := pause.UnmarshalText([]byte(s.Input.Pause)); err != nil {
		return keys, 0, fmt.Errorf("pause key %q: %w", s.Input.Pause, err)
	}
	return keys, pause, nil
}

func (g *game) Update() error {
	g.frameTick++
	if g.quit {
		return ebiten.Termination
	}
	if inpututil.IsKeyJustPressed(g.pauseKey) && g.engine.Running() {
		g.engine.TogglePause()
		g.menuSel = menuResume
	}
	if g.engine.Paused() {
		g.handleMenu()
		return nil
	}

	g.handleKeys()
	g.handleMouse()
	wasRunning := g.engine.Running()
	g.engine.Frame()
	if wasRunning && !g.engine.Running() {
		st := g.engine.Stats()
		g.setStatus(fmt.Sprintf("Finished: score %d, max combo %d, %d hits, %d misses",
			st.Score, st.MaxCombo, st.Hits, st.Misses))
	}
	return nil
}

func (g *game) handleKeys() {
	if !g.engine.Running() {
		return
	}
	for i, k := range g.keys {
		if !inpututil.IsKeyJustPressed(k) {
			continue
		}
		g.lastJudgement = g.engine.Hit(beat.Column(i))
		g.judgementUntil = g.frameTick + judgementTicks
	}
}

func (g *game) handleMenu() {
	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeyArrowUp):
		g.menuSel = (g.menuSel + menuItem(len(menuLabels)) - 1) % menuItem(len(menuLabels))
	case inpututil.IsKeyJustPressed(ebiten.KeyArrowDown):
		g.menuSel = (g.menuSel + 1) % menuItem(len(menuLabels))
	case inpututil.IsKeyJustPressed(ebiten.KeyEnter):
		switch g.menuSel {
		case menuResume:
			g.engine.Resume()
		case menuRestart:
			g.restart()
		case menuQuit:
			g.quit = true
		}
	}
}

func (g *game) handleMouse() {
	mx, my := ebiten.CursorPosition()
	l := g.layoutRects()

	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		switch {
		case pointInRect(mx, my, l.play):
			g.togglePlayPause()
			return
		case pointInRect(mx, my, l.volume):
			g.draggingVolume = true
			g.updateVolumeFromMouse(mx, l.volume)
			return
		case pointInRect(mx, my, l.nav):
			g.clickNavigator(my, l.nav)
			return
		}
	}
	if !ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft) {
		g.draggingVolume = false
	}
	if g.draggingVolume {
		g.updateVolumeFromMouse(mx, l.volume)
	}

	_, wy := ebiten.Wheel()
	if wy != 0 && pointInRect(mx, my, l.nav) {
		g.navScroll = max(0, g.navScroll-int(wy*2))
	}
}

func (g *game) Layout(outsideW, outsideH int) (int, int) {
	g.viewW = max(outsideW, minWindowW)
	g.viewH = max(outsideH, minWindowH)
	return g.viewW, g.viewH
}

func (g *game) Close() { _ = g.engine.Stop() }

type uiLayout struct {
	nav, field    image.Rectangle
	play, volume  image.Rectangle
	score, status image.Rectangle
}

func (g *game) layoutRects() uiLayout {
	w, h := g.viewW, g.viewH
	pad := 20
	rowH := 44
	statusH := 40

	statusTop := h - pad - statusH
	controlsTop := statusTop - 8 - rowH
	contentBottom := controlsTop - 12

	navW := 280
	navRect := image.Rect(pad, pad, pad+navW, contentBottom)
	scoreRect := image.Rect(w-pad-260, pad, w-pad, contentBottom)
	fieldRect := image.Rect(navRect.Max.X+12, pad, scoreRect.Min.X-12, contentBottom)

	playRect := image.Rect(pad, controlsTop, pad+130, controlsTop+rowH)
	volRight := min(pad+142+400, w-pad)
	volumeRect := image.Rect(pad+142, controlsTop, volRight, controlsTop+rowH)
	statusRect := image.Rect(pad, statusTop, w-pad, statusTop+statusH)

	return uiLayout{
		nav: navRect, field: fieldRect, score: scoreRect,
		play: playRect, volume: volumeRect, status: statusRect,
	}
}

func (g *game) clickNavigator(my int, rect image.Rectangle) {
	top := rect.Min.Y + 12 + (lineH * 2)
	row := (my - top) / lineH
	if row < 0 {
		return
	}
	idx := g.navScroll + row
	if idx < 0 || idx >= len(g.nav) {
		return
	}
	entry := g.nav[idx]
	if entry.isDir {
		g.cwd = entry.path
		g.navScroll = 0
		if err := g.refreshNav(); err != nil {
			g.setError(err.Error())
			return
		}
		g.setStatus("Directory: " + g.cwd)
		return
	}

	doubleClickSame := samePath(entry.path, g.lastNavPath) && (g.frameTick-g.lastNavClickTick) <= 18
	g.lastNavPath = entry.path
	g.lastNavClickTick = g.frameTick

	if doubleClickSame && samePath(entry.path, g.loadedPath) {
		g.restart()
		return
	}
	if err := g.loadFile(entry.path); err != nil {
		g.setError(err.Error())
		return
	}
	g.setStatus("Loaded " + filepath.Base(entry.path))
}

func (g *game) refreshNav() error {
	items, err := os.ReadDir(g.cwd)
	if err != nil {
		return err
	}
	var dirs, files []navEntry

	parent := filepath.Dir(g.cwd)
	if parent != g.cwd {
		dirs = append(dirs, navEntry{name: "..", path: parent, isDir: true})
	}
	for _, it := range items {
		name := it.Name()
		full := filepath.Join(g.cwd, name)
		if it.IsDir() {
			dirs = append(dirs, navEntry{name: name, path: full, isDir: true})
			continue
		}
		if strings.EqualFold(filepath.Ext(name), ".wav") {
			files = append(files, navEntry{name: name, path: full})
		}
	}

	sort.Slice(dirs, func(i, j int) bool {
		if dirs[i].name == ".." {
			return true
		}
		if dirs[j].name == ".." {
			return false
		}
		return strings.ToLower(dirs[i].name) < strings.ToLower(dirs[j].name)
	})
	sort.Slice(files, func(i, j int) bool {
		return strings.ToLower(files[i].name) < strings.ToLower(files[j].name)
	})
	g.nav = append(dirs, files...)
	return nil
}

func (g *game) loadFile(path string) error {
	if err := g.engine.Stop(); err != nil {
		slog.Warn("stop playback", "err", err)
	}
	if err := g.engine.LoadFile(path); err != nil {
		return err
	}
	g.loadedPath = path
	g.cwd = filepath.Dir(path)
	return g.refreshNav()
}

func (g *game) togglePlayPause() {
	if !g.engine.Running() {
		g.restart()
		return
	}
	if g.engine.TogglePause() {
		g.menuSel = menuResume
		g.setStatus("Paused")
		return
	}
	g.setStatus("Playing")
}

func (g *game) restart() {
	if err := g.engine.Stop(); err != nil {
		slog.Warn("stop playback", "err", err)
	}
	if err := g.engine.Start(); err != nil {
		if errors.Is(err, onbeat.ErrNoTrack) {
			g.setError("No track loaded")
			return
		}
		g.setError(err.Error())
		return
	}
	g.lastJudgement = board.Miss
	g.judgementUntil = 0
	g.setStatus("Playing " + filepath.Base(g.loadedPath))
}

func (g *game) updateVolumeFromMouse(mx int, rect image.Rectangle) {
	trackX := rect.Min.X + 130
	trackW := rect.Dx() - 146
	if trackW <= 0 {
		return
	}
	v := clamp(float64(mx-trackX)/float64(trackW), 0, 1)
	if v == g.volume {
		return
	}
	g.volume = v
	g.engine.SetVolume(v)
}

func (g *game) setError(msg string) {
	g.status = msg
	g.statusErr = true
}

func (g *game) setStatus(msg string) {
	g.status = msg
	g.statusErr = false
}

func samePath(a, b string) bool {
	return filepath.Clean(a) == filepath.Clean(b)
}

func pointInRect(x, y int, rect image.Rectangle) bool {
	return x >= rect.Min.X && x < rect.Max.X && y >= rect.Min.Y && y < rect.Max.Y
}

func main() {
	var (
		configPath = flag.String("config", "", "path to a YAML settings file")
		wavPath    = flag.String("file", "", "WAV file to play on start")
		verbose    = flag.Bool("v", false, "log debug output")
	)
	flag.Parse()

	s := config.Default()
	if *configPath != "" {
		var err error
		if s, err = config.Load(*configPath); err != nil {
			log.Fatal(err)
		}
	}
	level := s.SlogLevel()
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	onbeat.SetLogger(logger)

	initialPath := *wavPath
	if initialPath == "" && flag.NArg() > 0 {
		initialPath = flag.Arg(0)
	}
	if initialPath != "" {
		p, err := filepath.Abs(initialPath)
		if err != nil {
			log.Fatalf("resolve %q: %v", initialPath, err)
		}
		initialPath = p
	}

	g, err := newGame(s, initialPath)
	if err != nil {
		log.Fatal(err)
	}
	defer g.Close()

	ebiten.SetWindowSize(s.Display.Width, s.Display.Height)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowSizeLimits(minWindowW, minWindowH, -1, -1)
	ebiten.SetFullscreen(s.Fullscreen)
	if s.Unpaced() {
		ebiten.SetTPS(ebiten.SyncWithFPS)
	} else {
		ebiten.SetTPS(s.FPS)
	}
	ebiten.SetWindowTitle("OnBeat")
	if err := ebiten.RunGame(g); err != nil && !errors.Is(err, ebiten.Termination) {
		log.Fatal(err)
	}
}
