package main

import (
	"fmt"
	"image"
	"image/color"
	"path/filepath"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"golang.org/x/image/colornames"

	"github.com/cbegin/onbeat-go/internal/beat"
	"github.com/cbegin/onbeat-go/internal/board"
)

const (
	textScale = 2
	charW     = 7 * textScale
	lineH     = 14 * textScale

	markerH = 14
)

var (
	bgColor         = colornames.Silver
	panelColor      = colornames.Silver
	borderColor     = colornames.Gray
	bevelLight      = colornames.White
	bevelDarker     = color.RGBA{64, 64, 64, 255}
	sunkenBgColor   = color.RGBA{24, 24, 32, 255}
	highlightColor  = colornames.Navy
	sliderFillColor = colornames.Navy
	zoneColor       = colornames.Gold
	laneColor       = color.RGBA{40, 40, 52, 255}
	overlayColor    = color.RGBA{0, 0, 0, 170}

	// Weak and strong markers of channel 1, then of channel 2.
	columnColors = [beat.NumColumns]color.Color{
		colornames.Lightskyblue,
		colornames.Dodgerblue,
		colornames.Lightsalmon,
		colornames.Orangered,
	}
	judgementColors = map[board.Judgement]color.Color{
		board.Miss:    colornames.Crimson,
		board.Good:    colornames.Limegreen,
		board.Perfect: colornames.Gold,
	}
)

func (g *game) Draw(screen *ebiten.Image) {
	screen.Fill(bgColor)
	l := g.layoutRects()

	g.drawSunkenPanel(screen, l.nav)
	g.drawDarkPanel(screen, l.field)
	g.drawSunkenPanel(screen, l.score)
	g.drawButton(screen, l.play, g.playButtonLabel())
	g.drawVolumeSlider(screen, l.volume)
	g.drawSunkenPanel(screen, l.status)

	g.drawText(screen, "Tracks", l.nav.Min.X+8, l.nav.Min.Y+8)
	g.drawNavigator(screen, l.nav)
	g.drawField(screen, l.field)
	g.drawScore(screen, l.score)
	g.drawStatus(screen, l.status)

	if g.engine.Paused() {
		g.drawPauseMenu(screen, l.field)
	}
}

// drawField draws the lanes, the beat zone and every live marker. Board
// coordinates are scaled to the field's height.
func (g *game) drawField(screen *ebiten.Image, rect image.Rectangle) {
	cfg := g.engine.BoardConfig()
	if cfg.Height <= 0 {
		return
	}
	scale := float64(rect.Dy()) / cfg.Height
	laneW := float64(rect.Dx()-8) / beat.NumColumns
	x0 := float64(rect.Min.X + 4)
	y0 := float64(rect.Min.Y)

	for c := 0; c < beat.NumColumns; c++ {
		x := x0 + float64(c)*laneW
		ebitenutil.DrawRect(screen, x+2, y0+2, laneW-4, float64(rect.Dy()-4), laneColor)
		g.drawText(screen, g.settings.Keys()[c], int(x+laneW/2)-charW/2, rect.Max.Y-lineH-6)
	}

	zoneY := y0 + cfg.ZoneY*scale
	win := cfg.HitWindow * scale
	ebitenutil.DrawRect(screen, x0, zoneY-win, laneW*beat.NumColumns, 1, borderColor)
	ebitenutil.DrawRect(screen, x0, zoneY+win, laneW*beat.NumColumns, 1, borderColor)
	ebitenutil.DrawRect(screen, x0, zoneY-1, laneW*beat.NumColumns, 3, zoneColor)

	for _, m := range g.engine.Markers() {
		c := int(m.Column)
		x := x0 + float64(c)*laneW + 6
		y := y0 + m.Y*scale - markerH/2
		if y < y0 {
			continue
		}
		ebitenutil.DrawRect(screen, x, y, laneW-12, markerH, columnColors[c])
	}

	if g.frameTick < g.judgementUntil {
		label := g.lastJudgement.String()
		x := rect.Min.X + (rect.Dx()-len(label)*charW)/2
		y := int(zoneY) - roundPx(win) - lineH*2
		ebitenutil.DrawRect(screen, float64(x-6), float64(y-4), float64(len(label)*charW+12), lineH+8, judgementColors[g.lastJudgement])
		g.drawText(screen, label, x, y)
	}
}

func roundPx(v float64) int { return int(v + 0.5) }

func (g *game) drawScore(screen *ebiten.Image, rect image.Rectangle) {
	st := g.engine.Stats()
	cur, total := g.engine.Progress()
	lines := []string{
		"Score",
		fmt.Sprintf("%d", st.Score),
		"",
		fmt.Sprintf("Combo %d", st.Combo),
		fmt.Sprintf("Best  %d", st.MaxCombo),
		fmt.Sprintf("Hits  %d", st.Hits),
		fmt.Sprintf("Miss  %d", st.Misses),
	}
	if total > 0 {
		lines = append(lines, "", fmt.Sprintf("Beat %d/%d", cur, total))
	}
	for i, s := range lines {
		g.drawText(screen, s, rect.Min.X+10, rect.Min.Y+10+i*lineH)
	}
}

func (g *game) drawPauseMenu(screen *ebiten.Image, rect image.Rectangle) {
	ebitenutil.DrawRect(screen, float64(rect.Min.X), float64(rect.Min.Y), float64(rect.Dx()), float64(rect.Dy()), overlayColor)
	w, h := 220, lineH*len(menuLabels)+lineH*2+24
	box := image.Rect(rect.Min.X+(rect.Dx()-w)/2, rect.Min.Y+(rect.Dy()-h)/2, 0, 0)
	box.Max = box.Min.Add(image.Pt(w, h))
	g.drawPanel(screen, box)
	g.drawText(screen, "Paused", box.Min.X+12, box.Min.Y+8)
	for i, label := range menuLabels {
		y := box.Min.Y + 16 + lineH*(i+2)
		if menuItem(i) == g.menuSel {
			ebitenutil.DrawRect(screen, float64(box.Min.X+6), float64(y-2), float64(w-12), lineH+2, highlightColor)
		}
		g.drawText(screen, label, box.Min.X+20, y)
	}
}

func (g *game) drawNavigator(screen *ebiten.Image, rect image.Rectangle) {
	label := g.cwd
	if g.loadedPath != "" {
		label = g.cwd + "  [" + filepath.Base(g.loadedPath) + "]"
	}
	maxChars := max(8, (rect.Dx()-16)/charW)
	g.drawText(screen, shortenMiddle(label, maxChars), rect.Min.X+8, rect.Min.Y+8+lineH)

	top := rect.Min.Y + 12 + (lineH * 2)
	maxLines := max(1, (rect.Dy()-(lineH*2)-18)/lineH)
	if g.navScroll > len(g.nav)-1 {
		g.navScroll = max(0, len(g.nav)-1)
	}
	for i := 0; i < maxLines; i++ {
		idx := g.navScroll + i
		if idx >= len(g.nav) {
			break
		}
		entry := g.nav[idx]
		y := top + i*lineH
		if g.loadedPath != "" && !entry.isDir && samePath(entry.path, g.loadedPath) {
			ebitenutil.DrawRect(screen, float64(rect.Min.X+6), float64(y-2), float64(rect.Dx()-12), float64(lineH+2), highlightColor)
		}
		txt := entry.name
		if entry.isDir && entry.name != ".." {
			txt += "/"
		}
		g.drawText(screen, shortenEnd(txt, maxChars-1), rect.Min.X+10, y)
	}
}

func (g *game) drawStatus(screen *ebiten.Image, rect image.Rectangle) {
	msg := "Status: " + g.status
	if g.statusErr {
		msg = "Status: ERROR - " + g.status
	}
	maxChars := max(8, (rect.Dx()-16)/charW)
	g.drawText(screen, shortenEnd(msg, maxChars), rect.Min.X+8, rect.Min.Y+6)
}

func (g *game) drawVolumeSlider(screen *ebiten.Image, rect image.Rectangle) {
	g.drawPanel(screen, rect)
	g.drawText(screen, fmt.Sprintf("Vol %d%%", int(g.volume*100+0.5)), rect.Min.X+8, rect.Min.Y+8)

	trackX := rect.Min.X + 130
	trackW := rect.Dx() - 146
	trackY := rect.Min.Y + rect.Dy()/2 - 4
	if trackW < 20 {
		return
	}
	ebitenutil.DrawRect(screen, float64(trackX), float64(trackY), float64(trackW), 8, bevelDarker)
	ebitenutil.DrawRect(screen, float64(trackX), float64(trackY), float64(trackW-1), 1, borderColor)
	ebitenutil.DrawRect(screen, float64(trackX), float64(trackY), 1, 7, borderColor)
	fillW := int(float64(trackW) * clamp(g.volume, 0, 1))
	if fillW > 2 {
		ebitenutil.DrawRect(screen, float64(trackX+1), float64(trackY+1), float64(fillW-1), 6, sliderFillColor)
	}
	knobX := min(max(trackX+fillW-5, trackX-5), trackX+trackW-5)
	knobRect := image.Rect(knobX, trackY-4, knobX+10, trackY+12)
	ebitenutil.DrawRect(screen, float64(knobRect.Min.X), float64(knobRect.Min.Y), float64(knobRect.Dx()), float64(knobRect.Dy()), panelColor)
	drawBorder(screen, knobRect)
}

func (g *game) playButtonLabel() string {
	switch {
	case !g.engine.Running():
		return "Play"
	case g.engine.Paused():
		return "Resume"
	default:
		return "Pause"
	}
}

func (g *game) drawPanel(screen *ebiten.Image, rect image.Rectangle) {
	ebitenutil.DrawRect(screen, float64(rect.Min.X), float64(rect.Min.Y), float64(rect.Dx()), float64(rect.Dy()), panelColor)
	drawBorder(screen, rect)
}

func (g *game) drawSunkenPanel(screen *ebiten.Image, rect image.Rectangle) {
	ebitenutil.DrawRect(screen, float64(rect.Min.X), float64(rect.Min.Y), float64(rect.Dx()), float64(rect.Dy()), sunkenBgColor)
	drawSunkenBorder(screen, rect)
}

func (g *game) drawDarkPanel(screen *ebiten.Image, rect image.Rectangle) {
	ebitenutil.DrawRect(screen, float64(rect.Min.X), float64(rect.Min.Y), float64(rect.Dx()), float64(rect.Dy()), colornames.Black)
	drawSunkenBorder(screen, rect)
}

func (g *game) drawButton(screen *ebiten.Image, rect image.Rectangle, label string) {
	g.drawPanel(screen, rect)
	labelW := len([]rune(label)) * charW
	g.drawText(screen, label, rect.Min.X+(rect.Dx()-labelW)/2, rect.Min.Y+(rect.Dy()-lineH)/2)
}

// drawBorder draws a raised bevel: highlight top/left, shadow bottom/right.
func drawBorder(screen *ebiten.Image, rect image.Rectangle) {
	x, y := float64(rect.Min.X), float64(rect.Min.Y)
	w, h := float64(rect.Dx()), float64(rect.Dy())
	ebitenutil.DrawRect(screen, x, y, w-1, 1, bevelLight)
	ebitenutil.DrawRect(screen, x, y+1, 1, h-2, bevelLight)
	ebitenutil.DrawRect(screen, x, y+h-1, w, 1, bevelDarker)
	ebitenutil.DrawRect(screen, x+w-1, y, 1, h, bevelDarker)
	ebitenutil.DrawRect(screen, x+1, y+h-2, w-3, 1, borderColor)
	ebitenutil.DrawRect(screen, x+w-2, y+1, 1, h-3, borderColor)
}

// drawSunkenBorder is drawBorder with light and shadow swapped.
func drawSunkenBorder(screen *ebiten.Image, rect image.Rectangle) {
	x, y := float64(rect.Min.X), float64(rect.Min.Y)
	w, h := float64(rect.Dx()), float64(rect.Dy())
	ebitenutil.DrawRect(screen, x, y, w-1, 1, borderColor)
	ebitenutil.DrawRect(screen, x, y+1, 1, h-2, borderColor)
	ebitenutil.DrawRect(screen, x, y+h-1, w, 1, bevelLight)
	ebitenutil.DrawRect(screen, x+w-1, y, 1, h, bevelLight)
	ebitenutil.DrawRect(screen, x+1, y+1, w-3, 1, bevelDarker)
	ebitenutil.DrawRect(screen, x+1, y+2, 1, h-4, bevelDarker)
}

func (g *game) drawText(screen *ebiten.Image, msg string, x int, y int) {
	if msg == "" {
		return
	}
	img := g.textCache[msg]
	if img == nil {
		img = ebiten.NewImage(max(1, len([]rune(msg))*7), 14)
		ebitenutil.DebugPrintAt(img, msg, 0, 0)
		if len(g.textCache) > 1000 {
			g.textCache = make(map[string]*ebiten.Image, 256)
		}
		g.textCache[msg] = img
	}
	opS := &ebiten.DrawImageOptions{}
	opS.GeoM.Scale(textScale, textScale)
	opS.GeoM.Translate(float64(x+2), float64(y+2))
	opS.ColorScale.Scale(0, 0, 0, 1)
	screen.DrawImage(img, opS)

	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(textScale, textScale)
	op.GeoM.Translate(float64(x), float64(y))
	screen.DrawImage(img, op)
}

func shortenEnd(s string, maxChars int) string {
	r := []rune(s)
	if len(r) <= maxChars {
		return s
	}
	if maxChars <= 3 {
		return string(r[:max(0, maxChars)])
	}
	return string(r[:maxChars-3]) + "..."
}

func shortenMiddle(s string, maxChars int) string {
	r := []rune(s)
	if len(r) <= maxChars {
		return s
	}
	if maxChars <= 7 {
		return shortenEnd(s, maxChars)
	}
	left := (maxChars - 3) / 2
	right := maxChars - 3 - left
	return string(r[:left]) + "..." + string(r[len(r)-right:])
}

func clamp(v, minV, maxV float64) float64 {
	if v < minV {
		return minV
	}
	if v > maxV {
		return maxV
	}
	return v
}
