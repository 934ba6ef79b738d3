package board

import (
	"math"
	"time"

	"github.com/cbegin/onbeat-go/internal/beat"
	"github.com/cbegin/onbeat-go/internal/event"
)

// Judgement rates a key press against the beat zone.
type Judgement int

const (
	Miss Judgement = iota
	Good
	Perfect
)

func (j Judgement) String() string {
	switch j {
	case Perfect:
		return "Perfect"
	case Good:
		return "Good"
	default:
		return "Miss"
	}
}

// Points awarded per judgement.
const (
	PointsGood    = 100
	PointsPerfect = 300
)

// Config is the geometry of the playfield, in pixels (or cells).
type Config struct {
	ZoneY      float64       // distance from the top to the beat zone
	Height     float64       // markers below this are gone
	HitWindow  float64       // max distance from ZoneY for a hit
	TravelTime time.Duration // time a marker takes to reach the zone
}

func DefaultConfig() Config {
	return Config{ZoneY: 560, Height: 720, HitWindow: 48, TravelTime: time.Second}
}

// Marker is one falling blit.
type Marker struct {
	Column beat.Column
	Beat   int
	Y      float64
}

// Stats summarises play so far.
type Stats struct {
	Score    int
	Combo    int
	MaxCombo int
	Hits     int
	Misses   int
}

// Board turns scene events into markers that fall towards the beat zone.
type Board struct {
	cfg        Config
	velocity   float64
	thresholds [2]float64
	markers    []Marker
	stats      Stats
	finished   bool
}

func New(cfg Config) *Board {
	b := &Board{cfg: cfg}
	b.velocity = Velocity(cfg.ZoneY, cfg.TravelTime)
	b.thresholds = [2]float64{math.Inf(1), math.Inf(1)}
	return b
}

// Velocity is the marker speed in pixels per millisecond that covers zoneY in
// travel. A non-positive travel time yields zero.
func Velocity(zoneY float64, travel time.Duration) float64 {
	ms := float64(travel) / float64(time.Millisecond)
	if ms <= 0 {
		return 0
	}
	return zoneY / ms
}

// OffsetHeight is the distance a marker covers in offsetMs.
func OffsetHeight(velocity float64, offsetMs int64) float64 {
	return velocity * float64(offsetMs)
}

func (b *Board) Config() Config         { return b.cfg }
func (b *Board) Velocity() float64      { return b.velocity }
func (b *Board) Stats() Stats           { return b.stats }
func (b *Board) Finished() bool         { return b.finished }
func (b *Board) Thresholds() [2]float64 { return b.thresholds }

// Reset clears the board for a new scene with the given channel thresholds.
func (b *Board) Reset(thresholds [2]float64) {
	b.thresholds = thresholds
	b.markers = b.markers[:0]
	b.stats = Stats{}
	b.finished = false
}

// Markers returns a copy of the live markers.
func (b *Board) Markers() []Marker {
	return append([]Marker(nil), b.markers...)
}

// Apply handles one event from a scene.
func (b *Board) Apply(ev event.Event) {
	switch ev.Kind {
	case event.KindNewBlit:
		y := OffsetHeight(b.velocity, ev.Blit.OffsetMs)
		for c, s := range ev.Blit.Strengths {
			if s < 1 {
				continue
			}
			b.markers = append(b.markers, Marker{
				Column: beat.Classify(c, s, b.thresholds[c]),
				Beat:   ev.Blit.Beat,
				Y:      y,
			})
		}
	case event.KindSceneFinished:
		// Markers already on the board keep falling until hit or missed.
		b.finished = true
	}
}

// Done reports whether the scene has finished and every marker is gone.
func (b *Board) Done() bool { return b.finished && len(b.markers) == 0 }

// Clear drops every marker without scoring them and marks the board finished.
func (b *Board) Clear() {
	b.markers = b.markers[:0]
	b.finished = true
}

// Advance moves every marker by dtMs worth of travel. Markers that leave the
// board count as misses.
func (b *Board) Advance(dtMs float64) {
	if dtMs <= 0 {
		return
	}
	dy := b.velocity * dtMs
	kept := b.markers[:0]
	for _, m := range b.markers {
		m.Y += dy
		if m.Y > b.cfg.Height {
			b.miss()
			continue
		}
		kept = append(kept, m)
	}
	b.markers = kept
}

// Hit judges a press on col. The marker closest to the zone within the hit
// window is consumed; a press with nothing in range is a Miss and breaks the
// combo.
func (b *Board) Hit(col beat.Column) Judgement {
	best := -1
	bestDist := math.Inf(1)
	for i, m := range b.markers {
		if m.Column != col {
			continue
		}
		d := math.Abs(m.Y - b.cfg.ZoneY)
		if d <= b.cfg.HitWindow && d < bestDist {
			best, bestDist = i, d
		}
	}
	if best < 0 {
		b.miss()
		return Miss
	}
	b.markers = append(b.markers[:best], b.markers[best+1:]...)

	j := Good
	if bestDist <= b.cfg.HitWindow/3 {
		j = Perfect
	}
	b.stats.Hits++
	b.stats.Combo++
	b.stats.MaxCombo = max(b.stats.MaxCombo, b.stats.Combo)
	if j == Perfect {
		b.stats.Score += PointsPerfect
	} else {
		b.stats.Score += PointsGood
	}
	return j
}

func (b *Board) miss() {
	b.stats.Misses++
	b.stats.Combo = 0
}
