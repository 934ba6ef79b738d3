package scene

import (
	"log/slog"

	"github.com/cbegin/onbeat-go/internal/beat"
	"github.com/cbegin/onbeat-go/internal/event"
	"github.com/cbegin/onbeat-go/internal/timer"
)

const (
	DefaultLeadInMs = 50
	DefaultSkewMs   = 50
)

// Options tunes a Rhythm scene.
type Options struct {
	Clock    timer.Clock  // nil means the system clock
	LeadInMs int64        // added to the frame duration to get the blit interval
	SkewMs   int64        // widens the modulus used for on-time blit offsets
	Logger   *slog.Logger // nil discards
}

func DefaultOptions() Options {
	return Options{LeadInMs: DefaultLeadInMs, SkewMs: DefaultSkewMs}
}

// Rhythm turns a beat series into blit events paced by its own timer.
//
// Every frame it compares the timer with the tick of the last processed beat.
// One interval or more emits a single beat; two or more means frames were
// missed and every overdue beat is emitted in one burst so none is dropped.
type Rhythm struct {
	name       string
	queue      *event.Queue
	timer      *timer.Timer
	schedule   *beat.Schedule
	thresholds [2]float64
	interval   int64
	skew       int64
	logger     *slog.Logger
	running    bool
	finished   bool
}

// NewRhythm builds an idle scene over series. Events are posted to queue.
func NewRhythm(name string, series beat.Series, queue *event.Queue, opts Options) *Rhythm {
	if opts.LeadInMs < 0 {
		opts.LeadInMs = 0
	}
	if opts.SkewMs < 0 {
		opts.SkewMs = 0
	}
	interval := series.FrameDuration.Milliseconds() + opts.LeadInMs
	if interval < 1 {
		interval = 1
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Rhythm{
		name:       name,
		queue:      queue,
		timer:      timer.New(opts.Clock),
		schedule:   beat.NewSchedule(series),
		thresholds: beat.Thresholds(series),
		interval:   interval,
		skew:       opts.SkewMs,
		logger:     logger.With("scene", name),
	}
}

func (r *Rhythm) Name() string { return r.name }

// Interval is the spacing between beats in milliseconds.
func (r *Rhythm) Interval() int64 { return r.interval }

// Thresholds are the per-channel strong-beat cutoffs of the series.
func (r *Rhythm) Thresholds() [2]float64 { return r.thresholds }

// Timer exposes the scene clock, e.g. for a pause menu.
func (r *Rhythm) Timer() *timer.Timer { return r.timer }

// Cursor returns the index of the next beat to process.
func (r *Rhythm) Cursor() int { return r.schedule.Current() }

// BeatCount is the number of frames in the series.
func (r *Rhythm) BeatCount() int { return r.schedule.Len() }

func (r *Rhythm) IsRunning() bool { return r.running }

func (r *Rhythm) State() State {
	switch {
	case r.finished:
		return StateFinished
	case !r.running:
		return StateIdle
	case r.timer.IsPaused():
		return StatePaused
	default:
		return StateRunning
	}
}

// StartScene starts the timer. Only an idle scene can start; a finished scene
// stays finished.
func (r *Rhythm) StartScene() {
	if r.running || r.finished {
		return
	}
	r.timer.Start()
	r.running = true
	r.logger.Info("scene started", "beats", r.schedule.Len(), "interval_ms", r.interval)
}

func (r *Rhythm) Pause()  { r.timer.Pause() }
func (r *Rhythm) Resume() { r.timer.Unpause() }

func (r *Rhythm) OnFrame() {
	if !r.running || r.timer.IsPaused() {
		return
	}
	if r.schedule.Exhausted() {
		r.finish()
		return
	}

	elapsed := r.timer.ElapsedTicks()
	delta := elapsed - r.schedule.PreviousTick()
	switch {
	case delta >= 2*r.interval:
		r.catchUp(elapsed, delta)
	case delta >= r.interval:
		r.step(elapsed % (r.interval + r.skew))
		r.schedule.SetPreviousTick(elapsed)
	}
}

// catchUp emits every beat that fell due since the previous tick. Beat k is
// due at previousTick + k*interval and its offset is how late it is. The
// cursor moves to the last due beat; the remainder carries to the next frame.
func (r *Rhythm) catchUp(elapsed, delta int64) {
	steps := delta / r.interval
	base := r.schedule.PreviousTick()
	r.logger.Debug("catching up on beats", "missed", steps, "delta_ms", delta)
	for k := int64(1); k <= steps; k++ {
		if !r.step(elapsed - (base + k*r.interval)) {
			break
		}
	}
	r.schedule.SetPreviousTick(base + steps*r.interval)
}

// step consumes one frame and posts a blit for it unless either channel is
// silent. It reports false once the series is exhausted.
func (r *Rhythm) step(offsetMs int64) bool {
	f, ok := r.schedule.Next()
	if !ok {
		return false
	}
	if f.Silent() {
		return true
	}
	r.queue.Push(event.NewBlit(r.name, f.Index, f.Strengths, offsetMs))
	return true
}

func (r *Rhythm) finish() {
	r.running = false
	r.finished = true
	r.timer.Stop()
	r.queue.Push(event.SceneFinished(r.name))
	r.logger.Info("scene finished", "beats", r.schedule.Len())
}
