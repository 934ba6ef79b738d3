package timer

import "time"

// Timer is a stopwatch with pause support. All transitions are total: calling
// Pause, Unpause or Stop in a state where they make no sense does nothing.
//
// A Timer is not safe for concurrent use; it belongs to the frame loop.
type Timer struct {
	clock      Clock
	startTick  time.Time
	pausedTick time.Duration
	started    bool
	paused     bool
}

// New returns a stopped timer reading from clock. A nil clock means the
// system clock.
func New(clock Clock) *Timer {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Timer{clock: clock}
}

// Start runs the timer from zero, discarding any previous elapsed time.
func (t *Timer) Start() {
	t.started = true
	t.paused = false
	t.pausedTick = 0
	t.startTick = t.clock.Now()
}

func (t *Timer) Stop() {
	t.started = false
	t.paused = false
}

// Pause freezes elapsed time. Only a running, unpaused timer can pause.
func (t *Timer) Pause() {
	if !t.started || t.paused {
		return
	}
	t.paused = true
	t.pausedTick = t.clock.Now().Sub(t.startTick)
}

// Unpause resumes a paused timer. The origin is shifted by the frozen
// duration so elapsed time continues where it stopped.
func (t *Timer) Unpause() {
	if !t.paused {
		return
	}
	t.paused = false
	t.startTick = t.clock.Now().Add(-t.pausedTick)
	t.pausedTick = 0
}

// Elapsed returns the frozen duration while paused, the running duration while
// running, and zero when the timer is stopped.
func (t *Timer) Elapsed() time.Duration {
	if !t.started {
		return 0
	}
	if t.paused {
		return t.pausedTick
	}
	return t.clock.Now().Sub(t.startTick)
}

// ElapsedTicks is Elapsed in whole milliseconds.
func (t *Timer) ElapsedTicks() int64 {
	return t.Elapsed().Milliseconds()
}

func (t *Timer) IsRunning() bool { return t.started }
func (t *Timer) IsPaused() bool  { return t.paused }
