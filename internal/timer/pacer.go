package timer

import "time"

// Pacer holds a frame loop to a fixed budget by sleeping whatever is left of
// the budget once a frame's work is done.
type Pacer struct {
	frame  *Timer
	budget time.Duration
	sleep  func(time.Duration)
}

// NewPacer returns a pacer for fps frames per second. fps <= 0 disables
// pacing. A nil sleep means time.Sleep.
func NewPacer(clock Clock, fps int, sleep func(time.Duration)) *Pacer {
	if sleep == nil {
		sleep = time.Sleep
	}
	var budget time.Duration
	if fps > 0 {
		budget = time.Second / time.Duration(fps)
	}
	return &Pacer{frame: New(clock), budget: budget, sleep: sleep}
}

// Budget is the time allotted to one frame.
func (p *Pacer) Budget() time.Duration { return p.budget }

// BeginFrame marks the start of a frame's work.
func (p *Pacer) BeginFrame() {
	p.frame.Start()
}

// Wait sleeps for the rest of the frame budget and returns the time slept.
// A frame that overran its budget returns immediately.
func (p *Pacer) Wait() time.Duration {
	if p.budget <= 0 {
		return 0
	}
	spent := p.frame.Elapsed()
	if spent >= p.budget {
		return 0
	}
	rest := p.budget - spent
	p.sleep(rest)
	return rest
}
