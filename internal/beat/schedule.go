package beat

// Schedule walks a Series frame by frame. It holds the playback cursor: the
// index of the next frame to emit and the tick (milliseconds of scene time)
// the cursor was last synchronised to. Both only move forward.
type Schedule struct {
	series       Series
	current      int
	previousTick int64
}

func NewSchedule(s Series) *Schedule {
	return &Schedule{series: s}
}

func (s *Schedule) Series() Series      { return s.series }
func (s *Schedule) Len() int            { return s.series.Len() }
func (s *Schedule) Current() int        { return s.current }
func (s *Schedule) PreviousTick() int64 { return s.previousTick }

// Exhausted reports whether every frame has been consumed.
func (s *Schedule) Exhausted() bool {
	return s.current >= s.series.Len()
}

// Next returns the frame under the cursor and advances past it. Once the
// series is exhausted it returns false and the cursor stays put.
func (s *Schedule) Next() (Frame, bool) {
	if s.Exhausted() {
		return Frame{}, false
	}
	f := s.series.At(s.current)
	s.current++
	return f, true
}

// SetPreviousTick records the scene time the cursor is synchronised to.
// Ticks earlier than the current one are ignored.
func (s *Schedule) SetPreviousTick(tick int64) {
	if tick > s.previousTick {
		s.previousTick = tick
	}
}
