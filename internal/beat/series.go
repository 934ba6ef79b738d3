package beat

import (
	"errors"
	"time"
)

// Channel indexes one of the two analysed audio channels.
const (
	Channel1 = 0
	Channel2 = 1
)

// NoBeat is the strength written for analysis windows that hold no beat.
// Any strength below 1 is treated the same way.
const NoBeat = 0.0

// Series is the per-channel strength of every analysis window of a track.
// Index i of either channel covers [i*FrameDuration, (i+1)*FrameDuration).
// A Series is read-only once built.
type Series struct {
	Channels      [2][]float64
	FrameDuration time.Duration
}

// Frame is the pair of strengths at one index.
type Frame struct {
	Index     int
	Strengths [2]float64
}

// Silent reports whether either channel holds the no-beat sentinel.
func (f Frame) Silent() bool {
	return f.Strengths[Channel1] < 1 || f.Strengths[Channel2] < 1
}

// NewSeries validates and wraps two channels of strengths.
func NewSeries(ch1, ch2 []float64, frameDuration time.Duration) (Series, error) {
	if len(ch1) != len(ch2) {
		return Series{}, errors.New("beat channels differ in length")
	}
	if frameDuration <= 0 {
		return Series{}, errors.New("frame duration must be positive")
	}
	return Series{Channels: [2][]float64{ch1, ch2}, FrameDuration: frameDuration}, nil
}

// Len is the number of frames.
func (s Series) Len() int { return len(s.Channels[Channel1]) }

// At returns the frame at index i. i must be in range.
func (s Series) At(i int) Frame {
	return Frame{
		Index:     i,
		Strengths: [2]float64{s.Channels[Channel1][i], s.Channels[Channel2][i]},
	}
}

// Duration is the time covered by the whole series.
func (s Series) Duration() time.Duration {
	return time.Duration(s.Len()) * s.FrameDuration
}

// BeatCount counts frames that carry a beat on both channels.
func (s Series) BeatCount() int {
	n := 0
	for i := 0; i < s.Len(); i++ {
		if !s.At(i).Silent() {
			n++
		}
	}
	return n
}
