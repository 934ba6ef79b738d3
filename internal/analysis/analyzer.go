package analysis

import (
	"errors"
	"fmt"
	"math/cmplx"
	"time"

	"github.com/cbegin/onbeat-go/internal/beat"
)

// Params controls how a track is cut into analysis frames and how onsets are
// picked out of them.
type Params struct {
	FrameSize     int     // samples per frame, power of two
	SampleRate    int     // analysis rate; tracks are resampled to it
	Sensitivity   float64 // minimum flux ratio over the local mean to count as a beat (>= 1)
	HistoryFrames int     // trailing frames averaged for the local mean
}

func DefaultParams() Params {
	return Params{
		FrameSize:     1024,
		SampleRate:    44100,
		Sensitivity:   1.3,
		HistoryFrames: 43, // about one second at the defaults
	}
}

func (p Params) Validate() error {
	if !isPowerOfTwo(p.FrameSize) || p.FrameSize < 64 {
		return fmt.Errorf("frame size %d must be a power of two >= 64", p.FrameSize)
	}
	if p.SampleRate <= 0 {
		return errors.New("sample rate must be positive")
	}
	if p.Sensitivity < 1 {
		return fmt.Errorf("sensitivity %.2f must be >= 1", p.Sensitivity)
	}
	if p.HistoryFrames < 1 {
		return errors.New("history must cover at least one frame")
	}
	return nil
}

// FrameDuration is the time covered by one analysis frame.
func FrameDuration(frameSize, sampleRate int) time.Duration {
	return time.Duration(frameSize) * time.Second / time.Duration(sampleRate)
}

// Analyze produces a beat series for both channels of track. A frame's
// strength is its spectral flux divided by the mean flux of the trailing
// history; frames under the sensitivity, and frames next to a stronger frame,
// are written as beat.NoBeat.
func Analyze(track *Track, p Params) (beat.Series, error) {
	if err := p.Validate(); err != nil {
		return beat.Series{}, err
	}
	if track == nil {
		return beat.Series{}, errors.New("nil track")
	}
	t, err := track.Resample(p.SampleRate)
	if err != nil {
		return beat.Series{}, err
	}
	a := newFluxAnalyzer(p.FrameSize)
	var ch [2][]float64
	for c := range ch {
		flux := a.flux(t.Samples, c)
		ch[c] = pickPeaks(strengths(flux, p.HistoryFrames, p.Sensitivity))
	}
	return beat.NewSeries(ch[beat.Channel1], ch[beat.Channel2], FrameDuration(p.FrameSize, p.SampleRate))
}

type fluxAnalyzer struct {
	size   int
	window []float64
	buf    []complex128
	prev   []float64
	mag    []float64
}

func newFluxAnalyzer(size int) *fluxAnalyzer {
	return &fluxAnalyzer{
		size:   size,
		window: hann(size),
		buf:    make([]complex128, size),
		prev:   make([]float64, size/2+1),
		mag:    make([]float64, size/2+1),
	}
}

// flux returns the spectral flux of every whole frame of one channel. A
// trailing partial frame is dropped.
func (a *fluxAnalyzer) flux(samples [][2]float64, channel int) []float64 {
	frames := len(samples) / a.size
	out := make([]float64, frames)
	for i := range a.prev {
		a.prev[i] = 0
	}
	for f := 0; f < frames; f++ {
		base := f * a.size
		for i := 0; i < a.size; i++ {
			a.buf[i] = complex(samples[base+i][channel]*a.window[i], 0)
		}
		fft(a.buf)
		var sum float64
		for k := range a.mag {
			a.mag[k] = cmplx.Abs(a.buf[k])
			if d := a.mag[k] - a.prev[k]; d > 0 {
				sum += d
			}
		}
		a.prev, a.mag = a.mag, a.prev
		out[f] = sum
	}
	return out
}

func strengths(flux []float64, history int, sensitivity float64) []float64 {
	out := make([]float64, len(flux))
	var running float64
	for i, v := range flux {
		running += v
		if i >= history {
			running -= flux[i-history]
		}
		n := min(i+1, history)
		mean := running / float64(n)
		if mean <= 0 {
			continue
		}
		if s := v / mean; s >= sensitivity {
			out[i] = s
		}
	}
	return out
}

// pickPeaks keeps only local maxima so one onset smeared over neighbouring
// frames yields a single beat.
func pickPeaks(s []float64) []float64 {
	out := make([]float64, len(s))
	for i, v := range s {
		if v < 1 {
			continue
		}
		if i > 0 && s[i-1] > v {
			continue
		}
		if i+1 < len(s) && s[i+1] > v {
			continue
		}
		out[i] = v
	}
	return out
}
