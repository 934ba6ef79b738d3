package analysis

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/wav"
)

// resampleQuality is passed to beep.Resample; 4 is beep's recommended default.
const resampleQuality = 4

// Track is a fully decoded stereo audio track.
type Track struct {
	SampleRate int
	Samples    [][2]float64
}

// Decode reads a whole WAV stream into memory. Mono input is duplicated onto
// both channels by the decoder.
func Decode(r io.Reader) (*Track, error) {
	s, format, err := wav.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decode wav: %w", err)
	}
	defer s.Close()
	return readAll(s, int(format.SampleRate))
}

func readAll(s beep.Streamer, sampleRate int) (*Track, error) {
	if sampleRate <= 0 {
		return nil, errors.New("sample rate must be positive")
	}
	buf := make([][2]float64, 4096)
	var out [][2]float64
	for {
		n, ok := s.Stream(buf)
		out = append(out, buf[:n]...)
		if !ok {
			break
		}
	}
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("read samples: %w", err)
	}
	return &Track{SampleRate: sampleRate, Samples: out}, nil
}

// Duration is the playing time of the track.
func (t *Track) Duration() time.Duration {
	if t.SampleRate <= 0 {
		return 0
	}
	return time.Duration(len(t.Samples)) * time.Second / time.Duration(t.SampleRate)
}

// Format describes the track for beep consumers.
func (t *Track) Format() beep.Format {
	return beep.Format{SampleRate: beep.SampleRate(t.SampleRate), NumChannels: 2, Precision: 2}
}

// Resample returns the track converted to rate. The receiver is returned
// unchanged when it already plays at rate.
func (t *Track) Resample(rate int) (*Track, error) {
	if rate == t.SampleRate {
		return t, nil
	}
	if rate <= 0 {
		return nil, errors.New("sample rate must be positive")
	}
	r := beep.Resample(resampleQuality, beep.SampleRate(t.SampleRate), beep.SampleRate(rate), t.Streamer())
	return readAll(r, rate)
}

// Streamer returns an independent, seekable stream over the samples.
func (t *Track) Streamer() beep.StreamSeeker {
	return &trackStreamer{samples: t.Samples}
}

type trackStreamer struct {
	samples [][2]float64
	pos     int
}

func (s *trackStreamer) Stream(dst [][2]float64) (int, bool) {
	if s.pos >= len(s.samples) {
		return 0, false
	}
	n := copy(dst, s.samples[s.pos:])
	s.pos += n
	return n, true
}

func (s *trackStreamer) Err() error    { return nil }
func (s *trackStreamer) Len() int      { return len(s.samples) }
func (s *trackStreamer) Position() int { return s.pos }

func (s *trackStreamer) Seek(p int) error {
	if p < 0 || p > len(s.samples) {
		return fmt.Errorf("seek position %d out of range [0, %d]", p, len(s.samples))
	}
	s.pos = p
	return nil
}
