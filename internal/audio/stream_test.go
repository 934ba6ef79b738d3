package audio

import (
	"encoding/binary"
	"io"
	"math"
	"testing"

	"github.com/cbegin/onbeat-go/internal/analysis"
)

func TestTrackReaderEncodesTrackAndEnds(t *testing.T) {
	tr := &analysis.Track{SampleRate: 48000, Samples: [][2]float64{{0.5, -0.5}, {0.25, -0.25}}}
	r := newTrackReader(tr)

	buf := make([]byte, 4*bytesPerFrame)
	n, err := r.Read(buf)
	if n != len(buf) {
		t.Fatalf("read %d bytes, want %d", n, len(buf))
	}
	if err != io.EOF {
		t.Fatalf("err = %v, want io.EOF once the track is consumed", err)
	}
	want := []float32{0.5, -0.5, 0.25, -0.25, 0, 0, 0, 0}
	for i, w := range want {
		got := math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
		if got != w {
			t.Fatalf("sample %d = %v, want %v", i, got, w)
		}
	}
}

func TestTrackReaderShortBuffer(t *testing.T) {
	tr := &analysis.Track{SampleRate: 48000, Samples: make([][2]float64, 10)}
	r := newTrackReader(tr)
	n, err := r.Read(make([]byte, 7))
	if n != 0 || err != nil {
		t.Fatalf("read = %d, %v; want 0, nil", n, err)
	}
}

func TestTrackReaderNotFinishedEarly(t *testing.T) {
	tr := &analysis.Track{SampleRate: 48000, Samples: make([][2]float64, 10)}
	r := newTrackReader(tr)
	if _, err := r.Read(make([]byte, 4*bytesPerFrame)); err != nil {
		t.Fatalf("read: %v", err)
	}
	if r.Finished() {
		t.Fatalf("reader finished after 4 of 10 frames")
	}
	if _, err := r.Read(make([]byte, 6*bytesPerFrame)); err != io.EOF {
		t.Fatalf("err = %v, want io.EOF on the last frame", err)
	}
	if !r.Finished() {
		t.Fatalf("reader should be finished")
	}
}
