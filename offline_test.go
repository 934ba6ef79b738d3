package onbeat

import (
	"bytes"
	"math"
	"testing"
	"time"

	"github.com/cbegin/onbeat-go/internal/analysis"
	"github.com/cbegin/onbeat-go/internal/beat"
	"github.com/cbegin/onbeat-go/internal/event"
)

func TestEncodeWAVRoundTrip(t *testing.T) {
	src := &analysis.Track{SampleRate: 22050, Samples: [][2]float64{{0, 0}, {0.5, -0.5}, {1, -1}, {2, -2}}}
	dec, err := analysis.Decode(bytes.NewReader(EncodeWAV(src)))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if dec.SampleRate != 22050 {
		t.Fatalf("sample rate = %d, want 22050", dec.SampleRate)
	}
	if len(dec.Samples) != len(src.Samples) {
		t.Fatalf("samples = %d, want %d", len(dec.Samples), len(src.Samples))
	}
	want := [][2]float64{{0, 0}, {0.5, -0.5}, {1, -1}, {1, -1}}
	for i, f := range dec.Samples {
		for c := range f {
			if math.Abs(f[c]-want[i][c]) > 1e-3 {
				t.Fatalf("sample %d/%d = %v, want %v", i, c, f[c], want[i][c])
			}
		}
	}
}

func TestClickTrackIsDetected(t *testing.T) {
	tr := ClickTrack(44100, 4*time.Second, 120, 4)
	if got := tr.Duration(); got != 4*time.Second {
		t.Fatalf("duration = %v, want 4s", got)
	}
	s, err := analysis.Analyze(tr, analysis.DefaultParams())
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if n := s.BeatCount(); n < 7 || n > 8 {
		t.Fatalf("beats = %d, want one per click (8)", n)
	}
}

func TestSimulateTimeline(t *testing.T) {
	series, err := beat.NewSeries([]float64{2, 0, 3, 4}, []float64{2, 2, 5, 1}, 450*time.Millisecond)
	if err != nil {
		t.Fatalf("series: %v", err)
	}
	opts := DefaultSimulateOptions()
	opts.FrameStep = 100 * time.Millisecond
	got := Simulate(series, opts)

	type want struct {
		at     time.Duration
		kind   event.Kind
		beat   int
		offset int64
	}
	wants := []want{
		{500 * time.Millisecond, event.KindNewBlit, 0, 500},
		{1500 * time.Millisecond, event.KindNewBlit, 2, 400},
		{2000 * time.Millisecond, event.KindNewBlit, 3, 350},
		{2100 * time.Millisecond, event.KindSceneFinished, 0, 0},
	}
	if len(got) != len(wants) {
		t.Fatalf("events = %+v, want %d", got, len(wants))
	}
	for i, w := range wants {
		ev := got[i]
		if ev.At != w.at || ev.Event.Kind != w.kind || ev.Event.Blit.Beat != w.beat || ev.Event.Blit.OffsetMs != w.offset {
			t.Fatalf("event %d = %+v, want %+v", i, ev, w)
		}
	}
}

func TestSimulateCatchesUpAfterStall(t *testing.T) {
	series, err := beat.NewSeries([]float64{2, 0, 3, 4}, []float64{2, 2, 5, 1}, 450*time.Millisecond)
	if err != nil {
		t.Fatalf("series: %v", err)
	}
	opts := DefaultSimulateOptions()
	opts.FrameStep = 100 * time.Millisecond
	opts.Stalls = map[int]time.Duration{4: 800 * time.Millisecond}
	got := Simulate(series, opts)

	if len(got) != 4 {
		t.Fatalf("events = %+v, want 4", got)
	}
	first := got[0]
	if first.At != 1300*time.Millisecond || first.Event.Blit.Beat != 0 || first.Event.Blit.OffsetMs != 800 {
		t.Fatalf("first event = %+v, want beat 0 at 1.3s offset 800", first)
	}
	if got[1].At != 1500*time.Millisecond || got[1].Event.Blit.Beat != 2 {
		t.Fatalf("second event = %+v, want beat 2 at 1.5s", got[1])
	}
	if got[3].Event.Kind != event.KindSceneFinished {
		t.Fatalf("last event = %v, want SceneFinished", got[3].Event.Kind)
	}
}
