package onbeat

import (
	"encoding/binary"
	"math"
	"time"

	"github.com/cbegin/onbeat-go/internal/analysis"
	"github.com/cbegin/onbeat-go/internal/beat"
	"github.com/cbegin/onbeat-go/internal/event"
	"github.com/cbegin/onbeat-go/internal/scene"
	"github.com/cbegin/onbeat-go/internal/timer"
)

// DefaultFrameStep is one frame at 60 fps.
const DefaultFrameStep = 16 * time.Millisecond

type SimulateOptions struct {
	LeadInMs  int64
	SkewMs    int64
	FrameStep time.Duration
	// Stalls delays the given frame numbers by extra time, as a slow render
	// or a dragged window would.
	Stalls map[int]time.Duration
}

func DefaultSimulateOptions() SimulateOptions {
	return SimulateOptions{
		LeadInMs:  scene.DefaultLeadInMs,
		SkewMs:    scene.DefaultSkewMs,
		FrameStep: DefaultFrameStep,
	}
}

// TimedEvent is an event with the clock time, since start, of the frame
// that posted it.
type TimedEvent struct {
	At    time.Duration
	Frame int
	Event event.Event
}

// Simulate drives a rhythm scene over series with a manual clock until it
// finishes and returns every event it posted.
func Simulate(series beat.Series, opts SimulateOptions) []TimedEvent {
	if opts.FrameStep <= 0 {
		opts.FrameStep = DefaultFrameStep
	}
	origin := time.Unix(0, 0)
	clock := timer.NewManualClock(origin)
	queue := event.NewQueue()
	r := scene.NewRhythm(RhythmSceneName, series, queue, scene.Options{
		Clock:    clock,
		LeadInMs: opts.LeadInMs,
		SkewMs:   opts.SkewMs,
		Logger:   Logger(),
	})
	r.StartScene()

	// Each frame advances the clock, so the scene is always done after its
	// last beat tick plus a frame; the limit only bounds broken inputs.
	limit := int((time.Duration(series.Len()+2)*time.Duration(r.Interval())*time.Millisecond)/opts.FrameStep) + 2
	for _, d := range opts.Stalls {
		limit += int(d/opts.FrameStep) + 1
	}

	var out []TimedEvent
	for frame := 0; frame <= limit; frame++ {
		clock.Advance(opts.FrameStep + opts.Stalls[frame])
		r.OnFrame()
		at := clock.Now().Sub(origin)
		for _, ev := range queue.Drain() {
			out = append(out, TimedEvent{At: at, Frame: frame, Event: ev})
			if ev.Kind == event.KindSceneFinished {
				return out
			}
		}
	}
	return out
}

// ClickTrack renders a stereo metronome: a short decaying tone every beat,
// with the first beat of each bar louder. The first click sits half a beat
// in so the analyser has history before it.
func ClickTrack(sampleRate int, length time.Duration, bpm float64, beatsPerBar int) *analysis.Track {
	if beatsPerBar < 1 {
		beatsPerBar = 4
	}
	frames := int(float64(sampleRate) * length.Seconds())
	t := &analysis.Track{SampleRate: sampleRate, Samples: make([][2]float64, frames)}
	if bpm <= 0 || frames == 0 {
		return t
	}
	period := float64(sampleRate) * 60 / bpm
	clickLen := sampleRate / 100
	for n := 0; ; n++ {
		start := int(period/2 + float64(n)*period)
		if start >= frames {
			break
		}
		amp := 0.5
		if n%beatsPerBar == 0 {
			amp = 0.9
		}
		for i := 0; i < clickLen && start+i < frames; i++ {
			env := amp * math.Exp(-float64(i)/float64(clickLen)*5)
			v := env * math.Sin(2*math.Pi*1000*float64(i)/float64(sampleRate))
			t.Samples[start+i] = [2]float64{v, v}
		}
	}
	return t
}

// EncodeWAV writes t as a 16-bit stereo PCM WAV file.
func EncodeWAV(t *analysis.Track) []byte {
	const channels, bytesPerSample = 2, 2
	dataSize := len(t.Samples) * channels * bytesPerSample
	byteRate := t.SampleRate * channels * bytesPerSample
	blockAlign := channels * bytesPerSample
	out := make([]byte, 44+dataSize)
	copy(out[0:], []byte("RIFF"))
	binary.LittleEndian.PutUint32(out[4:], uint32(36+dataSize))
	copy(out[8:], []byte("WAVE"))
	copy(out[12:], []byte("fmt "))
	binary.LittleEndian.PutUint32(out[16:], 16)
	binary.LittleEndian.PutUint16(out[20:], 1)
	binary.LittleEndian.PutUint16(out[22:], channels)
	binary.LittleEndian.PutUint32(out[24:], uint32(t.SampleRate))
	binary.LittleEndian.PutUint32(out[28:], uint32(byteRate))
	binary.LittleEndian.PutUint16(out[32:], uint16(blockAlign))
	binary.LittleEndian.PutUint16(out[34:], 16)
	copy(out[36:], []byte("data"))
	binary.LittleEndian.PutUint32(out[40:], uint32(dataSize))
	off := 44
	for _, f := range t.Samples {
		for _, v := range f {
			binary.LittleEndian.PutUint16(out[off:], uint16(pcm16(v)))
			off += 2
		}
	}
	return out
}

func pcm16(v float64) int16 {
	if v > 1 {
		v = 1
	} else if v < -1 {
		v = -1
	}
	return int16(math.Round(v * 32767))
}
