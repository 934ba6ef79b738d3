package audio

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"sync"
	"sync/atomic"
	"time"

	ebitaudio "github.com/hajimehoshi/ebiten/v2/audio"

	"github.com/cbegin/onbeat-go/internal/analysis"
)

const bytesPerFrame = 8 // two little-endian float32 channels

// trackReader streams a decoded track as interleaved float32 PCM. Past the
// last frame it pads with silence and reports io.EOF.
type trackReader struct {
	mu       sync.Mutex
	samples  [][2]float64
	pos      int
	finished atomic.Bool
}

func newTrackReader(t *analysis.Track) *trackReader {
	return &trackReader{samples: t.Samples}
}

func (r *trackReader) Read(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	frames := len(p) / bytesPerFrame
	if frames == 0 {
		return 0, nil
	}
	for i := 0; i < frames; i++ {
		var f [2]float64
		if r.pos < len(r.samples) {
			f = r.samples[r.pos]
			r.pos++
		}
		off := i * bytesPerFrame
		binary.LittleEndian.PutUint32(p[off:], math.Float32bits(float32(f[0])))
		binary.LittleEndian.PutUint32(p[off+4:], math.Float32bits(float32(f[1])))
	}
	n := frames * bytesPerFrame
	if r.pos >= len(r.samples) {
		r.finished.Store(true)
		return n, io.EOF
	}
	return n, nil
}

// Finished reports whether every frame of the track has been read.
func (r *trackReader) Finished() bool { return r.finished.Load() }

func (r *trackReader) Close() error { return nil }

// EbitenPlayer plays a track through ebiten's audio context.
type EbitenPlayer struct {
	player *ebitaudio.Player
	reader *trackReader
}

var (
	audioContextOnce sync.Once
	audioContext     *ebitaudio.Context
	audioSampleRate  int
)

// ebiten allows one audio context per process, so every track must share
// the rate the first one opened it with.
func sharedAudioContext(sampleRate int) (*ebitaudio.Context, error) {
	audioContextOnce.Do(func() {
		audioSampleRate = sampleRate
		audioContext = ebitaudio.NewContext(sampleRate)
	})
	if audioSampleRate != sampleRate {
		return nil, fmt.Errorf("audio context runs at %d Hz, track is %d Hz", audioSampleRate, sampleRate)
	}
	return audioContext, nil
}

// NewTrackPlayer plays t at the track's own sample rate. Resample the
// track first when the context is already open at another rate.
func NewTrackPlayer(t *analysis.Track) (*EbitenPlayer, error) {
	ctx, err := sharedAudioContext(t.SampleRate)
	if err != nil {
		return nil, err
	}
	reader := newTrackReader(t)
	pl, err := ctx.NewPlayerF32(reader)
	if err != nil {
		return nil, err
	}
	return &EbitenPlayer{player: pl, reader: reader}, nil
}

func (p *EbitenPlayer) Play()   { p.player.Play() }
func (p *EbitenPlayer) Pause()  { p.player.Pause() }
func (p *EbitenPlayer) Resume() { p.player.Play() }

func (p *EbitenPlayer) IsPlaying() bool { return p.player.IsPlaying() }

// Finished reports whether the whole track has been handed to the mixer.
func (p *EbitenPlayer) Finished() bool { return p.reader.Finished() }

// SetVolume sets the output volume, 0 (mute) to 1.
func (p *EbitenPlayer) SetVolume(v float64) { p.player.SetVolume(v) }

// Position is what the listener hears, behind what has been read.
func (p *EbitenPlayer) Position() time.Duration {
	return p.player.Position()
}

func (p *EbitenPlayer) Stop() error {
	p.player.Pause()
	if err := p.player.Close(); err != nil {
		return err
	}
	return p.reader.Close()
}
