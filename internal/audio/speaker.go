package audio

import (
	"math"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/speaker"

	"github.com/cbegin/onbeat-go/internal/analysis"
)

var (
	speakerOnce sync.Once
	speakerErr  error
	speakerRate beep.SampleRate
)

func initSpeaker(sr beep.SampleRate) error {
	speakerOnce.Do(func() {
		speakerRate = sr
		speakerErr = speaker.Init(sr, sr.N(100*time.Millisecond))
	})
	return speakerErr
}

// SpeakerPlayer plays a track through beep's speaker. It is used where no
// ebiten context exists, such as the terminal front end.
type SpeakerPlayer struct {
	mu      sync.Mutex
	rate    beep.SampleRate
	stream  beep.StreamSeeker
	ctrl    *beep.Ctrl
	volume  *effects.Volume
	started bool
}

// NewSpeakerPlayer prepares t for playback. The speaker is initialised at the
// track's sample rate the first time; later tracks are resampled to it.
func NewSpeakerPlayer(t *analysis.Track) (*SpeakerPlayer, error) {
	sr := beep.SampleRate(t.SampleRate)
	if err := initSpeaker(sr); err != nil {
		return nil, err
	}
	stream := t.Streamer()
	var s beep.Streamer = stream
	if speakerRate != sr {
		s = beep.Resample(4, sr, speakerRate, stream)
	}
	ctrl := &beep.Ctrl{Streamer: s, Paused: true}
	return &SpeakerPlayer{
		rate:   sr,
		stream: stream,
		ctrl:   ctrl,
		volume: &effects.Volume{Streamer: ctrl, Base: 2},
	}, nil
}

func (p *SpeakerPlayer) Play() {
	p.mu.Lock()
	defer p.mu.Unlock()
	speaker.Lock()
	p.ctrl.Paused = false
	speaker.Unlock()
	if !p.started {
		p.started = true
		speaker.Play(p.volume)
	}
}

func (p *SpeakerPlayer) Pause() {
	speaker.Lock()
	p.ctrl.Paused = true
	speaker.Unlock()
}

func (p *SpeakerPlayer) Resume() { p.Play() }

func (p *SpeakerPlayer) IsPlaying() bool {
	speaker.Lock()
	defer speaker.Unlock()
	return p.started && !p.ctrl.Paused && p.stream.Position() < p.stream.Len()
}

// SetVolume maps 0..1 onto beep's logarithmic volume; 0 mutes.
func (p *SpeakerPlayer) SetVolume(v float64) {
	speaker.Lock()
	defer speaker.Unlock()
	if v <= 0 {
		p.volume.Silent = true
		return
	}
	p.volume.Silent = false
	p.volume.Volume = math.Log2(math.Min(v, 1))
}

// Position is how far into the track playback has read.
func (p *SpeakerPlayer) Position() time.Duration {
	speaker.Lock()
	defer speaker.Unlock()
	return p.rate.D(p.stream.Position())
}

func (p *SpeakerPlayer) Stop() error {
	speaker.Lock()
	p.ctrl.Paused = true
	p.ctrl.Streamer = nil
	speaker.Unlock()
	return nil
}
