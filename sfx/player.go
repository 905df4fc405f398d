package sfx

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/speaker"
)

var (
	// ErrAudioUnavailable is returned when the speaker could not be opened.
	ErrAudioUnavailable = errors.New("audio unavailable")
	// ErrUnknownSound is returned for keys without a loaded buffer.
	ErrUnknownSound = errors.New("unknown sound")
)

// DefaultSampleRate is the speaker rate every buffer is resampled to.
const DefaultSampleRate beep.SampleRate = 44100

// BeepPlayer plays decoded buffers through the beep speaker.
type BeepPlayer struct {
	mu      sync.RWMutex
	format  beep.Format
	buffers map[string]*beep.Buffer
	ready   bool
}

// NewBeepPlayer opens the speaker. When that fails audio is disabled and
// every Start returns ErrAudioUnavailable.
func NewBeepPlayer(sampleRate beep.SampleRate) *BeepPlayer {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	p := &BeepPlayer{
		format:  beep.Format{SampleRate: sampleRate, NumChannels: 2, Precision: 2},
		buffers: make(map[string]*beep.Buffer),
	}
	if err := speaker.Init(sampleRate, sampleRate.N(time.Second/10)); err != nil {
		slog.Warn("BeepPlayer: audio disabled, failed to initialize speaker", "error", err)
		return p
	}
	p.ready = true
	return p
}

// Format returns the speaker format buffers must be decoded to.
func (p *BeepPlayer) Format() beep.Format {
	return p.format
}

// Add registers a decoded buffer under key.
func (p *BeepPlayer) Add(key string, buffer *beep.Buffer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.buffers[key] = buffer
}

// Start begins playback of key on the speaker mixer.
func (p *BeepPlayer) Start(key string, opts StartOptions) (Voice, error) {
	if !p.ready {
		return nil, ErrAudioUnavailable
	}
	p.mu.RLock()
	buffer, ok := p.buffers[key]
	p.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSound, key)
	}

	var streamer beep.Streamer = buffer.Streamer(0, buffer.Len())
	if opts.Loop {
		streamer = beep.Loop(-1, buffer.Streamer(0, buffer.Len()))
	}
	volume := &effects.Volume{
		Streamer: streamer,
		Base:     2,
		Volume:   gainToVolume(opts.Volume),
		Silent:   opts.Muted,
	}

	v := &beepVoice{
		ctrl: &beep.Ctrl{Streamer: volume},
		done: make(chan struct{}),
	}
	speaker.Play(beep.Seq(v.ctrl, beep.Callback(v.finish)))
	return v, nil
}

// Close releases the speaker.
func (p *BeepPlayer) Close() {
	if p.ready {
		speaker.Clear()
	}
}

type beepVoice struct {
	ctrl *beep.Ctrl
	done chan struct{}
	once sync.Once
}

func (v *beepVoice) Stop() {
	speaker.Lock()
	v.ctrl.Streamer = nil
	speaker.Unlock()
	v.finish()
}

func (v *beepVoice) Done() <-chan struct{} {
	return v.done
}

func (v *beepVoice) finish() {
	v.once.Do(func() {
		close(v.done)
	})
}

// gainToVolume converts a linear gain in (0, 1] to effects.Volume's base-2 exponent.
func gainToVolume(gain float64) float64 {
	if gain <= 0 || gain > 1 {
		gain = DefaultVolume
	}
	return math.Log2(gain)
}
