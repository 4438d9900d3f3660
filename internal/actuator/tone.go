package actuator

import (
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/ebitengine/oto/v3"
)

const (
	toneSampleRate = 44100
	// 882 Hz divides the sample rate evenly, so one period loops without
	// a phase discontinuity click.
	toneFrequency = 882
	toneAmplitude = 8191
)

// Global audio context singleton. oto contexts cannot be closed, so one
// is shared for the life of the process.
var (
	toneCtx     *oto.Context
	toneCtxOnce sync.Once
	toneCtxErr  error
)

func initToneContext() error {
	toneCtxOnce.Do(func() {
		op := &oto.NewContextOptions{
			SampleRate:   toneSampleRate,
			ChannelCount: 1,
			Format:       oto.FormatSignedInt16LE,
		}

		ctx, readyChan, err := oto.NewContext(op)
		if err != nil {
			toneCtxErr = fmt.Errorf("failed to initialize audio context: %w", err)
			return
		}

		// Wait for the hardware audio devices to be ready
		<-readyChan

		toneCtx = ctx
	})
	return toneCtxErr
}

// Tone is a Pin backed by the sound device. Setting it high starts a
// looped square wave; setting it low stops playback. The band's sounder
// is a piezo buzzer and this is the desktop stand-in.
type Tone struct {
	mu     sync.Mutex
	on     bool
	player *oto.Player
	pcm    []byte
}

// NewTone initializes the audio context and returns a silent tone pin.
// Fails when no audio device is available; callers should fall back to a
// logged pin rather than treat that as fatal.
func NewTone() (*Tone, error) {
	if err := initToneContext(); err != nil {
		return nil, err
	}
	return &Tone{pcm: squareWave()}, nil
}

// Set drives the sounder.
func (t *Tone) Set(on bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if on == t.on {
		return
	}
	t.on = on

	if on {
		t.player = toneCtx.NewPlayer(&loopReader{data: t.pcm})
		t.player.Play()
		return
	}
	if t.player != nil {
		t.player.Pause()
		t.player.Close()
		t.player = nil
	}
}

// Close silences the pin. Implements io.Closer.
func (t *Tone) Close() error {
	t.Set(false)
	return nil
}

// squareWave renders one full period of the tone as 16-bit little-endian
// mono PCM.
func squareWave() []byte {
	const samplesPerPeriod = toneSampleRate / toneFrequency
	buf := make([]byte, samplesPerPeriod*2)
	for i := 0; i < samplesPerPeriod; i++ {
		v := int16(toneAmplitude)
		if i >= samplesPerPeriod/2 {
			v = -toneAmplitude
		}
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(v))
	}
	return buf
}

// loopReader replays its data forever. oto stops pulling when the player
// is paused, so the loop never needs a stop condition of its own.
type loopReader struct {
	data []byte
	pos  int
}

func (r *loopReader) Read(p []byte) (int, error) {
	n := 0
	for n < len(p) {
		c := copy(p[n:], r.data[r.pos:])
		n += c
		r.pos += c
		if r.pos == len(r.data) {
			r.pos = 0
		}
	}
	return n, nil
}
