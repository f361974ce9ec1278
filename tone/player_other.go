//go:build !linux

package tone

import (
	"fmt"
	"sync"

	"github.com/gen2brain/malgo"
)

type malgoPlayer struct {
	ctx *malgo.AllocatedContext
}

// NewPlayer initialises a miniaudio context. Each tone gets its own playback
// device so two tones can overlap during a retune.
func NewPlayer() (Player, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("malgo: %w", err)
	}
	return &malgoPlayer{ctx: ctx}, nil
}

func (p *malgoPlayer) Play(s Spec) (Tone, error) {
	data := Bytes(Samples(s, SampleRate))
	if len(data) == 0 {
		return nil, fmt.Errorf("empty tone buffer for %v", s.Chunk)
	}

	channels := 1
	if s.Stereo {
		channels = 2
	}
	bytesPerFrame := 2 * channels

	config := malgo.DefaultDeviceConfig(malgo.Playback)
	config.Playback.Format = malgo.FormatS16
	config.Playback.Channels = uint32(channels)
	config.SampleRate = SampleRate

	t := &malgoTone{freq: s.Frequency, finished: make(chan struct{}), stopped: make(chan struct{})}
	var finishOnce sync.Once
	pos := 0
	callbacks := malgo.DeviceCallbacks{
		Data: func(pOutput, _ []byte, frameCount uint32) {
			want := int(frameCount) * bytesPerFrame
			n := 0
			for n < want {
				if pos >= len(data) {
					if !s.Loop {
						break
					}
					pos = 0
				}
				c := copy(pOutput[n:want], data[pos:])
				n += c
				pos += c
			}
			// Zero-fill remainder
			for i := n; i < want; i++ {
				pOutput[i] = 0
			}
			if !s.Loop && pos >= len(data) {
				finishOnce.Do(func() { close(t.finished) })
			}
		},
	}

	device, err := malgo.InitDevice(p.ctx.Context, config, callbacks)
	if err != nil {
		return nil, fmt.Errorf("malgo device: %w", err)
	}
	t.device = device
	if err := device.Start(); err != nil {
		device.Uninit()
		return nil, fmt.Errorf("malgo start: %w", err)
	}
	if !s.Loop {
		go func() {
			select {
			case <-t.finished:
				t.Stop()
			case <-t.stopped:
			}
		}()
	}
	return t, nil
}

func (p *malgoPlayer) Close() {
	p.ctx.Uninit()
	p.ctx.Free()
}

type malgoTone struct {
	freq     float64
	device   *malgo.Device
	finished chan struct{}
	stopped  chan struct{}
	once     sync.Once
	err      error
}

func (t *malgoTone) Frequency() float64 { return t.freq }

func (t *malgoTone) Stop() error {
	t.once.Do(func() {
		t.err = t.device.Stop()
		t.device.Uninit()
		close(t.stopped)
	})
	return t.err
}
