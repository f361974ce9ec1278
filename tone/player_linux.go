//go:build linux

package tone

import (
	"fmt"
	"sync"

	"github.com/jfreymuth/pulse"
	"github.com/jfreymuth/pulse/proto"
)

type pulsePlayer struct {
	client *pulse.Client
}

// NewPlayer connects to the PulseAudio (or PipeWire-pulse) server.
func NewPlayer() (Player, error) {
	c, err := pulse.NewClient()
	if err != nil {
		return nil, fmt.Errorf("pulse: %w", err)
	}
	return &pulsePlayer{client: c}, nil
}

func (p *pulsePlayer) Play(s Spec) (Tone, error) {
	samples := Samples(s, SampleRate)
	if len(samples) == 0 {
		return nil, fmt.Errorf("empty tone buffer for %v", s.Chunk)
	}

	pos := 0
	reader := pulse.Int16Reader(func(buf []int16) (int, error) {
		if !s.Loop && pos >= len(samples) {
			return 0, pulse.EndOfData
		}
		n := 0
		for n < len(buf) {
			if pos >= len(samples) {
				if !s.Loop {
					break
				}
				pos = 0
			}
			c := copy(buf[n:], samples[pos:])
			n += c
			pos += c
		}
		return n, nil
	})

	layout := pulse.PlaybackMono
	volumes := proto.ChannelVolumes{uint32(proto.VolumeNorm)}
	if s.Stereo {
		layout = pulse.PlaybackStereo
		volumes = proto.ChannelVolumes{uint32(proto.VolumeNorm), uint32(proto.VolumeNorm)}
	}
	stream, err := p.client.NewPlayback(reader,
		layout,
		pulse.PlaybackSampleRate(SampleRate),
		pulse.PlaybackLatency(0.05),
		pulse.PlaybackRawOption(func(c *proto.CreatePlaybackStream) {
			c.ChannelVolumes = volumes
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("pulse playback: %w", err)
	}

	t := &pulseTone{freq: s.Frequency, stream: stream}
	stream.Start()
	if !s.Loop {
		go func() {
			stream.Drain()
			t.Stop()
		}()
	}
	return t, nil
}

func (p *pulsePlayer) Close() {
	p.client.Close()
}

type pulseTone struct {
	freq   float64
	stream *pulse.PlaybackStream
	once   sync.Once
}

func (t *pulseTone) Frequency() float64 { return t.freq }

func (t *pulseTone) Stop() error {
	t.once.Do(func() {
		t.stream.Stop()
		t.stream.Close()
	})
	return t.stream.Error()
}
