// Package tone plays sine tones and retunes a continuously audible tone
// without a silent gap.
package tone

import "time"

const (
	SampleRate = 44100

	DefaultChunk  = 2 * time.Second
	DefaultVolume = 0.1
	DefaultSettle = 50 * time.Millisecond
)

// Spec describes one tone handle.
type Spec struct {
	Frequency float64
	Chunk     time.Duration // length of the synthesised buffer
	Loop      bool          // repeat the chunk until stopped
	Stereo    bool
	Volume    float64 // 0..1
}

// DefaultSpec is the looping stereo tone used by the response dial.
func DefaultSpec(freq float64) Spec {
	return Spec{
		Frequency: freq,
		Chunk:     DefaultChunk,
		Loop:      true,
		Stereo:    true,
		Volume:    DefaultVolume,
	}
}

// Player starts tones on an audio backend. A started tone keeps playing on
// the audio subsystem until stopped (or, when not looping, until its chunk
// ends).
type Player interface {
	Play(s Spec) (Tone, error)
	Close()
}

type Tone interface {
	Frequency() float64
	// Stop is idempotent.
	Stop() error
}
