package tone

import (
	"sync"
	"time"

	"pitchdial/clock"
)

// Transition is one start or stop recorded by FakePlayer.
type Transition struct {
	At        time.Time
	Frequency float64
	Started   bool
	Active    int // tones playing right after this transition
}

// FakePlayer records tone lifecycles against a clock instead of making sound.
type FakePlayer struct {
	clock clock.Clock

	mu          sync.Mutex
	err         error
	active      int
	maxActive   int
	played      []Spec
	transitions []Transition
}

func NewFakePlayer(c clock.Clock) *FakePlayer {
	return &FakePlayer{clock: c}
}

// FailWith makes subsequent Play calls return err.
func (f *FakePlayer) FailWith(err error) {
	f.mu.Lock()
	f.err = err
	f.mu.Unlock()
}

func (f *FakePlayer) Play(s Spec) (Tone, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.active++
	f.maxActive = max(f.maxActive, f.active)
	f.played = append(f.played, s)
	f.transitions = append(f.transitions, Transition{At: f.clock.Now(), Frequency: s.Frequency, Started: true, Active: f.active})
	return &fakeTone{player: f, freq: s.Frequency}, nil
}

func (f *FakePlayer) Close() {}

func (f *FakePlayer) Active() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.active
}

func (f *FakePlayer) MaxActive() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.maxActive
}

func (f *FakePlayer) Played() []Spec {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Spec(nil), f.played...)
}

func (f *FakePlayer) Transitions() []Transition {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Transition(nil), f.transitions...)
}

type fakeTone struct {
	player  *FakePlayer
	freq    float64
	stopped bool
}

func (t *fakeTone) Frequency() float64 { return t.freq }

func (t *fakeTone) Stop() error {
	f := t.player
	f.mu.Lock()
	defer f.mu.Unlock()
	if t.stopped {
		return nil
	}
	t.stopped = true
	f.active--
	f.transitions = append(f.transitions, Transition{At: f.clock.Now(), Frequency: t.freq, Active: f.active})
	return nil
}
