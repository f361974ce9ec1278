package dial

import (
	"context"
	"errors"
	"testing"

	"pitchdial/clock"
	"pitchdial/keyboard"
	"pitchdial/tone"
)

type recordingObserver struct {
	phases []Phase
	freqs  []float64
}

func (o *recordingObserver) Phase(p Phase)         { o.phases = append(o.phases, p) }
func (o *recordingObserver) Frequency(hz float64) { o.freqs = append(o.freqs, hz) }

func newSweepRig() (*clock.Fake, *keyboard.Fake, *tone.FakePlayer) {
	c := clock.NewFake(epoch)
	return c, keyboard.NewFake(c), tone.NewFakePlayer(c)
}

func TestSweepRaisesWhileHeld(t *testing.T) {
	c, kb, p := newSweepRig()
	kb.Press("m")
	kb.ReleaseAt(msec(1000), "m")
	obs := &recordingObserver{}

	got, err := Sweep(context.Background(), c, kb, p, DefaultSweepConfig(), obs)
	if err != nil {
		t.Fatal(err)
	}
	// Each held poll costs settle + poll, so seven steps fit in the first second.
	if got != 370 {
		t.Errorf("final = %v, want 370", got)
	}
	if elapsed := c.Since(epoch); elapsed < DefaultSweepConfig().Duration {
		t.Errorf("sweep returned after %v", elapsed)
	}
	if p.Active() != 0 {
		t.Error("sweep tone left playing")
	}
	if len(obs.phases) != 1 || obs.phases[0] != Calibrating {
		t.Errorf("phases = %v", obs.phases)
	}
	if len(obs.freqs) != 8 || obs.freqs[0] != 300 {
		t.Errorf("observed freqs = %v", obs.freqs)
	}
}

func TestSweepClampsAtFloor(t *testing.T) {
	c, kb, p := newSweepRig()
	kb.Press("z")

	got, err := Sweep(context.Background(), c, kb, p, DefaultSweepConfig(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if got != 100 {
		t.Errorf("final = %v, want 100", got)
	}
	for _, s := range p.Played() {
		if s.Frequency < 100 || s.Frequency > 720 {
			t.Fatalf("played %v Hz outside [100,720]", s.Frequency)
		}
	}
}

func TestSweepQuit(t *testing.T) {
	c, kb, p := newSweepRig()
	kb.TapAt(msec(2000), "q", msec(50))

	_, err := Sweep(context.Background(), c, kb, p, DefaultSweepConfig(), nil)
	if !errors.Is(err, ErrQuit) {
		t.Fatalf("err = %v, want ErrQuit", err)
	}
	if p.Active() != 0 {
		t.Error("sweep tone left playing after quit")
	}
}
