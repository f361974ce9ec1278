package tone

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"pitchdial/clock"
)

var epoch = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func newTestController(rng Range) (*Controller, *FakePlayer, *clock.Fake) {
	c := clock.NewFake(epoch)
	p := NewFakePlayer(c)
	return NewController(p, c, rng, DefaultSettle, DefaultSpec(0)), p, c
}

func TestClampToBounds(t *testing.T) {
	ctl, _, _ := newTestController(Range{Min: 200, Max: 700})
	cases := []struct{ in, want float64 }{
		{450, 450}, {150, 200}, {200, 200}, {750, 700}, {700, 700},
	}
	for _, tc := range cases {
		got, err := ctl.SetFrequency(tc.in)
		if err != nil {
			t.Fatal(err)
		}
		if got != tc.want || ctl.Frequency() != tc.want {
			t.Errorf("SetFrequency(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestRandomWalkStaysInBounds(t *testing.T) {
	rng := Range{Min: 200, Max: 700}
	ctl, _, _ := newTestController(rng)
	if _, err := ctl.SetFrequency(450); err != nil {
		t.Fatal(err)
	}
	r := rand.New(rand.NewSource(1))
	for i := 0; i < 500; i++ {
		step := 50.0
		if r.Intn(2) == 0 {
			step = -step
		}
		want := rng.Clamp(ctl.Frequency() + step)
		got, err := ctl.SetFrequency(ctl.Frequency() + step)
		if err != nil {
			t.Fatal(err)
		}
		if got < rng.Min || got > rng.Max || got != want {
			t.Fatalf("step %d: got %v, want %v", i, got, want)
		}
	}
}

func TestRetuneOverlapsWithoutGap(t *testing.T) {
	ctl, p, c := newTestController(Range{Min: 200, Max: 700})
	if _, err := ctl.SetFrequency(450); err != nil {
		t.Fatal(err)
	}
	if _, err := ctl.SetFrequency(500); err != nil {
		t.Fatal(err)
	}
	if _, err := ctl.SetFrequency(450); err != nil {
		t.Fatal(err)
	}
	if err := ctl.Stop(); err != nil {
		t.Fatal(err)
	}

	tr := p.Transitions()
	if len(tr) != 6 {
		t.Fatalf("got %d transitions: %+v", len(tr), tr)
	}
	// start 450, start 500, stop 450, start 450, stop 500, stop 450
	for i, tn := range tr[:len(tr)-1] {
		if tn.Active == 0 {
			t.Errorf("transition %d left no tone playing", i)
		}
	}
	if !tr[1].Started || tr[2].Started || tr[2].Frequency != 450 {
		t.Fatalf("old tone not stopped after new start: %+v", tr[:3])
	}
	if gap := tr[2].At.Sub(tr[1].At); gap != DefaultSettle {
		t.Errorf("overlap = %v, want %v", gap, DefaultSettle)
	}
	if p.MaxActive() != 2 {
		t.Errorf("max active = %d, want 2", p.MaxActive())
	}
	if p.Active() != 0 {
		t.Errorf("active after Stop = %d", p.Active())
	}
	if c.Since(epoch) != 2*DefaultSettle {
		t.Errorf("clock advanced %v, want %v", c.Since(epoch), 2*DefaultSettle)
	}
}

func TestFirstToneHasNoSettle(t *testing.T) {
	ctl, _, c := newTestController(Range{Min: 100, Max: 720})
	if _, err := ctl.SetFrequency(300); err != nil {
		t.Fatal(err)
	}
	if c.Since(epoch) != 0 {
		t.Fatalf("first tone waited %v", c.Since(epoch))
	}
}

func TestPlayErrorKeepsCurrentTone(t *testing.T) {
	ctl, p, _ := newTestController(Range{Min: 200, Max: 700})
	if _, err := ctl.SetFrequency(450); err != nil {
		t.Fatal(err)
	}
	boom := errors.New("device gone")
	p.FailWith(boom)
	got, err := ctl.SetFrequency(500)
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
	if got != 450 || p.Active() != 1 {
		t.Fatalf("freq=%v active=%d after failed retune", got, p.Active())
	}
}

func TestTonesUseTemplate(t *testing.T) {
	ctl, p, _ := newTestController(Range{Min: 200, Max: 700})
	ctl.SetFrequency(450)
	s := p.Played()[0]
	if !s.Loop || !s.Stereo || s.Volume != DefaultVolume || s.Chunk != DefaultChunk {
		t.Fatalf("unexpected spec %+v", s)
	}
}
