package tone

import (
	"fmt"
	"time"

	"pitchdial/clock"
)

// Range bounds the frequencies a Controller will play.
type Range struct {
	Min, Max float64
}

func (r Range) Clamp(f float64) float64 {
	return min(r.Max, max(r.Min, f))
}

// Controller owns the currently audible tone. Retuning starts the new tone
// first, waits the settle window, then stops the old one, so for a moment
// both are playing and there is never a moment where neither is.
type Controller struct {
	player Player
	clock  clock.Clock
	rng    Range
	settle time.Duration
	spec   Spec

	current Tone
	freq    float64
	changes int
}

// NewController uses spec as the template for every tone it starts; the
// frequency is overwritten and Loop forced on.
func NewController(p Player, c clock.Clock, rng Range, settle time.Duration, spec Spec) *Controller {
	spec.Loop = true
	return &Controller{player: p, clock: c, rng: rng, settle: settle, spec: spec}
}

func (c *Controller) Frequency() float64 { return c.freq }

func (c *Controller) Range() Range { return c.rng }

// Changes counts retunes since the controller was created, not counting
// the initial tone.
func (c *Controller) Changes() int { return c.changes }

// Start plays the initial tone. Calling it while a tone is playing retunes.
func (c *Controller) Start(f float64) (float64, error) {
	return c.SetFrequency(f)
}

// SetFrequency clamps f, starts a tone at it and retires the previous one.
// It returns the frequency actually playing.
func (c *Controller) SetFrequency(f float64) (float64, error) {
	f = c.rng.Clamp(f)
	spec := c.spec
	spec.Frequency = f
	next, err := c.player.Play(spec)
	if err != nil {
		return c.freq, fmt.Errorf("playing %.0f Hz: %w", f, err)
	}

	prev := c.current
	c.current = next
	c.freq = f
	if prev == nil {
		return f, nil
	}
	c.changes++

	c.clock.Sleep(c.settle)
	if err := prev.Stop(); err != nil {
		return f, fmt.Errorf("stopping %.0f Hz: %w", prev.Frequency(), err)
	}
	return f, nil
}

// Stop halts the current tone.
func (c *Controller) Stop() error {
	if c.current == nil {
		return nil
	}
	t := c.current
	c.current = nil
	if err := t.Stop(); err != nil {
		return fmt.Errorf("stopping %.0f Hz: %w", t.Frequency(), err)
	}
	return nil
}
