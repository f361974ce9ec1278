package dial

import (
	"context"
	"fmt"
	"time"

	"pitchdial/clock"
	"pitchdial/keyboard"
	"pitchdial/log"
	"pitchdial/tone"
)

// SweepConfig drives the calibration sweep, a free run where holding a key
// keeps moving the tone.
type SweepConfig struct {
	Duration       time.Duration
	PollInterval   time.Duration
	Settle         time.Duration
	StartFrequency float64
	Step           float64
	Range          tone.Range
	Lower          string
	Raise          string
	Quit           string
	Tone           tone.Spec
}

func DefaultSweepConfig() SweepConfig {
	return SweepConfig{
		Duration:       10 * time.Second,
		PollInterval:   100 * time.Millisecond,
		Settle:         tone.DefaultSettle,
		StartFrequency: 300,
		Step:           10,
		Range:          tone.Range{Min: 100, Max: 720},
		Lower:          "z",
		Raise:          "m",
		Quit:           "q",
		Tone:           tone.DefaultSpec(300),
	}
}

// Sweep plays a tone for cfg.Duration and moves it one step per poll while
// Lower or Raise is held. It returns the frequency playing at the end.
func Sweep(ctx context.Context, c clock.Clock, kb keyboard.Provider, p tone.Player, cfg SweepConfig, obs Observer) (float64, error) {
	if obs == nil {
		obs = nopObserver{}
	}
	ctl := tone.NewController(p, c, cfg.Range, cfg.Settle, cfg.Tone)
	defer ctl.Stop()

	obs.Phase(Calibrating)
	freq, err := ctl.Start(cfg.StartFrequency)
	if err != nil {
		return 0, fmt.Errorf("starting sweep tone: %w", err)
	}
	obs.Frequency(freq)

	start := c.Now()
	for c.Now().Sub(start) < cfg.Duration {
		if err := ctx.Err(); err != nil {
			return freq, err
		}
		if err := CheckQuit(kb, cfg.Quit); err != nil {
			log.Abort("quit during sweep")
			return freq, err
		}

		st := kb.State(cfg.Lower, cfg.Raise)
		if st[cfg.Lower] {
			if freq, err = retune(ctl, freq-cfg.Step, obs); err != nil {
				return freq, err
			}
		}
		if st[cfg.Raise] {
			if freq, err = retune(ctl, freq+cfg.Step, obs); err != nil {
				return freq, err
			}
		}
		c.Sleep(cfg.PollInterval)
	}

	if err := ctl.Stop(); err != nil {
		return freq, fmt.Errorf("stopping sweep tone: %w", err)
	}
	return freq, nil
}

func retune(ctl *tone.Controller, f float64, obs Observer) (float64, error) {
	from := ctl.Frequency()
	to, err := ctl.SetFrequency(f)
	if err != nil {
		return from, fmt.Errorf("retuning sweep: %w", err)
	}
	log.ToneChange(from, to)
	obs.Frequency(to)
	return to, nil
}
