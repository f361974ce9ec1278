package main

import (
	"fmt"
	"os"
	"runtime"

	"pitchdial/clock"
	"pitchdial/dial"
	"pitchdial/display"
	"pitchdial/keyboard"
	"pitchdial/log"
	"pitchdial/tone"
	"pitchdial/trigger"
)

type rigOptions struct {
	Input       string
	Keys        []string
	TriggerPort string
	TriggerBaud int
}

// rig is the hardware behind one session.
type rig struct {
	clock     clock.Clock
	kb        keyboard.Provider
	inputName string
	player    tone.Player
	tui       *display.TUI
	serial    *trigger.Serial
	emitter   *trigger.Emitter
}

func openRig(o rigOptions) (*rig, error) {
	r := &rig{clock: clock.Real{}}

	kb, name, err := openKeyboard(o.Input, r.clock, o.Keys)
	if err != nil {
		return nil, err
	}
	r.kb, r.inputName = kb, name

	r.player, err = tone.NewPlayer()
	if err != nil {
		kb.Close()
		return nil, fmt.Errorf("failed to open audio: %w", err)
	}

	if o.TriggerPort != "" {
		r.serial, err = trigger.OpenSerial(o.TriggerPort, o.TriggerBaud)
		if err != nil {
			// Markers are optional; the trial still runs without them.
			log.Warnf("trigger port unavailable: %v", err)
			fmt.Fprintf(os.Stderr, "Warning: %v (continuing without sync markers)\n", err)
		}
	}
	if r.serial != nil {
		r.emitter = trigger.NewEmitter(r.serial)
	} else {
		r.emitter = trigger.NewEmitter(nil)
	}

	r.tui = display.NewTUI(os.Stdout)
	return r, nil
}

func (r *rig) Close() {
	if r.tui != nil {
		if err := r.tui.Close(); err != nil {
			log.Errorf("TUI error: %v", err)
		}
		r.tui = nil
	}
	if r.serial != nil {
		r.serial.Close()
		r.serial = nil
	}
	if r.player != nil {
		r.player.Close()
		r.player = nil
	}
	if r.kb != nil {
		r.kb.Close()
		r.kb = nil
	}
}

func openKeyboard(backend string, c clock.Clock, keys []string) (keyboard.Provider, string, error) {
	switch backend {
	case "terminal":
		kb, err := keyboard.NewTerminal(c)
		if err != nil {
			return nil, "", fmt.Errorf("failed to open terminal input: %w", err)
		}
		return kb, "terminal", nil

	case "evdev", "hotkey":
		kb, err := keyboard.New(c, keys)
		if err != nil {
			return nil, "", fmt.Errorf("failed to open %s input: %w", backend, err)
		}
		return kb, backend, nil

	case "auto", "":
		kb, err := keyboard.New(c, keys)
		if err == nil {
			return kb, nativeInput(), nil
		}
		log.Warnf("native key input unavailable, using terminal: %v", err)
		tkb, terr := keyboard.NewTerminal(c)
		if terr != nil {
			return nil, "", fmt.Errorf("no key input available: %w", err)
		}
		return tkb, "terminal", nil
	}
	return nil, "", fmt.Errorf("unknown input backend %q (use auto, evdev, hotkey or terminal)", backend)
}

func nativeInput() string {
	if runtime.GOOS == "linux" {
		return "evdev"
	}
	return "hotkey"
}

// tuiObserver mirrors dial progress into the TUI header. The frequency is
// only shown when calibrating; during a trial it would give the answer away.
type tuiObserver struct {
	tui           *display.TUI
	showFrequency bool

	phase dial.Phase
	freq  float64
}

func (o *tuiObserver) Phase(p dial.Phase) {
	o.phase = p
	o.render()
}

func (o *tuiObserver) Frequency(hz float64) {
	o.freq = hz
	if o.showFrequency {
		o.render()
	}
}

func (o *tuiObserver) render() {
	if o.showFrequency {
		o.tui.SetHeader("pitchdial %s | %s | %.0f Hz", version, o.phase, o.freq)
		return
	}
	o.tui.SetHeader("pitchdial %s | %s", version, o.phase)
}
