// Package keyboard samples named keys. Backends push press/release edges into
// a shared Buffer; the response loop reads it through Provider.
package keyboard

import (
	"context"
	"errors"
	"time"
)

var (
	ErrClosed     = errors.New("keyboard: provider closed")
	ErrScriptDone = errors.New("keyboard: scripted input exhausted")
)

// Provider is the input side of a trial.
type Provider interface {
	// State reports, for each key, whether it is held or has been pressed
	// since the previous State call that included it.
	State(keys ...string) map[string]bool
	// Sample is State split into its two halves, for callers doing their
	// own edge detection. It clears the same latches State does.
	Sample(keys ...string) map[string]KeyState
	// WaitForFirst blocks until one of keys is pressed (or was pressed and is
	// still buffered) and consumes it. Event.RT is relative to the last
	// ResetClock.
	WaitForFirst(ctx context.Context, keys ...string) (Event, error)
	ResetClock()
	// Drain discards buffered events and latched presses.
	Drain()
	// Events returns buffered presses in arrival order. Presses whose key is
	// still down are only included when includeUnreleased is set.
	Events(includeUnreleased bool) []Event
	Close() error
}

type Event struct {
	Key      string
	At       time.Time
	RT       time.Duration // since the last ResetClock; negative when earlier
	Duration time.Duration // hold time, zero while unreleased
	Released bool
}

// KeyState is one key at sampling time.
type KeyState struct {
	Held    bool // down right now
	Pressed bool // went down since the previous sample
}

// Names of the non-letter keys. Letters are their lowercase rune.
const (
	KeyUp     = "up"
	KeyDown   = "down"
	KeyLeft   = "left"
	KeyRight  = "right"
	KeySpace  = "space"
	KeyReturn = "return"
	KeyEscape = "escape"
)
