//go:build !linux

package keyboard

import (
	"fmt"
	"sync"

	"golang.design/x/hotkey"

	"pitchdial/clock"
)

var hotkeyCodes = map[string]hotkey.Key{
	KeyUp: hotkey.KeyUp, KeyDown: hotkey.KeyDown, KeyLeft: hotkey.KeyLeft, KeyRight: hotkey.KeyRight,
	KeySpace: hotkey.KeySpace, KeyReturn: hotkey.KeyReturn, KeyEscape: hotkey.KeyEscape,
	"a": hotkey.KeyA, "b": hotkey.KeyB, "c": hotkey.KeyC, "d": hotkey.KeyD, "e": hotkey.KeyE,
	"f": hotkey.KeyF, "g": hotkey.KeyG, "h": hotkey.KeyH, "i": hotkey.KeyI, "j": hotkey.KeyJ,
	"k": hotkey.KeyK, "l": hotkey.KeyL, "m": hotkey.KeyM, "n": hotkey.KeyN, "o": hotkey.KeyO,
	"p": hotkey.KeyP, "q": hotkey.KeyQ, "r": hotkey.KeyR, "s": hotkey.KeyS, "t": hotkey.KeyT,
	"u": hotkey.KeyU, "v": hotkey.KeyV, "w": hotkey.KeyW, "x": hotkey.KeyX, "y": hotkey.KeyY,
	"z": hotkey.KeyZ,
}

// Hotkeys registers one global unmodified hotkey per watched key via
// golang.design/x/hotkey (X11/Cocoa/Win32). Unlike evdev it only sees the
// keys it was asked for.
type Hotkeys struct {
	*Buffer
	hks  []*hotkey.Hotkey
	stop chan struct{}
	once sync.Once
}

func New(c clock.Clock, keys []string) (Provider, error) {
	return NewHotkeys(c, keys)
}

func NewHotkeys(c clock.Clock, keys []string) (*Hotkeys, error) {
	h := &Hotkeys{Buffer: NewBuffer(c), stop: make(chan struct{})}
	for _, name := range keys {
		code, ok := hotkeyCodes[name]
		if !ok {
			h.Close()
			return nil, fmt.Errorf("unsupported key %q", name)
		}
		hk := hotkey.New(nil, code)
		if err := hk.Register(); err != nil {
			h.Close()
			return nil, fmt.Errorf("registering %s: %w", name, err)
		}
		h.hks = append(h.hks, hk)
		go h.forward(name, hk)
	}
	return h, nil
}

func (h *Hotkeys) forward(name string, hk *hotkey.Hotkey) {
	for {
		select {
		case <-h.stop:
			return
		case <-hk.Keydown():
			h.Press(name)
		case <-hk.Keyup():
			h.Release(name)
		}
	}
}

func (h *Hotkeys) Close() error {
	h.once.Do(func() {
		close(h.stop)
		for _, hk := range h.hks {
			hk.Unregister()
		}
		h.Buffer.Close()
	})
	return nil
}

// Diagnose checks hotkey availability and returns a status message.
func Diagnose() (string, error) {
	return "hotkey support available (global key registration)", nil
}
