package keyboard

import (
	"context"
	"slices"
	"sync"
	"time"

	"pitchdial/clock"
)

// Buffer is the Provider shared by all backends. Reader goroutines call
// Press, Release and Tap; the control loop calls the Provider methods.
type Buffer struct {
	clock clock.Clock

	mu      sync.Mutex
	origin  time.Time
	held    map[string]bool
	latched map[string]bool
	events  []*Event
	open    map[string]*Event
	notify  chan struct{}
	closed  bool
}

func NewBuffer(c clock.Clock) *Buffer {
	return &Buffer{
		clock:   c,
		origin:  c.Now(),
		held:    make(map[string]bool),
		latched: make(map[string]bool),
		open:    make(map[string]*Event),
		notify:  make(chan struct{}),
	}
}

// Press records a key going down now. Repeats while the key is already held
// are ignored, so auto-repeat never produces extra edges.
func (b *Buffer) Press(key string) {
	b.PressAt(key, b.clock.Now())
}

// PressAt is Press for backends that know when the key went down.
func (b *Buffer) PressAt(key string, at time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed || b.held[key] {
		return
	}
	ev := &Event{Key: key, At: at}
	b.held[key] = true
	b.latched[key] = true
	b.events = append(b.events, ev)
	b.open[key] = ev
	close(b.notify)
	b.notify = make(chan struct{})
}

func (b *Buffer) Release(key string) {
	b.ReleaseAt(key, b.clock.Now())
}

func (b *Buffer) ReleaseAt(key string, at time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.held[key] {
		return
	}
	b.held[key] = false
	if ev, ok := b.open[key]; ok {
		ev.Released = true
		ev.Duration = at.Sub(ev.At)
		delete(b.open, key)
	}
}

// Tap is a press immediately followed by a release, for backends that only
// see key-down edges.
func (b *Buffer) Tap(key string) {
	b.Press(key)
	b.Release(key)
}

func (b *Buffer) State(keys ...string) map[string]bool {
	state := make(map[string]bool, len(keys))
	for k, s := range b.Sample(keys...) {
		state[k] = s.Held || s.Pressed
	}
	return state
}

func (b *Buffer) Sample(keys ...string) map[string]KeyState {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make(map[string]KeyState, len(keys))
	for _, k := range keys {
		out[k] = KeyState{Held: b.held[k], Pressed: b.latched[k]}
		delete(b.latched, k)
	}
	return out
}

func (b *Buffer) WaitForFirst(ctx context.Context, keys ...string) (Event, error) {
	for {
		b.mu.Lock()
		if b.closed {
			b.mu.Unlock()
			return Event{}, ErrClosed
		}
		if ev, ok := b.takeLocked(keys); ok {
			b.mu.Unlock()
			return ev, nil
		}
		ch := b.notify
		b.mu.Unlock()

		select {
		case <-ch:
		case <-ctx.Done():
			return Event{}, ctx.Err()
		}
	}
}

// take is the non-blocking half of WaitForFirst.
func (b *Buffer) take(keys []string) (Event, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.takeLocked(keys)
}

// takeLocked removes the first matching press and everything before it. The
// consumed press no longer counts as latched unless the same key was pressed
// again afterwards.
func (b *Buffer) takeLocked(keys []string) (Event, bool) {
	for i, ev := range b.events {
		if !slices.Contains(keys, ev.Key) {
			continue
		}
		out := b.snapshot(ev)
		for _, dropped := range b.events[:i+1] {
			if b.open[dropped.Key] == dropped {
				delete(b.open, dropped.Key)
			}
		}
		b.events = slices.Delete(b.events, 0, i+1)
		if !slices.ContainsFunc(b.events, func(e *Event) bool { return e.Key == ev.Key }) {
			delete(b.latched, ev.Key)
		}
		return out, true
	}
	return Event{}, false
}

func (b *Buffer) ResetClock() {
	b.mu.Lock()
	b.origin = b.clock.Now()
	b.mu.Unlock()
}

func (b *Buffer) Drain() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = nil
	clear(b.open)
	clear(b.latched)
}

func (b *Buffer) Events(includeUnreleased bool) []Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []Event
	for _, ev := range b.events {
		if !ev.Released && !includeUnreleased {
			continue
		}
		out = append(out, b.snapshot(ev))
	}
	return out
}

func (b *Buffer) snapshot(ev *Event) Event {
	out := *ev
	out.RT = ev.At.Sub(b.origin)
	return out
}

func (b *Buffer) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.closed {
		b.closed = true
		close(b.notify)
	}
	return nil
}
