package keyboard

import (
	"context"
	"time"

	"pitchdial/clock"
)

// Fake is a Buffer driven by presses scheduled on a fake clock. WaitForFirst
// advances the clock to the next scheduled event instead of blocking.
type Fake struct {
	*Buffer
	clock *clock.Fake
}

func NewFake(c *clock.Fake) *Fake {
	return &Fake{Buffer: NewBuffer(c), clock: c}
}

// PressAt schedules a key-down d after the current fake time.
func (f *Fake) PressAt(d time.Duration, key string) {
	f.clock.After(d, func() { f.Press(key) })
}

func (f *Fake) ReleaseAt(d time.Duration, key string) {
	f.clock.After(d, func() { f.Release(key) })
}

// TapAt schedules a press at d held for hold.
func (f *Fake) TapAt(d time.Duration, key string, hold time.Duration) {
	f.PressAt(d, key)
	f.ReleaseAt(d+hold, key)
}

func (f *Fake) WaitForFirst(ctx context.Context, keys ...string) (Event, error) {
	for {
		if ev, ok := f.take(keys); ok {
			return ev, nil
		}
		if err := ctx.Err(); err != nil {
			return Event{}, err
		}
		if !f.clock.Next() {
			return Event{}, ErrScriptDone
		}
	}
}
