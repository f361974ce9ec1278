//go:build linux

package keyboard

import (
	"encoding/binary"
	"testing"
	"time"

	"pitchdial/clock"
)

func rawEvent(at time.Time, code uint16, value int32) []byte {
	raw := make([]byte, inputEventSize)
	if !at.IsZero() {
		binary.LittleEndian.PutUint64(raw[0:], uint64(at.Unix()))
		binary.LittleEndian.PutUint64(raw[8:], uint64(at.Nanosecond()/int(time.Microsecond)))
	}
	binary.LittleEndian.PutUint16(raw[16:], evKey)
	binary.LittleEndian.PutUint16(raw[18:], code)
	binary.LittleEndian.PutUint32(raw[20:], uint32(value))
	return raw
}

func TestEvdevUsesKernelTimestamp(t *testing.T) {
	c := clock.NewFake(epoch)
	e := &Evdev{Buffer: NewBuffer(c)}

	// The reader runs late: the press is decoded 40 ms after it happened.
	c.Advance(290 * time.Millisecond)
	e.apply(rawEvent(epoch.Add(250*time.Millisecond), 103, keyPress))
	c.Advance(100 * time.Millisecond)
	e.apply(rawEvent(epoch.Add(330*time.Millisecond), 103, keyRelease))

	evs := e.Events(false)
	if len(evs) != 1 {
		t.Fatalf("events = %+v, want one", evs)
	}
	if evs[0].Key != KeyUp || evs[0].RT != 250*time.Millisecond {
		t.Errorf("event = %+v, want up at RT 250ms", evs[0])
	}
	if evs[0].Duration != 80*time.Millisecond {
		t.Errorf("duration = %v, want 80ms", evs[0].Duration)
	}
}

func TestEvdevZeroTimestampFallsBackToClock(t *testing.T) {
	c := clock.NewFake(epoch)
	e := &Evdev{Buffer: NewBuffer(c)}
	c.Advance(70 * time.Millisecond)
	e.apply(rawEvent(time.Time{}, 57, keyPress))

	evs := e.Events(true)
	if len(evs) != 1 || evs[0].Key != KeySpace || evs[0].RT != 70*time.Millisecond {
		t.Fatalf("events = %+v, want space at RT 70ms", evs)
	}
}

func TestEvdevIgnoresRepeatAndUnknown(t *testing.T) {
	c := clock.NewFake(epoch)
	e := &Evdev{Buffer: NewBuffer(c)}
	e.apply(rawEvent(epoch, 108, 2))
	e.apply(rawEvent(epoch, 999, keyPress))
	if evs := e.Events(true); len(evs) != 0 {
		t.Fatalf("events = %+v, want none", evs)
	}
}
