// Package trigger sends synchronisation markers to an external recording
// device (EEG amplifier, eyetracker) at response onset and offset.
package trigger

import (
	"fmt"
	"sync"

	"pitchdial/log"
)

const (
	StimulusOnset  = "stimulus_onset"
	ResponseOnset  = "response_onset"
	ResponseOffset = "response_offset"
)

// Device is a sink for sync markers. It owns the mapping from trial event to
// numeric code so that different rigs can use different codebooks.
type Device interface {
	TriggerCode(event string, positions []string, targetItem int) int
	SendMessage(text string) error
}

var eventBase = map[string]int{
	StimulusOnset:  10,
	ResponseOnset:  70,
	ResponseOffset: 80,
}

var positionIndex = map[string]int{
	"left":   0,
	"right":  1,
	"top":    2,
	"bottom": 3,
}

// Codebook is the default event-to-code table. Devices embed it to get
// TriggerCode.
type Codebook struct{}

// TriggerCode returns base + 2*positionIndex + (targetItem-1). Unknown events
// use base 0, unknown or missing positions use index 0.
func (Codebook) TriggerCode(event string, positions []string, targetItem int) int {
	base := eventBase[event]
	pos := 0
	if targetItem >= 1 && targetItem <= len(positions) {
		pos = positionIndex[positions[targetItem-1]]
	}
	item := targetItem - 1
	if item < 0 {
		item = 0
	}
	return base + 2*pos + item
}

// Message formats a code the way recording software expects it.
func Message(code int) string {
	return fmt.Sprintf("trig%d", code)
}

// Emitter sends markers through an optional device. A nil device turns every
// call into a no-op. Send failures are logged and dropped.
type Emitter struct {
	dev Device

	mu     sync.Mutex
	sent   int
	failed int
}

func NewEmitter(dev Device) *Emitter {
	return &Emitter{dev: dev}
}

// Enabled reports whether a device is attached.
func (e *Emitter) Enabled() bool {
	return e != nil && e.dev != nil
}

// Emit computes the code for event and sends it. It returns the code and
// whether the device accepted the message.
func (e *Emitter) Emit(event string, positions []string, targetItem int) (int, bool) {
	if !e.Enabled() {
		return 0, false
	}
	code := e.dev.TriggerCode(event, positions, targetItem)
	err := e.dev.SendMessage(Message(code))
	log.Trigger(event, code, err)

	e.mu.Lock()
	defer e.mu.Unlock()
	if err != nil {
		e.failed++
		return code, false
	}
	e.sent++
	return code, true
}

// Counts returns how many markers were delivered and how many failed.
func (e *Emitter) Counts() (sent, failed int) {
	if e == nil {
		return 0, 0
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sent, e.failed
}
