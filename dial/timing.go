package dial

import (
	"time"

	"pitchdial/keyboard"
)

// Timing brackets one trial on the wall clock.
type Timing struct {
	IdleStart     time.Time // response cue shown
	ResponseStart time.Time // first key
	ResponseEnd   time.Time // commit
}

func (t Timing) IdleReaction() time.Duration { return t.ResponseStart.Sub(t.IdleStart) }

func (t Timing) Response() time.Duration { return t.ResponseEnd.Sub(t.ResponseStart) }

func (t Timing) IdleReactionMs() float64 { return roundMs(ms(t.IdleReaction())) }

func (t Timing) ResponseMs() float64 { return roundMs(ms(t.Response())) }

func ms(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

// Premature is the first press seen before the response cue.
type Premature struct {
	Pressed bool
	Key     string
	Ms      float64 // how long before the cue, positive
}

// DetectPremature expects events timed against a clock reset at the cue, so
// anything pressed earlier has RT <= 0.
func DetectPremature(events []keyboard.Event) Premature {
	for _, ev := range events {
		if ev.RT > 0 {
			continue
		}
		return Premature{Pressed: true, Key: ev.Key, Ms: roundMs(ms(-ev.RT))}
	}
	return Premature{}
}
