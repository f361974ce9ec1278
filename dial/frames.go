package dial

import (
	"fmt"
	"time"

	"pitchdial/display"
	"pitchdial/trigger"
)

const (
	StimulusDuration = 500 * time.Millisecond

	cueTextDegrees      = 0.3
	feedbackTextDegrees = 0.65
)

// PlayStimulus shows the fixation dot and plays freq once for
// StimulusDuration, returning when the tone has finished.
func (d *Dial) PlayStimulus(freq float64, tr Trial) error {
	d.Surface.DrawFixation(d.Monitor.DegreesToPixels(d.cfg.FixationDegrees), display.Grey)
	if err := d.Surface.Flip(); err != nil {
		return fmt.Errorf("showing stimulus frame: %w", err)
	}

	spec := d.cfg.Tone
	spec.Frequency = freq
	spec.Chunk = StimulusDuration
	spec.Loop = false
	t, err := d.Player.Play(spec)
	if err != nil {
		return fmt.Errorf("playing stimulus %.0f Hz: %w", freq, err)
	}
	d.Emitter.Emit(trigger.StimulusOnset, tr.Positions, tr.TargetItem)
	d.Clock.Sleep(StimulusDuration)
	return t.Stop()
}

// ShowCue tells the participant which item to reproduce.
func (d *Dial) ShowCue(item string) error {
	d.Surface.DrawFixation(d.Monitor.DegreesToPixels(d.cfg.FixationDegrees), display.Grey)
	d.Surface.ShowText(item, d.Monitor.DegreesToPixels(cueTextDegrees))
	return d.Surface.Flip()
}

// ShowFeedback reports the target, the response and the signed offset.
func (d *Dial) ShowFeedback(target float64, res Result) error {
	d.Surface.DrawFixation(d.Monitor.DegreesToPixels(d.cfg.FixationDegrees), display.Grey)
	text := fmt.Sprintf("Actual: %g\nReport: %g\n\n%s", target, res.ResponseFreq, res.Performance)
	d.Surface.ShowText(text, d.Monitor.DegreesToPixels(feedbackTextDegrees))
	return d.Surface.Flip()
}
