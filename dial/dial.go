// Package dial runs the response dial: the participant retunes a live tone
// with up/down presses until they commit, and the result is scored against
// the remembered target.
package dial

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pitchdial/clock"
	"pitchdial/display"
	"pitchdial/keyboard"
	"pitchdial/log"
	"pitchdial/tone"
	"pitchdial/trigger"
)

// ErrQuit aborts a trial. No Result accompanies it.
var ErrQuit = errors.New("dial: quit key pressed")

type Keys struct {
	Down   string
	Up     string
	Commit string
	Quit   string
}

type Config struct {
	StartFrequency float64
	Step           float64
	Range          tone.Range
	PollInterval   time.Duration
	Settle         time.Duration
	Keys           Keys
	Tone           tone.Spec

	FixationDegrees float64
}

func DefaultConfig() Config {
	return Config{
		StartFrequency: 450,
		Step:           50,
		Range:          tone.Range{Min: 200, Max: 700},
		PollInterval:   100 * time.Millisecond,
		Settle:         tone.DefaultSettle,
		Keys: Keys{
			Down:   keyboard.KeyDown,
			Up:     keyboard.KeyUp,
			Commit: keyboard.KeySpace,
			Quit:   "q",
		},
		Tone:            tone.DefaultSpec(450),
		FixationDegrees: 0.1,
	}
}

// Trial is what the caller knows about the trial being answered.
type Trial struct {
	TargetFrequency float64
	Positions       []string // position of each item, in item order
	TargetItem      int      // 1-based
}

// Result is the record handed back to the experiment. Field names follow the
// data files analysis scripts already read.
type Result struct {
	IdleReactionMs   float64  `json:"idle_reaction_time_in_ms"`
	ResponseMs       float64  `json:"response_time_in_ms"`
	FirstKey         string   `json:"first_key_pressed"`
	ResponseFreq     float64  `json:"response_freq"`
	PrematurePressed bool     `json:"premature_pressed"`
	PrematureKey     *string  `json:"premature_key"`
	PrematureTiming  *float64 `json:"premature_timing"`
	Evaluation
}

// Deps are the collaborators a Dial drives. Emitter and Observer may be nil.
type Deps struct {
	Clock    clock.Clock
	Keyboard keyboard.Provider
	Player   tone.Player
	Surface  display.Surface
	Monitor  display.Monitor
	Emitter  *trigger.Emitter
	Observer Observer
}

type Dial struct {
	cfg Config
	Deps
}

func New(cfg Config, deps Deps) *Dial {
	if deps.Observer == nil {
		deps.Observer = nopObserver{}
	}
	if deps.Emitter == nil {
		deps.Emitter = trigger.NewEmitter(nil)
	}
	return &Dial{cfg: cfg, Deps: deps}
}

func (d *Dial) Config() Config { return d.cfg }

// CheckQuit returns ErrQuit if the quit key is down or was pressed since the
// last check.
func (d *Dial) CheckQuit() error {
	return CheckQuit(d.Keyboard, d.cfg.Keys.Quit)
}

func CheckQuit(kb keyboard.Provider, quit string) error {
	if quit != "" && kb.State(quit)[quit] {
		return ErrQuit
	}
	return nil
}

// Run collects one response. It returns ErrQuit when the quit key is seen at
// any sampling point, and ctx.Err() when ctx ends first.
func (d *Dial) Run(ctx context.Context, tr Trial) (Result, error) {
	if err := d.CheckQuit(); err != nil {
		return Result{}, d.abort(err)
	}
	log.TrialStart(tr.TargetFrequency)

	// Awaiting start.
	d.Observer.Phase(AwaitingStart)
	d.Surface.DrawFixation(d.Monitor.DegreesToPixels(d.cfg.FixationDegrees), display.Black)
	if err := d.Surface.Flip(); err != nil {
		return Result{}, fmt.Errorf("showing response cue: %w", err)
	}
	var tm Timing
	tm.IdleStart = d.Clock.Now()
	d.Keyboard.ResetClock()

	premature := DetectPremature(d.Keyboard.Events(true))
	d.Keyboard.Drain()

	ctl := tone.NewController(d.Player, d.Clock, d.cfg.Range, d.cfg.Settle, d.cfg.Tone)
	defer ctl.Stop()
	if _, err := ctl.Start(d.cfg.StartFrequency); err != nil {
		return Result{}, fmt.Errorf("starting dial tone: %w", err)
	}
	d.Observer.Frequency(ctl.Frequency())
	d.Keyboard.ResetClock()

	k := d.cfg.Keys
	first, err := d.Keyboard.WaitForFirst(ctx, k.Down, k.Up, k.Commit, k.Quit)
	if err != nil {
		return Result{}, fmt.Errorf("waiting for first key: %w", err)
	}
	if first.Key == k.Quit {
		return Result{}, d.abort(ErrQuit)
	}

	// Adjusting.
	tm.ResponseStart = d.Clock.Now()
	d.Emitter.Emit(trigger.ResponseOnset, tr.Positions, tr.TargetItem)
	d.Observer.Phase(Adjusting)

	edges := newEdgeDetector()
	edges.prev[first.Key] = true
	committed, err := d.apply(ctl, map[string]bool{first.Key: true})
	for err == nil && !committed {
		d.Clock.Sleep(d.cfg.PollInterval)
		if err = ctx.Err(); err != nil {
			break
		}
		if err = d.CheckQuit(); err != nil {
			return Result{}, d.abort(err)
		}
		rising := edges.update(d.Keyboard.Sample(k.Down, k.Up, k.Commit))
		committed, err = d.apply(ctl, rising)
	}
	if err != nil {
		return Result{}, err
	}
	response := ctl.Frequency()

	// Responded.
	if err := ctl.Stop(); err != nil {
		log.Warnf("stopping dial tone: %v", err)
	}
	tm.ResponseEnd = d.Clock.Now()
	d.Emitter.Emit(trigger.ResponseOffset, tr.Positions, tr.TargetItem)
	d.Keyboard.Drain()
	d.Observer.Phase(Responded)

	res := Result{
		IdleReactionMs: tm.IdleReactionMs(),
		ResponseMs:     tm.ResponseMs(),
		FirstKey:       first.Key,
		ResponseFreq:   response,
		Evaluation:     Evaluate(tr.TargetFrequency, response),
	}
	if premature.Pressed {
		res.PrematurePressed = true
		res.PrematureKey = &premature.Key
		res.PrematureTiming = &premature.Ms
	}

	sent, failed := d.Emitter.Counts()
	log.TrialResult(log.TrialMetrics{
		TargetHz:       tr.TargetFrequency,
		ResponseHz:     response,
		FirstKey:       first.Key,
		IdleMs:         res.IdleReactionMs,
		ResponseMs:     res.ResponseMs,
		OffsetHz:       res.FrequencyOffset,
		PrematureKey:   premature.Key,
		PrematureMs:    premature.Ms,
		Adjustments:    ctl.Changes(),
		TriggersSent:   sent,
		TriggersFailed: failed,
	})
	return res, nil
}

// apply acts on one sample's rising edges. A commit wins over a step in the
// same sample; down is applied before up.
func (d *Dial) apply(ctl *tone.Controller, rising map[string]bool) (bool, error) {
	k := d.cfg.Keys
	if rising[k.Commit] {
		return true, nil
	}
	for _, step := range []struct {
		key   string
		delta float64
	}{{k.Down, -d.cfg.Step}, {k.Up, d.cfg.Step}} {
		if !rising[step.key] {
			continue
		}
		from := ctl.Frequency()
		to, err := ctl.SetFrequency(from + step.delta)
		if err != nil {
			return false, fmt.Errorf("retuning dial: %w", err)
		}
		log.ToneChange(from, to)
		d.Observer.Frequency(to)
	}
	return false, nil
}

func (d *Dial) abort(err error) error {
	log.Abort(err.Error())
	return err
}

// WaitForKey discards anything buffered, then blocks for a fresh press of
// one of keys.
func WaitForKey(ctx context.Context, kb keyboard.Provider, keys ...string) (keyboard.Event, error) {
	kb.Drain()
	return kb.WaitForFirst(ctx, keys...)
}

// edgeDetector compares each sample against the previous one. A key counts
// once per press no matter how many samples it stays down for.
type edgeDetector struct {
	prev map[string]bool
}

func newEdgeDetector() *edgeDetector {
	return &edgeDetector{prev: make(map[string]bool)}
}

func (e *edgeDetector) update(sample map[string]keyboard.KeyState) map[string]bool {
	rising := make(map[string]bool, len(sample))
	for k, s := range sample {
		rising[k] = s.Pressed || (s.Held && !e.prev[k])
		e.prev[k] = s.Held
	}
	return rising
}
