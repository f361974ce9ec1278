package dial

import (
	"testing"
	"time"

	"pitchdial/keyboard"
)

func TestEvaluate(t *testing.T) {
	tests := []struct {
		target, reported float64
		want             Evaluation
	}{
		{450, 450, Evaluation{0, 0, "0"}},
		{450, 550, Evaluation{100, 100, "+100"}},
		{450, 350, Evaluation{-100, 100, "-100"}},
		{450, 450.5, Evaluation{0, 0, "0"}},
		{450, 451.5, Evaluation{2, 2, "+2"}},
		{450, 449.5, Evaluation{0, 0, "0"}},
		{450, 448.5, Evaluation{-2, 2, "-2"}},
		{300, 700, Evaluation{400, 400, "+400"}},
	}
	for _, tt := range tests {
		if got := Evaluate(tt.target, tt.reported); got != tt.want {
			t.Errorf("Evaluate(%v, %v) = %+v, want %+v", tt.target, tt.reported, got, tt.want)
		}
	}
}

func TestEvaluateIdempotent(t *testing.T) {
	a := Evaluate(450, 400)
	b := Evaluate(450, 400)
	if a != b {
		t.Errorf("Evaluate not repeatable: %+v vs %+v", a, b)
	}
}

func TestRoundMs(t *testing.T) {
	tests := []struct{ in, want float64 }{
		{12.344, 12.34},
		{12.346, 12.35},
		{0.125, 0.12},
		{300, 300},
	}
	for _, tt := range tests {
		if got := roundMs(tt.in); got != tt.want {
			t.Errorf("roundMs(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestTiming(t *testing.T) {
	tm := Timing{IdleStart: epoch}
	tm.ResponseStart = epoch.Add(1234567 * time.Microsecond)
	tm.ResponseEnd = tm.ResponseStart.Add(2 * time.Second)
	if got := tm.IdleReactionMs(); got != 1234.57 {
		t.Errorf("IdleReactionMs = %v, want 1234.57", got)
	}
	if got := tm.ResponseMs(); got != 2000 {
		t.Errorf("ResponseMs = %v, want 2000", got)
	}
}

func TestDetectPremature(t *testing.T) {
	if p := DetectPremature(nil); p.Pressed {
		t.Errorf("no events: %+v", p)
	}

	events := []keyboard.Event{
		{Key: "late", RT: 5 * time.Millisecond},
		{Key: "z", RT: -40 * time.Millisecond},
		{Key: "m", RT: -10 * time.Millisecond},
	}
	p := DetectPremature(events)
	if !p.Pressed || p.Key != "z" || p.Ms != 40 {
		t.Errorf("DetectPremature = %+v, want z 40ms", p)
	}
}
