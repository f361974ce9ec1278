package display

import (
	"math"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func TestDegreesToPixels(t *testing.T) {
	m := Monitor{WidthCm: 50, DistanceCm: 60, WidthPx: 1000}
	got := m.DegreesToPixels(1)
	want := 60 * math.Pi / 180 * 20
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("DegreesToPixels(1) = %v, want %v", got, want)
	}
	if got := m.DegreesToPixels(0); got != 0 {
		t.Errorf("DegreesToPixels(0) = %v, want 0", got)
	}
	if got := (Monitor{}).DegreesToPixels(1); got != 0 {
		t.Errorf("zero monitor = %v, want 0", got)
	}
}

func TestRecorderFlipResetsCanvas(t *testing.T) {
	var r Recorder
	r.DrawFixation(2.5, Black)
	r.ShowText("A", 10)
	if err := r.Flip(); err != nil {
		t.Fatal(err)
	}
	if err := r.Flip(); err != nil {
		t.Fatal(err)
	}

	frames := r.Frames()
	if len(frames) != 2 {
		t.Fatalf("got %d frames, want 2", len(frames))
	}
	f := frames[0]
	if !f.Fixation || f.FixationRadius != 2.5 || f.FixationColour != Black {
		t.Errorf("first frame fixation = %+v", f)
	}
	if len(f.Text) != 1 || f.Text[0].Text != "A" {
		t.Errorf("first frame text = %+v", f.Text)
	}
	if frames[1].Fixation || len(frames[1].Text) != 0 {
		t.Errorf("second frame should be blank, got %+v", frames[1])
	}
}

func TestTUIViewShowsFrame(t *testing.T) {
	var m tea.Model = tuiModel{}
	m, _ = m.Update(tea.WindowSizeMsg{Width: 40, Height: 12})
	m, _ = m.Update(headerMsg{Text: "response"})
	m, _ = m.Update(frameMsg(Frame{
		Fixation:       true,
		FixationColour: Grey,
		Text:           []TextLine{{Text: "Actual: 450\nReport: 400", OffsetPx: 20}},
	}))

	view := m.View()
	for _, want := range []string{"response", "Actual: 450", "Report: 400", "●"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}

func TestTUIViewBeforeSize(t *testing.T) {
	if got := (tuiModel{}).View(); got != "Loading..." {
		t.Errorf("View() = %q, want Loading...", got)
	}
}
