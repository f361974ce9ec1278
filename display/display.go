// Package display draws the visual side of a trial: the fixation dot and
// short text lines, flipped onto a surface as whole frames.
package display

import (
	"math"
	"sync"
)

const (
	Black = "#000000"
	Grey  = "#eaeaea"
)

// Monitor describes the physical viewing geometry.
type Monitor struct {
	WidthCm    float64
	DistanceCm float64
	WidthPx    int
}

// DefaultMonitor matches a 24" 1920px wide panel viewed from 60 cm.
var DefaultMonitor = Monitor{WidthCm: 53, DistanceCm: 60, WidthPx: 1920}

// DegreesToPixels converts visual angle to screen pixels using the
// small-angle approximation.
func (m Monitor) DegreesToPixels(deg float64) float64 {
	if m.WidthCm <= 0 {
		return 0
	}
	cm := deg * m.DistanceCm * math.Pi / 180
	return cm * float64(m.WidthPx) / m.WidthCm
}

// Frame is everything drawn between two flips.
type Frame struct {
	FixationRadius float64
	FixationColour string
	Fixation       bool
	Text           []TextLine
}

type TextLine struct {
	Text     string
	OffsetPx float64
}

// Surface accumulates drawing calls and presents them on Flip.
type Surface interface {
	DrawFixation(radiusPx float64, colour string)
	ShowText(text string, offsetPx float64)
	Flip() error
}

// canvas holds the frame being drawn. Surfaces embed it.
type canvas struct {
	mu      sync.Mutex
	pending Frame
}

func (c *canvas) DrawFixation(radiusPx float64, colour string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending.Fixation = true
	c.pending.FixationRadius = radiusPx
	c.pending.FixationColour = colour
}

func (c *canvas) ShowText(text string, offsetPx float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending.Text = append(c.pending.Text, TextLine{Text: text, OffsetPx: offsetPx})
}

// swap returns the pending frame and starts a blank one.
func (c *canvas) swap() Frame {
	c.mu.Lock()
	defer c.mu.Unlock()
	f := c.pending
	c.pending = Frame{}
	return f
}

// Recorder keeps every flipped frame. Used headless and in tests.
type Recorder struct {
	canvas

	fmu    sync.Mutex
	frames []Frame
}

func (r *Recorder) Flip() error {
	f := r.swap()
	r.fmu.Lock()
	r.frames = append(r.frames, f)
	r.fmu.Unlock()
	return nil
}

func (r *Recorder) Frames() []Frame {
	r.fmu.Lock()
	defer r.fmu.Unlock()
	return append([]Frame(nil), r.frames...)
}
