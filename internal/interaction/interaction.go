// Package interaction turns raw pointer and wheel input into viewport and
// annotation changes.
package interaction

import (
	"math"

	"github.com/example/muralmend/internal/annotation"
	"github.com/example/muralmend/internal/viewport"
)

// State is the pointer state. Exactly one of Idle, Panning or Drawing.
type State interface {
	state()
}

// Idle waits for a pointer press.
type Idle struct{}

// Panning drags the viewport. LastX and LastY hold the previous pointer
// position in display space.
type Panning struct {
	LastX, LastY float64
}

// Drawing sizes a new rectangle. StartX and StartY are the press position in
// image space.
type Drawing struct {
	StartX, StartY float64
}

func (Idle) state()    {}
func (Panning) state() {}
func (Drawing) state() {}

// Cursor is a presentation hint for the pointer shape.
type Cursor int

const (
	CursorDefault Cursor = iota
	CursorCrosshair
	CursorGrab
	CursorGrabbing
)

// Effect reports what an input changed.
type Effect struct {
	// Render is set when the frame needs repainting.
	Render bool
	// Committed is the rectangle appended to the store, if any.
	Committed *annotation.Rect
}

// Machine routes input for one image. It is driven from a single goroutine.
type Machine struct {
	vp     *viewport.Viewport
	store  *annotation.Store
	imageW float64
	imageH float64

	state      State
	inProgress *annotation.Rect
}

// New returns a Machine in the Idle state for an image of w x h pixels.
func New(vp *viewport.Viewport, store *annotation.Store, w, h float64) *Machine {
	return &Machine{vp: vp, store: store, imageW: w, imageH: h, state: Idle{}}
}

// State returns the current state.
func (m *Machine) State() State { return m.state }

// InProgress returns the rectangle being drawn, if any.
func (m *Machine) InProgress() (annotation.Rect, bool) {
	if m.inProgress == nil {
		return annotation.Rect{}, false
	}
	return *m.inProgress, true
}

// Cancel abandons any drag and returns to Idle.
func (m *Machine) Cancel() Effect {
	render := m.inProgress != nil
	m.state = Idle{}
	m.inProgress = nil
	return Effect{Render: render}
}

// PointerDown handles a press at display coordinates (x, y). mod is true
// when Ctrl or Meta is held.
func (m *Machine) PointerDown(x, y float64, mod bool) Effect {
	if _, idle := m.state.(Idle); !idle {
		return Effect{}
	}
	if mod {
		m.state = Panning{LastX: x, LastY: y}
		return Effect{}
	}
	if !m.vp.Contains(x, y, m.imageW, m.imageH) {
		return Effect{}
	}
	ix, iy := m.vp.ToImage(x, y)
	m.state = Drawing{StartX: ix, StartY: iy}
	return Effect{}
}

// PointerMove handles motion to display coordinates (x, y).
func (m *Machine) PointerMove(x, y float64, mod bool) Effect {
	switch s := m.state.(type) {
	case Panning:
		m.vp.Pan(x-s.LastX, y-s.LastY)
		m.state = Panning{LastX: x, LastY: y}
		return Effect{Render: true}
	case Drawing:
		r := m.sized(s, x, y)
		m.inProgress = &r
		return Effect{Render: true}
	}
	return Effect{}
}

// PointerUp handles a release. The rectangle last sized by PointerMove is
// committed when both sides exceed annotation.MinSize; the release position
// itself is ignored.
func (m *Machine) PointerUp(x, y float64, mod bool) Effect {
	switch m.state.(type) {
	case Panning:
		m.state = Idle{}
		return Effect{}
	case Drawing:
		r := m.inProgress
		m.state = Idle{}
		m.inProgress = nil
		eff := Effect{Render: r != nil}
		if r != nil && r.Committable() {
			m.store.Append(*r)
			eff.Committed = r
		}
		return eff
	}
	return Effect{}
}

// Wheel zooms around the pointer. Positive deltaY zooms out.
func (m *Machine) Wheel(x, y, deltaY float64) Effect {
	factor := viewport.WheelInFactor
	if deltaY > 0 {
		factor = viewport.WheelOutFactor
	}
	return Effect{Render: m.vp.ZoomAt(x, y, factor)}
}

// Cursor returns the pointer shape for display coordinates (x, y).
func (m *Machine) Cursor(x, y float64, mod bool) Cursor {
	switch m.state.(type) {
	case Panning:
		return CursorGrabbing
	case Drawing:
		return CursorCrosshair
	}
	if mod {
		return CursorGrab
	}
	if m.vp.Contains(x, y, m.imageW, m.imageH) {
		return CursorCrosshair
	}
	return CursorDefault
}

func (m *Machine) sized(s Drawing, x, y float64) annotation.Rect {
	cx, cy := m.vp.ToImage(x, y)
	cx = math.Max(0, math.Min(cx, m.imageW))
	cy = math.Max(0, math.Min(cy, m.imageH))
	return annotation.Normalize(s.StartX, s.StartY, cx, cy)
}
