package appstate

import (
	"context"
	"fmt"
	"image"
	"log"
	"time"

	"golang.org/x/exp/shiny/screen"
	"golang.org/x/mobile/event/key"

	"github.com/example/muralmend/internal/interaction"
	"github.com/example/muralmend/internal/progress"
	"github.com/example/muralmend/internal/render"
	"github.com/example/muralmend/internal/session"
	"github.com/example/muralmend/internal/theme"
)

const (
	statusHeight = 24
	bottomHeight = 24
	progressH    = 22
	minWidth     = 720
	minHeight    = 240
)

// frameDropThreshold specifies how many consecutive frames can be canceled
// before a draw is allowed to complete to keep the UI responsive.
const frameDropThreshold = 10

// KeyShortcut describes a keyboard combination that triggers an action.
type KeyShortcut struct {
	Rune      rune
	Code      key.Code
	Modifiers key.Modifiers
}

// KeyboardShortcuts returns the shortcuts associated with an action.
type KeyboardShortcuts interface {
	KeyboardShortcuts() []KeyShortcut
}

// shortcutList is a helper to easily satisfy the KeyboardShortcuts interface.
type shortcutList []KeyShortcut

func (s shortcutList) KeyboardShortcuts() []KeyShortcut { return []KeyShortcut(s) }

// ButtonState describes the visual state of a button.
type ButtonState int

const (
	StateDefault ButtonState = iota
	StateHover
	StateDisabled
)

// Shortcut is a clickable entry in the bottom bar.
type Shortcut struct {
	Label   string
	Action  string
	Enabled bool
	rect    image.Rectangle
}

// Draw paints the shortcut in state.
func (s *Shortcut) Draw(dst *image.RGBA, state ButtonState, th *theme.Theme) {
	bg := th.BarBackground
	fg := th.BarText
	switch state {
	case StateHover:
		bg = th.ProgressTrack
	case StateDisabled:
		fg = th.BarDisabled
	}
	render.FillRect(dst, s.rect, bg)
	render.OutlineRect(dst, s.rect, fg)
	render.Label(dst, s.rect.Min.X+2, s.rect.Min.Y+14, s.Label, fg)
}

// Rect returns the hit area.
func (s *Shortcut) Rect() image.Rectangle { return s.rect }

// layout holds the window regions for one size.
type layout struct {
	status image.Rectangle
	canvas image.Rectangle
	bar    image.Rectangle
}

func layoutFor(width, height int) layout {
	return layout{
		status: image.Rect(0, 0, width, statusHeight),
		canvas: image.Rect(0, statusHeight, width, height-bottomHeight),
		bar:    image.Rect(0, height-bottomHeight, width, height),
	}
}

// windowSize returns the initial window size for a session.
func windowSize(s *session.Session) (int, int) {
	w, h := s.DisplaySize()
	width := max(int(w), minWidth)
	height := max(int(h)+statusHeight+bottomHeight, minHeight)
	return width, height
}

// placeShortcuts lays the shortcuts out left to right along bar.
func placeShortcuts(shortcuts []Shortcut, bar image.Rectangle) {
	x := bar.Min.X + 4
	y := bar.Min.Y + 16
	for i := range shortcuts {
		w := render.LabelWidth(shortcuts[i].Label)
		shortcuts[i].rect = image.Rect(x-2, y-14, x+w+2, y+4)
		x = shortcuts[i].rect.Max.X + 8
	}
}

// paintState is an immutable snapshot handed to the paint goroutine.
type paintState struct {
	width, height int
	frame         render.Input
	theme         *theme.Theme
	status        string
	shortcuts     []Shortcut
	hover         int
	busy          bool
	progress      progress.State
	message       string
	messageUntil  time.Time
	hint          string
}

func cursorLabel(c interaction.Cursor) string {
	switch c {
	case interaction.CursorCrosshair:
		return "draw"
	case interaction.CursorGrab:
		return "pan"
	case interaction.CursorGrabbing:
		return "panning"
	}
	return ""
}

func statusLine(s *session.Session, mode string) string {
	if !s.Loaded() {
		return "no image"
	}
	b := s.Image().Bounds()
	line := fmt.Sprintf("%dx%d  zoom %.0f%%  regions %d", b.Dx(), b.Dy(), s.Viewport().Scale*100, len(s.Rects()))
	if mode != "" {
		line += "  [" + mode + "]"
	}
	return line
}

// composeFrame paints st into dst. It returns false when ctx was cancelled
// part way through.
func composeFrame(ctx context.Context, dst *image.RGBA, st paintState) bool {
	th := st.theme
	lay := layoutFor(st.width, st.height)

	render.FillRect(dst, lay.status, th.BarBackground)
	render.Label(dst, 6, 16, st.status, th.BarText)

	in := st.frame
	in.Canvas = lay.canvas
	render.Frame(dst, in)
	if ctx.Err() != nil {
		return false
	}
	if in.Image == nil && st.hint != "" {
		render.Banner(dst, lay.canvas, st.hint, th)
	}

	render.FillRect(dst, lay.bar, th.BarBackground)
	for i := range st.shortcuts {
		sc := &st.shortcuts[i]
		state := StateDefault
		switch {
		case !sc.Enabled:
			state = StateDisabled
		case i == st.hover:
			state = StateHover
		}
		sc.Draw(dst, state, th)
	}
	if ctx.Err() != nil {
		return false
	}

	if st.busy || st.progress.Polling {
		r := image.Rect(lay.canvas.Min.X+20, lay.canvas.Max.Y-progressH-10, lay.canvas.Max.X-20, lay.canvas.Max.Y-10)
		render.ProgressBar(dst, r, st.progress.Displayed, st.progress.Message, th)
	}
	if st.message != "" && time.Now().Before(st.messageUntil) {
		render.Banner(dst, lay.canvas, st.message, th)
	}
	return ctx.Err() == nil
}

func drawFrame(ctx context.Context, s screen.Screen, w screen.Window, st paintState) {
	b, err := s.NewBuffer(image.Point{st.width, st.height})
	if err != nil {
		log.Printf("new buffer: %v", err)
		return
	}
	defer b.Release()

	if !composeFrame(ctx, b.RGBA(), st) {
		return
	}
	w.Upload(image.Point{}, b, b.Bounds())
	w.Publish()
}
