// Package session holds the editing context for one loaded image: the image
// itself, its viewport, the annotation store and the pointer machine.
package session

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"math"

	"github.com/example/muralmend/internal/annotation"
	"github.com/example/muralmend/internal/interaction"
	"github.com/example/muralmend/internal/progress"
	"github.com/example/muralmend/internal/render"
	"github.com/example/muralmend/internal/restore"
	"github.com/example/muralmend/internal/theme"
	"github.com/example/muralmend/internal/viewport"
)

var (
	// ErrNoImage is returned by operations that need a loaded image.
	ErrNoImage = errors.New("no image loaded")
	// ErrNoRegions is returned when submitting without any rectangle.
	ErrNoRegions = errors.New("please mark at least one damaged area")
	// ErrRegionTooSmall rejects a marked region at or below the size threshold.
	ErrRegionTooSmall = errors.New("region must be larger than 5x5 pixels")
)

// Default display bounds for the initial fit.
const (
	DefaultMaxWidth  = 800
	DefaultMaxHeight = 500
)

// Processor submits an image and its damaged regions for restoration.
// *restore.Client satisfies it.
type Processor interface {
	Process(ctx context.Context, img image.Image, rects []annotation.Rect) (*restore.Result, error)
}

// Option configures a Session.
type Option func(*Session)

// WithBounds sets the display bounds used when fitting a new image.
func WithBounds(maxW, maxH int) Option {
	return func(s *Session) {
		if maxW > 0 && maxH > 0 {
			s.maxW, s.maxH = maxW, maxH
		}
	}
}

// WithLogger sets the session logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.log = l
		}
	}
}

// Session is driven from a single goroutine. Only Submission.Run may be
// called elsewhere.
type Session struct {
	maxW, maxH int
	log        *slog.Logger

	img      image.Image
	vp       *viewport.Viewport
	store    *annotation.Store
	machine  *interaction.Machine
	displayW float64
	displayH float64
}

// New returns an empty session.
func New(opts ...Option) *Session {
	s := &Session{
		maxW:  DefaultMaxWidth,
		maxH:  DefaultMaxHeight,
		log:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		vp:    viewport.New(),
		store: &annotation.Store{},
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// LoadImage replaces the image, fits it to the display bounds, clears all
// rectangles and resets the pointer machine.
func (s *Session) LoadImage(img image.Image) error {
	if img == nil || img.Bounds().Empty() {
		return ErrNoImage
	}
	b := img.Bounds()
	w, h := float64(b.Dx()), float64(b.Dy())
	s.img = img
	s.vp = viewport.New()
	s.displayW, s.displayH, _ = s.vp.Fit(w, h, float64(s.maxW), float64(s.maxH))
	s.store = &annotation.Store{}
	s.machine = interaction.New(s.vp, s.store, w, h)
	s.log.Info("image loaded", "width", b.Dx(), "height", b.Dy(), "scale", s.vp.Scale)
	return nil
}

// ApplyResult swaps in a restored image. It behaves like LoadImage.
func (s *Session) ApplyResult(img image.Image) error {
	if err := s.LoadImage(img); err != nil {
		return fmt.Errorf("apply result: %w", err)
	}
	return nil
}

// Loaded reports whether an image is present.
func (s *Session) Loaded() bool { return s.img != nil }

// Image returns the current image or nil.
func (s *Session) Image() image.Image { return s.img }

// Viewport returns the live viewport.
func (s *Session) Viewport() *viewport.Viewport { return s.vp }

// Rects returns a copy of the committed rectangles.
func (s *Session) Rects() []annotation.Rect { return s.store.All() }

// Machine returns the pointer machine, or nil before an image is loaded.
func (s *Session) Machine() *interaction.Machine { return s.machine }

// DisplaySize is the fitted size of the image at its initial scale.
func (s *Session) DisplaySize() (w, h float64) { return s.displayW, s.displayH }

// Mark adds a rectangle given directly in image space, clipped to the image.
// It follows the same commit rule as a drawn rectangle.
func (s *Session) Mark(r annotation.Rect) error {
	if s.img == nil {
		return ErrNoImage
	}
	b := s.img.Bounds()
	w, h := float64(b.Dx()), float64(b.Dy())
	x0, y0 := math.Max(0, r.X), math.Max(0, r.Y)
	x1, y1 := math.Min(w, r.X+r.Width), math.Min(h, r.Y+r.Height)
	if x1 < x0 || y1 < y0 {
		return fmt.Errorf("%w: %+v lies outside the %dx%d image", ErrRegionTooSmall, r, b.Dx(), b.Dy())
	}
	clipped := annotation.Normalize(x0, y0, x1, y1)
	if !clipped.Committable() {
		return fmt.Errorf("%w: %+v", ErrRegionTooSmall, clipped)
	}
	s.store.Append(clipped)
	return nil
}

// CanUndo reports whether Undo would remove a rectangle.
func (s *Session) CanUndo() bool { return s.store.Len() > 0 }

// Undo removes the most recent rectangle.
func (s *Session) Undo() bool {
	if s.machine != nil {
		s.machine.Cancel()
	}
	return s.store.RemoveLast()
}

// Clear removes every rectangle.
func (s *Session) Clear() bool {
	if s.machine != nil {
		s.machine.Cancel()
	}
	had := s.store.Len() > 0
	s.store.Clear()
	return had
}

// ZoomIn zooms about the centre of the display area.
func (s *Session) ZoomIn() bool { return s.zoomCentre(viewport.ZoomInFactor) }

// ZoomOut zooms about the centre of the display area.
func (s *Session) ZoomOut() bool { return s.zoomCentre(viewport.ZoomOutFactor) }

func (s *Session) zoomCentre(factor float64) bool {
	if s.img == nil {
		return false
	}
	return s.vp.ZoomAt(s.displayW/2, s.displayH/2, factor)
}

// ResetView restores the fitted scale and offset.
func (s *Session) ResetView() {
	s.vp.Reset()
}

// Frame returns the render input for the current state.
func (s *Session) Frame(canvas image.Rectangle, th *theme.Theme) render.Input {
	in := render.Input{
		Canvas:   canvas,
		Image:    s.img,
		Viewport: *s.vp,
		Rects:    s.store.All(),
		Theme:    th,
	}
	if s.machine != nil {
		if r, ok := s.machine.InProgress(); ok {
			in.Drawing = &r
		}
	}
	return in
}

// Submission is an immutable snapshot of what gets sent for restoration.
type Submission struct {
	Image image.Image
	Rects []annotation.Rect
	log   *slog.Logger
}

// Snapshot captures the image and rectangles for submission.
func (s *Session) Snapshot() (Submission, error) {
	if s.img == nil {
		return Submission{}, ErrNoImage
	}
	rects := s.store.All()
	if len(rects) == 0 {
		return Submission{}, ErrNoRegions
	}
	return Submission{Image: s.img, Rects: rects, log: s.log}, nil
}

// Run sends the submission while rec polls for progress. rec may be nil.
// The reconciler is finished whatever the outcome.
func (sub Submission) Run(ctx context.Context, p Processor, rec *progress.Reconciler) (*restore.Result, error) {
	log := sub.log
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if rec != nil {
		rec.Start(ctx)
		defer rec.Finish()
	}
	log.Info("submitting", "regions", len(sub.Rects))
	res, err := p.Process(ctx, sub.Image, sub.Rects)
	if err != nil {
		log.Error("submission failed", "err", err)
		return nil, err
	}
	log.Info("restoration complete", "run", res.RequestID, "elapsed", res.Elapsed)
	return res, nil
}

// Submit snapshots, runs and applies a submission synchronously. On failure
// the session is left untouched.
func (s *Session) Submit(ctx context.Context, p Processor, rec *progress.Reconciler) (*restore.Result, error) {
	sub, err := s.Snapshot()
	if err != nil {
		return nil, err
	}
	res, err := sub.Run(ctx, p, rec)
	if err != nil {
		return nil, err
	}
	if err := s.ApplyResult(res.Image); err != nil {
		return nil, err
	}
	return res, nil
}
