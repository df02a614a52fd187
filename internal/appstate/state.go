// Package appstate runs the interactive annotation window.
package appstate

import (
	"context"
	"image"
	"log"
	"sync"

	"golang.org/x/exp/shiny/driver"
	"golang.org/x/exp/shiny/screen"
	"golang.org/x/mobile/event/key"
	"golang.org/x/mobile/event/lifecycle"
	"golang.org/x/mobile/event/mouse"
	"golang.org/x/mobile/event/paint"
	"golang.org/x/mobile/event/size"

	"github.com/example/muralmend/internal/notify"
	"github.com/example/muralmend/internal/progress"
	"github.com/example/muralmend/internal/session"
	"github.com/example/muralmend/internal/theme"
)

// AppState holds everything the window needs.
type AppState struct {
	Session    *session.Session
	Processor  session.Processor
	Reconciler *progress.Reconciler
	Notifier   *notify.Notifier
	Theme      *theme.Theme
	SaveDir    string
	Format     string

	onClose   func()
	closeOnce sync.Once
}

// Option modifies an AppState during creation.
type Option func(*AppState)

// WithSession sets the editing session shown in the window.
func WithSession(s *session.Session) Option { return func(a *AppState) { a.Session = s } }

// WithProcessor sets the restoration backend used on submit.
func WithProcessor(p session.Processor) Option { return func(a *AppState) { a.Processor = p } }

// WithReconciler sets the progress reconciler driven during submissions.
func WithReconciler(r *progress.Reconciler) Option { return func(a *AppState) { a.Reconciler = r } }

// WithNotifier sets the desktop notifier.
func WithNotifier(n *notify.Notifier) Option { return func(a *AppState) { a.Notifier = n } }

// WithTheme sets the colour theme.
func WithTheme(t *theme.Theme) Option { return func(a *AppState) { a.Theme = t } }

// WithOutput sets the directory and format used when saving results.
func WithOutput(dir, format string) Option {
	return func(a *AppState) { a.SaveDir, a.Format = dir, format }
}

// WithOnClose registers a callback invoked when the window closes.
func WithOnClose(fn func()) Option { return func(a *AppState) { a.onClose = fn } }

// New creates an AppState with the provided options.
func New(opts ...Option) *AppState {
	a := &AppState{Format: "png"}
	for _, o := range opts {
		o(a)
	}
	if a.Session == nil {
		a.Session = session.New()
	}
	if a.Theme == nil {
		a.Theme = theme.Default()
	}
	return a
}

func (a *AppState) notifyClose() {
	a.closeOnce.Do(func() {
		if a.onClose != nil {
			a.onClose()
		}
	})
}

// Run executes the UI loop using shiny's driver.
func (a *AppState) Run() { driver.Main(a.Main) }

// Main runs the event loop on s until the window closes.
func (a *AppState) Main(s screen.Screen) {
	width, height := windowSize(a.Session)
	w, err := s.NewWindow(&screen.NewWindowOptions{Width: width, Height: height, Title: "MuralMend"})
	if err != nil {
		log.Fatalf("new window: %v", err)
	}
	defer w.Release()
	defer a.notifyClose()

	c := newController(a)
	c.start = func(sub session.Submission) {
		go func() {
			res, err := sub.Run(context.Background(), a.Processor, a.Reconciler)
			w.Send(resultEvent{res: res, err: err})
		}()
	}
	c.load = func(source string, fetch func() (image.Image, error)) {
		go func() {
			img, err := fetch()
			w.Send(imageEvent{img: img, source: source, err: err})
		}()
	}
	if a.Reconciler != nil {
		a.Reconciler.OnChange(func(st progress.State) { w.Send(progressEvent{state: st}) })
		defer a.Reconciler.Stop()
	}

	var paintMu sync.Mutex
	var paintCancel context.CancelFunc
	var dropCount int
	paintCh := make(chan paintState, 1)
	go func() {
		for st := range paintCh {
			ctx, cancel := context.WithCancel(context.Background())
			paintMu.Lock()
			paintCancel = cancel
			paintMu.Unlock()
			drawFrame(ctx, s, w, st)
			paintMu.Lock()
			paintCancel = nil
			if ctx.Err() == nil {
				dropCount = 0
			}
			paintMu.Unlock()
			cancel()
		}
	}()
	defer close(paintCh)

	stopPaint := func() {
		paintMu.Lock()
		if paintCancel != nil {
			paintCancel()
		}
		paintMu.Unlock()
	}

	for {
		e := w.NextEvent()
		repaint := false
		switch e := e.(type) {
		case lifecycle.Event:
			if e.To == lifecycle.StageDead {
				stopPaint()
				return
			}
		case size.Event:
			width, height = e.WidthPx, e.HeightPx
			repaint = true
		case paint.Event:
			paintMu.Lock()
			if paintCancel != nil && dropCount < frameDropThreshold {
				paintCancel()
				dropCount++
			}
			paintMu.Unlock()
			st := c.snapshot(width, height, a)
			select {
			case paintCh <- st:
			default:
				<-paintCh
				paintCh <- st
			}
		case mouse.Event:
			repaint = c.handleMouse(e, layoutFor(width, height))
		case key.Event:
			repaint = c.handleKey(e)
		case resultEvent:
			c.handleResult(e)
			repaint = true
		case progressEvent:
			c.handleProgress(e)
			repaint = true
		case imageEvent:
			c.handleImage(e)
			repaint = true
		case error:
			log.Print(e)
		}
		if c.quit {
			stopPaint()
			return
		}
		if repaint {
			w.Send(paint.Event{})
		}
	}
}
