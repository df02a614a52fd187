package appstate

import (
	"context"
	"fmt"
	"image"
	"log"
	"time"
	"unicode"

	"golang.org/x/mobile/event/key"
	"golang.org/x/mobile/event/mouse"

	"github.com/example/muralmend/internal/export"
	"github.com/example/muralmend/internal/intake"
	"github.com/example/muralmend/internal/interaction"
	"github.com/example/muralmend/internal/notify"
	"github.com/example/muralmend/internal/progress"
	"github.com/example/muralmend/internal/restore"
	"github.com/example/muralmend/internal/session"
)

const messageDuration = 2 * time.Second

// resultEvent carries a finished submission back to the event loop.
type resultEvent struct {
	res *restore.Result
	err error
}

// progressEvent carries a reconciler snapshot to the event loop.
type progressEvent struct {
	state progress.State
}

// imageEvent carries an image loaded off the event loop.
type imageEvent struct {
	img    image.Image
	source string
	err    error
}

// controller owns the editor state driven by window events. All methods run
// on the event loop goroutine.
type controller struct {
	sess     *session.Session
	proc     session.Processor
	rec      *progress.Reconciler
	notifier *notify.Notifier
	saveDir  string
	format   string

	actions map[string]func()
	keys    map[KeyShortcut]string

	// start launches a submission and later delivers a resultEvent.
	start func(session.Submission)
	// load fetches an image from a slow source and later delivers an imageEvent.
	load func(source string, fetch func() (image.Image, error))

	busy         bool
	progress     progress.State
	message      string
	messageUntil time.Time
	pointer      image.Point
	mod          bool
	quit         bool
	hover        int
}

func newController(a *AppState) *controller {
	c := &controller{
		sess:     a.Session,
		proc:     a.Processor,
		rec:      a.Reconciler,
		notifier: a.Notifier,
		saveDir:  a.SaveDir,
		format:   a.Format,
		hover:    -1,
	}
	c.start = func(sub session.Submission) {
		res, err := sub.Run(context.Background(), c.proc, c.rec)
		c.handleResult(resultEvent{res: res, err: err})
	}
	c.load = func(source string, fetch func() (image.Image, error)) {
		img, err := fetch()
		c.handleImage(imageEvent{img: img, source: source, err: err})
	}
	c.registerActions()
	return c
}

func (c *controller) register(name string, keys KeyboardShortcuts, fn func()) {
	c.actions[name] = fn
	if keys != nil {
		for _, sc := range keys.KeyboardShortcuts() {
			c.keys[sc] = name
		}
	}
}

func (c *controller) registerActions() {
	c.actions = map[string]func(){}
	c.keys = map[KeyShortcut]string{}

	c.register("submit", shortcutList{{Code: key.CodeReturnEnter}}, c.submit)
	c.register("undo", shortcutList{{Rune: 'u'}, {Rune: 'z', Modifiers: key.ModControl}}, func() {
		c.sess.Undo()
	})
	c.register("clear", shortcutList{{Rune: 'c'}}, func() {
		c.sess.Clear()
	})
	c.register("zoomin", shortcutList{{Rune: '+'}, {Rune: '='}}, func() { c.sess.ZoomIn() })
	c.register("zoomout", shortcutList{{Rune: '-'}}, func() { c.sess.ZoomOut() })
	c.register("reset", shortcutList{{Rune: '0'}}, func() { c.sess.ResetView() })
	c.register("cancel", shortcutList{{Code: key.CodeEscape}}, func() {
		if m := c.sess.Machine(); m != nil {
			m.Cancel()
		}
	})
	c.register("save", shortcutList{{Rune: 's', Modifiers: key.ModControl}}, c.save)
	c.register("copy", shortcutList{{Rune: 'c', Modifiers: key.ModControl}}, c.copyImage)
	c.register("paste", shortcutList{{Rune: 'v', Modifiers: key.ModControl}}, func() {
		c.change("clipboard", intake.FromClipboard)
	})
	c.register("capture", shortcutList{{Rune: 'n', Modifiers: key.ModControl}}, func() {
		c.change("screen", func() (image.Image, error) { return intake.CaptureScreen(false) })
	})
	c.register("quit", shortcutList{{Rune: 'q'}}, func() { c.quit = true })
}

// shortcutFor maps a key event to a lookup key. Meta is folded into Control
// and Shift is ignored so '+' matches regardless of layout.
func shortcutFor(e key.Event) KeyShortcut {
	mods := e.Modifiers & (key.ModControl | key.ModMeta)
	if mods&key.ModMeta != 0 {
		mods = mods&^key.ModMeta | key.ModControl
	}
	switch e.Code {
	case key.CodeReturnEnter, key.CodeKeypadEnter:
		return KeyShortcut{Code: key.CodeReturnEnter, Modifiers: mods}
	case key.CodeEscape:
		return KeyShortcut{Code: key.CodeEscape, Modifiers: mods}
	}
	r := e.Rune
	if mods != 0 && r > 0 && r < 0x20 {
		r += 'a' - 1
	}
	if r > 0 {
		return KeyShortcut{Rune: unicode.ToLower(r), Modifiers: mods}
	}
	return KeyShortcut{Code: e.Code, Modifiers: mods}
}

// trigger runs the named action if it is currently enabled.
func (c *controller) trigger(name string) bool {
	fn, ok := c.actions[name]
	if !ok || !c.enabled(name) {
		return false
	}
	fn()
	return true
}

func (c *controller) enabled(name string) bool {
	loaded := c.sess.Loaded()
	switch name {
	case "submit":
		return loaded && !c.busy && c.sess.CanUndo()
	case "undo", "clear":
		return c.sess.CanUndo()
	case "zoomin", "zoomout", "reset", "save", "copy", "cancel":
		return loaded
	case "paste", "capture":
		return !c.busy
	}
	return true
}

// handleKey reports whether the frame needs repainting.
func (c *controller) handleKey(e key.Event) bool {
	c.mod = e.Modifiers&(key.ModControl|key.ModMeta) != 0
	if e.Direction != key.DirPress {
		return e.Direction == key.DirRelease
	}
	name, ok := c.keys[shortcutFor(e)]
	if !ok {
		return false
	}
	c.trigger(name)
	return true
}

// handleMouse routes pointer input over the canvas to the pointer machine.
// x and y are window coordinates.
func (c *controller) handleMouse(e mouse.Event, lay layout) bool {
	p := image.Pt(int(e.X), int(e.Y))
	c.pointer = p
	c.mod = e.Modifiers&(key.ModControl|key.ModMeta) != 0

	if p.In(lay.bar) && !e.Button.IsWheel() {
		return c.handleBar(e, lay)
	}
	if c.hover != -1 {
		c.hover = -1
	}
	m := c.sess.Machine()
	if m == nil {
		return false
	}
	x := float64(e.X) - float64(lay.canvas.Min.X)
	y := float64(e.Y) - float64(lay.canvas.Min.Y)

	if e.Button.IsWheel() {
		switch e.Button {
		case mouse.ButtonWheelUp:
			return m.Wheel(x, y, -1).Render
		case mouse.ButtonWheelDown:
			return m.Wheel(x, y, 1).Render
		}
		return false
	}
	switch e.Direction {
	case mouse.DirPress:
		if e.Button == mouse.ButtonLeft {
			m.PointerDown(x, y, c.mod)
		}
		return true
	case mouse.DirRelease:
		if e.Button == mouse.ButtonLeft {
			return m.PointerUp(x, y, c.mod).Render
		}
	case mouse.DirNone:
		m.PointerMove(x, y, c.mod)
		return true
	}
	return false
}

func (c *controller) handleBar(e mouse.Event, lay layout) bool {
	shortcuts := c.shortcuts()
	placeShortcuts(shortcuts, lay.bar)
	p := image.Pt(int(e.X), int(e.Y))
	c.hover = -1
	for i := range shortcuts {
		if p.In(shortcuts[i].rect) {
			c.hover = i
			if e.Button == mouse.ButtonLeft && e.Direction == mouse.DirPress {
				c.trigger(shortcuts[i].Action)
			}
			break
		}
	}
	return true
}

// shortcuts lists the bar entries with their current availability.
func (c *controller) shortcuts() []Shortcut {
	z := 100.0
	if c.sess.Loaded() {
		z = c.sess.Viewport().Scale * 100
	}
	list := []Shortcut{
		{Label: "Enter:restore", Action: "submit"},
		{Label: "U:undo", Action: "undo"},
		{Label: "C:clear", Action: "clear"},
		{Label: fmt.Sprintf("+/-:zoom (%.0f%%)", z), Action: "zoomin"},
		{Label: "0:reset", Action: "reset"},
		{Label: "^S:save", Action: "save"},
		{Label: "^C:copy", Action: "copy"},
		{Label: "^V:paste", Action: "paste"},
		{Label: "Q:quit", Action: "quit"},
	}
	for i := range list {
		list[i].Enabled = c.enabled(list[i].Action)
	}
	return list
}

func (c *controller) cursor() interaction.Cursor {
	m := c.sess.Machine()
	if m == nil {
		return interaction.CursorDefault
	}
	return m.Cursor(float64(c.pointer.X), float64(c.pointer.Y-statusHeight), c.mod)
}

func (c *controller) setMessage(msg string) {
	c.message = msg
	c.messageUntil = time.Now().Add(messageDuration)
	log.Print(msg)
}

func (c *controller) submit() {
	sub, err := c.sess.Snapshot()
	if err != nil {
		c.setMessage(err.Error())
		return
	}
	c.busy = true
	c.progress = progress.State{Polling: true}
	c.start(sub)
}

func (c *controller) handleResult(ev resultEvent) {
	c.busy = false
	if ev.err != nil {
		c.setMessage(ev.err.Error())
		c.notifier.Failure(ev.err)
		return
	}
	if err := c.sess.ApplyResult(ev.res.Image); err != nil {
		c.setMessage(err.Error())
		return
	}
	elapsed := fmt.Sprintf("%.1fs", ev.res.Elapsed.Seconds())
	c.setMessage("Restoration completed in " + elapsed)
	c.notifier.Restored(elapsed, ev.res.Image)
}

func (c *controller) handleProgress(ev progressEvent) {
	c.progress = ev.state
}

func (c *controller) change(source string, fetch func() (image.Image, error)) {
	c.load(source, fetch)
}

func (c *controller) handleImage(ev imageEvent) {
	if ev.err != nil {
		c.setMessage(fmt.Sprintf("%s: %v", ev.source, ev.err))
		return
	}
	if err := c.sess.LoadImage(ev.img); err != nil {
		c.setMessage(fmt.Sprintf("%s: %v", ev.source, err))
		return
	}
	c.setMessage("loaded image from " + ev.source)
}

func (c *controller) save() {
	path, err := export.Save(c.sess.Image(), c.saveDir, c.format)
	if err != nil {
		log.Printf("save: %v", err)
		c.setMessage("save failed")
		return
	}
	c.setMessage(fmt.Sprintf("saved %s", path))
	c.notifier.Save(path)
}

func (c *controller) copyImage() {
	if err := export.Copy(c.sess.Image()); err != nil {
		log.Printf("copy: %v", err)
		c.setMessage("copy failed")
		return
	}
	c.setMessage("image copied to clipboard")
	c.notifier.Copy("image")
}

const emptyHint = "^V to paste an image, ^N to capture the screen"

func (c *controller) snapshot(width, height int, a *AppState) paintState {
	return paintState{
		width:        width,
		height:       height,
		frame:        c.sess.Frame(image.Rectangle{}, a.Theme),
		theme:        a.Theme,
		status:       statusLine(c.sess, cursorLabel(c.cursor())),
		shortcuts:    c.placedShortcuts(width, height),
		hover:        c.hover,
		busy:         c.busy,
		progress:     c.progress,
		message:      c.message,
		messageUntil: c.messageUntil,
		hint:         emptyHint,
	}
}

func (c *controller) placedShortcuts(width, height int) []Shortcut {
	list := c.shortcuts()
	placeShortcuts(list, layoutFor(width, height).bar)
	return list
}
