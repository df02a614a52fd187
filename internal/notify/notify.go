// Package notify turns editor events into desktop notifications.
package notify

import (
	"fmt"
	"image"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/example/muralmend/internal/platform"
)

// Event identifies a notification trigger.
type Event string

const (
	// EventRestore fires when a restored image arrives from the service.
	EventRestore Event = "restore"
	// EventSave fires when an image is written to disk.
	EventSave Event = "save"
	// EventCopy fires when an image is placed on the clipboard.
	EventCopy Event = "copy"
	// EventFailure fires when a restoration request fails.
	EventFailure Event = "failure"
)

// EventPreference describes formatting for a notification event.
type EventPreference struct {
	Template string
}

// Preferences describes notification behaviour loaded from configuration.
type Preferences struct {
	Title  string
	Events map[Event]EventPreference
}

// DefaultPreferences returns the default notification settings.
func DefaultPreferences() Preferences {
	return Preferences{
		Title: platform.AppName,
		Events: map[Event]EventPreference{
			EventRestore: {Template: "Restoration finished in %s"},
			EventSave:    {Template: "Saved %s"},
			EventCopy:    {Template: "Copied %s to clipboard"},
			EventFailure: {Template: "Restoration failed: %s"},
		},
	}
}

// LoadPreferences reads overrides from MURALMEND_NOTIFY_* variables.
func LoadPreferences(getenv func(string) string) Preferences {
	if getenv == nil {
		getenv = os.Getenv
	}
	prefs := DefaultPreferences()
	if v := strings.TrimSpace(getenv("MURALMEND_NOTIFY_TITLE")); v != "" {
		prefs.Title = v
	}
	for event := range prefs.Events {
		key := "MURALMEND_NOTIFY_" + strings.ToUpper(string(event)) + "_TEXT"
		if v := strings.TrimSpace(getenv(key)); v != "" {
			prefs.Events[event] = EventPreference{Template: v}
		}
	}
	return prefs
}

// Sender delivers one notification. platform.Notify is the default.
type Sender func(title, body string, opts platform.Options) error

// Notifier sends OS-level notifications for enabled events.
type Notifier struct {
	prefs   Preferences
	enabled map[Event]bool
	send    Sender
}

// New creates a Notifier with every event disabled.
func New(prefs Preferences) *Notifier {
	cloned := Preferences{Title: prefs.Title, Events: make(map[Event]EventPreference, len(prefs.Events))}
	for k, v := range prefs.Events {
		cloned.Events[k] = v
	}
	return &Notifier{prefs: cloned, enabled: make(map[Event]bool), send: platform.Notify}
}

// WithSender replaces the delivery function.
func (n *Notifier) WithSender(s Sender) *Notifier {
	if n != nil && s != nil {
		n.send = s
	}
	return n
}

// Enable toggles the notifier for the provided event.
func (n *Notifier) Enable(event Event, enabled bool) {
	if n == nil {
		return
	}
	n.enabled[event] = enabled
}

// Restored reports a finished restoration with a thumbnail of the result.
func (n *Notifier) Restored(elapsed string, img image.Image) {
	if !n.enabledFor(EventRestore) {
		return
	}
	opts := platform.Options{}
	if img != nil {
		if path, cleanup, err := createPreview(img); err != nil {
			log.Printf("notification preview: %v", err)
		} else {
			defer cleanup()
			opts.IconPath = path
		}
	}
	n.dispatch(EventRestore, elapsed, opts)
}

// Save sends a save notification naming the written file.
func (n *Notifier) Save(path string) {
	if !n.enabledFor(EventSave) {
		return
	}
	detail := strings.TrimSpace(path)
	opts := platform.Options{}
	if abs, err := filepath.Abs(path); err == nil {
		detail = abs
		if _, statErr := os.Stat(abs); statErr == nil {
			opts.IconPath = abs
		}
	}
	n.dispatch(EventSave, detail, opts)
}

// Copy sends a clipboard notification.
func (n *Notifier) Copy(detail string) {
	if strings.TrimSpace(detail) == "" {
		detail = "image"
	}
	n.dispatch(EventCopy, detail, platform.Options{})
}

// Failure reports a failed restoration.
func (n *Notifier) Failure(err error) {
	if err == nil {
		return
	}
	n.dispatch(EventFailure, err.Error(), platform.Options{Urgent: true})
}

func (n *Notifier) enabledFor(event Event) bool {
	return n != nil && n.enabled[event]
}

func (n *Notifier) dispatch(event Event, detail string, opts platform.Options) {
	if !n.enabledFor(event) {
		return
	}
	template := strings.TrimSpace(n.prefs.Events[event].Template)
	if template == "" {
		return
	}
	body := strings.TrimSpace(fmt.Sprintf(template, strings.TrimSpace(detail)))
	if body == "" {
		return
	}
	if err := n.send(n.prefs.Title, body, opts); err != nil {
		log.Printf("notification %s: %v", event, err)
	}
}

// createPreview writes a small PNG thumbnail for the notification icon.
func createPreview(img image.Image) (string, func(), error) {
	f, err := os.CreateTemp("", "muralmend-preview-*.png")
	if err != nil {
		return "", nil, err
	}
	path := f.Name()
	_ = f.Close()
	thumb := imaging.Fit(img, 256, 256, imaging.Lanczos)
	if err := imaging.Save(thumb, path); err != nil {
		_ = os.Remove(path)
		return "", nil, err
	}
	cleanup := func() {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			log.Printf("remove preview: %v", err)
		}
	}
	return path, cleanup, nil
}
