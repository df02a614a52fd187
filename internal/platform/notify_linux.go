//go:build linux

package platform

import (
	"fmt"

	"github.com/godbus/dbus/v5"
)

// freedesktop urgency levels.
const (
	urgencyNormal   byte = 1
	urgencyCritical byte = 2
)

func notifyHints(opts Options) map[string]dbus.Variant {
	level := urgencyNormal
	if opts.Urgent {
		level = urgencyCritical
	}
	return map[string]dbus.Variant{"urgency": dbus.MakeVariant(level)}
}

// Notify sends a desktop notification over the session bus.
func Notify(title, body string, opts Options) error {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return fmt.Errorf("connect session bus: %w", err)
	}
	defer conn.Close()

	obj := conn.Object("org.freedesktop.Notifications", "/org/freedesktop/Notifications")
	call := obj.Call("org.freedesktop.Notifications.Notify", 0,
		AppName, uint32(0), opts.IconPath, title, body, []string{}, notifyHints(opts), opts.timeout())
	return call.Err
}
