// Package capture grabs the desktop so a mural photo open in another
// application can be annotated without saving it first.
package capture

import (
	"errors"
	"fmt"
	"image"
)

// ErrUnsupported is returned on platforms without a capture backend.
var ErrUnsupported = errors.New("screen capture is not supported on this platform")

// Options controls a capture.
type Options struct {
	// Interactive lets the user pick a region through the desktop portal.
	Interactive   bool
	IncludeCursor bool
}

// Screen captures the desktop. The freedesktop portal is tried first; on X11
// sessions the root window is read directly when the portal is unavailable.
func Screen(opts Options) (*image.RGBA, error) {
	img, portalErr := portalScreenshot(opts)
	if portalErr == nil {
		return img, nil
	}
	if opts.Interactive || runningOnWayland() {
		return nil, portalErr
	}
	img, err := rootWindowImage()
	if err != nil {
		return nil, fmt.Errorf("portal: %v; x11 fallback: %w", portalErr, err)
	}
	return img, nil
}
