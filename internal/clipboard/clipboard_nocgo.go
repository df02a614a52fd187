//go:build !cgo && !windows

// Package clipboard moves images between the system clipboard and the editor.
package clipboard

import (
	"errors"
	"image"
	"os"
	"sync"
)

var (
	initOnce       sync.Once
	initErr        error
	errNoDisplay   = errors.New("clipboard initialization requires DISPLAY or WAYLAND_DISPLAY")
	errCGODisabled = errors.New("clipboard operations require cgo support")
	// ErrEmpty is returned when the clipboard holds no image.
	ErrEmpty = errors.New("clipboard does not contain image data")
)

func ensureInit() error {
	initOnce.Do(func() {
		if os.Getenv("DISPLAY") != "" || os.Getenv("WAYLAND_DISPLAY") != "" {
			initErr = errCGODisabled
			return
		}
		initErr = errNoDisplay
	})
	return initErr
}

// WriteImage always fails without cgo.
func WriteImage(image.Image) error {
	return ensureInit()
}

// ReadImage always fails without cgo.
func ReadImage() (image.Image, error) {
	if err := ensureInit(); err != nil {
		return nil, err
	}
	return nil, errCGODisabled
}
