package theme

import (
	"image/color"
)

// Theme defines the colours used to paint the annotation canvas.
type Theme struct {
	Name string

	// Canvas
	Background color.RGBA // Fill behind the image
	Foreground color.RGBA // Status and shortcut text

	// Annotations
	Stroke     color.RGBA // Committed rectangles
	StrokeDraw color.RGBA // Rectangle being drawn

	// Progress overlay
	ProgressTrack color.RGBA
	ProgressFill  color.RGBA
	ProgressText  color.RGBA

	// Shortcut bar
	BarBackground color.RGBA
	BarText       color.RGBA
	BarDisabled   color.RGBA
}

// Default returns the built-in light theme.
func Default() *Theme {
	return &Theme{
		Name:          "Default",
		Background:    color.RGBA{0xf8, 0xf9, 0xfa, 255},
		Foreground:    color.RGBA{0x21, 0x25, 0x29, 255},
		Stroke:        color.RGBA{0xff, 0x6b, 0x35, 255},
		StrokeDraw:    color.RGBA{0xff, 0x6b, 0x35, 255},
		ProgressTrack: color.RGBA{0xe9, 0xec, 0xef, 255},
		ProgressFill:  color.RGBA{0x4c, 0xaf, 0x50, 255},
		ProgressText:  color.RGBA{0x21, 0x25, 0x29, 255},
		BarBackground: color.RGBA{220, 220, 220, 255},
		BarText:       color.RGBA{0, 0, 0, 255},
		BarDisabled:   color.RGBA{150, 150, 150, 255},
	}
}
