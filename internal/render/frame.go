// Package render paints the annotation canvas. Every function is a pure
// redraw of its inputs onto a destination buffer.
package render

import (
	"image"
	"image/draw"
	"math"

	xdraw "golang.org/x/image/draw"

	"github.com/example/muralmend/internal/annotation"
	"github.com/example/muralmend/internal/theme"
	"github.com/example/muralmend/internal/viewport"
)

// Stroke style for annotation rectangles.
const (
	StrokeWidth = 3
	DashLength  = 5
	GapLength   = 5
)

// Input is everything a frame depends on.
type Input struct {
	// Canvas is the region of dst the image is painted into. Display
	// coordinates are relative to Canvas.Min.
	Canvas   image.Rectangle
	Image    image.Image
	Viewport viewport.Viewport
	Rects    []annotation.Rect
	// Drawing is the rectangle under construction, if any.
	Drawing *annotation.Rect
	Theme   *theme.Theme
}

// Frame clears the canvas, draws the image through the viewport and strokes
// every rectangle.
func Frame(dst *image.RGBA, in Input) {
	th := in.Theme
	if th == nil {
		th = theme.Default()
	}
	canvas := in.Canvas
	if canvas.Empty() {
		canvas = dst.Bounds()
	}
	clip, ok := dst.SubImage(canvas).(*image.RGBA)
	if !ok || clip.Bounds().Empty() {
		return
	}

	draw.Draw(clip, clip.Bounds(), image.NewUniform(th.Background), image.Point{}, draw.Src)

	vp := in.Viewport
	if in.Image != nil {
		sb := in.Image.Bounds()
		dr := DisplayRect(vp, float64(sb.Dx()), float64(sb.Dy())).Add(canvas.Min)
		ScalerFor(vp.Scale).Scale(clip, dr, in.Image, sb, draw.Over, nil)
	}

	for _, r := range in.Rects {
		DashedRect(clip, RectToDisplay(vp, r).Add(canvas.Min), StrokeWidth, th.Stroke)
	}
	if in.Drawing != nil {
		DashedRect(clip, RectToDisplay(vp, *in.Drawing).Add(canvas.Min), StrokeWidth, th.StrokeDraw)
	}
}

// DisplayRect returns the display-space rectangle covered by an image of
// w x h pixels.
func DisplayRect(vp viewport.Viewport, w, h float64) image.Rectangle {
	return RectToDisplay(vp, annotation.Rect{Width: w, Height: h})
}

// RectToDisplay maps an image-space rectangle to display pixels.
func RectToDisplay(vp viewport.Viewport, r annotation.Rect) image.Rectangle {
	x0, y0 := vp.ToDisplay(r.X, r.Y)
	x1, y1 := vp.ToDisplay(r.X+r.Width, r.Y+r.Height)
	return image.Rect(round(x0), round(y0), round(x1), round(y1))
}

// ScalerFor picks a smoothing kernel when shrinking and crisp pixels when
// magnifying.
func ScalerFor(scale float64) xdraw.Scaler {
	if scale < 1 {
		return xdraw.ApproxBiLinear
	}
	return xdraw.NearestNeighbor
}

func round(f float64) int { return int(math.Round(f)) }
