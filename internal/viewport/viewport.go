// Package viewport maps between image space and display space for a single
// scaled and translated image.
package viewport

const (
	// MinScale and MaxScale bound every zoom operation.
	MinScale = 0.1
	MaxScale = 10.0

	// WheelInFactor and WheelOutFactor are applied per wheel notch.
	WheelInFactor  = 1.1
	WheelOutFactor = 0.9

	// ZoomInFactor and ZoomOutFactor are applied by the keyboard and toolbar
	// zoom actions around the display centre.
	ZoomInFactor  = 1.2
	ZoomOutFactor = 0.8
)

// Viewport holds the transform from image space to display space:
//
//	display = image*Scale + Offset
type Viewport struct {
	Scale   float64
	OffsetX float64
	OffsetY float64

	initScale   float64
	initOffsetX float64
	initOffsetY float64
}

// New returns an identity viewport.
func New() *Viewport {
	return &Viewport{Scale: 1, initScale: 1}
}

// Fit computes the largest scale no greater than 1 that keeps an image of
// imageW x imageH inside maxW x maxH. The width bound is applied first and the
// height bound second. The result becomes the initial state restored by Reset.
func (v *Viewport) Fit(imageW, imageH, maxW, maxH float64) (displayW, displayH, scale float64) {
	if imageW <= 0 || imageH <= 0 {
		v.set(1, 0, 0)
		return 0, 0, 1
	}
	displayW, displayH = imageW, imageH
	if displayW > maxW {
		displayH = displayH * maxW / displayW
		displayW = maxW
	}
	if displayH > maxH {
		displayW = displayW * maxH / displayH
		displayH = maxH
	}
	scale = displayW / imageW
	v.set(scale, 0, 0)
	return displayW, displayH, scale
}

func (v *Viewport) set(scale, ox, oy float64) {
	v.Scale, v.OffsetX, v.OffsetY = scale, ox, oy
	v.initScale, v.initOffsetX, v.initOffsetY = scale, ox, oy
}

// ZoomAt multiplies the scale by factor while keeping the image point under
// the display-space anchor fixed. The new scale is clamped to
// [MinScale, MaxScale]; when clamping leaves the scale unchanged nothing is
// modified and false is returned.
func (v *Viewport) ZoomAt(anchorX, anchorY, factor float64) bool {
	ns := clamp(v.Scale*factor, MinScale, MaxScale)
	if ns == v.Scale {
		return false
	}
	ix, iy := v.ToImage(anchorX, anchorY)
	v.Scale = ns
	v.OffsetX = anchorX - ix*ns
	v.OffsetY = anchorY - iy*ns
	return true
}

// Pan translates the viewport by a display-space delta.
func (v *Viewport) Pan(dx, dy float64) {
	v.OffsetX += dx
	v.OffsetY += dy
}

// Reset restores the scale and offset computed by the last Fit.
func (v *Viewport) Reset() {
	v.Scale, v.OffsetX, v.OffsetY = v.initScale, v.initOffsetX, v.initOffsetY
}

// ToImage converts a display-space point to image space.
func (v *Viewport) ToImage(x, y float64) (float64, float64) {
	return (x - v.OffsetX) / v.Scale, (y - v.OffsetY) / v.Scale
}

// ToDisplay converts an image-space point to display space.
func (v *Viewport) ToDisplay(x, y float64) (float64, float64) {
	return x*v.Scale + v.OffsetX, y*v.Scale + v.OffsetY
}

// ImageBounds returns the display-space box covered by an image of the given
// size.
func (v *Viewport) ImageBounds(imageW, imageH float64) (x0, y0, x1, y1 float64) {
	x0, y0 = v.OffsetX, v.OffsetY
	x1, y1 = v.ToDisplay(imageW, imageH)
	return x0, y0, x1, y1
}

// Contains reports whether the display-space point lies on the image,
// edges included.
func (v *Viewport) Contains(x, y, imageW, imageH float64) bool {
	x0, y0, x1, y1 := v.ImageBounds(imageW, imageH)
	return x >= x0 && x <= x1 && y >= y0 && y <= y1
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
