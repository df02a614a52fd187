package render

import (
	"image"
	"image/color"
)

// DashedRect strokes the outline of rect with dashes of DashLength separated
// by gaps of GapLength. The stroke is centred on the outline.
func DashedRect(img *image.RGBA, rect image.Rectangle, thickness int, col color.Color) {
	rect = rect.Canon()
	DashedLine(img, rect.Min.X, rect.Min.Y, rect.Max.X, rect.Min.Y, thickness, col)
	DashedLine(img, rect.Max.X, rect.Min.Y, rect.Max.X, rect.Max.Y, thickness, col)
	DashedLine(img, rect.Max.X, rect.Max.Y, rect.Min.X, rect.Max.Y, thickness, col)
	DashedLine(img, rect.Min.X, rect.Max.Y, rect.Min.X, rect.Min.Y, thickness, col)
}

// DashedLine draws an axis-aligned dashed line from (x0,y0) to (x1,y1).
// Only horizontal and vertical lines are supported.
func DashedLine(img *image.RGBA, x0, y0, x1, y1, thickness int, col color.Color) {
	horiz := y0 == y1
	length := x1 - x0
	if !horiz {
		length = y1 - y0
	}
	dir := 1
	if length < 0 {
		length, dir = -length, -1
	}
	half := thickness / 2
	period := DashLength + GapLength
	for i := 0; i <= length; i++ {
		if i%period >= DashLength {
			continue
		}
		for t := -half; t < thickness-half; t++ {
			if horiz {
				img.Set(x0+dir*i, y0+t, col)
			} else {
				img.Set(x0+t, y0+dir*i, col)
			}
		}
	}
}

// FillRect fills rect with col.
func FillRect(img *image.RGBA, rect image.Rectangle, col color.Color) {
	rect = rect.Intersect(img.Bounds())
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			img.Set(x, y, col)
		}
	}
}

// OutlineRect strokes a solid one pixel outline just inside rect.
func OutlineRect(img *image.RGBA, rect image.Rectangle, col color.Color) {
	for x := rect.Min.X; x < rect.Max.X; x++ {
		img.Set(x, rect.Min.Y, col)
		img.Set(x, rect.Max.Y-1, col)
	}
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		img.Set(rect.Min.X, y, col)
		img.Set(rect.Max.X-1, y, col)
	}
}
