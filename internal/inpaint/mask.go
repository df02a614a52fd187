// Package inpaint is a self-contained restoration backend: it masks the
// marked regions, splits the image into overlapping patches, fills each
// patch and blends the patches back together.
package inpaint

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

const (
	// MaskDilate grows every box outward before softening.
	MaskDilate = 3
	// MaskSoften is the blur sigma applied to the mask edge.
	MaskSoften = 2.0
)

// BuildMask returns a soft mask the size of bounds where 255 marks pixels to
// restore. Boxes are clipped to bounds.
func BuildMask(bounds image.Rectangle, boxes []image.Rectangle) *image.Gray {
	w, h := bounds.Dx(), bounds.Dy()
	hard := image.NewGray(image.Rect(0, 0, w, h))
	local := image.Rect(0, 0, w, h)
	for _, b := range boxes {
		r := b.Sub(bounds.Min).Inset(-MaskDilate).Intersect(local)
		for y := r.Min.Y; y < r.Max.Y; y++ {
			for x := r.Min.X; x < r.Max.X; x++ {
				hard.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}
	if MaskSoften <= 0 {
		return hard
	}
	soft := imaging.Blur(hard, MaskSoften)
	out := image.NewGray(local)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := soft.NRGBAAt(x, y).R
			// Keep the core of every box fully masked.
			if hard.GrayAt(x, y).Y == 255 && v < 255 {
				v = max(v, 128)
			}
			out.SetGray(x, y, color.Gray{Y: v})
		}
	}
	return out
}

// Coverage returns the fraction of mask pixels that are non-zero.
func Coverage(mask *image.Gray) float64 {
	n := 0
	for _, v := range mask.Pix {
		if v > 0 {
			n++
		}
	}
	if len(mask.Pix) == 0 {
		return 0
	}
	return float64(n) / float64(len(mask.Pix))
}
