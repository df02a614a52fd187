package inpaint

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/disintegration/imaging"
)

const (
	PatchSize   = 512
	PatchStride = 256
)

// Tiles returns the origin of every patch covering a w x h image, scanning
// rows top to bottom. Patches at the right and bottom edges extend past the
// image and are zero padded.
func Tiles(w, h, size, stride int) []image.Rectangle {
	var out []image.Rectangle
	for y := 0; y < h; y += stride {
		for x := 0; x < w; x += stride {
			out = append(out, image.Rect(x, y, x+size, y+size))
		}
	}
	return out
}

// Patch is one tile of the source image with its mask.
type Patch struct {
	Rect  image.Rectangle
	Image *image.NRGBA
	Mask  *image.Gray
}

// Split cuts src and mask into padded square patches.
func Split(src image.Image, mask *image.Gray, size, stride int) []Patch {
	b := src.Bounds()
	norm := imaging.Clone(src)
	var out []Patch
	for _, r := range Tiles(b.Dx(), b.Dy(), size, stride) {
		img := imaging.New(size, size, color.NRGBA{})
		img = imaging.Paste(img, imaging.Crop(norm, r), image.Pt(0, 0))
		m := image.NewGray(image.Rect(0, 0, size, size))
		draw.Draw(m, m.Bounds(), mask, r.Min, draw.Src)
		out = append(out, Patch{Rect: r, Image: img, Mask: m})
	}
	return out
}

// Merge averages overlapping patches back into a w x h image.
func Merge(patches []Patch, w, h int) *image.NRGBA {
	sum := make([]float64, w*h*4)
	weight := make([]float64, w*h)
	for _, p := range patches {
		for y := 0; y < p.Image.Bounds().Dy(); y++ {
			gy := p.Rect.Min.Y + y
			if gy >= h {
				break
			}
			for x := 0; x < p.Image.Bounds().Dx(); x++ {
				gx := p.Rect.Min.X + x
				if gx >= w {
					break
				}
				c := p.Image.NRGBAAt(x, y)
				i := gy*w + gx
				sum[i*4] += float64(c.R)
				sum[i*4+1] += float64(c.G)
				sum[i*4+2] += float64(c.B)
				sum[i*4+3] += float64(c.A)
				weight[i]++
			}
		}
	}
	out := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i, wt := range weight {
		if wt == 0 {
			continue
		}
		for k := 0; k < 4; k++ {
			out.Pix[i*4+k] = uint8(sum[i*4+k]/wt + 0.5)
		}
	}
	return out
}
