package inpaint

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// Restorer fills the masked pixels of one patch.
type Restorer interface {
	Restore(p Patch) *image.NRGBA
}

// RestoreFunc adapts a function to Restorer.
type RestoreFunc func(p Patch) *image.NRGBA

// Restore calls f.
func (f RestoreFunc) Restore(p Patch) *image.NRGBA { return f(p) }

// Diffusion fills masked pixels by repeatedly averaging their known
// neighbours from the outside in, then blends the fill into the original
// through the soft mask.
type Diffusion struct {
	// Smooth is the blur sigma applied to the filled region.
	Smooth float64
}

// Restore implements Restorer.
func (d Diffusion) Restore(p Patch) *image.NRGBA {
	b := p.Image.Bounds()
	w, h := b.Dx(), b.Dy()
	filled := imaging.Clone(p.Image)
	known := make([]bool, w*h)
	pending := 0
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if p.Mask.GrayAt(x, y).Y == 0 {
				known[y*w+x] = true
			} else {
				pending++
			}
		}
	}
	if pending == 0 {
		return filled
	}

	for pending > 0 {
		var next []int
		var cols []color.NRGBA
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				if known[y*w+x] {
					continue
				}
				var r, g, bl, a, n int
				for _, o := range [4][2]int{{-1, 0}, {1, 0}, {0, -1}, {0, 1}} {
					nx, ny := x+o[0], y+o[1]
					if nx < 0 || ny < 0 || nx >= w || ny >= h || !known[ny*w+nx] {
						continue
					}
					c := filled.NRGBAAt(nx, ny)
					r += int(c.R)
					g += int(c.G)
					bl += int(c.B)
					a += int(c.A)
					n++
				}
				if n == 0 {
					continue
				}
				next = append(next, y*w+x)
				cols = append(cols, color.NRGBA{uint8(r / n), uint8(g / n), uint8(bl / n), uint8(a / n)})
			}
		}
		if len(next) == 0 {
			// Entire patch masked: nothing to propagate from.
			break
		}
		for i, idx := range next {
			filled.SetNRGBA(idx%w, idx/w, cols[i])
			known[idx] = true
		}
		pending -= len(next)
	}

	if d.Smooth > 0 {
		filled = imaging.Blur(filled, d.Smooth)
	}

	out := imaging.Clone(p.Image)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			m := uint32(p.Mask.GrayAt(x, y).Y)
			if m == 0 {
				continue
			}
			o := out.NRGBAAt(x, y)
			f := filled.NRGBAAt(x, y)
			mix := func(a, b uint8) uint8 { return uint8((uint32(a)*(255-m) + uint32(b)*m) / 255) }
			out.SetNRGBA(x, y, color.NRGBA{mix(o.R, f.R), mix(o.G, f.G), mix(o.B, f.B), mix(o.A, f.A)})
		}
	}
	return out
}
