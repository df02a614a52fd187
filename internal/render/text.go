package render

import (
	"fmt"
	"image"
	"image/color"
	"log"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/example/muralmend/internal/theme"
)

var messageFace font.Face = basicfont.Face7x13

func init() {
	f, err := opentype.Parse(goregular.TTF)
	if err != nil {
		log.Printf("parse font: %v", err)
		return
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{Size: 20, DPI: 72, Hinting: font.HintingFull})
	if err != nil {
		log.Printf("font face: %v", err)
		return
	}
	messageFace = face
}

// Label draws text with its baseline at (x, y) using the small UI face and
// returns the advance in pixels.
func Label(dst *image.RGBA, x, y int, text string, col color.Color) int {
	d := &font.Drawer{Dst: dst, Src: image.NewUniform(col), Face: basicfont.Face7x13, Dot: fixed.P(x, y)}
	d.DrawString(text)
	return d.Dot.X.Ceil() - x
}

// LabelWidth measures text in the small UI face.
func LabelWidth(text string) int {
	return font.MeasureString(basicfont.Face7x13, text).Ceil()
}

// ProgressBar draws the progress overlay into rect: a track, a fill sized by
// percent and a "NN% message" caption.
func ProgressBar(dst *image.RGBA, rect image.Rectangle, percent int, message string, th *theme.Theme) {
	if th == nil {
		th = theme.Default()
	}
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	FillRect(dst, rect, th.ProgressTrack)
	fill := rect
	fill.Max.X = rect.Min.X + rect.Dx()*percent/100
	FillRect(dst, fill, th.ProgressFill)
	OutlineRect(dst, rect, th.Foreground)

	caption := fmt.Sprintf("%d%%", percent)
	if message != "" {
		caption += "  " + message
	}
	y := rect.Min.Y + (rect.Dy()+basicfont.Face7x13.Ascent)/2
	Label(dst, rect.Min.X+6, y, caption, th.ProgressText)
}

// Banner draws message centred in bounds on a translucent panel.
func Banner(dst *image.RGBA, bounds image.Rectangle, message string, th *theme.Theme) {
	if message == "" {
		return
	}
	if th == nil {
		th = theme.Default()
	}
	d := &font.Drawer{Dst: dst, Src: image.NewUniform(th.Foreground), Face: messageFace}
	w := d.MeasureString(message).Ceil()
	m := messageFace.Metrics()
	ascent, descent := m.Ascent.Ceil(), m.Descent.Ceil()
	px := bounds.Min.X + (bounds.Dx()-w)/2
	py := bounds.Min.Y + (bounds.Dy()-ascent-descent)/2 + ascent
	panel := image.Rect(px-8, py-ascent-8, px+w+8, py+descent+8)
	bg := th.Background
	bg.A = 230
	for y := panel.Min.Y; y < panel.Max.Y; y++ {
		for x := panel.Min.X; x < panel.Max.X; x++ {
			if image.Pt(x, y).In(dst.Bounds()) {
				dst.Set(x, y, blend(dst.RGBAAt(x, y), bg))
			}
		}
	}
	OutlineRect(dst, panel, th.Foreground)
	d.Dot = fixed.P(px, py)
	d.DrawString(message)
}

func blend(under, over color.RGBA) color.RGBA {
	a := uint32(over.A)
	mix := func(u, o uint8) uint8 { return uint8((uint32(o)*a + uint32(u)*(255-a)) / 255) }
	return color.RGBA{mix(under.R, over.R), mix(under.G, over.G), mix(under.B, over.B), 255}
}
