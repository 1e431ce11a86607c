package imgio

import (
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"

	"github.com/menta2k/mask-studio/pkg/types"
)

// DrawPrompts renders the prompt set over a copy of the frame: box prompts
// as outlines, foreground points as green crosshairs, background points as
// red crosshairs. Used for session previews and debugging.
func DrawPrompts(img image.Image, prompts types.PromptSet) *image.NRGBA {
	nrgba := imaging.Clone(img)
	w := nrgba.Bounds().Dx()
	h := nrgba.Bounds().Dy()

	boxColor := color.NRGBA{255, 204, 0, 255}
	fgColor := color.NRGBA{0, 255, 0, 255}
	bgColor := color.NRGBA{255, 0, 0, 255}
	stroke := int(math.Max(2, 0.004*float64(minInt(w, h)))) // ~0.4% of min side
	cross := int(math.Max(4, 0.01*float64(minInt(w, h))))   // ~1% of min side

	for _, b := range prompts.Boxes {
		drawBox(nrgba, b, w, h, boxColor, stroke)
	}
	for _, p := range prompts.FGPoints {
		drawCross(nrgba, p, w, h, fgColor, cross)
	}
	for _, p := range prompts.BGPoints {
		drawCross(nrgba, p, w, h, bgColor, cross)
	}
	return nrgba
}

func drawCross(img *image.NRGBA, p types.Point, w, h int, c color.NRGBA, cross int) {
	px := int(clamp(p.X, 0, 1)*float64(w) + 0.5)
	py := int(clamp(p.Y, 0, 1)*float64(h) + 0.5)
	drawHLine(img, py, px-cross, px+cross, c)
	drawVLine(img, px, py-cross, py+cross, c)
}

func drawBox(img *image.NRGBA, box types.Box, w, h int, c color.NRGBA, stroke int) {
	x0 := int(clamp(box.TL.X, 0, 1)*float64(w) + 0.5)
	y0 := int(clamp(box.TL.Y, 0, 1)*float64(h) + 0.5)
	x1 := int(clamp(box.BR.X, 0, 1)*float64(w) + 0.5)
	y1 := int(clamp(box.BR.Y, 0, 1)*float64(h) + 0.5)
	if x1 <= x0 {
		x1 = x0 + 1
	}
	if y1 <= y0 {
		y1 = y0 + 1
	}
	for s := 0; s < stroke; s++ {
		drawHLine(img, y0+s, x0, x1, c)
		drawHLine(img, y1-1-s, x0, x1, c)
		drawVLine(img, x0+s, y0, y1, c)
		drawVLine(img, x1-1-s, y0, y1, c)
	}
}

func drawHLine(img *image.NRGBA, y, x0, x1 int, c color.NRGBA) {
	if y < 0 || y >= img.Bounds().Dy() {
		return
	}
	if x0 > x1 {
		x0, x1 = x1, x0
	}
	if x1 <= 0 || x0 >= img.Bounds().Dx() {
		return
	}
	if x0 < 0 {
		x0 = 0
	}
	if x1 > img.Bounds().Dx() {
		x1 = img.Bounds().Dx()
	}
	i := y*img.Stride + x0*4
	for x := x0; x < x1; x++ {
		img.Pix[i+0] = c.R
		img.Pix[i+1] = c.G
		img.Pix[i+2] = c.B
		img.Pix[i+3] = c.A
		i += 4
	}
}

func drawVLine(img *image.NRGBA, x, y0, y1 int, c color.NRGBA) {
	if x < 0 || x >= img.Bounds().Dx() {
		return
	}
	if y0 > y1 {
		y0, y1 = y1, y0
	}
	if y1 <= 0 || y0 >= img.Bounds().Dy() {
		return
	}
	if y0 < 0 {
		y0 = 0
	}
	if y1 > img.Bounds().Dy() {
		y1 = img.Bounds().Dy()
	}
	i := y0*img.Stride + x*4
	for y := y0; y < y1; y++ {
		img.Pix[i+0] = c.R
		img.Pix[i+1] = c.G
		img.Pix[i+2] = c.B
		img.Pix[i+3] = c.A
		i += img.Stride
	}
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

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
