// Package compositor renders pipeline output for operator feedback. Masked
// regions of a frame are backed by a checkerboard pattern, the usual cue
// for transparency.
package compositor

import (
	"image"

	"github.com/disintegration/imaging"
	xdraw "golang.org/x/image/draw"

	"github.com/menta2k/mask-studio/pkg/types"
)

// Compositor draws checker-backed previews. The full-size pattern is cached
// and regenerated only when the requested dimensions change, so per-tick
// rendering does not re-tile. One compositor serves one pipeline instance;
// the cache is not safe to share across concurrent sessions.
type Compositor struct {
	tileSize int
	colorA   uint8
	colorB   uint8
	pattern  *image.NRGBA
}

// New creates a compositor. Brightness and contrast are percentages, each
// clamped to [0,100]: brightness sets the midpoint gray of the two tile
// colors and contrast sets their spread around it.
func New(brightnessPct, contrastPct, tileSizePx int) *Compositor {
	brightnessPct = clampPct(brightnessPct)
	contrastPct = clampPct(contrastPct)
	if tileSizePx < 1 {
		tileSizePx = 1
	}

	mid := 255.0 * float64(brightnessPct) / 100.0
	maxDiff := mid
	if 255.0-mid < maxDiff {
		maxDiff = 255.0 - mid
	}
	diff := maxDiff * float64(contrastPct) / 100.0

	return &Compositor{
		tileSize: tileSizePx,
		colorA:   uint8(mid - diff + 0.5),
		colorB:   uint8(mid + diff + 0.5),
	}
}

// Colors returns the two tile gray values, dark first
func (c *Compositor) Colors() (uint8, uint8) {
	return c.colorA, c.colorB
}

// Pattern returns the full checkerboard at the given size. The result is
// cached; callers must not mutate it.
func (c *Compositor) Pattern(w, h int) *image.NRGBA {
	if c.pattern != nil && c.pattern.Bounds().Dx() == w && c.pattern.Bounds().Dy() == h {
		return c.pattern
	}
	p := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := c.colorA
			if (x/c.tileSize+y/c.tileSize)%2 == 1 {
				v = c.colorB
			}
			i := p.PixOffset(x, y)
			p.Pix[i+0] = v
			p.Pix[i+1] = v
			p.Pix[i+2] = v
			p.Pix[i+3] = 255
		}
	}
	c.pattern = p
	return p
}

// Superimpose blends the frame over a checker pattern using the mask:
// foreground pixels show the frame, background pixels show the pattern.
// The mask is scaled to the frame size with nearest-neighbor sampling when
// the resolutions differ.
func (c *Compositor) Superimpose(frame image.Image, mask types.Mask) *image.NRGBA {
	b := frame.Bounds()
	w, h := b.Dx(), b.Dy()

	out := imaging.Clone(frame)
	pattern := c.Pattern(w, h)
	m := scaleMask(mask, w, h)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if m.At(x, y) {
				continue
			}
			i := out.PixOffset(x, y)
			j := pattern.PixOffset(x, y)
			copy(out.Pix[i:i+4], pattern.Pix[j:j+4])
		}
	}
	return out
}

// scaleMask resamples a binary mask to the target size without introducing
// intermediate gray levels
func scaleMask(mask types.Mask, w, h int) types.Mask {
	if mask.W == w && mask.H == h {
		return mask
	}
	src := image.NewGray(image.Rect(0, 0, mask.W, mask.H))
	copy(src.Pix, mask.Pix)
	dst := image.NewGray(image.Rect(0, 0, w, h))
	xdraw.NearestNeighbor.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Src, nil)

	out := types.Mask{W: w, H: h, Pix: dst.Pix}
	return out
}

func clampPct(v int) int {
	if v < 0 {
		v = -v
	}
	if v > 100 {
		return 100
	}
	return v
}
