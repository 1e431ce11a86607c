// Package contours turns filtered binary masks into clean polygon
// boundaries. The regularization stages run in a fixed order: boundary
// padding, corner rounding, then polygon simplification. Every stage is a
// no-op at its identity parameter value, so an all-zero configuration
// returns the traced contours untouched.
package contours

import (
	"math"

	"github.com/menta2k/mask-studio/pkg/coords"
	"github.com/menta2k/mask-studio/pkg/types"
)

// Pipeline holds the regularization parameters for one tick. Padding and
// Rounding are in pixels at the mask's working resolution, SimplifyTol is a
// perpendicular-distance tolerance in the same pixel units.
type Pipeline struct {
	Padding     int
	Rounding    int
	SimplifyTol float64
	Convention  coords.Convention
}

// Output is the final mutually consistent (contours, mask) pair. OK is
// false when the mask was entirely background at extraction time; that is a
// normal outcome, not an error.
type Output struct {
	OK       bool
	Contours []types.Contour
	Mask     types.Mask
}

// Apply runs extraction and regularization over the mask. Stages that
// mutate mask geometry (padding, rounding) re-derive the contours so mask
// and polygons stay in sync; simplification operates on the polygons alone.
func (p Pipeline) Apply(mask types.Mask) Output {
	polys := tracePolygons(mask)
	if len(polys) == 0 {
		return Output{Mask: mask}
	}

	if p.Padding != 0 {
		mask = Pad(mask, p.Padding)
		polys = tracePolygons(mask)
	}
	if p.Rounding != 0 {
		mask = Round(mask, p.Rounding)
		polys = tracePolygons(mask)
	}
	if len(polys) == 0 {
		// Erosion can empty the mask entirely
		return Output{Mask: mask}
	}

	if p.SimplifyTol > 0 {
		for i, poly := range polys {
			polys[i] = simplifyPixels(poly, p.SimplifyTol)
		}
	}

	out := make([]types.Contour, len(polys))
	for i, poly := range polys {
		c := make(types.Contour, len(poly))
		for j, pt := range poly {
			nx, ny := p.Convention.ToNormalized(int(pt.X), int(pt.Y), mask.W, mask.H)
			c[j] = types.Point{X: nx, Y: ny}
		}
		out[i] = c
	}
	return Output{OK: true, Contours: out, Mask: mask}
}

// Extract traces the outer boundaries of all foreground components and
// returns them in normalized space. ok is false for an all-background mask.
func Extract(mask types.Mask, conv coords.Convention) (bool, []types.Contour) {
	res := Pipeline{Convention: conv}.Apply(mask)
	return res.OK, res.Contours
}

// Pad grows (positive offset) or shrinks (negative offset) the mask
// boundary by the given number of pixels via morphological dilate/erode.
// Zero is a no-op.
func Pad(mask types.Mask, offset int) types.Mask {
	switch {
	case offset > 0:
		return morph(mask, offset, true)
	case offset < 0:
		return morph(mask, -offset, false)
	}
	return mask
}

// Round smooths corners by a signed magnitude: positive amounts apply a
// morphological opening, shaving convex corners; negative amounts apply a
// closing, filling concave notches. Zero is a no-op.
func Round(mask types.Mask, amount int) types.Mask {
	switch {
	case amount > 0:
		return morph(morph(mask, amount, false), amount, true)
	case amount < 0:
		return morph(morph(mask, -amount, true), -amount, false)
	}
	return mask
}

// morph applies n iterations of a 3x3 (8-neighborhood) dilation or erosion
func morph(mask types.Mask, n int, dilate bool) types.Mask {
	cur := mask
	for i := 0; i < n; i++ {
		next := types.NewMask(cur.W, cur.H)
		for y := 0; y < cur.H; y++ {
			for x := 0; x < cur.W; x++ {
				if dilate {
					if anyNeighbor(cur, x, y) {
						next.Set(x, y, true)
					}
				} else {
					if allNeighbors(cur, x, y) {
						next.Set(x, y, true)
					}
				}
			}
		}
		cur = next
	}
	return cur
}

func anyNeighbor(m types.Mask, x, y int) bool {
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			if m.At(x+dx, y+dy) {
				return true
			}
		}
	}
	return false
}

func allNeighbors(m types.Mask, x, y int) bool {
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			if !m.At(x+dx, y+dy) {
				return false
			}
		}
	}
	return true
}

// Simplify reduces the vertex count of a closed polygon using
// Douglas-Peucker with the given perpendicular-distance tolerance. The
// units of the tolerance are whatever units the vertices are in. A
// tolerance of zero (or less) returns the polygon unchanged.
func Simplify(poly types.Contour, tol float64) types.Contour {
	if tol <= 0 || len(poly) <= 3 {
		return poly
	}
	px := make([]pixelPoint, len(poly))
	for i, p := range poly {
		px[i] = pixelPoint{X: p.X, Y: p.Y}
	}
	px = simplifyPixels(px, tol)
	out := make(types.Contour, len(px))
	for i, p := range px {
		out[i] = types.Point{X: p.X, Y: p.Y}
	}
	return out
}

// simplifyPixels runs Douglas-Peucker over a closed polygon. The ring is
// split at its first vertex and the vertex farthest from it, and each open
// chain is simplified independently, so the split points always survive.
func simplifyPixels(poly []pixelPoint, tol float64) []pixelPoint {
	if tol <= 0 || len(poly) <= 3 {
		return poly
	}

	far := 1
	farDist := 0.0
	for i := 1; i < len(poly); i++ {
		d := dist2(poly[0], poly[i])
		if d > farDist {
			farDist = d
			far = i
		}
	}

	closing := make([]pixelPoint, 0, len(poly)-far+1)
	closing = append(closing, poly[far:]...)
	closing = append(closing, poly[0])

	first := douglasPeucker(poly[:far+1], tol)
	second := douglasPeucker(closing, tol)

	out := make([]pixelPoint, 0, len(first)+len(second)-2)
	out = append(out, first...)
	if len(second) > 2 {
		out = append(out, second[1:len(second)-1]...)
	}
	return out
}

// douglasPeucker simplifies an open polyline, always keeping both endpoints
func douglasPeucker(pts []pixelPoint, tol float64) []pixelPoint {
	if len(pts) <= 2 {
		return pts
	}
	maxDist := 0.0
	maxIdx := 0
	a, b := pts[0], pts[len(pts)-1]
	for i := 1; i < len(pts)-1; i++ {
		if d := perpDistance(pts[i], a, b); d > maxDist {
			maxDist = d
			maxIdx = i
		}
	}
	if maxDist <= tol {
		return []pixelPoint{a, b}
	}
	left := douglasPeucker(pts[:maxIdx+1], tol)
	right := douglasPeucker(pts[maxIdx:], tol)
	return append(left[:len(left)-1], right...)
}

// perpDistance is the distance from p to the segment a-b
func perpDistance(p, a, b pixelPoint) float64 {
	dx, dy := b.X-a.X, b.Y-a.Y
	lenSq := dx*dx + dy*dy
	if lenSq == 0 {
		return math.Hypot(p.X-a.X, p.Y-a.Y)
	}
	t := ((p.X-a.X)*dx + (p.Y-a.Y)*dy) / lenSq
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	return math.Hypot(p.X-(a.X+t*dx), p.Y-(a.Y+t*dy))
}

func dist2(a, b pixelPoint) float64 {
	return (a.X-b.X)*(a.X-b.X) + (a.Y-b.Y)*(a.Y-b.Y)
}
