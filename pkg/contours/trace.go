package contours

import (
	"github.com/menta2k/mask-studio/pkg/components"
	"github.com/menta2k/mask-studio/pkg/types"
)

// pixelPoint is a polygon vertex in pixel units, before normalization
type pixelPoint struct {
	X, Y float64
}

// tracePolygons extracts the outer boundary of every 4-connected foreground
// component using Moore-Neighbor tracing. One polygon per component, in
// component label order. Collinear intermediate points are dropped as the
// trace runs.
func tracePolygons(mask types.Mask) [][]pixelPoint {
	labels, sizes := components.Label(mask)
	if len(sizes) == 0 {
		return nil
	}
	polys := make([][]pixelPoint, 0, len(sizes))
	for lab := 1; lab <= len(sizes); lab++ {
		if poly := traceLabel(mask, labels, lab); len(poly) > 0 {
			polys = append(polys, poly)
		}
	}
	return polys
}

// traceLabel walks the boundary of one labeled component clockwise, starting
// from its row-major first pixel. The walk stops when it is about to repeat
// its first boundary edge, which also terminates cleanly on one-pixel-wide
// shapes where the classic backtrack criterion can cycle.
func traceLabel(mask types.Mask, labels []int, lab int) []pixelPoint {
	w, h := mask.W, mask.H
	isLabel := func(x, y int) bool {
		if x < 0 || y < 0 || x >= w || y >= h {
			return false
		}
		return labels[y*w+x] == lab
	}

	// Row-major first pixel of the component is always a boundary pixel
	sx, sy := -1, -1
	for i, l := range labels {
		if l == lab {
			sx, sy = i%w, i/w
			break
		}
	}
	if sx < 0 {
		return nil
	}

	pts := make([]pixelPoint, 0, 64)
	addPoint := func(x, y int) {
		p := pixelPoint{X: float64(x), Y: float64(y)}
		if n := len(pts); n >= 2 {
			a, b := pts[n-2], pts[n-1]
			// Drop b only when the walk continues forward through it. The
			// dot product check keeps reversal spikes, so the far end of a
			// one-pixel-wide strip survives the trace.
			cross := (b.X-a.X)*(p.Y-b.Y) - (b.Y-a.Y)*(p.X-b.X)
			dot := (b.X-a.X)*(p.X-b.X) + (b.Y-a.Y)*(p.Y-b.Y)
			if cross == 0 && dot > 0 {
				pts = pts[:n-1]
			}
		}
		pts = append(pts, p)
	}

	cx, cy := sx, sy
	bx, by := sx-1, sy // backtrack to the left of the start pixel
	addPoint(cx, cy)

	// First move off the start pixel; a component with no traceable
	// neighbor is a single pixel
	fx, fy, nbx, nby, found := nextBoundaryPixel(isLabel, cx, cy, bx, by)
	if !found {
		return pts
	}
	bx, by = nbx, nby
	cx, cy = fx, fy
	addPoint(cx, cy)

	maxSteps := w*h*4 + 8
	for steps := 0; steps < maxSteps; steps++ {
		nx, ny, nbx, nby, ok := nextBoundaryPixel(isLabel, cx, cy, bx, by)
		if !ok {
			break
		}
		// Stop when the walk is about to repeat its first edge
		if cx == sx && cy == sy && nx == fx && ny == fy {
			break
		}
		bx, by = nbx, nby
		cx, cy = nx, ny
		if last := pts[len(pts)-1]; last.X != float64(cx) || last.Y != float64(cy) {
			addPoint(cx, cy)
		}
	}

	// Drop a duplicated closing point; the polygon is implicitly closed
	if n := len(pts); n >= 2 && pts[0] == pts[n-1] {
		pts = pts[:n-1]
	}
	return pts
}

// nextBoundaryPixel scans the Moore neighborhood of (cx,cy) clockwise,
// starting just past the backtrack pixel (bx,by), for the next pixel of the
// component. The returned backtrack is the last background pixel scanned
// before the hit.
func nextBoundaryPixel(isLabel func(int, int) bool, cx, cy, bx, by int) (int, int, int, int, bool) {
	// 8-neighborhood clockwise order: E, SE, S, SW, W, NW, N, NE
	ndx := [8]int{1, 1, 0, -1, -1, -1, 0, 1}
	ndy := [8]int{0, 1, 1, 1, 0, -1, -1, -1}

	start := 0
	for i := 0; i < 8; i++ {
		if ndx[i] == bx-cx && ndy[i] == by-cy {
			start = (i + 1) % 8
			break
		}
	}

	for k := 0; k < 8; k++ {
		i := (start + k) % 8
		tx, ty := cx+ndx[i], cy+ndy[i]
		if isLabel(tx, ty) {
			return tx, ty, bx, by, true
		}
		// Advance the backtrack as the sweep passes background pixels
		bx, by = tx, ty
	}
	return 0, 0, bx, by, false
}
