// Package components isolates connected regions of a binary mask, dropping
// spurious blobs so a single subject survives to contour extraction.
//
// Components are 4-connected throughout, matching the boundary tracing
// convention used by the contour stage.
package components

import (
	"github.com/menta2k/mask-studio/pkg/coords"
	"github.com/menta2k/mask-studio/pkg/types"
)

// Result reports what the filter did on one mask
type Result struct {
	Mask types.Mask

	// Degraded is set when a hint point landed on background and the filter
	// fell back to the largest-component policy. Not an error; callers may
	// want to log it.
	Degraded bool
}

// Filter reduces a mask to a single connected region. With a hint point the
// component containing the hint is kept; otherwise, when largestOnly is set,
// the component with the most pixels is kept, ties broken by the lowest
// row-major top-left pixel. With no hint and largestOnly false the mask
// passes through untouched. An empty mask is returned unchanged; empty is a
// valid terminal state.
func Filter(mask types.Mask, hint *types.Point, largestOnly bool, conv coords.Convention) Result {
	if hint == nil && !largestOnly {
		return Result{Mask: mask}
	}
	if mask.IsEmpty() {
		return Result{Mask: mask}
	}

	labels, sizes := Label(mask)

	if hint != nil {
		hx, hy := conv.ToPixel(hint.X, hint.Y, mask.W, mask.H)
		if lab := labels[hy*mask.W+hx]; lab > 0 {
			return Result{Mask: keepLabel(mask, labels, lab)}
		}
		// Hint on background: degrade to the largest-component policy
		return Result{Mask: keepLabel(mask, labels, largestLabel(sizes)), Degraded: true}
	}

	return Result{Mask: keepLabel(mask, labels, largestLabel(sizes))}
}

// largestLabel picks the component with the greatest pixel count. Labels are
// assigned in row-major scan order, so on equal counts the component whose
// top-left-most pixel comes first wins by taking the lowest label.
func largestLabel(sizes []int) int {
	best := 0
	for i := 1; i < len(sizes); i++ {
		if sizes[i] > sizes[best] {
			best = i
		}
	}
	return best + 1
}

func keepLabel(mask types.Mask, labels []int, lab int) types.Mask {
	out := types.NewMask(mask.W, mask.H)
	for i, l := range labels {
		if l == lab {
			out.Pix[i] = types.Foreground
		}
	}
	return out
}

// Label runs a 4-connected flood fill over every foreground pixel. It
// returns per-pixel labels (0 = background, components numbered from 1 in
// row-major discovery order) and the pixel count of each component, indexed
// by label-1.
func Label(mask types.Mask) ([]int, []int) {
	w, h := mask.W, mask.H
	labels := make([]int, w*h)
	var sizes []int

	queue := make([]int, 0, 64)
	lab := 0
	for start, v := range mask.Pix {
		if v == 0 || labels[start] != 0 {
			continue
		}
		lab++
		count := 0
		queue = queue[:0]
		queue = append(queue, start)
		labels[start] = lab
		for len(queue) > 0 {
			idx := queue[0]
			queue = queue[1:]
			count++
			x, y := idx%w, idx/w
			for _, n := range [4][2]int{{x + 1, y}, {x - 1, y}, {x, y + 1}, {x, y - 1}} {
				nx, ny := n[0], n[1]
				if nx < 0 || ny < 0 || nx >= w || ny >= h {
					continue
				}
				ni := ny*w + nx
				if mask.Pix[ni] != 0 && labels[ni] == 0 {
					labels[ni] = lab
					queue = append(queue, ni)
				}
			}
		}
		sizes = append(sizes, count)
	}
	return labels, sizes
}
