// Package maskops converts continuous model score maps into binary masks
// and selects among multiple mask candidates.
package maskops

import (
	"errors"
	"fmt"

	"github.com/menta2k/mask-studio/pkg/types"
)

// ErrNoSelection indicates that no candidate could be picked from the given
// quality scores: either the list was empty or every score was identical.
// Callers normally fall back to index 0.
var ErrNoSelection = errors.New("no valid candidate to select")

// ErrIndexOutOfRange indicates an explicit mask index outside the candidate
// list. It is surfaced to the caller rather than silently clamped.
var ErrIndexOutOfRange = errors.New("mask index out of range")

// Threshold converts a score map into a binary mask. A pixel is foreground
// iff its score is strictly greater than the cutoff; scores exactly equal to
// the cutoff are background.
func Threshold(sm types.ScoreMap, cutoff float64) types.Mask {
	mask := types.NewMask(sm.W, sm.H)
	c := float32(cutoff)
	for i, v := range sm.Data {
		if v > c {
			mask.Pix[i] = types.Foreground
		}
	}
	return mask
}

// Invert returns the bitwise complement of the mask
func Invert(m types.Mask) types.Mask {
	out := types.NewMask(m.W, m.H)
	for i, v := range m.Pix {
		if v == 0 {
			out.Pix[i] = types.Foreground
		}
	}
	return out
}

// SelectBest returns the index of the highest quality score. An empty list
// or an all-equal list yields ErrNoSelection, since neither gives the caller
// any basis to prefer one candidate.
func SelectBest(qualityScores []float64) (int, error) {
	if len(qualityScores) == 0 {
		return 0, ErrNoSelection
	}
	best := 0
	allEqual := true
	for i, v := range qualityScores {
		if v != qualityScores[0] {
			allEqual = false
		}
		if v > qualityScores[best] {
			best = i
		}
	}
	if allEqual && len(qualityScores) > 1 {
		return 0, ErrNoSelection
	}
	if len(qualityScores) == 1 {
		return 0, nil
	}
	return best, nil
}

// SelectIndex returns the candidate at the given explicit index after bounds
// checking
func SelectIndex(candidates []types.ScoreMap, idx int) (types.ScoreMap, error) {
	if idx < 0 || idx >= len(candidates) {
		return types.ScoreMap{}, fmt.Errorf("%w: index %d with %d candidates", ErrIndexOutOfRange, idx, len(candidates))
	}
	return candidates[idx], nil
}

// ResizeBilinear resamples a score map to a new resolution with bilinear
// interpolation. Score maps carry float32 logits, so resizing goes through
// float math directly instead of an 8-bit image pipeline.
func ResizeBilinear(sm types.ScoreMap, w, h int) types.ScoreMap {
	if w == sm.W && h == sm.H {
		return sm
	}
	out := types.NewScoreMap(w, h)
	sx := float64(sm.W) / float64(w)
	sy := float64(sm.H) / float64(h)
	for y := 0; y < h; y++ {
		fy := (float64(y)+0.5)*sy - 0.5
		y0 := int(fy)
		if fy < 0 {
			y0 = 0
			fy = 0
		}
		y1 := y0 + 1
		if y1 >= sm.H {
			y1 = sm.H - 1
		}
		wy := fy - float64(y0)
		for x := 0; x < w; x++ {
			fx := (float64(x)+0.5)*sx - 0.5
			x0 := int(fx)
			if fx < 0 {
				x0 = 0
				fx = 0
			}
			x1 := x0 + 1
			if x1 >= sm.W {
				x1 = sm.W - 1
			}
			wx := fx - float64(x0)

			top := float64(sm.At(x0, y0))*(1-wx) + float64(sm.At(x1, y0))*wx
			bot := float64(sm.At(x0, y1))*(1-wx) + float64(sm.At(x1, y1))*wx
			out.Set(x, y, float32(top*(1-wy)+bot*wy))
		}
	}
	return out
}
