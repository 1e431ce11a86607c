// Package tracker decides, per UI tick, which expensive stages of the
// segmentation pipeline actually need to run by comparing the current
// control values against the previous tick's.
package tracker

import (
	"github.com/menta2k/mask-studio/pkg/types"
)

// Snapshot is the full set of tunable values read on one tick. It is
// captured once, diffed against the previous snapshot and then stored as
// the new previous; it must not be mutated afterwards.
type Snapshot struct {
	Prompts     types.PromptSet
	MaskIndex   int
	UseBestMask bool
	Threshold   float64
	Invert      bool
	LargestOnly bool
	Rounding    int
	Padding     int
	SimplifyTol float64
}

// ChangeFlags marks which input categories differ from the previous tick
type ChangeFlags struct {
	Prompts     bool
	Threshold   bool
	Invert      bool
	Selection   bool
	Postprocess bool
}

// NeedModelRun reports whether prompt encoding and mask regeneration must
// re-run. Only prompt changes require touching the model.
func (f ChangeFlags) NeedModelRun() bool {
	return f.Prompts
}

// NeedMaskUpdate reports whether the display pipeline (thresholding through
// contour regularization) must re-run
func (f ChangeFlags) NeedMaskUpdate() bool {
	return f.Prompts || f.Threshold || f.Invert || f.Selection || f.Postprocess
}

// Tracker owns the previous snapshot. One tracker serves exactly one
// pipeline instance; it is not safe to share across concurrent sessions.
type Tracker struct {
	prev    Snapshot
	hasPrev bool
}

// New creates a tracker with no previous snapshot, so the first Diff reports
// every category as changed
func New() *Tracker {
	return &Tracker{}
}

// Diff compares the current snapshot against the previous one and returns
// the per-category change flags. It does not store the snapshot; call
// Commit once the tick has used it successfully, so that a failed model
// call leaves the gating state untouched and the next tick retries.
func (t *Tracker) Diff(cur Snapshot) ChangeFlags {
	if !t.hasPrev {
		return ChangeFlags{Prompts: true, Threshold: true, Invert: true, Selection: true, Postprocess: true}
	}

	// Threshold and tolerance values come from discretized UI controls, so
	// exact float comparison is intended here. There is no epsilon.
	return ChangeFlags{
		Prompts:   !promptsEqual(t.prev.Prompts, cur.Prompts),
		Threshold: t.prev.Threshold != cur.Threshold,
		Invert:    t.prev.Invert != cur.Invert,
		Selection: t.prev.MaskIndex != cur.MaskIndex || t.prev.UseBestMask != cur.UseBestMask,
		Postprocess: t.prev.LargestOnly != cur.LargestOnly ||
			t.prev.Rounding != cur.Rounding ||
			t.prev.Padding != cur.Padding ||
			t.prev.SimplifyTol != cur.SimplifyTol,
	}
}

// Commit stores the snapshot as the new previous
func (t *Tracker) Commit(cur Snapshot) {
	t.prev = Snapshot{
		Prompts:     cur.Prompts.Clone(),
		MaskIndex:   cur.MaskIndex,
		UseBestMask: cur.UseBestMask,
		Threshold:   cur.Threshold,
		Invert:      cur.Invert,
		LargestOnly: cur.LargestOnly,
		Rounding:    cur.Rounding,
		Padding:     cur.Padding,
		SimplifyTol: cur.SimplifyTol,
	}
	t.hasPrev = true
}

// Reset clears the previous snapshot, forcing the next Diff to report all
// categories changed. Used when the underlying frame is replaced.
func (t *Tracker) Reset() {
	t.prev = Snapshot{}
	t.hasPrev = false
}

// promptsEqual compares prompt sets by value. Points are compared as
// unordered sets since their order carries no meaning; boxes are compared
// in order, which is still deterministic for identical input sequences.
func promptsEqual(a, b types.PromptSet) bool {
	if len(a.Boxes) != len(b.Boxes) {
		return false
	}
	for i := range a.Boxes {
		if a.Boxes[i] != b.Boxes[i] {
			return false
		}
	}
	return pointSetsEqual(a.FGPoints, b.FGPoints) && pointSetsEqual(a.BGPoints, b.BGPoints)
}

func pointSetsEqual(a, b []types.Point) bool {
	if len(a) != len(b) {
		return false
	}
	counts := make(map[types.Point]int, len(a))
	for _, p := range a {
		counts[p]++
	}
	for _, p := range b {
		counts[p]--
		if counts[p] < 0 {
			return false
		}
	}
	return true
}
