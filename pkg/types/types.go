package types

import (
	"fmt"
	"math"
)

// Point is a normalized coordinate with x and y in [0,1] range
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Valid reports whether both coordinates are finite and within [0,1]
func (p Point) Valid() bool {
	return inUnitRange(p.X) && inUnitRange(p.Y)
}

// Box is a normalized bounding box in top-left/bottom-right form
type Box struct {
	TL Point `json:"tl"`
	BR Point `json:"br"`
}

// Valid reports whether both corners are finite and within [0,1]
func (b Box) Valid() bool {
	return b.TL.Valid() && b.BR.Valid()
}

// PromptSet holds the spatial prompts steering segmentation. The three lists
// are independent and may each be empty. Insertion order is preserved so that
// repeated encodings of the same set are deterministic.
type PromptSet struct {
	Boxes    []Box   `json:"boxes"`
	FGPoints []Point `json:"fg_points"`
	BGPoints []Point `json:"bg_points"`
}

// Validate checks that every prompt coordinate is finite and within [0,1].
// Prompt sets must pass validation before being handed to the model.
func (ps PromptSet) Validate() error {
	for i, b := range ps.Boxes {
		if !b.Valid() {
			return fmt.Errorf("box %d out of range: %+v", i, b)
		}
	}
	for i, p := range ps.FGPoints {
		if !p.Valid() {
			return fmt.Errorf("fg point %d out of range: %+v", i, p)
		}
	}
	for i, p := range ps.BGPoints {
		if !p.Valid() {
			return fmt.Errorf("bg point %d out of range: %+v", i, p)
		}
	}
	return nil
}

// IsEmpty reports whether the set contains no prompts at all
func (ps PromptSet) IsEmpty() bool {
	return len(ps.Boxes) == 0 && len(ps.FGPoints) == 0 && len(ps.BGPoints) == 0
}

// HintPoint returns the point used to bias connected-component selection.
// The hint exists only when exactly one foreground point and no boxes are
// given; background points do not affect the rule. Returns nil otherwise.
func (ps PromptSet) HintPoint() *Point {
	if len(ps.FGPoints) != 1 || len(ps.Boxes) != 0 {
		return nil
	}
	hint := ps.FGPoints[0]
	return &hint
}

// Clone returns a deep copy of the prompt set
func (ps PromptSet) Clone() PromptSet {
	out := PromptSet{}
	if len(ps.Boxes) > 0 {
		out.Boxes = append([]Box(nil), ps.Boxes...)
	}
	if len(ps.FGPoints) > 0 {
		out.FGPoints = append([]Point(nil), ps.FGPoints...)
	}
	if len(ps.BGPoints) > 0 {
		out.BGPoints = append([]Point(nil), ps.BGPoints...)
	}
	return out
}

// ScoreMap is a single candidate mask as per-pixel continuous scores,
// stored row-major. It is model output and treated as read-only.
type ScoreMap struct {
	W    int
	H    int
	Data []float32
}

// NewScoreMap creates a zero-filled score map of the given size
func NewScoreMap(w, h int) ScoreMap {
	return ScoreMap{W: w, H: h, Data: make([]float32, w*h)}
}

// At returns the score at pixel (x, y)
func (s ScoreMap) At(x, y int) float32 {
	return s.Data[y*s.W+x]
}

// Set assigns the score at pixel (x, y)
func (s *ScoreMap) Set(x, y int, v float32) {
	s.Data[y*s.W+x] = v
}

// Foreground is the pixel value marking masked (kept) pixels
const Foreground uint8 = 255

// Mask is a rectangular binary mask. Foreground pixels are 255, background
// pixels are 0, stored row-major.
type Mask struct {
	W   int
	H   int
	Pix []uint8
}

// NewMask creates an all-background mask of the given size
func NewMask(w, h int) Mask {
	return Mask{W: w, H: h, Pix: make([]uint8, w*h)}
}

// At reports whether pixel (x, y) is foreground. Out-of-bounds coordinates
// read as background, which simplifies neighborhood scans.
func (m Mask) At(x, y int) bool {
	if x < 0 || y < 0 || x >= m.W || y >= m.H {
		return false
	}
	return m.Pix[y*m.W+x] != 0
}

// Set marks pixel (x, y) as foreground (true) or background (false)
func (m *Mask) Set(x, y int, fg bool) {
	if fg {
		m.Pix[y*m.W+x] = Foreground
	} else {
		m.Pix[y*m.W+x] = 0
	}
}

// Count returns the number of foreground pixels
func (m Mask) Count() int {
	n := 0
	for _, v := range m.Pix {
		if v != 0 {
			n++
		}
	}
	return n
}

// IsEmpty reports whether the mask is entirely background
func (m Mask) IsEmpty() bool {
	for _, v := range m.Pix {
		if v != 0 {
			return false
		}
	}
	return true
}

// Clone returns a deep copy of the mask
func (m Mask) Clone() Mask {
	out := Mask{W: m.W, H: m.H, Pix: make([]uint8, len(m.Pix))}
	copy(out.Pix, m.Pix)
	return out
}

// Equal reports whether two masks have identical size and foreground pixels
func (m Mask) Equal(other Mask) bool {
	if m.W != other.W || m.H != other.H {
		return false
	}
	for i := range m.Pix {
		if (m.Pix[i] != 0) != (other.Pix[i] != 0) {
			return false
		}
	}
	return true
}

// Contour is a closed polygon of normalized vertices. The closing edge from
// the last vertex back to the first is implicit.
type Contour []Point

func inUnitRange(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0 && v <= 1
}
