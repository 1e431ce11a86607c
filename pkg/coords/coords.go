// Package coords converts between pixel coordinates and the resolution
// independent [0,1] space used for prompts and contours. All functions are
// pure; a conversion never depends on anything but its arguments.
package coords

// Convention selects how pixel indices map into normalized space
type Convention int

const (
	// Center treats each pixel as a unit cell and maps its center:
	// p -> (p+0.5)/dim. This matches the external model's training
	// assumptions and is the default everywhere.
	Center Convention = iota

	// Edge maps the extreme pixel indices exactly onto 0.0 and 1.0:
	// p -> p/(dim-1).
	Edge
)

// String returns the convention name
func (c Convention) String() string {
	if c == Edge {
		return "edge"
	}
	return "center"
}

// ToNormalized maps a pixel coordinate to normalized space for a frame of
// the given width and height
func (c Convention) ToNormalized(px, py int, w, h int) (float64, float64) {
	if c == Edge {
		return float64(px) / float64(w-1), float64(py) / float64(h-1)
	}
	return (float64(px) + 0.5) / float64(w), (float64(py) + 0.5) / float64(h)
}

// ToPixel maps a normalized coordinate back to a pixel index for a frame of
// the given width and height. Results are clamped to valid pixel indices so
// coordinates at exactly 1.0 land on the last pixel.
func (c Convention) ToPixel(nx, ny float64, w, h int) (int, int) {
	var px, py int
	if c == Edge {
		px = int(nx*float64(w-1) + 0.5)
		py = int(ny*float64(h-1) + 0.5)
	} else {
		px = int(nx * float64(w))
		py = int(ny * float64(h))
	}
	return clampIndex(px, w), clampIndex(py, h)
}

func clampIndex(v, dim int) int {
	if v < 0 {
		return 0
	}
	if v >= dim {
		return dim - 1
	}
	return v
}
