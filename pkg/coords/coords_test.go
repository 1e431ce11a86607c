package coords

import (
	"math"
	"testing"
)

func TestCenterToNormalized(t *testing.T) {
	// Pixel centers of a 4-wide frame sit at 1/8, 3/8, 5/8, 7/8
	tests := []struct {
		px       int
		expected float64
	}{
		{0, 0.125},
		{1, 0.375},
		{2, 0.625},
		{3, 0.875},
	}

	for _, test := range tests {
		nx, _ := Center.ToNormalized(test.px, 0, 4, 4)
		if math.Abs(nx-test.expected) > 1e-12 {
			t.Errorf("Center.ToNormalized(%d) = %f, expected %f", test.px, nx, test.expected)
		}
	}
}

func TestEdgeToNormalized(t *testing.T) {
	// First and last pixel indices map exactly onto 0 and 1
	nx, ny := Edge.ToNormalized(0, 0, 100, 50)
	if nx != 0 || ny != 0 {
		t.Errorf("Edge.ToNormalized(0,0) = (%f,%f), expected (0,0)", nx, ny)
	}

	nx, ny = Edge.ToNormalized(99, 49, 100, 50)
	if nx != 1 || ny != 1 {
		t.Errorf("Edge.ToNormalized(99,49) = (%f,%f), expected (1,1)", nx, ny)
	}
}

func TestCenterRoundTripExact(t *testing.T) {
	for _, dim := range []int{1, 2, 3, 7, 64, 1024} {
		for px := 0; px < dim; px++ {
			nx, _ := Center.ToNormalized(px, 0, dim, dim)
			back, _ := Center.ToPixel(nx, 0, dim, dim)
			if back != px {
				t.Errorf("center round trip at dim=%d: %d -> %f -> %d", dim, px, nx, back)
			}
		}
	}
}

func TestEdgeRoundTripExact(t *testing.T) {
	// Rounding on the way back makes the edge convention round trip exactly
	// as well, not just within one pixel
	for _, dim := range []int{2, 3, 7, 64, 1024} {
		for px := 0; px < dim; px++ {
			nx, _ := Edge.ToNormalized(px, 0, dim, dim)
			back, _ := Edge.ToPixel(nx, 0, dim, dim)
			if back != px {
				t.Errorf("edge round trip at dim=%d: %d -> %f -> %d", dim, px, nx, back)
			}
		}
	}
}

func TestToPixelClamping(t *testing.T) {
	// Exactly 1.0 lands on the last pixel under both conventions
	px, py := Center.ToPixel(1.0, 1.0, 10, 10)
	if px != 9 || py != 9 {
		t.Errorf("Center.ToPixel(1,1) = (%d,%d), expected (9,9)", px, py)
	}

	px, py = Edge.ToPixel(1.0, 1.0, 10, 10)
	if px != 9 || py != 9 {
		t.Errorf("Edge.ToPixel(1,1) = (%d,%d), expected (9,9)", px, py)
	}

	px, py = Center.ToPixel(0.0, 0.0, 10, 10)
	if px != 0 || py != 0 {
		t.Errorf("Center.ToPixel(0,0) = (%d,%d), expected (0,0)", px, py)
	}
}

func TestConventionString(t *testing.T) {
	if Center.String() != "center" {
		t.Errorf("Center.String() = %s, expected center", Center.String())
	}
	if Edge.String() != "edge" {
		t.Errorf("Edge.String() = %s, expected edge", Edge.String())
	}
}
