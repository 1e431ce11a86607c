package types

import (
	"math"
	"testing"
)

func TestPromptSetValidate(t *testing.T) {
	valid := PromptSet{
		Boxes:    []Box{{TL: Point{X: 0.1, Y: 0.1}, BR: Point{X: 0.9, Y: 0.9}}},
		FGPoints: []Point{{X: 0, Y: 1}},
		BGPoints: []Point{{X: 0.5, Y: 0.5}},
	}
	if err := valid.Validate(); err != nil {
		t.Errorf("valid prompt set rejected: %v", err)
	}

	outOfRange := PromptSet{FGPoints: []Point{{X: 1.2, Y: 0.5}}}
	if err := outOfRange.Validate(); err == nil {
		t.Error("out-of-range point should fail validation")
	}

	nan := PromptSet{BGPoints: []Point{{X: math.NaN(), Y: 0.5}}}
	if err := nan.Validate(); err == nil {
		t.Error("NaN coordinate should fail validation")
	}

	inf := PromptSet{Boxes: []Box{{TL: Point{X: 0, Y: 0}, BR: Point{X: math.Inf(1), Y: 1}}}}
	if err := inf.Validate(); err == nil {
		t.Error("infinite coordinate should fail validation")
	}
}

func TestPromptSetIsEmpty(t *testing.T) {
	if !(PromptSet{}).IsEmpty() {
		t.Error("zero prompt set should be empty")
	}
	if (PromptSet{BGPoints: []Point{{X: 0.5, Y: 0.5}}}).IsEmpty() {
		t.Error("set with a background point is not empty")
	}
}

func TestHintPoint(t *testing.T) {
	// Exactly one foreground point and no boxes: hint exists
	ps := PromptSet{FGPoints: []Point{{X: 0.3, Y: 0.4}}}
	hint := ps.HintPoint()
	if hint == nil {
		t.Fatal("single fg point should produce a hint")
	}
	if hint.X != 0.3 || hint.Y != 0.4 {
		t.Errorf("hint = %+v, expected the fg point", hint)
	}

	// Background points do not affect the rule
	ps.BGPoints = []Point{{X: 0.9, Y: 0.9}, {X: 0.1, Y: 0.9}}
	if ps.HintPoint() == nil {
		t.Error("background points should not suppress the hint")
	}

	// Two foreground points: no hint
	two := PromptSet{FGPoints: []Point{{X: 0.1, Y: 0.1}, {X: 0.2, Y: 0.2}}}
	if two.HintPoint() != nil {
		t.Error("two fg points should give no hint")
	}

	// A box suppresses the hint
	boxed := PromptSet{
		FGPoints: []Point{{X: 0.3, Y: 0.4}},
		Boxes:    []Box{{TL: Point{X: 0, Y: 0}, BR: Point{X: 1, Y: 1}}},
	}
	if boxed.HintPoint() != nil {
		t.Error("a box should suppress the hint")
	}

	// No foreground points: no hint
	if (PromptSet{}).HintPoint() != nil {
		t.Error("empty set should give no hint")
	}
}

func TestHintPointIsACopy(t *testing.T) {
	ps := PromptSet{FGPoints: []Point{{X: 0.3, Y: 0.4}}}
	hint := ps.HintPoint()
	hint.X = 0.99
	if ps.FGPoints[0].X != 0.3 {
		t.Error("mutating the hint must not change the prompt set")
	}
}

func TestPromptSetClone(t *testing.T) {
	ps := PromptSet{
		Boxes:    []Box{{TL: Point{X: 0.1, Y: 0.1}, BR: Point{X: 0.5, Y: 0.5}}},
		FGPoints: []Point{{X: 0.2, Y: 0.2}},
	}
	clone := ps.Clone()
	clone.FGPoints[0].X = 0.9
	clone.Boxes[0].TL.X = 0.9

	if ps.FGPoints[0].X != 0.2 || ps.Boxes[0].TL.X != 0.1 {
		t.Error("Clone should deep-copy all prompt lists")
	}
}

func TestMaskAtOutOfBounds(t *testing.T) {
	m := NewMask(4, 4)
	m.Set(0, 0, true)

	if m.At(-1, 0) || m.At(0, -1) || m.At(4, 0) || m.At(0, 4) {
		t.Error("out-of-bounds reads should be background")
	}
	if !m.At(0, 0) {
		t.Error("in-bounds foreground read failed")
	}
}

func TestMaskCountAndEmpty(t *testing.T) {
	m := NewMask(3, 3)
	if !m.IsEmpty() || m.Count() != 0 {
		t.Error("new mask should be empty")
	}

	m.Set(1, 1, true)
	m.Set(2, 2, true)
	if m.Count() != 2 {
		t.Errorf("Count = %d, expected 2", m.Count())
	}

	m.Set(1, 1, false)
	if m.Count() != 1 {
		t.Errorf("Count after clear = %d, expected 1", m.Count())
	}
}

func TestMaskEqual(t *testing.T) {
	a := NewMask(3, 3)
	b := NewMask(3, 3)
	a.Set(1, 1, true)
	b.Set(1, 1, true)

	if !a.Equal(b) {
		t.Error("identical masks should be equal")
	}

	b.Set(0, 0, true)
	if a.Equal(b) {
		t.Error("different masks should not be equal")
	}

	if a.Equal(NewMask(3, 4)) {
		t.Error("different sizes should not be equal")
	}
}

func TestMaskCloneIsolation(t *testing.T) {
	a := NewMask(3, 3)
	a.Set(1, 1, true)
	b := a.Clone()
	b.Set(0, 0, true)

	if a.At(0, 0) {
		t.Error("mutating the clone should not affect the original")
	}
}

func TestScoreMapAccess(t *testing.T) {
	sm := NewScoreMap(3, 2)
	sm.Set(2, 1, -1.5)
	if sm.At(2, 1) != -1.5 {
		t.Errorf("At(2,1) = %f, expected -1.5", sm.At(2, 1))
	}
	if sm.At(0, 0) != 0 {
		t.Error("unset scores should be zero")
	}
}
