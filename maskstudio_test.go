package maskstudio

import (
	"context"
	"errors"
	"image"
	"testing"

	"github.com/menta2k/mask-studio/pkg/maskops"
	"github.com/menta2k/mask-studio/pkg/model"
	"github.com/menta2k/mask-studio/pkg/tracker"
	"github.com/menta2k/mask-studio/pkg/types"
)

// stubSegmenter returns fixed score maps and counts calls, so tests can
// assert exactly when the model was touched
type stubSegmenter struct {
	encodeImageCalls   int
	encodePromptsCalls int
	generateCalls      int

	failGenerate bool
}

const stubGrid = 16

func (s *stubSegmenter) EncodeImage(_ context.Context, frame image.Image) (model.ImageEmbedding, error) {
	s.encodeImageCalls++
	return model.ImageEmbedding{
		GridW: stubGrid, GridH: stubGrid,
		PreencodeW: stubGrid, PreencodeH: stubGrid,
	}, nil
}

func (s *stubSegmenter) EncodePrompts(_ context.Context, prompts types.PromptSet) (model.PromptEmbedding, error) {
	s.encodePromptsCalls++
	return model.PromptEmbedding{Count: len(prompts.FGPoints)}, nil
}

func (s *stubSegmenter) GenerateMasks(_ context.Context, _ model.ImageEmbedding, _ model.PromptEmbedding,
	_ *types.Mask, _ bool) ([]types.ScoreMap, []float64, error) {

	s.generateCalls++
	if s.failGenerate {
		return nil, nil, errors.New("decoder crashed")
	}

	// Candidate 0: one 8x8 block. Candidate 1: two separate blocks.
	c0 := types.NewScoreMap(stubGrid, stubGrid)
	c1 := types.NewScoreMap(stubGrid, stubGrid)
	for i := range c0.Data {
		c0.Data[i] = -1
		c1.Data[i] = -1
	}
	fill := func(sm *types.ScoreMap, x0, y0, x1, y1 int) {
		for y := y0; y < y1; y++ {
			for x := x0; x < x1; x++ {
				sm.Set(x, y, 1)
			}
		}
	}
	fill(&c0, 2, 2, 10, 10)
	fill(&c1, 2, 2, 5, 5)
	fill(&c1, 10, 10, 14, 14)

	return []types.ScoreMap{c0, c1}, []float64{0.5, 0.9}, nil
}

func testFrame() image.Image {
	return image.NewRGBA(image.Rect(0, 0, stubGrid, stubGrid))
}

// twoPointPrompts gives two fg points so no hint applies
func twoPointPrompts() types.PromptSet {
	return types.PromptSet{
		FGPoints: []types.Point{{X: 0.3, Y: 0.3}, {X: 0.4, Y: 0.4}},
	}
}

func newReadyPipeline(t *testing.T) (*Pipeline, *stubSegmenter) {
	t.Helper()
	seg := &stubSegmenter{}
	pipe := New(seg)
	if err := pipe.SetFrame(context.Background(), testFrame()); err != nil {
		t.Fatalf("SetFrame failed: %v", err)
	}
	return pipe, seg
}

func TestTickWithoutFrame(t *testing.T) {
	pipe := New(&stubSegmenter{})
	if _, err := pipe.Tick(context.Background(), tracker.Snapshot{}); err == nil {
		t.Error("Tick before SetFrame should fail")
	}
}

func TestTickRunsModelOnce(t *testing.T) {
	pipe, seg := newReadyPipeline(t)
	snap := tracker.Snapshot{Prompts: twoPointPrompts(), UseBestMask: true}

	res, err := pipe.Tick(context.Background(), snap)
	if err != nil {
		t.Fatalf("Tick failed: %v", err)
	}
	if seg.generateCalls != 1 {
		t.Errorf("first tick should run the model once, ran %d times", seg.generateCalls)
	}
	if !res.OK {
		t.Error("expected a non-empty mask")
	}
	if res.Index != 1 {
		t.Errorf("best selection should pick index 1 (quality 0.9), got %d", res.Index)
	}

	// Identical second tick: nothing runs, cached result comes back
	res2, err := pipe.Tick(context.Background(), snap)
	if err != nil {
		t.Fatalf("Tick failed: %v", err)
	}
	if seg.generateCalls != 1 || seg.encodePromptsCalls != 1 {
		t.Errorf("identical tick must not touch the model: generate=%d encodePrompts=%d",
			seg.generateCalls, seg.encodePromptsCalls)
	}
	if res2.Flags.NeedMaskUpdate() {
		t.Error("identical tick should report no changes")
	}
	if !res2.Mask.Equal(res.Mask) {
		t.Error("cached result should match the computed one")
	}
}

func TestThresholdChangeSkipsModel(t *testing.T) {
	pipe, seg := newReadyPipeline(t)
	snap := tracker.Snapshot{Prompts: twoPointPrompts(), UseBestMask: true}
	if _, err := pipe.Tick(context.Background(), snap); err != nil {
		t.Fatalf("Tick failed: %v", err)
	}

	snap.Threshold = 2.0 // above every score: mask empties
	res, err := pipe.Tick(context.Background(), snap)
	if err != nil {
		t.Fatalf("Tick failed: %v", err)
	}
	if seg.generateCalls != 1 {
		t.Errorf("threshold change must not re-run the model, ran %d times", seg.generateCalls)
	}
	if res.OK {
		t.Error("threshold above all scores should empty the mask")
	}
	if len(res.Contours) != 0 {
		t.Errorf("empty mask should have no contours, got %d", len(res.Contours))
	}
}

func TestPromptChangeRerunsModel(t *testing.T) {
	pipe, seg := newReadyPipeline(t)
	snap := tracker.Snapshot{Prompts: twoPointPrompts(), UseBestMask: true}
	if _, err := pipe.Tick(context.Background(), snap); err != nil {
		t.Fatalf("Tick failed: %v", err)
	}

	snap.Prompts.FGPoints[0].X = 0.35
	if _, err := pipe.Tick(context.Background(), snap); err != nil {
		t.Fatalf("Tick failed: %v", err)
	}
	if seg.generateCalls != 2 {
		t.Errorf("prompt change should re-run the model, ran %d times", seg.generateCalls)
	}
}

func TestExplicitIndexSelection(t *testing.T) {
	pipe, _ := newReadyPipeline(t)
	snap := tracker.Snapshot{Prompts: twoPointPrompts(), UseBestMask: false, MaskIndex: 0}

	res, err := pipe.Tick(context.Background(), snap)
	if err != nil {
		t.Fatalf("Tick failed: %v", err)
	}
	if res.Index != 0 {
		t.Errorf("explicit index 0 should be honored, got %d", res.Index)
	}
	// Candidate 0 is a single 8x8 block
	if res.Mask.Count() != 64 {
		t.Errorf("candidate 0 should give 64 foreground pixels, got %d", res.Mask.Count())
	}
}

func TestIndexOutOfRangeSurfaced(t *testing.T) {
	pipe, _ := newReadyPipeline(t)
	snap := tracker.Snapshot{Prompts: twoPointPrompts(), UseBestMask: false, MaskIndex: 5}

	_, err := pipe.Tick(context.Background(), snap)
	if !errors.Is(err, maskops.ErrIndexOutOfRange) {
		t.Errorf("expected ErrIndexOutOfRange, got %v", err)
	}
}

func TestInvalidPromptsRejected(t *testing.T) {
	pipe, seg := newReadyPipeline(t)
	snap := tracker.Snapshot{
		Prompts: types.PromptSet{FGPoints: []types.Point{{X: 1.5, Y: 0.5}}},
	}
	if _, err := pipe.Tick(context.Background(), snap); err == nil {
		t.Error("invalid prompts should be rejected")
	}
	if seg.encodePromptsCalls != 0 {
		t.Error("invalid prompts must not reach the model")
	}
}

func TestFailedModelRunRetriesNextTick(t *testing.T) {
	seg := &stubSegmenter{failGenerate: true}
	pipe := New(seg)
	if err := pipe.SetFrame(context.Background(), testFrame()); err != nil {
		t.Fatalf("SetFrame failed: %v", err)
	}

	snap := tracker.Snapshot{Prompts: twoPointPrompts(), UseBestMask: true}
	if _, err := pipe.Tick(context.Background(), snap); err == nil {
		t.Fatal("failing decoder should surface an error")
	}

	// The failure must not be committed: the same snapshot retries the model
	seg.failGenerate = false
	res, err := pipe.Tick(context.Background(), snap)
	if err != nil {
		t.Fatalf("retry tick failed: %v", err)
	}
	if seg.generateCalls != 2 {
		t.Errorf("retry should call the model again, ran %d times", seg.generateCalls)
	}
	if !res.OK {
		t.Error("retry should produce a mask")
	}
}

func TestHintSelectsComponent(t *testing.T) {
	pipe, _ := newReadyPipeline(t)

	// Single fg point inside candidate 1's second block: hint applies
	snap := tracker.Snapshot{
		Prompts:     types.PromptSet{FGPoints: []types.Point{{X: 0.7, Y: 0.7}}}, // pixel (11,11)
		UseBestMask: true,
	}
	res, err := pipe.Tick(context.Background(), snap)
	if err != nil {
		t.Fatalf("Tick failed: %v", err)
	}
	if res.Degraded {
		t.Error("hint on foreground should not degrade")
	}
	// Only the hinted 4x4 block survives
	if res.Mask.Count() != 16 {
		t.Errorf("hinted component should give 16 pixels, got %d", res.Mask.Count())
	}
}

func TestHintOnBackgroundDegrades(t *testing.T) {
	pipe, _ := newReadyPipeline(t)

	// Single fg point in empty space between candidate 1's blocks
	snap := tracker.Snapshot{
		Prompts:     types.PromptSet{FGPoints: []types.Point{{X: 0.45, Y: 0.45}}}, // pixel (7,7)
		UseBestMask: true,
	}
	res, err := pipe.Tick(context.Background(), snap)
	if err != nil {
		t.Fatalf("Tick failed: %v", err)
	}
	if !res.Degraded {
		t.Error("hint on background should report degraded")
	}
	// Fallback keeps the largest block (4x4 beats 3x3)
	if res.Mask.Count() != 16 {
		t.Errorf("fallback should keep the 16-pixel block, got %d", res.Mask.Count())
	}
}

func TestInvert(t *testing.T) {
	pipe, _ := newReadyPipeline(t)
	snap := tracker.Snapshot{Prompts: twoPointPrompts(), UseBestMask: false, MaskIndex: 0, Invert: true}

	res, err := pipe.Tick(context.Background(), snap)
	if err != nil {
		t.Fatalf("Tick failed: %v", err)
	}
	// Inverted candidate 0: everything but the 8x8 block
	if res.Mask.Count() != stubGrid*stubGrid-64 {
		t.Errorf("inverted mask should have %d pixels, got %d", stubGrid*stubGrid-64, res.Mask.Count())
	}
	if res.Mask.At(5, 5) {
		t.Error("block interior should be background after inversion")
	}
	if !res.Mask.At(0, 0) {
		t.Error("corner should be foreground after inversion")
	}
}

func TestSetFrameResetsGating(t *testing.T) {
	pipe, seg := newReadyPipeline(t)
	snap := tracker.Snapshot{Prompts: twoPointPrompts(), UseBestMask: true}
	if _, err := pipe.Tick(context.Background(), snap); err != nil {
		t.Fatalf("Tick failed: %v", err)
	}

	if err := pipe.SetFrame(context.Background(), testFrame()); err != nil {
		t.Fatalf("SetFrame failed: %v", err)
	}
	if seg.encodeImageCalls != 2 {
		t.Errorf("second SetFrame should re-encode, encoded %d times", seg.encodeImageCalls)
	}

	// Same snapshot after a new frame must recompute everything
	if _, err := pipe.Tick(context.Background(), snap); err != nil {
		t.Fatalf("Tick failed: %v", err)
	}
	if seg.generateCalls != 2 {
		t.Errorf("new frame should force a model run, ran %d times", seg.generateCalls)
	}
}

func TestCandidates(t *testing.T) {
	pipe, _ := newReadyPipeline(t)
	snap := tracker.Snapshot{Prompts: twoPointPrompts(), UseBestMask: true}
	if _, err := pipe.Tick(context.Background(), snap); err != nil {
		t.Fatalf("Tick failed: %v", err)
	}

	n, quality := pipe.Candidates()
	if n != 2 || len(quality) != 2 {
		t.Errorf("expected 2 candidates with 2 scores, got %d and %d", n, len(quality))
	}
}

func TestComposite(t *testing.T) {
	pipe, _ := newReadyPipeline(t)

	mask := types.NewMask(stubGrid, stubGrid)
	mask.Set(5, 5, true)
	out := pipe.Composite(testFrame(), mask)
	if out.Bounds().Dx() != stubGrid || out.Bounds().Dy() != stubGrid {
		t.Errorf("preview size = %dx%d, expected %dx%d",
			out.Bounds().Dx(), out.Bounds().Dy(), stubGrid, stubGrid)
	}
}

func TestGetVersion(t *testing.T) {
	if GetVersion() != Version {
		t.Errorf("GetVersion() = %s, expected %s", GetVersion(), Version)
	}
}
