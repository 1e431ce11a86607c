// Package maskstudio provides interactive image segmentation with
// change-gated recomputation and mask post-processing.
//
// A Pipeline wraps a segmentation model behind the model.Segmenter
// interface and turns per-tick control values into a clean (contours, mask)
// pair. Work is gated by what actually changed since the previous tick: the
// model re-runs only when prompts change, and the display stages
// (thresholding, component filtering, contour regularization) re-run only
// when an input they depend on changed.
//
// Basic usage:
//
//	package main
//
//	import (
//		"context"
//		"log"
//
//		maskstudio "github.com/menta2k/mask-studio"
//		"github.com/menta2k/mask-studio/pkg/remote"
//		"github.com/menta2k/mask-studio/pkg/tracker"
//		"github.com/menta2k/mask-studio/pkg/types"
//	)
//
//	func main() {
//		client, err := remote.NewClient("http://localhost:8080")
//		if err != nil {
//			log.Fatal(err)
//		}
//		pipe := maskstudio.New(client)
//
//		img := loadFrame() // any image.Image
//		if err := pipe.SetFrame(context.Background(), img); err != nil {
//			log.Fatal(err)
//		}
//
//		snap := tracker.Snapshot{
//			Prompts:     types.PromptSet{FGPoints: []types.Point{{X: 0.5, Y: 0.5}}},
//			UseBestMask: true,
//		}
//		res, err := pipe.Tick(context.Background(), snap)
//		if err != nil {
//			log.Fatal(err)
//		}
//		if res.OK {
//			preview := pipe.Composite(img, res.Mask)
//			savePreview(preview)
//		}
//	}
//
// The package consists of the following components:
//
//  1. Tracker (pkg/tracker): per-tick change detection and gating
//  2. Maskops (pkg/maskops): thresholding, inversion and candidate selection
//  3. Components (pkg/components): connected-component filtering
//  4. Contours (pkg/contours): boundary extraction and regularization
//  5. Compositor (pkg/compositor): checkerboard preview rendering
//  6. Remote (pkg/remote): HTTP client for a hosted segmentation model
package maskstudio

import (
	"context"
	"errors"
	"fmt"
	"image"

	"github.com/menta2k/mask-studio/pkg/components"
	"github.com/menta2k/mask-studio/pkg/compositor"
	"github.com/menta2k/mask-studio/pkg/contours"
	"github.com/menta2k/mask-studio/pkg/coords"
	"github.com/menta2k/mask-studio/pkg/maskops"
	"github.com/menta2k/mask-studio/pkg/model"
	"github.com/menta2k/mask-studio/pkg/tracker"
	"github.com/menta2k/mask-studio/pkg/types"
)

// Version of the mask studio library
const Version = "1.0.0"

// Options configures a Pipeline beyond its defaults
type Options struct {
	// Convention selects how pixel indices map to normalized coordinates.
	// The default, coords.Center, matches the model's own convention.
	Convention coords.Convention

	// UpscaleScores resamples candidate score maps to the frame's pre-encode
	// resolution before thresholding, trading speed for boundary detail
	UpscaleScores bool

	// SuppressEmptyPrompt asks the model to return nothing for an empty
	// prompt set instead of a whole-frame guess
	SuppressEmptyPrompt bool

	// Compositor used by Composite. Nil gets a mid-gray default.
	Compositor *compositor.Compositor
}

// Pipeline holds the per-frame model state and the change tracker for one
// interactive session. It is single-threaded: one Pipeline serves one
// operator, and calls must not overlap.
type Pipeline struct {
	seg     model.Segmenter
	track   *tracker.Tracker
	comp    *compositor.Compositor
	conv    coords.Convention
	upscale bool

	suppressEmptyPrompt bool

	// Frame state, reset by SetFrame
	frameSet  bool
	embedding model.ImageEmbedding

	// Model output cache, refreshed only when prompts change
	scoreMaps []types.ScoreMap
	quality   []float64

	// Display cache, refreshed when any gated input changes
	last TickResult
}

// TickResult is what one Tick produced. When no gated input changed it is
// the cached result of the previous tick.
type TickResult struct {
	Flags tracker.ChangeFlags

	// Index is the candidate actually used after selection and fallback
	Index int

	// Degraded is set when the hint point landed on background and component
	// filtering fell back to the largest component
	Degraded bool

	// OK is false when the final mask is entirely background. Contours is
	// empty in that case; an empty mask is a valid outcome, not an error.
	OK       bool
	Contours []types.Contour
	Mask     types.Mask
}

// New creates a pipeline with default options: center coordinate
// convention, score upscaling on, empty prompts suppressed
func New(seg model.Segmenter) *Pipeline {
	return NewWithOptions(seg, Options{
		Convention:          coords.Center,
		UpscaleScores:       true,
		SuppressEmptyPrompt: true,
	})
}

// NewWithOptions creates a pipeline with custom options
func NewWithOptions(seg model.Segmenter, opts Options) *Pipeline {
	comp := opts.Compositor
	if comp == nil {
		comp = compositor.New(50, 50, 16)
	}
	return &Pipeline{
		seg:                 seg,
		track:               tracker.New(),
		comp:                comp,
		conv:                opts.Convention,
		upscale:             opts.UpscaleScores,
		suppressEmptyPrompt: opts.SuppressEmptyPrompt,
	}
}

// SetFrame encodes a new frame and resets all per-frame state. Until the
// first successful SetFrame, Tick returns an error.
func (p *Pipeline) SetFrame(ctx context.Context, frame image.Image) error {
	emb, err := p.seg.EncodeImage(ctx, frame)
	if err != nil {
		return fmt.Errorf("failed to encode frame: %w", err)
	}
	p.embedding = emb
	p.frameSet = true
	p.scoreMaps = nil
	p.quality = nil
	p.last = TickResult{}
	p.track.Reset()
	return nil
}

// Tick processes one set of control values. It diffs the snapshot against
// the previous tick, runs only the stages whose inputs changed and returns
// the resulting contours and mask. On error the gating state is left
// untouched, so the next tick with the same snapshot retries the failed
// work instead of skipping it.
func (p *Pipeline) Tick(ctx context.Context, snap tracker.Snapshot) (TickResult, error) {
	if !p.frameSet {
		return TickResult{}, errors.New("no frame set")
	}
	if err := snap.Prompts.Validate(); err != nil {
		return TickResult{}, fmt.Errorf("invalid prompts: %w", err)
	}

	flags := p.track.Diff(snap)

	if flags.NeedModelRun() {
		promptEmb, err := p.seg.EncodePrompts(ctx, snap.Prompts)
		if err != nil {
			return TickResult{}, fmt.Errorf("failed to encode prompts: %w", err)
		}
		maps, quality, err := p.seg.GenerateMasks(ctx, p.embedding, promptEmb, nil, p.suppressEmptyPrompt)
		if err != nil {
			return TickResult{}, fmt.Errorf("failed to generate masks: %w", err)
		}
		p.scoreMaps = maps
		p.quality = quality
	}

	if !flags.NeedMaskUpdate() {
		res := p.last
		res.Flags = flags
		p.track.Commit(snap)
		return res, nil
	}

	res, err := p.recompute(flags, snap)
	if err != nil {
		return TickResult{}, err
	}
	p.last = res
	p.track.Commit(snap)
	return res, nil
}

// recompute runs the display pipeline over the cached model output
func (p *Pipeline) recompute(flags tracker.ChangeFlags, snap tracker.Snapshot) (TickResult, error) {
	idx, err := p.selectCandidate(snap)
	if err != nil {
		return TickResult{}, err
	}
	sm := p.scoreMaps[idx]

	if p.upscale && p.embedding.PreencodeW > 0 && p.embedding.PreencodeH > 0 {
		sm = maskops.ResizeBilinear(sm, p.embedding.PreencodeW, p.embedding.PreencodeH)
	}

	mask := maskops.Threshold(sm, snap.Threshold)
	if snap.Invert {
		mask = maskops.Invert(mask)
	}

	filtered := components.Filter(mask, snap.Prompts.HintPoint(), snap.LargestOnly, p.conv)

	out := contours.Pipeline{
		Padding:     snap.Padding,
		Rounding:    snap.Rounding,
		SimplifyTol: snap.SimplifyTol,
		Convention:  p.conv,
	}.Apply(filtered.Mask)

	return TickResult{
		Flags:    flags,
		Index:    idx,
		Degraded: filtered.Degraded,
		OK:       out.OK,
		Contours: out.Contours,
		Mask:     out.Mask,
	}, nil
}

// selectCandidate picks the score map index for this tick. Best-quality
// selection falls back to index 0 when the quality scores give no basis to
// choose; an explicit out-of-range index is surfaced as an error.
func (p *Pipeline) selectCandidate(snap tracker.Snapshot) (int, error) {
	if len(p.scoreMaps) == 0 {
		return 0, errors.New("model returned no mask candidates")
	}
	if snap.UseBestMask {
		idx, err := maskops.SelectBest(p.quality)
		if err != nil {
			if errors.Is(err, maskops.ErrNoSelection) {
				return 0, nil
			}
			return 0, err
		}
		return idx, nil
	}
	if _, err := maskops.SelectIndex(p.scoreMaps, snap.MaskIndex); err != nil {
		return 0, err
	}
	return snap.MaskIndex, nil
}

// Candidates returns the cached model output of the last prompt run: the
// candidate count and their quality scores
func (p *Pipeline) Candidates() (int, []float64) {
	return len(p.scoreMaps), p.quality
}

// Composite renders the frame over a checkerboard using the mask, for
// operator feedback
func (p *Pipeline) Composite(frame image.Image, mask types.Mask) *image.NRGBA {
	return p.comp.Superimpose(frame, mask)
}

// GetVersion returns the library version
func GetVersion() string {
	return Version
}
