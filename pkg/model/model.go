// Package model defines the contract for the external segmentation model.
// The pipeline never looks inside the model; it only exchanges embeddings,
// score maps and quality scores through this interface.
package model

import (
	"context"
	"image"

	"github.com/menta2k/mask-studio/pkg/types"
)

// ImageEmbedding is the model's opaque encoding of one frame, plus the
// shaping information the pipeline needs to size its outputs
type ImageEmbedding struct {
	Data []float32 `json:"data"`

	// Token grid of the encoded image
	GridW int `json:"grid_w"`
	GridH int `json:"grid_h"`

	// Resolution the image was scaled to before encoding; score maps and
	// hi-res masks are sized against this
	PreencodeW int `json:"preencode_w"`
	PreencodeH int `json:"preencode_h"`
}

// PromptEmbedding is the model's opaque encoding of one prompt set
type PromptEmbedding struct {
	Data  []float32 `json:"data"`
	Count int       `json:"count"`
}

// Segmenter is the narrow contract the pipeline consumes. All prompt
// coordinates handed to EncodePrompts must already be normalized with the
// center pixel convention; implementations do not re-normalize.
type Segmenter interface {
	// EncodeImage runs the (expensive) image encoder once per frame
	EncodeImage(ctx context.Context, frame image.Image) (ImageEmbedding, error)

	// EncodePrompts encodes the box/fg/bg prompt lists
	EncodePrompts(ctx context.Context, prompts types.PromptSet) (PromptEmbedding, error)

	// GenerateMasks combines the encodings into candidate score maps and
	// one predicted quality score per candidate. maskHint may be nil.
	// With suppressEmptyPrompt set, an empty prompt set yields blank
	// score maps instead of a whole-image guess.
	GenerateMasks(ctx context.Context, img ImageEmbedding, prompts PromptEmbedding,
		maskHint *types.Mask, suppressEmptyPrompt bool) ([]types.ScoreMap, []float64, error)
}
