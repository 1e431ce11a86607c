// Package remote implements the model.Segmenter contract against an
// HTTP/JSON inference server hosting the segmentation network.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"net/http"
	"strings"
	"time"

	"github.com/menta2k/mask-studio/pkg/imgio"
	"github.com/menta2k/mask-studio/pkg/model"
	"github.com/menta2k/mask-studio/pkg/types"
)

// Client talks to a segmentation inference server. Safe for sequential use
// by one pipeline; it keeps no per-frame state of its own.
type Client struct {
	baseURL    string
	httpClient *http.Client

	// Transport settings for the frame upload
	sendFormat  string
	sendMaxDim  int
	sendQuality int
}

// NewClient creates a client for the given server URL
func NewClient(serverURL string) (*Client, error) {
	if serverURL == "" {
		serverURL = "http://localhost:8080"
	}
	return &Client{
		baseURL: strings.TrimSuffix(serverURL, "/"),
		httpClient: &http.Client{
			Timeout: 5 * time.Minute,
		},
		sendFormat:  "png",
		sendMaxDim:  0,
		sendQuality: 92,
	}, nil
}

type encodeImageRequest struct {
	Image  string `json:"image"` // base64
	Format string `json:"format"`
}

type encodePromptsRequest struct {
	Boxes    []types.Box   `json:"boxes"`
	FGPoints []types.Point `json:"fg_points"`
	BGPoints []types.Point `json:"bg_points"`
}

type generateMasksRequest struct {
	Image               model.ImageEmbedding  `json:"image"`
	Prompts             model.PromptEmbedding `json:"prompts"`
	MaskHint            []uint8               `json:"mask_hint,omitempty"`
	MaskHintW           int                   `json:"mask_hint_w,omitempty"`
	MaskHintH           int                   `json:"mask_hint_h,omitempty"`
	SuppressEmptyPrompt bool                  `json:"suppress_empty_prompt"`
}

type generateMasksResponse struct {
	MaskW         int         `json:"mask_w"`
	MaskH         int         `json:"mask_h"`
	ScoreMaps     [][]float32 `json:"score_maps"`
	QualityScores []float64   `json:"quality_scores"`
}

// EncodeImage uploads the frame and returns its embedding
func (c *Client) EncodeImage(ctx context.Context, frame image.Image) (model.ImageEmbedding, error) {
	b64, err := imgio.EncodeBase64(frame, c.sendFormat, c.sendMaxDim, c.sendQuality)
	if err != nil {
		return model.ImageEmbedding{}, fmt.Errorf("failed to encode frame: %w", err)
	}

	body, err := c.sendRequest(ctx, "/v1/encode_image", encodeImageRequest{Image: b64, Format: c.sendFormat})
	if err != nil {
		return model.ImageEmbedding{}, err
	}

	var emb model.ImageEmbedding
	if err := json.Unmarshal(body, &emb); err != nil {
		return model.ImageEmbedding{}, fmt.Errorf("failed to parse embedding response: %v", err)
	}
	if emb.PreencodeW <= 0 || emb.PreencodeH <= 0 {
		return model.ImageEmbedding{}, fmt.Errorf("server returned invalid pre-encode size %dx%d", emb.PreencodeW, emb.PreencodeH)
	}
	return emb, nil
}

// EncodePrompts encodes the prompt lists. Coordinates must already be
// normalized; the prompt set is validated before upload.
func (c *Client) EncodePrompts(ctx context.Context, prompts types.PromptSet) (model.PromptEmbedding, error) {
	if err := prompts.Validate(); err != nil {
		return model.PromptEmbedding{}, fmt.Errorf("invalid prompts: %w", err)
	}

	req := encodePromptsRequest{
		Boxes:    prompts.Boxes,
		FGPoints: prompts.FGPoints,
		BGPoints: prompts.BGPoints,
	}
	body, err := c.sendRequest(ctx, "/v1/encode_prompts", req)
	if err != nil {
		return model.PromptEmbedding{}, err
	}

	var emb model.PromptEmbedding
	if err := json.Unmarshal(body, &emb); err != nil {
		return model.PromptEmbedding{}, fmt.Errorf("failed to parse embedding response: %v", err)
	}
	return emb, nil
}

// GenerateMasks runs the mask decoder and returns candidate score maps with
// their predicted quality scores
func (c *Client) GenerateMasks(ctx context.Context, img model.ImageEmbedding, prompts model.PromptEmbedding,
	maskHint *types.Mask, suppressEmptyPrompt bool) ([]types.ScoreMap, []float64, error) {

	req := generateMasksRequest{
		Image:               img,
		Prompts:             prompts,
		SuppressEmptyPrompt: suppressEmptyPrompt,
	}
	if maskHint != nil {
		req.MaskHint = maskHint.Pix
		req.MaskHintW = maskHint.W
		req.MaskHintH = maskHint.H
	}

	body, err := c.sendRequest(ctx, "/v1/generate_masks", req)
	if err != nil {
		return nil, nil, err
	}

	var resp generateMasksResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, nil, fmt.Errorf("failed to parse mask response: %v", err)
	}
	if resp.MaskW <= 0 || resp.MaskH <= 0 {
		return nil, nil, fmt.Errorf("server returned invalid mask size %dx%d", resp.MaskW, resp.MaskH)
	}
	if len(resp.ScoreMaps) == 0 {
		return nil, nil, fmt.Errorf("server returned no score maps")
	}
	if len(resp.QualityScores) != len(resp.ScoreMaps) {
		return nil, nil, fmt.Errorf("server returned %d quality scores for %d score maps",
			len(resp.QualityScores), len(resp.ScoreMaps))
	}

	maps := make([]types.ScoreMap, len(resp.ScoreMaps))
	for i, data := range resp.ScoreMaps {
		if len(data) != resp.MaskW*resp.MaskH {
			return nil, nil, fmt.Errorf("score map %d has %d values, expected %d", i, len(data), resp.MaskW*resp.MaskH)
		}
		maps[i] = types.ScoreMap{W: resp.MaskW, H: resp.MaskH, Data: data}
	}
	return maps, resp.QualityScores, nil
}

func (c *Client) sendRequest(ctx context.Context, endpoint string, payload interface{}) ([]byte, error) {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 300*time.Second)
		defer cancel()
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %v", err)
	}
	defer resp.Body.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		return nil, fmt.Errorf("failed to read response: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("server returned status %d: %s", resp.StatusCode, buf.String())
	}
	return buf.Bytes(), nil
}
