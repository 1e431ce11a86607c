// Package session persists segmentation results in the interchange format:
// the normalized prompt lists plus the final contours and binary mask,
// enough to reproduce a result without re-running the model.
package session

import (
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/menta2k/mask-studio/internal/utils"
	"github.com/menta2k/mask-studio/pkg/imgio"
	"github.com/menta2k/mask-studio/pkg/types"
)

// Document is the JSON half of a saved result
type Document struct {
	ID        string          `json:"id"`
	CreatedAt time.Time       `json:"created_at"`
	Prompts   types.PromptSet `json:"prompts"`
	Contours  []types.Contour `json:"contours,omitempty"`
	MaskFile  string          `json:"mask_file,omitempty"`
}

// Result bundles everything one Save call writes
type Result struct {
	Prompts  types.PromptSet
	Contours []types.Contour
	Mask     types.Mask

	// Optional composited preview image and its encoding settings
	Preview       image.Image
	PreviewFormat string // "webp", "png" or "jpg"; defaults to webp
	Quality       int    // defaults to 90
}

const documentName = "result.json"

// Save writes the result into a fresh uuid-named folder under dir and
// returns the folder path
func Save(dir string, res Result) (string, error) {
	id := uuid.NewString()
	folder := filepath.Join(dir, id)
	if err := utils.EnsureDir(folder); err != nil {
		return "", fmt.Errorf("failed to create result folder: %w", err)
	}

	doc := Document{
		ID:        id,
		CreatedAt: time.Now().UTC(),
		Prompts:   res.Prompts,
		Contours:  res.Contours,
	}

	if len(res.Mask.Pix) > 0 {
		doc.MaskFile = "mask.png"
		if err := saveMaskPNG(filepath.Join(folder, doc.MaskFile), res.Mask); err != nil {
			return "", fmt.Errorf("failed to save mask: %w", err)
		}
	}

	if res.Preview != nil {
		format := res.PreviewFormat
		if format == "" {
			format = "webp"
		}
		quality := res.Quality
		if quality <= 0 {
			quality = 90
		}
		previewPath := filepath.Join(folder, "preview."+format)
		if err := imgio.Save(res.Preview, previewPath, format, quality, false); err != nil {
			return "", fmt.Errorf("failed to save preview: %w", err)
		}
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal result document: %w", err)
	}
	if err := os.WriteFile(filepath.Join(folder, documentName), data, 0644); err != nil {
		return "", fmt.Errorf("failed to write result document: %w", err)
	}
	return folder, nil
}

// LoadPrompts reads a prompt set from either a saved result document or a
// bare prompts JSON file, so saved results can seed a new session
func LoadPrompts(path string) (types.PromptSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.PromptSet{}, fmt.Errorf("failed to read prompts file: %w", err)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err == nil && !doc.Prompts.IsEmpty() {
		return doc.Prompts, doc.Prompts.Validate()
	}

	var prompts types.PromptSet
	if err := json.Unmarshal(data, &prompts); err != nil {
		return types.PromptSet{}, fmt.Errorf("failed to parse prompts file: %w", err)
	}
	return prompts, prompts.Validate()
}

// LoadMask reads a saved mask PNG back into a binary mask. Any nonzero
// pixel counts as foreground.
func LoadMask(path string) (types.Mask, error) {
	f, err := os.Open(path)
	if err != nil {
		return types.Mask{}, fmt.Errorf("failed to open mask file: %w", err)
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		return types.Mask{}, fmt.Errorf("failed to decode mask file: %w", err)
	}

	b := img.Bounds()
	mask := types.NewMask(b.Dx(), b.Dy())
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			if gray, _, _, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA(); gray > 0 {
				mask.Set(x, y, true)
			}
		}
	}
	return mask, nil
}

func saveMaskPNG(path string, mask types.Mask) error {
	img := image.NewGray(image.Rect(0, 0, mask.W, mask.H))
	copy(img.Pix, mask.Pix)

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, img)
}
