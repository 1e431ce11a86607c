package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config holds the application configuration
type Config struct {
	Pipeline   PipelineConfig   `json:"pipeline"`
	Compositor CompositorConfig `json:"compositor"`
	Remote     RemoteConfig     `json:"remote"`
	Output     OutputConfig     `json:"output"`
}

// PipelineConfig holds the mask post-processing settings
type PipelineConfig struct {
	Threshold     float64 `json:"threshold"`
	Invert        bool    `json:"invert"`
	UseBestMask   bool    `json:"use_best_mask"`
	MaskIndex     int     `json:"mask_index"`
	LargestOnly   bool    `json:"largest_only"`
	PaddingPx     int     `json:"padding_px"`
	RoundingPx    int     `json:"rounding_px"`
	SimplifyTol   float64 `json:"simplify_tolerance"`
	Convention    string  `json:"convention"` // "center" or "edge"
	UpscaleScores bool    `json:"upscale_scores"`
}

// CompositorConfig holds the checkerboard preview settings
type CompositorConfig struct {
	BrightnessPct int `json:"brightness_pct"`
	ContrastPct   int `json:"contrast_pct"`
	TileSizePx    int `json:"tile_size_px"`
}

// RemoteConfig holds the inference server settings
type RemoteConfig struct {
	ServerURL           string `json:"server_url"`
	SuppressEmptyPrompt bool   `json:"suppress_empty_prompt"`
}

// OutputConfig holds configuration for result generation
type OutputConfig struct {
	Dir           string `json:"dir"`
	PreviewFormat string `json:"preview_format"`
	Quality       int    `json:"quality"`
}

// Default returns a configuration with default values
func Default() *Config {
	return &Config{
		Pipeline: PipelineConfig{
			Threshold:     0.0,
			Invert:        false,
			UseBestMask:   true,
			MaskIndex:     0,
			LargestOnly:   false,
			PaddingPx:     0,
			RoundingPx:    0,
			SimplifyTol:   0.0,
			Convention:    "center",
			UpscaleScores: true,
		},
		Compositor: CompositorConfig{
			BrightnessPct: 50,
			ContrastPct:   50,
			TileSizePx:    16,
		},
		Remote: RemoteConfig{
			ServerURL:           "http://localhost:8080",
			SuppressEmptyPrompt: true,
		},
		Output: OutputConfig{
			Dir:           "./results",
			PreviewFormat: "webp",
			Quality:       90,
		},
	}
}

// LoadFromFile loads configuration from a JSON file
func LoadFromFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &config, nil
}

// SaveToFile saves configuration to a JSON file
func (c *Config) SaveToFile(filename string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Pipeline.MaskIndex < 0 {
		return fmt.Errorf("pipeline.mask_index must be non-negative")
	}

	if c.Pipeline.Convention != "center" && c.Pipeline.Convention != "edge" {
		return fmt.Errorf("pipeline.convention must be \"center\" or \"edge\"")
	}

	if c.Pipeline.SimplifyTol < 0 {
		return fmt.Errorf("pipeline.simplify_tolerance must be non-negative")
	}

	if c.Compositor.BrightnessPct < 0 || c.Compositor.BrightnessPct > 100 {
		return fmt.Errorf("compositor.brightness_pct must be between 0 and 100")
	}

	if c.Compositor.ContrastPct < 0 || c.Compositor.ContrastPct > 100 {
		return fmt.Errorf("compositor.contrast_pct must be between 0 and 100")
	}

	if c.Compositor.TileSizePx < 1 {
		return fmt.Errorf("compositor.tile_size_px must be positive")
	}

	if c.Remote.ServerURL == "" {
		return fmt.Errorf("remote.server_url cannot be empty")
	}

	if c.Output.Quality < 1 || c.Output.Quality > 100 {
		return fmt.Errorf("output.quality must be between 1 and 100")
	}

	switch c.Output.PreviewFormat {
	case "webp", "png", "jpg", "jpeg":
	default:
		return fmt.Errorf("output.preview_format must be webp, png or jpg")
	}

	return nil
}

// GetConfigPath returns the default configuration file path
func GetConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./config.json"
	}
	return filepath.Join(home, ".config", "mask-studio", "config.json")
}
