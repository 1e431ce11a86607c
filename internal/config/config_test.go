package config

import (
	"path/filepath"
	"testing"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
	if cfg.Pipeline.Convention != "center" {
		t.Errorf("default convention = %s, expected center", cfg.Pipeline.Convention)
	}
	if !cfg.Pipeline.UseBestMask {
		t.Error("default should pick the best mask")
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"negative mask index", func(c *Config) { c.Pipeline.MaskIndex = -1 }},
		{"unknown convention", func(c *Config) { c.Pipeline.Convention = "corner" }},
		{"negative simplify tolerance", func(c *Config) { c.Pipeline.SimplifyTol = -0.5 }},
		{"brightness over 100", func(c *Config) { c.Compositor.BrightnessPct = 150 }},
		{"zero tile size", func(c *Config) { c.Compositor.TileSizePx = 0 }},
		{"empty server URL", func(c *Config) { c.Remote.ServerURL = "" }},
		{"quality over 100", func(c *Config) { c.Output.Quality = 101 }},
		{"unknown preview format", func(c *Config) { c.Output.PreviewFormat = "bmp" }},
	}

	for _, test := range tests {
		cfg := Default()
		test.mutate(cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s should fail validation", test.name)
		}
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.json")

	cfg := Default()
	cfg.Pipeline.Threshold = 0.25
	cfg.Pipeline.Convention = "edge"
	cfg.Remote.ServerURL = "http://model-host:9000"

	if err := cfg.SaveToFile(path); err != nil {
		t.Fatalf("SaveToFile failed: %v", err)
	}

	loaded, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}
	if loaded.Pipeline.Threshold != 0.25 {
		t.Errorf("threshold did not round-trip: %f", loaded.Pipeline.Threshold)
	}
	if loaded.Pipeline.Convention != "edge" {
		t.Errorf("convention did not round-trip: %s", loaded.Pipeline.Convention)
	}
	if loaded.Remote.ServerURL != "http://model-host:9000" {
		t.Errorf("server URL did not round-trip: %s", loaded.Remote.ServerURL)
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	if _, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Error("missing config file should return an error")
	}
}

func TestGetConfigPath(t *testing.T) {
	if GetConfigPath() == "" {
		t.Error("config path should not be empty")
	}
}
