package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.AI.APIKey != "" {
		t.Fatalf("default must not carry a credential")
	}
	if cfg.AI.RefineProvider != "openai" {
		t.Fatalf("refine provider = %q", cfg.AI.RefineProvider)
	}
	if cfg.AI.PromptMaxChars != DefaultPromptMaxChars {
		t.Fatalf("prompt cap = %d", cfg.AI.PromptMaxChars)
	}
	if cfg.Prompt.StyleSuffix == "" || cfg.Prompt.TokenStyleSuffix == "" {
		t.Fatalf("style suffixes should have defaults")
	}
}

func TestLoadFromPathMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadFromPath(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if cfg.AI.ImageModel != DefaultImageModel {
		t.Fatalf("expected defaults, got %+v", cfg.AI)
	}
}

func TestLoadFromPathReadsAISection(t *testing.T) {
	tmp := t.TempDir()
	cfgPath := filepath.Join(tmp, ".tokenbrush.yaml")
	content := `ai:
  api_key: "sk-test"
  refine_provider: "claude"
  prompt_max_chars: 500
relay:
  base_url: "http://localhost:8787"
storage:
  overwrite: true
`
	if err := os.WriteFile(cfgPath, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFromPath(cfgPath)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.AI.APIKey != "sk-test" {
		t.Fatalf("api key = %q", cfg.AI.APIKey)
	}
	if cfg.AI.RefineProvider != "claude" {
		t.Fatalf("refine provider = %q", cfg.AI.RefineProvider)
	}
	if cfg.AI.PromptMaxChars != 500 {
		t.Fatalf("prompt cap = %d", cfg.AI.PromptMaxChars)
	}
	if cfg.Relay.BaseURL != "http://localhost:8787" {
		t.Fatalf("relay base url = %q", cfg.Relay.BaseURL)
	}
	if !cfg.Storage.Overwrite {
		t.Fatalf("expected overwrite=true")
	}
	// Untouched sections keep their defaults.
	if cfg.AI.ImageModel != DefaultImageModel {
		t.Fatalf("image model default lost: %q", cfg.AI.ImageModel)
	}
}

func TestSaveAndReload(t *testing.T) {
	tmp := t.TempDir()
	cfgPath := filepath.Join(tmp, "nested", ".tokenbrush.yaml")

	cfg := DefaultConfig()
	cfg.AI.APIKey = "sk-roundtrip"
	cfg.Storage.Dir = "/srv/art"
	if err := cfg.SaveToPath(cfgPath); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := LoadFromPath(cfgPath)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got.AI.APIKey != "sk-roundtrip" || got.Storage.Dir != "/srv/art" {
		t.Fatalf("roundtrip mismatch: %+v", got)
	}
}
