package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

var (
	exeDirCache string
)

// getExecutableDir returns the directory where the executable is located
func getExecutableDir() string {
	if exeDirCache != "" {
		return exeDirCache
	}
	execPath, err := os.Executable()
	if err != nil {
		exeDirCache = "."
		return exeDirCache
	}
	execPath, err = filepath.EvalSymlinks(execPath)
	if err != nil {
		exeDirCache = "."
		return exeDirCache
	}
	exeDirCache = filepath.Dir(execPath)
	return exeDirCache
}

type Config struct {
	AI      AIConfig      `yaml:"ai"`
	Prompt  PromptConfig  `yaml:"prompt,omitempty"`
	Relay   RelayConfig   `yaml:"relay,omitempty"`
	Storage StorageConfig `yaml:"storage,omitempty"`
	Logging LoggingConfig `yaml:"logging,omitempty"`
}

// AIConfig holds credentials and model selection for the text and image APIs.
type AIConfig struct {
	// APIKey authenticates against the OpenAI-compatible endpoint.
	// Required before any generation request is made.
	APIKey  string `yaml:"api_key,omitempty"`
	BaseURL string `yaml:"base_url,omitempty"`

	// RefineProvider selects the text refinement backend: "openai" (default),
	// "claude"/"anthropic", or "none" to disable refinement.
	RefineProvider  string `yaml:"refine_provider,omitempty"`
	AnthropicAPIKey string `yaml:"anthropic_api_key,omitempty"`

	TextModel  string `yaml:"text_model,omitempty"`
	ImageModel string `yaml:"image_model,omitempty"`

	// PromptMaxChars truncates image prompts before sending. 0 disables.
	PromptMaxChars int `yaml:"prompt_max_chars,omitempty"`

	// RequestsPerMinute paces image generation calls. 0 disables pacing.
	RequestsPerMinute int `yaml:"requests_per_minute,omitempty"`
}

// PromptConfig holds operator-tunable prompt text.
type PromptConfig struct {
	// SystemInstruction steers the refinement model.
	SystemInstruction string `yaml:"system_instruction,omitempty"`
	// StyleSuffix is appended to portrait prompts.
	StyleSuffix string `yaml:"style_suffix,omitempty"`
	// TokenStyleSuffix is appended to token prompts instead of StyleSuffix.
	TokenStyleSuffix string `yaml:"token_style_suffix,omitempty"`
}

type RelayConfig struct {
	// BaseURL of the same-origin image relay, e.g. "http://localhost:8787".
	// Empty means remote image URLs are fetched directly.
	BaseURL string `yaml:"base_url,omitempty"`
}

type StorageConfig struct {
	// Dir is the root directory for generated images. Files land under
	// Dir/portraits.
	Dir string `yaml:"dir,omitempty"`
	// DBPath is the SQLite character store path.
	DBPath string `yaml:"db_path,omitempty"`
	// Overwrite reuses a stable filename per character instead of a fresh
	// suffixed one.
	Overwrite bool `yaml:"overwrite,omitempty"`
}

type LoggingConfig struct {
	Level string `yaml:"level,omitempty"`
}

const (
	DefaultTextModel         = "gpt-4o-mini"
	DefaultImageModel        = "dall-e-3"
	DefaultPromptMaxChars    = 1000
	DefaultSystemInstruction = "You are an art director for a fantasy tabletop game. " +
		"Rewrite the character sheet below into a single vivid visual description " +
		"suitable for an image generation model. Describe appearance only; no rules text, no lists."
	DefaultStyleSuffix = "vibrant colors, dynamic camera angles, atmospheric lighting, " +
		"cinematic portrait. No face cropping."
	DefaultTokenStyleSuffix = "full body visible head to toe, centered, plain neutral " +
		"background, tabletop token art."
)

func DefaultConfig() *Config {
	return &Config{
		AI: AIConfig{
			RefineProvider: "openai",
			TextModel:      DefaultTextModel,
			ImageModel:     DefaultImageModel,
			PromptMaxChars: DefaultPromptMaxChars,
		},
		Prompt: PromptConfig{
			SystemInstruction: DefaultSystemInstruction,
			StyleSuffix:       DefaultStyleSuffix,
			TokenStyleSuffix:  DefaultTokenStyleSuffix,
		},
		Storage: StorageConfig{
			Dir:    filepath.Join(getExecutableDir(), "data"),
			DBPath: filepath.Join(getExecutableDir(), ".tokenbrush.db"),
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

func ConfigPath() string {
	return filepath.Join(getExecutableDir(), ".tokenbrush.yaml")
}

func Load() (*Config, error) {
	return LoadFromPath(ConfigPath())
}

func LoadFromPath(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Save() error {
	return c.SaveToPath(ConfigPath())
}

func (c *Config) SaveToPath(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600)
}
