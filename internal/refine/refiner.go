package refine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kayz/tokenbrush/internal/config"
)

// ErrRefinementFailed marks a recoverable refinement failure. Callers keep
// the structured text returned alongside it and continue.
var ErrRefinementFailed = errors.New("refinement failed")

// Refiner rewrites a structured character description into richer prose.
//
// Refine never mutates its inputs. On any failure, or when the model returns
// an empty result, it returns the original text unchanged together with an
// error wrapping ErrRefinementFailed so the caller can notify the user and
// fall back.
type Refiner interface {
	Name() string
	Refine(ctx context.Context, structuredText, systemInstruction string) (string, error)
}

// New creates the refiner selected by config, or nil when refinement is
// disabled.
func New(cfg *config.Config) (Refiner, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.AI.RefineProvider)) {
	case "none", "off", "disabled":
		return nil, nil
	case "claude", "anthropic":
		key := cfg.AI.AnthropicAPIKey
		if key == "" {
			key = cfg.AI.APIKey
		}
		return NewClaudeRefiner(ClaudeConfig{
			APIKey: key,
			Model:  cfg.AI.TextModel,
		})
	case "openai", "":
		return NewOpenAIRefiner(OpenAIConfig{
			APIKey:  cfg.AI.APIKey,
			BaseURL: cfg.AI.BaseURL,
			Model:   cfg.AI.TextModel,
		})
	default:
		return nil, fmt.Errorf("unknown refine provider: %q", cfg.AI.RefineProvider)
	}
}
