package refine

import (
	"context"
	"fmt"
	"strings"

	"github.com/liushuangls/go-anthropic/v2"
)

// ClaudeRefiner implements Refiner against the Anthropic messages API.
type ClaudeRefiner struct {
	client *anthropic.Client
	model  string
}

// ClaudeConfig holds configuration for the Anthropic refinement provider
type ClaudeConfig struct {
	APIKey string
	Model  string
}

const defaultClaudeModel = "claude-3-5-haiku-latest"

// NewClaudeRefiner creates a new Anthropic refiner
func NewClaudeRefiner(cfg ClaudeConfig) (*ClaudeRefiner, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	model := cfg.Model
	if model == "" || strings.HasPrefix(model, "gpt") {
		model = defaultClaudeModel
	}
	return &ClaudeRefiner{
		client: anthropic.NewClient(cfg.APIKey),
		model:  model,
	}, nil
}

// Name returns the provider name
func (r *ClaudeRefiner) Name() string {
	return "claude"
}

// Refine sends the structured text for rewriting via the messages API.
func (r *ClaudeRefiner) Refine(ctx context.Context, structuredText, systemInstruction string) (string, error) {
	resp, err := r.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:     anthropic.Model(r.model),
		System:    systemInstruction,
		MaxTokens: refineMaxTokens,
		Messages: []anthropic.Message{
			anthropic.NewUserTextMessage(structuredText),
		},
	})
	if err != nil {
		return structuredText, fmt.Errorf("%w: anthropic API error: %v", ErrRefinementFailed, err)
	}

	out := strings.TrimSpace(resp.GetFirstContentText())
	if out == "" {
		return structuredText, fmt.Errorf("%w: empty message content", ErrRefinementFailed)
	}
	return out, nil
}
