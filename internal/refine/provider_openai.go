package refine

import (
	"context"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// OpenAIRefiner implements Refiner against any OpenAI-compatible chat
// completions endpoint.
type OpenAIRefiner struct {
	client *openai.Client
	model  string
}

// OpenAIConfig holds configuration for the OpenAI refinement provider
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

const (
	refineTemperature = 0.8
	refineMaxTokens   = 600
)

// NewOpenAIRefiner creates a new OpenAI-compatible refiner
func NewOpenAIRefiner(cfg OpenAIConfig) (*OpenAIRefiner, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &OpenAIRefiner{
		client: openai.NewClientWithConfig(clientCfg),
		model:  cfg.Model,
	}, nil
}

// Name returns the provider name
func (r *OpenAIRefiner) Name() string {
	return "openai"
}

// Refine sends the structured text for rewriting and returns the trimmed
// model output. On failure the original text comes back with an error
// wrapping ErrRefinementFailed.
func (r *OpenAIRefiner) Refine(ctx context.Context, structuredText, systemInstruction string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: r.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemInstruction},
			{Role: openai.ChatMessageRoleUser, Content: structuredText},
		},
		Temperature: refineTemperature,
		MaxTokens:   refineMaxTokens,
	}

	resp, err := r.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return structuredText, fmt.Errorf("%w: openai API error: %v", ErrRefinementFailed, err)
	}
	if len(resp.Choices) == 0 {
		return structuredText, fmt.Errorf("%w: empty response", ErrRefinementFailed)
	}

	out := strings.TrimSpace(resp.Choices[0].Message.Content)
	if out == "" {
		return structuredText, fmt.Errorf("%w: empty message content", ErrRefinementFailed)
	}
	return out, nil
}
