package imagegen

import (
	"context"
	"errors"
	"fmt"

	"github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/kayz/tokenbrush/internal/logger"
	"github.com/kayz/tokenbrush/internal/relayclient"
)

// Encoding selects how the endpoint returns the generated image.
type Encoding string

const (
	EncodingURL Encoding = "url"
	EncodingB64 Encoding = "b64_json"
)

// Sizes used by the two asset kinds. Square for portrait framing, tall for
// full-body token framing. The caller picks; nothing is inferred.
const (
	SizeSquare = openai.CreateImageSize1024x1024
	SizeTall   = openai.CreateImageSize1024x1792
)

// Options selects output size and reference encoding for one request
type Options struct {
	Size     string
	Encoding Encoding
}

// GenerationError carries the upstream status and message from a failed
// image generation call. There is no automatic retry; the user re-invokes.
type GenerationError struct {
	StatusCode int
	Message    string
}

func (e *GenerationError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("image generation failed (status %d): %s", e.StatusCode, e.Message)
	}
	return "image generation failed: " + e.Message
}

// Requester sends prompts to an image generation endpoint.
type Requester struct {
	client   *openai.Client
	model    string
	maxChars int
	limiter  *rate.Limiter
}

// RequesterConfig holds configuration for the image endpoint
type RequesterConfig struct {
	APIKey  string
	BaseURL string
	Model   string

	// PromptMaxChars truncates prompts before sending; 0 disables the cap.
	PromptMaxChars int

	// RequestsPerMinute paces calls; 0 disables pacing.
	RequestsPerMinute int
}

// NewRequester creates a new image Requester
func NewRequester(cfg RequesterConfig) (*Requester, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	r := &Requester{
		client:   openai.NewClientWithConfig(clientCfg),
		model:    cfg.Model,
		maxChars: cfg.PromptMaxChars,
	}
	if cfg.RequestsPerMinute > 0 {
		r.limiter = rate.NewLimiter(rate.Limit(float64(cfg.RequestsPerMinute)/60.0), 1)
	}
	return r, nil
}

// Request generates one image for the prompt and returns a reference in the
// requested encoding. Failures come back as *GenerationError.
func (r *Requester) Request(ctx context.Context, prompt string, opts Options) (relayclient.Reference, error) {
	prompt = r.capPrompt(prompt)

	if r.limiter != nil {
		if err := r.limiter.Wait(ctx); err != nil {
			return relayclient.Reference{}, &GenerationError{Message: err.Error()}
		}
	}

	req := openai.ImageRequest{
		Prompt:         prompt,
		Model:          r.model,
		N:              1,
		Size:           opts.Size,
		ResponseFormat: string(opts.Encoding),
	}
	if req.Size == "" {
		req.Size = SizeSquare
	}
	if req.ResponseFormat == "" {
		req.ResponseFormat = openai.CreateImageResponseFormatURL
	}

	resp, err := r.client.CreateImage(ctx, req)
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return relayclient.Reference{}, &GenerationError{
				StatusCode: apiErr.HTTPStatusCode,
				Message:    apiErr.Message,
			}
		}
		return relayclient.Reference{}, &GenerationError{Message: err.Error()}
	}
	if len(resp.Data) == 0 {
		return relayclient.Reference{}, &GenerationError{Message: "response carried no image data"}
	}

	ref := relayclient.Reference{
		URL: resp.Data[0].URL,
		B64: resp.Data[0].B64JSON,
	}
	if !ref.IsInline() && !ref.IsRemote() {
		return relayclient.Reference{}, &GenerationError{Message: "response image entry is empty"}
	}
	return ref, nil
}

// capPrompt enforces the configured prompt length cap, rune-safe
func (r *Requester) capPrompt(prompt string) string {
	if r.maxChars <= 0 {
		return prompt
	}
	runes := []rune(prompt)
	if len(runes) <= r.maxChars {
		return prompt
	}
	logger.Warnf("prompt truncated from %d to %d chars before image request", len(runes), r.maxChars)
	return string(runes[:r.maxChars])
}
