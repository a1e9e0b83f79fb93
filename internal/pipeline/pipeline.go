package pipeline

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/kayz/tokenbrush/internal/character"
	"github.com/kayz/tokenbrush/internal/config"
	"github.com/kayz/tokenbrush/internal/imagegen"
	"github.com/kayz/tokenbrush/internal/logger"
	"github.com/kayz/tokenbrush/internal/prompt"
	"github.com/kayz/tokenbrush/internal/publish"
	"github.com/kayz/tokenbrush/internal/refine"
	"github.com/kayz/tokenbrush/internal/relayclient"
)

var (
	// ErrMissingCredential aborts a run before any network call is made.
	ErrMissingCredential = errors.New("API key not set; set ai.api_key before generating")

	// ErrCancelled means the user cancelled at the review step. No side
	// effects have happened.
	ErrCancelled = errors.New("generation cancelled")
)

// Kind selects the framing of a generated asset.
type Kind string

const (
	KindPortrait Kind = "portrait"
	KindToken    Kind = "token"
)

// Reviewer presents the assembled prompt for human review. It returns the
// (possibly edited) text and whether the user committed. A false commit
// aborts the run with zero side effects.
type Reviewer interface {
	Review(ctx context.Context, text string) (edited string, committed bool, err error)
}

// AutoApprove commits the prompt unchanged without user interaction.
type AutoApprove struct{}

func (AutoApprove) Review(_ context.Context, text string) (string, bool, error) {
	return text, true, nil
}

// Notifier surfaces user-visible pipeline messages. Failures are never
// swallowed silently; every one reaches the notifier.
type Notifier interface {
	Info(msg string)
	Warn(msg string)
	Error(msg string)
}

// LogNotifier routes notifications to the process logger.
type LogNotifier struct{}

func (LogNotifier) Info(msg string)  { logger.Infof("%s", msg) }
func (LogNotifier) Warn(msg string)  { logger.Warnf("%s", msg) }
func (LogNotifier) Error(msg string) { logger.Errorf("%s", msg) }

// Document tracks the prompt text through the stages. StructuredText is
// built once and never regenerated; UserEditedText, when present, overrides
// everything else.
type Document struct {
	StructuredText string
	RefinedText    string
	UserEditedText string
}

// Text returns the authoritative prompt text at the current stage
func (d *Document) Text() string {
	if strings.TrimSpace(d.UserEditedText) != "" {
		return d.UserEditedText
	}
	if strings.TrimSpace(d.RefinedText) != "" {
		return d.RefinedText
	}
	return d.StructuredText
}

// Request describes one generation run
type Request struct {
	Record *character.Record
	Kinds  []Kind

	// Encoding defaults to inline base64, matching the host platform's
	// same-origin constraints.
	Encoding imagegen.Encoding

	// SkipRefine bypasses the refinement stage even when a refiner is
	// configured.
	SkipRefine bool
}

// Result reports where each generated asset ended up
type Result struct {
	Document Document
	Paths    map[publish.Slot]string
}

// Pipeline wires the generation stages together. All collaborators are
// injected; nothing reads global state.
type Pipeline struct {
	cfg       *config.Config
	refiner   refine.Refiner // nil disables refinement
	images    *imagegen.Requester
	resolver  *relayclient.Resolver
	publisher *publish.Publisher
	reviewer  Reviewer
	notifier  Notifier
}

// New creates a Pipeline from its stage collaborators
func New(cfg *config.Config, refiner refine.Refiner, images *imagegen.Requester, resolver *relayclient.Resolver, publisher *publish.Publisher, reviewer Reviewer, notifier Notifier) *Pipeline {
	if reviewer == nil {
		reviewer = AutoApprove{}
	}
	if notifier == nil {
		notifier = LogNotifier{}
	}
	return &Pipeline{
		cfg:       cfg,
		refiner:   refiner,
		images:    images,
		resolver:  resolver,
		publisher: publisher,
		reviewer:  reviewer,
		notifier:  notifier,
	}
}

// Run executes the full pipeline for one character: build description,
// optionally refine, review, then for each requested kind generate, resolve
// and publish. Kinds run sequentially; the first failure aborts the run and
// the user re-invokes to retry.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Result, error) {
	if strings.TrimSpace(p.cfg.AI.APIKey) == "" {
		p.notifier.Warn("API key not set in settings; aborting before any request.")
		return nil, ErrMissingCredential
	}
	if req.Record == nil {
		return nil, errors.New("no character record supplied")
	}
	kinds := req.Kinds
	if len(kinds) == 0 {
		kinds = []Kind{KindPortrait}
	}
	encoding := req.Encoding
	if encoding == "" {
		encoding = imagegen.EncodingB64
	}

	doc := Document{StructuredText: prompt.Build(req.Record)}

	if p.refiner != nil && !req.SkipRefine {
		refined, err := p.refiner.Refine(ctx, doc.StructuredText, p.cfg.Prompt.SystemInstruction)
		if err != nil {
			// Recoverable: keep the structured text and continue.
			p.notifier.Warn(fmt.Sprintf("Prompt refinement failed, using the structured description: %v", err))
		} else {
			doc.RefinedText = refined
		}
	}

	edited, committed, err := p.reviewer.Review(ctx, doc.Text())
	if err != nil {
		return nil, fmt.Errorf("prompt review: %w", err)
	}
	if !committed {
		return nil, ErrCancelled
	}
	doc.UserEditedText = edited

	assets := make(map[publish.Slot]publish.Asset, len(kinds))
	for _, kind := range kinds {
		p.notifier.Info(fmt.Sprintf("Generating %s for %s...", kind, req.Record.Name))

		ref, err := p.images.Request(ctx, p.framedPrompt(doc.Text(), kind), imagegen.Options{
			Size:     sizeFor(kind),
			Encoding: encoding,
		})
		if err != nil {
			p.notifier.Error(fmt.Sprintf("Image generation failed: %v", err))
			return nil, err
		}

		data, err := p.resolver.Resolve(ctx, ref, fmt.Sprintf("%s-%s", kind, publish.SanitizeName(req.Record.Name)))
		if err != nil {
			p.notifier.Error(fmt.Sprintf("Fetching generated image failed: %v", err))
			return nil, err
		}

		assets[slotFor(kind)] = publish.Asset{
			Data:        data,
			ContentType: http.DetectContentType(data),
		}
	}

	paths, err := p.publisher.Publish(ctx, req.Record.ID, req.Record.Name, assets)
	if err != nil {
		p.notifier.Error(fmt.Sprintf("Publishing failed: %v", err))
		return nil, err
	}

	p.notifier.Info(fmt.Sprintf("Generation complete for %s.", req.Record.Name))
	return &Result{Document: doc, Paths: paths}, nil
}

// framedPrompt appends the per-kind style suffix to the reviewed text
func (p *Pipeline) framedPrompt(text string, kind Kind) string {
	suffix := p.cfg.Prompt.StyleSuffix
	if kind == KindToken && p.cfg.Prompt.TokenStyleSuffix != "" {
		suffix = p.cfg.Prompt.TokenStyleSuffix
	}
	if strings.TrimSpace(suffix) == "" {
		return text
	}
	return text + "\nStyle: " + suffix
}

func sizeFor(kind Kind) string {
	if kind == KindToken {
		return imagegen.SizeTall
	}
	return imagegen.SizeSquare
}

func slotFor(kind Kind) publish.Slot {
	if kind == KindToken {
		return publish.SlotToken
	}
	return publish.SlotPortrait
}

// ParseKinds maps a CLI kind argument to pipeline kinds
func ParseKinds(s string) ([]Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "portrait":
		return []Kind{KindPortrait}, nil
	case "token":
		return []Kind{KindToken}, nil
	case "both", "all":
		return []Kind{KindPortrait, KindToken}, nil
	}
	return nil, fmt.Errorf("unknown kind %q (want portrait, token or both)", s)
}
