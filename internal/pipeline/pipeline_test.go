package pipeline

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kayz/tokenbrush/internal/character"
	"github.com/kayz/tokenbrush/internal/config"
	"github.com/kayz/tokenbrush/internal/imagegen"
	"github.com/kayz/tokenbrush/internal/publish"
	"github.com/kayz/tokenbrush/internal/refine"
	"github.com/kayz/tokenbrush/internal/relayclient"
)

type fakeUploader struct {
	calls int
}

func (f *fakeUploader) Upload(_ context.Context, filename string, data []byte, overwrite bool) (string, error) {
	f.calls++
	return "portraits/" + filename, nil
}

type fakeRecords struct {
	calls    int
	portrait string
	token    string
}

func (f *fakeRecords) SetImagePaths(id, portraitPath, tokenPath string) error {
	f.calls++
	f.portrait = portraitPath
	f.token = tokenPath
	return nil
}

type fakeReviewer struct {
	edited    string
	committed bool
}

func (f fakeReviewer) Review(_ context.Context, text string) (string, bool, error) {
	if f.edited != "" {
		return f.edited, f.committed, nil
	}
	return text, f.committed, nil
}

type failingRefiner struct{}

func (failingRefiner) Name() string { return "failing" }

func (failingRefiner) Refine(_ context.Context, structuredText, _ string) (string, error) {
	return structuredText, fmt.Errorf("%w: provider down", refine.ErrRefinementFailed)
}

type captureNotifier struct {
	infos  []string
	warns  []string
	errors []string
}

func (c *captureNotifier) Info(msg string)  { c.infos = append(c.infos, msg) }
func (c *captureNotifier) Warn(msg string)  { c.warns = append(c.warns, msg) }
func (c *captureNotifier) Error(msg string) { c.errors = append(c.errors, msg) }

func testRecord() *character.Record {
	return &character.Record{
		ID:    "elora",
		Name:  "Elora",
		Class: &character.ClassAttributes{Name: "Ranger"},
		Race:  "Elf",
		Equipment: []character.Item{
			{Name: "Bow"},
			{Name: "Dagger"},
		},
	}
}

// imageServer returns an httptest server answering the images endpoint and
// a pointer to the prompts it received.
func imageServer(t *testing.T, status int) (*httptest.Server, *[]string) {
	t.Helper()
	var prompts []string
	payload := base64.StdEncoding.EncodeToString([]byte("fake-image-bytes"))
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		var body struct {
			Prompt string `json:"prompt"`
		}
		_ = json.NewDecoder(req.Body).Decode(&body)
		prompts = append(prompts, body.Prompt)

		w.Header().Set("Content-Type", "application/json")
		if status != http.StatusOK {
			w.WriteHeader(status)
			w.Write([]byte(`{"error":{"message":"rate limit exceeded","type":"requests"}}`))
			return
		}
		w.Write([]byte(`{"data":[{"b64_json":"` + payload + `"}]}`))
	}))
	t.Cleanup(server.Close)
	return server, &prompts
}

func newTestPipeline(t *testing.T, serverURL string, refiner refine.Refiner, reviewer Reviewer, notifier Notifier) (*Pipeline, *fakeUploader, *fakeRecords) {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.AI.APIKey = "test-key"

	images, err := imagegen.NewRequester(imagegen.RequesterConfig{
		APIKey:  "test-key",
		BaseURL: serverURL + "/v1",
		Model:   "dall-e-3",
	})
	if err != nil {
		t.Fatalf("NewRequester: %v", err)
	}

	uploader := &fakeUploader{}
	records := &fakeRecords{}
	publisher := publish.New(uploader, records, false)
	resolver := &relayclient.Resolver{}

	return New(cfg, refiner, images, resolver, publisher, reviewer, notifier), uploader, records
}

func TestRunGeneratesPortraitAndToken(t *testing.T) {
	server, prompts := imageServer(t, http.StatusOK)
	p, uploader, records := newTestPipeline(t, server.URL, nil, AutoApprove{}, nil)

	result, err := p.Run(context.Background(), Request{
		Record: testRecord(),
		Kinds:  []Kind{KindPortrait, KindToken},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(result.Paths) != 2 {
		t.Fatalf("expected two published paths, got %v", result.Paths)
	}
	if records.calls != 1 {
		t.Fatalf("record updated %d times, want 1", records.calls)
	}
	if records.portrait == records.token {
		t.Fatalf("portrait and token should get distinct paths")
	}
	for _, path := range []string{records.portrait, records.token} {
		if !strings.Contains(path, "?t=") {
			t.Fatalf("path lacks cache-busting suffix: %s", path)
		}
	}
	if uploader.calls != 2 {
		t.Fatalf("expected two uploads, got %d", uploader.calls)
	}
	if len(*prompts) != 2 {
		t.Fatalf("expected two image requests, got %d", len(*prompts))
	}
	if !strings.Contains((*prompts)[0], "Name: Elora") {
		t.Fatalf("structured text missing from prompt: %q", (*prompts)[0])
	}
	// Token framing differs from portrait framing.
	if (*prompts)[0] == (*prompts)[1] {
		t.Fatalf("portrait and token prompts should differ in style suffix")
	}
}

func TestRunImageFailureLeavesNoSideEffects(t *testing.T) {
	server, _ := imageServer(t, http.StatusTooManyRequests)
	notifier := &captureNotifier{}
	p, uploader, records := newTestPipeline(t, server.URL, nil, AutoApprove{}, notifier)

	_, err := p.Run(context.Background(), Request{Record: testRecord()})

	var genErr *imagegen.GenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("expected *GenerationError, got %v", err)
	}
	if genErr.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", genErr.StatusCode)
	}
	if uploader.calls != 0 {
		t.Fatalf("no storage write expected, got %d", uploader.calls)
	}
	if records.calls != 0 {
		t.Fatalf("no record update expected, got %d", records.calls)
	}
	if len(notifier.errors) == 0 {
		t.Fatalf("failure should be surfaced to the user")
	}
}

func TestRunCancelHasNoSideEffects(t *testing.T) {
	server, prompts := imageServer(t, http.StatusOK)
	p, uploader, records := newTestPipeline(t, server.URL, nil, fakeReviewer{committed: false}, nil)

	_, err := p.Run(context.Background(), Request{Record: testRecord()})
	if !errors.Is(err, ErrCancelled) {
		t.Fatalf("expected ErrCancelled, got %v", err)
	}
	if len(*prompts) != 0 || uploader.calls != 0 || records.calls != 0 {
		t.Fatalf("cancel must leave zero side effects")
	}
}

func TestRunMissingCredentialAbortsBeforeAnyRequest(t *testing.T) {
	server, prompts := imageServer(t, http.StatusOK)
	p, _, _ := newTestPipeline(t, server.URL, nil, AutoApprove{}, nil)
	p.cfg.AI.APIKey = ""

	_, err := p.Run(context.Background(), Request{Record: testRecord()})
	if !errors.Is(err, ErrMissingCredential) {
		t.Fatalf("expected ErrMissingCredential, got %v", err)
	}
	if len(*prompts) != 0 {
		t.Fatalf("no network call expected before credential check")
	}
}

func TestRunRefinementFailureFallsBack(t *testing.T) {
	server, prompts := imageServer(t, http.StatusOK)
	notifier := &captureNotifier{}
	p, _, _ := newTestPipeline(t, server.URL, failingRefiner{}, AutoApprove{}, notifier)

	result, err := p.Run(context.Background(), Request{Record: testRecord()})
	if err != nil {
		t.Fatalf("Run should survive refinement failure: %v", err)
	}
	if result.Document.RefinedText != "" {
		t.Fatalf("failed refinement should leave RefinedText empty")
	}
	if len(notifier.warns) == 0 {
		t.Fatalf("refinement failure should warn the user")
	}
	if !strings.Contains((*prompts)[0], "Name: Elora") {
		t.Fatalf("structured text should drive generation after fallback")
	}
}

func TestRunUserEditedTextIsAuthoritative(t *testing.T) {
	server, prompts := imageServer(t, http.StatusOK)
	reviewer := fakeReviewer{edited: "A completely rewritten prompt", committed: true}
	p, _, _ := newTestPipeline(t, server.URL, nil, reviewer, nil)

	result, err := p.Run(context.Background(), Request{Record: testRecord()})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Document.UserEditedText != "A completely rewritten prompt" {
		t.Fatalf("user edit not recorded: %+v", result.Document)
	}
	if !strings.HasPrefix((*prompts)[0], "A completely rewritten prompt") {
		t.Fatalf("user-edited text must drive generation, got %q", (*prompts)[0])
	}
}

func TestDocumentPrecedence(t *testing.T) {
	doc := Document{StructuredText: "structured"}
	if doc.Text() != "structured" {
		t.Fatalf("want structured, got %q", doc.Text())
	}
	doc.RefinedText = "refined"
	if doc.Text() != "refined" {
		t.Fatalf("want refined, got %q", doc.Text())
	}
	doc.UserEditedText = "edited"
	if doc.Text() != "edited" {
		t.Fatalf("want edited, got %q", doc.Text())
	}
}

func TestParseKinds(t *testing.T) {
	tests := []struct {
		in      string
		want    []Kind
		wantErr bool
	}{
		{in: "", want: []Kind{KindPortrait}},
		{in: "portrait", want: []Kind{KindPortrait}},
		{in: "token", want: []Kind{KindToken}},
		{in: "both", want: []Kind{KindPortrait, KindToken}},
		{in: "sticker", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseKinds(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Fatalf("expected error for %q", tt.in)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParseKinds(%q): %v", tt.in, err)
		}
		if len(got) != len(tt.want) {
			t.Fatalf("ParseKinds(%q) = %v, want %v", tt.in, got, tt.want)
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Fatalf("ParseKinds(%q) = %v, want %v", tt.in, got, tt.want)
			}
		}
	}
}
