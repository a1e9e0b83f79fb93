package relayclient

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// failTransport fails the test if any network call is made
type failTransport struct {
	t *testing.T
}

func (ft failTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	ft.t.Fatalf("unexpected network call to %s", req.URL)
	return nil, errors.New("unreachable")
}

func TestResolveInlineDecodesWithoutNetwork(t *testing.T) {
	original := []byte{0x89, 0x50, 0x4e, 0x47, 0x01, 0x02, 0x03}
	ref := Reference{B64: base64.StdEncoding.EncodeToString(original)}

	r := &Resolver{HTTPClient: &http.Client{Transport: failTransport{t}}}
	got, err := r.Resolve(context.Background(), ref, "portrait-elora")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !bytes.Equal(got, original) {
		t.Fatalf("decoded bytes do not round-trip: %v != %v", got, original)
	}
}

func TestResolveInlineInvalidBase64(t *testing.T) {
	r := &Resolver{HTTPClient: &http.Client{Transport: failTransport{t}}}
	_, err := r.Resolve(context.Background(), Reference{B64: "!!not-base64!!"}, "")
	if !errors.Is(err, ErrBadReference) {
		t.Fatalf("expected ErrBadReference, got %v", err)
	}
}

func TestResolveEmptyReference(t *testing.T) {
	r := &Resolver{HTTPClient: &http.Client{Transport: failTransport{t}}}
	_, err := r.Resolve(context.Background(), Reference{}, "")
	if !errors.Is(err, ErrBadReference) {
		t.Fatalf("expected ErrBadReference, got %v", err)
	}
}

func TestResolveRemoteViaRelay(t *testing.T) {
	const target = "https://images.example.com/gen/abc.png?sig=xyz"
	body := []byte("relay-bytes")

	var calls int
	relay := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		calls++
		if req.URL.Path != "/relay" {
			t.Fatalf("unexpected path: %s", req.URL.Path)
		}
		decoded, err := base64.URLEncoding.DecodeString(req.URL.Query().Get("u"))
		if err != nil {
			t.Fatalf("target not base64url: %v", err)
		}
		if string(decoded) != target {
			t.Fatalf("relay received target %q, want %q", decoded, target)
		}
		if got := req.URL.Query().Get("f"); got != "portrait-elora" {
			t.Fatalf("relay received filename %q", got)
		}
		w.Write(body)
	}))
	defer relay.Close()

	r := &Resolver{RelayBaseURL: relay.URL}
	got, err := r.Resolve(context.Background(), Reference{URL: target}, "portrait-elora")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !bytes.Equal(got, body) {
		t.Fatalf("bytes do not match relay response: %q", got)
	}
	if calls != 1 {
		t.Fatalf("expected exactly one relay request, got %d", calls)
	}
}

func TestResolveRemoteUpstreamFailure(t *testing.T) {
	relay := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		http.Error(w, "upstream returned status 404", http.StatusBadGateway)
	}))
	defer relay.Close()

	r := &Resolver{RelayBaseURL: relay.URL}
	_, err := r.Resolve(context.Background(), Reference{URL: "https://images.example.com/nope.png"}, "")

	var upErr *UpstreamError
	if !errors.As(err, &upErr) {
		t.Fatalf("expected *UpstreamError, got %v", err)
	}
	if upErr.StatusCode != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", upErr.StatusCode)
	}
}

func TestResolveRelayUnreachable(t *testing.T) {
	r := &Resolver{RelayBaseURL: "http://127.0.0.1:1"}
	_, err := r.Resolve(context.Background(), Reference{URL: "https://images.example.com/a.png"}, "")
	if !errors.Is(err, ErrRelayUnreachable) {
		t.Fatalf("expected ErrRelayUnreachable, got %v", err)
	}
}

func TestRelayURL(t *testing.T) {
	got := RelayURL("http://localhost:8787/", "https://x.test/a b.png", "f.png")
	if !strings.HasPrefix(got, "http://localhost:8787/relay?") {
		t.Fatalf("unexpected relay url: %s", got)
	}
	if strings.Contains(got, " ") {
		t.Fatalf("relay url not encoded: %s", got)
	}
}
