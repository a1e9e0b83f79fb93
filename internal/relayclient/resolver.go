package relayclient

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/kayz/tokenbrush/internal/logger"
)

// Resolver turns an image Reference into raw bytes. Inline references are
// decoded locally; remote references go through the configured relay so a
// browser-hosted caller never hits a cross-origin URL directly.
type Resolver struct {
	// RelayBaseURL is the relay endpoint base, e.g. "http://localhost:8787".
	// Empty means remote URLs are fetched directly.
	RelayBaseURL string

	// HTTPClient defaults to a client with a 60s timeout.
	HTTPClient *http.Client
}

var (
	// ErrBadReference means the reference carries neither inline data nor a
	// usable URL.
	ErrBadReference = errors.New("asset reference is neither inline data nor a url")

	// ErrRelayUnreachable means the relay (or direct fetch) could not be
	// reached at the transport level.
	ErrRelayUnreachable = errors.New("image relay unreachable")
)

// UpstreamError means the relay answered but the upstream fetch failed.
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("image relay returned status %d: %s", e.StatusCode, e.Body)
}

// Resolve fetches the bytes behind ref. Inline data involves no network
// call. There are no retries; the caller surfaces failures to the user.
func (r *Resolver) Resolve(ctx context.Context, ref Reference, filename string) ([]byte, error) {
	if ref.IsInline() {
		data, err := base64.StdEncoding.DecodeString(ref.B64)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid base64 payload: %v", ErrBadReference, err)
		}
		return data, nil
	}
	if !ref.IsRemote() {
		return nil, ErrBadReference
	}

	fetchURL := ref.URL
	if r.RelayBaseURL != "" {
		fetchURL = RelayURL(r.RelayBaseURL, ref.URL, filename)
		logger.Debugf("fetching image via relay: %s", r.RelayBaseURL)
	} else {
		logger.Debugf("fetching image directly: %s", ref.URL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fetchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadReference, err)
	}

	resp, err := r.httpClient().Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRelayUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &UpstreamError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
		}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %v", ErrRelayUnreachable, err)
	}
	return data, nil
}

// RelayURL builds the relay fetch URL for a target resource. The target is
// base64url-encoded so query characters in it survive the hop.
func RelayURL(baseURL, target, filename string) string {
	q := url.Values{}
	q.Set("u", base64.URLEncoding.EncodeToString([]byte(target)))
	if filename != "" {
		q.Set("f", filename)
	}
	return strings.TrimRight(baseURL, "/") + "/relay?" + q.Encode()
}

func (r *Resolver) httpClient() *http.Client {
	if r.HTTPClient != nil {
		return r.HTTPClient
	}
	return &http.Client{Timeout: 60 * time.Second}
}
