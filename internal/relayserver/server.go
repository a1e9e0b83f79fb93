package relayserver

import (
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/kayz/tokenbrush/internal/logger"
	"github.com/kayz/tokenbrush/internal/security"
)

// Server is a same-origin image relay. It fetches a cross-origin image
// server-side and streams the bytes back with a permissive CORS header so a
// browser-hosted caller can read them. It is not a general-purpose proxy:
// only GET, only http(s), SSRF-validated targets, capped response size.
type Server struct {
	client   *http.Client
	cache    *gocache.Cache
	maxBytes int64

	// validate guards upstream targets; overridable in tests
	validate func(string) error
}

const (
	defaultUpstreamTimeout = 30 * time.Second
	defaultCacheTTL        = 2 * time.Minute
	defaultMaxBytes        = 32 << 20
)

type cachedAsset struct {
	body        []byte
	contentType string
}

// New creates a relay Server
func New() *Server {
	return &Server{
		client:   &http.Client{Timeout: defaultUpstreamTimeout},
		cache:    gocache.New(defaultCacheTTL, 5*time.Minute),
		maxBytes: defaultMaxBytes,
		validate: security.ValidateFetchURL,
	}
}

// Handler returns the relay's HTTP handler
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/relay", s.handleRelay)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	return mux
}

func (s *Server) handleRelay(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	target, err := decodeTarget(r.URL.Query().Get("u"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.validate(target); err != nil {
		logger.Warnf("relay refused target %q: %v", target, err)
		http.Error(w, err.Error(), http.StatusForbidden)
		return
	}

	filename := sanitizeFilename(r.URL.Query().Get("f"))

	if hit, ok := s.cache.Get(target); ok {
		asset := hit.(cachedAsset)
		s.writeAsset(w, asset, filename)
		return
	}

	resp, err := s.client.Get(target)
	if err != nil {
		logger.Errorf("relay upstream fetch failed: %v", err)
		http.Error(w, "upstream fetch failed", http.StatusBadGateway)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		http.Error(w, fmt.Sprintf("upstream returned status %d", resp.StatusCode), http.StatusBadGateway)
		return
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, s.maxBytes+1))
	if err != nil {
		http.Error(w, "upstream read failed", http.StatusBadGateway)
		return
	}
	if int64(len(body)) > s.maxBytes {
		http.Error(w, "upstream response too large", http.StatusBadGateway)
		return
	}

	asset := cachedAsset{
		body:        body,
		contentType: resp.Header.Get("Content-Type"),
	}
	s.cache.SetDefault(target, asset)

	logger.Debugf("relay fetched %d bytes from %s", len(body), target)
	s.writeAsset(w, asset, filename)
}

func (s *Server) writeAsset(w http.ResponseWriter, asset cachedAsset, filename string) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	contentType := asset.contentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	if filename != "" {
		w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", filename))
	}
	w.WriteHeader(http.StatusOK)
	w.Write(asset.body)
}

// decodeTarget accepts either a base64url-encoded target or, as a fallback,
// a plain URL.
func decodeTarget(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("missing target parameter u")
	}
	if decoded, err := base64.URLEncoding.DecodeString(raw); err == nil {
		return string(decoded), nil
	}
	if strings.Contains(raw, "://") {
		return raw, nil
	}
	return "", fmt.Errorf("target parameter u is neither base64url nor a url")
}

func sanitizeFilename(name string) string {
	name = strings.TrimSpace(name)
	name = strings.ReplaceAll(name, "/", "")
	name = strings.ReplaceAll(name, "\\", "")
	name = strings.ReplaceAll(name, "\"", "")
	return name
}
