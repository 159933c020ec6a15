package connector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// SourceNCR is the National Chargepoint Registry, published as versioned
// full-registry release artifacts.
const SourceNCR = "ncr"

// NCR downloads registry releases. Releases are large and change rarely, so
// downloads are cached on disk keyed by release identifier and revalidated
// with ETags; a 304 serves the cached artifact without re-downloading.
type NCR struct {
	base
	cfg     SourceConfig
	fetcher *httpFetcher
}

func NewNCR(cfg SourceConfig, deps Deps) (Connector, error) {
	if _, err := requireAPIKey(cfg); err != nil {
		return nil, err
	}
	if cfg.CacheDir == "" {
		return nil, fmt.Errorf("source %s: cache_dir is required", cfg.Name)
	}
	return &NCR{
		base:    base{source: SourceNCR, deps: deps},
		cfg:     cfg,
		fetcher: newHTTPFetcher(cfg),
	}, nil
}

// Fetch retrieves the release named by query, or the latest release when
// query is empty.
func (n *NCR) Fetch(ctx context.Context, query string) (map[string]any, error) {
	releaseID := strings.TrimSpace(query)
	if releaseID == "" {
		releaseID = "latest"
	}

	payload, err := n.fetchRelease(ctx, releaseID)
	if err != nil {
		return nil, &Error{Source: SourceNCR, Op: "fetch", Err: err}
	}
	return payload, nil
}

func (n *NCR) fetchRelease(ctx context.Context, releaseID string) (map[string]any, error) {
	cachePath := filepath.Join(n.cfg.CacheDir, releaseID+".json")
	etagPath := cachePath + ".etag"

	requestURL := n.cfg.BaseURL
	params := url.Values{}
	for key, value := range n.cfg.DefaultParams {
		params.Set(key, value)
	}
	if releaseID != "latest" {
		params.Set("release", releaseID)
	}
	if encoded := params.Encode(); encoded != "" {
		requestURL = fmt.Sprintf("%s?%s", requestURL, encoded)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", n.fetcher.userAgent)
	if etag, err := os.ReadFile(etagPath); err == nil {
		req.Header.Set("If-None-Match", strings.TrimSpace(string(etag)))
	}

	if err := n.fetcher.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	resp, err := n.fetcher.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusNotModified:
		return n.loadCached(cachePath)
	case http.StatusOK:
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("read response: %w", err)
		}
		if err := n.writeCache(cachePath, etagPath, body, resp.Header.Get("ETag")); err != nil {
			return nil, err
		}
		var payload map[string]any
		if err := json.Unmarshal(body, &payload); err != nil {
			return nil, fmt.Errorf("parse json: %w", err)
		}
		return payload, nil
	default:
		return nil, fmt.Errorf("unexpected status code %d", resp.StatusCode)
	}
}

func (n *NCR) loadCached(cachePath string) (map[string]any, error) {
	data, err := os.ReadFile(cachePath)
	if err != nil {
		return nil, fmt.Errorf("release not modified but cache missing: %w", err)
	}
	var payload map[string]any
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("parse cached release: %w", err)
	}
	return payload, nil
}

func (n *NCR) writeCache(cachePath, etagPath string, body []byte, etag string) error {
	if err := os.MkdirAll(filepath.Dir(cachePath), 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	if err := os.WriteFile(cachePath, body, 0o644); err != nil {
		return fmt.Errorf("write cache: %w", err)
	}
	if etag != "" {
		if err := os.WriteFile(etagPath, []byte(etag), 0o644); err != nil {
			return fmt.Errorf("write etag: %w", err)
		}
	}
	return nil
}
