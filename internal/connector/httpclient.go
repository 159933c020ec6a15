package connector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

const (
	// DefaultUserAgent identifies the pipeline to upstream APIs.
	DefaultUserAgent = "edinburgh-finds/1.0"
	// MaxRetries for transient errors
	MaxRetries = 2
	// RetryBaseDelay is the initial backoff delay
	RetryBaseDelay = 1 * time.Second
)

// httpFetcher is the rate-limited HTTP layer shared by all connectors.
type httpFetcher struct {
	httpClient *http.Client
	userAgent  string
	limiter    *rate.Limiter
}

// FetchOption configures the HTTP layer of a connector.
type FetchOption func(*httpFetcher)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) FetchOption {
	return func(f *httpFetcher) {
		f.httpClient = client
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) FetchOption {
	return func(f *httpFetcher) {
		f.userAgent = ua
	}
}

func newHTTPFetcher(cfg SourceConfig, opts ...FetchOption) *httpFetcher {
	f := &httpFetcher{
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		},
		userAgent: DefaultUserAgent,
		limiter:   rate.NewLimiter(rate.Limit(cfg.RateLimitPerSecond), 1),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// getJSON executes a rate-limited GET with exponential backoff retry and
// decodes the JSON response into result.
func (f *httpFetcher) getJSON(ctx context.Context, requestURL string, headers map[string]string, result any) error {
	return f.doWithRetry(ctx, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
		if err != nil {
			return nil, err
		}
		for key, value := range headers {
			req.Header.Set(key, value)
		}
		return req, nil
	}, result)
}

// postJSON executes a rate-limited POST with a JSON body, with the same retry
// behaviour as getJSON.
func (f *httpFetcher) postJSON(ctx context.Context, requestURL string, headers map[string]string, body, result any) error {
	encoded, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request body: %w", err)
	}
	return f.doWithRetry(ctx, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, requestURL, bytes.NewReader(encoded))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		for key, value := range headers {
			req.Header.Set(key, value)
		}
		return req, nil
	}, result)
}

func (f *httpFetcher) doWithRetry(ctx context.Context, build func() (*http.Request, error), result any) error {
	var lastErr error

	for attempt := 0; attempt <= MaxRetries; attempt++ {
		if attempt > 0 {
			// Exponential backoff: 1s, 2s, 4s, ...
			delay := RetryBaseDelay * time.Duration(1<<uint(attempt-1))
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		if err := f.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}

		req, err := build()
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("User-Agent", f.userAgent)

		resp, err := f.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("http request: %w", err)
			continue // Retry on network errors
		}

		body, err := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("read response: %w", err)
			continue // Retry on read errors
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			lastErr = fmt.Errorf("rate limited (429)")
			continue // Retry rate limits
		}
		if resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("server error (%d)", resp.StatusCode)
			continue // Retry server errors
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, string(body))
		}

		if err := json.Unmarshal(body, result); err != nil {
			return fmt.Errorf("parse json: %w", err)
		}
		return nil
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}
