package connector

import (
	"context"
	"fmt"
)

// SourceSerper is the Serper.dev web search API.
const SourceSerper = "serper"

// Serper fetches organic search results for a text query. Payloads keep the
// API's shape untouched; the organic result list lives under "organic".
type Serper struct {
	base
	cfg     SourceConfig
	apiKey  string
	fetcher *httpFetcher
}

func NewSerper(cfg SourceConfig, deps Deps) (Connector, error) {
	key, err := requireAPIKey(cfg)
	if err != nil {
		return nil, err
	}
	return &Serper{
		base:    base{source: SourceSerper, deps: deps},
		cfg:     cfg,
		apiKey:  key,
		fetcher: newHTTPFetcher(cfg),
	}, nil
}

func (s *Serper) Fetch(ctx context.Context, query string) (map[string]any, error) {
	if query == "" {
		return nil, &Error{Source: SourceSerper, Op: "fetch", Err: fmt.Errorf("query cannot be empty")}
	}

	body := map[string]any{"q": query}
	for key, value := range s.cfg.DefaultParams {
		body[key] = value
	}

	headers := map[string]string{"X-API-KEY": s.apiKey}

	var payload map[string]any
	if err := s.fetcher.postJSON(ctx, s.cfg.BaseURL, headers, body, &payload); err != nil {
		return nil, &Error{Source: SourceSerper, Op: "fetch", Err: err}
	}
	return payload, nil
}
