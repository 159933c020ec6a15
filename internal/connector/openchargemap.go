package connector

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// SourceOpenChargeMap is the Open Charge Map POI API.
const SourceOpenChargeMap = "openchargemap"

// OpenChargeMap fetches charging locations around a coordinate. The query is
// "lat,lng"; the POI list is wrapped under "results" so payloads stay
// object-shaped like every other source.
type OpenChargeMap struct {
	base
	cfg     SourceConfig
	apiKey  string
	fetcher *httpFetcher
}

func NewOpenChargeMap(cfg SourceConfig, deps Deps) (Connector, error) {
	key, err := requireAPIKey(cfg)
	if err != nil {
		return nil, err
	}
	return &OpenChargeMap{
		base:    base{source: SourceOpenChargeMap, deps: deps},
		cfg:     cfg,
		apiKey:  key,
		fetcher: newHTTPFetcher(cfg),
	}, nil
}

func (o *OpenChargeMap) Fetch(ctx context.Context, query string) (map[string]any, error) {
	lat, lng, err := parseLatLng(query)
	if err != nil {
		return nil, &Error{Source: SourceOpenChargeMap, Op: "fetch", Err: err}
	}

	params := url.Values{}
	for key, value := range o.cfg.DefaultParams {
		params.Set(key, value)
	}
	params.Set("latitude", strconv.FormatFloat(lat, 'f', 6, 64))
	params.Set("longitude", strconv.FormatFloat(lng, 'f', 6, 64))
	params.Set("output", "json")
	if o.apiKey != "" {
		params.Set("key", o.apiKey)
	}

	requestURL := fmt.Sprintf("%s?%s", o.cfg.BaseURL, params.Encode())

	// The API returns a bare JSON array.
	var results []any
	if err := o.fetcher.getJSON(ctx, requestURL, nil, &results); err != nil {
		return nil, &Error{Source: SourceOpenChargeMap, Op: "fetch", Err: err}
	}

	return map[string]any{
		"query_location": map[string]any{"latitude": lat, "longitude": lng},
		"results":        results,
	}, nil
}

// parseLatLng parses a "lat,lng" query and validates the coordinate ranges.
func parseLatLng(query string) (float64, float64, error) {
	parts := strings.SplitN(query, ",", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("query must be \"lat,lng\", got %q", query)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid latitude %q", parts[0])
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid longitude %q", parts[1])
	}
	if lat < -90 || lat > 90 {
		return 0, 0, fmt.Errorf("latitude %g out of range", lat)
	}
	if lng < -180 || lng > 180 {
		return 0, 0, fmt.Errorf("longitude %g out of range", lng)
	}
	return lat, lng, nil
}
