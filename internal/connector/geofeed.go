package connector

import (
	"context"
	"fmt"
	"net/url"
)

// SourceGeoFeed covers open GeoJSON feeds (OSM Overpass exports, council WFS
// and ArcGIS endpoints). The feature list lives under "features".
const SourceGeoFeed = "geofeed"

// GeoFeed fetches a GeoJSON FeatureCollection. The query selects a named
// layer or type filter; default_params carry endpoint-specific parameters
// such as the bounding box or output format.
type GeoFeed struct {
	base
	cfg     SourceConfig
	fetcher *httpFetcher
}

func NewGeoFeed(cfg SourceConfig, deps Deps) (Connector, error) {
	if _, err := requireAPIKey(cfg); err != nil {
		return nil, err
	}
	return &GeoFeed{
		base:    base{source: SourceGeoFeed, deps: deps},
		cfg:     cfg,
		fetcher: newHTTPFetcher(cfg),
	}, nil
}

func (g *GeoFeed) Fetch(ctx context.Context, query string) (map[string]any, error) {
	params := url.Values{}
	for key, value := range g.cfg.DefaultParams {
		params.Set(key, value)
	}
	if query != "" {
		params.Set("typeName", query)
	}

	requestURL := g.cfg.BaseURL
	if encoded := params.Encode(); encoded != "" {
		requestURL = fmt.Sprintf("%s?%s", requestURL, encoded)
	}

	var payload map[string]any
	if err := g.fetcher.getJSON(ctx, requestURL, nil, &payload); err != nil {
		return nil, &Error{Source: SourceGeoFeed, Op: "fetch", Err: err}
	}

	if _, ok := payload["features"]; !ok {
		return nil, &Error{Source: SourceGeoFeed, Op: "fetch", Err: fmt.Errorf("response is not a FeatureCollection")}
	}
	return payload, nil
}
