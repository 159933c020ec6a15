package connector

import (
	"context"
	"fmt"
)

// SourceGooglePlaces is the Google Places text search API.
const SourceGooglePlaces = "google_places"

// defaultPlacesFieldMask limits the response to the attributes the extractor
// consumes.
const defaultPlacesFieldMask = "places.id,places.displayName,places.formattedAddress,places.location," +
	"places.types,places.rating,places.userRatingCount,places.websiteUri," +
	"places.internationalPhoneNumber,places.regularOpeningHours,places.priceLevel"

// GooglePlaces fetches place details for a text query. The place list lives
// under "places".
type GooglePlaces struct {
	base
	cfg     SourceConfig
	apiKey  string
	fetcher *httpFetcher
}

func NewGooglePlaces(cfg SourceConfig, deps Deps) (Connector, error) {
	key, err := requireAPIKey(cfg)
	if err != nil {
		return nil, err
	}
	return &GooglePlaces{
		base:    base{source: SourceGooglePlaces, deps: deps},
		cfg:     cfg,
		apiKey:  key,
		fetcher: newHTTPFetcher(cfg),
	}, nil
}

func (g *GooglePlaces) Fetch(ctx context.Context, query string) (map[string]any, error) {
	if query == "" {
		return nil, &Error{Source: SourceGooglePlaces, Op: "fetch", Err: fmt.Errorf("query cannot be empty")}
	}

	body := map[string]any{"textQuery": query}
	for key, value := range g.cfg.DefaultParams {
		body[key] = value
	}

	fieldMask := g.cfg.DefaultParams["field_mask"]
	if fieldMask == "" {
		fieldMask = defaultPlacesFieldMask
	}
	delete(body, "field_mask")

	headers := map[string]string{
		"X-Goog-Api-Key":   g.apiKey,
		"X-Goog-FieldMask": fieldMask,
	}

	var payload map[string]any
	if err := g.fetcher.postJSON(ctx, g.cfg.BaseURL, headers, body, &payload); err != nil {
		return nil, &Error{Source: SourceGooglePlaces, Op: "fetch", Err: err}
	}
	return payload, nil
}
