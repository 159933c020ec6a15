package extract

import (
	"regexp"
	"strings"
)

// postcodeInAddress finds a UK postcode anywhere in a formatted address.
var postcodeInAddress = regexp.MustCompile(`[A-Z]{1,2}[0-9][A-Z0-9]?\s*[0-9][A-Z]{2}`)

// GooglePlaces extracts place results from the Places text-search API.
type GooglePlaces struct {
	base
}

func NewGooglePlaces() *GooglePlaces {
	return &GooglePlaces{base: base{source: "google_places", containerKey: "places"}}
}

func (g *GooglePlaces) Extract(item map[string]any) (map[string]any, error) {
	record := map[string]any{
		"entity_class": "place",
	}

	putIfPresent(record, "entity_name", displayName(item))
	putIfPresent(record, "phone", getString(item, "internationalPhoneNumber"))
	putIfPresent(record, "website", getString(item, "websiteUri"))

	if address := getString(item, "formattedAddress"); address != "" {
		record["street_address"] = address
		if m := postcodeInAddress.FindString(strings.ToUpper(address)); m != "" {
			record["postcode"] = m
		}
	}

	if location := getMap(item, "location"); location != nil {
		if lat, ok := toFloat(location["latitude"]); ok {
			record["latitude"] = lat
		} else if lat, ok := toFloat(location["lat"]); ok {
			record["latitude"] = lat
		}
		if lng, ok := toFloat(location["longitude"]); ok {
			record["longitude"] = lng
		} else if lng, ok := toFloat(location["lng"]); ok {
			record["longitude"] = lng
		}
	}

	for _, key := range []string{"rating", "userRatingCount", "priceLevel", "types"} {
		if value, ok := item[key]; ok {
			record[snakeCase(key)] = value
		}
	}

	if id := getString(item, "id"); id != "" {
		record[externalIDsKey] = map[string]string{"google_places": id}
	}
	return record, nil
}

func (g *GooglePlaces) RichText(item map[string]any) []string {
	var texts []string
	if summary := getMap(item, "editorialSummary"); summary != nil {
		if text := getString(summary, "text"); text != "" {
			texts = append(texts, text)
		}
	}
	return texts
}

// displayName handles both the v1 API shape ({text, languageCode}) and the
// flattened string used by older captures.
func displayName(item map[string]any) string {
	if name := getMap(item, "displayName"); name != nil {
		return getString(name, "text")
	}
	return getString(item, "displayName")
}

var snakeCaseNames = map[string]string{
	"rating":          "rating",
	"userRatingCount": "user_rating_count",
	"priceLevel":      "price_level",
	"types":           "place_types",
}

func snakeCase(key string) string {
	if name, ok := snakeCaseNames[key]; ok {
		return name
	}
	return key
}
