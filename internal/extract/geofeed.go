package extract

import (
	"fmt"
)

// GeoFeed extracts GeoJSON Features from OSM and council WFS/ArcGIS feeds.
type GeoFeed struct {
	base
}

func NewGeoFeed() *GeoFeed {
	return &GeoFeed{base: base{source: "geofeed", containerKey: "features"}}
}

func (g *GeoFeed) Extract(item map[string]any) (map[string]any, error) {
	properties := getMap(item, "properties")
	if properties == nil {
		return nil, fmt.Errorf("feature has no properties")
	}

	record := map[string]any{
		"entity_class": "place",
	}
	putIfPresent(record, "entity_name", firstString(properties, "name", "NAME", "site_name"))
	putIfPresent(record, "website", firstString(properties, "website", "contact:website"))
	putIfPresent(record, "phone", firstString(properties, "phone", "contact:phone"))
	putIfPresent(record, "street_address", firstString(properties, "addr:street", "address"))
	putIfPresent(record, "postcode", firstString(properties, "addr:postcode", "postcode"))
	putIfPresent(record, "city", firstString(properties, "addr:city"))

	if lat, lng, ok := pointCoordinates(getMap(item, "geometry")); ok {
		record["latitude"] = lat
		record["longitude"] = lng
	}

	// Everything else stays observable under the feed's own key names.
	for key, value := range properties {
		if _, taken := record[key]; !taken && !knownPropertyKey(key) {
			record[key] = value
		}
	}

	if id := featureID(item, properties); id != "" {
		record[externalIDsKey] = map[string]string{"osm": id}
	}
	return record, nil
}

// pointCoordinates reads a GeoJSON Point geometry. GeoJSON order is
// [longitude, latitude].
func pointCoordinates(geometry map[string]any) (float64, float64, bool) {
	if geometry == nil || getString(geometry, "type") != "Point" {
		return 0, 0, false
	}
	coords, ok := geometry["coordinates"].([]any)
	if !ok || len(coords) < 2 {
		return 0, 0, false
	}
	lng, okLng := toFloat(coords[0])
	lat, okLat := toFloat(coords[1])
	if !okLng || !okLat {
		return 0, 0, false
	}
	return lat, lng, true
}

func featureID(item, properties map[string]any) string {
	if id := getString(item, "id"); id != "" {
		return id
	}
	if id, ok := properties["@id"].(string); ok {
		return id
	}
	if id, ok := properties["osm_id"]; ok {
		return fmt.Sprintf("%v", id)
	}
	return ""
}

func firstString(item map[string]any, keys ...string) string {
	for _, key := range keys {
		if value := getString(item, key); value != "" {
			return value
		}
	}
	return ""
}

var consumedPropertyKeys = map[string]bool{
	"name":            true,
	"NAME":            true,
	"site_name":       true,
	"website":         true,
	"contact:website": true,
	"phone":           true,
	"contact:phone":   true,
	"addr:street":     true,
	"address":         true,
	"addr:postcode":   true,
	"postcode":        true,
	"addr:city":       true,
	"@id":             true,
	"osm_id":          true,
}

func knownPropertyKey(key string) bool { return consumedPropertyKeys[key] }
