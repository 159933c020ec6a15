package extract

import (
	"fmt"
)

// OpenChargeMap extracts charging locations from Open Charge Map POI
// results.
type OpenChargeMap struct {
	base
}

func NewOpenChargeMap() *OpenChargeMap {
	return &OpenChargeMap{base: base{source: "openchargemap", containerKey: "results"}}
}

func (o *OpenChargeMap) Extract(item map[string]any) (map[string]any, error) {
	record := map[string]any{
		"entity_class": "charging_station",
	}

	if address := getMap(item, "AddressInfo"); address != nil {
		putIfPresent(record, "entity_name", getString(address, "Title"))
		putIfPresent(record, "street_address", getString(address, "AddressLine1"))
		putIfPresent(record, "city", getString(address, "Town"))
		putIfPresent(record, "postcode", getString(address, "Postcode"))
		putIfPresent(record, "phone", getString(address, "ContactTelephone1"))
		putIfPresent(record, "website", getString(address, "RelatedURL"))
		if lat, ok := toFloat(address["Latitude"]); ok {
			record["latitude"] = lat
		}
		if lng, ok := toFloat(address["Longitude"]); ok {
			record["longitude"] = lng
		}
	}

	for _, key := range []string{"NumberOfPoints", "Connections", "UsageCost", "StatusType"} {
		if value, ok := item[key]; ok {
			record[key] = value
		}
	}

	if id, ok := item["ID"]; ok {
		record[externalIDsKey] = map[string]string{"openchargemap": fmt.Sprintf("%v", id)}
	}
	return record, nil
}
