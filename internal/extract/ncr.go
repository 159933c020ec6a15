package extract

// NCR extracts charge devices from National Chargepoint Registry releases.
type NCR struct {
	base
}

func NewNCR() *NCR {
	return &NCR{base: base{source: "ncr", containerKey: "ChargeDevices"}}
}

func (n *NCR) Extract(item map[string]any) (map[string]any, error) {
	record := map[string]any{
		"entity_class": "charging_station",
	}
	putIfPresent(record, "entity_name", getString(item, "ChargeDeviceName"))

	if location := getMap(item, "ChargeDeviceLocation"); location != nil {
		if lat, ok := parseFlexibleFloat(location["Latitude"]); ok {
			record["latitude"] = lat
		}
		if lng, ok := parseFlexibleFloat(location["Longitude"]); ok {
			record["longitude"] = lng
		}
		if address := getMap(location, "Address"); address != nil {
			putIfPresent(record, "street_address", getString(address, "Street"))
			putIfPresent(record, "city", firstString(address, "PostTown", "County"))
			putIfPresent(record, "postcode", getString(address, "PostCode"))
			putIfPresent(record, "country", getString(address, "Country"))
		}
	}

	for _, key := range []string{"DeviceController", "Connector", "RatedOutputkW", "ChargeDeviceStatus", "Accessible24Hours"} {
		if value, ok := item[key]; ok {
			record[key] = value
		}
	}

	if id := getString(item, "ChargeDeviceId"); id != "" {
		record[externalIDsKey] = map[string]string{"ncr": id}
	}
	return record, nil
}
