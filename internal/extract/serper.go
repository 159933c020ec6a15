package extract

// Serper extracts organic web-search results. Search results carry weak
// identity signals only, so most output lands in discovered_attributes.
type Serper struct {
	base
}

func NewSerper() *Serper {
	return &Serper{base: base{source: "serper", containerKey: "organic"}}
}

func (s *Serper) Extract(item map[string]any) (map[string]any, error) {
	record := map[string]any{
		"entity_class": "place",
	}
	putIfPresent(record, "entity_name", getString(item, "title"))
	putIfPresent(record, "website", getString(item, "link"))

	if snippet := getString(item, "snippet"); snippet != "" {
		record["search_snippet"] = snippet
	}
	if position, ok := item["position"]; ok {
		record["search_position"] = position
	}
	if link := getString(item, "link"); link != "" {
		record[externalIDsKey] = map[string]string{"serper_url": link}
	}
	return record, nil
}

func (s *Serper) RichText(item map[string]any) []string {
	var texts []string
	if snippet := getString(item, "snippet"); snippet != "" {
		texts = append(texts, snippet)
	}
	return texts
}
