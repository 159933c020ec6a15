// Package extract turns raw connector payloads into normalized records.
//
// Extractors own the boundary between source-native data and the schema:
// their output carries schema primitives plus source observations, never
// interpreted domain fields such as canonical dimension arrays or modules.
package extract

import (
	"sort"
	"strings"
)

// schemaPrimitives are the attribute keys the schema defines. Everything
// else an extractor emits lands in discovered_attributes.
var schemaPrimitives = map[string]bool{
	"entity_name":    true,
	"entity_class":   true,
	"summary":        true,
	"description":    true,
	"latitude":       true,
	"longitude":      true,
	"street_address": true,
	"city":           true,
	"postcode":       true,
	"country":        true,
	"phone":          true,
	"email":          true,
	"website":        true,
}

// externalIDsKey carries source-assigned identifiers through Extract output;
// the runner pops it before splitting.
const externalIDsKey = "external_ids"

// Extractor transforms one source's raw items into normalized records.
type Extractor interface {
	SourceName() string
	// Items selects the entity-bearing items from a raw payload.
	Items(payload map[string]any) []map[string]any
	// Extract maps one raw item to a record of schema primitives plus
	// source-native observation keys.
	Extract(item map[string]any) (map[string]any, error)
	// Validate enforces required fields and normalizes formats.
	Validate(record map[string]any) (map[string]any, error)
	// SplitAttributes partitions a record into schema attributes and
	// discovered attributes. The union equals the input.
	SplitAttributes(record map[string]any) (attributes, discovered map[string]any)
	// RichText collects human-readable free text from a raw item for
	// downstream synthesis. Default empty.
	RichText(item map[string]any) []string
	// ModelUsed names the LLM behind a non-deterministic extractor, empty
	// for pure transformations.
	ModelUsed() string
}

// base provides the shared half of the Extractor interface. Concrete
// extractors embed it and implement Extract (plus RichText where the source
// carries free text).
type base struct {
	source       string
	containerKey string
}

func (b *base) SourceName() string { return b.source }

// Items returns the list under the source's container key, or the payload
// itself as a single item when no container key is configured.
func (b *base) Items(payload map[string]any) []map[string]any {
	if b.containerKey == "" {
		return []map[string]any{payload}
	}
	raw, ok := payload[b.containerKey].([]any)
	if !ok {
		return nil
	}
	items := make([]map[string]any, 0, len(raw))
	for _, entry := range raw {
		if item, ok := entry.(map[string]any); ok {
			items = append(items, item)
		}
	}
	return items
}

func (b *base) Validate(record map[string]any) (map[string]any, error) {
	return validateRecord(record)
}

func (b *base) SplitAttributes(record map[string]any) (map[string]any, map[string]any) {
	attributes := make(map[string]any)
	discovered := make(map[string]any)
	for key, value := range record {
		if schemaPrimitives[key] {
			attributes[key] = value
		} else {
			discovered[key] = value
		}
	}
	return attributes, discovered
}

func (b *base) RichText(item map[string]any) []string { return nil }

func (b *base) ModelUsed() string { return "" }

// Registry maps source names to extractors.
type Registry struct {
	extractors map[string]Extractor
}

func NewRegistry(extractors ...Extractor) *Registry {
	r := &Registry{extractors: make(map[string]Extractor)}
	for _, e := range extractors {
		r.extractors[e.SourceName()] = e
	}
	return r
}

func (r *Registry) Get(source string) (Extractor, bool) {
	e, ok := r.extractors[source]
	return e, ok
}

func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.extractors))
	for name := range r.extractors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultRegistry returns a Registry with every built-in extractor.
func DefaultRegistry() *Registry {
	return NewRegistry(
		NewSerper(),
		NewGooglePlaces(),
		NewGeoFeed(),
		NewNCR(),
		NewOpenChargeMap(),
	)
}

// getString returns the trimmed string at key, or "".
func getString(item map[string]any, key string) string {
	if s, ok := item[key].(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}

// getMap returns the nested object at key, or nil.
func getMap(item map[string]any, key string) map[string]any {
	m, _ := item[key].(map[string]any)
	return m
}

// putIfPresent sets record[key] when value is a non-empty string.
func putIfPresent(record map[string]any, key, value string) {
	if value != "" {
		record[key] = value
	}
}
