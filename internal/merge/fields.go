// Package merge resolves per-field values across sources using the trust
// hierarchy, with a strategy per field group and deterministic tie-breaks.
package merge

import (
	"reflect"
	"sort"
	"strings"

	"github.com/LarjGit/edinburgh-finds-sub001/internal/trust"
)

// MergedSource tags resolutions where every contributing source is a
// co-author rather than a single winner (canonical arrays, modules).
const MergedSource = "merged"

// FieldValue is one source's contribution to a field.
type FieldValue struct {
	Value      any
	Source     string
	Confidence float64
}

// Resolved is the outcome of merging one field, with provenance.
type Resolved struct {
	Value      any
	Source     string
	Confidence float64
	AllSources []string
}

// canonicalArrayFields are opaque dimension tags: union, lowercase, dedup,
// sort. No single winner.
var canonicalArrayFields = map[string]struct{}{
	"canonical_activities":  {},
	"canonical_roles":       {},
	"canonical_place_types": {},
	"canonical_access":      {},
}

var geoFields = map[string]struct{}{
	"latitude":  {},
	"longitude": {},
}

// narrativeFields prefer richer content over trust for free text.
var narrativeFields = map[string]struct{}{
	"summary":     {},
	"description": {},
}

// FieldMerger resolves a single field across sources.
type FieldMerger struct {
	trust *trust.Hierarchy
}

func NewFieldMerger(h *trust.Hierarchy) *FieldMerger {
	return &FieldMerger{trust: h}
}

// Merge resolves fieldName across the given contributions. It returns false
// when no contribution survives the missingness filter.
func (m *FieldMerger) Merge(fieldName string, values []FieldValue) (Resolved, bool) {
	if _, ok := canonicalArrayFields[fieldName]; ok {
		return m.mergeCanonicalArray(values)
	}
	if fieldName == "modules" {
		return m.mergeModules(values)
	}

	present := filterMissing(values)
	if len(present) == 0 {
		return Resolved{}, false
	}

	// Discovered attributes route nested objects through the module deep
	// merge; everything else is winner-take-all.
	if allMaps(present) && len(present) > 1 {
		return m.mergeModules(values)
	}

	if _, ok := narrativeFields[fieldName]; ok {
		return m.resolveNarrative(present), true
	}
	// Geo fields share the default cascade; the set exists so routing is
	// explicit per field group.
	if _, ok := geoFields[fieldName]; ok {
		return m.resolveDefault(present), true
	}
	return m.resolveDefault(present), true
}

// resolveDefault picks a winner by trust desc, confidence desc, source asc.
func (m *FieldMerger) resolveDefault(present []FieldValue) Resolved {
	sorted := m.sortByTrust(present)
	winner := sorted[0]
	return Resolved{
		Value:      winner.Value,
		Source:     winner.Source,
		Confidence: winner.Confidence,
		AllSources: sourceNames(present),
	}
}

// resolveNarrative picks a winner by text length desc, then the default
// cascade. Longer free text carries more information than a trusted stub.
func (m *FieldMerger) resolveNarrative(present []FieldValue) Resolved {
	sorted := make([]FieldValue, len(present))
	copy(sorted, present)
	sort.SliceStable(sorted, func(i, j int) bool {
		li, lj := textLength(sorted[i].Value), textLength(sorted[j].Value)
		if li != lj {
			return li > lj
		}
		return m.lessByTrust(sorted[i], sorted[j])
	})
	winner := sorted[0]
	return Resolved{
		Value:      winner.Value,
		Source:     winner.Source,
		Confidence: winner.Confidence,
		AllSources: sourceNames(present),
	}
}

// mergeCanonicalArray unions all non-missing elements, trims and lowercases
// them, dedupes, and sorts. All contributors are co-authors.
func (m *FieldMerger) mergeCanonicalArray(values []FieldValue) (Resolved, bool) {
	seen := make(map[string]struct{})
	var contributors []string
	for _, fv := range values {
		elements := stringElements(fv.Value)
		if len(elements) == 0 && IsMissing(fv.Value) {
			continue
		}
		contributors = append(contributors, fv.Source)
		for _, element := range elements {
			normalized := strings.ToLower(strings.TrimSpace(element))
			if normalized == "" {
				continue
			}
			if _, sentinel := placeholderSentinels[strings.TrimSpace(element)]; sentinel {
				continue
			}
			seen[normalized] = struct{}{}
		}
	}
	if len(contributors) == 0 {
		return Resolved{}, false
	}

	merged := make([]string, 0, len(seen))
	for element := range seen {
		merged = append(merged, element)
	}
	sort.Strings(merged)

	return Resolved{
		Value:      merged,
		Source:     MergedSource,
		Confidence: 1.0,
		AllSources: dedupeSources(contributors),
	}, true
}

func (m *FieldMerger) mergeModules(values []FieldValue) (Resolved, bool) {
	present := filterMissing(values)
	if len(present) == 0 {
		return Resolved{}, false
	}
	if len(present) == 1 {
		// Single contributor short-circuits to identity.
		return Resolved{
			Value:      present[0].Value,
			Source:     present[0].Source,
			Confidence: present[0].Confidence,
			AllSources: sourceNames(present),
		}, true
	}

	merged := m.deepMerge(present)
	return Resolved{
		Value:      merged,
		Source:     MergedSource,
		Confidence: 1.0,
		AllSources: sourceNames(present),
	}, true
}

// sortByTrust orders contributions by trust desc, confidence desc, source asc.
func (m *FieldMerger) sortByTrust(values []FieldValue) []FieldValue {
	sorted := make([]FieldValue, len(values))
	copy(sorted, values)
	sort.SliceStable(sorted, func(i, j int) bool {
		return m.lessByTrust(sorted[i], sorted[j])
	})
	return sorted
}

func (m *FieldMerger) lessByTrust(a, b FieldValue) bool {
	ta, tb := m.trust.Trust(a.Source), m.trust.Trust(b.Source)
	if ta != tb {
		return ta > tb
	}
	if a.Confidence != b.Confidence {
		return a.Confidence > b.Confidence
	}
	return a.Source < b.Source
}

func filterMissing(values []FieldValue) []FieldValue {
	present := make([]FieldValue, 0, len(values))
	for _, fv := range values {
		if !IsMissing(fv.Value) {
			present = append(present, fv)
		}
	}
	return present
}

func allMaps(values []FieldValue) bool {
	for _, fv := range values {
		if _, ok := fv.Value.(map[string]any); !ok {
			return false
		}
	}
	return len(values) > 0
}

func sourceNames(values []FieldValue) []string {
	names := make([]string, 0, len(values))
	for _, fv := range values {
		names = append(names, fv.Source)
	}
	return dedupeSources(names)
}

func dedupeSources(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	deduped := make([]string, 0, len(names))
	for _, name := range names {
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		deduped = append(deduped, name)
	}
	sort.Strings(deduped)
	return deduped
}

func stringElements(value any) []string {
	switch v := value.(type) {
	case []string:
		return v
	case []any:
		elements := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				elements = append(elements, s)
			}
		}
		return elements
	default:
		return nil
	}
}

func textLength(value any) int {
	if s, ok := value.(string); ok {
		return len(s)
	}
	return 0
}

func valuesEqual(a, b any) bool {
	return reflect.DeepEqual(a, b)
}
