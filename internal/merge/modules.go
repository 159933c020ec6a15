package merge

import (
	"sort"
	"strings"
)

// deepMerge recursively merges the module payloads in present. Objects merge
// on the sorted union of their keys, single-primitive-type scalar arrays
// concat/dedup/sort, and everything else resolves to the trust-cascade
// winner. Module scalar arrays only trim strings; they never lowercase —
// that behaviour belongs to the canonical dimension arrays alone.
func (m *FieldMerger) deepMerge(present []FieldValue) any {
	if len(present) == 0 {
		return nil
	}
	if len(present) == 1 {
		return present[0].Value
	}

	if allMaps(present) {
		return m.deepMergeObjects(present)
	}
	if allArrays(present) {
		return m.deepMergeArrays(present)
	}
	return m.sortByTrust(present)[0].Value
}

func (m *FieldMerger) deepMergeObjects(present []FieldValue) map[string]any {
	keySet := make(map[string]struct{})
	for _, fv := range present {
		for key := range fv.Value.(map[string]any) {
			keySet[key] = struct{}{}
		}
	}
	keys := make([]string, 0, len(keySet))
	for key := range keySet {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	merged := make(map[string]any, len(keys))
	for _, key := range keys {
		var contributions []FieldValue
		for _, fv := range present {
			obj := fv.Value.(map[string]any)
			value, ok := obj[key]
			if !ok || IsMissing(value) {
				continue
			}
			contributions = append(contributions, FieldValue{
				Value:      value,
				Source:     fv.Source,
				Confidence: fv.Confidence,
			})
		}
		if len(contributions) == 0 {
			continue
		}
		merged[key] = m.deepMerge(contributions)
	}
	return merged
}

func (m *FieldMerger) deepMergeArrays(present []FieldValue) any {
	var all []any
	for _, fv := range present {
		all = append(all, anyElements(fv.Value)...)
	}

	// Object arrays are taken wholesale from the winner; element identity
	// across sources is undefined for them.
	for _, element := range all {
		if _, ok := element.(map[string]any); ok {
			return m.sortByTrust(present)[0].Value
		}
	}

	if typ, uniform := uniformPrimitiveType(all); uniform {
		switch typ {
		case "string":
			return mergeStringElements(all)
		case "number":
			return mergeNumberElements(all)
		case "bool":
			return mergeBoolElements(all)
		}
	}
	return m.sortByTrust(present)[0].Value
}

func allArrays(values []FieldValue) bool {
	for _, fv := range values {
		switch fv.Value.(type) {
		case []any, []string:
		default:
			return false
		}
	}
	return len(values) > 0
}

func anyElements(value any) []any {
	switch v := value.(type) {
	case []any:
		return v
	case []string:
		elements := make([]any, len(v))
		for i, s := range v {
			elements[i] = s
		}
		return elements
	default:
		return nil
	}
}

// uniformPrimitiveType reports whether every element shares one primitive
// type. Empty input is uniform (empty arrays yield an empty merge).
func uniformPrimitiveType(elements []any) (string, bool) {
	typ := ""
	for _, element := range elements {
		var current string
		switch element.(type) {
		case string:
			current = "string"
		case float64, int, int64:
			current = "number"
		case bool:
			current = "bool"
		default:
			return "", false
		}
		if typ == "" {
			typ = current
			continue
		}
		if typ != current {
			return "", false
		}
	}
	return typ, true
}

func mergeStringElements(elements []any) []any {
	seen := make(map[string]struct{})
	for _, element := range elements {
		trimmed := strings.TrimSpace(element.(string))
		if trimmed == "" {
			continue
		}
		seen[trimmed] = struct{}{}
	}
	sorted := make([]string, 0, len(seen))
	for s := range seen {
		sorted = append(sorted, s)
	}
	sort.Strings(sorted)

	merged := make([]any, len(sorted))
	for i, s := range sorted {
		merged[i] = s
	}
	return merged
}

func mergeNumberElements(elements []any) []any {
	seen := make(map[float64]struct{})
	for _, element := range elements {
		switch n := element.(type) {
		case float64:
			seen[n] = struct{}{}
		case int:
			seen[float64(n)] = struct{}{}
		case int64:
			seen[float64(n)] = struct{}{}
		}
	}
	sorted := make([]float64, 0, len(seen))
	for n := range seen {
		sorted = append(sorted, n)
	}
	sort.Float64s(sorted)

	merged := make([]any, len(sorted))
	for i, n := range sorted {
		merged[i] = n
	}
	return merged
}

func mergeBoolElements(elements []any) []any {
	var hasFalse, hasTrue bool
	for _, element := range elements {
		if element.(bool) {
			hasTrue = true
		} else {
			hasFalse = true
		}
	}
	var merged []any
	if hasFalse {
		merged = append(merged, false)
	}
	if hasTrue {
		merged = append(merged, true)
	}
	return merged
}
