package merge

import (
	"sort"

	"github.com/LarjGit/edinburgh-finds-sub001/internal/trust"
)

// SourceRecord is one source's extracted view of an entity, fed to the
// entity merger.
type SourceRecord struct {
	RecordID    string
	Source      string
	EntityClass string
	Attributes  map[string]any
	Discovered  map[string]any
	ExternalIDs map[string]string
	Confidence  float64
}

// MergedEntity is the trust-resolved aggregate of all source records for one
// entity. SourceInfo and FieldConfidence are always non-nil, whatever the
// group size.
type MergedEntity struct {
	EntityClass     string
	Attributes      map[string]any
	Discovered      map[string]any
	ExternalIDs     map[string]string
	SourceInfo      map[string]string
	FieldConfidence map[string]float64
	Sources         []string
	SourceCount     int
	Conflicts       []Conflict
}

// EntityMerger aggregates per-entity records with provenance.
type EntityMerger struct {
	hierarchy *trust.Hierarchy
	fields    *FieldMerger
	conflicts *ConflictDetector
}

func NewEntityMerger(h *trust.Hierarchy, detector *ConflictDetector) *EntityMerger {
	return &EntityMerger{
		hierarchy: h,
		fields:    NewFieldMerger(h),
		conflicts: detector,
	}
}

// Merge resolves a group of source records into one merged entity. The input
// list is sorted deterministically before merging, so the output is identical
// under any permutation of records.
func (m *EntityMerger) Merge(records []SourceRecord) *MergedEntity {
	if len(records) == 0 {
		return nil
	}
	if len(records) == 1 {
		return m.formatSingle(records[0])
	}

	sorted := make([]SourceRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		ti, tj := m.hierarchy.Trust(sorted[i].Source), m.hierarchy.Trust(sorted[j].Source)
		if ti != tj {
			return ti > tj
		}
		if sorted[i].Source != sorted[j].Source {
			return sorted[i].Source < sorted[j].Source
		}
		return sorted[i].RecordID < sorted[j].RecordID
	})

	merged := &MergedEntity{
		Attributes:      make(map[string]any),
		Discovered:      make(map[string]any),
		ExternalIDs:     make(map[string]string),
		SourceInfo:      make(map[string]string),
		FieldConfidence: make(map[string]float64),
	}

	for _, name := range attributeNames(sorted) {
		values := fieldValues(sorted, name)
		resolved, ok := m.fields.Merge(name, values)
		if !ok {
			continue
		}
		merged.Attributes[name] = resolved.Value
		merged.SourceInfo[name] = resolved.Source
		if resolved.Source == MergedSource {
			merged.FieldConfidence[name] = 1.0
		} else {
			merged.FieldConfidence[name] = agreementRatio(values, resolved.Value)
			if conflict := m.conflicts.Detect(name, values, resolved); conflict != nil {
				merged.Conflicts = append(merged.Conflicts, *conflict)
			}
		}
	}

	merged.EntityClass = m.resolveEntityClass(sorted)

	for _, name := range discoveredNames(sorted) {
		values := discoveredValues(sorted, name)
		resolved, ok := m.fields.Merge(name, values)
		if !ok {
			continue
		}
		merged.Discovered[name] = resolved.Value
	}

	// Records are already in trust order, so the first writer per external
	// ID key is the most trusted.
	for _, record := range sorted {
		for idType, id := range record.ExternalIDs {
			if _, ok := merged.ExternalIDs[idType]; !ok {
				merged.ExternalIDs[idType] = id
			}
		}
	}

	seen := make(map[string]struct{})
	for _, record := range sorted {
		if _, ok := seen[record.Source]; ok {
			continue
		}
		seen[record.Source] = struct{}{}
		merged.Sources = append(merged.Sources, record.Source)
	}
	sort.Strings(merged.Sources)
	merged.SourceCount = len(merged.Sources)

	return merged
}

// formatSingle maps a sole record into the canonical shape: every provenance
// entry points at the one source with confidence 1.0.
func (m *EntityMerger) formatSingle(record SourceRecord) *MergedEntity {
	merged := &MergedEntity{
		EntityClass:     record.EntityClass,
		Attributes:      make(map[string]any, len(record.Attributes)),
		Discovered:      make(map[string]any, len(record.Discovered)),
		ExternalIDs:     make(map[string]string, len(record.ExternalIDs)),
		SourceInfo:      make(map[string]string, len(record.Attributes)),
		FieldConfidence: make(map[string]float64, len(record.Attributes)),
		Sources:         []string{record.Source},
		SourceCount:     1,
	}
	for name, value := range record.Attributes {
		if IsMissing(value) {
			continue
		}
		merged.Attributes[name] = value
		merged.SourceInfo[name] = record.Source
		merged.FieldConfidence[name] = 1.0
	}
	for name, value := range record.Discovered {
		merged.Discovered[name] = value
	}
	for idType, id := range record.ExternalIDs {
		merged.ExternalIDs[idType] = id
	}
	return merged
}

func (m *EntityMerger) resolveEntityClass(sorted []SourceRecord) string {
	values := make([]FieldValue, 0, len(sorted))
	for _, record := range sorted {
		values = append(values, FieldValue{
			Value:      record.EntityClass,
			Source:     record.Source,
			Confidence: recordConfidence(record),
		})
	}
	resolved, ok := m.fields.Merge("entity_class", values)
	if !ok {
		return ""
	}
	if class, isString := resolved.Value.(string); isString {
		return class
	}
	return ""
}

func attributeNames(records []SourceRecord) []string {
	nameSet := make(map[string]struct{})
	for _, record := range records {
		for name := range record.Attributes {
			nameSet[name] = struct{}{}
		}
	}
	names := make([]string, 0, len(nameSet))
	for name := range nameSet {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func discoveredNames(records []SourceRecord) []string {
	nameSet := make(map[string]struct{})
	for _, record := range records {
		for name := range record.Discovered {
			nameSet[name] = struct{}{}
		}
	}
	names := make([]string, 0, len(nameSet))
	for name := range nameSet {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func fieldValues(records []SourceRecord, name string) []FieldValue {
	values := make([]FieldValue, 0, len(records))
	for _, record := range records {
		value, ok := record.Attributes[name]
		if !ok {
			continue
		}
		values = append(values, FieldValue{
			Value:      value,
			Source:     record.Source,
			Confidence: recordConfidence(record),
		})
	}
	return values
}

func discoveredValues(records []SourceRecord, name string) []FieldValue {
	values := make([]FieldValue, 0, len(records))
	for _, record := range records {
		value, ok := record.Discovered[name]
		if !ok {
			continue
		}
		values = append(values, FieldValue{
			Value:      value,
			Source:     record.Source,
			Confidence: recordConfidence(record),
		})
	}
	return values
}

func recordConfidence(record SourceRecord) float64 {
	if record.Confidence <= 0 {
		return 1.0
	}
	return record.Confidence
}

// agreementRatio is the share of non-missing contributions equal to the
// winning value.
func agreementRatio(values []FieldValue, winner any) float64 {
	present := filterMissing(values)
	if len(present) == 0 {
		return 0
	}
	agreeing := 0
	for _, fv := range present {
		if valuesEqual(fv.Value, winner) {
			agreeing++
		}
	}
	return float64(agreeing) / float64(len(present))
}
