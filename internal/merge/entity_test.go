package merge

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testMerger() *EntityMerger {
	h := testTrust()
	return NewEntityMerger(h, NewConflictDetector(h, DefaultTrustDifferenceThreshold))
}

func threeSourceRecords() []SourceRecord {
	return []SourceRecord{
		{
			RecordID:    "rec-osm",
			Source:      "osm",
			EntityClass: "place",
			Attributes: map[string]any{
				"entity_name": "Game4Padel Edinburgh",
				"latitude":    55.930189,
				"longitude":   -3.315341,
				"phone":       "+441315397071",
			},
			Discovered:  map[string]any{"osm_tags": map[string]any{"leisure": "pitch"}},
			ExternalIDs: map[string]string{"osm_id": "way/123"},
		},
		{
			RecordID:    "rec-gp",
			Source:      "google_places",
			EntityClass: "place",
			Attributes: map[string]any{
				"entity_name": "Game4Padel Edinburgh",
				"latitude":    55.930189,
				"longitude":   -3.315341,
				"phone":       "+441310000000",
				"website":     "https://game4padel.com",
			},
			Discovered:  map[string]any{"rating": 4.7},
			ExternalIDs: map[string]string{"google_place_id": "ChIJabc"},
		},
		{
			RecordID:    "rec-serper",
			Source:      "serper",
			EntityClass: "place",
			Attributes: map[string]any{
				"entity_name": "Game4Padel Edinburgh",
				"latitude":    55.930189,
				"longitude":   -3.315341,
				"phone":       "+441319999999",
				"summary":     "Padel courts in west Edinburgh",
			},
			Discovered:  map[string]any{"position": 1.0},
			ExternalIDs: map[string]string{"serper_id": "r1"},
		},
	}
}

func TestMergeEmptyAndSingle(t *testing.T) {
	m := testMerger()

	assert.Nil(t, m.Merge(nil))

	single := m.Merge(threeSourceRecords()[:1])
	require.NotNil(t, single)
	assert.Equal(t, "place", single.EntityClass)
	assert.Equal(t, "osm", single.SourceInfo["entity_name"])
	assert.Equal(t, 1.0, single.FieldConfidence["phone"])
	assert.Equal(t, 1, single.SourceCount)
	assert.NotNil(t, single.SourceInfo)
	assert.NotNil(t, single.FieldConfidence)
}

func TestMergeTrustDecidedConflict(t *testing.T) {
	m := testMerger()
	merged := m.Merge(threeSourceRecords())
	require.NotNil(t, merged)

	// Phone: trust-85 osm wins; one of three records agreed with the winner.
	assert.Equal(t, "+441315397071", merged.Attributes["phone"])
	assert.Equal(t, "osm", merged.SourceInfo["phone"])
	assert.InDelta(t, 1.0/3.0, merged.FieldConfidence["phone"], 1e-9)

	// Name: all agree.
	assert.Equal(t, 1.0, merged.FieldConfidence["entity_name"])

	// Website only from google_places.
	assert.Equal(t, "https://game4padel.com", merged.Attributes["website"])
	assert.Equal(t, "google_places", merged.SourceInfo["website"])

	// External IDs union across all sources.
	assert.Equal(t, map[string]string{
		"osm_id":          "way/123",
		"google_place_id": "ChIJabc",
		"serper_id":       "r1",
	}, merged.ExternalIDs)

	assert.Equal(t, []string{"google_places", "osm", "serper"}, merged.Sources)
	assert.Equal(t, 3, merged.SourceCount)
}

func TestMergePermutationStability(t *testing.T) {
	m := testMerger()
	records := threeSourceRecords()

	baseline := m.Merge(records)
	require.NotNil(t, baseline)

	permutations := [][]int{
		{0, 1, 2}, {0, 2, 1}, {1, 0, 2}, {1, 2, 0}, {2, 0, 1}, {2, 1, 0},
	}
	for _, perm := range permutations {
		shuffled := make([]SourceRecord, len(records))
		for i, idx := range perm {
			shuffled[i] = records[idx]
		}
		merged := m.Merge(shuffled)
		require.NotNil(t, merged)

		if !reflect.DeepEqual(baseline.Attributes, merged.Attributes) {
			t.Errorf("permutation %v changed attributes", perm)
		}
		if !reflect.DeepEqual(baseline.SourceInfo, merged.SourceInfo) {
			t.Errorf("permutation %v changed source_info", perm)
		}
		if !reflect.DeepEqual(baseline.FieldConfidence, merged.FieldConfidence) {
			t.Errorf("permutation %v changed field_confidence", perm)
		}
		if !reflect.DeepEqual(baseline.Discovered, merged.Discovered) {
			t.Errorf("permutation %v changed discovered attributes", perm)
		}
		if !reflect.DeepEqual(baseline.ExternalIDs, merged.ExternalIDs) {
			t.Errorf("permutation %v changed external ids", perm)
		}
	}
}

func TestMergeCanonicalArraysAcrossRecords(t *testing.T) {
	m := testMerger()
	records := []SourceRecord{
		{
			RecordID: "r1", Source: "osm", EntityClass: "place",
			Attributes: map[string]any{
				"entity_name":          "Club",
				"canonical_activities": []any{"Padel", " tennis "},
			},
		},
		{
			RecordID: "r2", Source: "openchargemap", EntityClass: "place",
			Attributes: map[string]any{
				"entity_name":          "Club",
				"canonical_activities": []any{"padel ", "PADEL", "squash"},
			},
		},
	}

	merged := m.Merge(records)
	require.NotNil(t, merged)
	assert.Equal(t, []string{"padel", "squash", "tennis"}, merged.Attributes["canonical_activities"])
	assert.Equal(t, MergedSource, merged.SourceInfo["canonical_activities"])
	assert.Equal(t, 1.0, merged.FieldConfidence["canonical_activities"])
}

func TestMergeDiscoveredDeepMerge(t *testing.T) {
	m := testMerger()
	records := []SourceRecord{
		{
			RecordID: "r1", Source: "osm", EntityClass: "place",
			Attributes: map[string]any{"entity_name": "Club"},
			Discovered: map[string]any{"opening_hours": map[string]any{"mon": "9-5"}},
		},
		{
			RecordID: "r2", Source: "serper", EntityClass: "place",
			Attributes: map[string]any{"entity_name": "Club"},
			Discovered: map[string]any{"opening_hours": map[string]any{"tue": "9-5"}},
		},
	}

	merged := m.Merge(records)
	require.NotNil(t, merged)
	hours := merged.Discovered["opening_hours"].(map[string]any)
	assert.Equal(t, "9-5", hours["mon"])
	assert.Equal(t, "9-5", hours["tue"])
}

func TestMergeEntityClassCascade(t *testing.T) {
	m := testMerger()
	records := []SourceRecord{
		{RecordID: "r1", Source: "serper", EntityClass: "organization",
			Attributes: map[string]any{"entity_name": "Club"}},
		{RecordID: "r2", Source: "osm", EntityClass: "place",
			Attributes: map[string]any{"entity_name": "Club"}},
	}

	merged := m.Merge(records)
	require.NotNil(t, merged)
	assert.Equal(t, "place", merged.EntityClass, "higher trust entity_class should win")
}

func TestMergeConflictSurfaced(t *testing.T) {
	h := testTrust()
	m := NewEntityMerger(h, NewConflictDetector(h, DefaultTrustDifferenceThreshold))

	// osm (85) vs google_places (70): gap 15 >= threshold, decisive, no conflict.
	records := threeSourceRecords()
	merged := m.Merge(records)
	require.NotNil(t, merged)
	for _, conflict := range merged.Conflicts {
		if conflict.FieldName == "phone" {
			t.Error("trust gap of 15 should be decisive for phone")
		}
	}

	// Two near-trust sources disputing the phone should surface a conflict.
	near := []SourceRecord{
		{RecordID: "r1", Source: "osm", EntityClass: "place",
			Attributes: map[string]any{"entity_name": "Club", "phone": "+441"}},
		{RecordID: "r2", Source: "manual", EntityClass: "place",
			Attributes: map[string]any{"entity_name": "Club", "phone": "+442"}},
	}
	h2 := testTrust()
	m2 := NewEntityMerger(h2, NewConflictDetector(h2, 20))
	merged2 := m2.Merge(near)
	require.NotNil(t, merged2)

	found := false
	for _, conflict := range merged2.Conflicts {
		if conflict.FieldName == "phone" {
			found = true
			assert.Equal(t, "manual", conflict.WinnerSource)
			assert.Equal(t, 15, conflict.TrustDifference)
			assert.InDelta(t, 0.25, conflict.Severity, 1e-9)
		}
	}
	assert.True(t, found, "near-trust phone dispute should surface a conflict")
}
