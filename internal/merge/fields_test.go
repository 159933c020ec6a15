package merge

import (
	"reflect"
	"testing"

	"github.com/LarjGit/edinburgh-finds-sub001/internal/trust"
)

func testTrust() *trust.Hierarchy {
	return trust.New(map[string]int{
		"manual":         100,
		"osm":            85,
		"google_places":  70,
		"serper":         50,
		"openchargemap":  40,
		"unknown_source": 10,
	})
}

func TestMergeDefaultTrustWins(t *testing.T) {
	m := NewFieldMerger(testTrust())
	values := []FieldValue{
		{Value: "+441315397071", Source: "osm", Confidence: 1.0},
		{Value: "+441310000000", Source: "google_places", Confidence: 1.0},
		{Value: "+441319999999", Source: "serper", Confidence: 1.0},
	}

	resolved, ok := m.Merge("phone", values)
	if !ok {
		t.Fatal("expected a resolution")
	}
	if resolved.Value != "+441315397071" {
		t.Errorf("winner = %v, want trust-85 value", resolved.Value)
	}
	if resolved.Source != "osm" {
		t.Errorf("winner source = %s, want osm", resolved.Source)
	}
	want := []string{"google_places", "osm", "serper"}
	if !reflect.DeepEqual(resolved.AllSources, want) {
		t.Errorf("AllSources = %v, want %v", resolved.AllSources, want)
	}
}

func TestMergeMissingnessDoesNotBlockRealValue(t *testing.T) {
	m := NewFieldMerger(testTrust())
	values := []FieldValue{
		{Value: "", Source: "osm", Confidence: 1.0},
		{Value: "A real description", Source: "openchargemap", Confidence: 1.0},
	}

	resolved, ok := m.Merge("summary", values)
	if !ok {
		t.Fatal("expected a resolution")
	}
	if resolved.Value != "A real description" {
		t.Errorf("winner = %v", resolved.Value)
	}
	if resolved.Source != "openchargemap" {
		t.Errorf("winner source = %s, want openchargemap", resolved.Source)
	}
}

func TestMergeNarrativeLongerTextBeatsTrust(t *testing.T) {
	m := NewFieldMerger(testTrust())
	long := "A much richer and longer description of the venue"
	values := []FieldValue{
		{Value: "Short", Source: "osm", Confidence: 1.0},
		{Value: long, Source: "openchargemap", Confidence: 1.0},
	}

	resolved, ok := m.Merge("summary", values)
	if !ok {
		t.Fatal("expected a resolution")
	}
	if resolved.Value != long {
		t.Errorf("narrative winner = %v, want longer text", resolved.Value)
	}
}

func TestMergeNarrativeEqualLengthFallsBackToTrust(t *testing.T) {
	m := NewFieldMerger(testTrust())
	values := []FieldValue{
		{Value: "abcde", Source: "serper", Confidence: 1.0},
		{Value: "vwxyz", Source: "osm", Confidence: 1.0},
	}

	resolved, _ := m.Merge("description", values)
	if resolved.Source != "osm" {
		t.Errorf("equal length should fall back to trust, got %s", resolved.Source)
	}
}

func TestMergeCanonicalArrayUnion(t *testing.T) {
	m := NewFieldMerger(testTrust())
	values := []FieldValue{
		{Value: []any{"Padel", " tennis "}, Source: "osm", Confidence: 1.0},
		{Value: []any{"padel ", "PADEL", "squash"}, Source: "openchargemap", Confidence: 1.0},
	}

	resolved, ok := m.Merge("canonical_activities", values)
	if !ok {
		t.Fatal("expected a resolution")
	}
	want := []string{"padel", "squash", "tennis"}
	if !reflect.DeepEqual(resolved.Value, want) {
		t.Errorf("canonical union = %v, want %v", resolved.Value, want)
	}
	if resolved.Source != MergedSource {
		t.Errorf("source = %s, want %s", resolved.Source, MergedSource)
	}
	if resolved.Confidence != 1.0 {
		t.Errorf("confidence = %f, want 1.0", resolved.Confidence)
	}
}

func TestMergeCanonicalArrayAllMissing(t *testing.T) {
	m := NewFieldMerger(testTrust())
	_, ok := m.Merge("canonical_roles", []FieldValue{
		{Value: nil, Source: "osm"},
		{Value: "", Source: "serper"},
	})
	if ok {
		t.Error("all-missing canonical array should not resolve")
	}
}

func TestMergeGeoFields(t *testing.T) {
	m := NewFieldMerger(testTrust())
	values := []FieldValue{
		{Value: 55.930189, Source: "google_places", Confidence: 1.0},
		{Value: 55.9302, Source: "serper", Confidence: 1.0},
	}
	resolved, _ := m.Merge("latitude", values)
	if resolved.Value != 55.930189 {
		t.Errorf("latitude winner = %v, want google_places value", resolved.Value)
	}
}

func TestMergeConfidenceTieBreak(t *testing.T) {
	m := NewFieldMerger(testTrust())
	// Same trust level via unknown fallback; higher confidence wins.
	values := []FieldValue{
		{Value: "low", Source: "aaa_unknown", Confidence: 0.4},
		{Value: "high", Source: "zzz_unknown", Confidence: 0.9},
	}
	resolved, _ := m.Merge("entity_name", values)
	if resolved.Value != "high" {
		t.Errorf("higher confidence should win at equal trust, got %v", resolved.Value)
	}

	// Equal trust and confidence: source ID ascending wins.
	values = []FieldValue{
		{Value: "z-value", Source: "zzz_unknown", Confidence: 0.5},
		{Value: "a-value", Source: "aaa_unknown", Confidence: 0.5},
	}
	resolved, _ = m.Merge("entity_name", values)
	if resolved.Value != "a-value" {
		t.Errorf("source asc should break final tie, got %v", resolved.Value)
	}
}

func TestMergeAllMissingScalar(t *testing.T) {
	m := NewFieldMerger(testTrust())
	if _, ok := m.Merge("phone", []FieldValue{
		{Value: "N/A", Source: "osm"},
		{Value: "  ", Source: "serper"},
	}); ok {
		t.Error("all-missing scalar should not resolve")
	}
}
