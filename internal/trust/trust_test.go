package trust

import (
	"os"
	"path/filepath"
	"testing"
)

func testHierarchy() *Hierarchy {
	return New(map[string]int{
		"manual":         100,
		"osm":            85,
		"google_places":  70,
		"serper":         50,
		"openchargemap":  40,
		"unknown_source": 10,
	})
}

func TestTrustLookup(t *testing.T) {
	h := testHierarchy()

	if got := h.Trust("osm"); got != 85 {
		t.Errorf("Trust(osm) = %d, want 85", got)
	}
	if got := h.Trust("never-seen"); got != 10 {
		t.Errorf("Trust(never-seen) = %d, want unknown fallback 10", got)
	}
	if !h.IsMoreTrusted("google_places", "serper") {
		t.Error("google_places should outrank serper")
	}
	if h.IsMoreTrusted("serper", "serper") {
		t.Error("a source does not outrank itself")
	}
}

func TestSortByTrust(t *testing.T) {
	h := testHierarchy()
	sources := []string{"serper", "manual", "openchargemap", "osm"}

	desc := h.SortByTrust(sources, true)
	want := []string{"manual", "osm", "serper", "openchargemap"}
	for i := range want {
		if desc[i] != want[i] {
			t.Fatalf("SortByTrust desc = %v, want %v", desc, want)
		}
	}

	asc := h.SortByTrust(sources, false)
	if asc[0] != "openchargemap" || asc[len(asc)-1] != "manual" {
		t.Errorf("SortByTrust asc = %v", asc)
	}

	if got := h.Highest(sources); got != "manual" {
		t.Errorf("Highest = %q, want manual", got)
	}
	if got := h.Highest(nil); got != "" {
		t.Errorf("Highest(nil) = %q, want empty", got)
	}
}

func TestSortByTrustTieBreak(t *testing.T) {
	h := New(map[string]int{"b_source": 50, "a_source": 50})
	sorted := h.SortByTrust([]string{"b_source", "a_source"}, true)
	if sorted[0] != "a_source" {
		t.Errorf("equal trust should order by name asc, got %v", sorted)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "trust.yaml")
	content := "trust_levels:\n  osm: 85\n  serper: 50\n  unknown_source: 15\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	h, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := h.Trust("osm"); got != 85 {
		t.Errorf("Trust(osm) = %d", got)
	}
	if got := h.Trust("mystery"); got != 15 {
		t.Errorf("Trust(mystery) = %d, want configured fallback 15", got)
	}

	if _, err := Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
