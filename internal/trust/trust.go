// Package trust maps source names to trust levels and orders sources by them.
//
// Typical tiers: manual override 100, official government feeds 85-90, major
// commercial APIs 70, web search 50, open community data 40, unknown 10.
package trust

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// DefaultUnknown is the trust level applied to sources absent from the config.
const DefaultUnknown = 10

// Hierarchy resolves source names to integer trust levels.
type Hierarchy struct {
	levels  map[string]int
	unknown int
}

type trustFile struct {
	TrustLevels map[string]int `yaml:"trust_levels"`
}

// New builds a Hierarchy from an explicit level map. The distinguished key
// "unknown_source" sets the fallback for unlisted sources.
func New(levels map[string]int) *Hierarchy {
	h := &Hierarchy{levels: make(map[string]int, len(levels)), unknown: DefaultUnknown}
	for name, level := range levels {
		if name == "unknown_source" {
			h.unknown = level
			continue
		}
		h.levels[name] = level
	}
	return h
}

// Load reads a trust config YAML of the form {trust_levels: {source: int}}.
func Load(path string) (*Hierarchy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read trust config: %w", err)
	}
	var parsed trustFile
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("parse trust config %s: %w", path, err)
	}
	if len(parsed.TrustLevels) == 0 {
		return nil, fmt.Errorf("trust config %s: trust_levels is empty", path)
	}
	return New(parsed.TrustLevels), nil
}

// Trust returns the trust level for source, falling back to the unknown level.
func (h *Hierarchy) Trust(source string) int {
	if level, ok := h.levels[source]; ok {
		return level
	}
	return h.unknown
}

// IsMoreTrusted reports whether source a outranks source b.
func (h *Hierarchy) IsMoreTrusted(a, b string) bool {
	return h.Trust(a) > h.Trust(b)
}

// SortByTrust returns sources ordered by trust level. Ties are broken by
// source name ascending so the ordering is deterministic.
func (h *Hierarchy) SortByTrust(sources []string, desc bool) []string {
	sorted := make([]string, len(sources))
	copy(sorted, sources)
	sort.SliceStable(sorted, func(i, j int) bool {
		ti, tj := h.Trust(sorted[i]), h.Trust(sorted[j])
		if ti != tj {
			if desc {
				return ti > tj
			}
			return ti < tj
		}
		return sorted[i] < sorted[j]
	})
	return sorted
}

// Highest returns the most trusted source in sources, or "" for an empty list.
func (h *Hierarchy) Highest(sources []string) string {
	if len(sources) == 0 {
		return ""
	}
	return h.SortByTrust(sources, true)[0]
}
