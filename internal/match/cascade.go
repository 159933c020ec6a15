package match

// Deduplicator applies the matchers in fixed order: external ID, then slug,
// then fuzzy. The first positive result wins.
type Deduplicator struct {
	externalID ExternalIDMatcher
	slug       SlugMatcher
	fuzzy      FuzzyMatcher
}

// NewDeduplicator builds a cascade with the default thresholds.
func NewDeduplicator() *Deduplicator {
	return &Deduplicator{
		slug:  NewSlugMatcher(DefaultSlugSimilarityThreshold),
		fuzzy: NewFuzzyMatcher(DefaultMaxDistanceMeters, DefaultFuzzyThreshold),
	}
}

// NewDeduplicatorWith builds a cascade from pre-configured matchers.
func NewDeduplicatorWith(slug SlugMatcher, fuzzy FuzzyMatcher) *Deduplicator {
	return &Deduplicator{slug: slug, fuzzy: fuzzy}
}

// Match compares two records through the cascade.
func (d *Deduplicator) Match(a, b Record) Result {
	if result := d.externalID.Match(a.ExternalIDs, b.ExternalIDs); result.IsMatch {
		return result
	}
	if result := d.slug.Match(a.Slug, b.Slug); result.IsMatch {
		return result
	}
	if result := d.fuzzy.Match(a, b); result.IsMatch {
		return result
	}
	return NoMatch()
}

// FindDuplicates computes equivalence groups over records by pairwise
// matching and unioning positives. Quadratic, which is fine at batch sizes
// here; pre-bucketing by external ID or slug is the known optimization if
// batches grow.
func (d *Deduplicator) FindDuplicates(records []Record) [][]int {
	parent := make([]int, len(records))
	for i := range parent {
		parent[i] = i
	}

	var find func(int) int
	find = func(i int) int {
		if parent[i] != i {
			parent[i] = find(parent[i])
		}
		return parent[i]
	}
	union := func(i, j int) {
		ri, rj := find(i), find(j)
		if ri != rj {
			parent[rj] = ri
		}
	}

	for i := 0; i < len(records); i++ {
		for j := i + 1; j < len(records); j++ {
			if d.Match(records[i], records[j]).IsMatch {
				union(i, j)
			}
		}
	}

	groupsByRoot := make(map[int][]int)
	for i := range records {
		root := find(i)
		groupsByRoot[root] = append(groupsByRoot[root], i)
	}

	groups := make([][]int, 0, len(groupsByRoot))
	for i := range records {
		if find(i) == i {
			groups = append(groups, groupsByRoot[i])
		}
	}
	return groups
}
