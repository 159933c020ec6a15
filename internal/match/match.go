// Package match implements the cascaded duplicate matchers: external ID,
// slug, and fuzzy name+geo.
package match

// Type discriminates how a match was made.
type Type string

const (
	TypeExternalID Type = "external_id"
	TypeSlug       Type = "slug"
	TypeFuzzy      Type = "fuzzy"
	TypeNone       Type = "none"
)

// Result describes the outcome of comparing two records.
type Result struct {
	IsMatch    bool
	Confidence float64
	MatchType  Type
	MatchedOn  string
	Details    map[string]any
}

// NoMatch is the negative result shared by all matchers.
func NoMatch() Result {
	return Result{MatchType: TypeNone}
}

// Record carries the fields the matchers inspect. Latitude and Longitude are
// pointers so "absent" is distinguishable from zero.
type Record struct {
	EntityName  string
	Slug        string
	Latitude    *float64
	Longitude   *float64
	ExternalIDs map[string]string
}
