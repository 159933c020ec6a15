package match

import (
	"math"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
)

const (
	// DefaultMaxDistanceMeters rejects candidate pairs further apart than
	// this before any name comparison.
	DefaultMaxDistanceMeters = 200.0
	// DefaultFuzzyThreshold is the minimum combined score for a match.
	DefaultFuzzyThreshold = 0.85

	// locationDecayMeters is the e-folding distance of the location score.
	locationDecayMeters = 50.0
	nameWeight          = 0.7
	locationWeight      = 0.3

	earthRadiusMeters = 6371000.0
)

// FuzzyMatcher combines word-order-insensitive name similarity with
// exponentially decaying location proximity.
type FuzzyMatcher struct {
	maxDistanceMeters float64
	threshold         float64
}

func NewFuzzyMatcher(maxDistanceMeters, threshold float64) FuzzyMatcher {
	if maxDistanceMeters <= 0 {
		maxDistanceMeters = DefaultMaxDistanceMeters
	}
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultFuzzyThreshold
	}
	return FuzzyMatcher{maxDistanceMeters: maxDistanceMeters, threshold: threshold}
}

// Match requires entity name and both coordinates on each record; anything
// less is a no-match, not an error.
func (m FuzzyMatcher) Match(a, b Record) Result {
	if a.EntityName == "" || b.EntityName == "" {
		return NoMatch()
	}
	if a.Latitude == nil || a.Longitude == nil || b.Latitude == nil || b.Longitude == nil {
		return NoMatch()
	}

	distance := haversineMeters(*a.Latitude, *a.Longitude, *b.Latitude, *b.Longitude)
	if distance > m.maxDistanceMeters {
		return NoMatch()
	}

	nameScore := tokenSortRatio(a.EntityName, b.EntityName)
	locationScore := math.Exp(-distance / locationDecayMeters)
	combined := nameWeight*nameScore + locationWeight*locationScore

	if combined < m.threshold {
		return NoMatch()
	}
	return Result{
		IsMatch:    true,
		Confidence: combined,
		MatchType:  TypeFuzzy,
		MatchedOn:  "name+location",
		Details: map[string]any{
			"name_score":      nameScore,
			"location_score":  locationScore,
			"distance_meters": distance,
		},
	}
}

// tokenSortRatio lowercases both names, sorts their tokens, and scores the
// joined forms with a normalized edit-distance similarity. Word order never
// penalizes the score.
func tokenSortRatio(a, b string) float64 {
	sortedA := sortTokens(a)
	sortedB := sortTokens(b)
	if sortedA == "" || sortedB == "" {
		return 0
	}
	if sortedA == sortedB {
		return 1.0
	}
	total := len(sortedA) + len(sortedB)
	distance := levenshtein.ComputeDistance(sortedA, sortedB)
	ratio := float64(total-distance) / float64(total)
	if ratio < 0 {
		return 0
	}
	return ratio
}

func sortTokens(name string) string {
	tokens := strings.Fields(strings.ToLower(strings.TrimSpace(name)))
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}

func haversineMeters(lat1, lon1, lat2, lon2 float64) float64 {
	rad := math.Pi / 180.0
	dLat := (lat2 - lat1) * rad
	dLon := (lon2 - lon1) * rad

	sinLat := math.Sin(dLat / 2)
	sinLon := math.Sin(dLon / 2)
	h := sinLat*sinLat + math.Cos(lat1*rad)*math.Cos(lat2*rad)*sinLon*sinLon
	return 2 * earthRadiusMeters * math.Asin(math.Sqrt(h))
}
