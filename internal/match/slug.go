package match

import (
	"github.com/agnivade/levenshtein"
)

// DefaultSlugSimilarityThreshold governs typo tolerance for slug matching.
// Exact matches are simply ratio == 1.0.
const DefaultSlugSimilarityThreshold = 0.9

// SlugMatcher compares normalized slug strings.
type SlugMatcher struct {
	threshold float64
}

func NewSlugMatcher(threshold float64) SlugMatcher {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultSlugSimilarityThreshold
	}
	return SlugMatcher{threshold: threshold}
}

// Match compares two slugs. Empty slugs never match.
func (m SlugMatcher) Match(a, b string) Result {
	if a == "" || b == "" {
		return NoMatch()
	}
	if a == b {
		return Result{
			IsMatch:    true,
			Confidence: 1.0,
			MatchType:  TypeSlug,
			MatchedOn:  "slug",
		}
	}

	ratio := editRatio(a, b)
	if ratio >= m.threshold {
		return Result{
			IsMatch:    true,
			Confidence: ratio,
			MatchType:  TypeSlug,
			MatchedOn:  "slug",
			Details:    map[string]any{"ratio": ratio},
		}
	}
	return NoMatch()
}

// editRatio converts edit distance to a similarity in [0, 1].
func editRatio(a, b string) float64 {
	longest := len(a)
	if len(b) > longest {
		longest = len(b)
	}
	if longest == 0 {
		return 1.0
	}
	distance := levenshtein.ComputeDistance(a, b)
	return 1.0 - float64(distance)/float64(longest)
}
