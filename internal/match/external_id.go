package match

import (
	"sort"
	"strings"
)

// ExternalIDMatcher matches records sharing a source-assigned identifier.
type ExternalIDMatcher struct{}

// Match reports a match when any shared ID type has equal normalized values.
// Keys are visited in sorted order so MatchedOn is deterministic.
func (ExternalIDMatcher) Match(a, b map[string]string) Result {
	if len(a) == 0 || len(b) == 0 {
		return NoMatch()
	}

	keys := make([]string, 0, len(a))
	for key := range a {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		other, ok := b[key]
		if !ok {
			continue
		}
		idA := normalizeID(a[key])
		idB := normalizeID(other)
		if idA == "" || idB == "" {
			continue
		}
		if idA == idB {
			return Result{
				IsMatch:    true,
				Confidence: 1.0,
				MatchType:  TypeExternalID,
				MatchedOn:  key,
			}
		}
	}
	return NoMatch()
}

func normalizeID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}
