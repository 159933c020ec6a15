package merge

import "strings"

// placeholderSentinels are string values that carry no information and are
// treated the same as an absent field.
var placeholderSentinels = map[string]struct{}{
	"N/A": {},
	"n/a": {},
	"NA":  {},
	"-":   {},
	"–":   {},
	"—":   {},
}

// IsMissing reports whether value is indistinguishable from "absent": nil, an
// empty or whitespace-only string, or a curated placeholder sentinel. Zero,
// false, and empty collections are real values.
func IsMissing(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return true
		}
		_, sentinel := placeholderSentinels[trimmed]
		return sentinel
	default:
		return false
	}
}
