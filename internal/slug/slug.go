// Package slug derives deterministic URL-safe identifiers from entity names.
package slug

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	leadingArticle = regexp.MustCompile(`(?i)^(the|a|an)\s+`)
	invalidChars   = regexp.MustCompile(`[^a-z0-9\s-]`)
	whitespaceRuns = regexp.MustCompile(`\s+`)
	hyphenRuns     = regexp.MustCompile(`-{2,}`)
)

// translit maps common accented Latin runes to ASCII equivalents. Runes not
// covered here and outside ASCII are dropped by the invalid-char pass.
var translit = map[rune]string{
	'à': "a", 'á': "a", 'â': "a", 'ã': "a", 'ä': "a", 'å': "a", 'æ': "ae",
	'ç': "c", 'è': "e", 'é': "e", 'ê': "e", 'ë': "e",
	'ì': "i", 'í': "i", 'î': "i", 'ï': "i",
	'ñ': "n", 'ò': "o", 'ó': "o", 'ô': "o", 'õ': "o", 'ö': "o", 'ø': "o",
	'ù': "u", 'ú': "u", 'û': "u", 'ü': "u",
	'ý': "y", 'ÿ': "y", 'ß': "ss", 'œ': "oe", 'ð': "d", 'þ': "th",
	'ł': "l", 'š': "s", 'ž': "z", 'č': "c", 'ć': "c", 'đ': "d", 'ř': "r",
	'ů': "u", 'ě': "e", 'ą': "a", 'ę': "e", 'ś': "s", 'ź': "z", 'ż': "z",
}

// Make converts name into a lowercase, hyphen-delimited, ASCII-only slug.
// The optional location is normalized the same way and appended with a
// hyphen. Make is idempotent over its own output.
func Make(name string, location ...string) string {
	result := normalize(name)
	if len(location) > 0 {
		if loc := normalize(location[0]); loc != "" {
			result = result + "-" + loc
		}
	}
	result = hyphenRuns.ReplaceAllString(result, "-")
	return strings.Trim(result, "-")
}

func normalize(value string) string {
	lowered := strings.ToLower(strings.TrimSpace(value))
	lowered = leadingArticle.ReplaceAllString(lowered, "")

	var sb strings.Builder
	for _, r := range lowered {
		if replacement, ok := translit[r]; ok {
			sb.WriteString(replacement)
			continue
		}
		if r < unicode.MaxASCII {
			sb.WriteRune(r)
		}
	}

	cleaned := invalidChars.ReplaceAllString(sb.String(), "")
	cleaned = whitespaceRuns.ReplaceAllString(strings.TrimSpace(cleaned), "-")
	return cleaned
}
