package extract

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// MissingFieldError reports a record without a required field.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing required field: %s", e.Field)
}

// BoundaryError reports an extractor emitting interpreted domain fields.
// This is a structural bug in the extractor, not a data problem.
type BoundaryError struct {
	Key string
}

func (e *BoundaryError) Error() string {
	return fmt.Sprintf("extractor boundary violation: key %q is reserved for merging", e.Key)
}

var (
	phoneStripPattern = regexp.MustCompile(`[\s\-().]`)
	ukPostcodePattern = regexp.MustCompile(`^([A-Z]{1,2}[0-9][A-Z0-9]?)\s*([0-9][A-Z]{2})$`)
	digitsOnlyPattern = regexp.MustCompile(`^[0-9]+$`)
)

// validateRecord enforces required fields and normalizes formats in place.
// Invalid coordinates are dropped rather than retained.
func validateRecord(record map[string]any) (map[string]any, error) {
	// Some legacy extraction paths wrote entity_type; entity_class is the
	// canonical name.
	if _, ok := record["entity_class"]; !ok {
		if legacy, ok := record["entity_type"]; ok {
			record["entity_class"] = legacy
			delete(record, "entity_type")
		}
	}

	for _, field := range []string{"entity_name", "entity_class"} {
		value, ok := record[field]
		if !ok {
			return nil, &MissingFieldError{Field: field}
		}
		s, isString := value.(string)
		if isString && strings.TrimSpace(s) == "" {
			return nil, &MissingFieldError{Field: field}
		}
	}

	if raw, ok := record["phone"].(string); ok {
		if normalized, valid := NormalizePhone(raw); valid {
			record["phone"] = normalized
		} else {
			delete(record, "phone")
		}
	}

	if raw, ok := record["postcode"].(string); ok {
		if normalized, valid := NormalizePostcode(raw); valid {
			record["postcode"] = normalized
		} else {
			delete(record, "postcode")
		}
	}

	if !validCoordinate(record, "latitude", 90) || !validCoordinate(record, "longitude", 180) {
		delete(record, "latitude")
		delete(record, "longitude")
	}

	return record, nil
}

// checkBoundary rejects records carrying interpreted domain fields. Only the
// merge layer may produce canonical dimension arrays or modules.
func checkBoundary(record map[string]any) error {
	for key := range record {
		if strings.HasPrefix(key, "canonical_") || key == "modules" {
			return &BoundaryError{Key: key}
		}
	}
	return nil
}

// NormalizePhone converts a phone number to E.164. Numbers without a country
// prefix are assumed to be UK national format.
func NormalizePhone(raw string) (string, bool) {
	s := phoneStripPattern.ReplaceAllString(strings.TrimSpace(raw), "")
	if s == "" {
		return "", false
	}
	if strings.HasPrefix(s, "00") {
		s = "+" + s[2:]
	}
	if strings.HasPrefix(s, "+") {
		digits := s[1:]
		if len(digits) < 7 || len(digits) > 15 || !digitsOnlyPattern.MatchString(digits) {
			return "", false
		}
		return s, true
	}
	if !digitsOnlyPattern.MatchString(s) {
		return "", false
	}
	// UK national format: 0131 539 7071 -> +441315397071
	if strings.HasPrefix(s, "0") && len(s) >= 10 && len(s) <= 11 {
		return "+44" + s[1:], true
	}
	return "", false
}

// NormalizePostcode canonicalizes a UK postcode: uppercase with a single
// space before the inward code.
func NormalizePostcode(raw string) (string, bool) {
	s := strings.ToUpper(strings.Join(strings.Fields(raw), ""))
	m := ukPostcodePattern.FindStringSubmatch(s)
	if m == nil {
		return "", false
	}
	return m[1] + " " + m[2], true
}

func validCoordinate(record map[string]any, key string, bound float64) bool {
	value, ok := record[key]
	if !ok {
		// Absent coordinates are fine; only present-and-invalid pairs drop.
		return true
	}
	f, ok := toFloat(value)
	if !ok {
		return false
	}
	return f >= -bound && f <= bound
}

// parseFlexibleFloat handles feeds that serialize coordinates as strings.
func parseFlexibleFloat(value any) (float64, bool) {
	if s, ok := value.(string); ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return toFloat(value)
}

func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}
