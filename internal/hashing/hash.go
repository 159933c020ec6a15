// Package hashing computes canonical content fingerprints for raw payloads.
//
// The same logical payload must always produce the same hash regardless of
// map iteration order, so values are serialized to compact JSON with keys
// sorted recursively before hashing.
package hashing

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// HashError reports a payload that cannot be serialized to JSON.
type HashError struct {
	Err error
}

func (e *HashError) Error() string {
	return fmt.Sprintf("hash payload: %v", e.Err)
}

func (e *HashError) Unwrap() error { return e.Err }

// Canonical serializes payload to UTF-8 JSON with recursively sorted keys and
// compact separators, then returns the lowercase hex SHA-256 of those bytes.
func Canonical(payload any) (string, error) {
	var sb strings.Builder
	if err := writeCanonical(&sb, payload); err != nil {
		return "", &HashError{Err: err}
	}
	sum := sha256.Sum256([]byte(sb.String()))
	return hex.EncodeToString(sum[:]), nil
}

// CanonicalJSON returns the canonical serialization itself. Exposed so
// LLM-backed extractors can build cache keys over payload|prompt|model.
func CanonicalJSON(payload any) (string, error) {
	var sb strings.Builder
	if err := writeCanonical(&sb, payload); err != nil {
		return "", &HashError{Err: err}
	}
	return sb.String(), nil
}

func writeCanonical(sb *strings.Builder, value any) error {
	switch v := value.(type) {
	case nil:
		sb.WriteString("null")
	case bool:
		if v {
			sb.WriteString("true")
		} else {
			sb.WriteString("false")
		}
	case string:
		encoded, err := json.Marshal(v)
		if err != nil {
			return err
		}
		sb.Write(encoded)
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("non-finite number %v", v)
		}
		// Integral floats render without a fractional part so that a payload
		// decoded from JSON hashes identically to one built from Go ints.
		if v == math.Trunc(v) && math.Abs(v) < 1e15 {
			sb.WriteString(strconv.FormatInt(int64(v), 10))
		} else {
			sb.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
		}
	case float32:
		return writeCanonical(sb, float64(v))
	case int:
		sb.WriteString(strconv.Itoa(v))
	case int64:
		sb.WriteString(strconv.FormatInt(v, 10))
	case json.Number:
		sb.WriteString(v.String())
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		sb.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				sb.WriteByte(',')
			}
			encoded, err := json.Marshal(k)
			if err != nil {
				return err
			}
			sb.Write(encoded)
			sb.WriteByte(':')
			if err := writeCanonical(sb, v[k]); err != nil {
				return err
			}
		}
		sb.WriteByte('}')
	case []any:
		sb.WriteByte('[')
		for i, item := range v {
			if i > 0 {
				sb.WriteByte(',')
			}
			if err := writeCanonical(sb, item); err != nil {
				return err
			}
		}
		sb.WriteByte(']')
	case []string:
		generic := make([]any, len(v))
		for i, s := range v {
			generic[i] = s
		}
		return writeCanonical(sb, generic)
	case map[string]string:
		generic := make(map[string]any, len(v))
		for k, s := range v {
			generic[k] = s
		}
		return writeCanonical(sb, generic)
	default:
		// Fall back through a JSON round trip for struct-like values.
		raw, err := json.Marshal(v)
		if err != nil {
			return err
		}
		var decoded any
		if err := json.Unmarshal(raw, &decoded); err != nil {
			return err
		}
		return writeCanonical(sb, decoded)
	}
	return nil
}
