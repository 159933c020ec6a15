package hashing

import (
	"encoding/json"
	"errors"
	"math"
	"regexp"
	"testing"
)

var hexRegex = regexp.MustCompile(`^[0-9a-f]{64}$`)

func TestCanonicalKeyOrderIndependence(t *testing.T) {
	a := map[string]any{
		"name": "Game4Padel Edinburgh",
		"location": map[string]any{
			"lat": 55.930189,
			"lng": -3.315341,
		},
		"tags": []any{"padel", "tennis"},
	}
	b := map[string]any{
		"tags": []any{"padel", "tennis"},
		"location": map[string]any{
			"lng": -3.315341,
			"lat": 55.930189,
		},
		"name": "Game4Padel Edinburgh",
	}

	hashA, err := Canonical(a)
	if err != nil {
		t.Fatalf("hash a: %v", err)
	}
	hashB, err := Canonical(b)
	if err != nil {
		t.Fatalf("hash b: %v", err)
	}
	if hashA != hashB {
		t.Errorf("key order changed hash: %s != %s", hashA, hashB)
	}
	if !hexRegex.MatchString(hashA) {
		t.Errorf("hash is not 64 hex chars: %q", hashA)
	}
}

func TestCanonicalArrayOrderMatters(t *testing.T) {
	a, err := Canonical(map[string]any{"tags": []any{"a", "b"}})
	if err != nil {
		t.Fatal(err)
	}
	b, err := Canonical(map[string]any{"tags": []any{"b", "a"}})
	if err != nil {
		t.Fatal(err)
	}
	if a == b {
		t.Error("array order should affect hash")
	}
}

func TestCanonicalIntFloatEquivalence(t *testing.T) {
	// A payload decoded from JSON (floats) must hash the same as the
	// equivalent payload built with Go ints.
	var decoded map[string]any
	if err := json.Unmarshal([]byte(`{"count": 3, "ratio": 0.5}`), &decoded); err != nil {
		t.Fatal(err)
	}
	built := map[string]any{"count": 3, "ratio": 0.5}

	hashDecoded, err := Canonical(decoded)
	if err != nil {
		t.Fatal(err)
	}
	hashBuilt, err := Canonical(built)
	if err != nil {
		t.Fatal(err)
	}
	if hashDecoded != hashBuilt {
		t.Errorf("int/float mismatch: %s != %s", hashDecoded, hashBuilt)
	}
}

func TestCanonicalNotSerializable(t *testing.T) {
	_, err := Canonical(map[string]any{"bad": math.NaN()})
	if err == nil {
		t.Fatal("expected error for NaN payload")
	}
	var hashErr *HashError
	if !errors.As(err, &hashErr) {
		t.Errorf("expected *HashError, got %T", err)
	}

	_, err = Canonical(map[string]any{"ch": make(chan int)})
	if err == nil {
		t.Fatal("expected error for channel payload")
	}
}

func TestCanonicalJSONDeterministic(t *testing.T) {
	payload := map[string]any{"b": 2, "a": 1, "nested": map[string]any{"z": true, "y": nil}}
	got, err := CanonicalJSON(payload)
	if err != nil {
		t.Fatal(err)
	}
	want := `{"a":1,"b":2,"nested":{"y":null,"z":true}}`
	if got != want {
		t.Errorf("canonical json = %s, want %s", got, want)
	}
}
