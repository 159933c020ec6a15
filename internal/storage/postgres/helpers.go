package postgres

// nonNilSlice guards TEXT[] NOT NULL columns against nil slices.
func nonNilSlice(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

// nonNilMap guards JSONB NOT NULL columns against nil maps.
func nonNilMap[V any](m map[string]V) map[string]V {
	if m == nil {
		return map[string]V{}
	}
	return m
}
