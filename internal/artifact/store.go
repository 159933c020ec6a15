// Package artifact persists raw connector payloads to disk.
//
// Artifacts live in a write-once namespace keyed by source and date:
// <root>/<source>/<YYYYMMDD>_<record_id>.json. Overwriting an existing path
// is permitted because upstream content hashing guarantees identical bytes.
package artifact

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Store writes and reads payload artifacts under a root directory.
type Store struct {
	root string
	now  func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used for date-stamped paths.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// NewStore creates a Store rooted at root.
func NewStore(root string, opts ...Option) *Store {
	s := &Store{root: root, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Save writes payload as indented JSON and returns the file path. Parent
// directories are created as needed.
func (s *Store) Save(source, recordID string, payload any) (string, error) {
	if source == "" {
		return "", fmt.Errorf("artifact save: source required")
	}
	if recordID == "" {
		return "", fmt.Errorf("artifact save: record id required")
	}

	dir := filepath.Join(s.root, source)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create artifact dir %s: %w", dir, err)
	}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal artifact: %w", err)
	}

	name := fmt.Sprintf("%s_%s.json", s.now().UTC().Format("20060102"), recordID)
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write artifact %s: %w", path, err)
	}
	return path, nil
}

// Load reads and parses the JSON artifact at path.
func (s *Store) Load(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read artifact %s: %w", path, err)
	}
	var payload map[string]any
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("parse artifact %s: %w", path, err)
	}
	return payload, nil
}
