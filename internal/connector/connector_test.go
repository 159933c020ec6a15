package connector

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LarjGit/edinburgh-finds-sub001/internal/artifact"
	"github.com/LarjGit/edinburgh-finds-sub001/internal/domain/captures"
)

// fakeCaptures is an in-memory captures.Repository.
type fakeCaptures struct {
	rows   []captures.RawCapture
	hashes map[string]bool
}

var _ captures.Repository = (*fakeCaptures)(nil)

func newFakeCaptures() *fakeCaptures {
	return &fakeCaptures{hashes: make(map[string]bool)}
}

func (f *fakeCaptures) Create(_ context.Context, capture captures.RawCapture) error {
	f.rows = append(f.rows, capture)
	f.hashes[capture.ContentHash] = true
	return nil
}

func (f *fakeCaptures) GetByID(_ context.Context, id string) (*captures.RawCapture, error) {
	for i := range f.rows {
		if f.rows[i].ID == id {
			return &f.rows[i], nil
		}
	}
	return nil, captures.ErrNotFound
}

func (f *fakeCaptures) ExistsByHash(_ context.Context, contentHash string) (bool, error) {
	return f.hashes[contentHash], nil
}

func (f *fakeCaptures) ListBySource(_ context.Context, source string, limit int) ([]captures.RawCapture, error) {
	var out []captures.RawCapture
	for _, row := range f.rows {
		if row.Source == source {
			out = append(out, row)
		}
	}
	return out, nil
}

func (f *fakeCaptures) ListAll(_ context.Context, limit int) ([]captures.RawCapture, error) {
	return f.rows, nil
}

func testDeps(t *testing.T) (Deps, *fakeCaptures) {
	t.Helper()
	repo := newFakeCaptures()
	return Deps{
		Store:    artifact.NewStore(t.TempDir()),
		Captures: repo,
	}, repo
}

func serperConfig(baseURL string) SourceConfig {
	cfg := DefaultSourceConfig()
	cfg.Name = SourceSerper
	cfg.BaseURL = baseURL
	cfg.RequiresKey = true
	cfg.APIKeyEnv = "SERPER_API_KEY"
	cfg.RateLimitPerSecond = 100
	return cfg
}

func TestSerperRequiresAPIKey(t *testing.T) {
	t.Setenv("SERPER_API_KEY", "")

	deps, _ := testDeps(t)
	_, err := NewSerper(serperConfig("https://google.serper.dev/search"), deps)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SERPER_API_KEY")
}

func TestSerperFetch(t *testing.T) {
	t.Setenv("SERPER_API_KEY", "test-key")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("X-API-KEY"))
		assert.Equal(t, http.MethodPost, r.Method)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"organic":[{"title":"The Stand Comedy Club"},{"title":"Monkey Barrel"}]}`))
	}))
	defer srv.Close()

	deps, _ := testDeps(t)
	conn, err := NewSerper(serperConfig(srv.URL), deps)
	require.NoError(t, err)

	payload, err := conn.Fetch(context.Background(), "comedy clubs edinburgh")
	require.NoError(t, err)

	organic, ok := payload["organic"].([]any)
	require.True(t, ok)
	assert.Len(t, organic, 2)
}

func TestFetchEmptyQueryIsConnectorError(t *testing.T) {
	t.Setenv("SERPER_API_KEY", "test-key")

	deps, _ := testDeps(t)
	conn, err := NewSerper(serperConfig("https://google.serper.dev/search"), deps)
	require.NoError(t, err)

	_, err = conn.Fetch(context.Background(), "")
	var connErr *Error
	require.ErrorAs(t, err, &connErr)
	assert.Equal(t, SourceSerper, connErr.Source)
}

func TestSaveCreatesCaptureAndArtifact(t *testing.T) {
	deps, repo := testDeps(t)
	b := &base{source: SourceGeoFeed, deps: deps}

	payload := map[string]any{"features": []any{map[string]any{"id": "way/1"}}}
	path, err := b.Save(context.Background(), payload, "https://example.org/wfs")
	require.NoError(t, err)

	_, err = os.Stat(path)
	require.NoError(t, err)
	require.Len(t, repo.rows, 1)

	row := repo.rows[0]
	assert.Equal(t, SourceGeoFeed, row.Source)
	assert.Equal(t, captures.StatusStored, row.Status)
	assert.Len(t, row.ContentHash, 64)
	assert.Equal(t, 1, row.Metadata["features_count"])

	dup, err := b.IsDuplicate(context.Background(), row.ContentHash)
	require.NoError(t, err)
	assert.True(t, dup)
}

func TestGeoFeedRejectsNonFeatureCollection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error":"layer not found"}`))
	}))
	defer srv.Close()

	cfg := DefaultSourceConfig()
	cfg.Name = SourceGeoFeed
	cfg.BaseURL = srv.URL
	cfg.RateLimitPerSecond = 100

	deps, _ := testDeps(t)
	conn, err := NewGeoFeed(cfg, deps)
	require.NoError(t, err)

	_, err = conn.Fetch(context.Background(), "public_toilets")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FeatureCollection")
}

func TestOpenChargeMapQueryParsing(t *testing.T) {
	tests := []struct {
		query   string
		wantErr bool
	}{
		{"55.9533,-3.1883", false},
		{"55.9533", true},
		{"abc,-3.1883", true},
		{"91.0,-3.1883", true},
		{"55.9533,-181.0", true},
	}
	for _, tt := range tests {
		_, _, err := parseLatLng(tt.query)
		if tt.wantErr {
			assert.Error(t, err, tt.query)
		} else {
			assert.NoError(t, err, tt.query)
		}
	}
}

func TestOpenChargeMapWrapsArrayPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "json", r.URL.Query().Get("output"))
		_, _ = w.Write([]byte(`[{"ID":101},{"ID":102}]`))
	}))
	defer srv.Close()

	cfg := DefaultSourceConfig()
	cfg.Name = SourceOpenChargeMap
	cfg.BaseURL = srv.URL
	cfg.RateLimitPerSecond = 100

	deps, _ := testDeps(t)
	conn, err := NewOpenChargeMap(cfg, deps)
	require.NoError(t, err)

	payload, err := conn.Fetch(context.Background(), "55.9533,-3.1883")
	require.NoError(t, err)

	results, ok := payload["results"].([]any)
	require.True(t, ok)
	assert.Len(t, results, 2)
}

func TestNCRCachesByETag(t *testing.T) {
	var requests int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		if r.Header.Get("If-None-Match") == `"rel-2026-08"` {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", `"rel-2026-08"`)
		_, _ = w.Write([]byte(`{"ChargeDevices":[{"ChargeDeviceId":"CD001"}]}`))
	}))
	defer srv.Close()

	cfg := DefaultSourceConfig()
	cfg.Name = SourceNCR
	cfg.BaseURL = srv.URL
	cfg.RateLimitPerSecond = 100
	cfg.CacheDir = t.TempDir()

	deps, _ := testDeps(t)
	conn, err := NewNCR(cfg, deps)
	require.NoError(t, err)

	first, err := conn.Fetch(context.Background(), "")
	require.NoError(t, err)
	second, err := conn.Fetch(context.Background(), "")
	require.NoError(t, err)

	assert.Equal(t, 2, requests)
	assert.Equal(t, first, second)

	_, err = os.Stat(filepath.Join(cfg.CacheDir, "latest.json"))
	assert.NoError(t, err)
}

func TestDefaultRegistryNames(t *testing.T) {
	r := DefaultRegistry()
	assert.Equal(t, []string{
		SourceGeoFeed,
		SourceGooglePlaces,
		SourceNCR,
		SourceOpenChargeMap,
		SourceSerper,
	}, r.Names())
}

func TestRegistryUnknownSource(t *testing.T) {
	deps, _ := testDeps(t)
	_, err := DefaultRegistry().Build("myspace", DefaultSourceConfig(), deps)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown source")
}
