package connector

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestLoadSourceConfigs(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "serper.yaml", `
name: serper
base_url: https://google.serper.dev/search
requires_key: true
api_key_env: SERPER_API_KEY
rate_limit_per_second: 2
default_params:
  location: "Edinburgh, Scotland, United Kingdom"
  gl: uk
`)
	writeConfig(t, dir, "geofeed.yaml", `
name: geofeed
base_url: https://geoserver.edinburgh.gov.uk/geoserver/wfs
`)
	writeConfig(t, dir, "_template.yaml", `name: ignored`)
	writeConfig(t, dir, "README.md", `not yaml`)

	configs, err := LoadSourceConfigs(dir)
	require.NoError(t, err)
	require.Len(t, configs, 2)

	serper := configs["serper"]
	assert.Equal(t, 2.0, serper.RateLimitPerSecond)
	assert.Equal(t, "uk", serper.DefaultParams["gl"])
	assert.True(t, serper.Enabled)

	geofeed := configs["geofeed"]
	assert.Equal(t, 30, geofeed.TimeoutSeconds, "defaults applied")
	assert.Equal(t, 1.0, geofeed.RateLimitPerSecond)
}

func TestLoadSourceConfigsMissingDir(t *testing.T) {
	configs, err := LoadSourceConfigs(filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)
	assert.Empty(t, configs)
}

func TestLoadSourceConfigsInvalid(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "bad.yaml", `
name: bad
base_url: "not a url"
requires_key: true
`)

	_, err := LoadSourceConfigs(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "base_url")
	assert.Contains(t, err.Error(), "api_key_env")
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*SourceConfig)
		wantErr string
	}{
		{"valid", func(c *SourceConfig) {}, ""},
		{"missing name", func(c *SourceConfig) { c.Name = "" }, "name: required"},
		{"negative timeout", func(c *SourceConfig) { c.TimeoutSeconds = -1 }, "timeout_seconds"},
		{"negative rate", func(c *SourceConfig) { c.RateLimitPerSecond = -0.5 }, "rate_limit_per_second"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultSourceConfig()
			cfg.Name = "serper"
			cfg.BaseURL = "https://google.serper.dev/search"
			tt.mutate(&cfg)

			err := ValidateConfig(cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}
