package connector

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// SourceConfig defines one connector loaded from a YAML config file. API keys
// are referenced by environment variable name, never stored in the file.
type SourceConfig struct {
	Name               string            `yaml:"name"`
	BaseURL            string            `yaml:"base_url"`
	APIKeyEnv          string            `yaml:"api_key_env,omitempty"`
	RequiresKey        bool              `yaml:"requires_key"`
	TimeoutSeconds     int               `yaml:"timeout_seconds"`
	RateLimitPerSecond float64           `yaml:"rate_limit_per_second"`
	DefaultParams      map[string]string `yaml:"default_params,omitempty"`
	CacheDir           string            `yaml:"cache_dir,omitempty"`
	Enabled            bool              `yaml:"enabled"`
	Notes              string            `yaml:"notes,omitempty"`
}

// APIKey resolves the configured key from the environment. Empty when no key
// env is configured or the variable is unset.
func (c SourceConfig) APIKey() string {
	if c.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(c.APIKeyEnv)
}

// requireAPIKey returns the resolved key, or an error when the source is
// configured to need one and none is set.
func requireAPIKey(cfg SourceConfig) (string, error) {
	key := cfg.APIKey()
	if cfg.RequiresKey && key == "" {
		return "", fmt.Errorf("source %s: API key required but %s is not set", cfg.Name, cfg.APIKeyEnv)
	}
	return key, nil
}

// DefaultSourceConfig returns a SourceConfig with sensible defaults applied.
func DefaultSourceConfig() SourceConfig {
	return SourceConfig{
		Enabled:            true,
		TimeoutSeconds:     30,
		RateLimitPerSecond: 1,
	}
}

// ValidateConfig validates a SourceConfig and returns an error describing all
// problems found, or nil if the config is valid.
func ValidateConfig(cfg SourceConfig) error {
	var errs []string

	if strings.TrimSpace(cfg.Name) == "" {
		errs = append(errs, "name: required")
	}

	if strings.TrimSpace(cfg.BaseURL) == "" {
		errs = append(errs, "base_url: required")
	} else {
		u, err := url.Parse(cfg.BaseURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(errs, fmt.Sprintf("base_url: must be a valid http/https URL, got %q", cfg.BaseURL))
		}
	}

	if cfg.RequiresKey && strings.TrimSpace(cfg.APIKeyEnv) == "" {
		errs = append(errs, "api_key_env: required when requires_key is true")
	}

	if cfg.TimeoutSeconds < 0 {
		errs = append(errs, fmt.Sprintf("timeout_seconds: must be >= 0, got %d", cfg.TimeoutSeconds))
	}

	if cfg.RateLimitPerSecond < 0 {
		errs = append(errs, fmt.Sprintf("rate_limit_per_second: must be >= 0, got %g", cfg.RateLimitPerSecond))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

// LoadSourceConfigs reads all *.yaml files from dir (skipping files starting
// with "_"), parses each into a SourceConfig with defaults applied, validates
// each config, and returns them keyed by source name. If any config is invalid
// an error is returned that includes the file path and field errors. A
// non-existent directory returns an empty map with no error.
func LoadSourceConfigs(dir string) (map[string]SourceConfig, error) {
	configs := make(map[string]SourceConfig)

	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return configs, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading source config dir %s: %w", dir, err)
	}

	var validationErrors []string

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, "_") {
			continue
		}
		if filepath.Ext(name) != ".yaml" {
			continue
		}

		filePath := filepath.Join(dir, name)
		cfg, err := loadFile(filePath)
		if err != nil {
			return nil, fmt.Errorf("loading %s: %w", filePath, err)
		}

		if err := ValidateConfig(cfg); err != nil {
			validationErrors = append(validationErrors, fmt.Sprintf("%s: %s", filePath, err.Error()))
			continue
		}
		configs[cfg.Name] = cfg
	}

	if len(validationErrors) > 0 {
		return configs, fmt.Errorf("invalid source configs:\n  %s", strings.Join(validationErrors, "\n  "))
	}
	return configs, nil
}

// LoadSourceConfig reads a single YAML source config file, applies defaults,
// and validates it.
func LoadSourceConfig(path string) (SourceConfig, error) {
	cfg, err := loadFile(path)
	if err != nil {
		return SourceConfig{}, fmt.Errorf("loading %s: %w", path, err)
	}
	if err := ValidateConfig(cfg); err != nil {
		return SourceConfig{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// loadFile reads a single YAML source config file and applies defaults.
func loadFile(path string) (SourceConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return SourceConfig{}, err
	}

	// Start from defaults so zero-value booleans and ints are set properly.
	cfg := DefaultSourceConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return SourceConfig{}, fmt.Errorf("parsing YAML: %w", err)
	}

	if cfg.TimeoutSeconds == 0 {
		cfg.TimeoutSeconds = 30
	}
	if cfg.RateLimitPerSecond == 0 {
		cfg.RateLimitPerSecond = 1
	}

	return cfg, nil
}
