package config

import (
	"fmt"
	"os"
	"strconv"
)

type Config struct {
	Database    DatabaseConfig
	Artifacts   ArtifactConfig
	Pipeline    PipelineConfig
	Logging     LoggingConfig
	Environment string
}

type DatabaseConfig struct {
	URL            string
	MaxConnections int
	MaxIdle        int
}

type ArtifactConfig struct {
	Root string
}

type PipelineConfig struct {
	// SourcesPath points at the per-connector YAML config directory.
	SourcesPath string
	// TrustPath points at the trust hierarchy YAML.
	TrustPath string
	// EntityModelPath points at the entity/module definition YAML, loaded
	// strictly (duplicate keys rejected).
	EntityModelPath string
	MaxRetries      int
	Parallelism     int
}

type LoggingConfig struct {
	Level  string
	Format string
}

func Load() (Config, error) {
	cfg := Config{
		Database: DatabaseConfig{
			URL:            getEnv("DATABASE_URL", ""),
			MaxConnections: getEnvInt("DATABASE_MAX_CONNECTIONS", 10),
			MaxIdle:        getEnvInt("DATABASE_MAX_IDLE_CONNECTIONS", 2),
		},
		Artifacts: ArtifactConfig{
			Root: getEnv("ARTIFACT_ROOT", "data/raw"),
		},
		Pipeline: PipelineConfig{
			SourcesPath:     getEnv("SOURCES_CONFIG_DIR", "config/sources"),
			TrustPath:       getEnv("TRUST_CONFIG_PATH", "config/trust.yaml"),
			EntityModelPath: getEnv("ENTITY_MODEL_PATH", "config/entity_model.yaml"),
			MaxRetries:      getEnvInt("PIPELINE_MAX_RETRIES", 3),
			Parallelism:     getEnvInt("PIPELINE_PARALLELISM", 4),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Environment: getEnv("ENVIRONMENT", "development"),
	}

	if cfg.Database.URL == "" {
		return Config{}, fmt.Errorf("DATABASE_URL is required")
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}
