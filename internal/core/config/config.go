package config

import (
	"time"

	"github.com/artscout/artscout/internal/discovery"
	redisclient "github.com/artscout/artscout/internal/infra/redis"
	"github.com/artscout/artscout/internal/infra/storage/postgres"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Server    ServerConfig       `yaml:"server"`
	Workers   WorkerConfig       `yaml:"workers"`
	Retry     RetryConfig        `yaml:"retry"`
	Dedupe    DedupeConfig       `yaml:"dedupe"`
	Discovery discovery.Config   `yaml:"discovery"`
	Redis     redisclient.Config `yaml:"redis"`
	Logging   LoggingConfig      `yaml:"logging"`
	Database  postgres.Config    `yaml:"database"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}

// WorkerConfig sizes and paces the worker pool.
type WorkerConfig struct {
	Count          int           `yaml:"count"`
	FetchTimeout   time.Duration `yaml:"fetch_timeout"`
	ExtractTimeout time.Duration `yaml:"extract_timeout"`
	MinDelay       time.Duration `yaml:"min_delay"`
	MaxDelay       time.Duration `yaml:"max_delay"`
}

// RetryConfig holds the backoff policy for transient task failures.
type RetryConfig struct {
	BaseDelay   time.Duration `yaml:"base_delay"`
	MaxDelay    time.Duration `yaml:"max_delay"`
	Multiplier  float64       `yaml:"multiplier"`
	MaxAttempts int           `yaml:"max_attempts"`
}

// DedupeConfig tunes duplicate detection.
type DedupeConfig struct {
	SimilarityThreshold float64 `yaml:"similarity_threshold"`
}
