package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

// Load reads configuration from a YAML file.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg AppConfig
	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

// Default returns a usable configuration without a config file: memory
// store, default pool and retry settings.
func Default() *AppConfig {
	cfg := &AppConfig{}
	cfg.applyDefaults()
	return cfg
}

func (cfg *AppConfig) applyDefaults() {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Workers.Count == 0 {
		cfg.Workers.Count = 4
	}
	if cfg.Workers.FetchTimeout == 0 {
		cfg.Workers.FetchTimeout = 45 * time.Second
	}
	if cfg.Workers.ExtractTimeout == 0 {
		cfg.Workers.ExtractTimeout = 15 * time.Second
	}
	if cfg.Workers.MinDelay == 0 {
		cfg.Workers.MinDelay = time.Second
	}
	if cfg.Workers.MaxDelay == 0 {
		cfg.Workers.MaxDelay = 3 * time.Second
	}
	if cfg.Retry.BaseDelay == 0 {
		cfg.Retry.BaseDelay = 2 * time.Second
	}
	if cfg.Retry.MaxDelay == 0 {
		cfg.Retry.MaxDelay = time.Minute
	}
	if cfg.Retry.Multiplier == 0 {
		cfg.Retry.Multiplier = 2.0
	}
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry.MaxAttempts = 5
	}
	if cfg.Dedupe.SimilarityThreshold == 0 {
		cfg.Dedupe.SimilarityThreshold = 0.85
	}
	if len(cfg.Discovery.Terms) == 0 {
		cfg.Discovery.Terms = []string{
			"UK art open call",
			"art exhibition submission UK",
		}
	}
	if cfg.Discovery.YearFrom == 0 {
		cfg.Discovery.YearFrom = time.Now().Year()
	}
	if cfg.Discovery.YearTo < cfg.Discovery.YearFrom {
		cfg.Discovery.YearTo = cfg.Discovery.YearFrom
	}
}
