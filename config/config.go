// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package config loads session configuration from YAML and environment
// variables.
//
// Precedence, highest first: COMPLIQ_* environment variables, the YAML
// config file, built-in defaults. Environment variables map onto config
// keys by section, e.g. COMPLIQ_EMBEDDING_HOST -> embedding.host and
// COMPLIQ_SEARCH_TOP_K -> search.top_k.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"

	"github.com/poiesic/compliq/ai"
)

const envPrefix = "COMPLIQ_"

// Config is the full session configuration.
type Config struct {
	Knowledge KnowledgeConfig `koanf:"knowledge"`
	Storage   StorageConfig   `koanf:"storage"`
	Checklist ChecklistConfig `koanf:"checklist"`
	Embedding EmbeddingConfig `koanf:"embedding"`
	Search    SearchConfig    `koanf:"search"`
}

// KnowledgeConfig locates the ingestion snapshot.
type KnowledgeConfig struct {
	Snapshot string `koanf:"snapshot"`
}

// StorageConfig locates the persisted index cache.
type StorageConfig struct {
	Dir string `koanf:"dir"`
}

// ChecklistConfig locates exported checklists.
type ChecklistConfig struct {
	Dir string `koanf:"dir"`
}

// EmbeddingConfig names the embedding provider endpoint and model.
type EmbeddingConfig struct {
	Host           string `koanf:"host"`
	Model          string `koanf:"model"`
	TimeoutSeconds int    `koanf:"timeout_seconds"`
	BatchSize      int    `koanf:"batch_size"`
}

// SearchConfig tunes retrieval.
type SearchConfig struct {
	TopK int `koanf:"top_k"`
}

// Load reads configuration from the given YAML file, if it exists, then
// overrides with COMPLIQ_* environment variables and applies defaults.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if configPath != "" {
		content, err := os.ReadFile(configPath)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("reading config file %s: %w", configPath, err)
			}
		} else if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		// COMPLIQ_EMBEDDING_TIMEOUT_SECONDS -> embedding.timeout_seconds
		lower := strings.ToLower(strings.TrimPrefix(s, envPrefix))
		parts := strings.SplitN(lower, "_", 2)
		if len(parts) == 1 {
			return lower
		}
		return parts[0] + "." + parts[1]
	}), nil); err != nil {
		return nil, fmt.Errorf("loading environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Knowledge.Snapshot == "" {
		cfg.Knowledge.Snapshot = "knowledge_snapshot.json"
	}
	if cfg.Storage.Dir == "" {
		cfg.Storage.Dir = "index_cache"
	}
	if cfg.Checklist.Dir == "" {
		cfg.Checklist.Dir = "assessment_checklists"
	}

	defaults := ai.DefaultConfig()
	if cfg.Embedding.Host == "" {
		cfg.Embedding.Host = defaults.Host
	}
	if cfg.Embedding.Model == "" {
		cfg.Embedding.Model = defaults.Model
	}
	if cfg.Embedding.TimeoutSeconds == 0 {
		cfg.Embedding.TimeoutSeconds = int(defaults.Timeout / time.Second)
	}
	if cfg.Embedding.BatchSize == 0 {
		cfg.Embedding.BatchSize = 32
	}
	if cfg.Search.TopK == 0 {
		cfg.Search.TopK = 100
	}
}

// Validate checks the configuration for unusable values.
func (c *Config) Validate() error {
	if c.Embedding.Host == "" {
		return fmt.Errorf("%w: embedding host", ErrInvalidConfig)
	}
	if c.Embedding.Model == "" {
		return fmt.Errorf("%w: embedding model", ErrInvalidConfig)
	}
	if c.Embedding.TimeoutSeconds < 0 {
		return fmt.Errorf("%w: embedding timeout must not be negative", ErrInvalidConfig)
	}
	if c.Embedding.BatchSize < 1 {
		return fmt.Errorf("%w: embedding batch size must be positive", ErrInvalidConfig)
	}
	if c.Search.TopK < 1 {
		return fmt.Errorf("%w: search top_k must be positive", ErrInvalidConfig)
	}
	return nil
}

// AIConfig converts the embedding settings into an ai.Config.
func (c *Config) AIConfig() *ai.Config {
	return ai.NewConfig(
		ai.WithHost(c.Embedding.Host),
		ai.WithModel(c.Embedding.Model),
		ai.WithTimeout(time.Duration(c.Embedding.TimeoutSeconds)*time.Second),
	)
}
