package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "knowledge_snapshot.json", cfg.Knowledge.Snapshot)
	assert.Equal(t, "index_cache", cfg.Storage.Dir)
	assert.Equal(t, "assessment_checklists", cfg.Checklist.Dir)
	assert.Equal(t, "http://localhost:11434/v1", cfg.Embedding.Host)
	assert.Equal(t, "embeddinggemma", cfg.Embedding.Model)
	assert.Equal(t, 60, cfg.Embedding.TimeoutSeconds)
	assert.Equal(t, 32, cfg.Embedding.BatchSize)
	assert.Equal(t, 100, cfg.Search.TopK)
}

func TestLoad_YAMLFile(t *testing.T) {
	path := writeConfig(t, `
knowledge:
  snapshot: /data/snapshot.json
embedding:
  host: http://embed.internal:8080/v1
  model: nomic-embed-text
search:
  top_k: 25
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/data/snapshot.json", cfg.Knowledge.Snapshot)
	assert.Equal(t, "http://embed.internal:8080/v1", cfg.Embedding.Host)
	assert.Equal(t, "nomic-embed-text", cfg.Embedding.Model)
	assert.Equal(t, 25, cfg.Search.TopK)
	assert.Equal(t, "index_cache", cfg.Storage.Dir, "defaults still apply to unset keys")
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
embedding:
  model: nomic-embed-text
`)
	t.Setenv("COMPLIQ_EMBEDDING_MODEL", "embeddinggemma")
	t.Setenv("COMPLIQ_SEARCH_TOP_K", "10")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "embeddinggemma", cfg.Embedding.Model)
	assert.Equal(t, 10, cfg.Search.TopK)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 100, cfg.Search.TopK)
}

func TestLoad_MalformedYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "embedding: ["))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty host", func(c *Config) { c.Embedding.Host = "" }},
		{"empty model", func(c *Config) { c.Embedding.Model = "" }},
		{"negative timeout", func(c *Config) { c.Embedding.TimeoutSeconds = -1 }},
		{"zero batch size", func(c *Config) { c.Embedding.BatchSize = 0 }},
		{"zero top k", func(c *Config) { c.Search.TopK = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load("")
			require.NoError(t, err)
			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}
}

func TestAIConfig(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	aiCfg := cfg.AIConfig()
	assert.Equal(t, cfg.Embedding.Host, aiCfg.Host)
	assert.Equal(t, cfg.Embedding.Model, aiCfg.Model)
	require.NoError(t, aiCfg.Validate())
}
