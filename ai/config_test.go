package ai

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg := NewConfig()
		assert.Equal(t, "http://localhost:11434/v1", cfg.Host)
		assert.Equal(t, "embeddinggemma", cfg.Model)
		assert.Equal(t, 60*time.Second, cfg.Timeout)
	})

	t.Run("options override defaults", func(t *testing.T) {
		cfg := NewConfig(
			WithHost("http://embedding.internal:9100"),
			WithModel("text-embedding-3-small"),
			WithTimeout(5*time.Second),
		)
		assert.Equal(t, "http://embedding.internal:9100", cfg.Host)
		assert.Equal(t, "text-embedding-3-small", cfg.Model)
		assert.Equal(t, 5*time.Second, cfg.Timeout)
	})
}

func TestConfigNormalize(t *testing.T) {
	tests := []struct {
		name string
		host string
		want string
	}{
		{"adds v1 suffix", "http://localhost:11434", "http://localhost:11434/v1"},
		{"strips trailing slash before suffix", "http://localhost:11434/", "http://localhost:11434/v1"},
		{"keeps existing suffix", "http://localhost:11434/v1", "http://localhost:11434/v1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig(WithHost(tt.host))
			cfg.Normalize()
			assert.Equal(t, tt.want, cfg.Host)
		})
	}
}

func TestConfigValidate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		require.NoError(t, NewConfig().Validate())
	})

	t.Run("missing host", func(t *testing.T) {
		cfg := NewConfig(WithHost(""))
		assert.Error(t, cfg.Validate())
	})

	t.Run("missing model", func(t *testing.T) {
		cfg := NewConfig(WithModel(""))
		assert.Error(t, cfg.Validate())
	})

	t.Run("negative timeout", func(t *testing.T) {
		cfg := NewConfig(WithTimeout(-time.Second))
		assert.Error(t, cfg.Validate())
	})
}
