package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 3, cfg.Pipeline.TargetSources)
	assert.Equal(t, 50000, cfg.Pipeline.MaxTextChars)
	assert.Equal(t, 5, cfg.Search.MaxResults)
	assert.Equal(t, 2, cfg.Search.ReplacementResults)
	assert.Equal(t, 10*time.Second, cfg.Fetch.Timeout)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"search provider", func(c *Config) { c.Search.Provider = "bing" }, "unknown search provider"},
		{"ai provider", func(c *Config) { c.AI.Provider = "" }, "unknown ai provider"},
		{"max results", func(c *Config) { c.Search.MaxResults = 0 }, "search.max_results"},
		{"replacement results", func(c *Config) { c.Search.ReplacementResults = -1 }, "search.replacement_results"},
		{"target sources", func(c *Config) { c.Pipeline.TargetSources = 0 }, "pipeline.target_sources"},
		{"max text chars", func(c *Config) { c.Pipeline.MaxTextChars = 0 }, "pipeline.max_text_chars"},
		{"fetch timeout", func(c *Config) { c.Fetch.Timeout = 0 }, "fetch.timeout"},
		{"rpm", func(c *Config) { c.AI.RequestsPerMinute = -1 }, "ai.requests_per_minute"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.want)
		})
	}
}

func TestRedacted(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AI.APIKey = "secret"

	red := cfg.Redacted()
	assert.Equal(t, "********", red.AI.APIKey)
	assert.Empty(t, red.Search.APIKey)
	assert.Equal(t, "secret", cfg.AI.APIKey, "original untouched")
}
