// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"
	"time"
)

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout bounds a single request, including reading the body.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "research-agent/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// SearchProvider identifies the web search backend.
type SearchProvider string

const (
	SearchTavily     SearchProvider = "tavily"
	SearchDuckDuckGo SearchProvider = "duckduckgo"
)

// SearchConfig holds settings for source discovery and replacement search.
type SearchConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// Provider selects the search backend: tavily or duckduckgo.
	Provider SearchProvider `json:"provider" yaml:"provider" mapstructure:"provider"`

	// APIKey authenticates against the provider (Tavily only).
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`

	// BaseURL overrides the provider endpoint. Empty uses the provider default.
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty" mapstructure:"base_url"`

	// MaxResults is the number of candidates requested during discovery (default 5).
	MaxResults int `json:"max_results" yaml:"max_results" mapstructure:"max_results"`

	// ReplacementResults is the number of candidates requested when looking
	// for a replacement source (default 2).
	ReplacementResults int `json:"replacement_results" yaml:"replacement_results" mapstructure:"replacement_results"`

	// MaxRetries is the number of HTTP 429 backoff attempts (default 2).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`
}

// FetchConfig holds settings for downloading candidate pages.
type FetchConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// MaxBytes caps the response body size (default 10 MiB).
	MaxBytes int64 `json:"max_bytes" yaml:"max_bytes" mapstructure:"max_bytes"`
}

// LLMProvider identifies the generative model backend.
type LLMProvider string

const (
	LLMGemini    LLMProvider = "gemini"
	LLMAnthropic LLMProvider = "anthropic"
)

// AIConfig holds settings for stages that call a generative model.
type AIConfig struct {
	// Provider selects the model backend: gemini or anthropic.
	Provider LLMProvider `json:"provider" yaml:"provider" mapstructure:"provider"`

	// Model is the model identifier (e.g. "gemini-2.0-flash").
	Model string `json:"model" yaml:"model" mapstructure:"model"`

	// APIKey is the authentication key for the model API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`

	// RequestsPerMinute paces model calls. Zero disables pacing.
	RequestsPerMinute float64 `json:"requests_per_minute" yaml:"requests_per_minute" mapstructure:"requests_per_minute"`

	// MaxTokens caps the response length where the provider requires it.
	MaxTokens int `json:"max_tokens" yaml:"max_tokens" mapstructure:"max_tokens"`
}

// PipelineConfig holds the orchestrator budgets.
type PipelineConfig struct {
	// TargetSources is the minimum number of successful extractions the
	// pipeline tries to collect before summarizing (default 3).
	TargetSources int `json:"target_sources" yaml:"target_sources" mapstructure:"target_sources"`

	// MaxTextChars truncates decoded page text before relevance filtering
	// (default 50000).
	MaxTextChars int `json:"max_text_chars" yaml:"max_text_chars" mapstructure:"max_text_chars"`
}

// StoreConfig holds settings for the report history database.
type StoreConfig struct {
	// Path is the SQLite database file (default "research.db").
	Path string `json:"path" yaml:"path" mapstructure:"path"`
}

// ServerConfig holds settings for the HTTP transport.
type ServerConfig struct {
	// Addr is the listen address (default ":5000").
	Addr string `json:"addr" yaml:"addr" mapstructure:"addr"`
}

// Config groups all settings for the research agent.
type Config struct {
	Search   SearchConfig   `json:"search" yaml:"search" mapstructure:"search"`
	Fetch    FetchConfig    `json:"fetch" yaml:"fetch" mapstructure:"fetch"`
	AI       AIConfig       `json:"ai" yaml:"ai" mapstructure:"ai"`
	Pipeline PipelineConfig `json:"pipeline" yaml:"pipeline" mapstructure:"pipeline"`
	Store    StoreConfig    `json:"store" yaml:"store" mapstructure:"store"`
	Server   ServerConfig   `json:"server" yaml:"server" mapstructure:"server"`
	LogLevel string         `json:"log_level" yaml:"log_level" mapstructure:"log_level"`
}

const defaultUserAgent = "research-agent/0.1"

// DefaultConfig returns the configuration used when nothing is overridden.
func DefaultConfig() Config {
	return Config{
		Search: SearchConfig{
			HTTPConfig:         HTTPConfig{Timeout: 15 * time.Second, UserAgent: defaultUserAgent},
			Provider:           SearchTavily,
			MaxResults:         5,
			ReplacementResults: 2,
			MaxRetries:         2,
		},
		Fetch: FetchConfig{
			HTTPConfig: HTTPConfig{Timeout: 10 * time.Second, UserAgent: defaultUserAgent},
			MaxBytes:   10 << 20,
		},
		AI: AIConfig{
			Provider:          LLMGemini,
			Model:             "gemini-2.0-flash",
			RequestsPerMinute: 15,
			MaxTokens:         4096,
		},
		Pipeline: PipelineConfig{
			TargetSources: 3,
			MaxTextChars:  50000,
		},
		Store:    StoreConfig{Path: "research.db"},
		Server:   ServerConfig{Addr: ":5000"},
		LogLevel: "info",
	}
}

// Validate reports the first setting that cannot drive a pipeline run.
func (c Config) Validate() error {
	switch c.Search.Provider {
	case SearchTavily, SearchDuckDuckGo:
	default:
		return fmt.Errorf("unknown search provider %q", c.Search.Provider)
	}
	switch c.AI.Provider {
	case LLMGemini, LLMAnthropic:
	default:
		return fmt.Errorf("unknown ai provider %q", c.AI.Provider)
	}
	if c.Search.MaxResults <= 0 {
		return fmt.Errorf("search.max_results must be positive, got %d", c.Search.MaxResults)
	}
	if c.Search.ReplacementResults <= 0 {
		return fmt.Errorf("search.replacement_results must be positive, got %d", c.Search.ReplacementResults)
	}
	if c.Pipeline.TargetSources <= 0 {
		return fmt.Errorf("pipeline.target_sources must be positive, got %d", c.Pipeline.TargetSources)
	}
	if c.Pipeline.MaxTextChars <= 0 {
		return fmt.Errorf("pipeline.max_text_chars must be positive, got %d", c.Pipeline.MaxTextChars)
	}
	if c.Fetch.Timeout <= 0 {
		return fmt.Errorf("fetch.timeout must be positive, got %v", c.Fetch.Timeout)
	}
	if c.AI.RequestsPerMinute < 0 {
		return fmt.Errorf("ai.requests_per_minute must not be negative, got %v", c.AI.RequestsPerMinute)
	}
	return nil
}

// Redacted returns a copy with API keys masked, for display.
func (c Config) Redacted() Config {
	mask := func(s string) string {
		if s == "" {
			return ""
		}
		return "********"
	}
	c.Search.APIKey = mask(c.Search.APIKey)
	c.AI.APIKey = mask(c.AI.APIKey)
	return c
}
