package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/research-agent/internal/agent"
	"github.com/pdiddy/research-agent/internal/secrets"
	"github.com/pdiddy/research-agent/pkg/types"
)

func newTestViper(t *testing.T) *viper.Viper {
	t.Helper()
	v := viper.New()
	v.SetEnvPrefix("RESEARCH_AGENT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	require.NoError(t, setDefaults(v))
	return v
}

var testSecrets = secrets.Secrets{secrets.GeminiKey: "gm", secrets.TavilyKey: "tv"}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := loadConfig(newTestViper(t), testSecrets)
	require.NoError(t, err)

	want := types.DefaultConfig()
	want.Search.APIKey = "tv"
	want.AI.APIKey = "gm"
	assert.Equal(t, want, cfg)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("RESEARCH_AGENT_SEARCH_MAX_RESULTS", "8")
	t.Setenv("RESEARCH_AGENT_SEARCH_TIMEOUT", "3s")
	t.Setenv("RESEARCH_AGENT_PIPELINE_TARGET_SOURCES", "2")
	t.Setenv("RESEARCH_AGENT_AI_API_KEY", "from-env")
	t.Setenv("RESEARCH_AGENT_STORE_PATH", "/tmp/x.db")

	cfg, err := loadConfig(newTestViper(t), testSecrets)
	require.NoError(t, err)

	assert.Equal(t, 8, cfg.Search.MaxResults)
	assert.Equal(t, 3*time.Second, cfg.Search.Timeout)
	assert.Equal(t, 2, cfg.Pipeline.TargetSources)
	assert.Equal(t, "from-env", cfg.AI.APIKey)
	assert.Equal(t, "/tmp/x.db", cfg.Store.Path)
}

func TestLoadConfig_EnvKeysWinOverSecrets(t *testing.T) {
	t.Setenv("RESEARCH_AGENT_SEARCH_API_KEY", "tv-env")
	t.Setenv("RESEARCH_AGENT_SEARCH_BASE_URL", "http://search.local")
	t.Setenv("RESEARCH_AGENT_AI_API_KEY", "gm-env")

	cfg, err := loadConfig(newTestViper(t), testSecrets)
	require.NoError(t, err)

	assert.Equal(t, "tv-env", cfg.Search.APIKey)
	assert.Equal(t, "http://search.local", cfg.Search.BaseURL)
	assert.Equal(t, "gm-env", cfg.AI.APIKey)
}

func TestLoadConfig_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "research-agent.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
search:
  provider: duckduckgo
  max_results: 4
ai:
  provider: anthropic
  requests_per_minute: 30
fetch:
  timeout: 20s
`), 0o644))

	v := newTestViper(t)
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	cfg, err := loadConfig(v, secrets.Secrets{secrets.AnthropicKey: "an"})
	require.NoError(t, err)
	assert.Equal(t, types.SearchDuckDuckGo, cfg.Search.Provider)
	assert.Equal(t, 4, cfg.Search.MaxResults)
	assert.Empty(t, cfg.Search.APIKey)
	assert.Equal(t, types.LLMAnthropic, cfg.AI.Provider)
	assert.Equal(t, "an", cfg.AI.APIKey)
	assert.Equal(t, 30.0, cfg.AI.RequestsPerMinute)
	assert.Equal(t, 20*time.Second, cfg.Fetch.Timeout)
	assert.Equal(t, 10*time.Second, types.DefaultConfig().Fetch.Timeout)
}

func TestLoadConfig_Invalid(t *testing.T) {
	t.Setenv("RESEARCH_AGENT_SEARCH_PROVIDER", "bing")
	_, err := loadConfig(newTestViper(t), testSecrets)
	assert.ErrorContains(t, err, "unknown search provider")
}

func TestFlatten(t *testing.T) {
	got := flatten("", map[string]any{
		"a": 1,
		"b": map[string]any{"c": "x", "d": map[string]any{"e": true}},
	})
	assert.Equal(t, map[string]any{"a": 1, "b.c": "x", "b.d.e": true}, got)
}

func TestNewProvider(t *testing.T) {
	p, err := newProvider(types.SearchConfig{Provider: types.SearchDuckDuckGo}, nil)
	require.NoError(t, err)
	assert.Equal(t, "duckduckgo", p.Name())

	_, err = newProvider(types.SearchConfig{Provider: types.SearchTavily}, nil)
	assert.Error(t, err, "tavily without a key")
}

func TestFormatProgress(t *testing.T) {
	failed := types.ProgressEvent("Could not extract content from https://a.example", map[string]any{
		"stage": agent.StageExtractFailed,
		"error": "https://a.example: fetching: HTTP 403\nno replacement source found",
	})
	line := formatProgress(failed)
	assert.Contains(t, line, "Could not extract content from https://a.example")
	assert.Contains(t, line, "HTTP 403")
	assert.NotContains(t, line, "no replacement")

	done := types.ProgressEvent("Extracted content from https://b.example", map[string]any{"stage": agent.StageExtractDone})
	assert.Contains(t, formatProgress(done), "Extracted content from https://b.example")
}

func TestFormatHistoryTable(t *testing.T) {
	var buf bytes.Buffer
	formatHistoryTable(&buf, nil)
	assert.Equal(t, "No reports saved yet.\n", buf.String())

	buf.Reset()
	formatHistoryTable(&buf, []types.StoredReport{
		{ID: "id-1", Query: strings.Repeat("long query ", 10), Timestamp: time.Now()},
		{ID: "id-2", Query: "short", Timestamp: time.Now()},
	})
	out := buf.String()
	assert.Contains(t, out, "id-1")
	assert.Contains(t, out, "...")
	assert.Contains(t, out, "short")
	assert.Contains(t, out, "2 reports")
}

func TestPrintReportPlain(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printReport(&buf, "# Title\n- point", false))
	assert.Equal(t, "# Title\n- point\n", buf.String())
}

func TestPrintReportRendered(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printReport(&buf, "# Title\n\n- point", true))
	assert.Contains(t, buf.String(), "Title")
	assert.Contains(t, buf.String(), "point")
}
