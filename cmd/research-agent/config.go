// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/research-agent/internal/agent"
	"github.com/pdiddy/research-agent/internal/convert"
	"github.com/pdiddy/research-agent/internal/fetch"
	"github.com/pdiddy/research-agent/internal/llm"
	"github.com/pdiddy/research-agent/internal/search"
	"github.com/pdiddy/research-agent/internal/secrets"
	"github.com/pdiddy/research-agent/internal/store"
	"github.com/pdiddy/research-agent/pkg/types"
)

// optionalKeys are omitted from the marshaled defaults but must still be
// known to viper so that environment variables can set them.
var optionalKeys = []string{"search.api_key", "search.base_url", "ai.api_key"}

// setDefaults registers every field of types.DefaultConfig with v under its
// dotted mapstructure key.
func setDefaults(v *viper.Viper) error {
	data, err := yaml.Marshal(types.DefaultConfig())
	if err != nil {
		return fmt.Errorf("marshaling defaults: %w", err)
	}
	var tree map[string]any
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return fmt.Errorf("unmarshaling defaults: %w", err)
	}
	for key, val := range flatten("", tree) {
		v.SetDefault(key, val)
	}
	for _, key := range optionalKeys {
		v.SetDefault(key, "")
	}
	return nil
}

func flatten(prefix string, tree map[string]any) map[string]any {
	out := make(map[string]any)
	for k, val := range tree {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if sub, ok := val.(map[string]any); ok {
			for sk, sv := range flatten(key, sub) {
				out[sk] = sv
			}
			continue
		}
		out[key] = val
	}
	return out
}

// loadConfig resolves the configuration from v, fills API keys from s, and
// validates the result.
func loadConfig(v *viper.Viper, s secrets.Secrets) (types.Config, error) {
	cfg := types.DefaultConfig()
	if err := v.Unmarshal(&cfg); err != nil {
		return types.Config{}, fmt.Errorf("decoding config: %w", err)
	}
	s.Apply(&cfg)
	if err := cfg.Validate(); err != nil {
		return types.Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// newProvider returns the search provider selected by cfg.
func newProvider(cfg types.SearchConfig, log *zap.Logger) (search.Provider, error) {
	switch cfg.Provider {
	case types.SearchDuckDuckGo:
		return search.NewDuckDuckGo(cfg, log), nil
	default:
		return search.NewTavily(cfg, log)
	}
}

// buildAgent wires every collaborator from cfg. The caller closes the store.
func buildAgent(ctx context.Context, cfg types.Config, log *zap.Logger) (*agent.Agent, *store.Store, error) {
	provider, err := newProvider(cfg.Search, log)
	if err != nil {
		return nil, nil, err
	}

	gen, err := llm.New(ctx, cfg.AI, log)
	if err != nil {
		return nil, nil, err
	}

	st, err := store.Open(cfg.Store)
	if err != nil {
		return nil, nil, err
	}

	a, err := agent.New(agent.Deps{
		Search:    provider,
		Fetcher:   fetch.NewHTTPFetcher(cfg.Fetch),
		Decoder:   convert.NewPipeline(),
		Generator: gen,
		Recorder:  st,
		Log:       log,
	}, cfg)
	if err != nil {
		st.Close()
		return nil, nil, err
	}
	return a, st, nil
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect the resolved configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the resolved configuration as YAML with API keys masked",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := types.DefaultConfig()
		if err := viper.Unmarshal(&cfg); err != nil {
			return fmt.Errorf("decoding config: %w", err)
		}
		loadedSecrets.Apply(&cfg)

		enc := yaml.NewEncoder(os.Stdout)
		enc.SetIndent(2)
		defer enc.Close()
		if err := enc.Encode(cfg.Redacted()); err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			fmt.Fprintln(os.Stderr, "warning:", err)
		}
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(configCmd)
}
