// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads API keys from a directory of plain-text files. The
// filename is the key name and the trimmed file contents are the value.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/research-agent/pkg/types"
)

// Key file names understood by Apply.
const (
	GeminiKey    = "gemini-api-key"
	TavilyKey    = "tavily-api-key"
	AnthropicKey = "anthropic-api-key"
)

// Secrets maps key names to values.
type Secrets map[string]string

// Load reads every regular, non-hidden file in dir. A missing directory is
// not an error and yields an empty set. Unreadable files are logged and
// skipped.
func Load(dir string, log *zap.Logger) (Secrets, error) {
	if log == nil {
		log = zap.NewNop()
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return Secrets{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	s := make(Secrets)
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		name := entry.Name()

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			log.Warn("could not read secret", zap.String("name", name), zap.Error(err))
			continue
		}
		if v := strings.TrimSpace(string(data)); v != "" {
			s[name] = v
		}
	}
	return s, nil
}

// Names returns the loaded key names in sorted order.
func (s Secrets) Names() []string {
	names := make([]string, 0, len(s))
	for k := range s {
		names = append(names, k)
	}
	slices.Sort(names)
	return names
}

// Apply fills API keys that cfg leaves empty. Explicit config and
// environment values win over files.
func (s Secrets) Apply(cfg *types.Config) {
	if cfg.Search.APIKey == "" && cfg.Search.Provider == types.SearchTavily {
		cfg.Search.APIKey = s[TavilyKey]
	}
	if cfg.AI.APIKey == "" {
		switch cfg.AI.Provider {
		case types.LLMAnthropic:
			cfg.AI.APIKey = s[AnthropicKey]
		default:
			cfg.AI.APIKey = s[GeminiKey]
		}
	}
}
