// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package llm sends single-turn text prompts to a generative model. The
// pipeline uses it for relevance filtering, summarization, and synthesis.
package llm

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/pdiddy/research-agent/pkg/types"
)

// ErrEmptyResponse is returned when the model answers with no text.
var ErrEmptyResponse = errors.New("model returned an empty response")

// Generator turns a prompt into generated text.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// New builds the Generator selected by cfg.Provider, paced to
// cfg.RequestsPerMinute when that is positive.
func New(ctx context.Context, cfg types.AIConfig, log *zap.Logger) (Generator, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%s: API key is required (ai.api_key or .secrets/%s-api-key)", cfg.Provider, cfg.Provider)
	}

	var g Generator
	switch cfg.Provider {
	case types.LLMGemini, "":
		gem, err := NewGemini(ctx, cfg)
		if err != nil {
			return nil, err
		}
		g = gem
	case types.LLMAnthropic:
		g = &Anthropic{APIKey: cfg.APIKey, Model: cfg.Model, MaxTokens: cfg.MaxTokens}
	default:
		return nil, fmt.Errorf("unknown ai provider %q", cfg.Provider)
	}

	log.Debug("model client ready",
		zap.String("provider", string(cfg.Provider)),
		zap.String("model", cfg.Model),
		zap.Float64("requests_per_minute", cfg.RequestsPerMinute))

	if cfg.RequestsPerMinute > 0 {
		g = NewRateLimited(g, cfg.RequestsPerMinute)
	}
	return g, nil
}
