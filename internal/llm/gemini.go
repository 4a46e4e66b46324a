// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/pdiddy/research-agent/pkg/types"
)

const defaultGeminiModel = "gemini-2.0-flash"

// generateFunc matches genai's Models.GenerateContent so tests can stub it.
type generateFunc func(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)

// Gemini generates text with the Google Gemini API.
type Gemini struct {
	Model     string
	MaxTokens int

	generate generateFunc
}

// NewGemini creates a Gemini client for the Gemini Developer API.
func NewGemini(ctx context.Context, cfg types.AIConfig) (*Gemini, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating Gemini client: %w", err)
	}

	model := cfg.Model
	if model == "" {
		model = defaultGeminiModel
	}
	return &Gemini{
		Model:     model,
		MaxTokens: cfg.MaxTokens,
		generate:  client.Models.GenerateContent,
	}, nil
}

// Generate sends prompt as a single user turn and returns the joined text
// of the first candidate.
func (g *Gemini) Generate(ctx context.Context, prompt string) (string, error) {
	var config *genai.GenerateContentConfig
	if g.MaxTokens > 0 {
		config = &genai.GenerateContentConfig{MaxOutputTokens: int32(g.MaxTokens)}
	}

	resp, err := g.generate(ctx, g.Model, genai.Text(prompt), config)
	if err != nil {
		return "", fmt.Errorf("calling Gemini API: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}
