// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/research-agent/internal/httputil"
	"github.com/pdiddy/research-agent/pkg/types"
)

const tavilyDefaultBaseURL = "https://api.tavily.com"

// Tavily searches the web through the Tavily search API.
type Tavily struct {
	Config types.SearchConfig
	Client *http.Client
	Log    *zap.Logger
}

// NewTavily returns a Tavily provider. The API key is required.
func NewTavily(cfg types.SearchConfig, log *zap.Logger) (*Tavily, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("tavily: API key is required (search.api_key or .secrets/tavily-api-key)")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Tavily{
		Config: cfg,
		Client: &http.Client{Timeout: timeout},
		Log:    log,
	}, nil
}

// Name returns "tavily".
func (t *Tavily) Name() string { return string(types.SearchTavily) }

type tavilyRequest struct {
	Query          string   `json:"query"`
	MaxResults     int      `json:"max_results,omitempty"`
	SearchDepth    string   `json:"search_depth,omitempty"`
	ExcludeDomains []string `json:"exclude_domains,omitempty"`
}

type tavilyResponse struct {
	Results []tavilyResult `json:"results"`
}

type tavilyResult struct {
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}

// Search posts the query to /search and returns the results in rank order.
func (t *Tavily) Search(ctx context.Context, req Request) ([]types.Candidate, error) {
	body, err := json.Marshal(tavilyRequest{
		Query:          req.Query,
		MaxResults:     req.MaxResults,
		SearchDepth:    "basic",
		ExcludeDomains: req.ExcludeDomains,
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	base := t.Config.BaseURL
	if base == "" {
		base = tavilyDefaultBaseURL
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(base, "/")+"/search", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+t.Config.APIKey)
	if t.Config.UserAgent != "" {
		httpReq.Header.Set("User-Agent", t.Config.UserAgent)
	}

	client := t.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := httputil.DoWithRetry(ctx, client, httpReq, t.Config.MaxRetries, t.Log)
	if err != nil {
		return nil, fmt.Errorf("tavily request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("tavily returned HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var tr tavilyResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return nil, fmt.Errorf("decoding tavily response: %w", err)
	}

	candidates := make([]types.Candidate, 0, len(tr.Results))
	for _, r := range tr.Results {
		candidates = append(candidates, types.Candidate{
			URL:     r.URL,
			Title:   r.Title,
			Snippet: r.Content,
			Score:   r.Score,
		})
	}
	return candidates, nil
}
