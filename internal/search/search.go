// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package search discovers candidate web sources for a query and finds
// replacements for candidates that could not be extracted.
package search

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/research-agent/pkg/types"
)

// Provider searches the web. Each backend (Tavily, DuckDuckGo) implements
// this interface.
type Provider interface {
	Name() string
	Search(ctx context.Context, req Request) ([]types.Candidate, error)
}

// Request holds the search parameters.
type Request struct {
	Query      string
	MaxResults int

	// ExcludeDomains lists hosts whose pages must not be returned. Providers
	// apply it natively where supported.
	ExcludeDomains []string
}

// Discover runs the query against the provider and returns up to max
// candidates in rank order. A provider failure is logged and yields no
// candidates; callers treat that the same as an empty result.
func Discover(ctx context.Context, p Provider, query string, max int, log *zap.Logger) []types.Candidate {
	if log == nil {
		log = zap.NewNop()
	}

	results, err := p.Search(ctx, Request{Query: query, MaxResults: max})
	if err != nil {
		log.Warn("source discovery failed",
			zap.String("provider", p.Name()),
			zap.String("query", query),
			zap.Error(err))
		return nil
	}

	candidates := normalize(results, max)
	log.Debug("sources discovered",
		zap.String("provider", p.Name()),
		zap.Int("count", len(candidates)))
	return candidates
}

// normalize drops blank and repeated locations, keeping the first
// occurrence, and truncates to max when max is positive.
func normalize(results []types.Candidate, max int) []types.Candidate {
	seen := make(map[string]bool, len(results))
	out := make([]types.Candidate, 0, len(results))
	for _, r := range results {
		r.URL = strings.TrimSpace(r.URL)
		if r.URL == "" || seen[r.URL] {
			continue
		}
		seen[r.URL] = true
		out = append(out, r)
		if max > 0 && len(out) == max {
			break
		}
	}
	return out
}
