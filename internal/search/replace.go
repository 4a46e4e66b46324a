// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/research-agent/pkg/types"
)

const defaultReplacementResults = 2

// Origin returns the host of location without a leading "www.", or "" when
// the location has no host.
func Origin(location string) string {
	u, err := url.Parse(location)
	if err != nil {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	return strings.TrimPrefix(host, "www.")
}

// FindReplacement searches once for a substitute for a failed location.
// The search excludes the failed location's origin and requests max
// results (2 when max is not positive). It returns the first candidate that
// is neither the failed location nor hosted on the excluded origin. There
// is no retry: a search error or no distinct candidate reports false.
func FindReplacement(ctx context.Context, p Provider, query, failed string, max int, log *zap.Logger) (types.Candidate, bool) {
	if log == nil {
		log = zap.NewNop()
	}
	if max <= 0 {
		max = defaultReplacementResults
	}

	req := Request{Query: query, MaxResults: max}
	origin := Origin(failed)
	if origin != "" {
		req.ExcludeDomains = []string{origin}
	}

	results, err := p.Search(ctx, req)
	if err != nil {
		log.Warn("replacement search failed",
			zap.String("failed", failed),
			zap.String("provider", p.Name()),
			zap.Error(err))
		return types.Candidate{}, false
	}

	for _, c := range normalize(results, 0) {
		if c.URL == failed {
			continue
		}
		if origin != "" && Origin(c.URL) == origin {
			continue
		}
		return c, true
	}
	return types.Candidate{}, false
}
