// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/pdiddy/research-agent/internal/search"
	"github.com/pdiddy/research-agent/pkg/types"
)

// ExtractAttempt records what happened while extracting one candidate.
type ExtractAttempt struct {
	// Extraction is nil when both the candidate and any replacement failed.
	Extraction *types.Extraction

	// Original is the discovered candidate location.
	Original string

	// Replacement is the substitute location tried after the original
	// failed, or "" if none was found.
	Replacement string

	// ReplacementTried reports whether a replacement search ran.
	ReplacementTried bool

	// Errors holds one entry per failed step, in order.
	Errors []error
}

// Err joins the recorded failures, or returns nil on success.
func (a ExtractAttempt) Err() error {
	if a.Extraction != nil {
		return nil
	}
	return errors.Join(a.Errors...)
}

// Extract pulls query-relevant text from c. If the candidate fails for any
// reason, one replacement is searched for (excluding the failed origin) and
// tried in its place. There is never a third attempt.
func (a *Agent) Extract(ctx context.Context, c types.Candidate, query string) ExtractAttempt {
	att := ExtractAttempt{Original: c.URL}
	location := c.URL

	for attempt := 0; attempt < 2; attempt++ {
		if err := ctx.Err(); err != nil {
			att.Errors = append(att.Errors, err)
			return att
		}

		text, err := a.extractOnce(ctx, location, query)
		if err == nil {
			ext := &types.Extraction{Source: location, Location: location, Text: text}
			if attempt > 0 {
				ext.WasReplaced = true
				ext.OriginalLocation = c.URL
				ext.Source = types.ReplacementSource(location, c.URL)
			}
			att.Extraction = ext
			return att
		}

		att.Errors = append(att.Errors, fmt.Errorf("%s: %w", location, err))
		a.log.Warn("extraction failed",
			zap.String("stage", "extract"),
			zap.String("source", location),
			zap.Bool("replacement", attempt > 0),
			zap.Error(err))

		if attempt > 0 || ctx.Err() != nil {
			break
		}

		att.ReplacementTried = true
		repl, ok := search.FindReplacement(ctx, a.search, query, c.URL, a.replacementResults, a.log)
		if !ok {
			att.Errors = append(att.Errors, ErrNoReplacement)
			break
		}
		att.Replacement = repl.URL
		location = repl.URL
		a.log.Info("trying replacement source",
			zap.String("failed", c.URL),
			zap.String("replacement", repl.URL))
	}
	return att
}

// extractOnce runs fetch, decode, truncate and relevance filtering for one
// location. Any failure is returned for the caller to handle.
func (a *Agent) extractOnce(ctx context.Context, location, query string) (string, error) {
	doc, err := a.fetcher.Fetch(ctx, location)
	if err != nil {
		return "", fmt.Errorf("fetching: %w", err)
	}

	text, err := a.decoder.Extract(doc.Location, doc.ContentType, doc.Body)
	if err != nil {
		return "", fmt.Errorf("decoding: %w", err)
	}
	if strings.TrimSpace(text) == "" {
		return "", ErrNoContent
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}

	prompt, err := render(relevancePromptTmpl, promptData{
		Query: query,
		Text:  truncateRunes(text, a.maxTextChars),
	})
	if err != nil {
		return "", fmt.Errorf("rendering prompt: %w", err)
	}

	relevant, err := a.generator.Generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("filtering relevant text: %w", err)
	}
	relevant = strings.TrimSpace(relevant)
	if relevant == "" {
		return "", ErrNoContent
	}
	return relevant, nil
}

// truncateRunes keeps at most max characters of s without splitting a
// multi-byte character.
func truncateRunes(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	n := 0
	for i := range s {
		if n == max {
			return s[:i]
		}
		n++
	}
	return s
}
