// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/pdiddy/research-agent/pkg/types"
)

// LimitedInfoNotice prefixes every report synthesized without sources.
const LimitedInfoNotice = "> **Limited information:** no usable sources could be retrieved for this query. " +
	"This report was generated without source material and cites no sources."

// Summarize condenses one extraction into key points for the query.
func (a *Agent) Summarize(ctx context.Context, ext types.Extraction, query string) (types.Summary, error) {
	prompt, err := render(summaryPromptTmpl, promptData{Query: query, Text: ext.Text})
	if err != nil {
		return types.Summary{}, fmt.Errorf("rendering prompt: %w", err)
	}

	points, err := a.generator.Generate(ctx, prompt)
	if err != nil {
		return types.Summary{}, fmt.Errorf("summarizing %s: %w", ext.Source, err)
	}
	points = strings.TrimSpace(points)
	if points == "" {
		return types.Summary{}, fmt.Errorf("summarizing %s: %w", ext.Source, ErrNoContent)
	}
	return types.Summary{Source: ext.Source, KeyPoints: points}, nil
}

// Synthesize writes the final report from the summaries in order. With no
// summaries it asks for a general-knowledge report and prefixes it with
// LimitedInfoNotice. Errors wrap ErrSynthesis.
func (a *Agent) Synthesize(ctx context.Context, query string, summaries []types.Summary) (string, error) {
	tmpl := reportPromptTmpl
	if len(summaries) == 0 {
		tmpl = degradedPromptTmpl
	}

	prompt, err := render(tmpl, promptData{Query: query, Summaries: summaries})
	if err != nil {
		return "", fmt.Errorf("%w: rendering prompt: %w", ErrSynthesis, err)
	}

	report, err := a.generator.Generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrSynthesis, err)
	}
	report = strings.TrimSpace(report)
	if report == "" {
		return "", fmt.Errorf("%w: %w", ErrSynthesis, ErrNoContent)
	}

	if len(summaries) == 0 {
		report = LimitedInfoNotice + "\n\n" + report
	}
	return report, nil
}
