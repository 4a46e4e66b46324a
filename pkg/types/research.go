// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the research pipeline:
// discovered candidates, extractions, summaries, the progress event stream,
// and stored reports.
package types

import (
	"fmt"
	"time"
)

// Candidate is a web location returned by a search provider, not yet
// verified extractable. Candidates keep provider rank order.
type Candidate struct {
	// URL is the location of the page or document.
	URL string `json:"url" yaml:"url"`

	// Title is the result title as returned by the provider, if any.
	Title string `json:"title,omitempty" yaml:"title,omitempty"`

	// Snippet is the provider's short excerpt, if any.
	Snippet string `json:"snippet,omitempty" yaml:"snippet,omitempty"`

	// Score is the provider relevance score, zero when not reported.
	Score float64 `json:"score,omitempty" yaml:"score,omitempty"`
}

// Extraction is the relevance-filtered text pulled from one candidate.
type Extraction struct {
	// Source is the citation recorded for this extraction. For a replaced
	// candidate it is a provenance note naming both locations.
	Source string `json:"source" yaml:"source"`

	// Location is the URL the text was actually extracted from.
	Location string `json:"location" yaml:"location"`

	// OriginalLocation is the discovered candidate that failed, set only
	// when WasReplaced is true.
	OriginalLocation string `json:"original_location,omitempty" yaml:"original_location,omitempty"`

	// Text is the relevance-filtered content. Never empty.
	Text string `json:"text" yaml:"text"`

	// WasReplaced reports whether the text came from a replacement source.
	WasReplaced bool `json:"was_replaced" yaml:"was_replaced"`
}

// ReplacementSource formats the provenance note recorded for a replacement.
func ReplacementSource(replacement, original string) string {
	return fmt.Sprintf("%s (replacement for original %s)", replacement, original)
}

// Summary holds the key points condensed from one extraction.
type Summary struct {
	// Source is copied from the Extraction it summarizes.
	Source string `json:"source" yaml:"source"`

	// KeyPoints is the summarizer output.
	KeyPoints string `json:"key_points" yaml:"key_points"`
}

// StoredReport is one completed run in the report history.
type StoredReport struct {
	ID        string    `json:"id" yaml:"id"`
	Query     string    `json:"query" yaml:"query"`
	Report    string    `json:"report" yaml:"report"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
}
