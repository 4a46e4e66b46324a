// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package agent runs the research pipeline: it discovers candidate sources,
// extracts query-relevant text (substituting a replacement source once when
// a candidate fails), summarizes each extraction, and synthesizes a cited
// report. A run is exposed as an ordered stream of progress events ending
// in exactly one report or error event.
package agent

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/research-agent/internal/fetch"
	"github.com/pdiddy/research-agent/internal/llm"
	"github.com/pdiddy/research-agent/internal/search"
	"github.com/pdiddy/research-agent/pkg/types"
)

// TextExtractor turns a fetched body into plain text.
// *convert.Pipeline satisfies it.
type TextExtractor interface {
	Extract(location, contentType string, body []byte) (string, error)
}

// Recorder appends completed reports to the history.
type Recorder interface {
	Append(ctx context.Context, r types.StoredReport) error
}

// Deps are the collaborators an Agent calls. Recorder and Log are optional.
type Deps struct {
	Search    search.Provider
	Fetcher   fetch.Fetcher
	Decoder   TextExtractor
	Generator llm.Generator
	Recorder  Recorder
	Log       *zap.Logger

	// Now stamps stored reports. Defaults to time.Now.
	Now func() time.Time
}

// Agent is the long-lived handle shared by every pipeline run. It holds no
// per-run state, so one Agent serves concurrent runs.
type Agent struct {
	search    search.Provider
	fetcher   fetch.Fetcher
	decoder   TextExtractor
	generator llm.Generator
	recorder  Recorder
	log       *zap.Logger
	now       func() time.Time

	maxResults         int
	replacementResults int
	targetSources      int
	maxTextChars       int
}

// New builds an Agent from its collaborators and the search and pipeline
// budgets in cfg. Zero budgets fall back to types.DefaultConfig.
func New(d Deps, cfg types.Config) (*Agent, error) {
	switch {
	case d.Search == nil:
		return nil, errors.New("agent: search provider is required")
	case d.Fetcher == nil:
		return nil, errors.New("agent: fetcher is required")
	case d.Decoder == nil:
		return nil, errors.New("agent: decoder is required")
	case d.Generator == nil:
		return nil, errors.New("agent: generator is required")
	}

	def := types.DefaultConfig()
	a := &Agent{
		search:             d.Search,
		fetcher:            d.Fetcher,
		decoder:            d.Decoder,
		generator:          d.Generator,
		recorder:           d.Recorder,
		log:                d.Log,
		now:                d.Now,
		maxResults:         orDefault(cfg.Search.MaxResults, def.Search.MaxResults),
		replacementResults: orDefault(cfg.Search.ReplacementResults, def.Search.ReplacementResults),
		targetSources:      orDefault(cfg.Pipeline.TargetSources, def.Pipeline.TargetSources),
		maxTextChars:       orDefault(cfg.Pipeline.MaxTextChars, def.Pipeline.MaxTextChars),
	}
	if a.log == nil {
		a.log = zap.NewNop()
	}
	if a.now == nil {
		a.now = time.Now
	}
	return a, nil
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
