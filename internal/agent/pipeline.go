// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pdiddy/research-agent/internal/search"
	"github.com/pdiddy/research-agent/pkg/types"
)

// Progress stage codes carried in details["stage"].
const (
	StageSearchStart       = "search.start"
	StageSearchDone        = "search.done"
	StageExtractStart      = "extract.start"
	StageExtractDone       = "extract.done"
	StageExtractFailed     = "extract.failed"
	StageExtractAdditional = "extract.additional"
	StageSummarizeStart    = "summarize.start"
	StageSummarizeDone     = "summarize.done"
	StageSummarizeFailed   = "summarize.failed"
	StageSynthesizeStart   = "synthesize.start"
)

// Run validates query and starts a pipeline run. Events arrive on the
// returned channel in the order the work happens; the channel is unbuffered
// so the run advances only as fast as the consumer reads. The channel is
// closed after the terminal event. If ctx is cancelled the run stops before
// its next external call and the channel is closed without a terminal event.
//
// An empty query returns ErrInvalidInput and no channel.
func (a *Agent) Run(ctx context.Context, query string) (<-chan types.Event, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrInvalidInput
	}

	id := uuid.NewString()
	r := &run{
		agent: a,
		id:    id,
		query: query,
		out:   make(chan types.Event),
		log:   a.log.With(zap.String("run_id", id), zap.String("query", query)),
	}
	go func() {
		defer close(r.out)
		r.execute(ctx)
	}()
	return r.out, nil
}

// Collect drains ch and returns every event received.
func Collect(ch <-chan types.Event) []types.Event {
	var events []types.Event
	for ev := range ch {
		events = append(events, ev)
	}
	return events
}

// run is the state of one pipeline invocation.
type run struct {
	agent *Agent
	id    string
	query string
	out   chan types.Event
	log   *zap.Logger
}

func (r *run) execute(ctx context.Context) {
	start := time.Now()
	a := r.agent

	// Discovering
	if !r.progress(ctx, StageSearchStart, fmt.Sprintf("Searching for sources on %q", r.query), nil) {
		return
	}
	candidates := search.Discover(ctx, a.search, r.query, a.maxResults, r.log)
	if ctx.Err() != nil {
		return
	}
	locations := make([]string, len(candidates))
	for i, c := range candidates {
		locations[i] = c.URL
	}
	if !r.progress(ctx, StageSearchDone, fmt.Sprintf("Found %d candidate sources", len(candidates)), map[string]any{
		"count":   len(candidates),
		"sources": locations,
	}) {
		return
	}

	// ExtractingInitialBatch, then ExtractingAdditional
	extractions, ok := r.extractAll(ctx, candidates)
	if !ok {
		return
	}

	// Summarizing
	summaries, ok := r.summarizeAll(ctx, extractions)
	if !ok {
		return
	}

	// Synthesizing
	msg := fmt.Sprintf("Writing report from %d sources", len(summaries))
	if len(summaries) == 0 {
		msg = "No usable sources; writing report from limited information"
	}
	if !r.progress(ctx, StageSynthesizeStart, msg, map[string]any{
		"summaries": len(summaries),
		"degraded":  len(summaries) == 0,
	}) {
		return
	}

	report, err := a.Synthesize(ctx, r.query, summaries)
	if ctx.Err() != nil {
		return
	}
	if err != nil {
		r.log.Error("run failed", zap.String("stage", "synthesize"), zap.Error(err))
		r.send(ctx, types.ErrorEvent(err.Error()))
		return
	}

	if !r.send(ctx, types.ReportEvent(report)) {
		return
	}
	r.log.Info("run complete",
		zap.Int("candidates", len(candidates)),
		zap.Int("extractions", len(extractions)),
		zap.Int("summaries", len(summaries)),
		zap.Duration("elapsed", time.Since(start)))

	r.persist(ctx, report)
}

// extractAll consumes candidates in discovery order until the target count
// of extractions is reached or the candidates run out. The first target
// candidates form the initial batch; any further candidate is an additional
// attempt, announced once. It returns false if the run was cancelled.
func (r *run) extractAll(ctx context.Context, candidates []types.Candidate) ([]types.Extraction, bool) {
	target := r.agent.targetSources
	initial := min(target, len(candidates))

	var extractions []types.Extraction
	for i := 0; i < len(candidates) && len(extractions) < target; i++ {
		if i == initial {
			remaining := len(candidates) - i
			if !r.progress(ctx, StageExtractAdditional,
				fmt.Sprintf("Only %d of %d sources usable; trying %d more", len(extractions), target, remaining),
				map[string]any{"extracted": len(extractions), "target": target, "remaining": remaining}) {
				return nil, false
			}
		}

		c := candidates[i]
		if !r.progress(ctx, StageExtractStart, fmt.Sprintf("Extracting content from %s", c.URL), map[string]any{
			"source": c.URL,
			"index":  i + 1,
			"total":  len(candidates),
		}) {
			return nil, false
		}

		att := r.agent.Extract(ctx, c, r.query)
		if ctx.Err() != nil {
			return nil, false
		}

		if ext := att.Extraction; ext != nil {
			extractions = append(extractions, *ext)
			msg := fmt.Sprintf("Extracted content from %s", ext.Location)
			if ext.WasReplaced {
				msg = fmt.Sprintf("Extracted content from replacement %s (original %s failed)", ext.Location, c.URL)
			}
			if !r.progress(ctx, StageExtractDone, msg, map[string]any{
				"source":       ext.Source,
				"location":     ext.Location,
				"was_replaced": ext.WasReplaced,
				"extracted":    len(extractions),
			}) {
				return nil, false
			}
			continue
		}

		details := map[string]any{
			"source":            c.URL,
			"replacement_tried": att.ReplacementTried,
			"error":             att.Err().Error(),
		}
		if att.Replacement != "" {
			details["replacement"] = att.Replacement
		}
		if !r.progress(ctx, StageExtractFailed, fmt.Sprintf("Could not extract content from %s", c.URL), details) {
			return nil, false
		}
	}
	return extractions, true
}

// summarizeAll summarizes every extraction in order, dropping failures.
func (r *run) summarizeAll(ctx context.Context, extractions []types.Extraction) ([]types.Summary, bool) {
	var summaries []types.Summary
	for _, ext := range extractions {
		if !r.progress(ctx, StageSummarizeStart, fmt.Sprintf("Summarizing %s", ext.Location), map[string]any{
			"source": ext.Source,
		}) {
			return nil, false
		}

		s, err := r.agent.Summarize(ctx, ext, r.query)
		if ctx.Err() != nil {
			return nil, false
		}
		if err != nil {
			r.log.Warn("summary dropped", zap.String("stage", "summarize"), zap.String("source", ext.Source), zap.Error(err))
			if !r.progress(ctx, StageSummarizeFailed, fmt.Sprintf("Could not summarize %s", ext.Location), map[string]any{
				"source": ext.Source,
				"error":  err.Error(),
			}) {
				return nil, false
			}
			continue
		}

		summaries = append(summaries, s)
		if !r.progress(ctx, StageSummarizeDone, fmt.Sprintf("Summarized %s", ext.Location), map[string]any{
			"source": ext.Source,
		}) {
			return nil, false
		}
	}
	return summaries, true
}

// persist appends the finished report. It runs after the report event has
// been delivered and is not cut short by a later cancellation.
func (r *run) persist(ctx context.Context, report string) {
	rec := r.agent.recorder
	if rec == nil {
		return
	}
	err := rec.Append(context.WithoutCancel(ctx), types.StoredReport{
		ID:        r.id,
		Query:     r.query,
		Report:    report,
		Timestamp: r.agent.now().UTC(),
	})
	if err != nil {
		r.log.Warn("storing report failed", zap.Error(err))
	}
}

func (r *run) progress(ctx context.Context, stage, message string, details map[string]any) bool {
	d := make(map[string]any, len(details)+2)
	for k, v := range details {
		d[k] = v
	}
	d["stage"] = stage
	d["run_id"] = r.id
	return r.send(ctx, types.ProgressEvent(message, d))
}

// send delivers ev unless ctx is cancelled first.
func (r *run) send(ctx context.Context, ev types.Event) bool {
	if ctx.Err() != nil {
		return false
	}
	select {
	case r.out <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}
