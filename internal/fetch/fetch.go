// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fetch downloads candidate locations for content extraction.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pdiddy/research-agent/pkg/types"
)

// Document is a fetched location with its raw body.
type Document struct {
	Location    string
	ContentType string
	Body        []byte
}

// Fetcher retrieves the raw bytes behind a location.
type Fetcher interface {
	Fetch(ctx context.Context, location string) (*Document, error)
}

// StatusError reports a non-2xx response.
type StatusError struct {
	Code int
	URL  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d from %s", e.Code, e.URL)
}

// HTTPFetcher fetches locations over HTTP with a per-request timeout.
type HTTPFetcher struct {
	Client *http.Client
	Config types.FetchConfig
}

// NewHTTPFetcher returns a fetcher with its own client. Redirects are
// followed by the client.
func NewHTTPFetcher(cfg types.FetchConfig) *HTTPFetcher {
	return &HTTPFetcher{Client: &http.Client{}, Config: cfg}
}

// Fetch GETs location, bounded by Config.Timeout. Network failures and
// non-2xx statuses are errors; the body is capped at Config.MaxBytes.
func (f *HTTPFetcher) Fetch(ctx context.Context, location string) (*Document, error) {
	timeout := f.Config.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if f.Config.UserAgent != "" {
		req.Header.Set("User-Agent", f.Config.UserAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/pdf;q=0.9,text/plain;q=0.8,*/*;q=0.5")

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", location, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Code: resp.StatusCode, URL: location}
	}

	maxBytes := f.Config.MaxBytes
	if maxBytes <= 0 {
		maxBytes = 10 << 20
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBytes))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", location, err)
	}

	return &Document{
		Location:    location,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
	}, nil
}
