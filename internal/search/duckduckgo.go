// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/pdiddy/research-agent/internal/httputil"
	"github.com/pdiddy/research-agent/pkg/types"
)

const duckDuckGoDefaultBaseURL = "https://html.duckduckgo.com"

// DuckDuckGo scrapes the DuckDuckGo HTML endpoint. It needs no API key.
type DuckDuckGo struct {
	Config types.SearchConfig
	Client *http.Client
	Log    *zap.Logger
}

// NewDuckDuckGo returns a keyless search provider.
func NewDuckDuckGo(cfg types.SearchConfig, log *zap.Logger) *DuckDuckGo {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &DuckDuckGo{Config: cfg, Client: &http.Client{Timeout: timeout}, Log: log}
}

// Name returns "duckduckgo".
func (d *DuckDuckGo) Name() string { return string(types.SearchDuckDuckGo) }

// Search queries the HTML endpoint. Excluded domains become -site: terms.
func (d *DuckDuckGo) Search(ctx context.Context, req Request) ([]types.Candidate, error) {
	q := buildDuckDuckGoQuery(req)

	base := d.Config.BaseURL
	if base == "" {
		base = duckDuckGoDefaultBaseURL
	}
	searchURL := fmt.Sprintf("%s/html/?q=%s", strings.TrimRight(base, "/"), url.QueryEscape(q))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")
	httpReq.Header.Set("Accept", "text/html,application/xhtml+xml")
	httpReq.Header.Set("Accept-Language", "en-US,en;q=0.5")

	client := d.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := httputil.DoWithRetry(ctx, client, httpReq, d.Config.MaxRetries, d.Log)
	if err != nil {
		return nil, fmt.Errorf("duckduckgo request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("duckduckgo returned HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("reading duckduckgo response: %w", err)
	}

	return parseDuckDuckGoResults(string(body), req.MaxResults)
}

func buildDuckDuckGoQuery(req Request) string {
	parts := []string{req.Query}
	for _, d := range req.ExcludeDomains {
		parts = append(parts, "-site:"+d)
	}
	return strings.Join(parts, " ")
}

// parseDuckDuckGoResults extracts result links from the HTML page. A
// maxResults of zero or less returns every result.
func parseDuckDuckGoResults(page string, maxResults int) ([]types.Candidate, error) {
	doc, err := html.Parse(strings.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("parsing duckduckgo HTML: %w", err)
	}

	var results []types.Candidate
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if maxResults > 0 && len(results) >= maxResults {
			return
		}
		if n.Type == html.ElementNode && n.Data == "div" && hasClass(n, "result") && !hasClass(n, "result--ad") {
			if c := extractDuckDuckGoResult(n); c.URL != "" {
				results = append(results, c)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return results, nil
}

func extractDuckDuckGoResult(n *html.Node) types.Candidate {
	var c types.Candidate
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			switch {
			case hasClass(n, "result__a"):
				c.URL = unwrapRedirect(attr(n, "href"))
				c.Title = textContent(n)
			case hasClass(n, "result__snippet"):
				c.Snippet = textContent(n)
			}
		}
		for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
			walk(ch)
		}
	}
	walk(n)
	return c
}

// unwrapRedirect turns a //duckduckgo.com/l/?uddg=<target> link into the
// target URL.
func unwrapRedirect(href string) string {
	if !strings.Contains(href, "duckduckgo.com/l/") {
		return href
	}
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if target := u.Query().Get("uddg"); target != "" {
		return target
	}
	return href
}

func hasClass(n *html.Node, class string) bool {
	for _, f := range strings.Fields(attr(n, "class")) {
		if f == class {
			return true
		}
	}
	return false
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(sb.String()), " ")
}
