// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"bytes"
	"fmt"
	"net/url"

	"github.com/go-shiori/go-readability"
)

// ReadabilityDecoder runs the Readability article heuristics over the page.
// It is the fallback when structured extraction finds nothing.
type ReadabilityDecoder struct{}

// Decode returns the text content of the main article, if one is found.
func (ReadabilityDecoder) Decode(body []byte, location string) (string, error) {
	pageURL, err := url.Parse(location)
	if err != nil {
		return "", fmt.Errorf("parsing location %s: %w", location, err)
	}

	article, err := readability.FromReader(bytes.NewReader(body), pageURL)
	if err != nil {
		return "", fmt.Errorf("readability %s: %w", location, err)
	}
	return cleanText(article.TextContent), nil
}
