// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package convert derives raw text from fetched documents. PDFs are decoded
// page by page; everything else goes through a structured HTML extractor
// with a readability pass as fallback.
package convert

import (
	"errors"
	"fmt"
	"mime"
	"net/url"
	"strings"
)

// ErrEmptyContent is returned when no decoder produced any text.
var ErrEmptyContent = errors.New("no text content")

// Format is the decoding strategy chosen for a document.
type Format string

const (
	FormatPDF   Format = "pdf"
	FormatHTML  Format = "html"
	FormatPlain Format = "plain"
)

// Decoder turns a document body into text. An empty string with a nil
// error means the decoder found nothing usable.
type Decoder interface {
	Decode(body []byte, location string) (string, error)
}

// ClassifyFormat picks the format from the location suffix, falling back on
// the response content type. The query string and fragment are ignored.
func ClassifyFormat(location, contentType string) Format {
	path := location
	if u, err := url.Parse(location); err == nil && u.Path != "" {
		path = u.Path
	}
	if strings.HasSuffix(strings.ToLower(path), ".pdf") {
		return FormatPDF
	}

	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return FormatHTML
	}
	switch mediaType {
	case "application/pdf":
		return FormatPDF
	case "text/plain", "text/markdown":
		return FormatPlain
	default:
		return FormatHTML
	}
}

// Pipeline routes a document to the decoder for its format.
type Pipeline struct {
	PDF      Decoder
	HTML     Decoder
	Fallback Decoder
}

// NewPipeline wires the default decoders.
func NewPipeline() *Pipeline {
	return &Pipeline{
		PDF:      PDFDecoder{},
		HTML:     HTMLDecoder{},
		Fallback: ReadabilityDecoder{},
	}
}

// Extract returns the document text. It returns ErrEmptyContent when every
// applicable decoder came back empty.
func (p *Pipeline) Extract(location, contentType string, body []byte) (string, error) {
	switch ClassifyFormat(location, contentType) {
	case FormatPDF:
		text, err := p.PDF.Decode(body, location)
		if err != nil {
			return "", fmt.Errorf("decoding PDF: %w", err)
		}
		return nonEmpty(text)

	case FormatPlain:
		return nonEmpty(string(body))

	default:
		text, primaryErr := p.HTML.Decode(body, location)
		if strings.TrimSpace(text) != "" {
			return strings.TrimSpace(text), nil
		}
		if p.Fallback == nil {
			if primaryErr != nil {
				return "", fmt.Errorf("decoding HTML: %w", primaryErr)
			}
			return "", ErrEmptyContent
		}
		text, err := p.Fallback.Decode(body, location)
		if err != nil {
			return "", fmt.Errorf("readability fallback: %w", errors.Join(err, primaryErr))
		}
		return nonEmpty(text)
	}
}

func nonEmpty(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyContent
	}
	return text, nil
}
