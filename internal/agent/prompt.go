// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package agent

import (
	"bytes"
	"text/template"

	"github.com/pdiddy/research-agent/pkg/types"
)

// relevancePromptTmpl filters one page down to the text that bears on the query.
var relevancePromptTmpl = template.Must(template.New("relevance").Parse(
	`Extract only the most relevant information to the query '{{.Query}}' from this text. Be concise and include key points only, nothing extra or irrelevant:

{{.Text}}`))

var summaryPromptTmpl = template.Must(template.New("summary").Parse(
	`Summarize this relevant content for the query '{{.Query}}' in a few key points:

{{.Text}}`))

// reportPromptTmpl embeds every source summary in order.
var reportPromptTmpl = template.Must(template.New("report").Parse(
	`Create a short, structured report for the query '{{.Query}}' based on these source summaries. Use bullet points for key findings and include source links at the end:
{{range .Summaries}}
Source: {{.Source}}
Summary: {{.KeyPoints}}
{{end}}`))

// degradedPromptTmpl is used when no source produced a summary.
var degradedPromptTmpl = template.Must(template.New("degraded").Parse(
	`No usable web sources could be retrieved for the query '{{.Query}}'. Create a short, structured report from general knowledge only. Use bullet points for key findings. State clearly that the information is limited and unverified. Do not invent sources, links or citations.`))

type promptData struct {
	Query     string
	Text      string
	Summaries []types.Summary
}

func render(t *template.Template, data promptData) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
