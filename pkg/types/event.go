// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// EventType tags a pipeline event.
type EventType string

const (
	EventProgress EventType = "progress"
	EventReport   EventType = "report"
	EventError    EventType = "error"
)

// Event is one element of a run's ordered output stream. Zero or more
// progress events are followed by exactly one report or error event.
type Event struct {
	Type EventType `json:"type" yaml:"type"`

	// Message is set for progress and error events.
	Message string `json:"message,omitempty" yaml:"message,omitempty"`

	// Details carries structured progress data (stage, source, counts).
	Details map[string]any `json:"details,omitempty" yaml:"details,omitempty"`

	// Report is set for the report event only.
	Report string `json:"report,omitempty" yaml:"report,omitempty"`
}

// Terminal reports whether e ends the stream.
func (e Event) Terminal() bool {
	return e.Type == EventReport || e.Type == EventError
}

// Stage returns the details["stage"] code of a progress event, or "".
func (e Event) Stage() string {
	s, _ := e.Details["stage"].(string)
	return s
}

// ProgressEvent builds a progress event.
func ProgressEvent(message string, details map[string]any) Event {
	return Event{Type: EventProgress, Message: message, Details: details}
}

// ReportEvent builds the terminal report event.
func ReportEvent(report string) Event {
	return Event{Type: EventReport, Report: report}
}

// ErrorEvent builds the terminal error event.
func ErrorEvent(message string) Event {
	return Event{Type: EventError, Message: message}
}
