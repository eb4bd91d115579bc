package rag

import "leetmentor/llm"

// EventType identifies one record in the streaming event protocol.
type EventType string

const (
	// EventCached carries the full cached response; emitted alone on a
	// cache hit and terminal.
	EventCached EventType = "cached"
	// EventSources carries the resolved source list; emitted once before
	// any token on a cache miss.
	EventSources EventType = "sources"
	// EventToken carries one text fragment, in generation order.
	EventToken EventType = "token"
	// EventSummary carries the final summary, after the last token.
	EventSummary EventType = "summary"
	// EventEnd carries the full response and is always the final event of
	// a successful stream.
	EventEnd EventType = "end"
	// EventError is terminal; no events follow it.
	EventError EventType = "error"
)

// Event is one record of a streaming response. Exactly the fields for its
// type are populated; everything else stays empty.
type Event struct {
	Type     EventType            `json:"type"`
	Response *llm.ChatResponse    `json:"response,omitempty"`
	Sources  []llm.SourceDocument `json:"sources,omitempty"`
	Token    string               `json:"token,omitempty"`
	Summary  string               `json:"summary,omitempty"`
	Error    string               `json:"error,omitempty"`
}

// EmitFunc receives stream events in order. Returning an error stops the
// stream; the pipeline propagates it to the caller.
type EmitFunc func(Event) error

// ErrorEvent builds the terminal error record for a failed stream.
func ErrorEvent(err error) Event {
	msg := "generation failed"
	if err != nil {
		msg = err.Error()
	}
	return Event{Type: EventError, Error: msg}
}
