package rag

import "leetmentor/llm"

// State threads one request through the pipeline stages. Stages never
// mutate a shared record: each one returns a copy with only its own fields
// set, so the buffered and streaming paths can share stage functions.
type State struct {
	Question string
	Problem  llm.Problem
	History  []llm.Message

	Context []llm.DocumentChunk
	Answer  string
	Summary string
	Sources []llm.SourceDocument
}

func newState(req llm.ChatRequest) State {
	return State{
		Question: req.Question,
		Problem:  req.Problem,
		History:  req.History,
	}
}

// WithContext returns a copy of the state with retrieved chunks attached.
func (s State) WithContext(chunks []llm.DocumentChunk) State {
	s.Context = chunks
	return s
}

// WithAnswer returns a copy of the state with the generated answer set.
func (s State) WithAnswer(answer string) State {
	s.Answer = answer
	return s
}

// WithSummary returns a copy of the state with the summary set.
func (s State) WithSummary(summary string) State {
	s.Summary = summary
	return s
}

// WithSources returns a copy of the state with resolved sources attached.
func (s State) WithSources(sources []llm.SourceDocument) State {
	s.Sources = sources
	return s
}

func (s State) response() *llm.ChatResponse {
	sources := s.Sources
	if sources == nil {
		sources = []llm.SourceDocument{}
	}
	return &llm.ChatResponse{
		Success: true,
		Answer:  s.Answer,
		Summary: s.Summary,
		Sources: sources,
	}
}
