// Package rag orchestrates retrieval-augmented answer generation: cache
// check, slug-scoped retrieval, prompt assembly, answer and summary
// generation, and write-through caching. It exposes a buffered entry point
// (Ask) and a streaming one (AskStream) sharing the same stage functions.
package rag

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/rs/zerolog"

	"leetmentor/cache"
	"leetmentor/llm"
)

const (
	// historyTurnsForRetrieval is how many trailing conversation turns
	// augment the retrieval query.
	historyTurnsForRetrieval = 3

	// snippetLimit caps the length of a source snippet in bytes.
	snippetLimit = 500
)

// Retriever performs slug-scoped vector search.
type Retriever interface {
	Search(ctx context.Context, slug, query string, additionalContext []string) ([]llm.DocumentChunk, error)
}

// ResponseCache stores finished responses under content-derived keys.
type ResponseCache interface {
	Get(ctx context.Context, key string) (*llm.ChatResponse, bool, error)
	Set(ctx context.Context, key string, resp *llm.ChatResponse) error
}

// Config holds the collaborators a Pipeline needs. All of them are
// constructed once at process start and injected; the pipeline keeps no
// other state between requests.
type Config struct {
	Retriever    Retriever
	Cache        ResponseCache
	ChatModel    model.BaseChatModel
	SummaryModel model.BaseChatModel
	Logger       zerolog.Logger
}

// Pipeline answers learner questions about a problem using retrieved
// reference material. Safe for concurrent use; per-request state lives in
// a State value local to each call.
type Pipeline struct {
	retriever       Retriever
	cache           ResponseCache
	chatModel       model.BaseChatModel
	summaryModel    model.BaseChatModel
	answerTemplate  prompt.ChatTemplate
	summaryTemplate prompt.ChatTemplate
	logger          zerolog.Logger
}

// New creates a Pipeline from the given collaborators.
func New(cfg Config) (*Pipeline, error) {
	if cfg.Retriever == nil {
		return nil, fmt.Errorf("retriever is required")
	}
	if cfg.Cache == nil {
		return nil, fmt.Errorf("cache is required")
	}
	if cfg.ChatModel == nil {
		return nil, fmt.Errorf("chat model is required")
	}
	if cfg.SummaryModel == nil {
		cfg.SummaryModel = cfg.ChatModel
	}

	return &Pipeline{
		retriever:       cfg.Retriever,
		cache:           cfg.Cache,
		chatModel:       cfg.ChatModel,
		summaryModel:    cfg.SummaryModel,
		answerTemplate:  newAnswerTemplate(),
		summaryTemplate: newSummaryTemplate(),
		logger:          cfg.Logger,
	}, nil
}

// Ask runs the buffered pipeline for one request.
func (p *Pipeline) Ask(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	key := cacheKey(req)

	if cached, ok, err := p.cache.Get(ctx, key); err != nil {
		return nil, err
	} else if ok {
		p.logger.Debug().Str("slug", req.Problem.Slug).Msg("cache hit")
		return cached, nil
	}

	state, err := p.retrieve(ctx, newState(req))
	if err != nil {
		return nil, err
	}

	messages, err := p.answerTemplate.Format(ctx, promptVariables(state))
	if err != nil {
		return nil, fmt.Errorf("format prompt: %w", err)
	}

	out, err := p.chatModel.Generate(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}

	state = state.
		WithAnswer(MessageText(out)).
		WithSources(sourcesFromContext(state.Context))

	state, err = p.summarize(ctx, state)
	if err != nil {
		return nil, err
	}

	resp := state.response()
	if err := p.cache.Set(ctx, key, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// AskStream runs the streaming pipeline, forwarding each event through emit
// in protocol order. On failure it returns the error without emitting a
// terminal event; the caller owns the error record.
func (p *Pipeline) AskStream(ctx context.Context, req llm.ChatRequest, emit EmitFunc) error {
	key := cacheKey(req)

	if cached, ok, err := p.cache.Get(ctx, key); err != nil {
		return err
	} else if ok {
		p.logger.Debug().Str("slug", req.Problem.Slug).Msg("cache hit (stream)")
		return emit(Event{Type: EventCached, Response: cached})
	}

	state, err := p.retrieve(ctx, newState(req))
	if err != nil {
		return err
	}

	sources := sourcesFromContext(state.Context)
	if err := emit(Event{Type: EventSources, Sources: sources}); err != nil {
		return err
	}

	answer, err := p.streamAnswer(ctx, state, emit)
	if err != nil {
		return err
	}

	state = state.WithAnswer(answer).WithSources(sources)

	state, err = p.summarize(ctx, state)
	if err != nil {
		return err
	}
	if err := emit(Event{Type: EventSummary, Summary: state.Summary}); err != nil {
		return err
	}

	resp := state.response()
	if err := p.cache.Set(ctx, key, resp); err != nil {
		return err
	}
	return emit(Event{Type: EventEnd, Response: resp})
}

// retrieve executes the RETRIEVE stage: slug-scoped vector search with the
// problem description and the last few history turns as extra context.
func (p *Pipeline) retrieve(ctx context.Context, state State) (State, error) {
	var additional []string
	if state.Problem.Description != "" {
		additional = append(additional, state.Problem.Description)
	}
	history := state.History
	if len(history) > historyTurnsForRetrieval {
		history = history[len(history)-historyTurnsForRetrieval:]
	}
	for _, message := range history {
		additional = append(additional, message.Content)
	}

	chunks, err := p.retriever.Search(ctx, state.Problem.Slug, state.Question, additional)
	if err != nil {
		return state, fmt.Errorf("retrieve context: %w", err)
	}
	p.logger.Debug().Str("slug", state.Problem.Slug).Int("chunks", len(chunks)).Msg("retrieved context")
	return state.WithContext(chunks), nil
}

// streamAnswer consumes the model's fragment stream, forwarding each text
// fragment as a token event and accumulating the full answer. The reader
// is closed on every exit path, including cancellation.
func (p *Pipeline) streamAnswer(ctx context.Context, state State, emit EmitFunc) (string, error) {
	messages, err := p.answerTemplate.Format(ctx, promptVariables(state))
	if err != nil {
		return "", fmt.Errorf("format prompt: %w", err)
	}

	reader, err := p.chatModel.Stream(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("start answer stream: %w", err)
	}
	defer reader.Close()

	var answer []byte
	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
		}

		msg, err := reader.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("answer stream: %w", err)
		}

		fragment := MessageText(msg)
		if fragment == "" {
			continue
		}
		answer = append(answer, fragment...)
		if err := emit(Event{Type: EventToken, Token: fragment}); err != nil {
			return "", err
		}
	}
	return string(answer), nil
}

// summarize executes the SUMMARIZE stage. Always a buffered call, never a
// stream, regardless of how the answer was generated.
func (p *Pipeline) summarize(ctx context.Context, state State) (State, error) {
	messages, err := p.summaryTemplate.Format(ctx, summaryVariables(state))
	if err != nil {
		return state, fmt.Errorf("format summary prompt: %w", err)
	}

	out, err := p.summaryModel.Generate(ctx, messages)
	if err != nil {
		return state, fmt.Errorf("generate summary: %w", err)
	}
	return state.WithSummary(MessageText(out)), nil
}

// cacheKey derives the request's cache key from the semantic content of
// slug, question and history.
func cacheKey(req llm.ChatRequest) string {
	history := make([]any, 0, len(req.History))
	for _, message := range req.History {
		history = append(history, map[string]any{
			"role":    message.Role,
			"content": message.Content,
		})
	}
	return cache.BuildKey(req.Problem.Slug, map[string]any{
		"question": req.Question,
		"history":  history,
	})
}

// sourcesFromContext derives the source list once from retrieved chunks.
// Both pipeline paths use it, so the result is identical either way.
func sourcesFromContext(chunks []llm.DocumentChunk) []llm.SourceDocument {
	sources := make([]llm.SourceDocument, 0, len(chunks))
	for _, chunk := range chunks {
		snippet := chunk.Content
		if len(snippet) > snippetLimit {
			snippet = snippet[:snippetLimit]
		}

		metadata := make(map[string]any, len(chunk.Metadata)+1)
		for k, v := range chunk.Metadata {
			metadata[k] = v
		}
		metadata["distance"] = math.Round(chunk.Distance*10000) / 10000

		sources = append(sources, llm.SourceDocument{
			Title:    chunk.Title,
			Snippet:  snippet,
			Metadata: metadata,
		})
	}
	return sources
}
