package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"leetmentor/llm"
	"leetmentor/rag"
)

// handleChat serves the buffered chat endpoint.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeChatRequest(w, r)
	if !ok {
		return
	}

	resp, err := s.chat.Ask(r.Context(), req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		s.logger.Error().Err(err).Str("slug", req.Problem.Slug).Msg("chat failed")
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// handleChatStream serves the streaming chat endpoint. The response is a
// sequence of newline-delimited JSON event records, flushed per event. A
// failure before the first byte becomes a plain HTTP error; after that it
// becomes a terminal error record.
func (s *Server) handleChatStream(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeChatRequest(w, r)
	if !ok {
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Accel-Buffering", "no")

	ctx := r.Context()
	wrote := false
	emit := func(event rag.Event) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err := json.NewEncoder(w).Encode(event); err != nil {
			return fmt.Errorf("write event: %w", err)
		}
		wrote = true
		flusher.Flush()
		return nil
	}

	if err := s.chat.AskStream(ctx, req, emit); err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		s.logger.Error().Err(err).Str("slug", req.Problem.Slug).Msg("chat stream failed")
		if !wrote {
			writeError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
		if encodeErr := json.NewEncoder(w).Encode(rag.ErrorEvent(err)); encodeErr == nil {
			flusher.Flush()
		}
	}
}

// decodeChatRequest parses and validates the request body shared by both
// chat endpoints. On failure it writes the error response and returns
// ok=false.
func (s *Server) decodeChatRequest(w http.ResponseWriter, r *http.Request) (llm.ChatRequest, bool) {
	var req llm.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, fmt.Sprintf("invalid request body: %v", err))
		return req, false
	}
	if strings.TrimSpace(req.Question) == "" {
		writeError(w, http.StatusUnprocessableEntity, "Question cannot be empty.")
		return req, false
	}
	if req.Problem.Slug == "" {
		writeError(w, http.StatusUnprocessableEntity, "Problem slug is required.")
		return req, false
	}
	if !llm.ValidDifficulty(req.Problem.Difficulty) {
		writeError(w, http.StatusUnprocessableEntity, fmt.Sprintf("invalid difficulty: %q", req.Problem.Difficulty))
		return req, false
	}
	for _, msg := range req.History {
		if !llm.ValidRole(msg.Role) {
			writeError(w, http.StatusUnprocessableEntity, fmt.Sprintf("invalid history role: %q", msg.Role))
			return req, false
		}
	}
	return req, true
}
