// Package server exposes the mentoring pipeline over HTTP: a buffered chat
// endpoint, a streaming NDJSON variant, document ingestion and health
// probes.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"leetmentor/config"
	"leetmentor/llm"
	"leetmentor/rag"
)

// ChatService is the slice of the pipeline the chat handlers need.
type ChatService interface {
	Ask(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error)
	AskStream(ctx context.Context, req llm.ChatRequest, emit rag.EmitFunc) error
}

// DocumentIndexer is the slice of the vector store the documents handler
// needs.
type DocumentIndexer interface {
	Upsert(ctx context.Context, slug, baseTitle string, chunks []llm.Chunk) error
}

// Server wires the HTTP surface to the pipeline and the vector store.
type Server struct {
	cfg    config.Config
	chat   ChatService
	docs   DocumentIndexer
	logger zerolog.Logger
}

// New creates a Server. The API prefix comes from the config.
func New(cfg config.Config, chat ChatService, docs DocumentIndexer, logger zerolog.Logger) *Server {
	return &Server{cfg: cfg, chat: chat, docs: docs, logger: logger}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	prefix := s.cfg.APIPrefix

	mux.HandleFunc("GET /healthz", s.handleLiveness)
	mux.HandleFunc("GET "+prefix+"/health", s.handleHealth)
	mux.HandleFunc("POST "+prefix+"/chat", s.handleChat)
	mux.HandleFunc("POST "+prefix+"/chat/stream", s.handleChatStream)
	mux.HandleFunc("POST "+prefix+"/documents", s.handleDocuments)

	return s.logRequests(mux)
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.ListenAddr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.cfg.ListenAddr).Msg("http server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func (s *Server) handleLiveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// logRequests logs one line per request after it finishes.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	})
}

// errorBody is the JSON error envelope used by every non-2xx response.
type errorBody struct {
	Detail string `json:"detail"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorBody{Detail: detail})
}
