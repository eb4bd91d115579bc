package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"leetmentor/ingest"
)

// documentsResponse is the success body of the documents endpoint.
type documentsResponse struct {
	Success       bool `json:"success"`
	ChunksIndexed int  `json:"chunks_indexed"`
}

// handleDocuments indexes one problem's reference material.
func (s *Server) handleDocuments(w http.ResponseWriter, r *http.Request) {
	var doc ingest.Document
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		writeError(w, http.StatusUnprocessableEntity, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	if err := doc.Validate(); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	chunks, err := ingest.BuildChunks(doc)
	if err != nil {
		if errors.Is(err, ingest.ErrNoContent) {
			writeError(w, http.StatusBadRequest, "No content to index.")
			return
		}
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	if err := s.docs.Upsert(r.Context(), doc.Slug, doc.Title, chunks); err != nil {
		s.logger.Error().Err(err).Str("slug", doc.Slug).Msg("document ingest failed")
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	s.logger.Info().Str("slug", doc.Slug).Int("chunks", len(chunks)).Msg("indexed document")
	writeJSON(w, http.StatusOK, documentsResponse{Success: true, ChunksIndexed: len(chunks)})
}
