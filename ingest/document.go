// Package ingest assembles reference material into indexable chunks: API
// payloads describing a problem, and local files matched by glob patterns.
package ingest

import (
	"errors"
	"fmt"

	"leetmentor/llm"
)

// ErrNoContent reports an ingest payload with nothing to index.
var ErrNoContent = errors.New("no content to index")

// Document is an ingest request for one problem's reference material.
// When Chunks is non-empty the caller controls chunking; otherwise chunks
// are assembled from the structured fields.
type Document struct {
	Slug        string      `json:"slug"`
	Title       string      `json:"title"`
	Difficulty  string      `json:"difficulty"`
	URL         string      `json:"url,omitempty"`
	Description string      `json:"description"`
	Examples    []string    `json:"examples,omitempty"`
	Constraints string      `json:"constraints,omitempty"`
	Chunks      []llm.Chunk `json:"chunks,omitempty"`
}

// Validate checks the fields required for indexing.
func (d Document) Validate() error {
	if d.Slug == "" {
		return fmt.Errorf("slug is required")
	}
	if d.Title == "" {
		return fmt.Errorf("title is required")
	}
	if !llm.ValidDifficulty(d.Difficulty) {
		return fmt.Errorf("invalid difficulty: %q", d.Difficulty)
	}
	return nil
}

// BuildChunks resolves the chunks to index for a document. Explicit chunks
// win; otherwise the description, constraints and worked examples become
// one chunk each. Returns ErrNoContent when nothing is indexable.
func BuildChunks(doc Document) ([]llm.Chunk, error) {
	if len(doc.Chunks) > 0 {
		return doc.Chunks, nil
	}

	var assembled []llm.Chunk

	if doc.Description != "" {
		assembled = append(assembled, llm.Chunk{
			Heading: "Problem description",
			Content: doc.Description,
			Metadata: map[string]any{
				"section":    "description",
				"difficulty": doc.Difficulty,
			},
		})
	}

	if doc.Constraints != "" {
		assembled = append(assembled, llm.Chunk{
			Heading: "Constraints",
			Content: doc.Constraints,
			Metadata: map[string]any{
				"section": "constraints",
			},
		})
	}

	if len(doc.Examples) > 0 {
		text := ""
		for i, example := range doc.Examples {
			if i > 0 {
				text += "\n\n"
			}
			text += example
		}
		assembled = append(assembled, llm.Chunk{
			Heading: "Worked examples",
			Content: text,
			Metadata: map[string]any{
				"section": "examples",
				"count":   len(doc.Examples),
			},
		})
	}

	if len(assembled) == 0 {
		return nil, ErrNoContent
	}
	return assembled, nil
}
