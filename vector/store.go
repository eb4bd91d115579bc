// Package vector implements slug-partitioned vector storage and retrieval
// on Redis with the RediSearch module.
package vector

import (
	"context"

	"leetmentor/llm"
)

// Store defines the interface for slug-scoped vector storage operations.
type Store interface {
	// Search embeds the augmented query and returns the closest chunks for
	// the slug, ordered by ascending cosine distance, at most topK entries.
	// A slug with no documents yields an empty result, not an error.
	Search(ctx context.Context, slug, query string, additionalContext []string) ([]llm.DocumentChunk, error)

	// Upsert replaces every document stored under slug with one document
	// per chunk. An empty chunk list is a no-op.
	Upsert(ctx context.Context, slug, baseTitle string, chunks []llm.Chunk) error

	// DeleteSlug removes all documents stored under slug.
	DeleteSlug(ctx context.Context, slug string) error

	// Count returns the number of documents stored under slug.
	Count(ctx context.Context, slug string) (int64, error)

	// Close closes any connections or resources
	Close() error
}

// StoreConfig holds configuration for vector store implementations
type StoreConfig struct {
	// Embedding dimension (must match the embedding model)
	EmbeddingDim int

	// Index name for the vector index
	IndexName string

	// Key prefix for stored documents
	KeyPrefix string

	// Maximum number of search results per query
	TopK int

	// HNSW build parameters
	EFConstruction int
	M              int
}

// DefaultStoreConfig returns default configuration
func DefaultStoreConfig() StoreConfig {
	return StoreConfig{
		EmbeddingDim:   1024,
		IndexName:      "leetmentor-docs",
		KeyPrefix:      "doc:",
		TopK:           4,
		EFConstruction: 200,
		M:              16,
	}
}
