package vector

import (
	"context"
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leetmentor/llm"
)

func TestEncodeVectorLittleEndianFloat32(t *testing.T) {
	encoded := encodeVector([]float32{1.0, -2.5, 0})
	require.Len(t, encoded, 12)

	for i, want := range []float32{1.0, -2.5, 0} {
		bits := binary.LittleEndian.Uint32(encoded[i*4:])
		assert.Equal(t, want, math.Float32frombits(bits))
	}
}

func TestEscapeTag(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"two-sum", "two-sum"},
		{"two sum", `two\ sum`},
		{"a.b,c", `a\.b\,c`},
		{"{slug}", `\{slug\}`},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, escapeTag(tc.in))
	}
}

func TestBuildAugmentedQuery(t *testing.T) {
	assert.Equal(t, "question", buildAugmentedQuery("question", nil))
	assert.Equal(t, "question", buildAugmentedQuery("question", []string{"", ""}))
	assert.Equal(t,
		"question\n\ndescription\n\nprior turn",
		buildAugmentedQuery("question", []string{"description", "", "prior turn"}))
}

func TestParseSearchResults(t *testing.T) {
	raw := []interface{}{
		int64(2),
		"doc:aaa",
		[]interface{}{
			"title", "Two Sum | Problem description",
			"content", "Given an array of integers...",
			"metadata", `{"section":"description","chunk_index":0}`,
			"distance", "0.1234",
		},
		"doc:bbb",
		[]interface{}{
			"title", "Two Sum | Constraints",
			"content", "2 <= nums.length <= 10^4",
			"metadata", `{"section":"constraints"}`,
			"distance", "0.4567",
		},
	}

	chunks, err := parseSearchResults(raw)
	require.NoError(t, err)
	require.Len(t, chunks, 2)

	assert.Equal(t, "Two Sum | Problem description", chunks[0].Title)
	assert.Equal(t, "Given an array of integers...", chunks[0].Content)
	assert.Equal(t, "description", chunks[0].Metadata["section"])
	assert.InDelta(t, 0.1234, chunks[0].Distance, 1e-9)

	assert.Equal(t, "constraints", chunks[1].Metadata["section"])
	assert.InDelta(t, 0.4567, chunks[1].Distance, 1e-9)
}

func TestParseSearchResultsEmpty(t *testing.T) {
	chunks, err := parseSearchResults([]interface{}{int64(0)})
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestParseSearchResultsUnexpectedFormat(t *testing.T) {
	_, err := parseSearchResults("not an array")
	assert.Error(t, err)
}

func TestParseChunkFieldsNegativeDistanceIgnored(t *testing.T) {
	chunk := parseChunkFields([]interface{}{
		"content", "text",
		"distance", "-1",
	})
	assert.Equal(t, float64(0), chunk.Distance)
}

func TestGenerateIDStableLengthUniquePerChunk(t *testing.T) {
	a := generateID("two-sum", 0)
	b := generateID("two-sum", 1)
	assert.Len(t, a, 32)
	assert.Len(t, b, 32)
	assert.NotEqual(t, a, b)
}

func TestUpsertEmptyChunksIsNoOp(t *testing.T) {
	// No client or embedder wired: the empty-input check must return before
	// either is touched.
	store := &RedisStore{config: DefaultStoreConfig()}
	assert.NoError(t, store.Upsert(context.Background(), "two-sum", "Two Sum", nil))
}

func TestUpsertEmptySlugRejected(t *testing.T) {
	store := &RedisStore{config: DefaultStoreConfig()}
	assert.Error(t, store.Upsert(context.Background(), "", "Two Sum", []llm.Chunk{{Content: "x"}}))
}

func TestUpsertEmbeddingFailureWritesNothing(t *testing.T) {
	// The failing embedder aborts before any Redis access; a nil client
	// would panic if a write were attempted.
	store := &RedisStore{
		embeddingSvc: NewEmbeddingService(&fakeEmbedder{dim: 4, fail: true}, 4),
		config:       DefaultStoreConfig(),
	}

	err := store.Upsert(context.Background(), "two-sum", "Two Sum", []llm.Chunk{{Content: "x"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "embeddings")
}

func TestApplyDefaults(t *testing.T) {
	cfg := applyDefaults(StoreConfig{})
	assert.Equal(t, DefaultStoreConfig(), cfg)

	custom := applyDefaults(StoreConfig{EmbeddingDim: 0, IndexName: "custom", TopK: 7})
	assert.Equal(t, "custom", custom.IndexName)
	assert.Equal(t, 7, custom.TopK)
	assert.Equal(t, DefaultStoreConfig().EmbeddingDim, custom.EmbeddingDim)
}
