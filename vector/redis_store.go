package vector

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/redis/go-redis/v9"

	"leetmentor/llm"
)

const (
	// Field names in Redis hash
	fieldContent    = "content"
	fieldVector     = "vector"
	fieldSlug       = "slug"
	fieldTitle      = "title"
	fieldChunkIndex = "chunk_index"
	fieldCreatedAt  = "created_at"
	fieldUpdatedAt  = "updated_at"
	fieldMetadata   = "metadata"
	fieldDistance   = "distance"

	// Upper bound on documents per slug when collecting keys for
	// delete-by-slug; one problem never stores anywhere near this many.
	maxSlugDocs = 10000
)

// RedisStore implements Store using Redis with RediSearch vector search.
// Documents are partitioned by slug via a TAG field; search and deletion
// never cross slugs.
type RedisStore struct {
	client       *redis.Client
	embeddingSvc *EmbeddingService
	config       StoreConfig
	indexCreated bool
	mu           sync.Mutex
}

// NewRedisStore creates a new Redis-based vector store on an existing
// client. The HNSW index is created on first use if it does not exist.
func NewRedisStore(ctx context.Context, client *redis.Client, embedder embedding.Embedder, cfg StoreConfig) (*RedisStore, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if embedder == nil {
		return nil, fmt.Errorf("embedding model is required")
	}
	if cfg.EmbeddingDim <= 0 {
		cfg = applyDefaults(cfg)
	}

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	store := &RedisStore{
		client:       client,
		embeddingSvc: NewEmbeddingService(embedder, cfg.EmbeddingDim),
		config:       cfg,
	}

	if err := store.ensureIndex(ctx); err != nil {
		return nil, fmt.Errorf("failed to create vector index: %w", err)
	}

	return store, nil
}

func applyDefaults(cfg StoreConfig) StoreConfig {
	def := DefaultStoreConfig()
	if cfg.EmbeddingDim <= 0 {
		cfg.EmbeddingDim = def.EmbeddingDim
	}
	if cfg.IndexName == "" {
		cfg.IndexName = def.IndexName
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = def.KeyPrefix
	}
	if cfg.TopK <= 0 {
		cfg.TopK = def.TopK
	}
	if cfg.EFConstruction <= 0 {
		cfg.EFConstruction = def.EFConstruction
	}
	if cfg.M <= 0 {
		cfg.M = def.M
	}
	return cfg
}

// ensureIndex creates the HNSW vector index if it doesn't exist
func (s *RedisStore) ensureIndex(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	indexName := s.config.IndexName
	_, err := s.client.Do(ctx, "FT.INFO", indexName).Result()
	if err == nil {
		s.indexCreated = true
		return nil
	}

	// FT.CREATE leetmentor-docs
	//   ON HASH PREFIX 1 "doc:"
	//   SCHEMA vector VECTOR HNSW 10 TYPE FLOAT32 DIM 1024 DISTANCE_METRIC COSINE EF_CONSTRUCTION 200 M 16
	//          slug TAG
	//          title TEXT
	//          content TEXT
	//          chunk_index NUMERIC
	//          created_at NUMERIC
	_, err = s.client.Do(ctx, "FT.CREATE", indexName,
		"ON", "HASH",
		"PREFIX", "1", s.config.KeyPrefix,
		"SCHEMA",
		fieldVector, "VECTOR", "HNSW", "10",
		"TYPE", "FLOAT32",
		"DIM", strconv.Itoa(s.config.EmbeddingDim),
		"DISTANCE_METRIC", "COSINE",
		"EF_CONSTRUCTION", strconv.Itoa(s.config.EFConstruction),
		"M", strconv.Itoa(s.config.M),
		fieldSlug, "TAG",
		fieldTitle, "TEXT",
		fieldContent, "TEXT",
		fieldChunkIndex, "NUMERIC",
		fieldCreatedAt, "NUMERIC",
	).Result()

	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}

	s.indexCreated = true
	return nil
}

// generateID generates a unique document ID
func generateID(slug string, chunkIndex int) string {
	h := sha256.New()
	h.Write([]byte(slug))
	h.Write([]byte(strconv.Itoa(chunkIndex)))
	h.Write([]byte(strconv.FormatInt(time.Now().UnixNano(), 10)))
	return hex.EncodeToString(h.Sum(nil))[:32]
}

// encodeVector encodes a float32 vector as little-endian bytes, the layout
// RediSearch expects for FLOAT32 vector fields.
func encodeVector(vector []float32) []byte {
	buf := make([]byte, 4*len(vector))
	for i, v := range vector {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

// escapeTag escapes characters RediSearch treats specially in TAG values.
func escapeTag(value string) string {
	replacer := strings.NewReplacer(
		",", "\\,",
		".", "\\.",
		" ", "\\ ",
		"{", "\\{",
		"}", "\\}",
	)
	return replacer.Replace(value)
}

// Search embeds the query (augmented with any additional context) and runs a
// KNN query restricted to the slug, ordered by ascending cosine distance.
func (s *RedisStore) Search(ctx context.Context, slug, query string, additionalContext []string) ([]llm.DocumentChunk, error) {
	if slug == "" {
		return nil, fmt.Errorf("slug cannot be empty")
	}
	if query == "" {
		return nil, fmt.Errorf("query cannot be empty")
	}

	augmented := buildAugmentedQuery(query, additionalContext)

	queryVector, err := s.embeddingSvc.Embed(ctx, augmented)
	if err != nil {
		return nil, fmt.Errorf("failed to generate query embedding: %w", err)
	}

	topK := s.config.TopK

	// FT.SEARCH leetmentor-docs "(@slug:{two\-sum})=>[KNN 4 @vector $query_vector AS distance]"
	//   PARAMS 2 query_vector "<bytes>"
	//   SORTBY distance ASC
	//   DIALECT 2
	queryStr := fmt.Sprintf("(@%s:{%s})=>[KNN %d @%s $query_vector AS %s]",
		fieldSlug, escapeTag(slug), topK, fieldVector, fieldDistance)

	result, err := s.client.Do(ctx, "FT.SEARCH", s.config.IndexName, queryStr,
		"PARAMS", "2", "query_vector", encodeVector(queryVector),
		"RETURN", "5", fieldTitle, fieldContent, fieldMetadata, fieldChunkIndex, fieldDistance,
		"SORTBY", fieldDistance, "ASC",
		"LIMIT", "0", strconv.Itoa(topK),
		"DIALECT", "2",
	).Result()
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}

	chunks, err := parseSearchResults(result)
	if err != nil {
		return nil, fmt.Errorf("failed to parse search results: %w", err)
	}
	return chunks, nil
}

// buildAugmentedQuery concatenates the question with additional context
// strings, blank-line separated, matching the retrieval prompt layout.
func buildAugmentedQuery(query string, additionalContext []string) string {
	parts := make([]string, 0, len(additionalContext))
	for _, c := range additionalContext {
		if c != "" {
			parts = append(parts, c)
		}
	}
	if len(parts) == 0 {
		return query
	}
	return query + "\n\n" + strings.Join(parts, "\n\n")
}

// parseSearchResults parses a RESP2 FT.SEARCH reply: a flat array of the
// total count followed by (key, fields) pairs.
func parseSearchResults(result interface{}) ([]llm.DocumentChunk, error) {
	values, ok := result.([]interface{})
	if !ok {
		return nil, fmt.Errorf("unexpected result format")
	}
	if len(values) < 2 {
		return []llm.DocumentChunk{}, nil
	}

	chunks := make([]llm.DocumentChunk, 0, (len(values)-1)/2)
	for i := 1; i+1 < len(values); i += 2 {
		fields, ok := values[i+1].([]interface{})
		if !ok {
			continue
		}
		chunks = append(chunks, parseChunkFields(fields))
	}
	return chunks, nil
}

// parseChunkFields converts a flat field/value list into a DocumentChunk.
func parseChunkFields(fields []interface{}) llm.DocumentChunk {
	chunk := llm.DocumentChunk{Metadata: make(map[string]any)}

	for i := 0; i+1 < len(fields); i += 2 {
		name, ok := fields[i].(string)
		if !ok {
			continue
		}
		value, ok := fields[i+1].(string)
		if !ok {
			continue
		}

		switch name {
		case fieldTitle:
			chunk.Title = value
		case fieldContent:
			chunk.Content = value
		case fieldMetadata:
			var metadata map[string]any
			if err := json.Unmarshal([]byte(value), &metadata); err == nil {
				chunk.Metadata = metadata
			}
		case fieldDistance:
			if dist, err := strconv.ParseFloat(value, 64); err == nil && dist >= 0 {
				chunk.Distance = dist
			}
		}
	}
	return chunk
}

// Upsert replaces all documents for a slug with one document per chunk.
// Embedding happens first; on embedding failure nothing is written. The
// delete and inserts run in one MULTI/EXEC transaction so concurrent readers
// never observe the slug empty mid-upsert.
func (s *RedisStore) Upsert(ctx context.Context, slug, baseTitle string, chunks []llm.Chunk) error {
	if slug == "" {
		return fmt.Errorf("slug cannot be empty")
	}
	if len(chunks) == 0 {
		return nil
	}

	contents := make([]string, len(chunks))
	for i, chunk := range chunks {
		contents[i] = chunk.Content
	}

	vectors, err := s.embeddingSvc.EmbedBatch(ctx, contents)
	if err != nil {
		return fmt.Errorf("failed to generate embeddings: %w", err)
	}

	existing, err := s.keysForSlug(ctx, slug)
	if err != nil {
		return fmt.Errorf("failed to list existing documents: %w", err)
	}

	pipe := s.client.TxPipeline()
	if len(existing) > 0 {
		pipe.Del(ctx, existing...)
	}

	now := time.Now().Unix()
	for i, chunk := range chunks {
		title := baseTitle
		if chunk.Heading != "" {
			title = fmt.Sprintf("%s | %s", baseTitle, chunk.Heading)
		}

		metadata := make(map[string]any, len(chunk.Metadata)+2)
		for k, v := range chunk.Metadata {
			metadata[k] = v
		}
		metadata["chunk_index"] = i
		metadata["base_title"] = baseTitle

		metadataJSON, err := json.Marshal(metadata)
		if err != nil {
			return fmt.Errorf("failed to marshal metadata: %w", err)
		}

		key := s.config.KeyPrefix + generateID(slug, i)
		pipe.HSet(ctx, key,
			fieldSlug, escapeTag(slug),
			fieldTitle, title,
			fieldContent, chunk.Content,
			fieldVector, encodeVector(vectors[i]),
			fieldChunkIndex, i,
			fieldCreatedAt, now,
			fieldUpdatedAt, now,
			fieldMetadata, metadataJSON,
		)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to replace documents: %w", err)
	}
	return nil
}

// DeleteSlug removes every document stored under slug.
func (s *RedisStore) DeleteSlug(ctx context.Context, slug string) error {
	if slug == "" {
		return fmt.Errorf("slug cannot be empty")
	}

	keys, err := s.keysForSlug(ctx, slug)
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	return s.client.Del(ctx, keys...).Err()
}

// Count returns the number of documents stored under slug.
func (s *RedisStore) Count(ctx context.Context, slug string) (int64, error) {
	result, err := s.client.Do(ctx, "FT.SEARCH", s.config.IndexName,
		fmt.Sprintf("@%s:{%s}", fieldSlug, escapeTag(slug)),
		"NOCONTENT",
		"LIMIT", "0", "0",
		"DIALECT", "2",
	).Result()
	if err != nil {
		return 0, fmt.Errorf("count failed: %w", err)
	}

	values, ok := result.([]interface{})
	if !ok || len(values) == 0 {
		return 0, nil
	}
	count, ok := values[0].(int64)
	if !ok {
		return 0, nil
	}
	return count, nil
}

// keysForSlug collects the Redis keys of all documents stored under slug.
func (s *RedisStore) keysForSlug(ctx context.Context, slug string) ([]string, error) {
	result, err := s.client.Do(ctx, "FT.SEARCH", s.config.IndexName,
		fmt.Sprintf("@%s:{%s}", fieldSlug, escapeTag(slug)),
		"NOCONTENT",
		"LIMIT", "0", strconv.Itoa(maxSlugDocs),
		"DIALECT", "2",
	).Result()
	if err != nil {
		// A missing index means nothing stored yet.
		if strings.Contains(err.Error(), "no such index") {
			return nil, nil
		}
		return nil, err
	}

	values, ok := result.([]interface{})
	if !ok || len(values) < 2 {
		return nil, nil
	}

	keys := make([]string, 0, len(values)-1)
	for _, v := range values[1:] {
		if key, ok := v.(string); ok {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}
