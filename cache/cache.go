// Package cache provides namespaced Redis caching of chat responses keyed by
// the semantic content of a request.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"leetmentor/llm"
)

const keyCategory = "chat"

// Client is the slice of the Redis API the cache needs. *redis.Client
// satisfies it; tests provide an in-memory fake.
type Client interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// Cache stores serialized chat responses with a fixed TTL.
type Cache struct {
	client Client
	ttl    time.Duration
}

// New creates a Cache around an existing Redis client.
func New(client Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

// BuildKey derives the cache key for a payload under a slug namespace.
// The payload is serialized to canonical JSON (encoding/json emits map keys
// in sorted order, recursively), so structurally equal payloads hash to the
// same key regardless of construction order.
func BuildKey(slug string, payload map[string]any) string {
	serialized, err := json.Marshal(payload)
	if err != nil {
		// Payloads are built from plain strings, maps and slices; marshal
		// cannot fail for those. Keep the key well-formed anyway.
		serialized = []byte(fmt.Sprintf("%v", payload))
	}
	digest := sha256.Sum256(serialized)
	return fmt.Sprintf("%s:%s:%s", keyCategory, slug, hex.EncodeToString(digest[:]))
}

// Get returns the cached response for key, or ok=false when the key is
// missing or expired. A missing key is not an error.
func (c *Cache) Get(ctx context.Context, key string) (*llm.ChatResponse, bool, error) {
	value, err := c.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache get: %w", err)
	}

	var resp llm.ChatResponse
	if err := json.Unmarshal([]byte(value), &resp); err != nil {
		// A corrupt entry behaves like a miss; it will be overwritten.
		return nil, false, nil
	}
	return &resp, true, nil
}

// Set stores the response under key with the configured TTL.
func (c *Cache) Set(ctx context.Context, key string, resp *llm.ChatResponse) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("marshal response: %w", err)
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}
