package cache

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leetmentor/llm"
)

// fakeClient is an in-memory stand-in for the Redis commands the cache uses.
type fakeClient struct {
	data map[string]string
	sets int
}

func newFakeClient() *fakeClient {
	return &fakeClient{data: make(map[string]string)}
}

func (f *fakeClient) Get(ctx context.Context, key string) *redis.StringCmd {
	if value, ok := f.data[key]; ok {
		return redis.NewStringResult(value, nil)
	}
	return redis.NewStringResult("", redis.Nil)
}

func (f *fakeClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	f.sets++
	switch v := value.(type) {
	case []byte:
		f.data[key] = string(v)
	case string:
		f.data[key] = v
	}
	return redis.NewStatusResult("OK", nil)
}

func TestBuildKeyDeterministic(t *testing.T) {
	payload := map[string]any{
		"question": "How do I solve this?",
		"history":  []any{map[string]any{"role": "user", "content": "hi"}},
	}

	first := BuildKey("two-sum", payload)
	second := BuildKey("two-sum", payload)
	assert.Equal(t, first, second)
}

func TestBuildKeyIgnoresMapConstructionOrder(t *testing.T) {
	a := map[string]any{"question": "q", "history": []any{}}
	b := map[string]any{"history": []any{}, "question": "q"}

	assert.Equal(t, BuildKey("two-sum", a), BuildKey("two-sum", b))
}

func TestBuildKeyFormat(t *testing.T) {
	key := BuildKey("two-sum", map[string]any{"question": "q", "history": []any{}})

	parts := strings.Split(key, ":")
	require.Len(t, parts, 3)
	assert.Equal(t, "chat", parts[0])
	assert.Equal(t, "two-sum", parts[1])
	assert.Len(t, parts[2], 64)
	assert.Equal(t, strings.ToLower(parts[2]), parts[2])
}

func TestBuildKeySensitivity(t *testing.T) {
	base := BuildKey("two-sum", map[string]any{"question": "q", "history": []any{}})

	differentQuestion := BuildKey("two-sum", map[string]any{"question": "q2", "history": []any{}})
	assert.NotEqual(t, base, differentQuestion)

	differentSlug := BuildKey("three-sum", map[string]any{"question": "q", "history": []any{}})
	assert.NotEqual(t, base, differentSlug)

	withHistory := BuildKey("two-sum", map[string]any{
		"question": "q",
		"history":  []any{map[string]any{"role": "user", "content": "hi"}},
	})
	assert.NotEqual(t, base, withHistory)
}

func TestBuildKeyHistoryOrderMatters(t *testing.T) {
	first := map[string]any{"role": "user", "content": "a"}
	second := map[string]any{"role": "assistant", "content": "b"}

	ab := BuildKey("two-sum", map[string]any{"question": "q", "history": []any{first, second}})
	ba := BuildKey("two-sum", map[string]any{"question": "q", "history": []any{second, first}})
	assert.NotEqual(t, ab, ba)
}

func TestCacheRoundTrip(t *testing.T) {
	client := newFakeClient()
	c := New(client, time.Minute)
	ctx := context.Background()

	resp := &llm.ChatResponse{
		Success: true,
		Answer:  "use a hash map",
		Summary: "- hash map lookup",
		Sources: []llm.SourceDocument{{Title: "Problem description", Snippet: "x", Metadata: map[string]any{"distance": 0.1}}},
	}

	require.NoError(t, c.Set(ctx, "chat:two-sum:abc", resp))

	got, ok, err := c.Get(ctx, "chat:two-sum:abc")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, resp, got)
}

func TestCacheMiss(t *testing.T) {
	c := New(newFakeClient(), time.Minute)

	got, ok, err := c.Get(context.Background(), "chat:two-sum:missing")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, got)
}

func TestCacheCorruptEntryBehavesAsMiss(t *testing.T) {
	client := newFakeClient()
	client.data["chat:two-sum:bad"] = "{not json"
	c := New(client, time.Minute)

	got, ok, err := c.Get(context.Background(), "chat:two-sum:bad")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, got)
}
