package vector

import (
	"context"
	"fmt"
	"testing"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeEmbedder returns one fixed-dimension vector per input text.
type fakeEmbedder struct {
	dim   int
	fail  bool
	calls int
}

func (f *fakeEmbedder) EmbedStrings(ctx context.Context, texts []string, opts ...embedding.Option) ([][]float64, error) {
	f.calls++
	if f.fail {
		return nil, fmt.Errorf("embedding backend down")
	}
	vectors := make([][]float64, len(texts))
	for i := range texts {
		vectors[i] = make([]float64, f.dim)
		for j := range vectors[i] {
			vectors[i][j] = float64(len(texts[i])) / float64(j+1)
		}
	}
	return vectors, nil
}

func TestEmbedSingle(t *testing.T) {
	svc := NewEmbeddingService(&fakeEmbedder{dim: 8}, 8)

	vec, err := svc.Embed(context.Background(), "two sum")
	require.NoError(t, err)
	assert.Len(t, vec, 8)
}

func TestEmbedEmptyText(t *testing.T) {
	svc := NewEmbeddingService(&fakeEmbedder{dim: 8}, 8)

	_, err := svc.Embed(context.Background(), "")
	assert.Error(t, err)
}

func TestEmbedBatch(t *testing.T) {
	emb := &fakeEmbedder{dim: 4}
	svc := NewEmbeddingService(emb, 4)

	vectors, err := svc.EmbedBatch(context.Background(), []string{"a", "b", "c"})
	require.NoError(t, err)
	require.Len(t, vectors, 3)
	assert.Equal(t, 1, emb.calls)
	for _, vec := range vectors {
		assert.Len(t, vec, 4)
	}
}

func TestEmbedBatchFailurePropagates(t *testing.T) {
	svc := NewEmbeddingService(&fakeEmbedder{dim: 4, fail: true}, 4)

	_, err := svc.EmbedBatch(context.Background(), []string{"a"})
	assert.Error(t, err)
}

func TestDimensionDefault(t *testing.T) {
	assert.Equal(t, 1024, NewEmbeddingService(&fakeEmbedder{dim: 4}, 0).Dimension())
	assert.Equal(t, 256, NewEmbeddingService(&fakeEmbedder{dim: 4}, 256).Dimension())
}
