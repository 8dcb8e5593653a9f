package provider

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/helixml/textclassifier/domain/search"
)

func TestHashEmbedding_Deterministic(t *testing.T) {
	emb := NewHashEmbedding(128)

	first, err := emb.Embed(context.Background(), NewEmbeddingRequest([]string{"The quick brown fox"}))
	require.NoError(t, err)
	second, err := emb.Embed(context.Background(), NewEmbeddingRequest([]string{"The quick brown fox"}))
	require.NoError(t, err)

	require.Equal(t, first.Embeddings(), second.Embeddings())
	require.Len(t, first.Embeddings()[0], 128)
}

func TestHashEmbedding_Normalized(t *testing.T) {
	resp, err := NewHashEmbedding(0).Embed(context.Background(), NewEmbeddingRequest([]string{"software, computers and programming!"}))
	require.NoError(t, err)

	vec := resp.Embeddings()[0]
	require.Len(t, vec, DefaultHashDimension)

	var norm float64
	for _, v := range vec {
		norm += v * v
	}
	require.InDelta(t, 1.0, math.Sqrt(norm), 1e-9)
}

func TestHashEmbedding_CaseAndPunctuationInsensitive(t *testing.T) {
	resp, err := NewHashEmbedding(64).Embed(context.Background(), NewEmbeddingRequest([]string{
		"Food, cooking, recipes",
		"food cooking RECIPES",
	}))
	require.NoError(t, err)

	vecs := resp.Embeddings()
	require.InDelta(t, 1.0, search.CosineSimilarity(vecs[0], vecs[1]), 1e-9)
	require.Equal(t, 6, resp.Usage().PromptTokens())
}

func TestHashEmbedding_EmptyTextIsZeroVector(t *testing.T) {
	resp, err := NewHashEmbedding(16).Embed(context.Background(), NewEmbeddingRequest([]string{"   "}))
	require.NoError(t, err)

	for _, v := range resp.Embeddings()[0] {
		require.Zero(t, v)
	}
}

func TestHashEmbedding_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewHashEmbedding(16).Embed(ctx, NewEmbeddingRequest([]string{"hello"}))
	require.Error(t, err)
}

func TestSearchEmbedder_AdaptsProvider(t *testing.T) {
	adapter := NewSearchEmbedder(NewHashEmbedding(32))

	vectors, err := adapter.Embed(context.Background(), []string{"a b", "c d", "e"})
	require.NoError(t, err)
	require.Len(t, vectors, 3)

	dim, err := search.DetectDimension(context.Background(), adapter)
	require.NoError(t, err)
	require.Equal(t, 32, dim)

	vectors, err = adapter.Embed(context.Background(), nil)
	require.NoError(t, err)
	require.Empty(t, vectors)
}
