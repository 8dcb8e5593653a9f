package provider

import (
	"context"
	"fmt"
)

// SearchEmbedder adapts an Embedder to the domain's slice-based interface.
type SearchEmbedder struct {
	inner Embedder
}

// NewSearchEmbedder wraps an Embedder.
func NewSearchEmbedder(inner Embedder) *SearchEmbedder {
	return &SearchEmbedder{inner: inner}
}

// Embed implements search.Embedder.
func (a *SearchEmbedder) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return [][]float64{}, nil
	}

	resp, err := a.inner.Embed(ctx, NewEmbeddingRequest(texts))
	if err != nil {
		return nil, err
	}
	vectors := resp.Embeddings()
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("got %d vectors for %d texts", len(vectors), len(texts))
	}
	return vectors, nil
}
