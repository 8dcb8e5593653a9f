package search

import (
	"context"
	"errors"
	"fmt"
)

// ErrEmbeddingFailure indicates the embedding provider failed or returned
// a vector that cannot be used (wrong count or dimensionality).
var ErrEmbeddingFailure = errors.New("embedding failure")

// Embedder converts text into embedding vectors.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float64, error)
}

// EmbedOne embeds a single text and checks the result against the
// expected dimension. A dimension of zero disables the check.
func EmbedOne(ctx context.Context, embedder Embedder, text string, dimension int) ([]float64, error) {
	if embedder == nil {
		return nil, fmt.Errorf("%w: no embedder configured", ErrEmbeddingFailure)
	}

	vectors, err := embedder.Embed(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEmbeddingFailure, err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("%w: got %d vectors for 1 text", ErrEmbeddingFailure, len(vectors))
	}

	vector := vectors[0]
	if len(vector) == 0 {
		return nil, fmt.Errorf("%w: empty vector", ErrEmbeddingFailure)
	}
	if dimension > 0 && len(vector) != dimension {
		return nil, fmt.Errorf("%w: dimension %d, expected %d", ErrEmbeddingFailure, len(vector), dimension)
	}
	return vector, nil
}

// DetectDimension embeds a fixed text to discover the output size
// of an embedder.
func DetectDimension(ctx context.Context, embedder Embedder) (int, error) {
	vector, err := EmbedOne(ctx, embedder, "dimension check", 0)
	if err != nil {
		return 0, fmt.Errorf("detect dimension: %w", err)
	}
	return len(vector), nil
}
