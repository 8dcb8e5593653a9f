package provider

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"
)

// DefaultHashDimension is the vector size of the hash embedder.
const DefaultHashDimension = 256

// HashEmbedding is a deterministic, offline embedder. It hashes lower-cased
// word tokens into a fixed number of signed buckets and L2-normalizes the
// result. It is not semantic, but identical texts always produce identical
// vectors and texts sharing words land close together.
type HashEmbedding struct {
	dimension int
}

// NewHashEmbedding creates a HashEmbedding. A non-positive dimension falls
// back to DefaultHashDimension.
func NewHashEmbedding(dimension int) *HashEmbedding {
	if dimension <= 0 {
		dimension = DefaultHashDimension
	}
	return &HashEmbedding{dimension: dimension}
}

// Name returns "hash".
func (h *HashEmbedding) Name() string { return "hash" }

// Model describes the hashing scheme.
func (h *HashEmbedding) Model() string { return "fnv-bag-of-words" }

// Dimension returns the vector size.
func (h *HashEmbedding) Dimension() int { return h.dimension }

// Close is a no-op.
func (h *HashEmbedding) Close() error { return nil }

// Embed implements Embedder.
func (h *HashEmbedding) Embed(ctx context.Context, req EmbeddingRequest) (EmbeddingResponse, error) {
	if err := ctx.Err(); err != nil {
		return EmbeddingResponse{}, err
	}

	texts := req.Texts()
	embeddings := make([][]float64, len(texts))
	tokens := 0
	for i, text := range texts {
		words := tokenize(text)
		tokens += len(words)
		embeddings[i] = h.vector(words)
	}
	return NewEmbeddingResponse(embeddings, NewUsage(tokens, tokens)), nil
}

func (h *HashEmbedding) vector(words []string) []float64 {
	vec := make([]float64, h.dimension)
	hasher := fnv.New64a()
	for _, word := range words {
		hasher.Reset()
		_, _ = hasher.Write([]byte(word))
		sum := hasher.Sum64()
		sign := 1.0
		if sum>>63 == 1 {
			sign = -1.0
		}
		vec[sum%uint64(h.dimension)] += sign
	}

	var norm float64
	for _, v := range vec {
		norm += v * v
	}
	if norm == 0 {
		return vec
	}
	norm = math.Sqrt(norm)
	for i := range vec {
		vec[i] /= norm
	}
	return vec
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

var _ EmbeddingProvider = (*HashEmbedding)(nil)
