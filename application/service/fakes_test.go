package service

import (
	"context"
	"errors"
	"hash/fnv"
	"math"
	"strings"
	"sync/atomic"

	"github.com/helixml/textclassifier/domain/category"
)

const fakeDimension = 1024

// wordEmbedder is a deterministic bag-of-words embedder for tests.
type wordEmbedder struct {
	failOn string
	calls  atomic.Int64
}

func (w *wordEmbedder) Embed(_ context.Context, texts []string) ([][]float64, error) {
	w.calls.Add(1)
	out := make([][]float64, len(texts))
	for i, text := range texts {
		if w.failOn != "" && strings.Contains(text, w.failOn) {
			return nil, errors.New("provider unavailable")
		}
		vec := make([]float64, fakeDimension)
		for _, word := range strings.Fields(strings.ToLower(text)) {
			h := fnv.New32a()
			_, _ = h.Write([]byte(strings.Trim(word, ".,!?")))
			vec[h.Sum32()%fakeDimension]++
		}
		var norm float64
		for _, v := range vec {
			norm += v * v
		}
		if norm > 0 {
			norm = math.Sqrt(norm)
			for j := range vec {
				vec[j] /= norm
			}
		}
		out[i] = vec
	}
	return out, nil
}

// fixedEmbedder returns vectors of a fixed size regardless of input.
type fixedEmbedder struct {
	dimension int
}

func (f fixedEmbedder) Embed(_ context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, len(texts))
	for i := range texts {
		vec := make([]float64, f.dimension)
		vec[0] = 1
		out[i] = vec
	}
	return out, nil
}

func seededRegistry(ctx context.Context, embedder *wordEmbedder) (*category.Registry, *Categories, error) {
	registry := category.NewRegistry(fakeDimension)
	categories := NewCategories(registry, embedder)
	if err := categories.Seed(ctx, category.Defaults()); err != nil {
		return nil, nil, err
	}
	return registry, categories, nil
}
