package search

import (
	"math"
	"sort"
)

// CosineSimilarity computes the cosine similarity between two vectors.
// Returns a value between -1 (opposite) and 1 (identical).
// Returns 0 if either vector has zero magnitude or the lengths differ.
func CosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dotProduct, magA, magB float64
	for i := range a {
		dotProduct += a[i] * b[i]
		magA += a[i] * a[i]
		magB += b[i] * b[i]
	}

	if magA == 0 || magB == 0 {
		return 0
	}

	score := dotProduct / (math.Sqrt(magA) * math.Sqrt(magB))

	// Rounding can push identical vectors just past 1.
	return math.Max(-1, math.Min(1, score))
}

// Candidate is anything that can be ranked by its embedding.
type Candidate interface {
	Embedding() []float64
}

// Ranked pairs a candidate with its similarity to the query.
type Ranked[T Candidate] struct {
	candidate T
	score     float64
}

// NewRanked creates a new Ranked.
func NewRanked[T Candidate](candidate T, score float64) Ranked[T] {
	return Ranked[T]{candidate: candidate, score: score}
}

// Candidate returns the ranked candidate.
func (r Ranked[T]) Candidate() T { return r.candidate }

// Score returns the cosine similarity score.
func (r Ranked[T]) Score() float64 { return r.score }

// ClampTopK limits k to the range [1, n]. Returns 0 when n is 0.
func ClampTopK(k, n int) int {
	if n <= 0 {
		return 0
	}
	if k < 1 {
		return 1
	}
	if k > n {
		return n
	}
	return k
}

// Score computes the similarity of every candidate against the query,
// preserving candidate order.
func Score[T Candidate](query []float64, candidates []T) []Ranked[T] {
	scored := make([]Ranked[T], len(candidates))
	for i, c := range candidates {
		scored[i] = NewRanked(c, CosineSimilarity(query, c.Embedding()))
	}
	return scored
}

// Rank orders candidates by descending similarity to the query and returns
// the top k. Candidates with equal scores keep their input order, so callers
// passing insertion-ordered candidates get insertion-order tie breaking.
// k is clamped to [1, len(candidates)].
func Rank[T Candidate](query []float64, candidates []T, k int) []Ranked[T] {
	if len(candidates) == 0 {
		return []Ranked[T]{}
	}

	scored := Score(query, candidates)

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})

	return scored[:ClampTopK(k, len(scored))]
}
