// Package category provides the category domain type and the registry that
// holds the live taxonomy.
package category

import (
	"fmt"
	"strings"
)

// Category is a named class with a description and the embedding derived
// from that description.
type Category struct {
	name        string
	description string
	embedding   []float64
}

// NewCategory creates a Category. The name is normalized and both name and
// description must be non-blank.
func NewCategory(name, description string, embedding []float64) (Category, error) {
	normalized := NormalizeName(name)
	if normalized == "" {
		return Category{}, fmt.Errorf("%w: category name is required", ErrInvalidInput)
	}
	description = strings.TrimSpace(description)
	if description == "" {
		return Category{}, fmt.Errorf("%w: description is required for category %q", ErrInvalidInput, normalized)
	}
	if len(embedding) == 0 {
		return Category{}, fmt.Errorf("%w: embedding is required for category %q", ErrInvalidInput, normalized)
	}

	vec := make([]float64, len(embedding))
	copy(vec, embedding)

	return Category{
		name:        normalized,
		description: description,
		embedding:   vec,
	}, nil
}

// NormalizeName trims whitespace and lower-cases a category name.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Name returns the normalized category name.
func (c Category) Name() string { return c.name }

// Description returns the category description.
func (c Category) Description() string { return c.description }

// Embedding returns a copy of the category embedding.
func (c Category) Embedding() []float64 {
	vec := make([]float64, len(c.embedding))
	copy(vec, c.embedding)
	return vec
}

// Dimension returns the embedding length.
func (c Category) Dimension() int { return len(c.embedding) }
