package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/helixml/textclassifier/domain/category"
	"github.com/helixml/textclassifier/domain/search"
	"github.com/helixml/textclassifier/internal/config"
)

// Status reports what an add did to the registry.
type Status string

// Add statuses.
const (
	StatusCreated Status = "created"
	StatusUpdated Status = "updated"
)

// AddResult describes a successful add.
type AddResult struct {
	Name        string
	Description string
	Status      Status
	Total       int
}

// AddItem is the per-item outcome of a batch add. Exactly one of Status or
// Err is set.
type AddItem struct {
	Index       int
	Name        string
	Description string
	Status      Status
	Err         error
}

// RemoveResult reports whether a requested name was removed.
type RemoveResult struct {
	Removed bool
}

// Summary is the external view of a category, without its embedding.
type Summary struct {
	Name        string
	Description string
}

// CategoriesOption configures a Categories service.
type CategoriesOption func(*Categories)

// WithBatchParallelism bounds how many descriptions a batch add embeds concurrently.
func WithBatchParallelism(n int) CategoriesOption {
	return func(s *Categories) {
		if n > 0 {
			s.parallelism = n
		}
	}
}

// WithCategoriesLogger sets the logger.
func WithCategoriesLogger(l *slog.Logger) CategoriesOption {
	return func(s *Categories) {
		if l != nil {
			s.logger = l
		}
	}
}

// Categories validates and applies changes to the category registry.
type Categories struct {
	registry    *category.Registry
	embedder    search.Embedder
	parallelism int
	logger      *slog.Logger
}

// NewCategories creates a new Categories service.
func NewCategories(registry *category.Registry, embedder search.Embedder, opts ...CategoriesOption) *Categories {
	s := &Categories{
		registry:    registry,
		embedder:    embedder,
		parallelism: config.DefaultBatchParallelism,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Seed embeds all definitions in a single provider call and registers them.
// Any failure aborts seeding; it is meant for startup.
func (s *Categories) Seed(ctx context.Context, defs []category.Definition) error {
	if len(defs) == 0 {
		return fmt.Errorf("%w: no categories to seed", category.ErrInvalidInput)
	}

	descriptions := make([]string, len(defs))
	for i, def := range defs {
		if err := validate(def.Name, def.Description); err != nil {
			return fmt.Errorf("seed category %d: %w", i, err)
		}
		descriptions[i] = def.Description
	}

	vectors, err := s.embedder.Embed(ctx, descriptions)
	if err != nil {
		return fmt.Errorf("seed categories: %w: %w", search.ErrEmbeddingFailure, err)
	}
	if len(vectors) != len(defs) {
		return fmt.Errorf("seed categories: %w: got %d vectors for %d descriptions", search.ErrEmbeddingFailure, len(vectors), len(defs))
	}

	for i, def := range defs {
		if _, err := s.registry.Add(def.Name, def.Description, vectors[i]); err != nil {
			return fmt.Errorf("seed category %q: %w", def.Name, err)
		}
	}

	s.logger.Info("categories seeded",
		slog.Int("count", s.registry.Len()),
		slog.Int("dimension", s.registry.Dimension()),
	)
	return nil
}

// Add embeds the description and registers the category, replacing any
// category with the same name.
func (s *Categories) Add(ctx context.Context, name, description string) (AddResult, error) {
	embedding, err := s.embed(ctx, name, description)
	if err != nil {
		return AddResult{}, err
	}
	return s.apply(name, description, embedding)
}

// BatchAdd adds each definition independently. Descriptions are embedded
// concurrently, then written in input order so a name repeated within one
// batch resolves to its last occurrence.
func (s *Categories) BatchAdd(ctx context.Context, defs []category.Definition) []AddItem {
	items := make([]AddItem, len(defs))
	embeddings := make([][]float64, len(defs))

	var g errgroup.Group
	g.SetLimit(s.parallelism)
	for i, def := range defs {
		items[i] = AddItem{
			Index:       i,
			Name:        category.NormalizeName(def.Name),
			Description: strings.TrimSpace(def.Description),
		}
		g.Go(func() error {
			embedding, err := s.embed(ctx, def.Name, def.Description)
			if err != nil {
				items[i].Err = err
				return nil
			}
			embeddings[i] = embedding
			return nil
		})
	}
	_ = g.Wait()

	for i, def := range defs {
		if items[i].Err != nil {
			continue
		}
		result, err := s.apply(def.Name, def.Description, embeddings[i])
		if err != nil {
			items[i].Err = err
			continue
		}
		items[i].Status = result.Status
	}

	return items
}

// Remove deletes the named categories. It fails as a whole, leaving the
// registry unchanged, if the removal would leave no categories.
func (s *Categories) Remove(_ context.Context, names []string) (map[string]RemoveResult, error) {
	removed, err := s.registry.Remove(names)
	if err != nil {
		return nil, err
	}

	results := make(map[string]RemoveResult, len(removed))
	dropped := make(map[string]struct{}, len(removed))
	for name, ok := range removed {
		results[name] = RemoveResult{Removed: ok}
		if ok {
			dropped[category.NormalizeName(name)] = struct{}{}
		}
	}

	if len(dropped) > 0 {
		s.logger.Info("categories removed",
			slog.Int("removed", len(dropped)),
			slog.Int("total", s.registry.Len()),
		)
	}
	return results, nil
}

// List returns every category in insertion order.
func (s *Categories) List(_ context.Context) []Summary {
	all := s.registry.All()
	summaries := make([]Summary, len(all))
	for i, c := range all {
		summaries[i] = Summary{Name: c.Name(), Description: c.Description()}
	}
	return summaries
}

// Count returns the number of registered categories.
func (s *Categories) Count() int { return s.registry.Len() }

func (s *Categories) embed(ctx context.Context, name, description string) ([]float64, error) {
	if err := validate(name, description); err != nil {
		return nil, err
	}
	embedding, err := search.EmbedOne(ctx, s.embedder, strings.TrimSpace(description), s.registry.Dimension())
	if err != nil {
		return nil, fmt.Errorf("embed category %q: %w", category.NormalizeName(name), err)
	}
	return embedding, nil
}

func (s *Categories) apply(name, description string, embedding []float64) (AddResult, error) {
	created, err := s.registry.Add(name, description, embedding)
	if err != nil {
		return AddResult{}, err
	}

	status := StatusUpdated
	if created {
		status = StatusCreated
	}
	result := AddResult{
		Name:        category.NormalizeName(name),
		Description: strings.TrimSpace(description),
		Status:      status,
		Total:       s.registry.Len(),
	}

	s.logger.Info("category saved",
		slog.String("category", result.Name),
		slog.String("status", string(status)),
		slog.Int("total", result.Total),
	)
	return result, nil
}

func validate(name, description string) error {
	if category.NormalizeName(name) == "" {
		return fmt.Errorf("%w: category name is required", category.ErrInvalidInput)
	}
	if strings.TrimSpace(description) == "" {
		return fmt.Errorf("%w: description is required for category %q", category.ErrInvalidInput, category.NormalizeName(name))
	}
	return nil
}
