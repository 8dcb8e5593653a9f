// Package service provides application layer services that orchestrate domain operations.
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

// Prediction is one ranked category for a text.
type Prediction struct {
	Category    string
	Description string
	Score       float64
}

// Classification is the detailed outcome of classifying one text.
type Classification struct {
	Text        string
	Predictions []Prediction
	// Scores holds the similarity of every category, keyed by name.
	Scores map[string]float64
}

// BatchItem is the per-text outcome of a batch classification. Exactly one
// of Predictions or Err is set.
type BatchItem struct {
	Index       int
	Text        string
	Predictions []Prediction
	Err         error
}

// ClassifierOption configures a Classifier.
type ClassifierOption func(*Classifier)

// WithParallelism bounds how many texts a batch embeds concurrently.
func WithParallelism(n int) ClassifierOption {
	return func(c *Classifier) {
		if n > 0 {
			c.parallelism = n
		}
	}
}

// WithClassifierLogger sets the logger.
func WithClassifierLogger(l *slog.Logger) ClassifierOption {
	return func(c *Classifier) {
		if l != nil {
			c.logger = l
		}
	}
}

// Classifier ranks registered categories against input texts.
// It never mutates the registry.
type Classifier struct {
	registry    *category.Registry
	embedder    search.Embedder
	parallelism int
	logger      *slog.Logger
}

// NewClassifier creates a new Classifier.
func NewClassifier(registry *category.Registry, embedder search.Embedder, opts ...ClassifierOption) *Classifier {
	c := &Classifier{
		registry:    registry,
		embedder:    embedder,
		parallelism: config.DefaultBatchParallelism,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Classify returns the topK categories most similar to text, best first.
// topK is clamped to [1, number of categories].
func (c *Classifier) Classify(ctx context.Context, text string, topK int) ([]Prediction, error) {
	result, err := c.ClassifyDetailed(ctx, text, topK)
	if err != nil {
		return nil, err
	}
	return result.Predictions, nil
}

// ClassifyDetailed is Classify plus the score of every category.
func (c *Classifier) ClassifyDetailed(ctx context.Context, text string, topK int) (Classification, error) {
	snapshot := c.registry.All()
	predictions, scores, err := c.classify(ctx, snapshot, text, topK, true)
	if err != nil {
		return Classification{}, err
	}
	return Classification{Text: text, Predictions: predictions, Scores: scores}, nil
}

// BatchInput is one entry of a batch. Err marks an entry the caller could
// not decode; it is reported as that item's error and never embedded.
type BatchInput struct {
	Text string
	Err  error
}

// BatchClassify classifies each text independently against one registry
// snapshot. Results are in input order and failures are reported per item.
func (c *Classifier) BatchClassify(ctx context.Context, texts []string, topK int) []BatchItem {
	inputs := make([]BatchInput, len(texts))
	for i, text := range texts {
		inputs[i] = BatchInput{Text: text}
	}
	return c.BatchClassifyInputs(ctx, inputs, topK)
}

// BatchClassifyInputs is BatchClassify for entries that may already carry a
// decoding error.
func (c *Classifier) BatchClassifyInputs(ctx context.Context, inputs []BatchInput, topK int) []BatchItem {
	items := make([]BatchItem, len(inputs))
	if len(inputs) == 0 {
		return items
	}

	snapshot := c.registry.All()

	var g errgroup.Group
	g.SetLimit(c.parallelism)
	for i, input := range inputs {
		items[i] = BatchItem{Index: i, Text: input.Text}
		if input.Err != nil {
			items[i].Err = input.Err
			continue
		}
		g.Go(func() error {
			predictions, _, err := c.classify(ctx, snapshot, input.Text, topK, false)
			if err != nil {
				items[i].Err = err
				return nil
			}
			items[i].Predictions = predictions
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, item := range items {
		if item.Err != nil {
			failed++
		}
	}
	c.logger.Debug("batch classified",
		slog.Int("texts", len(inputs)),
		slog.Int("failed", failed),
		slog.Int("categories", len(snapshot)),
	)

	return items
}

func (c *Classifier) classify(ctx context.Context, snapshot []category.Category, text string, topK int, withScores bool) ([]Prediction, map[string]float64, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil, fmt.Errorf("%w: text must not be empty", category.ErrInvalidInput)
	}

	query, err := search.EmbedOne(ctx, c.embedder, text, c.registry.Dimension())
	if err != nil {
		return nil, nil, fmt.Errorf("classify: %w", err)
	}

	ranked := search.Rank(query, snapshot, topK)
	predictions := make([]Prediction, len(ranked))
	for i, r := range ranked {
		predictions[i] = Prediction{
			Category:    r.Candidate().Name(),
			Description: r.Candidate().Description(),
			Score:       r.Score(),
		}
	}

	if !withScores {
		return predictions, nil, nil
	}
	scores := make(map[string]float64, len(snapshot))
	for _, s := range search.Score(query, snapshot) {
		scores[s.Candidate().Name()] = s.Score()
	}
	return predictions, scores, nil
}
