// Package textclassifier classifies free text against a dynamic set of named
// categories by comparing embedding vectors.
//
// Basic usage:
//
//	client, err := textclassifier.New(
//	    textclassifier.WithHashEmbedding(256),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	// Rank the built-in categories
//	predictions, err := client.Classifier.Classify(ctx, "the striker scored twice", 3)
//
//	// Teach it a new category
//	_, err = client.Categories.Add(ctx, "gardening", "plants, flowers, soil and seeds")
package textclassifier

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/helixml/textclassifier/application/service"
	"github.com/helixml/textclassifier/domain/category"
	"github.com/helixml/textclassifier/domain/search"
	"github.com/helixml/textclassifier/infrastructure/provider"
	"github.com/helixml/textclassifier/internal/config"
	"github.com/helixml/textclassifier/internal/mcp"
)

// ModelInfo describes the embedding model a client classifies with.
type ModelInfo struct {
	Provider  string
	Name      string
	Type      string
	Dimension int
}

// Client is the main entry point for the textclassifier library.
//
// Access operations via struct fields:
//
//	client.Classifier.Classify(ctx, text, 3)
//	client.Categories.Add(ctx, name, description)
type Client struct {
	Classifier *service.Classifier
	Categories *service.Categories

	registry    *category.Registry
	provider    provider.EmbeddingProvider
	info        ModelInfo
	defaultTopK int
	batchTopK   int
	closers     []io.Closer

	logger *slog.Logger
	closed atomic.Bool
	mu     sync.Mutex
}

// New creates a new Client with the given options. It builds the embedding
// provider, detects its output dimension and seeds the category registry.
func New(opts ...Option) (*Client, error) {
	cfg := newClientConfig()

	for _, opt := range opts {
		opt(cfg)
	}

	logger := cfg.logger
	if logger == nil {
		logger = config.DefaultLogger()
	}

	defs, err := initialCategories(cfg)
	if err != nil {
		return nil, err
	}

	p, err := resolveProvider(cfg, logger)
	if err != nil {
		return nil, err
	}

	ctx := context.Background()
	embedder := provider.NewSearchEmbedder(p)

	dimension, err := search.DetectDimension(ctx, embedder)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("detect embedding dimension: %w", err), p.Close())
	}

	registry := category.NewRegistry(dimension)
	categories := service.NewCategories(registry, embedder,
		service.WithBatchParallelism(cfg.batchParallelism),
		service.WithCategoriesLogger(logger),
	)
	classifier := service.NewClassifier(registry, embedder,
		service.WithParallelism(cfg.batchParallelism),
		service.WithClassifierLogger(logger),
	)

	if err := categories.Seed(ctx, defs); err != nil {
		return nil, errors.Join(fmt.Errorf("seed categories: %w", err), p.Close())
	}

	info := ModelInfo{
		Provider:  p.Name(),
		Name:      p.Model(),
		Type:      modelType(p.Name()),
		Dimension: dimension,
	}

	logger.Info("text classifier ready",
		slog.String("provider", info.Provider),
		slog.String("model", info.Name),
		slog.Int("dimension", dimension),
		slog.Int("categories", registry.Len()),
	)

	return &Client{
		Classifier:  classifier,
		Categories:  categories,
		registry:    registry,
		provider:    p,
		info:        info,
		defaultTopK: cfg.defaultTopK,
		batchTopK:   cfg.batchTopK,
		closers:     cfg.closers,
		logger:      logger,
	}, nil
}

// Close releases the embedding provider and any registered resources.
func (c *Client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return ErrClientClosed
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	var errs []error
	if err := c.provider.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close %s provider: %w", c.provider.Name(), err))
	}

	// Close registered resources (e.g. caching transports)
	for _, closer := range c.closers {
		if err := closer.Close(); err != nil {
			c.logger.Error("failed to close resource", slog.Any("error", err))
		}
	}

	c.logger.Info("text classifier closed")
	return errors.Join(errs...)
}

// Registry returns the category registry.
func (c *Client) Registry() *category.Registry {
	return c.registry
}

// Info describes the embedding model.
func (c *Client) Info() ModelInfo {
	return c.info
}

// DefaultTopK returns the default prediction count for single classification.
func (c *Client) DefaultTopK() int {
	return c.defaultTopK
}

// BatchTopK returns the default prediction count per text in a batch.
func (c *Client) BatchTopK() int {
	return c.batchTopK
}

// Logger returns the client's logger.
func (c *Client) Logger() *slog.Logger {
	return c.logger
}

// MCPServer builds a Model Context Protocol server over this client.
func (c *Client) MCPServer(version string) *mcp.Server {
	return mcp.NewServer(c.Classifier, c.Categories,
		mcp.ModelInfo{
			Provider:  c.info.Provider,
			Name:      c.info.Name,
			Type:      c.info.Type,
			Dimension: c.info.Dimension,
		},
		version,
		mcp.WithLogger(c.logger.With("component", "mcp")),
		mcp.WithDefaultTopK(c.defaultTopK),
		mcp.WithBatchTopK(c.batchTopK),
	)
}

func initialCategories(cfg *clientConfig) ([]category.Definition, error) {
	switch {
	case len(cfg.categories) > 0:
		return cfg.categories, nil
	case cfg.categoriesFile != "":
		defs, err := category.LoadTaxonomy(cfg.categoriesFile)
		if err != nil {
			return nil, fmt.Errorf("load categories: %w", err)
		}
		return defs, nil
	default:
		return category.Defaults(), nil
	}
}

// resolveProvider returns the configured provider or builds one for the
// configured kind. Auto prefers the local model and falls back to hashing.
func resolveProvider(cfg *clientConfig, logger *slog.Logger) (provider.EmbeddingProvider, error) {
	if cfg.provider != nil {
		return cfg.provider, nil
	}

	modelDir := cfg.modelDir
	if modelDir == "" {
		modelDir = config.DefaultModelDir(cfg.dataDir)
	}

	switch cfg.providerKind {
	case config.ProviderHash:
		return provider.NewHashEmbedding(cfg.hashDimension), nil
	case config.ProviderHugot:
		hugot := provider.NewHugotEmbedding(modelDir)
		if !hugot.Available() {
			return nil, fmt.Errorf("%w: %w in %s, run 'textclassifier download-model' first", ErrNoProvider, provider.ErrModelUnavailable, modelDir)
		}
		return hugot, nil
	case config.ProviderOpenAI:
		return nil, fmt.Errorf("%w: openai provider needs EMBEDDING_ENDPOINT_MODEL or EMBEDDING_ENDPOINT_BASE_URL", ErrNoProvider)
	default:
		hugot := provider.NewHugotEmbedding(modelDir)
		if hugot.Available() {
			logger.Info("built-in embedding provider enabled", slog.String("model_dir", modelDir))
			return hugot, nil
		}
		logger.Warn("no local embedding model found, falling back to hash embeddings",
			slog.String("model_dir", modelDir),
			slog.Int("dimension", cfg.hashDimension),
		)
		return provider.NewHashEmbedding(cfg.hashDimension), nil
	}
}

func modelType(providerName string) string {
	switch providerName {
	case "hugot":
		return "ONNX sentence embeddings"
	case "openai":
		return "OpenAI-compatible embeddings API"
	case "hash":
		return "Hashed bag-of-words"
	default:
		return "Custom embeddings"
	}
}
