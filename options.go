package textclassifier

import (
	"io"
	"log/slog"

	"github.com/helixml/textclassifier/domain/category"
	"github.com/helixml/textclassifier/infrastructure/provider"
	"github.com/helixml/textclassifier/internal/config"
)

// clientConfig holds configuration for Client construction.
// Use newClientConfig() to create with defaults from internal/config.
type clientConfig struct {
	dataDir          string
	modelDir         string
	providerKind     config.ProviderKind
	provider         provider.EmbeddingProvider
	hashDimension    int
	categories       []category.Definition
	categoriesFile   string
	defaultTopK      int
	batchTopK        int
	batchParallelism int
	logger           *slog.Logger
	closers          []io.Closer
}

// newClientConfig creates a clientConfig with defaults from internal/config.
func newClientConfig() *clientConfig {
	return &clientConfig{
		dataDir:          config.DefaultDataDir(),
		providerKind:     config.ProviderAuto,
		hashDimension:    config.DefaultHashDimension,
		defaultTopK:      config.DefaultTopK,
		batchTopK:        config.DefaultBatchTopK,
		batchParallelism: config.DefaultBatchParallelism,
	}
}

// Option configures the Client.
type Option func(*clientConfig)

// WithEmbeddingProvider sets a custom embedding provider. The client closes
// it on shutdown.
func WithEmbeddingProvider(p provider.EmbeddingProvider) Option {
	return func(c *clientConfig) {
		c.provider = p
	}
}

// WithOpenAIConfig embeds through an OpenAI-compatible endpoint.
func WithOpenAIConfig(cfg provider.OpenAIConfig) Option {
	return func(c *clientConfig) {
		c.provider = provider.NewOpenAIProviderFromConfig(cfg)
		c.providerKind = config.ProviderOpenAI
	}
}

// WithHugot requires the local ONNX model. New fails when the model is
// missing from the model directory.
func WithHugot() Option {
	return func(c *clientConfig) {
		c.providerKind = config.ProviderHugot
	}
}

// WithHashEmbedding uses the deterministic hash embedder of the given
// dimension. Values <= 0 keep the default dimension.
func WithHashEmbedding(dimension int) Option {
	return func(c *clientConfig) {
		c.providerKind = config.ProviderHash
		if dimension > 0 {
			c.hashDimension = dimension
		}
	}
}

// WithHashDimension sets the dimension the hash embedder uses when it is
// selected, explicitly or as the auto fallback.
func WithHashDimension(dimension int) Option {
	return func(c *clientConfig) {
		if dimension > 0 {
			c.hashDimension = dimension
		}
	}
}

// WithProviderKind selects the embedding provider by kind. ProviderOpenAI
// also needs WithOpenAIConfig.
func WithProviderKind(kind config.ProviderKind) Option {
	return func(c *clientConfig) {
		c.providerKind = kind
	}
}

// WithCategories replaces the built-in taxonomy.
func WithCategories(defs []category.Definition) Option {
	return func(c *clientConfig) {
		c.categories = append([]category.Definition(nil), defs...)
	}
}

// WithCategoriesFile loads the initial taxonomy from a YAML file.
func WithCategoriesFile(path string) Option {
	return func(c *clientConfig) {
		c.categoriesFile = path
	}
}

// WithDefaultTopK sets the number of predictions a single classification
// returns when the caller does not say. Values <= 0 are ignored.
func WithDefaultTopK(n int) Option {
	return func(c *clientConfig) {
		if n > 0 {
			c.defaultTopK = n
		}
	}
}

// WithBatchTopK sets the default number of predictions per text in a batch.
// Values <= 0 are ignored.
func WithBatchTopK(n int) Option {
	return func(c *clientConfig) {
		if n > 0 {
			c.batchTopK = n
		}
	}
}

// WithBatchParallelism sets how many embeddings batch operations compute
// concurrently. Values <= 0 are ignored.
func WithBatchParallelism(n int) Option {
	return func(c *clientConfig) {
		if n > 0 {
			c.batchParallelism = n
		}
	}
}

// WithDataDir sets the data directory.
func WithDataDir(dir string) Option {
	return func(c *clientConfig) {
		c.dataDir = dir
	}
}

// WithModelDir sets the directory where built-in model files are stored.
// Defaults to {dataDir}/models if not specified.
func WithModelDir(dir string) Option {
	return func(c *clientConfig) {
		c.modelDir = dir
	}
}

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *clientConfig) {
		c.logger = l
	}
}

// WithCloser registers a resource to be closed when the Client shuts down.
func WithCloser(c io.Closer) Option {
	return func(cfg *clientConfig) {
		cfg.closers = append(cfg.closers, c)
	}
}
