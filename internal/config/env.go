package config

import (
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvConfig holds all environment-based configuration.
// Nested structs use underscore delimiter (e.g., EMBEDDING_ENDPOINT_BASE_URL).
type EnvConfig struct {
	// Host is the server host to bind to.
	// Env: HOST (default: 127.0.0.1)
	Host string `envconfig:"HOST" default:"127.0.0.1"`

	// Port is the server port to listen on.
	// Env: PORT (default: 8000)
	Port int `envconfig:"PORT" default:"8000"`

	// DataDir is the data directory path.
	// Env: DATA_DIR
	// Default: ~/.textclassifier
	DataDir string `envconfig:"DATA_DIR"`

	// ModelDir holds downloaded hugot models.
	// Env: MODEL_DIR
	// Default: {data_dir}/models
	ModelDir string `envconfig:"MODEL_DIR"`

	// LogLevel is the log verbosity level.
	// Env: LOG_LEVEL (default: INFO)
	LogLevel string `envconfig:"LOG_LEVEL" default:"INFO"`

	// LogFormat is the log output format (pretty or json).
	// Env: LOG_FORMAT (default: pretty)
	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`

	// EmbeddingProvider selects auto, hugot, openai or hash.
	// Env: EMBEDDING_PROVIDER (default: auto)
	EmbeddingProvider string `envconfig:"EMBEDDING_PROVIDER" default:"auto"`

	// EmbeddingEndpoint configures the OpenAI-compatible embedding service.
	EmbeddingEndpoint EndpointEnv `envconfig:"EMBEDDING_ENDPOINT"`

	// HashDimension is the vector size of the hash embedder.
	// Env: HASH_DIMENSION (default: 256)
	HashDimension int `envconfig:"HASH_DIMENSION" default:"256"`

	// CategoriesFile is a YAML taxonomy that replaces the built-in categories.
	// Env: CATEGORIES_FILE
	CategoriesFile string `envconfig:"CATEGORIES_FILE"`

	// DefaultTopK is the top_k used by classify_text when none is given.
	// Env: DEFAULT_TOP_K (default: 3)
	DefaultTopK int `envconfig:"DEFAULT_TOP_K" default:"3"`

	// BatchTopK is the top_k used by batch_classify when none is given.
	// Env: BATCH_TOP_K (default: 1)
	BatchTopK int `envconfig:"BATCH_TOP_K" default:"1"`

	// BatchParallelism bounds concurrent embeddings in batch operations.
	// Env: BATCH_PARALLELISM (default: 4)
	BatchParallelism int `envconfig:"BATCH_PARALLELISM" default:"4"`

	// HTTPCacheDir is the directory for caching HTTP responses to disk.
	// When set, embedding request/response pairs are cached to avoid repeated API calls.
	// Env: HTTP_CACHE_DIR
	HTTPCacheDir string `envconfig:"HTTP_CACHE_DIR"`

	// CORSAllowedOrigins is a comma-separated list of allowed origins.
	// Env: CORS_ALLOWED_ORIGINS (default: *)
	CORSAllowedOrigins string `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`
}

// EndpointEnv holds environment configuration for an embedding endpoint.
type EndpointEnv struct {
	// BaseURL is the base URL for the endpoint.
	// Env: *_BASE_URL
	BaseURL string `envconfig:"BASE_URL"`

	// Model is the model identifier (e.g., text-embedding-3-small).
	// Env: *_MODEL
	Model string `envconfig:"MODEL"`

	// APIKey is the API key for authentication.
	// Env: *_API_KEY
	APIKey string `envconfig:"API_KEY"`

	// Timeout is the request timeout in seconds.
	// Env: *_TIMEOUT (default: 60)
	Timeout float64 `envconfig:"TIMEOUT" default:"60"`

	// MaxRetries is the maximum number of retries.
	// Env: *_MAX_RETRIES (default: 0)
	MaxRetries int `envconfig:"MAX_RETRIES" default:"0"`

	// InitialDelay is the initial retry delay in seconds.
	// Env: *_INITIAL_DELAY (default: 2.0)
	InitialDelay float64 `envconfig:"INITIAL_DELAY" default:"2.0"`

	// BackoffFactor is the retry backoff multiplier.
	// Env: *_BACKOFF_FACTOR (default: 2.0)
	BackoffFactor float64 `envconfig:"BACKOFF_FACTOR" default:"2.0"`
}

// LoadFromEnv loads configuration from environment variables.
func LoadFromEnv() (EnvConfig, error) {
	var cfg EnvConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return EnvConfig{}, err
	}
	return cfg, nil
}

// LoadFromEnvWithPrefix loads configuration with a custom prefix.
// For example, prefix "TEXTCLASSIFIER" would require TEXTCLASSIFIER_PORT instead of PORT.
func LoadFromEnvWithPrefix(prefix string) (EnvConfig, error) {
	var cfg EnvConfig
	if err := envconfig.Process(prefix, &cfg); err != nil {
		return EnvConfig{}, err
	}
	return cfg, nil
}

// ToAppConfig converts EnvConfig to AppConfig.
func (e EnvConfig) ToAppConfig() (AppConfig, error) {
	cfg := NewAppConfig()

	kind, err := ParseProviderKind(e.EmbeddingProvider)
	if err != nil {
		return AppConfig{}, err
	}

	opts := []AppConfigOption{
		WithProvider(kind),
		WithHashDimension(e.HashDimension),
		WithDefaultTopK(e.DefaultTopK),
		WithBatchTopK(e.BatchTopK),
		WithBatchParallelism(e.BatchParallelism),
		WithCORSAllowedOrigins(ParseList(e.CORSAllowedOrigins)),
	}
	if e.Host != "" {
		opts = append(opts, WithHost(e.Host))
	}
	if e.Port != 0 {
		opts = append(opts, WithPort(e.Port))
	}
	if e.DataDir != "" {
		opts = append(opts, WithDataDir(e.DataDir))
	}
	if e.ModelDir != "" {
		opts = append(opts, WithModelDir(e.ModelDir))
	}
	if e.LogLevel != "" {
		opts = append(opts, WithLogLevel(e.LogLevel))
	}
	if e.LogFormat != "" {
		opts = append(opts, WithLogFormat(parseLogFormat(e.LogFormat)))
	}
	if e.EmbeddingEndpoint.IsConfigured() {
		opts = append(opts, WithEmbeddingEndpoint(e.EmbeddingEndpoint.ToEndpoint()))
	}
	if e.CategoriesFile != "" {
		opts = append(opts, WithCategoriesFile(e.CategoriesFile))
	}
	if e.HTTPCacheDir != "" {
		opts = append(opts, WithHTTPCacheDir(e.HTTPCacheDir))
	}

	return cfg.Apply(opts...), nil
}

// IsConfigured returns true if the endpoint has a model or base URL configured.
func (e EndpointEnv) IsConfigured() bool {
	return e.Model != "" || e.BaseURL != ""
}

// ToEndpoint converts EndpointEnv to Endpoint.
func (e EndpointEnv) ToEndpoint() Endpoint {
	opts := []EndpointOption{
		WithModel(e.Model),
		WithTimeout(time.Duration(e.Timeout * float64(time.Second))),
		WithMaxRetries(e.MaxRetries),
		WithInitialDelay(time.Duration(e.InitialDelay * float64(time.Second))),
		WithBackoffFactor(e.BackoffFactor),
	}

	if e.BaseURL != "" {
		opts = append(opts, WithBaseURL(e.BaseURL))
	}
	if e.APIKey != "" {
		opts = append(opts, WithAPIKey(e.APIKey))
	}

	return NewEndpointWithOptions(opts...)
}

// parseLogFormat parses a log format string.
func parseLogFormat(s string) LogFormat {
	switch strings.ToLower(s) {
	case "json":
		return LogFormatJSON
	default:
		return LogFormatPretty
	}
}
