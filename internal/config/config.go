// Package config provides application configuration.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Default configuration values.
const (
	DefaultHost                  = "127.0.0.1"
	DefaultPort                  = 8000
	DefaultLogLevel              = "INFO"
	DefaultModelSubdir           = "models"
	DefaultHashDimension         = 256
	DefaultTopK                  = 3
	DefaultBatchTopK             = 1
	DefaultBatchParallelism      = 4
	DefaultEndpointTimeout       = 60 * time.Second
	DefaultEndpointMaxRetries    = 0
	DefaultEndpointInitialDelay  = 2 * time.Second
	DefaultEndpointBackoffFactor = 2.0
)

// LogFormat represents the log output format.
type LogFormat string

// LogFormat values.
const (
	LogFormatPretty LogFormat = "pretty"
	LogFormatJSON   LogFormat = "json"
)

// ProviderKind selects the embedding provider.
type ProviderKind string

// ProviderKind values.
const (
	// ProviderAuto uses the OpenAI endpoint when configured, otherwise the
	// local hugot model when present, otherwise the hash embedder.
	ProviderAuto   ProviderKind = "auto"
	ProviderHugot  ProviderKind = "hugot"
	ProviderOpenAI ProviderKind = "openai"
	ProviderHash   ProviderKind = "hash"
)

// ParseProviderKind parses a provider name, case-insensitively.
func ParseProviderKind(s string) (ProviderKind, error) {
	switch kind := ProviderKind(strings.ToLower(strings.TrimSpace(s))); kind {
	case "":
		return ProviderAuto, nil
	case ProviderAuto, ProviderHugot, ProviderOpenAI, ProviderHash:
		return kind, nil
	default:
		return "", fmt.Errorf("unknown embedding provider %q (want auto, hugot, openai or hash)", s)
	}
}

// Endpoint configures an OpenAI-compatible embedding endpoint.
type Endpoint struct {
	baseURL       string
	model         string
	apiKey        string
	timeout       time.Duration
	maxRetries    int
	initialDelay  time.Duration
	backoffFactor float64
}

// NewEndpoint creates a new Endpoint with defaults.
func NewEndpoint() Endpoint {
	return Endpoint{
		timeout:       DefaultEndpointTimeout,
		maxRetries:    DefaultEndpointMaxRetries,
		initialDelay:  DefaultEndpointInitialDelay,
		backoffFactor: DefaultEndpointBackoffFactor,
	}
}

// BaseURL returns the base URL for the endpoint.
func (e Endpoint) BaseURL() string { return e.baseURL }

// Model returns the model identifier.
func (e Endpoint) Model() string { return e.model }

// APIKey returns the API key.
func (e Endpoint) APIKey() string { return e.apiKey }

// Timeout returns the request timeout.
func (e Endpoint) Timeout() time.Duration { return e.timeout }

// MaxRetries returns the maximum retry count.
func (e Endpoint) MaxRetries() int { return e.maxRetries }

// InitialDelay returns the initial retry delay.
func (e Endpoint) InitialDelay() time.Duration { return e.initialDelay }

// BackoffFactor returns the retry backoff multiplier.
func (e Endpoint) BackoffFactor() float64 { return e.backoffFactor }

// IsConfigured returns true if the endpoint has required configuration.
func (e Endpoint) IsConfigured() bool {
	return e.model != ""
}

// EndpointOption is a functional option for Endpoint.
type EndpointOption func(*Endpoint)

// WithBaseURL sets the base URL.
func WithBaseURL(url string) EndpointOption {
	return func(e *Endpoint) { e.baseURL = url }
}

// WithModel sets the model.
func WithModel(model string) EndpointOption {
	return func(e *Endpoint) { e.model = model }
}

// WithAPIKey sets the API key.
func WithAPIKey(key string) EndpointOption {
	return func(e *Endpoint) { e.apiKey = key }
}

// WithTimeout sets the request timeout.
func WithTimeout(d time.Duration) EndpointOption {
	return func(e *Endpoint) { e.timeout = d }
}

// WithMaxRetries sets the maximum retry count.
func WithMaxRetries(n int) EndpointOption {
	return func(e *Endpoint) { e.maxRetries = n }
}

// WithInitialDelay sets the initial retry delay.
func WithInitialDelay(d time.Duration) EndpointOption {
	return func(e *Endpoint) { e.initialDelay = d }
}

// WithBackoffFactor sets the retry backoff multiplier.
func WithBackoffFactor(f float64) EndpointOption {
	return func(e *Endpoint) { e.backoffFactor = f }
}

// NewEndpointWithOptions creates an Endpoint with functional options.
func NewEndpointWithOptions(opts ...EndpointOption) Endpoint {
	e := NewEndpoint()
	for _, opt := range opts {
		opt(&e)
	}
	return e
}

// AppConfig holds the main application configuration.
type AppConfig struct {
	host               string
	port               int
	dataDir            string
	modelDir           string
	logLevel           string
	logFormat          LogFormat
	provider           ProviderKind
	embeddingEndpoint  *Endpoint
	hashDimension      int
	categoriesFile     string
	defaultTopK        int
	batchTopK          int
	batchParallelism   int
	httpCacheDir       string
	corsAllowedOrigins []string
	envFiles           []string
}

// DefaultDataDir returns the default data directory.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".textclassifier"
	}
	return filepath.Join(home, ".textclassifier")
}

// DefaultModelDir returns the default model directory for a given data directory.
func DefaultModelDir(dataDir string) string {
	return filepath.Join(dataDir, DefaultModelSubdir)
}

// DefaultLogger returns the default slog logger for library consumers.
func DefaultLogger() *slog.Logger {
	return slog.Default()
}

// PrepareDataDir creates the data directory if it does not exist and returns it.
func PrepareDataDir(dataDir string) (string, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return "", fmt.Errorf("create data directory: %w", err)
	}
	return dataDir, nil
}

// NewAppConfig creates a new AppConfig with defaults.
func NewAppConfig() AppConfig {
	return AppConfig{
		host:               DefaultHost,
		port:               DefaultPort,
		dataDir:            DefaultDataDir(),
		logLevel:           DefaultLogLevel,
		logFormat:          LogFormatPretty,
		provider:           ProviderAuto,
		hashDimension:      DefaultHashDimension,
		defaultTopK:        DefaultTopK,
		batchTopK:          DefaultBatchTopK,
		batchParallelism:   DefaultBatchParallelism,
		corsAllowedOrigins: []string{"*"},
	}
}

// Host returns the server host to bind to.
func (c AppConfig) Host() string { return c.host }

// Port returns the server port to listen on.
func (c AppConfig) Port() int { return c.port }

// Addr returns the combined host:port address.
func (c AppConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.host, c.port)
}

// DataDir returns the data directory path.
func (c AppConfig) DataDir() string { return c.dataDir }

// ModelDir returns the local model directory, defaulting under the data directory.
func (c AppConfig) ModelDir() string {
	if c.modelDir != "" {
		return c.modelDir
	}
	return DefaultModelDir(c.dataDir)
}

// LogLevel returns the log level.
func (c AppConfig) LogLevel() string { return c.logLevel }

// LogFormat returns the log format.
func (c AppConfig) LogFormat() LogFormat { return c.logFormat }

// Provider returns the selected embedding provider.
func (c AppConfig) Provider() ProviderKind { return c.provider }

// EmbeddingEndpoint returns the embedding endpoint config, or nil.
func (c AppConfig) EmbeddingEndpoint() *Endpoint { return c.embeddingEndpoint }

// HashDimension returns the vector size of the hash embedder.
func (c AppConfig) HashDimension() int { return c.hashDimension }

// CategoriesFile returns the taxonomy file path, empty for the built-in defaults.
func (c AppConfig) CategoriesFile() string { return c.categoriesFile }

// DefaultTopK returns the default top_k for single classification.
func (c AppConfig) DefaultTopK() int { return c.defaultTopK }

// BatchTopK returns the default top_k for batch classification.
func (c AppConfig) BatchTopK() int { return c.batchTopK }

// BatchParallelism returns how many embeddings a batch runs at once.
func (c AppConfig) BatchParallelism() int { return c.batchParallelism }

// HTTPCacheDir returns the HTTP response cache directory, empty when disabled.
func (c AppConfig) HTTPCacheDir() string { return c.httpCacheDir }

// CORSAllowedOrigins returns the allowed CORS origins.
func (c AppConfig) CORSAllowedOrigins() []string {
	origins := make([]string, len(c.corsAllowedOrigins))
	copy(origins, c.corsAllowedOrigins)
	return origins
}

// EnvFiles returns the dotenv files the configuration was loaded from.
func (c AppConfig) EnvFiles() []string {
	return append([]string(nil), c.envFiles...)
}

// EnsureDataDir creates the data directory if it doesn't exist.
func (c AppConfig) EnsureDataDir() error {
	return os.MkdirAll(c.dataDir, 0o755)
}

// AppConfigOption is a functional option for AppConfig.
type AppConfigOption func(*AppConfig)

// WithHost sets the server host.
func WithHost(host string) AppConfigOption {
	return func(c *AppConfig) { c.host = host }
}

// WithPort sets the server port.
func WithPort(port int) AppConfigOption {
	return func(c *AppConfig) { c.port = port }
}

// WithDataDir sets the data directory.
func WithDataDir(dir string) AppConfigOption {
	return func(c *AppConfig) { c.dataDir = dir }
}

// WithModelDir sets the local model directory.
func WithModelDir(dir string) AppConfigOption {
	return func(c *AppConfig) { c.modelDir = dir }
}

// WithLogLevel sets the log level.
func WithLogLevel(level string) AppConfigOption {
	return func(c *AppConfig) { c.logLevel = level }
}

// WithLogFormat sets the log format.
func WithLogFormat(format LogFormat) AppConfigOption {
	return func(c *AppConfig) { c.logFormat = format }
}

// WithProvider selects the embedding provider.
func WithProvider(kind ProviderKind) AppConfigOption {
	return func(c *AppConfig) { c.provider = kind }
}

// WithEmbeddingEndpoint sets the embedding endpoint.
func WithEmbeddingEndpoint(e Endpoint) AppConfigOption {
	return func(c *AppConfig) { c.embeddingEndpoint = &e }
}

// WithHashDimension sets the hash embedder dimension.
func WithHashDimension(n int) AppConfigOption {
	return func(c *AppConfig) {
		if n > 0 {
			c.hashDimension = n
		}
	}
}

// WithCategoriesFile sets the taxonomy file.
func WithCategoriesFile(path string) AppConfigOption {
	return func(c *AppConfig) { c.categoriesFile = path }
}

// WithDefaultTopK sets the default top_k for single classification.
func WithDefaultTopK(n int) AppConfigOption {
	return func(c *AppConfig) {
		if n > 0 {
			c.defaultTopK = n
		}
	}
}

// WithBatchTopK sets the default top_k for batch classification.
func WithBatchTopK(n int) AppConfigOption {
	return func(c *AppConfig) {
		if n > 0 {
			c.batchTopK = n
		}
	}
}

// WithBatchParallelism sets how many embeddings a batch runs at once.
func WithBatchParallelism(n int) AppConfigOption {
	return func(c *AppConfig) {
		if n > 0 {
			c.batchParallelism = n
		}
	}
}

// WithHTTPCacheDir enables on-disk caching of embedding HTTP responses.
func WithHTTPCacheDir(dir string) AppConfigOption {
	return func(c *AppConfig) { c.httpCacheDir = dir }
}

// WithCORSAllowedOrigins sets the allowed CORS origins.
func WithCORSAllowedOrigins(origins []string) AppConfigOption {
	return func(c *AppConfig) {
		if len(origins) == 0 {
			return
		}
		c.corsAllowedOrigins = make([]string, len(origins))
		copy(c.corsAllowedOrigins, origins)
	}
}

// WithEnvFiles records the dotenv files that were applied.
func WithEnvFiles(files ...string) AppConfigOption {
	return func(c *AppConfig) {
		c.envFiles = append([]string(nil), files...)
	}
}

// NewAppConfigWithOptions creates an AppConfig with functional options.
func NewAppConfigWithOptions(opts ...AppConfigOption) AppConfig {
	c := NewAppConfig()
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// Apply returns a new AppConfig with the given options applied.
func (c AppConfig) Apply(opts ...AppConfigOption) AppConfig {
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// LogAttrs returns slog attributes for logging the configuration.
// The API key is never included.
func (c AppConfig) LogAttrs() []slog.Attr {
	return []slog.Attr{
		slog.String("addr", c.Addr()),
		slog.String("data_dir", c.dataDir),
		slog.String("model_dir", c.ModelDir()),
		slog.String("log_level", c.logLevel),
		slog.String("embedding_provider", string(c.provider)),
		slog.String("embedding_base_url", c.endpointBaseURL()),
		slog.String("embedding_model", c.endpointModel()),
		slog.String("categories_file", valueOr(c.categoriesFile, "(built-in)")),
		slog.Int("default_top_k", c.defaultTopK),
		slog.Int("batch_top_k", c.batchTopK),
		slog.Int("batch_parallelism", c.batchParallelism),
		slog.Bool("http_cache", c.httpCacheDir != ""),
		slog.Any("env_files", c.envFiles),
	}
}

func (c AppConfig) endpointBaseURL() string {
	if c.embeddingEndpoint == nil {
		return "(not configured)"
	}
	return valueOr(c.embeddingEndpoint.BaseURL(), "(default)")
}

func (c AppConfig) endpointModel() string {
	if c.embeddingEndpoint == nil {
		return "(not configured)"
	}
	return c.embeddingEndpoint.Model()
}

func valueOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

// ParseList parses a comma-separated string, dropping blank entries.
func ParseList(s string) []string {
	if s == "" {
		return []string{}
	}
	parts := strings.Split(s, ",")
	items := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}
