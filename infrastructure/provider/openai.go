package provider

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/helixml/textclassifier/internal/config"
)

// DefaultEmbeddingModel is used when no model is configured.
const DefaultEmbeddingModel = "text-embedding-3-small"

// errEmbeddingCountMismatch indicates the API returned fewer embedding vectors
// than requested. This is retryable because transient upstream issues (e.g.
// rate-limiting behind a 200 status) can produce partial responses.
var errEmbeddingCountMismatch = errors.New("embedding response count mismatch")

// errUpstreamProviderFailure indicates the API returned HTTP 200 but the
// response body contained an error instead of embedding data. Routing
// providers do this when every upstream fails.
var errUpstreamProviderFailure = errors.New("upstream provider failure")

// OpenAIProvider generates embeddings through an OpenAI-compatible API.
type OpenAIProvider struct {
	client         *openai.Client
	embeddingModel string
	maxRetries     int
	initialDelay   time.Duration
	backoffFactor  float64
}

// OpenAIConfig holds configuration for OpenAI provider.
type OpenAIConfig struct {
	APIKey         string
	BaseURL        string
	EmbeddingModel string
	Timeout        time.Duration
	MaxRetries     int
	InitialDelay   time.Duration
	BackoffFactor  float64
	// HTTPClient overrides the client used for API calls. Timeout is
	// applied to it when set.
	HTTPClient *http.Client
}

// OpenAIConfigFromEndpoint maps the EMBEDDING_ENDPOINT_* settings onto an
// OpenAIConfig. HTTPClient is left for the caller.
func OpenAIConfigFromEndpoint(endpoint config.Endpoint) OpenAIConfig {
	return OpenAIConfig{
		APIKey:         endpoint.APIKey(),
		BaseURL:        endpoint.BaseURL(),
		EmbeddingModel: endpoint.Model(),
		Timeout:        endpoint.Timeout(),
		MaxRetries:     endpoint.MaxRetries(),
		InitialDelay:   endpoint.InitialDelay(),
		BackoffFactor:  endpoint.BackoffFactor(),
	}
}

// NewOpenAIProviderFromConfig creates a provider from configuration.
// MaxRetries of zero disables retries.
func NewOpenAIProviderFromConfig(cfg OpenAIConfig) *OpenAIProvider {
	clientCfg := openai.DefaultConfig(cfg.APIKey)

	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil && cfg.Timeout > 0 {
		httpClient = &http.Client{}
	}
	if httpClient != nil {
		if cfg.Timeout > 0 {
			httpClient.Timeout = cfg.Timeout
		}
		clientCfg.HTTPClient = httpClient
	}

	embeddingModel := cfg.EmbeddingModel
	if embeddingModel == "" {
		embeddingModel = DefaultEmbeddingModel
	}

	maxRetries := max(cfg.MaxRetries, 0)

	initialDelay := cfg.InitialDelay
	if initialDelay == 0 {
		initialDelay = 2 * time.Second
	}

	backoffFactor := cfg.BackoffFactor
	if backoffFactor == 0 {
		backoffFactor = 2.0
	}

	return &OpenAIProvider{
		client:         openai.NewClientWithConfig(clientCfg),
		embeddingModel: embeddingModel,
		maxRetries:     maxRetries,
		initialDelay:   initialDelay,
		backoffFactor:  backoffFactor,
	}
}

// Name returns "openai".
func (p *OpenAIProvider) Name() string { return "openai" }

// Model returns the embedding model.
func (p *OpenAIProvider) Model() string { return p.embeddingModel }

// Close is a no-op for the OpenAI provider.
func (p *OpenAIProvider) Close() error {
	return nil
}

// Embed generates embeddings for the given texts in a single API call.
func (p *OpenAIProvider) Embed(ctx context.Context, req EmbeddingRequest) (EmbeddingResponse, error) {
	texts := req.Texts()
	if len(texts) == 0 {
		return NewEmbeddingResponse([][]float64{}, NewUsage(0, 0)), nil
	}

	openaiReq := openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(p.embeddingModel),
		Input: texts,
	}

	var resp openai.EmbeddingResponse
	var err error

	err = p.withRetry(ctx, func() error {
		resp, err = p.client.CreateEmbeddings(ctx, openaiReq)
		if err != nil {
			return err
		}
		// go-openai silently parses an error body returned with HTTP 200 as
		// an empty response.
		if len(resp.Data) == 0 && string(resp.Model) == "" && resp.Usage.TotalTokens == 0 {
			return fmt.Errorf(
				"%w: provider returned HTTP 200 with no embedding data, no model, and zero usage",
				errUpstreamProviderFailure,
			)
		}
		if len(resp.Data) != len(texts) {
			return fmt.Errorf("%w: got %d vectors for %d texts", errEmbeddingCountMismatch, len(resp.Data), len(texts))
		}
		return nil
	})

	if err != nil {
		return EmbeddingResponse{}, p.wrapError("embedding", err)
	}

	embeddings := make([][]float64, len(resp.Data))
	for i, data := range resp.Data {
		embeddings[i] = make([]float64, len(data.Embedding))
		for j, v := range data.Embedding {
			embeddings[i][j] = float64(v)
		}
	}

	usage := NewUsage(resp.Usage.PromptTokens, resp.Usage.TotalTokens)
	return NewEmbeddingResponse(embeddings, usage), nil
}

// withRetry executes the function with exponential backoff retry.
func (p *OpenAIProvider) withRetry(ctx context.Context, fn func() error) error {
	delay := p.initialDelay
	var lastErr error

	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}

		if !p.isRetryable(lastErr) {
			return lastErr
		}

		if attempt < p.maxRetries {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
				delay = time.Duration(float64(delay) * p.backoffFactor)
			}
		}
	}

	if p.maxRetries == 0 {
		return lastErr
	}
	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

// isRetryable determines if an error should be retried.
func (p *OpenAIProvider) isRetryable(err error) bool {
	if errors.Is(err, errEmbeddingCountMismatch) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout:
			return true
		}
	}

	var reqErr *openai.RequestError
	return errors.As(err, &reqErr)
}

// wrapError wraps an OpenAI error into a ProviderError.
func (p *OpenAIProvider) wrapError(operation string, err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return NewProviderError(operation, apiErr.HTTPStatusCode, apiErr.Message, err)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return NewProviderError(operation, reqErr.HTTPStatusCode, reqErr.Error(), err)
	}

	return NewProviderError(operation, 0, err.Error(), err)
}

var _ EmbeddingProvider = (*OpenAIProvider)(nil)
