// Package provider provides embedding provider implementations: a remote
// OpenAI-compatible endpoint, a local hugot model and a deterministic hash
// embedder.
package provider

import (
	"context"
	"errors"
)

// Common errors.
var (
	// ErrModelUnavailable indicates no local model could be found.
	ErrModelUnavailable = errors.New("embedding model unavailable")
)

// Usage represents token usage information.
type Usage struct {
	promptTokens int
	totalTokens  int
}

// NewUsage creates a new Usage.
func NewUsage(prompt, total int) Usage {
	return Usage{promptTokens: prompt, totalTokens: total}
}

// PromptTokens returns the number of prompt tokens.
func (u Usage) PromptTokens() int { return u.promptTokens }

// TotalTokens returns the total number of tokens.
func (u Usage) TotalTokens() int { return u.totalTokens }

// EmbeddingRequest represents a request for embeddings.
type EmbeddingRequest struct {
	texts []string
}

// NewEmbeddingRequest creates a new EmbeddingRequest.
func NewEmbeddingRequest(texts []string) EmbeddingRequest {
	t := make([]string, len(texts))
	copy(t, texts)
	return EmbeddingRequest{texts: t}
}

// Texts returns the texts to embed.
func (r EmbeddingRequest) Texts() []string {
	t := make([]string, len(r.texts))
	copy(t, r.texts)
	return t
}

// EmbeddingResponse represents an embedding response.
type EmbeddingResponse struct {
	embeddings [][]float64
	usage      Usage
}

// NewEmbeddingResponse creates a new EmbeddingResponse.
func NewEmbeddingResponse(embeddings [][]float64, usage Usage) EmbeddingResponse {
	embs := make([][]float64, len(embeddings))
	for i, e := range embeddings {
		embs[i] = make([]float64, len(e))
		copy(embs[i], e)
	}
	return EmbeddingResponse{embeddings: embs, usage: usage}
}

// Embeddings returns the embedding vectors.
func (r EmbeddingResponse) Embeddings() [][]float64 {
	embs := make([][]float64, len(r.embeddings))
	for i, e := range r.embeddings {
		embs[i] = make([]float64, len(e))
		copy(embs[i], e)
	}
	return embs
}

// Usage returns token usage information.
func (r EmbeddingResponse) Usage() Usage { return r.usage }

// Embedder generates embeddings for text.
type Embedder interface {
	// Embed generates embeddings for the given texts.
	Embed(ctx context.Context, req EmbeddingRequest) (EmbeddingResponse, error)
}

// Describer reports which model backs an embedder.
type Describer interface {
	// Name returns the provider name, e.g. "openai".
	Name() string
	// Model returns the model identifier.
	Model() string
}

// EmbeddingProvider is the full surface every provider in this package offers.
type EmbeddingProvider interface {
	Embedder
	Describer
	Close() error
}

// ProviderError wraps provider errors with additional context.
type ProviderError struct {
	operation  string
	statusCode int
	message    string
	cause      error
}

// NewProviderError creates a new ProviderError.
func NewProviderError(operation string, statusCode int, message string, cause error) *ProviderError {
	return &ProviderError{
		operation:  operation,
		statusCode: statusCode,
		message:    message,
		cause:      cause,
	}
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	if e.cause != nil {
		return e.message + ": " + e.cause.Error()
	}
	return e.message
}

// Unwrap returns the underlying cause.
func (e *ProviderError) Unwrap() error {
	return e.cause
}

// Operation returns the operation that failed.
func (e *ProviderError) Operation() string { return e.operation }

// StatusCode returns the HTTP status code if available.
func (e *ProviderError) StatusCode() int { return e.statusCode }

// Message returns the error message.
func (e *ProviderError) Message() string { return e.message }

// IsRateLimited returns true if the error is due to rate limiting.
func (e *ProviderError) IsRateLimited() bool {
	return e.statusCode == 429
}
